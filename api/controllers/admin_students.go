package controllers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/shelfline/shelfline-backend/api/responses"
	"github.com/shelfline/shelfline-backend/api/validators"
	"github.com/shelfline/shelfline-backend/internal/students"
	pkgerrors "github.com/shelfline/shelfline-backend/pkg/errors"
	"github.com/shelfline/shelfline-backend/pkg/logger"
	"github.com/shelfline/shelfline-backend/pkg/pagination"
)

// AdminRegisterStudent enrolls a patron.
func AdminRegisterStudent(svc students.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload students.RegisterInput
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		student, err := svc.Register(r.Context(), payload)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, students.FromModel(student))
	}
}

// AdminUpdateStudent applies a partial roster update.
func AdminUpdateStudent(svc students.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := parseStudentID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var payload students.UpdateInput
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		student, err := svc.Update(r.Context(), id, payload)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, students.FromModel(student))
	}
}

// AdminDeleteStudent removes a patron from the roster.
func AdminDeleteStudent(svc students.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := parseStudentID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := svc.Delete(r.Context(), id); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "deleted"})
	}
}

// AdminGetStudent serves one roster entry.
func AdminGetStudent(svc students.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := parseStudentID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		student, err := svc.Get(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, students.FromModel(student))
	}
}

// AdminListStudents pages through the roster.
func AdminListStudents(svc students.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		query := r.URL.Query()
		result, err := svc.List(r.Context(), students.ListStudentsInput{
			Branch: validators.SanitizeString(query.Get("branch"), 128),
			Batch:  validators.SanitizeString(query.Get("batch"), 32),
			Query:  validators.SanitizeString(query.Get("q"), 256),
			Pagination: pagination.Params{
				Limit:  limit,
				Cursor: strings.TrimSpace(query.Get("cursor")),
			},
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{
			"students":    students.FromModels(result.Students),
			"next_cursor": result.NextCursor,
		})
	}
}

// AdminRegisterStaff creates a back-office account.
func AdminRegisterStaff(svc students.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload students.RegisterStaffInput
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		staff, err := svc.RegisterStaff(r.Context(), payload)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, students.FromStaffModel(staff))
	}
}

func parseStudentID(r *http.Request) (uuid.UUID, error) {
	id, err := uuid.Parse(chi.URLParam(r, "studentId"))
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid student id")
	}
	return id, nil
}
