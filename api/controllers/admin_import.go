package controllers

import (
	"net/http"

	"github.com/shelfline/shelfline-backend/api/responses"
	"github.com/shelfline/shelfline-backend/internal/importer"
	pkgerrors "github.com/shelfline/shelfline-backend/pkg/errors"
	"github.com/shelfline/shelfline-backend/pkg/logger"
)

const maxImportBytes = 10 << 20 // 10 MiB

// AdminImportBooks bulk-loads catalog titles from an uploaded CSV. The file
// arrives either as the raw request body or as the "file" part of a
// multipart form.
func AdminImportBooks(svc importer.Service, logg *logger.Logger) http.HandlerFunc {
	return importCSV(logg, func(r *http.Request) (*importer.Result, error) {
		return svc.ImportBooks(r.Context(), r.Body)
	})
}

// AdminImportStudents bulk-loads roster entries from an uploaded CSV.
func AdminImportStudents(svc importer.Service, logg *logger.Logger) http.HandlerFunc {
	return importCSV(logg, func(r *http.Request) (*importer.Result, error) {
		return svc.ImportStudents(r.Context(), r.Body)
	})
}

func importCSV(logg *logger.Logger, run func(*http.Request) (*importer.Result, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxImportBytes)

		if file, _, err := r.FormFile("file"); err == nil {
			defer file.Close()
			r.Body = file
		}

		result, err := run(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if result == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "import produced no result"))
			return
		}
		responses.WriteSuccess(w, result)
	}
}
