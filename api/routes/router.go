package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/shelfline/shelfline-backend/api/controllers"
	"github.com/shelfline/shelfline-backend/api/middleware"
	authsvc "github.com/shelfline/shelfline-backend/internal/auth"
	"github.com/shelfline/shelfline-backend/internal/cart"
	"github.com/shelfline/shelfline-backend/internal/catalog"
	"github.com/shelfline/shelfline-backend/internal/circulation"
	"github.com/shelfline/shelfline-backend/internal/entrylog"
	"github.com/shelfline/shelfline-backend/internal/importer"
	"github.com/shelfline/shelfline-backend/internal/students"
	"github.com/shelfline/shelfline-backend/pkg/auth/session"
	"github.com/shelfline/shelfline-backend/pkg/config"
	"github.com/shelfline/shelfline-backend/pkg/db"
	"github.com/shelfline/shelfline-backend/pkg/enums"
	"github.com/shelfline/shelfline-backend/pkg/logger"
	"github.com/shelfline/shelfline-backend/pkg/redis"
)

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP db.Pinger,
	redisClient *redis.Client,
	sessionManager session.AccessSessionChecker,
	authService authsvc.Service,
	catalogService catalog.Service,
	cartService cart.Service,
	circulationService circulation.Service,
	studentsService students.Service,
	entrylogService entrylog.Service,
	importService importer.Service,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)

	loginPolicy := middleware.NewAuthRateLimitPolicy(
		"login",
		cfg.AuthRateLimit.LoginWindow,
		cfg.AuthRateLimit.LoginIPLimit,
		cfg.AuthRateLimit.LoginEmailLimit,
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, dbP, redisClient))
	})

	r.Route("/api/public", func(r chi.Router) {
		r.Get("/ping", controllers.PublicPing())
	})

	r.Route("/api/v1/auth", func(r chi.Router) {
		r.With(middleware.AuthRateLimit(loginPolicy, redisClient, logg)).Post("/login", controllers.PatronLogin(authService, logg))
		r.With(middleware.AuthRateLimit(loginPolicy, redisClient, logg)).Post("/admin/login", controllers.AdminLogin(authService, logg))
		r.Post("/refresh", controllers.AuthRefresh(authService, logg))
		r.Post("/logout", controllers.AuthLogout(authService, logg))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, sessionManager, logg))
		r.Use(middleware.Idempotency(redisClient, logg))

		r.Get("/ping", controllers.PrivatePing())

		r.Route("/books", func(r chi.Router) {
			r.Get("/", controllers.BrowseBooks(catalogService, logg))
			r.Get("/{bookId}", controllers.GetBook(catalogService, logg))
		})
		r.Get("/taxonomies", controllers.ListTaxonomies(catalogService, logg))

		r.Route("/cart", func(r chi.Router) {
			r.Get("/", controllers.CartFetch(cartService, logg))
			r.Post("/", controllers.CartAdd(cartService, logg))
			r.Delete("/", controllers.CartClear(cartService, logg))
			r.Delete("/{isbn}", controllers.CartRemove(cartService, logg))
		})

		r.Route("/loans", func(r chi.Router) {
			r.Post("/", controllers.PatronIssue(circulationService, studentsService, cartService, logg))
			r.Get("/", controllers.PatronLoans(circulationService, logg))
			r.Get("/{loanId}", controllers.PatronLoanDetail(circulationService, logg))
		})

		r.Route("/admin", func(r chi.Router) {
			r.Use(middleware.RequireRole(string(enums.MemberRoleAdmin), logg))

			r.Get("/ping", controllers.AdminPing())

			r.Route("/books", func(r chi.Router) {
				r.Post("/", controllers.AdminCreateBook(catalogService, logg))
				r.Post("/import", controllers.AdminImportBooks(importService, logg))
				r.Patch("/{bookId}", controllers.AdminUpdateBook(catalogService, logg))
				r.Delete("/{bookId}", controllers.AdminDeleteBook(catalogService, logg))
			})

			r.Route("/students", func(r chi.Router) {
				r.Get("/", controllers.AdminListStudents(studentsService, logg))
				r.Post("/", controllers.AdminRegisterStudent(studentsService, logg))
				r.Post("/import", controllers.AdminImportStudents(importService, logg))
				r.Get("/{studentId}", controllers.AdminGetStudent(studentsService, logg))
				r.Patch("/{studentId}", controllers.AdminUpdateStudent(studentsService, logg))
				r.Delete("/{studentId}", controllers.AdminDeleteStudent(studentsService, logg))
			})

			r.Post("/staff", controllers.AdminRegisterStaff(studentsService, logg))

			r.Route("/loans", func(r chi.Router) {
				r.Get("/", controllers.AdminListLoans(circulationService, logg))
				r.Post("/", controllers.AdminIssueLoans(circulationService, studentsService, logg))
				r.Post("/return", controllers.AdminReturnLoans(circulationService, logg))
				r.Get("/{loanId}", controllers.AdminGetLoan(circulationService, logg))
				r.Post("/{loanId}/return", controllers.AdminReturnLoan(circulationService, logg))
				r.Post("/{loanId}/clear-penalty", controllers.AdminClearPenalty(circulationService, logg))
			})

			r.Get("/entry-logs", controllers.AdminListEntryLogs(entrylogService, logg))
		})
	})

	return r
}
