/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route definitions.
  This is the wiring layer that connects URLs to handlers.

MIDDLEWARE STACK:
  1. RequestID:  Unique ID per request, echoed in logs
  2. RealIP:     Client address behind a proxy
  3. Logger:     Structured request log (logrus)
  4. Recoverer:  Panic recovery (500 instead of crash)
  5. CORS:       Cross-origin requests for the payroll front-end

ROUTE GROUPS:
  /api/employees/*      Employees
  /api/base-salaries/*  Base salary history
  /api/salary-events/*  Bonuses, deductions, advances
  /api/absences/*       Permissions and absences
  /api/payrolls/*       Payroll computation, payslips and the readiness check
  /api/policy           Policy in force
  /api/scenarios/*      Demo scenarios
  /metrics              Prometheus scrape endpoint
  /*                    Static files (front-end build), if present

SECURITY NOTE:
  No authentication middleware currently. All endpoints are public.

SEE ALSO:
  - handlers.go: Handler implementations
  - cmd/payroll/serve.go: Server startup
*/
package api

import (
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
)

// RouterOptions configures the outer surface of the router.
type RouterOptions struct {
	AllowedOrigins []string
	MetricsPath    string
	StaticDir      string
	Scheduler      *PayrollScheduler
}

// NewRouter creates a new router with all routes configured.
func NewRouter(h *Handler, opts RouterOptions) *chi.Mux {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(h.Log))
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   opts.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Content-Disposition"},
		AllowCredentials: true,
	}))

	if opts.MetricsPath != "" {
		r.Handle(opts.MetricsPath, promhttp.Handler())
	}

	// API routes
	r.Route("/api", func(r chi.Router) {
		r.Route("/employees", func(r chi.Router) {
			r.Get("/", h.ListEmployees)
			r.Post("/", h.CreateEmployee)
			r.Get("/{id}", h.GetEmployee)
		})

		r.Route("/base-salaries", func(r chi.Router) {
			r.Post("/", h.CreateBaseSalary)
			r.Get("/employee/{id}", h.ListBaseSalaries)
		})

		r.Route("/salary-events", func(r chi.Router) {
			r.Post("/", h.CreateSalaryEvent)
			r.Get("/employee/{id}", h.ListSalaryEvents)
		})

		r.Route("/absences", func(r chi.Router) {
			r.Post("/", h.CreateAbsence)
			r.Post("/price", h.PriceAbsence)
			r.Get("/employee/{id}", h.ListAbsences)
			r.Get("/{id}", h.GetAbsence)
			r.Put("/{id}", h.UpdateAbsence)
			r.Delete("/{id}", h.DeleteAbsence)
			r.Get("/{id}/editable", h.AbsenceEditable)
		})

		r.Route("/payrolls", func(r chi.Router) {
			r.Get("/calculate/all", h.CalculateAll)
			r.Get("/calculate/employees/{id}", h.CalculatePayroll)
			r.Get("/payslip/employees/{id}.pdf", h.DownloadPayslip)
			if opts.Scheduler != nil {
				r.Get("/check", opts.Scheduler.GetLastCheck)
			}
		})

		r.Get("/policy", h.GetPolicy)

		r.Route("/scenarios", func(r chi.Router) {
			r.Get("/", h.ListScenarios)
			r.Get("/current", h.GetCurrentScenario)
			r.Post("/load", h.LoadScenario)
		})
	})

	if opts.StaticDir != "" {
		if _, err := os.Stat(opts.StaticDir); err == nil {
			serveStatic(r, opts.StaticDir)
		}
	}

	return r
}

// serveStatic serves a single-page app, falling back to index.html.
func serveStatic(r chi.Router, dir string) {
	fileServer := http.FileServer(http.Dir(dir))
	r.Get("/*", func(w http.ResponseWriter, req *http.Request) {
		if _, err := os.Stat(filepath.Join(dir, filepath.Clean(req.URL.Path))); os.IsNotExist(err) {
			http.ServeFile(w, req, filepath.Join(dir, "index.html"))
			return
		}
		fileServer.ServeHTTP(w, req)
	})
}

// requestLogger logs one line per request through logrus.
func requestLogger(log *logrus.Entry) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)

			entry := log.WithFields(logrus.Fields{
				"request_id": middleware.GetReqID(r.Context()),
				"method":     r.Method,
				"path":       r.URL.Path,
				"status":     ww.Status(),
				"bytes":      ww.BytesWritten(),
				"duration":   time.Since(start).String(),
				"remote":     r.RemoteAddr,
			})
			switch {
			case ww.Status() >= http.StatusInternalServerError:
				entry.Error("request")
			case ww.Status() >= http.StatusBadRequest:
				entry.Warn("request")
			default:
				entry.Info("request")
			}
		})
	}
}
