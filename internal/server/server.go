package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/danielgtaylor/huma/v2"
	humachi "github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"

	"ritech/internal/auth"
	"ritech/internal/domain"
	"ritech/internal/engine"
	"ritech/internal/events"
	"ritech/internal/pin"
	"ritech/internal/report"
	"ritech/internal/store"
)

// Config for the HTTP API handler.
type Config struct {
	Engine   *engine.Engine
	Store    *store.SQLite
	Pin      *pin.Lock
	BasePath string
	Auth     AuthConfig
	Logger   *slog.Logger
}

type apiErrorBody struct {
	Code    string         `json:"code" example:"invalid_transition"`
	Message string         `json:"message" example:"completion requires an end date"`
	Details map[string]any `json:"details,omitempty" jsonschema:"type=object,additionalProperties=true"`
}

// apiError models the error envelope.
type apiError struct {
	status int
	Body   apiErrorBody `json:"error"`
}

func (e *apiError) GetStatus() int { return e.status }
func (e *apiError) Error() string  { return e.Body.Message }

// New returns an HTTP handler exposing the RiTech API.
func New(cfg Config) (http.Handler, error) {
	basePath := cfg.BasePath
	if basePath == "" {
		basePath = "/v1"
	}
	if !strings.HasPrefix(basePath, "/") {
		basePath = "/" + basePath
	}
	huma.DefaultArrayNullable = false
	huma.NewError = func(status int, msg string, errs ...error) huma.StatusError {
		return newAPIError(status, "", msg, nil)
	}
	huma.NewErrorWithContext = func(_ huma.Context, status int, msg string, errs ...error) huma.StatusError {
		if status == http.StatusUnprocessableEntity && strings.Contains(strings.ToLower(msg), "validation") {
			// Schema/request validation errors should be 400 bad_request
			status = http.StatusBadRequest
		}
		var details map[string]any
		if len(errs) > 0 {
			details = map[string]any{"errors": errs}
		}
		return newAPIError(status, "", msg, details)
	}

	router := chi.NewRouter()
	if cfg.Logger != nil {
		router.Use(requestLogger(cfg.Logger))
	}
	router.Use(newAuthMiddleware(basePath, cfg.Auth))
	hcfg := huma.DefaultConfig("RiTech API", "0.1.0")
	hcfg.OpenAPIPath = "/openapi"
	hcfg.DocsPath = "" // custom Swagger UI below
	api := humachi.New(router, hcfg)
	group := huma.NewGroup(api, basePath)

	registerDocs(router, basePath)
	registerHealth(group)
	registerDevAuth(group, cfg.Auth)
	registerClients(group, cfg.Engine)
	registerSites(group, cfg.Engine)
	registerJobs(group, cfg.Engine)
	registerDashboard(group, cfg.Engine)
	registerReports(group, cfg.Engine)
	registerEvents(group, cfg.Store)
	registerDevice(group, cfg.Pin)
	registerOpenAPI(router, api, basePath)

	return router, nil
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func requestLogger(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(rec, req)
			logger.Info("request",
				"method", req.Method,
				"path", req.URL.Path,
				"status", rec.status,
				"duration_ms", time.Since(start).Milliseconds(),
			)
		})
	}
}

func newAPIError(status int, code, message string, details map[string]any) huma.StatusError {
	if code == "" {
		code = defaultCodeForStatus(status)
	}
	return &apiError{
		status: status,
		Body: apiErrorBody{
			Code:    code,
			Message: message,
			Details: details,
		},
	}
}

func handleError(err error) huma.StatusError {
	if err == nil {
		return nil
	}
	var te engine.TransitionError
	if errors.As(err, &te) {
		return newAPIError(http.StatusUnprocessableEntity, "invalid_transition", te.Reason, nil)
	}
	var ce *engine.CascadeError
	if errors.As(err, &ce) {
		return newAPIError(http.StatusInternalServerError, "cascade_failed", err.Error(), map[string]any{
			"deleted":   ce.Result.Deleted,
			"failed_at": ce.Result.FailedAt,
		})
	}
	if errors.Is(err, auth.ErrUnavailable) {
		return newAPIError(http.StatusUnauthorized, "not_authenticated", err.Error(), nil)
	}
	if errors.Is(err, store.ErrNotFound) {
		return newAPIError(http.StatusNotFound, "not_found", err.Error(), nil)
	}
	msg := err.Error()
	lowered := strings.ToLower(msg)
	switch {
	case strings.Contains(lowered, "invalid") || strings.Contains(lowered, "missing") || strings.Contains(lowered, "required"):
		return newAPIError(http.StatusBadRequest, "bad_request", msg, nil)
	default:
		return newAPIError(http.StatusInternalServerError, "internal_error", "internal error", map[string]any{"error": msg})
	}
}

func defaultCodeForStatus(status int) string {
	switch status {
	case http.StatusBadRequest:
		return "bad_request"
	case http.StatusNotFound:
		return "not_found"
	case http.StatusConflict:
		return "conflict"
	case http.StatusUnprocessableEntity:
		return "validation_failed"
	case http.StatusForbidden:
		return "forbidden"
	case http.StatusInternalServerError:
		return "internal_error"
	default:
		return strings.ToLower(strings.ReplaceAll(http.StatusText(status), " ", "_"))
	}
}

// actorContext threads the authenticated principal into the engine call so
// audit events name the HTTP user rather than the service session.
func actorContext(ctx context.Context) (context.Context, huma.StatusError) {
	actorID, authErr := actorIDFromContext(ctx)
	if authErr != nil {
		return ctx, authErr
	}
	return auth.WithActor(ctx, actorID), nil
}

func registerDocs(r chi.Router, basePath string) {
	r.Get("/docs", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		io.WriteString(w, swaggerHTML(basePath))
	})
}

func registerOpenAPI(r chi.Router, api huma.API, basePath string) {
	var spec []byte
	specPath := path.Join(basePath, "openapi.json")
	r.Get(specPath, func(w http.ResponseWriter, r *http.Request) {
		if spec == nil {
			oas := api.OpenAPI()
			applyAuthSecurity(oas, basePath)
			spec, _ = json.Marshal(oas)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write(spec)
	})
}

func applyAuthSecurity(oas *huma.OpenAPI, basePath string) {
	if oas == nil {
		return
	}
	if oas.Components == nil {
		oas.Components = &huma.Components{}
	}
	if oas.Components.SecuritySchemes == nil {
		oas.Components.SecuritySchemes = map[string]*huma.SecurityScheme{}
	}
	oas.Components.SecuritySchemes["bearerAuth"] = &huma.SecurityScheme{
		Type:         "http",
		Scheme:       "bearer",
		BearerFormat: "JWT",
	}
	security := []map[string][]string{
		{"bearerAuth": {}},
	}
	oas.Security = security
	open := map[string]bool{
		path.Join("/", basePath, "health"):         true,
		path.Join("/", basePath, "auth/dev/login"): true,
	}
	for route, item := range oas.Paths {
		for _, op := range []*huma.Operation{
			item.Get, item.Put, item.Post, item.Delete, item.Options, item.Head, item.Patch, item.Trace,
		} {
			if op == nil {
				continue
			}
			if open[route] {
				op.Security = []map[string][]string{}
				continue
			}
			op.Security = security
		}
	}
}

func swaggerHTML(basePath string) string {
	specURL := path.Join("/", path.Join(basePath, "openapi.json"))
	return fmt.Sprintf(`<!doctype html>
<html lang="en">
  <head>
    <meta charset="utf-8"/>
    <meta name="viewport" content="width=device-width, initial-scale=1"/>
    <title>RiTech API Docs</title>
    <link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist@5/swagger-ui.css" />
  </head>
  <body>
    <div id="swagger-ui"></div>
    <script src="https://unpkg.com/swagger-ui-dist@5/swagger-ui-bundle.js" crossorigin></script>
    <script>
      window.onload = () => {
        SwaggerUIBundle({
          url: '%s',
          dom_id: '#swagger-ui'
        });
      };
    </script>
  </body>
</html>`, specURL)
}

func registerHealth(api huma.API) {
	huma.Register(api, huma.Operation{
		OperationID: "health",
		Method:      http.MethodGet,
		Path:        "/health",
		Summary:     "Health check",
	}, func(ctx context.Context, _ *struct{}) (*struct {
		Body map[string]string `json:"body"`
	}, error) {
		return &struct {
			Body map[string]string `json:"body"`
		}{Body: map[string]string{"status": "ok"}}, nil
	})
}

func registerDevAuth(api huma.API, authCfg AuthConfig) {
	huma.Register(api, huma.Operation{
		OperationID: "dev-login",
		Method:      http.MethodPost,
		Path:        "/auth/dev/login",
		Summary:     "DEV ONLY: mint a JWT for local testing",
		Errors:      []int{http.StatusBadRequest, http.StatusInternalServerError},
	}, func(ctx context.Context, input *struct {
		Body DevLoginRequest `json:"body"`
	}) (*struct {
		Body DevLoginResponse `json:"body"`
	}, error) {
		actorID := strings.TrimSpace(input.Body.ActorID)
		if actorID == "" {
			return nil, newAPIError(http.StatusBadRequest, "bad_request", "actor_id is required", nil)
		}
		minter := auth.NewLocal(authCfg.JWTSecret, actorID)
		s, err := minter.Reauthenticate(ctx)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body DevLoginResponse `json:"body"`
		}{Body: DevLoginResponse{Token: s.Token}}, nil
	})
}

func registerClients(api huma.API, e *engine.Engine) {
	huma.Register(api, huma.Operation{
		OperationID: "list-clients",
		Method:      http.MethodGet,
		Path:        "/clients",
		Summary:     "List clients ordered by urgency",
	}, func(ctx context.Context, input *struct {
		Q string `query:"q"`
	}) (*struct {
		Body []engine.ClientView `json:"body"`
	}, error) {
		if _, authErr := actorIDFromContext(ctx); authErr != nil {
			return nil, authErr
		}
		v := e.View(engine.Scope{Search: input.Q})
		return &struct {
			Body []engine.ClientView `json:"body"`
		}{Body: v.Clients}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID:   "create-client",
		Method:        http.MethodPost,
		Path:          "/clients",
		Summary:       "Create client",
		DefaultStatus: http.StatusCreated,
		Errors:        []int{http.StatusBadRequest, http.StatusUnauthorized},
	}, func(ctx context.Context, input *struct {
		Body CreateClientRequest `json:"body"`
	}) (*struct {
		Body engine.ClientView `json:"body"`
	}, error) {
		ctx, authErr := actorContext(ctx)
		if authErr != nil {
			return nil, authErr
		}
		c, err := e.AddClient(ctx, input.Body.Name)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body engine.ClientView `json:"body"`
		}{Body: engine.ClientView{Client: c}}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "update-client",
		Method:      http.MethodPatch,
		Path:        "/clients/{client_id}",
		Summary:     "Update client",
		Errors:      []int{http.StatusBadRequest, http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		ClientID string              `path:"client_id"`
		Body     UpdateClientRequest `json:"body"`
	}) (*struct{}, error) {
		ctx, authErr := actorContext(ctx)
		if authErr != nil {
			return nil, authErr
		}
		if err := e.UpdateClient(ctx, input.ClientID, store.ClientFields{Name: input.Body.Name}); err != nil {
			return nil, handleError(err)
		}
		return &struct{}{}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "delete-client",
		Method:      http.MethodDelete,
		Path:        "/clients/{client_id}",
		Summary:     "Delete client and all descendants",
		Errors:      []int{http.StatusNotFound, http.StatusInternalServerError},
	}, func(ctx context.Context, input *struct {
		ClientID string `path:"client_id"`
	}) (*struct {
		Body DeleteResponse `json:"body"`
	}, error) {
		ctx, authErr := actorContext(ctx)
		if authErr != nil {
			return nil, authErr
		}
		result, err := e.Delete(ctx, engine.LevelClient, input.ClientID)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body DeleteResponse `json:"body"`
		}{Body: DeleteResponse{Result: result}}, nil
	})
}

func registerSites(api huma.API, e *engine.Engine) {
	huma.Register(api, huma.Operation{
		OperationID: "list-sites",
		Method:      http.MethodGet,
		Path:        "/sites",
		Summary:     "List sites ordered by urgency",
	}, func(ctx context.Context, input *struct {
		ClientID string `query:"client_id"`
		Q        string `query:"q"`
	}) (*struct {
		Body []engine.SiteView `json:"body"`
	}, error) {
		if _, authErr := actorIDFromContext(ctx); authErr != nil {
			return nil, authErr
		}
		v := e.View(engine.Scope{ClientID: input.ClientID, Search: input.Q})
		return &struct {
			Body []engine.SiteView `json:"body"`
		}{Body: v.Sites}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID:   "create-site",
		Method:        http.MethodPost,
		Path:          "/sites",
		Summary:       "Create site under a client",
		DefaultStatus: http.StatusCreated,
		Errors:        []int{http.StatusBadRequest, http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		Body CreateSiteRequest `json:"body"`
	}) (*struct {
		Body engine.SiteView `json:"body"`
	}, error) {
		ctx, authErr := actorContext(ctx)
		if authErr != nil {
			return nil, authErr
		}
		s, err := e.AddSite(ctx, input.Body.ClientID, input.Body.Name)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body engine.SiteView `json:"body"`
		}{Body: engine.SiteView{Site: s}}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "update-site",
		Method:      http.MethodPatch,
		Path:        "/sites/{site_id}",
		Summary:     "Update site",
		Errors:      []int{http.StatusBadRequest, http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		SiteID string            `path:"site_id"`
		Body   UpdateSiteRequest `json:"body"`
	}) (*struct{}, error) {
		ctx, authErr := actorContext(ctx)
		if authErr != nil {
			return nil, authErr
		}
		if err := e.UpdateSite(ctx, input.SiteID, store.SiteFields{Name: input.Body.Name}); err != nil {
			return nil, handleError(err)
		}
		return &struct{}{}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "delete-site",
		Method:      http.MethodDelete,
		Path:        "/sites/{site_id}",
		Summary:     "Delete site and its jobs",
		Errors:      []int{http.StatusNotFound, http.StatusInternalServerError},
	}, func(ctx context.Context, input *struct {
		SiteID string `path:"site_id"`
	}) (*struct {
		Body DeleteResponse `json:"body"`
	}, error) {
		ctx, authErr := actorContext(ctx)
		if authErr != nil {
			return nil, authErr
		}
		result, err := e.Delete(ctx, engine.LevelSite, input.SiteID)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body DeleteResponse `json:"body"`
		}{Body: DeleteResponse{Result: result}}, nil
	})
}

func registerJobs(api huma.API, e *engine.Engine) {
	huma.Register(api, huma.Operation{
		OperationID: "list-jobs",
		Method:      http.MethodGet,
		Path:        "/jobs",
		Summary:     "List jobs ordered by urgency",
	}, func(ctx context.Context, input *struct {
		SiteID string `query:"site_id"`
		Q      string `query:"q"`
	}) (*struct {
		Body []engine.JobView `json:"body"`
	}, error) {
		if _, authErr := actorIDFromContext(ctx); authErr != nil {
			return nil, authErr
		}
		v := e.View(engine.Scope{SiteID: input.SiteID, Search: input.Q})
		return &struct {
			Body []engine.JobView `json:"body"`
		}{Body: v.Jobs}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID:   "create-job",
		Method:        http.MethodPost,
		Path:          "/jobs",
		Summary:       "Create job under a site",
		DefaultStatus: http.StatusCreated,
		Errors:        []int{http.StatusBadRequest, http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		Body CreateJobRequest `json:"body"`
	}) (*struct {
		Body engine.JobView `json:"body"`
	}, error) {
		ctx, authErr := actorContext(ctx)
		if authErr != nil {
			return nil, authErr
		}
		draft := domainJob(input.Body)
		j, err := e.AddJob(ctx, input.Body.SiteID, draft)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body engine.JobView `json:"body"`
		}{Body: engine.JobView{Job: j, Score: engine.JobScore(j)}}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "update-job",
		Method:      http.MethodPatch,
		Path:        "/jobs/{job_id}",
		Summary:     "Update job fields",
		Errors:      []int{http.StatusBadRequest, http.StatusNotFound, http.StatusUnprocessableEntity},
	}, func(ctx context.Context, input *struct {
		JobID string           `path:"job_id"`
		Body  UpdateJobRequest `json:"body"`
	}) (*struct{}, error) {
		ctx, authErr := actorContext(ctx)
		if authErr != nil {
			return nil, authErr
		}
		f := store.JobFields{
			Type:            input.Body.Type,
			Status:          input.Body.Status,
			Description:     input.Body.Description,
			OfferRef:        input.Body.OfferRef,
			TechnicianNotes: input.Body.TechnicianNotes,
			IsPriority:      input.Body.IsPriority,
			StartDate:       input.Body.StartDate,
			EndDate:         input.Body.EndDate,
		}
		if err := e.UpdateJob(ctx, input.JobID, f); err != nil {
			return nil, handleError(err)
		}
		return &struct{}{}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "set-job-status",
		Method:      http.MethodPost,
		Path:        "/jobs/{job_id}/status",
		Summary:     "Change job status",
		Errors:      []int{http.StatusBadRequest, http.StatusNotFound, http.StatusUnprocessableEntity},
	}, func(ctx context.Context, input *struct {
		JobID string              `path:"job_id"`
		Body  SetJobStatusRequest `json:"body"`
	}) (*struct{}, error) {
		ctx, authErr := actorContext(ctx)
		if authErr != nil {
			return nil, authErr
		}
		if err := e.SetJobStatus(ctx, input.JobID, input.Body.Status); err != nil {
			return nil, handleError(err)
		}
		return &struct{}{}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "delete-job",
		Method:      http.MethodDelete,
		Path:        "/jobs/{job_id}",
		Summary:     "Delete a single job",
		Errors:      []int{http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		JobID string `path:"job_id"`
	}) (*struct {
		Body DeleteResponse `json:"body"`
	}, error) {
		ctx, authErr := actorContext(ctx)
		if authErr != nil {
			return nil, authErr
		}
		result, err := e.Delete(ctx, engine.LevelJob, input.JobID)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body DeleteResponse `json:"body"`
		}{Body: DeleteResponse{Result: result}}, nil
	})
}

func registerDashboard(api huma.API, e *engine.Engine) {
	huma.Register(api, huma.Operation{
		OperationID: "dashboard",
		Method:      http.MethodGet,
		Path:        "/dashboard",
		Summary:     "Global counters and the priority job list",
	}, func(ctx context.Context, _ *struct{}) (*struct {
		Body DashboardResponse `json:"body"`
	}, error) {
		if _, authErr := actorIDFromContext(ctx); authErr != nil {
			return nil, authErr
		}
		v := e.View(engine.Scope{})
		return &struct {
			Body DashboardResponse `json:"body"`
		}{Body: DashboardResponse{
			OpenJobs:     v.OpenJobs,
			ValidSites:   v.ValidSites,
			PriorityJobs: v.PriorityJobs,
		}}, nil
	})
}

func registerReports(api huma.API, e *engine.Engine) {
	huma.Register(api, huma.Operation{
		OperationID: "report",
		Method:      http.MethodGet,
		Path:        "/reports/{kind}",
		Summary:     "Job lists for printable reports",
		Errors:      []int{http.StatusBadRequest},
	}, func(ctx context.Context, input *struct {
		Kind string `path:"kind" enum:"materials,quotes,active"`
	}) (*struct {
		Body []engine.JobView `json:"body"`
	}, error) {
		if _, authErr := actorIDFromContext(ctx); authErr != nil {
			return nil, authErr
		}
		v := e.View(engine.Scope{})
		rows, err := report.Build(report.Kind(input.Kind), v.Jobs)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body []engine.JobView `json:"body"`
		}{Body: rows}, nil
	})
}

func registerEvents(api huma.API, st *store.SQLite) {
	huma.Register(api, huma.Operation{
		OperationID: "list-events",
		Method:      http.MethodGet,
		Path:        "/events",
		Summary:     "Tail the audit log",
	}, func(ctx context.Context, input *struct {
		N          int    `query:"n"`
		Type       string `query:"type"`
		EntityKind string `query:"entity_kind"`
	}) (*struct {
		Body []events.Event `json:"body"`
	}, error) {
		if _, authErr := actorIDFromContext(ctx); authErr != nil {
			return nil, authErr
		}
		evts, err := events.Latest(ctx, st.DB, input.N, input.Type, input.EntityKind)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body []events.Event `json:"body"`
		}{Body: evts}, nil
	})
}

func registerDevice(api huma.API, lock *pin.Lock) {
	if lock == nil {
		return
	}
	huma.Register(api, huma.Operation{
		OperationID: "set-pin",
		Method:      http.MethodPost,
		Path:        "/device/pin",
		Summary:     "Set the device PIN",
		Errors:      []int{http.StatusBadRequest},
	}, func(ctx context.Context, input *struct {
		Body struct {
			PIN string `json:"pin"`
		} `json:"body"`
	}) (*struct{}, error) {
		if _, authErr := actorIDFromContext(ctx); authErr != nil {
			return nil, authErr
		}
		if err := lock.Set(ctx, input.Body.PIN); err != nil {
			return nil, handleError(err)
		}
		return &struct{}{}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "unlock-device",
		Method:      http.MethodPost,
		Path:        "/device/unlock",
		Summary:     "Verify the device PIN",
		Errors:      []int{http.StatusForbidden},
	}, func(ctx context.Context, input *struct {
		Body struct {
			PIN string `json:"pin"`
		} `json:"body"`
	}) (*struct{}, error) {
		if _, authErr := actorIDFromContext(ctx); authErr != nil {
			return nil, authErr
		}
		if err := lock.Verify(ctx, input.Body.PIN); err != nil {
			if errors.Is(err, pin.ErrMismatch) {
				return nil, newAPIError(http.StatusForbidden, "wrong_pin", err.Error(), nil)
			}
			return nil, handleError(err)
		}
		return &struct{}{}, nil
	})
}

func domainJob(req CreateJobRequest) (j domain.Job) {
	j.Type = req.Type
	j.Status = req.Status
	j.Description = req.Description
	j.IsPriority = req.IsPriority
	if req.OfferRef != nil {
		j.OfferRef = *req.OfferRef
	}
	if req.TechnicianNotes != nil {
		j.TechnicianNotes = *req.TechnicianNotes
	}
	if req.StartDate != nil {
		j.StartDate = *req.StartDate
	}
	if req.EndDate != nil {
		j.EndDate = *req.EndDate
	}
	return j
}
