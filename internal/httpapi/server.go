package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/swaggo/swag"

	_ "offloadd/docs"
	"offloadd/pkg/types"
)

// Service defines the methods required by the HTTP API layer.
type Service interface {
	ListComponents() []types.Component
	ListGroups() []types.Group
	Status() types.StatusResponse
	Ensure(ctx context.Context, id string) error
	Release(ctx context.Context, id string) error
	Run(ctx context.Context, req types.RunRequest) (types.RunResponse, error)
	Ready() bool
}

func NewMux(svc Service) http.Handler {
	r := chi.NewRouter()
	// Basic middlewares: request id, real ip, recoverer
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(MetricsMiddleware)
	if corsEnabled {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: corsAllowedOrigins,
			AllowedMethods: corsAllowedMethods,
			AllowedHeaders: corsAllowedHeaders,
		}))
	}
	// Compression for JSON endpoints
	r.Use(middleware.Compress(5))
	// Security headers
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("X-Content-Type-Options", "nosniff")
			next.ServeHTTP(w, r)
		})
	})

	h := &handlers{svc: svc}
	r.Get("/components", h.listComponents)
	r.Get("/status", h.status)
	r.Post("/components/{id}/ensure", h.placement("ensure", svc.Ensure))
	r.Post("/components/{id}/release", h.placement("release", svc.Release))
	r.Post("/run", h.run)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	r.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		if svc.Ready() {
			w.WriteHeader(http.StatusOK)
			w.Write([]byte("ready"))
			return
		}
		w.WriteHeader(http.StatusServiceUnavailable)
		w.Write([]byte("closed"))
	})

	// Prometheus metrics endpoint
	r.Get("/metrics", promhttp.Handler().ServeHTTP)

	r.Get("/openapi.json", func(w http.ResponseWriter, r *http.Request) {
		doc, err := swag.ReadDoc()
		if err != nil {
			writeJSONError(w, http.StatusInternalServerError, err.Error())
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(doc))
	})
	MountSwagger(r)

	return r
}

type handlers struct {
	svc Service
}

// listComponents godoc
// @Summary      List components and exclusivity groups
// @Tags         components
// @Produce      json
// @Success      200  {object}  types.ComponentsResponse
// @Router       /components [get]
func (h *handlers) listComponents(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, types.ComponentsResponse{Components: h.svc.ListComponents(), Groups: h.svc.ListGroups()})
}

// status godoc
// @Summary      Tier and component snapshot
// @Tags         status
// @Produce      json
// @Success      200  {object}  types.StatusResponse
// @Router       /status [get]
func (h *handlers) status(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, h.svc.Status())
}

// placement serves POST /components/{id}/ensure and /release. The response
// is the component's status after the move.
//
// @Summary      Move a component between tiers
// @Tags         components
// @Produce      json
// @Param        id   path      string  true  "Component id"
// @Success      200  {object}  types.ComponentStatus
// @Failure      404  {object}  types.ErrorResponse
// @Failure      503  {object}  types.ErrorResponse
// @Failure      507  {object}  types.ErrorResponse
// @Router       /components/{id}/ensure [post]
// @Router       /components/{id}/release [post]
func (h *handlers) placement(op string, fn func(context.Context, string) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		lvl := requestLogLevel(r)
		start := time.Now()
		logOp(r, lvl, op, id)

		ctx, cancel := operationContext(r, 0)
		defer cancel()
		if err := fn(ctx, id); err != nil {
			if aborted(r) {
				return
			}
			status := statusFor(err)
			writeJSONError(w, status, err.Error())
			logOpEnd(r, lvl, op, status, start, err)
			return
		}
		for _, c := range h.svc.Status().Components {
			if c.ID == id {
				writeJSON(w, c)
				break
			}
		}
		logOpEnd(r, lvl, op, http.StatusOK, start, nil)
	}
}

// run godoc
// @Summary      Run one staged pipeline pass
// @Tags         pipeline
// @Accept       json
// @Produce      json
// @Param        request  body      types.RunRequest  true  "Run request"
// @Success      200      {object}  types.RunResponse
// @Failure      400      {object}  types.ErrorResponse
// @Failure      429      {object}  types.ErrorResponse
// @Failure      503      {object}  types.ErrorResponse
// @Failure      507      {object}  types.ErrorResponse
// @Router       /run [post]
func (h *handlers) run(w http.ResponseWriter, r *http.Request) {
	// Content-Type check
	ct := r.Header.Get("Content-Type")
	if ct == "" || !strings.HasPrefix(strings.ToLower(ct), "application/json") {
		writeJSONError(w, http.StatusUnsupportedMediaType, "Content-Type must be application/json")
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	var req types.RunRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if strings.TrimSpace(req.Prompt) == "" {
		writeJSONError(w, http.StatusBadRequest, "prompt is required")
		return
	}

	lvl := requestLogLevel(r)
	start := time.Now()
	logOp(r, lvl, "run", "")
	// Join server base context with request context so shutdown cancels work too.
	ctx, cancel := operationContext(r, runTimeout)
	defer cancel()
	resp, err := h.svc.Run(ctx, req)
	if err != nil {
		if aborted(r) {
			return
		}
		status := statusFor(err)
		if status == http.StatusTooManyRequests {
			IncrementBackpressure("run_queue")
		}
		writeJSONError(w, status, err.Error())
		logOpEnd(r, lvl, "run", status, start, err)
		return
	}
	writeJSON(w, resp)
	logOpEnd(r, lvl, "run", http.StatusOK, start, nil)
}
