package api

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"dappdir/internal/directory"
	"dappdir/internal/metrics"
	"dappdir/internal/ports"
	"dappdir/internal/types"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
)

const (
	RequestIDHdrName = "X-Request-ID"

	maxBodyBytes = 1 << 20
)

// Directory is what the handlers need from the directory service.
type Directory interface {
	ListAll(ctx context.Context) []types.Record
	ListFeatured(ctx context.Context) []types.Record
	Query(ctx context.Context, f *directory.Filter) []types.Record
	GetBySlug(ctx context.Context, slug string) (*types.Record, bool)
	Save(ctx context.Context, in types.RecordInput) (string, []string, error)
	Delete(ctx context.Context, slug string) error
	Stats(ctx context.Context) types.Stats
	Seed(ctx context.Context) error
}

type Handler struct {
	Directory   Directory
	Revalidator ports.Revalidator
}

func NewHandler(dir Directory, rv ports.Revalidator) *Handler {
	return &Handler{
		Directory:   dir,
		Revalidator: rv,
	}
}

func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.Recoverer)
	r.Use(requestLogger)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Get("/apps", h.handleListApps)
	r.Post("/apps", h.handleSaveApp)
	r.Get("/apps/{slug}", h.handleGetApp)
	r.Delete("/apps/{slug}", h.handleDeleteApp)
	r.Get("/stats", h.handleStats)
	r.Post("/revalidate", h.handleRevalidate)
	r.Get("/check-env", h.handleCheckEnv)
	r.Post("/admin/seed", h.handleSeed)
	return r
}

func (h *Handler) handleListApps(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	q := r.URL.Query()

	var apps []types.Record
	if where := q.Get("where"); where != "" {
		f, err := directory.CompileFilter(where)
		if err != nil {
			writeResponse(w, http.StatusBadRequest, map[string]any{
				"success": false,
				"error":   "Invalid filter expression",
				"apps":    []types.Record{},
			})
			return
		}
		apps = h.Directory.Query(ctx, f)
		if q.Get("featured") == "true" {
			apps = featuredOnly(apps)
		}
	} else if q.Get("featured") == "true" {
		apps = h.Directory.ListFeatured(ctx)
	} else {
		apps = h.Directory.ListAll(ctx)
	}

	writeResponse(w, http.StatusOK, map[string]any{
		"success": true,
		"apps":    apps,
		"total":   len(apps),
	})
}

func (h *Handler) handleGetApp(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")
	app, ok := h.Directory.GetBySlug(r.Context(), slug)
	if !ok {
		writeResponse(w, http.StatusNotFound, map[string]any{
			"success": false,
			"error":   "Dapp not found",
		})
		return
	}
	writeResponse(w, http.StatusOK, map[string]any{
		"success": true,
		"app":     app,
	})
}

func (h *Handler) handleSaveApp(w http.ResponseWriter, r *http.Request) {
	var in types.RecordInput
	if err := readJSON(r, &in); err != nil {
		writeResponse(w, http.StatusBadRequest, map[string]any{
			"success": false,
			"error":   "Invalid JSON body",
		})
		return
	}

	slug, errs, err := h.Directory.Save(r.Context(), in)
	if len(errs) > 0 {
		writeResponse(w, http.StatusBadRequest, map[string]any{
			"success": false,
			"error":   "Validation failed",
			"errors":  errs,
		})
		return
	}
	if err != nil {
		log.WithError(err).WithField("request_id", requestID(r)).Error("POST /apps failed")
		writeResponse(w, http.StatusInternalServerError, map[string]any{
			"success": false,
			"error":   "Failed to save dapp",
		})
		return
	}
	writeResponse(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "Dapp saved successfully",
		"slug":    slug,
	})
}

func (h *Handler) handleDeleteApp(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")
	if err := h.Directory.Delete(r.Context(), slug); err != nil {
		log.WithError(err).WithFields(log.Fields{
			"request_id": requestID(r),
			"slug":       slug,
		}).Error("DELETE /apps failed")
		writeResponse(w, http.StatusInternalServerError, map[string]any{
			"success": false,
			"error":   "Failed to delete dapp",
		})
		return
	}
	writeResponse(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "Dapp deleted successfully",
	})
}

func (h *Handler) handleStats(w http.ResponseWriter, r *http.Request) {
	writeResponse(w, http.StatusOK, map[string]any{
		"success": true,
		"stats":   h.Directory.Stats(r.Context()),
	})
}

func (h *Handler) handleRevalidate(w http.ResponseWriter, r *http.Request) {
	var req types.RevalidateRequest
	if err := readJSON(r, &req); err != nil {
		// Same response as an unknown type: the gateway never sees it.
		req = types.RevalidateRequest{}
	}
	res := h.Revalidator.Revalidate(r.Context(), req)
	writeResponse(w, res.StatusCode, map[string]any{
		"success": res.Success(),
		"message": res.Message,
	})
}

func (h *Handler) handleCheckEnv(w http.ResponseWriter, r *http.Request) {
	frontendURL, hasSecret := h.Revalidator.Configured()
	if frontendURL == "" {
		frontendURL = "not-set"
	}
	secret := "not-set"
	if hasSecret {
		secret = "set"
	}
	writeResponse(w, http.StatusOK, map[string]any{
		"frontendUrl":      frontendURL,
		"revalidateSecret": secret,
	})
}

func (h *Handler) handleSeed(w http.ResponseWriter, r *http.Request) {
	err := h.Directory.Seed(r.Context())
	if err != nil {
		log.WithError(err).WithField("request_id", requestID(r)).Error("Seeding failed")
	}
	writeResponse(w, http.StatusOK, map[string]any{"success": err == nil})
}

func featuredOnly(in []types.Record) []types.Record {
	out := make([]types.Record, 0, len(in))
	for _, r := range in {
		if r.IsFeatured {
			out = append(out, r)
		}
	}
	return out
}

// readJSON decodes a bounded request body into v. An empty body is an error.
func readJSON(r *http.Request, v any) error {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		return err
	}
	defer func() {
		_ = r.Body.Close()
	}()
	if len(body) == 0 {
		return errors.New("empty body")
	}
	return json.Unmarshal(body, v)
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, code int, v any) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	return json.NewEncoder(w).Encode(v)
}

func writeResponse(w http.ResponseWriter, code int, v any) {
	if err := writeJSON(w, code, v); err != nil {
		log.WithError(err).Warn("failed to write response")
	}
}

type ctxKey struct{}

func requestID(r *http.Request) string {
	id, _ := r.Context().Value(ctxKey{}).(string)
	return id
}

// requestLogger tags every request with an id (honouring an incoming X-Request-ID), then logs and
// records latency once the handler returns.
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		id := r.Header.Get(RequestIDHdrName)
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(RequestIDHdrName, id)
		r = r.WithContext(context.WithValue(r.Context(), ctxKey{}, id))

		ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rc := chi.RouteContext(r.Context()); rc != nil && rc.RoutePattern() != "" {
			route = rc.RoutePattern()
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		elapsed := time.Since(start)
		metrics.ObserveHTTP(route, r.Method, strconv.Itoa(status), elapsed)
		log.WithFields(log.Fields{
			"request_id": id,
			"method":     r.Method,
			"route":      route,
			"status":     status,
			"elapsed_ms": elapsed.Milliseconds(),
		}).Debug("request")
	})
}
