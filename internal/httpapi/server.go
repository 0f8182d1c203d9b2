package httpapi

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"settingsd/internal/watch"
	"settingsd/pkg/types"
)

// Service defines the methods required by the HTTP API layer.
type Service interface {
	Desks() []string
	GetDesk(desk string) (map[string]types.Bucket, error)
	Merged(desk string) (map[string]types.Bucket, error)
	DelDesk(desk string) error
	GetBucket(desk, bucket string) (types.Bucket, error)
	PutBucket(desk, bucket string, entries types.Bucket) error
	DelBucket(desk, bucket string) error
	GetEntry(desk, bucket, key string) (types.Value, error)
	PutEntry(desk, bucket, key string, val types.Value) error
	DelEntry(desk, bucket, key string) error
	EntriesAfter(desk, bucket string, after *string, max int) ([]types.Entry, error)
	BottomEntries(desk, bucket string, n int) ([]types.Entry, error)
	TopEntries(desk, bucket string, n int) ([]types.Entry, error)
	Status() types.StatusResponse
}

const (
	defaultPageLimit = 50
	maxPageLimit     = 500
)

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		writeJSONError(w, http.StatusInternalServerError, "failed to encode response")
	}
}

// decodeJSONBody enforces content type and size limits before
// decoding into dst.
func decodeJSONBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	ct := r.Header.Get("Content-Type")
	if ct == "" || !strings.HasPrefix(strings.ToLower(ct), "application/json") {
		writeJSONError(w, http.StatusUnsupportedMediaType, "Content-Type must be application/json")
		return false
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid JSON body")
		return false
	}
	return true
}

func pageLimit(r *http.Request) int {
	v := r.URL.Query().Get("limit")
	if v == "" {
		return defaultPageLimit
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return -1
	}
	if n > maxPageLimit {
		n = maxPageLimit
	}
	return n
}

// NewMux builds the HTTP routes over the settings service, the watch
// registry (for /v1/await) and the event hub (for /v1/events).
func NewMux(svc Service, reg *watch.Registry, hub *EventHub) http.Handler {
	r := chi.NewRouter()
	// Basic middlewares: request id, real ip, recoverer
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	// Compression for JSON endpoints
	r.Use(middleware.Compress(5))
	r.Use(MetricsMiddleware)
	// Security headers
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("X-Content-Type-Options", "nosniff")
			next.ServeHTTP(w, r)
		})
	})
	if corsEnabled {
		methods := corsAllowedMethods
		if len(methods) == 0 {
			methods = []string{"GET", "PUT", "POST", "DELETE", "OPTIONS"}
		}
		headers := corsAllowedHeaders
		if len(headers) == 0 {
			headers = []string{"Accept", "Content-Type", "X-Log-Level"}
		}
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: corsAllowedOrigins,
			AllowedMethods: methods,
			AllowedHeaders: headers,
		}))
	}

	r.Route("/v1", func(r chi.Router) {
		r.Get("/desks", func(w http.ResponseWriter, _ *http.Request) {
			desks := svc.Desks()
			if desks == nil {
				desks = []string{}
			}
			writeJSON(w, types.DesksResponse{Desks: desks})
		})

		r.Get("/desks/{desk}", func(w http.ResponseWriter, r *http.Request) {
			desk := chi.URLParam(r, "desk")
			buckets, err := svc.GetDesk(desk)
			if err != nil {
				writeStoreError(w, err)
				return
			}
			writeJSON(w, types.DeskResponse{Desk: desk, Buckets: buckets})
		})

		r.Delete("/desks/{desk}", func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			desk := chi.URLParam(r, "desk")
			if err := svc.DelDesk(desk); err != nil {
				logRequest(r, "del-desk", writeStoreError(w, err), start, err)
				return
			}
			w.WriteHeader(http.StatusNoContent)
			logRequest(r, "del-desk", http.StatusNoContent, start, nil)
		})

		r.Get("/desks/{desk}/merged", func(w http.ResponseWriter, r *http.Request) {
			desk := chi.URLParam(r, "desk")
			buckets, err := svc.Merged(desk)
			if err != nil {
				writeStoreError(w, err)
				return
			}
			writeJSON(w, types.DeskResponse{Desk: desk, Buckets: buckets})
		})

		r.Get("/desks/{desk}/buckets/{bucket}", func(w http.ResponseWriter, r *http.Request) {
			desk, bucket := chi.URLParam(r, "desk"), chi.URLParam(r, "bucket")
			entries, err := svc.GetBucket(desk, bucket)
			if err != nil {
				writeStoreError(w, err)
				return
			}
			writeJSON(w, types.BucketResponse{Desk: desk, Bucket: bucket, Entries: entries})
		})

		r.Put("/desks/{desk}/buckets/{bucket}", func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			desk, bucket := chi.URLParam(r, "desk"), chi.URLParam(r, "bucket")
			var entries types.Bucket
			if !decodeJSONBody(w, r, &entries) {
				return
			}
			if err := svc.PutBucket(desk, bucket, entries); err != nil {
				logRequest(r, "put-bucket", writeStoreError(w, err), start, err)
				return
			}
			w.WriteHeader(http.StatusNoContent)
			logRequest(r, "put-bucket", http.StatusNoContent, start, nil)
		})

		r.Delete("/desks/{desk}/buckets/{bucket}", func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			desk, bucket := chi.URLParam(r, "desk"), chi.URLParam(r, "bucket")
			if err := svc.DelBucket(desk, bucket); err != nil {
				logRequest(r, "del-bucket", writeStoreError(w, err), start, err)
				return
			}
			w.WriteHeader(http.StatusNoContent)
			logRequest(r, "del-bucket", http.StatusNoContent, start, nil)
		})

		r.Get("/desks/{desk}/buckets/{bucket}/entries", func(w http.ResponseWriter, r *http.Request) {
			desk, bucket := chi.URLParam(r, "desk"), chi.URLParam(r, "bucket")
			limit := pageLimit(r)
			if limit < 0 {
				writeJSONError(w, http.StatusBadRequest, "limit must be a non-negative integer")
				return
			}
			var (
				entries []types.Entry
				err     error
			)
			q := r.URL.Query()
			switch {
			case q.Get("after") != "":
				after := q.Get("after")
				entries, err = svc.EntriesAfter(desk, bucket, &after, limit)
			case q.Get("from") == "top":
				entries, err = svc.TopEntries(desk, bucket, limit)
			case q.Get("from") == "bottom", q.Get("from") == "":
				entries, err = svc.BottomEntries(desk, bucket, limit)
			default:
				writeJSONError(w, http.StatusBadRequest, "from must be 'top' or 'bottom'")
				return
			}
			if err != nil {
				writeStoreError(w, err)
				return
			}
			if entries == nil {
				entries = []types.Entry{}
			}
			writeJSON(w, types.EntriesResponse{Desk: desk, Bucket: bucket, Entries: entries})
		})

		r.Get("/desks/{desk}/buckets/{bucket}/entries/{key}", func(w http.ResponseWriter, r *http.Request) {
			desk, bucket, key := chi.URLParam(r, "desk"), chi.URLParam(r, "bucket"), chi.URLParam(r, "key")
			val, err := svc.GetEntry(desk, bucket, key)
			if err != nil {
				writeStoreError(w, err)
				return
			}
			writeJSON(w, val)
		})

		r.Put("/desks/{desk}/buckets/{bucket}/entries/{key}", func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			desk, bucket, key := chi.URLParam(r, "desk"), chi.URLParam(r, "bucket"), chi.URLParam(r, "key")
			var val types.Value
			if !decodeJSONBody(w, r, &val) {
				return
			}
			if err := svc.PutEntry(desk, bucket, key, val); err != nil {
				logRequest(r, "put-entry", writeStoreError(w, err), start, err)
				return
			}
			w.WriteHeader(http.StatusNoContent)
			logRequest(r, "put-entry", http.StatusNoContent, start, nil)
		})

		r.Delete("/desks/{desk}/buckets/{bucket}/entries/{key}", func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			desk, bucket, key := chi.URLParam(r, "desk"), chi.URLParam(r, "bucket"), chi.URLParam(r, "key")
			if err := svc.DelEntry(desk, bucket, key); err != nil {
				logRequest(r, "del-entry", writeStoreError(w, err), start, err)
				return
			}
			w.WriteHeader(http.StatusNoContent)
			logRequest(r, "del-entry", http.StatusNoContent, start, nil)
		})

		r.Post("/await", handleAwait(reg))

		if hub != nil {
			r.Get("/events", hub.handleEvents)
		}

		r.Get("/status", func(w http.ResponseWriter, _ *http.Request) {
			st := svc.Status()
			if reg != nil {
				st.Watchers = reg.Pending()
			}
			writeJSON(w, st)
		})
	})

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	r.Get("/readyz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
	})

	// Prometheus metrics endpoint
	r.Get("/metrics", promhttp.Handler().ServeHTTP)

	MountSwagger(r)

	return r
}
