package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"settingsd/internal/watch"
	"settingsd/pkg/types"
)

// handleAwait blocks until a settings event matching the request
// arrives at the given path, or the wait budget expires. Expired or
// abandoned waits remove their watcher from the registry so this
// endpoint cannot leak pending entries.
func handleAwait(reg *watch.Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ct := r.Header.Get("Content-Type")
		if ct == "" || !strings.HasPrefix(strings.ToLower(ct), "application/json") {
			writeJSONError(w, http.StatusUnsupportedMediaType, "Content-Type must be application/json")
			return
		}
		r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
		var req types.AwaitRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSONError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
		if req.Path == "" || !strings.HasPrefix(req.Path, "/") {
			writeJSONError(w, http.StatusBadRequest, "path is required and must start with '/'")
			return
		}
		timeout := awaitTimeout
		if req.TimeoutSeconds > 0 {
			timeout = time.Duration(req.TimeoutSeconds) * time.Second
			if timeout > awaitTimeoutMax {
				timeout = awaitTimeoutMax
			}
		}
		hook := func(e types.Event, mark string) bool {
			if mark != SettingsMark {
				return false
			}
			if req.Event != "" && e.Name != req.Event {
				return false
			}
			if req.Key != "" && e.Key != req.Key {
				return false
			}
			return true
		}
		watcher, err := reg.Track(req.Path, hook)
		if err != nil {
			writeJSONError(w, http.StatusBadRequest, err.Error())
			return
		}

		// Join server base context with request context so shutdown cancels work too.
		joined, cancel := joinContexts(serverBaseCtx, r.Context())
		defer cancel()
		ctx, cancelWait := context.WithTimeout(joined, timeout)
		defer cancelWait()

		err = watcher.Wait(ctx)
		switch {
		case err == nil:
			w.Header().Set("Content-Type", "application/json")
			_ = json.NewEncoder(w).Encode(types.AwaitResponse{Path: req.Path, Status: "resolved"})
			logRequest(r, "await", http.StatusOK, start, nil)
		case errors.Is(err, context.DeadlineExceeded):
			reg.Remove(req.Path, watcher.ID())
			watchersCancelledTotal.Inc()
			writeJSONError(w, http.StatusGatewayTimeout, "await timed out")
			logRequest(r, "await", http.StatusGatewayTimeout, start, err)
		case errors.Is(err, watch.ErrWatcherCancelled):
			writeJSONError(w, http.StatusConflict, "watcher cancelled")
			logRequest(r, "await", http.StatusConflict, start, err)
		default:
			// client disconnect or shutdown; nothing useful to write
			reg.Remove(req.Path, watcher.ID())
			watchersCancelledTotal.Inc()
			logRequest(r, "await", 0, start, err)
		}
	}
}
