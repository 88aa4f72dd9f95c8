package syncrun

import (
	"context"
	"net/http"
	"time"

	"webshopsync/internal/httpx"
	"webshopsync/internal/xmlcodec"
)

type Runner interface {
	Run(ctx context.Context, since time.Time) (*Run, error)
}

type HTTPHandler struct {
	svc    Runner
	secret string
}

func NewHTTPHandler(svc Runner, secret string) *HTTPHandler {
	return &HTTPHandler{svc: svc, secret: secret}
}

// Sync handles POST /internal/jobs/sync. The optional since query
// parameter overrides the watermark; it accepts RFC 3339 or the webshop's
// own "2006-01-02 15:04:05" form.
func (h *HTTPHandler) Sync(w http.ResponseWriter, r *http.Request) {
	secret := r.Header.Get("X-Internal-Secret")
	if h.secret != "" && secret != h.secret {
		httpx.JSONError(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "invalid internal secret", nil)
		return
	}

	var since time.Time
	if v := r.URL.Query().Get("since"); v != "" {
		parsed, err := ParseSince(v)
		if err != nil {
			httpx.JSONError(w, r, http.StatusBadRequest, "VALIDATION_ERROR", "invalid since", []httpx.ErrorDetail{
				{Field: "since", Message: err.Error()},
			})
			return
		}
		since = parsed
	}

	run, err := h.svc.Run(r.Context(), since)
	if err != nil {
		if run == nil {
			httpx.JSONError(w, r, http.StatusInternalServerError, "SYNC_FAILED", err.Error(), nil)
			return
		}
		httpx.JSONError(w, r, http.StatusInternalServerError, "SYNC_FAILED", err.Error(), []httpx.ErrorDetail{
			{Field: "run_id", Message: run.ID},
		})
		return
	}

	httpx.JSONSuccess(w, r, run, nil)
}

// ParseSince reads a watermark given on the command line or in a request.
func ParseSince(v string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, v); err == nil {
		return t.UTC(), nil
	}
	t, err := time.ParseInLocation(xmlcodec.TimeLayout, v, time.UTC)
	if err != nil {
		return time.Time{}, err
	}
	return t, nil
}
