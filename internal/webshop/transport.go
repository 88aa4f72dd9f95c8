package webshop

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"webshopsync/internal/entity"
)

//go:generate mockgen -destination=mocks/mock_transport.go -package=mocks webshopsync/internal/webshop Transport

// Request is one remote action: an entity-kind token, an action token and
// its parameters.
type Request struct {
	Kind   entity.Kind
	Action string
	Params url.Values
}

// Transport delivers a request and returns the raw response text. It does
// not interpret the text and does not retry.
type Transport interface {
	Do(ctx context.Context, req Request) (string, error)
}

// HTTPTransport posts requests as forms to a single endpoint.
type HTTPTransport struct {
	httpClient *http.Client
	endpoint   string
	apiKey     string
	userAgent  string
}

func NewHTTPTransport(endpoint, apiKey string, timeout time.Duration) *HTTPTransport {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &HTTPTransport{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		endpoint:  endpoint,
		apiKey:    apiKey,
		userAgent: "webshop-sync/1.0",
	}
}

func (t *HTTPTransport) Do(ctx context.Context, r Request) (string, error) {
	form := url.Values{}
	for k, vs := range r.Params {
		form[k] = append([]string(nil), vs...)
	}
	form.Set("type", r.Kind.String())
	form.Set("action", r.Action)
	if t.apiKey != "" {
		form.Set("api_key", t.apiKey)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("User-Agent", t.userAgent)

	resp, err := t.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", &StatusError{StatusCode: resp.StatusCode, Body: string(body)}
	}
	return string(body), nil
}
