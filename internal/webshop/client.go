package webshop

import (
	"context"
	"errors"
	"net/url"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"webshopsync/internal/entity"
	"webshopsync/internal/metrics"
)

type Options struct {
	// MaxAttempts bounds how often one action is tried. Defaults to 3.
	MaxAttempts int
	BackoffBase time.Duration
	BackoffMax  time.Duration
	// RPS limits request admission. Zero means unlimited.
	RPS    float64
	Logger zerolog.Logger
}

// Client invokes webshop actions. Transport faults are retried with
// exponential backoff; every answer the webshop gives is final.
type Client struct {
	transport   Transport
	limiter     *rate.Limiter
	maxAttempts int
	backoffBase time.Duration
	backoffMax  time.Duration
	log         zerolog.Logger
}

func NewClient(t Transport, opts Options) *Client {
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = 3
	}
	if opts.BackoffBase <= 0 {
		opts.BackoffBase = 500 * time.Millisecond
	}
	if opts.BackoffMax <= 0 {
		opts.BackoffMax = 10 * time.Second
	}

	limit := rate.Inf
	if opts.RPS > 0 {
		limit = rate.Limit(opts.RPS)
	}

	return &Client{
		transport:   t,
		limiter:     rate.NewLimiter(limit, 1),
		maxAttempts: opts.MaxAttempts,
		backoffBase: opts.BackoffBase,
		backoffMax:  opts.BackoffMax,
		log:         opts.Logger,
	}
}

// Invoke runs one action and returns the raw response text.
func (c *Client) Invoke(ctx context.Context, kind entity.Kind, action string, params url.Values) (string, error) {
	req := Request{Kind: kind, Action: action, Params: params}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = c.backoffBase
	b.MaxInterval = c.backoffMax
	b.MaxElapsedTime = 0
	policy := backoff.WithContext(backoff.WithMaxRetries(b, uint64(c.maxAttempts-1)), ctx)

	attempts := 0
	op := func() (string, error) {
		attempts++
		if err := c.limiter.Wait(ctx); err != nil {
			return "", backoff.Permanent(err)
		}
		raw, err := c.transport.Do(ctx, req)
		if err != nil && !retryable(ctx, err) {
			return "", backoff.Permanent(err)
		}
		return raw, err
	}
	notify := func(err error, next time.Duration) {
		c.log.Warn().Err(err).
			Str("kind", kind.String()).
			Str("action", action).
			Int("attempt", attempts).
			Dur("retry_in", next).
			Msg("webshop call failed, retrying")
	}

	raw, err := backoff.RetryNotifyWithData(op, policy, notify)
	if err != nil {
		return "", &TransportError{Kind: kind, Action: action, Attempts: attempts, Err: err}
	}
	return raw, nil
}

// Call invokes the action and classifies the answer. An error is returned
// only for transport faults; application errors come back as a Response of
// type Error.
func (c *Client) Call(ctx context.Context, req Request) (Response, error) {
	start := time.Now()
	raw, err := c.Invoke(ctx, req.Kind, req.Action, req.Params)
	if err != nil {
		metrics.RecordRPC(req.Kind.String(), req.Action, "transport", time.Since(start))
		return Response{}, err
	}

	resp := Classify(raw)
	metrics.RecordRPC(req.Kind.String(), req.Action, resp.Type.String(), time.Since(start))

	ev := c.log.Debug().
		Str("kind", req.Kind.String()).
		Str("action", req.Action).
		Stringer("result", resp.Type).
		Dur("took", time.Since(start))
	if resp.Type == Error {
		ev = ev.Str("reason", resp.Reason)
	}
	ev.Msg("webshop call")

	return resp, nil
}

func retryable(ctx context.Context, err error) bool {
	if ctx.Err() != nil {
		return false
	}
	if errors.Is(err, ErrInvalidRequest) {
		return false
	}
	var se *StatusError
	if errors.As(err, &se) {
		return se.Temporary()
	}
	return true
}
