package repository

import (
	"context"
	"errors"
	"net/url"
	"strconv"
	"time"

	"webshopsync/internal/entity"
	"webshopsync/internal/webshop"
	"webshopsync/internal/xmlcodec"
)

// Action tokens shared by every kind.
const (
	ActionGetByID         = "getById"
	ActionGetUpdatedSince = "getUpdatedSince"
	ActionDeleteByID      = "deleteById"
)

var errUnexpectedAck = errors.New("expected a payload, got ok")

// Caller is the part of the webshop client the repositories need.
type Caller interface {
	Call(ctx context.Context, req webshop.Request) (webshop.Response, error)
}

// Route names the remote actions of one kind.
type Route struct {
	Kind         entity.Kind
	GetAction    string
	ListAction   string
	UpdateAction string
	DeleteAction string
}

func DefaultRoute(kind entity.Kind) Route {
	return Route{
		Kind:         kind,
		GetAction:    ActionGetByID,
		ListAction:   ActionGetUpdatedSince,
		UpdateAction: kind.UpdateAction(),
		DeleteAction: ActionDeleteByID,
	}
}

// Repository is the remote CRUD surface of one entity kind. Every answer
// goes through webshop.Classify; error responses come back as
// *webshop.ApplicationError and payloads that do not decode as
// *webshop.ProtocolViolation.
type Repository[T any] struct {
	caller Caller
	codec  xmlcodec.Codec[T]
	route  Route
}

func New[T any](caller Caller, codec xmlcodec.Codec[T]) *Repository[T] {
	return &Repository[T]{
		caller: caller,
		codec:  codec,
		route:  DefaultRoute(codec.Kind()),
	}
}

func (r *Repository[T]) Kind() entity.Kind {
	return r.route.Kind
}

func (r *Repository[T]) GetByID(ctx context.Context, id int64) (*T, error) {
	return r.fetch(ctx, r.route.GetAction, url.Values{"id": {strconv.FormatInt(id, 10)}})
}

// ListUpdatedSince returns every record changed at or after since. The
// webshop refuses oversized result sets instead of paging them; that
// refusal matches webshop.ErrResultSetTooBig and the caller has to narrow
// the window.
func (r *Repository[T]) ListUpdatedSince(ctx context.Context, since time.Time) ([]T, error) {
	params := url.Values{"since": {since.UTC().Format(xmlcodec.TimeLayout)}}
	return r.fetchList(ctx, r.route.ListAction, params)
}

// Update creates or updates v; the webshop decides by identifier presence.
// It returns the stored record when the webshop echoes one and nil when it
// answers with a bare ok.
func (r *Repository[T]) Update(ctx context.Context, v T) (*T, error) {
	if err := entity.Validate(r.route.Kind, v); err != nil {
		return nil, err
	}

	doc, err := r.codec.Marshal(v)
	if err != nil {
		return nil, err
	}

	req := r.request(r.route.UpdateAction, url.Values{"xml": {string(doc)}})
	resp, err := r.caller.Call(ctx, req)
	if err != nil {
		return nil, err
	}

	switch resp.Type {
	case webshop.Ack:
		return nil, nil
	case webshop.Error:
		return nil, resp.Err()
	default:
		return r.decode(req, resp.Payload)
	}
}

func (r *Repository[T]) DeleteByID(ctx context.Context, id int64) error {
	return r.perform(ctx, r.route.DeleteAction, url.Values{"id": {strconv.FormatInt(id, 10)}})
}

func (r *Repository[T]) request(action string, params url.Values) webshop.Request {
	return webshop.Request{Kind: r.route.Kind, Action: action, Params: params}
}

func (r *Repository[T]) fetch(ctx context.Context, action string, params url.Values) (*T, error) {
	req := r.request(action, params)
	resp, err := r.caller.Call(ctx, req)
	if err != nil {
		return nil, err
	}

	switch resp.Type {
	case webshop.Error:
		return nil, resp.Err()
	case webshop.Ack:
		return nil, r.violation(req, resp.Raw, errUnexpectedAck)
	default:
		return r.decode(req, resp.Payload)
	}
}

func (r *Repository[T]) fetchList(ctx context.Context, action string, params url.Values) ([]T, error) {
	req := r.request(action, params)
	resp, err := r.caller.Call(ctx, req)
	if err != nil {
		return nil, err
	}

	switch resp.Type {
	case webshop.Error:
		return nil, resp.Err()
	case webshop.Ack:
		return nil, r.violation(req, resp.Raw, errUnexpectedAck)
	}

	items, err := r.codec.UnmarshalList([]byte(resp.Payload))
	if err != nil {
		return nil, r.violation(req, resp.Payload, err)
	}
	return items, nil
}

// perform runs an action whose only valid answers are ok and error.
func (r *Repository[T]) perform(ctx context.Context, action string, params url.Values) error {
	return perform(ctx, r.caller, r.request(action, params))
}

func (r *Repository[T]) decode(req webshop.Request, payload string) (*T, error) {
	v, err := r.codec.Unmarshal([]byte(payload))
	if err != nil {
		return nil, r.violation(req, payload, err)
	}
	return &v, nil
}

func (r *Repository[T]) violation(req webshop.Request, payload string, err error) error {
	return &webshop.ProtocolViolation{Kind: req.Kind, Action: req.Action, Payload: payload, Err: err}
}

func perform(ctx context.Context, caller Caller, req webshop.Request) error {
	resp, err := caller.Call(ctx, req)
	if err != nil {
		return err
	}

	switch resp.Type {
	case webshop.Ack:
		return nil
	case webshop.Error:
		return resp.Err()
	default:
		return &webshop.ProtocolViolation{
			Kind:    req.Kind,
			Action:  req.Action,
			Payload: resp.Payload,
			Err:     errors.New("expected ok or error, got a payload"),
		}
	}
}
