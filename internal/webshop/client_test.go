package webshop_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"webshopsync/internal/entity"
	"webshopsync/internal/webshop"
	"webshopsync/internal/webshop/mocks"
)

func newTestClient(t webshop.Transport, attempts int) *webshop.Client {
	return webshop.NewClient(t, webshop.Options{
		MaxAttempts: attempts,
		BackoffBase: time.Millisecond,
		BackoffMax:  2 * time.Millisecond,
		Logger:      zerolog.Nop(),
	})
}

func TestClient_Call(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	mockTransport := mocks.NewMockTransport(ctrl)
	client := newTestClient(mockTransport, 3)

	req := webshop.Request{Kind: entity.KindAuthor, Action: "getById", Params: url.Values{"id": {"7"}}}

	t.Run("data", func(t *testing.T) {
		mockTransport.EXPECT().Do(gomock.Any(), req).Return("<author><id>7</id></author>", nil)

		resp, err := client.Call(context.Background(), req)
		require.NoError(t, err)
		assert.Equal(t, webshop.Data, resp.Type)
	})

	t.Run("application error is not retried", func(t *testing.T) {
		mockTransport.EXPECT().Do(gomock.Any(), req).Return("error: id not found", nil).Times(1)

		resp, err := client.Call(context.Background(), req)
		require.NoError(t, err)
		assert.Equal(t, webshop.Error, resp.Type)
		assert.Equal(t, "id not found", resp.Reason)
	})

	t.Run("transport fault is retried", func(t *testing.T) {
		gomock.InOrder(
			mockTransport.EXPECT().Do(gomock.Any(), req).Return("", errors.New("connection refused")),
			mockTransport.EXPECT().Do(gomock.Any(), req).Return("", &webshop.StatusError{StatusCode: http.StatusBadGateway}),
			mockTransport.EXPECT().Do(gomock.Any(), req).Return("ok", nil),
		)

		resp, err := client.Call(context.Background(), req)
		require.NoError(t, err)
		assert.Equal(t, webshop.Ack, resp.Type)
	})

	t.Run("retry budget exhausted", func(t *testing.T) {
		mockTransport.EXPECT().Do(gomock.Any(), req).Return("", errors.New("i/o timeout")).Times(3)

		_, err := client.Call(context.Background(), req)
		var terr *webshop.TransportError
		require.True(t, errors.As(err, &terr))
		assert.Equal(t, 3, terr.Attempts)
		assert.Equal(t, "getById", terr.Action)
	})

	t.Run("client status is not retried", func(t *testing.T) {
		mockTransport.EXPECT().Do(gomock.Any(), req).Return("", &webshop.StatusError{StatusCode: http.StatusForbidden}).Times(1)

		_, err := client.Call(context.Background(), req)
		var terr *webshop.TransportError
		require.True(t, errors.As(err, &terr))
		assert.Equal(t, 1, terr.Attempts)
		var se *webshop.StatusError
		require.True(t, errors.As(err, &se))
		assert.Equal(t, http.StatusForbidden, se.StatusCode)
	})

	t.Run("canceled context", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err := client.Call(ctx, req)
		var terr *webshop.TransportError
		assert.True(t, errors.As(err, &terr))
	})
}

func TestHTTPTransport(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		assert.Equal(t, http.MethodPost, r.Method)
		assert.NoError(t, r.ParseForm())
		assert.Equal(t, "product_category", r.PostForm.Get("type"))
		assert.Equal(t, "updateProductCategory", r.PostForm.Get("action"))
		assert.Equal(t, "secret", r.PostForm.Get("api_key"))
		assert.Equal(t, "<product_category/>", r.PostForm.Get("xml"))
		io.WriteString(w, `<string xmlns="http://tempuri.org/">ok</string>`)
	}))
	defer srv.Close()

	tr := webshop.NewHTTPTransport(srv.URL, "secret", time.Second)
	client := newTestClient(tr, 2)

	resp, err := client.Call(context.Background(), webshop.Request{
		Kind:   entity.KindProductCategory,
		Action: entity.KindProductCategory.UpdateAction(),
		Params: url.Values{"xml": {"<product_category/>"}},
	})
	require.NoError(t, err)
	assert.Equal(t, webshop.Ack, resp.Type)
	assert.Equal(t, int32(1), hits.Load())
}

func TestHTTPTransport_RetriesServerErrors(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits.Add(1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		io.WriteString(w, "ok")
	}))
	defer srv.Close()

	client := newTestClient(webshop.NewHTTPTransport(srv.URL, "", time.Second), 3)

	resp, err := client.Call(context.Background(), webshop.Request{Kind: entity.KindAuthor, Action: "deleteById"})
	require.NoError(t, err)
	assert.Equal(t, webshop.Ack, resp.Type)
	assert.Equal(t, int32(2), hits.Load())
}
