//go:build unit

package outbox

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewHTTPSinkRequiresURL(t *testing.T) {
	t.Parallel()

	_, err := NewHTTPSink("   ")
	assert.ErrorIs(t, err, ErrSinkURLRequired)
}

func TestHTTPSinkDeliverPostsEnvelope(t *testing.T) {
	t.Parallel()

	var captured deliveryEnvelope
	var contentType string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		contentType = r.Header.Get("Content-Type")
		body, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(body, &captured)
		w.WriteHeader(http.StatusAccepted)
	}))
	defer server.Close()

	sink, err := NewHTTPSink(server.URL)
	require.NoError(t, err)

	message, err := NewMessage("item.updated", []byte(`{"itemId":"i-3","quantity":12}`))
	require.NoError(t, err)

	require.NoError(t, sink.Deliver(context.Background(), message))

	assert.Equal(t, "application/json", contentType)
	assert.Equal(t, message.ID.String(), captured.ID)
	assert.Equal(t, "item.updated", captured.Type)
	assert.JSONEq(t, `{"itemId":"i-3","quantity":12}`, string(captured.Payload))
	assert.WithinDuration(t, message.CreatedAt, captured.CreatedAt, time.Second)
}

func TestHTTPSinkDeliverNonSuccessStatus(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer server.Close()

	sink, err := NewHTTPSink(server.URL)
	require.NoError(t, err)

	message, err := NewMessage("item.updated", []byte(`{}`))
	require.NoError(t, err)

	err = sink.Deliver(context.Background(), message)
	assert.ErrorIs(t, err, ErrUnexpectedStatus)
	assert.Contains(t, err.Error(), "500")
}

func TestHTTPSinkDeliverNilMessage(t *testing.T) {
	t.Parallel()

	sink, err := NewHTTPSink("http://localhost:0")
	require.NoError(t, err)

	assert.ErrorIs(t, sink.Deliver(context.Background(), nil), ErrMessageRequired)
}

func TestHTTPSinkCircuitBreakerFailsFast(t *testing.T) {
	t.Parallel()

	var hits atomic.Int64

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	sink, err := NewHTTPSink(server.URL, WithCircuitBreaker(2, time.Minute))
	require.NoError(t, err)

	message, err := NewMessage("item.updated", []byte(`{}`))
	require.NoError(t, err)

	ctx := context.Background()

	assert.ErrorIs(t, sink.Deliver(ctx, message), ErrUnexpectedStatus)
	assert.ErrorIs(t, sink.Deliver(ctx, message), ErrUnexpectedStatus)

	// The breaker is open now: the endpoint is no longer hit, but the
	// failure still counts as a failed attempt.
	err = sink.Deliver(ctx, message)
	assert.ErrorIs(t, err, gobreaker.ErrOpenState)
	assert.Equal(t, int64(2), hits.Load())
}
