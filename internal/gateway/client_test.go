package gateway

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const paidTransactionXML = `<?xml version="1.0" encoding="ISO-8859-1" standalone="yes"?>
<transaction>
  <date>2026-10-16T10:20:30.000-03:00</date>
  <code>9E884542-81B3-4419-9A75-BCC6FB495EF1</code>
  <reference>6f1e8a9b-2c3d-4e5f-8a7b-9c0d1e2f3a4b</reference>
  <type>1</type>
  <status>3</status>
  <lastEventDate>2026-10-16T10:25:00.000-03:00</lastEventDate>
  <paymentMethod><type>2</type><code>202</code></paymentMethod>
</transaction>`

func TestClientVerifyParsesTransaction(t *testing.T) {
	var gotPath, gotEmail, gotToken string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotEmail = r.URL.Query().Get("email")
		gotToken = r.URL.Query().Get("token")
		w.Header().Set("Content-Type", "application/xml;charset=ISO-8859-1")
		_, _ = w.Write([]byte(paidTransactionXML))
	}))
	defer srv.Close()

	c, err := NewClient(srv.URL, "shop@example.com", "secret-token", time.Second)
	require.NoError(t, err)

	tx, err := c.Verify(context.Background(), "  abc123 ")
	require.NoError(t, err)

	assert.Equal(t, "/v3/transactions/notifications/ABC123", gotPath)
	assert.Equal(t, "shop@example.com", gotEmail)
	assert.Equal(t, "secret-token", gotToken)
	assert.Equal(t, "6f1e8a9b-2c3d-4e5f-8a7b-9c0d1e2f3a4b", tx.Reference)
	assert.Equal(t, StatusPaid, tx.Status)
	assert.Equal(t, MethodBankSlip, tx.PaymentMethod)
	assert.Equal(t, 2026, tx.Date.Year())
}

func TestClientVerifyEmptyCodeSkipsRequest(t *testing.T) {
	called := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	defer srv.Close()

	c, err := NewClient(srv.URL, "shop@example.com", "secret-token", time.Second)
	require.NoError(t, err)

	_, err = c.Verify(context.Background(), "   ")
	require.ErrorIs(t, err, ErrEmptyToken)
	assert.False(t, called)
}

func TestClientVerifyCollectsGatewayErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`<?xml version="1.0" encoding="ISO-8859-1"?><errors>` +
			`<error><code>13001</code><message>invalid notification code</message></error>` +
			`<error><code>13002</code><message>notification expired</message></error></errors>`))
	}))
	defer srv.Close()

	c, err := NewClient(srv.URL, "shop@example.com", "secret-token", time.Second)
	require.NoError(t, err)

	_, err = c.Verify(context.Background(), "ABC123")
	var rej *RejectedError
	require.True(t, errors.As(err, &rej))
	assert.Equal(t, http.StatusBadRequest, rej.StatusCode)
	require.Len(t, rej.Errors, 2)
	assert.Contains(t, rej.Error(), "13001-invalid notification code")
	assert.Contains(t, rej.Error(), "13002-notification expired")
}

func TestClientVerifyUnauthorized(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte("Unauthorized"))
	}))
	defer srv.Close()

	c, err := NewClient(srv.URL, "shop@example.com", "secret-token", time.Second)
	require.NoError(t, err)

	_, err = c.Verify(context.Background(), "ABC123")
	var rej *RejectedError
	require.True(t, errors.As(err, &rej))
	assert.Equal(t, http.StatusUnauthorized, rej.StatusCode)
	assert.Equal(t, "Unauthorized", rej.Message)
}

func TestClientVerifyTimeoutIsRejection(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(time.Second):
		}
	}))
	defer srv.Close()

	c, err := NewClient(srv.URL, "shop@example.com", "secret-token", 50*time.Millisecond)
	require.NoError(t, err)

	_, err = c.Verify(context.Background(), "ABC123")
	var rej *RejectedError
	require.True(t, errors.As(err, &rej))
	assert.Zero(t, rej.StatusCode)
	assert.NotContains(t, rej.Error(), "secret-token")
}

func TestNewClientRequiresCredentials(t *testing.T) {
	_, err := NewClient(ProductionURL, "", "token", 0)
	require.ErrorIs(t, err, ErrMissingCredentials)
	_, err = NewClient(ProductionURL, "shop@example.com", " ", 0)
	require.ErrorIs(t, err, ErrMissingCredentials)
}

func TestParseStatus(t *testing.T) {
	assert.Equal(t, StatusAwaitingPayment, ParseStatus(1))
	assert.Equal(t, StatusCancelled, ParseStatus(7))
	assert.Equal(t, StatusUnknown, ParseStatus(0))
	assert.Equal(t, StatusUnknown, ParseStatus(8))
	assert.Equal(t, "unknown", ParseStatus(42).String())
}

func TestBaseURL(t *testing.T) {
	assert.Equal(t, SandboxURL, BaseURL(true))
	assert.Equal(t, ProductionURL, BaseURL(false))
}
