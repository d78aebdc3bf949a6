package middleware

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meridianhq/gatehouse/pkg/auth"
	"github.com/meridianhq/gatehouse/pkg/contextkeys"
	"github.com/meridianhq/gatehouse/pkg/httputil"
	"github.com/meridianhq/gatehouse/pkg/observability"
)

type stubVerifier struct {
	principal *auth.Principal
	err       error
}

func (s *stubVerifier) Verify(token string) (*auth.Principal, error) {
	if s.err != nil {
		return nil, s.err
	}
	p := *s.principal
	return &p, nil
}

type stubSessions struct {
	alive bool
	err   error
	calls int
}

func (s *stubSessions) Exists(ctx context.Context, principalID int64) (bool, error) {
	s.calls++
	if err := ctx.Err(); err != nil {
		return false, err
	}
	return s.alive, s.err
}

func testLogger() *observability.Logger {
	return observability.NewLogger(observability.ErrorLevel, io.Discard)
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) httputil.Envelope {
	t.Helper()
	var env httputil.Envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	return env
}

func runAuthn(t *testing.T, a *Authenticator, header string, next http.Handler) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	rec := httptest.NewRecorder()
	a.Handler(next).ServeHTTP(rec, req)
	return rec
}

func TestAuthnMissingHeader(t *testing.T) {
	a := NewAuthenticator(&stubVerifier{}, &stubSessions{}, testLogger(), nil)
	handlerCalled := false

	rec := runAuthn(t, a, "", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		handlerCalled = true
	}))

	assert.False(t, handlerCalled, "inner handler must not run")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	env := decodeEnvelope(t, rec)
	assert.False(t, env.Status)
	assert.Equal(t, auth.KindMissingCredential.Message(), env.Msg)
}

func TestAuthnWrongScheme(t *testing.T) {
	a := NewAuthenticator(&stubVerifier{}, &stubSessions{}, testLogger(), nil)

	for _, header := range []string{"Basic dXNlcjpwYXNz", "bearer lowercase", "Bearer ", "Bearer"} {
		rec := runAuthn(t, a, header, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			t.Errorf("handler ran for header %q", header)
		}))
		assert.Equal(t, http.StatusUnauthorized, rec.Code, "header %q", header)
		assert.Equal(t, auth.KindMissingCredential.Message(), decodeEnvelope(t, rec).Msg)
	}
}

func TestAuthnExpiredToken(t *testing.T) {
	verifier := &stubVerifier{err: auth.Wrap(auth.KindExpiredToken, fmt.Errorf("token is expired"))}
	sessions := &stubSessions{alive: true}
	a := NewAuthenticator(verifier, sessions, testLogger(), nil)

	rec := runAuthn(t, a, "Bearer sometoken", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("handler must not run for expired token")
	}))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, auth.KindExpiredToken.Message(), decodeEnvelope(t, rec).Msg)
	assert.Zero(t, sessions.calls, "session must not be consulted when decode fails")
}

func TestAuthnSessionExpired(t *testing.T) {
	verifier := &stubVerifier{principal: &auth.Principal{ID: 42}}
	a := NewAuthenticator(verifier, &stubSessions{alive: false}, testLogger(), nil)

	rec := runAuthn(t, a, "Bearer sometoken", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("handler must not run without a live session")
	}))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, auth.KindSessionExpired.Message(), decodeEnvelope(t, rec).Msg)
}

func TestAuthnAdapterUnavailable(t *testing.T) {
	verifier := &stubVerifier{principal: &auth.Principal{ID: 42}}
	sessions := &stubSessions{err: fmt.Errorf("dial tcp: connection refused")}
	a := NewAuthenticator(verifier, sessions, testLogger(), nil)

	rec := runAuthn(t, a, "Bearer sometoken", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("handler must not run when the session store is down")
	}))

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	env := decodeEnvelope(t, rec)
	assert.Equal(t, auth.KindAdapterUnavailable.Message(), env.Msg)
	assert.NotContains(t, env.Msg, "dial tcp", "internal detail must not leak")
}

func TestAuthnSuccessAttachesPrincipalOnce(t *testing.T) {
	verifier := &stubVerifier{principal: &auth.Principal{ID: 42, Name: "alice"}}
	a := NewAuthenticator(verifier, &stubSessions{alive: true}, testLogger(), nil)

	invocations := 0
	rec := runAuthn(t, a, "Bearer sometoken", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		invocations++
		p := contextkeys.PrincipalFrom(r.Context())
		require.NotNil(t, p)
		assert.Equal(t, int64(42), p.ID)
		assert.Equal(t, "sometoken", p.Token, "credential must be echoed into the principal")
		_ = httputil.WriteOK(w, p.ID)
	}))

	assert.Equal(t, 1, invocations, "handler must run exactly once")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAuthnCancelledRequestAttachesNothing(t *testing.T) {
	verifier := &stubVerifier{principal: &auth.Principal{ID: 42}}
	a := NewAuthenticator(verifier, &stubSessions{alive: true}, testLogger(), nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil).WithContext(ctx)
	req.Header.Set("Authorization", "Bearer sometoken")
	rec := httptest.NewRecorder()

	a.Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("handler must not run after cancellation")
	})).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
