package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/meridianhq/gatehouse/pkg/httputil"
)

func TestFailureResolvesWithoutInnerHandler(t *testing.T) {
	res := Failure(httputil.FailCode(401, "missing or malformed credential"))
	if !res.Failed() {
		t.Fatal("expected failure state")
	}

	rec := httptest.NewRecorder()
	res.Resolve(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
}

func TestPendingResolvesThroughInnerHandler(t *testing.T) {
	called := 0
	res := Pending(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called++
		w.WriteHeader(http.StatusNoContent)
	}))
	if res.Failed() {
		t.Fatal("expected pending state")
	}

	rec := httptest.NewRecorder()
	res.Resolve(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	if called != 1 {
		t.Errorf("inner handler called %d times, want 1", called)
	}
	if rec.Code != http.StatusNoContent {
		t.Errorf("status = %d, want 204", rec.Code)
	}
}

func TestChainComposesOutermostFirst(t *testing.T) {
	var order []string
	stage := func(name string) Middleware {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				order = append(order, name)
				next.ServeHTTP(w, r)
			})
		}
	}

	handler := Chain(stage("fault"), stage("authn"), stage("authz"))(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			order = append(order, "handler")
		}))

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	want := []string{"fault", "authn", "authz", "handler"}
	if len(order) != len(want) {
		t.Fatalf("order = %v, want %v", order, want)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("order = %v, want %v", order, want)
		}
	}
}

func TestChainShortCircuitSkipsLaterStages(t *testing.T) {
	blocked := func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			Failure(httputil.FailCode(403, "insufficient permissions")).Resolve(w, r)
		})
	}

	reached := false
	handler := Chain(blocked)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reached = true
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	if reached {
		t.Error("later stages must be skipped after a short-circuit")
	}
	if rec.Code != http.StatusForbidden {
		t.Errorf("status = %d, want 403", rec.Code)
	}
}
