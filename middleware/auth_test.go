package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v4"
)

var testSecret = []byte("test-secret")

func signedToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(testSecret)
	if err != nil {
		t.Fatalf("signing token: %v", err)
	}
	return token
}

func TestAuthenticate(t *testing.T) {
	var gotTenant, gotAdmin int
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var err error
		if gotTenant, err = GetTenantIDFromContext(r.Context()); err != nil {
			t.Errorf("tenant claim: %v", err)
		}
		if gotAdmin, err = GetAdminIDFromContext(r.Context()); err != nil {
			t.Errorf("admin claim: %v", err)
		}
		w.WriteHeader(http.StatusOK)
	})
	handler := Authenticate(testSecret)(next)

	t.Run("valid token", func(t *testing.T) {
		token := signedToken(t, jwt.MapClaims{
			"tenant_id": 3,
			"admin_id":  7,
			"exp":       time.Now().Add(time.Hour).Unix(),
		})
		req := httptest.NewRequest(http.MethodGet, "/matches/1", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()

		handler.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("status %d, want 200", rec.Code)
		}
		if gotTenant != 3 || gotAdmin != 7 {
			t.Errorf("claims resolved to tenant %d admin %d, want 3 and 7", gotTenant, gotAdmin)
		}
	})

	rejected := []struct {
		name  string
		setup func(r *http.Request)
	}{
		{"missing header", func(r *http.Request) {}},
		{"not a bearer token", func(r *http.Request) {
			r.Header.Set("Authorization", "Basic abc")
		}},
		{"garbage token", func(r *http.Request) {
			r.Header.Set("Authorization", "Bearer not.a.token")
		}},
		{"expired token", func(r *http.Request) {
			token := signedToken(t, jwt.MapClaims{
				"tenant_id": 3,
				"admin_id":  7,
				"exp":       time.Now().Add(-time.Hour).Unix(),
			})
			r.Header.Set("Authorization", "Bearer "+token)
		}},
		{"wrong signing key", func(r *http.Request) {
			token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
				"tenant_id": 3,
				"admin_id":  7,
				"exp":       time.Now().Add(time.Hour).Unix(),
			}).SignedString([]byte("other-secret"))
			if err != nil {
				t.Fatalf("signing token: %v", err)
			}
			r.Header.Set("Authorization", "Bearer "+token)
		}},
	}
	for _, tc := range rejected {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/matches/1", nil)
			tc.setup(req)
			rec := httptest.NewRecorder()

			handler.ServeHTTP(rec, req)
			if rec.Code != http.StatusUnauthorized {
				t.Errorf("status %d, want 401", rec.Code)
			}
		})
	}
}

func TestIntClaim(t *testing.T) {
	cases := []struct {
		name   string
		claims jwt.MapClaims
		wantOK bool
	}{
		{"valid", jwt.MapClaims{"tenant_id": float64(5)}, true},
		{"missing", jwt.MapClaims{}, false},
		{"wrong type", jwt.MapClaims{"tenant_id": "5"}, false},
		{"fractional", jwt.MapClaims{"tenant_id": 5.5}, false},
		{"non-positive", jwt.MapClaims{"tenant_id": float64(0)}, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ctx := WithClaims(context.Background(), tc.claims)
			id, err := GetTenantIDFromContext(ctx)
			if tc.wantOK {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				if id != 5 {
					t.Errorf("tenant id %d, want 5", id)
				}
				return
			}
			if err == nil {
				t.Errorf("expected error, got id %d", id)
			}
		})
	}

	t.Run("no claims in context", func(t *testing.T) {
		if _, err := GetTenantIDFromContext(context.Background()); err == nil {
			t.Error("expected error for a bare context")
		}
	})
}
