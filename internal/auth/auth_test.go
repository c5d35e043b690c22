package auth

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestGenerateAndValidateToken(t *testing.T) {
	token, err := GenerateToken("desk-7", "s3cret", time.Hour)
	if err != nil {
		t.Fatalf("GenerateToken returned error: %v", err)
	}

	clientID, err := ValidateToken(token, "s3cret")
	if err != nil {
		t.Fatalf("ValidateToken returned error: %v", err)
	}
	if clientID != "desk-7" {
		t.Errorf("client id = %q, want desk-7", clientID)
	}

	if _, err := ValidateToken(token, "other"); err == nil {
		t.Error("expected error for wrong secret")
	}
}

func TestValidateTokenRejectsExpired(t *testing.T) {
	token, err := GenerateToken("desk-7", "s3cret", -time.Minute)
	if err != nil {
		t.Fatalf("GenerateToken returned error: %v", err)
	}
	if _, err := ValidateToken(token, "s3cret"); err == nil {
		t.Fatal("expected error for expired token")
	}
}

func TestEmptySecret(t *testing.T) {
	if _, err := GenerateToken("x", "", time.Hour); !errors.Is(err, ErrEmptySecret) {
		t.Errorf("GenerateToken error = %v, want ErrEmptySecret", err)
	}
	if _, err := ValidateToken("x.y.z", ""); !errors.Is(err, ErrEmptySecret) {
		t.Errorf("ValidateToken error = %v, want ErrEmptySecret", err)
	}
}

func TestMiddleware(t *testing.T) {
	valid, err := GenerateToken("desk-7", "s3cret", time.Hour)
	if err != nil {
		t.Fatalf("GenerateToken returned error: %v", err)
	}

	var seen string
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = ClientIDFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	})
	handler := Middleware("s3cret")(next)

	tests := []struct {
		name     string
		method   string
		header   string
		expected int
	}{
		{"missing header", http.MethodPost, "", http.StatusUnauthorized},
		{"wrong scheme", http.MethodPost, "Basic abc", http.StatusUnauthorized},
		{"garbage token", http.MethodPost, "Bearer not-a-token", http.StatusUnauthorized},
		{"preflight", http.MethodOptions, "", http.StatusNoContent},
		{"valid token", http.MethodPost, "Bearer " + valid, http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			seen = ""
			req := httptest.NewRequest(tt.method, "/api/v1/price", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rr := httptest.NewRecorder()
			handler.ServeHTTP(rr, req)

			if rr.Code != tt.expected {
				t.Fatalf("status = %d, want %d", rr.Code, tt.expected)
			}
			if tt.expected == http.StatusOK && seen != "desk-7" {
				t.Errorf("client id in context = %q, want desk-7", seen)
			}
		})
	}
}
