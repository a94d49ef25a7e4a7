package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestIssueAndVerify(t *testing.T) {
	manager := NewManager("test-secret")

	token, err := manager.Issue("user-1", RoleBuyer, time.Hour)
	if err != nil {
		t.Fatalf("Issue() returned error: %v", err)
	}

	identity, err := manager.Verify(token)
	if err != nil {
		t.Fatalf("Verify() returned error: %v", err)
	}
	if identity.UserID != "user-1" {
		t.Errorf("UserID = %s, want user-1", identity.UserID)
	}
	if identity.Role != RoleBuyer {
		t.Errorf("Role = %s, want buyer", identity.Role)
	}
}

func TestVerifyAdminRole(t *testing.T) {
	manager := NewManager("test-secret")

	token, err := manager.Issue("admin-1", RoleAdmin, time.Hour)
	if err != nil {
		t.Fatalf("Issue() returned error: %v", err)
	}

	identity, err := manager.Verify(token)
	if err != nil {
		t.Fatalf("Verify() returned error: %v", err)
	}
	if identity.Role != RoleAdmin {
		t.Errorf("Role = %s, want admin", identity.Role)
	}
}

func TestVerifyRejections(t *testing.T) {
	manager := NewManager("test-secret")

	t.Run("garbage token", func(t *testing.T) {
		if _, err := manager.Verify("not-a-token"); err == nil {
			t.Error("Verify() should fail on malformed token")
		}
	})

	t.Run("wrong secret", func(t *testing.T) {
		other := NewManager("other-secret")
		token, err := other.Issue("user-1", RoleBuyer, time.Hour)
		if err != nil {
			t.Fatalf("Issue() returned error: %v", err)
		}
		if _, err := manager.Verify(token); err == nil {
			t.Error("Verify() should fail on token signed with another secret")
		}
	})

	t.Run("expired token", func(t *testing.T) {
		token, err := manager.Issue("user-1", RoleBuyer, -time.Minute)
		if err != nil {
			t.Fatalf("Issue() returned error: %v", err)
		}
		if _, err := manager.Verify(token); err == nil {
			t.Error("Verify() should fail on expired token")
		}
	})
}

func TestMiddleware(t *testing.T) {
	manager := NewManager("test-secret")

	buyerToken, err := manager.Issue("user-1", RoleBuyer, time.Hour)
	if err != nil {
		t.Fatalf("Issue() returned error: %v", err)
	}
	adminToken, err := manager.Issue("admin-1", RoleAdmin, time.Hour)
	if err != nil {
		t.Fatalf("Issue() returned error: %v", err)
	}

	next := func(w http.ResponseWriter, r *http.Request) {
		identity, ok := FromContext(r.Context())
		if !ok {
			t.Error("identity missing from request context")
		} else if identity.UserID == "" {
			t.Error("identity has empty user id")
		}
		w.WriteHeader(http.StatusOK)
	}

	tests := []struct {
		name       string
		adminOnly  bool
		authHeader string
		wantStatus int
	}{
		{"valid buyer token", false, "Bearer " + buyerToken, http.StatusOK},
		{"valid admin token on admin route", true, "Bearer " + adminToken, http.StatusOK},
		{"buyer token on admin route", true, "Bearer " + buyerToken, http.StatusForbidden},
		{"missing token", false, "", http.StatusUnauthorized},
		{"malformed token", false, "Bearer junk", http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := manager.Middleware(tt.adminOnly, next)

			req := httptest.NewRequest(http.MethodGet, "/api/order/list", nil)
			if tt.authHeader != "" {
				req.Header.Set("Authorization", tt.authHeader)
			}
			rec := httptest.NewRecorder()

			handler(rec, req)

			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
		})
	}
}

func TestMiddlewareLegacyTokenHeader(t *testing.T) {
	manager := NewManager("test-secret")

	token, err := manager.Issue("user-1", RoleBuyer, time.Hour)
	if err != nil {
		t.Fatalf("Issue() returned error: %v", err)
	}

	handler := manager.Middleware(false, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/api/cart", nil)
	req.Header.Set("token", token)
	rec := httptest.NewRecorder()

	handler(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusOK)
	}
}
