package handlers

import (
	"context"
	"net/http"
	"strings"
	"testing"

	"cleanly/internal/auth"
	"cleanly/internal/models"
	"cleanly/internal/store"

	"github.com/lib/pq"
)

func TestRegisterCleanerProvisionsProfileAndWallet(t *testing.T) {
	profileCreated := false
	walletCreated := false
	var createdRole models.Role
	h := newTestHandler(handlerStubs{
		users: stubUserStore{
			createFn: func(_ context.Context, _ store.Execer, _, _, _, _ string, role models.Role) error {
				createdRole = role
				return nil
			},
		},
		cleaners: stubCleanerStore{
			createProfileFn: func(context.Context, store.Execer, string) error {
				profileCreated = true
				return nil
			},
		},
		wallets: stubWalletStore{
			createFn: func(context.Context, store.Execer, string) error {
				walletCreated = true
				return nil
			},
		},
	})

	body := `{"username":"sparkle","email":"sparkle@example.com","password":"supersecret","role":"CLEANER"}`
	rr := doRequest(t, h, http.MethodPost, "/auth/register", strings.NewReader(body), "", "")
	if rr.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rr.Code, rr.Body.String())
	}
	if createdRole != models.RoleCleaner || !profileCreated || !walletCreated {
		t.Fatalf("cleaner registration must create profile and wallet")
	}
}

func TestRegisterClientSkipsCleanerProvisioning(t *testing.T) {
	h := newTestHandler(handlerStubs{
		cleaners: stubCleanerStore{
			createProfileFn: func(context.Context, store.Execer, string) error {
				t.Fatal("clients must not get a cleaner profile")
				return nil
			},
		},
	})

	body := `{"username":"homeowner","email":"home@example.com","password":"supersecret","role":"CLIENT"}`
	rr := doRequest(t, h, http.MethodPost, "/auth/register", strings.NewReader(body), "", "")
	if rr.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rr.Code, rr.Body.String())
	}
}

func TestRegisterRejectsAdminRole(t *testing.T) {
	h := newTestHandler(handlerStubs{})
	body := `{"username":"sneaky","email":"sneaky@example.com","password":"supersecret","role":"ADMIN"}`
	rr := doRequest(t, h, http.MethodPost, "/auth/register", strings.NewReader(body), "", "")
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rr.Code)
	}
}

func TestRegisterDuplicate(t *testing.T) {
	h := newTestHandler(handlerStubs{
		users: stubUserStore{
			createFn: func(context.Context, store.Execer, string, string, string, string, models.Role) error {
				return &pq.Error{Code: "23505"}
			},
		},
	})
	body := `{"username":"sparkle","email":"sparkle@example.com","password":"supersecret","role":"CLEANER"}`
	rr := doRequest(t, h, http.MethodPost, "/auth/register", strings.NewReader(body), "", "")
	if rr.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", rr.Code)
	}
}

func TestLoginWrongPassword(t *testing.T) {
	hash, err := auth.HashPassword("rightpassword")
	if err != nil {
		t.Fatalf("failed to hash: %v", err)
	}
	h := newTestHandler(handlerStubs{
		users: stubUserStore{
			getByEmailFn: func(context.Context, string) (models.User, error) {
				return models.User{ID: "user-1", PasswordHash: hash, Role: models.RoleClient}, nil
			},
		},
	})
	body := `{"email":"home@example.com","password":"wrongpassword"}`
	rr := doRequest(t, h, http.MethodPost, "/auth/login", strings.NewReader(body), "", "")
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rr.Code)
	}
}

func TestLoginIssuesRoleToken(t *testing.T) {
	hash, err := auth.HashPassword("rightpassword")
	if err != nil {
		t.Fatalf("failed to hash: %v", err)
	}
	h := newTestHandler(handlerStubs{
		users: stubUserStore{
			getByEmailFn: func(context.Context, string) (models.User, error) {
				return models.User{ID: "user-1", PasswordHash: hash, Role: models.RoleCleaner}, nil
			},
		},
	})
	body := `{"email":"sparkle@example.com","password":"rightpassword"}`
	rr := doRequest(t, h, http.MethodPost, "/auth/login", strings.NewReader(body), "", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	if !strings.Contains(rr.Body.String(), "token") {
		t.Fatalf("expected token in response: %s", rr.Body.String())
	}
}
