package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/geocoder89/taskflow/internal/domain/user"
	"github.com/geocoder89/taskflow/internal/http/handlers"
	"github.com/gin-gonic/gin"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fakeAuth struct {
	registerFn func(ctx context.Context, name, email, password string) (user.PublicAccount, string, error)
	loginFn    func(ctx context.Context, email, password string) (user.PublicAccount, string, error)
}

func (f *fakeAuth) Register(ctx context.Context, name, email, password string) (user.PublicAccount, string, error) {
	if f.registerFn != nil {
		return f.registerFn(ctx, name, email, password)
	}
	return user.PublicAccount{}, "", nil
}

func (f *fakeAuth) Login(ctx context.Context, email, password string) (user.PublicAccount, string, error) {
	if f.loginFn != nil {
		return f.loginFn(ctx, email, password)
	}
	return user.PublicAccount{}, "", nil
}

func newAuthRouter(svc handlers.Authenticator) *gin.Engine {
	r := gin.New()
	h := handlers.NewAuthHandler(svc, nil)
	r.POST("/auth/register", h.Register)
	r.POST("/auth/login", h.Login)
	return r
}

func postJSON(r http.Handler, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decodeMessage(t *testing.T, w *httptest.ResponseRecorder) (string, string) {
	t.Helper()

	var body handlers.ErrorBody
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode error body: %v body=%s", err, w.Body.String())
	}
	return body.Message, body.Error.Code
}

var ann = user.PublicAccount{
	ID:       "0b7c6f0e-2d1b-4c59-9a57-0d2f6c1f7a10",
	Name:     "Ann",
	Email:    "ann@x.io",
	Role:     user.DefaultRoleLabel,
	RoleType: user.RoleUser,
}

func TestRegister(t *testing.T) {
	tests := []struct {
		name        string
		body        string
		err         error
		wantStatus  int
		wantMessage string
	}{
		{"created", `{"name":"Ann","email":"ann@x.io","password":"pw1"}`, nil, http.StatusCreated, ""},
		{"missing password", `{"name":"Ann","email":"ann@x.io"}`, nil, http.StatusBadRequest, "All fields are required"},
		{"blank after trim", `{"name":" ","email":"ann@x.io","password":"pw1"}`, fmt.Errorf("%w: name", user.ErrValidation), http.StatusBadRequest, "All fields are required"},
		{"taken", `{"name":"Ann","email":"ann@x.io","password":"pw1"}`, fmt.Errorf("create: %w", user.ErrConflict), http.StatusConflict, "User with this email already exists"},
		{"store down", `{"name":"Ann","email":"ann@x.io","password":"pw1"}`, &user.PersistenceError{Op: "create", Err: errors.New("disk full")}, http.StatusInternalServerError, "Server error"},
		{"password over bcrypt limit", `{"name":"Ann","email":"ann@x.io","password":"pw1"}`, fmt.Errorf("create: %w", user.ErrPasswordTooLong), http.StatusBadRequest, "Password is too long"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			called := false
			svc := &fakeAuth{
				registerFn: func(ctx context.Context, name, email, password string) (user.PublicAccount, string, error) {
					called = true
					if tt.err != nil {
						return user.PublicAccount{}, "", tt.err
					}
					return ann, "tok", nil
				},
			}

			w := postJSON(newAuthRouter(svc), "/auth/register", tt.body)

			if w.Code != tt.wantStatus {
				t.Fatalf("got status %d, want %d, body=%s", w.Code, tt.wantStatus, w.Body.String())
			}

			if tt.wantStatus == http.StatusCreated {
				var resp user.AuthResponse
				if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
					t.Fatalf("decode: %v body=%s", err, w.Body.String())
				}
				if resp.User.Email != "ann@x.io" || resp.Token != "tok" {
					t.Fatalf("unexpected response: %+v", resp)
				}

				var raw struct {
					User map[string]json.RawMessage `json:"user"`
				}
				if err := json.Unmarshal(w.Body.Bytes(), &raw); err != nil {
					t.Fatalf("decode raw: %v", err)
				}
				if _, leaked := raw.User["password"]; leaked {
					t.Fatalf("password field leaked: %s", w.Body.String())
				}
				return
			}

			msg, _ := decodeMessage(t, w)
			if msg != tt.wantMessage {
				t.Fatalf("got message %q, want %q", msg, tt.wantMessage)
			}
			if tt.name == "missing password" && called {
				t.Fatalf("service must not be called for an invalid body")
			}
		})
	}
}

func TestLogin(t *testing.T) {
	tests := []struct {
		name        string
		body        string
		err         error
		wantStatus  int
		wantMessage string
		wantCode    string
	}{
		{"ok", `{"email":"ann@x.io","password":"pw1"}`, nil, http.StatusOK, "", ""},
		{"missing email", `{"password":"pw1"}`, nil, http.StatusBadRequest, "Email and password are required", "invalid_request"},
		{"bad credentials", `{"email":"ann@x.io","password":"nope"}`, user.ErrInvalidCredentials, http.StatusUnauthorized, "Invalid credentials", "invalid_credentials"},
		{"internal", `{"email":"ann@x.io","password":"pw1"}`, errors.New("boom"), http.StatusInternalServerError, "Server error", "internal_error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &fakeAuth{
				loginFn: func(ctx context.Context, email, password string) (user.PublicAccount, string, error) {
					if tt.err != nil {
						return user.PublicAccount{}, "", tt.err
					}
					return ann, "tok", nil
				},
			}

			w := postJSON(newAuthRouter(svc), "/auth/login", tt.body)

			if w.Code != tt.wantStatus {
				t.Fatalf("got status %d, want %d, body=%s", w.Code, tt.wantStatus, w.Body.String())
			}
			if tt.wantStatus == http.StatusOK {
				var resp user.AuthResponse
				if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
					t.Fatalf("decode: %v", err)
				}
				if resp.User.ID != ann.ID || resp.Token != "tok" {
					t.Fatalf("unexpected response: %+v", resp)
				}
				return
			}

			msg, code := decodeMessage(t, w)
			if msg != tt.wantMessage || code != tt.wantCode {
				t.Fatalf("got (%q, %q), want (%q, %q)", msg, code, tt.wantMessage, tt.wantCode)
			}
		})
	}
}
