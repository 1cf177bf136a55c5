package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/hitoshi/kiwi/internal/auth"
	"github.com/hitoshi/kiwi/internal/model"
)

func newTestAuthenticator(t *testing.T) (*auth.TokenCodec, *auth.Authenticator) {
	t.Helper()
	codec, err := auth.NewTokenCodec([]byte("middleware-test-key"), time.Hour)
	if err != nil {
		t.Fatalf("NewTokenCodec failed: %v", err)
	}
	return codec, auth.NewAuthenticator(codec)
}

func mustUUID(t *testing.T, s string) uuid.UUID {
	t.Helper()
	id, err := uuid.Parse(s)
	if err != nil {
		t.Fatalf("uuid.Parse(%q) failed: %v", s, err)
	}
	return id
}

// recordingObserver は記録された拒否種別を保持する。
type recordingObserver struct {
	kinds  []string
	scopes []string
}

func (o *recordingObserver) RecordAuthRejection(kind string) { o.kinds = append(o.kinds, kind) }
func (o *recordingObserver) RecordRateLimited(scope string)  { o.scopes = append(o.scopes, scope) }

// TestAuthMiddleware_ValidToken_SetsIdentity は有効なトークンでIdentityがコンテキストに設定されることを検証する。
func TestAuthMiddleware_ValidToken_SetsIdentity(t *testing.T) {
	codec, authn := newTestAuthenticator(t)
	userID := mustUUID(t, "22222222-2222-2222-2222-222222222222")

	var captured auth.Identity
	var found bool
	handler := NewAuthMiddleware(authn, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured, found = IdentityFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	token, err := codec.Issue(userID)
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}
	req := httptest.NewRequest(http.MethodGet, "/user", nil)
	req.Header.Set("Authorization", "Token "+token)
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", w.Code, http.StatusOK)
	}
	if !found {
		t.Fatal("identity not found in context")
	}
	if captured.UserID != userID {
		t.Errorf("UserID = %s, want %s", captured.UserID, userID)
	}
}

// TestAuthMiddleware_Rejections_ReturnIdenticalBody は拒否理由に関わらず同一の401レスポンスを返すことを検証する。
func TestAuthMiddleware_Rejections_ReturnIdenticalBody(t *testing.T) {
	codec, authn := newTestAuthenticator(t)
	otherCodec, err := auth.NewTokenCodec([]byte("another-key"), time.Hour)
	if err != nil {
		t.Fatalf("NewTokenCodec failed: %v", err)
	}

	userID := mustUUID(t, "33333333-3333-3333-3333-333333333333")
	valid, err := codec.Issue(userID)
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}
	foreign, err := otherCodec.Issue(userID)
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}

	tests := []struct {
		name     string
		header   string
		set      bool
		wantKind string
	}{
		{"ヘッダーなし", "", false, "missing_header"},
		{"Bearerスキーム", "Bearer " + valid, true, "wrong_scheme"},
		{"小文字スキーム", "token " + valid, true, "wrong_scheme"},
		{"セグメント不足", "Token abc.def", true, "malformed"},
		{"別の鍵で署名", "Token " + foreign, true, "bad_signature"},
	}

	var bodies []string
	obs := &recordingObserver{}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			called := false
			handler := NewAuthMiddleware(authn, obs)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				called = true
			}))

			req := httptest.NewRequest(http.MethodGet, "/messages", nil)
			if tt.set {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, req)

			if called {
				t.Error("next handler should not be called")
			}
			if w.Code != http.StatusUnauthorized {
				t.Errorf("status = %d, want %d", w.Code, http.StatusUnauthorized)
			}

			var body ErrorResponseBody
			if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
				t.Fatalf("failed to decode body: %v", err)
			}
			if body.Code != model.ErrCodeUnauthorized {
				t.Errorf("code = %q, want %q", body.Code, model.ErrCodeUnauthorized)
			}
			bodies = append(bodies, w.Body.String())

			if got := obs.kinds[len(obs.kinds)-1]; got != tt.wantKind {
				t.Errorf("recorded kind = %q, want %q", got, tt.wantKind)
			}
		})
	}

	for i := 1; i < len(bodies); i++ {
		if bodies[i] != bodies[0] {
			t.Errorf("body[%d] = %q, want identical to %q", i, bodies[i], bodies[0])
		}
	}
}

// TestIdentityFromContext_Empty は未設定の場合にfalseを返すことを検証する。
func TestIdentityFromContext_Empty(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if _, ok := IdentityFromContext(req.Context()); ok {
		t.Error("expected no identity in empty context")
	}

	id := auth.Identity{UserID: uuid.New()}
	got, ok := IdentityFromContext(ContextWithIdentity(req.Context(), id))
	if !ok || got != id {
		t.Errorf("IdentityFromContext = %v, %v; want %v, true", got, ok, id)
	}
}
