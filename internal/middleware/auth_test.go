package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	users "github.com/AdamBeresnev/op-tourney-bot/internal/user"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRequireAdapter(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})

	tests := []struct {
		name       string
		configured string
		sent       string
		want       int
	}{
		{name: "matching token", configured: "s3cret", sent: "s3cret", want: http.StatusTeapot},
		{name: "wrong token", configured: "s3cret", sent: "guess", want: http.StatusUnauthorized},
		{name: "missing token", configured: "s3cret", sent: "", want: http.StatusUnauthorized},
		{name: "unconfigured token rejects everything", configured: "", sent: "", want: http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.sent != "" {
				req.Header.Set(AdapterTokenHeader, tt.sent)
			}
			rec := httptest.NewRecorder()

			RequireAdapter(tt.configured)(ok).ServeHTTP(rec, req)
			assert.Equal(t, tt.want, rec.Code)
		})
	}
}

func TestWithActor(t *testing.T) {
	var got users.Actor
	var found bool
	handler := WithActor(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, found = GetActor(r.Context())
	}))

	req := httptest.NewRequest(http.MethodPost, "/", nil)
	req.Header.Set(ActorIDHeader, "1234")
	req.Header.Set(ActorNameHeader, "Zed")
	req.Header.Set(ActorAdminHeader, "true")
	handler.ServeHTTP(httptest.NewRecorder(), req)

	require.True(t, found)
	assert.Equal(t, users.Actor{UserID: "1234", DisplayName: "Zed", IsAdmin: true}, got)

	userID, ok := GetUserIDFromContext(ContextWithActor(req.Context(), got))
	assert.True(t, ok)
	assert.Equal(t, "1234", userID)
}

func TestWithActorRequiresUser(t *testing.T) {
	called := false
	handler := WithActor(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/", nil))

	assert.False(t, called)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestWithActorIgnoresBadAdminFlag(t *testing.T) {
	var got users.Actor
	handler := WithActor(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, _ = GetActor(r.Context())
	}))

	req := httptest.NewRequest(http.MethodPost, "/", nil)
	req.Header.Set(ActorIDHeader, "1234")
	req.Header.Set(ActorAdminHeader, "yes please")
	handler.ServeHTTP(httptest.NewRecorder(), req)

	assert.False(t, got.IsAdmin)
}
