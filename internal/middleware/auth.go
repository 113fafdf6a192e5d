package middleware

import (
	"context"
	"crypto/subtle"
	"log/slog"
	"net/http"
	"strconv"

	users "github.com/AdamBeresnev/op-tourney-bot/internal/user"
)

const (
	AdapterTokenHeader = "X-Adapter-Token"
	ActorIDHeader      = "X-Actor-ID"
	ActorNameHeader    = "X-Actor-Name"
	ActorAdminHeader   = "X-Actor-Admin"
)

// RequireAdapter rejects calls that do not carry the shared adapter token.
func RequireAdapter(token string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			got := r.Header.Get(AdapterTokenHeader)
			if token == "" || subtle.ConstantTimeCompare([]byte(got), []byte(token)) != 1 {
				slog.Warn("rejected adapter call", "path", r.URL.Path, "remote", r.RemoteAddr)
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// WithActor puts the acting chat user into the request context.
func WithActor(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID := r.Header.Get(ActorIDHeader)
		if userID == "" {
			http.Error(w, "missing "+ActorIDHeader, http.StatusUnauthorized)
			return
		}

		// Anything unparsable is treated as not admin
		isAdmin, _ := strconv.ParseBool(r.Header.Get(ActorAdminHeader))

		actor := users.Actor{
			UserID:      userID,
			DisplayName: r.Header.Get(ActorNameHeader),
			IsAdmin:     isAdmin,
		}
		next.ServeHTTP(w, r.WithContext(ContextWithActor(r.Context(), actor)))
	})
}

func ContextWithActor(ctx context.Context, actor users.Actor) context.Context {
	return context.WithValue(ctx, users.ActorKey, actor)
}

func GetActor(ctx context.Context) (users.Actor, bool) {
	val := ctx.Value(users.ActorKey)
	if val == nil {
		return users.Actor{}, false
	}
	actor, ok := val.(users.Actor)
	return actor, ok
}

func GetUserIDFromContext(ctx context.Context) (string, bool) {
	actor, ok := GetActor(ctx)
	if !ok {
		return "", false
	}
	return actor.UserID, true
}
