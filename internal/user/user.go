package users

type ContextKey string

const ActorKey ContextKey = "actor"

// Actor is the chat user on whose behalf the adapter is calling.
// The adapter resolves admin rights from platform roles before calling in.
type Actor struct {
	UserID      string
	DisplayName string
	IsAdmin     bool
}
