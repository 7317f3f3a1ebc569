package middleware

// ContextKey avoids collisions with other packages' context values.
type ContextKey string

const (
	// UserIDCtxKey holds the authenticated user's ID.
	UserIDCtxKey = ContextKey("user_id")
	// UserRoleCtxKey holds the authenticated user's role.
	UserRoleCtxKey = ContextKey("user_role")
)
