package middlewares

// Gin context keys set by RequireAuth. Handlers go through the helper
// functions below instead of touching these directly.
const (
	ctxUserKey   = "auth.user"
	ctxUserIDKey = "auth.userID"
	ctxRoleKey   = "auth.role"
)
