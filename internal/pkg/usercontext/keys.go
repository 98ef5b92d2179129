package usercontext

// Shared Locals keys used across controllers and middlewares
const (
	Key          = "USER_CONTEXT"
	KeyUserID    = "user_id"
	KeyUsername  = "username"
	KeyIsAdmin   = "isAdmin"
	KeyProtected = "from_protected"
)
