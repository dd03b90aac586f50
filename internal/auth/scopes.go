package auth

// Known OAuth scopes used by the engagement service.
const (
	ScopeEngagementRead  = "engagement:read"
	ScopeEngagementWrite = "engagement:write"
)
