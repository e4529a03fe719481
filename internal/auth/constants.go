package auth

const (
	// ContextKeyPrincipal is the echo context key under which the request's
	// authenticated principal is stored. Absent key means anonymous.
	ContextKeyPrincipal = "principal"

	headerAuthorization = "Authorization"
	authHeaderParts     = 2
)

const (
	msgInvalidTokenClaims      = "invalid token claims"
	msgUnexpectedSigningMethod = "unexpected signing method: %v"
	msgTokenRejected           = "rejected token for %s %s: %v"
	msgGenerateTokenFail       = "failed to generate token"
)
