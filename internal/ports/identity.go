package ports

// IdentityVerifier validates identity tokens presented by clients.
type IdentityVerifier interface {
	// Verify checks the token signature and expiry.
	// Returns the subject (user id) the token was issued to.
	Verify(token string) (string, error)
}

// IdentityIssuer signs identity tokens for authenticated users.
type IdentityIssuer interface {
	// Issue returns a signed token for userID carrying displayName.
	Issue(userID, displayName string) (string, error)
}
