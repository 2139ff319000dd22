package auth

import "time"

// Config holds token issuing and verification settings.
type Config struct {
	Issuer   string
	Audience string
	TokenTTL time.Duration
	// SigningKeyFile is a PEM encoded RSA private key. When empty an
	// ephemeral key is generated at startup.
	SigningKeyFile string
	// JWKSURL, when set, makes the verifier trust an external key set
	// instead of the local signing key.
	JWKSURL string
}

const DefaultTokenTTL = 12 * time.Hour

func (c Config) tokenTTL() time.Duration {
	if c.TokenTTL <= 0 {
		return DefaultTokenTTL
	}
	return c.TokenTTL
}
