package testutil

import (
	"crypto/rsa"
	"testing"

	"github.com/swasthatech/hospital-service/internal/auth"
)

// TestIssuer is the token issuer used by end-to-end tests.
const TestIssuer = "https://hospital.test"

// CreateTestIssuer returns an issuer with a fresh key and a verifier that
// trusts it, the same pairing the server builds at startup.
func CreateTestIssuer(t *testing.T) (*auth.Issuer, *auth.Verifier) {
	t.Helper()

	issuer, verifier, _ := CreateTestIssuerWithKey(t)
	return issuer, verifier
}

// CreateTestIssuerWithKey also returns the signing key, for tests that need
// to forge tokens the issuer itself would refuse to produce.
func CreateTestIssuerWithKey(t *testing.T) (*auth.Issuer, *auth.Verifier, *rsa.PrivateKey) {
	t.Helper()

	privateKey, _ := GenerateTestKeyPair(t)
	cfg := auth.Config{Issuer: TestIssuer}
	issuer := auth.NewIssuer(cfg, privateKey)
	return issuer, auth.NewVerifier(cfg, issuer), privateKey
}

// IssueTestToken signs a token for the given account and profile.
func IssueTestToken(t *testing.T, issuer *auth.Issuer, userID int64, email, role string, profileID int64) string {
	t.Helper()

	tok, err := issuer.Issue(auth.TokenSubject{
		UserID:    userID,
		Email:     email,
		Role:      role,
		ProfileID: profileID,
	})
	if err != nil {
		t.Fatalf("Failed to issue token: %v", err)
	}
	return tok.Token
}
