package auth

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// TokenSubject is what a login token asserts about the caller.
type TokenSubject struct {
	UserID    int64
	Email     string
	Role      string
	ProfileID int64
}

// IssuedToken is a signed token and its expiry.
type IssuedToken struct {
	Token     string
	ExpiresAt time.Time
}

// Issuer signs RS256 login tokens and publishes its public key as a JWKS.
type Issuer struct {
	cfg Config
	key *rsa.PrivateKey
	kid string
	now func() time.Time
}

var _ KeySource = (*Issuer)(nil)

// NewIssuer creates an issuer for an existing key. The kid is derived from
// the public key so restarts with the same key keep the same kid.
func NewIssuer(cfg Config, key *rsa.PrivateKey) *Issuer {
	sum := sha256.Sum256(key.PublicKey.N.Bytes())
	return &Issuer{
		cfg: cfg,
		key: key,
		kid: base64.RawURLEncoding.EncodeToString(sum[:8]),
		now: time.Now,
	}
}

// LoadSigningKey reads a PEM RSA private key, or generates a 2048-bit key
// when path is empty.
func LoadSigningKey(path string) (*rsa.PrivateKey, error) {
	if path == "" {
		log.Warn().Msg("AUTH_SIGNING_KEY_FILE not set, generating an ephemeral signing key; tokens will not survive a restart")
		return rsa.GenerateKey(rand.Reader, 2048)
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read signing key: %w", err)
	}
	key, err := jwt.ParseRSAPrivateKeyFromPEM(b)
	if err != nil {
		return nil, fmt.Errorf("failed to parse signing key: %w", err)
	}
	return key, nil
}

// KID returns the key id placed in token headers.
func (i *Issuer) KID() string {
	return i.kid
}

// Issue signs a token for the subject.
func (i *Issuer) Issue(sub TokenSubject) (*IssuedToken, error) {
	if sub.UserID <= 0 {
		return nil, errors.New("issuer: user id is required")
	}
	now := i.now()
	exp := now.Add(i.cfg.tokenTTL())

	claims := jwt.MapClaims{
		"sub":        strconv.FormatInt(sub.UserID, 10),
		"iss":        i.cfg.Issuer,
		"iat":        now.Unix(),
		"exp":        exp.Unix(),
		"jti":        uuid.New().String(),
		"email":      sub.Email,
		"role":       sub.Role,
		"profile_id": sub.ProfileID,
	}
	if i.cfg.Audience != "" {
		claims["aud"] = i.cfg.Audience
	}

	token := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	token.Header["kid"] = i.kid

	signed, err := token.SignedString(i.key)
	if err != nil {
		return nil, fmt.Errorf("failed to sign token: %w", err)
	}
	return &IssuedToken{Token: signed, ExpiresAt: exp}, nil
}

// Get implements KeySource for tokens this issuer signed.
func (i *Issuer) Get(kid string) (*rsa.PublicKey, error) {
	if kid != i.kid {
		return nil, ErrUnknownKey
	}
	return &i.key.PublicKey, nil
}

// ServeJWKS publishes the verification key.
func (i *Issuer) ServeJWKS(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "public, max-age=300")
	json.NewEncoder(w).Encode(jwksJSON{Keys: []jwkKey{newJWK(i.kid, &i.key.PublicKey)}})
}
