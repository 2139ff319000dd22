package auth

import (
	"crypto/x509"
	"encoding/pem"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"
)

func TestIssuer_IssueAndVerify(t *testing.T) {
	key, _ := generateTestKeyPair(t)
	cfg := Config{Issuer: testIssuer, TokenTTL: time.Hour}
	issuer := NewIssuer(cfg, key)

	issued, err := issuer.Issue(TokenSubject{UserID: 9, Email: "p@example.com", Role: RolePatient, ProfileID: 3})
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if time.Until(issued.ExpiresAt) > time.Hour || time.Until(issued.ExpiresAt) < 59*time.Minute {
		t.Errorf("Unexpected expiry %v", issued.ExpiresAt)
	}

	principal, err := NewVerifier(cfg, issuer).ParseAndVerifyToken(issued.Token)
	if err != nil {
		t.Fatalf("Expected issued token to verify, got: %v", err)
	}
	if principal.UserID != 9 || principal.ProfileID != 3 || !principal.HasRole(RolePatient) {
		t.Errorf("Unexpected principal %+v", principal)
	}
	if principal.Actor() != "p@example.com" {
		t.Errorf("Expected actor email, got %q", principal.Actor())
	}
}

func TestIssuer_RejectsMissingUser(t *testing.T) {
	key, _ := generateTestKeyPair(t)
	issuer := NewIssuer(Config{Issuer: testIssuer}, key)

	if _, err := issuer.Issue(TokenSubject{Role: RoleAdmin}); err == nil {
		t.Error("Expected error for missing user id, got nil")
	}
}

func TestIssuer_Get_UnknownKid(t *testing.T) {
	key, _ := generateTestKeyPair(t)
	issuer := NewIssuer(Config{Issuer: testIssuer}, key)

	if _, err := issuer.Get("other"); !errors.Is(err, ErrUnknownKey) {
		t.Error("Expected error for unknown kid")
	}
	if pub, err := issuer.Get(issuer.KID()); err != nil || pub.N.Cmp(key.PublicKey.N) != 0 {
		t.Errorf("Expected issuer public key, got %v, %v", pub, err)
	}
}

// TestJWKS_FetchesPublishedKeys verifies a token against keys fetched from
// the issuer's published key set.
func TestJWKS_FetchesPublishedKeys(t *testing.T) {
	key, _ := generateTestKeyPair(t)
	cfg := Config{Issuer: testIssuer}
	issuer := NewIssuer(cfg, key)

	server := httptest.NewServer(http.HandlerFunc(issuer.ServeJWKS))
	defer server.Close()

	jwks, err := NewJWKS(server.URL, time.Hour)
	if err != nil {
		t.Fatalf("Expected JWKS to load, got: %v", err)
	}
	defer jwks.Close()

	issued, err := issuer.Issue(TokenSubject{UserID: 1, Role: RoleAdmin, ProfileID: 1})
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	principal, err := NewVerifier(cfg, jwks).ParseAndVerifyToken(issued.Token)
	if err != nil {
		t.Fatalf("Expected token to verify against fetched JWKS, got: %v", err)
	}
	if !principal.IsAdmin() {
		t.Errorf("Expected admin principal, got roles %v", principal.Roles)
	}

	if _, err := jwks.Get("missing-kid"); !errors.Is(err, ErrUnknownKey) {
		t.Errorf("Expected ErrUnknownKey for missing kid, got %v", err)
	}
}

// TestJWKS_MissDoesNotRefetchImmediately checks that unknown kids arriving
// right after a fetch are answered from the cached set.
func TestJWKS_MissDoesNotRefetchImmediately(t *testing.T) {
	key, _ := generateTestKeyPair(t)
	issuer := NewIssuer(Config{Issuer: testIssuer}, key)

	var fetches int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&fetches, 1)
		issuer.ServeJWKS(w, r)
	}))
	defer server.Close()

	jwks, err := NewJWKS(server.URL, time.Hour)
	if err != nil {
		t.Fatalf("Expected JWKS to load, got: %v", err)
	}
	defer jwks.Close()

	for i := 0; i < 3; i++ {
		if _, err := jwks.Get("rotated-kid"); !errors.Is(err, ErrUnknownKey) {
			t.Fatalf("Expected ErrUnknownKey, got %v", err)
		}
	}
	if got := atomic.LoadInt32(&fetches); got != 1 {
		t.Errorf("Expected only the initial fetch, got %d", got)
	}
	if _, err := jwks.Get(issuer.KID()); err != nil {
		t.Errorf("Expected known kid to resolve, got %v", err)
	}
	jwks.Close()
}

// TestJWKS_FailedRefetchIsThrottled checks that a miss while the JWKS
// endpoint is failing does not refetch on every request.
func TestJWKS_FailedRefetchIsThrottled(t *testing.T) {
	key, _ := generateTestKeyPair(t)
	issuer := NewIssuer(Config{Issuer: testIssuer}, key)

	var fetches int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&fetches, 1) > 1 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		issuer.ServeJWKS(w, r)
	}))
	defer server.Close()

	jwks, err := NewJWKS(server.URL, time.Hour)
	if err != nil {
		t.Fatalf("Expected JWKS to load, got: %v", err)
	}
	defer jwks.Close()

	jwks.mu.Lock()
	jwks.lastFetched = time.Now().Add(-2 * missRefreshGap)
	jwks.mu.Unlock()

	if _, err := jwks.Get("rotated-kid"); err == nil || errors.Is(err, ErrUnknownKey) {
		t.Fatalf("Expected the failed refetch error, got: %v", err)
	}
	for i := 0; i < 3; i++ {
		if _, err := jwks.Get("rotated-kid"); !errors.Is(err, ErrUnknownKey) {
			t.Fatalf("Expected ErrUnknownKey, got: %v", err)
		}
	}
	if got := atomic.LoadInt32(&fetches); got != 2 {
		t.Errorf("Expected the initial fetch and one refetch, got %d", got)
	}
	if _, err := jwks.Get(issuer.KID()); err != nil {
		t.Errorf("Expected previous keys to be kept, got: %v", err)
	}
}

func TestNewJWKS_BadStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	if _, err := NewJWKS(server.URL, time.Hour); err == nil {
		t.Error("Expected error for non-200 JWKS response")
	}
}

func TestLoadSigningKey(t *testing.T) {
	key, _ := generateTestKeyPair(t)
	path := filepath.Join(t.TempDir(), "signing.pem")
	pemBytes := pem.EncodeToMemory(&pem.Block{Type: "RSA PRIVATE KEY", Bytes: x509.MarshalPKCS1PrivateKey(key)})
	if err := os.WriteFile(path, pemBytes, 0600); err != nil {
		t.Fatalf("Failed to write key: %v", err)
	}

	loaded, err := LoadSigningKey(path)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if loaded.N.Cmp(key.N) != 0 {
		t.Error("Loaded key does not match written key")
	}

	if _, err := LoadSigningKey(filepath.Join(t.TempDir(), "missing.pem")); err == nil {
		t.Error("Expected error for missing key file")
	}
}
