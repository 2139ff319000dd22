package auth

import (
	"context"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"net/http"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// ErrUnknownKey is returned by a KeySource that has no key for a kid.
var ErrUnknownKey = errors.New("unknown signing key")

const (
	defaultJWKSRefresh = 15 * time.Minute
	// missRefreshGap limits how often an unknown kid may trigger a refetch.
	missRefreshGap   = 30 * time.Second
	jwksFetchTimeout = 10 * time.Second
)

type jwkKey struct {
	Kty string `json:"kty"`
	Kid string `json:"kid"`
	Alg string `json:"alg"`
	Use string `json:"use,omitempty"`
	N   string `json:"n"`
	E   string `json:"e"`
}

type jwksJSON struct {
	Keys []jwkKey `json:"keys"`
}

// JWKS is a KeySource backed by a remote key set, used when tokens are
// minted by another instance of the service.
type JWKS struct {
	url    string
	client *http.Client

	mu          sync.RWMutex
	keys        map[string]*rsa.PublicKey
	lastFetched time.Time
	// lastAttempt is stamped by every miss refetch, successful or not.
	lastAttempt time.Time

	stop     chan struct{}
	stopOnce sync.Once
}

var _ KeySource = (*JWKS)(nil)

// NewJWKS fetches url once and then every refreshInterval (15m when zero).
// The first fetch must succeed.
func NewJWKS(url string, refreshInterval time.Duration) (*JWKS, error) {
	if refreshInterval <= 0 {
		refreshInterval = defaultJWKSRefresh
	}
	j := &JWKS{
		url:    url,
		client: &http.Client{Timeout: jwksFetchTimeout},
		keys:   map[string]*rsa.PublicKey{},
		stop:   make(chan struct{}),
	}
	if err := j.refresh(context.Background()); err != nil {
		return nil, err
	}
	go j.poll(refreshInterval)
	return j, nil
}

func (j *JWKS) poll(every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			if err := j.refresh(context.Background()); err != nil {
				log.Warn().Err(err).Str("url", j.url).Msg("jwks refresh failed, keeping previous keys")
			}
		case <-j.stop:
			return
		}
	}
}

// Close stops background refresh. It may be called more than once.
func (j *JWKS) Close() {
	j.stopOnce.Do(func() { close(j.stop) })
}

func (j *JWKS) refresh(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, j.url, nil)
	if err != nil {
		return fmt.Errorf("jwks: %w", err)
	}
	resp, err := j.client.Do(req)
	if err != nil {
		return fmt.Errorf("jwks: fetch %s: %w", j.url, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("jwks: fetch %s: status %d", j.url, resp.StatusCode)
	}

	var set jwksJSON
	if err := json.NewDecoder(resp.Body).Decode(&set); err != nil {
		return fmt.Errorf("jwks: decode: %w", err)
	}
	keys := make(map[string]*rsa.PublicKey, len(set.Keys))
	for _, k := range set.Keys {
		if k.Kty != "RSA" || (k.Use != "" && k.Use != "sig") {
			continue
		}
		pub, err := k.publicKey()
		if err != nil {
			return fmt.Errorf("jwks: key %q: %w", k.Kid, err)
		}
		keys[k.Kid] = pub
	}

	j.mu.Lock()
	j.keys = keys
	j.lastFetched = time.Now()
	j.mu.Unlock()
	return nil
}

// Get returns the key for kid. A miss refetches the set, at most once per
// missRefreshGap, so rotated keys are picked up before the next poll. The
// gap counts from the last attempt, so an unreachable JWKS is not hammered.
func (j *JWKS) Get(kid string) (*rsa.PublicKey, error) {
	j.mu.RLock()
	pub := j.keys[kid]
	j.mu.RUnlock()
	if pub != nil {
		return pub, nil
	}

	j.mu.Lock()
	now := time.Now()
	if now.Sub(j.lastFetched) < missRefreshGap || now.Sub(j.lastAttempt) < missRefreshGap {
		j.mu.Unlock()
		return nil, ErrUnknownKey
	}
	j.lastAttempt = now
	j.mu.Unlock()

	if err := j.refresh(context.Background()); err != nil {
		return nil, err
	}
	j.mu.RLock()
	defer j.mu.RUnlock()
	if pub = j.keys[kid]; pub == nil {
		return nil, ErrUnknownKey
	}
	return pub, nil
}

func (k jwkKey) publicKey() (*rsa.PublicKey, error) {
	n, err := base64.RawURLEncoding.DecodeString(k.N)
	if err != nil {
		return nil, fmt.Errorf("modulus: %w", err)
	}
	e, err := base64.RawURLEncoding.DecodeString(k.E)
	if err != nil {
		return nil, fmt.Errorf("exponent: %w", err)
	}
	exp := new(big.Int).SetBytes(e)
	if !exp.IsInt64() || exp.Int64() < 2 || exp.Int64() > 1<<31-1 {
		return nil, errors.New("exponent out of range")
	}
	return &rsa.PublicKey{N: new(big.Int).SetBytes(n), E: int(exp.Int64())}, nil
}

// newJWK encodes pub as an RS256 signing key.
func newJWK(kid string, pub *rsa.PublicKey) jwkKey {
	return jwkKey{
		Kty: "RSA",
		Kid: kid,
		Alg: "RS256",
		Use: "sig",
		N:   base64.RawURLEncoding.EncodeToString(pub.N.Bytes()),
		E:   base64.RawURLEncoding.EncodeToString(big.NewInt(int64(pub.E)).Bytes()),
	}
}
