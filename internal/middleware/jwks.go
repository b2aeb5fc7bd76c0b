package middleware

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

	"golang.org/x/sync/singleflight"
)

// ErrKeyNotFound means the key set holds no usable signing key for the kid.
var ErrKeyNotFound = errors.New("signing key not found in JWKS")

const defaultMinRefreshInterval = 5 * time.Minute

type jwk struct {
	Kty string `json:"kty"`
	Kid string `json:"kid"`
	Use string `json:"use"`
	N   string `json:"n"`
	E   string `json:"e"`
}

type jwkSet struct {
	Keys []jwk `json:"keys"`
}

// JWKSClient caches the signing keys of a Cognito user pool. An unknown kid
// triggers a refetch, at most once per refresh interval; concurrent misses share
// one request.
type JWKSClient struct {
	url         string
	httpClient  *http.Client
	minInterval time.Duration
	now         func() time.Time

	mu        sync.RWMutex
	keys      map[string]*rsa.PublicKey
	lastFetch time.Time

	group singleflight.Group
}

type JWKSOption func(*JWKSClient)

// WithRefreshInterval sets the minimum delay between two fetches.
func WithRefreshInterval(d time.Duration) JWKSOption {
	return func(c *JWKSClient) { c.minInterval = d }
}

func WithHTTPClient(hc *http.Client) JWKSOption {
	return func(c *JWKSClient) { c.httpClient = hc }
}

func NewJWKSClient(url string, opts ...JWKSOption) *JWKSClient {
	c := &JWKSClient{
		url:         url,
		httpClient:  &http.Client{Timeout: 10 * time.Second},
		minInterval: defaultMinRefreshInterval,
		now:         time.Now,
		keys:        make(map[string]*rsa.PublicKey),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// GetKey returns the RSA public key for kid.
func (c *JWKSClient) GetKey(ctx context.Context, kid string) (*rsa.PublicKey, error) {
	if key, ok := c.cached(kid); ok {
		return key, nil
	}

	_, err, _ := c.group.Do("refresh", func() (any, error) {
		// A concurrent caller may have refreshed while we waited.
		if _, ok := c.cached(kid); ok {
			return nil, nil
		}
		if !c.refreshDue() {
			return nil, nil
		}
		return nil, c.refresh(ctx)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to refresh JWKS: %w", err)
	}

	key, ok := c.cached(kid)
	if !ok {
		return nil, fmt.Errorf("%w: kid %q", ErrKeyNotFound, kid)
	}
	return key, nil
}

func (c *JWKSClient) cached(kid string) (*rsa.PublicKey, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	key, ok := c.keys[kid]
	return key, ok
}

func (c *JWKSClient) refreshDue() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.lastFetch.IsZero() || c.now().Sub(c.lastFetch) >= c.minInterval
}

// refresh replaces the key set. The attempt is recorded even when it fails so
// an unreachable endpoint is not hit on every request.
func (c *JWKSClient) refresh(ctx context.Context) error {
	c.mu.Lock()
	c.lastFetch = c.now()
	c.mu.Unlock()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return fmt.Errorf("failed to build JWKS request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to fetch JWKS: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("JWKS endpoint returned status %d", resp.StatusCode)
	}

	var set jwkSet
	if err := json.NewDecoder(resp.Body).Decode(&set); err != nil {
		return fmt.Errorf("failed to decode JWKS: %w", err)
	}

	keys := make(map[string]*rsa.PublicKey, len(set.Keys))
	for _, k := range set.Keys {
		if k.Kty != "RSA" || (k.Use != "" && k.Use != "sig") {
			continue
		}
		pub, err := k.publicKey()
		if err != nil {
			continue
		}
		keys[k.Kid] = pub
	}

	c.mu.Lock()
	c.keys = keys
	c.mu.Unlock()
	return nil
}

func (k jwk) publicKey() (*rsa.PublicKey, error) {
	nBytes, err := base64.RawURLEncoding.DecodeString(k.N)
	if err != nil {
		return nil, fmt.Errorf("failed to decode modulus: %w", err)
	}
	eBytes, err := base64.RawURLEncoding.DecodeString(k.E)
	if err != nil {
		return nil, fmt.Errorf("failed to decode exponent: %w", err)
	}

	e := new(big.Int).SetBytes(eBytes)
	if len(nBytes) == 0 || !e.IsInt64() || e.Int64() < 3 || e.Int64() > 1<<31-1 {
		return nil, errors.New("invalid RSA key parameters")
	}

	return &rsa.PublicKey{
		N: new(big.Int).SetBytes(nBytes),
		E: int(e.Int64()),
	}, nil
}
