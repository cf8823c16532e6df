package auth

import (
	"context"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"math/big"
	"net/http"
	"sync"
	"time"
)

// KeySet caches the issuer's published JWKS. Entries are keyed by kid and the
// whole set expires after TTL, so issuer key rotation is picked up without a
// process restart: an unknown kid forces one refetch before failing.
type KeySet struct {
	URL        string
	TTL        time.Duration
	HTTPClient *http.Client
	Now        func() time.Time

	mu        sync.Mutex
	keys      map[string]*rsa.PublicKey
	fetchedAt time.Time
}

const DefaultKeyTTL = 10 * time.Minute

type jwk struct {
	Kty string `json:"kty"`
	Kid string `json:"kid"`
	N   string `json:"n"`
	E   string `json:"e"`
}

type jwksDocument struct {
	Keys []jwk `json:"keys"`
}

func (ks *KeySet) now() time.Time {
	if ks.Now != nil {
		return ks.Now()
	}
	return time.Now()
}

func (ks *KeySet) ttl() time.Duration {
	if ks.TTL > 0 {
		return ks.TTL
	}
	return DefaultKeyTTL
}

func (ks *KeySet) httpClient() *http.Client {
	if ks.HTTPClient != nil {
		return ks.HTTPClient
	}
	return &http.Client{Timeout: 10 * time.Second}
}

// Key resolves a signing key by kid, refetching the set when it is stale or
// the kid is unknown.
func (ks *KeySet) Key(ctx context.Context, kid string) (*rsa.PublicKey, error) {
	ks.mu.Lock()
	defer ks.mu.Unlock()

	fresh := ks.keys != nil && ks.now().Sub(ks.fetchedAt) < ks.ttl()
	if fresh {
		if key, ok := ks.keys[kid]; ok {
			return key, nil
		}
	}
	if err := ks.fetchLocked(ctx); err != nil {
		return nil, err
	}
	key, ok := ks.keys[kid]
	if !ok {
		return nil, fmt.Errorf("no key with kid %s", kid)
	}
	return key, nil
}

func (ks *KeySet) fetchLocked(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ks.URL, nil)
	if err != nil {
		return fmt.Errorf("build jwks request: %w", err)
	}
	res, err := ks.httpClient().Do(req)
	if err != nil {
		return fmt.Errorf("fetch jwks: %w", err)
	}
	defer res.Body.Close()
	if res.StatusCode != http.StatusOK {
		return fmt.Errorf("fetch jwks: status %d", res.StatusCode)
	}
	var doc jwksDocument
	if err := json.NewDecoder(res.Body).Decode(&doc); err != nil {
		return fmt.Errorf("decode jwks: %w", err)
	}

	keys := make(map[string]*rsa.PublicKey, len(doc.Keys))
	for _, k := range doc.Keys {
		if k.Kty != "RSA" || k.Kid == "" {
			continue
		}
		pub, err := rsaKey(k)
		if err != nil {
			return fmt.Errorf("parse jwk %s: %w", k.Kid, err)
		}
		keys[k.Kid] = pub
	}
	ks.keys = keys
	ks.fetchedAt = ks.now()
	return nil
}

func rsaKey(k jwk) (*rsa.PublicKey, error) {
	nb, err := base64.RawURLEncoding.DecodeString(k.N)
	if err != nil {
		return nil, fmt.Errorf("modulus: %w", err)
	}
	eb, err := base64.RawURLEncoding.DecodeString(k.E)
	if err != nil {
		return nil, fmt.Errorf("exponent: %w", err)
	}
	e := new(big.Int).SetBytes(eb)
	if !e.IsInt64() || e.Int64() <= 0 {
		return nil, fmt.Errorf("exponent out of range")
	}
	return &rsa.PublicKey{
		N: new(big.Int).SetBytes(nb),
		E: int(e.Int64()),
	}, nil
}
