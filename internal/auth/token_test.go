package auth

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"math/big"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func genKey(t *testing.T) *rsa.PrivateKey {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	return key
}

// jwksServer serves the public halves of keys as a JWKS document and counts
// fetches.
func jwksServer(t *testing.T, keys map[string]*rsa.PublicKey, fetches *int) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if fetches != nil {
			*fetches++
		}
		var doc struct {
			Keys []map[string]string `json:"keys"`
		}
		for kid, pub := range keys {
			doc.Keys = append(doc.Keys, map[string]string{
				"kty": "RSA",
				"kid": kid,
				"n":   base64.RawURLEncoding.EncodeToString(pub.N.Bytes()),
				"e":   base64.RawURLEncoding.EncodeToString(big.NewInt(int64(pub.E)).Bytes()),
			})
		}
		if err := json.NewEncoder(w).Encode(doc); err != nil {
			t.Errorf("encode jwks: %v", err)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func signToken(t *testing.T, key *rsa.PrivateKey, kid string, claims jwt.MapClaims) string {
	t.Helper()
	if _, ok := claims["exp"]; !ok {
		claims["exp"] = time.Now().Add(time.Hour).Unix()
	}
	tok := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	tok.Header["kid"] = kid
	signed, err := tok.SignedString(key)
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return signed
}

func newVerifier(t *testing.T, key *rsa.PrivateKey, kid string) *Verifier {
	t.Helper()
	srv := jwksServer(t, map[string]*rsa.PublicKey{kid: &key.PublicKey}, nil)
	return &Verifier{Keys: &KeySet{URL: srv.URL}}
}

func TestVerify(t *testing.T) {
	key := genKey(t)
	v := newVerifier(t, key, "key-1")
	ctx := context.Background()

	t.Run("admin group", func(t *testing.T) {
		token := signToken(t, key, "key-1", jwt.MapClaims{
			"sub":              "user-1",
			"email":            "a@example.com",
			"custom:tenant_id": "tenant-a",
			"cognito:groups":   []string{"Administrators"},
		})
		claims, err := v.Verify(ctx, token)
		if err != nil {
			t.Fatalf("Verify: %v", err)
		}
		want := Claims{TenantID: "tenant-a", UserID: "user-1", Email: "a@example.com", Role: RoleAdmin}
		if claims != want {
			t.Errorf("claims = %+v, want %+v", claims, want)
		}
	})

	t.Run("member group", func(t *testing.T) {
		token := signToken(t, key, "key-1", jwt.MapClaims{
			"sub":              "user-2",
			"custom:tenant_id": "tenant-a",
			"cognito:groups":   []string{"Members"},
		})
		claims, err := v.Verify(ctx, token)
		if err != nil {
			t.Fatalf("Verify: %v", err)
		}
		if claims.Role != RoleMember {
			t.Errorf("role = %q, want MEMBER", claims.Role)
		}
	})

	t.Run("admin group wins over member", func(t *testing.T) {
		token := signToken(t, key, "key-1", jwt.MapClaims{
			"sub":              "user-3",
			"custom:tenant_id": "tenant-a",
			"cognito:groups":   []string{"Members", "Administrators"},
		})
		claims, err := v.Verify(ctx, token)
		if err != nil {
			t.Fatalf("Verify: %v", err)
		}
		if claims.Role != RoleAdmin {
			t.Errorf("role = %q, want ADMIN", claims.Role)
		}
	})

	t.Run("custom role claim fallback", func(t *testing.T) {
		token := signToken(t, key, "key-1", jwt.MapClaims{
			"sub":              "user-4",
			"custom:tenant_id": "tenant-a",
			"custom:role":      RoleMember,
		})
		claims, err := v.Verify(ctx, token)
		if err != nil {
			t.Fatalf("Verify: %v", err)
		}
		if claims.Role != RoleMember {
			t.Errorf("role = %q, want MEMBER", claims.Role)
		}
	})

	rejected := []struct {
		name   string
		claims jwt.MapClaims
	}{
		{"no role anywhere", jwt.MapClaims{"sub": "u", "custom:tenant_id": "tenant-a"}},
		{"unrecognized role", jwt.MapClaims{"sub": "u", "custom:tenant_id": "tenant-a", "custom:role": "OWNER"}},
		{"unrecognized group only", jwt.MapClaims{"sub": "u", "custom:tenant_id": "tenant-a", "cognito:groups": []string{"Auditors"}}},
		{"missing tenant", jwt.MapClaims{"sub": "u", "custom:role": RoleAdmin}},
		{"missing subject", jwt.MapClaims{"custom:tenant_id": "tenant-a", "custom:role": RoleAdmin}},
		{"expired", jwt.MapClaims{"sub": "u", "custom:tenant_id": "tenant-a", "custom:role": RoleAdmin, "exp": time.Now().Add(-time.Hour).Unix()}},
	}
	for _, tc := range rejected {
		t.Run(tc.name, func(t *testing.T) {
			token := signToken(t, key, "key-1", tc.claims)
			if _, err := v.Verify(ctx, token); err == nil {
				t.Fatal("expected rejection, got nil error")
			}
		})
	}

	t.Run("wrong signing key", func(t *testing.T) {
		other := genKey(t)
		token := signToken(t, other, "key-1", jwt.MapClaims{
			"sub":              "u",
			"custom:tenant_id": "tenant-a",
			"custom:role":      RoleAdmin,
		})
		if _, err := v.Verify(ctx, token); err == nil {
			t.Fatal("expected signature rejection")
		}
	})

	t.Run("unknown kid", func(t *testing.T) {
		token := signToken(t, key, "key-99", jwt.MapClaims{
			"sub":              "u",
			"custom:tenant_id": "tenant-a",
			"custom:role":      RoleAdmin,
		})
		if _, err := v.Verify(ctx, token); err == nil {
			t.Fatal("expected unknown kid rejection")
		}
	})

	t.Run("garbage token", func(t *testing.T) {
		if _, err := v.Verify(ctx, "not.a.token"); err == nil {
			t.Fatal("expected parse failure")
		}
	})
}

func TestBearerToken(t *testing.T) {
	cases := []struct {
		in    string
		token string
		ok    bool
	}{
		{"Bearer abc.def.ghi", "abc.def.ghi", true},
		{"bearer abc", "abc", true},
		{"Basic abc", "", false},
		{"Bearer", "", false},
		{"Bearer a b", "", false},
		{"", "", false},
	}
	for _, tc := range cases {
		token, ok := BearerToken(tc.in)
		if token != tc.token || ok != tc.ok {
			t.Errorf("BearerToken(%q) = (%q, %v), want (%q, %v)", tc.in, token, ok, tc.token, tc.ok)
		}
	}
}
