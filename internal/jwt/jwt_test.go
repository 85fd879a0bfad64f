package jwt

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/base64"
	"encoding/pem"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

var (
	testKeyOnce sync.Once
	testKey     *rsa.PrivateKey
)

// una sola generación RSA para toda la suite
func testRSAKey(t *testing.T) *rsa.PrivateKey {
	t.Helper()
	testKeyOnce.Do(func() {
		k, err := rsa.GenerateKey(rand.Reader, 2048)
		if err != nil {
			panic(err)
		}
		testKey = k
	})
	return testKey
}

func testKeystore(t *testing.T, kid string) *Keystore {
	t.Helper()
	priv := testRSAKey(t)
	return NewKeystore(func() (*KeySet, error) {
		return &KeySet{Priv: priv, Pub: &priv.PublicKey, KID: kid, Alg: "RS256"}, nil
	})
}

func kindOf(t *testing.T, err error) ErrorKind {
	t.Helper()
	ve := AsVerification(err)
	if ve == nil {
		t.Fatalf("expected VerificationError, got %v", err)
	}
	return ve.Kind
}

func TestSessionToken_RoundTrip(t *testing.T) {
	t.Parallel()
	ks := testKeystore(t, "kid-1")
	iss := NewIssuer("test-iss", "test-aud", ks, time.Hour, time.Minute)
	ver := NewVerifier("test-iss", "test-aud", ks)

	tok, err := iss.IssueSession(SessionClaims{
		Subject:     "entity-1",
		OrgID:       "org-1",
		Roles:       []string{"admin"},
		Permissions: []string{"accounts:create", "accounts:read"},
	})
	if err != nil {
		t.Fatalf("IssueSession: %v", err)
	}
	if tok.Type != "Bearer" {
		t.Fatalf("type = %q", tok.Type)
	}

	dec, err := ver.Verify(tok.Value)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if dec.Subject != "entity-1" || dec.OrgID != "org-1" {
		t.Fatalf("sub/org mismatch: %+v", dec)
	}
	if !dec.HasOrg() {
		t.Fatal("HasOrg() = false en token de sesión")
	}
	if dec.TokenID == "" {
		t.Fatal("jti vacío")
	}
	if !dec.ExpiresAt.After(dec.IssuedAt) {
		t.Fatalf("exp %v no es posterior a iat %v", dec.ExpiresAt, dec.IssuedAt)
	}
	if len(dec.Roles) != 1 || dec.Roles[0] != "admin" {
		t.Fatalf("roles = %v", dec.Roles)
	}
	if len(dec.Permissions) != 2 {
		t.Fatalf("permissions = %v", dec.Permissions)
	}
}

func TestSessionToken_UniqueJTI(t *testing.T) {
	t.Parallel()
	ks := testKeystore(t, "kid-1")
	iss := NewIssuer("test-iss", "test-aud", ks, time.Hour, time.Minute)
	ver := NewVerifier("test-iss", "test-aud", ks)

	seen := map[string]bool{}
	for i := 0; i < 5; i++ {
		tok, err := iss.IssueSession(SessionClaims{Subject: "e", OrgID: "o"})
		if err != nil {
			t.Fatal(err)
		}
		dec, err := ver.Verify(tok.Value)
		if err != nil {
			t.Fatal(err)
		}
		if seen[dec.TokenID] {
			t.Fatalf("jti repetido: %s", dec.TokenID)
		}
		seen[dec.TokenID] = true
	}
}

func TestProvisionalToken_RoundTrip(t *testing.T) {
	t.Parallel()
	ks := testKeystore(t, "kid-1")
	iss := NewIssuer("test-iss", "test-aud", ks, time.Hour, 15*time.Minute)
	ver := NewVerifier("test-iss", "test-aud", ks)

	tok, err := iss.IssueProvisional(ProvisionalClaims{Subject: "founder@acme.test"})
	if err != nil {
		t.Fatalf("IssueProvisional: %v", err)
	}

	dec, err := ver.Verify(tok.Value)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if dec.HasOrg() {
		t.Fatalf("token provisional con org: %q", dec.OrgID)
	}
	// roles/permissions nunca nil: los consumidores rangean sin chequear
	if dec.Roles == nil || len(dec.Roles) != 0 {
		t.Fatalf("roles = %#v", dec.Roles)
	}
	if len(dec.Permissions) != len(BootstrapPermissions) {
		t.Fatalf("permissions = %v", dec.Permissions)
	}
	for i, p := range BootstrapPermissions {
		if dec.Permissions[i] != p {
			t.Fatalf("permissions[%d] = %q, want %q", i, dec.Permissions[i], p)
		}
	}
	// TTL corto: RegisterTTL, no SessionTTL
	if until := time.Until(tok.ExpiresAt); until > 16*time.Minute {
		t.Fatalf("TTL provisional demasiado largo: %v", until)
	}
}

func TestVerify_Expired(t *testing.T) {
	t.Parallel()
	ks := testKeystore(t, "kid-1")
	past := time.Now().Add(-2 * time.Hour)
	iss := NewIssuer("test-iss", "test-aud", ks, time.Hour, time.Minute).
		WithClock(func() time.Time { return past })
	ver := NewVerifier("test-iss", "test-aud", ks)

	tok, err := iss.IssueSession(SessionClaims{Subject: "e", OrgID: "o"})
	if err != nil {
		t.Fatal(err)
	}
	_, err = ver.Verify(tok.Value)
	if k := kindOf(t, err); k != KindExpired {
		t.Fatalf("kind = %v, want Expired", k)
	}
}

func TestVerify_TamperedPayload(t *testing.T) {
	t.Parallel()
	ks := testKeystore(t, "kid-1")
	iss := NewIssuer("test-iss", "test-aud", ks, time.Hour, time.Minute)
	ver := NewVerifier("test-iss", "test-aud", ks)

	tok, err := iss.IssueSession(SessionClaims{Subject: "e", OrgID: "o"})
	if err != nil {
		t.Fatal(err)
	}

	parts := strings.Split(tok.Value, ".")
	if len(parts) != 3 {
		t.Fatalf("token con %d partes", len(parts))
	}

	// Cualquier byte alterado del payload es BadSignature, incluso si la
	// mutación rompe el JSON: la firma se chequea antes de decodificar.
	for _, pos := range []int{0, len(parts[1]) / 2, len(parts[1]) - 1} {
		payload := []byte(parts[1])
		if payload[pos] == 'A' {
			payload[pos] = 'B'
		} else {
			payload[pos] = 'A'
		}
		tampered := parts[0] + "." + string(payload) + "." + parts[2]

		_, err = ver.Verify(tampered)
		if err == nil {
			t.Fatalf("token adulterado (byte %d) aceptado", pos)
		}
		if k := kindOf(t, err); k != KindBadSignature {
			t.Fatalf("byte %d: kind = %v, want BadSignature", pos, k)
		}
	}
}

func TestVerify_TamperedSignature(t *testing.T) {
	t.Parallel()
	ks := testKeystore(t, "kid-1")
	iss := NewIssuer("test-iss", "test-aud", ks, time.Hour, time.Minute)
	ver := NewVerifier("test-iss", "test-aud", ks)

	tok, err := iss.IssueSession(SessionClaims{Subject: "e", OrgID: "o"})
	if err != nil {
		t.Fatal(err)
	}
	parts := strings.Split(tok.Value, ".")
	sig := []byte(parts[2])
	if sig[0] == 'A' {
		sig[0] = 'B'
	} else {
		sig[0] = 'A'
	}
	_, err = ver.Verify(parts[0] + "." + parts[1] + "." + string(sig))
	if k := kindOf(t, err); k != KindBadSignature {
		t.Fatalf("kind = %v, want BadSignature", k)
	}
}

func TestVerify_UnknownKID(t *testing.T) {
	t.Parallel()
	issuerKS := testKeystore(t, "kid-old")
	verifierKS := testKeystore(t, "kid-new")
	iss := NewIssuer("test-iss", "test-aud", issuerKS, time.Hour, time.Minute)
	ver := NewVerifier("test-iss", "test-aud", verifierKS)

	tok, err := iss.IssueSession(SessionClaims{Subject: "e", OrgID: "o"})
	if err != nil {
		t.Fatal(err)
	}
	_, err = ver.Verify(tok.Value)
	if k := kindOf(t, err); k != KindUnknownKey {
		t.Fatalf("kind = %v, want UnknownKey", k)
	}
}

func TestVerify_BadIssuerAndAudience(t *testing.T) {
	t.Parallel()
	ks := testKeystore(t, "kid-1")
	iss := NewIssuer("test-iss", "test-aud", ks, time.Hour, time.Minute)

	tok, err := iss.IssueSession(SessionClaims{Subject: "e", OrgID: "o"})
	if err != nil {
		t.Fatal(err)
	}

	if _, err := NewVerifier("other-iss", "test-aud", ks).Verify(tok.Value); kindOf(t, err) != KindBadIssuer {
		t.Fatalf("iss: kind = %v", kindOf(t, err))
	}
	if _, err := NewVerifier("test-iss", "other-aud", ks).Verify(tok.Value); kindOf(t, err) != KindBadAudience {
		t.Fatalf("aud: kind = %v", kindOf(t, err))
	}
}

func TestVerify_Garbage(t *testing.T) {
	t.Parallel()
	ks := testKeystore(t, "kid-1")
	ver := NewVerifier("test-iss", "test-aud", ks)

	_, err := ver.Verify("not-a-jwt")
	if k := kindOf(t, err); k != KindMalformedClaims {
		t.Fatalf("kind = %v, want MalformedClaims", k)
	}
}

func TestKeystore_ErrorsNotMemoized(t *testing.T) {
	t.Parallel()
	priv := testRSAKey(t)
	calls := 0
	ks := NewKeystore(func() (*KeySet, error) {
		calls++
		if calls == 1 {
			return nil, errors.New("material no disponible")
		}
		return &KeySet{Priv: priv, Pub: &priv.PublicKey, KID: "k", Alg: "RS256"}, nil
	})

	if _, err := ks.Active(); err == nil {
		t.Fatal("primera carga debía fallar")
	}
	if _, err := ks.Active(); err != nil {
		t.Fatalf("segunda carga: %v", err)
	}
	// cargado: no vuelve a llamar a load
	if _, err := ks.Active(); err != nil {
		t.Fatal(err)
	}
	if calls != 2 {
		t.Fatalf("load llamado %d veces", calls)
	}
}

func TestKeystore_ConcurrentFirstLoad(t *testing.T) {
	t.Parallel()
	priv := testRSAKey(t)
	var calls int32
	release := make(chan struct{})
	ks := NewKeystore(func() (*KeySet, error) {
		atomic.AddInt32(&calls, 1)
		<-release // retiene la carga hasta que todos los goroutines llegaron
		return &KeySet{Priv: priv, Pub: &priv.PublicKey, KID: "k", Alg: "RS256"}, nil
	})

	const n = 16
	var wg sync.WaitGroup
	errs := make(chan error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := ks.Active()
			errs <- err
		}()
	}
	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()
	close(errs)

	for err := range errs {
		if err != nil {
			t.Fatal(err)
		}
	}
	// N primeros requests simultáneos convergen en UNA sola carga
	if got := atomic.LoadInt32(&calls); got != 1 {
		t.Fatalf("load llamado %d veces, esperaba 1", got)
	}
}

func TestParseRSAKeyPair_RoundTrip(t *testing.T) {
	t.Parallel()
	priv := testRSAKey(t)

	privDER, err := x509.MarshalPKCS8PrivateKey(priv)
	if err != nil {
		t.Fatal(err)
	}
	pubDER, err := x509.MarshalPKIXPublicKey(&priv.PublicKey)
	if err != nil {
		t.Fatal(err)
	}
	privB64 := base64.StdEncoding.EncodeToString(pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: privDER}))
	pubB64 := base64.StdEncoding.EncodeToString(pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: pubDER}))

	ks, err := ParseRSAKeyPair(privB64, pubB64, "auth-test", "")
	if err != nil {
		t.Fatalf("ParseRSAKeyPair: %v", err)
	}
	if ks.KID != "auth-test" || ks.Alg != "RS256" {
		t.Fatalf("kid/alg: %+v", ks)
	}
	if ks.Pub.N.Cmp(priv.PublicKey.N) != 0 {
		t.Fatal("módulo público no coincide")
	}
}

func TestParseRSAKeyPair_Invalid(t *testing.T) {
	t.Parallel()
	if _, err := ParseRSAKeyPair("", "", "kid", "RS256"); !errors.Is(err, ErrKeyLoad) {
		t.Fatalf("err = %v", err)
	}
	if _, err := ParseRSAKeyPair("!!!not-base64", "x", "kid", "RS256"); !errors.Is(err, ErrKeyLoad) {
		t.Fatalf("err = %v", err)
	}
	if _, err := ParseRSAKeyPair("x", "x", "", "RS256"); !errors.Is(err, ErrKeyLoad) {
		t.Fatalf("kid vacío: err = %v", err)
	}
}

func TestJWKS_ActiveKey(t *testing.T) {
	t.Parallel()
	ks := testKeystore(t, "kid-jwks")
	set, err := ks.PublicKeySet()
	if err != nil {
		t.Fatal(err)
	}
	if len(set.Keys) != 1 {
		t.Fatalf("keys = %d", len(set.Keys))
	}
	k := set.Keys[0]
	if k.Kty != "RSA" || k.Use != "sig" || k.Alg != "RS256" || k.Kid != "kid-jwks" {
		t.Fatalf("jwk: %+v", k)
	}

	n, err := base64.RawURLEncoding.DecodeString(k.N)
	if err != nil {
		t.Fatalf("n no es base64url: %v", err)
	}
	priv := testRSAKey(t)
	if len(n) != len(priv.PublicKey.N.Bytes()) {
		t.Fatal("módulo serializado no coincide")
	}
	if _, err := base64.RawURLEncoding.DecodeString(k.E); err != nil {
		t.Fatalf("e no es base64url: %v", err)
	}
}
