package chip

import (
	"crypto"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"crypto/x509"
	"encoding/base64"
	"encoding/pem"
	"testing"
)

func testKeyPair(t *testing.T) (*rsa.PrivateKey, string) {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("generating test key: %v", err)
	}
	der, err := x509.MarshalPKIXPublicKey(&key.PublicKey)
	if err != nil {
		t.Fatalf("marshaling public key: %v", err)
	}
	pemBytes := pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: der})
	return key, string(pemBytes)
}

func signPayload(t *testing.T, key *rsa.PrivateKey, payload []byte) string {
	t.Helper()
	digest := sha256.Sum256(payload)
	sig, err := rsa.SignPKCS1v15(rand.Reader, key, crypto.SHA256, digest[:])
	if err != nil {
		t.Fatalf("signing payload: %v", err)
	}
	return base64.StdEncoding.EncodeToString(sig)
}

func TestVerifyWebhookSignature(t *testing.T) {
	key, pubPEM := testKeyPair(t)
	payload := []byte(`{"id":"pay_1","status":"paid"}`)
	validSig := signPayload(t, key, payload)

	if !VerifyWebhookSignature(payload, validSig, pubPEM) {
		t.Fatalf("expected valid signature to verify")
	}
	if VerifyWebhookSignature([]byte(`{"id":"pay_2"}`), validSig, pubPEM) {
		t.Fatalf("expected signature over different payload to fail")
	}
	if VerifyWebhookSignature(payload, "not-base64!!", pubPEM) {
		t.Fatalf("expected non-base64 signature to fail")
	}
	if VerifyWebhookSignature(payload, "", pubPEM) {
		t.Fatalf("expected missing signature to fail")
	}
	if VerifyWebhookSignature(nil, validSig, pubPEM) {
		t.Fatalf("expected empty payload to fail")
	}
	if VerifyWebhookSignature(payload, validSig, "") {
		t.Fatalf("expected missing public key to fail")
	}
	if VerifyWebhookSignature(payload, validSig, "-----BEGIN PUBLIC KEY-----\ngarbage\n-----END PUBLIC KEY-----") {
		t.Fatalf("expected broken PEM to fail")
	}
}

func TestParsePublicKeyPKCS1(t *testing.T) {
	key, _ := testKeyPair(t)
	der := x509.MarshalPKCS1PublicKey(&key.PublicKey)
	pemBytes := pem.EncodeToMemory(&pem.Block{Type: "RSA PUBLIC KEY", Bytes: der})

	pub, err := ParsePublicKey(string(pemBytes))
	if err != nil {
		t.Fatalf("expected PKCS#1 key to parse, got %v", err)
	}
	if pub.N.Cmp(key.PublicKey.N) != 0 {
		t.Fatalf("parsed key does not match original")
	}
}
