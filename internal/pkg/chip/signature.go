package chip

import (
	"crypto"
	"crypto/rsa"
	"crypto/sha256"
	"crypto/x509"
	"encoding/base64"
	"encoding/pem"
	"log"
)

// VerifyWebhookSignature checks the X-Signature header CHIP sends with every
// webhook: a base64 RSA PKCS#1 v1.5 signature over the exact raw body bytes,
// verifiable with the account's PEM public key. Any missing precondition is
// treated as an invalid signature, not an error.
func VerifyWebhookSignature(payload []byte, signatureB64, publicKeyPEM string) bool {
	if len(payload) == 0 {
		log.Print("chip: webhook signature check skipped, empty payload")
		return false
	}
	if signatureB64 == "" {
		log.Print("chip: webhook signature check skipped, missing signature header")
		return false
	}
	if publicKeyPEM == "" {
		log.Print("chip: webhook signature check skipped, no public key configured")
		return false
	}

	sig, err := base64.StdEncoding.DecodeString(signatureB64)
	if err != nil {
		log.Printf("chip: webhook signature is not valid base64: %v", err)
		return false
	}

	pub, err := ParsePublicKey(publicKeyPEM)
	if err != nil {
		log.Printf("chip: webhook public key unusable: %v", err)
		return false
	}

	digest := sha256.Sum256(payload)
	return rsa.VerifyPKCS1v15(pub, crypto.SHA256, digest[:], sig) == nil
}

// ParsePublicKey decodes a PEM block into an RSA public key. Both PKIX
// ("PUBLIC KEY") and PKCS#1 ("RSA PUBLIC KEY") encodings are accepted since
// CHIP's dashboard has exported both over time.
func ParsePublicKey(publicKeyPEM string) (*rsa.PublicKey, error) {
	block, _ := pem.Decode([]byte(publicKeyPEM))
	if block == nil {
		return nil, ErrInvalidPublicKey
	}

	if pub, err := x509.ParsePKIXPublicKey(block.Bytes); err == nil {
		if rsaKey, ok := pub.(*rsa.PublicKey); ok {
			return rsaKey, nil
		}
		return nil, ErrInvalidPublicKey
	}

	rsaKey, err := x509.ParsePKCS1PublicKey(block.Bytes)
	if err != nil {
		return nil, ErrInvalidPublicKey
	}
	return rsaKey, nil
}
