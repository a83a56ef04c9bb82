package jarsign

import (
	"crypto/rsa"
	"crypto/x509"
	"fmt"
	"time"

	pkcs12 "software.sslmate.com/src/go-pkcs12"
)

// SigningIdentity is a certificate plus the RSA private key matching it.
type SigningIdentity struct {
	Certificate *x509.Certificate
	PrivateKey  *rsa.PrivateKey
}

// LoadSigningIdentity decodes a PKCS#12 container into a signing identity.
// Only RSA keys are accepted; the signature scheme is RSA/PKCS#7 throughout.
func LoadSigningIdentity(p12Data []byte, password string) (*SigningIdentity, error) {
	key, cert, _, err := pkcs12.DecodeChain(p12Data, password)
	if err != nil {
		return nil, fmt.Errorf("failed to decode P12: %w", err)
	}
	rsaKey, ok := key.(*rsa.PrivateKey)
	if !ok {
		return nil, fmt.Errorf("unsupported private key type %T, need RSA", key)
	}
	return &SigningIdentity{Certificate: cert, PrivateKey: rsaKey}, nil
}

// EntryTimestamp returns the fixed modification time stamped onto every
// output entry: the certificate's not-before time plus one hour. Re-signing
// the same content with the same certificate produces byte-identical output,
// which keeps incremental update diffs small.
func (id *SigningIdentity) EntryTimestamp() time.Time {
	return id.Certificate.NotBefore.Add(time.Hour)
}
