package keyring

import (
	"crypto"
	"crypto/rsa"
	"crypto/x509"
	"fmt"

	"github.com/sirosfoundation/go-ebics"
)

// Role is an EBICS key role.
type Role string

const (
	// RoleSignature (A) signs upload order data.
	RoleSignature Role = "A"
	// RoleEncryption (E) wraps and unwraps transaction keys.
	RoleEncryption Role = "E"
	// RoleAuthentication (X) signs the request envelope.
	RoleAuthentication Role = "X"
)

// Default signature versions per role, matching what current banks
// accept for generation 2.5 and 3.0 hosts alike.
const (
	DefaultVersionA = "A006"
	DefaultVersionE = "E002"
	DefaultVersionX = "X002"
)

// PrivateKey is the private half of a user signature. *rsa.PrivateKey
// satisfies it, as do PKCS#11 token handles, so HSM-held keys plug in
// without the signing path knowing.
type PrivateKey interface {
	crypto.Signer
	crypto.Decrypter
}

// Signature is one key slot: a role, a version tag and key material.
// Bank-side signatures carry only the public key (and certificate in
// certified mode); user-side signatures additionally carry the
// private key when signing or decryption is required.
type Signature struct {
	Role    Role
	Version string

	PublicKey   *rsa.PublicKey
	Key         PrivateKey        // nil for bank signatures
	Certificate *x509.Certificate // nil in raw key mode
}

// NewUserSignature builds a user-side signature from a private key.
func NewUserSignature(role Role, version string, key PrivateKey) (*Signature, error) {
	pub, ok := key.Public().(*rsa.PublicKey)
	if !ok {
		return nil, fmt.Errorf("%w: role %s key is not RSA", ebics.ErrConfiguration, role)
	}
	return &Signature{Role: role, Version: version, PublicKey: pub, Key: key}, nil
}

// NewBankSignature builds a bank-side signature from a public key.
func NewBankSignature(role Role, version string, pub *rsa.PublicKey) *Signature {
	return &Signature{Role: role, Version: version, PublicKey: pub}
}

// WithCertificate attaches an X.509 certificate to the signature. The
// certificate's public key replaces the stored one so the two cannot
// drift apart.
func (s *Signature) WithCertificate(cert *x509.Certificate) (*Signature, error) {
	pub, ok := cert.PublicKey.(*rsa.PublicKey)
	if !ok {
		return nil, fmt.Errorf("%w: certificate does not contain an RSA key", ebics.ErrConfiguration)
	}
	s.Certificate = cert
	s.PublicKey = pub
	return s, nil
}
