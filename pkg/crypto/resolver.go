package crypto

import (
	"crypto/sha256"
	"crypto/x509"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/sirosfoundation/go-ebics"
	"github.com/sirosfoundation/go-ebics/pkg/keyring"
)

// DigestResolver computes the digest of a public key or certificate
// used for BankPubKeyDigest header fields and initialization letter
// hashes. The two protocol generations use different canonical
// encodings, so the resolver is selected once from the bank's
// protocol version.
type DigestResolver interface {
	// Digest returns the SHA-256 digest of the signature's key
	// material in the generation's canonical encoding. Pure and
	// deterministic.
	Digest(sig *keyring.Signature) ([]byte, error)
}

// NewDigestResolver selects the resolver for a protocol version.
func NewDigestResolver(v ebics.Version) (DigestResolver, error) {
	gen, err := v.Generation()
	if err != nil {
		return nil, err
	}
	if gen == ebics.Gen30 {
		return resolver30{}, nil
	}
	return resolver25{}, nil
}

// resolver25 hashes the generation 2.5 text encoding: lowercase hex
// of the exponent and the modulus, leading zero digits stripped,
// joined by a single space.
type resolver25 struct{}

func (resolver25) Digest(sig *keyring.Signature) ([]byte, error) {
	if sig == nil || sig.PublicKey == nil {
		return nil, fmt.Errorf("%w: no public key to digest", ebics.ErrKeyNotFound)
	}
	exponent := strings.TrimLeft(fmt.Sprintf("%x", sig.PublicKey.E), "0")
	modulus := strings.TrimLeft(hex.EncodeToString(sig.PublicKey.N.Bytes()), "0")
	sum := sha256.Sum256([]byte(exponent + " " + modulus))
	return sum[:], nil
}

// resolver30 hashes the generation 3.0 binary encoding: the DER bytes
// of the certificate when one is stored, otherwise the PKIX encoding
// of the public key.
type resolver30 struct{}

func (resolver30) Digest(sig *keyring.Signature) ([]byte, error) {
	if sig == nil || sig.PublicKey == nil {
		return nil, fmt.Errorf("%w: no public key to digest", ebics.ErrKeyNotFound)
	}
	if sig.Certificate != nil {
		sum := sha256.Sum256(sig.Certificate.Raw)
		return sum[:], nil
	}
	der, err := x509.MarshalPKIXPublicKey(sig.PublicKey)
	if err != nil {
		return nil, fmt.Errorf("%w: encoding public key: %v", ebics.ErrConfiguration, err)
	}
	sum := sha256.Sum256(der)
	return sum[:], nil
}
