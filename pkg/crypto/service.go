package crypto

import (
	"bytes"
	stdcrypto "crypto"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/sirosfoundation/go-ebics"
	"github.com/sirosfoundation/go-ebics/pkg/keyring"
)

// TransactionKeySize is the AES-128 key length used for order data
// encryption (E002).
const TransactionKeySize = 16

// KeyWrapScheme selects the RSA padding used to wrap transaction keys.
type KeyWrapScheme int

const (
	// WrapPKCS1v15 is the E002 scheme of generation 2.5 hosts.
	WrapPKCS1v15 KeyWrapScheme = iota
	// WrapOAEP is accepted by generation 3.0 hosts that advertise it.
	WrapOAEP
)

// Service bundles the protocol's cryptographic operations. The zero
// value is ready to use.
type Service struct{}

// GenerateKeyPair creates a new RSA key of the given bit length.
func (Service) GenerateKeyPair(bits int) (*rsa.PrivateKey, error) {
	if bits < 1024 {
		return nil, fmt.Errorf("%w: %d bits below minimum", ebics.ErrKeyGeneration, bits)
	}
	key, err := rsa.GenerateKey(rand.Reader, bits)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ebics.ErrKeyGeneration, err)
	}
	return key, nil
}

// Sign computes the signature of data under the scheme selected by
// the signature version. The data is digested with SHA-256; A006 uses
// RSASSA-PSS, A005 and X002 use RSASSA-PKCS1-v1.5.
func (Service) Sign(key stdcrypto.Signer, version string, data []byte) ([]byte, error) {
	if key == nil {
		return nil, fmt.Errorf("%w: no private key", ebics.ErrSigning)
	}
	digest := sha256.Sum256(data)

	var (
		sig []byte
		err error
	)
	switch version {
	case "A005", "X002", "E002":
		sig, err = key.Sign(rand.Reader, digest[:], stdcrypto.SHA256)
	case "A006":
		sig, err = key.Sign(rand.Reader, digest[:], &rsa.PSSOptions{
			SaltLength: rsa.PSSSaltLengthEqualsHash,
			Hash:       stdcrypto.SHA256,
		})
	default:
		return nil, fmt.Errorf("%w: signature version %q", ebics.ErrConfiguration, version)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ebics.ErrSigning, version, err)
	}
	return sig, nil
}

// Verify checks a signature produced by Sign with the matching
// version.
func (Service) Verify(pub *rsa.PublicKey, version string, data, sig []byte) error {
	if pub == nil {
		return fmt.Errorf("%w: no public key", ebics.ErrVerification)
	}
	digest := sha256.Sum256(data)

	var err error
	switch version {
	case "A005", "X002", "E002":
		err = rsa.VerifyPKCS1v15(pub, stdcrypto.SHA256, digest[:], sig)
	case "A006":
		err = rsa.VerifyPSS(pub, stdcrypto.SHA256, digest[:], sig, &rsa.PSSOptions{
			SaltLength: rsa.PSSSaltLengthEqualsHash,
			Hash:       stdcrypto.SHA256,
		})
	default:
		return fmt.Errorf("%w: signature version %q", ebics.ErrConfiguration, version)
	}
	if err != nil {
		return fmt.Errorf("%w: %s", ebics.ErrVerification, version)
	}
	return nil
}

// GenerateTransactionKey creates a fresh AES-128 transaction key.
func (Service) GenerateTransactionKey() ([]byte, error) {
	key := make([]byte, TransactionKeySize)
	if _, err := rand.Read(key); err != nil {
		return nil, fmt.Errorf("%w: %v", ebics.ErrKeyGeneration, err)
	}
	return key, nil
}

// GenerateNonce returns the 32 character uppercase hex nonce carried
// in secured request headers.
func (Service) GenerateNonce() (string, error) {
	raw := make([]byte, 16)
	if _, err := rand.Read(raw); err != nil {
		return "", fmt.Errorf("%w: %v", ebics.ErrKeyGeneration, err)
	}
	return strings.ToUpper(hex.EncodeToString(raw)), nil
}

// WrapTransactionKey encrypts a transaction key with the
// counterparty's encryption role public key.
func (Service) WrapTransactionKey(pub *rsa.PublicKey, key []byte, scheme KeyWrapScheme) ([]byte, error) {
	if pub == nil {
		return nil, fmt.Errorf("%w: no encryption key", ebics.ErrKeyNotFound)
	}
	switch scheme {
	case WrapOAEP:
		out, err := rsa.EncryptOAEP(sha256.New(), rand.Reader, pub, key, nil)
		if err != nil {
			return nil, fmt.Errorf("%w: OAEP wrap: %v", ebics.ErrSigning, err)
		}
		return out, nil
	default:
		out, err := rsa.EncryptPKCS1v15(rand.Reader, pub, key)
		if err != nil {
			return nil, fmt.Errorf("%w: PKCS1v15 wrap: %v", ebics.ErrSigning, err)
		}
		return out, nil
	}
}

// UnwrapTransactionKey decrypts a wrapped transaction key with the
// user's encryption role private key.
func (Service) UnwrapTransactionKey(key keyring.PrivateKey, wrapped []byte, scheme KeyWrapScheme) ([]byte, error) {
	if key == nil {
		return nil, fmt.Errorf("%w: no decryption key", ebics.ErrKeyNotFound)
	}
	var opts stdcrypto.DecrypterOpts
	if scheme == WrapOAEP {
		opts = &rsa.OAEPOptions{Hash: stdcrypto.SHA256}
	}
	out, err := key.Decrypt(rand.Reader, wrapped, opts)
	if err != nil {
		return nil, fmt.Errorf("%w: transaction key unwrap: %v", ebics.ErrDecryption, err)
	}
	return out, nil
}

// EncryptOrderData encrypts order data or signature blocks with
// AES-128-CBC. EBICS E002 fixes the IV to all zero bytes; uniqueness
// comes from the per-transaction key. Input is padded with PKCS#7.
func (Service) EncryptOrderData(key, data []byte) ([]byte, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ebics.ErrConfiguration, err)
	}
	padded := pkcs7Pad(data, block.BlockSize())
	out := make([]byte, len(padded))
	iv := make([]byte, block.BlockSize())
	cipher.NewCBCEncrypter(block, iv).CryptBlocks(out, padded)
	return out, nil
}

// DecryptOrderData reverses EncryptOrderData.
func (Service) DecryptOrderData(key, data []byte) ([]byte, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ebics.ErrConfiguration, err)
	}
	if len(data) == 0 || len(data)%block.BlockSize() != 0 {
		return nil, fmt.Errorf("%w: ciphertext length %d not a block multiple", ebics.ErrDecryption, len(data))
	}
	out := make([]byte, len(data))
	iv := make([]byte, block.BlockSize())
	cipher.NewCBCDecrypter(block, iv).CryptBlocks(out, data)
	return pkcs7Unpad(out, block.BlockSize())
}

// Digest returns the SHA-256 digest of data.
func (Service) Digest(data []byte) []byte {
	sum := sha256.Sum256(data)
	return sum[:]
}

func pkcs7Pad(data []byte, blockSize int) []byte {
	n := blockSize - len(data)%blockSize
	return append(append([]byte{}, data...), bytes.Repeat([]byte{byte(n)}, n)...)
}

func pkcs7Unpad(data []byte, blockSize int) ([]byte, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty plaintext", ebics.ErrDecryption)
	}
	n := int(data[len(data)-1])
	if n == 0 || n > blockSize || n > len(data) {
		return nil, fmt.Errorf("%w: bad padding", ebics.ErrDecryption)
	}
	for _, b := range data[len(data)-n:] {
		if int(b) != n {
			return nil, fmt.Errorf("%w: bad padding", ebics.ErrDecryption)
		}
	}
	return data[:len(data)-n], nil
}
