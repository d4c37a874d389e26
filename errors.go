package ebics

import "errors"

// Error taxonomy shared across the module. Packages wrap these
// sentinels with fmt.Errorf("...: %w", ...) so callers can classify
// failures with errors.Is without depending on message text.
var (
	// ErrConfiguration marks an unsupported protocol version or a
	// request built from an incomplete context. Raised before any
	// cryptographic work.
	ErrConfiguration = errors.New("ebics: invalid configuration")

	// ErrKeyNotFound is returned when a key role required for an
	// operation is absent from the keyring. Operations never fall
	// back to a different key or version.
	ErrKeyNotFound = errors.New("ebics: key not found")

	// ErrKeyGeneration marks an RSA key generation failure.
	ErrKeyGeneration = errors.New("ebics: key generation failed")

	// ErrSigning marks a signature computation failure.
	ErrSigning = errors.New("ebics: signing failed")

	// ErrVerification is returned when a signature does not verify.
	// The signed material must be discarded, never partially trusted.
	ErrVerification = errors.New("ebics: signature verification failed")

	// ErrDecryption marks a transaction key unwrap or order data
	// decryption failure.
	ErrDecryption = errors.New("ebics: decryption failed")

	// ErrCanonicalization indicates a malformed XML tree. It must
	// never be swallowed: the authentication digest would not match.
	ErrCanonicalization = errors.New("ebics: canonicalization failed")

	// ErrInvalidRequest is raised by the transaction state machine
	// for out-of-sequence phase or segment transitions.
	ErrInvalidRequest = errors.New("ebics: invalid request")
)
