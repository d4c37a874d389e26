package keyring

import (
	"fmt"

	"github.com/sirosfoundation/go-ebics"
)

// KeyRing owns the six key slots of one subscriber relationship.
// The bank has no A role key: order data signatures are only ever
// produced by the client.
type KeyRing struct {
	userA *Signature
	userE *Signature
	userX *Signature
	bankE *Signature
	bankX *Signature
}

// New returns an empty keyring.
func New() *KeyRing {
	return &KeyRing{}
}

func missing(owner string, role Role) error {
	return fmt.Errorf("%w: %s signature %s", ebics.ErrKeyNotFound, owner, role)
}

// UserSignatureA returns the user's order signature key.
func (k *KeyRing) UserSignatureA() (*Signature, error) {
	if k.userA == nil {
		return nil, missing("user", RoleSignature)
	}
	return k.userA, nil
}

// UserSignatureE returns the user's encryption key.
func (k *KeyRing) UserSignatureE() (*Signature, error) {
	if k.userE == nil {
		return nil, missing("user", RoleEncryption)
	}
	return k.userE, nil
}

// UserSignatureX returns the user's authentication key.
func (k *KeyRing) UserSignatureX() (*Signature, error) {
	if k.userX == nil {
		return nil, missing("user", RoleAuthentication)
	}
	return k.userX, nil
}

// BankSignatureE returns the bank's encryption key.
func (k *KeyRing) BankSignatureE() (*Signature, error) {
	if k.bankE == nil {
		return nil, missing("bank", RoleEncryption)
	}
	return k.bankE, nil
}

// BankSignatureX returns the bank's authentication key.
func (k *KeyRing) BankSignatureX() (*Signature, error) {
	if k.bankX == nil {
		return nil, missing("bank", RoleAuthentication)
	}
	return k.bankX, nil
}

// HasUserKeys reports whether all three user slots are populated.
func (k *KeyRing) HasUserKeys() bool {
	return k.userA != nil && k.userE != nil && k.userX != nil
}

// HasBankKeys reports whether both bank slots are populated.
func (k *KeyRing) HasBankKeys() bool {
	return k.bankE != nil && k.bankX != nil
}

// SetUserSignature stores a user signature in the slot matching its
// role.
func (k *KeyRing) SetUserSignature(sig *Signature) error {
	if sig == nil || sig.PublicKey == nil {
		return fmt.Errorf("%w: empty user signature", ebics.ErrConfiguration)
	}
	switch sig.Role {
	case RoleSignature:
		k.userA = sig
	case RoleEncryption:
		k.userE = sig
	case RoleAuthentication:
		k.userX = sig
	default:
		return fmt.Errorf("%w: unknown role %q", ebics.ErrConfiguration, string(sig.Role))
	}
	return nil
}

// InstallBankKeys replaces the bank E and X slots with the pair
// retrieved from an HPB response. Both must be present: installing
// only one of the two would leave the ring in a state where requests
// are authenticated against one key generation and encrypted for
// another.
func (k *KeyRing) InstallBankKeys(e, x *Signature) error {
	if e == nil || e.PublicKey == nil || x == nil || x.PublicKey == nil {
		return fmt.Errorf("%w: bank keys must be replaced as a pair", ebics.ErrConfiguration)
	}
	if e.Role != RoleEncryption || x.Role != RoleAuthentication {
		return fmt.Errorf("%w: bank key roles mismatched (%s/%s)", ebics.ErrConfiguration, e.Role, x.Role)
	}
	k.bankE = e
	k.bankX = x
	return nil
}
