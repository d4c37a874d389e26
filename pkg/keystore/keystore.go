package keystore

import (
	"context"
	"crypto/rsa"
	"crypto/x509"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"

	"github.com/sirosfoundation/go-ebics"
	"github.com/sirosfoundation/go-ebics/pkg/keyring"
)

// ErrNotFound is returned when no key ring has been stored yet for
// the subscriber.
var ErrNotFound = errors.New("keystore: no stored key ring")

// Manager loads and saves a subscriber's key ring.
//
// Implementations must be safe for concurrent use.
type Manager interface {
	// Load restores the stored key ring. It returns ErrNotFound when
	// nothing has been saved yet.
	Load(ctx context.Context) (*keyring.KeyRing, error)

	// Save persists the key ring, replacing any previous state.
	Save(ctx context.Context, ring *keyring.KeyRing) error
}

// storedKey is the portable form of one signature entry.
type storedKey struct {
	Version string `json:"version"`
	// Key is the PKCS#1 DER private key, present for user keys only.
	Key []byte `json:"key,omitempty"`
	// Modulus and Exponent describe bank public keys.
	Modulus  []byte `json:"modulus,omitempty"`
	Exponent int    `json:"exponent,omitempty"`
	// Certificate is the DER certificate, if one is attached.
	Certificate []byte `json:"certificate,omitempty"`
}

type storedRing struct {
	UserA *storedKey `json:"user_a,omitempty"`
	UserE *storedKey `json:"user_e,omitempty"`
	UserX *storedKey `json:"user_x,omitempty"`
	BankE *storedKey `json:"bank_e,omitempty"`
	BankX *storedKey `json:"bank_x,omitempty"`
}

// marshalKeyRing serializes a key ring to JSON. Only software keys
// can be serialized; keys held on a token have no exportable private
// material.
func marshalKeyRing(ring *keyring.KeyRing) ([]byte, error) {
	var stored storedRing

	user := []struct {
		slot **storedKey
		get  func() (*keyring.Signature, error)
	}{
		{&stored.UserA, ring.UserSignatureA},
		{&stored.UserE, ring.UserSignatureE},
		{&stored.UserX, ring.UserSignatureX},
	}
	for _, entry := range user {
		sig, err := entry.get()
		if err != nil {
			continue
		}
		key, ok := sig.Key.(*rsa.PrivateKey)
		if !ok {
			return nil, fmt.Errorf("%w: key is not exportable", ebics.ErrConfiguration)
		}
		sk := &storedKey{
			Version: sig.Version,
			Key:     x509.MarshalPKCS1PrivateKey(key),
		}
		if sig.Certificate != nil {
			sk.Certificate = sig.Certificate.Raw
		}
		*entry.slot = sk
	}

	bank := []struct {
		slot **storedKey
		get  func() (*keyring.Signature, error)
	}{
		{&stored.BankE, ring.BankSignatureE},
		{&stored.BankX, ring.BankSignatureX},
	}
	for _, entry := range bank {
		sig, err := entry.get()
		if err != nil {
			continue
		}
		*entry.slot = &storedKey{
			Version:  sig.Version,
			Modulus:  sig.PublicKey.N.Bytes(),
			Exponent: sig.PublicKey.E,
		}
	}

	return json.Marshal(&stored)
}

// unmarshalKeyRing rebuilds a key ring from its JSON form.
func unmarshalKeyRing(data []byte) (*keyring.KeyRing, error) {
	var stored storedRing
	if err := json.Unmarshal(data, &stored); err != nil {
		return nil, fmt.Errorf("%w: corrupt key ring: %s", ebics.ErrConfiguration, err)
	}

	ring := keyring.New()
	user := []struct {
		sk   *storedKey
		role keyring.Role
	}{
		{stored.UserA, keyring.RoleSignature},
		{stored.UserE, keyring.RoleEncryption},
		{stored.UserX, keyring.RoleAuthentication},
	}
	for _, entry := range user {
		if entry.sk == nil {
			continue
		}
		key, err := x509.ParsePKCS1PrivateKey(entry.sk.Key)
		if err != nil {
			return nil, fmt.Errorf("%w: corrupt %s key: %s", ebics.ErrConfiguration, entry.role, err)
		}
		sig, err := keyring.NewUserSignature(entry.role, entry.sk.Version, key)
		if err != nil {
			return nil, err
		}
		if len(entry.sk.Certificate) > 0 {
			cert, err := x509.ParseCertificate(entry.sk.Certificate)
			if err != nil {
				return nil, fmt.Errorf("%w: corrupt %s certificate: %s", ebics.ErrConfiguration, entry.role, err)
			}
			sig, err = sig.WithCertificate(cert)
			if err != nil {
				return nil, err
			}
		}
		if err := ring.SetUserSignature(sig); err != nil {
			return nil, err
		}
	}

	if stored.BankE != nil && stored.BankX != nil {
		e := keyring.NewBankSignature(keyring.RoleEncryption, stored.BankE.Version, bankPublicKey(stored.BankE))
		x := keyring.NewBankSignature(keyring.RoleAuthentication, stored.BankX.Version, bankPublicKey(stored.BankX))
		if err := ring.InstallBankKeys(e, x); err != nil {
			return nil, err
		}
	}

	return ring, nil
}

func bankPublicKey(sk *storedKey) *rsa.PublicKey {
	return &rsa.PublicKey{N: new(big.Int).SetBytes(sk.Modulus), E: sk.Exponent}
}
