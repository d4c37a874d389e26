//go:build pkcs11

package keystore

import (
	"fmt"
	"strings"
	"sync"

	"github.com/ThalesGroup/crypto11"

	"github.com/sirosfoundation/go-ebics"
	"github.com/sirosfoundation/go-ebics/pkg/keyring"
)

// PKCS11Config holds configuration for the PKCS#11 provider.
type PKCS11Config struct {
	// ModulePath is the path to the PKCS#11 library (.so/.dylib/.dll)
	ModulePath string

	// SlotID is the slot number to use (optional if SlotLabel is provided)
	SlotID *uint

	// SlotLabel is the token label to search for (optional if SlotID is provided)
	SlotLabel string

	// PIN is the user PIN for authentication
	PIN string

	// KeyLabelPattern names the per-role key objects on the token.
	// Use {role} as placeholder, e.g. "ebics-user1-{role}" resolves
	// to ebics-user1-a, ebics-user1-e, ebics-user1-x.
	KeyLabelPattern string
}

// PKCS11Provider hands out the subscriber's private keys from an HSM
// or smart card. The key material never leaves the token; signatures
// and decryptions happen on-device.
//
// Bank public keys are not token objects, so the provider does not
// implement Manager. Pair it with a FileManager or MongoManager that
// persists the bank half of the ring.
type PKCS11Provider struct {
	ctx             *crypto11.Context
	keyLabelPattern string
	mu              sync.RWMutex
	keys            map[keyring.Role]keyring.PrivateKey
}

// NewPKCS11Provider opens the token.
func NewPKCS11Provider(cfg *PKCS11Config) (*PKCS11Provider, error) {
	config := &crypto11.Config{
		Path: cfg.ModulePath,
		Pin:  cfg.PIN,
	}
	if cfg.SlotID != nil {
		slotID := int(*cfg.SlotID)
		config.SlotNumber = &slotID
	}
	if cfg.SlotLabel != "" {
		config.TokenLabel = cfg.SlotLabel
	}

	ctx, err := crypto11.Configure(config)
	if err != nil {
		return nil, fmt.Errorf("configuring PKCS#11: %w", err)
	}

	pattern := cfg.KeyLabelPattern
	if pattern == "" {
		pattern = "ebics-{role}"
	}

	return &PKCS11Provider{
		ctx:             ctx,
		keyLabelPattern: pattern,
		keys:            make(map[keyring.Role]keyring.PrivateKey),
	}, nil
}

// UserSignature returns the signature entry for one role, backed by
// the on-token key.
func (p *PKCS11Provider) UserSignature(role keyring.Role, version string) (*keyring.Signature, error) {
	key, err := p.privateKey(role)
	if err != nil {
		return nil, err
	}
	return keyring.NewUserSignature(role, version, key)
}

// LoadUserKeys builds a key ring holding the three on-token user
// keys. Bank keys must be installed separately.
func (p *PKCS11Provider) LoadUserKeys() (*keyring.KeyRing, error) {
	ring := keyring.New()
	for _, entry := range []struct {
		role    keyring.Role
		version string
	}{
		{keyring.RoleSignature, keyring.DefaultVersionA},
		{keyring.RoleEncryption, keyring.DefaultVersionE},
		{keyring.RoleAuthentication, keyring.DefaultVersionX},
	} {
		sig, err := p.UserSignature(entry.role, entry.version)
		if err != nil {
			return nil, err
		}
		if err := ring.SetUserSignature(sig); err != nil {
			return nil, err
		}
	}
	return ring, nil
}

// Close releases the token session.
func (p *PKCS11Provider) Close() error {
	return p.ctx.Close()
}

func (p *PKCS11Provider) privateKey(role keyring.Role) (keyring.PrivateKey, error) {
	p.mu.RLock()
	if key, ok := p.keys[role]; ok {
		p.mu.RUnlock()
		return key, nil
	}
	p.mu.RUnlock()

	label := p.keyLabel(role)
	pair, err := p.ctx.FindKeyPair(nil, []byte(label))
	if err != nil {
		return nil, fmt.Errorf("finding key pair %q: %w", label, err)
	}
	if pair == nil {
		return nil, fmt.Errorf("%w: no token object labelled %q", ebics.ErrKeyNotFound, label)
	}
	key, ok := pair.(keyring.PrivateKey)
	if !ok {
		return nil, fmt.Errorf("%w: token key %q cannot decrypt", ebics.ErrConfiguration, label)
	}

	p.mu.Lock()
	p.keys[role] = key
	p.mu.Unlock()
	return key, nil
}

func (p *PKCS11Provider) keyLabel(role keyring.Role) string {
	return strings.Replace(p.keyLabelPattern, "{role}", strings.ToLower(string(role)), -1)
}
