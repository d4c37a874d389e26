package keystore

import (
	"context"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"golang.org/x/crypto/pbkdf2"

	"github.com/sirosfoundation/go-ebics"
	"github.com/sirosfoundation/go-ebics/pkg/keyring"
)

const (
	saltSize       = 16
	pbkdf2Rounds   = 600000
	derivedKeySize = 32 // AES-256
)

// sealedFile is the on-disk envelope around the encrypted key ring.
type sealedFile struct {
	Salt       []byte `json:"salt"`
	Nonce      []byte `json:"nonce"`
	Ciphertext []byte `json:"ciphertext"`
}

// FileManager stores the key ring in a single file, sealed with a
// passphrase-derived AES-256-GCM key. Suitable for single-host
// deployments and development.
type FileManager struct {
	path       string
	passphrase []byte
	mu         sync.Mutex
}

// NewFileManager creates a file-backed manager. The file does not
// need to exist yet; Save creates it with 0600 permissions.
func NewFileManager(path string, passphrase []byte) (*FileManager, error) {
	if path == "" {
		return nil, fmt.Errorf("%w: keystore path is empty", ebics.ErrConfiguration)
	}
	if len(passphrase) == 0 {
		return nil, fmt.Errorf("%w: keystore passphrase is empty", ebics.ErrConfiguration)
	}
	return &FileManager{path: path, passphrase: passphrase}, nil
}

// Load restores the key ring from disk.
func (m *FileManager) Load(ctx context.Context) (*keyring.KeyRing, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	raw, err := os.ReadFile(m.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("reading keystore file: %w", err)
	}

	var sealed sealedFile
	if err := json.Unmarshal(raw, &sealed); err != nil {
		return nil, fmt.Errorf("%w: corrupt keystore file: %s", ebics.ErrConfiguration, err)
	}
	plain, err := open(m.passphrase, &sealed)
	if err != nil {
		return nil, err
	}
	return unmarshalKeyRing(plain)
}

// Save seals the key ring and writes it atomically.
func (m *FileManager) Save(ctx context.Context, ring *keyring.KeyRing) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	plain, err := marshalKeyRing(ring)
	if err != nil {
		return err
	}
	sealed, err := seal(m.passphrase, plain)
	if err != nil {
		return err
	}
	raw, err := json.Marshal(sealed)
	if err != nil {
		return fmt.Errorf("encoding keystore file: %w", err)
	}

	// Write-then-rename so a crash never leaves a half-written store.
	tmp := m.path + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o600); err != nil {
		return fmt.Errorf("writing keystore file: %w", err)
	}
	if err := os.Rename(tmp, m.path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("replacing keystore file: %w", err)
	}
	return nil
}

// Path returns the backing file location.
func (m *FileManager) Path() string { return filepath.Clean(m.path) }

func seal(passphrase, plain []byte) (*sealedFile, error) {
	salt := make([]byte, saltSize)
	if _, err := rand.Read(salt); err != nil {
		return nil, fmt.Errorf("generating salt: %w", err)
	}
	gcm, err := newGCM(passphrase, salt)
	if err != nil {
		return nil, err
	}
	nonce := make([]byte, gcm.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return nil, fmt.Errorf("generating nonce: %w", err)
	}
	return &sealedFile{
		Salt:       salt,
		Nonce:      nonce,
		Ciphertext: gcm.Seal(nil, nonce, plain, nil),
	}, nil
}

func open(passphrase []byte, sealed *sealedFile) ([]byte, error) {
	gcm, err := newGCM(passphrase, sealed.Salt)
	if err != nil {
		return nil, err
	}
	if len(sealed.Nonce) != gcm.NonceSize() {
		return nil, fmt.Errorf("%w: corrupt keystore nonce", ebics.ErrConfiguration)
	}
	plain, err := gcm.Open(nil, sealed.Nonce, sealed.Ciphertext, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: wrong passphrase or corrupt keystore", ebics.ErrDecryption)
	}
	return plain, nil
}

func newGCM(passphrase, salt []byte) (cipher.AEAD, error) {
	key := pbkdf2.Key(passphrase, salt, pbkdf2Rounds, derivedKeySize, sha256.New)
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("initializing cipher: %w", err)
	}
	return cipher.NewGCM(block)
}
