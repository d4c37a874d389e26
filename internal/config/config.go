// Package config handles configuration loading for the EBICS client
// tooling.
//
// Configuration is loaded from a YAML file with support for environment
// variable expansion (${VAR} or $VAR syntax). This allows sensitive values
// like keystore passphrases and database credentials to be injected at
// runtime.
//
// # Configuration Sections
//
//   - bank: host id, endpoint URL and protocol version
//   - user: partner and subscriber ids
//   - keystore: key ring persistence (file, mongodb, or pkcs11)
//   - transport: HTTPS settings (timeout, minimum TLS version)
//   - product: client software identification sent in request headers
//
// # Example Configuration
//
//	bank:
//	  hostId: EBIXHOST
//	  url: https://ebics.bank.example.com/ebicsweb
//	  version: H004
//
//	user:
//	  partnerId: PARTNER1
//	  userId: USER0001
//
//	keystore:
//	  mode: file
//	  file:
//	    path: /var/lib/ebics/keys.json
//	    passphrase: ${EBICS_KEYS_PASSPHRASE}
//
// See [Load] for loading configuration from a file.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/sirosfoundation/go-ebics"
)

// Config is the root configuration structure
type Config struct {
	Bank      BankConfig      `yaml:"bank"`
	User      UserConfig      `yaml:"user"`
	Keystore  KeystoreConfig  `yaml:"keystore"`
	Transport TransportConfig `yaml:"transport"`
	Product   ProductConfig   `yaml:"product"`
}

// BankConfig identifies the bank host to talk to
type BankConfig struct {
	HostID  string `yaml:"hostId"`
	URL     string `yaml:"url"`
	Version string `yaml:"version"`
	// Certified selects the certificate-based key representation
	// (French market practice) over raw RSA key values.
	Certified bool `yaml:"certified"`
}

// UserConfig identifies the subscriber
type UserConfig struct {
	PartnerID string `yaml:"partnerId"`
	UserID    string `yaml:"userId"`
}

// KeystoreConfig holds key ring persistence settings
type KeystoreConfig struct {
	// Mode determines where the key ring lives
	// - "file": encrypted JSON file on disk
	// - "mongodb": encrypted document in a MongoDB collection
	// - "pkcs11": private keys on a PKCS#11 token, bank keys in a file
	Mode string `yaml:"mode"`

	File    FileKeystoreConfig  `yaml:"file"`
	MongoDB MongoKeystoreConfig `yaml:"mongodb"`
	PKCS11  PKCS11Config        `yaml:"pkcs11"`
}

// FileKeystoreConfig holds file-backed keystore settings
type FileKeystoreConfig struct {
	Path string `yaml:"path"`
	// Passphrase protects the key file (can be an env var reference
	// like ${EBICS_KEYS_PASSPHRASE})
	Passphrase string `yaml:"passphrase"`
}

// MongoKeystoreConfig holds MongoDB-backed keystore settings
type MongoKeystoreConfig struct {
	URI        string `yaml:"uri"`
	Database   string `yaml:"database"`
	Collection string `yaml:"collection"`
	Passphrase string `yaml:"passphrase"`
}

// PKCS11Config holds PKCS#11 HSM settings
type PKCS11Config struct {
	// Path to the PKCS#11 library (.so/.dylib/.dll)
	ModulePath string `yaml:"modulePath"`
	// Slot ID or label to use
	SlotID    uint   `yaml:"slotId"`
	SlotLabel string `yaml:"slotLabel"`
	// PIN for authentication (can be an env var reference like ${HSM_PIN})
	PIN string `yaml:"pin"`
	// Key labels for the user keys (pattern: ebics-{role})
	KeyLabelPattern string `yaml:"keyLabelPattern"`
	// Bank public keys cannot live on the token; they go to this file.
	BankKeyPath       string `yaml:"bankKeyPath"`
	BankKeyPassphrase string `yaml:"bankKeyPassphrase"`
}

// TransportConfig holds HTTPS client settings
type TransportConfig struct {
	Timeout       time.Duration `yaml:"timeout"`
	MinTLSVersion string        `yaml:"minTlsVersion"`
}

// ProductConfig identifies the client software in request headers
type ProductConfig struct {
	Name     string `yaml:"name"`
	Language string `yaml:"language"`
}

// Load reads configuration from a YAML file
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	// Expand environment variables
	expanded := os.ExpandEnv(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	cfg.applyDefaults()

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return &cfg, nil
}

// EbicsBank converts the bank section into the protocol type.
func (c *Config) EbicsBank() ebics.Bank {
	return ebics.Bank{
		HostID:    c.Bank.HostID,
		URL:       c.Bank.URL,
		Version:   ebics.Version(c.Bank.Version),
		Certified: c.Bank.Certified,
	}
}

// EbicsUser converts the user section into the protocol type.
func (c *Config) EbicsUser() ebics.User {
	return ebics.User{
		PartnerID: c.User.PartnerID,
		UserID:    c.User.UserID,
	}
}

func (c *Config) applyDefaults() {
	if c.Bank.Version == "" {
		c.Bank.Version = string(ebics.H004)
	}
	if c.Keystore.Mode == "" {
		c.Keystore.Mode = "file"
	}
	if c.Keystore.MongoDB.Database == "" {
		c.Keystore.MongoDB.Database = "ebics"
	}
	if c.Keystore.MongoDB.Collection == "" {
		c.Keystore.MongoDB.Collection = "keyrings"
	}
	if c.Keystore.PKCS11.KeyLabelPattern == "" {
		c.Keystore.PKCS11.KeyLabelPattern = "ebics-{role}"
	}
	if c.Transport.Timeout == 0 {
		c.Transport.Timeout = 30 * time.Second
	}
}

func (c *Config) validate() error {
	if c.Bank.HostID == "" {
		return fmt.Errorf("bank.hostId is required")
	}
	if c.Bank.URL == "" {
		return fmt.Errorf("bank.url is required")
	}
	if _, err := ebics.Version(c.Bank.Version).Generation(); err != nil {
		return fmt.Errorf("bank.version must be H003, H004 or H005, got '%s'", c.Bank.Version)
	}
	if c.User.PartnerID == "" || c.User.UserID == "" {
		return fmt.Errorf("user.partnerId and user.userId are required")
	}

	switch c.Keystore.Mode {
	case "file":
		if c.Keystore.File.Path == "" {
			return fmt.Errorf("keystore.file.path is required when mode is 'file'")
		}
	case "mongodb":
		if c.Keystore.MongoDB.URI == "" {
			return fmt.Errorf("keystore.mongodb.uri is required when mode is 'mongodb'")
		}
	case "pkcs11":
		if c.Keystore.PKCS11.ModulePath == "" {
			return fmt.Errorf("keystore.pkcs11.modulePath is required when mode is 'pkcs11'")
		}
	default:
		return fmt.Errorf("keystore.mode must be 'file', 'mongodb', or 'pkcs11', got '%s'", c.Keystore.Mode)
	}

	return nil
}
