package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sirosfoundation/go-ebics"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "ebics.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad(t *testing.T) {
	t.Setenv("TEST_EBICS_PASSPHRASE", "s3cret")
	path := writeConfig(t, `
bank:
  hostId: EBIXHOST
  url: https://ebics.bank.example.com/ebicsweb
  version: H005
user:
  partnerId: PARTNER1
  userId: USER0001
keystore:
  mode: file
  file:
    path: /var/lib/ebics/keys.json
    passphrase: ${TEST_EBICS_PASSPHRASE}
transport:
  timeout: 10s
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "EBIXHOST", cfg.Bank.HostID)
	assert.Equal(t, "s3cret", cfg.Keystore.File.Passphrase)
	assert.Equal(t, 10*time.Second, cfg.Transport.Timeout)

	bank := cfg.EbicsBank()
	assert.Equal(t, ebics.H005, bank.Version)
	user := cfg.EbicsUser()
	assert.Equal(t, "PARTNER1", user.PartnerID)
}

func TestLoad_Defaults(t *testing.T) {
	path := writeConfig(t, `
bank:
  hostId: EBIXHOST
  url: https://ebics.bank.example.com/ebicsweb
user:
  partnerId: PARTNER1
  userId: USER0001
keystore:
  file:
    path: /tmp/keys.json
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, string(ebics.H004), cfg.Bank.Version)
	assert.Equal(t, "file", cfg.Keystore.Mode)
	assert.Equal(t, "ebics", cfg.Keystore.MongoDB.Database)
	assert.Equal(t, "ebics-{role}", cfg.Keystore.PKCS11.KeyLabelPattern)
	assert.Equal(t, 30*time.Second, cfg.Transport.Timeout)
}

func TestLoad_Validation(t *testing.T) {
	cases := []struct {
		name    string
		yaml    string
		wantErr string
	}{
		{
			name:    "missing host",
			yaml:    "bank:\n  url: https://x\nuser:\n  partnerId: P\n  userId: U\nkeystore:\n  file:\n    path: /tmp/k\n",
			wantErr: "bank.hostId",
		},
		{
			name:    "bad version",
			yaml:    "bank:\n  hostId: H\n  url: https://x\n  version: H002\nuser:\n  partnerId: P\n  userId: U\nkeystore:\n  file:\n    path: /tmp/k\n",
			wantErr: "bank.version",
		},
		{
			name:    "bad keystore mode",
			yaml:    "bank:\n  hostId: H\n  url: https://x\nuser:\n  partnerId: P\n  userId: U\nkeystore:\n  mode: vault\n",
			wantErr: "keystore.mode",
		},
		{
			name:    "mongodb without uri",
			yaml:    "bank:\n  hostId: H\n  url: https://x\nuser:\n  partnerId: P\n  userId: U\nkeystore:\n  mode: mongodb\n",
			wantErr: "keystore.mongodb.uri",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tc.yaml))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.wantErr)
		})
	}
}
