package request

import (
	"crypto/rand"
	"crypto/rsa"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sirosfoundation/go-ebics"
	"github.com/sirosfoundation/go-ebics/pkg/keyring"
)

// Key generation dominates test runtime, so the fixture keys are
// generated once and shared. Tests must not mutate them.
var (
	fixtureOnce sync.Once
	fixtureKeys struct {
		userA, userE, userX *rsa.PrivateKey
		bankE, bankX        *rsa.PrivateKey
	}
	fixtureErr error
)

func testKeys(t *testing.T) *keyring.KeyRing {
	t.Helper()
	fixtureOnce.Do(func() {
		for _, slot := range []**rsa.PrivateKey{
			&fixtureKeys.userA, &fixtureKeys.userE, &fixtureKeys.userX,
			&fixtureKeys.bankE, &fixtureKeys.bankX,
		} {
			*slot, fixtureErr = rsa.GenerateKey(rand.Reader, 2048)
			if fixtureErr != nil {
				return
			}
		}
	})
	require.NoError(t, fixtureErr)

	ring := keyring.New()
	for _, item := range []struct {
		role keyring.Role
		key  *rsa.PrivateKey
	}{
		{keyring.RoleSignature, fixtureKeys.userA},
		{keyring.RoleEncryption, fixtureKeys.userE},
		{keyring.RoleAuthentication, fixtureKeys.userX},
	} {
		sig, err := keyring.NewUserSignature(item.role, defaultKeyVersion(item.role), item.key)
		require.NoError(t, err)
		require.NoError(t, ring.SetUserSignature(sig))
	}
	require.NoError(t, ring.InstallBankKeys(
		keyring.NewBankSignature(keyring.RoleEncryption, keyring.DefaultVersionE, &fixtureKeys.bankE.PublicKey),
		keyring.NewBankSignature(keyring.RoleAuthentication, keyring.DefaultVersionX, &fixtureKeys.bankX.PublicKey),
	))
	return ring
}

func defaultKeyVersion(role keyring.Role) string {
	switch role {
	case keyring.RoleSignature:
		return keyring.DefaultVersionA
	case keyring.RoleEncryption:
		return keyring.DefaultVersionE
	default:
		return keyring.DefaultVersionX
	}
}

func testBank(v ebics.Version) ebics.Bank {
	return ebics.Bank{HostID: "MYHOST", URL: "https://bank.example.com/ebics", Version: v}
}

func testUser() ebics.User {
	return ebics.User{PartnerID: "PARTNER1", UserID: "USER1"}
}

func testFactory(t *testing.T, v ebics.Version) *Factory {
	t.Helper()
	f, err := NewFactory(testBank(v), testUser(), testKeys(t))
	require.NoError(t, err)
	return f
}
