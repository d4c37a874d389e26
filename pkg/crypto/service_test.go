package crypto

import (
	"crypto/rand"
	"crypto/rsa"
	"regexp"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sirosfoundation/go-ebics"
)

var (
	testKeyOnce sync.Once
	testKey     *rsa.PrivateKey
	testKeyErr  error
)

func fixtureKey(t *testing.T) *rsa.PrivateKey {
	t.Helper()
	testKeyOnce.Do(func() {
		testKey, testKeyErr = rsa.GenerateKey(rand.Reader, 2048)
	})
	require.NoError(t, testKeyErr)
	return testKey
}

func TestGenerateKeyPair(t *testing.T) {
	var svc Service
	key, err := svc.GenerateKeyPair(2048)
	require.NoError(t, err)
	assert.Equal(t, 2048, key.N.BitLen())

	_, err = svc.GenerateKeyPair(512)
	assert.ErrorIs(t, err, ebics.ErrKeyGeneration)
}

func TestSignVerify_RoundTrip(t *testing.T) {
	var svc Service
	key := fixtureKey(t)
	data := []byte("order data to sign")

	for _, version := range []string{"A005", "A006", "X002"} {
		t.Run(version, func(t *testing.T) {
			sig, err := svc.Sign(key, version, data)
			require.NoError(t, err)
			require.NoError(t, svc.Verify(&key.PublicKey, version, data, sig))

			// A flipped byte must not verify.
			sig[0] ^= 0xff
			assert.ErrorIs(t, svc.Verify(&key.PublicKey, version, data, sig), ebics.ErrVerification)
		})
	}
}

func TestSignVerify_UnknownVersion(t *testing.T) {
	var svc Service
	key := fixtureKey(t)

	_, err := svc.Sign(key, "A004", []byte("x"))
	assert.ErrorIs(t, err, ebics.ErrConfiguration)
	assert.ErrorIs(t, svc.Verify(&key.PublicKey, "A004", []byte("x"), nil), ebics.ErrConfiguration)
}

func TestSign_CrossVersionRejected(t *testing.T) {
	var svc Service
	key := fixtureKey(t)
	data := []byte("payload")

	// A PSS signature must not pass PKCS1v15 verification and vice versa.
	pss, err := svc.Sign(key, "A006", data)
	require.NoError(t, err)
	assert.ErrorIs(t, svc.Verify(&key.PublicKey, "A005", data, pss), ebics.ErrVerification)

	pkcs, err := svc.Sign(key, "A005", data)
	require.NoError(t, err)
	assert.ErrorIs(t, svc.Verify(&key.PublicKey, "A006", data, pkcs), ebics.ErrVerification)
}

func TestTransactionKeyWrap_RoundTrip(t *testing.T) {
	var svc Service
	key := fixtureKey(t)

	txKey, err := svc.GenerateTransactionKey()
	require.NoError(t, err)
	require.Len(t, txKey, TransactionKeySize)

	for _, scheme := range []KeyWrapScheme{WrapPKCS1v15, WrapOAEP} {
		wrapped, err := svc.WrapTransactionKey(&key.PublicKey, txKey, scheme)
		require.NoError(t, err)
		got, err := svc.UnwrapTransactionKey(key, wrapped, scheme)
		require.NoError(t, err)
		assert.Equal(t, txKey, got)
	}

	_, err = svc.WrapTransactionKey(nil, txKey, WrapPKCS1v15)
	assert.ErrorIs(t, err, ebics.ErrKeyNotFound)
}

func TestOrderDataCipher_RoundTrip(t *testing.T) {
	var svc Service
	key, err := svc.GenerateTransactionKey()
	require.NoError(t, err)

	// Cover sizes around the block boundary.
	for _, n := range []int{0, 1, 15, 16, 17, 1000} {
		data := make([]byte, n)
		for i := range data {
			data[i] = byte(i)
		}
		encrypted, err := svc.EncryptOrderData(key, data)
		require.NoError(t, err)
		assert.Zero(t, len(encrypted)%16)
		got, err := svc.DecryptOrderData(key, encrypted)
		require.NoError(t, err)
		assert.Equal(t, data, got)
	}
}

func TestDecryptOrderData_Rejects(t *testing.T) {
	var svc Service
	key, err := svc.GenerateTransactionKey()
	require.NoError(t, err)

	_, err = svc.DecryptOrderData(key, []byte("short"))
	assert.ErrorIs(t, err, ebics.ErrDecryption)

	_, err = svc.DecryptOrderData(key, nil)
	assert.ErrorIs(t, err, ebics.ErrDecryption)
}

func TestGenerateNonce(t *testing.T) {
	var svc Service
	seen := map[string]bool{}
	for i := 0; i < 16; i++ {
		nonce, err := svc.GenerateNonce()
		require.NoError(t, err)
		assert.Regexp(t, regexp.MustCompile(`^[0-9A-F]{32}$`), nonce)
		assert.False(t, seen[nonce])
		seen[nonce] = true
	}
}
