package request

import (
	"encoding/base64"
	"testing"

	"github.com/beevik/etree"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sirosfoundation/go-ebics"
)

func TestOrderDataHandler_BuildINI(t *testing.T) {
	keys := testKeys(t)
	sigA, err := keys.UserSignatureA()
	require.NoError(t, err)

	handler := NewOrderDataHandler(testBank(ebics.H004), testUser(), keys)
	out, err := handler.BuildINI(sigA, testTime)
	require.NoError(t, err)

	doc := etree.NewDocument()
	require.NoError(t, doc.ReadFromBytes(out))
	root := doc.Root()
	assert.Equal(t, "SignaturePubKeyOrderData", root.Tag)
	assert.Equal(t, "http://www.ebics.org/S001", root.SelectAttrValue("xmlns", ""))

	info := root.SelectElement("SignaturePubKeyInfo")
	require.NotNil(t, info)
	assert.Equal(t, "A006", info.SelectElement("SignatureVersion").Text())

	value := info.FindElement("./PubKeyValue/ds:RSAKeyValue")
	require.NotNil(t, value)
	modulus, err := base64.StdEncoding.DecodeString(value.SelectElement("ds:Modulus").Text())
	require.NoError(t, err)
	assert.Equal(t, sigA.PublicKey.N.Bytes(), modulus)
	exponent, err := base64.StdEncoding.DecodeString(value.SelectElement("ds:Exponent").Text())
	require.NoError(t, err)
	assert.Equal(t, []byte{0x01, 0x00, 0x01}, exponent)

	assert.Equal(t, "2024-03-15T10:30:00Z", info.FindElement("./PubKeyValue/TimeStamp").Text())
	assert.Equal(t, "PARTNER1", root.SelectElement("PartnerID").Text())
	assert.Equal(t, "USER1", root.SelectElement("UserID").Text())
}

func TestOrderDataHandler_BuildINI_RejectsWrongRole(t *testing.T) {
	keys := testKeys(t)
	sigX, err := keys.UserSignatureX()
	require.NoError(t, err)

	handler := NewOrderDataHandler(testBank(ebics.H004), testUser(), keys)
	_, err = handler.BuildINI(sigX, testTime)
	assert.ErrorIs(t, err, ebics.ErrConfiguration)
}

func TestOrderDataHandler_BuildHIA(t *testing.T) {
	keys := testKeys(t)
	sigE, err := keys.UserSignatureE()
	require.NoError(t, err)
	sigX, err := keys.UserSignatureX()
	require.NoError(t, err)

	handler := NewOrderDataHandler(testBank(ebics.H004), testUser(), keys)
	out, err := handler.BuildHIA(sigE, sigX, testTime)
	require.NoError(t, err)

	doc := etree.NewDocument()
	require.NoError(t, doc.ReadFromBytes(out))
	root := doc.Root()
	assert.Equal(t, "HIARequestOrderData", root.Tag)
	assert.Equal(t, "urn:org:ebics:H004", root.SelectAttrValue("xmlns", ""))

	auth := root.SelectElement("AuthenticationPubKeyInfo")
	require.NotNil(t, auth)
	assert.Equal(t, "X002", auth.SelectElement("AuthenticationVersion").Text())
	require.NotNil(t, auth.FindElement("./PubKeyValue/ds:RSAKeyValue/ds:Modulus"))

	enc := root.SelectElement("EncryptionPubKeyInfo")
	require.NotNil(t, enc)
	assert.Equal(t, "E002", enc.SelectElement("EncryptionVersion").Text())

	// Swapped roles must be rejected, not silently emitted.
	_, err = handler.BuildHIA(sigX, sigE, testTime)
	assert.ErrorIs(t, err, ebics.ErrConfiguration)
}

func TestOrderDataHandler_BuildINI_CertifiedWithoutCertificate(t *testing.T) {
	keys := testKeys(t)
	sigA, err := keys.UserSignatureA()
	require.NoError(t, err)

	bank := testBank(ebics.H004)
	bank.Certified = true
	handler := NewOrderDataHandler(bank, testUser(), keys)

	// A certified host must never be sent raw keys without a certificate.
	_, err = handler.BuildINI(sigA, testTime)
	require.Error(t, err)
	assert.ErrorIs(t, err, ebics.ErrConfiguration)

	sigE, err := keys.UserSignatureE()
	require.NoError(t, err)
	sigX, err := keys.UserSignatureX()
	require.NoError(t, err)
	_, err = handler.BuildHIA(sigE, sigX, testTime)
	assert.ErrorIs(t, err, ebics.ErrConfiguration)
}
