package request

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sirosfoundation/go-ebics"
	"github.com/sirosfoundation/go-ebics/pkg/crypto"
	"github.com/sirosfoundation/go-ebics/pkg/keyring"
)

func TestAuthSignatureHandler_SignShape(t *testing.T) {
	f := testFactory(t, ebics.H004)
	req, err := f.NewHPB(testTime)
	require.NoError(t, err)

	root := req.Root()
	children := root.ChildElements()
	require.Len(t, children, 3)

	// Schema order: header, AuthSignature, body.
	assert.Equal(t, "header", children[0].Tag)
	assert.Equal(t, "AuthSignature", children[1].Tag)
	assert.Equal(t, "body", children[2].Tag)

	authSig := children[1]
	signedInfo := authSig.SelectElement("ds:SignedInfo")
	require.NotNil(t, signedInfo)
	assert.Equal(t, crypto.AlgorithmC14N,
		signedInfo.SelectElement("ds:CanonicalizationMethod").SelectAttrValue("Algorithm", ""))
	assert.Equal(t, algorithmRSASHA256,
		signedInfo.SelectElement("ds:SignatureMethod").SelectAttrValue("Algorithm", ""))

	ref := signedInfo.SelectElement("ds:Reference")
	require.NotNil(t, ref)
	assert.Equal(t, referenceURI, ref.SelectAttrValue("URI", ""))
	assert.NotEmpty(t, ref.FindElement("./ds:DigestValue").Text())
	assert.NotEmpty(t, authSig.SelectElement("ds:SignatureValue").Text())
}

func TestAuthSignatureHandler_SignAndVerify(t *testing.T) {
	f := testFactory(t, ebics.H004)
	req, err := f.NewHPB(testTime)
	require.NoError(t, err)

	// The signer's own public key stands in for the bank's X key.
	keys := testKeys(t)
	userX, err := keys.UserSignatureX()
	require.NoError(t, err)
	verifyKey := keyring.NewBankSignature(keyring.RoleAuthentication, userX.Version, userX.PublicKey)

	handler := NewAuthSignatureHandler(keys)
	assert.NoError(t, handler.Verify(req.Document(), verifyKey))
}

func TestAuthSignatureHandler_RejectsTamperedDocument(t *testing.T) {
	f := testFactory(t, ebics.H004)
	req, err := f.NewHPB(testTime)
	require.NoError(t, err)

	keys := testKeys(t)
	userX, err := keys.UserSignatureX()
	require.NoError(t, err)
	verifyKey := keyring.NewBankSignature(keyring.RoleAuthentication, userX.Version, userX.PublicKey)

	// Flip an authenticated value after signing.
	host := req.Root().FindElement("./header/static/HostID")
	require.NotNil(t, host)
	host.SetText("EVILHOST")

	handler := NewAuthSignatureHandler(keys)
	err = handler.Verify(req.Document(), verifyKey)
	require.Error(t, err)
	assert.ErrorIs(t, err, ebics.ErrVerification)
}

func TestAuthSignatureHandler_RejectsWrongKey(t *testing.T) {
	f := testFactory(t, ebics.H004)
	req, err := f.NewHPB(testTime)
	require.NoError(t, err)

	keys := testKeys(t)
	// The bank's X key did not sign this request.
	bankX, err := keys.BankSignatureX()
	require.NoError(t, err)

	handler := NewAuthSignatureHandler(keys)
	err = handler.Verify(req.Document(), bankX)
	require.Error(t, err)
	assert.ErrorIs(t, err, ebics.ErrVerification)
}

func TestAuthSignatureHandler_RejectsMissingSignature(t *testing.T) {
	f := testFactory(t, ebics.H004)
	req, err := f.NewHEV()
	require.NoError(t, err)

	keys := testKeys(t)
	bankX, err := keys.BankSignatureX()
	require.NoError(t, err)

	handler := NewAuthSignatureHandler(keys)
	err = handler.Verify(req.Document(), bankX)
	assert.ErrorIs(t, err, ebics.ErrVerification)
}
