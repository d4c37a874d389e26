package request

import (
	"bytes"
	"compress/zlib"
	"encoding/base64"
	"io"
	"regexp"
	"testing"
	"time"

	"github.com/beevik/etree"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sirosfoundation/go-ebics"
	"github.com/sirosfoundation/go-ebics/pkg/crypto"
)

var testTime = time.Date(2024, 3, 15, 10, 30, 0, 0, time.UTC)

func TestNewFactory_UnsupportedVersion(t *testing.T) {
	_, err := NewFactory(testBank("H002"), testUser(), testKeys(t))
	require.Error(t, err)
	assert.ErrorIs(t, err, ebics.ErrConfiguration)
}

func TestNewHEV(t *testing.T) {
	f := testFactory(t, ebics.H004)
	req, err := f.NewHEV()
	require.NoError(t, err)

	root := req.Root()
	assert.Equal(t, "ebicsHEVRequest", root.Tag)
	assert.Equal(t, ebics.NamespaceHEV, root.SelectAttrValue("xmlns", ""))
	require.NotNil(t, root.SelectElement("HostID"))
	assert.Equal(t, "MYHOST", root.SelectElement("HostID").Text())

	// HEV carries no protocol version attribute and no signature.
	assert.Nil(t, root.SelectAttr("Version"))
	assert.Nil(t, root.SelectElement("AuthSignature"))
}

func TestNewINI(t *testing.T) {
	f := testFactory(t, ebics.H004)
	keys := testKeys(t)
	sigA, err := keys.UserSignatureA()
	require.NoError(t, err)

	req, err := f.NewINI(sigA, testTime)
	require.NoError(t, err)

	root := req.Root()
	assert.Equal(t, "ebicsUnsecuredRequest", root.Tag)
	assert.Equal(t, "urn:org:ebics:H004", root.SelectAttrValue("xmlns", ""))
	assert.Equal(t, "H004", root.SelectAttrValue("Version", ""))
	assert.Equal(t, "1", root.SelectAttrValue("Revision", ""))

	static := root.FindElement("./header/static")
	require.NotNil(t, static)
	assert.Equal(t, "MYHOST", static.SelectElement("HostID").Text())
	assert.Equal(t, "PARTNER1", static.SelectElement("PartnerID").Text())
	assert.Equal(t, "USER1", static.SelectElement("UserID").Text())
	assert.Equal(t, "0000", static.SelectElement("SecurityMedium").Text())

	details := static.SelectElement("OrderDetails")
	require.NotNil(t, details)
	assert.Equal(t, "INI", details.SelectElement("OrderType").Text())
	assert.Equal(t, "DZNNN", details.SelectElement("OrderAttribute").Text())

	// Unsecured container: no nonce, no timestamp, no signature.
	assert.Nil(t, static.SelectElement("Nonce"))
	assert.Nil(t, static.SelectElement("Timestamp"))
	assert.Nil(t, root.SelectElement("AuthSignature"))

	// The order data inflates to the signature key document.
	orderData := root.FindElement("./body/DataTransfer/OrderData")
	require.NotNil(t, orderData)
	inflated := inflateOrderData(t, orderData.Text())
	assert.Contains(t, string(inflated), "SignaturePubKeyOrderData")
	assert.Contains(t, string(inflated), "PARTNER1")
	assert.Contains(t, string(inflated), "A006")
}

func TestNewHIA(t *testing.T) {
	f := testFactory(t, ebics.H004)
	keys := testKeys(t)
	sigE, err := keys.UserSignatureE()
	require.NoError(t, err)
	sigX, err := keys.UserSignatureX()
	require.NoError(t, err)

	req, err := f.NewHIA(sigE, sigX, testTime)
	require.NoError(t, err)

	root := req.Root()
	assert.Equal(t, "ebicsUnsecuredRequest", root.Tag)
	details := root.FindElement("./header/static/OrderDetails")
	require.NotNil(t, details)
	assert.Equal(t, "HIA", details.SelectElement("OrderType").Text())

	orderData := root.FindElement("./body/DataTransfer/OrderData")
	require.NotNil(t, orderData)
	inflated := inflateOrderData(t, orderData.Text())
	assert.Contains(t, string(inflated), "HIARequestOrderData")
	assert.Contains(t, string(inflated), "AuthenticationPubKeyInfo")
	assert.Contains(t, string(inflated), "EncryptionPubKeyInfo")
}

func TestNewHPB(t *testing.T) {
	f := testFactory(t, ebics.H004)
	req, err := f.NewHPB(testTime)
	require.NoError(t, err)

	root := req.Root()
	assert.Equal(t, "ebicsNoPubKeyDigestsRequest", root.Tag)

	static := root.FindElement("./header/static")
	require.NotNil(t, static)
	nonce := static.SelectElement("Nonce")
	require.NotNil(t, nonce)
	assert.Regexp(t, regexp.MustCompile(`^[0-9A-F]{32}$`), nonce.Text())
	assert.Equal(t, "2024-03-15T10:30:00Z", static.SelectElement("Timestamp").Text())

	// HPB fetches the bank keys, so no digests are announced.
	assert.Nil(t, static.SelectElement("BankPubKeyDigests"))
	require.NotNil(t, root.SelectElement("AuthSignature"))
}

func TestNewHTD_SecuredDownload(t *testing.T) {
	f := testFactory(t, ebics.H004)
	req, err := f.NewHTD(testTime)
	require.NoError(t, err)

	root := req.Root()
	assert.Equal(t, "ebicsRequest", root.Tag)

	static := root.FindElement("./header/static")
	require.NotNil(t, static)
	digests := static.SelectElement("BankPubKeyDigests")
	require.NotNil(t, digests)

	// The announced digests must match the resolver's output for the
	// installed bank keys.
	keys := testKeys(t)
	resolver, err := crypto.NewDigestResolver(ebics.H004)
	require.NoError(t, err)
	bankX, err := keys.BankSignatureX()
	require.NoError(t, err)
	wantX, err := resolver.Digest(bankX)
	require.NoError(t, err)

	auth := digests.SelectElement("Authentication")
	require.NotNil(t, auth)
	assert.Equal(t, "X002", auth.SelectAttrValue("Version", ""))
	assert.Equal(t, base64.StdEncoding.EncodeToString(wantX), auth.Text())

	phase := root.FindElement("./header/mutable/TransactionPhase")
	require.NotNil(t, phase)
	assert.Equal(t, "Initialization", phase.Text())
}

func TestNewVMK_DateRange(t *testing.T) {
	f := testFactory(t, ebics.H004)
	start := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 3, 14, 0, 0, 0, 0, time.UTC)

	req, err := f.NewVMK(testTime, &start, &end)
	require.NoError(t, err)

	dr := req.Root().FindElement("./header/static/OrderDetails/StandardOrderParams/DateRange")
	require.NotNil(t, dr)
	assert.Equal(t, "2024-03-01", dr.SelectElement("Start").Text())
	assert.Equal(t, "2024-03-14", dr.SelectElement("End").Text())
}

func TestNewFDL(t *testing.T) {
	f := testFactory(t, ebics.H004)

	_, err := f.NewFDL(testTime, "", "FR", nil, nil)
	assert.ErrorIs(t, err, ebics.ErrConfiguration)

	req, err := f.NewFDL(testTime, "camt.xxx.cfonb120.stm", "FR", nil, nil)
	require.NoError(t, err)
	ff := req.Root().FindElement("./header/static/OrderDetails/FDLOrderParams/FileFormat")
	require.NotNil(t, ff)
	assert.Equal(t, "camt.xxx.cfonb120.stm", ff.Text())
	assert.Equal(t, "FR", ff.SelectAttrValue("CountryCode", ""))
}

func TestNewBTD(t *testing.T) {
	btf := &BTFContext{ServiceName: "EOP", MsgName: "camt.053"}

	// BTD is a generation 3.0 order.
	f25 := testFactory(t, ebics.H004)
	_, err := f25.NewBTD(testTime, btf, nil, nil)
	assert.ErrorIs(t, err, ebics.ErrConfiguration)

	f30 := testFactory(t, ebics.H005)
	_, err = f30.NewBTD(testTime, nil, nil, nil)
	assert.ErrorIs(t, err, ebics.ErrConfiguration)

	req, err := f30.NewBTD(testTime, btf, nil, nil)
	require.NoError(t, err)

	root := req.Root()
	assert.Equal(t, "urn:org:ebics:H005", root.SelectAttrValue("xmlns", ""))
	details := root.FindElement("./header/static/OrderDetails")
	require.NotNil(t, details)
	assert.Equal(t, "BTD", details.SelectElement("AdminOrderType").Text())
	// Generation 3.0 drops the order attribute.
	assert.Nil(t, details.SelectElement("OrderAttribute"))

	svc := details.FindElement("./BTDOrderParams/Service")
	require.NotNil(t, svc)
	assert.Equal(t, "EOP", svc.SelectElement("ServiceName").Text())
	assert.Equal(t, "camt.053", svc.SelectElement("MsgName").Text())
}

func TestNewCCT_UploadInitialization(t *testing.T) {
	f := testFactory(t, ebics.H004)
	var svc crypto.Service
	txKey, err := svc.GenerateTransactionKey()
	require.NoError(t, err)
	orderData := []byte("<Document>pain.001 payload</Document>")

	req, err := f.NewCCT(testTime, 2, txKey, orderData)
	require.NoError(t, err)

	root := req.Root()
	static := root.FindElement("./header/static")
	require.NotNil(t, static)
	details := static.SelectElement("OrderDetails")
	assert.Equal(t, "CCT", details.SelectElement("OrderType").Text())
	assert.Equal(t, "OZHNN", details.SelectElement("OrderAttribute").Text())
	assert.Equal(t, "2", static.SelectElement("NumSegments").Text())

	// The body announces the wrapped transaction key and the
	// encrypted user signature; the payload follows in segments.
	dei := root.FindElement("./body/DataTransfer/DataEncryptionInfo")
	require.NotNil(t, dei)
	assert.Equal(t, "true", dei.SelectAttrValue("authenticate", ""))
	require.NotNil(t, dei.SelectElement("TransactionKey"))
	assert.NotEmpty(t, dei.SelectElement("TransactionKey").Text())
	require.NotNil(t, root.FindElement("./body/DataTransfer/SignatureData"))
	assert.Nil(t, root.FindElement("./body/DataTransfer/OrderData"))

	require.NotNil(t, root.SelectElement("AuthSignature"))
}

func TestNewCCT_RejectsBadInputs(t *testing.T) {
	f := testFactory(t, ebics.H004)
	txKey := bytes.Repeat([]byte{0x01}, 16)

	_, err := f.NewCCT(testTime, 0, txKey, []byte("data"))
	assert.ErrorIs(t, err, ebics.ErrConfiguration)

	_, err = f.NewCCT(testTime, 1, []byte("short"), []byte("data"))
	assert.ErrorIs(t, err, ebics.ErrConfiguration)
}

func TestNewTransfer(t *testing.T) {
	f := testFactory(t, ebics.H004)

	_, err := f.NewTransfer("", []byte("seg"), 1, false)
	assert.ErrorIs(t, err, ebics.ErrInvalidRequest)
	_, err = f.NewTransfer("TX1", []byte("seg"), 0, false)
	assert.ErrorIs(t, err, ebics.ErrInvalidRequest)

	req, err := f.NewTransfer("TX1", []byte("encrypted segment"), 2, true)
	require.NoError(t, err)

	root := req.Root()
	assert.Equal(t, "TX1", root.FindElement("./header/static/TransactionID").Text())
	phase := root.FindElement("./header/mutable/TransactionPhase")
	assert.Equal(t, "Transfer", phase.Text())
	seg := root.FindElement("./header/mutable/SegmentNumber")
	require.NotNil(t, seg)
	assert.Equal(t, "2", seg.Text())
	assert.Equal(t, "true", seg.SelectAttrValue("lastSegment", ""))
	require.NotNil(t, root.FindElement("./body/DataTransfer/OrderData"))
}

func TestNewReceipt(t *testing.T) {
	f := testFactory(t, ebics.H004)

	_, err := f.NewReceipt("", true)
	assert.ErrorIs(t, err, ebics.ErrInvalidRequest)

	req, err := f.NewReceipt("TX1", true)
	require.NoError(t, err)
	root := req.Root()
	assert.Equal(t, "Receipt", root.FindElement("./header/mutable/TransactionPhase").Text())
	receipt := root.FindElement("./body/TransferReceipt")
	require.NotNil(t, receipt)
	assert.Equal(t, "0", receipt.SelectElement("ReceiptCode").Text())

	req, err = f.NewReceipt("TX1", false)
	require.NoError(t, err)
	code := req.Root().FindElement("./body/TransferReceipt/ReceiptCode")
	assert.Equal(t, "1", code.Text())
}

func TestRequest_BytesRoundTrips(t *testing.T) {
	f := testFactory(t, ebics.H004)
	req, err := f.NewHEV()
	require.NoError(t, err)

	out, err := req.Bytes()
	require.NoError(t, err)

	doc := etree.NewDocument()
	require.NoError(t, doc.ReadFromBytes(out))
	assert.Equal(t, "ebicsHEVRequest", doc.Root().Tag)
}

func inflateOrderData(t *testing.T, b64 string) []byte {
	t.Helper()
	compressed, err := base64.StdEncoding.DecodeString(b64)
	require.NoError(t, err)
	r, err := zlib.NewReader(bytes.NewReader(compressed))
	require.NoError(t, err)
	defer r.Close()
	out, err := io.ReadAll(r)
	require.NoError(t, err)
	return out
}
