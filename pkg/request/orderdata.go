package request

import (
	"encoding/base64"
	"fmt"
	"time"

	"github.com/beevik/etree"

	"github.com/sirosfoundation/go-ebics"
	"github.com/sirosfoundation/go-ebics/pkg/keyring"
)

// OrderDataHandler builds the XML order data documents that key
// management uploads carry: the user's public keys, serialized for
// the bank to store.
type OrderDataHandler struct {
	bank ebics.Bank
	user ebics.User
	keys *keyring.KeyRing
}

func NewOrderDataHandler(bank ebics.Bank, user ebics.User, keys *keyring.KeyRing) *OrderDataHandler {
	return &OrderDataHandler{bank: bank, user: user, keys: keys}
}

// BuildINI serializes the SignaturePubKeyOrderData document carrying
// the user's A key.
func (h *OrderDataHandler) BuildINI(sigA *keyring.Signature, now time.Time) ([]byte, error) {
	if sigA == nil || sigA.PublicKey == nil {
		return nil, fmt.Errorf("%w: no signature key to announce", ebics.ErrKeyNotFound)
	}
	if sigA.Role != keyring.RoleSignature {
		return nil, fmt.Errorf("%w: INI order data needs an A key, got role %q", ebics.ErrConfiguration, sigA.Role)
	}

	doc := etree.NewDocument()
	doc.CreateProcInst("xml", `version="1.0" encoding="UTF-8"`)
	root := doc.CreateElement("SignaturePubKeyOrderData")
	root.CreateAttr("xmlns", h.bank.Version.NamespaceSignature())
	root.CreateAttr("xmlns:ds", ebics.NamespaceXMLDSig)

	info := root.CreateElement("SignaturePubKeyInfo")
	if err := h.addPubKeyInfo(info, sigA, now); err != nil {
		return nil, err
	}
	info.CreateElement("SignatureVersion").SetText(sigA.Version)

	root.CreateElement("PartnerID").SetText(h.user.PartnerID)
	root.CreateElement("UserID").SetText(h.user.UserID)

	out, err := doc.WriteToBytes()
	if err != nil {
		return nil, fmt.Errorf("serializing INI order data: %w", err)
	}
	return out, nil
}

// BuildHIA serializes the HIARequestOrderData document carrying the
// user's X and E keys.
func (h *OrderDataHandler) BuildHIA(sigE, sigX *keyring.Signature, now time.Time) ([]byte, error) {
	if sigE == nil || sigE.PublicKey == nil || sigX == nil || sigX.PublicKey == nil {
		return nil, fmt.Errorf("%w: HIA order data needs both E and X keys", ebics.ErrKeyNotFound)
	}
	if sigE.Role != keyring.RoleEncryption {
		return nil, fmt.Errorf("%w: expected an E key, got role %q", ebics.ErrConfiguration, sigE.Role)
	}
	if sigX.Role != keyring.RoleAuthentication {
		return nil, fmt.Errorf("%w: expected an X key, got role %q", ebics.ErrConfiguration, sigX.Role)
	}

	doc := etree.NewDocument()
	doc.CreateProcInst("xml", `version="1.0" encoding="UTF-8"`)
	root := doc.CreateElement("HIARequestOrderData")
	root.CreateAttr("xmlns", h.bank.Version.Namespace())
	root.CreateAttr("xmlns:ds", ebics.NamespaceXMLDSig)

	auth := root.CreateElement("AuthenticationPubKeyInfo")
	if err := h.addPubKeyInfo(auth, sigX, now); err != nil {
		return nil, err
	}
	auth.CreateElement("AuthenticationVersion").SetText(sigX.Version)

	enc := root.CreateElement("EncryptionPubKeyInfo")
	if err := h.addPubKeyInfo(enc, sigE, now); err != nil {
		return nil, err
	}
	enc.CreateElement("EncryptionVersion").SetText(sigE.Version)

	root.CreateElement("PartnerID").SetText(h.user.PartnerID)
	root.CreateElement("UserID").SetText(h.user.UserID)

	out, err := doc.WriteToBytes()
	if err != nil {
		return nil, fmt.Errorf("serializing HIA order data: %w", err)
	}
	return out, nil
}

// addPubKeyInfo emits the certificate block (for certified hosts) and
// the raw PubKeyValue form of one key. A certified host requires a
// certificate on every announced key; announcing the raw key instead
// would enroll the subscriber with material the bank cannot validate.
func (h *OrderDataHandler) addPubKeyInfo(parent *etree.Element, sig *keyring.Signature, now time.Time) error {
	if h.bank.Certified {
		if sig.Certificate == nil {
			return fmt.Errorf("%w: certified mode requires a certificate for the %s key", ebics.ErrConfiguration, sig.Role)
		}
		x509Data := parent.CreateElement("ds:X509Data")
		issuerSerial := x509Data.CreateElement("ds:X509IssuerSerial")
		issuerSerial.CreateElement("ds:X509IssuerName").SetText(sig.Certificate.Issuer.String())
		issuerSerial.CreateElement("ds:X509SerialNumber").SetText(sig.Certificate.SerialNumber.String())
		x509Data.CreateElement("ds:X509Certificate").
			SetText(base64.StdEncoding.EncodeToString(sig.Certificate.Raw))
	}

	value := parent.CreateElement("PubKeyValue")
	rsaValue := value.CreateElement("ds:RSAKeyValue")
	rsaValue.CreateElement("ds:Modulus").
		SetText(base64.StdEncoding.EncodeToString(sig.PublicKey.N.Bytes()))
	rsaValue.CreateElement("ds:Exponent").
		SetText(base64.StdEncoding.EncodeToString(exponentBytes(sig.PublicKey.E)))
	value.CreateElement("TimeStamp").SetText(now.UTC().Format(timestampFormat))
	return nil
}

// exponentBytes encodes the public exponent big-endian without
// leading zero bytes.
func exponentBytes(e int) []byte {
	if e == 0 {
		return []byte{0}
	}
	var out []byte
	for v := e; v > 0; v >>= 8 {
		out = append([]byte{byte(v)}, out...)
	}
	return out
}
