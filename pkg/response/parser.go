package response

import (
	"crypto/rsa"
	"encoding/base64"
	"fmt"
	"math/big"
	"strconv"

	"github.com/beevik/etree"

	"github.com/sirosfoundation/go-ebics"
	"github.com/sirosfoundation/go-ebics/pkg/compression"
	"github.com/sirosfoundation/go-ebics/pkg/crypto"
	"github.com/sirosfoundation/go-ebics/pkg/keyring"
	"github.com/sirosfoundation/go-ebics/pkg/request"
)

// Response is a parsed bank response. The payload fields hold the
// still-encrypted segment data; Decrypt reverses the transport
// protections.
type Response struct {
	doc *etree.Document

	// TechnicalCode and TechnicalReport come from the mutable header.
	TechnicalCode   string
	TechnicalReport string
	// BusinessCode comes from the body.
	BusinessCode string

	TransactionID string
	NumSegments   int
	SegmentNumber int
	LastSegment   bool
	Phase         string

	// OrderData is the base64-decoded segment payload, still
	// encrypted and compressed.
	OrderData []byte
	// EncryptedKey is the wrapped transaction key from
	// DataEncryptionInfo, present on the first download segment.
	EncryptedKey []byte
}

// Document exposes the underlying XML document.
func (r *Response) Document() *etree.Document { return r.doc }

// Err converts the response's return codes into an error. The
// technical code wins over the business code.
func (r *Response) Err() error {
	if err := checkCode(r.TechnicalCode, r.TechnicalReport); err != nil {
		return err
	}
	return checkCode(r.BusinessCode, r.TechnicalReport)
}

// Parser validates and decodes bank responses against a key ring.
type Parser struct {
	keys    *keyring.KeyRing
	svc     crypto.Service
	codec   *compression.Codec
	authSig *request.AuthSignatureHandler
}

func NewParser(keys *keyring.KeyRing) *Parser {
	return &Parser{
		keys:    keys,
		codec:   compression.NewCodec(),
		authSig: request.NewAuthSignatureHandler(keys),
	}
}

// Parse decodes a raw response document. Once the bank's X key is
// installed, every response must carry a valid authentication
// signature; it is verified before anything else is read. Only while
// the bank key is still unknown (before HPB completes) does parsing
// proceed unverified.
func (p *Parser) Parse(raw []byte) (*Response, error) {
	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(raw); err != nil {
		return nil, fmt.Errorf("%w: malformed response: %s", ebics.ErrVerification, err)
	}
	root := doc.Root()
	if root == nil {
		return nil, fmt.Errorf("%w: empty response", ebics.ErrVerification)
	}

	if p.keys.HasBankKeys() {
		bankX, err := p.keys.BankSignatureX()
		if err != nil {
			return nil, err
		}
		if err := p.authSig.Verify(doc, bankX); err != nil {
			return nil, err
		}
	}

	resp := &Response{doc: doc}
	if static := root.FindElement("./header/static"); static != nil {
		resp.TransactionID = elementText(static, "TransactionID")
		resp.NumSegments = elementInt(static, "NumSegments")
	}
	if mutable := root.FindElement("./header/mutable"); mutable != nil {
		resp.TechnicalCode = elementText(mutable, "ReturnCode")
		resp.TechnicalReport = elementText(mutable, "ReportText")
		resp.Phase = elementText(mutable, "TransactionPhase")
		if seg := mutable.SelectElement("SegmentNumber"); seg != nil {
			resp.SegmentNumber, _ = strconv.Atoi(seg.Text())
			resp.LastSegment = seg.SelectAttrValue("lastSegment", "") == "true"
		}
	}
	if body := root.SelectElement("body"); body != nil {
		resp.BusinessCode = elementText(body, "ReturnCode")
		if od := body.FindElement("./DataTransfer/OrderData"); od != nil {
			decoded, err := base64.StdEncoding.DecodeString(od.Text())
			if err != nil {
				return nil, fmt.Errorf("%w: order data is not valid base64", ebics.ErrVerification)
			}
			resp.OrderData = decoded
		}
		if tk := body.FindElement("./DataTransfer/DataEncryptionInfo/TransactionKey"); tk != nil {
			decoded, err := base64.StdEncoding.DecodeString(tk.Text())
			if err != nil {
				return nil, fmt.Errorf("%w: transaction key is not valid base64", ebics.ErrVerification)
			}
			resp.EncryptedKey = decoded
		}
	}
	return resp, nil
}

// Decrypt unwraps the transaction key with the user's E key, decrypts
// the assembled payload and inflates it.
func (p *Parser) Decrypt(encryptedKey, payload []byte) ([]byte, error) {
	userE, err := p.keys.UserSignatureE()
	if err != nil {
		return nil, err
	}
	txKey, err := p.svc.UnwrapTransactionKey(userE.Key, encryptedKey, crypto.WrapPKCS1v15)
	if err != nil {
		return nil, err
	}
	plain, err := p.svc.DecryptOrderData(txKey, payload)
	if err != nil {
		return nil, err
	}
	return p.codec.Decompress(plain)
}

// DecryptKeyManagement decrypts an HPB response payload. Key
// management downloads are not segmented, so the single order data
// block and its wrapped key arrive together.
func (p *Parser) DecryptKeyManagement(resp *Response) ([]byte, error) {
	if len(resp.OrderData) == 0 || len(resp.EncryptedKey) == 0 {
		return nil, fmt.Errorf("%w: response carries no encrypted payload", ebics.ErrVerification)
	}
	return p.Decrypt(resp.EncryptedKey, resp.OrderData)
}

// ExtractBankKeys parses an HPBResponseOrderData document into the
// bank's E and X signatures, digest-ready for the key ring.
func ExtractBankKeys(orderData []byte) (e, x *keyring.Signature, err error) {
	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(orderData); err != nil {
		return nil, nil, fmt.Errorf("%w: malformed bank key document: %s", ebics.ErrVerification, err)
	}
	root := doc.Root()
	if root == nil || root.Tag != "HPBResponseOrderData" {
		return nil, nil, fmt.Errorf("%w: expected HPBResponseOrderData", ebics.ErrVerification)
	}

	authInfo := root.SelectElement("AuthenticationPubKeyInfo")
	encInfo := root.SelectElement("EncryptionPubKeyInfo")
	if authInfo == nil || encInfo == nil {
		return nil, nil, fmt.Errorf("%w: bank key document is missing key blocks", ebics.ErrVerification)
	}

	authPub, err := parsePubKeyValue(authInfo)
	if err != nil {
		return nil, nil, err
	}
	encPub, err := parsePubKeyValue(encInfo)
	if err != nil {
		return nil, nil, err
	}

	authVersion := elementText(authInfo, "AuthenticationVersion")
	if authVersion == "" {
		authVersion = keyring.DefaultVersionX
	}
	encVersion := elementText(encInfo, "EncryptionVersion")
	if encVersion == "" {
		encVersion = keyring.DefaultVersionE
	}

	x = keyring.NewBankSignature(keyring.RoleAuthentication, authVersion, authPub)
	e = keyring.NewBankSignature(keyring.RoleEncryption, encVersion, encPub)
	return e, x, nil
}

// ParseHEV extracts the protocol versions a host supports from an
// ebicsHEVResponse document.
func ParseHEV(raw []byte) ([]ebics.Version, error) {
	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(raw); err != nil {
		return nil, fmt.Errorf("%w: malformed HEV response: %s", ebics.ErrVerification, err)
	}
	root := doc.Root()
	if root == nil {
		return nil, fmt.Errorf("%w: empty HEV response", ebics.ErrVerification)
	}
	if sys := root.SelectElement("SystemReturnCode"); sys != nil {
		if err := checkCode(elementText(sys, "ReturnCode"), elementText(sys, "ReportText")); err != nil {
			return nil, err
		}
	}

	var versions []ebics.Version
	for _, el := range root.FindElements("./VersionNumber") {
		if v := el.SelectAttrValue("ProtocolVersion", ""); v != "" {
			versions = append(versions, ebics.Version(v))
		}
	}
	return versions, nil
}

func parsePubKeyValue(info *etree.Element) (*rsa.PublicKey, error) {
	rsaValue := info.FindElement("./PubKeyValue/ds:RSAKeyValue")
	if rsaValue == nil {
		return nil, fmt.Errorf("%w: key block carries no RSA key value", ebics.ErrVerification)
	}
	modulus, err := decodeBase64Element(rsaValue, "ds:Modulus")
	if err != nil {
		return nil, err
	}
	exponent, err := decodeBase64Element(rsaValue, "ds:Exponent")
	if err != nil {
		return nil, err
	}
	e := new(big.Int).SetBytes(exponent)
	if !e.IsInt64() || e.Int64() <= 1 {
		return nil, fmt.Errorf("%w: implausible public exponent", ebics.ErrVerification)
	}
	return &rsa.PublicKey{N: new(big.Int).SetBytes(modulus), E: int(e.Int64())}, nil
}

func decodeBase64Element(parent *etree.Element, name string) ([]byte, error) {
	el := parent.SelectElement(name)
	if el == nil {
		return nil, fmt.Errorf("%w: missing %s", ebics.ErrVerification, name)
	}
	out, err := base64.StdEncoding.DecodeString(el.Text())
	if err != nil {
		return nil, fmt.Errorf("%w: %s is not valid base64", ebics.ErrVerification, name)
	}
	return out, nil
}

func elementText(parent *etree.Element, name string) string {
	if el := parent.SelectElement(name); el != nil {
		return el.Text()
	}
	return ""
}

func elementInt(parent *etree.Element, name string) int {
	n, _ := strconv.Atoi(elementText(parent, name))
	return n
}
