package request

import (
	"bytes"
	"crypto/sha256"
	"encoding/base64"
	"fmt"

	"github.com/beevik/etree"

	"github.com/sirosfoundation/go-ebics"
	"github.com/sirosfoundation/go-ebics/pkg/crypto"
	"github.com/sirosfoundation/go-ebics/pkg/keyring"
)

const (
	algorithmRSASHA256 = "http://www.w3.org/2001/04/xmldsig-more#rsa-sha256"

	// referenceURI selects every node carrying authenticate="true".
	// The digest covers those nodes in document order.
	referenceURI = "#xpointer(//*[@authenticate='true'])"
)

var authenticatedPath = etree.MustCompilePath(".//*[@authenticate='true']")

// AuthSignatureHandler computes and verifies the X002 authentication
// signature carried in the AuthSignature element of secured
// containers.
type AuthSignatureHandler struct {
	keys *keyring.KeyRing
	svc  crypto.Service
}

func NewAuthSignatureHandler(keys *keyring.KeyRing) *AuthSignatureHandler {
	return &AuthSignatureHandler{keys: keys}
}

// Sign digests the document's authenticated nodes, signs the
// resulting SignedInfo with the user's X key and inserts the
// AuthSignature element between header and body.
func (h *AuthSignatureHandler) Sign(doc *etree.Document) error {
	root := doc.Root()
	if root == nil {
		return fmt.Errorf("%w: empty document", ebics.ErrInvalidRequest)
	}
	sigX, err := h.keys.UserSignatureX()
	if err != nil {
		return err
	}

	digest, err := digestAuthenticated(root)
	if err != nil {
		return err
	}

	authSig := etree.NewElement("AuthSignature")
	signedInfo := buildSignedInfo(authSig, digest)

	canonical, err := canonicalizeDetached(signedInfo, root)
	if err != nil {
		return err
	}
	signature, err := h.svc.Sign(sigX.Key, sigX.Version, canonical)
	if err != nil {
		return err
	}
	sigValue := authSig.CreateElement("ds:SignatureValue")
	sigValue.SetText(base64.StdEncoding.EncodeToString(signature))

	insertAfterHeader(root, authSig)
	return nil
}

// Verify checks a response document's authentication signature
// against the bank's X key. The digest and signature must both match.
func (h *AuthSignatureHandler) Verify(doc *etree.Document, bankX *keyring.Signature) error {
	root := doc.Root()
	if root == nil {
		return fmt.Errorf("%w: empty document", ebics.ErrVerification)
	}
	authSig := root.SelectElement("AuthSignature")
	if authSig == nil {
		return fmt.Errorf("%w: response carries no authentication signature", ebics.ErrVerification)
	}

	digestValue := authSig.FindElement("./ds:SignedInfo/ds:Reference/ds:DigestValue")
	sigValue := authSig.SelectElement("ds:SignatureValue")
	if digestValue == nil || sigValue == nil {
		return fmt.Errorf("%w: authentication signature is incomplete", ebics.ErrVerification)
	}
	wantDigest, err := base64.StdEncoding.DecodeString(digestValue.Text())
	if err != nil {
		return fmt.Errorf("%w: digest value is not valid base64", ebics.ErrVerification)
	}
	signature, err := base64.StdEncoding.DecodeString(sigValue.Text())
	if err != nil {
		return fmt.Errorf("%w: signature value is not valid base64", ebics.ErrVerification)
	}

	digest, err := digestAuthenticated(root)
	if err != nil {
		return err
	}
	if !bytes.Equal(digest, wantDigest) {
		return fmt.Errorf("%w: digest mismatch over authenticated nodes", ebics.ErrVerification)
	}

	signedInfo := authSig.SelectElement("ds:SignedInfo")
	if signedInfo == nil {
		return fmt.Errorf("%w: authentication signature carries no SignedInfo", ebics.ErrVerification)
	}
	canonical, err := canonicalizeDetached(signedInfo, root)
	if err != nil {
		return err
	}
	return h.svc.Verify(bankX.PublicKey, bankX.Version, canonical, signature)
}

// digestAuthenticated hashes the canonical form of every node with
// authenticate="true", concatenated in document order.
func digestAuthenticated(root *etree.Element) ([]byte, error) {
	nodes := root.FindElementsPath(authenticatedPath)
	if len(nodes) == 0 {
		return nil, fmt.Errorf("%w: no authenticated nodes to digest", ebics.ErrCanonicalization)
	}

	hash := sha256.New()
	for _, node := range nodes {
		canonical, err := canonicalizeDetached(node, root)
		if err != nil {
			return nil, err
		}
		hash.Write(canonical)
	}
	return hash.Sum(nil), nil
}

// canonicalizeDetached canonicalizes a copy of el with the document's
// namespace declarations materialized. Detaching loses inherited
// xmlns attributes, so they are re-stated on the copy first.
func canonicalizeDetached(el, root *etree.Element) ([]byte, error) {
	c := el.Copy()
	for _, attr := range root.Attr {
		if attr.Space == "xmlns" || (attr.Space == "" && attr.Key == "xmlns") {
			name := attr.Key
			if attr.Space != "" {
				name = attr.Space + ":" + attr.Key
			}
			if c.SelectAttr(name) == nil {
				c.CreateAttr(name, attr.Value)
			}
		}
	}
	return crypto.Canonicalize(c)
}

func buildSignedInfo(authSig *etree.Element, digest []byte) *etree.Element {
	signedInfo := authSig.CreateElement("ds:SignedInfo")
	signedInfo.CreateElement("ds:CanonicalizationMethod").
		CreateAttr("Algorithm", crypto.AlgorithmC14N)
	signedInfo.CreateElement("ds:SignatureMethod").
		CreateAttr("Algorithm", algorithmRSASHA256)

	ref := signedInfo.CreateElement("ds:Reference")
	ref.CreateAttr("URI", referenceURI)
	ref.CreateElement("ds:Transforms").
		CreateElement("ds:Transform").
		CreateAttr("Algorithm", crypto.AlgorithmC14N)
	ref.CreateElement("ds:DigestMethod").
		CreateAttr("Algorithm", algorithmSHA256)
	ref.CreateElement("ds:DigestValue").
		SetText(base64.StdEncoding.EncodeToString(digest))
	return signedInfo
}

// insertAfterHeader places the AuthSignature element between header
// and body, where the schema requires it.
func insertAfterHeader(root *etree.Element, authSig *etree.Element) {
	idx := len(root.ChildElements())
	for i, child := range root.ChildElements() {
		if child.Tag == "header" {
			idx = i + 1
			break
		}
	}
	root.InsertChildAt(childTokenIndex(root, idx), authSig)
}

// childTokenIndex converts an element index into the token index
// InsertChildAt expects, since child tokens include character data.
func childTokenIndex(parent *etree.Element, elementIndex int) int {
	seen := 0
	for i, tok := range parent.Child {
		if _, ok := tok.(*etree.Element); ok {
			if seen == elementIndex {
				return i
			}
			seen++
		}
	}
	return len(parent.Child)
}
