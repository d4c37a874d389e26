package request

import (
	"encoding/base64"
	"fmt"

	"github.com/beevik/etree"

	"github.com/sirosfoundation/go-ebics"
	"github.com/sirosfoundation/go-ebics/pkg/crypto"
	"github.com/sirosfoundation/go-ebics/pkg/keyring"
)

// UserSignatureHandler produces the UserSignatureData document that
// accompanies business uploads: the user's A signature over the
// uncompressed order data.
type UserSignatureHandler struct {
	bank ebics.Bank
	user ebics.User
	keys *keyring.KeyRing
	svc  crypto.Service
}

func NewUserSignatureHandler(bank ebics.Bank, user ebics.User, keys *keyring.KeyRing) *UserSignatureHandler {
	return &UserSignatureHandler{bank: bank, user: user, keys: keys}
}

// Build signs orderData with the user's A key and serializes the
// signature document.
func (h *UserSignatureHandler) Build(orderData []byte) ([]byte, error) {
	sigA, err := h.keys.UserSignatureA()
	if err != nil {
		return nil, err
	}
	signature, err := h.svc.Sign(sigA.Key, sigA.Version, orderData)
	if err != nil {
		return nil, err
	}

	doc := etree.NewDocument()
	doc.CreateProcInst("xml", `version="1.0" encoding="UTF-8"`)
	root := doc.CreateElement("UserSignatureData")
	root.CreateAttr("xmlns", h.bank.Version.NamespaceSignature())

	osd := root.CreateElement("OrderSignatureData")
	osd.CreateElement("SignatureVersion").SetText(sigA.Version)
	osd.CreateElement("SignatureValue").SetText(base64.StdEncoding.EncodeToString(signature))
	osd.CreateElement("PartnerID").SetText(h.user.PartnerID)
	osd.CreateElement("UserID").SetText(h.user.UserID)

	out, err := doc.WriteToBytes()
	if err != nil {
		return nil, fmt.Errorf("serializing user signature data: %w", err)
	}
	return out, nil
}

// Verify checks an order signature document against a public key.
// Banks rarely return these, but key rotation tooling does.
func (h *UserSignatureHandler) Verify(sig *keyring.Signature, orderData, signature []byte) error {
	if sig == nil || sig.PublicKey == nil {
		return fmt.Errorf("%w: no key to verify against", ebics.ErrKeyNotFound)
	}
	return h.svc.Verify(sig.PublicKey, sig.Version, orderData, signature)
}
