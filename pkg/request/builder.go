package request

import (
	"encoding/base64"
	"fmt"
	"strconv"
	"time"

	"github.com/beevik/etree"

	"github.com/sirosfoundation/go-ebics"
)

// Request is a fully assembled protocol message. It is frozen once
// returned by the factory; transport serializes it without further
// mutation.
type Request struct {
	doc *etree.Document
}

// Document exposes the underlying XML document.
func (r *Request) Document() *etree.Document { return r.doc }

// Root returns the container element.
func (r *Request) Root() *etree.Element { return r.doc.Root() }

// Bytes serializes the request for transport.
func (r *Request) Bytes() ([]byte, error) {
	out, err := r.doc.WriteToBytes()
	if err != nil {
		return nil, fmt.Errorf("serializing request: %w", err)
	}
	return out, nil
}

// The digest algorithm URI carried on BankPubKeyDigests and
// EncryptionPubKeyDigest elements.
const algorithmSHA256 = "http://www.w3.org/2001/04/xmlenc#sha256"

// SecurityMedium0000 means no additional security medium (the common
// case for software keys).
const SecurityMedium0000 = "0000"

// timestampFormat renders timestamps in UTC with a literal Z suffix,
// the form bank hosts accept across generations.
const timestampFormat = "2006-01-02T15:04:05Z"

type containerKind int

const (
	containerHEV containerKind = iota
	containerUnsecured
	containerNoPubKeyDigests
	containerSecured
)

func (k containerKind) elementName() string {
	switch k {
	case containerHEV:
		return "ebicsHEVRequest"
	case containerUnsecured:
		return "ebicsUnsecuredRequest"
	case containerNoPubKeyDigests:
		return "ebicsNoPubKeyDigestsRequest"
	default:
		return "ebicsRequest"
	}
}

// newContainer creates the request document with its root container
// element and namespace declarations.
func newContainer(v ebics.Version, kind containerKind) (*Request, *etree.Element) {
	doc := etree.NewDocument()
	doc.CreateProcInst("xml", `version="1.0" encoding="UTF-8"`)

	root := doc.CreateElement(kind.elementName())
	if kind == containerHEV {
		root.CreateAttr("xmlns", ebics.NamespaceHEV)
		return &Request{doc: doc}, root
	}
	root.CreateAttr("xmlns", v.Namespace())
	root.CreateAttr("xmlns:ds", ebics.NamespaceXMLDSig)
	root.CreateAttr("Version", string(v))
	root.CreateAttr("Revision", "1")
	return &Request{doc: doc}, root
}

// HeaderBuilder populates the header element. The header carries
// authenticate="true": it is covered by the authentication signature.
type HeaderBuilder struct {
	el *etree.Element
}

func addHeader(parent *etree.Element, fn func(*HeaderBuilder)) {
	h := parent.CreateElement("header")
	h.CreateAttr("authenticate", "true")
	fn(&HeaderBuilder{el: h})
}

// Static populates the static header section.
func (h *HeaderBuilder) Static(fn func(*StaticBuilder)) *HeaderBuilder {
	s := h.el.CreateElement("static")
	fn(&StaticBuilder{el: s})
	return h
}

// Mutable populates the mutable header section. A nil fn emits the
// empty mutable element required by the unsecured container.
func (h *HeaderBuilder) Mutable(fn func(*MutableBuilder)) *HeaderBuilder {
	m := h.el.CreateElement("mutable")
	if fn != nil {
		fn(&MutableBuilder{el: m})
	}
	return h
}

// StaticBuilder appends static header fields in schema order. Callers
// must invoke its methods in the order the XSD mandates.
type StaticBuilder struct {
	el *etree.Element
}

func (b *StaticBuilder) HostID(id string) *StaticBuilder {
	b.el.CreateElement("HostID").SetText(id)
	return b
}

func (b *StaticBuilder) TransactionID(id string) *StaticBuilder {
	b.el.CreateElement("TransactionID").SetText(id)
	return b
}

func (b *StaticBuilder) Nonce(nonce string) *StaticBuilder {
	b.el.CreateElement("Nonce").SetText(nonce)
	return b
}

func (b *StaticBuilder) Timestamp(t time.Time) *StaticBuilder {
	b.el.CreateElement("Timestamp").SetText(t.UTC().Format(timestampFormat))
	return b
}

func (b *StaticBuilder) PartnerID(id string) *StaticBuilder {
	b.el.CreateElement("PartnerID").SetText(id)
	return b
}

func (b *StaticBuilder) UserID(id string) *StaticBuilder {
	b.el.CreateElement("UserID").SetText(id)
	return b
}

func (b *StaticBuilder) Product(name, language string) *StaticBuilder {
	p := b.el.CreateElement("Product")
	p.CreateAttr("Language", language)
	p.SetText(name)
	return b
}

func (b *StaticBuilder) OrderDetails(fn func(*OrderDetailsBuilder)) *StaticBuilder {
	od := b.el.CreateElement("OrderDetails")
	fn(&OrderDetailsBuilder{el: od})
	return b
}

func (b *StaticBuilder) BankPubKeyDigests(versionX string, digestX []byte, versionE string, digestE []byte) *StaticBuilder {
	d := b.el.CreateElement("BankPubKeyDigests")

	auth := d.CreateElement("Authentication")
	auth.CreateAttr("Version", versionX)
	auth.CreateAttr("Algorithm", algorithmSHA256)
	auth.SetText(base64.StdEncoding.EncodeToString(digestX))

	enc := d.CreateElement("Encryption")
	enc.CreateAttr("Version", versionE)
	enc.CreateAttr("Algorithm", algorithmSHA256)
	enc.SetText(base64.StdEncoding.EncodeToString(digestE))
	return b
}

func (b *StaticBuilder) SecurityMedium(medium string) *StaticBuilder {
	b.el.CreateElement("SecurityMedium").SetText(medium)
	return b
}

func (b *StaticBuilder) NumSegments(n int) *StaticBuilder {
	b.el.CreateElement("NumSegments").SetText(strconv.Itoa(n))
	return b
}

// MutableBuilder populates the mutable header section.
type MutableBuilder struct {
	el *etree.Element
}

// Transaction phases carried in the mutable header.
const (
	PhaseInitialization = "Initialization"
	PhaseTransfer       = "Transfer"
	PhaseReceipt        = "Receipt"
)

func (b *MutableBuilder) TransactionPhase(phase string) *MutableBuilder {
	b.el.CreateElement("TransactionPhase").SetText(phase)
	return b
}

func (b *MutableBuilder) SegmentNumber(n int, last bool) *MutableBuilder {
	s := b.el.CreateElement("SegmentNumber")
	s.CreateAttr("lastSegment", strconv.FormatBool(last))
	s.SetText(strconv.Itoa(n))
	return b
}

// BodyBuilder populates the body element.
type BodyBuilder struct {
	el *etree.Element
}

func addBody(parent *etree.Element, fn func(*BodyBuilder)) {
	body := parent.CreateElement("body")
	if fn != nil {
		fn(&BodyBuilder{el: body})
	}
}

// DataTransfer adds the DataTransfer body section.
func (b *BodyBuilder) DataTransfer(fn func(*DataTransferBuilder)) *BodyBuilder {
	dt := b.el.CreateElement("DataTransfer")
	fn(&DataTransferBuilder{el: dt})
	return b
}

// TransferReceipt adds the receipt body acknowledging a download. The
// element participates in the authentication digest.
func (b *BodyBuilder) TransferReceipt(code int) *BodyBuilder {
	tr := b.el.CreateElement("TransferReceipt")
	tr.CreateAttr("authenticate", "true")
	tr.CreateElement("ReceiptCode").SetText(strconv.Itoa(code))
	return b
}

// DataTransferBuilder populates DataTransfer content.
type DataTransferBuilder struct {
	el *etree.Element
}

// OrderData embeds payload bytes base64 encoded. The caller is
// responsible for the compression/encryption the order type requires.
func (b *DataTransferBuilder) OrderData(data []byte) *DataTransferBuilder {
	b.el.CreateElement("OrderData").SetText(base64.StdEncoding.EncodeToString(data))
	return b
}

// DataEncryptionInfo declares the wrapped transaction key and the
// digest of the bank encryption key it was wrapped with.
func (b *DataTransferBuilder) DataEncryptionInfo(versionE string, digestE, wrappedKey []byte) *DataTransferBuilder {
	dei := b.el.CreateElement("DataEncryptionInfo")
	dei.CreateAttr("authenticate", "true")

	dig := dei.CreateElement("EncryptionPubKeyDigest")
	dig.CreateAttr("Version", versionE)
	dig.CreateAttr("Algorithm", algorithmSHA256)
	dig.SetText(base64.StdEncoding.EncodeToString(digestE))

	dei.CreateElement("TransactionKey").SetText(base64.StdEncoding.EncodeToString(wrappedKey))
	return b
}

// SignatureData embeds the encrypted user signature block.
func (b *DataTransferBuilder) SignatureData(encrypted []byte) *DataTransferBuilder {
	sd := b.el.CreateElement("SignatureData")
	sd.CreateAttr("authenticate", "true")
	sd.SetText(base64.StdEncoding.EncodeToString(encrypted))
	return b
}
