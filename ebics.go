package ebics

import "fmt"

// Version identifies the EBICS schema version spoken by a bank host.
type Version string

const (
	H003 Version = "H003"
	H004 Version = "H004"
	H005 Version = "H005"
)

// Generation is the protocol generation a schema version belongs to.
// H003 and H004 are generation 2.5, H005 is generation 3.0. The
// generation selects hash encodings and the order detail vocabulary.
type Generation int

const (
	Gen25 Generation = iota
	Gen30
)

// Generation returns the protocol generation for the version.
func (v Version) Generation() (Generation, error) {
	switch v {
	case H003, H004:
		return Gen25, nil
	case H005:
		return Gen30, nil
	default:
		return 0, fmt.Errorf("%w: protocol version %q", ErrConfiguration, string(v))
	}
}

// Namespace returns the XML namespace of the request/response schema.
func (v Version) Namespace() string {
	switch v {
	case H003:
		return "http://www.ebics.org/H003"
	case H005:
		return "urn:org:ebics:H005"
	default:
		return "urn:org:ebics:H004"
	}
}

// NamespaceHEV is the namespace of the version handshake (HEV) schema,
// shared by all protocol versions.
const NamespaceHEV = "http://www.ebics.org/H000"

// NamespaceSignature returns the namespace of the order signature
// schema (SignaturePubKeyOrderData, UserSignatureData).
func (v Version) NamespaceSignature() string {
	switch v {
	case H003:
		return "http://www.ebics.org/S001"
	case H005:
		return "urn:org:ebics:S002"
	default:
		return "http://www.ebics.org/S001"
	}
}

// NamespaceXMLDSig is the W3C XML digital signature namespace.
const NamespaceXMLDSig = "http://www.w3.org/2000/09/xmldsig#"

// Bank identifies an EBICS host. Immutable after construction.
type Bank struct {
	// HostID is the bank-assigned EBICS host identifier.
	HostID string
	// URL is the bank's EBICS endpoint.
	URL string
	// Version is the schema version the host speaks.
	Version Version
	// Certified selects X.509 certificate mode instead of raw public
	// keys (common for French banks).
	Certified bool
}

// User carries the bank-assigned client identifiers. Immutable.
type User struct {
	// PartnerID is the customer id (Kunden-ID).
	PartnerID string
	// UserID is the subscriber id (Teilnehmer-ID).
	UserID string
}
