package request

import (
	"time"

	"github.com/sirosfoundation/go-ebics"
	"github.com/sirosfoundation/go-ebics/pkg/keyring"
)

// Context is the transient parameter bag for one request
// construction. It is populated by the factory entry point, consumed
// by the builders and never persisted.
type Context struct {
	Bank ebics.Bank
	User ebics.User
	Keys *keyring.KeyRing

	DateTime time.Time

	// Download parameters.
	StartDate   *time.Time
	EndDate     *time.Time
	FileFormat  string
	CountryCode string
	BTF         *BTFContext

	// Transfer and receipt phases.
	TransactionID string
	SegmentNumber int
	LastSegment   bool
	ReceiptCode   int

	// Upload initialization.
	TransactionKey []byte
	NumSegments    int

	// Payload slots: raw key management order data for INI/HIA, a
	// pre-encrypted segment for transfer, the encrypted user
	// signature block for upload initialization.
	OrderData     []byte
	SignatureData []byte
}

// BTFContext is the Business Transaction Format descriptor generation
// 3.0 uses in place of fixed order type codes for BTD.
type BTFContext struct {
	ServiceName    string
	ServiceOption  string
	Scope          string
	ContainerType  string
	MsgName        string
	MsgNameVariant string
	MsgNameVersion string
	MsgNameFormat  string
}

// Receipt codes acknowledging a completed download.
const (
	ReceiptCodePositive = 0
	ReceiptCodeNegative = 1
)
