package transaction

import (
	"fmt"

	"github.com/sirosfoundation/go-ebics"
)

// SegmentSize is the maximum number of bytes carried per transfer
// segment, fixed by the protocol at one megabyte of encrypted order
// data.
const SegmentSize = 1024 * 1024

// Phase is the position of a transaction in its lifecycle.
type Phase int

const (
	PhaseInitialization Phase = iota
	PhaseTransfer
	PhaseReceipt
	PhaseDone
)

func (p Phase) String() string {
	switch p {
	case PhaseInitialization:
		return "initialization"
	case PhaseTransfer:
		return "transfer"
	case PhaseReceipt:
		return "receipt"
	default:
		return "done"
	}
}

// Upload sequences the segments of an upload transaction. The
// encrypted order data is split at construction; segments are handed
// out strictly in order once the bank has assigned a transaction id.
type Upload struct {
	id       string
	segments [][]byte
	next     int
}

// NewUpload splits encrypted order data into transfer segments.
func NewUpload(encrypted []byte) (*Upload, error) {
	if len(encrypted) == 0 {
		return nil, fmt.Errorf("%w: upload without order data", ebics.ErrInvalidRequest)
	}
	var segments [][]byte
	for off := 0; off < len(encrypted); off += SegmentSize {
		end := off + SegmentSize
		if end > len(encrypted) {
			end = len(encrypted)
		}
		segments = append(segments, encrypted[off:end])
	}
	return &Upload{segments: segments}, nil
}

// NumSegments returns the segment count announced in the
// initialization header.
func (u *Upload) NumSegments() int { return len(u.segments) }

// TransactionID returns the bank-assigned id, empty before Begin.
func (u *Upload) TransactionID() string { return u.id }

// Begin records the transaction id the bank assigned at
// initialization. It moves the transaction into the transfer phase
// and can only happen once.
func (u *Upload) Begin(transactionID string) error {
	if transactionID == "" {
		return fmt.Errorf("%w: empty transaction id", ebics.ErrInvalidRequest)
	}
	if u.id != "" {
		return fmt.Errorf("%w: transaction %s already initialized", ebics.ErrInvalidRequest, u.id)
	}
	u.id = transactionID
	return nil
}

// Phase reports the current lifecycle position.
func (u *Upload) Phase() Phase {
	switch {
	case u.id == "":
		return PhaseInitialization
	case u.next < len(u.segments):
		return PhaseTransfer
	default:
		return PhaseDone
	}
}

// Next returns the next segment together with its 1-based number and
// the last-segment marker. Calling it before Begin or after the final
// segment is a sequencing violation.
func (u *Upload) Next() (segment []byte, number int, last bool, err error) {
	if u.id == "" {
		return nil, 0, false, fmt.Errorf("%w: transfer before initialization", ebics.ErrInvalidRequest)
	}
	if u.next >= len(u.segments) {
		return nil, 0, false, fmt.Errorf("%w: transaction %s has no more segments", ebics.ErrInvalidRequest, u.id)
	}
	segment = u.segments[u.next]
	u.next++
	return segment, u.next, u.next == len(u.segments), nil
}

// Download accumulates the segments of a download transaction and
// reassembles the encrypted payload once the bank has delivered the
// last one.
type Download struct {
	id       string
	total    int
	segments [][]byte
	closed   bool
}

// NewDownload creates an empty download transaction.
func NewDownload() *Download {
	return &Download{}
}

// TransactionID returns the bank-assigned id, empty before Begin.
func (d *Download) TransactionID() string { return d.id }

// Begin records the transaction id and segment count from the bank's
// initialization response.
func (d *Download) Begin(transactionID string, numSegments int) error {
	if transactionID == "" {
		return fmt.Errorf("%w: empty transaction id", ebics.ErrInvalidRequest)
	}
	if numSegments < 1 {
		return fmt.Errorf("%w: download announces %d segments", ebics.ErrInvalidRequest, numSegments)
	}
	if d.id != "" {
		return fmt.Errorf("%w: transaction %s already initialized", ebics.ErrInvalidRequest, d.id)
	}
	d.id = transactionID
	d.total = numSegments
	return nil
}

// Phase reports the current lifecycle position.
func (d *Download) Phase() Phase {
	switch {
	case d.id == "":
		return PhaseInitialization
	case len(d.segments) < d.total:
		return PhaseTransfer
	case !d.closed:
		return PhaseReceipt
	default:
		return PhaseDone
	}
}

// NextSegment returns the 1-based number of the segment to request
// next.
func (d *Download) NextSegment() int { return len(d.segments) + 1 }

// Add stores one received segment. Segments must arrive strictly in
// order and within the announced count.
func (d *Download) Add(number int, data []byte) error {
	if d.id == "" {
		return fmt.Errorf("%w: segment before initialization", ebics.ErrInvalidRequest)
	}
	if number != len(d.segments)+1 {
		return fmt.Errorf("%w: expected segment %d, got %d", ebics.ErrInvalidRequest, len(d.segments)+1, number)
	}
	if number > d.total {
		return fmt.Errorf("%w: segment %d exceeds announced count %d", ebics.ErrInvalidRequest, number, d.total)
	}
	d.segments = append(d.segments, data)
	return nil
}

// Complete reports whether every announced segment has arrived.
func (d *Download) Complete() bool {
	return d.id != "" && len(d.segments) == d.total
}

// Assemble concatenates the received segments into the encrypted
// payload. It fails while segments are still outstanding.
func (d *Download) Assemble() ([]byte, error) {
	if !d.Complete() {
		return nil, fmt.Errorf("%w: %d of %d segments received", ebics.ErrInvalidRequest, len(d.segments), d.total)
	}
	size := 0
	for _, seg := range d.segments {
		size += len(seg)
	}
	out := make([]byte, 0, size)
	for _, seg := range d.segments {
		out = append(out, seg...)
	}
	return out, nil
}

// Close marks the receipt phase as finished. Further segments are
// rejected afterwards.
func (d *Download) Close() error {
	if !d.Complete() {
		return fmt.Errorf("%w: receipt before final segment", ebics.ErrInvalidRequest)
	}
	if d.closed {
		return fmt.Errorf("%w: transaction %s already closed", ebics.ErrInvalidRequest, d.id)
	}
	d.closed = true
	return nil
}
