package crypto

import (
	"fmt"

	"github.com/beevik/etree"
	"github.com/leifj/signedxml"

	"github.com/sirosfoundation/go-ebics"
)

// Canonicalization algorithm URI advertised in SignedInfo.
const AlgorithmC14N = "http://www.w3.org/TR/2001/REC-xml-c14n-20010315"

// Canonicalize serializes an element subtree into its canonical byte
// form. The bank performs the same normalization before checking the
// authentication digest, so the output must be byte exact; any
// serialization failure is fatal.
//
// The element is detached into its own document first. Namespace
// declarations inherited from ancestors must already be materialized
// on the element (the request builders declare them where signing
// boundaries occur).
func Canonicalize(el *etree.Element) ([]byte, error) {
	if el == nil {
		return nil, fmt.Errorf("%w: nil element", ebics.ErrCanonicalization)
	}
	doc := etree.NewDocument()
	doc.SetRoot(el.Copy())
	raw, err := doc.WriteToString()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ebics.ErrCanonicalization, err)
	}

	canon := signedxml.ExclusiveCanonicalization{}
	out, err := canon.Process(raw, "")
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ebics.ErrCanonicalization, err)
	}
	return []byte(out), nil
}
