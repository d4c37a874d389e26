package crypto

import (
	"testing"

	"github.com/beevik/etree"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sirosfoundation/go-ebics"
)

func parseElement(t *testing.T, raw []byte) *etree.Element {
	t.Helper()
	doc := etree.NewDocument()
	require.NoError(t, doc.ReadFromBytes(raw))
	require.NotNil(t, doc.Root())
	return doc.Root()
}

func TestCanonicalize_Idempotent(t *testing.T) {
	doc := etree.NewDocument()
	root := doc.CreateElement("header")
	root.CreateAttr("xmlns", "urn:org:ebics:H004")
	root.CreateAttr("authenticate", "true")
	static := root.CreateElement("static")
	static.CreateElement("HostID").SetText("MYHOST")
	static.CreateElement("Nonce").SetText("0A1B")

	once, err := Canonicalize(root)
	require.NoError(t, err)
	twice, err := Canonicalize(parseElement(t, once))
	require.NoError(t, err)
	assert.Equal(t, once, twice)
}

func TestCanonicalize_NormalizesAttributeOrder(t *testing.T) {
	a := parseElement(t, []byte(`<e b="2" a="1"><c/></e>`))
	b := parseElement(t, []byte(`<e a="1" b="2"><c/></e>`))

	ca, err := Canonicalize(a)
	require.NoError(t, err)
	cb, err := Canonicalize(b)
	require.NoError(t, err)
	assert.Equal(t, ca, cb)
}

func TestCanonicalize_NilElement(t *testing.T) {
	_, err := Canonicalize(nil)
	assert.ErrorIs(t, err, ebics.ErrCanonicalization)
}
