package ebics

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVersionGeneration(t *testing.T) {
	cases := []struct {
		version Version
		want    Generation
	}{
		{H003, Gen25},
		{H004, Gen25},
		{H005, Gen30},
	}
	for _, tc := range cases {
		got, err := tc.version.Generation()
		require.NoError(t, err, string(tc.version))
		assert.Equal(t, tc.want, got)
	}

	_, err := Version("H002").Generation()
	assert.ErrorIs(t, err, ErrConfiguration)
}

func TestVersionNamespaces(t *testing.T) {
	assert.Equal(t, "http://www.ebics.org/H003", H003.Namespace())
	assert.Equal(t, "urn:org:ebics:H004", H004.Namespace())
	assert.Equal(t, "urn:org:ebics:H005", H005.Namespace())
	assert.Equal(t, "http://www.ebics.org/S001", H004.NamespaceSignature())
	assert.Equal(t, "urn:org:ebics:S002", H005.NamespaceSignature())
}
