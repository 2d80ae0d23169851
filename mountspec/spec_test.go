package mountspec

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/nestybox/mountbrokerd/domain"
)

func TestParse_EmptyType(t *testing.T) {
	_, err := Parse(domain.MountSpecVariant{Type: "", Fields: nil})

	assert.Error(t, err)
	berr, ok := err.(*domain.BrokerError)
	if assert.True(t, ok) {
		assert.Equal(t, domain.InvalidArgument, berr.Kind)
	}
}

func TestEqualAndMatch(t *testing.T) {
	a := New("smb", map[string]string{"host": "srv", "share": "docs"})
	b := New("smb", map[string]string{"host": "srv", "share": "docs"})
	c := New("smb", map[string]string{"host": "other"})

	assert.True(t, a.Equal(b))
	assert.True(t, a.Match(b))
	assert.False(t, a.Equal(c))
	assert.False(t, a.Match(c))
}

func TestHashStableAndSensitiveToFields(t *testing.T) {
	a := New("smb", map[string]string{"host": "srv", "share": "docs"})
	b := New("smb", map[string]string{"share": "docs", "host": "srv"})
	c := New("smb", map[string]string{"host": "srv"})

	assert.Equal(t, a.Hash(), b.Hash(), "field insertion order must not affect the hash")
	assert.NotEqual(t, a.Hash(), c.Hash())
}

func TestWireRoundTrip(t *testing.T) {
	want := domain.MountSpecVariant{Type: "smb", Fields: map[string]string{"host": "srv"}}

	spec, err := Parse(want)
	assert.NoError(t, err)

	got := spec.ToWire()
	assert.Equal(t, want.Type, got.Type)
	assert.Equal(t, want.Fields, got.Fields)

	// Re-encoding a re-parsed spec must be byte-for-byte identical
	// (spec.md §8 property 3, lifted to the spec level).
	spec2, err := Parse(got)
	assert.NoError(t, err)
	assert.Equal(t, got, spec2.ToWire())
}
