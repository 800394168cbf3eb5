package record

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestJurisdictionRegistry_Normalize(t *testing.T) {
	t.Parallel()

	r := NewJurisdictionRegistry()
	cases := []struct {
		in   string
		want string
		ok   bool
	}{
		{"br", "BR", true},
		{"Brasil", "BR", true},
		{"PCT", "WO", true},
		{"EPO", "EP", true},
		{"DE", "DE", true},
		{"Germany", "", false},
		{"", "", false},
	}
	for _, tc := range cases {
		got, ok := r.Normalize(tc.in)
		assert.Equal(t, tc.ok, ok, tc.in)
		assert.Equal(t, tc.want, got, tc.in)
	}
}

func TestJurisdictionRegistry_NameAndList(t *testing.T) {
	t.Parallel()

	r := NewJurisdictionRegistry()
	assert.Equal(t, "Brazil", r.Name("BR"))
	assert.Equal(t, "DE", r.Name("DE"))
	assert.True(t, r.Supported("za"))
	assert.False(t, r.Supported("DE"))

	list := r.List()
	assert.Len(t, list, 17)
	assert.Equal(t, "AR", list[0].Code)
}

func TestInferJurisdiction(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "WO", InferJurisdiction("wo2013084138"))
	assert.Equal(t, "BR", InferJurisdiction("BR 11 2015 003344"))
	assert.Equal(t, "", InferJurisdiction("1234"))
	assert.Equal(t, "", InferJurisdiction("B"))
}

func TestCanonicalNumber(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "WO2013084138", CanonicalNumber("WO 2013/084138"))
	assert.Equal(t, "BR1120150033440", CanonicalNumber("br 11 2015-003344-0"))
}

//Personal.AI order the ending
