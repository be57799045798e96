package constants

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanonicalModel(t *testing.T) {
	cases := map[string]DeviceModel{
		"PCS-931S":    PCS931S,
		"pcs-9705s":   PCS9705S,
		"TESLA4000":   Tesla4000,
		" TESLA 4000": Tesla4000,
		"SEL-411L":    SEL411L,
	}
	for in, want := range cases {
		got, ok := CanonicalModel(in)
		assert.True(t, ok, in)
		assert.Equal(t, want, got, in)
	}

	_, ok := CanonicalModel("REL670")
	assert.False(t, ok)
}

func TestPlaceholder(t *testing.T) {
	assert.Equal(t, "Binary Input 7", Placeholder(7))
	assert.True(t, IsPlaceholder(Placeholder(12)))
	assert.False(t, IsPlaceholder("Interruptor =D.Q01.QA1"))
}
