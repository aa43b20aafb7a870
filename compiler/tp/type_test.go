package tp

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLookup(t *testing.T) {
	for _, tc := range []struct {
		name string
		typ  Type
		ok   bool
	}{
		{"void", Void, true},
		{"int", Float, true},
		{"float", Float, true},
		{"bool", Bool, true},
		{"ffc", FFC, true},
		{"itemdata", ItemClass, true},
		{"<invalid>", Invalid, false},
		{"string", Invalid, false},
	} {
		typ, ok := Lookup(tc.name)
		assert.Equal(t, tc.ok, ok, tc.name)
		assert.Equal(t, tc.typ, typ, tc.name)
	}
}

func TestPointer(t *testing.T) {
	assert.True(t, FFC.IsPointer())
	assert.True(t, Link.IsPointer())
	assert.False(t, Float.IsPointer())
	assert.False(t, Void.IsPointer())
}
