package identity

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewIsUnique(t *testing.T) {
	a, b := New(), New()
	assert.False(t, a.IsZero())
	assert.False(t, b.IsZero())
	assert.NotEqual(t, a, b)
}

func TestEqualityIsTheOnlySemantics(t *testing.T) {
	a := New()
	same := ID(a.String())
	assert.Equal(t, a, same)

	var zero ID
	assert.True(t, zero.IsZero())
	assert.Equal(t, "", zero.String())
}
