package utils

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewTxRef(t *testing.T) {
	ref := NewTxRef("chk", 42)
	assert.True(t, strings.HasPrefix(ref, "chk_42_"))

	// same entity, same instant: still unique
	seen := map[string]bool{}
	for i := 0; i < 100; i++ {
		r := NewTxRef("tpu", 7)
		assert.False(t, seen[r], "duplicate reference %s", r)
		seen[r] = true
	}
}

func TestNewOrderNumber(t *testing.T) {
	n := NewOrderNumber()
	assert.True(t, strings.HasPrefix(n, "ORD-"))
	assert.NotEqual(t, n, NewOrderNumber())
}
