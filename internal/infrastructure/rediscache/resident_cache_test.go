package rediscache

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKeyRegistered(t *testing.T) {
	assert.Equal(t, "resident:registered:ana@example.com", keyRegistered("ana@example.com"))
}
