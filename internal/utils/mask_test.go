package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMaskSecret(t *testing.T) {
	assert.Equal(t, "*****", MaskSecret("abc"))
	assert.Equal(t, "sk_l*****", MaskSecret("sk_live_123456"))
}

func TestMaskEmail(t *testing.T) {
	assert.Equal(t, "j*****@example.com", MaskEmail("jane@example.com"))
	assert.Equal(t, "*****", MaskEmail("bad"))
}
