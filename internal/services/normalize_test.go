package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeFullName(t *testing.T) {
	assert.Equal(t, "john doe", NormalizeFullName("  John   DOE "))
	assert.Equal(t, "", NormalizeFullName("   "))
	assert.Equal(t, "ali", NormalizeFullName("Ali"))
}

func TestNormalizePhone(t *testing.T) {
	assert.Equal(t, "989121234567", NormalizePhone("+98 912-123 4567"))
	assert.Equal(t, "", NormalizePhone("no digits"))
	assert.Equal(t, "0590000000", NormalizePhone("0590000000"))
}
