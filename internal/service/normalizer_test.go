package service

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeStatus(t *testing.T) {
	assert.Equal(t, "issued_paid", normalizeStatus(" Issued Paid "))
	assert.Equal(t, "issued_paid", normalizeStatus("issued-paid"))
	assert.Equal(t, "", normalizeStatus("   "))
}

func TestNormalizePremium(t *testing.T) {
	assert.Equal(t, "$1,200.00", normalizePremium("  $1,200.00\n"))
	assert.Equal(t, "n/a", normalizePremium([]byte(" n/a ")))
	assert.Equal(t, json.Number("19.5"), normalizePremium(json.Number("19.5")))
	assert.Nil(t, normalizePremium(nil))
}

func TestSanitizeString(t *testing.T) {
	assert.Equal(t, "Blue Cross", sanitizeString("\tBlue \n  Cross "))
	assert.Equal(t, "a@b.test", normalizeEmail(" A@B.Test "))
}
