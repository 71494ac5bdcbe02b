package services_test

import (
	"fmt"
	"math/rand"
	"testing"

	"minicrm/internal/services"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizePhone(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want *string
	}{
		{"plain ten digits", "5321234567", strPtr("5321234567")},
		{"trunk zero", "05321234567", strPtr("5321234567")},
		{"country code", "905321234567", strPtr("5321234567")},
		{"plus country code with formatting", "+90 (532) 123 45 67", strPtr("5321234567")},
		{"country code and trunk zero", "90 0532 123 45 67", strPtr("5321234567")},
		{"dashes", "532-123-45-67", strPtr("5321234567")},
		{"too short", "532123", nil},
		{"too long", "53212345678901", nil},
		{"letters only", "not a phone", nil},
		{"empty", "", nil},
		{"ten digits with leading zero", "0123456789", nil},
		{"two leading zeros", "00123456789", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, services.NormalizePhone(tt.raw))
		})
	}
}

func TestNormalizePhoneIsIdempotent(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	for i := 0; i < 500; i++ {
		raw := fmt.Sprintf("%d", rng.Int63n(1e13))
		first := services.NormalizePhone(raw)
		if first == nil {
			continue
		}
		second := services.NormalizePhone(*first)
		require.NotNil(t, second, "input %s", raw)
		assert.Equal(t, *first, *second, "input %s", raw)
	}

	// A canonical number that happens to start with the country code digits.
	assert.Equal(t, strPtr("9012345678"), services.NormalizePhone("9012345678"))
}
