package encryptor

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNormalizers(t *testing.T) {
	tests := []struct {
		name     string
		norm     Normalizer
		input    string
		expected string
	}{
		{"none keeps input", NormalizeNone, " Alice ", " Alice "},
		{"trim", NormalizeTrim, " Alice ", "Alice"},
		{"lower", NormalizeLower, " Alice ", " alice "},
		{"email", NormalizeEmail, " Alice@Example.COM ", "alice@example.com"},
		{"email blank", NormalizeEmail, "  ", ""},
		{"phone", NormalizePhone, "(555) 123-4567", "5551234567"},
		{"phone international", NormalizePhone, "+1-555-123-4567", "15551234567"},
		{"phone no digits", NormalizePhone, "n/a", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.expected, tt.norm(tt.input))
		})
	}
}

func TestNormalizerByName(t *testing.T) {
	for _, name := range []string{"", "none", "trim", "lower", "email", "phone", " EMAIL "} {
		norm, err := NormalizerByName(name)
		require.NoError(t, err, name)
		require.NotNil(t, norm, name)
	}

	norm, err := NormalizerByName("Email")
	require.NoError(t, err)
	require.Equal(t, "a@b.c", norm(" A@B.C "))

	_, err = NormalizerByName("soundex")
	require.ErrorIs(t, err, ErrInvalidProperty)
}
