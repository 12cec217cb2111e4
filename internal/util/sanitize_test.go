package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSanitizePropertyKey(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"loan amount", "loan_amount"},
		{"herd-size", "herd_size"},
		{" cattle shed ", "cattle_shed"},
		{"plot_no", "plot_no"},
		{"Plot2", "Plot2"},
	}
	for _, tc := range cases {
		got, err := SanitizePropertyKey(tc.in)
		require.NoError(t, err, "key %q", tc.in)
		assert.Equal(t, tc.want, got)
	}
}

func TestSanitizePropertyKey_Rejected(t *testing.T) {
	for _, key := range []string{
		"",
		"   ",
		"2cows",
		"a;b",
		"a.b",
		"a`b",
		"a$b",
		"ключ",
	} {
		_, err := SanitizePropertyKey(key)
		assert.ErrorIs(t, err, ErrUnsafeKey, "key %q", key)
	}
}

func TestSanitizeInput(t *testing.T) {
	assert.Equal(t, "Ramesh", SanitizeInput("  Ramesh \n"))
	assert.Equal(t, "", SanitizeInput("   "))
}
