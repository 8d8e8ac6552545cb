package registry

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"already normalized", "acme", "acme"},
		{"uppercase", "AcMe", "acme"},
		{"underscores and punctuation stripped", "My_Domain!", "mydomain"},
		{"hyphens kept", "my-handle", "my-handle"},
		{"digits kept", "site42", "site42"},
		{"surrounding whitespace", "  acme  ", "acme"},
		{"inner whitespace stripped", "my handle", "myhandle"},
		{"unicode stripped", "café", "caf"},
		{"only invalid characters", "@#$%", ""},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Normalize(tt.in))
		})
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	inputs := []string{"AcMe", "My_Domain!", "my-handle", "  Mixed Case 42  ", "", "----"}
	for _, in := range inputs {
		once := Normalize(in)
		assert.Equal(t, once, Normalize(once), "Normalize should be idempotent for %q", in)
	}
}
