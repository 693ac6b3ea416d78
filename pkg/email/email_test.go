package email

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDeriveNameFromEmail(t *testing.T) {
	tests := []struct {
		email string
		want  string
	}{
		{"maria.lopez@example.com", "Maria Lopez"},
		{"juan_carlos-perez@example.com", "Juan Carlos Perez"},
		{"ana@example.com", "Ana"},
		{"ana+kyc@example.com", "Ana Kyc"},
		{"plainaddress", "Plainaddress"},
		{"@example.com", "Cliente"},
		{"", "Cliente"},
	}

	for _, tt := range tests {
		t.Run(tt.email, func(t *testing.T) {
			assert.Equal(t, tt.want, DeriveNameFromEmail(tt.email))
		})
	}
}
