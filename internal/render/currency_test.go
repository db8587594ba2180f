package render

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestFormatBRL(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"0", "R$ 0,00"},
		{"5", "R$ 5,00"},
		{"999.9", "R$ 999,90"},
		{"1234.56", "R$ 1.234,56"},
		{"1500.5", "R$ 1.500,50"},
		{"1234567.891", "R$ 1.234.567,89"},
		{"-42.1", "-R$ 42,10"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatBRL(decimal.RequireFromString(tt.in)))
		})
	}
}
