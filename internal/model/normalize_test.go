package model

import (
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeNumber(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want *float64
	}{
		{"nil", nil, nil},
		{"empty string", "", nil},
		{"lone dash", "-", nil},
		{"whitespace only", "   ", nil},
		{"plain integer", "1234", f(1234)},
		{"thousands separators", "1,234,567", f(1234567)},
		{"dollar sign", "$500", f(500)},
		{"accounting negative", "(2,500)", f(-2500)},
		{"dollar accounting combo", "$(1,234.5)", f(-1234.5)},
		{"leading whitespace", "  42.5 ", f(42.5)},
		{"float passthrough", 3.14, f(3.14)},
		{"int passthrough", 7, f(7)},
		{"int64 passthrough", int64(-9), f(-9)},
		{"garbage", "N/A", nil},
		{"bool", true, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NormalizeNumber(tt.in)
			if tt.want == nil {
				assert.Nil(t, got)
				return
			}
			require.NotNil(t, got)
			assert.InDelta(t, *tt.want, *got, 1e-9)
		})
	}
}

func TestNormalizeNumberIdempotent(t *testing.T) {
	first := NormalizeNumber("$(1,234.5)")
	require.NotNil(t, first)

	second := NormalizeNumber(strconv.FormatFloat(*first, 'f', -1, 64))
	require.NotNil(t, second)
	assert.Equal(t, *first, *second)
}

func TestNormalizeCIK(t *testing.T) {
	assert.Equal(t, "0000320193", NormalizeCIK("320193"))
	assert.Equal(t, "0000320193", NormalizeCIK("0000320193"))
	assert.Equal(t, "0000320193", NormalizeCIK("320-193"))
	assert.Equal(t, "0000320193", NormalizeCIK("CIK 320193"))
	assert.Equal(t, "0000000000", NormalizeCIK(""))
}

func f(v float64) *float64 { return &v }
