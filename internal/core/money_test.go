package core

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAmount(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"12.34", "12.34"},
		{"12,34", "12.34"},
		{" 7 ", "7"},
		{"-5", "-5"},
		{"0", "0"},
		{"0.005", "0.005"},
	}
	for _, tc := range cases {
		got, err := ParseAmount(tc.in)
		require.NoError(t, err, tc.in)
		assert.True(t, got.Equal(decimal.RequireFromString(tc.want)), "%s -> %s", tc.in, got)
	}

	for _, bad := range []string{"", "abc", "1,234.5,6", "12..3"} {
		_, err := ParseAmount(bad)
		assert.ErrorIs(t, err, ErrInvalidAmount, bad)
	}
}

func TestFormatAmount(t *testing.T) {
	assert.Equal(t, "10.00", FormatAmount(decimal.NewFromInt(10)))
	assert.Equal(t, "10.50", FormatAmount(decimal.RequireFromString("10.5")))
	assert.Equal(t, "0.125", FormatAmount(decimal.RequireFromString("0.125")))
}

func TestTotals(t *testing.T) {
	food := "food"
	totals := Totals([]CategoryTotal{
		{Category: &food, Total: decimal.NewFromInt(15)},
		{Category: nil, Total: decimal.NewFromInt(4)},
	})
	require.Len(t, totals, 2)
	assert.True(t, totals["food"].Equal(decimal.NewFromInt(15)))
	assert.True(t, totals[""].Equal(decimal.NewFromInt(4)))
}
