package domain

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func decimalsOf(s string) int {
	i := strings.IndexByte(s, '.')
	if i < 0 {
		return 0
	}
	return len(s) - i - 1
}

func TestFormatPrice_Tiers(t *testing.T) {
	t.Parallel()
	cases := []struct {
		in   float64
		want string
	}{
		{64231.87, "64232"},
		{1000, "1000"},
		{512.34, "512.3"},
		{100, "100.0"},
		{42.1234, "42.12"},
		{1, "1.00"},
		{0.5, "0.500000"},
		{0.00001234, "0.000012"},
		{0, "0.000000"},
	}
	for _, c := range cases {
		require.Equal(t, c.want, FormatPrice(c.in), "FormatPrice(%v)", c.in)
	}
}

func TestFormatPrice_DecimalCountByMagnitude(t *testing.T) {
	t.Parallel()
	for _, p := range []float64{1500.2, 2500000, 150.55, 999.4, 1.5, 99.5, 0.1, 0.999} {
		got := FormatPrice(p)
		var want int
		switch {
		case p >= 1000:
			want = 0
		case p >= 100:
			want = 1
		case p >= 1:
			want = 2
		default:
			want = 6
		}
		require.Equal(t, want, decimalsOf(got), "FormatPrice(%v)=%s", p, got)
	}
}

func TestFormatPrice_Idempotent(t *testing.T) {
	t.Parallel()
	for _, p := range []float64{0.000001, 0.0123456789, 0.9999996, 1.005, 99.996, 123.45, 999.96, 1234.5, 98765.4321} {
		first := FormatPrice(p)
		d, err := ParsePrice(first)
		require.NoError(t, err)
		f, _ := d.Float64()
		require.Equal(t, first, FormatPrice(f), "reformat of %s", first)
	}
}

func TestFormatPrice_RoundsIntoNextTier(t *testing.T) {
	t.Parallel()
	require.Equal(t, "1000", FormatPrice(999.96))
	require.Equal(t, "100.0", FormatPrice(99.996))
	require.Equal(t, "1.00", FormatPrice(0.9999996))
}
