package money

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToMinor(t *testing.T) {
	tests := []struct {
		in       string
		expected int64
	}{
		{"1000", 100000},
		{"1000.00", 100000},
		{"0.01", 1},
		{"12.34", 1234},
		{"1.005", 101},
		{"1.004", 100},
		{"0.1", 10},
		{"0.2", 20},
		{"19.99", 1999},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ToMinor(MustMajor(tt.in))
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestToMinor_OutOfRange(t *testing.T) {
	_, err := ToMinor(MustMajor("1e30"))
	assert.ErrorIs(t, err, ErrOutOfRange)

	_, err = ToMinor(MustMajor("92233720368547758.08"))
	assert.ErrorIs(t, err, ErrOutOfRange)
}

func TestToMinor_HugeExponentsRejectedQuickly(t *testing.T) {
	tests := []struct {
		in       string
		expected error
	}{
		{"1e50000000", ErrOutOfRange},
		{"1e2000000000", ErrOutOfRange},
		{"1e-50000000", ErrTooManyDigits},
		{"123456789012345678901234567890123456789012345", ErrTooManyDigits},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			var m Major
			require.NoError(t, json.Unmarshal([]byte(tt.in), &m))

			start := time.Now()
			_, err := ToMinor(m)

			assert.ErrorIs(t, err, tt.expected)
			assert.Less(t, len(err.Error()), 64)
			assert.Less(t, time.Since(start), time.Second)
		})
	}
}

func TestToMinor_LongButValidPrecision(t *testing.T) {
	minor, err := ToMinor(MustMajor("1000.000000000000000000000"))
	require.NoError(t, err)
	assert.Equal(t, int64(100000), minor)
}

func TestFromMinor(t *testing.T) {
	assert.True(t, FromMinor(100000).Equal(decimal.NewFromInt(1000)))
	assert.Equal(t, "1000", FromMinor(100000).String())
	assert.Equal(t, "12.34", FromMinor(1234).String())
	assert.Equal(t, "0.01", FromMinor(1).String())
}

func TestRoundTrip(t *testing.T) {
	for _, major := range []int64{1, 2, 99, 100, 1000, 25000, 999999, 1_000_000_000} {
		m := NewMajor(decimal.NewFromInt(major))
		minor, err := ToMinor(m)
		require.NoError(t, err)
		assert.True(t, FromMinor(minor).Equal(m.Decimal), "round trip of %d", major)
	}

	// Amounts with at most two decimal places survive as well.
	for _, s := range []string{"0.01", "0.1", "10.5", "123.45"} {
		minor, err := ToMinor(MustMajor(s))
		require.NoError(t, err)
		assert.True(t, FromMinor(minor).Equal(MustMajor(s).Decimal), "round trip of %s", s)
	}
}

func TestMajorJSON(t *testing.T) {
	var payload struct {
		Amount Major `json:"amount"`
	}

	require.NoError(t, json.Unmarshal([]byte(`{"amount": 1000.5}`), &payload))
	assert.Equal(t, "1000.5", payload.Amount.String())

	require.NoError(t, json.Unmarshal([]byte(`{"amount": "250"}`), &payload))
	assert.Equal(t, "250", payload.Amount.String())

	out, err := json.Marshal(payload)
	require.NoError(t, err)
	assert.JSONEq(t, `{"amount": 250}`, string(out))
}
