package money

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name     string
		cents    int64
		currency string
		want     int64
	}{
		{"positive cents", 1234, USD, 1234},
		{"zero", 0, USD, 0},
		{"negative cents", -5000, USD, -5000},
		{"euro", 1000, EUR, 1000},
		{"yen (no decimals)", 10000, JPY, 10000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := New(tt.cents, tt.currency)
			assert.Equal(t, tt.want, m.Amount())
			assert.Equal(t, tt.currency, m.Currency())
		})
	}
}

func TestNewFromDecimal(t *testing.T) {
	tests := []struct {
		name   string
		amount string
		want   int64
	}{
		{"precise decimal", "123.45", 12345},
		{"many decimals round", "99.999", 10000},
		{"whole number", "500", 50000},
		{"negative", "-25.50", -2550},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, err := decimal.NewFromString(tt.amount)
			require.NoError(t, err)
			assert.Equal(t, tt.want, NewFromDecimal(d, USD).Amount())
		})
	}
}

func TestArithmetic(t *testing.T) {
	t.Run("add", func(t *testing.T) {
		sum, err := New(1050, USD).Add(New(950, USD))
		require.NoError(t, err)
		assert.Equal(t, int64(2000), sum.Amount())
	})

	t.Run("add currency mismatch", func(t *testing.T) {
		_, err := New(1050, USD).Add(New(950, EUR))
		assert.Error(t, err)
	})

	t.Run("subtract below zero", func(t *testing.T) {
		diff, err := New(500, USD).Subtract(New(900, USD))
		require.NoError(t, err)
		assert.Equal(t, int64(-400), diff.Amount())
		assert.True(t, diff.IsNegative())
	})

	t.Run("must add panics on mismatch", func(t *testing.T) {
		assert.Panics(t, func() {
			New(100, USD).MustAdd(New(100, EUR))
		})
	})

	t.Run("negate", func(t *testing.T) {
		assert.Equal(t, int64(-1234), New(1234, USD).Negate().Amount())
	})
}

func TestDisplay(t *testing.T) {
	tests := []struct {
		name  string
		money *Money
		want  string
	}{
		{"dollars with thousands", New(123456, USD), "$1,234.56"},
		{"zero", Zero(USD), "$0.00"},
		{"nil", nil, "$0.00"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.money.Display())
		})
	}
}

func TestToDecimal(t *testing.T) {
	d := New(12345, USD).ToDecimal()
	assert.True(t, d.Equal(decimal.RequireFromString("123.45")))

	// Zero-decimal currencies keep whole units.
	y := New(500, JPY).ToDecimal()
	assert.True(t, y.Equal(decimal.NewFromInt(500)))
}

func TestPercentageOf(t *testing.T) {
	tests := []struct {
		name  string
		part  *Money
		total *Money
		want  string
	}{
		{"three quarters", New(7500, USD), New(10000, USD), "75"},
		{"over total", New(15000, USD), New(10000, USD), "150"},
		{"zero total", New(100, USD), Zero(USD), "0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.part.PercentageOf(tt.total)
			assert.True(t, got.Equal(decimal.RequireFromString(tt.want)), got.String())
		})
	}
}

func TestJSONRoundTrip(t *testing.T) {
	m := New(4250, USD)

	data, err := json.Marshal(m)
	require.NoError(t, err)
	assert.JSONEq(t, `{"amount":4250,"currency":"USD","display":"$42.50"}`, string(data))

	var back Money
	require.NoError(t, json.Unmarshal(data, &back))
	assert.True(t, m.Equals(&back))
}

func TestTestDataGenerator(t *testing.T) {
	gen := NewTestDataGeneratorWithSeed(42)

	t.Run("expenses stay in range", func(t *testing.T) {
		for _, e := range gen.Expenses(USD, 50) {
			assert.GreaterOrEqual(t, e.Amount.Amount(), int64(1))
			assert.LessOrEqual(t, e.Amount.Amount(), int64(50000))
			assert.NotEmpty(t, e.Note)
			assert.Contains(t, expenseCategories, e.Category)
		}
	})

	t.Run("seed is reproducible", func(t *testing.T) {
		a := NewTestDataGeneratorWithSeed(7).Expense(USD)
		b := NewTestDataGeneratorWithSeed(7).Expense(USD)
		assert.Equal(t, a.Note, b.Note)
		assert.Equal(t, a.Amount.Amount(), b.Amount.Amount())
	})

	t.Run("decimal amounts are two places", func(t *testing.T) {
		d := gen.RandomDecimalAmount(1, 100)
		assert.True(t, d.Equal(d.Round(2)))
		assert.True(t, d.GreaterThanOrEqual(decimal.NewFromInt(1)))
	})
}
