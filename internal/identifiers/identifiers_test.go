package identifiers

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseISIN(t *testing.T) {
	t.Run("valid apple isin", func(t *testing.T) {
		isin, err := ParseISIN("US0378331005")
		require.NoError(t, err)
		assert.Equal(t, "US0378331005", isin.String())
	})

	t.Run("bad check digit fails luhn", func(t *testing.T) {
		_, err := ParseISIN("US0378331006")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "check digit invalid")
	})

	t.Run("lowercase country code rejected", func(t *testing.T) {
		_, err := ParseISIN("us0378331005")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "country code")
	})

	t.Run("wrong length rejected", func(t *testing.T) {
		_, err := ParseISIN("US037833100")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "ISIN")
	})
}

func TestParseLEI(t *testing.T) {
	_, err := ParseLEI("549300DTUYXVMJXZNY71")
	require.NoError(t, err)

	_, err = ParseLEI("short")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "LEI")

	_, err = ParseLEI("549300DTUYXVMJXZNY7!")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "alphanumeric")
}

func TestParseUTI(t *testing.T) {
	_, err := ParseUTI("549300DTUYXVMJXZNY71RFQ00001")
	require.NoError(t, err)

	_, err = ParseUTI("")
	require.Error(t, err)

	long := make([]byte, 53)
	for i := range long {
		long[i] = 'A'
	}
	_, err = ParseUTI(string(long))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "52 characters")
}

func TestDecimalWrappers(t *testing.T) {
	t.Run("positive decimal rejects zero and negative", func(t *testing.T) {
		_, err := ParsePositiveDecimal(decimal.Zero)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "PositiveDecimal")

		_, err = ParsePositiveDecimal(decimal.NewFromInt(-1))
		require.Error(t, err)

		p, err := ParsePositiveDecimal(decimal.NewFromInt(10))
		require.NoError(t, err)
		assert.True(t, p.Value().Equal(decimal.NewFromInt(10)))
	})

	t.Run("non-negative decimal accepts zero, rejects negative", func(t *testing.T) {
		_, err := ParseNonNegativeDecimal(decimal.Zero)
		require.NoError(t, err)

		_, err = ParseNonNegativeDecimal(decimal.NewFromInt(-1))
		require.Error(t, err)
	})

	t.Run("non-zero decimal allows negative rates", func(t *testing.T) {
		n, err := ParseNonZeroDecimal(decimal.NewFromFloat(-0.0125))
		require.NoError(t, err)
		assert.True(t, n.Value().IsNegative())

		_, err = ParseNonZeroDecimal(decimal.Zero)
		require.Error(t, err)
	})
}

func TestNewMoney(t *testing.T) {
	m, err := NewMoney(decimal.NewFromInt(100), "USD")
	require.NoError(t, err)
	assert.Equal(t, "USD", m.Currency().String())
	assert.True(t, m.Amount().Equal(decimal.NewFromInt(100)))

	_, err = NewMoney(decimal.NewFromInt(100), "")
	require.Error(t, err)
}

func TestDate(t *testing.T) {
	t.Run("parses and renders iso calendar dates", func(t *testing.T) {
		d, err := ParseDate("2026-07-31")
		require.NoError(t, err)
		assert.Equal(t, "2026-07-31", d.String())
		assert.True(t, d.Before(d.AddDays(1)))
		assert.True(t, d.AddDays(1).After(d))
	})

	t.Run("rejects malformed input", func(t *testing.T) {
		_, err := ParseDate("31/07/2026")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "Date")
	})

	t.Run("round-trips as a tagged date envelope", func(t *testing.T) {
		d := NewDate(2026, time.July, 31)
		data, err := json.Marshal(d)
		require.NoError(t, err)
		assert.Equal(t, `{"__date__":"2026-07-31"}`, string(data))

		var back Date
		require.NoError(t, json.Unmarshal(data, &back))
		assert.Equal(t, d, back)
	})

	t.Run("truncates a timestamp to its calendar date", func(t *testing.T) {
		d := DateOf(time.Date(2026, 7, 31, 23, 59, 0, 0, time.UTC))
		assert.Equal(t, "2026-07-31", d.String())
	})
}

func TestMoneyWireRejectsForeignTypeTag(t *testing.T) {
	var m Money
	err := json.Unmarshal([]byte(`{"__type__":"github.com/evil/pkg.Money","amount":"1","currency":"USD"}`), &m)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "allow-list")
}

func TestUtcDatetime(t *testing.T) {
	t.Run("parses offset iso-8601 string and normalizes to utc", func(t *testing.T) {
		dt, err := ParseUtcDatetime("2026-07-31T12:00:00+02:00")
		require.NoError(t, err)
		assert.Equal(t, 10, dt.Value().Hour())
		assert.Equal(t, time.UTC, dt.Value().Location())
	})

	t.Run("rejects malformed input", func(t *testing.T) {
		_, err := ParseUtcDatetime("not-a-date")
		require.Error(t, err)
	})

	t.Run("location-less construction panics", func(t *testing.T) {
		assert.Panics(t, func() {
			_, _ = NewUtcDatetime(time.Date(2026, 7, 31, 12, 0, 0, 0, nil))
		})
	})
}

func TestIdempotencyKey(t *testing.T) {
	_, err := ParseIdempotencyKey("")
	require.Error(t, err)

	k, err := ParseIdempotencyKey("rfq-001-booking")
	require.NoError(t, err)
	assert.Equal(t, "rfq-001-booking", k.String())
}

func TestScalarJSONRoundTrips(t *testing.T) {
	t.Run("LEI", func(t *testing.T) {
		v, err := ParseLEI("549300DTUYXVMJXZNY71")
		require.NoError(t, err)
		data, err := json.Marshal(v)
		require.NoError(t, err)
		assert.Equal(t, `"549300DTUYXVMJXZNY71"`, string(data))

		var back LEI
		require.NoError(t, json.Unmarshal(data, &back))
		assert.Equal(t, v, back)
	})

	t.Run("UTI", func(t *testing.T) {
		v, err := ParseUTI("549300DTUYXVMJXZNY71RFQ00001")
		require.NoError(t, err)
		data, err := json.Marshal(v)
		require.NoError(t, err)

		var back UTI
		require.NoError(t, json.Unmarshal(data, &back))
		assert.Equal(t, v, back)
	})

	t.Run("ISIN", func(t *testing.T) {
		v, err := ParseISIN("US0378331005")
		require.NoError(t, err)
		data, err := json.Marshal(v)
		require.NoError(t, err)

		var back ISIN
		require.NoError(t, json.Unmarshal(data, &back))
		assert.Equal(t, v, back)
	})

	t.Run("NonEmptyStr", func(t *testing.T) {
		v, err := ParseNonEmptyStr("USD")
		require.NoError(t, err)
		data, err := json.Marshal(v)
		require.NoError(t, err)

		var back NonEmptyStr
		require.NoError(t, json.Unmarshal(data, &back))
		assert.Equal(t, v, back)
	})

	t.Run("IdempotencyKey", func(t *testing.T) {
		v, err := ParseIdempotencyKey("rfq-001-booking")
		require.NoError(t, err)
		data, err := json.Marshal(v)
		require.NoError(t, err)

		var back IdempotencyKey
		require.NoError(t, json.Unmarshal(data, &back))
		assert.Equal(t, v, back)
	})

	t.Run("decoding invalid wire value surfaces the type name", func(t *testing.T) {
		var lei LEI
		err := json.Unmarshal([]byte(`"short"`), &lei)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "LEI")
	})
}
