// Package identifiers provides the validated scalar value types (LEI,
// UTI, ISIN, Money, and small numeric/string wrappers) used throughout
// the RFQ data model. Every type's zero value is unreachable through normal
// construction: the only way to obtain one is a ParseX function that
// enforces the type's invariant, or the codec calling that same
// function on decode. No field is exported, so there is no bypass.
package identifiers

import (
	"fmt"
	"strings"
	"time"

	"github.com/relvacode/iso8601"
	"github.com/segmentio/encoding/json"
	"github.com/shopspring/decimal"

	"github.com/aristath/attestor-rfq/internal/codec"
)

// LEI is a Legal Entity Identifier: exactly 20 alphanumeric characters.
type LEI struct{ value string }

// ParseLEI validates and wraps a raw LEI string.
func ParseLEI(raw string) (LEI, error) {
	if len(raw) != 20 {
		return LEI{}, fmt.Errorf("LEI: must be 20 characters, got %d", len(raw))
	}
	if !isAlnum(raw) {
		return LEI{}, fmt.Errorf("LEI: must be alphanumeric, got %q", raw)
	}
	return LEI{value: raw}, nil
}

// String returns the wrapped LEI value.
func (l LEI) String() string { return l.value }

// MarshalJSON renders the LEI as a plain JSON string.
func (l LEI) MarshalJSON() ([]byte, error) { return json.Marshal(l.value) }

// UnmarshalJSON parses a plain JSON string and re-validates it.
func (l *LEI) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("LEI: %w", err)
	}
	v, err := ParseLEI(raw)
	if err != nil {
		return err
	}
	*l = v
	return nil
}

// UTI is a Unique Transaction Identifier: 1-52 characters, with the
// first 20 characters required to be alphanumeric.
type UTI struct{ value string }

// ParseUTI validates and wraps a raw UTI string.
func ParseUTI(raw string) (UTI, error) {
	if raw == "" {
		return UTI{}, fmt.Errorf("UTI: must be non-empty")
	}
	if len(raw) > 52 {
		return UTI{}, fmt.Errorf("UTI: must be at most 52 characters, got %d", len(raw))
	}
	prefixLen := len(raw)
	if prefixLen > 20 {
		prefixLen = 20
	}
	prefix := raw[:prefixLen]
	if !isAlnum(prefix) {
		return UTI{}, fmt.Errorf("UTI: first 20 chars must be alphanumeric, got %q", prefix)
	}
	return UTI{value: raw}, nil
}

// String returns the wrapped UTI value.
func (u UTI) String() string { return u.value }

// MarshalJSON renders the UTI as a plain JSON string.
func (u UTI) MarshalJSON() ([]byte, error) { return json.Marshal(u.value) }

// UnmarshalJSON parses a plain JSON string and re-validates it.
func (u *UTI) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("UTI: %w", err)
	}
	v, err := ParseUTI(raw)
	if err != nil {
		return err
	}
	*u = v
	return nil
}

// ISIN is an International Securities Identification Number: 12
// characters, with a Luhn check digit computed over the letter-expanded
// digit string (A=10 ... Z=35).
type ISIN struct{ value string }

// ParseISIN validates and wraps a raw ISIN string.
func ParseISIN(raw string) (ISIN, error) {
	if len(raw) != 12 {
		return ISIN{}, fmt.Errorf("ISIN: must be 12 characters, got %d", len(raw))
	}
	country := raw[:2]
	if !isAllUpperAlpha(country) {
		return ISIN{}, fmt.Errorf("ISIN: country code must be 2 uppercase letters, got %q", country)
	}
	body := raw[2:11]
	if !isAlnum(body) {
		return ISIN{}, fmt.Errorf("ISIN: body must be alphanumeric, got %q", body)
	}
	if raw[11] < '0' || raw[11] > '9' {
		return ISIN{}, fmt.Errorf("ISIN: check digit must be numeric, got %q", string(raw[11]))
	}
	if !isinLuhnValid(raw) {
		return ISIN{}, fmt.Errorf("ISIN: check digit invalid for %q", raw)
	}
	return ISIN{value: raw}, nil
}

// String returns the wrapped ISIN value.
func (i ISIN) String() string { return i.value }

// MarshalJSON renders the ISIN as a plain JSON string.
func (i ISIN) MarshalJSON() ([]byte, error) { return json.Marshal(i.value) }

// UnmarshalJSON parses a plain JSON string and re-validates it.
func (i *ISIN) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("ISIN: %w", err)
	}
	v, err := ParseISIN(raw)
	if err != nil {
		return err
	}
	*i = v
	return nil
}

// isinLuhnValid expands each character of the ISIN to its digit string
// (digits pass through, letters become 10-35) and runs the standard
// Luhn check over the resulting digit sequence.
func isinLuhnValid(raw string) bool {
	var digits []byte
	for _, c := range raw {
		switch {
		case c >= '0' && c <= '9':
			digits = append(digits, byte(c-'0'))
		case c >= 'A' && c <= 'Z':
			for _, d := range fmt.Sprintf("%d", int(c-'A')+10) {
				digits = append(digits, byte(d-'0'))
			}
		default:
			return false
		}
	}

	total := 0
	for i := 0; i < len(digits); i++ {
		d := int(digits[len(digits)-1-i])
		if i%2 == 1 {
			d *= 2
			if d > 9 {
				d -= 9
			}
		}
		total += d
	}
	return total%10 == 0
}

// NonEmptyStr wraps a string that must be non-empty.
type NonEmptyStr struct{ value string }

// ParseNonEmptyStr validates and wraps a raw string.
func ParseNonEmptyStr(raw string) (NonEmptyStr, error) {
	if raw == "" {
		return NonEmptyStr{}, fmt.Errorf("NonEmptyStr: must be non-empty")
	}
	return NonEmptyStr{value: raw}, nil
}

// String returns the wrapped string value.
func (s NonEmptyStr) String() string { return s.value }

// MarshalJSON renders the value as a plain JSON string.
func (s NonEmptyStr) MarshalJSON() ([]byte, error) { return json.Marshal(s.value) }

// UnmarshalJSON parses a plain JSON string and re-validates it.
func (s *NonEmptyStr) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("NonEmptyStr: %w", err)
	}
	v, err := ParseNonEmptyStr(raw)
	if err != nil {
		return err
	}
	*s = v
	return nil
}

// PositiveDecimal wraps a decimal.Decimal that must be strictly > 0.
type PositiveDecimal struct{ value decimal.Decimal }

// ParsePositiveDecimal validates and wraps a decimal value.
func ParsePositiveDecimal(d decimal.Decimal) (PositiveDecimal, error) {
	if d.Sign() <= 0 {
		return PositiveDecimal{}, fmt.Errorf("PositiveDecimal: must be > 0, got %s", d.String())
	}
	return PositiveDecimal{value: d}, nil
}

// Value returns the wrapped decimal value.
func (p PositiveDecimal) Value() decimal.Decimal { return p.value }

// MarshalJSON renders the value as a tagged decimal envelope.
func (p PositiveDecimal) MarshalJSON() ([]byte, error) { return codec.MarshalDecimal(p.value) }

// UnmarshalJSON parses a tagged decimal envelope and re-validates it.
func (p *PositiveDecimal) UnmarshalJSON(data []byte) error {
	d, err := codec.UnmarshalDecimal(data)
	if err != nil {
		return err
	}
	v, err := ParsePositiveDecimal(d)
	if err != nil {
		return err
	}
	*p = v
	return nil
}

// NonNegativeDecimal wraps a decimal.Decimal that must be >= 0.
type NonNegativeDecimal struct{ value decimal.Decimal }

// ParseNonNegativeDecimal validates and wraps a decimal value.
func ParseNonNegativeDecimal(d decimal.Decimal) (NonNegativeDecimal, error) {
	if d.Sign() < 0 {
		return NonNegativeDecimal{}, fmt.Errorf("NonNegativeDecimal: must be >= 0, got %s", d.String())
	}
	return NonNegativeDecimal{value: d}, nil
}

// Value returns the wrapped decimal value.
func (n NonNegativeDecimal) Value() decimal.Decimal { return n.value }

// MarshalJSON renders the value as a tagged decimal envelope.
func (n NonNegativeDecimal) MarshalJSON() ([]byte, error) { return codec.MarshalDecimal(n.value) }

// UnmarshalJSON parses a tagged decimal envelope and re-validates it.
func (n *NonNegativeDecimal) UnmarshalJSON(data []byte) error {
	d, err := codec.UnmarshalDecimal(data)
	if err != nil {
		return err
	}
	v, err := ParseNonNegativeDecimal(d)
	if err != nil {
		return err
	}
	*n = v
	return nil
}

// NonZeroDecimal wraps a decimal.Decimal that must not equal zero. Rates
// and forward points may be negative, so this only excludes zero.
type NonZeroDecimal struct{ value decimal.Decimal }

// ParseNonZeroDecimal validates and wraps a decimal value.
func ParseNonZeroDecimal(d decimal.Decimal) (NonZeroDecimal, error) {
	if d.Sign() == 0 {
		return NonZeroDecimal{}, fmt.Errorf("NonZeroDecimal: must be non-zero")
	}
	return NonZeroDecimal{value: d}, nil
}

// Value returns the wrapped decimal value.
func (n NonZeroDecimal) Value() decimal.Decimal { return n.value }

// MarshalJSON renders the value as a tagged decimal envelope.
func (n NonZeroDecimal) MarshalJSON() ([]byte, error) { return codec.MarshalDecimal(n.value) }

// UnmarshalJSON parses a tagged decimal envelope and re-validates it.
func (n *NonZeroDecimal) UnmarshalJSON(data []byte) error {
	d, err := codec.UnmarshalDecimal(data)
	if err != nil {
		return err
	}
	v, err := ParseNonZeroDecimal(d)
	if err != nil {
		return err
	}
	*n = v
	return nil
}

// Money is a decimal amount paired with a non-empty currency code.
type Money struct {
	amount   decimal.Decimal
	currency NonEmptyStr
}

// moneyTypeName registers Money in the codec's decode allow-list, so a
// payload tagged with its name resolves and anything else is refused.
var moneyTypeName = codec.RegisterType(Money{})

// NewMoney validates and constructs a Money value.
func NewMoney(amount decimal.Decimal, currency string) (Money, error) {
	cur, err := ParseNonEmptyStr(currency)
	if err != nil {
		return Money{}, fmt.Errorf("Money.currency: %w", err)
	}
	return Money{amount: amount, currency: cur}, nil
}

// Amount returns the monetary amount.
func (m Money) Amount() decimal.Decimal { return m.amount }

// Currency returns the currency code.
func (m Money) Currency() NonEmptyStr { return m.currency }

// moneyWire is the wire shape for Money: a type tag, the amount as a
// decimal string, and a plain currency code.
type moneyWire struct {
	Type     string `json:"__type__"`
	Amount   string `json:"amount"`
	Currency string `json:"currency"`
}

// MarshalJSON renders the type-tagged wire shape.
func (m Money) MarshalJSON() ([]byte, error) {
	return json.Marshal(moneyWire{Type: moneyTypeName, Amount: m.amount.String(), Currency: m.currency.String()})
}

// UnmarshalJSON parses the wire shape and re-validates both fields. An
// untagged payload is accepted (the enclosing field's static type is
// the hint); a payload tagged as anything but Money is refused.
func (m *Money) UnmarshalJSON(data []byte) error {
	var wire moneyWire
	if err := json.Unmarshal(data, &wire); err != nil {
		return fmt.Errorf("Money: %w", err)
	}
	if wire.Type != "" && wire.Type != moneyTypeName {
		return fmt.Errorf("Money: payload tagged %q is not in the decode allow-list for this field", wire.Type)
	}
	amount, err := decimal.NewFromString(wire.Amount)
	if err != nil {
		return fmt.Errorf("Money.amount: %w", err)
	}
	v, err := NewMoney(amount, wire.Currency)
	if err != nil {
		return err
	}
	*m = v
	return nil
}

// Date is a calendar date with no time-of-day component, held at
// midnight UTC. It serializes as a tagged __date__ envelope, so a date
// can never silently widen into a full timestamp on the wire.
type Date struct{ value time.Time }

// NewDate constructs the given calendar date.
func NewDate(year int, month time.Month, day int) Date {
	return Date{value: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// ParseDate parses an ISO-8601 calendar date ("2006-01-02").
func ParseDate(raw string) (Date, error) {
	t, err := time.ParseInLocation("2006-01-02", raw, time.UTC)
	if err != nil {
		return Date{}, fmt.Errorf("Date: malformed date %q: %w", raw, err)
	}
	return Date{value: t}, nil
}

// DateOf truncates t to its calendar date in UTC.
func DateOf(t time.Time) Date {
	u := t.UTC()
	return NewDate(u.Year(), u.Month(), u.Day())
}

// Value returns the date as a time.Time at midnight UTC.
func (d Date) Value() time.Time { return d.value }

// String renders the date as "2006-01-02".
func (d Date) String() string { return d.value.Format("2006-01-02") }

// Before reports whether d is strictly before o.
func (d Date) Before(o Date) bool { return d.value.Before(o.value) }

// After reports whether d is strictly after o.
func (d Date) After(o Date) bool { return d.value.After(o.value) }

// AddDays returns the date shifted by n calendar days.
func (d Date) AddDays(n int) Date { return Date{value: d.value.AddDate(0, 0, n)} }

// IsZero reports whether d is the zero date.
func (d Date) IsZero() bool { return d.value.IsZero() }

// MarshalJSON renders the date as a tagged __date__ envelope.
func (d Date) MarshalJSON() ([]byte, error) { return codec.MarshalDate(d.value) }

// UnmarshalJSON parses a tagged __date__ envelope.
func (d *Date) UnmarshalJSON(data []byte) error {
	t, err := codec.UnmarshalDate(data)
	if err != nil {
		return err
	}
	*d = Date{value: t}
	return nil
}

// UtcDatetime wraps a timezone-aware time.Time normalized to UTC.
type UtcDatetime struct{ value time.Time }

// NewUtcDatetime validates that t carries timezone information and
// normalizes it to UTC.
func NewUtcDatetime(t time.Time) (UtcDatetime, error) {
	if t.Location() == nil {
		return UtcDatetime{}, fmt.Errorf("UtcDatetime: time must carry a location")
	}
	return UtcDatetime{value: t.UTC()}, nil
}

// ParseUtcDatetime parses an RFC 3339 / ISO-8601 string with offset into
// a UtcDatetime, using a strict ISO-8601 parser rather than time.Parse's
// more permissive layouts.
func ParseUtcDatetime(raw string) (UtcDatetime, error) {
	t, err := iso8601.ParseString(raw)
	if err != nil {
		return UtcDatetime{}, fmt.Errorf("UtcDatetime: %w", err)
	}
	return NewUtcDatetime(t)
}

// UtcNow returns the current wall-clock instant as a UtcDatetime. Only
// activity-side code may call it; workflow code takes its clock from
// the durable runtime.
func UtcNow() UtcDatetime { return UtcDatetime{value: time.Now().UTC()} }

// Value returns the wrapped time.Time, always in UTC.
func (u UtcDatetime) Value() time.Time { return u.value }

// Add returns the datetime shifted by d.
func (u UtcDatetime) Add(d time.Duration) UtcDatetime { return UtcDatetime{value: u.value.Add(d)} }

// Before reports whether u is strictly before o.
func (u UtcDatetime) Before(o UtcDatetime) bool { return u.value.Before(o.value) }

// String renders the datetime as an ISO-8601 string with offset.
func (u UtcDatetime) String() string { return u.value.Format(time.RFC3339Nano) }

// MarshalJSON renders the datetime as a plain ISO-8601 string. Unlike
// a bare calendar date, a timezone-aware timestamp needs no tagged
// envelope: encoding/json's native time.Time handling already
// round-trips it exactly, and the plain string is both what the
// reporting leaf modules expect and what a human reading workflow
// history sees.
func (u UtcDatetime) MarshalJSON() ([]byte, error) {
	return json.Marshal(u.value.Format(time.RFC3339Nano))
}

// UnmarshalJSON parses a plain ISO-8601 string and re-validates it.
func (u *UtcDatetime) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("UtcDatetime: %w", err)
	}
	v, err := ParseUtcDatetime(raw)
	if err != nil {
		return err
	}
	*u = v
	return nil
}

// IdempotencyKey wraps a non-empty string used to deduplicate
// side-effecting activity invocations.
type IdempotencyKey struct{ value string }

// ParseIdempotencyKey validates and wraps a raw idempotency key.
func ParseIdempotencyKey(raw string) (IdempotencyKey, error) {
	if raw == "" {
		return IdempotencyKey{}, fmt.Errorf("IdempotencyKey: must be non-empty")
	}
	return IdempotencyKey{value: raw}, nil
}

// String returns the wrapped idempotency key.
func (k IdempotencyKey) String() string { return k.value }

// MarshalJSON renders the key as a plain JSON string.
func (k IdempotencyKey) MarshalJSON() ([]byte, error) { return json.Marshal(k.value) }

// UnmarshalJSON parses a plain JSON string and re-validates it.
func (k *IdempotencyKey) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("IdempotencyKey: %w", err)
	}
	v, err := ParseIdempotencyKey(raw)
	if err != nil {
		return err
	}
	*k = v
	return nil
}

func isAlnum(s string) bool {
	if s == "" {
		return false
	}
	for _, c := range s {
		if !((c >= '0' && c <= '9') || (c >= 'A' && c <= 'Z') || (c >= 'a' && c <= 'z')) {
			return false
		}
	}
	return true
}

func isAllUpperAlpha(s string) bool {
	if s == "" {
		return false
	}
	for _, c := range s {
		if c < 'A' || c > 'Z' {
			return false
		}
	}
	return strings.ToUpper(s) == s
}
