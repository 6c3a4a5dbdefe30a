// Package codec implements the tagged JSON wire format shared by every
// value type that must survive a Temporal workflow history round trip
// with its exact Go type intact, plus the custom converter.DataConverter
// built on top of it. Plain encoding/json would silently degrade a
// decimal.Decimal to a float64 and a civil date to a full timestamp;
// every value at risk of that is instead wrapped in a tagged envelope
// keyed by a fixed, closed set of tag names.
//
// Structured records additionally carry a __type__ tag naming their
// fully qualified Go type. Decoding consults a closed allow-list of
// registered type names: a payload tagged with a name outside the
// allow-list, or tagged with one type while being decoded into another,
// is refused outright. This is the guard against arbitrary-type
// instantiation from an adversarial payload. Registration happens once,
// at package init of the owning packages, and the registry is read-only
// thereafter; the registry map is also the resolution cache, so a
// repeated tag costs one map hit.
package codec

import (
	"bytes"
	"fmt"
	"reflect"
	"time"

	"github.com/segmentio/encoding/json"
	"github.com/shopspring/decimal"
	commonpb "go.temporal.io/api/common/v1"
	"go.temporal.io/sdk/converter"
)

const (
	tagDecimal  = "__decimal__"
	tagDate     = "__date__"
	tagDuration = "__timedelta_s__"
	tagType     = "__type__"
)

// decimalEnvelope is the wire shape for a tagged decimal value.
type decimalEnvelope struct {
	Decimal string `json:"__decimal__"`
}

// MarshalDecimal renders d as a tagged JSON envelope so it round-trips
// through workflow history without going through a lossy float64.
func MarshalDecimal(d decimal.Decimal) ([]byte, error) {
	return json.Marshal(decimalEnvelope{Decimal: d.String()})
}

// UnmarshalDecimal parses a tagged decimal envelope back into a
// decimal.Decimal.
func UnmarshalDecimal(data []byte) (decimal.Decimal, error) {
	var env decimalEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return decimal.Decimal{}, fmt.Errorf("codec: invalid decimal envelope: %w", err)
	}
	if env.Decimal == "" {
		return decimal.Decimal{}, fmt.Errorf("codec: missing %s tag", tagDecimal)
	}
	d, err := decimal.NewFromString(env.Decimal)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("codec: malformed decimal %q: %w", env.Decimal, err)
	}
	return d, nil
}

// dateEnvelope is the wire shape for a tagged calendar-date value,
// used wherever a field is a date without a time-of-day component, to
// keep it distinct from a full UTC timestamp.
type dateEnvelope struct {
	Date string `json:"__date__"`
}

// MarshalDate renders t's calendar date (ignoring time-of-day) as a
// tagged JSON envelope.
func MarshalDate(t time.Time) ([]byte, error) {
	return json.Marshal(dateEnvelope{Date: t.Format("2006-01-02")})
}

// UnmarshalDate parses a tagged date envelope into a time.Time at
// midnight UTC on that date.
func UnmarshalDate(data []byte) (time.Time, error) {
	var env dateEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return time.Time{}, fmt.Errorf("codec: invalid date envelope: %w", err)
	}
	t, err := time.ParseInLocation("2006-01-02", env.Date, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("codec: malformed date %q: %w", env.Date, err)
	}
	return t, nil
}

// durationEnvelope is the wire shape for a tagged duration, carried as
// float seconds (fractions of a second kept) to match the original
// system's timedelta serialization.
type durationEnvelope struct {
	Seconds float64 `json:"__timedelta_s__"`
}

// MarshalDuration renders d as a tagged seconds-based JSON envelope.
func MarshalDuration(d time.Duration) ([]byte, error) {
	return json.Marshal(durationEnvelope{Seconds: d.Seconds()})
}

// UnmarshalDuration parses a tagged duration envelope back into a
// time.Duration.
func UnmarshalDuration(data []byte) (time.Duration, error) {
	var env durationEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return 0, fmt.Errorf("codec: invalid duration envelope: %w", err)
	}
	return time.Duration(env.Seconds * float64(time.Second)), nil
}

// allowedTypes is the closed allow-list of decodable structured-record
// types, keyed both ways: tag name to type for decoding, type to tag
// name for encoding. Populated only by RegisterType calls at package
// init; never mutated afterwards, so unguarded reads are safe.
var allowedTypes = struct {
	byName map[string]reflect.Type
	byType map[reflect.Type]string
}{
	byName: map[string]reflect.Type{},
	byType: map[reflect.Type]string{},
}

// RegisterType adds prototype's concrete type to the decode allow-list
// under its fully qualified name (import path dot type name) and
// returns that name. Call from the owning package's init; a type never
// registered here can never be named by a __type__ tag.
func RegisterType(prototype interface{}) string {
	t := reflect.TypeOf(prototype)
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	fqn := t.PkgPath() + "." + t.Name()
	allowedTypes.byName[fqn] = t
	allowedTypes.byType[t] = fqn
	return fqn
}

// ResolveType looks a __type__ tag up in the allow-list. A miss means
// the payload names a type this process refuses to instantiate.
func ResolveType(fqn string) (reflect.Type, bool) {
	t, ok := allowedTypes.byName[fqn]
	return t, ok
}

func registeredName(v interface{}) (string, bool) {
	t := reflect.TypeOf(v)
	if t == nil {
		return "", false
	}
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	fqn, ok := allowedTypes.byType[t]
	return fqn, ok
}

// TagObject splices a __type__ tag as the first key of an
// already-encoded JSON object. The tag leads the object so two
// encodings of the same value stay byte-identical.
func TagObject(data []byte, fqn string) ([]byte, error) {
	if len(data) == 0 || data[0] != '{' {
		return nil, fmt.Errorf("codec: cannot tag non-object payload as %s", fqn)
	}
	prefix := []byte(`{"` + tagType + `":"` + fqn + `"`)
	if bytes.Equal(data, []byte("{}")) {
		return append(prefix, '}'), nil
	}
	out := append(prefix, ',')
	return append(out, data[1:]...), nil
}

// PeekTypeTag reports the __type__ tag of a JSON object payload, if it
// carries one. Non-object payloads and untagged objects report false.
func PeekTypeTag(data []byte) (string, bool) {
	trimmed := bytes.TrimLeft(data, " \t\r\n")
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return "", false
	}
	var probe struct {
		Type string `json:"__type__"`
	}
	if err := json.Unmarshal(trimmed, &probe); err != nil || probe.Type == "" {
		return "", false
	}
	return probe.Type, true
}

// decodeTargetMatches reports whether a payload tagged as t may decode
// into valuePtr. Interface targets accept any allow-listed type; a
// concrete target must be exactly the tagged type.
func decodeTargetMatches(t reflect.Type, valuePtr interface{}) bool {
	rt := reflect.TypeOf(valuePtr)
	if rt == nil || rt.Kind() != reflect.Ptr {
		return true
	}
	elem := rt.Elem()
	for elem.Kind() == reflect.Ptr {
		elem = elem.Elem()
	}
	if elem.Kind() == reflect.Interface {
		return true
	}
	return elem == t
}

// jsonPayloadConverter replaces the SDK's default JSON payload
// converter with one backed by segmentio/encoding/json, which every
// tagged envelope helper above also uses, so a single JSON
// implementation governs both plain and tagged values on the wire.
// Registered record types gain a __type__ tag on encode and are
// checked against the allow-list on decode.
type jsonPayloadConverter struct{}

func newJSONPayloadConverter() converter.PayloadConverter { return &jsonPayloadConverter{} }

func (c *jsonPayloadConverter) ToPayload(value interface{}) (*commonpb.Payload, error) {
	data, err := json.Marshal(value)
	if err != nil {
		return nil, fmt.Errorf("codec: marshal payload: %w", err)
	}
	if fqn, ok := registeredName(value); ok && len(data) > 0 && data[0] == '{' {
		if data, err = TagObject(data, fqn); err != nil {
			return nil, err
		}
	}
	return &commonpb.Payload{
		Metadata: map[string][]byte{
			converter.MetadataEncoding: []byte(c.Encoding()),
		},
		Data: data,
	}, nil
}

func (c *jsonPayloadConverter) FromPayload(payload *commonpb.Payload, valuePtr interface{}) error {
	data := payload.GetData()
	if fqn, ok := PeekTypeTag(data); ok {
		t, allowed := ResolveType(fqn)
		if !allowed {
			return fmt.Errorf("codec: type %q is not in the decode allow-list", fqn)
		}
		if !decodeTargetMatches(t, valuePtr) {
			return fmt.Errorf("codec: payload tagged %q cannot decode into %T", fqn, valuePtr)
		}
	}
	if err := json.Unmarshal(data, valuePtr); err != nil {
		return fmt.Errorf("codec: unmarshal payload: %w", err)
	}
	return nil
}

func (c *jsonPayloadConverter) ToString(payload *commonpb.Payload) string {
	return string(payload.GetData())
}

func (c *jsonPayloadConverter) Encoding() string {
	return "json/plain"
}

// NewDataConverter builds the DataConverter every worker, client, and
// test environment in this repository must share. Using any other
// converter to talk to the same task queue would silently corrupt
// decimal and date fields on the next replay.
func NewDataConverter() converter.DataConverter {
	return converter.NewCompositeDataConverter(newJSONPayloadConverter())
}
