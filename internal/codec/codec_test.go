package codec

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	commonpb "go.temporal.io/api/common/v1"
	"go.temporal.io/sdk/converter"
)

func TestDecimalRoundTrip(t *testing.T) {
	d := decimal.RequireFromString("1234.5678")
	data, err := MarshalDecimal(d)
	require.NoError(t, err)
	assert.Contains(t, string(data), "__decimal__")

	back, err := UnmarshalDecimal(data)
	require.NoError(t, err)
	assert.True(t, d.Equal(back))
}

func TestDateRoundTrip(t *testing.T) {
	d := time.Date(2026, 7, 31, 15, 30, 0, 0, time.UTC)
	data, err := MarshalDate(d)
	require.NoError(t, err)

	back, err := UnmarshalDate(data)
	require.NoError(t, err)
	assert.Equal(t, 2026, back.Year())
	assert.Equal(t, time.July, back.Month())
	assert.Equal(t, 31, back.Day())
	assert.Equal(t, 0, back.Hour())
}

func TestDurationRoundTrip(t *testing.T) {
	d := 90 * time.Second
	data, err := MarshalDuration(d)
	require.NoError(t, err)

	back, err := UnmarshalDuration(data)
	require.NoError(t, err)
	assert.Equal(t, d, back)
}

// registered and unregistered stand-ins for the allow-list tests.
type quoteRecord struct {
	Venue string
	Size  int
}

type otherRecord struct {
	Venue string
}

var quoteRecordName = RegisterType(quoteRecord{})

func TestRegisterTypeUsesFullyQualifiedName(t *testing.T) {
	assert.Equal(t, "github.com/aristath/attestor-rfq/internal/codec.quoteRecord", quoteRecordName)

	resolved, ok := ResolveType(quoteRecordName)
	require.True(t, ok)
	assert.Equal(t, "quoteRecord", resolved.Name())
}

func TestDataConverterTagsRegisteredTypes(t *testing.T) {
	dc := NewDataConverter()

	payload, err := dc.ToPayload(quoteRecord{Venue: "XEUR", Size: 5})
	require.NoError(t, err)
	assert.Contains(t, string(payload.GetData()), `"__type__":"`+quoteRecordName+`"`)

	var back quoteRecord
	require.NoError(t, dc.FromPayload(payload, &back))
	assert.Equal(t, "XEUR", back.Venue)
	assert.Equal(t, 5, back.Size)
}

func TestDataConverterLeavesUnregisteredTypesUntagged(t *testing.T) {
	dc := NewDataConverter()
	payload, err := dc.ToPayload(map[string]string{"hello": "world"})
	require.NoError(t, err)
	assert.NotContains(t, string(payload.GetData()), "__type__")

	var out map[string]string
	require.NoError(t, dc.FromPayload(payload, &out))
	assert.Equal(t, "world", out["hello"])
}

func TestDecodeRefusesTypesOutsideAllowList(t *testing.T) {
	dc := NewDataConverter()
	payload := &commonpb.Payload{
		Metadata: map[string][]byte{converter.MetadataEncoding: []byte(converter.MetadataEncodingJSON)},
		Data:     []byte(`{"__type__":"github.com/evil/pkg.Exploit","Venue":"XEUR"}`),
	}

	var back quoteRecord
	err := dc.FromPayload(payload, &back)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "allow-list")
}

func TestDecodeRefusesTagTargetMismatch(t *testing.T) {
	dc := NewDataConverter()
	payload, err := dc.ToPayload(quoteRecord{Venue: "XEUR", Size: 5})
	require.NoError(t, err)

	var wrong otherRecord
	err = dc.FromPayload(payload, &wrong)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cannot decode into")
}

func TestTaggedEncodingIsByteStable(t *testing.T) {
	dc := NewDataConverter()
	p1, err := dc.ToPayload(quoteRecord{Venue: "XEUR", Size: 5})
	require.NoError(t, err)
	p2, err := dc.ToPayload(quoteRecord{Venue: "XEUR", Size: 5})
	require.NoError(t, err)
	assert.Equal(t, p1.GetData(), p2.GetData())
}
