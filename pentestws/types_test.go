// SPDX-License-Identifier: MIT

package pentestws

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTimestampMarshalWireFormat(t *testing.T) {
	ts := NewTimestamp(time.Date(2021, 2, 5, 19, 59, 27, 104_000_000, time.UTC))

	b, err := json.Marshal(ts)
	require.NoError(t, err)
	assert.Equal(t, `"2021-02-05T19:59:27.104Z"`, string(b))
}

func TestTimestampUnmarshalWireFormat(t *testing.T) {
	var ts Timestamp
	require.NoError(t, json.Unmarshal([]byte(`"2021-02-05T19:59:27.104Z"`), &ts))

	assert.Equal(t, 2021, ts.Year())
	assert.Equal(t, 104_000_000, ts.Nanosecond())
	assert.Equal(t, "2021-02-05T19:59:27.104Z", ts.String())
}

func TestTimestampRoundTrip(t *testing.T) {
	orig := NewTimestamp(time.Date(2023, 11, 30, 8, 1, 2, 345_000_000, time.UTC))

	b, err := json.Marshal(orig)
	require.NoError(t, err)

	var parsed Timestamp
	require.NoError(t, json.Unmarshal(b, &parsed))
	assert.True(t, orig.Equal(parsed.Time))
}

func TestTimestampUnmarshalEmptyValues(t *testing.T) {
	for _, raw := range []string{`null`, `""`} {
		var ts Timestamp
		require.NoError(t, json.Unmarshal([]byte(raw), &ts), raw)
		assert.True(t, ts.IsZero(), raw)
	}
}

func TestTimestampUnmarshalVariedPrecision(t *testing.T) {
	var ts Timestamp
	require.NoError(t, json.Unmarshal([]byte(`"2021-02-05T19:59:27.104372Z"`), &ts))
	assert.Equal(t, 2021, ts.Year())
}

func TestTimestampUnmarshalInvalid(t *testing.T) {
	var ts Timestamp
	assert.Error(t, json.Unmarshal([]byte(`"yesterday"`), &ts))
	assert.Error(t, json.Unmarshal([]byte(`12345`), &ts))
}

func TestTimestampZeroMarshalsAsNull(t *testing.T) {
	b, err := json.Marshal(Timestamp{})
	require.NoError(t, err)
	assert.Equal(t, "null", string(b))
	assert.Equal(t, "", Timestamp{}.String())
}

func TestTimestampOmitzeroInStruct(t *testing.T) {
	e := Engagement{Name: "Engagement 1"}

	b, err := json.Marshal(&e)
	require.NoError(t, err)
	assert.NotContains(t, string(b), "created_at")
	assert.NotContains(t, string(b), "archived")
}
