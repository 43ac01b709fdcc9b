// SPDX-License-Identifier: MIT

package pentestws

import (
	"bytes"
	"fmt"
	"time"
)

// timestampLayout is the service's wire format: millisecond precision with a
// literal Z ("2021-02-05T19:59:27.104Z").
const timestampLayout = "2006-01-02T15:04:05.000Z"

// Timestamp wraps time.Time with the Pentest.ws JSON encoding. The service
// sends null, "" or an absent field for unset values; all decode to the zero
// Timestamp.
type Timestamp struct {
	time.Time
}

// NewTimestamp returns a Timestamp for t in UTC.
func NewTimestamp(t time.Time) Timestamp {
	return Timestamp{t.UTC()}
}

func (t Timestamp) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte("null"), nil
	}
	return []byte(`"` + t.UTC().Format(timestampLayout) + `"`), nil
}

func (t *Timestamp) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) || bytes.Equal(b, []byte(`""`)) {
		*t = Timestamp{}
		return nil
	}
	if len(b) < 2 || b[0] != '"' || b[len(b)-1] != '"' {
		return fmt.Errorf("timestamp: invalid json value: %s", string(b))
	}
	raw := string(b[1 : len(b)-1])

	parsed, err := time.Parse(timestampLayout, raw)
	if err != nil {
		// Some responses carry more or fewer fractional digits.
		parsed, err = time.Parse(time.RFC3339Nano, raw)
		if err != nil {
			return fmt.Errorf("timestamp: invalid value %q", raw)
		}
	}
	*t = Timestamp{parsed.UTC()}
	return nil
}

// String renders the wire format, or the empty string for the zero value.
func (t Timestamp) String() string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(timestampLayout)
}
