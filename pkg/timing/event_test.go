package timing

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRawEventKeepsOrder(t *testing.T) {
	evt, err := ParseRawEvent([]byte(`{"z_9":"a","a_1":"b","m_5":{"x":1},"k_2":3}`))
	require.NoError(t, err)

	keys := make([]string, 0, evt.Len())
	for _, e := range evt.Entries() {
		keys = append(keys, e.Key)
	}
	assert.Equal(t, []string{"z_9", "a_1", "m_5", "k_2"}, keys)

	v, ok := evt.String("a_1")
	assert.True(t, ok)
	assert.Equal(t, "b", v)

	_, ok = evt.String("m_5")
	assert.False(t, ok, "objects are not strings")
	_, ok = evt.String("k_2")
	assert.False(t, ok, "numbers are not strings")
	_, ok = evt.String("missing")
	assert.False(t, ok)
}

func TestParseRawEventDuplicateKeys(t *testing.T) {
	evt, err := ParseRawEvent([]byte(`{"a":"1","b":"2","a":"3"}`))
	require.NoError(t, err)

	assert.Equal(t, 2, evt.Len())
	assert.Equal(t, "a", evt.Entries()[0].Key)
	v, _ := evt.String("a")
	assert.Equal(t, "3", v)
}

func TestParseRawEventErrors(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"not json", `hello`},
		{"array", `["a"]`},
		{"string", `"a"`},
		{"truncated", `{"a":"b"`},
		{"trailing", `{"a":"b"}{}`},
		{"empty", ``},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseRawEvent([]byte(tt.data))
			assert.Error(t, err)
		})
	}
}

func TestRawEventEmptyObject(t *testing.T) {
	evt, err := ParseRawEvent([]byte(` {} `))
	require.NoError(t, err)
	assert.Equal(t, 0, evt.Len())
}

func TestRawEventJSONRoundTripKeepsOrder(t *testing.T) {
	in := `{"b":"<td>x</td>","a":1}`
	var evt RawEvent
	require.NoError(t, json.Unmarshal([]byte(in), &evt))

	out, err := evt.MarshalJSON()
	require.NoError(t, err)
	assert.Equal(t, in, string(out))

	// encoding/json escapes HTML in marshaler output; the content and the
	// key order survive.
	escaped, err := json.Marshal(&evt)
	require.NoError(t, err)
	assert.JSONEq(t, in, string(escaped))

	again, err := ParseRawEvent(escaped)
	require.NoError(t, err)
	require.Equal(t, 2, again.Len())
	assert.Equal(t, "b", again.Entries()[0].Key)
	text, ok := again.String("b")
	assert.True(t, ok)
	assert.Equal(t, "<td>x</td>", text)
}

func TestNilRawEvent(t *testing.T) {
	var evt *RawEvent
	assert.Nil(t, evt.Entries())
	assert.Equal(t, 0, evt.Len())
	_, ok := evt.String("x")
	assert.False(t, ok)
}

func TestLapRecordJSON(t *testing.T) {
	lap := 3
	last := "1:02.345"
	rec := NewLapRecord("Smith", Fields{CurrentLap: &lap, LastLapTime: &last})

	data, err := json.Marshal(rec)
	require.NoError(t, err)
	assert.JSONEq(t, `{"driverName":"Smith","currentLap":3,"lastLapTime":"1:02.345","bestLapTime":null}`, string(data))
}
