package feed

import (
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func readAll(t *testing.T, input string) ([]Message, *streamReader) {
	t.Helper()
	sr := newStreamReader(strings.NewReader(input))
	var out []Message
	for {
		msg, err := sr.Next()
		if err == io.EOF {
			return out, sr
		}
		require.NoError(t, err)
		out = append(out, msg)
	}
}

func TestStreamReader(t *testing.T) {
	t.Run("single and multi line data", func(t *testing.T) {
		msgs, _ := readAll(t, "data: {\"a\":1}\n\ndata: line1\ndata:line2\n\n")
		require.Len(t, msgs, 2)
		assert.Equal(t, `{"a":1}`, string(msgs[0].Data))
		assert.Equal(t, "line1\nline2", string(msgs[1].Data))
	})

	t.Run("comments and unknown fields ignored", func(t *testing.T) {
		msgs, _ := readAll(t, ": keepalive\nfoo: bar\ndata: x\n\n")
		require.Len(t, msgs, 1)
		assert.Equal(t, "x", string(msgs[0].Data))
	})

	t.Run("event id and retry", func(t *testing.T) {
		msgs, sr := readAll(t, "event: update\nid: 42\nretry: 1500\ndata: x\n\n")
		require.Len(t, msgs, 1)
		assert.Equal(t, "update", msgs[0].Event)
		assert.Equal(t, "42", msgs[0].ID)
		assert.Equal(t, 1500*time.Millisecond, sr.retry)
	})

	t.Run("event type resets per message", func(t *testing.T) {
		msgs, _ := readAll(t, "event: ping\ndata: a\n\ndata: b\n\n")
		require.Len(t, msgs, 2)
		assert.Equal(t, "", msgs[1].Event)
	})

	t.Run("crlf and cr line endings", func(t *testing.T) {
		msgs, _ := readAll(t, "data: a\r\n\r\ndata: b\r\rdata: c\n\n")
		require.Len(t, msgs, 3)
		assert.Equal(t, "a", string(msgs[0].Data))
		assert.Equal(t, "b", string(msgs[1].Data))
		assert.Equal(t, "c", string(msgs[2].Data))
	})

	t.Run("blank lines without data dispatch nothing", func(t *testing.T) {
		msgs, _ := readAll(t, "\n\nid: 1\n\n")
		assert.Empty(t, msgs)
	})

	t.Run("unterminated event is not dispatched", func(t *testing.T) {
		msgs, _ := readAll(t, "data: a\n\ndata: partial")
		require.Len(t, msgs, 1)
	})

	t.Run("data without space", func(t *testing.T) {
		msgs, _ := readAll(t, "data:x\ndata\n\n")
		require.Len(t, msgs, 1)
		assert.Equal(t, "x\n", string(msgs[0].Data))
	})
}
