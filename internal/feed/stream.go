package feed

import (
	"bufio"
	"bytes"
	"io"
	"strconv"
	"strings"
	"time"
)

// maxLineSize bounds a single SSE line. Provider payloads carry the HTML of
// every row of the timing table.
const maxLineSize = 8 << 20

// Message is one dispatched server-sent event.
type Message struct {
	ID    string
	Event string
	Data  []byte
}

// streamReader decodes the text/event-stream format.
type streamReader struct {
	scanner     *bufio.Scanner
	lastEventID string
	retry       time.Duration
}

func newStreamReader(r io.Reader) *streamReader {
	s := bufio.NewScanner(r)
	s.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	s.Split(scanLines)
	return &streamReader{scanner: s}
}

// Next returns the next event with a non-empty data buffer.
// It returns io.EOF when the stream ends cleanly.
func (sr *streamReader) Next() (Message, error) {
	var (
		data    bytes.Buffer
		hasData bool
		event   string
	)
	for sr.scanner.Scan() {
		line := sr.scanner.Text()
		if line == "" {
			if !hasData {
				event = ""
				continue
			}
			return Message{ID: sr.lastEventID, Event: event, Data: data.Bytes()}, nil
		}
		if strings.HasPrefix(line, ":") {
			continue
		}

		field, value, _ := strings.Cut(line, ":")
		value = strings.TrimPrefix(value, " ")

		switch field {
		case "data":
			if hasData {
				data.WriteByte('\n')
			}
			data.WriteString(value)
			hasData = true
		case "event":
			event = value
		case "id":
			if !strings.ContainsRune(value, 0) {
				sr.lastEventID = value
			}
		case "retry":
			if ms, err := strconv.Atoi(value); err == nil && ms >= 0 {
				sr.retry = time.Duration(ms) * time.Millisecond
			}
		}
	}
	if err := sr.scanner.Err(); err != nil {
		return Message{}, err
	}
	return Message{}, io.EOF
}

// scanLines splits on CRLF, LF, or a lone CR.
func scanLines(data []byte, atEOF bool) (advance int, token []byte, err error) {
	if atEOF && len(data) == 0 {
		return 0, nil, nil
	}
	if i := bytes.IndexAny(data, "\r\n"); i >= 0 {
		if data[i] == '\r' {
			if i+1 < len(data) {
				if data[i+1] == '\n' {
					return i + 2, data[:i], nil
				}
				return i + 1, data[:i], nil
			}
			if !atEOF {
				return 0, nil, nil
			}
		}
		return i + 1, data[:i], nil
	}
	if atEOF {
		return len(data), data, nil
	}
	return 0, nil, nil
}
