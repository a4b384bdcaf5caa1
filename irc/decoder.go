package irc

import (
	"bytes"
	"errors"
)

// MaxLineLength bounds a single unterminated line: 8191 bytes of IRCv3 tags
// plus the classic 512 byte message.
const MaxLineLength = 8191 + 512

// ErrLineTooLong is returned when the peer sends more than MaxLineLength
// bytes without a line terminator
var ErrLineTooLong = errors.New("irc: line exceeds maximum length")

// Decode splits buf into complete messages. Any trailing bytes after the last
// line terminator are returned as rest and must be prepended to the next read.
// Blank lines and lines without a command are skipped.
func Decode(buf []byte) (msgs []*Message, rest []byte) {
	for {
		i := bytes.IndexByte(buf, '\n')
		if i < 0 {
			return msgs, buf
		}

		line := bytes.TrimSuffix(buf[:i], []byte{'\r'})
		buf = buf[i+1:]
		if len(line) == 0 {
			continue
		}

		if msg := ParseMessage(string(line)); msg != nil {
			msgs = append(msgs, msg)
		}
	}
}

// Decoder frames a byte stream that may arrive in arbitrary fragments
type Decoder struct {
	buf []byte
}

// Push appends data to the pending input and returns every message that is
// now complete. Bytes belonging to an unfinished line stay buffered.
func (d *Decoder) Push(data []byte) ([]*Message, error) {
	d.buf = append(d.buf, data...)

	msgs, rest := Decode(d.buf)
	d.buf = append(d.buf[:0], rest...)

	if len(d.buf) > MaxLineLength {
		return msgs, ErrLineTooLong
	}
	return msgs, nil
}

// Pending returns a copy of the buffered, not yet framed bytes
func (d *Decoder) Pending() []byte {
	return bytes.Clone(d.buf)
}

// Reset drops any buffered input
func (d *Decoder) Reset() {
	d.buf = d.buf[:0]
}
