package irc

import (
	"sort"
	"strings"
)

// Message represents an IRC message
type Message struct {
	Tags    map[string]string // IRCv3 message tags, nil when none were sent
	Prefix  string
	Command string
	Params  []string
}

// NewMessage builds a message with no tags or prefix
func NewMessage(command string, params ...string) *Message {
	return &Message{
		Command: command,
		Params:  params,
	}
}

// ParseMessage parses a single IRC line without its terminator. It returns
// nil when the line carries no command.
func ParseMessage(line string) *Message {
	line = strings.TrimRight(line, "\r\n")
	msg := &Message{
		Params: make([]string, 0),
	}

	// Optional tag block
	if strings.HasPrefix(line, "@") {
		tags, rest, ok := strings.Cut(line[1:], " ")
		if !ok {
			return nil
		}
		msg.Tags = parseTags(tags)
		line = strings.TrimLeft(rest, " ")
	}

	// Optional source prefix
	if strings.HasPrefix(line, ":") {
		prefix, rest, ok := strings.Cut(line[1:], " ")
		if !ok {
			return nil
		}
		msg.Prefix = prefix
		line = strings.TrimLeft(rest, " ")
	}

	command, paramPart, _ := strings.Cut(line, " ")
	if command == "" {
		return nil
	}
	msg.Command = strings.ToUpper(command)

	for {
		paramPart = strings.TrimLeft(paramPart, " ")
		if paramPart == "" {
			break
		}

		// Trailing parameter, may contain spaces
		if paramPart[0] == ':' {
			msg.Params = append(msg.Params, paramPart[1:])
			break
		}

		param, rest, _ := strings.Cut(paramPart, " ")
		msg.Params = append(msg.Params, param)
		paramPart = rest
	}

	return msg
}

// String returns the wire form of the message without the line terminator
func (m *Message) String() string {
	var builder strings.Builder

	if len(m.Tags) > 0 {
		builder.WriteString("@")
		builder.WriteString(formatTags(m.Tags))
		builder.WriteString(" ")
	}

	if m.Prefix != "" {
		builder.WriteString(":")
		builder.WriteString(m.Prefix)
		builder.WriteString(" ")
	}

	builder.WriteString(m.Command)

	for i, param := range m.Params {
		builder.WriteString(" ")

		// The last parameter needs the trailing marker whenever it would not
		// survive as a single middle token.
		if i == len(m.Params)-1 && needsTrailing(param) {
			builder.WriteString(":")
		}
		builder.WriteString(param)
	}

	return builder.String()
}

// Bytes returns the wire form of the message including the CRLF terminator
func (m *Message) Bytes() []byte {
	return []byte(m.String() + "\r\n")
}

// Param returns the i-th parameter, or "" when there are fewer parameters
func (m *Message) Param(i int) string {
	if i < 0 || i >= len(m.Params) {
		return ""
	}
	return m.Params[i]
}

// Trailing returns the last parameter, or "" when there are none
func (m *Message) Trailing() string {
	if len(m.Params) == 0 {
		return ""
	}
	return m.Params[len(m.Params)-1]
}

// HasParam reports whether any parameter equals value exactly
func (m *Message) HasParam(value string) bool {
	for _, p := range m.Params {
		if p == value {
			return true
		}
	}
	return false
}

// Encode serializes a command and its parameters into a CRLF-terminated line
func Encode(command string, params ...string) []byte {
	return NewMessage(command, params...).Bytes()
}

func needsTrailing(param string) bool {
	return param == "" || strings.Contains(param, " ") || strings.HasPrefix(param, ":")
}

// parseTags parses "k1=v1;k2;k3=v3" into a map, unescaping values
func parseTags(raw string) map[string]string {
	tags := make(map[string]string)
	for _, tag := range strings.Split(raw, ";") {
		if tag == "" {
			continue
		}
		key, value, _ := strings.Cut(tag, "=")
		tags[key] = unescapeTagValue(value)
	}
	return tags
}

func formatTags(tags map[string]string) string {
	keys := make([]string, 0, len(tags))
	for k := range tags {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		if v := tags[k]; v != "" {
			parts = append(parts, k+"="+escapeTagValue(v))
		} else {
			parts = append(parts, k)
		}
	}
	return strings.Join(parts, ";")
}

var tagEscaper = strings.NewReplacer(
	"\\", "\\\\",
	";", "\\:",
	" ", "\\s",
	"\r", "\\r",
	"\n", "\\n",
)

func escapeTagValue(v string) string {
	return tagEscaper.Replace(v)
}

func unescapeTagValue(v string) string {
	if !strings.Contains(v, "\\") {
		return v
	}

	var builder strings.Builder
	for i := 0; i < len(v); i++ {
		c := v[i]
		if c != '\\' {
			builder.WriteByte(c)
			continue
		}
		if i+1 == len(v) {
			// A lone trailing backslash is dropped
			break
		}
		i++
		switch v[i] {
		case ':':
			builder.WriteByte(';')
		case 's':
			builder.WriteByte(' ')
		case 'r':
			builder.WriteByte('\r')
		case 'n':
			builder.WriteByte('\n')
		default:
			builder.WriteByte(v[i])
		}
	}
	return builder.String()
}
