// Package startupinfo encodes and decodes startup-notification messages of
// the form `new: ID=foo NAME="Text Editor" SCREEN=0`.
package startupinfo

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/NetPLC/mb-applet-startup-monitor/internal/launch"
)

// ErrMalformedMessage is returned for text that is not a startup message.
var ErrMalformedMessage = errors.New("malformed startup message")

// Message types.
const (
	TypeNew    = "new"
	TypeChange = "change"
	TypeRemove = "remove"
)

// KeyID is the parameter carrying the startup id.
const KeyID = "ID"

// Message is one decoded startup-notification message.
type Message struct {
	Type   string
	Params map[string]string
}

// ID returns the startup id, empty if absent.
func (m Message) ID() string {
	return m.Params[KeyID]
}

// Event maps the message onto a launch event. Change messages and messages
// without an id have no launch meaning.
func (m Message) Event() (launch.RawEvent, bool) {
	id := m.ID()
	if id == "" {
		return launch.RawEvent{}, false
	}

	switch m.Type {
	case TypeNew:
		return launch.RawEvent{Kind: launch.KindInitiated, ID: id, Source: "startup-message"}, true
	case TypeRemove:
		return launch.RawEvent{Kind: launch.KindCompleted, ID: id, Source: "startup-message"}, true
	default:
		return launch.RawEvent{}, false
	}
}

// String encodes the message. Parameters are written in key order, with ID
// first.
func (m Message) String() string {
	var b strings.Builder
	b.WriteString(m.Type)
	b.WriteByte(':')

	keys := slices.Sorted(maps.Keys(m.Params))
	if i := slices.Index(keys, KeyID); i > 0 {
		keys = append([]string{KeyID}, slices.Delete(keys, i, i+1)...)
	}

	for _, k := range keys {
		b.WriteByte(' ')
		b.WriteString(k)
		b.WriteByte('=')
		b.WriteString(quote(m.Params[k]))
	}
	return b.String()
}

// Parse decodes a startup-notification message.
func Parse(s string) (Message, error) {
	typ, rest, ok := strings.Cut(s, ":")
	typ = strings.TrimSpace(typ)
	if !ok || typ == "" || strings.ContainsAny(typ, " \t=\"") {
		return Message{}, fmt.Errorf("%w: missing message type", ErrMalformedMessage)
	}

	m := Message{Type: typ, Params: make(map[string]string)}

	for {
		rest = strings.TrimLeft(rest, " ")
		if rest == "" {
			break
		}

		eq := strings.IndexByte(rest, '=')
		if eq <= 0 {
			return Message{}, fmt.Errorf("%w: expected KEY=VALUE at %q", ErrMalformedMessage, rest)
		}
		key := rest[:eq]
		if strings.ContainsAny(key, " \"\\") {
			return Message{}, fmt.Errorf("%w: bad key %q", ErrMalformedMessage, key)
		}

		value, tail, err := unquote(rest[eq+1:])
		if err != nil {
			return Message{}, fmt.Errorf("%w: key %s: %v", ErrMalformedMessage, key, err)
		}
		m.Params[key] = value
		rest = tail
	}

	return m, nil
}

// unquote reads one value up to the next unquoted space. Double quotes group
// text and a backslash escapes the following byte.
func unquote(s string) (value, rest string, err error) {
	var b strings.Builder
	inQuotes := false

	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c == '\\':
			if i+1 >= len(s) {
				return "", "", errors.New("trailing backslash")
			}
			i++
			b.WriteByte(s[i])
		case c == '"':
			inQuotes = !inQuotes
		case c == ' ' && !inQuotes:
			return b.String(), s[i:], nil
		default:
			b.WriteByte(c)
		}
	}

	if inQuotes {
		return "", "", errors.New("unterminated quote")
	}
	return b.String(), "", nil
}

func quote(v string) string {
	if v != "" && !strings.ContainsAny(v, " \"\\") {
		return v
	}

	var b strings.Builder
	b.WriteByte('"')
	for i := 0; i < len(v); i++ {
		if v[i] == '"' || v[i] == '\\' {
			b.WriteByte('\\')
		}
		b.WriteByte(v[i])
	}
	b.WriteByte('"')
	return b.String()
}
