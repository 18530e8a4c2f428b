package handler

import (
	"errors"
	"strings"
)

// IRC commands and replies used during registration
const (
	cmdPass    = "PASS"
	cmdNick    = "NICK"
	cmdUser    = "USER"
	cmdPing    = "PING"
	cmdPong    = "PONG"
	cmdPrivmsg = "PRIVMSG"
	cmdNotice  = "NOTICE"
	cmdQuit    = "QUIT"

	rplWelcome  = "001"
	rplYourHost = "002"
	rplCreated  = "003"
	rplMyInfo   = "004"
)

var errEmptyMessage = errors.New("empty message")

// Message is one IRC protocol line. Trailing forces the last parameter to be
// written with a leading ':' even when it is a single word.
type Message struct {
	Prefix   string
	Command  string
	Params   []string
	Trailing bool
}

// ParseMessage splits a raw line into prefix, command and parameters
func ParseMessage(line string) (Message, error) {
	var m Message

	line = strings.TrimRight(line, "\r\n")
	if strings.HasPrefix(line, ":") {
		prefix, rest, _ := strings.Cut(line[1:], " ")
		m.Prefix = prefix
		line = rest
	}
	line = strings.TrimLeft(line, " ")
	if line == "" {
		return m, errEmptyMessage
	}

	command, rest, _ := strings.Cut(line, " ")
	m.Command = strings.ToUpper(command)

	for rest != "" {
		rest = strings.TrimLeft(rest, " ")
		if rest == "" {
			break
		}
		if rest[0] == ':' {
			m.Params = append(m.Params, rest[1:])
			break
		}
		var param string
		param, rest, _ = strings.Cut(rest, " ")
		m.Params = append(m.Params, param)
	}

	return m, nil
}

// Param returns the i-th parameter or ""
func (m Message) Param(i int) string {
	if i < 0 || i >= len(m.Params) {
		return ""
	}
	return m.Params[i]
}

// String renders the message without the line terminator
func (m Message) String() string {
	var b strings.Builder
	if m.Prefix != "" {
		b.WriteByte(':')
		b.WriteString(m.Prefix)
		b.WriteByte(' ')
	}
	b.WriteString(m.Command)

	for i, p := range m.Params {
		b.WriteByte(' ')
		last := i == len(m.Params)-1
		if last && (m.Trailing || p == "" || strings.ContainsRune(p, ' ') || strings.HasPrefix(p, ":")) {
			b.WriteByte(':')
		}
		b.WriteString(p)
	}
	return b.String()
}

// cleanText makes text safe for a single trailing parameter
func cleanText(s string) string {
	s = strings.NewReplacer("\r\n", " ", "\n", " ", "\r", " ").Replace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != '\t' && r != 0x02 && r != 0x03 && r != 0x0f && r != 0x1f {
			return -1
		}
		return r
	}, s)
}
