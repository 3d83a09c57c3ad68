package token

import "strings"

// Terminal identifies the client class a token was issued to.
type Terminal string

const (
	// TerminalPC is a desktop browser client.
	TerminalPC Terminal = "PC"
	// TerminalWAP is a mobile browser client.
	TerminalWAP Terminal = "WAP"
	// TerminalAPP is a native application client.
	TerminalAPP Terminal = "APP"
)

// ParseTerminal maps a terminal string to its enum value, case-insensitively.
// Unknown values report false.
func ParseTerminal(s string) (Terminal, bool) {
	switch Terminal(strings.ToUpper(strings.TrimSpace(s))) {
	case TerminalPC:
		return TerminalPC, true
	case TerminalWAP:
		return TerminalWAP, true
	case TerminalAPP:
		return TerminalAPP, true
	default:
		return "", false
	}
}

// Valid reports whether t is one of the known terminal classes.
func (t Terminal) Valid() bool {
	_, ok := ParseTerminal(string(t))
	return ok
}
