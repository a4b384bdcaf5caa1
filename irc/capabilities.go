package irc

import (
	"sort"
	"strings"
)

// AccountRegistration is the capability that enables REGISTER and VERIFY
const AccountRegistration = "draft/account-registration"

// CapSet holds the capabilities advertised by a server, keyed by name. The
// value is whatever followed "=" in the advertisement, or "" when absent.
type CapSet map[string]string

// ParseCapList parses a space separated capability list such as
// "sasl=PLAIN draft/account-registration=before-connect echo-message"
func ParseCapList(list string) CapSet {
	caps := make(CapSet)
	caps.Add(list)
	return caps
}

// Add merges a space separated capability list into the set. Entries
// prefixed with "-" (CAP DEL style) remove the capability.
func (cs CapSet) Add(list string) {
	for _, token := range strings.Fields(list) {
		if strings.HasPrefix(token, "-") {
			delete(cs, token[1:])
			continue
		}
		name, value, _ := strings.Cut(token, "=")
		cs[name] = value
	}
}

// Has reports whether the named capability was advertised
func (cs CapSet) Has(name string) bool {
	_, ok := cs[name]
	return ok
}

// Value returns the advertised value of a capability
func (cs CapSet) Value(name string) string {
	return cs[name]
}

// Names returns the capability names in sorted order
func (cs CapSet) Names() []string {
	names := make([]string, 0, len(cs))
	for name := range cs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// String returns the set in advertisement form, sorted by name
func (cs CapSet) String() string {
	parts := make([]string, 0, len(cs))
	for _, name := range cs.Names() {
		if v := cs[name]; v != "" {
			parts = append(parts, name+"="+v)
		} else {
			parts = append(parts, name)
		}
	}
	return strings.Join(parts, " ")
}
