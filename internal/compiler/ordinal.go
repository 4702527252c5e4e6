package compiler

import (
	"crypto/sha256"
	"encoding/binary"
	"regexp"
)

const ordinalMask = 0x7fffffffffffffff

// MethodOrdinal hashes a "library/Protocol.Method" selector into the 63-bit
// ordinal that identifies the method on the wire.
func MethodOrdinal(selector string) uint64 {
	sum := sha256.Sum256([]byte(selector))
	return binary.LittleEndian.Uint64(sum[:8]) & ordinalMask
}

var fullSelectorPattern = regexp.MustCompile(`^[a-z][a-z0-9_]*(\.[a-z][a-z0-9_]*)*/[A-Za-z][A-Za-z0-9_]*\.[A-Za-z][A-Za-z0-9_]*$`)

// selectorFor returns the selector of method in protocol, honoring an
// override that is either a bare method name or a full selector.
func selectorFor(library, protocol, method, override string) (string, bool) {
	if override == "" {
		return library + "/" + protocol + "." + method, true
	}
	if fullSelectorPattern.MatchString(override) {
		return override, true
	}
	if identifierPattern.MatchString(override) {
		return library + "/" + protocol + "." + override, true
	}
	return "", false
}
