package jwa

import (
	"encoding/binary"
	"strings"
)

// load8 packs up to 8 bytes of s into a little-endian uint64, zero-padded.
// Used as the fast comparison key for the length-indexed algorithm name
// switches below: two names of the same length compare equal in one
// integer compare instead of a byte-by-byte scan.
func load8(s string) uint64 {
	var buf [8]byte
	copy(buf[:], s)
	return binary.LittleEndian.Uint64(buf[:])
}

// ParseSignatureAlgorithm parses name as a canonical SignatureAlgorithm
// name. Dispatch is by length first (every canonical name is 4 or 5
// bytes), then by a single packed 64-bit compare, so a successful parse
// never touches more than one machine word of name.
func ParseSignatureAlgorithm(name string) SignatureAlgorithm {
	switch len(name) {
	case 4:
		if name == "none" {
			return None
		}
	case 5:
		switch load8(name) {
		case load8("HS256"):
			return HS256
		case load8("HS384"):
			return HS384
		case load8("HS512"):
			return HS512
		case load8("RS256"):
			return RS256
		case load8("RS384"):
			return RS384
		case load8("RS512"):
			return RS512
		case load8("ES256"):
			return ES256
		case load8("ES384"):
			return ES384
		case load8("ES512"):
			return ES512
		case load8("PS256"):
			return PS256
		case load8("PS384"):
			return PS384
		case load8("PS512"):
			return PS512
		case load8("EdDSA"):
			return EdDSA
		}
	}
	return SignatureAlgorithmUnknown
}

// ParseKeyManagementAlgorithm parses name as a canonical
// KeyManagementAlgorithm name. The `ECDH-ES+AxxxKW` family may additionally
// be spelled with the `+` JSON-escaped as `\U002B` (the `U` and the hex
// digit may each be upper or lower case); that spelling is not length-dispatchable so it falls
// back to a literal scan after the fast path misses.
func ParseKeyManagementAlgorithm(name string) KeyManagementAlgorithm {
	switch len(name) {
	case 3:
		if name == "dir" {
			return Direct
		}
	case 6:
		switch load8(name) {
		case load8("RSA1_5"):
			return RSA1_5
		case load8("A128KW"):
			return A128KW
		case load8("A192KW"):
			return A192KW
		case load8("A256KW"):
			return A256KW
		}
	case 7:
		if name == "ECDH-ES" {
			return ECDH_ES
		}
	case 8:
		if name == "RSA-OAEP" {
			return RSA_OAEP
		}
	case 9:
		switch load8(name[:8]) {
		case load8("A128GCMK"):
			if name[8] == 'W' {
				return A128GCMKW
			}
		case load8("A192GCMK"):
			if name[8] == 'W' {
				return A192GCMKW
			}
		case load8("A256GCMK"):
			if name[8] == 'W' {
				return A256GCMKW
			}
		}
	case 12:
		switch name {
		case "RSA-OAEP-256":
			return RSA_OAEP_256
		case "RSA-OAEP-384":
			return RSA_OAEP_384
		case "RSA-OAEP-512":
			return RSA_OAEP_512
		}
	case 14:
		switch name {
		case "ECDH-ES+A128KW":
			return ECDH_ES_A128KW
		case "ECDH-ES+A192KW":
			return ECDH_ES_A192KW
		case "ECDH-ES+A256KW":
			return ECDH_ES_A256KW
		}
	}
	if unescaped, ok := unescapeU002B(name); ok {
		return ParseKeyManagementAlgorithm(unescaped)
	}
	return KeyManagementAlgorithmUnknown
}

// ParseEncryptionAlgorithm parses name as a canonical EncryptionAlgorithm
// name.
func ParseEncryptionAlgorithm(name string) EncryptionAlgorithm {
	switch len(name) {
	case 7:
		switch load8(name) {
		case load8("A128GCM"):
			return A128GCM
		case load8("A192GCM"):
			return A192GCM
		case load8("A256GCM"):
			return A256GCM
		}
	case 13:
		switch name {
		case "A128CBC-HS256":
			return A128CBC_HS256
		case "A192CBC-HS384":
			return A192CBC_HS384
		case "A256CBC-HS512":
			return A256CBC_HS512
		}
	}
	return EncryptionAlgorithmUnknown
}

// unescapeU002B rewrites a single `\U002B` escape in name (the `U` may also
// be lower case, and the hex digits may be in any case) back into `+`.
// Returns ok=false if name contains no such escape.
func unescapeU002B(name string) (string, bool) {
	idx := strings.IndexByte(name, '\\')
	if idx < 0 || idx+6 > len(name) {
		return name, false
	}
	if name[idx+1] != 'u' && name[idx+1] != 'U' {
		return name, false
	}
	if !strings.EqualFold(name[idx+2:idx+6], "002b") {
		return name, false
	}
	return name[:idx] + "+" + name[idx+6:], true
}
