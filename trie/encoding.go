// Copyright (c) 2024 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package trie

// Hex-prefix encoding, following Ethereum's LayoutV1 trie convention:
// every on-disk key is expanded into a nibble sequence with a trailing
// terminator nibble (16) marking a leaf, then compacted back into
// half-bytes for RLP storage with a leading flag nibble recording
// oddness and leaf-ness.

// keybytesToHex expands key into nibbles terminated by 16.
func keybytesToHex(key []byte) []byte {
	l := len(key)*2 + 1
	out := make([]byte, l)
	for i, b := range key {
		out[i*2] = b / 16
		out[i*2+1] = b % 16
	}
	out[l-1] = 16
	return out
}

// hexToKeybytes contracts a terminated nibble slice back into bytes.
func hexToKeybytes(hex []byte) []byte {
	if hasTerm(hex) {
		hex = hex[:len(hex)-1]
	}
	if len(hex)&1 != 0 {
		panic("trie: odd length hex slice cannot be contracted")
	}
	out := make([]byte, len(hex)/2)
	for i := range out {
		out[i] = hex[i*2]<<4 | hex[i*2+1]
	}
	return out
}

// hasTerm reports whether s is nibble-terminated (ends in 16).
func hasTerm(s []byte) bool {
	return len(s) > 0 && s[len(s)-1] == 16
}

// compactEncode packs a (possibly terminated) hex nibble slice into the
// compact two-nibbles-per-byte form used in shortNode.Key's on-disk
// encoding. The first byte's high nibble carries a terminator flag
// (bit 0x2) and an odd-length flag (bit 0x1); an odd-length key's
// stray leading nibble rides along in that same byte's low nibble.
func compactEncode(hex []byte) []byte {
	terminator := byte(0)
	if hasTerm(hex) {
		terminator = 1
		hex = hex[:len(hex)-1]
	}
	buf := make([]byte, len(hex)/2+1)
	buf[0] = terminator << 5
	if len(hex)&1 == 1 {
		buf[0] |= 1 << 4
		buf[0] |= hex[0]
		hex = hex[1:]
	}
	decodeNibbles(hex, buf[1:])
	return buf
}

func decodeNibbles(nibbles []byte, bytes []byte) {
	for bi, ni := 0, 0; ni < len(nibbles); bi, ni = bi+1, ni+2 {
		bytes[bi] = nibbles[ni]<<4 | nibbles[ni+1]
	}
}

// compactDecode reverses compactEncode.
func compactDecode(compact []byte) []byte {
	if len(compact) == 0 {
		return compact
	}
	base := keybytesToHex(compact)
	if base[0] < 2 {
		base = base[:len(base)-1]
	}
	chop := 2 - base[0]&1
	return base[chop:]
}

// prefixLen returns the length of the common prefix between a and b.
func prefixLen(a, b []byte) int {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	var i int
	for i = 0; i < n; i++ {
		if a[i] != b[i] {
			break
		}
	}
	return i
}
