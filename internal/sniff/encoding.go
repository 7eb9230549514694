package sniff

import (
	"bytes"
	"errors"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
)

// ErrEncoding is returned when no candidate encoding can decode the input.
// ISO-8859-1 accepts any byte sequence, so this is effectively unreachable
// for real files; it exists so callers can distinguish "undecodable" from
// "decoded but structurally broken" (ErrParse).
var ErrEncoding = errors.New("sniff: no candidate encoding decoded the file")

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// decodeBytes tries a fixed priority-ordered list of encodings and returns
// the decoded text plus the name of the winning encoding.
//
// Order matters: UTF-8 is checked by validation (not transformation) so a
// UTF-16 file full of NUL bytes is not misread as UTF-8, and the UTF-16
// decoder requires a BOM so plain Latin-1 bytes never match it by accident.
func decodeBytes(data []byte) (string, string, error) {
	// UTF-8 with BOM: valid UTF-8, but the BOM must not leak into the
	// first column name.
	if bytes.HasPrefix(data, utf8BOM) {
		rest := data[len(utf8BOM):]
		if utf8.Valid(rest) {
			return string(rest), "utf-8-sig", nil
		}
	}

	// NUL bytes are valid UTF-8 code points, so ASCII-heavy UTF-16 text
	// would pass utf8.Valid; it must not be accepted as UTF-8 here.
	if utf8.Valid(data) && !bytes.ContainsRune(data, 0) {
		return string(data), "utf-8", nil
	}

	// The ExpectBOM decoder handles both endiannesses when a BOM is
	// present. BOM-less UTF-16 (seen in some TikTok exports) is detected
	// by its NUL-byte density before guessing little-endian.
	if s, ok := tryTransform(data, unicode.UTF16(unicode.LittleEndian, unicode.ExpectBOM)); ok {
		return s, "utf-16", nil
	}
	if looksUTF16(data) {
		if s, ok := tryTransform(data, unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM)); ok {
			return s, "utf-16", nil
		}
	}

	// Latin-1 maps every byte to a code point, so it acts as the
	// practical catch-all; Windows-1252 stays in the list for parity
	// with the documented cascade.
	if s, ok := tryTransform(data, charmap.ISO8859_1); ok {
		return s, "latin-1", nil
	}
	if s, ok := tryTransform(data, charmap.Windows1252); ok {
		return s, "cp1252", nil
	}

	return "", "", ErrEncoding
}

// looksUTF16 reports whether at least a quarter of the sampled bytes are
// NUL, which is typical of ASCII-heavy UTF-16 text and never true of valid
// single-byte-encoded CSV.
func looksUTF16(data []byte) bool {
	sample := data
	if len(sample) > 4096 {
		sample = sample[:4096]
	}
	if len(sample) == 0 {
		return false
	}
	nuls := 0
	for _, b := range sample {
		if b == 0 {
			nuls++
		}
	}
	return nuls*4 >= len(sample)
}

func tryTransform(data []byte, enc encoding.Encoding) (string, bool) {
	out, err := enc.NewDecoder().Bytes(data)
	if err != nil {
		return "", false
	}
	return string(out), true
}
