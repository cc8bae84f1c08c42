package bytes

import (
	"bytes"
	"unicode/utf16"

	"golang.org/x/text/encoding/unicode"
)

var utf16Decoder = unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM)

// ConvertToUtf16 converts a UTF-8 string to UTF-16 LE and return it as an array of bytes.
func ConvertToUtf16(str string) []byte {
	strRunes := bytes.Runes([]byte(str))
	encoded := utf16.Encode(strRunes)

	// Convert the array of UTF-16 elements to a slice of uint8 elements in
	// little endian order. E.g: [0x1234] -> [0x34, 0x12]
	expanded := make([]uint8, 2*len(encoded))
	for i, v := range encoded {
		idx := i * 2
		expanded[idx] = uint8(v)
		expanded[idx+1] = uint8((v >> 8) & 0xFF)
	}
	return expanded
}

// ConvertFromUtf16 lossily decodes a slice of UTF-16 LE bytes to a string.
// Unpaired surrogates are replaced rather than rejected since player chat
// regularly contains garbage the client itself tolerates.
func ConvertFromUtf16(b []byte) string {
	decoded, err := utf16Decoder.NewDecoder().Bytes(b)
	if err != nil {
		// The decoder substitutes invalid sequences rather than failing;
		// an error here means something unrecoverable about the input.
		return string(bytes.ToValidUTF8(b, []byte("�")))
	}
	return string(decoded)
}

// StripPadding returns a slice of b without the trailing 0s.
func StripPadding(b []byte) []byte {
	for i := len(b) - 1; i >= 0; i-- {
		if b[i] != 0 {
			return b[:i+1]
		}
	}
	return []byte{}
}
