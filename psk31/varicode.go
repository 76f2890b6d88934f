package psk31

import (
	"errors"
	"fmt"
	"math/bits"
	"strings"
)

// Varicode contains the PSK31 varicode for the ASCII characters 0..127.
// The codes are right-justified, the length of a code is its bit length.
var Varicode = [128]uint16{
	// control characters
	0b1010101011, 0b1011011011, 0b1011101101, 0b1101110111, 0b1011101011, 0b1101011111, 0b1011101111, 0b1011111101,
	0b1011111111, 0b11101111, 0b11101, 0b1101101111, 0b1011011101, 0b11111, 0b1101110101, 0b1110101011,
	0b1011110111, 0b1011110101, 0b1110101101, 0b1110101111, 0b1101011011, 0b1101101011, 0b1101101101, 0b1101010111,
	0b1101111011, 0b1101111101, 0b1110110111, 0b1101010101, 0b1101011101, 0b1110111011, 0b1011111011, 0b1101111111,

	// ' ' .. '?'
	0b1, 0b111111111, 0b101011111, 0b111110101, 0b111011011, 0b1011010101, 0b1010111011, 0b101111111,
	0b11111011, 0b11110111, 0b101101111, 0b111011111, 0b1110101, 0b110101, 0b1010111, 0b110101111,
	0b10110111, 0b10111101, 0b11101101, 0b11111111, 0b101110111, 0b101011011, 0b101101011, 0b110101101,
	0b110101011, 0b110110111, 0b11110101, 0b110111101, 0b111101101, 0b1010101, 0b111010111, 0b1010101111,

	// '@' .. '_'
	0b1010111101, 0b1111101, 0b11101011, 0b10101101, 0b10110101, 0b1110111, 0b11011011, 0b11111101,
	0b101010101, 0b1111111, 0b111111101, 0b101111101, 0b11010111, 0b10111011, 0b11011101, 0b10101011,
	0b11010101, 0b111011101, 0b10101111, 0b1101111, 0b1101101, 0b101010111, 0b110110101, 0b101011101,
	0b101110101, 0b101111011, 0b1010101101, 0b111110111, 0b111101111, 0b111111011, 0b1010111111, 0b101101101,

	// '`' .. DEL
	0b1011011111, 0b1011, 0b1011111, 0b101111, 0b101101, 0b11, 0b111101, 0b1011011,
	0b101011, 0b1101, 0b111101011, 0b10111111, 0b11011, 0b111011, 0b1111, 0b111,
	0b111111, 0b110111111, 0b10101, 0b10111, 0b101, 0b110111, 0b1111011, 0b1101011,
	0b11011111, 0b1011101, 0b111010101, 0b1010110111, 0b110111011, 0b1010110101, 0b1011010111, 0b1110110101,
}

// MaxCodeLength is the length of the longest varicode.
const MaxCodeLength = 10

// separatorLength is the number of zero bits that follow every code.
const separatorLength = 2

// ErrUnsupportedCharacter indicates a character that has no varicode.
var ErrUnsupportedCharacter = errors.New("psk31: unsupported character")

// UnsupportedCharacterError describes the first character of a message that cannot be encoded.
type UnsupportedCharacterError struct {
	Char   rune
	Offset int
}

func (e *UnsupportedCharacterError) Error() string {
	return fmt.Sprintf("psk31: unsupported character %q at offset %d", e.Char, e.Offset)
}

// Is makes errors.Is(err, ErrUnsupportedCharacter) work.
func (e *UnsupportedCharacterError) Is(target error) bool {
	return target == ErrUnsupportedCharacter
}

// Code is a single varicode, right-justified in Bits.
type Code struct {
	Bits uint16
	Len  int
}

// Encode returns the varicode of the given character.
func Encode(r rune) (Code, error) {
	if r < 0 || int(r) >= len(Varicode) {
		return Code{}, &UnsupportedCharacterError{Char: r}
	}
	c := Varicode[r]
	return Code{Bits: c, Len: bits.Len16(c)}, nil
}

// Separated returns the code followed by the two zero separator bits, left-aligned
// in a byte slice, and the number of valid bits.
func (c Code) Separated() ([]byte, int) {
	aligned := c.Bits << uint(16-c.Len)
	return []byte{byte(aligned >> 8), byte(aligned)}, c.Len + separatorLength
}

// String returns the code as a string of ones and zeros.
func (c Code) String() string {
	return fmt.Sprintf("%0*b", c.Len, c.Bits)
}

// DecodeVaricode decodes a sequence of single bits back into text. Codes are separated by
// at least two zero bits, leading zeros are skipped. A trailing code without separator is ignored.
func DecodeVaricode(stream []uint8) (string, error) {
	var text strings.Builder
	var current uint16
	length := 0
	zeros := 0
	for _, b := range stream {
		if b == 0 {
			zeros++
			if zeros == separatorLength && length > 0 {
				r, ok := lookupCode(current)
				if !ok {
					return text.String(), fmt.Errorf("psk31: unknown varicode %b", current)
				}
				text.WriteRune(r)
				current = 0
				length = 0
			}
			continue
		}
		for ; zeros > 0 && length > 0; zeros-- {
			current <<= 1
			length++
		}
		zeros = 0
		current = (current << 1) | 1
		length++
		if length > MaxCodeLength {
			return text.String(), fmt.Errorf("psk31: varicode longer than %d bits", MaxCodeLength)
		}
	}
	return text.String(), nil
}

func lookupCode(code uint16) (rune, bool) {
	for i, c := range Varicode {
		if c == code {
			return rune(i), true
		}
	}
	return 0, false
}
