package psk31

import (
	"errors"
	"fmt"
	"strings"
)

// Mode is one of the supported PSK modes.
type Mode int

// All supported modes.
const (
	BPSK125 Mode = iota + 1
	BPSK250
	BPSK500
	QPSK125
	QPSK250
	QPSK500
)

// ErrInvalidMode indicates a mode value or mode name that is not supported.
var ErrInvalidMode = errors.New("psk31: invalid mode")

var modeNames = map[Mode]string{
	BPSK125: "BPSK125",
	BPSK250: "BPSK250",
	BPSK500: "BPSK500",
	QPSK125: "QPSK125",
	QPSK250: "QPSK250",
	QPSK500: "QPSK500",
}

var shortModeNames = map[string]Mode{
	"b125": BPSK125,
	"b250": BPSK250,
	"b500": BPSK500,
	"q125": QPSK125,
	"q250": QPSK250,
	"q500": QPSK500,
}

// ParseMode parses the short (b125, q500, ...) or long (BPSK125, QPSK500, ...) name of a mode.
func ParseMode(s string) (Mode, error) {
	normalized := strings.ToLower(strings.TrimSpace(s))
	if m, ok := shortModeNames[normalized]; ok {
		return m, nil
	}
	for m, name := range modeNames {
		if strings.ToLower(name) == normalized {
			return m, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrInvalidMode, s)
}

// Valid indicates if m is one of the supported modes.
func (m Mode) Valid() bool {
	_, ok := modeNames[m]
	return ok
}

// SymbolRate returns the symbol rate of the mode in baud.
func (m Mode) SymbolRate() int {
	switch m {
	case BPSK125, QPSK125:
		return 125
	case BPSK250, QPSK250:
		return 250
	case BPSK500, QPSK500:
		return 500
	default:
		return 0
	}
}

// Quaternary indicates if the mode uses four phase states.
func (m Mode) Quaternary() bool {
	return m == QPSK125 || m == QPSK250 || m == QPSK500
}

// BitsPerSymbol returns the number of bits of the modulated stream that make up one symbol.
func (m Mode) BitsPerSymbol() int {
	if m.Quaternary() {
		return 2
	}
	return 1
}

func (m Mode) String() string {
	if name, ok := modeNames[m]; ok {
		return name
	}
	return fmt.Sprintf("Mode(%d)", int(m))
}
