package psk31

import "math/bits"

// Convolutional code of QPSK31: constraint length 5, rate 1/2.
const (
	constraintLength = 5
	polynom1         = 0x17
	polynom2         = 0x19
)

// convolver holds the shift register of the QPSK convolutional encoder.
type convolver struct {
	register uint8
}

// encode shifts the given data bit into the register and returns the resulting symbol 0..3.
func (c *convolver) encode(bit uint8) uint8 {
	c.register = ((c.register << 1) | (bit & 1)) & (1<<constraintLength - 1)
	return parity(c.register&polynom1) | parity(c.register&polynom2)<<1
}

func parity(v uint8) uint8 {
	return uint8(bits.OnesCount8(v) & 1)
}

// Convolve runs the remaining bits of the given stream through the QPSK convolutional encoder
// and returns a new stream that contains one dibit (MSB first) per data bit.
func Convolve(src *BitStream) *BitStream {
	var (
		c      convolver
		packer Packer
	)
	for {
		bit, ok := src.NextBit()
		if !ok {
			break
		}
		symbol := c.encode(bit)
		packer.Append([]byte{symbol << 6}, 2)
	}
	return packer.Flush()
}
