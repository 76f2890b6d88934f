package psk31

import "fmt"

const wordSize = 32

// zeros is the source for runs of zero bits.
var zeros = [...]byte{0, 0, 0, 0, 0, 0, 0, 0}

// Packer accumulates bit sequences into 32bit words, MSB first.
// Flush closes the packer and hands out the BitStream for reading.
type Packer struct {
	words  []uint32
	tail   uint32
	offset int
	length int

	noFastPath bool
}

// Append appends the n most significant bits of src, MSB first within each byte.
// It panics if src holds fewer than n bits.
func (p *Packer) Append(src []byte, n int) {
	if n > len(src)*8 {
		panic(fmt.Sprintf("psk31: cannot append %d bits from %d bytes", n, len(src)))
	}
	byteIndex := 0
	bitIndex := 0
	for n > 0 {
		if p.offset == wordSize {
			p.words = append(p.words, p.tail)
			p.tail = 0
			p.offset = 0
		}
		space := wordSize - p.offset

		if !p.noFastPath && bitIndex == 0 && space >= 8 && n > 8 {
			p.tail |= uint32(src[byteIndex]) << uint(space-8)
			p.offset += 8
			p.length += 8
			n -= 8
			byteIndex++
			continue
		}

		if src[byteIndex]&(0x80>>uint(bitIndex)) != 0 {
			p.tail |= 1 << uint(space-1)
		}
		p.offset++
		p.length++
		n--
		bitIndex++
		if bitIndex == 8 {
			bitIndex = 0
			byteIndex++
		}
	}
}

// AppendZeros appends a run of n zero bits.
func (p *Packer) AppendZeros(n int) {
	for n > 0 {
		chunk := min(n, len(zeros)*8)
		p.Append(zeros[:], chunk)
		n -= chunk
	}
}

// Len returns the number of bits appended so far.
func (p *Packer) Len() int {
	return p.length
}

// Flush closes out the tail word and returns the packed stream. The packer is
// empty afterwards and can be reused.
func (p *Packer) Flush() *BitStream {
	words := p.words
	if p.offset > 0 {
		words = append(words, p.tail)
	}
	stream := &BitStream{words: words, length: p.length}

	p.words = nil
	p.tail = 0
	p.offset = 0
	p.length = 0
	return stream
}

// BitStream is a flushed, read-only sequence of packed bits.
type BitStream struct {
	words  []uint32
	length int

	readWord   int
	readOffset int
}

// Len returns the number of bits in the stream.
func (s *BitStream) Len() int {
	return s.length
}

// Words returns a copy of the packed words.
func (s *BitStream) Words() []uint32 {
	result := make([]uint32, len(s.words))
	copy(result, s.words)
	return result
}

// Remaining returns the number of unread bits.
func (s *BitStream) Remaining() int {
	return s.length - (s.readWord*wordSize + s.readOffset)
}

// NextBit pops the next unread bit. ok is false when the end of the stream is reached.
func (s *BitStream) NextBit() (bit uint8, ok bool) {
	if s.Remaining() <= 0 {
		return 0, false
	}
	bit = uint8((s.words[s.readWord] >> uint(wordSize-1-s.readOffset)) & 1)
	s.readOffset++
	if s.readOffset == wordSize {
		s.readWord++
		s.readOffset = 0
	}
	return bit, true
}

// Reset moves the read cursor back to the start of the stream.
func (s *BitStream) Reset() {
	s.readWord = 0
	s.readOffset = 0
}

// Bits returns all bits of the stream as single values without moving the read cursor.
func (s *BitStream) Bits() []uint8 {
	result := make([]uint8, 0, s.length)
	for i := 0; i < s.length; i++ {
		result = append(result, uint8((s.words[i/wordSize]>>uint(wordSize-1-i%wordSize))&1))
	}
	return result
}
