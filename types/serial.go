package types

// ------------------------
// Serial
// ------------------------

// ChunkSize is the fixed read size of the serial peripheral and the maximum
// payload of a Chunk.
const ChunkSize = 32

type Parity uint8

const (
	ParityNone Parity = iota
	ParityEven
	ParityOdd
)

func (p Parity) String() string {
	switch p {
	case ParityEven:
		return "even"
	case ParityOdd:
		return "odd"
	default:
		return "none"
	}
}

// Letter returns the single-letter form used by termios style drivers.
func (p Parity) Letter() string {
	switch p {
	case ParityEven:
		return "E"
	case ParityOdd:
		return "O"
	default:
		return "N"
	}
}

// ParseParity accepts "none", "even", "odd" (and their first letters).
// Unknown strings map to ParityNone.
func ParseParity(s string) Parity {
	switch s {
	case "even", "E", "e":
		return ParityEven
	case "odd", "O", "o":
		return ParityOdd
	default:
		return ParityNone
	}
}

// Chunk is one serial read carried as a mailbox message. It is a fixed-size
// value so that queueing it never allocates.
type Chunk struct {
	n uint8
	b [ChunkSize]byte
}

// NewChunk copies at most ChunkSize bytes of p.
func NewChunk(p []byte) Chunk {
	var c Chunk
	c.n = uint8(copy(c.b[:], p))
	return c
}

// Len returns the number of payload bytes.
func (c *Chunk) Len() int { return int(c.n) }

// Bytes returns the payload. The slice aliases the chunk; callers must not
// modify it.
func (c *Chunk) Bytes() []byte { return c.b[:c.n] }
