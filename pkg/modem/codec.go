package modem

import (
	"fmt"

	"Chirpnet/pkg/protocol"
	"Chirpnet/pkg/reedsolomon"
)

// Frame is a full FEC codeword of alphabet indices laid out as
// [identifier][payload][zero padding][parity].
type Frame []int

// Outcome classifies a decode attempt. Only Addressed carries a message;
// the others are routine on a lossy channel.
type Outcome int

const (
	Addressed Outcome = iota
	NotAddressed
	Uncorrectable
)

func (o Outcome) String() string {
	switch o {
	case Addressed:
		return "addressed"
	case NotAddressed:
		return "not_addressed"
	case Uncorrectable:
		return "uncorrectable"
	}
	return fmt.Sprintf("Outcome(%d)", int(o))
}

// Erasure marks a symbol that could not be recognized.
const Erasure = -1

type FrameCodec struct {
	params  *protocol.Params
	encoder *reedsolomon.Encoder
	decoder *reedsolomon.Decoder
}

func NewFrameCodec(params *protocol.Params) *FrameCodec {
	r := params.Range()
	field := reedsolomon.NewField(r.GaloisPolynomial, r.FieldSize(), 1)
	return &FrameCodec{
		params:  params,
		encoder: reedsolomon.NewEncoder(field),
		decoder: reedsolomon.NewDecoder(field),
	}
}

func (c *FrameCodec) Params() *protocol.Params {
	return c.params
}

// Validate checks that message can be carried as a payload.
func (c *FrameCodec) Validate(message string) error {
	if len(message) != c.params.PayloadLength() {
		return fmt.Errorf("%w: got %d symbols, expected %d", protocol.ErrInvalidPayload, len(message), c.params.PayloadLength())
	}
	_, err := c.params.Symbols(message)
	return err
}

// Encode prepends the identifier to message and appends parity.
func (c *FrameCodec) Encode(message string) (Frame, error) {
	if err := c.Validate(message); err != nil {
		return nil, err
	}
	data, err := c.params.Symbols(c.params.Identifier() + message)
	if err != nil {
		return nil, err
	}

	frame := make(Frame, c.params.Range().FrameLength)
	copy(frame, data)
	if err := c.encoder.Encode(frame, c.params.ParityLength()); err != nil {
		return nil, fmt.Errorf("encode frame: %w", err)
	}
	return frame, nil
}

// Decode corrects frame and returns its payload when it carries our
// identifier. frame is not modified.
func (c *FrameCodec) Decode(frame Frame) (string, Outcome) {
	if len(frame) != c.params.Range().FrameLength {
		return "", Uncorrectable
	}
	work := make([]int, len(frame))
	copy(work, frame)

	if _, err := c.decoder.Decode(work, c.params.ParityLength()); err != nil {
		return "", Uncorrectable
	}

	// padding is never transmitted; a correction landing there is a miscorrection
	for _, s := range work[c.params.DataLength() : len(work)-c.params.ParityLength()] {
		if s != 0 {
			return "", Uncorrectable
		}
	}

	identifier := c.params.Identifier()
	for i := 0; i < len(identifier); i++ {
		if c.params.Character(work[i]) != identifier[i] {
			return "", NotAddressed
		}
	}
	return c.params.Text(work[len(identifier):c.params.DataLength()]), Addressed
}

// Compact returns the symbols that go on air: identifier, payload, parity.
func (c *FrameCodec) Compact(frame Frame) []int {
	data := c.params.DataLength()
	parity := c.params.ParityLength()
	out := make([]int, 0, data+parity)
	out = append(out, frame[:data]...)
	out = append(out, frame[len(frame)-parity:]...)
	return out
}

// Expand rebuilds a codeword from on-air symbols.
func (c *FrameCodec) Expand(symbols []int) (Frame, error) {
	if len(symbols) != c.params.EncodedLength() {
		return nil, fmt.Errorf("%w: got %d symbols, expected %d", protocol.ErrInvalidPayload, len(symbols), c.params.EncodedLength())
	}
	data := c.params.DataLength()
	parity := c.params.ParityLength()
	frame := make(Frame, c.params.Range().FrameLength)
	copy(frame, symbols[:data])
	copy(frame[len(frame)-parity:], symbols[data:])
	return frame, nil
}

// DecodeText decodes an on-air character sequence. Characters outside the
// alphabet become erasures.
func (c *FrameCodec) DecodeText(received string) (string, Outcome) {
	symbols := make([]int, len(received))
	for i := 0; i < len(received); i++ {
		symbols[i] = c.params.Index(received[i])
		if symbols[i] < 0 {
			symbols[i] = Erasure
		}
	}
	frame, err := c.Expand(symbols)
	if err != nil {
		return "", Uncorrectable
	}
	return c.Decode(frame)
}

// EncodeText returns the on-air character sequence for message.
func (c *FrameCodec) EncodeText(message string) (string, error) {
	frame, err := c.Encode(message)
	if err != nil {
		return "", err
	}
	return c.params.Text(c.Compact(frame)), nil
}
