package fountain

import (
	"errors"
	"fmt"

	"github.com/fxamacker/cbor/v2"
)

// MaxSeqLen bounds the number of fragments a decoder accepts.
// Fragment selection allocates in proportion to the count.
const MaxSeqLen = 1 << 16

// ErrInvalidPart is returned for a part whose envelope cannot be
// decoded or is internally inconsistent.
var ErrInvalidPart = errors.New("fountain: invalid part")

// A Part is one emitted symbol of a fountain-coded message.
type Part struct {
	_ struct{} `cbor:",toarray"`

	// SeqNum is the 1-based sequence number of the part. Parts
	// 1..SeqLen carry a single fragment each, later parts carry a
	// mix.
	SeqNum uint32
	// SeqLen is the number of fragments the message was cut into.
	SeqLen uint32
	// MessageLen is the length of the message in bytes, before
	// padding to a whole number of fragments.
	MessageLen uint32
	// Checksum is the CRC32 of the whole message.
	Checksum uint32
	// Data is the fragment, or XOR of fragments, carried by the
	// part.
	Data []byte
}

// MarshalCBOR returns the CBOR envelope of p.
func (p *Part) MarshalCBOR() ([]byte, error) {
	type plain Part
	return cbor.Marshal((*plain)(p))
}

// UnmarshalCBOR decodes a CBOR envelope into p and checks it.
func (p *Part) UnmarshalCBOR(bs []byte) error {
	type plain Part
	var ret plain
	if err := cbor.Unmarshal(bs, &ret); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidPart, err)
	}
	switch {
	case ret.SeqNum == 0:
		return fmt.Errorf("%w: sequence number 0", ErrInvalidPart)
	case ret.SeqLen == 0:
		return fmt.Errorf("%w: zero fragments", ErrInvalidPart)
	case ret.SeqLen > MaxSeqLen:
		return fmt.Errorf("%w: %d fragments exceeds limit of %d", ErrInvalidPart, ret.SeqLen, MaxSeqLen)
	case len(ret.Data) == 0:
		return fmt.Errorf("%w: empty fragment", ErrInvalidPart)
	case uint64(ret.MessageLen) > uint64(ret.SeqLen)*uint64(len(ret.Data)):
		return fmt.Errorf("%w: %d fragments of %d bytes cannot hold %d bytes", ErrInvalidPart, ret.SeqLen, len(ret.Data), ret.MessageLen)
	}
	*p = Part(ret)
	return nil
}

// Indexes returns the 0-based indices of the fragments mixed into p.
func (p *Part) Indexes() []int {
	return chooseFragments(p.SeqNum, int(p.SeqLen), p.Checksum)
}
