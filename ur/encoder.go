package ur

import (
	"fmt"

	"github.com/danderson/multiqr/internal/fountain"
)

// An Encoder emits the UR parts of one message.
type Encoder struct {
	typ Type
	seq SequentialEncoder
}

// NewEncoder returns an Encoder for the CBOR message of type t, cut
// into fragments of at most maxFragmentLen bytes.
func NewEncoder(t Type, message []byte, maxFragmentLen int) (*Encoder, error) {
	if !t.Known() {
		return nil, unknownType(t)
	}
	seq, err := fountain.NewUREncoder(string(t), message, maxFragmentLen)
	if err != nil {
		return nil, fmt.Errorf("ur: %w", err)
	}
	return &Encoder{t, seq}, nil
}

// Type returns the type tag of the encoded message.
func (e *Encoder) Type() Type { return e.typ }

// Parts returns the number of fragments in the message. Next returns
// every fragment at least once in the first Parts calls.
func (e *Encoder) Parts() int { return e.seq.SeqLen() }

// Next returns the next UR string to display. A single-part message
// returns the same string forever. A multi-part message returns its
// fragments in order, followed by an unbounded stream of fountain
// mixes of them.
func (e *Encoder) Next() string { return e.seq.NextPart() }

// maxPartOverhead is an upper bound on the bytes of a multi-part UR
// string that are not fragment data, excluding the type tag.
//
//	"ur:" + "/" + "4294967295-65536/"   21
//	CBOR array, 4 uints, bstr header    24, as bytewords 48
//	CRC32 as bytewords                  8
const maxPartOverhead = 21 + 48 + 8

// FragmentLenFor returns a fragment length such that every UR string
// of type t fits in maxLen characters. The result is at least 1, so
// a maxLen too small for any fragment still yields an encoding; use
// [Encoder.Fits] to check it.
func FragmentLenFor(maxLen int, t Type) int {
	n := (maxLen - len(t) - maxPartOverhead) / 2
	return max(n, 1)
}

// Fits reports whether every string e emits is at most maxLen
// characters long. For multi-part messages the check is conservative:
// it assumes the longest possible sequence indicator.
func (e *Encoder) Fits(maxLen int) bool {
	if e.Parts() == 1 {
		return len(e.Next()) <= maxLen
	}
	fl, ok := e.seq.(interface{ FragmentLen() int })
	if !ok {
		// Unknown sequential encoders are trusted to honor the
		// fragment length they were given.
		return true
	}
	return 2*fl.FragmentLen() <= maxLen-len(e.typ)-maxPartOverhead
}
