package fountain

import (
	"errors"
	"fmt"
	"hash/crc32"
)

// MinFragmentLen is the smallest fragment the encoder will choose
// when spreading a message over parts.
const MinFragmentLen = 10

// ErrEmptyMessage is returned when asked to encode nothing.
var ErrEmptyMessage = errors.New("fountain: empty message")

// An Encoder produces an unbounded sequence of parts for a message.
type Encoder struct {
	messageLen int
	checksum   uint32
	fragments  [][]byte
	seqNum     uint32
}

// NewEncoder returns an Encoder that cuts message into fragments of
// at most maxFragmentLen bytes, all of equal length.
func NewEncoder(message []byte, maxFragmentLen int) (*Encoder, error) {
	if len(message) == 0 {
		return nil, ErrEmptyMessage
	}
	if maxFragmentLen <= 0 {
		return nil, fmt.Errorf("fountain: invalid max fragment length %d", maxFragmentLen)
	}
	fragLen := FragmentLen(len(message), MinFragmentLen, maxFragmentLen)
	return &Encoder{
		messageLen: len(message),
		checksum:   crc32.ChecksumIEEE(message),
		fragments:  partition(message, fragLen),
	}, nil
}

// FragmentLen returns the fragment length used for a message of
// messageLen bytes: the length of the fewest equal fragments that fit
// in maxLen, considering at most messageLen/minLen fragments.
func FragmentLen(messageLen, minLen, maxLen int) int {
	maxCount := max(messageLen/minLen, 1)
	fragLen := 0
	for count := 1; count <= maxCount; count++ {
		fragLen = (messageLen + count - 1) / count
		if fragLen <= maxLen {
			break
		}
	}
	return fragLen
}

func partition(message []byte, fragLen int) [][]byte {
	padded := make([]byte, ((len(message)+fragLen-1)/fragLen)*fragLen)
	copy(padded, message)
	ret := make([][]byte, 0, len(padded)/fragLen)
	for len(padded) > 0 {
		ret = append(ret, padded[:fragLen:fragLen])
		padded = padded[fragLen:]
	}
	return ret
}

// SeqLen returns the number of fragments.
func (e *Encoder) SeqLen() int {
	return len(e.fragments)
}

// FragmentLen returns the length of each fragment, in bytes.
func (e *Encoder) FragmentLen() int {
	return len(e.fragments[0])
}

// IsSinglePart reports whether the whole message fits in one
// fragment.
func (e *Encoder) IsSinglePart() bool {
	return len(e.fragments) == 1
}

// NextPart returns the next part. The first SeqLen parts carry the
// fragments in order, and all later parts are pseudo-random mixes.
func (e *Encoder) NextPart() *Part {
	e.seqNum++
	idx := chooseFragments(e.seqNum, len(e.fragments), e.checksum)
	data := make([]byte, len(e.fragments[0]))
	for _, i := range idx {
		xorInto(data, e.fragments[i])
	}
	return &Part{
		SeqNum:     e.seqNum,
		SeqLen:     uint32(len(e.fragments)),
		MessageLen: uint32(e.messageLen),
		Checksum:   e.checksum,
		Data:       data,
	}
}

func xorInto(dst, src []byte) {
	for i := range dst {
		dst[i] ^= src[i]
	}
}
