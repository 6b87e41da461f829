package fragments

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidLength is returned when a chunk size is not positive.
	ErrInvalidLength = errors.New("fragments: invalid max length")
	// ErrIndex is returned for a fragment index outside 1..total.
	ErrIndex = errors.New("fragments: index out of range")
	// ErrTotalMismatch is returned when a fragment's total disagrees
	// with the total recorded by an earlier fragment.
	ErrTotalMismatch = errors.New("fragments: total mismatch")
	// ErrConsistency is returned when a fragment's payload differs
	// from the payload already stored at the same index.
	ErrConsistency = errors.New("fragments: conflicting duplicate")
	// ErrIncomplete is returned when assembly is requested before
	// every fragment has been received.
	ErrIncomplete = errors.New("fragments: incomplete")
)

// MaxTotal is the largest number of fragments in one transfer.
const MaxTotal = 1 << 16

// A Fragment is one indexed piece of a split payload.
//
// Fragments only exist for payloads that were actually split, so
// Total is always at least 2. A payload that fits in one code is
// sent as-is and never becomes a Fragment.
type Fragment struct {
	// Payload is the fragment's share of the original payload.
	Payload string
	// Index is the 1-based position of the fragment.
	Index int
	// Total is the number of fragments in the transfer.
	Total int
}

// NewFragment returns a Fragment, or an error if index and total do
// not satisfy 1 <= index <= total and 2 <= total <= [MaxTotal].
func NewFragment(payload string, index, total int) (Fragment, error) {
	f := Fragment{payload, index, total}
	if err := f.validate(); err != nil {
		return Fragment{}, err
	}
	return f, nil
}

func (f Fragment) validate() error {
	if f.Total < 2 {
		return fmt.Errorf("%w: total %d, multi-part transfers need at least 2", ErrIndex, f.Total)
	}
	if f.Total > MaxTotal {
		return fmt.Errorf("%w: total %d exceeds limit of %d", ErrIndex, f.Total, MaxTotal)
	}
	if f.Index < 1 || f.Index > f.Total {
		return fmt.Errorf("%w: index %d not in 1..%d", ErrIndex, f.Index, f.Total)
	}
	return nil
}

func (f Fragment) String() string {
	return fmt.Sprintf("fragment %d/%d (%d bytes)", f.Index, f.Total, len(f.Payload))
}
