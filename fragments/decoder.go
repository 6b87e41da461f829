package fragments

import (
	"fmt"
	"strings"
)

// A Buffer splits a payload for sending, or reassembles one from
// received fragments. A single Buffer is only ever used for one
// transfer in one direction.
//
// The zero value is an empty Buffer ready for either [Buffer.Load] or
// [Buffer.Receive].
type Buffer struct {
	// slots holds received fragments, indexed by Fragment.Index-1.
	// It is nil until the first fragment is accepted, after which its
	// length is the transfer's total and never changes.
	slots  []*Fragment
	filled int

	// outgoing holds the chunks produced by Load, and cursor is the
	// 0-based index of the next chunk NextOutgoing returns.
	outgoing []string
	cursor   int
}

// Receive files f into its slot.
//
// The first accepted fragment fixes the transfer's total. Later
// fragments must agree with it, and a fragment for an already filled
// slot must carry a byte-identical payload, in which case Receive is
// a no-op. A rejected fragment leaves the Buffer unchanged.
func (b *Buffer) Receive(f Fragment) error {
	if err := f.validate(); err != nil {
		return err
	}
	if b.slots != nil && f.Total != len(b.slots) {
		return fmt.Errorf("%w: fragment %d claims %d parts, transfer has %d", ErrTotalMismatch, f.Index, f.Total, len(b.slots))
	}
	if b.slots != nil {
		if prev := b.slots[f.Index-1]; prev != nil {
			if prev.Payload != f.Payload {
				return fmt.Errorf("%w: index %d already holds different data", ErrConsistency, f.Index)
			}
			return nil
		}
	}

	if b.slots == nil {
		b.slots = make([]*Fragment, f.Total)
	}
	b.slots[f.Index-1] = &f
	b.filled++
	return nil
}

// IsComplete reports whether every slot has been filled.
func (b *Buffer) IsComplete() bool {
	return b.slots != nil && b.filled == len(b.slots)
}

// Total returns the number of fragments in the transfer being
// received, or 0 if no fragment has been accepted yet.
func (b *Buffer) Total() int {
	return len(b.slots)
}

// Received returns the number of distinct fragments accepted so far.
func (b *Buffer) Received() int {
	return b.filled
}

// Missing returns the 1-based indices of the slots that are still
// empty, in ascending order.
func (b *Buffer) Missing() []int {
	var ret []int
	for i, s := range b.slots {
		if s == nil {
			ret = append(ret, i+1)
		}
	}
	return ret
}

// Assembled returns the concatenation of all fragment payloads in
// index order. It fails with [ErrIncomplete] if any slot is empty.
func (b *Buffer) Assembled() (string, error) {
	if !b.IsComplete() {
		return "", fmt.Errorf("%w: have %d of %d fragments", ErrIncomplete, b.filled, len(b.slots))
	}
	var sb strings.Builder
	for _, s := range b.slots {
		sb.WriteString(s.Payload)
	}
	return sb.String(), nil
}
