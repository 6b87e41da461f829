package specter

import (
	"fmt"

	"github.com/danderson/multiqr/fragments"
)

// A Decoder reassembles a payload from Specter frames, received in
// any order.
//
// The zero value is ready to use.
type Decoder struct {
	buf fragments.Buffer
}

// Receive processes one frame, and reports whether the payload is
// now complete.
//
// Frames without a header fail with [ErrNotMultiPart], malformed
// headers with [ErrParse], and frames inconsistent with earlier ones
// with the corresponding [fragments] error. A rejected frame does not
// change the Decoder's state.
func (d *Decoder) Receive(frame string) (bool, error) {
	if !Detect(frame) {
		return false, fmt.Errorf("%w: %q", ErrNotMultiPart, truncate(frame))
	}
	index, total, payload, err := DecodeHeader(frame)
	if err != nil {
		return false, err
	}
	f, err := fragments.NewFragment(payload, index, total)
	if err != nil {
		return false, fmt.Errorf("%w: %w", ErrParse, err)
	}
	if err := d.buf.Receive(f); err != nil {
		return false, err
	}
	return d.buf.IsComplete(), nil
}

// IsComplete reports whether every part has been received.
func (d *Decoder) IsComplete() bool {
	return d.buf.IsComplete()
}

// Progress returns the number of distinct parts received, and the
// total number of parts. Total is 0 until the first frame arrives.
func (d *Decoder) Progress() (received, total int) {
	return d.buf.Received(), d.buf.Total()
}

// Missing returns the 1-based indices of parts not yet received.
func (d *Decoder) Missing() []int {
	return d.buf.Missing()
}

// Assembled returns the reassembled payload. It fails with
// [fragments.ErrIncomplete] until every part has been received.
func (d *Decoder) Assembled() (string, error) {
	return d.buf.Assembled()
}
