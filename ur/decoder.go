package ur

import (
	"fmt"
	"unicode/utf8"

	"github.com/creachadair/mds/value"
	"github.com/danderson/multiqr/internal/fountain"
	"github.com/fxamacker/cbor/v2"
)

// A Decoder reassembles one UR message from its parts.
//
// The first accepted part fixes the type tag and multi-part-ness of
// the transfer. Later parts that disagree are rejected with
// [ErrTypeMismatch], so parts from two transfers shown on the same
// channel are never merged.
type Decoder struct {
	// NewSequential, if non-nil, constructs the decoder that
	// reassembles the message. The default is a BC-UR fountain
	// decoder.
	NewSequential func() SequentialDecoder

	typ   value.Maybe[Type]
	multi value.Maybe[bool]
	seq   SequentialDecoder
}

// TypeCheck reports whether data can be fed to the decoder: it is a
// UR string of a known type and, if a decode is in progress, has the
// same type and multi-part-ness as the parts seen so far.
func (d *Decoder) TypeCheck(data string) bool {
	t, err := Classify(data)
	if err != nil {
		return false
	}
	want, ok := d.typ.GetOK()
	if !ok {
		return true
	}
	return t == want && d.multi.Get() == IsMultiPart(data)
}

// Receive feeds one UR string to the decoder and reports whether the
// message is complete. A rejected string does not change the
// decoder's state.
func (d *Decoder) Receive(data string) (bool, error) {
	t, err := Classify(data)
	if err != nil {
		return false, err
	}
	if !d.TypeCheck(data) {
		return false, fmt.Errorf("%w: got %s (multi-part %v), decoding %s (multi-part %v)", ErrTypeMismatch, t, IsMultiPart(data), d.typ.Get(), d.multi.Get())
	}

	seq := d.seq
	if seq == nil {
		seq = d.newSequential()
	}
	if err := seq.Receive(data); err != nil {
		return false, err
	}
	if d.seq == nil {
		d.seq = seq
		d.typ = value.Just(t)
		d.multi = value.Just(IsMultiPart(data))
	}
	return seq.IsComplete(), nil
}

func (d *Decoder) newSequential() SequentialDecoder {
	if d.NewSequential != nil {
		return d.NewSequential()
	}
	return fountain.NewURDecoder()
}

// IsComplete reports whether the whole message has been received.
func (d *Decoder) IsComplete() bool {
	return d.seq != nil && d.seq.IsComplete()
}

// Type returns the type tag of the transfer, if a part has been
// accepted.
func (d *Decoder) Type() (Type, bool) {
	return d.typ.GetOK()
}

// Progress returns the number of fragments recovered and the total
// number of fragments, if the sequential decoder can tell.
func (d *Decoder) Progress() (received, total int) {
	if p, ok := d.seq.(interface{ Progress() (int, int) }); ok {
		return p.Progress()
	}
	if d.IsComplete() {
		return 1, 1
	}
	return 0, 0
}

// Message returns the reassembled CBOR message.
func (d *Decoder) Message() ([]byte, error) {
	if !d.IsComplete() {
		return nil, ErrIncomplete
	}
	msg, err := d.seq.Message()
	if err != nil {
		return nil, err
	}
	if msg == nil {
		return nil, ErrIncomplete
	}
	return msg, nil
}

// Bytes returns the message as the contents of a CBOR byte string,
// the body of the bytes and crypto-psbt types.
func (d *Decoder) Bytes() ([]byte, error) {
	msg, err := d.Message()
	if err != nil {
		return nil, err
	}
	var ret []byte
	if err := cbor.Unmarshal(msg, &ret); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrEncoding, err)
	}
	return ret, nil
}

// Text returns the message as UTF-8 text carried in a CBOR byte
// string.
func (d *Decoder) Text() (string, error) {
	bs, err := d.Bytes()
	if err != nil {
		return "", err
	}
	if !utf8.Valid(bs) {
		return "", fmt.Errorf("%w: message is not UTF-8", ErrEncoding)
	}
	return string(bs), nil
}
