package fountain

import (
	"bytes"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/danderson/multiqr/internal/bytewords"
)

// ErrInvalidUR is returned for a string that is not a well-formed
// UR part.
var ErrInvalidUR = errors.New("fountain: invalid UR")

// URDecoder decodes a message from a sequence of UR strings, either a
// single-part "ur:type/body" or multi-part "ur:type/seq-len/body".
type URDecoder struct {
	typ     string
	dec     *Decoder
	message []byte
}

// NewURDecoder returns an empty URDecoder.
func NewURDecoder() *URDecoder {
	return &URDecoder{}
}

// Receive processes one UR string. Strings of a different type than
// the first one, or parts of a different message, are rejected
// without changing the decoder's state.
func (d *URDecoder) Receive(s string) error {
	typ, comps, err := parseUR(s)
	if err != nil {
		return err
	}
	if d.typ != "" && typ != d.typ {
		return fmt.Errorf("%w: type %q, decoding %q", ErrMismatch, typ, d.typ)
	}

	switch len(comps) {
	case 1:
		msg, err := bytewords.DecodeMinimal(comps[0])
		if err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidUR, err)
		}
		if d.dec != nil {
			return fmt.Errorf("%w: single-part UR during multi-part decode", ErrMismatch)
		}
		if d.message != nil && !bytes.Equal(d.message, msg) {
			return fmt.Errorf("%w: different single-part message", ErrMismatch)
		}
		d.typ, d.message = typ, msg
		return nil
	case 2:
		seqNum, seqLen, err := parseSeq(comps[0])
		if err != nil {
			return err
		}
		body, err := bytewords.DecodeMinimal(comps[1])
		if err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidUR, err)
		}
		var p Part
		if err := p.UnmarshalCBOR(body); err != nil {
			return err
		}
		if p.SeqNum != seqNum || p.SeqLen != seqLen {
			return fmt.Errorf("%w: path says %d-%d, part says %d-%d", ErrInvalidUR, seqNum, seqLen, p.SeqNum, p.SeqLen)
		}
		if d.message != nil && d.dec == nil {
			return fmt.Errorf("%w: multi-part UR after single-part message", ErrMismatch)
		}

		dec := d.dec
		if dec == nil {
			dec = NewDecoder()
		}
		if _, err := dec.Receive(&p); err != nil {
			return err
		}
		d.typ, d.dec = typ, dec
		if dec.IsComplete() && d.message == nil {
			msg, err := dec.Message()
			if err != nil {
				return err
			}
			d.message = msg
		}
		return nil
	default:
		return fmt.Errorf("%w: %d path components", ErrInvalidUR, len(comps)+1)
	}
}

// IsComplete reports whether the message has been reconstructed.
func (d *URDecoder) IsComplete() bool {
	return d.message != nil
}

// Message returns the reconstructed message. It returns nil if the
// decoder is not complete.
func (d *URDecoder) Message() ([]byte, error) {
	if d.dec != nil {
		if _, err := d.dec.Message(); err != nil {
			return nil, err
		}
	}
	return d.message, nil
}

// Type returns the UR type of the message being decoded.
func (d *URDecoder) Type() string {
	return d.typ
}

// Progress returns the number of fragments recovered and the total.
// A single-part message counts as one fragment.
func (d *URDecoder) Progress() (received, total int) {
	switch {
	case d.dec != nil:
		return d.dec.Progress()
	case d.message != nil:
		return 1, 1
	default:
		return 0, 0
	}
}

// UREncoder produces UR strings for a message.
type UREncoder struct {
	typ     string
	message []byte
	enc     *Encoder
}

// NewUREncoder returns a UREncoder for message, labelled with typ,
// using fragments of at most maxFragmentLen bytes.
func NewUREncoder(typ string, message []byte, maxFragmentLen int) (*UREncoder, error) {
	if !validType(typ) {
		return nil, fmt.Errorf("%w: type %q", ErrInvalidUR, typ)
	}
	enc, err := NewEncoder(message, maxFragmentLen)
	if err != nil {
		return nil, err
	}
	return &UREncoder{typ, message, enc}, nil
}

// SeqLen returns the number of fragments. A message that fits in one
// fragment is sent as a single-part UR.
func (e *UREncoder) SeqLen() int {
	return e.enc.SeqLen()
}

// FragmentLen returns the length of each fragment, in bytes.
func (e *UREncoder) FragmentLen() int {
	return e.enc.FragmentLen()
}

// NextPart returns the next UR string. Single-part messages return
// the same string every time.
func (e *UREncoder) NextPart() string {
	if e.enc.IsSinglePart() {
		return "ur:" + e.typ + "/" + bytewords.EncodeMinimal(e.message)
	}
	p := e.enc.NextPart()
	body, err := p.MarshalCBOR()
	if err != nil {
		// Part only holds integers and a byte string.
		panic(fmt.Sprintf("fountain: encoding part: %v", err))
	}
	return fmt.Sprintf("ur:%s/%d-%d/%s", e.typ, p.SeqNum, p.SeqLen, bytewords.EncodeMinimal(body))
}

func parseUR(s string) (typ string, comps []string, err error) {
	s = strings.ToLower(s)
	rest, ok := strings.CutPrefix(s, "ur:")
	if !ok {
		return "", nil, fmt.Errorf("%w: missing ur: scheme", ErrInvalidUR)
	}
	parts := strings.Split(rest, "/")
	if len(parts) < 2 {
		return "", nil, fmt.Errorf("%w: no body", ErrInvalidUR)
	}
	if !validType(parts[0]) {
		return "", nil, fmt.Errorf("%w: type %q", ErrInvalidUR, parts[0])
	}
	return parts[0], parts[1:], nil
}

func parseSeq(s string) (seqNum, seqLen uint32, err error) {
	a, b, ok := strings.Cut(s, "-")
	if !ok {
		return 0, 0, fmt.Errorf("%w: sequence %q", ErrInvalidUR, s)
	}
	n, err := strconv.ParseUint(a, 10, 32)
	if err != nil {
		return 0, 0, fmt.Errorf("%w: sequence %q: %w", ErrInvalidUR, s, err)
	}
	l, err := strconv.ParseUint(b, 10, 32)
	if err != nil {
		return 0, 0, fmt.Errorf("%w: sequence %q: %w", ErrInvalidUR, s, err)
	}
	return uint32(n), uint32(l), nil
}

func validType(t string) bool {
	if t == "" {
		return false
	}
	for _, c := range t {
		if !(c >= 'a' && c <= 'z' || c >= '0' && c <= '9' || c == '-') {
			return false
		}
	}
	return true
}
