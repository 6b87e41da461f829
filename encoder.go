package multiqr

import (
	"fmt"

	"github.com/btcsuite/btcd/chaincfg"
	"github.com/danderson/multiqr/specter"
	"github.com/danderson/multiqr/ur"
	"go.uber.org/zap"
)

// A FrameEncoder emits the frames of one payload, cycling through
// them forever.
type FrameEncoder interface {
	Next() string
	// Parts returns the number of distinct fragments of the payload.
	Parts() int
}

var (
	_ FrameEncoder = (*specter.Encoder)(nil)
	_ FrameEncoder = (*ur.Encoder)(nil)
	_ FrameEncoder = (*Encoder)(nil)
)

// EncoderOptions are the options for an Encoder.
type EncoderOptions struct {
	// MaxLen is the largest frame the display can show, in
	// characters. Zero means unlimited, so that every payload fits in
	// one frame. For Specter the limit applies to the payload chunk,
	// not the header. Raw and UR encoders fail with [ErrTooLarge]
	// when their frames cannot fit.
	MaxLen int
	// FragmentLen, if set, is the UR fragment length in bytes,
	// overriding the length derived from MaxLen. MaxLen is then not
	// enforced for UR.
	FragmentLen int
	// Network is the Bitcoin network of the payload. The default is
	// mainnet.
	Network *chaincfg.Params
	// Logger, if non-nil, replaces the package [Logger].
	Logger *zap.Logger
}

// An Encoder emits the frames of one payload in a wire dialect.
type Encoder struct {
	dialect WireDialect
	enc     FrameEncoder
}

// NewEncoder returns an Encoder for p in the given dialect.
func NewEncoder(p Payload, dialect WireDialect, opts *EncoderOptions) (*Encoder, error) {
	var o EncoderOptions
	if opts != nil {
		o = *opts
	}
	o.Network = netOr(o.Network)
	log := loggerOr(o.Logger)

	if err := checkPayloadNet(p, o.Network); err != nil {
		return nil, err
	}

	var (
		enc FrameEncoder
		err error
	)
	switch dialect {
	case UnselectedDialect:
		return nil, ErrNoDialect
	case Raw:
		enc, err = newRawEncoder(p, o.MaxLen)
	case Specter:
		enc, err = newSpecterEncoder(p, o.MaxLen)
	case UR:
		enc, err = newUREncoder(p, o)
	default:
		return nil, fmt.Errorf("%w: dialect %s", ErrNotImplemented, dialect)
	}
	if err != nil {
		return nil, err
	}
	log.Debug("created encoder", zap.Stringer("dialect", dialect), zap.Stringer("type", p.Type), zap.Int("parts", enc.Parts()))
	return &Encoder{dialect, enc}, nil
}

// Next returns the next frame to display. After the last fragment,
// Next starts over from the first.
func (e *Encoder) Next() string { return e.enc.Next() }

// Parts returns the number of distinct fragments of the payload.
// Displaying Parts consecutive frames shows every fragment once.
func (e *Encoder) Parts() int { return e.enc.Parts() }

// Dialect returns the wire dialect of the encoder.
func (e *Encoder) Dialect() WireDialect { return e.dialect }

type rawEncoder string

func (r rawEncoder) Next() string { return string(r) }
func (r rawEncoder) Parts() int   { return 1 }

func newRawEncoder(p Payload, maxLen int) (FrameEncoder, error) {
	s, err := FormatPayload(p)
	if err != nil {
		return nil, err
	}
	if maxLen > 0 && len(s) > maxLen {
		return nil, fmt.Errorf("%w: %d bytes, limit %d", ErrTooLarge, len(s), maxLen)
	}
	return rawEncoder(s), nil
}

func newSpecterEncoder(p Payload, maxLen int) (FrameEncoder, error) {
	s, err := FormatPayload(p)
	if err != nil {
		return nil, err
	}
	if maxLen <= 0 {
		maxLen = max(len(s), 1)
	}
	enc, err := specter.NewEncoder(s, maxLen)
	if err != nil {
		return nil, err
	}
	return enc, nil
}

func newUREncoder(p Payload, o EncoderOptions) (FrameEncoder, error) {
	t, msg, err := urBody(p)
	if err != nil {
		return nil, err
	}
	fragLen := o.FragmentLen
	if fragLen <= 0 {
		fragLen = len(msg)
	}
	enc, err := ur.NewEncoder(t, msg, fragLen)
	if err != nil {
		return nil, err
	}
	if o.FragmentLen > 0 || o.MaxLen <= 0 || enc.Fits(o.MaxLen) {
		return enc, nil
	}
	// A single part is too long, spread the message over parts.
	enc, err = ur.NewEncoder(t, msg, ur.FragmentLenFor(o.MaxLen, t))
	if err != nil {
		return nil, err
	}
	if !enc.Fits(o.MaxLen) {
		return nil, fmt.Errorf("%w: %s UR of %d bytes does not fit frames of %d characters", ErrTooLarge, t, len(msg), o.MaxLen)
	}
	return enc, nil
}

// checkPayloadNet checks that addresses and keys in p belong to net.
func checkPayloadNet(p Payload, net *chaincfg.Params) error {
	if a, ok := p.Address(); ok && !a.IsForNet(net) {
		return payloadErr(p.Type, "address %s is not for network %s", a.EncodeAddress(), net.Name)
	}
	if k, ok := p.ExtendedKey(); ok && !k.IsForNet(net) {
		return payloadErr(p.Type, "key is not for network %s", net.Name)
	}
	return nil
}
