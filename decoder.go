package multiqr

import (
	"fmt"

	"github.com/btcsuite/btcd/chaincfg"
	"github.com/creachadair/mds/value"
	"github.com/danderson/multiqr/fragments"
	"github.com/danderson/multiqr/specter"
	"github.com/danderson/multiqr/ur"
	"go.uber.org/zap"
)

// A FrameDecoder reassembles a payload from frames of one wire
// dialect.
type FrameDecoder interface {
	// Receive processes one frame, and reports whether the payload
	// is complete. A rejected frame does not change the decoder's
	// state.
	Receive(frame string) (bool, error)
	IsComplete() bool
}

var (
	_ FrameDecoder = (*specter.Decoder)(nil)
	_ FrameDecoder = (*ur.Decoder)(nil)
	_ FrameDecoder = (*Decoder)(nil)
)

// DecoderOptions are the options for a Decoder.
type DecoderOptions struct {
	// Dialect, if set, is the only wire dialect the decoder
	// accepts. Otherwise the first frame selects the dialect: Specter
	// if it has a "pNofM " header, UR if it has the "ur:" scheme, and
	// Raw if AllowRaw is set.
	Dialect WireDialect
	// AllowRaw allows an unframed first frame to be accepted as a
	// complete Raw payload when Dialect is unset. Without it, such a
	// frame fails with [ErrUnrecognizedFormat].
	AllowRaw bool
	// Type, if set, is the payload type of Raw and Specter
	// transfers. Otherwise it is detected with [DetectPayloadType].
	// UR transfers carry their own type.
	Type PayloadType
	// Network is the Bitcoin network of addresses and keys. The
	// default is mainnet.
	Network *chaincfg.Params
	// Logger, if non-nil, replaces the package [Logger].
	Logger *zap.Logger
}

// A Decoder reassembles one payload from frames of any supported wire
// dialect.
type Decoder struct {
	opts DecoderOptions
	log  *zap.Logger

	dialect WireDialect
	// single holds the payload of a transfer that fit in one frame:
	// a Raw transfer, or an unframed Specter transfer.
	single  value.Maybe[string]
	specter specter.Decoder
	ur      ur.Decoder
}

// NewDecoder returns a Decoder. A nil opts is equivalent to a zero
// DecoderOptions.
func NewDecoder(opts *DecoderOptions) *Decoder {
	ret := &Decoder{}
	if opts != nil {
		ret.opts = *opts
	}
	ret.opts.Network = netOr(ret.opts.Network)
	ret.log = loggerOr(ret.opts.Logger)
	return ret
}

// Receive processes one frame, and reports whether the payload is
// complete.
//
// The first accepted frame selects the wire dialect of the transfer,
// and later frames of another dialect fail with
// [ErrDialectMismatch]. A rejected frame never changes the Decoder's
// state, so a transfer survives misreads and stray frames.
func (d *Decoder) Receive(frame string) (bool, error) {
	dialect := d.dialect
	if dialect == UnselectedDialect {
		var err error
		dialect, err = d.selectDialect(frame)
		if err != nil {
			d.log.Debug("rejected first frame", zap.String("frame", preview(frame)), zap.Error(err))
			return false, err
		}
	}
	if !d.accepts(dialect, frame) {
		err := fmt.Errorf("%w: got %s frame, transfer is %s", ErrDialectMismatch, detectDialect(frame), dialect)
		d.log.Debug("rejected frame", zap.String("frame", preview(frame)), zap.Error(err))
		return false, err
	}

	done, err := d.receive(dialect, frame)
	if err != nil {
		d.log.Debug("rejected frame", zap.Stringer("dialect", dialect), zap.String("frame", preview(frame)), zap.Error(err))
		return false, err
	}
	if d.dialect == UnselectedDialect {
		d.dialect = dialect
		d.log.Debug("selected dialect", zap.Stringer("dialect", dialect))
	}
	if done {
		received, total := d.Progress()
		d.log.Debug("transfer complete", zap.Stringer("dialect", dialect), zap.Int("received", received), zap.Int("total", total))
	}
	return done, nil
}

// selectDialect returns the dialect of the first frame of a transfer.
func (d *Decoder) selectDialect(frame string) (WireDialect, error) {
	if d.opts.Dialect != UnselectedDialect {
		return d.opts.Dialect, nil
	}
	switch dialect := detectDialect(frame); {
	case dialect != Raw:
		return dialect, nil
	case d.opts.AllowRaw:
		return Raw, nil
	default:
		return UnselectedDialect, fmt.Errorf("%w: %q", ErrUnrecognizedFormat, preview(frame))
	}
}

// detectDialect returns the dialect whose framing frame carries. An
// unframed frame is Raw.
func detectDialect(frame string) WireDialect {
	switch {
	case specter.Detect(frame):
		return Specter
	case ur.IsUR(frame):
		return UR
	default:
		return Raw
	}
}

// accepts reports whether frame can belong to a transfer of the
// given dialect.
func (d *Decoder) accepts(dialect WireDialect, frame string) bool {
	got := detectDialect(frame)
	switch dialect {
	case Raw:
		// A forced Raw transfer takes the whole frame, header or not.
		return got == Raw || d.opts.Dialect == Raw
	case Specter:
		// Specter sends a payload that fits in one frame without a
		// header.
		return got == Specter || (got == Raw && d.opts.Dialect == Specter)
	default:
		return got == dialect
	}
}

func (d *Decoder) receive(dialect WireDialect, frame string) (bool, error) {
	switch dialect {
	case Raw:
		return d.receiveSingle(frame)
	case Specter:
		if _, total := d.specter.Progress(); d.single.Present() || (total == 0 && !specter.Detect(frame)) {
			return d.receiveSingle(frame)
		}
		return d.specter.Receive(frame)
	case UR:
		return d.ur.Receive(frame)
	default:
		return false, fmt.Errorf("%w: dialect %s", ErrNotImplemented, dialect)
	}
}

func (d *Decoder) receiveSingle(frame string) (bool, error) {
	if prev, ok := d.single.GetOK(); ok {
		if prev != frame {
			return false, fmt.Errorf("%w: different single-frame payload", fragments.ErrConsistency)
		}
		return true, nil
	}
	d.single = value.Just(frame)
	return true, nil
}

// IsComplete reports whether the whole payload has been received.
func (d *Decoder) IsComplete() bool {
	switch d.dialect {
	case Raw:
		return d.single.Present()
	case Specter:
		return d.single.Present() || d.specter.IsComplete()
	case UR:
		return d.ur.IsComplete()
	default:
		return false
	}
}

// Dialect returns the wire dialect of the transfer, or
// UnselectedDialect if no frame has been accepted.
func (d *Decoder) Dialect() WireDialect {
	return d.dialect
}

// Progress returns the number of fragments received and the total
// number of fragments, or zero before the total is known.
func (d *Decoder) Progress() (received, total int) {
	switch {
	case d.single.Present():
		return 1, 1
	case d.dialect == Specter:
		return d.specter.Progress()
	case d.dialect == UR:
		return d.ur.Progress()
	default:
		return 0, 0
	}
}

// Missing returns the 1-based indexes of the Specter fragments not yet
// received. Other dialects have no fixed set of fragments and return
// nil.
func (d *Decoder) Missing() []int {
	if d.dialect != Specter || d.single.Present() {
		return nil
	}
	return d.specter.Missing()
}

// Result returns the payload of a complete transfer.
func (d *Decoder) Result() (Payload, error) {
	if !d.IsComplete() {
		return Payload{}, ErrIncomplete
	}
	switch d.dialect {
	case UR:
		t, _ := d.ur.Type()
		return parseURPayload(t, &d.ur, d.opts.Network)
	default:
		text, err := d.text()
		if err != nil {
			return Payload{}, err
		}
		return ParsePayload(d.opts.Type, text, d.opts.Network)
	}
}

// text returns the reassembled text of a Raw or Specter transfer.
func (d *Decoder) text() (string, error) {
	if s, ok := d.single.GetOK(); ok {
		return s, nil
	}
	return d.specter.Assembled()
}

// preview returns a prefix of frame suitable for logs and errors.
func preview(frame string) string {
	const n = 24
	if len(frame) <= n {
		return frame
	}
	return frame[:n] + "..."
}
