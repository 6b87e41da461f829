package fountain

import (
	"errors"
	"fmt"
	"hash/crc32"
	"maps"
	"slices"

	"github.com/creachadair/mds/mapset"
	"github.com/creachadair/mds/queue"
)

var (
	// ErrMismatch is returned for a part that belongs to a different
	// message than the parts received before it.
	ErrMismatch = errors.New("fountain: part does not match message")
	// ErrChecksum is returned when the reassembled message does not
	// match the checksum all parts carried.
	ErrChecksum = errors.New("fountain: message checksum mismatch")
)

// mixed is a received symbol: the XOR of the fragments in indexes.
// A symbol with one index is a plain fragment.
type mixed struct {
	indexes mapset.Set[int]
	data    []byte
}

func (m *mixed) key() string {
	ks := make([]int, 0, len(m.indexes))
	for i := range m.indexes {
		ks = append(ks, i)
	}
	slices.Sort(ks)
	return fmt.Sprint(ks)
}

// reduce returns a with b's fragments XORed out, if b's fragments are
// a strict subset of a's. Otherwise it returns a unchanged.
func reduce(a, b *mixed) *mixed {
	if b.indexes.Len() >= a.indexes.Len() {
		return a
	}
	for i := range b.indexes {
		if !a.indexes.Has(i) {
			return a
		}
	}
	ret := &mixed{
		indexes: mapset.New[int](),
		data:    slices.Clone(a.data),
	}
	for i := range a.indexes {
		if !b.indexes.Has(i) {
			ret.indexes.Add(i)
		}
	}
	xorInto(ret.data, b.data)
	return ret
}

// A Decoder reconstructs a message from fountain parts, received in
// any order and with any amount of loss, as long as enough distinct
// parts eventually arrive.
type Decoder struct {
	started    bool
	seqLen     int
	messageLen int
	checksum   uint32
	fragLen    int

	simple  map[int][]byte
	mixed   map[string]*mixed
	pending *queue.Queue[*mixed]

	result []byte
	// err is set by finish, and cleared by Receive's rollback.
	err error
}

// NewDecoder returns an empty Decoder.
func NewDecoder() *Decoder {
	return &Decoder{
		simple:  map[int][]byte{},
		mixed:   map[string]*mixed{},
		pending: queue.New[*mixed](),
	}
}

// Receive processes one part and reports whether the message is
// complete. A part inconsistent with earlier parts fails with
// [ErrMismatch]. A part that completes the message with the wrong
// checksum fails with [ErrChecksum]. In both cases the part is
// dropped and the Decoder is unchanged.
func (d *Decoder) Receive(p *Part) (bool, error) {
	if d.IsComplete() {
		return true, nil
	}
	// Stored symbols are never modified in place, so shallow copies
	// of the tables are enough to roll back.
	saved := *d
	saved.simple = maps.Clone(d.simple)
	saved.mixed = maps.Clone(d.mixed)

	if d.started {
		if int(p.SeqLen) != d.seqLen || int(p.MessageLen) != d.messageLen || p.Checksum != d.checksum || len(p.Data) != d.fragLen {
			return false, fmt.Errorf("%w: part %d/%d", ErrMismatch, p.SeqNum, p.SeqLen)
		}
	} else {
		d.started = true
		d.seqLen = int(p.SeqLen)
		d.messageLen = int(p.MessageLen)
		d.checksum = p.Checksum
		d.fragLen = len(p.Data)
	}

	d.pending.Add(&mixed{
		indexes: mapset.New(p.Indexes()...),
		data:    slices.Clone(p.Data),
	})
	for d.pending.Len() > 0 && d.result == nil && d.err == nil {
		m, _ := d.pending.Pop()
		if m.indexes.Len() == 1 {
			d.processSimple(m)
		} else {
			d.processMixed(m)
		}
	}
	if err := d.err; err != nil {
		d.pending.Clear()
		*d = saved
		return false, err
	}
	return d.IsComplete(), nil
}

func (d *Decoder) processSimple(m *mixed) {
	var idx int
	for i := range m.indexes {
		idx = i
	}
	if _, ok := d.simple[idx]; ok {
		return
	}
	d.simple[idx] = m.data

	if len(d.simple) == d.seqLen {
		d.finish()
		return
	}

	for k, other := range d.mixed {
		r := reduce(other, m)
		if r == other {
			continue
		}
		delete(d.mixed, k)
		d.queueReduced(r)
	}
}

func (d *Decoder) processMixed(m *mixed) {
	if _, ok := d.mixed[m.key()]; ok {
		return
	}
	for idx, data := range d.simple {
		m = reduce(m, &mixed{indexes: mapset.New(idx), data: data})
	}
	for _, other := range d.mixed {
		m = reduce(m, other)
	}
	if m.indexes.Len() <= 1 {
		d.queueReduced(m)
		return
	}
	if _, ok := d.mixed[m.key()]; ok {
		return
	}

	for k, other := range d.mixed {
		r := reduce(other, m)
		if r == other {
			continue
		}
		delete(d.mixed, k)
		d.queueReduced(r)
	}
	d.mixed[m.key()] = m
}

// queueReduced schedules a symbol produced by reduction. Symbols
// reduced to nothing carried no new information and are dropped.
func (d *Decoder) queueReduced(m *mixed) {
	if m.indexes.Len() == 0 {
		return
	}
	d.pending.Add(m)
}

func (d *Decoder) finish() {
	msg := make([]byte, 0, d.seqLen*d.fragLen)
	for i := range d.seqLen {
		msg = append(msg, d.simple[i]...)
	}
	msg = msg[:d.messageLen]
	if crc32.ChecksumIEEE(msg) != d.checksum {
		d.err = ErrChecksum
		return
	}
	d.result = msg
}

// IsComplete reports whether the message has been reconstructed.
func (d *Decoder) IsComplete() bool {
	return d.result != nil
}

// Progress returns the number of fragments recovered so far and the
// total number of fragments. Total is 0 before the first part.
func (d *Decoder) Progress() (received, total int) {
	return len(d.simple), d.seqLen
}

// Message returns the reconstructed message, or nil if the decoder
// is not complete.
func (d *Decoder) Message() ([]byte, error) {
	return d.result, nil
}
