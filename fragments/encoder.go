package fragments

import "fmt"

// Split cuts payload into consecutive chunks of maxLen bytes. The
// last chunk may be shorter. A payload no longer than maxLen, including
// the empty payload, yields a single chunk.
//
// Lengths are in bytes. Callers carrying non-ASCII text should pick a
// maxLen that suits their encoding, as a chunk boundary may fall
// inside a multi-byte sequence. Concatenating the chunks always
// reproduces payload exactly.
//
// Split fails with [ErrInvalidLength] if payload would need more than
// [MaxTotal] chunks.
func Split(payload string, maxLen int) ([]string, error) {
	if maxLen <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidLength, maxLen)
	}
	if len(payload) <= maxLen {
		return []string{payload}, nil
	}
	n := (len(payload) + maxLen - 1) / maxLen
	if n > MaxTotal {
		return nil, fmt.Errorf("%w: %d would split %d bytes into %d chunks, limit is %d", ErrInvalidLength, maxLen, len(payload), n, MaxTotal)
	}
	ret := make([]string, 0, n)
	for len(payload) > maxLen {
		ret = append(ret, payload[:maxLen])
		payload = payload[maxLen:]
	}
	if len(payload) > 0 {
		ret = append(ret, payload)
	}
	return ret, nil
}

// Outgoing is one chunk produced by [Buffer.NextOutgoing].
type Outgoing struct {
	// Chunk is the payload slice to display.
	Chunk string
	// Index is the 1-based position of Chunk.
	Index int
	// Total is the number of chunks in the loaded payload.
	Total int
}

// IsMultiPart reports whether o is one of several chunks, and so
// needs a dialect header to be reassembled.
func (o Outgoing) IsMultiPart() bool {
	return o.Total > 1
}

// Load splits payload into chunks of at most maxLen bytes, ready for
// [Buffer.NextOutgoing]. It replaces any previously loaded payload.
func (b *Buffer) Load(payload string, maxLen int) error {
	chunks, err := Split(payload, maxLen)
	if err != nil {
		return err
	}
	b.outgoing = chunks
	b.cursor = 0
	return nil
}

// IsLoaded reports whether the Buffer has a payload to send.
func (b *Buffer) IsLoaded() bool {
	return b.outgoing != nil
}

// Parts returns the number of chunks loaded for sending.
func (b *Buffer) Parts() int {
	return len(b.outgoing)
}

// NextOutgoing returns the next chunk to display. After the last
// chunk it wraps around to the first, indefinitely. It returns false
// only if nothing was ever loaded.
func (b *Buffer) NextOutgoing() (Outgoing, bool) {
	if !b.IsLoaded() {
		return Outgoing{}, false
	}
	if b.cursor >= len(b.outgoing) {
		b.cursor = 0
	}
	ret := Outgoing{
		Chunk: b.outgoing[b.cursor],
		Index: b.cursor + 1,
		Total: len(b.outgoing),
	}
	b.cursor++
	return ret, true
}
