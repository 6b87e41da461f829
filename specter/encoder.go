package specter

import "github.com/danderson/multiqr/fragments"

// An Encoder produces Specter frames for a payload, cycling through
// the parts forever.
type Encoder struct {
	buf fragments.Buffer
}

// NewEncoder returns an Encoder that splits payload into chunks of at
// most maxLen bytes. maxLen bounds the chunk only; each frame of a
// multi-part payload is longer by the size of its header.
func NewEncoder(payload string, maxLen int) (*Encoder, error) {
	ret := &Encoder{}
	if err := ret.buf.Load(payload, maxLen); err != nil {
		return nil, err
	}
	return ret, nil
}

// Parts returns the number of distinct frames.
func (e *Encoder) Parts() int {
	return e.buf.Parts()
}

// Next returns the next frame to display. Single-part payloads are
// returned unframed. After the last part, Next starts over at the
// first.
func (e *Encoder) Next() string {
	o, ok := e.buf.NextOutgoing()
	if !ok {
		return ""
	}
	if !o.IsMultiPart() {
		return o.Chunk
	}
	return EncodeHeader(o.Index, o.Total) + o.Chunk
}
