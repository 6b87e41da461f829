package multiqr

import (
	"fmt"
	"strings"
)

// WireDialect is a convention for framing fragments as strings.
type WireDialect int

const (
	// UnselectedDialect means no dialect has been chosen. A Decoder
	// with no dialect selects one from the first frame it accepts.
	UnselectedDialect WireDialect = iota
	// Raw is an unframed payload that fits in a single frame.
	Raw
	// Specter frames each fragment with a "pNofM " header.
	Specter
	// UR frames fragments as Uniform Resources, with fountain coding
	// for multi-part messages.
	UR
)

var dialectNames = map[WireDialect]string{
	UnselectedDialect: "unselected",
	Raw:               "raw",
	Specter:           "specter",
	UR:                "ur",
}

func (d WireDialect) String() string {
	if s, ok := dialectNames[d]; ok {
		return s
	}
	return fmt.Sprintf("WireDialect(%d)", int(d))
}

// ParseDialect returns the WireDialect named s, as returned by
// [WireDialect.String]. The empty string and "auto" are
// UnselectedDialect.
func ParseDialect(s string) (WireDialect, error) {
	switch strings.ToLower(s) {
	case "", "auto":
		return UnselectedDialect, nil
	}
	for d, name := range dialectNames {
		if strings.EqualFold(s, name) {
			return d, nil
		}
	}
	return 0, fmt.Errorf("unknown wire dialect %q", s)
}

// PayloadType is the kind of Bitcoin artifact carried by a transfer.
type PayloadType int

const (
	// UnselectedType means the payload type is not known in
	// advance. Decoders detect it from the payload.
	UnselectedType PayloadType = iota
	Address
	// TransactionProposal is a partially signed transaction (PSBT).
	TransactionProposal
	ExtendedPublicKey
	ExtendedPrivateKey
	OutputDescriptor
	// OpaqueBytes is uninterpreted text.
	OpaqueBytes
)

var payloadTypeNames = map[PayloadType]string{
	UnselectedType:      "unselected",
	Address:             "address",
	TransactionProposal: "psbt",
	ExtendedPublicKey:   "xpub",
	ExtendedPrivateKey:  "xprv",
	OutputDescriptor:    "descriptor",
	OpaqueBytes:         "bytes",
}

func (t PayloadType) String() string {
	if s, ok := payloadTypeNames[t]; ok {
		return s
	}
	return fmt.Sprintf("PayloadType(%d)", int(t))
}

// ParsePayloadType returns the PayloadType named s, as returned by
// [PayloadType.String]. The empty string and "auto" are
// UnselectedType.
func ParsePayloadType(s string) (PayloadType, error) {
	switch strings.ToLower(s) {
	case "", "auto":
		return UnselectedType, nil
	}
	for t, name := range payloadTypeNames {
		if strings.EqualFold(s, name) {
			return t, nil
		}
	}
	return 0, fmt.Errorf("unknown payload type %q", s)
}
