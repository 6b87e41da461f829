// Package ur adapts Uniform Resources (UR) to multi-part transfers of
// Bitcoin artifacts.
//
// A UR string looks like "ur:crypto-psbt/1-9/lpad..." for one part of
// a fountain-coded multi-part message, or "ur:bytes/hdcx..." for a
// message small enough to fit in a single part. This package
// classifies UR strings by their type tag, guards a decode against
// parts from an unrelated transfer, and delegates reassembly to a
// [SequentialDecoder].
package ur

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/creachadair/mds/mapset"
)

var (
	// ErrNotUR is returned for a string without the "ur:" scheme.
	ErrNotUR = errors.New("ur: not a UR string")
	// ErrUnknownType is returned for a UR string whose type tag is not
	// one this package handles.
	ErrUnknownType = errors.New("ur: unknown UR type")
	// ErrTypeMismatch is returned for a UR string whose type tag or
	// multi-part-ness differs from the decode in progress.
	ErrTypeMismatch = errors.New("ur: part does not match decode in progress")
	// ErrIncomplete is returned when asking for a message before all
	// of it has been received.
	ErrIncomplete = errors.New("ur: message incomplete")
	// ErrEncoding is returned when a message body is not the
	// expected CBOR byte string, or not valid UTF-8 text.
	ErrEncoding = errors.New("ur: bad message encoding")
)

// Type is a UR registry type tag.
type Type string

const (
	Bytes         Type = "bytes"
	CryptoPSBT    Type = "crypto-psbt"
	CryptoAccount Type = "crypto-account"
	CryptoHDKey   Type = "crypto-hdkey"
	CryptoOutput  Type = "crypto-output"
	CryptoAddress Type = "crypto-address"

	// Newer registry names for the crypto- types above.
	PSBT              Type = "psbt"
	HDKey             Type = "hdkey"
	AccountDescriptor Type = "account-descriptor"
	OutputDescriptor  Type = "output-descriptor"
	Address           Type = "address"
)

var canonical = map[Type]Type{
	PSBT:              CryptoPSBT,
	HDKey:             CryptoHDKey,
	AccountDescriptor: CryptoAccount,
	OutputDescriptor:  CryptoOutput,
	Address:           CryptoAddress,
}

var known = mapset.New(
	Bytes, CryptoPSBT, CryptoAccount, CryptoHDKey, CryptoOutput, CryptoAddress,
	PSBT, HDKey, AccountDescriptor, OutputDescriptor, Address,
)

// Known reports whether t is a type tag this package handles.
func (t Type) Known() bool { return known.Has(t) }

// Canonical returns the crypto- registry name for t. Types without a
// newer alias are returned unchanged.
func (t Type) Canonical() Type {
	if c, ok := canonical[t]; ok {
		return c
	}
	return t
}

func (t Type) String() string { return string(t) }

var seqRe = regexp.MustCompile(`^[0-9]+-[0-9]+$`)

// IsUR reports whether data starts with the UR scheme, in any case.
func IsUR(data string) bool {
	return len(data) >= 3 && strings.EqualFold(data[:3], "ur:")
}

// segments returns the lowercased path segments of a UR string,
// starting with the type tag.
func segments(data string) []string {
	if !IsUR(data) {
		return nil
	}
	return strings.Split(strings.ToLower(data[3:]), "/")
}

// Classify returns the type tag of a UR string.
func Classify(data string) (Type, error) {
	segs := segments(data)
	if segs == nil {
		return "", ErrNotUR
	}
	t := Type(segs[0])
	if !t.Known() {
		return "", unknownType(t)
	}
	return t, nil
}

// IsMultiPart reports whether data is one part of a multi-part UR,
// that is whether the segment after the type tag is a "seq-len"
// sequence indicator.
func IsMultiPart(data string) bool {
	segs := segments(data)
	return len(segs) >= 3 && seqRe.MatchString(segs[1])
}

func unknownType(t Type) error {
	return fmt.Errorf("%w %q", ErrUnknownType, t)
}

// A SequentialDecoder reassembles a message from UR strings.
type SequentialDecoder interface {
	// Receive processes one UR string. A rejected string must leave
	// the decoder unchanged.
	Receive(string) error
	IsComplete() bool
	// Message returns the reassembled message, or nil before
	// completion.
	Message() ([]byte, error)
}

// A SequentialEncoder emits the UR strings of a message.
type SequentialEncoder interface {
	// NextPart returns the next UR string. It can be called forever.
	NextPart() string
	// SeqLen returns the number of fragments the message was cut into.
	SeqLen() int
}
