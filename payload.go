package multiqr

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/btcutil/hdkeychain"
	"github.com/btcsuite/btcd/btcutil/psbt"
	"github.com/btcsuite/btcd/chaincfg"
)

// Payload is a parsed Bitcoin artifact.
//
// Value holds, depending on Type:
//
//   - Address: a [btcutil.Address]
//   - TransactionProposal: a *[psbt.Packet]
//   - ExtendedPublicKey, ExtendedPrivateKey: a *[hdkeychain.ExtendedKey]
//   - OutputDescriptor: a [Descriptor]
//   - OpaqueBytes: a string
type Payload struct {
	Type  PayloadType
	Value any
}

// AddressPayload returns a Payload for an address.
func AddressPayload(a btcutil.Address) Payload {
	return Payload{Address, a}
}

// PSBTPayload returns a Payload for a partially signed transaction.
func PSBTPayload(p *psbt.Packet) Payload {
	return Payload{TransactionProposal, p}
}

// KeyPayload returns a Payload for an extended key. The payload type
// follows the privacy of the key.
func KeyPayload(k *hdkeychain.ExtendedKey) Payload {
	if k.IsPrivate() {
		return Payload{ExtendedPrivateKey, k}
	}
	return Payload{ExtendedPublicKey, k}
}

// DescriptorPayload returns a Payload for an output descriptor.
func DescriptorPayload(d Descriptor) Payload {
	return Payload{OutputDescriptor, d}
}

// TextPayload returns an OpaqueBytes Payload.
func TextPayload(s string) Payload {
	return Payload{OpaqueBytes, s}
}

// Address returns the payload's address, if it is one.
func (p Payload) Address() (btcutil.Address, bool) {
	a, ok := p.Value.(btcutil.Address)
	return a, ok && p.Type == Address
}

// PSBT returns the payload's transaction proposal, if it is one.
func (p Payload) PSBT() (*psbt.Packet, bool) {
	v, ok := p.Value.(*psbt.Packet)
	return v, ok && p.Type == TransactionProposal
}

// ExtendedKey returns the payload's extended key, if it is one.
func (p Payload) ExtendedKey() (*hdkeychain.ExtendedKey, bool) {
	k, ok := p.Value.(*hdkeychain.ExtendedKey)
	return k, ok && (p.Type == ExtendedPublicKey || p.Type == ExtendedPrivateKey)
}

// Descriptor returns the payload's output descriptor, if it is one.
func (p Payload) Descriptor() (Descriptor, bool) {
	d, ok := p.Value.(Descriptor)
	return d, ok && p.Type == OutputDescriptor
}

// Text returns the payload's opaque text, if it is opaque.
func (p Payload) Text() (string, bool) {
	s, ok := p.Value.(string)
	return s, ok && p.Type == OpaqueBytes
}

const (
	psbtMagic       = "psbt\xff"
	psbtBase64Magic = "cHNidP8"
)

func netOr(net *chaincfg.Params) *chaincfg.Params {
	if net != nil {
		return net
	}
	return &chaincfg.MainNetParams
}

// ParsePayload parses s as a payload of type t for the given network
// (mainnet if nil). If t is UnselectedType, the type is detected with
// [DetectPayloadType].
func ParsePayload(t PayloadType, s string, net *chaincfg.Params) (Payload, error) {
	net = netOr(net)
	if t == UnselectedType {
		t = DetectPayloadType(s, net)
	}
	if t != OpaqueBytes {
		s = strings.TrimSpace(s)
	}

	switch t {
	case Address:
		a, err := btcutil.DecodeAddress(s, net)
		if err != nil {
			return Payload{}, PayloadError{t, err}
		}
		if !a.IsForNet(net) {
			return Payload{}, payloadErr(t, "address %s is not for network %s", s, net.Name)
		}
		return AddressPayload(a), nil
	case TransactionProposal:
		p, err := parsePSBT(s)
		if err != nil {
			return Payload{}, PayloadError{t, err}
		}
		return PSBTPayload(p), nil
	case ExtendedPublicKey, ExtendedPrivateKey:
		k, err := hdkeychain.NewKeyFromString(s)
		if err != nil {
			return Payload{}, PayloadError{t, err}
		}
		if k.IsPrivate() != (t == ExtendedPrivateKey) {
			return Payload{}, payloadErr(t, "key privacy does not match")
		}
		if !k.IsForNet(net) {
			return Payload{}, payloadErr(t, "key is not for network %s", net.Name)
		}
		return KeyPayload(k), nil
	case OutputDescriptor:
		d, err := ParseDescriptor(s)
		if err != nil {
			return Payload{}, PayloadError{t, err}
		}
		return DescriptorPayload(d), nil
	case OpaqueBytes:
		return TextPayload(s), nil
	default:
		return Payload{}, payloadErr(t, "unknown payload type")
	}
}

// parsePSBT parses a PSBT in base64 or raw binary form.
func parsePSBT(s string) (*psbt.Packet, error) {
	b64 := !strings.HasPrefix(s, psbtMagic)
	return psbt.NewFromRawBytes(strings.NewReader(s), b64)
}

// FormatPayload returns the text form of p: an encoded address, a
// base64 PSBT, a base58 extended key, a descriptor with checksum, or
// the opaque text itself.
func FormatPayload(p Payload) (string, error) {
	switch p.Type {
	case Address:
		if a, ok := p.Address(); ok {
			return a.EncodeAddress(), nil
		}
	case TransactionProposal:
		if pkt, ok := p.PSBT(); ok {
			s, err := pkt.B64Encode()
			if err != nil {
				return "", PayloadError{p.Type, err}
			}
			return s, nil
		}
	case ExtendedPublicKey, ExtendedPrivateKey:
		if k, ok := p.ExtendedKey(); ok {
			if k.IsPrivate() != (p.Type == ExtendedPrivateKey) {
				return "", payloadErr(p.Type, "key privacy does not match")
			}
			return k.String(), nil
		}
	case OutputDescriptor:
		if d, ok := p.Descriptor(); ok {
			return d.String(), nil
		}
	case OpaqueBytes:
		if s, ok := p.Text(); ok {
			return s, nil
		}
	default:
		return "", payloadErr(p.Type, "unknown payload type")
	}
	return "", payloadErr(p.Type, "value has type %T", p.Value)
}

// serializePSBT returns the binary form of a PSBT.
func serializePSBT(p *psbt.Packet) ([]byte, error) {
	var buf bytes.Buffer
	if err := p.Serialize(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// DetectPayloadType guesses the type of a text payload. It tries, in
// order: PSBT, extended private key, extended public key, output
// descriptor and address for net. Anything else is OpaqueBytes.
func DetectPayloadType(s string, net *chaincfg.Params) PayloadType {
	net = netOr(net)
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, psbtBase64Magic) || strings.HasPrefix(s, psbtMagic) {
		if _, err := parsePSBT(s); err == nil {
			return TransactionProposal
		}
	}
	if k, err := hdkeychain.NewKeyFromString(s); err == nil {
		if k.IsPrivate() {
			return ExtendedPrivateKey
		}
		return ExtendedPublicKey
	}
	if _, err := ParseDescriptor(s); err == nil {
		return OutputDescriptor
	}
	if _, err := btcutil.DecodeAddress(s, net); err == nil {
		return Address
	}
	return OpaqueBytes
}

var errNetwork = errors.New("network mismatch")

func checkNet(t PayloadType, got, want *chaincfg.Params) error {
	if got.Name != want.Name {
		return PayloadError{t, fmt.Errorf("%w: payload for %s, want %s", errNetwork, got.Name, want.Name)}
	}
	return nil
}
