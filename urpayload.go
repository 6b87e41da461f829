package multiqr

import (
	"fmt"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/danderson/multiqr/ur"
	"github.com/fxamacker/cbor/v2"
)

// urPayloadTypes maps UR type tags to the payload they carry.
var urPayloadTypes = map[ur.Type]PayloadType{
	ur.Bytes:         OpaqueBytes,
	ur.CryptoPSBT:    TransactionProposal,
	ur.CryptoAccount: ExtendedPublicKey,
	ur.CryptoHDKey:   ExtendedPrivateKey,
	ur.CryptoOutput:  OutputDescriptor,
	ur.CryptoAddress: Address,
}

// URPayloadType returns the payload type carried by UR type tag t.
func URPayloadType(t ur.Type) (PayloadType, bool) {
	pt, ok := urPayloadTypes[t.Canonical()]
	return pt, ok
}

// ClassifyUR returns the payload type of a UR string, from its type
// tag.
func ClassifyUR(data string) (PayloadType, error) {
	t, err := ur.Classify(data)
	if err != nil {
		return UnselectedType, err
	}
	pt, _ := URPayloadType(t)
	return pt, nil
}

// crypto-coin-info, carried in tag 305.
type coinInfo struct {
	Type    uint64 `cbor:"1,keyasint,omitempty"`
	Network uint64 `cbor:"2,keyasint,omitempty"`
}

const (
	coinInfoTag = 305

	coinBitcoin    = 0
	networkMainnet = 0
	networkTestnet = 1
)

// crypto-address body.
type cryptoAddress struct {
	Info *cbor.RawTag `cbor:"1,keyasint,omitempty"`
	Type *uint64      `cbor:"2,keyasint,omitempty"`
	Data []byte       `cbor:"3,keyasint"`
}

const (
	addrP2PKH  = 0
	addrP2SH   = 1
	addrP2WPKH = 2
)

// urBody returns the UR type and CBOR message that carry p.
func urBody(p Payload) (ur.Type, []byte, error) {
	var (
		t   ur.Type
		msg any
	)
	switch p.Type {
	case OpaqueBytes:
		s, ok := p.Text()
		if !ok {
			return "", nil, payloadErr(p.Type, "value has type %T", p.Value)
		}
		t, msg = ur.Bytes, []byte(s)
	case TransactionProposal:
		pkt, ok := p.PSBT()
		if !ok {
			return "", nil, payloadErr(p.Type, "value has type %T", p.Value)
		}
		bs, err := serializePSBT(pkt)
		if err != nil {
			return "", nil, PayloadError{p.Type, err}
		}
		t, msg = ur.CryptoPSBT, bs
	case Address:
		a, ok := p.Address()
		if !ok {
			return "", nil, payloadErr(p.Type, "value has type %T", p.Value)
		}
		body, err := addressBody(a)
		if err != nil {
			return "", nil, err
		}
		t, msg = ur.CryptoAddress, body
	default:
		return "", nil, fmt.Errorf("%w: %s payload as UR", ErrNotImplemented, p.Type)
	}

	bs, err := cbor.Marshal(msg)
	if err != nil {
		return "", nil, PayloadError{p.Type, err}
	}
	return t, bs, nil
}

func addressBody(a btcutil.Address) (*cryptoAddress, error) {
	var (
		typ  uint64
		data []byte
	)
	switch v := a.(type) {
	case *btcutil.AddressPubKeyHash:
		typ, data = addrP2PKH, v.Hash160()[:]
	case *btcutil.AddressScriptHash:
		typ, data = addrP2SH, v.Hash160()[:]
	case *btcutil.AddressWitnessPubKeyHash:
		typ, data = addrP2WPKH, v.WitnessProgram()
	default:
		return nil, fmt.Errorf("%w: %T as crypto-address", ErrNotImplemented, a)
	}

	info := coinInfo{Type: coinBitcoin, Network: networkTestnet}
	if a.IsForNet(&chaincfg.MainNetParams) {
		info.Network = networkMainnet
	}
	infoBytes, err := cbor.Marshal(info)
	if err != nil {
		return nil, PayloadError{Address, err}
	}
	return &cryptoAddress{
		Info: &cbor.RawTag{Number: coinInfoTag, Content: infoBytes},
		Type: &typ,
		Data: data,
	}, nil
}

// parseURPayload decodes the completed message of dec as a payload of
// type t.
func parseURPayload(t ur.Type, dec *ur.Decoder, net *chaincfg.Params) (Payload, error) {
	switch t.Canonical() {
	case ur.Bytes:
		s, err := dec.Text()
		if err != nil {
			return Payload{}, PayloadError{OpaqueBytes, err}
		}
		return TextPayload(s), nil
	case ur.CryptoPSBT:
		bs, err := dec.Bytes()
		if err != nil {
			return Payload{}, PayloadError{TransactionProposal, err}
		}
		pkt, err := parsePSBT(string(bs))
		if err != nil {
			return Payload{}, PayloadError{TransactionProposal, err}
		}
		return PSBTPayload(pkt), nil
	case ur.CryptoAddress:
		msg, err := dec.Message()
		if err != nil {
			return Payload{}, err
		}
		a, err := parseAddressBody(msg, net)
		if err != nil {
			return Payload{}, err
		}
		return AddressPayload(a), nil
	default:
		pt, _ := URPayloadType(t)
		return Payload{}, fmt.Errorf("%w: %s payload from UR type %s", ErrNotImplemented, pt, t)
	}
}

func parseAddressBody(msg []byte, net *chaincfg.Params) (btcutil.Address, error) {
	var body cryptoAddress
	if err := cbor.Unmarshal(msg, &body); err != nil {
		return nil, PayloadError{Address, err}
	}

	addrNet := net
	if body.Info != nil {
		if body.Info.Number != coinInfoTag {
			return nil, payloadErr(Address, "coin info has tag %d, want %d", body.Info.Number, coinInfoTag)
		}
		var info coinInfo
		if err := cbor.Unmarshal(body.Info.Content, &info); err != nil {
			return nil, PayloadError{Address, err}
		}
		if info.Type != coinBitcoin {
			return nil, payloadErr(Address, "coin type %d is not bitcoin", info.Type)
		}
		switch {
		case info.Network == networkMainnet:
			addrNet = &chaincfg.MainNetParams
		case net.Name != chaincfg.MainNetParams.Name:
			// Test networks share a coin info network value.
		default:
			addrNet = &chaincfg.TestNet3Params
		}
	}
	if err := checkNet(Address, addrNet, net); err != nil {
		return nil, err
	}
	if body.Type == nil {
		return nil, payloadErr(Address, "address type missing")
	}

	var (
		a   btcutil.Address
		err error
	)
	switch *body.Type {
	case addrP2PKH:
		a, err = btcutil.NewAddressPubKeyHash(body.Data, net)
	case addrP2SH:
		a, err = btcutil.NewAddressScriptHashFromHash(body.Data, net)
	case addrP2WPKH:
		a, err = btcutil.NewAddressWitnessPubKeyHash(body.Data, net)
	default:
		return nil, payloadErr(Address, "unknown address type %d", *body.Type)
	}
	if err != nil {
		return nil, PayloadError{Address, err}
	}
	return a, nil
}
