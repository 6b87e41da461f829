package multiqr

import (
	"bytes"
	"errors"
	"testing"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/fxamacker/cbor/v2"
)

func mustCBOR(t *testing.T, v any) []byte {
	t.Helper()
	bs, err := cbor.Marshal(v)
	if err != nil {
		t.Fatalf("cbor.Marshal(%#v): %v", v, err)
	}
	return bs
}

func addressMsg(t *testing.T, tag uint64, info *coinInfo, typ *uint64, data []byte) []byte {
	t.Helper()
	body := cryptoAddress{Type: typ, Data: data}
	if info != nil {
		body.Info = &cbor.RawTag{Number: tag, Content: mustCBOR(t, info)}
	}
	return mustCBOR(t, body)
}

func ptr[T any](v T) *T { return &v }

func TestParseAddressBody(t *testing.T) {
	hash := bytes.Repeat([]byte{0x42}, 20)

	tests := []struct {
		name string
		msg  []byte
		net  *chaincfg.Params
		want string // address network, empty for error
	}{
		{"mainnet wpkh", addressMsg(t, coinInfoTag, &coinInfo{}, ptr[uint64](addrP2WPKH), hash), &chaincfg.MainNetParams, chaincfg.MainNetParams.Name},
		{"no info", addressMsg(t, 0, nil, ptr[uint64](addrP2PKH), hash), &chaincfg.TestNet3Params, chaincfg.TestNet3Params.Name},
		{"testnet info on regtest", addressMsg(t, coinInfoTag, &coinInfo{Network: networkTestnet}, ptr[uint64](addrP2SH), hash), &chaincfg.RegressionNetParams, chaincfg.RegressionNetParams.Name},

		{"garbage", []byte{0xff, 0x00}, &chaincfg.MainNetParams, ""},
		{"wrong tag", addressMsg(t, 304, &coinInfo{}, ptr[uint64](addrP2WPKH), hash), &chaincfg.MainNetParams, ""},
		{"not bitcoin", addressMsg(t, coinInfoTag, &coinInfo{Type: 60}, ptr[uint64](addrP2WPKH), hash), &chaincfg.MainNetParams, ""},
		{"testnet info on mainnet", addressMsg(t, coinInfoTag, &coinInfo{Network: networkTestnet}, ptr[uint64](addrP2WPKH), hash), &chaincfg.MainNetParams, ""},
		{"mainnet info on testnet", addressMsg(t, coinInfoTag, &coinInfo{}, ptr[uint64](addrP2WPKH), hash), &chaincfg.TestNet3Params, ""},
		{"missing type", addressMsg(t, coinInfoTag, &coinInfo{}, nil, hash), &chaincfg.MainNetParams, ""},
		{"unknown type", addressMsg(t, coinInfoTag, &coinInfo{}, ptr[uint64](7), hash), &chaincfg.MainNetParams, ""},
		{"short hash", addressMsg(t, coinInfoTag, &coinInfo{}, ptr[uint64](addrP2WPKH), hash[:5]), &chaincfg.MainNetParams, ""},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			a, err := parseAddressBody(tc.msg, tc.net)
			if tc.want == "" {
				if err == nil {
					t.Fatalf("parseAddressBody succeeded with %s, want error", a)
				}
				var pe PayloadError
				if !errors.As(err, &pe) || pe.Type != Address {
					t.Errorf("error %v is not an address PayloadError", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("parseAddressBody: %v", err)
			}
			if !a.IsForNet(tc.net) {
				t.Errorf("address %s is not for %s", a, tc.want)
			}
		})
	}
}

func TestAddressBodyRoundTrip(t *testing.T) {
	hash := bytes.Repeat([]byte{0x07}, 20)
	mk := []func(*chaincfg.Params) (btcutil.Address, error){
		func(n *chaincfg.Params) (btcutil.Address, error) { return btcutil.NewAddressPubKeyHash(hash, n) },
		func(n *chaincfg.Params) (btcutil.Address, error) { return btcutil.NewAddressScriptHashFromHash(hash, n) },
		func(n *chaincfg.Params) (btcutil.Address, error) { return btcutil.NewAddressWitnessPubKeyHash(hash, n) },
	}
	for _, net := range []*chaincfg.Params{&chaincfg.MainNetParams, &chaincfg.TestNet3Params, &chaincfg.SigNetParams} {
		for _, f := range mk {
			a, err := f(net)
			if err != nil {
				t.Fatal(err)
			}
			body, err := addressBody(a)
			if err != nil {
				t.Fatalf("addressBody(%s): %v", a, err)
			}
			got, err := parseAddressBody(mustCBOR(t, body), net)
			if err != nil {
				t.Fatalf("parseAddressBody(%s): %v", a, err)
			}
			if got.EncodeAddress() != a.EncodeAddress() {
				t.Errorf("round trip of %s on %s gave %s", a, net.Name, got)
			}
		}
	}
}
