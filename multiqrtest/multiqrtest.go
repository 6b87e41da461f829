// Package multiqrtest provides fixtures and a simulated optical link
// for testing multi-part transfers.
package multiqrtest

import (
	"math/rand/v2"
	"testing"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/btcutil/hdkeychain"
	"github.com/btcsuite/btcd/btcutil/psbt"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"
)

// PSBT returns an unsigned transaction proposal spending n inputs to
// n outputs. Larger n produce larger PSBTs.
func PSBT(t testing.TB, n int) *psbt.Packet {
	t.Helper()
	var (
		ins  []*wire.OutPoint
		outs []*wire.TxOut
		seqs []uint32
	)
	for i := range n {
		var h chainhash.Hash
		for j := range h {
			h[j] = byte(i*31 + j)
		}
		ins = append(ins, wire.NewOutPoint(&h, uint32(i)))
		outs = append(outs, wire.NewTxOut(int64(10000*(i+1)), p2wpkhScript(byte(i))))
		seqs = append(seqs, wire.MaxTxInSequenceNum-1)
	}
	p, err := psbt.New(ins, outs, 2, 0, seqs)
	if err != nil {
		t.Fatalf("creating PSBT: %v", err)
	}
	return p
}

func p2wpkhScript(seed byte) []byte {
	ret := []byte{0x00, 0x14}
	for i := range 20 {
		ret = append(ret, seed+byte(i))
	}
	return ret
}

// ExtendedKeys returns a master private key for net, and its public
// key.
func ExtendedKeys(t testing.TB, net *chaincfg.Params) (xprv, xpub *hdkeychain.ExtendedKey) {
	t.Helper()
	seed := make([]byte, hdkeychain.RecommendedSeedLen)
	for i := range seed {
		seed[i] = byte(i)
	}
	xprv, err := hdkeychain.NewMaster(seed, net)
	if err != nil {
		t.Fatalf("creating master key: %v", err)
	}
	xpub, err = xprv.Neuter()
	if err != nil {
		t.Fatalf("neutering master key: %v", err)
	}
	return xprv, xpub
}

// Descriptor returns a wpkh output descriptor over the public key of
// [ExtendedKeys], without checksum.
func Descriptor(t testing.TB) string {
	t.Helper()
	_, xpub := ExtendedKeys(t, &chaincfg.MainNetParams)
	return "wpkh([d34db33f/84'/0'/0']" + xpub.String() + "/0/*)"
}

// Addresses returns a P2PKH, a P2SH and a P2WPKH address for net.
func Addresses(t testing.TB, net *chaincfg.Params) []btcutil.Address {
	t.Helper()
	hash := make([]byte, 20)
	for i := range hash {
		hash[i] = byte(0xa0 + i)
	}
	pkh, err := btcutil.NewAddressPubKeyHash(hash, net)
	if err != nil {
		t.Fatal(err)
	}
	sh, err := btcutil.NewAddressScriptHashFromHash(hash, net)
	if err != nil {
		t.Fatal(err)
	}
	wpkh, err := btcutil.NewAddressWitnessPubKeyHash(hash, net)
	if err != nil {
		t.Fatal(err)
	}
	return []btcutil.Address{pkh, sh, wpkh}
}

// A Source emits frames.
type Source interface {
	Next() string
}

// A Sink consumes frames.
type Sink interface {
	Receive(frame string) (bool, error)
	IsComplete() bool
}

// Channel simulates an optical link between a display and a
// scanner. Frames are read from a Source in windows, and each window
// is shuffled, thinned and padded with duplicates before delivery.
type Channel struct {
	rng *rand.Rand

	// Loss is the probability that a frame is lost.
	Loss float64
	// Dup is the probability that a frame is delivered twice.
	Dup float64
	// Window is the number of consecutive frames that can be
	// delivered out of order. Values below 2 preserve order.
	Window int
}

// NewChannel returns a Channel with no loss or duplication whose
// random choices are determined by seed.
func NewChannel(seed uint64) *Channel {
	return &Channel{rng: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

// Transfer reads frames from src and delivers them to dst until dst
// is complete. It returns the number of frames read from src, and
// fails the test if dst rejects a frame or is not complete after
// limit frames.
func (c *Channel) Transfer(t testing.TB, src Source, dst Sink, limit int) int {
	t.Helper()
	window := max(c.Window, 1)
	read := 0
	for !dst.IsComplete() {
		if read >= limit {
			t.Fatalf("transfer not complete after %d frames", read)
		}
		var batch []string
		for range window {
			batch = append(batch, src.Next())
			read++
		}
		for _, f := range c.mangle(batch) {
			if _, err := dst.Receive(f); err != nil {
				t.Fatalf("receiving frame %q: %v", f, err)
			}
			if dst.IsComplete() {
				break
			}
		}
	}
	if testing.Verbose() {
		t.Logf("transfer complete after %d frames", read)
	}
	return read
}

// mangle returns batch as the scanner would see it.
func (c *Channel) mangle(batch []string) []string {
	var ret []string
	for _, f := range batch {
		if c.rng.Float64() < c.Loss {
			continue
		}
		ret = append(ret, f)
		if c.rng.Float64() < c.Dup {
			ret = append(ret, f)
		}
	}
	if c.Window > 1 {
		c.rng.Shuffle(len(ret), func(i, j int) { ret[i], ret[j] = ret[j], ret[i] })
	}
	return ret
}

// Frames returns the next n frames of src.
func Frames(src Source, n int) []string {
	ret := make([]string, 0, n)
	for range n {
		ret = append(ret, src.Next())
	}
	return ret
}
