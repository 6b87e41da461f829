package multiqr_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/btcsuite/btcd/chaincfg"
	"github.com/danderson/multiqr"
	"github.com/danderson/multiqr/multiqrtest"
	"github.com/google/go-cmp/cmp"
)

var longText = strings.Repeat("The quick brown fox jumps over the lazy dog. ", 12)

func TestEncoderSpecter(t *testing.T) {
	const payload = "012345678901234567890123456789012345678"
	enc, err := multiqr.NewEncoder(multiqr.TextPayload(payload), multiqr.Specter, &multiqr.EncoderOptions{MaxLen: 13})
	if err != nil {
		t.Fatal(err)
	}
	if got := enc.Parts(); got != 3 {
		t.Fatalf("Parts() = %d, want 3", got)
	}
	if got := enc.Dialect(); got != multiqr.Specter {
		t.Errorf("Dialect() = %v, want specter", got)
	}
	got := multiqrtest.Frames(enc, 4)
	want := []string{
		"p1of3 0123456789012",
		"p2of3 3456789012345",
		"p3of3 6789012345678",
		"p1of3 0123456789012",
	}
	if diff := cmp.Diff(got, want); diff != "" {
		t.Errorf("Specter frames wrong (-got+want):\n%s", diff)
	}
}

func TestEncoderSingleFrame(t *testing.T) {
	for _, dialect := range []multiqr.WireDialect{multiqr.Raw, multiqr.Specter} {
		for _, maxLen := range []int{0, 100} {
			enc, err := multiqr.NewEncoder(multiqr.TextPayload("hello"), dialect, &multiqr.EncoderOptions{MaxLen: maxLen})
			if err != nil {
				t.Fatalf("NewEncoder(%v, %d): %v", dialect, maxLen, err)
			}
			if enc.Parts() != 1 {
				t.Errorf("NewEncoder(%v, %d).Parts() = %d, want 1", dialect, maxLen, enc.Parts())
			}
			for range 3 {
				if got := enc.Next(); got != "hello" {
					t.Errorf("NewEncoder(%v, %d).Next() = %q, want hello", dialect, maxLen, got)
				}
			}
		}
	}

	enc, err := multiqr.NewEncoder(multiqr.TextPayload("hello"), multiqr.UR, nil)
	if err != nil {
		t.Fatal(err)
	}
	if got := enc.Next(); !strings.HasPrefix(got, "ur:bytes/") || strings.Count(got, "/") != 1 {
		t.Errorf("unlimited UR frame %q is not single-part", got)
	}
}

func TestEncoderErrors(t *testing.T) {
	xprv, xpub := multiqrtest.ExtendedKeys(t, &chaincfg.MainNetParams)
	desc, err := multiqr.ParseDescriptor(multiqrtest.Descriptor(t))
	if err != nil {
		t.Fatal(err)
	}
	testnet := multiqrtest.Addresses(t, &chaincfg.TestNet3Params)[0]

	tests := []struct {
		name    string
		p       multiqr.Payload
		dialect multiqr.WireDialect
		opts    *multiqr.EncoderOptions
		wantErr error
	}{
		{"no dialect", multiqr.TextPayload("x"), multiqr.UnselectedDialect, nil, multiqr.ErrNoDialect},
		{"unknown dialect", multiqr.TextPayload("x"), multiqr.WireDialect(9), nil, multiqr.ErrNotImplemented},
		{"raw too large", multiqr.TextPayload(longText), multiqr.Raw, &multiqr.EncoderOptions{MaxLen: 100}, multiqr.ErrTooLarge},
		{"UR frames too small", multiqr.TextPayload(longText), multiqr.UR, &multiqr.EncoderOptions{MaxLen: 60}, multiqr.ErrTooLarge},
		{"UR fragment below minimum", multiqr.TextPayload(longText), multiqr.UR, &multiqr.EncoderOptions{MaxLen: 100}, multiqr.ErrTooLarge},
		{"UR short message too long", multiqr.TextPayload(strings.Repeat("x", 20)), multiqr.UR, &multiqr.EncoderOptions{MaxLen: 40}, multiqr.ErrTooLarge},
		{"UR xpub", multiqr.KeyPayload(xpub), multiqr.UR, nil, multiqr.ErrNotImplemented},
		{"UR xprv", multiqr.KeyPayload(xprv), multiqr.UR, nil, multiqr.ErrNotImplemented},
		{"UR descriptor", multiqr.DescriptorPayload(desc), multiqr.UR, nil, multiqr.ErrNotImplemented},
		{"wrong network", multiqr.AddressPayload(testnet), multiqr.Specter, nil, multiqr.PayloadError{}},
		{"mislabeled", multiqr.Payload{Type: multiqr.TransactionProposal, Value: "x"}, multiqr.Raw, nil, multiqr.PayloadError{}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := multiqr.NewEncoder(tc.p, tc.dialect, tc.opts)
			if err == nil {
				t.Fatal("NewEncoder succeeded, want error")
			}
			if _, ok := tc.wantErr.(multiqr.PayloadError); ok {
				var perr multiqr.PayloadError
				if !errors.As(err, &perr) {
					t.Fatalf("NewEncoder err=%v, want PayloadError", err)
				}
				return
			}
			if !errors.Is(err, tc.wantErr) {
				t.Fatalf("NewEncoder err=%v, want %v", err, tc.wantErr)
			}
		})
	}
}

func TestEncoderUR(t *testing.T) {
	const maxLen = 120
	enc, err := multiqr.NewEncoder(multiqr.TextPayload(longText), multiqr.UR, &multiqr.EncoderOptions{MaxLen: maxLen})
	if err != nil {
		t.Fatal(err)
	}
	if enc.Parts() < 2 {
		t.Fatalf("Parts() = %d, want multi-part", enc.Parts())
	}
	for _, f := range multiqrtest.Frames(enc, 3*enc.Parts()) {
		if len(f) > maxLen {
			t.Errorf("frame %q longer than %d", f, maxLen)
		}
		if !strings.HasPrefix(f, "ur:bytes/") {
			t.Errorf("frame %q is not a bytes UR", f)
		}
	}

	fixed, err := multiqr.NewEncoder(multiqr.TextPayload(longText), multiqr.UR, &multiqr.EncoderOptions{MaxLen: maxLen, FragmentLen: 200})
	if err != nil {
		t.Fatal(err)
	}
	if got := fixed.Parts(); got != 3 {
		t.Errorf("Parts() with FragmentLen 200 = %d, want 3", got)
	}

	// Short payloads fit below the multi-part overhead.
	short, err := multiqr.NewEncoder(multiqr.TextPayload("hi"), multiqr.UR, &multiqr.EncoderOptions{MaxLen: 30})
	if err != nil {
		t.Fatal(err)
	}
	if got := short.Next(); len(got) > 30 || strings.Count(got, "/") != 1 {
		t.Errorf("short UR frame %q is not a single part within 30 characters", got)
	}
}
