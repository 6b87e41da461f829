package multiqr

import (
	"errors"
	"fmt"
	"strings"
)

// ErrDescriptorChecksum is returned for an output descriptor whose
// checksum does not match its body.
var ErrDescriptorChecksum = errors.New("descriptor checksum mismatch")

// Descriptor is an output descriptor, such as
// "wpkh([d34db33f/84h/0h/0h]xpub.../0/*)".
//
// Descriptors are validated for character set, bracket nesting and
// checksum only. Key expressions and script semantics are not
// interpreted.
type Descriptor struct {
	body string
}

// ParseDescriptor parses an output descriptor, with or without a
// trailing "#checksum". If a checksum is present, it must match.
func ParseDescriptor(s string) (Descriptor, error) {
	body, sum, hasSum := strings.Cut(strings.TrimSpace(s), "#")
	if err := checkDescriptorBody(body); err != nil {
		return Descriptor{}, err
	}
	if hasSum {
		want, err := DescriptorChecksum(body)
		if err != nil {
			return Descriptor{}, err
		}
		if sum != want {
			return Descriptor{}, fmt.Errorf("%w: got %q, want %q", ErrDescriptorChecksum, sum, want)
		}
	}
	return Descriptor{body}, nil
}

func checkDescriptorBody(body string) error {
	if body == "" {
		return errors.New("empty descriptor")
	}
	if c := body[0]; c < 'a' || c > 'z' {
		return fmt.Errorf("descriptor must start with a script function, not %q", c)
	}
	open := strings.IndexByte(body, '(')
	if open < 0 || body[len(body)-1] != ')' {
		return errors.New("descriptor is not a function expression")
	}
	for _, c := range body[:open] {
		if !(c >= 'a' && c <= 'z' || c >= '0' && c <= '9' || c == '_') {
			return fmt.Errorf("invalid character %q in script function name", c)
		}
	}

	var stack []byte
	for i := range len(body) {
		c := body[i]
		if strings.IndexByte(descriptorCharset, c) < 0 {
			return fmt.Errorf("invalid character %q in descriptor", c)
		}
		switch c {
		case '(', '[', '{':
			stack = append(stack, c)
		case ')', ']', '}':
			if len(stack) == 0 || stack[len(stack)-1] != openerOf(c) {
				return fmt.Errorf("unbalanced %q at offset %d", c, i)
			}
			stack = stack[:len(stack)-1]
			if len(stack) == 0 && i != len(body)-1 {
				return fmt.Errorf("trailing data after offset %d", i)
			}
		}
	}
	if len(stack) != 0 {
		return fmt.Errorf("unclosed %q", stack[len(stack)-1])
	}
	return nil
}

func openerOf(c byte) byte {
	switch c {
	case ')':
		return '('
	case ']':
		return '['
	default:
		return '{'
	}
}

// Body returns the descriptor without its checksum.
func (d Descriptor) Body() string { return d.body }

// String returns the descriptor with its checksum appended.
func (d Descriptor) String() string {
	if d.body == "" {
		return ""
	}
	sum, err := DescriptorChecksum(d.body)
	if err != nil {
		// Descriptors are only constructed from validated bodies.
		panic(fmt.Sprintf("checksumming validated descriptor: %v", err))
	}
	return d.body + "#" + sum
}

const (
	descriptorCharset = "0123456789()[],'/*abcdefgh@:$%{}IJKLMNOPQRSTUVWXYZ&+-.;<=>?!^_|~ijklmnopqrstuvwxyzABCDEFGH`#\"\\ "
	checksumCharset   = "qpzry9x8gf2tvdw0s3jn54khce6mua7l"
)

// DescriptorChecksum returns the 8 character checksum of a descriptor
// body.
func DescriptorChecksum(body string) (string, error) {
	c := uint64(1)
	cls, count := uint64(0), 0
	for i := range len(body) {
		pos := strings.IndexByte(descriptorCharset, body[i])
		if pos < 0 {
			return "", fmt.Errorf("invalid character %q in descriptor", body[i])
		}
		c = descriptorPolymod(c, uint64(pos&31))
		cls = cls*3 + uint64(pos>>5)
		if count++; count == 3 {
			c = descriptorPolymod(c, cls)
			cls, count = 0, 0
		}
	}
	if count > 0 {
		c = descriptorPolymod(c, cls)
	}
	for range 8 {
		c = descriptorPolymod(c, 0)
	}
	c ^= 1

	var ret [8]byte
	for j := range ret {
		ret[j] = checksumCharset[(c>>(5*(7-j)))&31]
	}
	return string(ret[:]), nil
}

func descriptorPolymod(c, val uint64) uint64 {
	c0 := c >> 35
	c = ((c & 0x7ffffffff) << 5) ^ val
	for i, g := range [...]uint64{0xf5dee51989, 0xa9fdca3312, 0x1bab10e32d, 0x3706b1677a, 0x644d626ffd} {
		if (c0>>i)&1 != 0 {
			c ^= g
		}
	}
	return c
}
