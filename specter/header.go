// Package specter implements the Specter multi-part framing, in
// which each chunk of a split payload is prefixed with a plain text
// header "p{index}of{total} ".
//
// Payloads that fit in a single code are sent without a header.
package specter

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"

	"github.com/danderson/multiqr/fragments"
)

var (
	// ErrParse is returned for a malformed or out of range header.
	ErrParse = errors.New("specter: bad header")
	// ErrNotMultiPart is returned when a frame without a header is
	// given to a [Decoder].
	ErrNotMultiPart = errors.New("specter: not a multi-part frame")
)

var headerRe = regexp.MustCompile(`^p([0-9]+)of([0-9]+) `)

// Detect reports whether data starts with a Specter header.
func Detect(data string) bool {
	return headerRe.MatchString(data)
}

// DecodeHeader parses the header at the start of data, and returns
// the 1-based index, the total part count, and the payload following
// the header.
//
// Headers with a zero index, an index beyond the total, or a total of
// less than 2 are rejected: only payloads that were actually split
// carry a header. Totals above [fragments.MaxTotal] are rejected too.
func DecodeHeader(data string) (index, total int, rest string, err error) {
	m := headerRe.FindStringSubmatch(data)
	if m == nil {
		return 0, 0, "", fmt.Errorf("%w: no header in %q", ErrParse, truncate(data))
	}
	index, err = strconv.Atoi(m[1])
	if err != nil {
		return 0, 0, "", fmt.Errorf("%w: index %q: %w", ErrParse, m[1], err)
	}
	total, err = strconv.Atoi(m[2])
	if err != nil {
		return 0, 0, "", fmt.Errorf("%w: total %q: %w", ErrParse, m[2], err)
	}
	switch {
	case index == 0:
		return 0, 0, "", fmt.Errorf("%w: index cannot be 0", ErrParse)
	case total <= 1:
		return 0, 0, "", fmt.Errorf("%w: total must be greater than 1, got %d", ErrParse, total)
	case total > fragments.MaxTotal:
		return 0, 0, "", fmt.Errorf("%w: total %d exceeds limit of %d", ErrParse, total, fragments.MaxTotal)
	case index > total:
		return 0, 0, "", fmt.Errorf("%w: index %d greater than total %d", ErrParse, index, total)
	}
	return index, total, data[len(m[0]):], nil
}

// EncodeHeader returns the header for part index of total.
func EncodeHeader(index, total int) string {
	return "p" + strconv.Itoa(index) + "of" + strconv.Itoa(total) + " "
}

func truncate(s string) string {
	const n = 16
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
