package domain

import (
	"fmt"
	"strconv"
	"strings"
)

// cnpjSeparators are dropped wherever they appear; grouping is only
// produced on output, never checked on input.
const cnpjSeparators = ".-/"

// normalizeCNPJ strips separators from s and parses the remaining digits.
// The result is within [0, maxCNPJ] whenever err is nil.
func normalizeCNPJ(s string) (int64, error) {
	if s == "" {
		return 0, fmt.Errorf("%w: empty input", ErrCNPJFormat)
	}

	digits := strings.Map(func(r rune) rune {
		if strings.ContainsRune(cnpjSeparators, r) {
			return -1
		}
		return r
	}, s)
	if digits == "" {
		return 0, fmt.Errorf("%w: no digits in %q", ErrCNPJFormat, s)
	}
	for _, r := range digits {
		if r < '0' || r > '9' {
			return 0, fmt.Errorf("%w: unexpected character %q", ErrCNPJFormat, r)
		}
	}

	n, err := strconv.ParseUint(digits, 10, 64)
	if err != nil || n > uint64(maxCNPJ) {
		return 0, fmt.Errorf("%w: more than 14 significant digits", ErrCNPJFormat)
	}
	return int64(n), nil
}
