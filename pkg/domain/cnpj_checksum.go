package domain

import "fmt"

var (
	cnpjFirstWeights  = [...]int64{5, 4, 3, 2, 9, 8, 7, 6, 5, 4, 3, 2}
	cnpjSecondWeights = [...]int64{6, 5, 4, 3, 2, 9, 8, 7, 6, 5, 4, 3, 2}
)

// DeriveCNPJCheckDigits returns the two check digits (as first*10+second)
// for a 12-digit base.
func DeriveCNPJCheckDigits(base int64) (int, error) {
	if base < 0 || base > maxCNPJBase {
		return 0, fmt.Errorf("%w: %d", ErrCNPJBaseRange, base)
	}
	return int(cnpjCheckDigits(base)), nil
}

// cnpjCheckDigits assumes base is within [0, maxCNPJBase].
func cnpjCheckDigits(base int64) int64 {
	first := cnpjCheckDigit(base, cnpjFirstWeights[:])
	second := cnpjCheckDigit(base*10+first, cnpjSecondWeights[:])
	return first*10 + second
}

// cnpjCheckDigit reads n as exactly len(weights) digits, zero-padded on the
// left, and pairs them with weights left to right. Walking from the least
// significant digit against the last weight gives the same pairing.
func cnpjCheckDigit(n int64, weights []int64) int64 {
	var sum int64
	for i := len(weights) - 1; i >= 0; i-- {
		sum += (n % 10) * weights[i]
		n /= 10
	}
	if r := sum % 11; r >= 2 {
		return 11 - r
	}
	return 0
}

// verifyCNPJ reports whether n is in range and ends in the check digits of
// its leading twelve digits.
func verifyCNPJ(n int64) bool {
	if n < 0 || n > maxCNPJ {
		return false
	}
	return n%100 == cnpjCheckDigits(n/100)
}
