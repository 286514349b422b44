//go:build go1.18

package domain

import (
	"errors"
	"testing"
)

// FuzzParseCNPJ tests that parsing never panics on arbitrary input and always
// returns either a valid CNPJ or an error.
//
// Justification: ParseCNPJ is the trust boundary for every CNPJ in the system.
func FuzzParseCNPJ(f *testing.F) {
	f.Add("")
	f.Add("11.022.233/3000-91")
	f.Add("11.022.233/3000-90")
	f.Add("00000000000000")
	f.Add("99999999999999999999")
	f.Add("./-")
	f.Add("'; DROP TABLE companies;--")
	f.Add(string([]byte{0x00, 0x01, 0x02}))

	f.Fuzz(func(t *testing.T, input string) {
		c, err := ParseCNPJ(input)

		// Predicates agree with the strict path
		if IsValidCNPJ(input) != (err == nil) {
			t.Fatalf("IsValidCNPJ(%q) disagrees with ParseCNPJ error %v", input, err)
		}

		if err != nil {
			if !errors.Is(err, ErrInvalidCNPJ) {
				t.Errorf("error %v does not match ErrInvalidCNPJ", err)
			}
			if !c.IsZero() {
				t.Error("failed parse returned a non-empty CNPJ")
			}
			return
		}

		// Valid CNPJs round-trip through every format
		for _, f := range []CNPJFormat{CNPJFormatShort, CNPJFormatBare, CNPJFormatGeneral} {
			text, err := c.FormatAs(f)
			if err != nil {
				t.Fatalf("FormatAs(%s): %v", f, err)
			}
			again, err := ParseCNPJ(text)
			if err != nil {
				t.Fatalf("format %s of %d failed round-trip: %v", f, c.Int64(), err)
			}
			if again != c {
				t.Fatalf("round-trip through %s changed value", f)
			}
		}
	})
}

// FuzzNewCNPJFromBaseInt checks that every derived CNPJ verifies.
func FuzzNewCNPJFromBaseInt(f *testing.F) {
	f.Add(int64(0))
	f.Add(int64(110222333000))
	f.Add(int64(999999999999))
	f.Add(int64(-1))
	f.Add(int64(1_000_000_000_000))

	f.Fuzz(func(t *testing.T, base int64) {
		c, err := NewCNPJFromBaseInt(base)
		inRange := base >= 0 && base <= maxCNPJBase
		if inRange != (err == nil) {
			t.Fatalf("base %d: in range %v, error %v", base, inRange, err)
		}
		if err != nil {
			if !errors.Is(err, ErrCNPJBaseRange) {
				t.Errorf("unexpected error %v", err)
			}
			return
		}
		if !IsValidCNPJInt(c.Int64()) || c.Base() != base {
			t.Fatalf("derived CNPJ %d for base %d does not verify", c.Int64(), base)
		}
	})
}
