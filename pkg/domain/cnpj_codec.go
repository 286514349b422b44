package domain

import (
	"database/sql/driver"
	"fmt"
)

// MarshalText encodes the short form. This is the canonical wire encoding;
// encoding/json and encoding/xml pick it up without further glue.
func (c CNPJ) MarshalText() ([]byte, error) {
	return []byte(c.Short()), nil
}

// UnmarshalText decodes any textual form through ParseCNPJ. Empty text is
// rejected.
func (c *CNPJ) UnmarshalText(text []byte) error {
	parsed, err := ParseCNPJ(string(text))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// Value implements driver.Valuer with the short form.
func (c CNPJ) Value() (driver.Value, error) {
	return c.Short(), nil
}

// Scan implements sql.Scanner for text and integer columns. NULL is
// rejected; scan into a *CNPJ only for NOT NULL columns.
func (c *CNPJ) Scan(src any) error {
	var (
		parsed CNPJ
		err    error
	)
	switch v := src.(type) {
	case int64:
		parsed, err = ParseCNPJInt(v)
	case string:
		parsed, err = ParseCNPJ(v)
	case []byte:
		parsed, err = ParseCNPJ(string(v))
	case nil:
		return fmt.Errorf("%w: NULL", ErrCNPJFormat)
	default:
		return fmt.Errorf("scan CNPJ: unsupported source type %T", src)
	}
	if err != nil {
		return fmt.Errorf("scan CNPJ: %w", err)
	}
	*c = parsed
	return nil
}
