package model

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/gyeh/billaudit/internal/normalize"
)

// Money is an amount in whole units of the local currency.
// It decodes from JSON/YAML numbers or from printed strings like "$120.000".
type Money int64

// UnmarshalJSON accepts a JSON number or a formatted amount string.
func (m *Money) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		v, err := normalize.ParseAmount(s)
		if err != nil {
			return err
		}
		*m = Money(v)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("amount: %w", err)
	}
	d, err := decimal.NewFromString(n.String())
	if err != nil {
		return fmt.Errorf("amount %s: %w", n, err)
	}
	if d.IsNegative() {
		return fmt.Errorf("negative amount %s", n)
	}
	*m = Money(d.Round(0).IntPart())
	return nil
}

// UnmarshalYAML parses scalars as printed amounts, so "500.000" is five hundred thousand.
func (m *Money) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: amount must be a scalar", value.Line)
	}
	v, err := normalize.ParseAmount(value.Value)
	if err != nil {
		return fmt.Errorf("line %d: %w", value.Line, err)
	}
	*m = Money(v)
	return nil
}

func (m Money) String() string {
	return normalize.FormatAmount(int64(m))
}
