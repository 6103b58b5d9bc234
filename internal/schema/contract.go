package schema

import (
	"encoding/json"
	"fmt"
	"io"
)

// ContractColumn is one expected-column entry in a contract file.
type ContractColumn struct {
	Name     string `json:"name"`
	Type     string `json:"type"` // "integer" | "real" | "text" | "boolean" | "bytes"
	Nullable bool   `json:"nullable,omitempty"`
}

// Contract is the JSON shape callers use to supply an expected schema, e.g.:
//
//	{
//	  "name": "hr_events",
//	  "columns": [
//	    { "name": "id",  "type": "integer" },
//	    { "name": "amt", "type": "real", "nullable": true }
//	  ]
//	}
type Contract struct {
	Name    string           `json:"name"`
	Columns []ContractColumn `json:"columns"`
}

// DecodeContract reads a contract from r.
func DecodeContract(r io.Reader) (Contract, error) {
	var c Contract
	if err := json.NewDecoder(r).Decode(&c); err != nil {
		return Contract{}, fmt.Errorf("decode contract: %w", err)
	}
	return c, nil
}

// Schema converts the contract into a canonical Schema. Column names are
// normalized the same way observed column names are, so reconciliation
// matches on identical keys. Duplicate or invalid entries are errors.
func (c Contract) Schema() (Schema, error) {
	var s Schema
	seen := make(map[string]struct{}, len(c.Columns))
	for i, col := range c.Columns {
		name := TruncateName(NormalizeName(col.Name))
		if _, dup := seen[name]; dup {
			return Schema{}, fmt.Errorf("contract: duplicate column %q (entry %d)", name, i)
		}
		seen[name] = struct{}{}

		t, err := ParseColumnType(col.Type)
		if err != nil {
			return Schema{}, fmt.Errorf("contract: column %q: %w", name, err)
		}
		s.Columns = append(s.Columns, ColumnDef{
			Name:     name,
			Type:     t,
			Nullable: col.Nullable,
			// Expected columns carry full confidence until observations say
			// otherwise.
			Confidence: 1,
		})
	}
	return s, nil
}
