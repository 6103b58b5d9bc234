package schema

import (
	"strings"
	"testing"
)

func TestDecodeContract(t *testing.T) {
	t.Parallel()

	in := `{
		"name": "hr_events",
		"columns": [
			{ "name": "id",  "type": "integer" },
			{ "name": "amt", "type": "real", "nullable": true }
		]
	}`
	c, err := DecodeContract(strings.NewReader(in))
	if err != nil {
		t.Fatal(err)
	}
	if c.Name != "hr_events" || len(c.Columns) != 2 {
		t.Fatalf("contract = %+v", c)
	}
	if c.Columns[1].Name != "amt" || c.Columns[1].Type != "real" || !c.Columns[1].Nullable {
		t.Fatalf("column = %+v", c.Columns[1])
	}

	if _, err := DecodeContract(strings.NewReader("{not json")); err == nil {
		t.Fatal("malformed contract decoded without error")
	}
}

func TestContractSchema(t *testing.T) {
	t.Parallel()

	c := Contract{Columns: []ContractColumn{
		{Name: "Order Total", Type: "float", Nullable: true},
		{Name: "id", Type: "int"},
	}}
	s, err := c.Schema()
	if err != nil {
		t.Fatal(err)
	}
	if len(s.Columns) != 2 {
		t.Fatalf("schema = %+v", s)
	}
	if got := s.Columns[0]; got.Name != "order_total" || got.Type != TypeReal || !got.Nullable || got.Confidence != 1 {
		t.Fatalf("column = %+v", got)
	}
	if got := s.Columns[1]; got.Name != "id" || got.Type != TypeInteger {
		t.Fatalf("column = %+v", got)
	}
}

func TestContractSchemaRejects(t *testing.T) {
	t.Parallel()

	// Names normalize before the duplicate check, so these collide.
	dup := Contract{Columns: []ContractColumn{
		{Name: "Total", Type: "int"},
		{Name: "total ", Type: "real"},
	}}
	if _, err := dup.Schema(); err == nil {
		t.Fatal("duplicate columns accepted")
	}

	bad := Contract{Columns: []ContractColumn{
		{Name: "x", Type: "varchar"},
	}}
	if _, err := bad.Schema(); err == nil {
		t.Fatal("invalid type accepted")
	}
}
