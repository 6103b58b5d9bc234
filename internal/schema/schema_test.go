package schema

import (
	"testing"

	"conform/pkg/value"
)

func TestParseColumnType(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in      string
		want    ColumnType
		wantErr bool
	}{
		{in: "integer", want: TypeInteger},
		{in: "int", want: TypeInteger},
		{in: "bigint", want: TypeInteger},
		{in: "real", want: TypeReal},
		{in: "float", want: TypeReal},
		{in: "double", want: TypeReal},
		{in: "text", want: TypeText},
		{in: "string", want: TypeText},
		{in: "bool", want: TypeBoolean},
		{in: "boolean", want: TypeBoolean},
		{in: "bytes", want: TypeBytes},
		{in: "blob", want: TypeBytes},
		{in: "unknown", want: TypeUnknown},
		{in: "varchar", wantErr: true},
		{in: "", wantErr: true},
		{in: "Integer", wantErr: true},
	}
	for _, tt := range tests {
		got, err := ParseColumnType(tt.in)
		if tt.wantErr {
			if err == nil {
				t.Fatalf("ParseColumnType(%q) = %s, want error", tt.in, got)
			}
			continue
		}
		if err != nil || got != tt.want {
			t.Fatalf("ParseColumnType(%q) = %s, %v; want %s", tt.in, got, err, tt.want)
		}
	}
}

func TestTypeOfKind(t *testing.T) {
	t.Parallel()

	want := map[value.Kind]ColumnType{
		value.KindBool:    TypeBoolean,
		value.KindInt64:   TypeInteger,
		value.KindFloat64: TypeReal,
		value.KindString:  TypeText,
		value.KindBytes:   TypeBytes,
		value.KindNull:    TypeUnknown,
	}
	for k, ct := range want {
		if got := TypeOfKind(k); got != ct {
			t.Fatalf("TypeOfKind(%s) = %s, want %s", k, got, ct)
		}
	}
}

func TestNarrower(t *testing.T) {
	t.Parallel()

	tests := []struct {
		a, b ColumnType
		want bool
	}{
		{TypeInteger, TypeReal, true},
		{TypeInteger, TypeText, true},
		{TypeReal, TypeText, true},
		{TypeReal, TypeInteger, false},
		{TypeText, TypeInteger, false},
		{TypeInteger, TypeInteger, false},
		{TypeUnknown, TypeInteger, true},
		{TypeUnknown, TypeBytes, true},
		{TypeUnknown, TypeUnknown, false},
		{TypeBoolean, TypeText, false},
		{TypeBytes, TypeText, false},
		{TypeText, TypeBytes, false},
	}
	for _, tt := range tests {
		if got := Narrower(tt.a, tt.b); got != tt.want {
			t.Fatalf("Narrower(%s, %s) = %v, want %v", tt.a, tt.b, got, tt.want)
		}
	}
}

func TestSchemaFindAndNames(t *testing.T) {
	t.Parallel()

	s := Schema{Columns: []ColumnDef{
		{Name: "a", Type: TypeInteger},
		{Name: "b", Type: TypeText},
	}}

	if def, ok := s.Find("b"); !ok || def.Type != TypeText {
		t.Fatalf("Find(b) = %+v, %v", def, ok)
	}
	if _, ok := s.Find("missing"); ok {
		t.Fatal("Find(missing) = true")
	}
	names := s.Names()
	if len(names) != 2 || names[0] != "a" || names[1] != "b" {
		t.Fatalf("Names = %v", names)
	}
}
