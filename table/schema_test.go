package table

import (
	"errors"
	"testing"

	"github.com/apache/arrow-go/v18/arrow"
)

func TestNewSchemaValidation(t *testing.T) {
	tests := []struct {
		name    string
		fields  []Field
		wantErr error
	}{
		{"empty", nil, ErrNoFields},
		{"duplicate", []Field{
			{Name: "A", Type: Float64},
			{Name: "A", Type: Float32},
		}, ErrDuplicateName},
		{"valid", []Field{
			{Name: "A", Type: Float64},
			{Name: "B", Type: Int16},
		}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewSchema(tt.fields)
			if tt.wantErr == nil {
				if err != nil {
					t.Fatalf("NewSchema failed: %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("expected %v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestSchemaRowSize(t *testing.T) {
	s, err := NewSchema([]Field{
		{Name: "WAVELENGTH", Type: Float64},
		{Name: "FLUX", Type: Float32},
		{Name: "DQ", Type: Int16},
		{Name: "TAG", Type: String, Width: 8},
	})
	if err != nil {
		t.Fatal(err)
	}
	if got := s.RowSize(); got != 8+4+2+8 {
		t.Errorf("row size = %d, want 22", got)
	}
}

func TestSchemaNamesOrder(t *testing.T) {
	s, err := NewSchema([]Field{
		{Name: "B", Type: Int32},
		{Name: "A", Type: Int32},
	})
	if err != nil {
		t.Fatal(err)
	}
	names := s.Names()
	if names[0] != "B" || names[1] != "A" {
		t.Errorf("names = %v, want [B A]", names)
	}
}

func TestArrowSchemaTypes(t *testing.T) {
	s, err := NewSchema([]Field{
		{Name: "L", Type: Logical},
		{Name: "U", Type: Uint8},
		{Name: "I", Type: Int16},
		{Name: "J", Type: Int32},
		{Name: "K", Type: Int64},
		{Name: "E", Type: Float32},
		{Name: "D", Type: Float64},
		{Name: "A", Type: String, Width: 4},
	})
	if err != nil {
		t.Fatal(err)
	}
	as := s.ArrowSchema()
	if as.NumFields() != 8 {
		t.Fatalf("arrow fields = %d, want 8", as.NumFields())
	}
	if !arrow.TypeEqual(as.Field(6).Type, arrow.PrimitiveTypes.Float64) {
		t.Errorf("field D has arrow type %s", as.Field(6).Type)
	}
	if !arrow.TypeEqual(as.Field(7).Type, arrow.BinaryTypes.String) {
		t.Errorf("field A has arrow type %s", as.Field(7).Type)
	}
}

func TestOrderString(t *testing.T) {
	if BigEndian.String() != "big-endian" || LittleEndian.String() != "little-endian" {
		t.Error("order names wrong")
	}
}
