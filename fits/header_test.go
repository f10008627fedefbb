package fits

import (
	"bytes"
	"strings"
	"testing"
)

func mkCard(t *testing.T, s string) []byte {
	t.Helper()
	if len(s) > cardSize {
		t.Fatalf("card text too long: %q", s)
	}
	b := make([]byte, cardSize)
	copy(b, s)
	for i := len(s); i < cardSize; i++ {
		b[i] = ' '
	}
	return b
}

func TestParseCardValues(t *testing.T) {
	tests := []struct {
		name    string
		card    string
		keyword string
		value   string
		str     bool
	}{
		{"integer", "NAXIS2  =                 1176", "NAXIS2", "1176", false},
		{"logical", "SIMPLE  =                    T", "SIMPLE", "T", false},
		{"float", "EXPTIME =               2100.0 / exposure", "EXPTIME", "2100.0", false},
		{"string", "EXTNAME = 'SPEC    '", "EXTNAME", "SPEC", true},
		{"string escape", "OBJECT  = 'O''HARA'", "OBJECT", "O'HARA", true},
		{"comment after value", "BITPIX  =                    8 / bits", "BITPIX", "8", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			card, end, err := parseCard(mkCard(t, tt.card))
			if err != nil {
				t.Fatalf("parseCard failed: %v", err)
			}
			if end {
				t.Fatal("unexpected END")
			}
			if card.Keyword != tt.keyword {
				t.Errorf("keyword %q, want %q", card.Keyword, tt.keyword)
			}
			if card.Value != tt.value {
				t.Errorf("value %q, want %q", card.Value, tt.value)
			}
			if card.IsString != tt.str {
				t.Errorf("IsString = %v, want %v", card.IsString, tt.str)
			}
		})
	}
}

func TestParseCardEnd(t *testing.T) {
	_, end, err := parseCard(mkCard(t, "END"))
	if err != nil {
		t.Fatalf("parseCard failed: %v", err)
	}
	if !end {
		t.Fatal("END card not detected")
	}
}

func TestParseCardNonASCII(t *testing.T) {
	raw := mkCard(t, "SIMPLE  =                    T")
	raw[40] = 0xff
	if _, _, err := parseCard(raw); err == nil {
		t.Fatal("expected error for non-ASCII card")
	}
}

func TestParseCardUnterminatedString(t *testing.T) {
	if _, _, err := parseCard(mkCard(t, "EXTNAME = 'SPEC")); err == nil {
		t.Fatal("expected error for unterminated string")
	}
}

func TestReadHeaderMultiBlock(t *testing.T) {
	// 40 value cards overflow one 36-card block.
	var buf bytes.Buffer
	buf.Write(mkCard(t, "SIMPLE  =                    T"))
	for i := 0; i < 40; i++ {
		buf.Write(mkCard(t, "NAXIS   =                    0"))
	}
	buf.Write(mkCard(t, "END"))
	for buf.Len()%BlockSize != 0 {
		buf.WriteByte(' ')
	}

	h, blocks, err := readHeader(&buf)
	if err != nil {
		t.Fatalf("readHeader failed: %v", err)
	}
	if blocks != 2 {
		t.Errorf("blocks = %d, want 2", blocks)
	}
	if !h.Has("SIMPLE") {
		t.Error("SIMPLE missing")
	}
}

func TestReadHeaderTruncated(t *testing.T) {
	r := strings.NewReader("SIMPLE  =                    T")
	if _, _, err := readHeader(r); err == nil {
		t.Fatal("expected error for truncated header")
	}
}

func TestHeaderAccessors(t *testing.T) {
	var buf bytes.Buffer
	buf.Write(mkCard(t, "SIMPLE  =                    T"))
	buf.Write(mkCard(t, "NAXIS1  =                   34"))
	buf.Write(mkCard(t, "EXTNAME = 'SPEC'"))
	buf.Write(mkCard(t, "END"))
	for buf.Len()%BlockSize != 0 {
		buf.WriteByte(' ')
	}

	h, _, err := readHeader(&buf)
	if err != nil {
		t.Fatalf("readHeader failed: %v", err)
	}
	if v, ok := h.Bool("SIMPLE"); !ok || !v {
		t.Errorf("SIMPLE = %v,%v", v, ok)
	}
	if v, ok := h.Int("NAXIS1"); !ok || v != 34 {
		t.Errorf("NAXIS1 = %v,%v", v, ok)
	}
	if v, ok := h.Str("EXTNAME"); !ok || v != "SPEC" {
		t.Errorf("EXTNAME = %q,%v", v, ok)
	}
	if h.IntOr("MISSING", 7) != 7 {
		t.Error("IntOr fallback not applied")
	}
}

func FuzzParseCard(f *testing.F) {
	f.Add([]byte("SIMPLE  =                    T                                                  "))
	f.Add([]byte("EXTNAME = 'SPEC    '           / extension name                                 "))
	f.Add([]byte("END                                                                             "))

	f.Fuzz(func(t *testing.T, raw []byte) {
		if len(raw) != cardSize {
			t.Skip()
		}
		// Must never panic, whatever the bytes.
		_, _, _ = parseCard(raw)
	})
}
