package fits

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// BlockSize is the FITS unit of allocation: headers and data payloads
// are padded to this boundary.
const BlockSize = 2880

// cardSize is the fixed width of one header card.
const cardSize = 80

// ErrMalformedHeader reports a header block that violates the card
// grammar.
var ErrMalformedHeader = errors.New("malformed header")

// Card is one parsed header card. Value holds the raw value text with
// string quoting removed; commentary cards (COMMENT, HISTORY, blank
// keyword) carry no value.
type Card struct {
	Keyword  string
	Value    string
	HasValue bool
	IsString bool // value came from a quoted string
	Comment  string
}

// Header is one HDU's parsed card list.
type Header struct {
	cards []Card
	index map[string]int
}

// Cards returns the parsed cards in file order.
func (h *Header) Cards() []Card {
	return h.cards
}

// Has reports whether a value-bearing card exists for the keyword.
func (h *Header) Has(keyword string) bool {
	_, ok := h.index[keyword]
	return ok
}

// Str returns the string value of a keyword.
func (h *Header) Str(keyword string) (string, bool) {
	i, ok := h.index[keyword]
	if !ok {
		return "", false
	}
	return h.cards[i].Value, true
}

// Int returns the integer value of a keyword.
func (h *Header) Int(keyword string) (int64, bool) {
	s, ok := h.Str(keyword)
	if !ok {
		return 0, false
	}
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// Bool returns the logical value of a keyword.
func (h *Header) Bool(keyword string) (bool, bool) {
	s, ok := h.Str(keyword)
	if !ok {
		return false, false
	}
	return s == "T", true
}

// IntOr returns the integer value of a keyword, or the fallback when
// the keyword is absent or non-numeric.
func (h *Header) IntOr(keyword string, fallback int64) int64 {
	if v, ok := h.Int(keyword); ok {
		return v
	}
	return fallback
}

// readHeader reads whole blocks until the END card and reports how
// many blocks it consumed. io.EOF at a block boundary before any card
// means the stream is exhausted cleanly.
func readHeader(r io.Reader) (*Header, int64, error) {
	h := &Header{index: make(map[string]int)}
	block := make([]byte, BlockSize)
	sawEnd := false
	blocks := int64(0)

	for !sawEnd {
		if _, err := io.ReadFull(r, block); err != nil {
			if blocks == 0 && err == io.EOF {
				return nil, 0, io.EOF
			}
			return nil, 0, fmt.Errorf("%w: truncated header block: %v", ErrMalformedHeader, err)
		}
		blocks++

		for i := 0; i < BlockSize; i += cardSize {
			card, end, err := parseCard(block[i : i+cardSize])
			if err != nil {
				return nil, 0, err
			}
			if end {
				sawEnd = true
				break
			}
			if card.Keyword == "" && !card.HasValue && card.Comment == "" {
				continue // padding card
			}
			if card.HasValue {
				// Last occurrence wins for repeated keywords.
				h.index[card.Keyword] = len(h.cards)
			}
			h.cards = append(h.cards, card)
		}
	}
	return h, blocks, nil
}

// parseCard splits one 80-byte card into keyword, value and comment.
func parseCard(raw []byte) (Card, bool, error) {
	for _, b := range raw {
		if b < 0x20 || b > 0x7e {
			return Card{}, false, fmt.Errorf("%w: non-ASCII byte 0x%02x in card", ErrMalformedHeader, b)
		}
	}

	keyword := strings.TrimRight(string(raw[:8]), " ")
	if keyword == "END" {
		return Card{}, true, nil
	}

	rest := string(raw[8:])
	if keyword == "COMMENT" || keyword == "HISTORY" || keyword == "" {
		return Card{Keyword: keyword, Comment: strings.TrimSpace(rest)}, false, nil
	}
	if !strings.HasPrefix(rest, "= ") {
		// Keyword without value indicator: commentary by convention.
		return Card{Keyword: keyword, Comment: strings.TrimSpace(rest)}, false, nil
	}

	value, quoted, comment, err := parseValue(rest[2:])
	if err != nil {
		return Card{}, false, fmt.Errorf("card %s: %w", keyword, err)
	}
	return Card{Keyword: keyword, Value: value, HasValue: true, IsString: quoted, Comment: comment}, false, nil
}

// parseValue splits the value field from its trailing comment. Quoted
// strings use FITS conventions: single quotes, doubled quote escapes,
// trailing blanks insignificant.
func parseValue(s string) (value string, quoted bool, comment string, err error) {
	trimmed := strings.TrimLeft(s, " ")
	if strings.HasPrefix(trimmed, "'") {
		var sb strings.Builder
		i := 1
		for {
			if i >= len(trimmed) {
				return "", false, "", fmt.Errorf("%w: unterminated string value", ErrMalformedHeader)
			}
			if trimmed[i] == '\'' {
				if i+1 < len(trimmed) && trimmed[i+1] == '\'' {
					sb.WriteByte('\'')
					i += 2
					continue
				}
				i++
				break
			}
			sb.WriteByte(trimmed[i])
			i++
		}
		rest := trimmed[i:]
		if slash := strings.IndexByte(rest, '/'); slash >= 0 {
			comment = strings.TrimSpace(rest[slash+1:])
		}
		return strings.TrimRight(sb.String(), " "), true, comment, nil
	}

	if slash := strings.IndexByte(trimmed, '/'); slash >= 0 {
		comment = strings.TrimSpace(trimmed[slash+1:])
		trimmed = trimmed[:slash]
	}
	return strings.TrimSpace(trimmed), false, comment, nil
}
