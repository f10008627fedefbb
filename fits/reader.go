package fits

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/VanDung-dev/SpecTable-Engine/tree"
)

// Common errors for container opening.
var (
	ErrNotFound       = errors.New("container not found")
	ErrEmptyContainer = errors.New("container has no content")
	ErrNotFITS        = errors.New("not a FITS container")
)

// hdu is one parsed Header-Data Unit with the location of its payload.
type hdu struct {
	header     *Header
	name       string // EXTNAME, empty for the primary
	xtension   string // XTENSION, empty for the primary
	dataOffset int64
	dataSize   int64
}

// Open parses the container at path and returns its metadata tree. No
// table payload is read; binary tables appear in the tree as lazy
// references carrying only shape, schema and a byte locator. The file
// handle is opened, the headers extracted, and the handle closed before
// Open returns, on every exit path.
func Open(path string) (*tree.Tree, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve %s: %w", path, err)
	}
	if _, err := os.Stat(abs); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, abs)
		}
		return nil, fmt.Errorf("failed to stat %s: %w", abs, err)
	}

	f, err := os.Open(abs)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", abs, err)
	}
	defer f.Close()

	hdus, err := readHDUs(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", abs, err)
	}
	if len(hdus) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrEmptyContainer, abs)
	}

	t, err := buildTree(abs, hdus)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", abs, err)
	}
	if t.Len() == 0 {
		return nil, fmt.Errorf("%w: %s", ErrEmptyContainer, abs)
	}
	return t, nil
}

// readHDUs walks every HDU in the stream, recording payload locations
// and seeking past the padded payloads without reading them.
func readHDUs(f *os.File) ([]hdu, error) {
	var hdus []hdu
	var pos int64

	for {
		header, blocks, err := readHeader(f)
		if err == io.EOF {
			return hdus, nil
		}
		if err != nil {
			return nil, err
		}

		if len(hdus) == 0 {
			simple, ok := header.Bool("SIMPLE")
			if !ok || !simple {
				return nil, ErrNotFITS
			}
		} else if !header.Has("XTENSION") {
			return nil, fmt.Errorf("%w: extension header lacks XTENSION", ErrMalformedHeader)
		}

		pos += blocks * BlockSize
		size := dataSize(header)

		name, _ := header.Str("EXTNAME")
		xt, _ := header.Str("XTENSION")
		hdus = append(hdus, hdu{
			header:     header,
			name:       strings.TrimSpace(name),
			xtension:   strings.TrimSpace(xt),
			dataOffset: pos,
			dataSize:   size,
		})

		padded := paddedSize(size)
		if padded > 0 {
			if _, err := f.Seek(padded, io.SeekCurrent); err != nil {
				return nil, fmt.Errorf("failed to skip payload: %w", err)
			}
		}
		pos += padded
	}
}

// dataSize computes the payload byte count from the mandatory keywords:
// |BITPIX|/8 * GCOUNT * (PCOUNT + NAXIS1*...*NAXISn).
func dataSize(h *Header) int64 {
	naxis := h.IntOr("NAXIS", 0)
	if naxis == 0 {
		return 0
	}
	elems := int64(1)
	for i := int64(1); i <= naxis; i++ {
		n := h.IntOr("NAXIS"+strconv.FormatInt(i, 10), 0)
		if n == 0 {
			return 0
		}
		elems *= n
	}
	bitpix := h.IntOr("BITPIX", 8)
	if bitpix < 0 {
		bitpix = -bitpix
	}
	gcount := h.IntOr("GCOUNT", 1)
	pcount := h.IntOr("PCOUNT", 0)
	return bitpix / 8 * gcount * (pcount + elems)
}

// paddedSize rounds a payload size up to the block boundary.
func paddedSize(size int64) int64 {
	if size == 0 {
		return 0
	}
	return (size + BlockSize - 1) / BlockSize * BlockSize
}

// buildTree assembles the metadata tree. Named extensions are grouped
// under their lowercased EXTNAME, each as one mapping in a sequence so
// repeated extension names keep their order. A binary table entry also
// carries a lazy reference under "<extname>_table". The primary HDU
// contributes an entry only when it has a data payload.
func buildTree(path string, hdus []hdu) (*tree.Tree, error) {
	t := tree.New()
	for i, h := range hdus {
		if i == 0 && h.dataSize == 0 && h.name == "" {
			continue
		}

		key := strings.ToLower(h.name)
		if key == "" {
			if i == 0 {
				key = "primary"
			} else {
				key = fmt.Sprintf("hdu%d", i)
			}
		}

		entry := tree.New()
		for _, c := range h.header.Cards() {
			if !c.HasValue {
				continue
			}
			entry.Set(c.Keyword, cardValue(c))
		}

		if h.xtension == "BINTABLE" {
			ref, err := binTableRef(path, h)
			if err != nil {
				return nil, fmt.Errorf("extension %s: %w", key, err)
			}
			entry.Set(key+"_table", ref)
		}

		if err := t.Append(key, entry); err != nil {
			return nil, err
		}
	}
	return t, nil
}

// cardValue converts a card's raw value text to a typed tree scalar.
func cardValue(c Card) tree.Value {
	if c.IsString {
		return c.Value
	}
	switch c.Value {
	case "T":
		return true
	case "F":
		return false
	}
	if i, err := strconv.ParseInt(c.Value, 10, 64); err == nil {
		return i
	}
	if f, err := strconv.ParseFloat(c.Value, 64); err == nil {
		return f
	}
	return c.Value
}
