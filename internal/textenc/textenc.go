// Package textenc reads and writes the UTF-16 files the scrapers have always
// produced, while still accepting plain UTF-8 input.
package textenc

import (
	"fmt"
	"io"
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// Encoding names accepted in configuration
const (
	UTF8  = "utf-8"
	UTF16 = "utf-16"
)

// NewReader decodes r to UTF-8. A UTF-16 (either endianness) or UTF-8 byte order
// mark selects the decoder; without one the input is treated as UTF-8.
func NewReader(r io.Reader) io.Reader {
	return transform.NewReader(r, unicode.BOMOverride(unicode.UTF8.NewDecoder()))
}

// NewWriter encodes UTF-8 writes to the named encoding. utf-16 writes a
// little-endian byte order mark first. Close flushes pending bytes but leaves w open.
func NewWriter(w io.Writer, name string) (io.WriteCloser, error) {
	enc, err := lookup(name)
	if err != nil {
		return nil, err
	}
	return transform.NewWriter(w, enc.NewEncoder()), nil
}

func lookup(name string) (encoding.Encoding, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case UTF16, "utf16":
		return unicode.UTF16(unicode.LittleEndian, unicode.UseBOM), nil
	case UTF8, "utf8", "":
		return unicode.UTF8, nil
	default:
		return nil, fmt.Errorf("unsupported text encoding %q", name)
	}
}
