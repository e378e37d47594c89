package encoding

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"unicode/utf8"

	"github.com/saintfish/chardet"
	xenc "golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

const sniffSize = 4096

// Charset names reported by Detect.
const (
	CharsetUTF8        = "UTF-8"
	CharsetUTF16LE     = "UTF-16LE"
	CharsetUTF16BE     = "UTF-16BE"
	CharsetWindows1252 = "windows-1252"
	CharsetISO88599    = "ISO-8859-9"
)

var boms = []struct {
	prefix  []byte
	charset string
}{
	{[]byte{0xEF, 0xBB, 0xBF}, CharsetUTF8},
	{[]byte{0xFF, 0xFE}, CharsetUTF16LE},
	{[]byte{0xFE, 0xFF}, CharsetUTF16BE},
}

// Detect guesses the charset of an inventory file from its first bytes and reports the
// length of any byte order mark. Unknown content falls back to Windows-1252, which is what
// spreadsheet exports on most front-desk machines produce.
func Detect(sample []byte) (charset string, bomLen int) {
	return detect(sample, false)
}

// detect treats a truncated sample as a prefix of a longer stream, so a rune split at its
// end does not count as invalid UTF-8.
func detect(sample []byte, truncated bool) (string, int) {
	for _, b := range boms {
		if bytes.HasPrefix(sample, b.prefix) {
			return b.charset, len(b.prefix)
		}
	}

	if truncated {
		sample = trimPartialRune(sample)
	}

	if utf8.Valid(sample) {
		return CharsetUTF8, 0
	}

	result, err := chardet.NewTextDetector().DetectBest(sample)
	if err == nil {
		switch result.Charset {
		case "UTF-8":
			return CharsetUTF8, 0
		case "ISO-8859-9":
			return CharsetISO88599, 0
		}
	}

	return CharsetWindows1252, 0
}

func trimPartialRune(b []byte) []byte {
	for i := len(b) - 1; i >= 0 && i >= len(b)-utf8.UTFMax; i-- {
		if !utf8.RuneStart(b[i]) {
			continue
		}

		if !utf8.FullRune(b[i:]) {
			return b[:i]
		}

		break
	}

	return b
}

func decoderFor(charset string) xenc.Encoding {
	switch charset {
	case CharsetUTF16LE:
		return unicode.UTF16(unicode.LittleEndian, unicode.UseBOM)
	case CharsetUTF16BE:
		return unicode.UTF16(unicode.BigEndian, unicode.UseBOM)
	case CharsetISO88599:
		return charmap.ISO8859_9
	case CharsetWindows1252:
		return charmap.Windows1252
	default:
		return nil
	}
}

// NewUTF8Reader wraps r so that reads always yield UTF-8, whatever the source charset.
// A UTF-8 byte order mark is stripped.
func NewUTF8Reader(r io.Reader) (io.Reader, error) {
	br := bufio.NewReaderSize(r, sniffSize)

	sample, err := br.Peek(sniffSize)
	if err != nil && err != io.EOF && err != bufio.ErrBufferFull {
		return nil, fmt.Errorf("peek: %w", err)
	}

	charset, bomLen := detect(sample, len(sample) == sniffSize)

	dec := decoderFor(charset)
	if dec == nil {
		_, _ = br.Discard(bomLen)
		return br, nil
	}

	// UTF-16 decoders consume their own BOM.
	return transform.NewReader(br, dec.NewDecoder()), nil
}
