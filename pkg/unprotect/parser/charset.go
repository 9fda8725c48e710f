package parser

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/ianaindex"
	"golang.org/x/text/encoding/unicode"
)

var (
	utf8BOM    = []byte{0xEF, 0xBB, 0xBF}
	utf16LEBOM = []byte{0xFF, 0xFE}
	utf16BEBOM = []byte{0xFE, 0xFF}
)

// documentEncoding inspects the byte-order mark and XML declaration of data.
// It returns the bytes to transcode, a UTF-8 BOM to restore on output, and the
// encoding to transcode with, or nil when body is already UTF-8. UTF-16 bodies
// keep their BOM; the decoder consumes it and the encoder writes it back.
func documentEncoding(data []byte) (body, bom []byte, enc encoding.Encoding, err error) {
	switch {
	case bytes.HasPrefix(data, utf16LEBOM):
		return data, nil, unicode.UTF16(unicode.LittleEndian, unicode.ExpectBOM), nil
	case bytes.HasPrefix(data, utf16BEBOM):
		return data, nil, unicode.UTF16(unicode.BigEndian, unicode.ExpectBOM), nil
	}

	body, hasBOM := bytes.CutPrefix(data, utf8BOM)
	if hasBOM {
		bom = utf8BOM
	}
	enc, err = declaredEncoding(body)
	return body, bom, enc, err
}

// newDecoder returns a strict decoder over data that transcodes any declared
// non-UTF-8 charset.
func newDecoder(data []byte) *xml.Decoder {
	d := xml.NewDecoder(bytes.NewReader(data))
	d.CharsetReader = charsetReader
	return d
}

func charsetReader(label string, input io.Reader) (io.Reader, error) {
	enc, err := lookupEncoding(label)
	if err != nil {
		return nil, err
	}
	return enc.NewDecoder().Reader(input), nil
}

// passthroughCharset accepts any declared charset without transcoding. It is
// used on input that has already been converted to UTF-8.
func passthroughCharset(_ string, input io.Reader) (io.Reader, error) {
	return input, nil
}

func lookupEncoding(label string) (encoding.Encoding, error) {
	enc, err := ianaindex.IANA.Encoding(label)
	if err != nil {
		return nil, fmt.Errorf("unknown encoding %q: %w", label, err)
	}
	if enc == nil {
		return nil, fmt.Errorf("unsupported encoding %q", label)
	}
	return enc, nil
}

// declaredEncoding returns the encoding named by the XML declaration of data,
// or nil when the document is UTF-8.
func declaredEncoding(data []byte) (encoding.Encoding, error) {
	d := xml.NewDecoder(bytes.NewReader(data))
	d.CharsetReader = passthroughCharset
	tok, err := d.RawToken()
	if err != nil {
		// Let the full parse report the syntax error.
		return nil, nil
	}
	pi, ok := tok.(xml.ProcInst)
	if !ok || pi.Target != "xml" {
		return nil, nil
	}

	label := procInstParam(string(pi.Inst), "encoding")
	switch strings.ToLower(label) {
	case "", "utf-8", "utf8":
		return nil, nil
	case "utf-16", "utf-16le", "utf-16be":
		// Readable without a UTF-16 BOM, so the bytes are not really UTF-16.
		return nil, nil
	}
	return lookupEncoding(label)
}

// procInstParam extracts a pseudo-attribute such as encoding="..." from the
// body of a processing instruction.
func procInstParam(s, param string) string {
	for {
		idx := strings.Index(s, param)
		if idx < 0 {
			return ""
		}
		s = strings.TrimLeft(s[idx+len(param):], " \t\r\n")
		if !strings.HasPrefix(s, "=") {
			continue
		}
		s = strings.TrimLeft(s[1:], " \t\r\n")
		if s == "" || (s[0] != '\'' && s[0] != '"') {
			return ""
		}
		quote := s[0]
		end := strings.IndexByte(s[1:], quote)
		if end < 0 {
			return ""
		}
		return s[1 : end+1]
	}
}
