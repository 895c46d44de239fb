package printing

import (
	"fmt"
	"strings"

	"golang.org/x/text/encoding/charmap"
)

// codePages maps the accepted raw_codepage names to their encodings. Keys
// are lower case with separators removed.
var codePages = map[string]*charmap.Charmap{
	"ibm437":      charmap.CodePage437,
	"cp437":       charmap.CodePage437,
	"ibm850":      charmap.CodePage850,
	"cp850":       charmap.CodePage850,
	"ibm852":      charmap.CodePage852,
	"cp852":       charmap.CodePage852,
	"ibm858":      charmap.CodePage858,
	"cp858":       charmap.CodePage858,
	"ibm866":      charmap.CodePage866,
	"cp866":       charmap.CodePage866,
	"windows1250": charmap.Windows1250,
	"windows1251": charmap.Windows1251,
	"windows1252": charmap.Windows1252,
	"iso88591":    charmap.ISO8859_1,
	"iso885915":   charmap.ISO8859_15,
}

// TextEncoder turns spooled text into printer bytes
type TextEncoder struct {
	name    string
	charmap *charmap.Charmap
}

// NewTextEncoder returns an encoder for the named code page. An empty name
// or "utf-8" passes the text through unchanged.
func NewTextEncoder(name string) (*TextEncoder, error) {
	key := normalizeCodePage(name)
	if key == "" || key == "utf8" {
		return &TextEncoder{name: "UTF-8"}, nil
	}

	cm, ok := codePages[key]
	if !ok {
		return nil, fmt.Errorf("unsupported code page %q", name)
	}

	return &TextEncoder{name: cm.String(), charmap: cm}, nil
}

// Name returns the code page name
func (e *TextEncoder) Name() string {
	return e.name
}

// Encode converts text to bytes. Runes the code page lacks become '?'.
func (e *TextEncoder) Encode(text string) []byte {
	if e.charmap == nil {
		return []byte(text)
	}

	out := make([]byte, 0, len(text))
	for _, r := range text {
		b, ok := e.charmap.EncodeRune(r)
		if !ok {
			b = '?'
		}
		out = append(out, b)
	}
	return out
}

func normalizeCodePage(name string) string {
	return strings.NewReplacer("-", "", "_", "", " ", "").Replace(strings.ToLower(strings.TrimSpace(name)))
}
