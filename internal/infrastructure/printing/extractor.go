package printing

import (
	"regexp"
	"strings"
)

const (
	defaultPaddingLines   = 4
	defaultSeparatorWidth = 40
	formFeed              = "\f"
)

// extractionRule rewrites every match of pattern with replacement
type extractionRule struct {
	pattern     *regexp.Regexp
	replacement string
}

// blockRemovalRules drop content that must never reach paper
var blockRemovalRules = []extractionRule{
	{regexp.MustCompile(`(?is)<script\b[^>]*>.*?</script\s*>`), ""},
	{regexp.MustCompile(`(?is)<style\b[^>]*>.*?</style\s*>`), ""},
	{regexp.MustCompile(`(?s)<!--.*?-->`), ""},
}

// unterminatedBlockRules remove an opener without a closer together with
// everything after it
var unterminatedBlockRules = []extractionRule{
	{regexp.MustCompile(`(?is)<script\b.*$`), ""},
	{regexp.MustCompile(`(?is)<style\b.*$`), ""},
	{regexp.MustCompile(`(?s)<!--.*$`), ""},
}

var (
	prePattern       = regexp.MustCompile(`(?is)<pre\b[^>]*>(.*?)</pre\s*>`)
	bodyPattern      = regexp.MustCompile(`(?is)<body\b[^>]*>(.*?)</body\s*>`)
	bodyOpenPattern  = regexp.MustCompile(`(?is)<body\b[^>]*>`)
	multiSpace       = regexp.MustCompile(` {2,}`)
	danglingBlockTag = regexp.MustCompile(`(?i)<(script|style)`)
)

// structureRules translate layout tags into plain text layout. The hr
// replacement is filled in per extractor because its width is configurable.
var structureRules = []extractionRule{
	{regexp.MustCompile(`(?i)</(p|div|tr|h[1-6]|li|table|thead|tbody|tfoot)\s*>`), "\n"},
	{regexp.MustCompile(`(?i)<br\b[^>]*>`), "\n"},
	{regexp.MustCompile(`(?i)</t[dh]\s*>`), "  "},
}

var hrPattern = regexp.MustCompile(`(?i)<hr\b[^>]*>`)

// entityTable is the fixed decoding table. strings.Replacer scans left to
// right without re-scanning output, so "&amp;lt;" decodes to "&lt;".
var entityTable = []string{
	"&nbsp;", " ",
	"&#160;", " ",
	"\u00a0", " ",
	"&amp;", "&",
	"&lt;", "<",
	"&gt;", ">",
	"&quot;", `"`,
	"&#39;", "'",
	"&apos;", "'",
	"₹", "Rs.",
	"&#8377;", "Rs.",
	"&#x20B9;", "Rs.",
	"&#x20b9;", "Rs.",
	"×", "x",
	"&times;", "x",
	"&#215;", "x",
}

var entityReplacer = strings.NewReplacer(entityTable...)

// ExtractorOptions controls the layout of extracted text
type ExtractorOptions struct {
	// PaddingLines is the number of newlines appended so the printer ejects the receipt
	PaddingLines int
	// FormFeed appends a form feed after the padding lines
	FormFeed bool
	// SeparatorWidth is the number of dashes an <hr> becomes
	SeparatorWidth int
}

// DefaultExtractorOptions returns padding tuned for dot-matrix receipt printers
func DefaultExtractorOptions() ExtractorOptions {
	return ExtractorOptions{
		PaddingLines:   defaultPaddingLines,
		FormFeed:       true,
		SeparatorWidth: defaultSeparatorWidth,
	}
}

// Extractor converts an HTML bill into printable plain text
type Extractor struct {
	padding   string
	separator string
}

// NewExtractor creates an Extractor. The padding suffix is never empty: with
// no lines and no form feed a single newline is used.
func NewExtractor(opts ExtractorOptions) *Extractor {
	if opts.SeparatorWidth <= 0 {
		opts.SeparatorWidth = defaultSeparatorWidth
	}
	if opts.PaddingLines < 0 {
		opts.PaddingLines = 0
	}
	if opts.PaddingLines == 0 && !opts.FormFeed {
		opts.PaddingLines = 1
	}

	padding := strings.Repeat("\n", opts.PaddingLines)
	if opts.FormFeed {
		padding += formFeed
	}

	return &Extractor{
		padding:   padding,
		separator: "\n" + strings.Repeat("-", opts.SeparatorWidth) + "\n",
	}
}

var defaultExtractor = NewExtractor(DefaultExtractorOptions())

// Extract converts markup to plain text using the default options
func Extract(markup string) string {
	return defaultExtractor.Extract(markup)
}

// Padding returns the suffix appended to every extraction
func (e *Extractor) Padding() string {
	return e.padding
}

// Extract converts markup to plain text. It never fails: malformed markup
// yields best-effort text, and empty input yields the padding alone.
func (e *Extractor) Extract(markup string) string {
	doc := removeBlocks(markup)

	// Dot-matrix templates put the whole receipt in a <pre> block. The body
	// is trimmed before decoding, so a heading indented with &nbsp; keeps
	// its indentation.
	if m := prePattern.FindStringSubmatch(doc); m != nil {
		return e.finish(decodeEntities(strings.TrimSpace(normalizeNewlines(m[1]))))
	}

	doc = narrowToBody(doc)

	doc = applyRules(doc, structureRules)
	doc = hrPattern.ReplaceAllLiteralString(doc, e.separator)

	doc = stripTags(doc)
	doc = decodeEntities(doc)

	return e.finish(normalizeWhitespace(doc))
}

func (e *Extractor) finish(text string) string {
	text = danglingBlockTag.ReplaceAllLiteralString(text, "")
	return text + e.padding
}

// removeBlocks applies the terminated removal rules until the document stops
// changing, so fragments rejoined by a removal cannot form a new script or
// style tag. Only then are unterminated openers cut off.
func removeBlocks(doc string) string {
	for {
		before := doc
		doc = applyRules(doc, blockRemovalRules)
		if doc == before {
			break
		}
	}
	return applyRules(doc, unterminatedBlockRules)
}

func applyRules(doc string, rules []extractionRule) string {
	for _, rule := range rules {
		doc = rule.pattern.ReplaceAllLiteralString(doc, rule.replacement)
	}
	return doc
}

func narrowToBody(doc string) string {
	if m := bodyPattern.FindStringSubmatch(doc); m != nil {
		return m[1]
	}
	if loc := bodyOpenPattern.FindStringIndex(doc); loc != nil {
		return doc[loc[1]:]
	}
	return doc
}

// stripTags removes every "<" through the next ">". A "<" with no closing
// ">" truncates the text.
func stripTags(doc string) string {
	var b strings.Builder
	b.Grow(len(doc))

	for {
		open := strings.IndexByte(doc, '<')
		if open < 0 {
			b.WriteString(doc)
			break
		}
		b.WriteString(doc[:open])

		end := strings.IndexByte(doc[open:], '>')
		if end < 0 {
			break
		}
		doc = doc[open+end+1:]
	}

	return b.String()
}

func decodeEntities(s string) string {
	return entityReplacer.Replace(s)
}

func normalizeNewlines(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	return strings.ReplaceAll(s, "\r", "\n")
}

// normalizeWhitespace trims lines, keeps two-space column gaps, drops stray
// CSS and collapses blank runs to a single blank line.
func normalizeWhitespace(s string) string {
	s = normalizeNewlines(s)
	s = strings.ReplaceAll(s, "\t", " ")

	lines := strings.Split(s, "\n")
	out := make([]string, 0, len(lines))
	blank := 0

	for _, line := range lines {
		line = strings.TrimSpace(line)
		line = multiSpace.ReplaceAllLiteralString(line, "  ")

		if looksLikeCSS(line) {
			continue
		}

		if line == "" {
			blank++
			if blank > 1 {
				continue
			}
		} else {
			blank = 0
		}
		out = append(out, line)
	}

	return strings.Trim(strings.Join(out, "\n"), "\n")
}

func looksLikeCSS(line string) bool {
	return strings.ContainsAny(line, "{}") || strings.HasPrefix(line, "@")
}
