package printing

import (
	"bytes"
	"fmt"
	"strings"
	"text/template"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// testReceiptWidth is the column count of a 58mm roll at the default font
const testReceiptWidth = 32

// ReceiptLine is one item on a test receipt
type ReceiptLine struct {
	Name string
	Qty  int64
	Rate decimal.Decimal
}

// Amount returns Qty x Rate
func (l ReceiptLine) Amount() decimal.Decimal {
	return l.Rate.Mul(decimal.NewFromInt(l.Qty))
}

// TestReceipt is the data bound to the printer test page
type TestReceipt struct {
	Shop        string
	Printer     string
	GeneratedAt time.Time
	Lines       []ReceiptLine
}

// Total sums every line amount
func (r TestReceipt) Total() decimal.Decimal {
	total := decimal.Zero
	for _, l := range r.Lines {
		total = total.Add(l.Amount())
	}
	return total
}

// SampleTestReceipt returns the receipt printed by the "test page" action
func SampleTestReceipt(printer string, now time.Time) TestReceipt {
	return TestReceipt{
		Shop:        "medbill test page",
		Printer:     printer,
		GeneratedAt: now,
		Lines: []ReceiptLine{
			{Name: "Paracetamol 500mg", Qty: 10, Rate: decimal.RequireFromString("1.85")},
			{Name: "Amoxicillin 250mg capsules", Qty: 6, Rate: decimal.RequireFromString("7.40")},
			{Name: "ORS sachet", Qty: 2, Rate: decimal.RequireFromString("21.00")},
		},
	}
}

// Everything sits in one <pre> block so the raw text fallback prints the
// same columns the engine does. Every action ends in markup, which escapes
// only what the extractor decodes again.
const testReceiptTemplate = `<!DOCTYPE html>
<html><head><meta charset="utf-8"><title>MedBill test page</title>
<style>body{margin:0} pre{font-family:monospace;font-size:11px}</style>
</head><body><pre>
{{center (title .Shop) | markup | indent}}
{{center "PRINTER TEST" | markup}}
{{rule}}
Printer: {{truncate .Printer 23 | markup}}
Date:    {{.GeneratedAt.Format "02-01-2006 15:04"}}
{{rule}}
{{range .Lines}}{{truncate .Name 32 | markup}}
{{padLeft (printf "%d x %s" .Qty (money .Rate)) 20}}{{padLeft (money .Amount) 12}}
{{end}}{{rule}}
{{padRight "TOTAL" 20}}{{padLeft (money .Total) 12}}
{{rule}}
{{center "If you can read this," | markup}}
{{center "silent printing works." | markup}}
</pre></body></html>`

var testReceiptFuncs = template.FuncMap{
	"money":    formatRupees,
	"padLeft":  padLeft,
	"padRight": padRight,
	"truncate": truncate,
	"title":    cases.Title(language.English).String,
	"center":   func(s string) string { return center(s, testReceiptWidth) },
	"markup":   markupEscaper.Replace,
	"indent":   nbspIndent,
	"rule":     func() string { return strings.Repeat("-", testReceiptWidth) },
}

var testReceiptTmpl = template.Must(template.New("test-receipt").Funcs(testReceiptFuncs).Parse(testReceiptTemplate))

// RenderTestReceipt renders r as a complete HTML document
func RenderTestReceipt(r TestReceipt) (string, error) {
	var buf bytes.Buffer
	if err := testReceiptTmpl.Execute(&buf, r); err != nil {
		return "", fmt.Errorf("failed to render test receipt: %w", err)
	}
	return buf.String(), nil
}

// formatRupees renders d with two decimals and Indian digit grouping,
// e.g. 123456.5 -> "1,23,456.50"
func formatRupees(d decimal.Decimal) string {
	sign := ""
	if d.IsNegative() {
		sign = "-"
		d = d.Abs()
	}

	intPart, decPart, _ := strings.Cut(d.StringFixed(2), ".")

	// last three digits, then groups of two
	var groups []string
	if len(intPart) > 3 {
		head, tail := intPart[:len(intPart)-3], intPart[len(intPart)-3:]
		for len(head) > 2 {
			groups = append([]string{head[len(head)-2:]}, groups...)
			head = head[:len(head)-2]
		}
		groups = append([]string{head}, groups...)
		groups = append(groups, tail)
	} else {
		groups = []string{intPart}
	}

	return sign + strings.Join(groups, ",") + "." + decPart
}

// truncate shortens s to max runes, marking the cut with "~"
func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max || max <= 0 {
		return s
	}
	return string(runes[:max-1]) + "~"
}

func padLeft(s string, width int) string {
	n := len([]rune(s))
	if n >= width {
		return s
	}
	return strings.Repeat(" ", width-n) + s
}

func padRight(s string, width int) string {
	n := len([]rune(s))
	if n >= width {
		return s
	}
	return s + strings.Repeat(" ", width-n)
}

// markupEscaper escapes text for the page body using only entities the
// extractor decodes, so the raw fallback prints the original characters
var markupEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")

// nbspIndent turns leading spaces into &nbsp; so the indentation survives
// the trimming of a <pre> body
func nbspIndent(s string) string {
	body := strings.TrimLeft(s, " ")
	return strings.Repeat("&nbsp;", len(s)-len(body)) + body
}

func center(s string, width int) string {
	n := len([]rune(s))
	if n >= width {
		return s
	}
	return strings.Repeat(" ", (width-n)/2) + s
}
