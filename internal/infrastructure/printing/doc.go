// Package printing provides the OS-facing side of silent receipt printing.
//
// This package contains:
// - Extractor, which turns an HTML bill into padded plain text for dot-matrix printers
// - PrinterDirectory implementations over PowerShell (Win32_Printer) and winspool
// - RawSpooler implementations over Out-Printer and winspool RAW documents
// - RenderEngine implementations over Edge/Chrome (chromedp) and the IE COM object
// - JobFile, the fixed temp file handed to render engines
//
// Every failure is a *printing.PrintError from the domain package, so callers
// can branch on the kind without matching error text.
//
// Example usage:
//
//	backend, err := NewBackend(BackendOptions{Engine: EngineChromium}, nil)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	name, err := backend.Directory.DefaultPrinter(ctx)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	err = backend.Spooler.Send(ctx, Extract(markup), name)
package printing
