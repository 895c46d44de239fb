package printing

import (
	"context"
	"net/url"
	"path/filepath"
	"time"
)

// Engine names accepted in configuration
const (
	EngineChromium = "chromium"
	EngineMSHTML   = "mshtml"
)

// EngineJob describes a rendered bill waiting to be printed
type EngineJob struct {
	// File is the absolute path of the HTML document on disk
	File string
	// Printer is the resolved target queue
	Printer string
	// Explicit is true when the caller picked Printer instead of the OS default
	Explicit bool
	// Timeout overrides the engine default when positive
	Timeout time.Duration
}

// FileURL returns the file:// URL for the job document
func (j EngineJob) FileURL() string {
	u := url.URL{Scheme: "file", Path: filepath.ToSlash(j.File)}
	if len(u.Path) > 0 && u.Path[0] != '/' {
		// Windows drive paths need a leading slash: file:///C:/...
		u.Path = "/" + u.Path
	}
	return u.String()
}

// RenderEngine prints an HTML document through a layout engine with no
// dialog shown to the user
type RenderEngine interface {
	// Name identifies the engine in logs and results
	Name() string
	// Print lays out the document and submits it to the printer. Failures are
	// *printing.PrintError values of kind EngineUnavailable, EngineTimeout or
	// SpoolRejected.
	Print(ctx context.Context, job EngineJob) error
	// Close releases any resources held by the engine
	Close() error
}
