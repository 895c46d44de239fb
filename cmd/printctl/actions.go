package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	printingapp "github.com/Mugunth140/medical-billing/internal/application/printing"
	"github.com/urfave/cli/v2"
)

// exitNoPrinter is the status check returns when no default printer exists
const exitNoPrinter = 2

// runner carries the service factory and the streams the actions use
type runner struct {
	open func(c *cli.Context) (*printingapp.PrintService, func(), error)
	out  io.Writer
	in   io.Reader
}

func (r *runner) withService(c *cli.Context, fn func(*printingapp.PrintService) error) error {
	service, cleanup, err := r.open(c)
	if err != nil {
		return err
	}
	defer cleanup()
	return fn(service)
}

func (r *runner) printersAction(c *cli.Context) error {
	return r.withService(c, func(s *printingapp.PrintService) error {
		printers, err := s.ListPrinters(c.Context)
		if err != nil {
			return err
		}
		if len(printers) == 0 {
			fmt.Fprintln(r.out, "No printers installed")
			return nil
		}
		for _, p := range printers {
			var marks []string
			if p.IsDefault {
				marks = append(marks, "default")
			}
			if p.IsVirtual {
				marks = append(marks, "virtual")
			}
			if len(marks) == 0 {
				fmt.Fprintln(r.out, p.Name)
				continue
			}
			fmt.Fprintf(r.out, "%s (%s)\n", p.Name, strings.Join(marks, ", "))
		}
		return nil
	})
}

func (r *runner) defaultAction(c *cli.Context) error {
	return r.withService(c, func(s *printingapp.PrintService) error {
		name, err := s.GetDefaultPrinter(c.Context)
		if err != nil {
			return err
		}
		fmt.Fprintln(r.out, name)
		return nil
	})
}

func (r *runner) checkAction(c *cli.Context) error {
	return r.withService(c, func(s *printingapp.PrintService) error {
		available, err := s.CheckPrinterAvailable(c.Context)
		if err != nil {
			return err
		}
		if !available {
			return cli.Exit("no default printer", exitNoPrinter)
		}
		fmt.Fprintln(r.out, "default printer available")
		return nil
	})
}

func (r *runner) printAction(c *cli.Context) error {
	markup, err := r.readInput(c, false)
	if err != nil {
		return err
	}
	return r.withService(c, func(s *printingapp.PrintService) error {
		message, err := s.PrintMarkup(c.Context, markup, printerFlag(c))
		if err != nil {
			return err
		}
		fmt.Fprintln(r.out, message)
		return nil
	})
}

func (r *runner) rawAction(c *cli.Context) error {
	text, err := r.readInput(c, true)
	if err != nil {
		return err
	}
	return r.withService(c, func(s *printingapp.PrintService) error {
		message, err := s.PrintRawText(c.Context, text, printerFlag(c))
		if err != nil {
			return err
		}
		fmt.Fprintln(r.out, message)
		return nil
	})
}

func (r *runner) testAction(c *cli.Context) error {
	return r.withService(c, func(s *printingapp.PrintService) error {
		message, err := s.PrintTestPage(c.Context, printerFlag(c))
		if err != nil {
			return err
		}
		fmt.Fprintln(r.out, message)
		return nil
	})
}

// readInput reads the single file argument. "-" reads stdin when allowed.
func (r *runner) readInput(c *cli.Context, allowStdin bool) (string, error) {
	if c.NArg() != 1 {
		return "", cli.Exit(fmt.Sprintf("usage: printctl %s %s", c.Command.Name, c.Command.ArgsUsage), 1)
	}
	path := c.Args().First()

	var (
		data []byte
		err  error
	)
	if path == "-" && allowStdin {
		data, err = io.ReadAll(r.in)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", path, err)
	}
	if len(data) == 0 {
		return "", errors.New("input is empty")
	}
	return string(data), nil
}

func printerFlag(c *cli.Context) *string {
	if !c.IsSet("printer") {
		return nil
	}
	name := c.String("printer")
	return &name
}

