// uevent-parse reads a raw uevent from a file or stdin and prints it in
// normalized form.
package main

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/mniyk/uevent-monitoring-tools/internal/config"
	"github.com/mniyk/uevent-monitoring-tools/internal/logging"
	"github.com/mniyk/uevent-monitoring-tools/internal/uevent"
)

var errIncomplete = errors.New("uevent is missing ACTION, DEVPATH or SUBSYSTEM")

type options struct {
	attributesOnly bool
	trace          bool
	nul            bool
	asJSON         bool
	require        bool
}

func main() {
	var opts options
	flag.BoolVar(&opts.attributesOnly, "attributes-only", false, "Input has no ACTION@DEVPATH header line")
	flag.BoolVar(&opts.trace, "trace", false, "Log every parsed line")
	flag.BoolVar(&opts.nul, "nul", false, "Separate output lines with NUL instead of newline")
	flag.BoolVar(&opts.asJSON, "json", false, "Print the attributes as a JSON object")
	flag.BoolVar(&opts.require, "require", false, "Fail unless ACTION, DEVPATH and SUBSYSTEM are present")
	flag.Parse()

	input := io.Reader(os.Stdin)
	if flag.NArg() > 0 {
		f, err := os.Open(flag.Arg(0))
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		defer f.Close()
		input = f
	}

	if err := run(input, os.Stdout, opts); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(in io.Reader, out io.Writer, opts options) error {
	level := "info"
	if opts.trace {
		level = "debug"
	}
	log, err := logging.New(config.LoggingConfig{Level: level, Development: true})
	if err != nil {
		return err
	}

	raw, err := io.ReadAll(in)
	if err != nil {
		return fmt.Errorf("reading uevent: %w", err)
	}

	record, err := uevent.FromBytes(raw, opts.attributesOnly, opts.trace, log)
	if err != nil {
		return err
	}

	if opts.require && !record.HasRequiredAttributes() {
		return errIncomplete
	}

	if opts.asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(record.Attributes())
	}

	separator := byte('\n')
	if opts.nul {
		separator = 0
	}

	s, err := record.String(separator)
	if err != nil {
		return err
	}

	_, err = io.WriteString(out, s)
	return err
}
