package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/HackerOS-Linux-System/hammer/internal/herr"
)

// reportResult maps the outcome of a mutating engine call to the CLI
// contract: herr.NoopError is a non-error user message on
// stdout with exit 0; any other error propagates to main's "Error: "
// line and exit 1; nil prints msg (if non-empty) and returns nil.
// output takes an io.Writer rather than hardcoding os.Stdout so tests
// can capture it.
func reportResult(output io.Writer, err error, msg string) error {
	var noop *herr.NoopError
	if errors.As(err, &noop) {
		fmt.Fprintln(output, noop.Reason)
		return nil
	}
	if err != nil {
		return err
	}
	if msg != "" {
		fmt.Fprintln(output, msg)
	}
	return nil
}

func printJSON(output io.Writer, v interface{}) error {
	enc := json.NewEncoder(output)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
