// SPDX-License-Identifier: MIT

// Command pschema decodes and encodes binary payloads against a YAML
// schema descriptor, exercising the descriptor loader end to end.
package main

import (
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/badsaarow/binary-parser/pschema"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}
	var err error
	switch os.Args[1] {
	case "decode":
		err = runDecode(logger, os.Args[2:])
	case "encode":
		err = runEncode(logger, os.Args[2:])
	default:
		usage()
		os.Exit(2)
	}
	if err != nil {
		logger.Error("pschema failed", "error", err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "usage: pschema decode --schema <file.yaml> [--format hex|base64] <data>")
	fmt.Fprintln(os.Stderr, "       pschema encode --schema <file.yaml> <json-record>")
}

func loadSchema(logger *slog.Logger, path string) (*pschema.Schema, error) {
	start := time.Now()
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading schema %q: %w", path, err)
	}
	s, err := pschema.LoadDescriptor(data)
	if err != nil {
		return nil, fmt.Errorf("loading schema %q: %w", path, err)
	}
	logger.Debug("schema loaded", "path", path, "elapsed", time.Since(start))
	return s, nil
}

func runDecode(logger *slog.Logger, args []string) error {
	fs := flag.NewFlagSet("decode", flag.ExitOnError)
	schemaPath := fs.String("schema", "", "path to a YAML schema descriptor")
	format := fs.String("format", "hex", "input data format: hex or base64")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *schemaPath == "" || fs.NArg() != 1 {
		usage()
		return fmt.Errorf("decode requires --schema and exactly one data argument")
	}

	s, err := loadSchema(logger, *schemaPath)
	if err != nil {
		return err
	}

	var buf []byte
	switch *format {
	case "hex":
		buf, err = hex.DecodeString(fs.Arg(0))
	case "base64":
		buf, err = base64.StdEncoding.DecodeString(fs.Arg(0))
	default:
		return fmt.Errorf("unknown --format %q, want hex or base64", *format)
	}
	if err != nil {
		return fmt.Errorf("decoding input data: %w", err)
	}

	start := time.Now()
	record, err := s.Parse(buf)
	if err != nil {
		return fmt.Errorf("parse: %w", err)
	}
	logger.Debug("decode finished", "elapsed", time.Since(start), "bytes", len(buf))

	out, err := json.MarshalIndent(record, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling record: %w", err)
	}
	fmt.Println(string(out))
	return nil
}

func runEncode(logger *slog.Logger, args []string) error {
	fs := flag.NewFlagSet("encode", flag.ExitOnError)
	schemaPath := fs.String("schema", "", "path to a YAML schema descriptor")
	format := fs.String("format", "hex", "output data format: hex or base64")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *schemaPath == "" || fs.NArg() != 1 {
		usage()
		return fmt.Errorf("encode requires --schema and exactly one JSON record argument")
	}

	s, err := loadSchema(logger, *schemaPath)
	if err != nil {
		return err
	}

	var record pschema.Record
	if err := json.Unmarshal([]byte(fs.Arg(0)), &record); err != nil {
		return fmt.Errorf("parsing JSON record: %w", err)
	}

	start := time.Now()
	buf, err := s.Encode(record)
	if err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	logger.Debug("encode finished", "elapsed", time.Since(start), "bytes", len(buf))

	switch *format {
	case "hex":
		fmt.Println(hex.EncodeToString(buf))
	case "base64":
		fmt.Println(base64.StdEncoding.EncodeToString(buf))
	default:
		return fmt.Errorf("unknown --format %q, want hex or base64", *format)
	}
	return nil
}
