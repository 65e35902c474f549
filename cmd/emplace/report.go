package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	json "github.com/goccy/go-json"
	"github.com/vmihailenco/msgpack/v5"
)

const (
	formatText    = "text"
	formatJSON    = "json"
	formatMsgpack = "msgpack"
)

var (
	labelColor = color.New(color.FgCyan, color.Bold)
	valueColor = color.New(color.FgGreen)
	warnColor  = color.New(color.FgYellow, color.Bold)
)

func checkFormat(f string) (string, error) {
	f = strings.ToLower(f)
	switch f {
	case formatText, formatJSON, formatMsgpack:
		return f, nil
	default:
		return "", fmt.Errorf("unsupported format %q (must be text, json or msgpack)", f)
	}
}

// encode writes v in one of the machine formats.
func encode(w io.Writer, format string, v any) error {
	switch format {
	case formatJSON:
		data, err := json.MarshalIndent(v, "", "  ")
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(w, string(data))
		return err
	case formatMsgpack:
		data, err := msgpack.Marshal(v)
		if err != nil {
			return err
		}
		_, err = w.Write(data)
		return err
	default:
		return fmt.Errorf("format %q is not a machine format", format)
	}
}

func field(w io.Writer, label string, format string, args ...any) {
	labelColor.Fprintf(w, "%-12s", label)
	valueColor.Fprintf(w, format, args...)
	fmt.Fprintln(w)
}
