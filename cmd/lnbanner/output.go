package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"
)

// Output formats shared by the listing commands.
const (
	formatText = "text"
	formatJSON = "json"
	formatYAML = "yaml"
)

// writeFormatted writes v in the requested format. Text output is produced
// by text, which receives the writer.
func writeFormatted(w io.Writer, format string, v any, text func(io.Writer) error) error {
	switch strings.ToLower(format) {
	case "", formatText:
		return text(w)
	case formatJSON:
		encoder := json.NewEncoder(w)
		encoder.SetIndent("", "  ")
		return encoder.Encode(v)
	case formatYAML:
		encoder := yaml.NewEncoder(w)
		encoder.SetIndent(2)
		if err := encoder.Encode(v); err != nil {
			return err
		}
		return encoder.Close()
	default:
		return fmt.Errorf("unknown format %q", format)
	}
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
