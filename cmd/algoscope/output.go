package main

import (
	"encoding/json"
	"io"
	"strconv"
	"strings"

	"github.com/rendis/algoscope/pkg/schema"
)

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// parseSet turns repeated k=v flags into an input bag. Values parse as a
// number, then as true/false, else stay text.
func parseSet(pairs []string) (schema.InputBag, error) {
	bag := make(schema.InputBag, len(pairs))
	for _, pair := range pairs {
		key, raw, ok := strings.Cut(pair, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, schema.NewErrorf(schema.ErrCodeValidation, "--set %q: want name=value", pair)
		}
		bag[key] = parseValue(raw)
	}
	return bag, nil
}

func parseValue(raw string) schema.Value {
	if f, err := strconv.ParseFloat(strings.TrimSpace(raw), 64); err == nil {
		return schema.Number(f)
	}
	switch {
	case strings.EqualFold(raw, "true"):
		return schema.Bool(true)
	case strings.EqualFold(raw, "false"):
		return schema.Bool(false)
	}
	return schema.Text(raw)
}
