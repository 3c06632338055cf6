// Package extract turns free-form automation and LLM output into a typed
// Record. The first '{' through the last '}' of the textual form is parsed
// as a JSON object; everything around it is ignored.
package extract

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/tidwall/gjson"
)

var (
	// ErrNoJSON means the output contains no brace delimited object.
	ErrNoJSON = errors.New("no json object in output")
	// ErrMalformed means a candidate object was found but does not parse.
	ErrMalformed = errors.New("malformed json object in output")
)

// FinalResulter is implemented by agent histories that expose a final answer.
type FinalResulter interface {
	FinalResult() string
}

// OutputLister is implemented by agent histories that expose every step's
// extracted content in order.
type OutputLister interface {
	Outputs() []string
}

const previewLen = 120

// Extract reduces raw to text and parses the embedded JSON object. It never
// panics.
func Extract(raw any) (rec Record, err error) {
	defer func() {
		if r := recover(); r != nil {
			rec = Record{}
			err = fmt.Errorf("%w: reducing output panicked: %v", ErrMalformed, r)
		}
	}()

	text, err := Text(raw)
	if err != nil {
		return Record{}, err
	}
	return Parse(text)
}

// Parse extracts the object embedded in text.
func Parse(text string) (Record, error) {
	start := strings.IndexByte(text, '{')
	end := strings.LastIndexByte(text, '}')
	if start < 0 || end <= start {
		return Record{}, fmt.Errorf("%w: %q", ErrNoJSON, preview(text))
	}

	candidate := text[start : end+1]
	if !gjson.Valid(candidate) {
		return Record{}, fmt.Errorf("%w: %q", ErrMalformed, preview(candidate))
	}
	root := gjson.Parse(candidate)
	if !root.IsObject() {
		return Record{}, fmt.Errorf("%w: not an object", ErrMalformed)
	}
	return newRecord(root), nil
}

// Text reduces an automation result to a string: the final result when one
// exists, then the last non-empty step output, then its string form.
func Text(raw any) (string, error) {
	switch v := raw.(type) {
	case nil:
		return "", fmt.Errorf("%w: empty output", ErrNoJSON)
	case string:
		return v, nil
	case []byte:
		return string(v), nil
	case map[string]any:
		b, err := json.Marshal(v)
		if err != nil {
			return "", fmt.Errorf("%w: %v", ErrMalformed, err)
		}
		return string(b), nil
	}

	if fr, ok := raw.(FinalResulter); ok {
		if s := fr.FinalResult(); strings.TrimSpace(s) != "" {
			return s, nil
		}
	}
	if ol, ok := raw.(OutputLister); ok {
		outputs := ol.Outputs()
		for i := len(outputs) - 1; i >= 0; i-- {
			if strings.TrimSpace(outputs[i]) != "" {
				return outputs[i], nil
			}
		}
	}
	if s, ok := raw.(fmt.Stringer); ok {
		return s.String(), nil
	}
	return fmt.Sprint(raw), nil
}

func preview(s string) string {
	if len(s) <= previewLen {
		return s
	}
	cut := previewLen
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "..."
}
