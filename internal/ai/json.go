package ai

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"

	"google.golang.org/genai"

	"finstress/internal/core"
)

// cleanModelJSON strips Markdown fences and any prose around the outermost
// JSON object or array.
func cleanModelJSON(raw string) string {
	s := strings.TrimSpace(raw)

	if strings.HasPrefix(s, "```") {
		idx := strings.Index(s, "\n")
		if idx == -1 {
			return s
		}
		s = strings.TrimSpace(s[idx+1:])
	}
	if idx := strings.LastIndex(s, "```"); idx != -1 {
		s = strings.TrimSpace(s[:idx])
	}

	start := strings.IndexAny(s, "{[")
	if start == -1 {
		return s
	}
	closer := byte('}')
	if s[start] == '[' {
		closer = ']'
	}
	if end := strings.LastIndexByte(s, closer); end > start {
		s = s[start : end+1]
	}
	return strings.TrimSpace(s)
}

// DecodeStrict unmarshals raw into v, rejecting unknown fields and trailing
// data. Every failure wraps core.ErrGeneration since the input came from the
// model, not the caller.
func DecodeStrict(raw []byte, v any) error {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("decode model output: %v: %w", err, core.ErrGeneration)
	}
	if _, err := dec.Token(); err != io.EOF {
		return fmt.Errorf("decode model output: trailing data: %w", core.ErrGeneration)
	}
	return nil
}

// DecodeSchema checks raw against schema before decoding it into v. Only the
// JSON kinds matter here: a number field must hold a JSON number, not a quoted
// one, and required properties must be present and non-null.
func DecodeSchema(raw []byte, schema *genai.Schema, v any) error {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var doc any
	if err := dec.Decode(&doc); err != nil {
		return fmt.Errorf("decode model output: %v: %w", err, core.ErrGeneration)
	}
	if err := checkSchema("$", doc, schema); err != nil {
		return fmt.Errorf("decode model output: %v: %w", err, core.ErrGeneration)
	}
	return DecodeStrict(raw, v)
}

func checkSchema(path string, value any, schema *genai.Schema) error {
	if schema == nil {
		return nil
	}
	switch schema.Type {
	case genai.TypeNumber, genai.TypeInteger:
		if _, ok := value.(json.Number); !ok {
			return fmt.Errorf("%s: want number, got %s", path, kindOf(value))
		}
	case genai.TypeString:
		if _, ok := value.(string); !ok {
			return fmt.Errorf("%s: want string, got %s", path, kindOf(value))
		}
	case genai.TypeBoolean:
		if _, ok := value.(bool); !ok {
			return fmt.Errorf("%s: want boolean, got %s", path, kindOf(value))
		}
	case genai.TypeArray:
		items, ok := value.([]any)
		if !ok {
			return fmt.Errorf("%s: want array, got %s", path, kindOf(value))
		}
		for i, item := range items {
			if err := checkSchema(fmt.Sprintf("%s[%d]", path, i), item, schema.Items); err != nil {
				return err
			}
		}
	case genai.TypeObject:
		obj, ok := value.(map[string]any)
		if !ok {
			return fmt.Errorf("%s: want object, got %s", path, kindOf(value))
		}
		for _, name := range schema.Required {
			if field, ok := obj[name]; !ok || field == nil {
				return fmt.Errorf("%s.%s: required", path, name)
			}
		}
		keys := make([]string, 0, len(obj))
		for k := range obj {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			prop, known := schema.Properties[k]
			if !known {
				return fmt.Errorf("%s.%s: unknown field", path, k)
			}
			if obj[k] == nil {
				continue
			}
			if err := checkSchema(path+"."+k, obj[k], prop); err != nil {
				return err
			}
		}
	}
	return nil
}

func kindOf(value any) string {
	switch value.(type) {
	case nil:
		return "null"
	case json.Number:
		return "number"
	case string:
		return "string"
	case bool:
		return "boolean"
	case []any:
		return "array"
	case map[string]any:
		return "object"
	}
	return fmt.Sprintf("%T", value)
}
