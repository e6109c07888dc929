package ai

import (
	"errors"
	"testing"

	"google.golang.org/genai"

	"finstress/internal/core"
)

func TestCleanModelJSON(t *testing.T) {
	cases := map[string]string{
		`{"a":1}`:                          `{"a":1}`,
		"```json\n{\"a\":1}\n```":          `{"a":1}`,
		"```\n[1,2]\n```":                  `[1,2]`,
		"Sure! Here it is: {\"a\":1} Done": `{"a":1}`,
		"no json here":                     "no json here",
	}
	for in, want := range cases {
		if got := cleanModelJSON(in); got != want {
			t.Fatalf("cleanModelJSON(%q)=%q want %q", in, got, want)
		}
	}
}

func TestDecodeStrict(t *testing.T) {
	type item struct {
		Name string `json:"name"`
	}
	var v item
	if err := DecodeStrict([]byte(`{"name":"x"}`), &v); err != nil || v.Name != "x" {
		t.Fatalf("DecodeStrict = %v, %+v", err, v)
	}
	for _, raw := range []string{`{"name":"x","extra":1}`, `{"name":"x"} {}`, `not json`} {
		if err := DecodeStrict([]byte(raw), &v); !errors.Is(err, core.ErrGeneration) {
			t.Fatalf("DecodeStrict(%s) expected ErrGeneration, got %v", raw, err)
		}
	}
}

func TestDecodeSchema(t *testing.T) {
	schema := &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"name":  {Type: genai.TypeString},
			"price": {Type: genai.TypeNumber},
			"tags":  {Type: genai.TypeArray, Items: &genai.Schema{Type: genai.TypeString}},
		},
		Required: []string{"name", "price"},
	}
	type item struct {
		Name  string     `json:"name"`
		Price core.Money `json:"price"`
		Tags  []string   `json:"tags"`
	}

	var v item
	if err := DecodeSchema([]byte(`{"name":"Milk","price":3.5,"tags":["dairy"]}`), schema, &v); err != nil {
		t.Fatalf("DecodeSchema: %v", err)
	}
	if v.Name != "Milk" || v.Price.Cents != 350 || len(v.Tags) != 1 {
		t.Fatalf("decoded %+v", v)
	}

	bad := []string{
		`{"name":"Milk","price":"3.50"}`,
		`{"name":"Milk","price":null}`,
		`{"name":"Milk"}`,
		`{"name":1,"price":3.5}`,
		`{"name":"Milk","price":3.5,"tags":[1]}`,
		`{"name":"Milk","price":3.5,"tags":"dairy"}`,
		`{"name":"Milk","price":3.5,"extra":true}`,
		`["Milk",3.5]`,
		`{"name":"Milk","price":3.5} {}`,
	}
	for _, raw := range bad {
		if err := DecodeSchema([]byte(raw), schema, &v); !errors.Is(err, core.ErrGeneration) {
			t.Fatalf("DecodeSchema(%s) expected ErrGeneration, got %v", raw, err)
		}
	}
}
