package mcp

import (
	"reflect"
	"testing"
)

func TestGetStringArg(t *testing.T) {
	args := map[string]interface{}{
		"name":   "acme",
		"number": 42,
	}

	if got := getStringArg(args, "name"); got != "acme" {
		t.Errorf("got %q, want %q", got, "acme")
	}
	if got := getStringArg(args, "number"); got != "42" {
		t.Errorf("got %q, want %q", got, "42")
	}
	if got := getStringArg(args, "missing"); got != "" {
		t.Errorf("got %q, want empty", got)
	}
}

func TestGetIntArg(t *testing.T) {
	args := map[string]interface{}{
		"int":     3,
		"float":   float64(7), // JSON numbers decode as float64
		"string":  "12",
		"boolean": true,
	}

	tests := []struct {
		key  string
		want int
	}{
		{"int", 3},
		{"float", 7},
		{"string", -1}, // not coerced
		{"boolean", -1},
		{"missing", -1},
	}
	for _, tt := range tests {
		if got := getIntArg(args, tt.key, -1); got != tt.want {
			t.Errorf("getIntArg(%q) = %d, want %d", tt.key, got, tt.want)
		}
	}
}

func TestGetStringSliceArg(t *testing.T) {
	tests := []struct {
		name string
		args map[string]interface{}
		want []string
	}{
		{
			"missing key",
			map[string]interface{}{},
			nil,
		},
		{
			"json array",
			map[string]interface{}{"filters": []interface{}{"customer", "invoice"}},
			[]string{"customer", "invoice"},
		},
		{
			"string slice",
			map[string]interface{}{"filters": []string{"vendor"}},
			[]string{"vendor"},
		},
		{
			"comma separated",
			map[string]interface{}{"filters": "customer, invoice, "},
			[]string{"customer", "invoice"},
		},
		{
			"empty string",
			map[string]interface{}{"filters": ""},
			nil,
		},
		{
			"array with blanks",
			map[string]interface{}{"filters": []interface{}{"customer", "  ", ""}},
			[]string{"customer"},
		},
		{
			"wrong type",
			map[string]interface{}{"filters": 42},
			nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := getStringSliceArg(tt.args, "filters")
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}
