package http

import (
	"errors"
	"net/http/httptest"
	"strings"
	"testing"

	"tripplan/internal/core"
)

func TestRequestBodyParser(t *testing.T) {
	tests := []struct {
		name string
		body string
		key  string
		want string
	}{
		{"json string", `{"amount":"12,50"}`, "amount", "12,50"},
		{"json number", `{"amount":12.5}`, "amount", "12.5"},
		{"json bool", `{"public":true}`, "public", "true"},
		{"json missing", `{"amount":1}`, "note", ""},
		{"form", "amount=7&note=%20taxi%20", "note", "taxi"},
		{"control chars dropped", "note=a%00b", "note", "ab"},
		{"empty body", "", "amount", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewRequestBodyParser(httptest.NewRequest("POST", "/", strings.NewReader(tt.body)))
			if err := p.Parse(); err != nil {
				t.Fatalf("Parse() error = %v", err)
			}
			if got := p.Get(tt.key); got != tt.want {
				t.Errorf("Get(%q) = %q, want %q", tt.key, got, tt.want)
			}
		})
	}
}

func TestRequestBodyParser_MalformedJSON(t *testing.T) {
	p := NewRequestBodyParser(httptest.NewRequest("POST", "/", strings.NewReader(`{"amount":`)))
	if err := p.Parse(); !errors.Is(err, core.ErrInvalidInput) {
		t.Errorf("Parse() error = %v, want ErrInvalidInput", err)
	}
}

func TestRequestBodyParser_Float(t *testing.T) {
	p := NewRequestBodyParser(httptest.NewRequest("POST", "/", strings.NewReader("lat=30,25&lng=abc")))
	if err := p.Parse(); err != nil {
		t.Fatal(err)
	}
	if f, err := p.Float("lat"); err != nil || f != 30.25 {
		t.Errorf("Float(lat) = %v, %v", f, err)
	}
	for _, key := range []string{"lng", "missing"} {
		if _, err := p.Float(key); !errors.Is(err, core.ErrInvalidInput) {
			t.Errorf("Float(%s) error = %v, want ErrInvalidInput", key, err)
		}
	}
}

func TestDecodeJSON(t *testing.T) {
	var v struct{ Name string }
	if err := decodeJSON(httptest.NewRequest("POST", "/", strings.NewReader("")), &v); !errors.Is(err, core.ErrInvalidInput) {
		t.Errorf("empty body error = %v", err)
	}
	if err := decodeJSON(httptest.NewRequest("POST", "/", strings.NewReader(`{"Name":"x"}`)), &v); err != nil || v.Name != "x" {
		t.Errorf("decodeJSON = %v, %+v", err, v)
	}
}
