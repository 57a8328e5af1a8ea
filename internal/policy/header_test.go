package policy

import (
	"reflect"
	"sort"
	"strings"
	"testing"
)

func TestSerialize(t *testing.T) {
	m := Map{
		ConnectSrc: {"api.example.com"},
		ScriptSrc:  {"cdn.example.com", UnsafeEval},
		ObjectSrc:  {None},
	}

	got := Serialize(m)
	want := "script-src cdn.example.com 'unsafe-eval'; object-src 'none'; connect-src api.example.com; " +
		"base-uri 'self'; upgrade-insecure-requests; block-all-mixed-content"
	if got != want {
		t.Errorf("Serialize() =\n%s\nwant\n%s", got, want)
	}
}

func TestSerialize_Empty(t *testing.T) {
	got := Serialize(Map{})
	want := "base-uri 'self'; upgrade-insecure-requests; block-all-mixed-content"
	if got != want {
		t.Errorf("Serialize(empty) = %q, want %q", got, want)
	}
	if strings.HasSuffix(got, ";") || strings.HasSuffix(got, " ") {
		t.Errorf("Serialize() left a trailing separator: %q", got)
	}
}

func TestSerialize_DirectiveOrder(t *testing.T) {
	m := NewAssembler().PolicyMap("")
	header := Serialize(m)

	last := -1
	for _, d := range Directives {
		idx := strings.Index(header, string(d)+" ")
		if idx < 0 {
			t.Fatalf("%s missing from %q", d, header)
		}
		if idx < last {
			t.Errorf("%s out of order in %q", d, header)
		}
		last = idx
	}
}

func TestParseHeader(t *testing.T) {
	m := ParseHeader("Script-Src 'self' cdn.example.com;  ; img-src data:; script-src ignored.example.com; upgrade-insecure-requests")

	want := Map{
		ScriptSrc:                   {"'self'", "cdn.example.com"},
		ImgSrc:                      {"data:"},
		"upgrade-insecure-requests": {},
	}
	if !reflect.DeepEqual(m, want) {
		t.Errorf("ParseHeader() = %v, want %v", m, want)
	}
}

func TestParseHeader_RoundTrip(t *testing.T) {
	original := NewAssembler().PolicyMap(fixturePage)
	parsed := ParseHeader(Serialize(original))

	for _, d := range Directives {
		if !reflect.DeepEqual(parsed[d], original[d]) {
			t.Errorf("%s = %v, want %v", d, parsed[d], original[d])
		}
	}
	if want := []string{Self}; !reflect.DeepEqual(parsed["base-uri"], want) {
		t.Errorf("base-uri = %v, want %v", parsed["base-uri"], want)
	}
}

func TestDomains(t *testing.T) {
	tests := []struct {
		name   string
		header string
		want   []string
	}{
		{
			name:   "basic directives",
			header: "default-src 'self' cdn.example.com; script-src scripts.example.com 'unsafe-inline'; img-src images.example.com data:",
			want:   []string{"cdn.example.com", "images.example.com", "scripts.example.com"},
		},
		{
			name:   "filters keywords",
			header: "default-src 'self' 'unsafe-inline' 'unsafe-eval' data: blob: https: http: 'none' 'strict-dynamic' actual.example.com",
			want:   []string{"actual.example.com"},
		},
		{
			name:   "url sources",
			header: "script-src https://cdn.example.com/path; connect-src wss://ws.example.com:8080",
			want:   []string{"cdn.example.com", "ws.example.com:8080"},
		},
		{
			name:   "deduplication",
			header: "default-src cdn.example.com; script-src cdn.example.com; style-src cdn.example.com",
			want:   []string{"cdn.example.com"},
		},
		{
			name:   "wildcards",
			header: "img-src *.example.com",
			want:   []string{"*.example.com"},
		},
		{
			name:   "ports kept",
			header: "form-action forms.example.com:8443 'self'",
			want:   []string{"forms.example.com:8443"},
		},
		{
			name:   "nonces and hashes skipped",
			header: "script-src 'nonce-abc123' 'sha256-xyz' localhost",
			want:   []string{"localhost"},
		},
		{
			name:   "single labels skipped",
			header: "script-src intranet",
			want:   nil,
		},
		{
			name:   "empty",
			header: "",
			want:   nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Domains(ParseHeader(tt.header))
			sort.Strings(got)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Domains() = %v, want %v", got, tt.want)
			}
		})
	}
}
