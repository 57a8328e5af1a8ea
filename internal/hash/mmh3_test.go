package hash

import (
	"testing"
)

func TestCalculateMMH3_Deterministic(t *testing.T) {
	data := []byte("hello world")
	h1 := CalculateMMH3(data)
	h2 := CalculateMMH3(data)
	if h1 != h2 {
		t.Errorf("same data produced different hashes: %q vs %q", h1, h2)
	}
}

func TestCalculateMMH3_DifferentData(t *testing.T) {
	h1 := CalculateMMH3([]byte("hello"))
	h2 := CalculateMMH3([]byte("world"))
	if h1 == h2 {
		t.Error("different data should produce different hashes")
	}
}

func TestCalculateMMH3_Format(t *testing.T) {
	h := CalculateMMH3([]byte("test"))
	// Should be a decimal number string (not hex)
	for _, c := range h {
		if c < '0' || c > '9' {
			t.Errorf("hash %q contains non-digit character %q", h, string(c))
			break
		}
	}
}

func TestFingerprint(t *testing.T) {
	a := Fingerprint([]byte("<html><script src=x.js></script></html>"))
	b := Fingerprint([]byte("<html><script src=x.js></script></html>"))
	c := Fingerprint([]byte("<html><script src=y.js></script></html>"))

	if a != b {
		t.Error("same markup should produce the same fingerprint")
	}
	if a == c {
		t.Error("different markup should produce different fingerprints")
	}
}

func TestCalculatePolicyMMH3_OrderIndependent(t *testing.T) {
	p1 := map[string][]string{
		"script-src": {"cdn.example.com", "'unsafe-eval'"},
		"img-src":    {"data:", "img.example.com"},
	}
	p2 := map[string][]string{
		"img-src":    {"img.example.com", "data:"},
		"script-src": {"'unsafe-eval'", "cdn.example.com"},
	}

	if CalculatePolicyMMH3(p1) != CalculatePolicyMMH3(p2) {
		t.Error("policy hash should be independent of directive and source order")
	}
}

func TestCalculatePolicyMMH3_DifferentPolicies(t *testing.T) {
	p1 := map[string][]string{"script-src": {"a.example.com"}}
	p2 := map[string][]string{"script-src": {"b.example.com"}}

	if CalculatePolicyMMH3(p1) == CalculatePolicyMMH3(p2) {
		t.Error("different policies should produce different hashes")
	}
}

func TestCalculatePolicyMMH3_DoesNotMutate(t *testing.T) {
	sources := []string{"z.example.com", "a.example.com"}
	CalculatePolicyMMH3(map[string][]string{"img-src": sources})

	if sources[0] != "z.example.com" {
		t.Errorf("input slice was reordered: %v", sources)
	}
}
