package header

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

type fakeSink struct {
	sent  bool
	names []string
	added map[string][]string
}

func (f *fakeSink) Sent() bool      { return f.sent }
func (f *fakeSink) Names() []string { return f.names }
func (f *fakeSink) Add(name, value string) {
	if f.added == nil {
		f.added = make(map[string][]string)
	}
	f.added[name] = append(f.added[name], value)
	f.names = append(f.names, name)
}

func TestEmit(t *testing.T) {
	tests := []struct {
		name  string
		sink  *fakeSink
		value string
		want  bool
	}{
		{"clean sink", &fakeSink{}, "script-src 'self'", true},
		{"headers sent", &fakeSink{sent: true}, "script-src 'self'", false},
		{"empty value", &fakeSink{}, "", false},
		{"existing policy", &fakeSink{names: []string{"Content-Security-Policy"}}, "script-src 'self'", false},
		{"existing lower case", &fakeSink{names: []string{"content-security-policy"}}, "script-src 'self'", false},
		{"existing report only", &fakeSink{names: []string{"Content-Security-Policy-Report-Only"}}, "script-src 'self'", false},
		{"unrelated headers", &fakeSink{names: []string{"Content-Type", "X-Frame-Options"}}, "script-src 'self'", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Emit(tt.sink, tt.value); got != tt.want {
				t.Errorf("Emit() = %v, want %v", got, tt.want)
			}
			added := len(tt.sink.added[Name])
			if tt.want && added != 1 {
				t.Errorf("header added %d times, want 1", added)
			}
			if !tt.want && added != 0 {
				t.Errorf("header added %d times, want 0", added)
			}
		})
	}
}

func TestEmit_Twice(t *testing.T) {
	sink := &fakeSink{}
	if !Emit(sink, "img-src data:") {
		t.Fatal("first Emit() = false")
	}
	if Emit(sink, "img-src data:") {
		t.Error("second Emit() = true")
	}
	if got := len(sink.added[Name]); got != 1 {
		t.Errorf("header added %d times, want 1", got)
	}
}

func TestResponseSink(t *testing.T) {
	rec := httptest.NewRecorder()
	sink := NewResponseSink(rec)
	sink.Header().Set("X-Test", "1")

	if sink.Sent() {
		t.Fatal("Sent() = true before any write")
	}
	if !Emit(sink, "font-src data:") {
		t.Fatal("Emit() = false")
	}

	sink.WriteHeader(http.StatusAccepted)
	if !sink.Sent() {
		t.Error("Sent() = false after WriteHeader")
	}
	if Emit(sink, "font-src data:") {
		t.Error("Emit() after WriteHeader = true")
	}

	if got := rec.Header().Values(Name); len(got) != 1 || got[0] != "font-src data:" {
		t.Errorf("%s = %v", Name, got)
	}
	if rec.Code != http.StatusAccepted {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusAccepted)
	}
}

func TestResponseSink_Write(t *testing.T) {
	rec := httptest.NewRecorder()
	sink := NewResponseSink(rec)

	if _, err := sink.Write([]byte("x")); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	if !sink.Sent() {
		t.Error("Sent() = false after Write")
	}
	if sink.Unwrap() != rec {
		t.Error("Unwrap() did not return the wrapped writer")
	}
}
