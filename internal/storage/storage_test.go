package storage

import (
	"crypto/sha1"
	"encoding/hex"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"cspHTTP/internal/policy"
)

func TestGenerateFilename(t *testing.T) {
	source := "pages/index.html"
	expected := sha1Hex(source)
	got := GenerateFilename(source)
	if got != expected {
		t.Errorf("GenerateFilename(%q) = %q, want %q", source, got, expected)
	}

	// Different sources must produce different hashes
	if other := GenerateFilename("pages/about.html"); got == other {
		t.Error("different sources should produce different filenames")
	}

	// Same source should always produce the same hash
	if again := GenerateFilename(source); got != again {
		t.Error("same source should produce same filename")
	}
}

func TestBuildStoragePath(t *testing.T) {
	tests := []struct {
		name     string
		baseDir  string
		host     string
		filename string
		want     string
	}{
		{
			name:     "simple host no port",
			baseDir:  "/tmp/policies",
			host:     "example.com",
			filename: "abc123",
			want:     filepath.Join("/tmp/policies", "example.com", "abc123.txt"),
		},
		{
			name:     "host with port",
			baseDir:  "/tmp/policies",
			host:     "example.com:8080",
			filename: "abc123",
			want:     filepath.Join("/tmp/policies", "example.com_8080", "abc123.txt"),
		},
		{
			name:     "local file",
			baseDir:  "/data/out",
			host:     "",
			filename: "deadbeef",
			want:     filepath.Join("/data/out", "local", "deadbeef.txt"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := BuildStoragePath(tt.baseDir, tt.host, tt.filename)
			if got != tt.want {
				t.Errorf("BuildStoragePath() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestFormatReport(t *testing.T) {
	m := policy.Map{
		policy.ScriptSrc:  {"cdn.example.com:8080", policy.UnsafeEval},
		policy.ImgSrc:     {"img.example.com", policy.Data},
		policy.ConnectSrc: {"cdn.example.com:8080"},
	}
	header := policy.Serialize(m)

	result := string(FormatReport("index.html", header, m))

	for _, want := range []string{
		"=== SOURCE ===\nindex.html\n",
		"Content-Security-Policy: " + header + "\n",
		"script-src   cdn.example.com:8080 'unsafe-eval'\n",
		"img-src      img.example.com data:\n",
		"=== DOMAINS ===\ncdn.example.com:8080\nimg.example.com\n",
	} {
		if !strings.Contains(result, want) {
			t.Errorf("report missing %q:\n%s", want, result)
		}
	}

	// script-src must precede img-src
	if strings.Index(result, "script-src  ") > strings.Index(result, "img-src  ") {
		t.Error("directives out of order")
	}
}

func TestFormatReport_CDNAnnotation(t *testing.T) {
	m := policy.Map{
		policy.ScriptSrc: {"cdnjs.cloudflare.com", "app.example.com", policy.UnsafeEval},
	}

	result := string(FormatReport("index.html", policy.Serialize(m), m))

	if !strings.Contains(result, "cdnjs.cloudflare.com (Cloudflare)\n") {
		t.Errorf("report missing CDN annotation:\n%s", result)
	}
	if !strings.Contains(result, "\napp.example.com\n") {
		t.Errorf("report missing plain domain:\n%s", result)
	}
}

func TestStoreReport(t *testing.T) {
	tmpDir := t.TempDir()

	data := []byte("report data")
	storagePath, err := StoreReport(tmpDir, "example.com", "https://example.com/page", data)
	if err != nil {
		t.Fatalf("StoreReport() error: %v", err)
	}

	content, err := os.ReadFile(storagePath)
	if err != nil {
		t.Fatalf("failed to read stored file: %v", err)
	}
	if string(content) != string(data) {
		t.Errorf("stored content mismatch: got %q, want %q", content, data)
	}

	// Verify filename is SHA1(source)
	expectedHash := sha1Hex("https://example.com/page")
	if filepath.Base(storagePath) != expectedHash+".txt" {
		t.Errorf("storage path %q should end with %s.txt", storagePath, expectedHash)
	}
}

func TestAppendToIndex(t *testing.T) {
	tmpDir := t.TempDir()

	storagePath := filepath.Join(tmpDir, "local", "abc123.txt")
	if err := AppendToIndex(tmpDir, storagePath, "index.html", 3); err != nil {
		t.Fatalf("AppendToIndex() error: %v", err)
	}

	content, err := os.ReadFile(filepath.Join(tmpDir, "index.txt"))
	if err != nil {
		t.Fatalf("failed to read index.txt: %v", err)
	}

	expected := "local/abc123.txt index.html (3 domains)\n"
	if string(content) != expected {
		t.Errorf("index line = %q, want %q", content, expected)
	}
}

func TestAppendToIndex_Concurrent(t *testing.T) {
	tmpDir := t.TempDir()

	var wg sync.WaitGroup
	n := 50
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			AppendToIndex(tmpDir, filepath.Join(tmpDir, "host", "file.txt"), "page.html", 1)
		}()
	}
	wg.Wait()

	content, _ := os.ReadFile(filepath.Join(tmpDir, "index.txt"))
	lines := strings.Split(strings.TrimRight(string(content), "\n"), "\n")
	if len(lines) != n {
		t.Errorf("expected %d index lines from concurrent writes, got %d", n, len(lines))
	}
}

func TestSanitizeHost(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"example.com", "example.com"},
		{"example.com:8080", "example.com_8080"},
		{"sub.domain.com:443", "sub.domain.com_443"},
		{"my-host.io", "my-host.io"},
		{"[::1]:8080", "___1__8080"},
		{"", "local"},
	}

	for _, tt := range tests {
		if got := SanitizeHost(tt.input); got != tt.want {
			t.Errorf("SanitizeHost(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

// helpers

func sha1Hex(s string) string {
	h := sha1.Sum([]byte(s))
	return hex.EncodeToString(h[:])
}
