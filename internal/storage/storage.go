package storage

import (
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"cspHTTP/internal/cdn"
	"cspHTTP/internal/policy"
)

// indexMu serializes appends to index.txt
var indexMu sync.Mutex

// GenerateFilename creates a SHA1 hash-based filename for a policy source
// Format: SHA1(source)
func GenerateFilename(source string) string {
	hash := sha1.Sum([]byte(source))
	return hex.EncodeToString(hash[:])
}

// SanitizeHost sanitizes a hostname for use in directory paths
// Handles ports (e.g., example.com:8080 -> example.com_8080)
func SanitizeHost(host string) string {
	if host == "" {
		return "local"
	}
	return strings.Map(func(r rune) rune {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') ||
			(r >= '0' && r <= '9') || r == '.' || r == '-' || r == '_' {
			return r
		}
		return '_'
	}, host)
}

// BuildStoragePath creates the full path for storing a policy report
// Structure: {baseDir}/{sanitized_host}/{hash}.txt
func BuildStoragePath(baseDir, host, filename string) string {
	return filepath.Join(baseDir, SanitizeHost(host), filename+".txt")
}

// StoreReport writes a policy report to disk. host groups reports of the
// same site; it is empty for local files. Returns the path written.
func StoreReport(baseDir, host, source string, data []byte) (string, error) {
	storagePath := BuildStoragePath(baseDir, host, GenerateFilename(source))

	if err := os.MkdirAll(filepath.Dir(storagePath), 0755); err != nil {
		return "", fmt.Errorf("failed to create storage directory: %w", err)
	}

	if err := os.WriteFile(storagePath, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write report: %w", err)
	}

	return storagePath, nil
}

// FormatReport renders the stored report: source, header value, then one
// line per directive and the allowed domains, annotated with their CDN
// when known. Directives follow the serialization order.
func FormatReport(source, header string, m policy.Map) []byte {
	var b strings.Builder

	b.WriteString("=== SOURCE ===\n")
	b.WriteString(source)
	b.WriteString("\n\n")

	b.WriteString("=== HEADER ===\n")
	b.WriteString(policy.HeaderName)
	b.WriteString(": ")
	b.WriteString(header)
	b.WriteString("\n\n")

	b.WriteString("=== DIRECTIVES ===\n")
	for _, d := range policy.Directives {
		tokens, ok := m[d]
		if !ok {
			continue
		}
		fmt.Fprintf(&b, "%-12s %s\n", d, strings.Join(tokens, " "))
	}
	b.WriteString("\n")

	b.WriteString("=== DOMAINS ===\n")
	for _, domain := range policy.Domains(m) {
		if ok, name := cdn.DetectHost(domain); ok {
			fmt.Fprintf(&b, "%s (%s)\n", domain, name)
			continue
		}
		b.WriteString(domain)
		b.WriteString("\n")
	}

	return []byte(b.String())
}

// AppendToIndex appends one line per stored report to {baseDir}/index.txt
// Format: {relative_path} {source} ({domains} domains)
func AppendToIndex(baseDir, storagePath, source string, domains int) error {
	rel, err := filepath.Rel(baseDir, storagePath)
	if err != nil {
		rel = storagePath
	}
	line := fmt.Sprintf("%s %s (%d domains)\n", filepath.ToSlash(rel), source, domains)

	indexMu.Lock()
	defer indexMu.Unlock()

	f, err := os.OpenFile(filepath.Join(baseDir, "index.txt"), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("failed to open index: %w", err)
	}
	defer f.Close()

	if _, err := f.WriteString(line); err != nil {
		return fmt.Errorf("failed to append to index: %w", err)
	}
	return nil
}
