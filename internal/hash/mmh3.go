package hash

import (
	"fmt"
	"sort"
	"strings"

	"github.com/twmb/murmur3"
)

// Hash contains MMH3 hashes of a processed document
type Hash struct {
	MarkupMMH3 string `json:"markup_mmh3"`
	PolicyMMH3 string `json:"policy_mmh3"`
}

// CalculateMMH3 calculates the MMH3 hash of the data
func CalculateMMH3(data []byte) string {
	hash := murmur3.Sum32(data)
	return fmt.Sprintf("%d", hash)
}

// Fingerprint returns a 64-bit MMH3 hash of the data, used as a cache key
func Fingerprint(data []byte) uint64 {
	return murmur3.Sum64(data)
}

// CalculatePolicyMMH3 hashes directive sources independent of directive and
// source order, so equal policies hash equal
func CalculatePolicyMMH3(directives map[string][]string) string {
	var keys []string
	for k := range directives {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for _, k := range keys {
		sources := append([]string(nil), directives[k]...)
		sort.Strings(sources)

		b.WriteString(k)
		for _, s := range sources {
			b.WriteByte(' ')
			b.WriteString(s)
		}
		b.WriteString("\n")
	}

	return CalculateMMH3([]byte(b.String()))
}
