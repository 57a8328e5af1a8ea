package output

import (
	"cspHTTP/internal/hash"
)

// PolicyResult represents the JSON output for each processed document
type PolicyResult struct {
	Timestamp  string              `json:"timestamp"`
	Input      string              `json:"input"`
	Hash       hash.Hash           `json:"hash"`
	Header     string              `json:"header"`
	Directives map[string][]string `json:"directives"`
	Domains    []string            `json:"domains"`
	Words      int                 `json:"words"`
	Lines      int                 `json:"lines"`
	Bytes      int                 `json:"content_length"`
	Time       string              `json:"time"`
	Error      string              `json:"error,omitempty"`
	// Storage-related fields (optional, based on flags)
	StoredPolicyPath string `json:"stored_policy_path,omitempty"`
}
