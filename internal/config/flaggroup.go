package config

import (
	"flag"
	"fmt"
	"io"
	"text/tabwriter"
)

// FlagType represents the type of a flag value
type FlagType int

const (
	BoolType FlagType = iota
	StringType
	IntType
)

// FlagDef holds metadata for a single flag (short + long names, type, default, description)
type FlagDef struct {
	Short       string
	Long        string
	Type        FlagType
	Default     interface{}
	Description string
}

// FlagGroup is a named category containing related flags
type FlagGroup struct {
	Name  string
	Flags []FlagDef
}

// HelpFormatter holds the tool info and ordered flag groups for custom help rendering
type HelpFormatter struct {
	ToolName    string
	Description string
	Usage       string
	Groups      []*FlagGroup
}

// addBoolFlag registers a bool flag on fs under both names and appends it to the group
func addBoolFlag(fs *flag.FlagSet, group *FlagGroup, p *bool, short, long string, value bool, usage string) {
	if short != "" {
		fs.BoolVar(p, short, value, usage)
	}
	if long != "" {
		fs.BoolVar(p, long, value, usage)
	}
	group.Flags = append(group.Flags, FlagDef{
		Short:       short,
		Long:        long,
		Type:        BoolType,
		Default:     value,
		Description: usage,
	})
}

// addStringFlag registers a string flag on fs under both names and appends it to the group
func addStringFlag(fs *flag.FlagSet, group *FlagGroup, p *string, short, long string, value string, usage string) {
	if short != "" {
		fs.StringVar(p, short, value, usage)
	}
	if long != "" {
		fs.StringVar(p, long, value, usage)
	}
	group.Flags = append(group.Flags, FlagDef{
		Short:       short,
		Long:        long,
		Type:        StringType,
		Default:     value,
		Description: usage,
	})
}

// addIntFlag registers an int flag on fs under both names and appends it to the group
func addIntFlag(fs *flag.FlagSet, group *FlagGroup, p *int, short, long string, value int, usage string) {
	if short != "" {
		fs.IntVar(p, short, value, usage)
	}
	if long != "" {
		fs.IntVar(p, long, value, usage)
	}
	group.Flags = append(group.Flags, FlagDef{
		Short:       short,
		Long:        long,
		Type:        IntType,
		Default:     value,
		Description: usage,
	})
}

// RegisterFlags creates all flag groups, registers every flag on fs,
// and returns a populated HelpFormatter.
func RegisterFlags(fs *flag.FlagSet, cfg *Config) *HelpFormatter {
	formatter := &HelpFormatter{
		ToolName:    "cspHTTP",
		Description: "derive a Content-Security-Policy from rendered HTML",
		Usage:       "[flags] [file.html ...]",
	}

	// INPUT
	input := &FlagGroup{Name: "INPUT"}
	addStringFlag(fs, input, &cfg.InputFile, "i", "input", "", "File listing HTML files to process, one per line (default: positional args or stdin)")
	formatter.Groups = append(formatter.Groups, input)

	// OUTPUT
	output := &FlagGroup{Name: "OUTPUT"}
	addStringFlag(fs, output, &cfg.OutputFile, "o", "output", "", "Output file (default: stdout)")
	addBoolFlag(fs, output, &cfg.JSONOutput, "j", "json", false, "Write JSON results instead of header values")
	addBoolFlag(fs, output, &cfg.StorePolicy, "sp", "store-policy", false, "Store policy reports to output directory")
	addStringFlag(fs, output, &cfg.StoreDir, "spd", "store-policy-dir", "output", "Directory to store policy reports")
	formatter.Groups = append(formatter.Groups, output)

	// POLICY
	pol := &FlagGroup{Name: "POLICY"}
	addStringFlag(fs, pol, &cfg.SettingsFile, "cfg", "config", "", "YAML settings file (static domains, content URLs, headers)")
	addStringFlag(fs, pol, &cfg.ContentURLs, "cu", "content-url", "", "Content base URLs allowed for asset directives (comma-separated)")
	addIntFlag(fs, pol, &cfg.CacheSize, "", "cache", 0, "Cache resolver output for this many distinct documents")
	formatter.Groups = append(formatter.Groups, pol)

	// SERVE
	serve := &FlagGroup{Name: "SERVE"}
	addBoolFlag(fs, serve, &cfg.Serve, "s", "serve", false, "Serve HTML with derived policies instead of printing them")
	addStringFlag(fs, serve, &cfg.Listen, "l", "listen", ":8080", "Listen address")
	addStringFlag(fs, serve, &cfg.Upstream, "u", "upstream", "", "Reverse proxy to this upstream URL")
	addStringFlag(fs, serve, &cfg.RootDir, "r", "root", "", "Serve static files from this directory")
	addBoolFlag(fs, serve, &cfg.HTTP3, "", "http3", false, "Use HTTP/3 (QUIC) to reach the upstream")
	addBoolFlag(fs, serve, &cfg.InsecureSkipVerify, "k", "insecure", false, "Skip upstream TLS certificate verification")
	formatter.Groups = append(formatter.Groups, serve)

	// HEADERS
	headers := &FlagGroup{Name: "HEADERS"}
	addBoolFlag(fs, headers, &cfg.HSTS, "", "hsts", false, "Add Strict-Transport-Security to HTTPS responses")
	addIntFlag(fs, headers, &cfg.HSTSMaxAge, "", "hsts-max-age", 31536000, "HSTS max-age in seconds")
	addBoolFlag(fs, headers, &cfg.Permissions, "pp", "permissions-policy", false, "Add the default Permissions-Policy")
	addStringFlag(fs, headers, &cfg.SiteURL, "site", "site-url", "", "Site URL used as CORS origin")
	addStringFlag(fs, headers, &cfg.CORSOrigins, "", "cors-origin", "", "Additional CORS origins (comma-separated, *.domain allowed)")
	addBoolFlag(fs, headers, &cfg.CORSSubdomains, "", "cors-subdomains", false, "Allow CORS from subdomains of the site URL")
	formatter.Groups = append(formatter.Groups, headers)

	// RATE-LIMIT
	rateLimit := &FlagGroup{Name: "RATE-LIMIT"}
	addIntFlag(fs, rateLimit, &cfg.RateLimit, "rl", "rate-limit", 5, "Form submissions per minute per client in serve mode (0 disables)")
	addIntFlag(fs, rateLimit, &cfg.Burst, "", "burst", 5, "Submissions allowed at once per client")
	addIntFlag(fs, rateLimit, &cfg.Concurrency, "c", "concurrency", 10, "Files processed concurrently")
	addIntFlag(fs, rateLimit, &cfg.Timeout, "t", "timeout", 30, "Upstream timeout in seconds")
	formatter.Groups = append(formatter.Groups, rateLimit)

	// DEBUG
	debug := &FlagGroup{Name: "DEBUG"}
	addBoolFlag(fs, debug, &cfg.Debug, "d", "debug", false, "Debug mode (log every derived policy to stderr)")
	addBoolFlag(fs, debug, &cfg.Silent, "", "silent", false, "Silent mode (no errors to stderr)")
	addStringFlag(fs, debug, &cfg.DebugLogFile, "", "debug-log", "", "Write detailed debug logs to file")
	formatter.Groups = append(formatter.Groups, debug)

	// MISCELLANEOUS
	misc := &FlagGroup{Name: "MISCELLANEOUS"}
	addBoolFlag(fs, misc, &cfg.Version, "v", "version", false, "Show version information")
	formatter.Groups = append(formatter.Groups, misc)

	return formatter
}

// PrintUsage writes the grouped help output to w
func (h *HelpFormatter) PrintUsage(w io.Writer) {
	fmt.Fprintf(w, "%s - %s\n\n", h.ToolName, h.Description)
	fmt.Fprintf(w, "Usage:\n  %s %s\n\nFlags:\n", h.ToolName, h.Usage)

	for _, group := range h.Groups {
		fmt.Fprintf(w, "\n%s:\n", group.Name)

		tw := tabwriter.NewWriter(w, 0, 0, 3, ' ', 0)
		for _, f := range group.Flags {
			name := formatFlagName(f)
			typeSuffix := formatFlagType(f)
			defaultStr := formatFlagDefault(f)

			desc := f.Description
			if defaultStr != "" {
				desc += " " + defaultStr
			}

			fmt.Fprintf(tw, "   %s%s\t%s\n", name, typeSuffix, desc)
		}
		tw.Flush()
	}
}

// formatFlagName builds the "-short, -long" or just "-long" name string
func formatFlagName(f FlagDef) string {
	if f.Short != "" && f.Long != "" {
		return fmt.Sprintf("-%s, -%s", f.Short, f.Long)
	}
	if f.Short != "" {
		return fmt.Sprintf("-%s", f.Short)
	}
	return fmt.Sprintf("-%s", f.Long)
}

// formatFlagType returns the type suffix for non-bool flags
func formatFlagType(f FlagDef) string {
	switch f.Type {
	case StringType:
		return " string"
	case IntType:
		return " int"
	default:
		return ""
	}
}

// formatFlagDefault returns a parenthesized default value string for non-zero defaults
func formatFlagDefault(f FlagDef) string {
	switch f.Type {
	case BoolType:
		if v, ok := f.Default.(bool); ok && v {
			return "(default true)"
		}
	case IntType:
		if v, ok := f.Default.(int); ok && v != 0 {
			return fmt.Sprintf("(default %d)", v)
		}
	case StringType:
		if v, ok := f.Default.(string); ok && v != "" {
			return fmt.Sprintf("(default %q)", v)
		}
	}
	return ""
}
