package config

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"golang.org/x/term"

	"cspHTTP/pkg/version"
)

// Config holds the CLI configuration
type Config struct {
	InputFile   string
	Inputs      []string // HTML files given as positional arguments
	OutputFile  string
	JSONOutput  bool
	StorePolicy bool
	StoreDir    string
	// Policy options
	SettingsFile string
	ContentURLs  string // comma-separated content base URLs
	CacheSize    int
	// Serve mode
	Serve              bool
	Listen             string
	Upstream           string
	RootDir            string
	HTTP3              bool
	InsecureSkipVerify bool
	// Additional security headers
	HSTS           bool
	HSTSMaxAge     int
	Permissions    bool
	SiteURL        string
	CORSOrigins    string // comma-separated
	CORSSubdomains bool
	// Rate limiting and workers
	RateLimit   int // form submissions per minute per client, 0 disables
	Burst       int
	Concurrency int
	Timeout     int
	// Debug
	Debug        bool
	Silent       bool
	DebugLogFile string
	Version      bool

	Settings        *Settings
	Logger          *slog.Logger
	DebugLogger     *slog.Logger // nil unless DebugLogFile is set
	debugFileHandle *os.File
}

// New creates a new Config with default values
func New() *Config {
	return &Config{
		StoreDir:    "output",
		Listen:      ":8080",
		HSTSMaxAge:  31536000,
		RateLimit:   5,
		Burst:       5,
		Concurrency: 10,
		Timeout:     30,
		Settings:    DefaultSettings(),
	}
}

// ParseFlags parses command-line flags into the config
func ParseFlags() (*Config, error) {
	cfg := New()

	formatter := RegisterFlags(flag.CommandLine, cfg)
	flag.Usage = func() {
		formatter.PrintUsage(os.Stderr)
	}

	flag.Parse()

	// Handle version flag
	if cfg.Version {
		fmt.Println(version.GetVersion())
		os.Exit(0)
	}

	cfg.Inputs = flag.Args()
	if err := cfg.finalize(explicitFlags(flag.CommandLine)); err != nil {
		return nil, err
	}
	if err := cfg.setupLoggers(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Parse parses args with a private flag set. Loggers are not created.
func Parse(args []string) (*Config, error) {
	cfg := New()

	fs := flag.NewFlagSet("cspHTTP", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	RegisterFlags(fs, cfg)
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	cfg.Inputs = fs.Args()
	if err := cfg.finalize(explicitFlags(fs)); err != nil {
		return nil, err
	}
	cfg.Logger = slog.New(slog.DiscardHandler)
	return cfg, nil
}

// explicitFlags returns the names of the flags set on the command line.
func explicitFlags(fs *flag.FlagSet) map[string]bool {
	set := make(map[string]bool)
	fs.Visit(func(f *flag.Flag) {
		set[f.Name] = true
	})
	return set
}

// finalize loads the settings file, reconciles it with the flags and
// validates the combination. Flags given on the command line win over
// values from the settings file.
func (c *Config) finalize(set map[string]bool) error {
	if c.SettingsFile != "" {
		s, err := LoadSettings(c.SettingsFile)
		if err != nil {
			return fmt.Errorf("failed to load settings: %w", err)
		}
		c.Settings = s

		if !set["hsts-max-age"] {
			c.HSTSMaxAge = s.Headers.HSTSMaxAge
		}
		if !set["rl"] && !set["rate-limit"] {
			c.RateLimit = s.RateLimit.RequestsPerMinute
		}
		if !set["burst"] {
			c.Burst = s.RateLimit.Burst
		}
	}

	c.Settings.ContentURLs = append(c.Settings.ContentURLs, splitList(c.ContentURLs)...)
	c.Settings.CORS.Origins = append(c.Settings.CORS.Origins, splitList(c.CORSOrigins)...)
	if c.SiteURL != "" {
		c.Settings.SiteURL = c.SiteURL
	}
	if c.CORSSubdomains {
		c.Settings.CORS.AllowSubdomains = true
	}

	if c.Serve {
		if c.Upstream == "" && c.RootDir == "" {
			return errors.New("-serve requires -upstream or -root")
		}
		if c.Upstream != "" && c.RootDir != "" {
			return errors.New("-upstream and -root are mutually exclusive")
		}
	}
	if c.HTTP3 && c.Upstream == "" {
		return errors.New("-http3 requires -upstream")
	}
	if c.HSTSMaxAge < 0 {
		return fmt.Errorf("invalid -hsts-max-age: %d", c.HSTSMaxAge)
	}
	if c.Concurrency < 1 {
		return fmt.Errorf("invalid -concurrency: %d", c.Concurrency)
	}
	if c.CacheSize < 0 {
		return fmt.Errorf("invalid -cache: %d", c.CacheSize)
	}
	return nil
}

func (c *Config) setupLoggers() error {
	// Set up structured logger
	logLevel := slog.LevelInfo
	if c.Debug {
		logLevel = slog.LevelDebug
	}
	if c.Silent {
		logLevel = slog.LevelError
	}

	c.Logger = slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: logLevel,
	}))

	// Set up debug file logger if specified
	if c.DebugLogFile != "" {
		debugFile, err := os.Create(c.DebugLogFile)
		if err != nil {
			return fmt.Errorf("failed to create debug log file: %w", err)
		}
		c.debugFileHandle = debugFile
		c.DebugLogger = slog.New(slog.NewTextHandler(debugFile, &slog.HandlerOptions{
			Level: slog.LevelDebug,
		}))
		c.Logger.Info("debug logging enabled", "file", c.DebugLogFile)
	}
	return nil
}

// Close cleans up the config's resources
func (c *Config) Close() error {
	if c.debugFileHandle != nil {
		return c.debugFileHandle.Close()
	}
	return nil
}

// splitList splits a comma-separated flag value, dropping empty items.
func splitList(s string) []string {
	var out []string
	for _, item := range strings.Split(s, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

// HasPipedData checks if there is data being piped to stdin
func HasPipedData() bool {
	return !term.IsTerminal(int(os.Stdin.Fd()))
}
