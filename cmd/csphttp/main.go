package main

import (
	"bufio"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"golang.org/x/term"

	"cspHTTP/internal/config"
	"cspHTTP/internal/output"
	"cspHTTP/internal/policy"
	"cspHTTP/internal/runner"
	"cspHTTP/internal/server"
)

func main() {
	// Parse configuration
	cfg, err := config.ParseFlags()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer cfg.Close() // Clean up debug log file

	// If no arguments provided and nothing is piped to stdin, show help
	if flag.NFlag() == 0 && len(cfg.Inputs) == 0 && !config.HasPipedData() {
		flag.Usage()
		os.Exit(0)
	}

	// Set up context with cancellation support for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle interrupt signals for graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		cfg.Logger.Info("shutting down gracefully...")
		cancel()
	}()

	assembler := newAssembler(cfg)

	if cfg.Serve {
		if err := serve(ctx, cfg, assembler); err != nil {
			cfg.Logger.Error("server failed", "error", err)
			cfg.Close()
			os.Exit(1)
		}
		return
	}

	// Initialize policy storage directory if enabled
	if cfg.StorePolicy {
		if err := os.MkdirAll(cfg.StoreDir, 0755); err != nil {
			cfg.Logger.Error("failed to create policy directory",
				"path", cfg.StoreDir,
				"error", err,
			)
			os.Exit(1)
		}
		cfg.Logger.Info("policy storage enabled", "directory", cfg.StoreDir)
	}

	// Collect input files: positional arguments plus the -i list
	paths := cfg.Inputs
	if cfg.InputFile != "" {
		file, err := os.Open(cfg.InputFile)
		if err != nil {
			cfg.Logger.Error("failed to open input file", "file", cfg.InputFile, "error", err)
			os.Exit(1)
		}
		paths = append(paths, readPaths(file)...)
		file.Close()
	}

	// Get output writer
	var outputWriter io.Writer
	if cfg.OutputFile != "" {
		file, err := os.Create(cfg.OutputFile)
		if err != nil {
			cfg.Logger.Error("failed to create output file", "file", cfg.OutputFile, "error", err)
			os.Exit(1)
		}
		defer file.Close()
		outputWriter = file
	} else {
		outputWriter = os.Stdout
	}

	r := runner.New(assembler, runner.Options{
		StorePolicy: cfg.StorePolicy,
		StoreDir:    cfg.StoreDir,
		Logger:      cfg.Logger,
		DebugLogger: cfg.DebugLogger,
	})

	// Without files the document itself is read from stdin
	if len(paths) == 0 {
		markup, err := r.Read(os.Stdin)
		if err != nil {
			cfg.Logger.Error("failed to read stdin", "error", err)
			os.Exit(1)
		}
		result := r.Process("stdin", markup)
		if err := writeResult(outputWriter, result, cfg.JSONOutput, false); err != nil {
			cfg.Logger.Error("failed to write result", "error", err)
			os.Exit(1)
		}
		return
	}

	cfg.Logger.Info("loaded inputs", "count", len(paths))

	results := r.ProcessFiles(ctx, paths, cfg.Concurrency)

	// Write results
	successCount := 0
	errorCount := 0
	completed := 0
	total := len(paths)

	// Check if stderr is a terminal for progress display
	showProgress := !cfg.Silent && term.IsTerminal(int(os.Stderr.Fd()))
	var termHeight int

	// Set up persistent status bar at bottom of terminal
	if showProgress {
		_, termHeight, _ = term.GetSize(int(os.Stderr.Fd()))
		if termHeight > 0 {
			// Set scroll region to exclude the bottom line
			fmt.Fprintf(os.Stderr, "\033[1;%dr", termHeight-1)
			fmt.Fprintf(os.Stderr, "\033[1;1H")
			fmt.Fprintf(os.Stderr, "\033[s\033[%d;1H\033[K[0/%d] Starting...\033[u", termHeight, total)
		}
	}

	updateStatusBar := func(input string) {
		if !showProgress || termHeight <= 0 {
			return
		}
		display := input
		if len(display) > 70 {
			display = "..." + display[len(display)-67:]
		}
		fmt.Fprintf(os.Stderr, "\033[s\033[%d;1H\033[K[%d/%d] %s\033[u", termHeight, completed, total, display)
	}

	for result := range results {
		completed++
		updateStatusBar(result.Input)

		if result.Error != "" {
			errorCount++
			if cfg.JSONOutput {
				writeResult(outputWriter, result, true, true)
			}
			continue
		}

		if err := writeResult(outputWriter, result, cfg.JSONOutput, total > 1); err != nil {
			cfg.Logger.Error("failed to write result", "input", result.Input, "error", err)
			continue
		}
		successCount++
	}

	// Clean up terminal state
	if showProgress && termHeight > 0 {
		fmt.Fprintf(os.Stderr, "\033[r")
		fmt.Fprintf(os.Stderr, "\033[%d;1H\033[K", termHeight)
		fmt.Fprintf(os.Stderr, "\033[%d;1H", termHeight-1)
	}

	cfg.Logger.Info("policy derivation completed",
		"total", total,
		"success", successCount,
		"errors", errorCount,
	)
	if errorCount > 0 && successCount == 0 {
		cfg.Close()
		os.Exit(1)
	}
}

// newAssembler builds the assembler with the sources and cache from cfg.
func newAssembler(cfg *config.Config) *policy.Assembler {
	opts := []policy.Option{
		policy.WithDomainSource(cfg.Settings),
		policy.WithContentSource(cfg.Settings),
		policy.WithLogger(cfg.Logger),
	}
	if cfg.CacheSize > 0 {
		opts = append(opts, policy.WithCache(policy.NewCache(cfg.CacheSize)))
	}
	return policy.NewAssembler(opts...)
}

func serve(ctx context.Context, cfg *config.Config, a *policy.Assembler) error {
	srv, err := server.New(cfg, a)
	if err != nil {
		return err
	}
	defer srv.Close()
	return srv.Run(ctx)
}

// writeResult writes one result as a JSON line or as a header line. With
// labeled the header line is prefixed by the input name.
func writeResult(w io.Writer, result output.PolicyResult, asJSON, labeled bool) error {
	if asJSON {
		jsonData, err := json.Marshal(result)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(w, string(jsonData))
		return err
	}
	if labeled {
		_, err := fmt.Fprintf(w, "%s: %s: %s\n", result.Input, policy.HeaderName, result.Header)
		return err
	}
	_, err := fmt.Fprintf(w, "%s: %s\n", policy.HeaderName, result.Header)
	return err
}

// readPaths reads file paths from the input reader, skipping comments and empty lines
func readPaths(reader io.Reader) []string {
	var paths []string
	scanner := bufio.NewScanner(reader)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line != "" && !strings.HasPrefix(line, "#") {
			paths = append(paths, line)
		}
	}
	return paths
}
