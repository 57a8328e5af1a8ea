// Package runner derives policies for many HTML documents concurrently.
package runner

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"
	"time"

	"cspHTTP/internal/hash"
	"cspHTTP/internal/output"
	"cspHTTP/internal/parser"
	"cspHTTP/internal/policy"
	"cspHTTP/internal/storage"
)

// DefaultMaxBytes is the largest document read from a file (10 MB).
const DefaultMaxBytes = 10 * 1024 * 1024

// Options configures a Runner.
type Options struct {
	StorePolicy bool
	StoreDir    string
	MaxBytes    int64
	Logger      *slog.Logger
	DebugLogger *slog.Logger // optional
}

// Runner derives a policy per input document.
type Runner struct {
	assembler *policy.Assembler
	opts      Options
	logger    *slog.Logger
}

// New creates a Runner that derives policies with a.
func New(a *policy.Assembler, opts Options) *Runner {
	if opts.MaxBytes <= 0 {
		opts.MaxBytes = DefaultMaxBytes
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Runner{assembler: a, opts: opts, logger: logger}
}

// ProcessFiles processes files concurrently using a worker pool with context support
func (r *Runner) ProcessFiles(ctx context.Context, paths []string, concurrency int) <-chan output.PolicyResult {
	if concurrency < 1 {
		concurrency = 1
	}
	results := make(chan output.PolicyResult, len(paths))
	pathChan := make(chan string, len(paths))

	// Create worker pool
	var wg sync.WaitGroup
	for i := 0; i < concurrency; i++ {
		wg.Add(1)
		go r.worker(ctx, pathChan, results, &wg)
	}

	// Send paths to workers
	go func() {
		defer close(pathChan)
		for _, path := range paths {
			select {
			case pathChan <- path:
			case <-ctx.Done():
				return
			}
		}
	}()

	// Close results channel when all workers are done
	go func() {
		wg.Wait()
		close(results)
	}()

	return results
}

// worker processes paths from the channel
func (r *Runner) worker(ctx context.Context, paths <-chan string, results chan<- output.PolicyResult, wg *sync.WaitGroup) {
	defer wg.Done()

	for path := range paths {
		// Check if context is cancelled
		select {
		case <-ctx.Done():
			return
		default:
		}

		results <- r.ProcessFile(path)
	}
}

// ProcessFile reads one HTML file and derives its policy.
func (r *Runner) ProcessFile(path string) output.PolicyResult {
	markup, err := r.readFile(path)
	if err != nil {
		r.logger.Warn("failed to read input", "file", path, "error", err)
		return output.PolicyResult{
			Timestamp: time.Now().Format(time.RFC3339),
			Input:     path,
			Error:     err.Error(),
		}
	}
	return r.Process(path, markup)
}

func (r *Runner) readFile(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return r.Read(f)
}

// Read reads a document from src, up to the configured limit.
func (r *Runner) Read(src io.Reader) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(src, r.opts.MaxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read document: %w", err)
	}
	if int64(len(data)) > r.opts.MaxBytes {
		return nil, fmt.Errorf("document exceeds %d bytes", r.opts.MaxBytes)
	}
	return data, nil
}

// Process derives the policy of markup read from input.
func (r *Runner) Process(input string, markup []byte) output.PolicyResult {
	start := time.Now()

	m := r.assembler.PolicyMap(string(markup))
	header := policy.Serialize(m)

	directives := make(map[string][]string, len(m))
	for d, tokens := range m {
		directives[string(d)] = tokens
	}

	result := output.PolicyResult{
		Timestamp:  time.Now().Format(time.RFC3339),
		Input:      input,
		Header:     header,
		Directives: directives,
		Domains:    policy.Domains(m),
		Bytes:      len(markup),
		Hash: hash.Hash{
			MarkupMMH3: hash.CalculateMMH3(markup),
			PolicyMMH3: hash.CalculatePolicyMMH3(directives),
		},
	}
	result.Words, result.Lines = parser.CountWordsAndLines(string(markup))

	if r.opts.StorePolicy {
		report := storage.FormatReport(input, header, m)
		storagePath, err := storage.StoreReport(r.opts.StoreDir, "", input, report)
		if err != nil {
			r.logger.Error("failed to store policy", "input", input, "error", err)
		} else {
			result.StoredPolicyPath = storagePath
			if err := storage.AppendToIndex(r.opts.StoreDir, storagePath, input, len(result.Domains)); err != nil {
				r.logger.Warn("failed to update index", "error", err)
			}
		}
	}

	result.Time = time.Since(start).String()

	if r.opts.DebugLogger != nil {
		r.opts.DebugLogger.Info("derived policy",
			"input", input,
			"bytes", len(markup),
			"domains", len(result.Domains),
			"header", header,
		)
	}

	return result
}
