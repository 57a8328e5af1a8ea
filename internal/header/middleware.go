package header

import (
	"bytes"
	"log/slog"
	"mime"
	"net/http"
	"strings"

	"cspHTTP/internal/policy"
)

// maxBufferBytes caps how much of an HTML response is held back while the
// policy is derived. Larger responses are streamed without a policy.
const maxBufferBytes = 8 << 20

// Middleware derives a policy from every HTML response body and adds it
// as the Content-Security-Policy header. Other responses, encoded bodies
// and responses that already carry a policy pass through unchanged.
func Middleware(a *policy.Assembler, logger *slog.Logger) func(http.Handler) http.Handler {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method == http.MethodHead {
				next.ServeHTTP(w, r)
				return
			}

			bw := &bufferedWriter{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(bw, r)
			bw.finish(a, logger, r)
		})
	}
}

// bufferedWriter holds back HTML bodies until the handler returns. The
// decision to buffer is made on the first body write, once Content-Type
// is known.
type bufferedWriter struct {
	http.ResponseWriter

	status      int
	wroteHeader bool
	decided     bool
	buffering   bool
	buf         bytes.Buffer
}

func (bw *bufferedWriter) WriteHeader(code int) {
	if bw.wroteHeader {
		return
	}
	if code < http.StatusOK {
		bw.ResponseWriter.WriteHeader(code)
		return
	}
	bw.wroteHeader = true
	bw.status = code

	// Bodiless responses are never buffered.
	if code == http.StatusNoContent || code == http.StatusNotModified {
		bw.decided = true
		bw.ResponseWriter.WriteHeader(code)
	}
}

func (bw *bufferedWriter) Write(b []byte) (int, error) {
	if !bw.wroteHeader {
		bw.WriteHeader(http.StatusOK)
	}
	if !bw.decided {
		bw.decide(b)
	}
	if !bw.buffering {
		return bw.ResponseWriter.Write(b)
	}

	if bw.buf.Len()+len(b) > maxBufferBytes {
		// Too large to hold; commit what we have and stream the rest.
		bw.buffering = false
		bw.ResponseWriter.WriteHeader(bw.status)
		if _, err := bw.ResponseWriter.Write(bw.buf.Bytes()); err != nil {
			return 0, err
		}
		bw.buf.Reset()
		return bw.ResponseWriter.Write(b)
	}

	return bw.buf.Write(b)
}

// decide picks buffering or pass-through from the response headers.
func (bw *bufferedWriter) decide(first []byte) {
	bw.decided = true

	h := bw.Header()
	if h.Get("Content-Type") == "" {
		h.Set("Content-Type", http.DetectContentType(first))
	}

	bw.buffering = isHTML(h.Get("Content-Type")) && isIdentity(h.Get("Content-Encoding"))
	if !bw.buffering {
		bw.ResponseWriter.WriteHeader(bw.status)
	}
}

// Flush forwards to the underlying writer once the response streams.
// While buffering it is a no-op: headers cannot be committed before the
// policy is known.
func (bw *bufferedWriter) Flush() {
	if bw.buffering {
		return
	}
	if f, ok := bw.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func (bw *bufferedWriter) Unwrap() http.ResponseWriter {
	return bw.ResponseWriter
}

// finish emits the header and releases the buffered body.
func (bw *bufferedWriter) finish(a *policy.Assembler, logger *slog.Logger, r *http.Request) {
	if !bw.decided {
		if bw.wroteHeader {
			bw.ResponseWriter.WriteHeader(bw.status)
		}
		return
	}
	if !bw.buffering {
		return
	}

	sink := NewResponseSink(bw.ResponseWriter)
	value := a.Policy(bw.buf.String())
	if Emit(sink, value) {
		logger.Debug("content security policy emitted",
			"path", r.URL.Path,
			"body_bytes", bw.buf.Len(),
			"header_bytes", len(value),
		)
	} else {
		logger.Debug("content security policy already present", "path", r.URL.Path)
	}

	sink.WriteHeader(bw.status)
	if _, err := sink.Write(bw.buf.Bytes()); err != nil {
		logger.Debug("failed to write response body", "path", r.URL.Path, "error", err)
	}
}

func isHTML(contentType string) bool {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return false
	}
	return mediaType == "text/html" || mediaType == "application/xhtml+xml"
}

func isIdentity(encoding string) bool {
	encoding = strings.TrimSpace(strings.ToLower(encoding))
	return encoding == "" || encoding == "identity"
}
