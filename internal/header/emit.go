// Package header emits a derived Content-Security-Policy on outgoing
// responses.
package header

import (
	"net/http"
	"strings"

	"cspHTTP/internal/policy"
)

// Name is the response header carrying the policy.
const Name = policy.HeaderName

// Sink is the outgoing header collection of a response.
type Sink interface {
	// Sent reports whether headers were already committed to the client.
	Sent() bool
	// Names lists the header names already queued.
	Names() []string
	// Add queues a header.
	Add(name, value string)
}

// Emit queues the policy header on sink. Nothing is written when value is
// empty, headers were already sent, or any queued header name starts with
// Content-Security-Policy (case-insensitive), which also covers the
// report-only variant. Returns whether the header was added.
func Emit(sink Sink, value string) bool {
	if value == "" || sink.Sent() || HasPolicy(sink) {
		return false
	}
	sink.Add(Name, value)
	return true
}

// HasPolicy reports whether a policy header is already queued on sink.
func HasPolicy(sink Sink) bool {
	prefix := strings.ToLower(Name)
	for _, name := range sink.Names() {
		if strings.HasPrefix(strings.ToLower(name), prefix) {
			return true
		}
	}
	return false
}

// ResponseSink adapts an http.ResponseWriter to Sink.
type ResponseSink struct {
	http.ResponseWriter
	sent bool
}

// NewResponseSink wraps w. Writes made through the returned sink mark the
// headers as sent.
func NewResponseSink(w http.ResponseWriter) *ResponseSink {
	return &ResponseSink{ResponseWriter: w}
}

func (s *ResponseSink) WriteHeader(code int) {
	s.sent = true
	s.ResponseWriter.WriteHeader(code)
}

func (s *ResponseSink) Write(b []byte) (int, error) {
	s.sent = true
	return s.ResponseWriter.Write(b)
}

// Sent implements Sink.
func (s *ResponseSink) Sent() bool {
	return s.sent
}

// Names implements Sink.
func (s *ResponseSink) Names() []string {
	h := s.Header()
	names := make([]string, 0, len(h))
	for name := range h {
		names = append(names, name)
	}
	return names
}

// Add implements Sink.
func (s *ResponseSink) Add(name, value string) {
	s.Header().Add(name, value)
}

// Unwrap returns the wrapped writer for http.ResponseController.
func (s *ResponseSink) Unwrap() http.ResponseWriter {
	return s.ResponseWriter
}
