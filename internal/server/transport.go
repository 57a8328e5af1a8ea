package server

import (
	"crypto/tls"
	"net/http"
	"time"

	"github.com/quic-go/quic-go/http3"
)

// newTLSConfig returns the client TLS configuration used towards the
// upstream: TLS 1.2 or later with AEAD cipher suites only.
func newTLSConfig(insecure bool) *tls.Config {
	return &tls.Config{
		InsecureSkipVerify: insecure,
		MinVersion:         tls.VersionTLS12,
		CipherSuites: []uint16{
			tls.TLS_ECDHE_RSA_WITH_AES_128_GCM_SHA256,
			tls.TLS_ECDHE_RSA_WITH_AES_256_GCM_SHA384,
			tls.TLS_ECDHE_ECDSA_WITH_AES_128_GCM_SHA256,
			tls.TLS_ECDHE_ECDSA_WITH_AES_256_GCM_SHA384,
			tls.TLS_ECDHE_RSA_WITH_CHACHA20_POLY1305,
			tls.TLS_ECDHE_ECDSA_WITH_CHACHA20_POLY1305,
		},
	}
}

// NewTransport returns the round tripper used to reach the upstream. With
// useHTTP3 the upstream is spoken to over QUIC. The returned transport
// may implement io.Closer.
func NewTransport(insecure, useHTTP3 bool, timeout time.Duration) http.RoundTripper {
	tlsConfig := newTLSConfig(insecure)

	if useHTTP3 {
		tlsConfig.NextProtos = []string{http3.NextProtoH3}
		return &http3.Transport{
			TLSClientConfig: tlsConfig,
		}
	}

	return &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		MaxIdleConns:          100,
		MaxIdleConnsPerHost:   10,
		IdleConnTimeout:       90 * time.Second,
		TLSClientConfig:       tlsConfig,
		TLSHandshakeTimeout:   10 * time.Second,
		ResponseHeaderTimeout: timeout,
	}
}
