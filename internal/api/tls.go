package api

import (
	"crypto/tls"
	"fmt"
	"os"
)

// TLSFiles names the certificate and key served by the API.
type TLSFiles struct {
	CertFile string
	KeyFile  string
}

// TLSFromEnv reads DEFUSAL_TLS_CERT and DEFUSAL_TLS_KEY. It returns nil
// unless both are set.
func TLSFromEnv() *TLSFiles {
	cert := os.Getenv("DEFUSAL_TLS_CERT")
	key := os.Getenv("DEFUSAL_TLS_KEY")
	if cert == "" || key == "" {
		return nil
	}
	return &TLSFiles{CertFile: cert, KeyFile: key}
}

// Enabled reports whether both paths are present.
func (f *TLSFiles) Enabled() bool {
	return f != nil && f.CertFile != "" && f.KeyFile != ""
}

// Config loads the key pair. It returns nil, nil when TLS is not enabled.
func (f *TLSFiles) Config() (*tls.Config, error) {
	if !f.Enabled() {
		return nil, nil
	}
	cert, err := tls.LoadX509KeyPair(f.CertFile, f.KeyFile)
	if err != nil {
		return nil, fmt.Errorf("load TLS certificate: %w", err)
	}
	return &tls.Config{
		Certificates: []tls.Certificate{cert},
		MinVersion:   tls.VersionTLS12,
	}, nil
}
