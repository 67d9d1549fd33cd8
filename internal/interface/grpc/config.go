package grpcservice

import (
	"crypto/tls"
	"fmt"
	"net"
	"os"
	"path/filepath"

	"golang.org/x/net/http2"
)

const (
	tlsKeyFile  = "key.pem"
	tlsCertFile = "cert.pem"
	tlsFolder   = "tls"
)

type Config struct {
	Datadir string
	Port    uint32
	NoTLS   bool
}

func (c Config) Validate() error {
	lis, err := net.Listen("tcp", c.address())
	if err != nil {
		return fmt.Errorf("invalid port: %s", err)
	}
	// nolint:all
	defer lis.Close()

	if !c.NoTLS {
		tlsDir := c.tlsDatadir()
		if !pathExists(filepath.Join(tlsDir, tlsKeyFile)) ||
			!pathExists(filepath.Join(tlsDir, tlsCertFile)) {
			return fmt.Errorf(
				"tls enabled but %s and %s not found in path %s",
				tlsKeyFile, tlsCertFile, tlsDir,
			)
		}
	}
	return nil
}

func (c Config) insecure() bool {
	return c.NoTLS
}

func (c Config) address() string {
	return fmt.Sprintf(":%d", c.Port)
}

func (c Config) tlsDatadir() string {
	return filepath.Join(c.Datadir, tlsFolder)
}

func (c Config) tlsConfig() (*tls.Config, error) {
	if c.NoTLS {
		return nil, nil
	}

	certificate, err := tls.LoadX509KeyPair(
		filepath.Join(c.tlsDatadir(), tlsCertFile),
		filepath.Join(c.tlsDatadir(), tlsKeyFile),
	)
	if err != nil {
		return nil, err
	}

	return &tls.Config{
		MinVersion:   tls.VersionTLS12,
		NextProtos:   []string{"http/1.1", http2.NextProtoTLS},
		Certificates: []tls.Certificate{certificate},
	}, nil
}

func pathExists(path string) bool {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return false
	}
	return true
}
