package httpsclient

import (
	"encoding/pem"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/ooni/minihttps/internal/httpwire"
	"github.com/ooni/minihttps/internal/model"
	"github.com/ooni/minihttps/internal/netxlite"
	"github.com/ooni/minihttps/internal/runtimex"
	"github.com/ooni/minihttps/internal/testingx"
)

func writeTempFile(t *testing.T, name string, data []byte) string {
	filename := filepath.Join(t.TempDir(), name)
	runtimex.Try0(os.WriteFile(filename, data, 0600))
	return filename
}

func TestConfigBaseHeader(t *testing.T) {
	t.Run("with the zero value", func(t *testing.T) {
		header := (&Config{}).baseHeader()
		expect := []string{"User-Agent", "Accept", "Accept-Encoding"}
		if diff := cmp.Diff(expect, header.Names()); diff != "" {
			t.Fatal(diff)
		}
		if header.Value("User-Agent") != DefaultUserAgent {
			t.Fatal("unexpected User-Agent")
		}
	})

	t.Run("with overrides", func(t *testing.T) {
		config := &Config{
			UserAgent: "miniooni/0.1.0",
			Header:    httpwire.NewHeader("Accept", "text/html", "Cookie", "a=b"),
		}
		header := config.baseHeader()
		if header.Value("User-Agent") != "miniooni/0.1.0" {
			t.Fatal("unexpected User-Agent")
		}
		if header.Value("Accept") != "text/html" || header.Value("Cookie") != "a=b" {
			t.Fatal("headers not merged")
		}
	})
}

func TestLoadConfigFile(t *testing.T) {
	mitm := testingx.MustNewTLSMITMProvider()
	caFile := writeTempFile(t, "ca.pem", pem.EncodeToMemory(&pem.Block{
		Type:  "CERTIFICATE",
		Bytes: mitm.CACert().Raw,
	}))

	t.Run("with a complete file", func(t *testing.T) {
		filename := writeTempFile(t, "config.jsonc", []byte(`{
			// parrot chrome
			"tls_engine": "chrome",
			"tls_version": "TLSv1.3",
			"resolver": "udp://8.8.8.8",
			"user_agent": "minihttps/test",
			"connect_timeout": "3s",
			"handshake_timeout": "4s",
			"read_timeout": "500ms",
			"write_timeout": "1m",
			"headers": {"X-B": "2", "X-A": "1",},
			"ca_file": "` + caFile + `",
		}`))
		fc, err := LoadConfigFile(filename)
		if err != nil {
			t.Fatal(err)
		}
		config, err := fc.NewConfig(nil)
		if err != nil {
			t.Fatal(err)
		}
		if config.UserAgent != "minihttps/test" {
			t.Fatal("unexpected User-Agent")
		}
		if diff := cmp.Diff([]string{"X-A", "X-B"}, config.Header.Names()); diff != "" {
			t.Fatal(diff)
		}
		if config.Stream.ConnectTimeout != 3*time.Second ||
			config.Stream.HandshakeTimeout != 4*time.Second ||
			config.Stream.ReadTimeout != 500*time.Millisecond ||
			config.Stream.WriteTimeout != time.Minute {
			t.Fatalf("unexpected timeouts: %+v", config.Stream)
		}
		if config.Stream.Engine.Name() != "utls_chrome" {
			t.Fatal("unexpected engine", config.Stream.Engine.Name())
		}
		if config.Stream.Resolver.Network() != "udp" || config.Stream.Resolver.Address() != "8.8.8.8:53" {
			t.Fatal("unexpected resolver")
		}
		if config.Stream.RootCAs == nil {
			t.Fatal("expected root CAs")
		}
		if config.Stream.TLSVersion != "TLSv1.3" {
			t.Fatal("unexpected TLS version")
		}
		if config.Logger != model.DiscardLogger {
			t.Fatal("unexpected logger")
		}
	})

	t.Run("with an empty object", func(t *testing.T) {
		fc, err := LoadConfigFile(writeTempFile(t, "config.jsonc", []byte(`{}`)))
		if err != nil {
			t.Fatal(err)
		}
		config, err := fc.NewConfig(model.DiscardLogger)
		if err != nil {
			t.Fatal(err)
		}
		if config.Stream.Engine.Name() != "stdlib" {
			t.Fatal("unexpected engine")
		}
		if config.Stream.Resolver.Network() != "system" {
			t.Fatal("unexpected resolver")
		}
		if config.Stream.RootCAs != nil {
			t.Fatal("expected nil root CAs")
		}
	})

	t.Run("with a nonexistent file", func(t *testing.T) {
		_, err := LoadConfigFile(filepath.Join(t.TempDir(), "nonexistent.jsonc"))
		if !errors.Is(err, os.ErrNotExist) {
			t.Fatal("not the error we expected", err)
		}
	})

	t.Run("with invalid JSON", func(t *testing.T) {
		_, err := LoadConfigFile(writeTempFile(t, "config.jsonc", []byte(`{"tls_engine":`)))
		if err == nil {
			t.Fatal("expected an error")
		}
	})

	t.Run("with invalid settings", func(t *testing.T) {
		tests := []struct {
			name    string
			fc      FileConfig
			wantErr error
		}{{
			name:    "unknown engine",
			fc:      FileConfig{TLSEngine: "netscape"},
			wantErr: netxlite.ErrUnknownParrot,
		}, {
			name:    "unsupported resolver",
			fc:      FileConfig{Resolver: "https://dns.google/dns-query"},
			wantErr: netxlite.ErrUnsupportedResolverURL,
		}, {
			name:    "CA file without certificates",
			fc:      FileConfig{CAFile: writeTempFile(t, "empty.pem", []byte("nothing here"))},
			wantErr: ErrNoCertificates,
		}, {
			name:    "nonexistent CA file",
			fc:      FileConfig{CAFile: filepath.Join(t.TempDir(), "nonexistent.pem")},
			wantErr: os.ErrNotExist,
		}}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				config, err := tt.fc.NewConfig(nil)
				if !errors.Is(err, tt.wantErr) {
					t.Fatal("not the error we expected", err)
				}
				if config != nil {
					t.Fatal("expected nil config")
				}
			})
		}

		t.Run("invalid duration", func(t *testing.T) {
			fc := FileConfig{ReadTimeout: "forever"}
			if _, err := fc.NewConfig(nil); err == nil {
				t.Fatal("expected an error")
			}
		})
	})
}
