package clients

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/pkg/errors"
	"golang.org/x/time/rate"

	"islandora-handle-backend/internal/domain/models"
	"islandora-handle-backend/internal/domain/ports"
)

// HandleConfig holds configuration for the handle service client
type HandleConfig struct {
	Endpoint          string        `yaml:"endpoint" env:"HANDLE_ENDPOINT"`
	Prefix            string        `yaml:"prefix" env:"HANDLE_PREFIX"`
	Username          string        `yaml:"username" env:"HANDLE_USERNAME"`
	Password          string        `yaml:"password" env:"HANDLE_PASSWORD"`
	RequestTimeout    time.Duration `yaml:"request_timeout" env:"HANDLE_REQUEST_TIMEOUT"`
	RequestsPerSecond float64       `yaml:"requests_per_second" env:"HANDLE_REQUESTS_PER_SECOND"`
	Retry             RetryConfig   `yaml:"retry"`
	TLS               TLSConfig     `yaml:"tls"`
}

// RetryConfig holds transport retry configuration
type RetryConfig struct {
	InitialInterval time.Duration `yaml:"initial_interval"`
	MaxElapsedTime  time.Duration `yaml:"max_elapsed_time"`
}

// TLSConfig holds TLS configuration
type TLSConfig struct {
	Enabled            bool   `yaml:"enabled"`
	CertFile           string `yaml:"cert_file"`
	KeyFile            string `yaml:"key_file"`
	CAFile             string `yaml:"ca_file"`
	InsecureSkipVerify bool   `yaml:"insecure_skip_verify"`
}

// handleClient implements the HandleService port against a
// Handle.net-compatible REST resolver
type handleClient struct {
	http    *http.Client
	config  HandleConfig
	limiter *rate.Limiter
}

// NewHandleClient creates a new handle service client
func NewHandleClient(config HandleConfig) (ports.HandleService, error) {
	// Set default values
	if config.RequestTimeout == 0 {
		config.RequestTimeout = 30 * time.Second
	}
	if config.RequestsPerSecond == 0 {
		config.RequestsPerSecond = 10
	}
	if config.Retry.InitialInterval == 0 {
		config.Retry.InitialInterval = 500 * time.Millisecond
	}
	if config.Retry.MaxElapsedTime == 0 {
		config.Retry.MaxElapsedTime = 15 * time.Second
	}

	transport := &http.Transport{}
	if config.TLS.Enabled {
		tlsConfig := &tls.Config{
			InsecureSkipVerify: config.TLS.InsecureSkipVerify,
		}

		// Load client certificate if provided
		if config.TLS.CertFile != "" && config.TLS.KeyFile != "" {
			cert, err := tls.LoadX509KeyPair(config.TLS.CertFile, config.TLS.KeyFile)
			if err != nil {
				return nil, fmt.Errorf("failed to load client certificate: %w", err)
			}
			tlsConfig.Certificates = []tls.Certificate{cert}
		}

		// Load CA certificate if provided
		if config.TLS.CAFile != "" {
			caCert, err := os.ReadFile(config.TLS.CAFile)
			if err != nil {
				return nil, fmt.Errorf("failed to read CA certificate: %w", err)
			}

			caCertPool := x509.NewCertPool()
			if !caCertPool.AppendCertsFromPEM(caCert) {
				return nil, fmt.Errorf("failed to add CA certificate to pool")
			}
			tlsConfig.RootCAs = caCertPool
		}

		transport.TLSClientConfig = tlsConfig
	}

	return &handleClient{
		http:    &http.Client{Transport: transport},
		config:  config,
		limiter: rate.NewLimiter(rate.Limit(config.RequestsPerSecond), 1),
	}, nil
}

// CanonicalURL returns the resolvable handle URL for a pid. Pure string
// construction; no network call.
func (c *handleClient) CanonicalURL(pid string) string {
	return fmt.Sprintf("http://hdl.handle.net/%s/%s", c.config.Prefix, pid)
}

// Exists reports whether a handle has been minted for the pid
func (c *handleClient) Exists(ctx context.Context, pid string) (bool, error) {
	resp, err := c.do(ctx, http.MethodHead, pid)
	if err != nil {
		return false, err
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK, http.StatusNoContent:
		return true, nil
	case http.StatusNotFound:
		return false, nil
	default:
		return false, errors.Errorf("unexpected status %d checking handle for %s", resp.StatusCode, pid)
	}
}

// Create asks the resolver to mint a handle for the pid. The response code
// and any error body are returned verbatim; the caller decides what counts
// as success.
func (c *handleClient) Create(ctx context.Context, pid string) (*models.HandleResponse, error) {
	resp, err := c.do(ctx, http.MethodPut, pid)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	return c.toHandleResponse(resp, http.StatusCreated), nil
}

// Delete asks the resolver to drop the handle for the pid
func (c *handleClient) Delete(ctx context.Context, pid string) (*models.HandleResponse, error) {
	resp, err := c.do(ctx, http.MethodDelete, pid)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	return c.toHandleResponse(resp, http.StatusNoContent), nil
}

// do issues one rate-limited request with transport-level retries. Any
// HTTP response, whatever its code, ends the retry loop: response-code
// policy belongs to the caller.
func (c *handleClient) do(ctx context.Context, method, pid string) (*http.Response, error) {
	// Create context with timeout
	ctx, cancel := context.WithTimeout(ctx, c.config.RequestTimeout)
	defer cancel()

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, errors.Wrap(err, "handle client rate limiter")
	}

	var resp *http.Response
	operation := func() error {
		req, err := http.NewRequestWithContext(ctx, method, c.handleURL(pid), nil)
		if err != nil {
			return backoff.Permanent(err)
		}
		if c.config.Username != "" {
			req.SetBasicAuth(c.config.Username, c.config.Password)
		}

		r, err := c.http.Do(req)
		if err != nil {
			return err
		}
		resp = r
		return nil
	}

	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = c.config.Retry.InitialInterval
	policy.MaxElapsedTime = c.config.Retry.MaxElapsedTime

	if err := backoff.Retry(operation, backoff.WithContext(policy, ctx)); err != nil {
		return nil, errors.Wrapf(err, "handle service %s for %s", method, pid)
	}
	return resp, nil
}

// handleURL builds the resolver's resource URL for a pid
func (c *handleClient) handleURL(pid string) string {
	return fmt.Sprintf("%s/%s/%s",
		strings.TrimRight(c.config.Endpoint, "/"),
		c.config.Prefix,
		url.PathEscape(pid))
}

// toHandleResponse packages the status code with the error body the
// resolver reported on anything but the expected code
func (c *handleClient) toHandleResponse(resp *http.Response, expected int) *models.HandleResponse {
	out := &models.HandleResponse{Code: resp.StatusCode}
	if resp.StatusCode == expected {
		return out
	}
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	out.Error = strings.TrimSpace(string(body))
	if out.Error == "" {
		out.Error = resp.Status
	}
	return out
}

// DefaultHandleConfig returns default configuration for the handle client
func DefaultHandleConfig() HandleConfig {
	return HandleConfig{
		Endpoint:          "http://localhost:8000/handle-service",
		Prefix:            "1234",
		RequestTimeout:    30 * time.Second,
		RequestsPerSecond: 10,
		Retry: RetryConfig{
			InitialInterval: 500 * time.Millisecond,
			MaxElapsedTime:  15 * time.Second,
		},
		TLS: TLSConfig{
			Enabled: false,
		},
	}
}
