package client

import (
	"bytes"
	"context"
	"crypto/tls"
	"crypto/x509"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"market-cutover/pkg/api"
)

// ErrHTTP is wrapped by every non-2xx response that is not a step outcome.
var ErrHTTP = errors.New("controller returned an error")

// Client talks to the cut-over controller API.
type Client struct {
	base  string
	token string
	http  *http.Client
}

func New(base, token string, hc *http.Client) *Client {
	if hc == nil {
		hc = &http.Client{Timeout: 60 * time.Second}
	}
	return &Client{base: strings.TrimSuffix(base, "/"), token: token, http: hc}
}

// BuildHTTPClient returns a client trusting caFile and presenting the optional client certificate.
func BuildHTTPClient(caFile, certFile, keyFile string, insecure bool) (*http.Client, error) {
	tlsConfig := &tls.Config{InsecureSkipVerify: insecure} //nolint:gosec
	if caFile != "" {
		caData, err := os.ReadFile(caFile)
		if err != nil {
			return nil, fmt.Errorf("read ca file: %w", err)
		}
		pool := x509.NewCertPool()
		if !pool.AppendCertsFromPEM(caData) {
			return nil, fmt.Errorf("no certificates in %s", caFile)
		}
		tlsConfig.RootCAs = pool
	}
	if certFile != "" && keyFile != "" {
		cert, err := tls.LoadX509KeyPair(certFile, keyFile)
		if err != nil {
			return nil, fmt.Errorf("load client cert: %w", err)
		}
		tlsConfig.Certificates = []tls.Certificate{cert}
	}
	return &http.Client{
		Timeout:   60 * time.Second,
		Transport: &http.Transport{TLSClientConfig: tlsConfig},
	}, nil
}

// Step runs one migration step: freeze, validate, test-ui, test-integrations or activate.
func (c *Client) Step(ctx context.Context, name string) (api.StepResponse, error) {
	return c.postStep(ctx, "/api/v1/migration/"+name, nil)
}

func (c *Client) DeleteLegacy(ctx context.Context, approved bool) (api.StepResponse, error) {
	return c.postStep(ctx, "/api/v1/migration/delete-legacy", api.DeleteLegacyRequest{Approved: approved})
}

// postStep decodes the step body for 200, 409 and 422; each carries a StepResponse.
func (c *Client) postStep(ctx context.Context, path string, payload interface{}) (api.StepResponse, error) {
	var out api.StepResponse
	resp, err := c.do(ctx, http.MethodPost, path, payload, nil)
	if err != nil {
		return out, err
	}
	defer resp.Body.Close()
	switch resp.StatusCode {
	case http.StatusOK, http.StatusConflict, http.StatusUnprocessableEntity:
		if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
			return out, fmt.Errorf("decode step response: %w", err)
		}
		return out, nil
	default:
		return out, httpError(resp)
	}
}

// GetJSON fetches path and decodes the body into out.
func (c *Client) GetJSON(ctx context.Context, path string, out interface{}) error {
	resp, err := c.do(ctx, http.MethodGet, path, nil, nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return httpError(resp)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func (c *Client) RestoreSnapshot(ctx context.Context, id, adminKey string) error {
	resp, err := c.do(ctx, http.MethodPost, "/api/v1/snapshots/"+url.PathEscape(id)+"/restore", nil, map[string]string{"X-Admin-Key": adminKey})
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return httpError(resp)
	}
	return nil
}

func (c *Client) DeleteSnapshot(ctx context.Context, id, adminKey string) error {
	resp, err := c.do(ctx, http.MethodDelete, "/api/v1/snapshots/"+url.PathEscape(id), nil, map[string]string{"X-Admin-Key": adminKey})
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusNoContent {
		return httpError(resp)
	}
	return nil
}

func (c *Client) do(ctx context.Context, method, path string, payload interface{}, headers map[string]string) (*http.Response, error) {
	var body io.Reader
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return nil, err
		}
		body = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.base+path, body)
	if err != nil {
		return nil, err
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("X-Auth-Token", c.token)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	return c.http.Do(req)
}

func httpError(resp *http.Response) error {
	msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	return fmt.Errorf("%w: %s: %s", ErrHTTP, resp.Status, strings.TrimSpace(string(msg)))
}
