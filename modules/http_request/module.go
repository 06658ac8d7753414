package http_request

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/specialistvlad/gridflow/internal/ctxlog"
	"github.com/specialistvlad/gridflow/internal/handlers"
	"github.com/specialistvlad/gridflow/internal/node"
)

// Module implements the handlers.Module interface for this package.
type Module struct {
	// Client performs the requests. Defaults to a client with a 30s timeout.
	Client *http.Client
}

// Input defines the params accepted by the http_request function.
type Input struct {
	URL     string
	Method  string
	Body    string
	Timeout time.Duration
}

func decodeInput(spec handlers.Spec) (*Input, error) {
	var in Input
	var err error
	if in.URL, err = spec.String("url", ""); err != nil {
		return nil, err
	}
	if in.Method, err = spec.String("method", http.MethodGet); err != nil {
		return nil, err
	}
	if in.Body, err = spec.String("body", ""); err != nil {
		return nil, err
	}
	if in.Timeout, err = spec.Duration("timeout", 0); err != nil {
		return nil, err
	}
	in.Method = strings.ToUpper(in.Method)
	return &in, nil
}

// New returns the http_request factory using client.
func New(client *http.Client) handlers.Factory {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return func(spec handlers.Spec) (node.ComputeFunc, error) {
		in, err := decodeInput(spec)
		if err != nil {
			return nil, err
		}
		return func(ctx context.Context, input any) (any, error) {
			return do(ctx, client, in, input)
		}, nil
	}
}

// do performs the request. Without a url param, a string input is used as
// the URL.
func do(ctx context.Context, client *http.Client, in *Input, input any) (any, error) {
	target := in.URL
	if target == "" {
		s, ok := input.(string)
		if !ok || s == "" {
			return nil, fmt.Errorf("no url param and the input is not a URL string")
		}
		target = s
	}

	if in.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, in.Timeout)
		defer cancel()
	}

	logger := ctxlog.FromContext(ctx)
	logger.Info("Making HTTP request", "method", in.Method, "url", target)

	var body io.Reader
	if in.Body != "" {
		body = strings.NewReader(in.Body)
	}
	req, err := http.NewRequestWithContext(ctx, in.Method, target, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	logger.Info("Received HTTP response", "status", resp.Status)

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%s %s returned %s", in.Method, target, resp.Status)
	}

	return map[string]any{
		"status_code": resp.StatusCode,
		"body":        string(bodyBytes),
	}, nil
}

// Register registers the handler with the registry.
func (m *Module) Register(h *handlers.Handlers) {
	h.Register("http_request", New(m.Client))
}
