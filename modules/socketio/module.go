package socketio

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"sync/atomic"
	"time"

	"github.com/specialistvlad/gridflow/internal/ctxlog"
	"github.com/specialistvlad/gridflow/internal/handlers"
	"github.com/specialistvlad/gridflow/internal/node"
	"github.com/zishang520/engine.io-client-go/transports"
	"github.com/zishang520/engine.io/v2/types"
	"github.com/zishang520/socket.io-client-go/socket"
)

// Module implements the handlers.Module interface for this package.
type Module struct{}

// Input defines the params accepted by the socketio function.
type Input struct {
	URL                string
	Namespace          string
	OnEvent            string
	EmitEvent          string
	EmitData           any
	Timeout            time.Duration
	InsecureSkipVerify bool
}

// opResult is a private struct to safely pass results through the done channel.
type opResult struct {
	value any
	err   error
}

func decodeInput(spec handlers.Spec) (*Input, error) {
	var in Input
	var err error
	if in.URL, err = spec.String("url", ""); err != nil {
		return nil, err
	}
	if in.URL == "" {
		return nil, errors.New(`param "url" is required`)
	}
	if in.Namespace, err = spec.String("namespace", "/"); err != nil {
		return nil, err
	}
	if in.OnEvent, err = spec.String("on_event", ""); err != nil {
		return nil, err
	}
	if in.OnEvent == "" {
		return nil, errors.New(`param "on_event" is required`)
	}
	if in.EmitEvent, err = spec.String("emit_event", ""); err != nil {
		return nil, err
	}
	if in.Timeout, err = spec.Duration("timeout", 10*time.Second); err != nil {
		return nil, err
	}
	if in.InsecureSkipVerify, err = spec.Bool("insecure_skip_verify", false); err != nil {
		return nil, err
	}
	in.EmitData, _ = spec.Value("emit_data")
	return &in, nil
}

func factory(spec handlers.Spec) (node.ComputeFunc, error) {
	in, err := decodeInput(spec)
	if err != nil {
		return nil, err
	}
	return func(ctx context.Context, input any) (any, error) {
		call := *in
		if call.EmitData == nil {
			call.EmitData = input
		}
		return Exchange(ctx, &call)
	}, nil
}

// Exchange connects, emits EmitData on EmitEvent once connected, and returns
// the first payload received on OnEvent.
func Exchange(ctx context.Context, input *Input) (any, error) {
	logger := ctxlog.FromContext(ctx).With("runner", "socketio", "url", input.URL, "onEvent", input.OnEvent, "emitEvent", input.EmitEvent)
	logger.Debug("Handler started")
	defer logger.Debug("Handler finished")

	var isConnected atomic.Bool

	// Buffered and written without blocking: the client may report several
	// connect errors while retrying.
	done := make(chan opResult, 1)
	finish := func(r opResult) {
		select {
		case done <- r:
		default:
		}
	}
	opCtx, cancel := context.WithTimeout(ctx, input.Timeout)
	defer cancel()

	parsedURL, err := url.Parse(input.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse URL: %w", err)
	}

	baseURL := fmt.Sprintf("%s://%s", parsedURL.Scheme, parsedURL.Host)
	opts := socket.DefaultOptions()
	if parsedURL.Path != "" {
		opts.SetPath(parsedURL.Path)
	}

	if input.InsecureSkipVerify {
		logger.Warn("Skipping TLS certificate verification")
		opts.SetTLSClientConfig(&tls.Config{InsecureSkipVerify: true})
	}
	opts.SetTransports(types.NewSet(transports.WebSocket))

	manager := socket.NewManager(baseURL, opts)
	io := manager.Socket(input.Namespace, opts)
	defer func() {
		logger.Debug("Disconnecting socket client")
		io.Disconnect()
	}()

	// --- Event Listeners ---
	io.On(types.EventName("connect"), func(...any) {
		isConnected.Store(true)
		logger.Info("Successfully connected", "namespace", input.Namespace, "sid", io.Id())
		if input.EmitEvent != "" {
			jsonData, _ := json.Marshal(input.EmitData)
			logger.Info("Emitting event", "event", input.EmitEvent, "data", string(jsonData))
			io.Emit(input.EmitEvent, input.EmitData)
		}
	})

	io.On(types.EventName("connect_error"), func(errs ...any) {
		err := errors.New("connection failed")
		if len(errs) > 0 {
			if e, ok := errs[0].(error); ok {
				err = e
			}
		}
		finish(opResult{err: err})
	})

	io.On(types.EventName(input.OnEvent), func(data ...any) {
		var responseData any
		if len(data) > 0 {
			responseData = data[0]
		}
		finish(opResult{value: responseData})
	})

	// --- Execution Block ---
	io.Connect()

	select {
	case <-opCtx.Done():
		if isConnected.Load() {
			return nil, fmt.Errorf("timed out after connecting while waiting for event '%s'", input.OnEvent)
		}
		return nil, errors.New("timed out while waiting for initial connection")
	case res := <-done:
		return res.value, res.err
	}
}

// Register registers the handler with the registry.
func (m *Module) Register(h *handlers.Handlers) {
	h.Register("socketio", factory)
}
