package device

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"sync/atomic"
	"time"

	errs "igdroid/pkg/errors"
	"igdroid/pkg/logger"
)

// agentClient talks to the on-device automation agent over the forwarded
// port: JSON-RPC for input events, a plain GET for hierarchy dumps.
type agentClient struct {
	httpClient *http.Client
	baseURL    string
	logger     logger.Logger
	nextID     atomic.Int64
}

func newAgentClient(baseURL string, timeout time.Duration, log logger.Logger) *agentClient {
	if log == nil {
		log = logger.GetLogger()
	}
	return &agentClient{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		baseURL: baseURL,
		logger:  log,
	}
}

type rpcRequest struct {
	JSONRPC string `json:"jsonrpc"`
	ID      int64  `json:"id"`
	Method  string `json:"method"`
	Params  []any  `json:"params"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type rpcResponse struct {
	Result json.RawMessage `json:"result"`
	Error  *rpcError       `json:"error"`
}

// call performs one JSON-RPC round trip against /jsonrpc/0.
func (c *agentClient) call(ctx context.Context, method string, params ...any) (json.RawMessage, error) {
	if params == nil {
		params = []any{}
	}
	payload, err := json.Marshal(rpcRequest{
		JSONRPC: "2.0",
		ID:      c.nextID.Add(1),
		Method:  method,
		Params:  params,
	})
	if err != nil {
		return nil, errs.Wrap(errs.ErrorTypeUnknown, "agent."+method, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/jsonrpc/0", bytes.NewReader(payload))
	if err != nil {
		return nil, errs.Wrap(errs.ErrorTypeUnknown, "agent."+method, err)
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	duration := time.Since(start)

	if err != nil {
		c.logger.ErrorWithFields("agent call failed", map[string]interface{}{
			"method":   method,
			"error":    err.Error(),
			"duration": duration,
		})
		return nil, errs.Newf(errs.ErrorTypeDevice, "agent."+method, "agent unreachable: %v", err)
	}
	defer resp.Body.Close()

	c.logger.DebugWithFields("agent call completed", map[string]interface{}{
		"method":   method,
		"status":   resp.StatusCode,
		"duration": duration,
	})

	if resp.StatusCode != http.StatusOK {
		return nil, errs.Newf(errs.ErrorTypeDevice, "agent."+method,
			"agent returned status %d", resp.StatusCode)
	}

	var rpcResp rpcResponse
	if err := json.NewDecoder(resp.Body).Decode(&rpcResp); err != nil {
		return nil, errs.Newf(errs.ErrorTypeProbe, "agent."+method, "malformed agent response: %v", err)
	}
	if rpcResp.Error != nil {
		return nil, errs.Newf(errs.ErrorTypeDevice, "agent."+method,
			"agent error %d: %s", rpcResp.Error.Code, rpcResp.Error.Message)
	}
	return rpcResp.Result, nil
}

// Ping checks that the agent answers on the forwarded port.
func (c *agentClient) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/ping", nil)
	if err != nil {
		return errs.Wrap(errs.ErrorTypeUnknown, "agent.Ping", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return errs.Newf(errs.ErrorTypeDevice, "agent.Ping", "agent unreachable: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return errs.Newf(errs.ErrorTypeDevice, "agent.Ping", "agent returned status %d", resp.StatusCode)
	}
	return nil
}

// DumpHierarchy fetches the current UI tree as XML.
func (c *agentClient) DumpHierarchy(ctx context.Context) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/dump/hierarchy", nil)
	if err != nil {
		return nil, errs.Wrap(errs.ErrorTypeUnknown, "agent.DumpHierarchy", err)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, errs.Newf(errs.ErrorTypeDevice, "agent.DumpHierarchy", "agent unreachable: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, errs.Newf(errs.ErrorTypeDevice, "agent.DumpHierarchy",
			"agent returned status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errs.Newf(errs.ErrorTypeDevice, "agent.DumpHierarchy", "reading dump: %v", err)
	}

	c.logger.DebugWithFields("hierarchy dumped", map[string]interface{}{
		"bytes":    len(data),
		"duration": time.Since(start),
	})
	return data, nil
}

// Click taps the screen at the given coordinates.
func (c *agentClient) Click(ctx context.Context, x, y int) error {
	_, err := c.call(ctx, "click", x, y)
	return err
}

// Swipe drags from one point to another over the given number of steps.
// More steps means a slower, more human swipe.
func (c *agentClient) Swipe(ctx context.Context, fromX, fromY, toX, toY, steps int) error {
	_, err := c.call(ctx, "swipe", fromX, fromY, toX, toY, steps)
	return err
}

// PressKey sends a named key event (back, home, enter).
func (c *agentClient) PressKey(ctx context.Context, key string) error {
	_, err := c.call(ctx, "pressKey", key)
	return err
}

// Info describes the connected device as reported by the agent.
type Info struct {
	DisplayWidth   int    `json:"displayWidth"`
	DisplayHeight  int    `json:"displayHeight"`
	SDKInt         int    `json:"sdkInt"`
	CurrentPackage string `json:"currentPackageName"`
	ScreenOn       bool   `json:"screenOn"`
}

// DeviceInfo reads screen geometry and the foreground package.
func (c *agentClient) DeviceInfo(ctx context.Context) (*Info, error) {
	raw, err := c.call(ctx, "deviceInfo")
	if err != nil {
		return nil, err
	}

	var info Info
	if err := json.Unmarshal(raw, &info); err != nil {
		return nil, errs.Newf(errs.ErrorTypeProbe, "agent.DeviceInfo", "malformed device info: %v", err)
	}
	if info.DisplayWidth <= 0 || info.DisplayHeight <= 0 {
		return nil, errs.Newf(errs.ErrorTypeProbe, "agent.DeviceInfo",
			"agent reported %dx%d display", info.DisplayWidth, info.DisplayHeight)
	}
	return &info, nil
}
