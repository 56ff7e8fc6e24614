package device

import (
	"context"
	"fmt"
	"time"

	"igdroid/pkg/config"
	errs "igdroid/pkg/errors"
	"igdroid/pkg/logger"
	"igdroid/pkg/pace"
	"igdroid/pkg/retry"
)

// Point is a screen coordinate in pixels.
type Point struct {
	X, Y int
}

// Element is a matched node from a hierarchy snapshot. Its text and bounds
// are frozen at dump time.
type Element interface {
	// Click taps the element's center point
	Click(ctx context.Context) error

	// Text returns the node text at dump time
	Text() string

	// Desc returns the accessibility description at dump time
	Desc() string

	// Bounds returns the on-screen rectangle at dump time
	Bounds() Bounds
}

type element struct {
	drv    *Driver
	text   string
	desc   string
	bounds Bounds
}

func (e *element) Text() string   { return e.text }
func (e *element) Desc() string   { return e.desc }
func (e *element) Bounds() Bounds { return e.bounds }

func (e *element) Click(ctx context.Context) error {
	if e.bounds == (Bounds{}) {
		return errs.New(errs.ErrorTypeProbe, "device.Click", "element has no usable bounds")
	}
	x, y := e.bounds.Center()
	return e.drv.Click(ctx, x, y)
}

// Driver combines adb and the automation agent into one device handle.
type Driver struct {
	adb     *ADB
	agent   *agentClient
	limiter *pace.Limiter
	logger  logger.Logger
	cfg     config.DeviceConfig

	serial string
	width  int
	height int
}

// Connect attaches to a device: resolves the serial, forwards the agent
// port, waits for the agent to answer and reads the screen geometry.
func Connect(ctx context.Context, cfg config.DeviceConfig, limiter *pace.Limiter, log logger.Logger) (*Driver, error) {
	if log == nil {
		log = logger.GetLogger()
	}
	if limiter == nil {
		limiter = pace.NewLimiter(0, 0)
	}

	adb := NewADB(cfg.ADBPath, cfg.Serial, log)
	serials, err := adb.Devices(ctx)
	if err != nil {
		return nil, err
	}

	serial, err := pickSerial(serials, cfg.Serial)
	if err != nil {
		return nil, err
	}
	adb.serial = serial

	localPort := cfg.LocalPort
	if localPort == 0 {
		localPort = cfg.AgentPort
	}
	if err := adb.Forward(ctx, localPort, cfg.AgentPort); err != nil {
		return nil, err
	}

	agent := newAgentClient(fmt.Sprintf("http://127.0.0.1:%d", localPort), cfg.RequestTimeout, log)

	connectCtx := ctx
	if cfg.ConnectTimeout > 0 {
		var cancel context.CancelFunc
		connectCtx, cancel = context.WithTimeout(ctx, cfg.ConnectTimeout)
		defer cancel()
	}

	attempts := cfg.MaxRetries
	if attempts <= 0 {
		attempts = 1
	}
	err = retry.Do(func() error {
		return agent.Ping(connectCtx)
	}, &retry.Config{
		MaxAttempts: attempts,
		Backoff:     &retry.ConstantBackoff{Delay: cfg.RetryDelay},
		Context:     connectCtx,
		Logger:      log,
	})
	if err != nil {
		return nil, errs.Wrap(errs.ErrorTypeDevice, "device.Connect", err)
	}

	info, err := agent.DeviceInfo(connectCtx)
	if err != nil {
		return nil, err
	}

	log.InfoWithFields("device connected", map[string]interface{}{
		"serial":  serial,
		"display": fmt.Sprintf("%dx%d", info.DisplayWidth, info.DisplayHeight),
		"sdk":     info.SDKInt,
	})

	return &Driver{
		adb:     adb,
		agent:   agent,
		limiter: limiter,
		logger:  log,
		cfg:     cfg,
		serial:  serial,
		width:   info.DisplayWidth,
		height:  info.DisplayHeight,
	}, nil
}

func pickSerial(available []string, want string) (string, error) {
	switch {
	case want != "":
		for _, s := range available {
			if s == want {
				return want, nil
			}
		}
		return "", errs.Newf(errs.ErrorTypeDevice, "device.Connect", "device %s not attached", want)
	case len(available) == 0:
		return "", errs.New(errs.ErrorTypeDevice, "device.Connect", "no devices attached")
	case len(available) > 1:
		return "", errs.Newf(errs.ErrorTypeDevice, "device.Connect",
			"%d devices attached, configure a serial", len(available))
	default:
		return available[0], nil
	}
}

// Serial returns the connected device's serial.
func (d *Driver) Serial() string { return d.serial }

// ScreenSize returns the display size in pixels.
func (d *Driver) ScreenSize() (width, height int) {
	return d.width, d.height
}

func (d *Driver) retryConfig(ctx context.Context) *retry.Config {
	attempts := d.cfg.MaxRetries
	if attempts <= 0 {
		attempts = 1
	}
	return &retry.Config{
		MaxAttempts: attempts,
		Backoff:     retry.DefaultExponentialBackoff(),
		Context:     ctx,
		Logger:      d.logger,
	}
}

// dump fetches and parses a hierarchy snapshot. Dumps are read-only so
// transient agent failures are retried.
func (d *Driver) dump(ctx context.Context) (*hierarchy, error) {
	data, err := retry.DoWithResult(func() ([]byte, error) {
		return d.agent.DumpHierarchy(ctx)
	}, d.retryConfig(ctx))
	if err != nil {
		return nil, err
	}
	return parseHierarchy(data)
}

func (d *Driver) newElement(n *uiNode) Element {
	b, _ := parseBounds(n.BoundsRaw)
	return &element{drv: d, text: n.Text, desc: n.Desc, bounds: b}
}

// FindFirst dumps the hierarchy once and returns the first selector that
// matches. Selector order encodes fallback priority: put the precise
// resource-id first and looser text probes after it.
func (d *Driver) FindFirst(ctx context.Context, sels ...Selector) (Element, bool) {
	h, err := d.dump(ctx)
	if err != nil {
		d.logger.WarnWithFields("hierarchy dump failed", map[string]interface{}{
			"error": err.Error(),
		})
		return nil, false
	}
	for _, sel := range sels {
		if n, ok := h.first(sel); ok {
			return d.newElement(n), true
		}
	}
	return nil, false
}

// Exists reports whether any of the selectors matches the current screen.
func (d *Driver) Exists(ctx context.Context, sels ...Selector) bool {
	_, ok := d.FindFirst(ctx, sels...)
	return ok
}

// All returns every element matching the selector, in document order.
func (d *Driver) All(ctx context.Context, sel Selector) ([]Element, error) {
	h, err := d.dump(ctx)
	if err != nil {
		return nil, err
	}
	nodes := h.find(sel)
	out := make([]Element, 0, len(nodes))
	for _, n := range nodes {
		out = append(out, d.newElement(n))
	}
	return out, nil
}

// WaitFor polls for any of the selectors until one matches or the timeout
// passes. Used after navigation, where the target screen renders with
// variable latency.
func (d *Driver) WaitFor(ctx context.Context, timeout time.Duration, sels ...Selector) (Element, bool) {
	deadline := time.Now().Add(timeout)
	for {
		if el, ok := d.FindFirst(ctx, sels...); ok {
			return el, true
		}
		if time.Now().After(deadline) || ctx.Err() != nil {
			return nil, false
		}
		time.Sleep(400 * time.Millisecond)
	}
}

// Click taps the screen at the given coordinate.
func (d *Driver) Click(ctx context.Context, x, y int) error {
	if err := d.limiter.Wait(ctx); err != nil {
		return err
	}
	return d.agent.Click(ctx, x, y)
}

// Swipe drags between two points. Steps control the swipe speed; the
// agent executes roughly one step per 5ms.
func (d *Driver) Swipe(ctx context.Context, from, to Point, steps int) error {
	if err := d.limiter.Wait(ctx); err != nil {
		return err
	}
	if steps <= 0 {
		steps = 20
	}
	return d.agent.Swipe(ctx, from.X, from.Y, to.X, to.Y, steps)
}

// Back presses the hardware back key.
func (d *Driver) Back(ctx context.Context) error {
	if err := d.limiter.Wait(ctx); err != nil {
		return err
	}
	return d.agent.PressKey(ctx, "back")
}

// OpenURL deep-links a URL on the device.
func (d *Driver) OpenURL(ctx context.Context, url string) error {
	if err := d.limiter.Wait(ctx); err != nil {
		return err
	}
	return d.adb.OpenURL(ctx, url)
}

// AppStart launches an app package.
func (d *Driver) AppStart(ctx context.Context, pkg string) error {
	if err := d.limiter.Wait(ctx); err != nil {
		return err
	}
	return d.adb.AppStart(ctx, pkg)
}

// AppStop force-stops an app package.
func (d *Driver) AppStop(ctx context.Context, pkg string) error {
	return d.adb.AppStop(ctx, pkg)
}

// AppRestart force-stops and relaunches an app, giving it a moment to
// settle in between. Launch verification is the caller's job since only
// it knows which screen to expect.
func (d *Driver) AppRestart(ctx context.Context, pkg string) error {
	if err := d.AppStop(ctx, pkg); err != nil {
		return err
	}
	time.Sleep(1500 * time.Millisecond)
	return d.AppStart(ctx, pkg)
}

// Devices lists attached device serials without connecting.
func Devices(ctx context.Context, adbPath string, log logger.Logger) ([]string, error) {
	return NewADB(adbPath, "", log).Devices(ctx)
}
