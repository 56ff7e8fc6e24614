package device

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"

	errs "igdroid/pkg/errors"
	"igdroid/pkg/logger"
)

// ADB wraps the adb binary for the handful of host-side operations the
// driver needs: device listing, port forwarding and app lifecycle shells.
type ADB struct {
	path   string
	serial string
	logger logger.Logger
}

// NewADB creates an adb wrapper. An empty path resolves from $PATH and an
// empty serial targets the only attached device.
func NewADB(path, serial string, log logger.Logger) *ADB {
	if path == "" {
		path = "adb"
	}
	if log == nil {
		log = logger.GetLogger()
	}
	return &ADB{path: path, serial: serial, logger: log}
}

// command runs adb without a serial argument. Used for host-level
// subcommands like `adb devices`.
func (a *ADB) command(ctx context.Context, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, a.path, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	err := cmd.Run()
	duration := time.Since(start)

	a.logger.DebugWithFields("adb command completed", map[string]interface{}{
		"args":     strings.Join(args, " "),
		"duration": duration,
		"ok":       err == nil,
	})

	if err != nil {
		detail := strings.TrimSpace(stderr.String())
		if detail == "" {
			detail = err.Error()
		}
		return "", errs.Newf(errs.ErrorTypeDevice, "adb",
			"adb %s failed: %s", strings.Join(args, " "), detail)
	}
	return stdout.String(), nil
}

// run runs adb against the configured device.
func (a *ADB) run(ctx context.Context, args ...string) (string, error) {
	if a.serial != "" {
		args = append([]string{"-s", a.serial}, args...)
	}
	return a.command(ctx, args...)
}

// Devices returns the serials of attached devices in the `device` state.
// Unauthorized and offline entries are skipped.
func (a *ADB) Devices(ctx context.Context) ([]string, error) {
	out, err := a.command(ctx, "devices")
	if err != nil {
		return nil, err
	}

	var serials []string
	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "List of devices") || strings.HasPrefix(line, "*") {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) >= 2 && fields[1] == "device" {
			serials = append(serials, fields[0])
		}
	}
	return serials, nil
}

// Shell runs a shell command on the device.
func (a *ADB) Shell(ctx context.Context, args ...string) (string, error) {
	return a.run(ctx, append([]string{"shell"}, args...)...)
}

// Forward maps a host TCP port to a device TCP port.
func (a *ADB) Forward(ctx context.Context, localPort, devicePort int) error {
	_, err := a.run(ctx, "forward",
		fmt.Sprintf("tcp:%d", localPort), fmt.Sprintf("tcp:%d", devicePort))
	return err
}

// AppStop force-stops the given package.
func (a *ADB) AppStop(ctx context.Context, pkg string) error {
	_, err := a.Shell(ctx, "am", "force-stop", pkg)
	return err
}

// AppStart launches the given package's main activity.
func (a *ADB) AppStart(ctx context.Context, pkg string) error {
	out, err := a.Shell(ctx, "monkey", "-p", pkg, "-c", "android.intent.category.LAUNCHER", "1")
	if err != nil {
		return err
	}
	// monkey exits 0 even when the package does not resolve
	if strings.Contains(out, "No activities found") || strings.Contains(out, "monkey aborted") {
		return errs.Newf(errs.ErrorTypeLaunch, "adb.AppStart", "package %s did not launch", pkg)
	}
	return nil
}

// OpenURL fires a VIEW intent for the URL. With the Instagram app
// installed this deep-links post and reel URLs straight into the app.
func (a *ADB) OpenURL(ctx context.Context, url string) error {
	out, err := a.Shell(ctx, "am", "start", "-a", "android.intent.action.VIEW", "-d", url)
	if err != nil {
		return err
	}
	if strings.Contains(out, "Error:") {
		return errs.Newf(errs.ErrorTypeNavigation, "adb.OpenURL",
			"intent for %s failed: %s", url, strings.TrimSpace(out))
	}
	return nil
}

// ScreenOn wakes the device so taps land on the UI instead of the
// lock screen dismiss area.
func (a *ADB) ScreenOn(ctx context.Context) error {
	_, err := a.Shell(ctx, "input", "keyevent", "KEYCODE_WAKEUP")
	return err
}
