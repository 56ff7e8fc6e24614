package main

import (
	"context"
	"os"
	"os/signal"
	"slices"
	"syscall"

	"github.com/spf13/cobra"

	"igdroid/internal/screens"
	"igdroid/pkg/bridge"
	"igdroid/pkg/config"
	"igdroid/pkg/device"
	errs "igdroid/pkg/errors"
	"igdroid/pkg/license"
	"igdroid/pkg/logger"
	"igdroid/pkg/pace"
	"igdroid/pkg/scrape"
	"igdroid/pkg/store"
)

var dryRun bool

// runCmd represents the run command
var runCmd = &cobra.Command{
	Use:   "run <campaign>",
	Short: "Execute a discovery campaign",
	Long: `Execute a discovery campaign against the connected device.

The campaign argument is a JSON document naming the sources to crawl and
the limits that bound the crawl. It may be a file path, an inline JSON
object, or "-" to read the document from stdin.

Events are written to stdout as one JSON object per line; logs go to
stderr. The exit code reports the failure class:

  0  completed (or interrupted; partial results are persisted)
  1  invalid configuration or campaign
  2  license rejected
  3  device or automation agent unreachable
  4  Instagram app failed to launch
  5  workflow failure`,
	Example: `  # Run a campaign from a file
  igdroid run campaign.json

  # Stream the campaign document from the spawning process
  igdroid run - < campaign.json

  # Validate the campaign, database and device without scraping
  igdroid run campaign.json --dry-run`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		os.Exit(int(runCampaign(args[0])))
	},
}

func init() {
	rootCmd.AddCommand(runCmd)
	runCmd.Flags().BoolVar(&dryRun, "dry-run", false, "validate the campaign, database and device without scraping")
}

// runCampaign wires the engine together and returns the process exit code.
// Failures before the runner starts are reported here; once Run is going,
// the runner emits its own error events.
func runCampaign(arg string) bridge.ExitCode {
	cfg, err := config.Load(configFile, globalFlags())
	if err != nil {
		// No campaign ID yet; the event still frames the failure for the
		// spawning app.
		bridge.NewEmitter(os.Stdout, "").Error(bridge.ExitValidation, err.Error())
		return bridge.ExitValidation
	}

	if err := logger.Initialize(&cfg.Logging); err != nil {
		bridge.NewEmitter(os.Stdout, "").Error(bridge.ExitValidation, err.Error())
		return bridge.ExitValidation
	}
	log := logger.GetLogger()

	campaign, err := config.LoadCampaign(arg, os.Stdin)
	if err != nil {
		bridge.NewEmitter(os.Stdout, "").Error(bridge.ExitValidation, err.Error())
		return bridge.ExitValidation
	}
	campaign.ApplyDefaults(cfg.Limits)
	campaign.Normalize()
	if err := campaign.Validate(); err != nil {
		bridge.NewEmitter(os.Stdout, campaign.ID).Error(bridge.ExitValidation, err.Error())
		return bridge.ExitValidation
	}
	if dryRun {
		campaign.Options.DryRun = true
	}

	emitter := bridge.NewEmitter(os.Stdout, campaign.ID)

	lic, err := license.NewManager()
	if err != nil {
		err = errs.Wrap(errs.ErrorTypeLicense, "cmd.run", err)
		emitter.Error(bridge.ExitLicense, err.Error())
		return bridge.ExitLicense
	}

	st, err := store.Open(cfg.Database.Path, cfg.Database.BusyTimeout)
	if err != nil {
		err = errs.Wrap(errs.ErrorTypeWorkflow, "cmd.run", err)
		emitter.Error(bridge.ExitWorkflow, err.Error())
		return bridge.ExitWorkflow
	}
	defer st.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if campaign.Options.DryRun {
		return dryRunCheck(ctx, cfg, campaign, emitter, log)
	}

	limiter := pace.NewLimiter(cfg.Pacing.ActionsPerMinute, cfg.Pacing.Burst)
	driver, err := device.Connect(ctx, cfg.Device, limiter, log)
	if err != nil {
		code := bridge.ExitCodeFor(err)
		emitter.Error(code, err.Error())
		return code
	}

	scr := screens.New(driver, cfg.App.Package, log)
	runner := scrape.NewRunner(cfg, campaign, scr, st, lic, emitter, log)

	return bridge.ExitCodeFor(runner.Run(ctx))
}

// dryRunCheck verifies everything a run needs without driving the UI: the
// campaign parsed, the database opened, and a device answers adb.
func dryRunCheck(ctx context.Context, cfg *config.Config, campaign *config.Campaign, emitter *bridge.Emitter, log logger.Logger) bridge.ExitCode {
	serials, err := device.Devices(ctx, cfg.Device.ADBPath, log)
	if err != nil {
		emitter.Error(bridge.ExitConnect, err.Error())
		return bridge.ExitConnect
	}
	if len(serials) == 0 {
		err := errs.New(errs.ErrorTypeDevice, "cmd.dryRun", "no devices connected")
		emitter.Error(bridge.ExitConnect, err.Error())
		return bridge.ExitConnect
	}
	if cfg.Device.Serial != "" && !slices.Contains(serials, cfg.Device.Serial) {
		err := errs.Newf(errs.ErrorTypeDevice, "cmd.dryRun", "device %s not connected", cfg.Device.Serial)
		emitter.Error(bridge.ExitConnect, err.Error())
		return bridge.ExitConnect
	}

	log.InfoWithFields("Dry run passed", map[string]interface{}{
		"campaign": campaign.ID,
		"sources":  campaign.Sources.Total(),
		"devices":  len(serials),
	})
	emitter.Status(bridge.StatusCompleted, "dry run: campaign, database and device all check out")
	return bridge.ExitOK
}
