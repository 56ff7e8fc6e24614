package config

// Example usage of the configuration system:
//
// 1. Load engine configuration with all sources:
//
//     cfg, err := config.Load("", nil)
//     if err != nil {
//         log.Fatal(err)
//     }
//
// 2. Load with a custom config file:
//
//     cfg, err := config.Load("/path/to/config.yaml", nil)
//     if err != nil {
//         log.Fatal(err)
//     }
//
// 3. Load with command line flags:
//
//     flags := map[string]interface{}{
//         "serial":    "emulator-5554",
//         "db":        "/path/to/discovery.db",
//         "log-level": "debug",
//     }
//     cfg, err := config.Load("", flags)
//
// 4. Load the campaign document handed over by the desktop app. The
//    argument may be a file path, an inline JSON object, or "-" for stdin:
//
//     campaign, err := config.LoadCampaign(os.Args[1], os.Stdin)
//     if err != nil {
//         log.Fatal(err)
//     }
//     campaign.ApplyDefaults(cfg.Limits)
//     campaign.Normalize()
//     if err := campaign.Validate(); err != nil {
//         log.Fatal(err)
//     }
//
// 5. Environment variables:
//
//     export IGDROID_DEVICE_SERIAL="emulator-5554"
//     export IGDROID_ADB_PATH="/usr/local/bin/adb"
//     export IGDROID_AGENT_PORT="7912"
//     export IGDROID_DB_PATH="./discovery.db"
//     export IGDROID_ACTIONS_PER_MINUTE="30"
//     export IGDROID_LOG_LEVEL="debug"
