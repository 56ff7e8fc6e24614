package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"igdroid/pkg/license"
	"igdroid/pkg/ui"
)

// licenseCmd represents the license command
var licenseCmd = &cobra.Command{
	Use:   "license",
	Short: "Manage the activation key",
	Long: `Manage the activation key for the discovery engine.

The key is stored using:
  - System keychain (when available)
  - Encrypted file in the config directory
  - IGDROID_LICENSE_KEY environment variable (read-only fallback)`,
}

// licenseStatusCmd represents the license status command
var licenseStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the stored key and plan",
	Run:   runLicenseStatus,
}

// licenseActivateCmd represents the license activate command
var licenseActivateCmd = &cobra.Command{
	Use:   "activate [key]",
	Short: "Store an activation key",
	Long: `Store an activation key in the system keychain or encrypted file.

If no key is given on the command line you will be prompted for one; the
input is hidden as you type.`,
	Example: `  # Prompted, hidden input
  igdroid license activate

  # Key on the command line
  igdroid license activate ABCD-1234-EFGH-5678`,
	Args: cobra.MaximumNArgs(1),
	Run:  runLicenseActivate,
}

// licenseDeactivateCmd represents the license deactivate command
var licenseDeactivateCmd = &cobra.Command{
	Use:   "deactivate",
	Short: "Remove the stored key",
	Run:   runLicenseDeactivate,
}

func init() {
	rootCmd.AddCommand(licenseCmd)
	licenseCmd.AddCommand(licenseStatusCmd)
	licenseCmd.AddCommand(licenseActivateCmd)
	licenseCmd.AddCommand(licenseDeactivateCmd)
}

func runLicenseStatus(cmd *cobra.Command, args []string) {
	manager, err := license.NewManager()
	if err != nil {
		ui.PrintError("Failed to initialize license manager", err.Error())
		os.Exit(1)
	}

	lic, err := manager.StoredKey()
	if err != nil {
		ui.PrintInfo("License", "no key stored")
	} else {
		ui.PrintInfo("Key", license.MaskKey(lic.Key))
		if !lic.ActivatedAt.IsZero() {
			ui.PrintInfo("Activated", lic.ActivatedAt.Format("2006-01-02 15:04:05"))
		}
	}

	validation := manager.Validate()
	ui.PrintInfo("Plan", validation.Plan)
	if validation.Reason != "" {
		ui.PrintInfo("Note", validation.Reason)
	}
}

func runLicenseActivate(cmd *cobra.Command, args []string) {
	manager, err := license.NewManager()
	if err != nil {
		ui.PrintError("Failed to initialize license manager", err.Error())
		os.Exit(1)
	}

	var key string
	if len(args) > 0 {
		key = args[0]
	} else {
		fmt.Fprint(os.Stderr, "Activation key: ")
		key, err = readHidden()
		if err != nil {
			ui.PrintError("Failed to read key", err.Error())
			os.Exit(1)
		}
	}

	if err := manager.Activate(key); err != nil {
		if err == license.ErrInvalidKey {
			ui.PrintError("Invalid key format", "expected XXXX-XXXX-XXXX-XXXX")
		} else {
			ui.PrintError("Failed to store key", err.Error())
		}
		os.Exit(1)
	}

	ui.PrintSuccess("License activated: " + license.MaskKey(license.NormalizeKey(key)))
}

func runLicenseDeactivate(cmd *cobra.Command, args []string) {
	manager, err := license.NewManager()
	if err != nil {
		ui.PrintError("Failed to initialize license manager", err.Error())
		os.Exit(1)
	}

	if _, err := manager.StoredKey(); err != nil {
		ui.PrintInfo("License", "no key stored")
		return
	}

	reader := bufio.NewReader(os.Stdin)
	fmt.Fprint(os.Stderr, "Remove the stored key? (y/N): ")
	input, _ := reader.ReadString('\n')
	if !strings.HasPrefix(strings.ToLower(strings.TrimSpace(input)), "y") {
		return
	}

	if err := manager.Deactivate(); err != nil {
		ui.PrintError("Failed to remove key", err.Error())
		os.Exit(1)
	}
	ui.PrintSuccess("License removed")
}

// readHidden reads a line from stdin without echoing
func readHidden() (string, error) {
	if term.IsTerminal(int(syscall.Stdin)) {
		value, err := term.ReadPassword(int(syscall.Stdin))
		fmt.Fprintln(os.Stderr)
		if err == nil {
			return string(value), nil
		}
	}

	// Fallback to regular input
	reader := bufio.NewReader(os.Stdin)
	input, err := reader.ReadString('\n')
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(input), nil
}
