package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var installCmd = &cobra.Command{
	Use:   "install",
	Short: "Write settings.yaml and reload a running server",
	Long: `Writes the resolved settings (settings.yaml, environment and flags) back to
settings.yaml in $ALGOSCOPE_HOME (default ~/.algoscope). If a server started by
"algoscope serve" is running, it is sent SIGHUP so it picks up the new catalog,
strict mode, CORS origins and log level.

Example:
  algoscope install --catalog-db ~/.algoscope/catalog.db --strict --log-format json`,
	Args: cobra.NoArgs,
	RunE: runInstall,
}

func init() {
	installCmd.Flags().StringVar(&listenAddr, "listen-addr", "", "TCP listen address")
	installCmd.Flags().StringVar(&logFormat, "log-format", "", "log format: text or json")
	installCmd.Flags().StringSliceVar(&corsOrigins, "cors-origins", nil, "allowed CORS origins")
}

func runInstall(cmd *cobra.Command, _ []string) error {
	path, err := writeSettings(cfg)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Config written to %s\n", path)

	if pid, ok := signalRunningServer(); ok {
		fmt.Fprintf(cmd.OutOrStdout(), "Signaled running server (PID %d) to reload configuration\n", pid)
	} else {
		fmt.Fprintln(cmd.OutOrStdout(), `Run "algoscope serve" to start the server`)
	}
	return nil
}

func writeSettings(c Config) (string, error) {
	if err := os.MkdirAll(algoscopeDir(), 0o700); err != nil {
		return "", fmt.Errorf("create %s: %w", algoscopeDir(), err)
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return "", fmt.Errorf("encode settings: %w", err)
	}
	path := settingsPath()
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("write %s: %w", path, err)
	}
	return path, nil
}

// signalRunningServer sends SIGHUP to the server named in the pid file.
// Returns false if no live server was found.
func signalRunningServer() (int, bool) {
	data, err := os.ReadFile(pidPath())
	if err != nil {
		return 0, false
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil {
		return 0, false
	}
	proc, err := os.FindProcess(pid)
	if err != nil {
		return 0, false
	}
	if err := proc.Signal(syscall.Signal(0)); err != nil {
		return 0, false
	}
	if err := proc.Signal(syscall.SIGHUP); err != nil {
		return 0, false
	}
	return pid, true
}
