package main

import (
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/mlsorensen/goftms"
	"github.com/mlsorensen/goftms/internal/observability"
	"github.com/mlsorensen/goftms/pkg/ftms"
	_ "github.com/mlsorensen/goftms/pkg/machines/all"
	"github.com/mlsorensen/goftms/pkg/machines/standard"
)

var (
	rootCmd = &cobra.Command{
		Use:   "scanner",
		Short: "Scan for Bluetooth fitness machines",
		Long: "scanner lists nearby machines whose name matches a registered or given prefix, " +
			"or that advertise the Fitness Machine Service.",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := observability.SetupLogger(logLevel, false); err != nil {
				return err
			}
			if configPath != "" {
				cfg, err := ftms.LoadConfig(configPath)
				if err != nil {
					return err
				}
				if err := standard.RegisterConfig(cfg); err != nil {
					return err
				}
			}
			return runScan()
		},
	}

	duration   time.Duration
	prefixes   []string
	configPath string
	logLevel   string
)

func init() {
	rootCmd.Flags().DurationVar(&duration, "duration", 15*time.Second, "how long to scan")
	rootCmd.Flags().StringSliceVar(&prefixes, "prefix", nil, "device name prefixes to match (default: registered prefixes)")
	rootCmd.Flags().StringVar(&configPath, "config", "", "TOML dialect file registering extra device prefixes")
	rootCmd.Flags().StringVar(&logLevel, "log-level", "info", "log level")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		logrus.Fatal(err)
	}
}

func runScan() error {
	logrus.Infof("Starting BLE scan for %s. Turn on your machine now.", duration)

	devices, err := goftms.Scan(duration, prefixes...)
	if err != nil {
		return fmt.Errorf("scan failed: %w", err)
	}

	if len(devices) == 0 {
		logrus.Info("Scan complete. No supported devices found.")
		return nil
	}

	fmt.Println("\n--- Found Supported Devices ---")
	for i, device := range devices {
		dialect := "-"
		if machine, err := goftms.NewMachineForDevice(&device); err == nil {
			dialect = machine.Dialect().Name
		}
		fmt.Printf("%d: Name:    %s\n", i+1, device.Name)
		fmt.Printf("   ID:      %s\n", device.ID)
		fmt.Printf("   RSSI:    %d\n", device.RSSI)
		fmt.Printf("   Dialect: %s\n\n", dialect)
	}
	fmt.Println("-----------------------------")
	return nil
}
