package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/mlsorensen/goftms"
	"github.com/mlsorensen/goftms/internal/observability"

	// This tells the Go compiler to include the package, which runs its init()
	// function. The init() function, in turn, calls goftms.Register(). You can
	// specify specific machines individually or just "all"
	_ "github.com/mlsorensen/goftms/pkg/machines/all"
)

var (
	rootCmd = &cobra.Command{
		Use:   "mockmachine",
		Short: "Stream metrics from a simulated fitness machine",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := observability.SetupLogger(logLevel, jsonLogs); err != nil {
				return err
			}
			return run()
		},
	}

	deviceName  string
	metricsAddr string
	logLevel    string
	jsonLogs    bool
)

func init() {
	rootCmd.Flags().StringVar(&deviceName, "device", "MOCK-Development-Machine", "device name used to select the implementation")
	rootCmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address, e.g. :9000")
	rootCmd.Flags().StringVar(&logLevel, "log-level", "info", "log level")
	rootCmd.Flags().BoolVar(&jsonLogs, "json", false, "log as JSON")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		logrus.Fatal(err)
	}
}

func run() error {
	if metricsAddr != "" {
		go func() {
			if err := observability.StartMetricsServer(metricsAddr); err != nil {
				logrus.WithError(err).Error("metrics server stopped")
			}
		}()
	}

	// In a real program the device would come from goftms.Scan. The mock
	// registers the "MOCK" prefix.
	device := &goftms.FoundDevice{Name: deviceName}
	machine, err := goftms.NewMachineForDevice(device)
	if err != nil {
		return err
	}
	logrus.WithFields(logrus.Fields{
		"machine": machine.DisplayName(),
		"dialect": machine.Dialect().Name,
	}).Info("created machine instance")

	// --- Set up graceful shutdown ---
	go func() {
		sigchan := make(chan os.Signal, 1)
		signal.Notify(sigchan, syscall.SIGINT, syscall.SIGTERM)
		<-sigchan
		logrus.Info("Shutdown signal received. Disconnecting...")
		_ = machine.Disconnect()
	}()

	updates, err := machine.Connect()
	if err != nil {
		_ = machine.Disconnect()
		return err
	}
	logrus.Info("Connection successful. Listening for metrics...")

	// The channel is closed by the implementation when it disconnects.
	for update := range updates {
		if update.Error != nil {
			logrus.WithError(update.Error).Warn("error received on update channel")
			continue
		}
		logrus.Info(update.Metrics.String())
	}

	logrus.Info("Update channel closed. Connection terminated.")
	return nil
}
