package goftms

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/mlsorensen/goftms/pkg/ftms"
	"github.com/sirupsen/logrus"
	"tinygo.org/x/bluetooth"
)

// FoundDevice is a machine seen during a scan.
type FoundDevice struct {
	Name    string
	ID      string
	Address bluetooth.Address
	RSSI    int
}

// BTAdapter is the adapter every driver connects through.
var BTAdapter = bluetooth.DefaultAdapter

var (
	adapterLock    sync.Mutex
	adapterEnabled bool
)

// ErrNoDeviceFound is returned by ScanForOne when the scan times out empty-handed.
var ErrNoDeviceFound = errors.New("no matching device found")

// TryEnableAdapter enables the Bluetooth adapter unless a previous call already did.
func TryEnableAdapter() error {
	adapterLock.Lock()
	defer adapterLock.Unlock()

	if adapterEnabled {
		return nil
	}
	logrus.Debug("enabling Bluetooth adapter")
	if err := BTAdapter.Enable(); err != nil {
		return err
	}
	adapterEnabled = true
	return nil
}

// ScanStream returns a channel that streams FoundDevice as they are discovered
// and stops scanning when the context is canceled. A device matches when its
// name starts with one of the prefixes. Without custom prefixes, any device
// advertising the Fitness Machine Service matches as well.
func ScanStream(ctx context.Context, customPrefixes ...string) (<-chan FoundDevice, error) {
	if err := TryEnableAdapter(); err != nil {
		return nil, err
	}

	deviceChan := make(chan FoundDevice)
	prefixesToScan := getPrefixes(customPrefixes...)
	logrus.WithField("prefixes", prefixesToScan).Info("starting BLE scan")

	seen := make(map[string]bool)
	mu := sync.Mutex{}

	handler := func(adapter *bluetooth.Adapter, result bluetooth.ScanResult) {
		name := result.LocalName()
		advertisesFTMS := len(customPrefixes) == 0 && result.HasServiceUUID(ftms.FitnessMachineServiceUUID)
		if !matches(name, advertisesFTMS, prefixesToScan) {
			return
		}

		id := result.Address.String()
		mu.Lock()
		dup := seen[id]
		seen[id] = true
		mu.Unlock()
		if dup {
			return
		}

		select {
		case deviceChan <- FoundDevice{Name: name, ID: id, Address: result.Address, RSSI: int(result.RSSI)}:
		case <-ctx.Done():
		}
	}

	go func() {
		defer close(deviceChan)
		if err := BTAdapter.Scan(handler); err != nil {
			logrus.WithError(err).Error("scan failed")
		}
	}()

	go func() {
		<-ctx.Done()
		if err := BTAdapter.StopScan(); err != nil {
			logrus.WithError(err).Warn("failed to stop scan cleanly")
		}
	}()

	return deviceChan, nil
}

// Scan finds matching devices, blocking for duration.
func Scan(duration time.Duration, customPrefixes ...string) ([]FoundDevice, error) {
	ctx, cancel := context.WithTimeout(context.Background(), duration)
	defer cancel()

	devices, err := ScanStream(ctx, customPrefixes...)
	if err != nil {
		return nil, err
	}

	var results []FoundDevice
	for device := range devices {
		logrus.WithFields(logrus.Fields{"name": device.Name, "id": device.ID}).Info("found a match")
		results = append(results, device)
	}

	logrus.WithField("count", len(results)).Info("scan finished")
	return results, nil
}

// ScanForOne returns the first matching device seen within duration.
func ScanForOne(duration time.Duration, customPrefixes ...string) (*FoundDevice, error) {
	ctx, cancel := context.WithTimeout(context.Background(), duration)
	defer cancel()

	devices, err := ScanStream(ctx, customPrefixes...)
	if err != nil {
		return nil, err
	}

	device, ok := <-devices
	cancel()
	// drain until the scan goroutine closes the channel
	for range devices {
	}
	if !ok {
		return nil, ErrNoDeviceFound
	}
	return &device, nil
}

func matches(name string, advertisesFTMS bool, prefixes []string) bool {
	if advertisesFTMS {
		return true
	}
	if name == "" {
		return false
	}
	for _, prefix := range prefixes {
		if prefix != "" && strings.HasPrefix(name, prefix) {
			return true
		}
	}
	return false
}

// getPrefixes returns the custom prefixes if any, otherwise every registered prefix.
func getPrefixes(customPrefixes ...string) []string {
	if len(customPrefixes) > 0 {
		return customPrefixes
	}
	regLock.RLock()
	defer regLock.RUnlock()
	keys := make([]string, 0, len(registry))
	for k := range registry {
		keys = append(keys, k)
	}
	return keys
}
