// Package standard drives any Bluetooth fitness machine that exposes the
// Fitness Machine Service. The wire dialect is configuration: pick a built-in
// ftms layout or register devices from a dialect file with RegisterConfig.
package standard

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/mlsorensen/goftms"
	"github.com/mlsorensen/goftms/internal/observability"
	"github.com/mlsorensen/goftms/pkg/ftms"
	"github.com/sirupsen/logrus"
	"tinygo.org/x/bluetooth"
)

func init() {
	// the empty prefix matches every name and loses to any longer prefix
	goftms.Register("", Factory(Options{}))
}

const defaultIdleTimeout = 5 * time.Second

// Options selects how a machine's notifications are decoded.
type Options struct {
	Dialect        ftms.Layout    // defaults to ftms.CrossTrainer
	Characteristic bluetooth.UUID // defaults to the dialect's usual data characteristic
	DisplayName    string
	IdleTimeout    time.Duration // disconnect when notifications stop; defaults to 5s
}

// This line is the compile-time check. It will fail to compile if
// *Machine ever stops satisfying the goftms.Machine interface.
var _ goftms.Machine = (*Machine)(nil)

type Machine struct {
	name    string
	address bluetooth.Address
	opts    Options
	log     *logrus.Entry

	mu             sync.Mutex
	connected      bool
	disconnectCtx  context.Context
	disconnectFunc context.CancelFunc
	lastNotified   time.Time

	btDevice   bluetooth.Device
	notifyChar bluetooth.DeviceCharacteristic

	updateChan chan goftms.MetricsUpdate
}

// New creates a Machine for device with opts.
func New(device *goftms.FoundDevice, opts Options) *Machine {
	if len(opts.Dialect.Fields) == 0 {
		opts.Dialect = ftms.CrossTrainer
	}
	if opts.Characteristic == (bluetooth.UUID{}) {
		opts.Characteristic = ftms.CrossTrainerDataUUID
		if opts.Dialect.Name == ftms.DialectIndoorBike {
			opts.Characteristic = ftms.IndoorBikeDataUUID
		}
	}
	if opts.DisplayName == "" {
		opts.DisplayName = "Fitness machine"
	}
	if opts.IdleTimeout <= 0 {
		opts.IdleTimeout = defaultIdleTimeout
	}
	return &Machine{
		name:    device.Name,
		address: device.Address,
		opts:    opts,
		log: logrus.WithFields(logrus.Fields{
			"device":  device.Name,
			"dialect": opts.Dialect.Name,
		}),
	}
}

// Factory adapts New to goftms.Factory.
func Factory(opts Options) goftms.Factory {
	return func(device *goftms.FoundDevice) goftms.Machine {
		return New(device, opts)
	}
}

// RegisterConfig registers the config's dialects and one factory per device prefix.
func RegisterConfig(cfg ftms.Config) error {
	if err := cfg.Register(); err != nil {
		return err
	}
	for _, dev := range cfg.Devices {
		layout, err := dev.Layout()
		if err != nil {
			return fmt.Errorf("device %q: %w", dev.Prefix, err)
		}
		goftms.Register(dev.Prefix, Factory(Options{
			Dialect:        layout,
			Characteristic: dev.Characteristic,
			DisplayName:    dev.DisplayName,
		}))
	}
	return nil
}

func (m *Machine) Connect() (<-chan goftms.MetricsUpdate, error) {
	err := goftms.TryEnableAdapter()
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	if m.connected {
		m.mu.Unlock()
		return nil, errors.New("machine is already connected")
	}
	m.updateChan = make(chan goftms.MetricsUpdate, 20)
	m.disconnectCtx, m.disconnectFunc = context.WithCancel(context.Background())
	m.mu.Unlock()

	m.btDevice, err = goftms.BTAdapter.Connect(m.address, bluetooth.ConnectionParams{})
	if err != nil {
		m.abortConnect()
		return nil, err
	}

	err = m.setupCharacteristics()
	if err != nil {
		_ = m.btDevice.Disconnect()
		m.abortConnect()
		return nil, err
	}

	m.mu.Lock()
	m.connected = true
	m.lastNotified = time.Now()
	m.mu.Unlock()

	m.log.Info("setting up notifications")
	err = m.notifyChar.EnableNotifications(m.handleNotification)
	if err != nil {
		_ = m.Disconnect()
		return nil, fmt.Errorf("failed to enable notifications: %w", err)
	}

	go m.watchdog(m.disconnectCtx)

	return m.updateChan, nil
}

// abortConnect releases what Connect set up before the link was established.
func (m *Machine) abortConnect() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.disconnectFunc != nil {
		m.disconnectFunc()
	}
	m.updateChan = nil
}

// watchdogInterval is how often the watchdog checks for idleness.
func watchdogInterval(idle time.Duration) time.Duration {
	if interval := idle / 2; interval >= time.Millisecond {
		return interval
	}
	return time.Millisecond
}

// watchdog disconnects when the machine stops notifying.
func (m *Machine) watchdog(ctx context.Context) {
	ticker := time.NewTicker(watchdogInterval(m.opts.IdleTimeout))
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.mu.Lock()
			idle := time.Since(m.lastNotified)
			m.mu.Unlock()
			if idle > m.opts.IdleTimeout {
				m.log.WithField("idle", idle).Warn("no notifications, disconnecting")
				m.sendError(fmt.Errorf("no notifications for %s", idle.Round(time.Millisecond)))
				_ = m.Disconnect()
				return
			}
		}
	}
}

func (m *Machine) Disconnect() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.connected {
		return nil
	}
	m.connected = false
	m.disconnectFunc()
	close(m.updateChan)

	err := m.btDevice.Disconnect()
	if err != nil {
		return fmt.Errorf("disconnect %s: %w", m.name, err)
	}
	m.log.Info("disconnected")
	return nil
}

func (m *Machine) IsConnected() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.connected
}

func (m *Machine) DeviceName() string {
	return m.name
}

func (m *Machine) DisplayName() string {
	return m.opts.DisplayName
}

func (m *Machine) Dialect() ftms.Layout {
	return m.opts.Dialect
}

func (m *Machine) setupCharacteristics() error {
	m.log.Info("discovering services")
	services, err := m.btDevice.DiscoverServices([]bluetooth.UUID{ftms.FitnessMachineServiceUUID})
	if err != nil {
		return fmt.Errorf("could not discover services: %w", err)
	}

	if len(services) == 0 {
		return errors.New("could not find the Fitness Machine service")
	}

	for _, service := range services {
		chars, err := service.DiscoverCharacteristics([]bluetooth.UUID{m.opts.Characteristic})
		if err != nil {
			return fmt.Errorf("could not discover characteristics: %w", err)
		}
		for _, char := range chars {
			if char.UUID() == m.opts.Characteristic {
				m.notifyChar = char
				m.log.WithField("characteristic", char.UUID().String()).Info("found data characteristic")
				return nil
			}
		}
	}

	return fmt.Errorf("characteristic %s not found", m.opts.Characteristic.String())
}

// handleNotification is the callback for all incoming BLE data.
// It assumes one notification callback contains one complete frame.
func (m *Machine) handleNotification(buf []byte) {
	metrics, ok := goftms.DecodeNotification(m.opts.Dialect, buf, m.log)

	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastNotified = time.Now()
	if !ok || !m.connected {
		return
	}

	select {
	case m.updateChan <- goftms.MetricsUpdate{Metrics: metrics}:
	default:
		observability.UpdatesDropped.Inc()
		m.log.Warn("update channel full, dropping metrics")
	}
}

func (m *Machine) sendError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.connected {
		return
	}
	select {
	case m.updateChan <- goftms.MetricsUpdate{Error: err}:
	default:
	}
}
