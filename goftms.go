package goftms

import (
	"fmt"
	"strings"
	"sync"

	"github.com/mlsorensen/goftms/pkg/ftms"
	"github.com/sirupsen/logrus"
)

// MetricsUpdate carries one decoded notification from the machine.
// Error is set when the machine dropped its connection.
type MetricsUpdate struct {
	Metrics ftms.Metrics
	Error   error
}

// Machine is the generic interface for a Bluetooth fitness machine.
// Implementations handle connection and subscription for a specific model and
// hand every notification to the ftms decoder.
type Machine interface {
	// Connect establishes a connection to the machine and subscribes to its
	// data characteristic. Returns a read-only channel of decoded metrics,
	// closed when the machine disconnects.
	Connect() (<-chan MetricsUpdate, error)

	// Disconnect terminates the connection.
	Disconnect() error

	IsConnected() bool

	// DeviceName is the advertised Bluetooth name.
	DeviceName() string

	// DisplayName is a human-readable model name.
	DisplayName() string

	// Dialect returns the field layout used to decode notifications.
	Dialect() ftms.Layout
}

// --- Implementation Registry ---

// Factory is a function that creates a new instance of a Machine.
type Factory func(*FoundDevice) Machine

var (
	registry = make(map[string]Factory)
	regLock  = sync.RWMutex{}
)

// Register makes a machine implementation available by its device name prefix.
// This function should be called from the init() function of the implementation's package.
func Register(namePrefix string, factory Factory) {
	regLock.Lock()
	defer regLock.Unlock()

	if _, found := registry[namePrefix]; found {
		logrus.WithField("prefix", namePrefix).Warn("machine implementation is being overwritten")
	}
	registry[namePrefix] = factory
}

// NewMachineForDevice finds a registered factory for the given device name and
// creates a new Machine instance. When several prefixes match, the longest wins,
// so "MOBI-X7" can override "MOBI".
func NewMachineForDevice(device *FoundDevice) (Machine, error) {
	regLock.RLock()
	defer regLock.RUnlock()

	var best string
	var factory Factory
	for prefix, f := range registry {
		if strings.HasPrefix(device.Name, prefix) && (factory == nil || len(prefix) > len(best)) {
			best, factory = prefix, f
		}
	}
	if factory == nil {
		return nil, fmt.Errorf("no implementation found for device '%s'", device.Name)
	}
	return factory(device), nil
}
