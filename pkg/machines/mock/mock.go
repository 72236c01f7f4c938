// Package mock provides a mock implementation of the goftms.Machine interface.
// It is intended for development and testing purposes when a physical machine is not available.
// Every tick it encodes a simulated cross trainer frame and decodes it through
// the same path real notifications take.
package mock

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/mlsorensen/goftms"
	"github.com/mlsorensen/goftms/pkg/ftms"
	"github.com/sirupsen/logrus"
)

// This init function registers the MockMachine with the central registry.
// To use it, you must explicitly import this package.
func init() {
	goftms.Register("MOCK", New)
}

// This line is the compile-time check. It will fail to compile if
// *MockMachine ever stops satisfying the goftms.Machine interface.
var _ goftms.Machine = (*MockMachine)(nil)

// TickInterval is how often the simulation emits a notification.
var TickInterval = 750 * time.Millisecond

// MockMachine is a simulated elliptical for development.
type MockMachine struct {
	name   string
	layout ftms.Layout
	log    *logrus.Entry

	mu        sync.Mutex
	connected bool
	rng       *rand.Rand
	started   time.Time
	speed     float64
	cadence   float64
	distance  float64
	kcal      float64

	disconnect context.CancelFunc
}

// New creates a new, uninitialized MockMachine.
func New(device *goftms.FoundDevice) goftms.Machine {
	return &MockMachine{
		name:   device.Name,
		layout: ftms.CrossTrainer,
		log:    logrus.WithField("device", device.Name),
		rng:    rand.New(rand.NewSource(time.Now().UnixNano())),
		speed:  8,
	}
}

func (s *MockMachine) IsConnected() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.connected
}

func (s *MockMachine) DeviceName() string {
	return s.name
}

func (s *MockMachine) DisplayName() string {
	return "Mock Elliptical"
}

func (s *MockMachine) Dialect() ftms.Layout {
	return s.layout
}

// Connect starts the simulation.
func (s *MockMachine) Connect() (<-chan goftms.MetricsUpdate, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.connected {
		return nil, fmt.Errorf("mock machine is already connected")
	}

	s.log.Info("MOCK: connecting")
	s.connected = true
	s.started = time.Now()

	var ctx context.Context
	ctx, s.disconnect = context.WithCancel(context.Background())

	updates := make(chan goftms.MetricsUpdate)
	go s.simulate(ctx, updates)

	s.log.Info("MOCK: connected")
	return updates, nil
}

// simulate is the core loop that generates fake frames.
func (s *MockMachine) simulate(ctx context.Context, updates chan<- goftms.MetricsUpdate) {
	// Ensure the channel is closed on exit to signal disconnection.
	defer close(updates)
	defer s.log.Info("MOCK: simulation stopped")

	ticker := time.NewTicker(TickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			frame, err := s.nextFrame()
			if err != nil {
				s.log.WithError(err).Error("MOCK: failed to encode frame")
				continue
			}
			metrics, ok := goftms.DecodeNotification(s.layout, frame, s.log)
			if !ok {
				continue
			}
			select {
			case updates <- goftms.MetricsUpdate{Metrics: metrics}:
			case <-ctx.Done():
				return
			}

		case <-ctx.Done():
			return
		}
	}
}

// nextFrame advances the workout by one tick and encodes it.
func (s *MockMachine) nextFrame() ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	// a little up, a little down
	s.speed += (s.rng.Float64() - 0.45) * 0.6
	if s.speed < 0 {
		s.speed = 0
	}
	if s.speed > 20 {
		s.speed = 20
	}
	s.cadence = s.speed * 7
	s.distance += s.speed / 3.6 * TickInterval.Seconds()
	s.kcal += s.speed * 0.02

	speed := float64(int(s.speed*100)) / 100
	cadence := uint16(s.cadence)
	power := int16(s.speed * 9)
	resistance := 4.0
	distance := uint32(s.distance)
	kcal := uint16(s.kcal)
	heartRate := uint8(90 + s.speed*3)
	elapsed := uint16(time.Since(s.started).Seconds())

	return ftms.Encode(s.layout, ftms.Metrics{
		InstantSpeed:    &speed,
		InstantCadence:  &cadence,
		InstantPower:    &power,
		ResistanceLevel: &resistance,
		TotalDistance:   &distance,
		Kcal:            &kcal,
		HeartRate:       &heartRate,
		ElapsedTime:     &elapsed,
	})
}

// Disconnect stops the simulation.
func (s *MockMachine) Disconnect() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.connected {
		return nil // Nothing to do
	}

	s.log.Info("MOCK: disconnecting")
	s.disconnect()
	s.connected = false
	return nil
}
