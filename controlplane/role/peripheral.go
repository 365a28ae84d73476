package role

import (
	"strconv"
	"time"

	"github.com/revolution-robotics/control-plane/controlplane/app"
	"github.com/revolution-robotics/control-plane/controlplane/logging"
	"github.com/revolution-robotics/control-plane/controlplane/message"
	"github.com/revolution-robotics/control-plane/controlplane/topology"
)

// DeviceIO is the interface contract a peripheral's handlers expect from
// the hardware they front (GPIO/PWM/SPI/UART). Device access itself lives
// outside this module; the interface exists so peripheral handlers can be
// written and tested against a fake without any real device present.
type DeviceIO interface {
	Read(channel string) (string, error)
	Write(channel string, value string) error
}

// FakeDeviceIO is an in-memory DeviceIO satisfying tests without real
// hardware.
type FakeDeviceIO struct {
	values map[string]string
}

// NewFakeDeviceIO constructs an empty in-memory device.
func NewFakeDeviceIO() *FakeDeviceIO {
	return &FakeDeviceIO{values: make(map[string]string)}
}

func (f *FakeDeviceIO) Read(channel string) (string, error) {
	return f.values[channel], nil
}

func (f *FakeDeviceIO) Write(channel string, value string) error {
	f.values[channel] = value
	return nil
}

// PeripheralBase is the common base every concrete peripheral composes,
// beyond the bare Soldier role: boot-time watcher registration and a
// uniform status reply (endpoint name, uptime, pending-request count).
type PeripheralBase struct {
	*Soldier
	started time.Time
}

// NewPeripheralBase constructs a PeripheralBase composing a Soldier role.
func NewPeripheralBase(logger logging.Logger) *PeripheralBase {
	return &PeripheralBase{Soldier: NewSoldier(logger), started: nowOverridable()}
}

// nowOverridable exists only so tests can avoid depending on wall-clock
// uptime math; production always uses time.Now.
var nowOverridable = time.Now

// InstallStatusHandler overwrites the base `status` handler with one
// that reports endpoint name, uptime, and pending request count.
func (p *PeripheralBase) InstallStatusHandler(a *app.Application) {
	a.RegisterHandler(topology.HeaderStatus, func(a *app.Application, msg message.Message) ([]string, error) {
		uptime := time.Since(p.started).Seconds()
		pending, _ := a.PendingCount()
		return []string{
			"endpoint", a.Endpoint(),
			"uptime_seconds", strconv.FormatFloat(uptime, 'f', 3, 64),
			"pending", strconv.Itoa(pending),
		}, nil
	})
}

// GetState reads keys via a self-addressed get round-trip, exercising the
// same request/response path any remote caller would use.
func (p *PeripheralBase) GetState(a *app.Application, keys []string) (map[string]string, error) {
	resp, err := a.Communicate(a.Endpoint(), topology.HeaderGet, keys, 0)
	if err != nil {
		return nil, err
	}
	out := make(map[string]string, len(resp.Data)/2)
	for i := 0; i+1 < len(resp.Data); i += 2 {
		out[resp.Data[i]] = resp.Data[i+1]
	}
	return out, nil
}

// SetState writes key/value via a self-addressed set round-trip. The
// Soldier role installed on a decides whether this lands locally or is
// forwarded to the marshal.
func (p *PeripheralBase) SetState(a *app.Application, key, value string) error {
	_, err := a.Communicate(a.Endpoint(), topology.HeaderSet, []string{key, value}, 0)
	return err
}

// SetWatcher installs w for key, warning on overwrite.
func (p *PeripheralBase) SetWatcher(a *app.Application, key string, w app.Watcher) {
	a.SetWatcher(key, w)
}
