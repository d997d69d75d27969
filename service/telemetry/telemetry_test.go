package telemetry

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var epoch = time.Date(2026, 10, 18, 9, 0, 0, 0, time.Local)

func TestSimulatedDrainsOneStepPerInterval(t *testing.T) {
	svc := NewSimulated(epoch)

	for i := 1; i <= 50; i++ {
		svc.Tick(epoch.Add(time.Duration(i) * BatteryInterval))
	}

	assert.Equal(t, 95.0, svc.Level())
	assert.Equal(t, epoch.Add(50*BatteryInterval), svc.Snapshot().LastTick)
}

func TestSimulatedIgnoresEarlyTicks(t *testing.T) {
	svc := NewSimulated(epoch)

	assert.Equal(t, 100.0, svc.Tick(epoch.Add(time.Second)))
	assert.Equal(t, 100.0, svc.Tick(epoch.Add(4999*time.Millisecond)))
	assert.Equal(t, 99.9, svc.Tick(epoch.Add(5*time.Second)))
	// last_tick moved, so the next drain is due at 10s
	assert.Equal(t, 99.9, svc.Tick(epoch.Add(9*time.Second)))
	assert.Equal(t, 99.8, svc.Tick(epoch.Add(10*time.Second)))
}

func TestSimulatedNeverIncreasesAndStopsAtZero(t *testing.T) {
	svc := NewSimulated(epoch)
	svc.SetLevel(0.25, epoch)

	prev := svc.Level()
	now := epoch
	for i := 0; i < 10; i++ {
		now = now.Add(BatteryInterval + time.Duration(i)*time.Second)
		level := svc.Tick(now)
		assert.LessOrEqual(t, level, prev)
		assert.GreaterOrEqual(t, level, 0.0)
		prev = level
	}
	assert.Equal(t, 0.0, svc.Level())
}

func TestSimulatedNoDriftAcrossMotorBoundary(t *testing.T) {
	svc := NewSimulated(epoch)
	for i := 1; i <= 30; i++ {
		svc.Tick(epoch.Add(time.Duration(i) * BatteryInterval))
	}
	assert.Equal(t, 97, int(svc.Level()))
}

func TestSetLevelClamps(t *testing.T) {
	svc := NewSimulated(epoch)

	svc.SetLevel(150, epoch)
	assert.Equal(t, 100.0, svc.Level())

	svc.SetLevel(-3, epoch)
	assert.Equal(t, 0.0, svc.Level())
}

type stubSensor struct {
	level float64
	err   error
}

func (s *stubSensor) Percentage() (float64, error) {
	return s.level, s.err
}

func TestHardwarePassThrough(t *testing.T) {
	sensor := &stubSensor{level: 42.5}
	svc := NewHardware(sensor, epoch)

	assert.Equal(t, 42.5, svc.Tick(epoch))

	sensor.err = errors.New("i2c timeout")
	assert.Equal(t, 42.5, svc.Tick(epoch.Add(time.Second)))

	sensor.err = nil
	sensor.level = 120
	assert.Equal(t, 100.0, svc.Tick(epoch.Add(2*time.Second)))
}

func TestFileSensor(t *testing.T) {
	path := filepath.Join(t.TempDir(), "capacity")
	require.NoError(t, os.WriteFile(path, []byte("73\n"), 0o644))

	level, err := FileSensor{Path: path}.Percentage()
	require.NoError(t, err)
	assert.Equal(t, 73.0, level)

	_, err = FileSensor{Path: filepath.Join(t.TempDir(), "missing")}.Percentage()
	assert.Error(t, err)
}
