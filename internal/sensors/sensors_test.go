package sensors

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/fanforge/fanforged/internal/configuration"
	"github.com/stretchr/testify/assert"
)

func TestNewSensorWithoutSubConfig(t *testing.T) {
	// GIVEN
	config := configuration.SensorConfig{ID: "empty"}

	// WHEN
	_, err := NewSensor(config)

	// THEN
	assert.Error(t, err)
}

func TestFileSensorReadsMilliDegrees(t *testing.T) {
	// GIVEN
	path := filepath.Join(t.TempDir(), "temp_input")
	err := os.WriteFile(path, []byte("42500\n"), 0644)
	assert.NoError(t, err)

	sensor, err := NewSensor(configuration.SensorConfig{
		ID: "cpu",
		File: &configuration.FileSensorConfig{
			Path: path,
		},
	})
	assert.NoError(t, err)

	// WHEN
	value, err := sensor.GetValue()

	// THEN
	assert.NoError(t, err)
	assert.Equal(t, 42.5, value)
}

func TestFileSensorMissingFile(t *testing.T) {
	// GIVEN
	sensor, err := NewSensor(configuration.SensorConfig{
		ID: "cpu",
		File: &configuration.FileSensorConfig{
			Path: filepath.Join(t.TempDir(), "does_not_exist"),
		},
	})
	assert.NoError(t, err)

	// WHEN
	_, err = sensor.GetValue()

	// THEN
	assert.Error(t, err)
}

func TestVirtualSensor(t *testing.T) {
	// GIVEN
	sensor := &VirtualSensor{Name: "virtual", Value: 50}

	// WHEN
	value, err := sensor.GetValue()

	// THEN
	assert.NoError(t, err)
	assert.Equal(t, 50.0, value)
	assert.Equal(t, 50.0, sensor.GetMovingAvg())
}
