package serve

import (
	"testing"

	"fjacquet/camt-recon/internal/config"
	"fjacquet/camt-recon/internal/container"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testContainer(t *testing.T, scheduler config.SchedulerConfig) *container.Container {
	t.Helper()
	c, err := container.NewContainer(&config.Config{
		Log:            config.LogConfig{Level: "error", Format: "text"},
		Data:           config.DataConfig{Database: "memory"},
		Import:         config.ImportConfig{Delimiter: ","},
		Reconciliation: config.ReconciliationConfig{PaymentLookbackDays: 7, SystemActor: "SYSTEM"},
		Server:         config.ServerConfig{Port: 8080},
		Scheduler:      scheduler,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func TestServeCommand_Metadata(t *testing.T) {
	assert.Equal(t, "serve", Cmd.Use)
	assert.NotNil(t, Cmd.Flags().Lookup("port"))
}

func TestNewServer(t *testing.T) {
	assert.NotNil(t, newServer(testContainer(t, config.SchedulerConfig{})))
}

func TestNewScheduler(t *testing.T) {
	s, err := newScheduler(testContainer(t, config.SchedulerConfig{}))
	require.NoError(t, err)
	assert.Nil(t, s)

	s, err = newScheduler(testContainer(t, config.SchedulerConfig{Enabled: true, Schedule: "@every 15m"}))
	require.NoError(t, err)
	require.NotNil(t, s)
	assert.Equal(t, 1, s.Entries())

	_, err = newScheduler(testContainer(t, config.SchedulerConfig{Enabled: true, Schedule: "whenever"}))
	assert.Error(t, err)
}
