package main

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"city-parking/internal/config"
)

func TestNewServiceFromDefaults(t *testing.T) {
	svc, err := newService(config.Default())
	require.NoError(t, err)

	assert.Equal(t, "Downtown Business District", svc.Name())
	assert.Equal(t, 36, svc.Occupancy().Total)
	assert.Equal(t, 600.0, svc.RateCard().DailyCap)
}

func TestNewServiceRejectsBadRates(t *testing.T) {
	cfg := config.Default()
	cfg.Rates.DailyCap = 0

	_, err := newService(cfg)
	assert.Error(t, err)
}

func TestLogOutput(t *testing.T) {
	assert.Equal(t, os.Stderr, logOutput(modeShell))
	assert.Equal(t, os.Stderr, logOutput(modeShell|modeServe))
	assert.Equal(t, os.Stdout, logOutput(modeServe))
}

func TestCommandsRegistered(t *testing.T) {
	var names []string
	for _, c := range rootCmd.Commands() {
		names = append(names, c.Name())
	}
	assert.Subset(t, names, []string{"shell", "serve", "both"})
	assert.NotNil(t, rootCmd.PersistentFlags().Lookup("config"))
}
