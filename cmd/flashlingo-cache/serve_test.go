//go:build unix

package main

import (
	"os"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNotifySignals_RoutesAndStops(t *testing.T) {
	signals := notifySignals()
	defer signals.stop()

	require.NoError(t, syscall.Kill(os.Getpid(), syscall.SIGHUP))
	select {
	case sig := <-signals.reload:
		assert.Equal(t, syscall.SIGHUP, sig)
	case <-time.After(2 * time.Second):
		t.Fatal("SIGHUP not delivered to reload channel")
	}
	assert.Empty(t, signals.done)

	signals.stop()

	// Once stopped, neither channel receives further signals; a fresh
	// subscription keeps the process from taking the default action.
	guard := notifySignals()
	defer guard.stop()
	require.NoError(t, syscall.Kill(os.Getpid(), syscall.SIGHUP))
	select {
	case <-guard.reload:
	case <-time.After(2 * time.Second):
		t.Fatal("SIGHUP not delivered to new subscription")
	}
	assert.Empty(t, signals.reload)
	assert.Empty(t, signals.done)
}
