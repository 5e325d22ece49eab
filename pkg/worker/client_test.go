/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: client_test.go
Description: Tests for the worker protocol client over in-process pipe
sessions. Covers request/response round trips, per-request error reporting,
retirement propagation, and graceful shutdown.
*/

package worker

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestClient attaches a client to a fresh in-process session
func newTestClient(t *testing.T, opts ...SessionOption) *Client {
	t.Helper()
	logger := quietLogger()
	client, err := NewPipeClient(logger, NewSession(logger, opts...))
	require.NoError(t, err)
	return client
}

// TestClientPing tests the liveness round trip
func TestClientPing(t *testing.T) {
	client := newTestClient(t)
	defer client.Shutdown()

	assert.NoError(t, client.Ping())
	assert.NoError(t, client.Ping())
}

// TestClientParse tests one extraction request through the client
func TestClientParse(t *testing.T) {
	path := writeStatsFile(t,
		"sim_ticks 12345\n"+
			"system.cpu0.ipc 1.5\n"+
			"system.cpu1.ipc 1.4\n")
	client := newTestClient(t)
	defer client.Shutdown()

	records, err := client.Parse(path, []string{`^system\.cpu\d+\.ipc$`})
	require.NoError(t, err)
	assert.Equal(t, []string{
		"Scalar/system.cpu0.ipc/1.5",
		"Scalar/system.cpu1.ipc/1.4",
	}, records)

	// The session survives and its counter advances
	n, err := client.Stats()
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

// TestClientParseError tests per-request error propagation
// A failed request errors without killing the client; the next request
// works normally.
func TestClientParseError(t *testing.T) {
	client := newTestClient(t)
	defer client.Shutdown()

	records, err := client.Parse("/nonexistent/stats.txt", []string{"x"})
	require.Error(t, err)
	assert.Empty(t, records)
	assert.False(t, client.Retired())

	path := writeStatsFile(t, "sim_ticks 12345\n")
	records, err = client.Parse(path, []string{"sim_ticks"})
	require.NoError(t, err)
	assert.Equal(t, []string{"Scalar/sim_ticks/12345"}, records)
}

// TestClientRetirement tests RESTART_NEEDED propagation
// Once the ceiling trips, the client reports ErrRestartNeeded for every
// further call and flags itself retired for the pool.
func TestClientRetirement(t *testing.T) {
	path := writeStatsFile(t, "sim_ticks 12345\n")
	client := newTestClient(t, WithRequestCeiling(1))
	defer client.Close()

	_, err := client.Parse(path, []string{"sim_ticks"})
	require.NoError(t, err)
	assert.False(t, client.Retired())

	_, err = client.Parse(path, []string{"sim_ticks"})
	require.ErrorIs(t, err, ErrRestartNeeded)
	assert.True(t, client.Retired())

	assert.ErrorIs(t, client.Ping(), ErrRestartNeeded)
	_, err = client.Stats()
	assert.ErrorIs(t, err, ErrRestartNeeded)
}

// TestClientShutdown tests the goodbye handshake
func TestClientShutdown(t *testing.T) {
	client := newTestClient(t)
	assert.NoError(t, client.Shutdown())
}

// TestClientAbort tests transport teardown without the goodbye handshake
// Later requests fail on the closed channel and a follow-up Close is a no-op.
func TestClientAbort(t *testing.T) {
	client := newTestClient(t)

	require.NoError(t, client.Abort())
	assert.Error(t, client.Ping())
	_, err := client.Parse("stats.txt", []string{"x"})
	assert.Error(t, err)
	assert.NoError(t, client.Close())
}
