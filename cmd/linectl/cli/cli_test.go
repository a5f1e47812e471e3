package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/linectl/linectl-go/pkg/catalog"
	"github.com/linectl/linectl-go/pkg/simulator"
)

func startSimulator(t *testing.T, cfg simulator.Config) (string, *simulator.Simulator) {
	t.Helper()
	t.Setenv("LINECTL_ENDPOINT", "")
	t.Setenv("LINECTL_DEVICE_ID", "")

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	sim := simulator.New(cfg)
	srv, err := sim.Serve(ctx, simulator.ServeOptions{Address: "127.0.0.1:0"})
	require.NoError(t, err)
	t.Cleanup(func() { srv.Stop() })
	return srv.Addr().String(), sim
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	root := NewRootCmd()
	root.SetArgs(args)
	root.SetOut(&out)
	root.SetErr(&out)
	err := root.Execute()
	return out.String(), err
}

func TestGetTM(t *testing.T) {
	addr, _ := startSimulator(t, simulator.Config{Serial: "SN-9"})

	out, err := execute(t, "get-tm", "serial", "-e", addr)
	require.NoError(t, err)
	assert.Equal(t, "str: SN-9\n", out)

	out, err = execute(t, "get-tm", "version", "-e", addr)
	require.NoError(t, err)
	assert.Equal(t, "Version: 1.2.0.7\n", out)

	out, err = execute(t, "get-tm", "operating_time", "-e", addr)
	require.NoError(t, err)
	assert.Contains(t, out, "OperatingTimeInfo:\n")
	assert.Contains(t, out, "  reboot_count: 0\n")

	out, err = execute(t, "get-tm", "consumption", "-e", addr)
	require.NoError(t, err)
	assert.Equal(t, "consumption (unresolved): 5\n", out)
}

func TestGetTMAll(t *testing.T) {
	addr, _ := startSimulator(t, simulator.Config{})

	out, err := execute(t, "get-tm", "all", "-e", addr)
	require.NoError(t, err)
	for _, tm := range catalog.Telemetry() {
		assert.Contains(t, out, tm.String()+" = ")
	}
}

func TestGetTMJSON(t *testing.T) {
	addr, _ := startSimulator(t, simulator.Config{})

	out, err := execute(t, "get-tm", "active_bus", "-e", addr, "--json")
	require.NoError(t, err)

	var doc map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &doc))
	assert.Equal(t, "main", doc["value"])
	assert.Equal(t, catalog.TagActiveBus, doc["type"])
	assert.NotContains(t, doc, "raw")
}

func TestGetTMUnknownItem(t *testing.T) {
	_, err := execute(t, "get-tm", "humidity", "-e", "127.0.0.1:1")
	assert.ErrorContains(t, err, "telemetry")
}

func TestSetters(t *testing.T) {
	addr, sim := startSimulator(t, simulator.Config{})

	out, err := execute(t, "set-bus", "reserve", "-e", addr)
	require.NoError(t, err)
	assert.Equal(t, "ResultCode: ok\n", out)
	assert.Equal(t, catalog.BusReserve, sim.Snapshot().ActiveBus)

	_, err = execute(t, "set-serial", "SN-77", "-e", addr)
	require.NoError(t, err)
	assert.Equal(t, "SN-77", sim.Snapshot().Serial)

	_, err = execute(t, "reset", "-e", addr)
	require.NoError(t, err)
	assert.Equal(t, int64(1), sim.Snapshot().RebootCount)

	_, err = execute(t, "set-time", "1700000000", "-e", addr)
	require.NoError(t, err)
	assert.NotZero(t, sim.Snapshot().ClockOffset)
}

func TestSetBusRejectedByDevice(t *testing.T) {
	addr, sim := startSimulator(t, simulator.Config{})

	out, err := execute(t, "set-bus", "7", "-e", addr)
	assert.ErrorContains(t, err, "BadArg")
	assert.Contains(t, out, "ResultCode: BadArg")
	assert.Equal(t, catalog.BusMain, sim.Snapshot().ActiveBus)
}

func TestSetSerialLocked(t *testing.T) {
	addr, _ := startSimulator(t, simulator.Config{SerialLocked: true})

	_, err := execute(t, "set-serial", "SN-1", "-e", addr)
	assert.ErrorContains(t, err, "PermissionDenied")
}

func TestCallRaw(t *testing.T) {
	addr, sim := startSimulator(t, simulator.Config{})

	out, err := execute(t, "call", "get_tm", "serial", "-e", addr)
	require.NoError(t, err)
	assert.Equal(t, "str: SN-0000\n", out)

	_, err = execute(t, "call", "set_serial", "serial=SN-5", "-e", addr)
	require.NoError(t, err)
	assert.Equal(t, "SN-5", sim.Snapshot().Serial)

	out, err = execute(t, "call", "0x1234", "-e", addr)
	assert.ErrorContains(t, err, "NotImplemented")
	assert.Contains(t, out, "NotImplemented")
}

func TestConnectFailure(t *testing.T) {
	_, err := execute(t, "reset", "-e", "127.0.0.1:1", "--timeout", "500ms")
	assert.ErrorContains(t, err, "connect 127.0.0.1:1")
}

func TestCommandsListing(t *testing.T) {
	out, err := execute(t, "commands")
	require.NoError(t, err)
	assert.Contains(t, out, "set_active_bus")
	assert.Contains(t, out, "operating_time")
}

func TestShellExecLine(t *testing.T) {
	addr, sim := startSimulator(t, simulator.Config{})
	ctx := context.Background()

	a := &app{endpoint: addr, timeout: 5 * time.Second}
	dev, release, err := a.open(ctx)
	require.NoError(t, err)
	defer release()

	session := *a
	session.dev = dev

	var out bytes.Buffer
	assert.False(t, session.execLine(ctx, &out, "set-bus reserve"))
	assert.False(t, session.execLine(ctx, &out, "get-tm active_bus"))
	assert.Contains(t, out.String(), "ActiveBus: reserve")

	assert.False(t, session.execLine(ctx, &out, "shell"))
	assert.Contains(t, out.String(), "already in a shell")

	assert.False(t, session.execLine(ctx, &out, "   "))
	assert.True(t, session.execLine(ctx, &out, "quit"))
	assert.Len(t, sim.Requests(), 2)
}

func TestParseCallArgs(t *testing.T) {
	pos, kw, err := parseCallArgs(catalog.SetActiveBus, []string{"reserve"})
	require.NoError(t, err)
	assert.Equal(t, []any{int64(catalog.BusReserve)}, pos)
	assert.Empty(t, kw)

	pos, kw, err = parseCallArgs(catalog.SetSerial, []string{"serial", "n=3", "f=1.5", "b=true"})
	require.NoError(t, err)
	assert.Equal(t, []any{"serial"}, pos)
	assert.Equal(t, map[string]any{"n": int64(3), "f": 1.5, "b": true}, kw)
}

func TestResolveCommand(t *testing.T) {
	c, err := resolveCommand("reset")
	require.NoError(t, err)
	assert.Equal(t, catalog.Reset, c)

	c, err = resolveCommand("0x42")
	require.NoError(t, err)
	assert.Equal(t, uint64(0x42), c.ID)

	_, err = resolveCommand("dance")
	assert.Error(t, err)
}
