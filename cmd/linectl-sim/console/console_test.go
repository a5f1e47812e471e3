package console

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/linectl/linectl-go/pkg/catalog"
	"github.com/linectl/linectl-go/pkg/simulator"
)

func newTestConsole(t *testing.T) (*Console, *simulator.Simulator) {
	t.Helper()
	sim := simulator.New(simulator.Config{})
	c := newConsole(sim, func() Status { return StatusOf(sim) })
	return c, sim
}

func run(c *Console, line string) (string, bool) {
	var buf bytes.Buffer
	quit := c.Execute(&buf, line)
	return buf.String(), quit
}

func TestExecuteBus(t *testing.T) {
	c, sim := newTestConsole(t)

	out, quit := run(c, "bus reserve")
	assert.False(t, quit)
	assert.Contains(t, out, "set_active_bus -> ok")
	assert.Equal(t, catalog.BusReserve, sim.Snapshot().ActiveBus)

	out, _ = run(c, "bus sideways")
	assert.Contains(t, out, "Error:")

	out, _ = run(c, "bus")
	assert.Contains(t, out, "Usage: bus")
}

func TestExecuteSerialLock(t *testing.T) {
	c, sim := newTestConsole(t)

	out, _ := run(c, "lock")
	assert.Contains(t, out, "locked")

	out, _ = run(c, "serial SN-42")
	assert.Contains(t, out, "PermissionDenied")
	assert.Equal(t, "SN-0000", sim.Snapshot().Serial)

	run(c, "unlock")
	out, _ = run(c, "serial SN-42")
	assert.Contains(t, out, "set_serial -> ok")
	assert.Equal(t, "SN-42", sim.Snapshot().Serial)
}

func TestExecuteStatusAndHistory(t *testing.T) {
	c, _ := newTestConsole(t)
	c.OnConnect("0123456789abcdef", "127.0.0.1:50000")

	run(c, "reset")
	run(c, "bus main")

	out, _ := run(c, "status")
	assert.Contains(t, out, "Reboots:      1")
	assert.Contains(t, out, "Active bus:   main")
	assert.Contains(t, out, "Sessions:     1")

	out, _ = run(c, "history 1")
	assert.Contains(t, out, "set_active_bus")
	assert.NotContains(t, out, "reset")

	out, _ = run(c, "history zero")
	assert.Contains(t, out, "invalid count")

	out, _ = run(c, "sessions")
	assert.Contains(t, out, "[01234567] 127.0.0.1:50000")

	c.OnDisconnect("0123456789abcdef", "")
	out, _ = run(c, "sessions")
	assert.Contains(t, out, "No connected clients")
}

func TestExecuteQuitAndUnknown(t *testing.T) {
	c, _ := newTestConsole(t)

	_, quit := run(c, "quit")
	assert.True(t, quit)

	out, quit := run(c, "frobnicate")
	assert.False(t, quit)
	assert.Contains(t, out, "Unknown command: frobnicate")

	out, quit = run(c, "   ")
	assert.False(t, quit)
	assert.Empty(t, out)
}

func TestStatusOf(t *testing.T) {
	sim := simulator.New(simulator.Config{Serial: "SN-7", SerialLocked: true})
	st := StatusOf(sim)
	require.Empty(t, st.Requests)
	assert.Equal(t, "SN-7", st.Serial)
	assert.True(t, st.SerialLocked)
	assert.WithinDuration(t, time.Now(), st.BootTime, time.Minute)
}
