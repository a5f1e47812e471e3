package simulator

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/linectl/linectl-go/pkg/catalog"
	"github.com/linectl/linectl-go/pkg/wire"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func req(cmd uint64, args ...any) *wire.Request {
	return wire.NewRequest(cmd, args, nil)
}

func TestHandleResultCodes(t *testing.T) {
	sim := New(Config{})
	tests := []struct {
		name string
		req  *wire.Request
		want catalog.ResultCode
	}{
		{"set bus ok", req(uint64(catalog.CmdSetActiveBus), int64(1)), catalog.ResultOK},
		{"set bus bad value", req(uint64(catalog.CmdSetActiveBus), int64(4)), catalog.ResultBadArg},
		{"set bus string", req(uint64(catalog.CmdSetActiveBus), "main"), catalog.ResultBadArg},
		{"set bus no args", req(uint64(catalog.CmdSetActiveBus)), catalog.ResultNotEnoughData},
		{"set bus too many", req(uint64(catalog.CmdSetActiveBus), int64(0), int64(1)), catalog.ResultParamTooMany},
		{"set serial number", req(uint64(catalog.CmdSetSerial), int64(5)), catalog.ResultBadArg},
		{"set time ok", req(uint64(catalog.CmdSetTime), 1.5e9), catalog.ResultOK},
		{"set time bool", req(uint64(catalog.CmdSetTime), true), catalog.ResultBadArg},
		{"reset with args", req(uint64(catalog.CmdReset), int64(1)), catalog.ResultParamTooMany},
		{"get tm unknown", req(uint64(catalog.CmdGetTM), int64(1)), catalog.ResultTmUnknown},
		{"get tm string", req(uint64(catalog.CmdGetTM), "version"), catalog.ResultBadArg},
		{"unknown command", req(42), catalog.ResultNotImplemented},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := sim.Handle(tt.req)
			assert.Equal(t, catalog.TagResultCode, resp.Type)
			assert.Equal(t, int64(tt.want), resp.Data)
		})
	}
}

func TestHandleKwargs(t *testing.T) {
	sim := New(Config{})
	resp := sim.Handle(wire.NewRequest(uint64(catalog.CmdSetActiveBus), nil, map[string]any{"bus": int64(1)}))
	assert.Equal(t, int64(catalog.ResultOK), resp.Data)
	assert.Equal(t, catalog.BusReserve, sim.Snapshot().ActiveBus)
}

func TestSerialLocked(t *testing.T) {
	sim := New(Config{SerialLocked: true})
	resp := sim.Handle(req(uint64(catalog.CmdSetSerial), "SN-1"))
	assert.Equal(t, int64(catalog.ResultPermissionDenied), resp.Data)
	assert.Equal(t, "SN-0000", sim.Snapshot().Serial)

	sim.SetSerialLocked(false)
	resp = sim.Handle(req(uint64(catalog.CmdSetSerial), "SN-1"))
	assert.Equal(t, int64(catalog.ResultOK), resp.Data)
	assert.Equal(t, "SN-1", sim.Snapshot().Serial)
	assert.False(t, sim.Snapshot().SerialLocked)
}

func TestHandleLineParseError(t *testing.T) {
	sim := New(Config{})
	reply := sim.HandleLine(context.Background(), "not json")
	resp, err := wire.DecodeResponse([]byte(reply))
	require.NoError(t, err)
	assert.Equal(t, "str", resp.Type)
	assert.Equal(t, "parse error", resp.Data)
}

func TestHandleLineEcho(t *testing.T) {
	sim := New(Config{})
	reply := sim.HandleLine(context.Background(), `{"cmd_id": 60480, "args": [1, "a"], "kwargs": {"k": 2.5}}`)
	resp, err := wire.DecodeResponse([]byte(reply))
	require.NoError(t, err)
	assert.Equal(t, "dict", resp.Type)

	d := resp.Data.(*wire.Dict)
	assert.Equal(t, []string{"args", "kwargs"}, d.Keys())
	args, _ := d.Get("args")
	assert.Equal(t, []any{int64(1), "a"}, args)
	kwargs, err := d.Sub("kwargs")
	require.NoError(t, err)
	assert.True(t, kwargs.Equal(map[string]any{"k": 2.5}))
}

func TestRequestsAreRecorded(t *testing.T) {
	sim := New(Config{})
	sim.Handle(req(uint64(catalog.CmdReset)))
	sim.Handle(req(uint64(catalog.CmdGetTM), int64(catalog.TmSerial)))

	history := sim.Requests()
	require.Len(t, history, 2)
	assert.Equal(t, uint64(catalog.CmdReset), history[0].CmdID)
	assert.Equal(t, "str", history[1].Reply.Type)
}

func TestOperatingTimeAndReset(t *testing.T) {
	clock := newFakeClock()
	sim := New(Config{Clock: clock.Now})

	clock.Advance(90 * time.Second)
	resp := sim.Handle(req(uint64(catalog.CmdGetTM), int64(catalog.TmOperatingTime)))
	d := resp.Data.(*wire.Dict)
	uptime, _ := d.Float("operating_time")
	assert.InDelta(t, 90, uptime, 1e-9)

	sim.Handle(req(uint64(catalog.CmdReset)))
	clock.Advance(2 * time.Second)

	resp = sim.Handle(req(uint64(catalog.CmdGetTM), int64(catalog.TmOperatingTime)))
	d = resp.Data.(*wire.Dict)
	reboots, _ := d.Int("reboot_count")
	uptime, _ = d.Float("operating_time")
	total, _ := d.Float("total_time")
	assert.Equal(t, int64(1), reboots)
	assert.InDelta(t, 2, uptime, 1e-9)
	assert.InDelta(t, 92, total, 1e-9)
}

func TestSetTimeShiftsCurrentTime(t *testing.T) {
	clock := newFakeClock()
	sim := New(Config{Clock: clock.Now})

	sim.Handle(req(uint64(catalog.CmdSetTime), int64(1000)))
	clock.Advance(5 * time.Second)

	resp := sim.Handle(req(uint64(catalog.CmdGetTM), int64(catalog.TmCurrentTime)))
	assert.Equal(t, "float", resp.Type)
	assert.InDelta(t, 1005, resp.Data.(float64), 1e-3)
}
