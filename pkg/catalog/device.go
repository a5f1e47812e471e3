package catalog

import (
	"context"

	"github.com/linectl/linectl-go/pkg/device"
	"github.com/linectl/linectl-go/pkg/transport"
)

// Command descriptors.
var (
	// SetActiveBus sets the priority exchange bus.
	SetActiveBus = device.Command{Name: "set_active_bus", ArgType: "ActiveBus", ID: uint64(CmdSetActiveBus), ReturnType: TagResultCode}

	// SetSerial sets the serial number.
	SetSerial = device.Command{Name: "set_serial", ArgType: "str", ID: uint64(CmdSetSerial), ReturnType: TagResultCode}

	// GetTM requests a telemetry item.
	GetTM = device.Command{Name: "get_tm", ArgType: "TmId", ID: uint64(CmdGetTM), ReturnType: device.TagAttrDict}

	// SetTime sets the device clock (seconds since the epoch).
	SetTime = device.Command{Name: "set_time", ArgType: "int | float", ID: uint64(CmdSetTime), ReturnType: TagResultCode}

	Reset = device.Command{Name: "reset", ArgType: "None", ID: uint64(CmdReset), ReturnType: TagResultCode}
)

// Commands lists the descriptors in declaration order.
func Commands() []device.Command {
	return []device.Command{SetActiveBus, SetSerial, GetTM, SetTime, Reset}
}

// Device is a handle to one bus-controller device.
type Device struct {
	*device.Handle
}

// Open connects to the device at endpoint.
func Open(ctx context.Context, id uint64, endpoint string, cfg transport.Config) (*Device, error) {
	h, err := device.Open(ctx, id, endpoint, cfg, NewRegistry())
	if err != nil {
		return nil, err
	}
	return &Device{Handle: h}, nil
}

// New wraps an existing handle. The handle should use NewRegistry.
func New(h *device.Handle) *Device {
	return &Device{Handle: h}
}

// SetActiveBus sends set_active_bus. The result is a ResultCode, or the
// raw envelope when the reply does not fit.
func (d *Device) SetActiveBus(ctx context.Context, bus ActiveBus) (any, error) {
	return SetActiveBus.Call(ctx, d, bus)
}

// SetSerial sends set_serial.
func (d *Device) SetSerial(ctx context.Context, serial string) (any, error) {
	return SetSerial.Call(ctx, d, serial)
}

// GetTM requests telemetry item tm. The result type depends on the item.
func (d *Device) GetTM(ctx context.Context, tm TmID) (any, error) {
	return GetTM.Call(ctx, d, tm)
}

// SetTime sends set_time. t is passed through unchecked and should be an
// int or float number of seconds.
func (d *Device) SetTime(ctx context.Context, t any) (any, error) {
	return SetTime.Call(ctx, d, t)
}

// Reset restarts the device.
func (d *Device) Reset(ctx context.Context) (any, error) {
	return Reset.Call(ctx, d)
}

// Call invokes an arbitrary descriptor on this device.
func (d *Device) Call(ctx context.Context, cmd device.Command, args []any, kwargs map[string]any) (any, error) {
	return cmd.CallKw(ctx, d, args, kwargs)
}
