package runner

import (
	"context"
	"fmt"
	"time"

	"github.com/linectl/linectl-go/internal/testharness/engine"
	"github.com/linectl/linectl-go/internal/testharness/loader"
	"github.com/linectl/linectl-go/pkg/catalog"
	"github.com/linectl/linectl-go/pkg/device"
	"github.com/linectl/linectl-go/pkg/wire"
)

// Action names as they appear in scenario files.
const (
	ActionGetTM        = "get_tm"
	ActionSetActiveBus = "set_active_bus"
	ActionSetSerial    = "set_serial"
	ActionSetTime      = "set_time"
	ActionReset        = "reset"
	ActionWait         = "wait"
	ActionReconnect    = "reconnect"
)

// Step parameter and output names.
const (
	ParamTM            = "tm"
	ParamBus           = "bus"
	ParamSerial        = "serial"
	ParamTime          = "time"
	ParamOffsetSeconds = "offset_seconds"

	KeySent        = "sent"
	KeyWaited      = "waited"
	KeyReconnected = "reconnected"
)

const defaultWait = time.Second

func (r *Runner) registerHandlers() {
	r.engine.RegisterHandler(ActionGetTM, r.handleGetTM)
	r.engine.RegisterHandler(ActionSetActiveBus, r.handleSetActiveBus)
	r.engine.RegisterHandler(ActionSetSerial, r.handleSetSerial)
	r.engine.RegisterHandler(ActionSetTime, r.handleSetTime)
	r.engine.RegisterHandler(ActionReset, r.handleReset)
	r.engine.RegisterHandler(ActionWait, r.handleWait)
	r.engine.RegisterHandler(ActionReconnect, r.handleReconnect)
}

// call runs fn against the scenario's device and describes its result.
func call(state *engine.ExecutionState, fn func(dev *catalog.Device) (any, error)) (map[string]any, error) {
	dev, err := deviceFrom(state)
	if err != nil {
		return nil, err
	}
	v, err := fn(dev)
	if err != nil {
		return nil, err
	}
	return Describe(v), nil
}

func (r *Runner) handleGetTM(ctx context.Context, step *loader.Step, state *engine.ExecutionState) (map[string]any, error) {
	tm, err := enumParam(step.Params, ParamTM, catalog.ParseTmID)
	if err != nil {
		return nil, err
	}
	return call(state, func(dev *catalog.Device) (any, error) {
		return dev.GetTM(ctx, tm)
	})
}

func (r *Runner) handleSetActiveBus(ctx context.Context, step *loader.Step, state *engine.ExecutionState) (map[string]any, error) {
	bus, err := enumParam(step.Params, ParamBus, catalog.ParseActiveBus)
	if err != nil {
		return nil, err
	}
	return call(state, func(dev *catalog.Device) (any, error) {
		return dev.SetActiveBus(ctx, bus)
	})
}

func (r *Runner) handleSetSerial(ctx context.Context, step *loader.Step, state *engine.ExecutionState) (map[string]any, error) {
	v, ok := step.Params[ParamSerial]
	if !ok {
		return nil, fmt.Errorf("%s: missing param %q", step.Action, ParamSerial)
	}
	serial, ok := v.(string)
	if !ok {
		serial = device.FormatValue(v)
	}
	return call(state, func(dev *catalog.Device) (any, error) {
		return dev.SetSerial(ctx, serial)
	})
}

// handleSetTime sends params.time as given, or now plus offset_seconds.
// The value sent is reported as "sent".
func (r *Runner) handleSetTime(ctx context.Context, step *loader.Step, state *engine.ExecutionState) (map[string]any, error) {
	t, ok := step.Params[ParamTime]
	if !ok {
		now := float64(time.Now().UnixNano()) / float64(time.Second)
		offset, _ := wire.ToFloat64(step.Params[ParamOffsetSeconds])
		t = now + offset
	} else if _, isNum := wire.ToFloat64(t); !isNum {
		return nil, fmt.Errorf("%s: param %q must be a number, got %T", step.Action, ParamTime, t)
	}

	out, err := call(state, func(dev *catalog.Device) (any, error) {
		return dev.SetTime(ctx, t)
	})
	if err != nil {
		return nil, err
	}
	out[KeySent] = t
	return out, nil
}

func (r *Runner) handleReset(ctx context.Context, step *loader.Step, state *engine.ExecutionState) (map[string]any, error) {
	return call(state, func(dev *catalog.Device) (any, error) {
		return dev.Reset(ctx)
	})
}

func (r *Runner) handleWait(ctx context.Context, step *loader.Step, state *engine.ExecutionState) (map[string]any, error) {
	d := engine.StepDuration(step)
	if d <= 0 {
		d = defaultWait
	}

	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-timer.C:
	}
	return map[string]any{KeyWaited: d.Seconds()}, nil
}

// handleReconnect closes the scenario's connection and opens a new one.
func (r *Runner) handleReconnect(ctx context.Context, step *loader.Step, state *engine.ExecutionState) (map[string]any, error) {
	if dev, ok := state.Custom[stateKeyDevice].(*catalog.Device); ok {
		_ = dev.Close()
		delete(state.Custom, stateKeyDevice)
	}
	dev, err := r.dial(ctx)
	if err != nil {
		return nil, fmt.Errorf("reconnect: %w", err)
	}
	state.Custom[stateKeyDevice] = dev
	return map[string]any{KeyReconnected: true}, nil
}

// enumParam reads an enum parameter given by name or number. Numbers pass
// through unchecked so scenarios can send undeclared values.
func enumParam[T ~int64](params map[string]any, name string, parse func(string) (T, error)) (T, error) {
	v, ok := params[name]
	if !ok {
		return 0, fmt.Errorf("missing param %q", name)
	}
	if s, ok := v.(string); ok {
		return parse(s)
	}
	if n, ok := wire.ToInt64(v); ok {
		return T(n), nil
	}
	return 0, fmt.Errorf("param %q: want name or integer, got %T", name, v)
}
