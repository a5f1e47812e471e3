package simulator

import (
	"context"
	"log/slog"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/linectl/linectl-go/pkg/catalog"
	"github.com/linectl/linectl-go/pkg/wire"
)

// CmdEcho returns its arguments as {"args": [...], "kwargs": {...}}.
const CmdEcho uint64 = 0x0ec40

// Clock returns the current time.
type Clock func() time.Time

// Config configures a Simulator.
type Config struct {
	// Serial is the initial serial number (default: "SN-0000").
	Serial string

	// Version is the reported firmware version (default: 1.2.0.7).
	Version catalog.Version

	// ActiveBus is the initial bus.
	ActiveBus catalog.ActiveBus

	// Temperature is the mean reported temperature (default: 25.0).
	Temperature float64

	// TemperatureSwing is the amplitude of the slow temperature drift
	// (default: 0.5).
	TemperatureSwing float64

	// Consumption is reported under the unregistered "consumption" tag
	// (default: 5).
	Consumption int64

	// SerialLocked makes set_serial answer PermissionDenied.
	SerialLocked bool

	// Clock overrides time.Now.
	Clock Clock

	// Logger for operational logging (default: slog.Default()).
	Logger *slog.Logger
}

func (c Config) withDefaults() Config {
	if c.Serial == "" {
		c.Serial = "SN-0000"
	}
	if c.Version == (catalog.Version{}) {
		c.Version = catalog.Version{Major: 1, Minor: 2, Patch: 0, Build: 7}
	}
	if c.Temperature == 0 {
		c.Temperature = 25.0
	}
	if c.TemperatureSwing == 0 {
		c.TemperatureSwing = 0.5
	}
	if c.Consumption == 0 {
		c.Consumption = 5
	}
	if c.Clock == nil {
		c.Clock = time.Now
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
	return c
}

// State is a snapshot of the simulated device.
type State struct {
	ActiveBus   catalog.ActiveBus
	Serial      string
	Version     catalog.Version
	RebootCount int64
	BootTime    time.Time
	TotalBase   float64
	ClockOffset float64

	// SerialLocked makes set_serial answer PermissionDenied.
	SerialLocked bool
}

// Request is one received request as recorded by the simulator.
type Request struct {
	Time   time.Time
	CmdID  uint64
	Args   []any
	Kwargs map[string]any
	Reply  *wire.Response
}

// Simulator is a simulated device. It is safe for concurrent use.
type Simulator struct {
	cfg     Config
	created time.Time

	mu      sync.RWMutex
	state   State
	history []Request
}

// New creates a simulator booted at the current clock time.
func New(cfg Config) *Simulator {
	cfg = cfg.withDefaults()
	now := cfg.Clock()
	return &Simulator{
		cfg:     cfg,
		created: now,
		state: State{
			ActiveBus: cfg.ActiveBus,
			Serial:    cfg.Serial,
			Version:   cfg.Version,
			BootTime:  now,

			SerialLocked: cfg.SerialLocked,
		},
	}
}

// Snapshot returns the current state.
func (s *Simulator) Snapshot() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// SetSerialLocked locks or unlocks the serial number.
func (s *Simulator) SetSerialLocked(locked bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.SerialLocked = locked
}

// Requests returns every handled request in arrival order.
func (s *Simulator) Requests() []Request {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Request, len(s.history))
	copy(out, s.history)
	return out
}

// HandleLine answers one request line. It implements transport.LineHandler.
func (s *Simulator) HandleLine(_ context.Context, line string) string {
	req, err := wire.DecodeRequest([]byte(line))
	if err != nil {
		s.cfg.Logger.Debug("simulator: bad request", "line", line, "error", err)
		return encode(&wire.Response{Type: "str", Data: "parse error"})
	}
	return encode(s.Handle(req))
}

// Handle answers one decoded request.
func (s *Simulator) Handle(req *wire.Request) *wire.Response {
	s.mu.Lock()
	defer s.mu.Unlock()

	resp := s.dispatch(req)
	s.history = append(s.history, Request{
		Time:   s.cfg.Clock(),
		CmdID:  req.CmdID,
		Args:   req.Args,
		Kwargs: req.Kwargs,
		Reply:  resp,
	})
	return resp
}

func (s *Simulator) dispatch(req *wire.Request) *wire.Response {
	if req.CmdID == CmdEcho {
		return &wire.Response{Type: "dict", Data: wire.DictOf(
			wire.KeyArgs, req.Args,
			wire.KeyKwargs, wire.DictFromMap(req.Kwargs),
		)}
	}

	params := parameters(req)
	switch catalog.CmdID(req.CmdID) {
	case catalog.CmdGetTM:
		return s.getTM(params)
	case catalog.CmdSetActiveBus:
		return s.setActiveBus(params)
	case catalog.CmdSetSerial:
		return s.setSerial(params)
	case catalog.CmdSetTime:
		return s.setTime(params)
	case catalog.CmdReset:
		return s.reset(params)
	default:
		return result(catalog.ResultNotImplemented)
	}
}

// parameters flattens args and kwargs (in key order) into one list.
func parameters(req *wire.Request) []any {
	params := append([]any{}, req.Args...)
	keys := make([]string, 0, len(req.Kwargs))
	for k := range req.Kwargs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		params = append(params, req.Kwargs[k])
	}
	return params
}

// arity returns a non-nil response when params does not hold exactly n values.
func arity(params []any, n int) *wire.Response {
	switch {
	case len(params) > n:
		return result(catalog.ResultParamTooMany)
	case len(params) < n:
		return result(catalog.ResultNotEnoughData)
	}
	return nil
}

func (s *Simulator) getTM(params []any) *wire.Response {
	if r := arity(params, 1); r != nil {
		return r
	}
	n, ok := wire.ToInt64(params[0])
	if !ok {
		return result(catalog.ResultBadArg)
	}

	now := s.cfg.Clock()
	uptime := now.Sub(s.state.BootTime).Seconds()

	switch catalog.TmID(n) {
	case catalog.TmActiveBus:
		return &wire.Response{Type: catalog.TagActiveBus, Data: int64(s.state.ActiveBus)}
	case catalog.TmTemperature:
		drift := s.cfg.TemperatureSwing * math.Sin(now.Sub(s.created).Seconds()/60)
		return &wire.Response{Type: "float", Data: s.cfg.Temperature + drift}
	case catalog.TmConsumption:
		return &wire.Response{Type: catalog.TagConsumption, Data: s.cfg.Consumption}
	case catalog.TmVersion:
		v := s.state.Version
		return &wire.Response{Type: catalog.TagVersion, Data: wire.DictOf(
			"major", v.Major,
			"minor", v.Minor,
			"patch", v.Patch,
			"build", v.Build,
		)}
	case catalog.TmSerial:
		return &wire.Response{Type: "str", Data: s.state.Serial}
	case catalog.TmCurrentTime:
		return &wire.Response{Type: "float", Data: unixSeconds(now) + s.state.ClockOffset}
	case catalog.TmOperatingTime:
		return &wire.Response{Type: catalog.TagOperatingTimeInfo, Data: wire.DictOf(
			"reboot_count", s.state.RebootCount,
			"operating_time", uptime,
			"total_time", s.state.TotalBase+uptime,
		)}
	default:
		return result(catalog.ResultTmUnknown)
	}
}

func (s *Simulator) setActiveBus(params []any) *wire.Response {
	if r := arity(params, 1); r != nil {
		return r
	}
	n, ok := wire.ToInt64(params[0])
	if !ok || !catalog.ActiveBus(n).Valid() {
		return result(catalog.ResultBadArg)
	}
	s.state.ActiveBus = catalog.ActiveBus(n)
	s.cfg.Logger.Info("simulator: active bus changed", "bus", s.state.ActiveBus)
	return result(catalog.ResultOK)
}

func (s *Simulator) setSerial(params []any) *wire.Response {
	if r := arity(params, 1); r != nil {
		return r
	}
	serial, ok := params[0].(string)
	if !ok {
		return result(catalog.ResultBadArg)
	}
	if s.state.SerialLocked {
		return result(catalog.ResultPermissionDenied)
	}
	s.state.Serial = serial
	s.cfg.Logger.Info("simulator: serial changed", "serial", serial)
	return result(catalog.ResultOK)
}

func (s *Simulator) setTime(params []any) *wire.Response {
	if r := arity(params, 1); r != nil {
		return r
	}
	if _, isBool := params[0].(bool); isBool {
		return result(catalog.ResultBadArg)
	}
	t, ok := wire.ToFloat64(params[0])
	if !ok || math.IsNaN(t) || math.IsInf(t, 0) {
		return result(catalog.ResultBadArg)
	}
	s.state.ClockOffset = t - unixSeconds(s.cfg.Clock())
	return result(catalog.ResultOK)
}

func (s *Simulator) reset(params []any) *wire.Response {
	if r := arity(params, 0); r != nil {
		return r
	}
	now := s.cfg.Clock()
	s.state.TotalBase += now.Sub(s.state.BootTime).Seconds()
	s.state.BootTime = now
	s.state.RebootCount++
	s.cfg.Logger.Info("simulator: reset", "reboot_count", s.state.RebootCount)
	return result(catalog.ResultOK)
}

func result(rc catalog.ResultCode) *wire.Response {
	return &wire.Response{Type: catalog.TagResultCode, Data: int64(rc)}
}

func unixSeconds(t time.Time) float64 {
	return float64(t.UnixNano()) / float64(time.Second)
}

func encode(resp *wire.Response) string {
	data, err := wire.EncodeResponse(resp)
	if err != nil {
		return `{"type": "str", "data": "encode error"}`
	}
	return string(data)
}
