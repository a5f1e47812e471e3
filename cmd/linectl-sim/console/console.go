// Package console provides the interactive operator console for
// linectl-sim.
package console

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/chzyer/readline"

	"github.com/linectl/linectl-go/pkg/catalog"
	"github.com/linectl/linectl-go/pkg/simulator"
	"github.com/linectl/linectl-go/pkg/wire"
)

// Simulator is the part of *simulator.Simulator the console drives.
type Simulator interface {
	Handle(req *wire.Request) *wire.Response
	SetSerialLocked(locked bool)
}

// Console is a readline loop over a running simulator.
type Console struct {
	sim      Simulator
	status   func() Status
	rl       *readline.Instance
	mu       sync.Mutex
	sessions map[string]string
}

// Status is what the status command prints.
type Status struct {
	ActiveBus    catalog.ActiveBus
	Serial       string
	SerialLocked bool
	Version      catalog.Version
	RebootCount  int64
	BootTime     time.Time
	Requests     []Request
}

// Request is one line of request history.
type Request struct {
	Time  time.Time
	CmdID uint64
	Args  []any
	Reply *wire.Response
}

// New creates a console. status is called for status and history.
func New(sim Simulator, status func() Status) (*Console, error) {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "sim> ",
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create readline: %w", err)
	}
	c := newConsole(sim, status)
	c.rl = rl
	return c, nil
}

func newConsole(sim Simulator, status func() Status) *Console {
	return &Console{sim: sim, status: status, sessions: make(map[string]string)}
}

// Stdout returns a writer that coordinates with the prompt.
func (c *Console) Stdout() io.Writer {
	return c.rl.Stdout()
}

// OnConnect records a client session. Wire it to ServeOptions.OnConnect.
func (c *Console) OnConnect(id, remote string) {
	c.mu.Lock()
	c.sessions[id] = remote
	c.mu.Unlock()
}

// OnDisconnect forgets a client session.
func (c *Console) OnDisconnect(id, _ string) {
	c.mu.Lock()
	delete(c.sessions, id)
	c.mu.Unlock()
}

// Run starts the command loop. It returns when the operator quits or ctx
// is cancelled; cancel is called on quit.
func (c *Console) Run(ctx context.Context, cancel context.CancelFunc) {
	defer c.rl.Close()

	out := c.rl.Stdout()
	c.printHelp(out)

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		line, err := c.rl.Readline()
		if err != nil {
			if err == readline.ErrInterrupt {
				continue
			}
			fmt.Fprintln(out, "Exiting...")
			cancel()
			return
		}

		if c.Execute(out, line) {
			fmt.Fprintln(out, "Exiting...")
			cancel()
			return
		}
	}
}

// Execute runs one command line and reports whether the operator asked
// to quit.
func (c *Console) Execute(w io.Writer, line string) bool {
	parts := strings.Fields(line)
	if len(parts) == 0 {
		return false
	}
	cmd := strings.ToLower(parts[0])
	args := parts[1:]

	switch cmd {
	case "help", "?":
		c.printHelp(w)
	case "status", "s":
		c.cmdStatus(w)
	case "sessions":
		c.cmdSessions(w)
	case "bus":
		c.cmdBus(w, args)
	case "serial":
		c.cmdSerial(w, args)
	case "lock":
		c.sim.SetSerialLocked(true)
		fmt.Fprintln(w, "Serial number locked")
	case "unlock":
		c.sim.SetSerialLocked(false)
		fmt.Fprintln(w, "Serial number unlocked")
	case "reset":
		c.call(w, catalog.CmdReset)
	case "history", "h":
		c.cmdHistory(w, args)
	case "quit", "exit", "q":
		return true
	default:
		fmt.Fprintf(w, "Unknown command: %s (type 'help' for commands)\n", cmd)
	}
	return false
}

func (c *Console) printHelp(w io.Writer) {
	fmt.Fprintln(w, `
linectl-sim Commands:
  status             - Show simulated device state
  sessions           - List connected clients
  bus <main|reserve> - Switch the active bus
  serial <value>     - Set the serial number
  lock | unlock      - Refuse or accept set_serial from clients
  reset              - Reboot the simulated device
  history [n]        - Show the last n requests (default 10)
  help               - Show this help
  quit               - Stop the simulator`)
}

// call sends a request as if it came from a client.
func (c *Console) call(w io.Writer, cmd catalog.CmdID, args ...any) {
	resp := c.sim.Handle(wire.NewRequest(uint64(cmd), args, nil))
	fmt.Fprintf(w, "%s -> %s\n", cmd, formatReply(resp))
}

func (c *Console) cmdStatus(w io.Writer) {
	st := c.status()
	locked := ""
	if st.SerialLocked {
		locked = " (locked)"
	}
	fmt.Fprintf(w, "Active bus:   %s\n", st.ActiveBus)
	fmt.Fprintf(w, "Serial:       %s%s\n", st.Serial, locked)
	fmt.Fprintf(w, "Version:      %s\n", st.Version)
	fmt.Fprintf(w, "Reboots:      %d\n", st.RebootCount)
	fmt.Fprintf(w, "Booted:       %s\n", st.BootTime.Format(time.RFC3339))
	fmt.Fprintf(w, "Requests:     %d\n", len(st.Requests))

	c.mu.Lock()
	n := len(c.sessions)
	c.mu.Unlock()
	fmt.Fprintf(w, "Sessions:     %d\n", n)
}

func (c *Console) cmdSessions(w io.Writer) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.sessions) == 0 {
		fmt.Fprintln(w, "No connected clients")
		return
	}
	for id, remote := range c.sessions {
		fmt.Fprintf(w, "  [%.8s] %s\n", id, remote)
	}
}

func (c *Console) cmdBus(w io.Writer, args []string) {
	if len(args) != 1 {
		fmt.Fprintln(w, "Usage: bus <main|reserve>")
		return
	}
	bus, err := catalog.ParseActiveBus(args[0])
	if err != nil {
		fmt.Fprintf(w, "Error: %v\n", err)
		return
	}
	c.call(w, catalog.CmdSetActiveBus, int64(bus))
}

func (c *Console) cmdSerial(w io.Writer, args []string) {
	if len(args) != 1 {
		fmt.Fprintln(w, "Usage: serial <value>")
		return
	}
	c.call(w, catalog.CmdSetSerial, args[0])
}

func (c *Console) cmdHistory(w io.Writer, args []string) {
	n := 10
	if len(args) > 0 {
		v, err := strconv.Atoi(args[0])
		if err != nil || v <= 0 {
			fmt.Fprintf(w, "Error: invalid count %q\n", args[0])
			return
		}
		n = v
	}

	reqs := c.status().Requests
	if len(reqs) > n {
		reqs = reqs[len(reqs)-n:]
	}
	if len(reqs) == 0 {
		fmt.Fprintln(w, "No requests yet")
		return
	}
	for _, r := range reqs {
		fmt.Fprintf(w, "%s %-15s %v -> %s\n",
			r.Time.Format("15:04:05.000"), catalog.CmdID(r.CmdID), r.Args, formatReply(r.Reply))
	}
}

// formatReply renders a response the way a client would read it.
func formatReply(resp *wire.Response) string {
	if resp == nil {
		return "(none)"
	}
	if resp.Type == catalog.TagResultCode {
		if n, ok := wire.ToInt64(resp.Data); ok {
			return catalog.ResultCode(n).String()
		}
	}
	return fmt.Sprintf("%s %v", resp.Type, wire.Plain(resp.Data))
}

// StatusOf reads the console status from a simulator.
func StatusOf(sim *simulator.Simulator) Status {
	snap := sim.Snapshot()
	st := Status{
		ActiveBus:    snap.ActiveBus,
		Serial:       snap.Serial,
		SerialLocked: snap.SerialLocked,
		Version:      snap.Version,
		RebootCount:  snap.RebootCount,
		BootTime:     snap.BootTime,
	}
	for _, r := range sim.Requests() {
		st.Requests = append(st.Requests, Request{Time: r.Time, CmdID: r.CmdID, Args: r.Args, Reply: r.Reply})
	}
	return st
}
