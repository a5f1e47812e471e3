package device

import (
	"context"
	"fmt"

	"github.com/linectl/linectl-go/pkg/wire"
)

// Caller performs request/response exchanges for Commands.
// Implemented by Handle.
type Caller interface {
	// Do sends req and returns the decoded response.
	Do(ctx context.Context, req *wire.Request) (*wire.Response, error)

	// Registry resolves response type tags.
	Registry() *Registry
}

// Command describes one device command. ArgType and ReturnType are
// informational; arguments are passed through unchecked.
type Command struct {
	Name       string
	ArgType    string
	ID         uint64
	ReturnType string
}

// Call invokes the command with positional arguments.
func (c Command) Call(ctx context.Context, caller Caller, args ...any) (any, error) {
	return c.CallKw(ctx, caller, args, nil)
}

// CallKw invokes the command with positional and keyword arguments. It
// performs exactly one round trip and materializes the response.
func (c Command) CallKw(ctx context.Context, caller Caller, args []any, kwargs map[string]any) (any, error) {
	resp, err := caller.Do(WithCommand(ctx, c.Name), wire.NewRequest(c.ID, args, kwargs))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", c.Name, err)
	}
	v, err := caller.Registry().Materialize(resp)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", c.Name, err)
	}
	return v, nil
}

// String returns a signature like "set_active_bus(ActiveBus) -> ResultCode".
func (c Command) String() string {
	return fmt.Sprintf("%s(%s) -> %s", c.Name, c.ArgType, c.ReturnType)
}

type commandKey struct{}

// WithCommand annotates ctx with the command name for protocol capture.
func WithCommand(ctx context.Context, name string) context.Context {
	return context.WithValue(ctx, commandKey{}, name)
}

// CommandFromContext returns the name set by WithCommand.
func CommandFromContext(ctx context.Context) string {
	name, _ := ctx.Value(commandKey{}).(string)
	return name
}
