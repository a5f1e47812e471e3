package device

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/linectl/linectl-go/pkg/wire"
)

type mockCaller struct {
	mock.Mock
	registry *Registry
}

func (m *mockCaller) Do(ctx context.Context, req *wire.Request) (*wire.Response, error) {
	args := m.Called(ctx, req)
	resp, _ := args.Get(0).(*wire.Response)
	return resp, args.Error(1)
}

func (m *mockCaller) Registry() *Registry {
	return m.registry
}

var setColor = Command{Name: "set_color", ArgType: "color", ID: 0x10, ReturnType: "color"}

func TestCommandCallSendsOneRequest(t *testing.T) {
	c := &mockCaller{registry: testRegistry()}
	c.On("Do", mock.Anything, mock.MatchedBy(func(r *wire.Request) bool {
		return r.CmdID == 0x10 && len(r.Args) == 1 && r.Args[0] == green && len(r.Kwargs) == 0
	})).Return(&wire.Response{Type: "color", Data: int64(1)}, nil).Once()

	got, err := setColor.Call(context.Background(), c, green)
	require.NoError(t, err)
	assert.Equal(t, green, got)
	c.AssertExpectations(t)
	c.AssertNumberOfCalls(t, "Do", 1)
}

func TestCommandCallKwPassesKeywords(t *testing.T) {
	c := &mockCaller{registry: NewRegistry()}
	c.On("Do", mock.Anything, mock.MatchedBy(func(r *wire.Request) bool {
		return r.Kwargs["mode"] == "fast"
	})).Return(&wire.Response{Type: "int", Data: int64(0)}, nil)

	_, err := setColor.CallKw(context.Background(), c, nil, map[string]any{"mode": "fast"})
	require.NoError(t, err)
	c.AssertExpectations(t)
}

func TestCommandAnnotatesContext(t *testing.T) {
	c := &mockCaller{registry: NewRegistry()}
	c.On("Do", mock.MatchedBy(func(ctx context.Context) bool {
		return CommandFromContext(ctx) == "set_color"
	}), mock.Anything).Return(&wire.Response{Type: "int", Data: int64(0)}, nil)

	_, err := setColor.Call(context.Background(), c)
	require.NoError(t, err)
	c.AssertExpectations(t)
}

func TestCommandArgumentsAreNotValidated(t *testing.T) {
	c := &mockCaller{registry: NewRegistry()}
	c.On("Do", mock.Anything, mock.Anything).Return(&wire.Response{Type: "int", Data: int64(3)}, nil)

	// wrong type and arity still go out on the wire
	_, err := setColor.Call(context.Background(), c, "not-a-color", 1, 2)
	require.NoError(t, err)
	req := c.Calls[0].Arguments.Get(1).(*wire.Request)
	assert.Equal(t, []any{"not-a-color", 1, 2}, req.Args)
}

func TestCommandTransportErrorPropagates(t *testing.T) {
	boom := errors.New("connection reset")
	c := &mockCaller{registry: NewRegistry()}
	c.On("Do", mock.Anything, mock.Anything).Return(nil, boom)

	_, err := setColor.Call(context.Background(), c, green)
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "set_color")
}

func TestCommandDegradesUnknownTag(t *testing.T) {
	c := &mockCaller{registry: NewRegistry()}
	resp := &wire.Response{Type: "consumption", Data: int64(5)}
	c.On("Do", mock.Anything, mock.Anything).Return(resp, nil)

	got, err := setColor.Call(context.Background(), c)
	require.NoError(t, err)
	assert.Same(t, resp, got)
}

func TestCommandString(t *testing.T) {
	assert.Equal(t, "set_color(color) -> color", setColor.String())
}
