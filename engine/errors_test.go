package engine_test

import (
	"errors"
	"fmt"
	"syscall"
	"testing"

	"github.com/powerman/rpc-codec/jsonrpc2"
	"github.com/usnistgov/tgenctl/engine"
	"go.uber.org/multierr"
)

func TestErrors(t *testing.T) {
	assert, _ := makeAR(t)

	ae := engine.NewAPIError(syscall.ENOENT, "", "tc9")
	assert.Equal(syscall.ENOENT, ae.Errno())
	assert.Contains(ae.Error(), "ENOENT")
	assert.True(engine.IsAPIError(ae))
	assert.True(engine.IsAPIError(fmt.Errorf("wrapped: %w", ae)))
	assert.False(engine.IsConnError(ae))

	re := ae.RPCError()
	assert.Equal(int(syscall.ENOENT), re.Code)
	back := engine.FromRPCError(re)
	assert.Equal(ae.Code, back.Code)
	assert.Equal(ae.Message, back.Message)

	proto := engine.FromRPCError(jsonrpc2.NewError(-32601, "method not found"))
	assert.Equal(syscall.Errno(0), proto.Errno())
	assert.Contains(proto.Error(), "-32601")

	ce := &engine.ConnError{Op: "dial", Err: syscall.ECONNREFUSED}
	assert.True(engine.IsConnError(ce))
	assert.False(engine.IsAPIError(ce))
	assert.ErrorIs(ce, syscall.ECONNREFUSED)
	assert.True(engine.IsConnError(engine.ErrDisconnected))

	assert.True(engine.IsAPIError(multierr.Append(ae, engine.NewAPIError(syscall.EINVAL, "bad", nil))))
	assert.False(engine.IsAPIError(multierr.Append(ae, ce)))
	assert.False(engine.IsAPIError(multierr.Append(ae, errors.New("other"))))
	assert.False(engine.IsAPIError(nil))
}
