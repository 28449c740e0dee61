package helper

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/cuemby/tinymux/pkg/eval"
)

func TestRegisterExternFuncCallsChannel(t *testing.T) {
	e := eval.New(nil, nil, eval.DefaultLimits)
	r := NewRegistry()
	r.Register(NewChannel("dns", func(args []string) (string, error) {
		return "resolved:" + args[0], nil
	}, nil))
	RegisterExternFunc(e, r)

	got := e.Eval("[extern(dns,nginx)]", &eval.Context{})
	assert.Equal(t, "resolved:nginx", got)
}

func TestRegisterExternFuncTranslatesErrorToBoundedToken(t *testing.T) {
	e := eval.New(nil, nil, eval.DefaultLimits)
	r := NewRegistry()
	r.Register(NewChannel("broken", func(args []string) (string, error) {
		return "", errors.New("boom")
	}, nil))
	RegisterExternFunc(e, r)

	got := e.Eval("[extern(broken,x)]", &eval.Context{})
	assert.Equal(t, "#-1 EXTERNAL ERROR", got)
}

func TestRegisterExternFuncUnknownChannel(t *testing.T) {
	e := eval.New(nil, nil, eval.DefaultLimits)
	r := NewRegistry()
	RegisterExternFunc(e, r)

	got := e.Eval("[extern(missing)]", &eval.Context{})
	assert.Equal(t, "#-1 EXTERNAL ERROR", got)
}
