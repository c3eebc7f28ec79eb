package mocks

import (
	"context"

	"github.com/mythictransfers/supportdesk/internal/llm"
	"github.com/stretchr/testify/mock"
)

// Completer is a mock of llm.Completer.
type Completer struct {
	mock.Mock
}

func (_m *Completer) Complete(ctx context.Context, req llm.Request) (string, error) {
	ret := _m.Called(ctx, req)

	if len(ret) == 0 {
		panic("no return value specified for Complete")
	}

	if rf, ok := ret.Get(0).(func(context.Context, llm.Request) (string, error)); ok {
		return rf(ctx, req)
	}
	return ret.String(0), ret.Error(1)
}

// Name returns "mock" unless an expectation is registered.
func (_m *Completer) Name() string {
	for _, call := range _m.ExpectedCalls {
		if call.Method == "Name" {
			return _m.Called().String(0)
		}
	}
	return "mock"
}

// NewCompleter creates a Completer that asserts its expectations on cleanup.
func NewCompleter(t interface {
	mock.TestingT
	Cleanup(func())
}) *Completer {
	m := &Completer{}
	m.Mock.Test(t)

	t.Cleanup(func() { m.AssertExpectations(t) })

	return m
}
