package mocks

import (
	"context"

	"github.com/mythictransfers/supportdesk/internal/models"
	"github.com/stretchr/testify/mock"
)

// Sender is a mock of mail.Sender.
type Sender struct {
	mock.Mock
}

func (_m *Sender) Send(ctx context.Context, msg *models.OutboundMessage) (string, error) {
	ret := _m.Called(ctx, msg)

	if len(ret) == 0 {
		panic("no return value specified for Send")
	}

	if rf, ok := ret.Get(0).(func(context.Context, *models.OutboundMessage) (string, error)); ok {
		return rf(ctx, msg)
	}
	return ret.String(0), ret.Error(1)
}

func NewSender(t interface {
	mock.TestingT
	Cleanup(func())
}) *Sender {
	m := &Sender{}
	m.Mock.Test(t)

	t.Cleanup(func() { m.AssertExpectations(t) })

	return m
}
