package mocks

import (
	"context"

	"github.com/mythictransfers/supportdesk/internal/models"
	"github.com/stretchr/testify/mock"
)

// Generator is a mock of orchestrator.Generator.
type Generator struct {
	mock.Mock
}

func (_m *Generator) Analyze(ctx context.Context, msg *models.InboundMessage) *models.Analysis {
	ret := _m.Called(ctx, msg)

	if len(ret) == 0 {
		panic("no return value specified for Analyze")
	}

	if rf, ok := ret.Get(0).(func(context.Context, *models.InboundMessage) *models.Analysis); ok {
		return rf(ctx, msg)
	}
	r0, _ := ret.Get(0).(*models.Analysis)
	return r0
}

func (_m *Generator) Draft(ctx context.Context, msg *models.InboundMessage, analysis *models.Analysis,
	order *models.OrderRecord, customer *models.CustomerRecord) (*models.DraftResponse, error) {
	ret := _m.Called(ctx, msg, analysis, order, customer)

	if len(ret) == 0 {
		panic("no return value specified for Draft")
	}

	r0, _ := ret.Get(0).(*models.DraftResponse)
	return r0, ret.Error(1)
}

func NewGenerator(t interface {
	mock.TestingT
	Cleanup(func())
}) *Generator {
	m := &Generator{}
	m.Mock.Test(t)

	t.Cleanup(func() { m.AssertExpectations(t) })

	return m
}
