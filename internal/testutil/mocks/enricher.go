package mocks

import (
	"context"

	"github.com/mythictransfers/supportdesk/internal/models"
	"github.com/stretchr/testify/mock"
)

// Enricher is a mock of orchestrator.Enricher.
type Enricher struct {
	mock.Mock
}

func (_m *Enricher) OrderByNumber(ctx context.Context, number string) *models.OrderRecord {
	ret := _m.Called(ctx, number)

	if len(ret) == 0 {
		panic("no return value specified for OrderByNumber")
	}

	r0, _ := ret.Get(0).(*models.OrderRecord)
	return r0
}

func (_m *Enricher) CustomerContext(ctx context.Context, email string) *models.CustomerRecord {
	ret := _m.Called(ctx, email)

	if len(ret) == 0 {
		panic("no return value specified for CustomerContext")
	}

	r0, _ := ret.Get(0).(*models.CustomerRecord)
	return r0
}

func NewEnricher(t interface {
	mock.TestingT
	Cleanup(func())
}) *Enricher {
	m := &Enricher{}
	m.Mock.Test(t)

	t.Cleanup(func() { m.AssertExpectations(t) })

	return m
}
