package mocks

import (
	"context"

	"github.com/mythictransfers/supportdesk/internal/models"
	"github.com/stretchr/testify/mock"
)

// ReviewService is a mock of api.ReviewService.
type ReviewService struct {
	mock.Mock
}

func (_m *ReviewService) ListPending(ctx context.Context) ([]*models.ReviewItem, error) {
	ret := _m.Called(ctx)

	if len(ret) == 0 {
		panic("no return value specified for ListPending")
	}

	r0, _ := ret.Get(0).([]*models.ReviewItem)
	return r0, ret.Error(1)
}

func (_m *ReviewService) Get(ctx context.Context, id string) (*models.ReviewItem, error) {
	ret := _m.Called(ctx, id)

	if len(ret) == 0 {
		panic("no return value specified for Get")
	}

	r0, _ := ret.Get(0).(*models.ReviewItem)
	return r0, ret.Error(1)
}

func (_m *ReviewService) Approve(ctx context.Context, id, modifiedResponse, reviewer string) (string, error) {
	ret := _m.Called(ctx, id, modifiedResponse, reviewer)

	if len(ret) == 0 {
		panic("no return value specified for Approve")
	}

	return ret.String(0), ret.Error(1)
}

func (_m *ReviewService) Reject(ctx context.Context, id, reviewer string) error {
	ret := _m.Called(ctx, id, reviewer)

	if len(ret) == 0 {
		panic("no return value specified for Reject")
	}

	return ret.Error(0)
}

func NewReviewService(t interface {
	mock.TestingT
	Cleanup(func())
}) *ReviewService {
	m := &ReviewService{}
	m.Mock.Test(t)

	t.Cleanup(func() { m.AssertExpectations(t) })

	return m
}
