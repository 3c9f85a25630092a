package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/dujoseaugusto/go-bolsas-crawler/internal/config"
	"github.com/dujoseaugusto/go-bolsas-crawler/internal/listing"
	"github.com/dujoseaugusto/go-bolsas-crawler/internal/repository"
	"github.com/dujoseaugusto/go-bolsas-crawler/internal/service"
)

// MockSource is a mock implementation of service.Source
type MockSource struct {
	mock.Mock
}

func (m *MockSource) ID() string {
	args := m.Called()
	return args.String(0)
}

func (m *MockSource) Profile() config.SourceProfile {
	args := m.Called()
	return args.Get(0).(config.SourceProfile)
}

func (m *MockSource) ListCandidates(ctx context.Context) ([]listing.RawTextBlock, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]listing.RawTextBlock), args.Error(1)
}

// FetchDetail aceita um Run(func(mock.Arguments)) para preencher o bloco.
func (m *MockSource) FetchDetail(ctx context.Context, block *listing.RawTextBlock) error {
	args := m.Called(ctx, block)
	return args.Error(0)
}

// MockSink is a mock implementation of service.Sink
type MockSink struct {
	mock.Mock
}

func (m *MockSink) Write(ctx context.Context, run service.RunInfo, rec listing.ListingRecord) error {
	args := m.Called(ctx, run, rec)
	return args.Error(0)
}

// MockListingRepository is a mock implementation of repository.ListingRepository
type MockListingRepository struct {
	mock.Mock
}

func (m *MockListingRepository) FindWithFilters(ctx context.Context, filter repository.ListingFilter, pagination repository.PaginationParams) (*repository.ListingSearchResult, error) {
	args := m.Called(ctx, filter, pagination)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*repository.ListingSearchResult), args.Error(1)
}

func (m *MockListingRepository) Close(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}
