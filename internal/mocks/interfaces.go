package mocks

import (
	"github.com/dujoseaugusto/go-bolsas-crawler/internal/repository"
	"github.com/dujoseaugusto/go-bolsas-crawler/internal/service"
)

var (
	_ service.Source               = (*MockSource)(nil)
	_ service.Sink                 = (*MockSink)(nil)
	_ repository.ListingRepository = (*MockListingRepository)(nil)
)
