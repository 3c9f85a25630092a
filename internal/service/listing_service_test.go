package service_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/dujoseaugusto/go-bolsas-crawler/internal/config"
	"github.com/dujoseaugusto/go-bolsas-crawler/internal/crawler"
	"github.com/dujoseaugusto/go-bolsas-crawler/internal/extractor"
	"github.com/dujoseaugusto/go-bolsas-crawler/internal/listing"
	"github.com/dujoseaugusto/go-bolsas-crawler/internal/metrics"
	"github.com/dujoseaugusto/go-bolsas-crawler/internal/mocks"
	"github.com/dujoseaugusto/go-bolsas-crawler/internal/service"
)

func today(t *testing.T) extractor.Date {
	t.Helper()
	d, err := extractor.ParseDate("2024-03-10")
	require.NoError(t, err)
	return d
}

func newSource(id string, profile config.SourceProfile, blocks []listing.RawTextBlock, listErr error) *mocks.MockSource {
	src := &mocks.MockSource{}
	src.On("ID").Return(id)
	src.On("Profile").Return(profile)
	if listErr != nil {
		src.On("ListCandidates", mock.Anything).Return(nil, listErr)
	} else {
		src.On("ListCandidates", mock.Anything).Return(blocks, nil)
	}
	return src
}

func forURL(url string) interface{} {
	return mock.MatchedBy(func(b *listing.RawTextBlock) bool { return b.SourceURL == url })
}

func pciProfile() config.SourceProfile {
	return config.DefaultSources()[config.SourcePCI]
}

func ipeaProfile() config.SourceProfile {
	return config.DefaultSources()[config.SourceIPEA]
}

func TestRun_AmountGatedSource(t *testing.T) {
	blocks := []listing.RawTextBlock{
		{Title: "TRF 1ª Região", SourceURL: "https://example.com/a", ContextText: "Salário: R$ 14.000,00. Inscrições até 15/03/2024"},
		{Title: "Prefeitura de Itu", SourceURL: "https://example.com/b", ContextText: "Salário R$ 3.000,00. Inscrições até 20/03/2024"},
		{Title: "Câmara de Ouro Preto", SourceURL: "https://example.com/c", ContextText: "Remuneração de R$ 12.000,00. Inscrições até 01/03/2024"},
		{Title: "Conselho Regional", SourceURL: "https://example.com/d", ContextText: "Inscrições até 30/03/2024"},
	}
	src := newSource(config.SourcePCI, pciProfile(), blocks, nil)
	src.On("FetchDetail", mock.Anything, mock.Anything).Return(nil)

	sink := &mocks.MockSink{}
	sink.On("Write", mock.Anything, mock.MatchedBy(func(run service.RunInfo) bool {
		_, err := uuid.Parse(run.ID)
		return err == nil && run.Source == "PCI Concursos" && run.Today.Equal(today(t).Time)
	}), mock.MatchedBy(func(rec listing.ListingRecord) bool {
		return rec.URL == "https://example.com/a"
	})).Return(nil).Once()

	m := metrics.NewMetrics(prometheus.NewRegistry())
	svc := service.NewListingService(m, sink)

	stats, err := svc.Run(context.Background(), src, today(t))

	require.NoError(t, err)
	assert.Equal(t, 4, stats.Candidates)
	assert.Equal(t, 1, stats.Emitted)
	assert.Equal(t, 3, stats.FilteredTotal())
	assert.Equal(t, 1, stats.Filtered[listing.ReasonBelowMinAmount])
	assert.Equal(t, 1, stats.Filtered[listing.ReasonDeadlinePassed])
	assert.Equal(t, 1, stats.Filtered[listing.ReasonMissingAmount])
	sink.AssertExpectations(t)

	assert.Equal(t, 4.0, testutil.ToFloat64(m.CandidatesTotal.WithLabelValues("PCI Concursos")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.EmittedTotal.WithLabelValues("PCI Concursos")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.FilteredTotal.WithLabelValues("PCI Concursos", "deadline_passed")))
}

func TestRun_EmittedRecordFields(t *testing.T) {
	blocks := []listing.RawTextBlock{
		{Title: "  Bolsa   PNPD ", SourceURL: "https://example.com/pnpd", ContextText: "Prazo: 01/04/2024", ListingMeta: listing.Meta{Status: "Aberta"}},
	}
	src := newSource(config.SourceIPEA, ipeaProfile(), blocks, nil)
	src.On("FetchDetail", mock.Anything, forURL("https://example.com/pnpd")).
		Run(func(args mock.Arguments) {
			b := args.Get(1).(*listing.RawTextBlock)
			b.DetailText = "Inscrições de 01/03/2024 a 20/04/2024. Bolsa de R$ 5.200,00."
			b.DetailFetched = true
		}).Return(nil)

	var got listing.ListingRecord
	sink := &mocks.MockSink{}
	sink.On("Write", mock.Anything, mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) { got = args.Get(2).(listing.ListingRecord) }).
		Return(nil)

	stats, err := service.NewListingService(nil, sink).Run(context.Background(), src, today(t))

	require.NoError(t, err)
	assert.Equal(t, 1, stats.Emitted)
	assert.Equal(t, "Bolsa PNPD", got.Title)
	assert.Equal(t, "IPEA", got.Source)
	require.NotNil(t, got.DeadlineEndDate)
	assert.Equal(t, "2024-04-20", got.DeadlineEndDate.String())
	require.NotNil(t, got.SalaryMax)
	assert.Equal(t, 5200.0, *got.SalaryMax)
	require.NotNil(t, got.Status)
	assert.Equal(t, "Aberta", *got.Status)
}

func TestRun_ListingFailureIsFatal(t *testing.T) {
	listErr := crawler.NewListingError("IPEA", "https://example.com", errors.New("status 503"))
	src := newSource(config.SourceIPEA, ipeaProfile(), nil, listErr)
	sink := &mocks.MockSink{}

	_, err := service.NewListingService(nil, sink).Run(context.Background(), src, today(t))

	require.Error(t, err)
	assert.True(t, crawler.IsFatal(err))
	assert.ErrorContains(t, err, "status 503")
	sink.AssertNotCalled(t, "Write", mock.Anything, mock.Anything, mock.Anything)
}

func TestRun_DetailFailureKeepsListingText(t *testing.T) {
	blocks := []listing.RawTextBlock{
		{Title: "Bolsa", SourceURL: "https://example.com/1", ContextText: "Prazo de inscrição: 10/04/2024"},
	}
	src := newSource(config.SourceIPEA, ipeaProfile(), blocks, nil)
	src.On("FetchDetail", mock.Anything, mock.Anything).
		Return(crawler.NewDetailError("IPEA", "https://example.com/1", errors.New("timeout")))

	var got listing.ListingRecord
	sink := &mocks.MockSink{}
	sink.On("Write", mock.Anything, mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) { got = args.Get(2).(listing.ListingRecord) }).
		Return(nil)

	stats, err := service.NewListingService(nil, sink).Run(context.Background(), src, today(t))

	require.NoError(t, err)
	assert.Equal(t, 1, stats.DetailFailures)
	assert.Equal(t, 1, stats.Emitted)
	require.NotNil(t, got.DeadlineEndDate)
	assert.Equal(t, "2024-04-10", got.DeadlineEndDate.String())
	assert.Empty(t, got.Description)
}

func TestRun_FatalDetailErrorAborts(t *testing.T) {
	blocks := []listing.RawTextBlock{
		{Title: "Vaga", SourceURL: "https://example.com/1"},
		{Title: "Outra", SourceURL: "https://example.com/2"},
	}
	src := newSource(config.SourceUNCareers, config.DefaultSources()[config.SourceUNCareers], blocks, nil)
	src.On("FetchDetail", mock.Anything, mock.Anything).
		Return(crawler.NewListingError("UN Careers", "", errors.New("browser crashed"))).Once()
	sink := &mocks.MockSink{}

	stats, err := service.NewListingService(nil, sink).Run(context.Background(), src, today(t))

	require.Error(t, err)
	assert.Equal(t, 1, stats.Candidates)
	src.AssertNumberOfCalls(t, "FetchDetail", 1)
}

func TestRun_WrappedFatalErrorAborts(t *testing.T) {
	blocks := []listing.RawTextBlock{{Title: "Vaga", SourceURL: "https://example.com/1"}}
	src := newSource(config.SourceIPEA, ipeaProfile(), blocks, nil)
	src.On("FetchDetail", mock.Anything, mock.Anything).
		Return(fmt.Errorf("detail: %w", crawler.NewListingError("IPEA", "", errors.New("session expired"))))

	_, err := service.NewListingService(nil, &mocks.MockSink{}).Run(context.Background(), src, today(t))

	require.Error(t, err)
	assert.ErrorContains(t, err, "session expired")
}

func TestRun_PartialDetailIsIgnored(t *testing.T) {
	blocks := []listing.RawTextBlock{
		{Title: "Bolsa", SourceURL: "https://example.com/1", ContextText: "Prazo de inscrição: 10/04/2024"},
	}
	src := newSource(config.SourceIPEA, ipeaProfile(), blocks, nil)
	src.On("FetchDetail", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			b := args.Get(1).(*listing.RawTextBlock)
			b.DetailText = "Página truncada: 31/12/2030"
		}).
		Return(crawler.NewParseError("IPEA", "https://example.com/1", errors.New("unexpected layout")))

	var got listing.ListingRecord
	sink := &mocks.MockSink{}
	sink.On("Write", mock.Anything, mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) { got = args.Get(2).(listing.ListingRecord) }).
		Return(nil)

	stats, err := service.NewListingService(nil, sink).Run(context.Background(), src, today(t))

	require.NoError(t, err)
	assert.Equal(t, 1, stats.DetailFailures)
	require.NotNil(t, got.DeadlineEndDate)
	assert.Equal(t, "2024-04-10", got.DeadlineEndDate.String())
	assert.Empty(t, got.Description)
}

func TestRun_DuplicatesSkipDetailFetch(t *testing.T) {
	blocks := []listing.RawTextBlock{
		{Title: "Bolsa de Pesquisa", SourceURL: "https://example.com/1"},
		{Title: "  BOLSA de   pesquisa", SourceURL: "https://example.com/1"},
		{Title: "Bolsa de Pesquisa", SourceURL: "https://example.com/2"},
	}
	src := newSource(config.SourceIPEA, ipeaProfile(), blocks, nil)
	src.On("FetchDetail", mock.Anything, mock.Anything).Return(nil)

	sink := &mocks.MockSink{}
	sink.On("Write", mock.Anything, mock.Anything, mock.Anything).Return(nil)

	stats, err := service.NewListingService(nil, sink).Run(context.Background(), src, today(t))

	require.NoError(t, err)
	assert.Equal(t, 1, stats.Duplicates)
	assert.Equal(t, 2, stats.Emitted)
	src.AssertNumberOfCalls(t, "FetchDetail", 2)
	sink.AssertNumberOfCalls(t, "Write", 2)
}

func TestRun_FilteredCandidateDoesNotBlockLaterDuplicate(t *testing.T) {
	blocks := []listing.RawTextBlock{
		{Title: "Bolsa", SourceURL: "https://example.com/1", ContextText: "Prazo: 01/01/2024"},
		{Title: "Bolsa", SourceURL: "https://example.com/1", ContextText: "Prazo: 01/05/2024"},
	}
	src := newSource(config.SourceIPEA, ipeaProfile(), blocks, nil)
	src.On("FetchDetail", mock.Anything, mock.Anything).Return(nil)

	sink := &mocks.MockSink{}
	sink.On("Write", mock.Anything, mock.Anything, mock.Anything).Return(nil)

	stats, err := service.NewListingService(nil, sink).Run(context.Background(), src, today(t))

	require.NoError(t, err)
	assert.Equal(t, 1, stats.Filtered[listing.ReasonDeadlinePassed])
	assert.Equal(t, 0, stats.Duplicates)
	assert.Equal(t, 1, stats.Emitted)
}

func TestRun_SinkErrorAborts(t *testing.T) {
	blocks := []listing.RawTextBlock{
		{Title: "A", SourceURL: "https://example.com/a"},
		{Title: "B", SourceURL: "https://example.com/b"},
	}
	src := newSource(config.SourceIPEA, ipeaProfile(), blocks, nil)
	src.On("FetchDetail", mock.Anything, mock.Anything).Return(nil)

	sink := &mocks.MockSink{}
	sink.On("Write", mock.Anything, mock.Anything, mock.Anything).Return(errors.New("disk full"))

	stats, err := service.NewListingService(nil, sink).Run(context.Background(), src, today(t))

	assert.ErrorContains(t, err, "disk full")
	assert.Equal(t, 0, stats.Emitted)
	sink.AssertNumberOfCalls(t, "Write", 1)
}

func TestRun_MaxItemsCapsCandidates(t *testing.T) {
	profile := ipeaProfile()
	profile.MaxItems = 2
	blocks := []listing.RawTextBlock{
		{Title: "A", SourceURL: "https://example.com/a"},
		{Title: "B", SourceURL: "https://example.com/b"},
		{Title: "C", SourceURL: "https://example.com/c"},
	}
	src := newSource(config.SourceIPEA, profile, blocks, nil)
	src.On("FetchDetail", mock.Anything, mock.Anything).Return(nil)

	sink := &mocks.MockSink{}
	sink.On("Write", mock.Anything, mock.Anything, mock.Anything).Return(nil)

	stats, err := service.NewListingService(nil, sink).Run(context.Background(), src, today(t))

	require.NoError(t, err)
	assert.Equal(t, 2, stats.Candidates)
	src.AssertNotCalled(t, "FetchDetail", mock.Anything, forURL("https://example.com/c"))
}

func TestRun_ContextCanceled(t *testing.T) {
	blocks := []listing.RawTextBlock{{Title: "A", SourceURL: "https://example.com/a"}}
	src := newSource(config.SourceIPEA, ipeaProfile(), blocks, nil)
	sink := &mocks.MockSink{}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	stats, err := service.NewListingService(nil, sink).Run(ctx, src, today(t))

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, stats.Candidates)
	src.AssertNotCalled(t, "FetchDetail", mock.Anything, mock.Anything)
}
