package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/dujoseaugusto/go-bolsas-crawler/internal/config"
	"github.com/dujoseaugusto/go-bolsas-crawler/internal/extractor"
	"github.com/dujoseaugusto/go-bolsas-crawler/internal/listing"
	"github.com/dujoseaugusto/go-bolsas-crawler/internal/logger"
	"github.com/dujoseaugusto/go-bolsas-crawler/internal/metrics"
)

// Source é um portal: entrega candidatos da listagem e completa cada um com a
// página de detalhe.
type Source interface {
	ID() string
	Profile() config.SourceProfile
	ListCandidates(ctx context.Context) ([]listing.RawTextBlock, error)
	FetchDetail(ctx context.Context, block *listing.RawTextBlock) error
}

// isFatal reconhece erros que declaram encerrar a execução (Fatal() bool), como
// as falhas de listagem dos adaptadores.
func isFatal(err error) bool {
	var f interface{ Fatal() bool }
	return errors.As(err, &f) && f.Fatal()
}

// Sink recebe os registros aceitos, na ordem em que foram emitidos.
type Sink interface {
	Write(ctx context.Context, run RunInfo, rec listing.ListingRecord) error
}

// RunInfo identifica uma execução sobre uma fonte.
type RunInfo struct {
	ID        string
	Source    string
	Today     extractor.Date
	StartedAt time.Time
}

// RunStats resume uma execução.
type RunStats struct {
	Candidates     int
	DetailFailures int
	Filtered       map[listing.Reason]int
	Duplicates     int
	Emitted        int
}

// FilteredTotal soma os descartes de todos os motivos.
func (s RunStats) FilteredTotal() int {
	total := 0
	for _, n := range s.Filtered {
		total += n
	}
	return total
}

// ListingService executa o pipeline listagem -> detalhe -> montagem -> filtro ->
// dedup -> saída para uma fonte por vez.
type ListingService struct {
	sinks   []Sink
	metrics *metrics.Metrics
	logger  *logger.Logger
	now     func() time.Time
	newID   func() string
}

// NewListingService cria o serviço. m pode ser nil.
func NewListingService(m *metrics.Metrics, sinks ...Sink) *ListingService {
	return &ListingService{
		sinks:   sinks,
		metrics: m,
		logger:  logger.NewLogger("listing_service"),
		now:     time.Now,
		newID:   uuid.NewString,
	}
}

// Run processa uma fonte. Falha na listagem ou em um Sink interrompe a execução;
// falhas de detalhe apenas deixam o candidato sem texto de detalhe.
func (s *ListingService) Run(ctx context.Context, src Source, today extractor.Date) (RunStats, error) {
	profile := src.Profile()
	run := RunInfo{
		ID:        s.newID(),
		Source:    profile.Name,
		Today:     today,
		StartedAt: s.now(),
	}
	log := s.logger.WithFields(map[string]interface{}{
		"source": src.ID(),
		"run_id": run.ID,
	})

	stats, err := s.run(ctx, src, profile, run, log)

	status := "ok"
	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		status = "canceled"
	case err != nil:
		status = "failed"
	}
	s.metrics.ObserveRun(profile.Name, status, s.now().Sub(run.StartedAt).Seconds())

	log.WithFields(map[string]interface{}{
		"status":          status,
		"candidates":      stats.Candidates,
		"detail_failures": stats.DetailFailures,
		"filtered":        stats.FilteredTotal(),
		"duplicates":      stats.Duplicates,
		"emitted":         stats.Emitted,
	}).Info("Run finished")

	return stats, err
}

func (s *ListingService) run(ctx context.Context, src Source, profile config.SourceProfile, run RunInfo, log *logger.Logger) (RunStats, error) {
	stats := RunStats{Filtered: make(map[listing.Reason]int)}

	blocks, err := src.ListCandidates(ctx)
	if err != nil {
		return stats, fmt.Errorf("listing %s: %w", src.ID(), err)
	}
	if profile.MaxItems > 0 && len(blocks) > profile.MaxItems {
		blocks = blocks[:profile.MaxItems]
	}
	log.Infof("Listing returned %d candidates", len(blocks))

	assembler := profile.NewAssembler()
	filterCfg := profile.FilterConfig(run.Today)
	seen := listing.NewSeenSet()

	for i := range blocks {
		if err := ctx.Err(); err != nil {
			return stats, err
		}

		block := blocks[i]
		stats.Candidates++
		s.metrics.IncCandidates(profile.Name)

		key := listing.DedupKey(block.Title, block.SourceURL)
		if seen.Contains(key) {
			stats.Duplicates++
			s.metrics.IncDuplicates(profile.Name)
			log.WithField("url", block.SourceURL).Debug("Duplicate candidate skipped before detail fetch")
			continue
		}

		if err := src.FetchDetail(ctx, &block); err != nil {
			if isFatal(err) || ctx.Err() != nil {
				return stats, err
			}
			stats.DetailFailures++
			s.metrics.IncDetailFailures(profile.Name)
			log.WithField("url", block.SourceURL).WithError(err).Warn("Detail page unavailable, using listing text")
		}

		assembled := assembler.Assemble(block)
		rec := assembled.Record

		keep, reason := listing.Evaluate(rec, filterCfg)
		if !keep {
			stats.Filtered[reason]++
			s.metrics.IncFiltered(profile.Name, string(reason))
			log.WithFields(map[string]interface{}{
				"url":    rec.URL,
				"reason": string(reason),
			}).Debug("Candidate filtered")
			continue
		}

		if seen.IsDuplicate(key) {
			stats.Duplicates++
			s.metrics.IncDuplicates(profile.Name)
			continue
		}

		for _, sink := range s.sinks {
			if err := sink.Write(ctx, run, rec); err != nil {
				return stats, fmt.Errorf("sink: %w", err)
			}
		}
		stats.Emitted++
		s.metrics.IncEmitted(profile.Name)

		log.WithFields(map[string]interface{}{
			"url":             rec.URL,
			"deadline_origin": assembled.DeadlineOrigin,
		}).Debug("Record emitted")
	}

	return stats, nil
}
