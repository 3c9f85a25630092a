package listing

import (
	"github.com/dujoseaugusto/go-bolsas-crawler/internal/extractor"
)

// Reason explica por que um registro foi descartado.
type Reason string

const (
	ReasonNone            Reason = ""
	ReasonMissingAmount   Reason = "missing_amount"
	ReasonBelowMinAmount  Reason = "below_min_amount"
	ReasonMissingDeadline Reason = "missing_deadline"
	ReasonDeadlinePassed  Reason = "deadline_passed"
)

// FilterConfig carrega os limiares de inclusão. Today é sempre informado pelo
// chamador; o filtro nunca consulta o relógio.
type FilterConfig struct {
	MinAmount   float64
	Today       extractor.Date
	AmountGated bool
	// IncludeUnknownDeadline só vale para fontes sem limiar de valor.
	IncludeUnknownDeadline bool
}

// ShouldInclude decide se o registro deve ser emitido.
func ShouldInclude(rec ListingRecord, cfg FilterConfig) bool {
	keep, _ := Evaluate(rec, cfg)
	return keep
}

// Evaluate aplica as regras de inclusão e devolve o motivo do descarte.
func Evaluate(rec ListingRecord, cfg FilterConfig) (bool, Reason) {
	if cfg.AmountGated {
		if rec.SalaryMax == nil {
			return false, ReasonMissingAmount
		}
		if *rec.SalaryMax < cfg.MinAmount {
			return false, ReasonBelowMinAmount
		}
		if rec.DeadlineEndDate == nil {
			return false, ReasonMissingDeadline
		}
	}

	if rec.DeadlineEndDate == nil {
		if cfg.IncludeUnknownDeadline {
			return true, ReasonNone
		}
		return false, ReasonMissingDeadline
	}

	if rec.DeadlineEndDate.Before(cfg.Today.Time) {
		return false, ReasonDeadlinePassed
	}

	return true, ReasonNone
}
