package listing

import (
	"strings"

	"github.com/dujoseaugusto/go-bolsas-crawler/internal/extractor"
)

// Limites de tamanho aplicados por truncamento simples.
const (
	MaxTitleLength       = 200
	MaxSummaryLength     = 800
	MaxDescriptionLength = 15000
)

// Meta reúne campos rotulados que algumas fontes publicam ("Situação:", "Programa:",
// "Ano:", "Prazo:").
type Meta struct {
	Status   string
	Program  string
	Year     string
	Deadline string
}

// IsZero indica que nenhum campo foi preenchido.
func (m Meta) IsZero() bool {
	return m == Meta{}
}

// Joined concatena os valores preenchidos, usado como última tentativa de prazo.
func (m Meta) Joined() string {
	parts := make([]string, 0, 4)
	for _, v := range []string{m.Status, m.Program, m.Year, m.Deadline} {
		if v != "" {
			parts = append(parts, v)
		}
	}
	return strings.Join(parts, " ")
}

// RawTextBlock é o texto bruto de um candidato, como entregue pelo crawler.
// Os campos Detail* só valem quando DetailFetched indica que a página de detalhe
// foi obtida.
type RawTextBlock struct {
	Title       string
	ContextText string
	DetailText  string
	SourceURL   string

	Summary      string
	Location     string
	DeadlineHint string
	ListingMeta  Meta
	DetailMeta   Meta

	DetailFetched bool
}

// ListingRecord é a unidade de saída, emitida uma única vez por candidato aceito.
type ListingRecord struct {
	Title           string          `json:"title"`
	URL             string          `json:"url"`
	Source          string          `json:"source"`
	Kind            string          `json:"kind"`
	DeadlineText    *string         `json:"deadline_text"`
	DeadlineEndDate *extractor.Date `json:"deadline_end_date"`
	SalaryMax       *float64        `json:"salary_max"`
	Location        string          `json:"location"`
	Summary         string          `json:"summary"`
	Description     string          `json:"description"`
	Status          *string         `json:"status"`
	Program         *string         `json:"program"`
	Year            *string         `json:"year"`
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
