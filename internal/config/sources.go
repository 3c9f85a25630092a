package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sort"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/dujoseaugusto/go-bolsas-crawler/internal/extractor"
	"github.com/dujoseaugusto/go-bolsas-crawler/internal/listing"
)

// Identificadores das fontes conhecidas.
const (
	SourceCAPES     = "capes"
	SourceIPEA      = "ipea"
	SourcePCI       = "pci"
	SourceUNCareers = "uncareers"
)

// SourceProfile é a configuração de extração e filtro de uma fonte.
type SourceProfile struct {
	Name     string `yaml:"name"`
	Kind     string `yaml:"kind"`
	Location string `yaml:"location"`
	ListURL  string `yaml:"list_url"`

	CurrencyMarkers []string `yaml:"currency_markers"`
	// Separadores dos valores monetários; vazios usam o padrão brasileiro.
	DecimalSeparator   string `yaml:"decimal_separator"`
	ThousandsSeparator string `yaml:"thousands_separator"`
	Months          string   `yaml:"months"`
	Keywords        []string `yaml:"keywords"`
	KeywordWindow   int      `yaml:"keyword_window"`

	AmountGated            bool    `yaml:"amount_gated"`
	MinAmount              float64 `yaml:"min_amount"`
	IncludeUnknownDeadline bool    `yaml:"include_unknown_deadline"`

	MaxItems    int           `yaml:"max_items"`
	DetailDelay time.Duration `yaml:"detail_delay"`
}

// DefaultSources retorna os perfis embutidos, equivalentes aos scripts originais
// de cada portal.
func DefaultSources() map[string]SourceProfile {
	return map[string]SourceProfile{
		SourceCAPES: {
			Name:                   "CAPES",
			Kind:                   "Chamada/Bolsa",
			Location:               "Brasil",
			ListURL:                "https://www.gov.br/capes/pt-br/acesso-a-informacao/licitacoes-e-contratos/chamadas-publicas/chamadas",
			Months:                 "pt",
			IncludeUnknownDeadline: true,
			MaxItems:               200,
		},
		SourceIPEA: {
			Name:                   "IPEA",
			Kind:                   "Bolsa",
			Location:               "Brasil",
			ListURL:                "https://www.ipea.gov.br/portal/bolsas-de-pesquisa",
			Months:                 "pt",
			IncludeUnknownDeadline: true,
			MaxItems:               120,
			DetailDelay:            700 * time.Millisecond,
		},
		SourcePCI: {
			Name:        "PCI Concursos",
			Kind:        "Concurso",
			ListURL:     "https://www.pciconcursos.com.br/concursos/",
			Months:      "pt",
			AmountGated: true,
			MinAmount:   10000,
			MaxItems:    200,
			DetailDelay: 700 * time.Millisecond,
		},
		SourceUNCareers: {
			Name:                   "UN Careers",
			Kind:                   "Internacional",
			ListURL:                "https://careers.un.org/jobopening",
			CurrencyMarkers:        []string{"USD", "US$"},
			DecimalSeparator:       ".",
			ThousandsSeparator:     ",",
			Months:                 "en",
			Keywords:               []string{"deadline", "closing", "closes"},
			IncludeUnknownDeadline: true,
			MaxItems:               120,
		},
	}
}

// LoadSources lê o arquivo YAML de perfis. Cada entrada do arquivo é aplicada
// sobre o perfil embutido de mesmo id; um arquivo inexistente mantém os padrões.
func LoadSources(path string) (map[string]SourceProfile, error) {
	sources := DefaultSources()
	if path == "" {
		return sources, nil
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return sources, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read sources file: %w", err)
	}

	var nodes map[string]yaml.Node
	if err := yaml.Unmarshal(data, &nodes); err != nil {
		return nil, fmt.Errorf("failed to parse sources file: %w", err)
	}

	for id, node := range nodes {
		profile := sources[id]
		if err := node.Decode(&profile); err != nil {
			return nil, fmt.Errorf("source %q: %w", id, err)
		}
		sources[id] = profile
	}

	for id, profile := range sources {
		if err := profile.Validate(); err != nil {
			return nil, fmt.Errorf("source %q: %w", id, err)
		}
	}

	return sources, nil
}

// SourceIDs lista os ids em ordem alfabética.
func SourceIDs(sources map[string]SourceProfile) []string {
	ids := make([]string, 0, len(sources))
	for id := range sources {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Validate verifica campos obrigatórios e valores aceitos.
func (p SourceProfile) Validate() error {
	if p.Name == "" {
		return errors.New("name is required")
	}
	if p.ListURL == "" {
		return errors.New("list_url is required")
	}
	if p.Months != "" && p.Months != "pt" && p.Months != "en" {
		return fmt.Errorf("unknown months table %q", p.Months)
	}
	if p.DecimalSeparator != "" || p.ThousandsSeparator != "" {
		if !p.NumberFormat().Valid() {
			return fmt.Errorf("invalid number separators %q/%q", p.DecimalSeparator, p.ThousandsSeparator)
		}
	}
	if p.AmountGated && p.MinAmount <= 0 {
		return errors.New("amount_gated requires min_amount")
	}
	if p.MaxItems < 0 {
		return errors.New("max_items must not be negative")
	}
	return nil
}

// DateConfig monta a configuração do extrator de datas.
func (p SourceProfile) DateConfig() extractor.DateConfig {
	cfg := extractor.DefaultDateConfig()
	if p.Months == "en" {
		cfg.Months = extractor.EnglishMonths
		cfg.MonthConnector = ""
	}
	if len(p.Keywords) > 0 {
		cfg.Keywords = p.Keywords
	}
	if p.KeywordWindow > 0 {
		cfg.KeywordWindow = p.KeywordWindow
	}
	return cfg
}

// NumberFormat retorna o formato dos valores monetários da fonte.
func (p SourceProfile) NumberFormat() extractor.NumberFormat {
	if p.DecimalSeparator == "" && p.ThousandsSeparator == "" {
		return extractor.BrazilianFormat
	}
	return extractor.NumberFormat{Decimal: p.DecimalSeparator, Thousands: p.ThousandsSeparator}
}

// NewMoneyExtractor cria o extrator de valores com marcadores e formato da fonte.
func (p SourceProfile) NewMoneyExtractor() *extractor.MoneyExtractor {
	return extractor.NewMoneyExtractorWithFormat(p.NumberFormat(), p.CurrencyMarkers...)
}

// FilterConfig monta os limiares do filtro para a data de referência.
func (p SourceProfile) FilterConfig(today extractor.Date) listing.FilterConfig {
	return listing.FilterConfig{
		MinAmount:              p.MinAmount,
		Today:                  today,
		AmountGated:            p.AmountGated,
		IncludeUnknownDeadline: p.IncludeUnknownDeadline,
	}
}

// SourceInfo identifica a fonte nos registros.
func (p SourceProfile) SourceInfo() listing.SourceInfo {
	return listing.SourceInfo{Name: p.Name, Kind: p.Kind, Location: p.Location}
}

// NewAssembler cria o montador com os extratores configurados para a fonte.
func (p SourceProfile) NewAssembler() *listing.Assembler {
	return listing.NewAssembler(
		extractor.NewDateExtractor(p.DateConfig()),
		p.NewMoneyExtractor(),
		p.SourceInfo(),
	)
}
