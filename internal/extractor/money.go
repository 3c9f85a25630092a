package extractor

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/dujoseaugusto/go-bolsas-crawler/internal/utils"
)

// DefaultCurrencyMarker é o marcador monetário das fontes brasileiras.
const DefaultCurrencyMarker = "R$"

// NumberFormat descreve os separadores de um locale numérico.
type NumberFormat struct {
	Decimal   string
	Thousands string
}

var (
	// BrazilianFormat: 12.345,67
	BrazilianFormat = NumberFormat{Decimal: ",", Thousands: "."}
	// EnglishFormat: 12,345.67
	EnglishFormat = NumberFormat{Decimal: ".", Thousands: ","}
)

// Valid exige separadores de um caractere e distintos entre si.
func (f NumberFormat) Valid() bool {
	return len(f.Decimal) == 1 && len(f.Thousands) == 1 && f.Decimal != f.Thousands
}

// pattern casa 12.345,67 | 12345,67 | 12.000 | 12000 no locale brasileiro e os
// equivalentes nos demais.
func (f NumberFormat) pattern() string {
	th, dec := regexp.QuoteMeta(f.Thousands), regexp.QuoteMeta(f.Decimal)
	return `(?:\d{1,3}(?:` + th + `\d{3})+|\d+)(?:` + dec + `\d{1,2})?\b`
}

// ExtractedMoney guarda o maior valor monetário encontrado em um bloco.
type ExtractedMoney struct {
	Max *float64
}

// Found indica se algum valor foi lido.
func (e ExtractedMoney) Found() bool {
	return e.Max != nil
}

// MoneyExtractor encontra valores precedidos de um marcador monetário,
// opcionalmente como faixa ("R$ 9.000 a R$ 14.000", "R$ 9.000 até 14.000").
type MoneyExtractor struct {
	pattern *regexp.Regexp
	format  NumberFormat
}

// NewMoneyExtractor compila o padrão para os marcadores informados, no locale
// brasileiro. Sem marcadores, usa "R$".
func NewMoneyExtractor(markers ...string) *MoneyExtractor {
	return NewMoneyExtractorWithFormat(BrazilianFormat, markers...)
}

// NewMoneyExtractorWithFormat é como NewMoneyExtractor, lendo os números no
// formato informado. Um formato inválido cai no brasileiro.
func NewMoneyExtractorWithFormat(format NumberFormat, markers ...string) *MoneyExtractor {
	if !format.Valid() {
		format = BrazilianFormat
	}

	quoted := make([]string, 0, len(markers))
	for _, m := range markers {
		if m = strings.TrimSpace(m); m != "" {
			quoted = append(quoted, regexp.QuoteMeta(m))
		}
	}
	if len(quoted) == 0 {
		quoted = append(quoted, regexp.QuoteMeta(DefaultCurrencyMarker))
	}
	marker := `(?:` + strings.Join(quoted, "|") + `)`

	number := format.pattern()
	pattern := `(?i)` + marker + `\s*(` + number + `)` +
		`(?:\s*` + rangeConnector + `\s*(?:` + marker + `\s*)?(` + number + `))?`

	return &MoneyExtractor{pattern: regexp.MustCompile(pattern), format: format}
}

// ExtractMaxAmount retorna o maior valor entre todas as ocorrências, considerando
// as duas pontas de cada faixa individualmente.
func (e *MoneyExtractor) ExtractMaxAmount(text string) ExtractedMoney {
	var result ExtractedMoney

	// \s do RE2 não cobre NBSP ("R$\u00a012.000")
	text = utils.Normalize(text)
	for _, m := range e.pattern.FindAllStringSubmatch(text, -1) {
		for _, raw := range m[1:] {
			if raw == "" {
				continue
			}
			value, ok := ParseNumber(raw, e.format)
			if !ok {
				continue
			}
			if result.Max == nil || value > *result.Max {
				v := value
				result.Max = &v
			}
		}
	}

	return result
}

// ParseLocaleNumber converte "12.345,67" em 12345.67. Pontos são separadores de
// milhar e a vírgula é o separador decimal.
func ParseLocaleNumber(raw string) (float64, bool) {
	return ParseNumber(raw, BrazilianFormat)
}

// ParseNumber converte raw segundo format. Espaços e NBSP entre os dígitos são
// ignorados.
func ParseNumber(raw string, format NumberFormat) (float64, bool) {
	if !format.Valid() {
		format = BrazilianFormat
	}
	cleaned := strings.NewReplacer(format.Thousands, "", " ", "", "\u00a0", "").Replace(strings.TrimSpace(raw))
	cleaned = strings.Replace(cleaned, format.Decimal, ".", 1)
	if cleaned == "" {
		return 0, false
	}

	value, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0, false
	}
	return value, true
}
