package extractor

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/dujoseaugusto/go-bolsas-crawler/internal/utils"
)

const isoDate = "2006-01-02"

// DefaultKeywordWindow é quantos caracteres podem separar a palavra-chave de prazo
// da data numérica que ela anuncia.
const DefaultKeywordWindow = 80

// Date é uma data de calendário (sem hora, UTC) serializada como AAAA-MM-DD.
type Date struct {
	time.Time
}

// NewDate constrói uma data validando dia e mês. Combinações impossíveis
// (31/04, 30/02) retornam ok=false em vez de serem normalizadas pelo time.Date.
func NewDate(year int, month time.Month, day int) (Date, bool) {
	if month < time.January || month > time.December || day < 1 || day > 31 {
		return Date{}, false
	}
	t := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
	if t.Year() != year || t.Month() != month || t.Day() != day {
		return Date{}, false
	}
	return Date{Time: t}, true
}

// DateOf trunca um instante para a data de calendário no fuso do próprio instante.
func DateOf(t time.Time) Date {
	d, _ := NewDate(t.Year(), t.Month(), t.Day())
	return d
}

// ParseDate lê uma data no formato AAAA-MM-DD.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(isoDate, strings.TrimSpace(s))
	if err != nil {
		return Date{}, fmt.Errorf("invalid date %q: %w", s, err)
	}
	return Date{Time: t}, nil
}

func (d Date) String() string {
	return d.Format(isoDate)
}

// MarshalJSON implementa json.Marshaler.
func (d Date) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.String() + `"`), nil
}

// UnmarshalJSON implementa json.Unmarshaler.
func (d *Date) UnmarshalJSON(data []byte) error {
	s, err := strconv.Unquote(string(data))
	if err != nil {
		return fmt.Errorf("invalid date literal %s: %w", data, err)
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// ExtractedDate é o resultado da varredura de datas em um bloco de texto.
type ExtractedDate struct {
	Start *Date
	End   *Date
	// Raw é o primeiro trecho casado, normalizado, apenas para exibição.
	Raw string
	// KeywordMatched indica que a primeira data numérica veio precedida de uma
	// palavra-chave de prazo (maior confiança).
	KeywordMatched bool
}

// Found indica se ao menos uma data válida foi encontrada.
func (e ExtractedDate) Found() bool {
	return e.End != nil
}

// PortugueseMonths é a tabela padrão de meses por extenso.
var PortugueseMonths = map[string]time.Month{
	"janeiro": time.January, "fevereiro": time.February, "março": time.March,
	"marco": time.March, "abril": time.April, "maio": time.May, "junho": time.June,
	"julho": time.July, "agosto": time.August, "setembro": time.September,
	"outubro": time.October, "novembro": time.November, "dezembro": time.December,
}

// EnglishMonths é usada por fontes internacionais ("15 March 2024",
// "October 30, 2025", "Oct 30, 2025").
var EnglishMonths = map[string]time.Month{
	"january": time.January, "february": time.February, "march": time.March,
	"april": time.April, "may": time.May, "june": time.June, "july": time.July,
	"august": time.August, "september": time.September, "october": time.October,
	"november": time.November, "december": time.December,
	"jan": time.January, "feb": time.February, "mar": time.March, "apr": time.April,
	"jun": time.June, "jul": time.July, "aug": time.August, "sep": time.September,
	"sept": time.September, "oct": time.October, "nov": time.November, "dec": time.December,
}

// DefaultDeadlineKeywords são as palavras que anunciam prazos em editais brasileiros.
var DefaultDeadlineKeywords = []string{
	"prazo", "inscrições", "inscricoes", "inscrição", "inscricao", "encerramento",
	"período", "periodo", "submissão", "submissao", "submissões", "submissoes",
}

// DateConfig parametriza o extrator por fonte.
type DateConfig struct {
	Keywords       []string
	KeywordWindow  int
	Months         map[string]time.Month
	MonthConnector string
}

// DefaultDateConfig retorna a configuração em português.
func DefaultDateConfig() DateConfig {
	return DateConfig{
		Keywords:       DefaultDeadlineKeywords,
		KeywordWindow:  DefaultKeywordWindow,
		Months:         PortugueseMonths,
		MonthConnector: "de",
	}
}

// DateExtractor encontra datas numéricas e por extenso em texto livre.
type DateExtractor struct {
	numericWithContext *regexp.Regexp
	numericDate        *regexp.Regexp
	spelledDate        *regexp.Regexp
	// monthFirstDate ("October 30, 2025") só existe quando MonthConnector é vazio
	monthFirstDate *regexp.Regexp
	months         map[string]time.Month
}

const (
	numericDatePattern = `\b\d{1,2}[/-]\d{1,2}[/-]\d{2,4}\b`
	rangeConnector     = `(?:até|ao|a|–|-)`
)

// NewDateExtractor compila os padrões a partir da configuração.
func NewDateExtractor(cfg DateConfig) *DateExtractor {
	if cfg.KeywordWindow <= 0 {
		cfg.KeywordWindow = DefaultKeywordWindow
	}
	if len(cfg.Months) == 0 {
		cfg.Months = PortugueseMonths
	}

	months := make(map[string]time.Month, len(cfg.Months))
	names := make([]string, 0, len(cfg.Months))
	for name, m := range cfg.Months {
		lower := strings.ToLower(name)
		months[lower] = m
		months[utils.FoldAccents(lower)] = m
		names = append(names, regexp.QuoteMeta(lower))
	}
	// nomes mais longos primeiro para a alternância não parar em um prefixo
	sort.Slice(names, func(i, j int) bool { return len(names[i]) > len(names[j]) })

	datePart := numericDatePattern + `(?:\s*` + rangeConnector + `\s*` + numericDatePattern + `)?`
	var contextPattern string
	if len(cfg.Keywords) > 0 {
		kws := make([]string, 0, len(cfg.Keywords))
		for _, kw := range cfg.Keywords {
			kws = append(kws, regexp.QuoteMeta(kw))
		}
		contextPattern = fmt.Sprintf(`(?is)(?:(%s).{0,%d}?)?(%s)`,
			strings.Join(kws, "|"), cfg.KeywordWindow, datePart)
	} else {
		contextPattern = `(?is)()(` + datePart + `)`
	}

	monthNames := `(` + strings.Join(names, "|") + `)`
	e := &DateExtractor{
		numericWithContext: regexp.MustCompile(contextPattern),
		numericDate:        regexp.MustCompile(`\b(\d{1,2})[/-](\d{1,2})[/-](\d{2,4})\b`),
		months:             months,
	}

	if cfg.MonthConnector != "" {
		sep := `\s+` + regexp.QuoteMeta(cfg.MonthConnector) + `\s+`
		e.spelledDate = regexp.MustCompile(`(?i)\b(\d{1,2})` + sep + monthNames + sep + `(\d{4})\b`)
	} else {
		// abreviações aceitam ponto: "30 Oct. 2025", "Oct. 30, 2025"
		e.spelledDate = regexp.MustCompile(`(?i)\b(\d{1,2})\s+` + monthNames + `\.?\s+(\d{4})\b`)
		e.monthFirstDate = regexp.MustCompile(`(?i)\b` + monthNames + `\.?\s+(\d{1,2})(?:st|nd|rd|th)?,?\s+(\d{4})\b`)
	}

	return e
}

// ExtractDeadline varre o texto e retorna a menor data como início e a maior como
// fim. A ordem textual não é considerada ordem cronológica.
func (e *DateExtractor) ExtractDeadline(text string) ExtractedDate {
	var result ExtractedDate

	text = utils.Normalize(text)
	if text == "" {
		return result
	}

	dates := e.collect(text)
	if len(dates) == 0 {
		return result
	}

	// Raw é o primeiro trecho numérico com data válida; sem ele, o primeiro por extenso
	for _, m := range e.numericWithContext.FindAllStringSubmatch(text, -1) {
		if len(e.collect(m[2])) > 0 {
			result.Raw = utils.Normalize(m[2])
			result.KeywordMatched = m[1] != ""
			break
		}
	}
	if result.Raw == "" {
		result.Raw = e.firstSpelled(text)
	}

	start, end := dates[0], dates[0]
	for _, d := range dates[1:] {
		if d.Before(start.Time) {
			start = d
		}
		if d.After(end.Time) {
			end = d
		}
	}
	result.Start = &start
	result.End = &end

	return result
}

// collect retorna todas as datas válidas, numéricas e por extenso.
func (e *DateExtractor) collect(text string) []Date {
	var dates []Date

	for _, m := range e.numericDate.FindAllStringSubmatch(text, -1) {
		day, _ := strconv.Atoi(m[1])
		month, _ := strconv.Atoi(m[2])
		year, _ := strconv.Atoi(m[3])
		if year < 100 {
			year += 2000
		}
		if d, ok := NewDate(year, time.Month(month), day); ok {
			dates = append(dates, d)
		}
	}

	for _, m := range e.spelledDate.FindAllStringSubmatch(text, -1) {
		if d, ok := e.spelled(m[1], m[2], m[3]); ok {
			dates = append(dates, d)
		}
	}

	if e.monthFirstDate != nil {
		for _, m := range e.monthFirstDate.FindAllStringSubmatch(text, -1) {
			if d, ok := e.spelled(m[2], m[1], m[3]); ok {
				dates = append(dates, d)
			}
		}
	}

	return dates
}

func (e *DateExtractor) spelled(day, month, year string) (Date, bool) {
	m, ok := e.lookupMonth(month)
	if !ok {
		return Date{}, false
	}
	d, _ := strconv.Atoi(day)
	y, _ := strconv.Atoi(year)
	return NewDate(y, m, d)
}

// firstSpelled retorna, normalizado, o primeiro trecho por extenso que forma uma
// data válida, em qualquer das ordens aceitas.
func (e *DateExtractor) firstSpelled(text string) string {
	patterns := []*regexp.Regexp{e.spelledDate}
	if e.monthFirstDate != nil {
		patterns = append(patterns, e.monthFirstDate)
	}

	first, raw := -1, ""
	for _, re := range patterns {
		for _, loc := range re.FindAllStringIndex(text, -1) {
			if first >= 0 && loc[0] >= first {
				break
			}
			candidate := text[loc[0]:loc[1]]
			if len(e.collect(candidate)) > 0 {
				first, raw = loc[0], candidate
				break
			}
		}
	}
	return utils.Normalize(raw)
}

func (e *DateExtractor) lookupMonth(name string) (time.Month, bool) {
	lower := strings.ToLower(name)
	if m, ok := e.months[lower]; ok {
		return m, true
	}
	m, ok := e.months[utils.FoldAccents(lower)]
	return m, ok
}
