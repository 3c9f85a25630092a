package listing

import (
	"strings"

	"github.com/dujoseaugusto/go-bolsas-crawler/internal/extractor"
	"github.com/dujoseaugusto/go-bolsas-crawler/internal/utils"
)

// SourceInfo identifica a fonte nos registros emitidos.
type SourceInfo struct {
	Name     string
	Kind     string
	Location string
}

// Assembled é o registro montado junto com os sinais que o originaram.
type Assembled struct {
	Record   ListingRecord
	Deadline extractor.ExtractedDate
	Amount   extractor.ExtractedMoney
	// DeadlineOrigin indica de qual trecho o prazo foi lido (vazio se ausente).
	DeadlineOrigin string
}

// Assembler combina os campos da listagem e do detalhe em um ListingRecord.
type Assembler struct {
	dates  *extractor.DateExtractor
	money  *extractor.MoneyExtractor
	source SourceInfo
}

// NewAssembler cria um montador para uma fonte.
func NewAssembler(dates *extractor.DateExtractor, money *extractor.MoneyExtractor, source SourceInfo) *Assembler {
	return &Assembler{dates: dates, money: money, source: source}
}

type deadlineCandidate struct {
	origin string
	text   string
}

// Assemble monta o registro. Valores do detalhe substituem os da listagem apenas
// quando presentes; sem DetailFetched, DetailText e DetailMeta são ignorados.
func (a *Assembler) Assemble(block RawTextBlock) Assembled {
	if !block.DetailFetched {
		block.DetailText, block.DetailMeta = "", Meta{}
	}

	deadline, origin := a.resolveDeadline(block)

	amountText := strings.Join([]string{block.Summary, block.ContextText, block.DetailText}, " ")
	amount := a.money.ExtractMaxAmount(utils.Normalize(amountText))

	rec := ListingRecord{
		Title:       utils.Truncate(utils.Normalize(block.Title), MaxTitleLength),
		URL:         block.SourceURL,
		Source:      a.source.Name,
		Kind:        a.source.Kind,
		SalaryMax:   amount.Max,
		Location:    utils.FirstNonEmpty(block.Location, a.source.Location),
		Summary:     utils.Truncate(utils.FirstNonEmpty(block.Summary, block.ContextText, block.Title), MaxSummaryLength),
		Description: utils.Truncate(utils.Normalize(block.DetailText), MaxDescriptionLength),
		Status:      optional(utils.FirstNonEmpty(block.DetailMeta.Status, block.ListingMeta.Status)),
		Program:     optional(utils.FirstNonEmpty(block.DetailMeta.Program, block.ListingMeta.Program)),
		Year:        optional(utils.FirstNonEmpty(block.DetailMeta.Year, block.ListingMeta.Year)),
	}
	if deadline.Found() {
		rec.DeadlineText = optional(deadline.Raw)
		rec.DeadlineEndDate = deadline.End
	}

	return Assembled{
		Record:         rec,
		Deadline:       deadline,
		Amount:         amount,
		DeadlineOrigin: origin,
	}
}

// resolveDeadline percorre os trechos em ordem de prioridade (detalhe antes da
// listagem) e usa o primeiro que contiver uma data válida.
func (a *Assembler) resolveDeadline(block RawTextBlock) (extractor.ExtractedDate, string) {
	candidates := []deadlineCandidate{
		{"detail_text", block.DetailText},
		{"detail_meta", block.DetailMeta.Deadline},
		{"detail_meta_joined", block.DetailMeta.Joined()},
		{"listing_hint", block.DeadlineHint},
		{"listing_context", block.ContextText},
	}

	for _, c := range candidates {
		if strings.TrimSpace(c.text) == "" {
			continue
		}
		found := a.dates.ExtractDeadline(c.text)
		if !found.Found() {
			continue
		}

		// o fim do prazo vem do trecho casado quando ele for legível sozinho;
		// datas soltas no resto da página não estendem o prazo
		if found.Raw != "" {
			if narrow := a.dates.ExtractDeadline(found.Raw); narrow.Found() {
				found.Start, found.End = narrow.Start, narrow.End
			}
		}
		return found, c.origin
	}

	return extractor.ExtractedDate{}, ""
}
