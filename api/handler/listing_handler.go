package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/dujoseaugusto/go-bolsas-crawler/internal/config"
	"github.com/dujoseaugusto/go-bolsas-crawler/internal/extractor"
	"github.com/dujoseaugusto/go-bolsas-crawler/internal/logger"
	"github.com/dujoseaugusto/go-bolsas-crawler/internal/repository"
)

type ListingHandler struct {
	repo    repository.ListingRepository
	sources map[string]config.SourceProfile
	logger  *logger.Logger
}

// NewListingHandler cria o handler. repo pode ser nil quando não há MongoDB;
// nesse caso só /extract funciona.
func NewListingHandler(repo repository.ListingRepository, sources map[string]config.SourceProfile) *ListingHandler {
	return &ListingHandler{
		repo:    repo,
		sources: sources,
		logger:  logger.NewLogger("listing_handler"),
	}
}

// SearchListings busca anúncios gravados com filtros e paginação
func (h *ListingHandler) SearchListings(c *gin.Context) {
	if h.repo == nil {
		c.JSON(http.StatusServiceUnavailable, ErrorResponse{
			Error:   "storage_unavailable",
			Message: "Armazenamento não configurado",
			Code:    http.StatusServiceUnavailable,
		})
		return
	}

	filter := repository.ListingFilter{
		Source: c.Query("source"),
		Kind:   c.Query("kind"),
	}

	if minSalary := c.Query("min_salary"); minSalary != "" {
		val, err := strconv.ParseFloat(minSalary, 64)
		if err != nil || val < 0 {
			h.badRequest(c, "min_salary must be a non-negative number")
			return
		}
		filter.MinSalary = val
	}

	if openOn := c.Query("open_on"); openOn != "" {
		d, err := extractor.ParseDate(openOn)
		if err != nil {
			h.badRequest(c, "open_on must be YYYY-MM-DD")
			return
		}
		filter.OpenOn = &d
	}

	// Parâmetros de paginação
	pagination := repository.PaginationParams{
		Page:     1,
		PageSize: 10,
	}

	if page := c.Query("page"); page != "" {
		if val, err := strconv.Atoi(page); err == nil && val > 0 {
			pagination.Page = val
		}
	}

	if pageSize := c.Query("page_size"); pageSize != "" {
		if val, err := strconv.Atoi(pageSize); err == nil && val > 0 && val <= 100 {
			pagination.PageSize = val
		}
	}

	result, err := h.repo.FindWithFilters(c.Request.Context(), filter, pagination)
	if err != nil {
		h.logger.Error("Failed to search listings", err)
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "internal_error",
			Message: "Unable to search listings",
			Code:    http.StatusInternalServerError,
		})
		return
	}

	c.JSON(http.StatusOK, result)
}

// ExtractRequest é o corpo de POST /extract
type ExtractRequest struct {
	Text     string `json:"text" binding:"required"`
	Currency string `json:"currency"`
	// Source aplica o perfil (meses, palavras-chave, moeda, separadores) de uma fonte
	Source string `json:"source"`
}

// ExtractResponse traz os sinais encontrados no texto
type ExtractResponse struct {
	DeadlineText      *string         `json:"deadline_text"`
	DeadlineStartDate *extractor.Date `json:"deadline_start_date"`
	DeadlineEndDate   *extractor.Date `json:"deadline_end_date"`
	KeywordMatched    bool            `json:"keyword_matched"`
	SalaryMax         *float64        `json:"salary_max"`
}

// Extract roda os extratores de prazo e valor sobre um texto livre
func (h *ListingHandler) Extract(c *gin.Context) {
	var req ExtractRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, "text is required")
		return
	}

	dateCfg := extractor.DefaultDateConfig()
	format := extractor.BrazilianFormat
	var markers []string
	if req.Source != "" {
		profile, ok := h.sources[req.Source]
		if !ok {
			h.badRequest(c, "unknown source "+strconv.Quote(req.Source))
			return
		}
		dateCfg = profile.DateConfig()
		markers = profile.CurrencyMarkers
		format = profile.NumberFormat()
	}
	if currency := strings.TrimSpace(req.Currency); currency != "" {
		markers = []string{currency}
	}

	deadline := extractor.NewDateExtractor(dateCfg).ExtractDeadline(req.Text)
	amount := extractor.NewMoneyExtractorWithFormat(format, markers...).ExtractMaxAmount(req.Text)

	resp := ExtractResponse{
		DeadlineStartDate: deadline.Start,
		DeadlineEndDate:   deadline.End,
		KeywordMatched:    deadline.KeywordMatched,
		SalaryMax:         amount.Max,
	}
	if deadline.Raw != "" {
		resp.DeadlineText = &deadline.Raw
	}

	c.JSON(http.StatusOK, resp)
}

func (h *ListingHandler) badRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, ErrorResponse{
		Error:   "bad_request",
		Message: message,
		Code:    http.StatusBadRequest,
	})
}
