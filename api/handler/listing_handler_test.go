package handler

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/dujoseaugusto/go-bolsas-crawler/internal/config"
	"github.com/dujoseaugusto/go-bolsas-crawler/internal/extractor"
	"github.com/dujoseaugusto/go-bolsas-crawler/internal/listing"
	"github.com/dujoseaugusto/go-bolsas-crawler/internal/mocks"
	"github.com/dujoseaugusto/go-bolsas-crawler/internal/repository"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func setupRouter(h *ListingHandler) *gin.Engine {
	r := gin.New()
	r.GET("/listings", h.SearchListings)
	r.POST("/extract", h.Extract)
	return r
}

func perform(r *gin.Engine, method, target string, body []byte) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, bytes.NewReader(body))
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestSearchListings_ParsesFilters(t *testing.T) {
	repo := &mocks.MockListingRepository{}
	h := NewListingHandler(repo, config.DefaultSources())

	openOn, err := extractor.ParseDate("2024-03-10")
	require.NoError(t, err)
	expectedFilter := repository.ListingFilter{Source: "IPEA", Kind: "Bolsa", MinSalary: 10000, OpenOn: &openOn}
	expectedPagination := repository.PaginationParams{Page: 2, PageSize: 20}

	result := &repository.ListingSearchResult{
		Listings:    []listing.ListingRecord{{Title: "Bolsa PNPD", URL: "https://example.com/1", Source: "IPEA", Kind: "Bolsa"}},
		TotalItems:  21,
		TotalPages:  2,
		CurrentPage: 2,
		PageSize:    20,
	}
	repo.On("FindWithFilters", mock.Anything, expectedFilter, expectedPagination).Return(result, nil)

	w := perform(setupRouter(h), http.MethodGet, "/listings?source=IPEA&kind=Bolsa&min_salary=10000&open_on=2024-03-10&page=2&page_size=20", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	var got repository.ListingSearchResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, int64(21), got.TotalItems)
	require.Len(t, got.Listings, 1)
	assert.Equal(t, "Bolsa PNPD", got.Listings[0].Title)
	repo.AssertExpectations(t)
}

func TestSearchListings_DefaultPagination(t *testing.T) {
	repo := &mocks.MockListingRepository{}
	h := NewListingHandler(repo, nil)
	repo.On("FindWithFilters", mock.Anything, repository.ListingFilter{}, repository.PaginationParams{Page: 1, PageSize: 10}).
		Return(&repository.ListingSearchResult{}, nil)

	w := perform(setupRouter(h), http.MethodGet, "/listings?page=-1&page_size=500", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	repo.AssertExpectations(t)
}

func TestSearchListings_BadParameters(t *testing.T) {
	repo := &mocks.MockListingRepository{}
	r := setupRouter(NewListingHandler(repo, nil))

	for _, target := range []string{
		"/listings?open_on=10/03/2024",
		"/listings?min_salary=abc",
		"/listings?min_salary=-5",
	} {
		w := perform(r, http.MethodGet, target, nil)
		assert.Equal(t, http.StatusBadRequest, w.Code, target)
	}
	repo.AssertNotCalled(t, "FindWithFilters", mock.Anything, mock.Anything, mock.Anything)
}

func TestSearchListings_RepositoryError(t *testing.T) {
	repo := &mocks.MockListingRepository{}
	repo.On("FindWithFilters", mock.Anything, mock.Anything, mock.Anything).Return(nil, errors.New("connection refused"))

	w := perform(setupRouter(NewListingHandler(repo, nil)), http.MethodGet, "/listings", nil)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "internal_error", resp.Error)
}

func TestSearchListings_NoStorage(t *testing.T) {
	w := perform(setupRouter(NewListingHandler(nil, nil)), http.MethodGet, "/listings", nil)

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestExtract_DefaultProfile(t *testing.T) {
	body, _ := json.Marshal(ExtractRequest{Text: "Inscrições de 01/03/2024 a 15/03/2024. Bolsa de R$ 5.200,00 mensais."})

	w := perform(setupRouter(NewListingHandler(nil, config.DefaultSources())), http.MethodPost, "/extract", body)

	require.Equal(t, http.StatusOK, w.Code)
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "2024-03-01", resp["deadline_start_date"])
	assert.Equal(t, "2024-03-15", resp["deadline_end_date"])
	assert.Equal(t, "01/03/2024 a 15/03/2024", resp["deadline_text"])
	assert.Equal(t, true, resp["keyword_matched"])
	assert.Equal(t, 5200.0, resp["salary_max"])
}

func TestExtract_SourceProfileAndCurrency(t *testing.T) {
	r := setupRouter(NewListingHandler(nil, config.DefaultSources()))

	body, _ := json.Marshal(ExtractRequest{Text: "Deadline: Oct 30, 2025. Salary USD 120,000 per annum", Source: config.SourceUNCareers})
	w := perform(r, http.MethodPost, "/extract", body)
	require.Equal(t, http.StatusOK, w.Code)
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "2025-10-30", resp["deadline_end_date"])
	assert.Equal(t, "Oct 30, 2025", resp["deadline_text"])
	assert.Equal(t, 120000.0, resp["salary_max"])

	body, _ = json.Marshal(ExtractRequest{Text: "Valor: € 3.000,00", Currency: "€"})
	w = perform(r, http.MethodPost, "/extract", body)
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 3000.0, resp["salary_max"])
	assert.Nil(t, resp["deadline_end_date"])
}

func TestExtract_UnparseableSignals(t *testing.T) {
	r := setupRouter(NewListingHandler(nil, config.DefaultSources()))

	body, _ := json.Marshal(ExtractRequest{Text: "Prazo: 30/02/2024. Bolsa de R$\u00a04.100,00"})
	w := perform(r, http.MethodPost, "/extract", body)

	require.Equal(t, http.StatusOK, w.Code)
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Nil(t, resp["deadline_text"])
	assert.Nil(t, resp["deadline_end_date"])
	assert.Equal(t, false, resp["keyword_matched"])
	assert.Equal(t, 4100.0, resp["salary_max"])
}

func TestExtract_Validation(t *testing.T) {
	r := setupRouter(NewListingHandler(nil, config.DefaultSources()))

	w := perform(r, http.MethodPost, "/extract", []byte(`{"currency":"R$"}`))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	body, _ := json.Marshal(ExtractRequest{Text: "x", Source: "nope"})
	w = perform(r, http.MethodPost, "/extract", body)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
