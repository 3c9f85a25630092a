package repository

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"go.mongodb.org/mongo-driver/bson"

	"github.com/dujoseaugusto/go-bolsas-crawler/internal/extractor"
	"github.com/dujoseaugusto/go-bolsas-crawler/internal/listing"
	"github.com/dujoseaugusto/go-bolsas-crawler/internal/service"
)

func mustDate(t *testing.T, s string) extractor.Date {
	t.Helper()
	d, err := extractor.ParseDate(s)
	require.NoError(t, err)
	return d
}

func TestBuildFilter(t *testing.T) {
	open := mustDate(t, "2024-03-10")

	filter := BuildFilter(ListingFilter{
		Source:    "PCI Concursos",
		Kind:      "concurso",
		MinSalary: 10000,
		OpenOn:    &open,
	})

	assert.Equal(t, bson.M{"$regex": `^PCI Concursos$`, "$options": "i"}, filter["source"])
	assert.Equal(t, bson.M{"$regex": "concurso", "$options": "i"}, filter["kind"])
	assert.Equal(t, bson.M{"$gte": 10000.0}, filter["salary_max"])
	assert.Len(t, filter["$or"], 2)
}

func TestBuildFilter_Empty(t *testing.T) {
	assert.Empty(t, BuildFilter(ListingFilter{}))
}

func TestBuildFilter_QuotesRegex(t *testing.T) {
	filter := BuildFilter(ListingFilter{Kind: "Chamada/Bolsa (2024)"})
	assert.Equal(t, `Chamada/Bolsa \(2024\)`, filter["kind"].(bson.M)["$regex"])
}

func TestListingDocument_RoundTrip(t *testing.T) {
	end := mustDate(t, "2024-03-15")
	salary := 12500.5
	deadline := "Inscrições até 15/03/2024"
	rec := listing.ListingRecord{
		Title:           "Analista",
		URL:             "https://example.com/a",
		Source:          "PCI Concursos",
		Kind:            "Concurso",
		DeadlineText:    &deadline,
		DeadlineEndDate: &end,
		SalaryMax:       &salary,
	}
	run := service.RunInfo{ID: "run-1", StartedAt: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)}

	doc := NewListingDocument(run, rec)

	assert.Equal(t, listing.DedupHash(listing.DedupKey("Analista", "https://example.com/a")), doc.Hash)
	assert.Equal(t, "run-1", doc.RunID)
	assert.True(t, doc.FirstSeen.IsZero())
	assert.Equal(t, run.StartedAt, doc.LastSeen)
	assert.Equal(t, rec, doc.Record())
}

func TestPaginationNormalized(t *testing.T) {
	assert.Equal(t, PaginationParams{Page: 1, PageSize: 10}, PaginationParams{}.normalized())
	assert.Equal(t, PaginationParams{Page: 3, PageSize: maxPageSize}, PaginationParams{Page: 3, PageSize: 1000}.normalized())
}

// MongoRepositoryTestSuite provides integration tests for MongoDB repository
type MongoRepositoryTestSuite struct {
	suite.Suite
	repository *MongoRepository
}

func (suite *MongoRepositoryTestSuite) SetupSuite() {
	uri := os.Getenv("MONGO_TEST_URI")
	if uri == "" {
		suite.T().Skip("MONGO_TEST_URI not set, skipping MongoDB integration tests")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	repo, err := NewMongoRepository(ctx, uri, "test_bolsas_db", "listings")
	if err != nil {
		suite.T().Skip("MongoDB not available for integration tests")
		return
	}
	suite.repository = repo
}

func (suite *MongoRepositoryTestSuite) SetupTest() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, err := suite.repository.collection.DeleteMany(ctx, bson.M{})
	suite.Require().NoError(err)
}

func (suite *MongoRepositoryTestSuite) TearDownSuite() {
	if suite.repository != nil {
		_ = suite.repository.collection.Drop(context.Background())
		_ = suite.repository.Close(context.Background())
	}
}

func (suite *MongoRepositoryTestSuite) write(run service.RunInfo, rec listing.ListingRecord) {
	suite.Require().NoError(suite.repository.Write(context.Background(), run, rec))
}

func (suite *MongoRepositoryTestSuite) TestWrite_UpsertsByHash() {
	ctx := context.Background()
	rec := listing.ListingRecord{Title: "Bolsa PNPD", URL: "https://example.com/1", Source: "IPEA", Kind: "Bolsa"}

	first := service.RunInfo{ID: "run-1", StartedAt: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)}
	second := service.RunInfo{ID: "run-2", StartedAt: time.Date(2024, 3, 2, 0, 0, 0, 0, time.UTC)}
	suite.write(first, rec)
	suite.write(second, rec)

	count, err := suite.repository.collection.CountDocuments(ctx, bson.M{})
	suite.Require().NoError(err)
	suite.Equal(int64(1), count)

	var doc ListingDocument
	suite.Require().NoError(suite.repository.collection.FindOne(ctx, bson.M{}).Decode(&doc))
	suite.Equal("run-2", doc.RunID)
	suite.Equal(first.StartedAt, doc.FirstSeen.UTC())
	suite.Equal(second.StartedAt, doc.LastSeen.UTC())
}

func (suite *MongoRepositoryTestSuite) TestFindWithFilters() {
	t := suite.T()
	run := service.RunInfo{ID: "run-1", StartedAt: time.Now()}
	early := mustDate(t, "2024-03-05")
	late := mustDate(t, "2024-03-20")
	high, low := 15000.0, 3000.0

	suite.write(run, listing.ListingRecord{Title: "Fecha cedo", URL: "https://example.com/a", Source: "PCI Concursos", Kind: "Concurso", DeadlineEndDate: &early, SalaryMax: &high})
	suite.write(run, listing.ListingRecord{Title: "Fecha tarde", URL: "https://example.com/b", Source: "PCI Concursos", Kind: "Concurso", DeadlineEndDate: &late, SalaryMax: &low})
	suite.write(run, listing.ListingRecord{Title: "Sem prazo", URL: "https://example.com/c", Source: "IPEA", Kind: "Bolsa"})

	openOn := mustDate(t, "2024-03-10")
	result, err := suite.repository.FindWithFilters(context.Background(), ListingFilter{OpenOn: &openOn}, PaginationParams{Page: 1, PageSize: 10})
	suite.Require().NoError(err)
	suite.Equal(int64(2), result.TotalItems)

	result, err = suite.repository.FindWithFilters(context.Background(), ListingFilter{Source: "pci concursos", MinSalary: 10000}, PaginationParams{})
	suite.Require().NoError(err)
	suite.Require().Len(result.Listings, 1)
	suite.Equal("Fecha cedo", result.Listings[0].Title)
	suite.Equal("2024-03-05", result.Listings[0].DeadlineEndDate.String())
}

func TestMongoRepositoryTestSuite(t *testing.T) {
	suite.Run(t, new(MongoRepositoryTestSuite))
}
