package repository

import (
	"context"
	"fmt"
	"regexp"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/dujoseaugusto/go-bolsas-crawler/internal/extractor"
	"github.com/dujoseaugusto/go-bolsas-crawler/internal/listing"
	"github.com/dujoseaugusto/go-bolsas-crawler/internal/logger"
	"github.com/dujoseaugusto/go-bolsas-crawler/internal/service"
)

// ListingFilter define os filtros disponíveis para busca
type ListingFilter struct {
	Source    string          `json:"source,omitempty"`
	Kind      string          `json:"kind,omitempty"`
	MinSalary float64         `json:"min_salary,omitempty"`
	OpenOn    *extractor.Date `json:"open_on,omitempty"`
}

// PaginationParams define os parâmetros de paginação
type PaginationParams struct {
	Page     int `json:"page"`
	PageSize int `json:"page_size"`
}

// ListingSearchResult define o resultado da busca com metadados
type ListingSearchResult struct {
	Listings    []listing.ListingRecord `json:"listings"`
	TotalItems  int64                   `json:"total_items"`
	TotalPages  int                     `json:"total_pages"`
	CurrentPage int                     `json:"current_page"`
	PageSize    int                     `json:"page_size"`
}

// ListingRepository define as operações de consulta sobre os anúncios gravados
type ListingRepository interface {
	FindWithFilters(ctx context.Context, filter ListingFilter, pagination PaginationParams) (*ListingSearchResult, error)
	Close(ctx context.Context) error
}

// ListingDocument é o formato gravado no MongoDB. Hash identifica o anúncio
// entre execuções.
type ListingDocument struct {
	Hash            string     `bson:"hash"`
	RunID           string     `bson:"run_id"`
	Title           string     `bson:"title"`
	URL             string     `bson:"url"`
	Source          string     `bson:"source"`
	Kind            string     `bson:"kind"`
	DeadlineText    *string    `bson:"deadline_text"`
	DeadlineEndDate *time.Time `bson:"deadline_end_date"`
	SalaryMax       *float64   `bson:"salary_max"`
	Location        string     `bson:"location"`
	Summary         string     `bson:"summary"`
	Description     string     `bson:"description"`
	Status          *string    `bson:"status"`
	Program         *string    `bson:"program"`
	Year            *string    `bson:"year"`
	FirstSeen       time.Time  `bson:"first_seen,omitempty"`
	LastSeen        time.Time  `bson:"last_seen"`
}

// NewListingDocument converte um registro emitido no documento persistido.
func NewListingDocument(run service.RunInfo, rec listing.ListingRecord) ListingDocument {
	doc := ListingDocument{
		Hash:         listing.DedupHash(listing.DedupKey(rec.Title, rec.URL)),
		RunID:        run.ID,
		Title:        rec.Title,
		URL:          rec.URL,
		Source:       rec.Source,
		Kind:         rec.Kind,
		DeadlineText: rec.DeadlineText,
		SalaryMax:    rec.SalaryMax,
		Location:     rec.Location,
		Summary:      rec.Summary,
		Description:  rec.Description,
		Status:       rec.Status,
		Program:      rec.Program,
		Year:         rec.Year,
		LastSeen:     run.StartedAt.UTC(),
	}
	if rec.DeadlineEndDate != nil {
		end := rec.DeadlineEndDate.Time.UTC()
		doc.DeadlineEndDate = &end
	}
	return doc
}

// Record devolve o documento no formato de saída.
func (d ListingDocument) Record() listing.ListingRecord {
	rec := listing.ListingRecord{
		Title:        d.Title,
		URL:          d.URL,
		Source:       d.Source,
		Kind:         d.Kind,
		DeadlineText: d.DeadlineText,
		SalaryMax:    d.SalaryMax,
		Location:     d.Location,
		Summary:      d.Summary,
		Description:  d.Description,
		Status:       d.Status,
		Program:      d.Program,
		Year:         d.Year,
	}
	if d.DeadlineEndDate != nil {
		end := extractor.DateOf(d.DeadlineEndDate.UTC())
		rec.DeadlineEndDate = &end
	}
	return rec
}

type MongoRepository struct {
	client     *mongo.Client
	collection *mongo.Collection
	logger     *logger.Logger
}

func NewMongoRepository(ctx context.Context, uri, dbName, collectionName string) (*MongoRepository, error) {
	clientOptions := options.Client().ApplyURI(uri)
	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongo: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("failed to ping mongo: %w", err)
	}

	repo := &MongoRepository{
		client:     client,
		collection: client.Database(dbName).Collection(collectionName),
		logger:     logger.NewLogger("mongo_repository"),
	}

	// Cria índice único no campo hash para garantir unicidade
	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "hash", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "source", Value: 1}, {Key: "deadline_end_date", Value: 1}}},
	}
	if _, err := repo.collection.Indexes().CreateMany(ctx, indexes); err != nil {
		repo.logger.Error("Failed to create indexes", err)
	}

	return repo, nil
}

// Write grava o registro (upsert pelo hash). Implementa service.Sink.
func (r *MongoRepository) Write(ctx context.Context, run service.RunInfo, rec listing.ListingRecord) error {
	doc := NewListingDocument(run, rec)

	filter := bson.M{"hash": doc.Hash}
	update := bson.M{
		"$set":         doc,
		"$setOnInsert": bson.M{"first_seen": doc.LastSeen},
	}

	opts := options.Update().SetUpsert(true)
	result, err := r.collection.UpdateOne(ctx, filter, update, opts)
	if err != nil {
		return fmt.Errorf("failed to save listing: %w", err)
	}

	log := r.logger.WithField("hash", doc.Hash)
	if result.UpsertedCount > 0 {
		log.Debug("New listing stored")
	} else {
		log.Debug("Listing refreshed")
	}

	return nil
}

// BuildFilter traduz ListingFilter para a consulta do MongoDB. Anúncios sem
// prazo conhecido contam como abertos.
func BuildFilter(filter ListingFilter) bson.M {
	mongoFilter := bson.M{}

	if filter.Source != "" {
		mongoFilter["source"] = bson.M{"$regex": "^" + regexp.QuoteMeta(filter.Source) + "$", "$options": "i"}
	}
	if filter.Kind != "" {
		mongoFilter["kind"] = bson.M{"$regex": regexp.QuoteMeta(filter.Kind), "$options": "i"}
	}
	if filter.MinSalary > 0 {
		mongoFilter["salary_max"] = bson.M{"$gte": filter.MinSalary}
	}
	if filter.OpenOn != nil {
		mongoFilter["$or"] = bson.A{
			bson.M{"deadline_end_date": bson.M{"$gte": filter.OpenOn.Time.UTC()}},
			bson.M{"deadline_end_date": nil},
		}
	}

	return mongoFilter
}

func (r *MongoRepository) FindWithFilters(ctx context.Context, filter ListingFilter, pagination PaginationParams) (*ListingSearchResult, error) {
	mongoFilter := BuildFilter(filter)

	totalItems, err := r.collection.CountDocuments(ctx, mongoFilter)
	if err != nil {
		return nil, fmt.Errorf("failed to count listings: %w", err)
	}

	pagination = pagination.normalized()
	totalPages := int((totalItems + int64(pagination.PageSize) - 1) / int64(pagination.PageSize))
	skip := (pagination.Page - 1) * pagination.PageSize

	findOptions := options.Find().
		SetSkip(int64(skip)).
		SetLimit(int64(pagination.PageSize)).
		SetSort(bson.D{{Key: "deadline_end_date", Value: 1}, {Key: "title", Value: 1}})

	cursor, err := r.collection.Find(ctx, mongoFilter, findOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to find listings: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []ListingDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode listings: %w", err)
	}

	listings := make([]listing.ListingRecord, 0, len(docs))
	for _, doc := range docs {
		listings = append(listings, doc.Record())
	}

	return &ListingSearchResult{
		Listings:    listings,
		TotalItems:  totalItems,
		TotalPages:  totalPages,
		CurrentPage: pagination.Page,
		PageSize:    pagination.PageSize,
	}, nil
}

func (r *MongoRepository) Close(ctx context.Context) error {
	if err := r.client.Disconnect(ctx); err != nil {
		return fmt.Errorf("failed to disconnect from mongo: %w", err)
	}
	return nil
}

const maxPageSize = 100

func (p PaginationParams) normalized() PaginationParams {
	if p.PageSize <= 0 {
		p.PageSize = 10
	}
	if p.PageSize > maxPageSize {
		p.PageSize = maxPageSize
	}
	if p.Page <= 0 {
		p.Page = 1
	}
	return p
}
