package catalog

import (
	"context"
	"crypto/sha256"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"github.com/tercih-asistani/app/models"
)

// Collection names in the catalog database.
const (
	collInstitutions = "institutions"
	collPrograms     = "programs"
	collScoreRecords = "score_records"
	collCoefficients = "net_coefficients"
)

// MongoRepository reads the catalog from MongoDB. It is the production
// implementation of Repository; writes happen only through the seed command.
type MongoRepository struct {
	db     *mongo.Database
	logger *zap.Logger
}

// NewMongoRepository wraps an already connected database handle.
func NewMongoRepository(db *mongo.Database, logger *zap.Logger) *MongoRepository {
	return &MongoRepository{db: db, logger: logger}
}

func (mr *MongoRepository) Institutions(ctx context.Context) ([]models.Institution, error) {
	cursor, err := mr.db.Collection(collInstitutions).Find(ctx, bson.M{},
		options.Find().SetSort(bson.D{{Key: "inst_id", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("find institutions: %w", err)
	}
	var out []models.Institution
	if err := cursor.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("decode institutions: %w", err)
	}
	return out, nil
}

func (mr *MongoRepository) Programs(ctx context.Context, instID string) ([]models.Program, error) {
	filter := bson.M{}
	if instID != "" {
		filter["inst_id"] = instID
	}
	cursor, err := mr.db.Collection(collPrograms).Find(ctx, filter,
		options.Find().SetSort(bson.D{{Key: "program_id", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("find programs: %w", err)
	}
	var out []models.Program
	if err := cursor.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("decode programs: %w", err)
	}
	return out, nil
}

func (mr *MongoRepository) ScoreRecords(ctx context.Context, programID string, year int, examType models.ExamType) ([]models.ScoreRecord, error) {
	filter := bson.M{"program_id": programID}
	if year != 0 {
		filter["year"] = year
	}
	if examType != "" {
		filter["exam_type"] = examType
	}
	cursor, err := mr.db.Collection(collScoreRecords).Find(ctx, filter,
		options.Find().SetSort(bson.D{{Key: "year", Value: -1}}))
	if err != nil {
		return nil, fmt.Errorf("find score records: %w", err)
	}
	var out []models.ScoreRecord
	if err := cursor.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("decode score records: %w", err)
	}
	return out, nil
}

func (mr *MongoRepository) Coefficients(ctx context.Context, examType models.ExamType, year int) ([]models.NetCoefficient, error) {
	filter := bson.M{"exam_type": examType}
	if year != 0 {
		filter["year"] = year
	}
	cursor, err := mr.db.Collection(collCoefficients).Find(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("find coefficients: %w", err)
	}
	var out []models.NetCoefficient
	if err := cursor.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("decode coefficients: %w", err)
	}
	return out, nil
}

// Version fingerprints the collection sizes and the newest update stamp;
// cheap enough to call on every reload.
func (mr *MongoRepository) Version(ctx context.Context) (string, error) {
	h := sha256.New()
	for _, coll := range []string{collInstitutions, collPrograms, collScoreRecords, collCoefficients} {
		n, err := mr.db.Collection(coll).CountDocuments(ctx, bson.M{})
		if err != nil {
			return "", fmt.Errorf("count %s: %w", coll, err)
		}
		fmt.Fprintf(h, "%s:%d\n", coll, n)
	}

	var latest struct {
		UpdatedAt time.Time `bson:"updated_at"`
	}
	err := mr.db.Collection(collPrograms).FindOne(ctx, bson.M{},
		options.FindOne().SetSort(bson.D{{Key: "updated_at", Value: -1}})).Decode(&latest)
	if err != nil && err != mongo.ErrNoDocuments {
		return "", fmt.Errorf("latest update stamp: %w", err)
	}
	fmt.Fprintf(h, "at:%d\n", latest.UpdatedAt.UnixNano())

	return fmt.Sprintf("%x", h.Sum(nil))[:16], nil
}

// Seed replaces the catalog collections with the given fixture. Used by the
// seed command only; the serving path never writes.
func (mr *MongoRepository) Seed(ctx context.Context, cf CatalogFile) error {
	batches := []struct {
		coll string
		docs []interface{}
	}{
		{collInstitutions, toDocs(cf.Institutions)},
		{collPrograms, toDocs(cf.Programs)},
		{collScoreRecords, toDocs(cf.ScoreRecords)},
		{collCoefficients, toDocs(cf.Coefficients)},
	}
	for _, b := range batches {
		coll := mr.db.Collection(b.coll)
		if _, err := coll.DeleteMany(ctx, bson.M{}); err != nil {
			return fmt.Errorf("clear %s: %w", b.coll, err)
		}
		if len(b.docs) == 0 {
			continue
		}
		if _, err := coll.InsertMany(ctx, b.docs); err != nil {
			return fmt.Errorf("seed %s: %w", b.coll, err)
		}
		mr.logger.Info("seeded collection", zap.String("collection", b.coll), zap.Int("count", len(b.docs)))
	}
	return nil
}

func toDocs[T any](in []T) []interface{} {
	out := make([]interface{}, len(in))
	for i := range in {
		out[i] = in[i]
	}
	return out
}
