package mongodb

import (
	"context"
	"errors"
	"time"

	"tailor-billing-api/internal/models"
	"tailor-billing-api/internal/repositories"

	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// TaxRepository implements the TaxRepository interface for MongoDB.
// Name lookups use a case-insensitive collation.
type TaxRepository struct {
	baseRepository
}

// NewTaxRepository creates a new MongoDB tax repository
func NewTaxRepository(db *mongo.Database, logger *logrus.Logger) *TaxRepository {
	return &TaxRepository{baseRepository: newBaseRepository(db, CollectionTaxes, logger)}
}

// Create inserts a tax definition
func (r *TaxRepository) Create(ctx context.Context, tax *models.TaxDefinition) error {
	if err := tax.Validate(); err != nil {
		return repositories.ValidationError("tax", tax.Name, err)
	}

	if _, err := r.collection.InsertOne(ctx, tax); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return repositories.DuplicateError("tax", "name", tax.Name)
		}
		r.logError("create", err, logrus.Fields{"name": tax.Name})
		return repositories.NewRepositoryError("create", "tax", tax.Name, err)
	}
	return nil
}

// GetByName retrieves a tax definition by name
func (r *TaxRepository) GetByName(ctx context.Context, name string) (*models.TaxDefinition, error) {
	var tax models.TaxDefinition
	opts := options.FindOne().SetCollation(taxNameCollation)
	if err := r.collection.FindOne(ctx, bson.M{"name": name}, opts).Decode(&tax); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repositories.NotFoundError("tax", name)
		}
		r.logError("get_by_name", err, logrus.Fields{"name": name})
		return nil, repositories.NewRepositoryError("get_by_name", "tax", name, err)
	}
	return &tax, nil
}

// List retrieves all tax definitions ordered by name
func (r *TaxRepository) List(ctx context.Context) ([]*models.TaxDefinition, error) {
	opts := options.Find().SetSort(bson.D{{Key: "name", Value: 1}}).SetCollation(taxNameCollation)
	cursor, err := r.collection.Find(ctx, bson.M{}, opts)
	if err != nil {
		r.logError("list", err, nil)
		return nil, repositories.NewRepositoryError("list", "tax", "", err)
	}

	taxes := []*models.TaxDefinition{}
	if err := cursor.All(ctx, &taxes); err != nil {
		return nil, repositories.NewRepositoryError("list", "tax", "", err)
	}
	return taxes, nil
}

// Update changes the tax definition with the same ID
func (r *TaxRepository) Update(ctx context.Context, tax *models.TaxDefinition) error {
	if err := tax.Validate(); err != nil {
		return repositories.ValidationError("tax", tax.Name, err)
	}
	tax.UpdatedAt = time.Now().UTC()

	res, err := r.collection.UpdateOne(ctx, bson.M{"_id": tax.ID}, bson.M{
		"$set": bson.M{"name": tax.Name, "type": tax.Type, "value": tax.Value, "updated_at": tax.UpdatedAt},
	})
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return repositories.DuplicateError("tax", "name", tax.Name)
		}
		r.logError("update", err, logrus.Fields{"name": tax.Name})
		return repositories.NewRepositoryError("update", "tax", tax.Name, err)
	}
	if res.MatchedCount == 0 {
		return repositories.NotFoundError("tax", tax.Name)
	}
	return nil
}

// Delete removes a tax definition by name. Receipts keep their snapshots.
func (r *TaxRepository) Delete(ctx context.Context, name string) error {
	res, err := r.collection.DeleteOne(ctx, bson.M{"name": name}, options.Delete().SetCollation(taxNameCollation))
	if err != nil {
		r.logError("delete", err, logrus.Fields{"name": name})
		return repositories.NewRepositoryError("delete", "tax", name, err)
	}
	if res.DeletedCount == 0 {
		return repositories.NotFoundError("tax", name)
	}
	return nil
}

var _ repositories.TaxRepository = (*TaxRepository)(nil)
