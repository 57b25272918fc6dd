package services

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/codewithrodrick/portfolio-backend/internal/models"
)

const contactCollection = "contact_messages"

// ContactArchive keeps a copy of every contact form submission in MongoDB.
type ContactArchive struct {
	col *mongo.Collection
}

func NewContactArchive(db *mongo.Database) *ContactArchive {
	return &ContactArchive{col: db.Collection(contactCollection)}
}

// EnsureIndexes configures indexes for the contact_messages collection.
// Called on startup after Mongo has connected.
func (a *ContactArchive) EnsureIndexes(ctx context.Context) error {
	_, err := a.col.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "created_at", Value: -1}},
		Options: options.Index().SetName("idx_created_at"),
	})
	return err
}

// Save inserts msg, stamping CreatedAt when unset.
func (a *ContactArchive) Save(ctx context.Context, msg *models.ContactMessage) error {
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = time.Now().UTC()
	}
	_, err := a.col.InsertOne(ctx, msg)
	return err
}

// Recent returns up to limit submissions, newest first.
func (a *ContactArchive) Recent(ctx context.Context, limit int64) ([]models.ContactMessage, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}

	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}).SetLimit(limit)
	cur, err := a.col.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	messages := []models.ContactMessage{}
	if err := cur.All(ctx, &messages); err != nil {
		return nil, err
	}
	return messages, nil
}
