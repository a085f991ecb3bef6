package mongo

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/Elale1984/RoomzIO-API/internal/core/domain"
)

const collectionAuditLogs = "audit_logs"

// AuditRepository implements ports.AuditRepository using MongoDB.
type AuditRepository struct {
	col *mongo.Collection
	now func() time.Time
}

func NewAuditRepository(db *mongo.Database) *AuditRepository {
	return &AuditRepository{col: db.Collection(collectionAuditLogs), now: time.Now}
}

// InsertEvent appends an entry to the audit_logs collection.
func (r *AuditRepository) InsertEvent(ctx context.Context, event *domain.AuditEvent) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	doc := bson.M{
		"action":       string(event.Action),
		"outcome":      string(event.Outcome),
		"username":     event.Username,
		"timestamp":    event.Timestamp.UTC(),
		"processed_at": r.now().UTC(),
	}
	if event.UserID != "" {
		doc["user_id"] = event.UserID
	}
	if event.Reason != "" {
		doc["reason"] = event.Reason
	}

	_, err := r.col.InsertOne(ctx, doc)
	return err
}

// EnsureIndexes creates the indexes used to query the trail per user and time.
func (r *AuditRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "username", Value: 1}, {Key: "timestamp", Value: -1}}},
		{Keys: bson.D{{Key: "timestamp", Value: -1}}, Options: options.Index().SetName("timestamp_desc")},
	}

	_, err := r.col.Indexes().CreateMany(ctx, indexes)
	return err
}
