package mongo

import (
	"context"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/mongo/integration/mtest"

	"github.com/Elale1984/RoomzIO-API/internal/core/domain"
)

func TestAuditRepository_InsertEvent(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("writes entry", func(mt *mtest.T) {
		repo := NewAuditRepository(mt.DB)
		mt.AddMockResponses(mtest.CreateSuccessResponse())

		err := repo.InsertEvent(context.Background(), &domain.AuditEvent{
			Action:    domain.AuditLogin,
			Outcome:   domain.OutcomeFailure,
			Username:  "alice",
			Reason:    "bad_password",
			Timestamp: time.Now(),
		})
		if err != nil {
			mt.Fatalf("InsertEvent: %v", err)
		}

		started := mt.GetStartedEvent()
		if started == nil || started.CommandName != "insert" {
			mt.Fatalf("expected insert, got %+v", started)
		}
		if coll := started.Command.Lookup("insert").StringValue(); coll != collectionAuditLogs {
			mt.Fatalf("expected %s collection, got %s", collectionAuditLogs, coll)
		}
		doc := started.Command.Lookup("documents", "0").Document()
		if doc.Lookup("action").StringValue() != "login" || doc.Lookup("reason").StringValue() != "bad_password" {
			mt.Fatalf("unexpected document: %s", doc)
		}
		if _, err := doc.LookupErr("user_id"); err == nil {
			mt.Fatalf("empty user id must be omitted")
		}
	})
}
