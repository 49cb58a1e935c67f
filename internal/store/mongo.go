// Package store persists analysis reports into the submissions collection.
package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/rce-engine/analysis-worker/internal/model"
)

// ErrNotMatched is returned when no submission document matched the job id.
var ErrNotMatched = errors.New("no submission matched job id")

// Connect opens a MongoDB connection and verifies it with a ping.
func Connect(ctx context.Context, url string) (*mongo.Client, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(url))
	if err != nil {
		return nil, fmt.Errorf("connecting to mongodb: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("pinging mongodb: %w", err)
	}
	return client, nil
}

// SubmissionStore writes reports onto existing submission documents.
type SubmissionStore struct {
	coll *mongo.Collection
}

// NewSubmissionStore targets the submissions collection of db.
func NewSubmissionStore(client *mongo.Client, db string) *SubmissionStore {
	return &SubmissionStore{coll: client.Database(db).Collection("submissions")}
}

// SaveReport attaches report to the submission for jobID. The write is
// idempotent: repeating it with the same report changes nothing but
// analyzedAt. The nanosecond timestamp keeps repeat writes counting as
// modifications, which is what success means here.
func (s *SubmissionStore) SaveReport(ctx context.Context, jobID string, report *model.Report) error {
	res, err := s.coll.UpdateOne(ctx,
		bson.M{"jobId": jobID},
		reportUpdate(report, time.Now().UTC()),
	)
	if err != nil {
		return fmt.Errorf("updating submission %s: %w", jobID, err)
	}
	if res.ModifiedCount == 0 {
		return ErrNotMatched
	}
	return nil
}

// reportUpdate builds the $set document. Only analysisReport and analyzedAt
// are touched, so repeating the write cannot disturb the rest of the
// submission document.
func reportUpdate(report *model.Report, now time.Time) bson.M {
	return bson.M{"$set": bson.M{
		"analysisReport": report,
		"analyzedAt":     now.Format(time.RFC3339Nano),
	}}
}
