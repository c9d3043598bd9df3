package mongodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/NordCoder/SiteStatus/internal/domain/status"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var _ status.Repo = (*StatusRepo)(nil)

const DefaultCollection = "site_status"

type StatusRepo struct {
	collection *mongo.Collection
}

func NewStatusRepo(db *mongo.Database, collection string) *StatusRepo {
	if collection == "" {
		collection = DefaultCollection
	}
	return &StatusRepo{collection: db.Collection(collection)}
}

type document struct {
	ID        primitive.ObjectID `bson:"_id,omitempty"`
	Website   string             `bson:"website"`
	Status    int                `bson:"status"`
	SSLExpiry *time.Time         `bson:"ssl_expiry"`
}

func (d document) row() *status.Row {
	return &status.Row{Website: d.Website, Status: d.Status, SSLExpiry: d.SSLExpiry}
}

func (r *StatusRepo) Lookup(ctx context.Context, website string) (*status.Row, error) {
	var doc document
	opts := options.FindOne().SetSort(bson.D{{Key: "_id", Value: 1}})
	err := r.collection.FindOne(ctx, bson.M{"website": website}, opts).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, status.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find status: %w", err)
	}
	return doc.row(), nil
}

func (r *StatusRepo) Insert(ctx context.Context, row *status.Row) error {
	_, err := r.collection.InsertOne(ctx, document{
		Website:   row.Website,
		Status:    row.Status,
		SSLExpiry: utc(row.SSLExpiry),
	})
	if err != nil {
		return fmt.Errorf("insert status: %w", err)
	}
	return nil
}

func (r *StatusRepo) Update(ctx context.Context, row *status.Row) error {
	update := bson.M{
		"$set": bson.M{
			"status":     row.Status,
			"ssl_expiry": utc(row.SSLExpiry),
		},
	}
	res, err := r.collection.UpdateOne(ctx, bson.M{"website": row.Website}, update)
	if err != nil {
		return fmt.Errorf("update status: %w", err)
	}
	if res.MatchedCount != 1 {
		return fmt.Errorf("update status %q: %w", row.Website, status.ErrNotFound)
	}
	return nil
}

func (r *StatusRepo) Truncate(ctx context.Context) error {
	if _, err := r.collection.DeleteMany(ctx, bson.M{}); err != nil {
		return fmt.Errorf("truncate: %w", err)
	}
	return nil
}

func (r *StatusRepo) ListAll(ctx context.Context) ([]*status.Row, error) {
	cursor, err := r.collection.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("find status: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []document
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode status: %w", err)
	}
	out := make([]*status.Row, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.row())
	}
	return out, nil
}

func utc(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}
