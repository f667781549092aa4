package store

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/MKJM2/cs2620-final-prototype/internal/ot"
)

// Mongo keeps each document in a single record, so a save is one upsert
// and atomic against concurrent loads.
type Mongo struct {
	docs *mongo.Collection
}

func NewMongo(db *mongo.Database) *Mongo {
	return &Mongo{docs: db.Collection("docs")}
}

type mongoDoc struct {
	ID       string   `bson:"_id"`
	Content  string   `bson:"content"`
	Revision int      `bson:"revision"`
	History  []string `bson:"history"`
}

func (m *Mongo) Load(ctx context.Context, docID string) (Doc, error) {
	var rec mongoDoc
	err := m.docs.FindOne(ctx, bson.D{{Key: "_id", Value: docID}}).Decode(&rec)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return Doc{}, ErrNotFound
	}
	if err != nil {
		return Doc{}, fmt.Errorf("load %s: %w", docID, err)
	}

	history, err := decodeOps(rec.History)
	if err != nil {
		return Doc{}, fmt.Errorf("load %s: %w", docID, err)
	}
	return Doc{Content: rec.Content, Revision: rec.Revision, History: history}, nil
}

func (m *Mongo) Save(ctx context.Context, docID, content string, revision int, appended []*ot.Operation) error {
	encoded, err := encodeOps(appended)
	if err != nil {
		return err
	}

	update := bson.D{
		{Key: "$set", Value: bson.D{{Key: "content", Value: content}, {Key: "revision", Value: revision}}},
		{Key: "$push", Value: bson.D{{Key: "history", Value: bson.D{{Key: "$each", Value: encoded}}}}},
	}
	opts := options.Update().SetUpsert(true)

	if _, err := m.docs.UpdateOne(ctx, bson.D{{Key: "_id", Value: docID}}, update, opts); err != nil {
		return fmt.Errorf("save %s: %w", docID, err)
	}
	return nil
}

func (m *Mongo) List(ctx context.Context) ([]string, error) {
	cur, err := m.docs.Find(ctx, bson.D{}, options.Find().SetProjection(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var ids []string
	for cur.Next(ctx) {
		var rec struct {
			ID string `bson:"_id"`
		}
		if err := cur.Decode(&rec); err != nil {
			return nil, err
		}
		ids = append(ids, rec.ID)
	}
	return ids, cur.Err()
}
