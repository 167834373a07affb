package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/deusflow/dealwatch/internal/news"
)

type articleDoc struct {
	Title       string    `bson:"title"`
	Link        string    `bson:"link"`
	PubDate     string    `bson:"pub_date"`
	Description string    `bson:"description"`
	SourceID    string    `bson:"source_id"`
	ImageURL    string    `bson:"image_url"`
	ArchivedAt  time.Time `bson:"archived_at"`
}

func toDoc(a news.Article, now time.Time) articleDoc {
	return articleDoc{
		Title:       a.Title,
		Link:        a.Link,
		PubDate:     a.PubDate,
		Description: a.Description,
		SourceID:    a.SourceID,
		ImageURL:    a.ImageURL,
		ArchivedAt:  now,
	}
}

func (d articleDoc) article() news.Article {
	return news.Article{
		Title:       d.Title,
		Link:        d.Link,
		PubDate:     d.PubDate,
		Description: d.Description,
		SourceID:    d.SourceID,
		ImageURL:    d.ImageURL,
	}
}

// MongoArchive stores articles in a MongoDB collection with a unique index
// on link.
type MongoArchive struct {
	client   *mongo.Client
	articles *mongo.Collection
}

// NewMongoArchive connects, pings and ensures the indexes exist.
func NewMongoArchive(ctx context.Context, uri, database, collection string) (*MongoArchive, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("can't ping MongoDB: %w", err)
	}

	m := &MongoArchive{
		client:   client,
		articles: client.Database(database).Collection(collection),
	}
	if err := m.createIndexes(ctx); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("can't create indexes: %w", err)
	}
	return m, nil
}

func (m *MongoArchive) createIndexes(ctx context.Context) error {
	_, err := m.articles.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "link", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "archived_at", Value: 1}}},
	})
	return err
}

func (m *MongoArchive) ReadAll(ctx context.Context) ([]news.Article, error) {
	opts := options.Find().SetSort(bson.D{{Key: "_id", Value: 1}})
	cursor, err := m.articles.Find(ctx, bson.D{}, opts)
	if err != nil {
		return nil, fmt.Errorf("%w: find: %v", news.ErrArchiveRead, err)
	}
	defer cursor.Close(ctx)

	var out []news.Article
	for cursor.Next(ctx) {
		var doc articleDoc
		if err := cursor.Decode(&doc); err != nil {
			return nil, fmt.Errorf("%w: decode: %v", news.ErrArchiveRead, err)
		}
		out = append(out, doc.article())
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("%w: cursor: %v", news.ErrArchiveRead, err)
	}
	return out, nil
}

// Append inserts articles unordered. Links that already exist are reported
// by the server as duplicate-key errors and are not counted.
func (m *MongoArchive) Append(ctx context.Context, articles []news.Article) (int, error) {
	docs := articleDocs(articles, time.Now().UTC())
	if len(docs) == 0 {
		return 0, nil
	}

	res, err := m.articles.InsertMany(ctx, docs, options.InsertMany().SetOrdered(false))
	if err == nil {
		return len(res.InsertedIDs), nil
	}

	var bulkErr mongo.BulkWriteException
	if errors.As(err, &bulkErr) && onlyDuplicateKeys(bulkErr) {
		return len(docs) - len(bulkErr.WriteErrors), nil
	}
	return 0, fmt.Errorf("%w: insert: %v", news.ErrArchivePersist, err)
}

func (m *MongoArchive) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return m.client.Disconnect(ctx)
}

func articleDocs(articles []news.Article, now time.Time) []any {
	docs := make([]any, 0, len(articles))
	for _, a := range articles {
		if strings.TrimSpace(a.Link) == "" {
			continue
		}
		docs = append(docs, toDoc(a, now))
	}
	return docs
}

func onlyDuplicateKeys(e mongo.BulkWriteException) bool {
	if e.WriteConcernError != nil || len(e.WriteErrors) == 0 {
		return false
	}
	for _, we := range e.WriteErrors {
		if we.Code != 11000 {
			return false
		}
	}
	return true
}
