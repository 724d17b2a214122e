package policy

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.trai.ch/igniter/internal/core/domain"
	"go.trai.ch/igniter/internal/core/ports"
	"go.trai.ch/zerr"
)

const settingsCollection = "settings"

var _ ports.PolicyStore = (*MongoStore)(nil)

// MongoStore reads the policy from the settings collection of the studio database.
type MongoStore struct {
	client     *mongo.Client
	collection *mongo.Collection
}

// NewMongoStore connects to uri. The driver connects lazily; timeout bounds server selection.
func NewMongoStore(uri, database string, timeout time.Duration) (*MongoStore, error) {
	client, err := mongo.Connect(options.Client().ApplyURI(uri).SetServerSelectionTimeout(timeout))
	if err != nil {
		return nil, zerr.Wrap(err, "failed to create database client")
	}
	return &MongoStore{
		client:     client,
		collection: client.Database(database).Collection(settingsCollection),
	}, nil
}

// Load reads the global settings document.
func (s *MongoStore) Load(ctx context.Context) (*domain.Policy, error) {
	var rec struct {
		Data document `bson:"data"`
	}
	err := s.collection.FindOne(ctx, bson.M{"type": GlobalSettingsType}).Decode(&rec)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, zerr.Wrap(domain.ErrPolicyNotFound, "no global settings in database")
		}
		return nil, zerr.Wrap(err, "failed to query global settings")
	}
	return rec.Data.toPolicy(), nil
}

// Close disconnects the client.
func (s *MongoStore) Close(ctx context.Context) error {
	if err := s.client.Disconnect(ctx); err != nil {
		return zerr.Wrap(err, "failed to disconnect from database")
	}
	return nil
}
