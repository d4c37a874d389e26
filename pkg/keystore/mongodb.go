package keystore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/sirosfoundation/go-ebics"
	"github.com/sirosfoundation/go-ebics/pkg/keyring"
)

// MongoConfig holds MongoDB connection settings.
type MongoConfig struct {
	URI        string
	Database   string
	Collection string

	// HostID, PartnerID and UserID identify the subscriber whose key
	// ring this manager owns. One document per subscriber.
	HostID    string
	PartnerID string
	UserID    string

	// Passphrase seals the key ring before it leaves the process. The
	// database only ever sees ciphertext.
	Passphrase []byte
}

type mongoDocument struct {
	HostID    string    `bson:"host_id"`
	PartnerID string    `bson:"partner_id"`
	UserID    string    `bson:"user_id"`
	Salt      []byte    `bson:"salt"`
	Nonce     []byte    `bson:"nonce"`
	Sealed    []byte    `bson:"sealed"`
	UpdatedAt time.Time `bson:"updated_at"`
}

// MongoManager stores one sealed key ring per subscriber in a MongoDB
// collection.
type MongoManager struct {
	client     *mongo.Client
	keys       *mongo.Collection
	passphrase []byte
	filter     bson.D
	cfg        *MongoConfig
}

// NewMongoManager connects to MongoDB and prepares the key
// collection.
func NewMongoManager(ctx context.Context, cfg *MongoConfig) (*MongoManager, error) {
	if cfg == nil || cfg.URI == "" {
		return nil, fmt.Errorf("%w: MongoDB URI is required", ebics.ErrConfiguration)
	}
	if len(cfg.Passphrase) == 0 {
		return nil, fmt.Errorf("%w: keystore passphrase is empty", ebics.ErrConfiguration)
	}

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, fmt.Errorf("connecting to MongoDB: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("pinging MongoDB: %w", err)
	}

	database := cfg.Database
	if database == "" {
		database = "ebics"
	}
	collection := cfg.Collection
	if collection == "" {
		collection = "keyrings"
	}
	keys := client.Database(database).Collection(collection)

	_, err = keys.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{
			{Key: "host_id", Value: 1},
			{Key: "partner_id", Value: 1},
			{Key: "user_id", Value: 1},
		},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return nil, fmt.Errorf("creating keystore index: %w", err)
	}

	return &MongoManager{
		client:     client,
		keys:       keys,
		passphrase: cfg.Passphrase,
		filter: bson.D{
			{Key: "host_id", Value: cfg.HostID},
			{Key: "partner_id", Value: cfg.PartnerID},
			{Key: "user_id", Value: cfg.UserID},
		},
		cfg: cfg,
	}, nil
}

// Load restores the subscriber's key ring from the collection.
func (m *MongoManager) Load(ctx context.Context) (*keyring.KeyRing, error) {
	var doc mongoDocument
	err := m.keys.FindOne(ctx, m.filter).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("loading key ring: %w", err)
	}

	plain, err := open(m.passphrase, &sealedFile{Salt: doc.Salt, Nonce: doc.Nonce, Ciphertext: doc.Sealed})
	if err != nil {
		return nil, err
	}
	return unmarshalKeyRing(plain)
}

// Save seals and upserts the subscriber's key ring.
func (m *MongoManager) Save(ctx context.Context, ring *keyring.KeyRing) error {
	plain, err := marshalKeyRing(ring)
	if err != nil {
		return err
	}
	sealed, err := seal(m.passphrase, plain)
	if err != nil {
		return err
	}

	update := bson.D{{Key: "$set", Value: mongoDocument{
		HostID:    m.cfg.HostID,
		PartnerID: m.cfg.PartnerID,
		UserID:    m.cfg.UserID,
		Salt:      sealed.Salt,
		Nonce:     sealed.Nonce,
		Sealed:    sealed.Ciphertext,
		UpdatedAt: time.Now().UTC(),
	}}}
	_, err = m.keys.UpdateOne(ctx, m.filter, update, options.Update().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("saving key ring: %w", err)
	}
	return nil
}

// Close disconnects from MongoDB.
func (m *MongoManager) Close(ctx context.Context) error {
	return m.client.Disconnect(ctx)
}
