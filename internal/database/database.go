package database

import (
	"context"
	"strings"
	"time"

	"github.com/AnshRaj112/journal-backend/internal/logger"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	UsersCollection          = "users"
	JournalEntriesCollection = "journal_entries"

	defaultDatabaseName = "journal"
)

// Mongo holds the client and the application database.
type Mongo struct {
	Client *mongo.Client
	DB     *mongo.Database

	transactions bool
}

// Connect dials MongoDB and pings it. dbName overrides the database named in the URI.
func Connect(mongoURI, dbName string, transactions bool) (*Mongo, error) {
	// Use longer timeout for Atlas connections
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	clientOptions := options.Client().ApplyURI(mongoURI)
	clientOptions.SetServerSelectionTimeout(10 * time.Second)

	logger.Default().Info("Attempting to connect to MongoDB...")
	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return nil, err
	}

	pingCtx, pingCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer pingCancel()

	if err = client.Ping(pingCtx, nil); err != nil {
		client.Disconnect(context.Background())
		return nil, err
	}

	if dbName == "" {
		dbName = DatabaseNameFromURI(mongoURI)
	}

	logger.Default().WithField("database", dbName).Info("✅ Connected to MongoDB")
	return &Mongo{
		Client:       client,
		DB:           client.Database(dbName),
		transactions: transactions,
	}, nil
}

// DatabaseNameFromURI extracts the database from mongodb://host/<db>?opts, defaulting to "journal".
func DatabaseNameFromURI(mongoURI string) string {
	parts := strings.Split(mongoURI, "/")
	if len(parts) > 3 {
		dbPart := strings.Split(parts[len(parts)-1], "?")[0]
		if dbPart != "" {
			return dbPart
		}
	}
	return defaultDatabaseName
}

func (m *Mongo) Disconnect() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return m.Client.Disconnect(ctx)
}

// Ping checks that the deployment is reachable.
func (m *Mongo) Ping(ctx context.Context) error {
	return m.DB.RunCommand(ctx, bson.D{{Key: "ping", Value: 1}}).Err()
}

// WithTransaction runs fn in a multi-document transaction when transactions are enabled.
// Standalone servers do not support transactions, so they are opt-in.
func (m *Mongo) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if !m.transactions {
		return fn(ctx)
	}

	session, err := m.Client.StartSession()
	if err != nil {
		return err
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		return nil, fn(sc)
	})
	return err
}

// EnsureIndexes configures lookup indexes. The userName index is not unique;
// uniqueness of user names is not enforced.
func (m *Mongo) EnsureIndexes(ctx context.Context) error {
	_, err := m.DB.Collection(UsersCollection).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "userName", Value: 1}},
		Options: options.Index().SetName("idx_user_name"),
	})
	return err
}
