package database_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/AnshRaj112/journal-backend/internal/database"
	"github.com/AnshRaj112/journal-backend/internal/models"
	"github.com/AnshRaj112/journal-backend/internal/repository"
	"github.com/AnshRaj112/journal-backend/internal/services"
	"github.com/stretchr/testify/suite"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.mongodb.org/mongo-driver/bson"
)

type MongoIntegrationSuite struct {
	suite.Suite
	container testcontainers.Container
	mongo     *database.Mongo

	users   *services.UserService
	journal *services.JournalEntryService
}

func TestMongoIntegration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping MongoDB integration test in short mode")
	}
	testcontainers.SkipIfProviderIsNotHealthy(t)
	suite.Run(t, new(MongoIntegrationSuite))
}

func (s *MongoIntegrationSuite) SetupSuite() {
	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "mongo:7",
		ExposedPorts: []string{"27017/tcp"},
		WaitingFor:   wait.ForListeningPort("27017/tcp").WithStartupTimeout(2 * time.Minute),
	}
	c, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	s.Require().NoError(err)
	s.container = c

	host, err := c.Host(ctx)
	s.Require().NoError(err)
	port, err := c.MappedPort(ctx, "27017")
	s.Require().NoError(err)

	s.mongo, err = database.Connect(fmt.Sprintf("mongodb://%s:%s/journal_it", host, port.Port()), "", false)
	s.Require().NoError(err)
	s.Require().NoError(s.mongo.EnsureIndexes(ctx))

	users := repository.NewMongoRepository(s.mongo.DB.Collection(database.UsersCollection), func() *models.User { return &models.User{} })
	entries := repository.NewMongoRepository(s.mongo.DB.Collection(database.JournalEntriesCollection), func() *models.JournalEntry { return &models.JournalEntry{} })
	s.users = services.NewUserService(users, nil)
	s.journal = services.NewJournalEntryService(entries, s.users, s.mongo)
}

func (s *MongoIntegrationSuite) TearDownSuite() {
	ctx := context.Background()
	if s.mongo != nil {
		s.NoError(s.mongo.Disconnect())
	}
	if s.container != nil {
		s.NoError(s.container.Terminate(ctx))
	}
}

func (s *MongoIntegrationSuite) SetupTest() {
	ctx := context.Background()
	s.Require().NoError(s.mongo.DB.Collection(database.UsersCollection).Drop(ctx))
	s.Require().NoError(s.mongo.DB.Collection(database.JournalEntriesCollection).Drop(ctx))
}

func (s *MongoIntegrationSuite) TestPingAndDatabaseName() {
	s.NoError(s.mongo.Ping(context.Background()))
	s.Equal("journal_it", s.mongo.DB.Name())
}

func (s *MongoIntegrationSuite) TestEntryLifecycle() {
	ctx := context.Background()
	_, err := s.users.SaveUser(ctx, &models.User{UserName: "alice", Password: "p1"})
	s.Require().NoError(err)

	saved, err := s.journal.SaveEntry(ctx, &models.JournalEntry{Title: "T1"}, "alice")
	s.Require().NoError(err)

	got, ok, err := s.journal.GetJournalEntryByID(ctx, saved.ID)
	s.Require().NoError(err)
	s.Require().True(ok)
	s.Equal("T1", got.Title)
	s.True(got.Date.Equal(saved.Date))

	owner, ok, err := s.users.FindByUserName(ctx, "alice")
	s.Require().NoError(err)
	s.Require().True(ok)
	s.Require().Len(owner.JournalEntries, 1)
	s.Equal(saved.ID, owner.JournalEntries[0].ID)

	// the owner copy is an embedded document
	var raw bson.M
	s.Require().NoError(s.mongo.DB.Collection(database.UsersCollection).FindOne(ctx, bson.M{"userName": "alice"}).Decode(&raw))
	s.Len(raw["journalEntries"], 1)

	s.Require().NoError(s.journal.DeleteEntityByID(ctx, saved.ID, "alice"))
	_, ok, err = s.journal.GetJournalEntryByID(ctx, saved.ID)
	s.NoError(err)
	s.False(ok)

	owner, _, err = s.users.FindByUserName(ctx, "alice")
	s.Require().NoError(err)
	s.Empty(owner.JournalEntries)
}

func (s *MongoIntegrationSuite) TestDuplicateUserNamesAreAccepted() {
	ctx := context.Background()
	_, err := s.users.SaveUser(ctx, &models.User{UserName: "twin"})
	s.Require().NoError(err)
	_, err = s.users.SaveUser(ctx, &models.User{UserName: "twin"})
	s.Require().NoError(err)

	all, err := s.users.GetAll(ctx)
	s.Require().NoError(err)
	s.Len(all, 2)
}
