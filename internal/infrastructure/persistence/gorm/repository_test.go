package gorm_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/medihort/medihort-ai/internal/domain/plant"
	"github.com/medihort/medihort-ai/internal/domain/user"
	gormrepo "github.com/medihort/medihort-ai/internal/infrastructure/persistence/gorm"
	"github.com/medihort/medihort-ai/internal/infrastructure/persistence/sqlite"
	"github.com/medihort/medihort-ai/internal/ports/outbound"
	apperrors "github.com/medihort/medihort-ai/pkg/errors"
	"github.com/stretchr/testify/suite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type RepositorySuite struct {
	suite.Suite
	db        *gorm.DB
	plants    outbound.PlantRepository
	favorites outbound.FavoriteRepository
	users     outbound.UserRepository
	ctx       context.Context
}

func (s *RepositorySuite) SetupTest() {
	db, err := sqlite.SetupDatabase(":memory:", logger.Silent)
	s.Require().NoError(err)

	s.db = db
	s.plants = gormrepo.NewPlantRepository(db)
	s.favorites = gormrepo.NewFavoriteRepository(db)
	s.users = gormrepo.NewUserRepository(db)
	s.ctx = context.Background()
}

func (s *RepositorySuite) TearDownTest() {
	sqlDB, err := s.db.DB()
	s.Require().NoError(err)
	s.Require().NoError(sqlDB.Close())
}

func (s *RepositorySuite) savePlant(name string) *plant.Plant {
	p, err := plant.New(name, name+" officinalis", "Herb", "A test plant")
	s.Require().NoError(err)
	p.MedicalUses = []string{"Calming", "Digestion", "Sleep", "Skin"}
	p.ActiveCompounds = []string{"Flavonoids"}
	s.Require().NoError(s.plants.Save(s.ctx, p))
	return p
}

func (s *RepositorySuite) saveUser(email string) *user.User {
	u, err := user.NewUser(email, "", "correct horse")
	s.Require().NoError(err)
	s.Require().NoError(s.users.Create(s.ctx, u))
	return u
}

func (s *RepositorySuite) TestPlantList_OrderedByName() {
	s.savePlant("Valerian")
	s.savePlant("Aloe Vera")
	s.savePlant("Lavender")

	plants, err := s.plants.List(s.ctx)
	s.Require().NoError(err)
	s.Require().Len(plants, 3)
	s.Equal("Aloe Vera", plants[0].Name)
	s.Equal("Lavender", plants[1].Name)
	s.Equal("Valerian", plants[2].Name)
}

func (s *RepositorySuite) TestPlantRoundTrip_KeepsSlicesAndInsights() {
	p := s.savePlant("Chamomile")

	found, err := s.plants.FindByID(s.ctx, p.ID)
	s.Require().NoError(err)
	s.Equal(p.MedicalUses, found.MedicalUses)
	s.Equal(p.ActiveCompounds, found.ActiveCompounds)
	s.False(found.HasInsights())

	s.Require().NoError(s.plants.Save(s.ctx, found.WithInsights("Grows best in full sun.")))

	found, err = s.plants.FindByID(s.ctx, p.ID)
	s.Require().NoError(err)
	s.Equal("Grows best in full sun.", found.AIInsights)

	count, err := s.plants.Count(s.ctx)
	s.Require().NoError(err)
	s.Equal(int64(1), count)
}

func (s *RepositorySuite) TestPlantFindByID_NotFound() {
	_, err := s.plants.FindByID(s.ctx, uuid.New())
	s.ErrorIs(err, plant.ErrPlantNotFound)
}

func (s *RepositorySuite) TestFavorites_AddIsIdempotentAndRemoveReports() {
	u := s.saveUser("grower@example.com")
	p := s.savePlant("Ginger")

	inserted, err := s.favorites.Add(s.ctx, u.ID(), p.ID)
	s.Require().NoError(err)
	s.True(inserted)

	inserted, err = s.favorites.Add(s.ctx, u.ID(), p.ID)
	s.Require().NoError(err)
	s.False(inserted)

	ids, err := s.favorites.ListPlantIDs(s.ctx, u.ID())
	s.Require().NoError(err)
	s.Equal([]uuid.UUID{p.ID}, ids)

	exists, err := s.favorites.Exists(s.ctx, u.ID(), p.ID)
	s.Require().NoError(err)
	s.True(exists)

	removed, err := s.favorites.Remove(s.ctx, u.ID(), p.ID)
	s.Require().NoError(err)
	s.True(removed)

	removed, err = s.favorites.Remove(s.ctx, u.ID(), p.ID)
	s.Require().NoError(err)
	s.False(removed)

	exists, err = s.favorites.Exists(s.ctx, u.ID(), p.ID)
	s.Require().NoError(err)
	s.False(exists)
}

func (s *RepositorySuite) TestFavorites_ScopedPerUser() {
	alice := s.saveUser("alice@example.com")
	bob := s.saveUser("bob@example.com")
	p := s.savePlant("Turmeric")

	_, err := s.favorites.Add(s.ctx, alice.ID(), p.ID)
	s.Require().NoError(err)

	ids, err := s.favorites.ListPlantIDs(s.ctx, bob.ID())
	s.Require().NoError(err)
	s.Empty(ids)
}

func (s *RepositorySuite) TestUsers_DuplicateEmailConflicts() {
	s.saveUser("dup@example.com")

	again, err := user.NewUser("DUP@example.com", "", "another pass")
	s.Require().NoError(err)

	err = s.users.Create(s.ctx, again)
	s.Require().Error(err)
	s.Equal(apperrors.CodeEmailAlreadyExists, apperrors.GetCode(err))
}

func (s *RepositorySuite) TestUsers_FindAndUpdate() {
	u := s.saveUser("finder@example.com")

	found, err := s.users.FindByEmail(s.ctx, "  Finder@Example.com ")
	s.Require().NoError(err)
	s.Equal(u.ID(), found.ID())
	s.NoError(found.CheckPassword("correct horse"))

	found.RecordLogin()
	s.Require().NoError(s.users.Update(s.ctx, found))

	reloaded, err := s.users.FindByID(s.ctx, u.ID())
	s.Require().NoError(err)
	s.NotNil(reloaded.LastLoginAt())

	_, err = s.users.FindByID(s.ctx, uuid.New())
	s.ErrorIs(err, user.ErrUserNotFound)
}

func TestRepositorySuite(t *testing.T) {
	suite.Run(t, new(RepositorySuite))
}
