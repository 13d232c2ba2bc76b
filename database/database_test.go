package database

import (
	"fmt"
	"sync"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"estate-service/model"
)

func openTestDB(t *testing.T) {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file:database_test?mode=memory&cache=shared"), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, Migrate(db))
	Postgres = db
	t.Cleanup(func() { sqlDB.Close() })
}

func TestMigrate_FavoritePairIsUnique(t *testing.T) {
	openTestDB(t)
	req := require.New(t)

	owner := model.User{Name: "Amina", Email: "amina@example.com", Password: "x"}
	req.NoError(Postgres.Create(&owner).Error)
	property := model.Property{
		OwnerID:         owner.ID,
		Title:           "Alger flat",
		Description:     "Bright",
		Type:            "appartement",
		TransactionType: "vente",
		Location:        model.Location{Address: "1 rue Larbi Ben M'hidi", City: "Alger"},
	}
	req.NoError(Postgres.Create(&property).Error)

	req.NoError(Postgres.Create(&model.Favorite{UserID: owner.ID, PropertyID: property.ID}).Error)
	err := Postgres.Create(&model.Favorite{UserID: owner.ID, PropertyID: property.ID}).Error

	req.ErrorIs(err, gorm.ErrDuplicatedKey)
	req.NoError(Postgres.Create(&model.Favorite{UserID: owner.ID + 1, PropertyID: property.ID}).Error)
}

func TestCasbin_AdminRoutes(t *testing.T) {
	openTestDB(t)
	req := require.New(t)
	e := CasbinConnect()

	req.NoError(AssignRole(5, "admin"))
	req.NoError(AssignRole(6, "user"))

	allowed, err := e.Enforce("5", "/v1/admin/users", "GET")
	req.NoError(err)
	req.True(allowed)

	allowed, err = e.Enforce("6", "/v1/admin/users", "GET")
	req.NoError(err)
	req.False(allowed)

	req.NoError(AssignRole(5, "user"))
	allowed, err = Casbin().Enforce("5", "/v1/admin/users/5/role", "PUT")
	req.NoError(err)
	req.False(allowed)
}

func TestCasbin_ConcurrentUse(t *testing.T) {
	openTestDB(t)
	req := require.New(t)
	CasbinConnect()
	req.NoError(AssignRole(5, "admin"))

	var wg sync.WaitGroup
	errs := make(chan error, 8*20)
	for worker := 0; worker < 8; worker++ {
		wg.Add(1)
		go func(worker int) {
			defer wg.Done()
			for i := 0; i < 20; i++ {
				e := Casbin()
				if err := e.LoadPolicy(); err != nil {
					errs <- err
					return
				}
				if _, err := e.Enforce("5", "/v1/admin/users", "GET"); err != nil {
					errs <- err
					return
				}
				if i%5 == 0 {
					if err := AssignRole(uint(100+worker), "user"); err != nil {
						errs <- fmt.Errorf("assign %d: %w", worker, err)
						return
					}
				}
			}
		}(worker)
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		req.NoError(err)
	}

	allowed, err := Casbin().Enforce("5", "/v1/admin/users", "GET")
	req.NoError(err)
	req.True(allowed)
}

func TestBootstrapAdmin(t *testing.T) {
	openTestDB(t)
	req := require.New(t)
	CasbinConnect()

	user := model.User{Name: "Root", Email: "root@example.com", Password: "x"}
	req.NoError(Postgres.Create(&user).Error)
	req.NoError(AssignRole(user.ID, "user"))

	req.NoError(BootstrapAdmin("nobody@example.com"))
	req.NoError(BootstrapAdmin(""))
	req.NoError(BootstrapAdmin("Root@Example.com"))

	stored := model.User{}
	req.NoError(Postgres.First(&stored, user.ID).Error)
	req.True(stored.IsAdmin())

	allowed, err := Casbin().Enforce(fmt.Sprint(user.ID), "/v1/admin/users", "GET")
	req.NoError(err)
	req.True(allowed)
}
