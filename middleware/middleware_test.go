package middleware

import (
	"net/http/httptest"
	"testing"

	"estate-service/database"
	"estate-service/model"
	"estate-service/utils"

	"github.com/glebarez/sqlite"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func setup(t *testing.T) *fiber.App {
	t.Helper()
	t.Setenv(utils.AccessKey, "middleware-access-key")

	db, err := gorm.Open(sqlite.Open("file:middleware_test?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	database.Postgres = db
	t.Cleanup(func() {
		sqlDB, _ := db.DB()
		sqlDB.Close()
	})

	app := fiber.New()
	app.Get("/me", JWT(), OTP(), Identity(), func(c *fiber.Ctx) error {
		return c.JSON(Actor(c))
	})
	app.Get("/pending", JWT(), Identity(), func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusNoContent)
	})
	return app
}

func call(t *testing.T, app *fiber.App, path, token string) int {
	t.Helper()
	req := httptest.NewRequest(fiber.MethodGet, path, nil)
	if token != "" {
		req.Header.Set(fiber.HeaderAuthorization, "Bearer "+token)
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	resp.Body.Close()
	return resp.StatusCode
}

func TestIdentity(t *testing.T) {
	app := setup(t)
	user := model.User{Name: "Amina", Email: "amina@example.com", Password: "x"}
	require.NoError(t, database.Postgres.Create(&user).Error)

	tokens, err := utils.GenerateTokens(user.ID, string(model.RoleUser), false)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, call(t, app, "/me", tokens.Access))

	ghost, err := utils.GenerateTokens(user.ID+100, string(model.RoleUser), false)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, call(t, app, "/me", ghost.Access))
}

func TestJWT_MissingOrInvalid(t *testing.T) {
	app := setup(t)

	assert.Equal(t, fiber.StatusBadRequest, call(t, app, "/me", ""))
	assert.Equal(t, fiber.StatusUnauthorized, call(t, app, "/me", "not.a.token"))
}

func TestOTP_PendingSecondFactor(t *testing.T) {
	app := setup(t)
	user := model.User{Name: "Karim", Email: "karim@example.com", Password: "x", OtpEnabled: true}
	require.NoError(t, database.Postgres.Create(&user).Error)

	tokens, err := utils.GenerateTokens(user.ID, string(model.RoleUser), true)
	require.NoError(t, err)

	assert.Equal(t, fiber.StatusBadRequest, call(t, app, "/me", tokens.Access))
	assert.Equal(t, fiber.StatusNoContent, call(t, app, "/pending", tokens.Access))
}
