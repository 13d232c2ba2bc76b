package controller_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"estate-service/database"
	"estate-service/model"
	"estate-service/router"
	"estate-service/utils"

	"github.com/glebarez/sqlite"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type envelope struct {
	Status  string          `json:"status"`
	Message *string         `json:"message"`
	Count   int             `json:"count"`
	Total   int             `json:"total"`
	Pages   int             `json:"pages"`
	Data    json.RawMessage `json:"data"`
}

type testApp struct {
	t   *testing.T
	app *fiber.App
}

// newTestApp wires the REST routes over a private in-memory database.
func newTestApp(t *testing.T) *testApp {
	t.Helper()
	t.Setenv(utils.AccessKey, "test-access-key")
	t.Setenv(utils.RefreshKey, "test-refresh-key")
	t.Setenv("BCRYPT_COST", "4")
	t.Setenv("APP_ENV", "test")

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := gorm.Open(sqlite.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", name)), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, database.Migrate(db))
	database.Postgres = db
	database.CasbinConnect()
	t.Cleanup(func() { sqlDB.Close() })

	app := fiber.New()
	router.Rest(app)
	return &testApp{t: t, app: app}
}

func (a *testApp) user(name string, role model.Role) (model.User, string) {
	a.t.Helper()
	user := model.User{
		Name:     name,
		Email:    strings.ToLower(name) + "@example.com",
		Password: "x",
		Role:     role,
	}
	require.NoError(a.t, database.Postgres.Create(&user).Error)
	require.NoError(a.t, database.AssignRole(user.ID, string(role)))

	tokens, err := utils.GenerateTokens(user.ID, string(role), false)
	require.NoError(a.t, err)
	return user, tokens.Access
}

func (a *testApp) property(owner model.User, title string, mutate ...func(*model.Property)) model.Property {
	a.t.Helper()
	property := model.Property{
		OwnerID:         owner.ID,
		Title:           title,
		Description:     "Bright and quiet",
		Type:            "appartement",
		TransactionType: "vente",
		Price:           150000,
		Location:        model.Location{Address: "12 rue Didouche", City: "Alger"},
		Features:        model.Features{Surface: 80, Rooms: 3, Bedrooms: 2},
		Status:          model.PropertyAvailable,
	}
	for _, m := range mutate {
		m(&property)
	}
	require.NoError(a.t, database.Postgres.Create(&property).Error)
	return property
}

func (a *testApp) request(method, path, token string, body any) (int, envelope) {
	a.t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(a.t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	}
	return a.do(req, token)
}

func (a *testApp) do(req *http.Request, token string) (int, envelope) {
	a.t.Helper()
	if token != "" {
		req.Header.Set(fiber.HeaderAuthorization, "Bearer "+token)
	}

	resp, err := a.app.Test(req, -1)
	require.NoError(a.t, err)
	defer resp.Body.Close()

	out := envelope{}
	raw, err := io.ReadAll(resp.Body)
	require.NoError(a.t, err)
	require.NoError(a.t, json.Unmarshal(raw, &out), string(raw))
	return resp.StatusCode, out
}

func decode[T any](t *testing.T, raw json.RawMessage) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(raw, &v))
	return v
}
