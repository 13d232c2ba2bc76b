package controller_test

import (
	"fmt"
	"testing"
	"time"

	"estate-service/database"
	"estate-service/model"

	"github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type authTokens struct {
	Access  string     `json:"access"`
	Refresh string     `json:"refresh"`
	Otp     bool       `json:"2fa"`
	User    model.User `json:"user"`
}

// withTokenStore points the refresh token store at an in-memory redis.
func withTokenStore(t *testing.T) *miniredis.Miniredis {
	t.Helper()
	server := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: server.Addr()})
	database.Redis[database.RedisTokens] = client
	t.Cleanup(func() {
		client.Close()
		delete(database.Redis, database.RedisTokens)
	})
	return server
}

func (a *testApp) signup(name, email, password string) model.User {
	a.t.Helper()
	status, body := a.request(fiber.MethodPost, "/v1/auth/signup", "", fiber.Map{
		"name":     name,
		"email":    email,
		"password": password,
	})
	require.Equal(a.t, fiber.StatusCreated, status)
	return decode[model.User](a.t, body.Data)
}

func (a *testApp) signin(email, password string) authTokens {
	a.t.Helper()
	status, body := a.request(fiber.MethodPost, "/v1/auth/signin", "", fiber.Map{
		"email":    email,
		"password": password,
	})
	require.Equal(a.t, fiber.StatusOK, status)
	return decode[authTokens](a.t, body.Data)
}

func TestAuthSignup(t *testing.T) {
	a := newTestApp(t)

	status, body := a.request(fiber.MethodPost, "/v1/auth/signup", "", fiber.Map{
		"name":     "Amina",
		"email":    " Amina@Example.com ",
		"password": "secret123",
	})
	require.Equal(t, fiber.StatusCreated, status)

	user := decode[model.User](t, body.Data)
	assert.Equal(t, "amina@example.com", user.Email)
	assert.Equal(t, model.RoleUser, user.Role)
	assert.NotEmpty(t, user.Avatar)
	assert.NotContains(t, string(body.Data), "secret123")

	stored := model.User{}
	require.NoError(t, database.Postgres.First(&stored, user.ID).Error)
	assert.NotEqual(t, "secret123", stored.Password)
	assert.NotEmpty(t, stored.OtpSecret)

	status, body = a.request(fiber.MethodPost, "/v1/auth/signup", "", fiber.Map{
		"name":     "Other",
		"email":    "amina@example.com",
		"password": "secret123",
	})
	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Equal(t, "Email is already registered", *body.Message)
}

func TestAuthSignup_Invalid(t *testing.T) {
	a := newTestApp(t)

	status, _ := a.request(fiber.MethodPost, "/v1/auth/signup", "", fiber.Map{
		"name":     "Amina",
		"email":    "not-an-email",
		"password": "secret123",
	})
	assert.Equal(t, fiber.StatusBadRequest, status)

	status, _ = a.request(fiber.MethodPost, "/v1/auth/signup", "", fiber.Map{
		"name":     "Amina",
		"email":    "amina@example.com",
		"password": "123",
	})
	assert.Equal(t, fiber.StatusBadRequest, status)
}

func TestAuthMe(t *testing.T) {
	a := newTestApp(t)
	user, token := a.user("Amina", model.RoleUser)

	status, body := a.request(fiber.MethodGet, "/v1/auth/me", token, nil)
	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, user.ID, decode[model.User](t, body.Data).ID)

	status, body = a.request(fiber.MethodPut, "/v1/auth/me", token, fiber.Map{"name": " Amina B ", "phone": "0555"})
	require.Equal(t, fiber.StatusOK, status)
	updated := decode[model.User](t, body.Data)
	assert.Equal(t, "Amina B", updated.Name)
	assert.Equal(t, "0555", updated.Phone)

	status, _ = a.request(fiber.MethodPut, "/v1/auth/me", token, fiber.Map{"avatar": "not a url"})
	assert.Equal(t, fiber.StatusBadRequest, status)
}

func TestAuthMe_InvalidToken(t *testing.T) {
	a := newTestApp(t)

	status, _ := a.request(fiber.MethodGet, "/v1/auth/me", "garbage", nil)

	assert.Equal(t, fiber.StatusUnauthorized, status)
}

func TestAuthSignin(t *testing.T) {
	a := newTestApp(t)
	store := withTokenStore(t)
	user := a.signup("Amina", "amina@example.com", "secret123")

	status, body := a.request(fiber.MethodPost, "/v1/auth/signin", "", fiber.Map{
		"email":    "amina@example.com",
		"password": "wrong-password",
	})
	assert.Equal(t, fiber.StatusUnauthorized, status)
	assert.Equal(t, "Invalid login or password", *body.Message)

	status, _ = a.request(fiber.MethodPost, "/v1/auth/signin", "", fiber.Map{
		"email":    "nobody@example.com",
		"password": "secret123",
	})
	assert.Equal(t, fiber.StatusUnauthorized, status)

	tokens := a.signin(" AMINA@example.com ", "secret123")
	assert.NotEmpty(t, tokens.Access)
	assert.False(t, tokens.Otp)
	assert.Equal(t, user.ID, tokens.User.ID)

	stored, err := store.Get(fmt.Sprint(user.ID))
	require.NoError(t, err)
	assert.Equal(t, tokens.Refresh, stored)

	status, _ = a.request(fiber.MethodGet, "/v1/auth/me", tokens.Access, nil)
	assert.Equal(t, fiber.StatusOK, status)
}

func TestAuthTokenRenew_RefreshIsSingleUse(t *testing.T) {
	a := newTestApp(t)
	withTokenStore(t)
	a.signup("Amina", "amina@example.com", "secret123")
	first := a.signin("amina@example.com", "secret123")

	status, body := a.request(fiber.MethodPost, "/v1/auth/token/renew", "", fiber.Map{"refresh_token": first.Refresh})
	require.Equal(t, fiber.StatusOK, status)
	second := decode[authTokens](t, body.Data)
	assert.NotEqual(t, first.Refresh, second.Refresh)

	status, _ = a.request(fiber.MethodPost, "/v1/auth/token/renew", "", fiber.Map{"refresh_token": first.Refresh})
	assert.Equal(t, fiber.StatusUnauthorized, status)

	status, _ = a.request(fiber.MethodPost, "/v1/auth/token/renew", "", fiber.Map{"refresh_token": first.Access})
	assert.Equal(t, fiber.StatusUnauthorized, status)

	status, _ = a.request(fiber.MethodPost, "/v1/auth/token/renew", "", fiber.Map{"refresh_token": second.Refresh})
	assert.Equal(t, fiber.StatusOK, status)
}

func TestAuthSignout(t *testing.T) {
	a := newTestApp(t)
	store := withTokenStore(t)
	user := a.signup("Amina", "amina@example.com", "secret123")
	tokens := a.signin("amina@example.com", "secret123")

	status, _ := a.request(fiber.MethodPost, "/v1/auth/signout", tokens.Access, nil)
	require.Equal(t, fiber.StatusOK, status)
	assert.False(t, store.Exists(fmt.Sprint(user.ID)))

	status, _ = a.request(fiber.MethodPost, "/v1/auth/token/renew", "", fiber.Map{"refresh_token": tokens.Refresh})
	assert.Equal(t, fiber.StatusUnauthorized, status)
}

func TestAuthTwoFactor(t *testing.T) {
	a := newTestApp(t)
	withTokenStore(t)
	email := "amina+home@example.com"
	user := a.signup("Amina", email, "secret123")
	tokens := a.signin(email, "secret123")

	status, _ := a.request(fiber.MethodPost, "/v1/auth/2fa/secret", tokens.Access, fiber.Map{"password": "wrong-password"})
	assert.Equal(t, fiber.StatusUnauthorized, status)

	status, body := a.request(fiber.MethodPost, "/v1/auth/2fa/secret", tokens.Access, fiber.Map{"password": "secret123"})
	require.Equal(t, fiber.StatusOK, status)
	setup := decode[map[string]string](t, body.Data)

	key, err := otp.NewKeyFromURL(setup["url"])
	require.NoError(t, err)
	assert.Equal(t, email, key.AccountName())
	assert.Equal(t, "estate-service", key.Issuer())
	assert.Equal(t, setup["secret"], key.Secret())

	code := func() string {
		code, err := totp.GenerateCode(key.Secret(), time.Now())
		require.NoError(t, err)
		return code
	}

	status, _ = a.request(fiber.MethodPost, "/v1/auth/2fa/verify", tokens.Access, fiber.Map{"token": "000000x"})
	assert.Equal(t, fiber.StatusBadRequest, status)

	status, _ = a.request(fiber.MethodPost, "/v1/auth/2fa/verify", tokens.Access, fiber.Map{"token": code()})
	require.Equal(t, fiber.StatusOK, status)

	pending := a.signin(email, "secret123")
	require.True(t, pending.Otp)

	status, body = a.request(fiber.MethodGet, "/v1/auth/me", pending.Access, nil)
	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Equal(t, "2FA required", *body.Message)

	status, body = a.request(fiber.MethodPost, "/v1/auth/2fa/validate", pending.Access, fiber.Map{"token": code()})
	require.Equal(t, fiber.StatusOK, status)
	full := decode[authTokens](t, body.Data)

	status, _ = a.request(fiber.MethodGet, "/v1/auth/me", full.Access, nil)
	assert.Equal(t, fiber.StatusOK, status)

	status, _ = a.request(fiber.MethodPost, "/v1/auth/2fa/disable", full.Access, fiber.Map{"password": "secret123", "token": code()})
	require.Equal(t, fiber.StatusOK, status)

	stored := model.User{}
	require.NoError(t, database.Postgres.First(&stored, user.ID).Error)
	assert.False(t, stored.OtpEnabled)

	status, _ = a.request(fiber.MethodPost, "/v1/auth/2fa/validate", pending.Access, fiber.Map{"token": code()})
	assert.Equal(t, fiber.StatusBadRequest, status)
}

func TestAuthSignup_AdminEmail(t *testing.T) {
	a := newTestApp(t)
	t.Setenv("ADMIN_EMAIL", "Root@Example.com")

	root := a.signup("Root", "root@example.com", "secret123")
	other := a.signup("Karim", "karim@example.com", "secret123")

	assert.Equal(t, model.RoleAdmin, root.Role)
	assert.Equal(t, model.RoleUser, other.Role)
}
