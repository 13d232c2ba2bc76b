package controller

import (
	"encoding/base32"
	"errors"
	"fmt"
	"strings"

	"estate-service/config"
	"estate-service/database"
	"estate-service/middleware"
	"estate-service/model"
	"estate-service/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type AuthSignupInput struct {
	Name     string `json:"name" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6,max=72"`
	Phone    string `json:"phone"`
}

type AuthLoginInput struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type AuthRenewTokenInput struct {
	RefreshToken string `json:"refresh_token"`
}

type AuthOtpSecretInput struct {
	Password string `json:"password"`
}

type AuthOtpVerifyInput struct {
	Token string `json:"token"`
}

type AuthOtpValidateInput struct {
	Token string `json:"token"`
}

type AuthOtpDisableInput struct {
	Password string `json:"password"`
	Token    string `json:"token"`
}

type AuthProfileInput struct {
	Name   *string `json:"name" validate:"omitempty,min=1"`
	Phone  *string `json:"phone"`
	Avatar *string `json:"avatar" validate:"omitempty,url"`
}

func hashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), config.Int("BCRYPT_COST", 14))
	return string(hash), err
}

// signupRole makes the account registered under ADMIN_EMAIL the first admin.
func signupRole(email string) model.Role {
	if admin := config.Config("ADMIN_EMAIL"); admin != "" && strings.EqualFold(admin, email) {
		return model.RoleAdmin
	}
	return model.RoleUser
}

func AuthSignup(c *fiber.Ctx) error {
	input := new(AuthSignupInput)
	if err := c.BodyParser(input); err != nil {
		return failure(c, fiber.StatusBadRequest, "Review your input")
	}
	input.Email = strings.ToLower(strings.TrimSpace(input.Email))
	input.Name = strings.TrimSpace(input.Name)
	if err := validate.Struct(input); err != nil {
		return fail(c, err)
	}

	// If existed email is found, return error
	if count := database.Postgres.
		Where(&model.User{Email: input.Email}).
		Limit(1).
		Find(new([]model.User)).
		RowsAffected; count > 0 {
		return failure(c, fiber.StatusBadRequest, "Email is already registered")
	}

	// Generate hash from password.
	hash, err := hashPassword(input.Password)
	if err != nil {
		return internalError(c, err)
	}

	// Generate OTP secret
	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      otpIssuer(),
		AccountName: input.Email,
		SecretSize:  15,
	})
	if err != nil {
		return internalError(c, err)
	}

	user := &model.User{
		Name:      input.Name,
		Email:     input.Email,
		Password:  hash,
		Phone:     input.Phone,
		Avatar:    config.Default("DEFAULT_AVATAR", "https://via.placeholder.com/150"),
		Role:      signupRole(input.Email),
		OtpSecret: key.Secret(),
	}

	// Save user to database
	if err := database.Postgres.Create(user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return failure(c, fiber.StatusBadRequest, "Email is already registered")
		}
		return internalError(c, err)
	}

	// Add casbin policy
	if err := database.AssignRole(user.ID, string(user.Role)); err != nil {
		return internalError(c, err)
	}

	return success(c, fiber.StatusCreated, user)
}

func AuthSignin(c *fiber.Ctx) error {
	input := new(AuthLoginInput)
	if err := c.BodyParser(input); err != nil {
		return failure(c, fiber.StatusBadRequest, "Review your input")
	}

	userModel := new(model.User)
	email := strings.ToLower(strings.TrimSpace(input.Email))
	if err := database.Postgres.Where(&model.User{Email: email}).First(userModel).Error; err != nil {
		return failure(c, fiber.StatusUnauthorized, "Invalid login or password")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(userModel.Password), []byte(input.Password)); err != nil {
		return failure(c, fiber.StatusUnauthorized, "Invalid login or password")
	}

	// Generate JWT Access & Refresh tokens
	tokens, err := issueTokens(c, userModel.ID, userModel.Role, userModel.OtpEnabled)
	if err != nil {
		return internalError(c, err)
	}

	return success(c, fiber.StatusOK, fiber.Map{
		"access":  tokens.Access,
		"refresh": tokens.Refresh,
		"2fa":     userModel.OtpEnabled,
		"user":    userModel,
	})
}

// issueTokens signs a token pair and keeps the refresh token as the only valid one.
func issueTokens(c *fiber.Ctx, id uint, role model.Role, otp bool) (*utils.Tokens, error) {
	tokens, err := utils.GenerateTokens(id, string(role), otp)
	if err != nil {
		return nil, err
	}

	key := fmt.Sprint(id)
	if err := database.Redis[database.RedisTokens].Set(c.UserContext(), key, tokens.Refresh, 0).Err(); err != nil {
		return nil, err
	}
	return tokens, nil
}

func AuthTokenRenew(c *fiber.Ctx) error {
	renew := &AuthRenewTokenInput{}
	if err := c.BodyParser(renew); err != nil {
		return failure(c, fiber.StatusBadRequest, "Review your input")
	}

	claims, err := utils.CheckAndExtractTokenMetadata(renew.RefreshToken, utils.RefreshKey)
	if err != nil {
		return failure(c, fiber.StatusUnauthorized, "Invalid token")
	}

	userToken, err := database.Redis[database.RedisTokens].Get(c.UserContext(), claims.Id).Result()
	if err != nil || userToken != renew.RefreshToken {
		return failure(c, fiber.StatusUnauthorized, "Unauthorized, your refresh token was already used")
	}

	id, err := claims.UserID()
	if err != nil {
		return failure(c, fiber.StatusUnauthorized, "Invalid token")
	}

	tokens, err := issueTokens(c, id, model.Role(claims.Role), claims.Otp)
	if err != nil {
		return internalError(c, err)
	}

	return success(c, fiber.StatusOK, fiber.Map{
		"access":  tokens.Access,
		"refresh": tokens.Refresh,
		"2fa":     claims.Otp,
	})
}

func AuthSignout(c *fiber.Ctx) error {
	actor := middleware.Actor(c)

	if err := database.Redis[database.RedisTokens].Del(c.UserContext(), fmt.Sprint(actor.ID)).Err(); err != nil {
		return internalError(c, err)
	}

	return success(c, fiber.StatusOK, nil)
}

func AuthMe(c *fiber.Ctx) error {
	return success(c, fiber.StatusOK, middleware.Actor(c))
}

func AuthUpdateMe(c *fiber.Ctx) error {
	input := new(AuthProfileInput)
	if err := c.BodyParser(input); err != nil {
		return failure(c, fiber.StatusBadRequest, "Review your input")
	}
	if err := validate.Struct(input); err != nil {
		return fail(c, err)
	}

	user := middleware.Actor(c)
	updates := map[string]any{}
	if input.Name != nil {
		user.Name = strings.TrimSpace(*input.Name)
		updates["name"] = user.Name
	}
	if input.Phone != nil {
		user.Phone = *input.Phone
		updates["phone"] = user.Phone
	}
	if input.Avatar != nil {
		user.Avatar = *input.Avatar
		updates["avatar"] = user.Avatar
	}

	if len(updates) > 0 {
		if err := database.Postgres.Model(&model.User{}).Where("id = ?", user.ID).Updates(updates).Error; err != nil {
			return internalError(c, err)
		}
	}

	return success(c, fiber.StatusOK, user)
}

func AuthOtpSecret(c *fiber.Ctx) error {
	secret := &AuthOtpSecretInput{}
	if err := c.BodyParser(secret); err != nil {
		return failure(c, fiber.StatusBadRequest, "Review your input")
	}

	userModel := middleware.Actor(c)

	if err := bcrypt.CompareHashAndPassword([]byte(userModel.Password), []byte(secret.Password)); err != nil {
		return failure(c, fiber.StatusUnauthorized, "Invalid password")
	}

	key, err := otpKey(userModel)
	if err != nil {
		return internalError(c, err)
	}

	return success(c, fiber.StatusOK, fiber.Map{
		"secret": key.Secret(),
		"url":    key.URL(),
	})
}

// otpKey rebuilds the TOTP key of a user from its stored secret.
func otpKey(user model.User) (*otp.Key, error) {
	secret, err := base32.StdEncoding.WithPadding(base32.NoPadding).DecodeString(user.OtpSecret)
	if err != nil {
		return nil, fmt.Errorf("decode otp secret: %w", err)
	}
	return totp.Generate(totp.GenerateOpts{
		Issuer:      otpIssuer(),
		AccountName: user.Email,
		Secret:      secret,
	})
}

func otpIssuer() string {
	return config.Default("OTP_ISSUER", "estate-service")
}

func AuthOtpVerify(c *fiber.Ctx) error {
	verify := &AuthOtpVerifyInput{}
	if err := c.BodyParser(verify); err != nil {
		return failure(c, fiber.StatusBadRequest, "Review your input")
	}

	userModel := middleware.Actor(c)

	if userModel.OtpEnabled {
		return failure(c, fiber.StatusUnauthorized, "Verification has already been performed earlier")
	}

	if !totp.Validate(verify.Token, userModel.OtpSecret) {
		return failure(c, fiber.StatusBadRequest, "Invalid token")
	}

	if err := database.Postgres.Model(&model.User{}).Where("id = ?", userModel.ID).Update("otp_enabled", true).Error; err != nil {
		return internalError(c, err)
	}

	return success(c, fiber.StatusOK, nil)
}

// AuthOtpValidate exchanges a pre-2FA token for a full one.
func AuthOtpValidate(c *fiber.Ctx) error {
	input := &AuthOtpValidateInput{}
	if err := c.BodyParser(input); err != nil {
		return failure(c, fiber.StatusBadRequest, "Review your input")
	}

	userModel := middleware.Actor(c)

	if !userModel.OtpEnabled {
		return failure(c, fiber.StatusBadRequest, "2FA has been disabled")
	}

	if !totp.Validate(input.Token, userModel.OtpSecret) {
		return failure(c, fiber.StatusBadRequest, "Invalid token")
	}

	tokens, err := issueTokens(c, userModel.ID, userModel.Role, false)
	if err != nil {
		return internalError(c, err)
	}

	return success(c, fiber.StatusOK, fiber.Map{
		"access":  tokens.Access,
		"refresh": tokens.Refresh,
	})
}

func AuthOtpDisable(c *fiber.Ctx) error {
	disable := &AuthOtpDisableInput{}
	if err := c.BodyParser(disable); err != nil {
		return failure(c, fiber.StatusBadRequest, "Review your input")
	}

	userModel := middleware.Actor(c)

	if !userModel.OtpEnabled {
		return failure(c, fiber.StatusBadRequest, "2fa not enabled")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(userModel.Password), []byte(disable.Password)); err != nil {
		return failure(c, fiber.StatusUnauthorized, "Invalid password")
	}

	if !totp.Validate(disable.Token, userModel.OtpSecret) {
		return failure(c, fiber.StatusBadRequest, "Invalid token")
	}

	if err := database.Postgres.Model(&model.User{}).Where("id = ?", userModel.ID).Update("otp_enabled", false).Error; err != nil {
		return internalError(c, err)
	}

	return success(c, fiber.StatusOK, nil)
}
