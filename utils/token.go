package utils

import (
	"errors"
	"strconv"
	"time"

	"estate-service/config"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	AccessKey     = "JWT_ACCESS_KEY"
	AccessExpire  = "JWT_ACCESS_EXPIRE"
	RefreshKey    = "JWT_REFRESH_KEY"
	RefreshExpire = "JWT_REFRESH_EXPIRE"
)

var ErrInvalidClaims = errors.New("invalid token claims")

// Tokens struct to describe tokens object.
type Tokens struct {
	Access  string
	Refresh string
}

// TokenMetadata struct to describe metadata in JWT.
type TokenMetadata struct {
	Id   string
	Role string
	Otp  bool
	Exp  int64
}

// UserID parses the subject id.
func (m *TokenMetadata) UserID() (uint, error) {
	id, err := strconv.ParseUint(m.Id, 10, 64)
	return uint(id), err
}

// GenerateTokens func for generate a new Access & Refresh tokens.
func GenerateTokens(id uint, role string, otp bool) (*Tokens, error) {
	subject := strconv.FormatUint(uint64(id), 10)

	accessToken, err := generateToken(subject, role, otp, AccessExpire, AccessKey)
	if err != nil {
		return nil, err
	}

	refreshToken, err := generateToken(subject, role, otp, RefreshExpire, RefreshKey)
	if err != nil {
		return nil, err
	}

	return &Tokens{
		Access:  accessToken,
		Refresh: refreshToken,
	}, nil
}

func generateToken(id, role string, otp bool, expire string, key string) (string, error) {
	minutesCount := config.Int(expire, 15)

	claims := jwt.MapClaims{}

	claims["id"] = id
	claims["role"] = role
	claims["otp"] = otp
	claims["jti"] = uuid.NewString()
	claims["exp"] = time.Now().Add(time.Minute * time.Duration(minutesCount)).Unix()

	token := jwt.NewWithClaims(jwt.SigningMethodHS512, claims)
	return token.SignedString([]byte(config.Config(key)))
}

func CheckAndExtractTokenMetadata(token string, key string) (*TokenMetadata, error) {
	t, err := jwt.Parse(token, func(token *jwt.Token) (interface{}, error) {
		return []byte(config.Config(key)), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS512.Alg()}))
	if err != nil {
		return nil, err
	}

	claims, ok := t.Claims.(jwt.MapClaims)
	if !ok || !t.Valid {
		return nil, ErrInvalidClaims
	}
	return MetadataFromClaims(claims)
}

// MetadataFromClaims reads the claims written by GenerateTokens.
func MetadataFromClaims(claims jwt.MapClaims) (*TokenMetadata, error) {
	id, ok := claims["id"].(string)
	if !ok || id == "" {
		return nil, ErrInvalidClaims
	}
	otp, _ := claims["otp"].(bool)
	role, _ := claims["role"].(string)
	exp, _ := claims["exp"].(float64)

	return &TokenMetadata{
		Id:   id,
		Role: role,
		Otp:  otp,
		Exp:  int64(exp),
	}, nil
}
