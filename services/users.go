package services

import (
	"context"
	"crypto/md5"
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"socialposts/db"
	"socialposts/models"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/argon2"
)

// UserStore - хранилище пользователей и выданных токенов
type UserStore interface {
	UserLookup
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	Create(ctx context.Context, user *models.User) error
	SaveToken(ctx context.Context, userID int64, tokenID string, expiresAt time.Time) error
	TokenActive(ctx context.Context, userID int64, tokenID string) (bool, error)
	RevokeTokens(ctx context.Context, userID int64) error
}

// TokenClaims - полезная нагрузка JWT; ID (jti) сверяется с таблицей user_tokens
type TokenClaims struct {
	UserID int64 `json:"user_id"`
	jwt.RegisteredClaims
}

var ErrTokenInvalid = errors.New("token is not valid")

var (
	registerRules = MustBodyValidator(
		FieldRule{Field: "name", Message: "Name is required", MinLength: 1},
		FieldRule{Field: "email", Message: "Please include a valid email", MinLength: 3, Format: "email"},
		FieldRule{Field: "password", Message: "Please enter a password with 6 or more characters", MinLength: 6},
	)
	loginRules = MustBodyValidator(
		FieldRule{Field: "email", Message: "Please include a valid email", MinLength: 3, Format: "email"},
		FieldRule{Field: "password", Message: "Password is required", MinLength: 1},
	)
)

type UserService struct {
	users    UserStore
	secret   []byte
	tokenTTL time.Duration
	log      *zap.Logger
}

func NewUserService(users UserStore, jwtSecret string, tokenTTL time.Duration, log *zap.Logger) *UserService {
	if log == nil {
		log = zap.NewNop()
	}
	return &UserService{
		users:    users,
		secret:   []byte(jwtSecret),
		tokenTTL: tokenTTL,
		log:      log,
	}
}

// Register создает пользователя и сразу выдает ему токен
func (s *UserService) Register(ctx context.Context, name, email, password string) (string, error) {
	err := registerRules.ValidateFields(ctx, map[string]string{"name": name, "email": email, "password": password})
	if err != nil {
		return "", err
	}

	passwordHash, err := hashPassword(password)
	if err != nil {
		return "", err
	}

	user := &models.User{
		Name:     name,
		Email:    normalizeEmail(email),
		Password: passwordHash,
		Avatar:   gravatarURL(email),
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, db.ErrDuplicate) {
			return "", ErrUserExists
		}
		return "", fmt.Errorf("failed to create user: %w", err)
	}

	s.log.Info("user registered", zap.Int64("user_id", user.ID))
	return s.issueToken(ctx, user.ID)
}

// Login проверяет пароль и выдает новый токен
func (s *UserService) Login(ctx context.Context, email, password string) (string, error) {
	err := loginRules.ValidateFields(ctx, map[string]string{"email": email, "password": password})
	if err != nil {
		return "", err
	}

	user, err := s.users.FindByEmail(ctx, normalizeEmail(email))
	if errors.Is(err, db.ErrNotFound) {
		return "", ErrInvalidCredential
	}
	if err != nil {
		return "", fmt.Errorf("failed to find user: %w", err)
	}

	ok, err := checkPassword(user.Password, password)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", ErrInvalidCredential
	}
	return s.issueToken(ctx, user.ID)
}

// Logout отзывает все токены пользователя
func (s *UserService) Logout(ctx context.Context, userID int64) error {
	if err := s.users.RevokeTokens(ctx, userID); err != nil {
		return fmt.Errorf("failed to revoke tokens: %w", err)
	}
	return nil
}

func (s *UserService) CurrentUser(ctx context.Context, userID int64) (*models.User, error) {
	user, err := s.users.FindByID(ctx, userID)
	if errors.Is(err, db.ErrNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load user %d: %w", userID, err)
	}
	return user, nil
}

// VerifyToken проверяет подпись, срок и отзыв токена; возвращает id пользователя
func (s *UserService) VerifyToken(ctx context.Context, raw string) (int64, error) {
	claims := &TokenClaims{}
	token, err := jwt.ParseWithClaims(raw, claims, func(token *jwt.Token) (interface{}, error) {
		return s.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !token.Valid || claims.UserID == 0 || claims.ID == "" {
		return 0, ErrTokenInvalid
	}

	active, err := s.users.TokenActive(ctx, claims.UserID, claims.ID)
	if err != nil {
		return 0, fmt.Errorf("failed to check token: %w", err)
	}
	if !active {
		return 0, ErrTokenInvalid
	}
	return claims.UserID, nil
}

func (s *UserService) issueToken(ctx context.Context, userID int64) (string, error) {
	now := time.Now().UTC()
	expiresAt := now.Add(s.tokenTTL)
	claims := TokenClaims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	if err := s.users.SaveToken(ctx, userID, claims.ID, expiresAt); err != nil {
		return "", fmt.Errorf("failed to store token: %w", err)
	}
	return signed, nil
}

// hashPassword возвращает argon2id-хеш в формате salt$hash
func hashPassword(password string) (string, error) {
	salt := make([]byte, 16)
	if _, err := rand.Read(salt); err != nil {
		return "", err
	}
	hash := argon2.IDKey([]byte(password), salt, 1, 64*1024, 4, 32)
	return hex.EncodeToString(salt) + "$" + hex.EncodeToString(hash), nil
}

func checkPassword(stored, password string) (bool, error) {
	parts := strings.Split(stored, "$")
	if len(parts) != 2 {
		return false, errors.New("invalid password format")
	}
	salt, err := hex.DecodeString(parts[0])
	if err != nil {
		return false, err
	}
	expected, err := hex.DecodeString(parts[1])
	if err != nil {
		return false, err
	}
	hash := argon2.IDKey([]byte(password), salt, 1, 64*1024, 4, 32)
	return subtle.ConstantTimeCompare(hash, expected) == 1, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// gravatarURL - аватар по умолчанию: pg-рейтинг, заглушка mm
func gravatarURL(email string) string {
	sum := md5.Sum([]byte(normalizeEmail(email)))
	return "//www.gravatar.com/avatar/" + hex.EncodeToString(sum[:]) + "?s=200&r=pg&d=mm"
}
