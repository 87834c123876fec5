package db

import (
	"context"
	"errors"
	"time"

	"socialposts/models"

	"gorm.io/gorm"
)

// UserStore - хранилище пользователей и выданных токенов поверх gorm
type UserStore struct {
	manager *Manager
}

func NewUserStore(manager *Manager) *UserStore {
	return &UserStore{manager: manager}
}

func (s *UserStore) FindByID(ctx context.Context, id int64) (*models.User, error) {
	var user models.User
	err := s.manager.GetReadOnlyDB(ctx).First(&user, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (s *UserStore) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	err := s.manager.GetReadOnlyDB(ctx).Where("email = ?", email).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// Create сохраняет пользователя; занятый email возвращает ErrDuplicate
func (s *UserStore) Create(ctx context.Context, user *models.User) error {
	var alreadyExists int64
	err := s.manager.GetWriteDB(ctx).Model(&models.User{}).Where("email = ?", user.Email).Count(&alreadyExists).Error
	if err != nil {
		return err
	}
	if alreadyExists > 0 {
		return ErrDuplicate
	}
	return s.manager.GetWriteDB(ctx).Create(user).Error
}

func (s *UserStore) SaveToken(ctx context.Context, userID int64, tokenID string, expiresAt time.Time) error {
	return s.manager.GetWriteDB(ctx).Create(&models.UserTokens{
		UserID:    userID,
		TokenID:   tokenID,
		ExpiresAt: expiresAt.UTC(),
	}).Error
}

// TokenActive проверяет, что токен выдан этому пользователю, не отозван и не истек
func (s *UserStore) TokenActive(ctx context.Context, userID int64, tokenID string) (bool, error) {
	var count int64
	err := s.manager.GetReadOnlyDB(ctx).Model(&models.UserTokens{}).
		Where("user_id = ? AND token_id = ? AND expires_at > ?", userID, tokenID, time.Now().UTC()).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// RevokeTokens удаляет все токены пользователя
func (s *UserStore) RevokeTokens(ctx context.Context, userID int64) error {
	return s.manager.GetWriteDB(ctx).Where("user_id = ?", userID).Delete(&models.UserTokens{}).Error
}
