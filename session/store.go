// Package session keeps the set of issued tokens that may still
// authenticate. Logout and account deletion remove entries from it.
package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"pizza-service/models"

	"gorm.io/gorm"
)

// Store records active token ids.
type Store interface {
	Add(ctx context.Context, tokenID string, userID uint, expiresAt *time.Time) error
	Active(ctx context.Context, tokenID string) (bool, error)
	Revoke(ctx context.Context, tokenID string) error
	RevokeUser(ctx context.Context, userID uint) error
}

// SQLStore keeps sessions in the application database.
type SQLStore struct {
	db *gorm.DB
}

func NewSQLStore(db *gorm.DB) *SQLStore {
	return &SQLStore{db: db}
}

func (s *SQLStore) Add(ctx context.Context, tokenID string, userID uint, expiresAt *time.Time) error {
	row := models.Session{ID: tokenID, UserID: userID, ExpiresAt: expiresAt}
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		return fmt.Errorf("store session: %w", err)
	}
	return nil
}

func (s *SQLStore) Active(ctx context.Context, tokenID string) (bool, error) {
	var row models.Session
	err := s.db.WithContext(ctx).Where("id = ?", tokenID).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("load session: %w", err)
	}
	if row.ExpiresAt != nil && time.Now().After(*row.ExpiresAt) {
		return false, nil
	}
	return true, nil
}

func (s *SQLStore) Revoke(ctx context.Context, tokenID string) error {
	if err := s.db.WithContext(ctx).Where("id = ?", tokenID).Delete(&models.Session{}).Error; err != nil {
		return fmt.Errorf("revoke session: %w", err)
	}
	return nil
}

func (s *SQLStore) RevokeUser(ctx context.Context, userID uint) error {
	if err := s.db.WithContext(ctx).Where("user_id = ?", userID).Delete(&models.Session{}).Error; err != nil {
		return fmt.Errorf("revoke user sessions: %w", err)
	}
	return nil
}

// PurgeExpired drops sessions whose expiry has passed.
func (s *SQLStore) PurgeExpired(ctx context.Context) (int64, error) {
	res := s.db.WithContext(ctx).
		Where("expires_at IS NOT NULL AND expires_at < ?", time.Now()).
		Delete(&models.Session{})
	if res.Error != nil {
		return 0, fmt.Errorf("purge sessions: %w", res.Error)
	}
	return res.RowsAffected, nil
}
