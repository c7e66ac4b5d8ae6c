// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides read-only lookups against the users
// table, which is owned by the identity subsystem.
package repo

import (
	"context"

	"gorm.io/gorm"

	"github.com/supplylink/comms-backend/internal/domain"
)

// GetUser fetches a user by ID. Returns ErrNotFound if the user does not
// exist.
func GetUser(ctx context.Context, db *gorm.DB, id string) (*domain.User, error) {
	var u domain.User
	if err := db.WithContext(ctx).Where("id = ?", id).First(&u).Error; err != nil {
		return nil, err
	}
	return &u, nil
}

// GetUserPair resolves both users of a pair in one query. The result may
// hold fewer than two rows when either id is unknown; callers decide how to
// treat a partial resolution (the access policy treats it as a denial).
func GetUserPair(ctx context.Context, db *gorm.DB, idA, idB string) ([]domain.User, error) {
	var users []domain.User
	err := db.WithContext(ctx).
		Where("id IN ?", []string{idA, idB}).
		Find(&users).Error
	return users, err
}

// SeedUser inserts a user row. The identity subsystem owns this table in
// production; this helper exists for migrations, fixtures, and tests.
func SeedUser(ctx context.Context, db *gorm.DB, u *domain.User) error {
	return db.WithContext(ctx).Create(u).Error
}
