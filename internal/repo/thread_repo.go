// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides the thread registry: the mapping from
// an unordered user pair to its single conversation thread.
package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/supplylink/comms-backend/internal/domain"
)

// CanonicalPair orders two user ids deterministically (lexically smaller id
// first). It is used uniformly for thread lookup, creation, and the
// uniqueness constraint, so (A,B) and (B,A) always address the same row.
func CanonicalPair(a, b string) (string, string) {
	if b < a {
		return b, a
	}
	return a, b
}

// GetThreadByPair fetches the thread for a user pair, canonicalizing the
// pair first. Returns ErrNotFound when no thread exists yet.
func GetThreadByPair(ctx context.Context, db *gorm.DB, a, b string) (*domain.ConversationThread, error) {
	ua, ub := CanonicalPair(a, b)
	var t domain.ConversationThread
	err := db.WithContext(ctx).
		Where("user_a_id = ? AND user_b_id = ?", ua, ub).
		First(&t).Error
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// GetOrCreateThread resolves the thread for a user pair, creating it lazily
// on first contact. Creation races are settled by the unique index on the
// canonical pair: a conflicting insert falls back to re-reading the winning
// row instead of failing.
func GetOrCreateThread(ctx context.Context, db *gorm.DB, a, b string) (*domain.ConversationThread, error) {
	t, err := GetThreadByPair(ctx, db, a, b)
	if err == nil {
		return t, nil
	}
	if err != gorm.ErrRecordNotFound {
		return nil, err
	}

	ua, ub := CanonicalPair(a, b)
	now := time.Now().UTC()
	created := &domain.ConversationThread{
		ID:            uuid.NewString(),
		UserAID:       ua,
		UserBID:       ub,
		LastMessageAt: now,
		CreatedAt:     now,
	}
	if err := db.WithContext(ctx).Create(created).Error; err != nil {
		// A concurrent first contact may have inserted the row between our
		// read and write; the pair index rejects the duplicate. Re-read and
		// return the winner.
		if existing, rerr := GetThreadByPair(ctx, db, a, b); rerr == nil {
			return existing, nil
		}
		return nil, err
	}
	return created, nil
}

// TouchThread advances a thread's last_message_at. Callers treat a failure
// here as advisory (logged, not propagated): the timestamp only drives
// conversation ordering.
func TouchThread(ctx context.Context, db *gorm.DB, threadID string, at time.Time) error {
	res := db.WithContext(ctx).
		Model(&domain.ConversationThread{}).
		Where("id = ?", threadID).
		Update("last_message_at", at)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
