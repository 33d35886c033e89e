// Package invite implements the share-by-code flow: short-lived single-use numeric codes
// that grant membership of a list.
package invite

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"time"

	"github.com/dukerupert/shoplist/internal/apperr"
	"github.com/dukerupert/shoplist/internal/model"
	"github.com/dukerupert/shoplist/internal/store"
)

// DefaultTTL is how long a code stays redeemable when no TTL is configured.
const DefaultTTL = 10 * time.Minute

// codeAttempts bounds regeneration when a random code collides with an active one.
const codeAttempts = 5

type Manager struct {
	lists   *store.ListStore
	invites *store.InviteStore
	ttl     time.Duration
	now     func() time.Time
	logger  *slog.Logger
}

func NewManager(lists *store.ListStore, invites *store.InviteStore, ttl time.Duration, logger *slog.Logger) *Manager {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Manager{
		lists:   lists,
		invites: invites,
		ttl:     ttl,
		now:     time.Now,
		logger:  logger,
	}
}

// GenerateCode returns a 6-digit numeric code (100000–999999).
func GenerateCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(900000))
	if err != nil {
		return "", fmt.Errorf("generate code: %w", err)
	}
	return fmt.Sprintf("%06d", n.Int64()+100000), nil
}

// Sweep drops every expired code.
func (m *Manager) Sweep(ctx context.Context) (int64, error) {
	n, err := m.invites.DeleteExpired(ctx, m.now())
	if err != nil {
		return 0, err
	}
	if n > 0 {
		m.logger.Debug("swept expired invites", "count", n)
	}
	return n, nil
}

// Create issues a code for l on behalf of userID, who must already have access to l.
// A user can hold one active code per list.
func (m *Manager) Create(ctx context.Context, l *model.List, userID int64) (*model.InviteCode, error) {
	if _, err := m.Sweep(ctx); err != nil {
		return nil, err
	}

	existing, err := m.invites.GetByCreator(ctx, l.ID, userID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, apperr.Validation("an invite for this list is already active until %s",
			existing.ExpiresAt.Format(time.RFC3339))
	}

	now := m.now()
	for range codeAttempts {
		code, err := GenerateCode()
		if err != nil {
			return nil, err
		}
		c := &model.InviteCode{
			Code:      code,
			ListID:    l.ID,
			CreatedBy: userID,
			CreatedAt: now,
			ExpiresAt: now.Add(m.ttl),
		}
		err = m.invites.Create(ctx, c)
		if errors.Is(err, store.ErrDuplicate) {
			// Either the code collided or a concurrent request created this user's invite.
			if again, gerr := m.invites.GetByCreator(ctx, l.ID, userID); gerr == nil && again != nil {
				return nil, apperr.Validation("an invite for this list is already active")
			}
			continue
		}
		if err != nil {
			return nil, err
		}
		m.logger.Info("invite created", "list_id", l.ID, "user_id", userID, "expires_at", c.ExpiresAt)
		return c, nil
	}
	return nil, fmt.Errorf("generate invite code: %d collisions", codeAttempts)
}

// Join redeems code for userID and returns the id of the list joined. The code is consumed
// on success.
func (m *Manager) Join(ctx context.Context, code string, userID int64) (int64, error) {
	if code == "" {
		return 0, apperr.Validation("invite code is required")
	}
	if _, err := m.Sweep(ctx); err != nil {
		return 0, err
	}

	c, err := m.invites.GetByCode(ctx, code)
	if err != nil {
		return 0, err
	}
	if c == nil || c.Expired(m.now()) {
		return 0, apperr.NotFound("invite code not found or expired")
	}

	l, err := m.lists.Get(ctx, c.ListID)
	if err != nil {
		return 0, err
	}
	if l == nil {
		return 0, apperr.NotFound("list not found")
	}
	if l.IsOwner(userID) {
		return 0, apperr.Validation("you cannot join your own list")
	}
	if l.IsMember(userID) {
		return 0, apperr.Validation("you are already a member of this list")
	}

	claimed, err := m.invites.Delete(ctx, code)
	if err != nil {
		return 0, err
	}
	if !claimed {
		return 0, apperr.NotFound("invite code not found or expired")
	}

	if err := m.lists.AddMember(ctx, l.ID, userID); err != nil {
		// Give the code back so the failed attempt does not burn it.
		if rerr := m.invites.Create(ctx, c); rerr != nil {
			m.logger.Warn("restore invite after failed join", "list_id", l.ID, "error", rerr)
		}
		switch {
		case errors.Is(err, store.ErrOwnerMember):
			return 0, apperr.Validation("you cannot join your own list")
		case errors.Is(err, store.ErrAlreadyMember):
			return 0, apperr.Validation("you are already a member of this list")
		}
		return 0, err
	}

	m.logger.Info("invite redeemed", "list_id", l.ID, "user_id", userID)
	return l.ID, nil
}

// Leave removes userID from the members of l.
func (m *Manager) Leave(ctx context.Context, l *model.List, userID int64) error {
	if l.IsOwner(userID) {
		return apperr.Validation("the owner cannot leave their own list")
	}
	removed, err := m.lists.RemoveMember(ctx, l.ID, userID)
	if err != nil {
		return err
	}
	if !removed {
		return apperr.NotFound("you are not a member of this list")
	}
	return nil
}

// Clear removes one member, or every member when target is 0. Only the owner may clear.
func (m *Manager) Clear(ctx context.Context, l *model.List, userID, target int64) (int64, error) {
	if !l.IsOwner(userID) {
		return 0, apperr.Forbidden("only the owner can remove members")
	}
	if target == 0 {
		return m.lists.RemoveAllMembers(ctx, l.ID)
	}
	removed, err := m.lists.RemoveMember(ctx, l.ID, target)
	if err != nil {
		return 0, err
	}
	if !removed {
		return 0, apperr.NotFound("user %d is not a member of this list", target)
	}
	return 1, nil
}
