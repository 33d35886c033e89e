package list

import (
	"context"
	"slices"

	"github.com/dukerupert/shoplist/internal/model"
)

func (s *Service) CreateInvite(ctx context.Context, userID, listID int64) (*model.InviteCode, error) {
	l, err := s.load(ctx, userID, listID)
	if err != nil {
		return nil, err
	}
	return s.invites.Create(ctx, l, userID)
}

// JoinInvite redeems code and returns the joined list.
func (s *Service) JoinInvite(ctx context.Context, userID int64, code string) (*model.List, error) {
	listID, err := s.invites.Join(ctx, code, userID)
	if err != nil {
		return nil, err
	}
	return s.refreshAndPublish(ctx, listID)
}

func (s *Service) Leave(ctx context.Context, userID, listID int64) error {
	l, err := s.load(ctx, userID, listID)
	if err != nil {
		return err
	}
	if err := s.invites.Leave(ctx, l, userID); err != nil {
		return err
	}
	s.hub.Drop(listID, userID)
	_, err = s.refreshAndPublish(ctx, listID)
	return err
}

// ClearInvites removes target from the members, or every member when target is 0.
func (s *Service) ClearInvites(ctx context.Context, userID, listID, target int64) (*model.List, error) {
	l, err := s.load(ctx, userID, listID)
	if err != nil {
		return nil, err
	}
	removed := []int64{target}
	if target == 0 {
		removed = slices.Clone(l.SharedWith)
	}
	n, err := s.invites.Clear(ctx, l, userID, target)
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return l, nil
	}
	for _, id := range removed {
		s.hub.Drop(listID, id)
	}
	return s.refreshAndPublish(ctx, listID)
}
