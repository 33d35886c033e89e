package model

import "time"

type Session struct {
	ID        int64     `json:"id"`
	Token     string    `json:"token"`
	UserID    int64     `json:"user_id"`
	ExpiresAt time.Time `json:"expires_at"`
	CreatedAt time.Time `json:"created_at"`
}

type User struct {
	ID           int64     `json:"id"`
	Email        string    `json:"email"`
	Name         string    `json:"name"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

// InviteCode is a short-lived numeric code that lets another user join the creator's list.
type InviteCode struct {
	Code      string    `json:"code"`
	ListID    int64     `json:"listId"`
	CreatedBy int64     `json:"createdBy"`
	CreatedAt time.Time `json:"createdAt"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// Expired reports whether the code is no longer redeemable at now.
func (c *InviteCode) Expired(now time.Time) bool {
	return !now.Before(c.ExpiresAt)
}
