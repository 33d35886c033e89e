package websocket

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// MaxTicketTTL bounds how long a stream ticket may be valid.
const MaxTicketTTL = 5 * time.Minute

var ErrInvalidTicket = errors.New("invalid stream ticket")

// TicketClaims binds a stream ticket to one user and one list.
type TicketClaims struct {
	ListID int64 `json:"list"`
	jwt.RegisteredClaims
}

// IssueTicket signs a ticket with the shared stream secret. ttl is capped at MaxTicketTTL.
func IssueTicket(secret []byte, userID, listID int64, ttl time.Duration, now time.Time) (string, error) {
	if len(secret) == 0 {
		return "", fmt.Errorf("issue ticket: empty secret")
	}
	if ttl <= 0 || ttl > MaxTicketTTL {
		ttl = MaxTicketTTL
	}
	claims := TicketClaims{
		ListID: listID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(userID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(secret)
	if err != nil {
		return "", fmt.Errorf("sign ticket: %w", err)
	}
	return signed, nil
}

// VerifyTicket checks the signature and lifetime of a ticket and returns the user and list it
// was issued for.
func VerifyTicket(secret []byte, ticket string, now time.Time) (userID, listID int64, err error) {
	if len(secret) == 0 || ticket == "" {
		return 0, 0, ErrInvalidTicket
	}
	var claims TicketClaims
	_, err = jwt.ParseWithClaims(ticket, &claims, func(*jwt.Token) (any, error) {
		return secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(func() time.Time { return now }),
	)
	if err != nil {
		return 0, 0, fmt.Errorf("%w: %v", ErrInvalidTicket, err)
	}
	if claims.ExpiresAt.Time.After(now.Add(MaxTicketTTL + time.Minute)) {
		return 0, 0, fmt.Errorf("%w: lifetime too long", ErrInvalidTicket)
	}
	userID, err = strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil {
		return 0, 0, fmt.Errorf("%w: bad subject", ErrInvalidTicket)
	}
	return userID, claims.ListID, nil
}
