package websocket

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	ws "github.com/coder/websocket"

	"github.com/dukerupert/shoplist/internal/apperr"
	"github.com/dukerupert/shoplist/internal/auth"
)

// Authorizer decides whether a user may open a push channel for a list.
type Authorizer interface {
	CanSubscribe(ctx context.Context, userID, listID int64) error
}

// HandleStream upgrades GET /api/lists/{list_id}/stream to a push channel. The request must
// carry an authenticated session and a ticket signed with the stream secret for the same
// user and list.
func HandleStream(hub *Hub, secret []byte, authz Authorizer, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := auth.UserID(r.Context())
		listID, err := strconv.ParseInt(r.PathValue("list_id"), 10, 64)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid list id")
			return
		}

		ticketUser, ticketList, err := VerifyTicket(secret, r.URL.Query().Get("ticket"), time.Now())
		if err != nil || ticketUser != userID || ticketList != listID {
			writeError(w, http.StatusForbidden, "invalid stream ticket")
			return
		}

		if err := authz.CanSubscribe(r.Context(), userID, listID); err != nil {
			status := apperr.StatusCode(err)
			if status == http.StatusInternalServerError {
				logger.Error("check stream eligibility", "list_id", listID, "error", err)
				writeError(w, status, "internal error")
				return
			}
			writeError(w, status, err.Error())
			return
		}

		conn, err := ws.Accept(w, r, nil)
		if err != nil {
			logger.Warn("accept push channel", "error", err)
			return
		}

		logger.Debug("push channel open", "list_id", listID, "user_id", userID)
		NewClient(hub, conn, listID, userID).Run(r.Context())
		logger.Debug("push channel closed", "list_id", listID, "user_id", userID)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
