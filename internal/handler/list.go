package handler

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/dukerupert/shoplist/internal/auth"
	"github.com/dukerupert/shoplist/internal/list"
	"github.com/dukerupert/shoplist/internal/model"
)

type ListHandler struct {
	svc    *list.Service
	logger *slog.Logger
}

func NewListHandler(svc *list.Service, logger *slog.Logger) *ListHandler {
	return &ListHandler{svc: svc, logger: logger}
}

// listCall resolves the acting user and list id, runs fn and renders the list it returns.
func (h *ListHandler) listCall(w http.ResponseWriter, r *http.Request, status int, fn func(userID, listID int64) (*model.List, error)) {
	listID, err := parseListID(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid list_id"})
		return
	}
	l, err := fn(auth.UserID(r.Context()), listID)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, status, l)
}

func (h *ListHandler) Create(w http.ResponseWriter, r *http.Request) {
	l, err := h.svc.Create(r.Context(), auth.UserID(r.Context()))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, l)
}

func (h *ListHandler) Lists(w http.ResponseWriter, r *http.Request) {
	lists, err := h.svc.Lists(r.Context(), auth.UserID(r.Context()))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, lists)
}

func (h *ListHandler) Get(w http.ResponseWriter, r *http.Request) {
	h.listCall(w, r, http.StatusOK, func(userID, listID int64) (*model.List, error) {
		return h.svc.Get(r.Context(), userID, listID)
	})
}

func (h *ListHandler) Delete(w http.ResponseWriter, r *http.Request) {
	listID, err := parseListID(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid list_id"})
		return
	}
	if err := h.svc.Delete(r.Context(), auth.UserID(r.Context()), listID); err != nil {
		writeError(w, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *ListHandler) AddItems(w http.ResponseWriter, r *http.Request) {
	var req list.AddInput
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}
	h.listCall(w, r, http.StatusCreated, func(userID, listID int64) (*model.List, error) {
		return h.svc.AddItems(r.Context(), userID, listID, req)
	})
}

func (h *ListHandler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	var patch list.ItemPatch
	if err := decodeJSON(w, r, &patch); err != nil {
		writeError(w, h.logger, err)
		return
	}
	h.listCall(w, r, http.StatusOK, func(userID, listID int64) (*model.List, error) {
		return h.svc.UpdateItem(r.Context(), userID, listID, r.PathValue("item_id"), patch)
	})
}

func (h *ListHandler) DeleteItem(w http.ResponseWriter, r *http.Request) {
	h.listCall(w, r, http.StatusOK, func(userID, listID int64) (*model.List, error) {
		return h.svc.DeleteItem(r.Context(), userID, listID, r.PathValue("item_id"))
	})
}

// DeleteItems clears the checked items with ?checked=true, otherwise everything.
func (h *ListHandler) DeleteItems(w http.ResponseWriter, r *http.Request) {
	checked := r.URL.Query().Get("checked") == "true"
	h.listCall(w, r, http.StatusOK, func(userID, listID int64) (*model.List, error) {
		if checked {
			return h.svc.DeleteChecked(r.Context(), userID, listID)
		}
		return h.svc.DeleteAll(r.Context(), userID, listID)
	})
}

type attachRequest struct {
	Servings int `json:"servings"`
}

func (h *ListHandler) AttachRecipe(w http.ResponseWriter, r *http.Request) {
	var req attachRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}
	h.listCall(w, r, http.StatusOK, func(userID, listID int64) (*model.List, error) {
		return h.svc.AttachRecipe(r.Context(), userID, listID, r.PathValue("recipe_id"), req.Servings)
	})
}

func (h *ListHandler) DetachRecipe(w http.ResponseWriter, r *http.Request) {
	h.listCall(w, r, http.StatusOK, func(userID, listID int64) (*model.List, error) {
		return h.svc.DetachRecipe(r.Context(), userID, listID, r.PathValue("recipe_id"))
	})
}

func (h *ListHandler) DetachAll(w http.ResponseWriter, r *http.Request) {
	h.listCall(w, r, http.StatusOK, func(userID, listID int64) (*model.List, error) {
		return h.svc.DetachAll(r.Context(), userID, listID)
	})
}

func (h *ListHandler) CreateInvite(w http.ResponseWriter, r *http.Request) {
	listID, err := parseListID(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid list_id"})
		return
	}
	code, err := h.svc.CreateInvite(r.Context(), auth.UserID(r.Context()), listID)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, code)
}

type joinRequest struct {
	Code string `json:"code"`
}

func (h *ListHandler) JoinInvite(w http.ResponseWriter, r *http.Request) {
	var req joinRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}
	l, err := h.svc.JoinInvite(r.Context(), auth.UserID(r.Context()), req.Code)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, l)
}

func (h *ListHandler) Leave(w http.ResponseWriter, r *http.Request) {
	listID, err := parseListID(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid list_id"})
		return
	}
	if err := h.svc.Leave(r.Context(), auth.UserID(r.Context()), listID); err != nil {
		writeError(w, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ClearMembers removes ?user_id=, or every member when it is omitted.
func (h *ListHandler) ClearMembers(w http.ResponseWriter, r *http.Request) {
	var target int64
	if v := r.URL.Query().Get("user_id"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil || id <= 0 {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid user_id"})
			return
		}
		target = id
	}
	h.listCall(w, r, http.StatusOK, func(userID, listID int64) (*model.List, error) {
		return h.svc.ClearInvites(r.Context(), userID, listID, target)
	})
}
