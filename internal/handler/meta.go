package handler

import (
	"net/http"

	"github.com/dukerupert/shoplist/internal/model"
)

func Categories(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, model.Categories())
}

func Units(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, model.Units())
}
