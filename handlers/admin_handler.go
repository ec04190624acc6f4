package handlers

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"roles-server/i18n"
	"roles-server/middleware"
	"roles-server/services"
	"roles-server/utils/errors"
)

type AdminHandler struct {
	admin       *services.AdminService
	catalog     *services.CatalogService
	defaultLang i18n.Language
	log         *zap.SugaredLogger
}

type AdminStatusResponse struct {
	services.CatalogStatus
	Archived int64 `json:"archived"`
}

func NewAdminHandler(admin *services.AdminService, catalog *services.CatalogService, defaultLang i18n.Language, log *zap.SugaredLogger) *AdminHandler {
	return &AdminHandler{admin: admin, catalog: catalog, defaultLang: defaultLang, log: log}
}

func (h *AdminHandler) Login(w http.ResponseWriter, r *http.Request) {
	t := translatorFor(r, h.defaultLang)
	var input struct {
		PIN string `json:"pin"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		middleware.WriteError(w, errors.ErrInvalidInput)
		return
	}

	token, err := h.admin.Login(input.PIN)
	if err != nil {
		var apiErr *errors.APIError
		if e, ok := err.(*errors.APIError); ok && e.Code == "WRONG_PIN" {
			apiErr = errors.NewAPIError(e.Code, t("wrongPin"), e.Status)
		} else {
			apiErr = errors.Wrap(err, "LOGIN_ERROR", "Failed to login", http.StatusInternalServerError)
		}
		middleware.WriteError(w, apiErr)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"token": token, "message": t("loggedIn")})
}

// Reload re-ingests the feed. There is no automatic retry; this is the
// manual reload.
func (h *AdminHandler) Reload(w http.ResponseWriter, r *http.Request) {
	places, err := h.catalog.Reload(r.Context())
	if err != nil {
		middleware.WriteError(w, err)
		return
	}
	h.log.Infof("Manual reload loaded %d places", len(places))
	writeJSON(w, http.StatusOK, map[string]int{"count": len(places)})
}

func (h *AdminHandler) Status(w http.ResponseWriter, r *http.Request) {
	archived, err := h.catalog.ArchiveCount(r.Context())
	if err != nil {
		h.log.Warnf("Failed to count archived places: %v", err)
		archived = -1
	}
	writeJSON(w, http.StatusOK, AdminStatusResponse{
		CatalogStatus: h.catalog.Status(),
		Archived:      archived,
	})
}
