package handlers

import (
	"hash/fnv"
	"net/http"
	"sync"

	"go.uber.org/zap"

	"roles-server/i18n"
	"roles-server/middleware"
	"roles-server/models"
	"roles-server/services"
)

const toggleStripes = 64

type FavoritesHandler struct {
	catalog     *services.CatalogService
	kv          services.KVStore
	defaultLang i18n.Language
	log         *zap.SugaredLogger

	// Toggles of one client are serialized over its favorites key.
	locks [toggleStripes]sync.Mutex
}

type FavoritesResponse struct {
	Title   string         `json:"title"`
	Message string         `json:"message,omitempty"`
	Places  []models.Place `json:"places"`
	IDs     []string       `json:"ids"`
}

func NewFavoritesHandler(catalog *services.CatalogService, kv services.KVStore, defaultLang i18n.Language, log *zap.SugaredLogger) *FavoritesHandler {
	return &FavoritesHandler{catalog: catalog, kv: kv, defaultLang: defaultLang, log: log}
}

// ListFavorites returns the favorite places present in the current feed.
// Favorite ids with no current place are kept but not listed as places.
func (h *FavoritesHandler) ListFavorites(w http.ResponseWriter, r *http.Request) {
	t := translatorFor(r, h.defaultLang)
	favorites := services.LoadFavorites(r.Context(), clientKV(h.kv, r), h.log)

	places, _, _ := h.catalog.Places()
	matched := make([]models.Place, 0)
	for _, p := range places {
		if favorites.Contains(p.ID) {
			matched = append(matched, p)
		}
	}

	response := FavoritesResponse{
		Title:  t("myFavorites"),
		Places: matched,
		IDs:    favorites.All(),
	}
	if len(matched) == 0 {
		response.Message = t("noFavorites")
	}
	writeJSON(w, http.StatusOK, response)
}

func (h *FavoritesHandler) ToggleFavorite(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		middleware.WriteError(w, err)
		return
	}

	lock := h.clientLock(middleware.ClientID(r.Context()))
	lock.Lock()
	favorites := services.LoadFavorites(r.Context(), clientKV(h.kv, r), h.log)
	favorite := favorites.Toggle(r.Context(), id)
	lock.Unlock()

	writeJSON(w, http.StatusOK, map[string]any{"id": id, "favorite": favorite})
}

func (h *FavoritesHandler) clientLock(clientID string) *sync.Mutex {
	f := fnv.New32a()
	f.Write([]byte(clientID))
	return &h.locks[f.Sum32()%toggleStripes]
}
