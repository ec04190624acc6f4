package handlers

import (
	"encoding/json"
	"net/http"
	"net/url"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"roles-server/i18n"
	"roles-server/middleware"
	"roles-server/models"
	"roles-server/services"
	"roles-server/utils/errors"
)

type PlaceHandler struct {
	catalog     *services.CatalogService
	kv          services.KVStore
	defaultLang i18n.Language
	log         *zap.SugaredLogger
	now         func() time.Time
}

type PlacesResponse struct {
	Title     string             `json:"title"`
	Notice    string             `json:"notice,omitempty"`
	Places    []models.PlaceView `json:"places"`
	Favorites []string           `json:"favorites"`
	Count     int                `json:"count"`
	Lat       *float64           `json:"lat,omitempty"`
	Lon       *float64           `json:"lon,omitempty"`
}

// PlaceResponse is the detail view of one place. Distance and RouteURL are
// only set when the request carries a usable position.
type PlaceResponse struct {
	Place       models.Place `json:"place"`
	Favorite    bool         `json:"favorite"`
	NeedsReview bool         `json:"needsReview"`
	Distance    *float64     `json:"distance"`
	RouteURL    string       `json:"routeUrl,omitempty"`
	Notice      string       `json:"notice,omitempty"`
}

func NewPlaceHandler(catalog *services.CatalogService, kv services.KVStore, defaultLang i18n.Language, log *zap.SugaredLogger) *PlaceHandler {
	return &PlaceHandler{catalog: catalog, kv: kv, defaultLang: defaultLang, log: log, now: time.Now}
}

// viewQuery is what a client asks the view engine for.
type viewQuery struct {
	term    string
	filters []models.FilterKey
	pos     *models.Coords
	posErr  error
	t       i18n.Translator
}

func (h *PlaceHandler) parseViewQuery(r *http.Request) (viewQuery, error) {
	q := r.URL.Query()
	filters, err := models.ParseFilterKeys(q["tags"])
	if err != nil {
		return viewQuery{}, errors.NewAPIError("INVALID_INPUT", "Invalid request data", http.StatusBadRequest, err.Error())
	}
	pos, _, posErr := services.ParsePosition(q.Get("lat"), q.Get("lon"))
	return viewQuery{
		term:    q.Get("q"),
		filters: filters,
		pos:     pos,
		posErr:  posErr,
		t:       translatorFor(r, h.defaultLang),
	}, nil
}

// places returns the loaded collection or the error that blocks the view.
func (h *PlaceHandler) places(t i18n.Translator) ([]models.Place, error) {
	places, loaded, err := h.catalog.Places()
	if loaded {
		return places, nil
	}
	if err != nil {
		return nil, errors.NewAPIError("FETCH_ERROR", t("loadError"), http.StatusBadGateway, err.Error())
	}
	return nil, errors.NewAPIError(errors.ErrLoading.Code, t("loading"), errors.ErrLoading.Status)
}

func (h *PlaceHandler) ListPlaces(w http.ResponseWriter, r *http.Request) {
	vq, err := h.parseViewQuery(r)
	if err != nil {
		middleware.WriteError(w, err)
		return
	}
	places, err := h.places(vq.t)
	if err != nil {
		middleware.WriteError(w, err)
		return
	}

	views := services.ComputeView(places, vq.term, vq.filters, vq.pos)
	services.MarkForReview(views, h.now())
	favorites := services.LoadFavorites(r.Context(), clientKV(h.kv, r), h.log)

	response := PlacesResponse{
		Title:     vq.t("latestAdditions"),
		Places:    views,
		Favorites: favorites.All(),
		Count:     len(views),
	}
	if vq.pos != nil {
		response.Title = vq.t("nearbyPlaces")
		response.Lat = &vq.pos.Lat
		response.Lon = &vq.pos.Lng
	}
	if vq.posErr != nil {
		response.Notice = vq.t("locationError")
	}
	writeJSON(w, http.StatusOK, response)
}

func (h *PlaceHandler) GetPlace(w http.ResponseWriter, r *http.Request) {
	t := translatorFor(r, h.defaultLang)
	if _, err := h.places(t); err != nil {
		middleware.WriteError(w, err)
		return
	}
	id, err := pathID(r)
	if err != nil {
		middleware.WriteError(w, err)
		return
	}
	place, ok := h.catalog.Find(id)
	if !ok {
		middleware.WriteError(w, errors.ErrNotFound)
		return
	}
	favorites := services.LoadFavorites(r.Context(), clientKV(h.kv, r), h.log)

	response := PlaceResponse{
		Place:       place,
		Favorite:    favorites.Contains(place.ID),
		NeedsReview: place.NeedsReview(h.now()),
	}
	q := r.URL.Query()
	pos, _, posErr := services.ParsePosition(q.Get("lat"), q.Get("lon"))
	if pos != nil {
		response.Distance = services.DistanceTo(*pos, place)
		if response.Distance != nil {
			response.RouteURL = services.RouteURL(*pos, place.Coords)
		}
	}
	if posErr != nil {
		response.Notice = t("locationError")
	}
	writeJSON(w, http.StatusOK, response)
}

// ExportPlaces streams the current view as an XLSX workbook.
func (h *PlaceHandler) ExportPlaces(w http.ResponseWriter, r *http.Request) {
	vq, err := h.parseViewQuery(r)
	if err != nil {
		middleware.WriteError(w, err)
		return
	}
	places, err := h.places(vq.t)
	if err != nil {
		middleware.WriteError(w, err)
		return
	}
	views := services.ComputeView(places, vq.term, vq.filters, vq.pos)

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="places.xlsx"`)
	if err := services.WriteXLSX(w, views, vq.t); err != nil {
		h.log.Errorf("Failed to write export: %v", err)
	}
}

// pathID returns the unescaped {id} route var. Routers match on the encoded
// path, so an id may contain an escaped '/'.
func pathID(r *http.Request) (string, error) {
	id, err := url.PathUnescape(mux.Vars(r)["id"])
	if err != nil {
		return "", errors.NewAPIError("INVALID_INPUT", "Invalid place id", http.StatusBadRequest, err.Error())
	}
	return id, nil
}

func translatorFor(r *http.Request, def i18n.Language) i18n.Translator {
	lang := r.URL.Query().Get("lang")
	if lang == "" {
		return i18n.For(def)
	}
	return i18n.For(i18n.ParseLanguage(lang))
}

func clientKV(kv services.KVStore, r *http.Request) services.KVStore {
	return services.NewNamespacedKV(kv, "client:"+middleware.ClientID(r.Context())+":")
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
