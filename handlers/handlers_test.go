package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"roles-server/i18n"
	"roles-server/middleware"
	"roles-server/models"
	"roles-server/services"
	"roles-server/utils/errors"
)

const (
	testSecret = "test-secret"
	clientA    = "6f1c1f1e-1a2b-4c3d-8e9f-0123456789ab"
)

var testNow = time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

type ingesterFunc func(context.Context) ([]models.Place, error)

func (f ingesterFunc) Ingest(ctx context.Context) ([]models.Place, error) { return f(ctx) }

var fixture = []models.Place{
	{ID: "1-Bar Central", Name: "Bar Central", Neighborhood: "Sé", Coords: models.Coords{Lat: -23.55, Lng: -46.63},
		Tags: models.Tags{Club: true, Dancing: true}, InclusionDate: time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)},
	{ID: "2-Casa", Name: "Casa", Neighborhood: "Barra Funda", Coords: models.Coords{Lat: -23.52, Lng: -46.67},
		Tags: models.Tags{Club: true}, InclusionDate: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)},
	{ID: "3-Padaria", Name: "Padaria", Neighborhood: "Mooca", Coords: models.Coords{Lat: -23.56, Lng: -46.60},
		InclusionDate: time.Date(2022, 1, 1, 0, 0, 0, 0, time.UTC)},
}

type testServer struct {
	router  *mux.Router
	catalog *services.CatalogService
	ingest  func(context.Context) ([]models.Place, error)
}

func newTestServer(t *testing.T, load bool) *testServer {
	t.Helper()
	log := zap.NewNop().Sugar()
	ts := &testServer{ingest: func(context.Context) ([]models.Place, error) { return fixture, nil }}
	ts.catalog = services.NewCatalogService(ingesterFunc(func(ctx context.Context) ([]models.Place, error) {
		return ts.ingest(ctx)
	}), nil, log)
	if load {
		_, err := ts.catalog.Reload(context.Background())
		require.NoError(t, err)
	}

	admin, err := services.NewAdminService("1234", testSecret)
	require.NoError(t, err)
	kv := services.NewMemoryKV()

	places := NewPlaceHandler(ts.catalog, kv, i18n.PT, log)
	places.now = func() time.Time { return testNow }
	favorites := NewFavoritesHandler(ts.catalog, kv, i18n.PT, log)
	adminHandler := NewAdminHandler(admin, ts.catalog, i18n.PT, log)

	r := mux.NewRouter().UseEncodedPath()
	r.Use(middleware.ErrorMiddleware(log))
	r.Use(middleware.ClientMiddleware())
	r.HandleFunc("/places", places.ListPlaces).Methods("GET")
	r.HandleFunc("/places/export.xlsx", places.ExportPlaces).Methods("GET")
	r.HandleFunc("/places/{id}", places.GetPlace).Methods("GET")
	r.HandleFunc("/favorites", favorites.ListFavorites).Methods("GET")
	r.HandleFunc("/favorites/{id}/toggle", favorites.ToggleFavorite).Methods("POST")
	r.HandleFunc("/auth/admin", adminHandler.Login).Methods("POST")
	ar := r.PathPrefix("/admin").Subrouter()
	ar.Use(middleware.AdminMiddleware(testSecret))
	ar.HandleFunc("/reload", adminHandler.Reload).Methods("POST")
	ar.HandleFunc("/status", adminHandler.Status).Methods("GET")
	ts.router = r
	return ts
}

func (ts *testServer) do(method, target, body string, header map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set(middleware.ClientIDHeader, clientA)
	for k, v := range header {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	ts.router.ServeHTTP(rec, req)
	return rec
}

type listBody struct {
	Title     string           `json:"title"`
	Notice    string           `json:"notice"`
	Count     int              `json:"count"`
	Favorites []string         `json:"favorites"`
	Places    []map[string]any `json:"places"`
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func TestListPlaces(t *testing.T) {
	ts := newTestServer(t, true)

	t.Run("LatestFirstWithoutPosition", func(t *testing.T) {
		rec := ts.do("GET", "/places", "", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		body := decode[listBody](t, rec)
		assert.Equal(t, "Últimos adicionados", body.Title)
		assert.Empty(t, body.Notice)
		require.Equal(t, 3, body.Count)
		assert.Equal(t, "2-Casa", body.Places[0]["id"])
		assert.Nil(t, body.Places[0]["distance"])
		assert.Equal(t, false, body.Places[0]["needsReview"])
		assert.Equal(t, true, body.Places[1]["needsReview"])
	})

	t.Run("SearchAndTags", func(t *testing.T) {
		rec := ts.do("GET", "/places?q=BAR&tags=club&tags=dancing", "", nil)
		body := decode[listBody](t, rec)
		require.Equal(t, 1, body.Count)
		assert.Equal(t, "1-Bar Central", body.Places[0]["id"])
	})

	t.Run("NearestFirstWithPosition", func(t *testing.T) {
		rec := ts.do("GET", "/places?lat=-23.561&lon=-46.601&lang=en", "", nil)
		body := decode[listBody](t, rec)
		assert.Equal(t, "Nearby You", body.Title)
		require.Equal(t, 3, body.Count)
		assert.Equal(t, "3-Padaria", body.Places[0]["id"])
		assert.NotNil(t, body.Places[0]["distance"])
	})

	t.Run("BadPositionDegrades", func(t *testing.T) {
		rec := ts.do("GET", "/places?lat=abc&lon=1&lang=en", "", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		body := decode[listBody](t, rec)
		assert.Equal(t, "Latest Additions", body.Title)
		assert.Equal(t, "Could not get location. Showing latest additions.", body.Notice)
		assert.Equal(t, 3, body.Count)
	})

	t.Run("UnknownTag", func(t *testing.T) {
		rec := ts.do("GET", "/places?tags=karaoke", "", nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestPlacesBeforeAndAfterFailedLoad(t *testing.T) {
	ts := newTestServer(t, false)

	rec := ts.do("GET", "/places", "", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	ts.ingest = func(context.Context) ([]models.Place, error) {
		return nil, &errors.FetchError{URL: "u", Status: 500}
	}
	_, err := ts.catalog.Reload(context.Background())
	require.Error(t, err)

	rec = ts.do("GET", "/places?lang=en", "", nil)
	require.Equal(t, http.StatusBadGateway, rec.Code)
	apiErr := decode[errors.APIError](t, rec)
	assert.Equal(t, "FETCH_ERROR", apiErr.Code)
	assert.Contains(t, apiErr.Message, "Failed to load data")
}

func TestGetPlace(t *testing.T) {
	ts := newTestServer(t, true)

	rec := ts.do("GET", "/places/2-Casa", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode[PlaceResponse](t, rec)
	assert.Equal(t, "Casa", body.Place.Name)
	assert.False(t, body.Favorite)

	assert.False(t, body.NeedsReview)
	assert.Nil(t, body.Distance)
	assert.Empty(t, body.RouteURL)

	rec = ts.do("GET", "/places/9-Nope", "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	t.Run("WithPosition", func(t *testing.T) {
		rec := ts.do("GET", "/places/1-Bar%20Central?lat=-23.56&lon=-46.64", "", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		body := decode[PlaceResponse](t, rec)
		assert.True(t, body.NeedsReview)
		require.NotNil(t, body.Distance)
		assert.Greater(t, *body.Distance, 0.0)
		assert.Equal(t, "https://www.google.com/maps/dir/?api=1&origin=-23.56,-46.64&destination=-23.55,-46.63", body.RouteURL)
	})

	t.Run("BadPosition", func(t *testing.T) {
		rec := ts.do("GET", "/places/2-Casa?lat=200&lon=0&lang=en", "", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		body := decode[PlaceResponse](t, rec)
		assert.Nil(t, body.Distance)
		assert.Empty(t, body.RouteURL)
		assert.Equal(t, "Could not get location. Showing latest additions.", body.Notice)
	})
}

func TestPlaceIDWithSlash(t *testing.T) {
	ts := newTestServer(t, false)
	ts.ingest = func(context.Context) ([]models.Place, error) {
		return []models.Place{{ID: "1-Bar/Restaurante", Name: "Bar/Restaurante", InclusionDate: testNow}}, nil
	}
	_, err := ts.catalog.Reload(context.Background())
	require.NoError(t, err)

	rec := ts.do("GET", "/places/1-Bar%2FRestaurante", "", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "1-Bar/Restaurante", decode[PlaceResponse](t, rec).Place.ID)

	rec = ts.do("POST", "/favorites/1-Bar%2FRestaurante/toggle", "", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.JSONEq(t, `{"id":"1-Bar/Restaurante","favorite":true}`, rec.Body.String())

	rec = ts.do("GET", "/favorites", "", nil)
	body := decode[FavoritesResponse](t, rec)
	require.Len(t, body.Places, 1)
	assert.Equal(t, "1-Bar/Restaurante", body.Places[0].ID)
}

func TestConcurrentTogglesFromOneClient(t *testing.T) {
	ts := newTestServer(t, true)

	const n = 50
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			ts.do("POST", fmt.Sprintf("/favorites/%d-Place/toggle", i), "", nil)
		}(i)
	}
	wg.Wait()

	rec := ts.do("GET", "/favorites", "", nil)
	assert.Len(t, decode[FavoritesResponse](t, rec).IDs, n)
}

func TestFavorites(t *testing.T) {
	ts := newTestServer(t, true)

	rec := ts.do("GET", "/favorites?lang=en", "", nil)
	body := decode[FavoritesResponse](t, rec)
	assert.Empty(t, body.Places)
	assert.Equal(t, "You haven't favorited any places yet.", body.Message)

	rec = ts.do("POST", "/favorites/2-Casa/toggle", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"id":"2-Casa","favorite":true}`, rec.Body.String())
	ts.do("POST", "/favorites/99-Gone/toggle", "", nil)

	rec = ts.do("GET", "/favorites", "", nil)
	body = decode[FavoritesResponse](t, rec)
	require.Len(t, body.Places, 1)
	assert.Equal(t, "2-Casa", body.Places[0].ID)
	assert.Equal(t, []string{"2-Casa", "99-Gone"}, body.IDs)

	rec = ts.do("GET", "/places/2-Casa", "", nil)
	assert.True(t, decode[PlaceResponse](t, rec).Favorite)

	other := ts.do("GET", "/favorites", "", map[string]string{middleware.ClientIDHeader: "0b7e7d4c-4b2c-4f64-9a4e-9b8f0c1d2e3f"})
	assert.Empty(t, decode[FavoritesResponse](t, other).IDs)

	rec = ts.do("POST", "/favorites/2-Casa/toggle", "", nil)
	assert.JSONEq(t, `{"id":"2-Casa","favorite":false}`, rec.Body.String())
}

func TestAdmin(t *testing.T) {
	ts := newTestServer(t, true)

	rec := ts.do("POST", "/auth/admin", `{"pin":"0000"}`, nil)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "PIN incorreto", decode[errors.APIError](t, rec).Message)

	rec = ts.do("POST", "/admin/reload", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = ts.do("POST", "/auth/admin", `{"pin":"1234"}`, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	token := decode[map[string]string](t, rec)["token"]
	require.NotEmpty(t, token)
	auth := map[string]string{"Authorization": "Bearer " + token}

	rec = ts.do("POST", "/admin/reload", "", auth)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"count":3}`, rec.Body.String())

	rec = ts.do("GET", "/admin/status", "", auth)
	require.Equal(t, http.StatusOK, rec.Code)
	status := decode[AdminStatusResponse](t, rec)
	assert.True(t, status.Loaded)
	assert.Equal(t, 3, status.Count)
	assert.Equal(t, int64(-1), status.Archived)

	ts.ingest = func(context.Context) ([]models.Place, error) {
		return nil, &errors.FetchError{URL: "u", Status: 503}
	}
	rec = ts.do("POST", "/admin/reload", "", auth)
	assert.Equal(t, http.StatusBadGateway, rec.Code)

	rec = ts.do("GET", "/places", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestExportPlaces(t *testing.T) {
	ts := newTestServer(t, true)

	rec := ts.do("GET", "/places/export.xlsx?tags=club", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", rec.Header().Get("Content-Type"))
	assert.NotZero(t, rec.Body.Len())
}
