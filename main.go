package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/mattn/go-runewidth"
	"github.com/redis/go-redis/v9"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"roles-server/app"
	"roles-server/config"
	"roles-server/handlers"
	"roles-server/i18n"
	"roles-server/middleware"
	"roles-server/models"
	"roles-server/services"
)

func main() {
	mode := flag.String("mode", "serve", "serve or list")
	term := flag.String("q", "", "list: search term")
	tags := flag.String("tags", "", "list: comma separated tag filters")
	lat := flag.String("lat", "", "list: latitude")
	lon := flag.String("lon", "", "list: longitude")
	lang := flag.String("lang", "", "list: pt or en")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()
	zap.ReplaceGlobals(logger)
	log := logger.Sugar()
	if !cfg.EnvFile {
		log.Infof("No .env file found, using environment")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sheet := services.NewSheetService(cfg.FeedURL, services.NewHTTPFetcher(nil), log)

	switch *mode {
	case "serve":
		err = serve(ctx, cfg, sheet, log)
	case "list":
		if *lang == "" {
			*lang = cfg.DefaultLang
		}
		err = list(ctx, os.Stdout, sheet, *term, *tags, *lat, *lon, i18n.ParseLanguage(*lang), log)
	default:
		err = fmt.Errorf("unknown mode %q", *mode)
	}
	if err != nil {
		log.Errorf("%v", err)
		os.Exit(1)
	}
}

func newLogger(level string) (*zap.Logger, error) {
	zcfg := zap.NewProductionConfig()
	lvl, err := zap.ParseAtomicLevel(level)
	if err != nil {
		return nil, err
	}
	zcfg.Level = lvl
	return zcfg.Build()
}

func serve(ctx context.Context, cfg *config.Config, sheet *services.SheetService, log *zap.SugaredLogger) error {
	if err := cfg.ValidateServer(); err != nil {
		return err
	}

	var closers []func(context.Context) error

	// Favorites live in redis when configured, otherwise in memory.
	var kv services.KVStore = services.NewMemoryKV()
	if cfg.RedisAddr != "" {
		client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, DB: cfg.RedisDB})
		if err := client.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("failed to connect to Redis: %w", err)
		}
		log.Infof("Connected to Redis at %s", cfg.RedisAddr)
		kv = services.NewRedisKV(client)
		closers = append(closers, func(context.Context) error { return client.Close() })
	} else {
		log.Warnf("REDIS_ADDR not set, favorites are kept in memory")
	}

	var archive services.Archive
	if cfg.MongoURI != "" {
		mongoArchive, err := services.NewMongoArchive(ctx, cfg.MongoURI, cfg.MongoDB)
		if err != nil {
			return err
		}
		log.Infof("Connected to MongoDB, archiving places in %s", cfg.MongoDB)
		archive = mongoArchive
		closers = append(closers, mongoArchive.Close)
	}

	admin, err := services.NewAdminService(cfg.AdminPIN, cfg.JWTSecret)
	if err != nil {
		return err
	}

	catalog := services.NewCatalogService(sheet, archive, log)
	// One-shot ingestion per start; failures surface through the API until
	// an admin reloads.
	go func() {
		if _, err := catalog.Reload(ctx); err != nil {
			log.Errorf("Initial ingestion failed: %v", err)
		}
	}()

	defaultLang := i18n.ParseLanguage(cfg.DefaultLang)
	router := newRouter(cfg, catalog, kv, admin, defaultLang, log)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		log.Infof("Server starting on :%s", cfg.Port)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	err = srv.Shutdown(shutdownCtx)
	for _, c := range closers {
		err = multierr.Append(err, c(shutdownCtx))
	}
	return err
}

func newRouter(cfg *config.Config, catalog *services.CatalogService, kv services.KVStore, admin *services.AdminService, lang i18n.Language, log *zap.SugaredLogger) *mux.Router {
	placeHandler := handlers.NewPlaceHandler(catalog, kv, lang, log)
	favoritesHandler := handlers.NewFavoritesHandler(catalog, kv, lang, log)
	adminHandler := handlers.NewAdminHandler(admin, catalog, lang, log)

	// Place ids come from feed names and may contain '/'.
	r := mux.NewRouter().UseEncodedPath()
	r.Use(middleware.ErrorMiddleware(log))
	r.Use(middleware.CORSMiddleware(cfg.AllowedOrigins))
	r.Use(middleware.ClientMiddleware())
	r.Use(middleware.LoggingMiddleware(log))

	// Place routes
	r.HandleFunc("/places", placeHandler.ListPlaces).Methods("GET", "OPTIONS")
	r.HandleFunc("/places/export.xlsx", placeHandler.ExportPlaces).Methods("GET", "OPTIONS")
	r.HandleFunc("/places/{id}", placeHandler.GetPlace).Methods("GET", "OPTIONS")

	// Favorites routes
	r.HandleFunc("/favorites", favoritesHandler.ListFavorites).Methods("GET", "OPTIONS")
	r.HandleFunc("/favorites/{id}/toggle", favoritesHandler.ToggleFavorite).Methods("POST", "OPTIONS")

	// Admin routes
	r.HandleFunc("/auth/admin", adminHandler.Login).Methods("POST", "OPTIONS")
	adminRouter := r.PathPrefix("/admin").Subrouter()
	adminRouter.Use(middleware.AdminMiddleware(cfg.JWTSecret))
	adminRouter.HandleFunc("/reload", adminHandler.Reload).Methods("POST", "OPTIONS")
	adminRouter.HandleFunc("/status", adminHandler.Status).Methods("GET", "OPTIONS")

	return r
}

// list runs one session in the terminal and prints the visible places.
func list(ctx context.Context, out io.Writer, ingester services.Ingester, term, tags, lat, lon string, lang i18n.Language, log *zap.SugaredLogger) error {
	var filters []models.FilterKey
	if tags != "" {
		var err error
		if filters, err = models.ParseFilterKeys([]string{tags}); err != nil {
			return err
		}
	}
	pos, _, _ := services.ParsePosition(lat, lon)

	session := app.NewSession(lang, ingester, services.StaticLocator{Position: pos}, log)
	session.Dispatch(app.SearchChanged{Term: term})
	for _, f := range filters {
		session.ToggleFilter(f)
	}
	state := session.Run(ctx)
	t := state.T()

	if state.LoadErr != nil {
		fmt.Fprintln(out, t("loadError"))
		return state.LoadErr
	}

	fmt.Fprintln(out, t(state.Title()))
	if notice := state.Notice(); notice != "" {
		fmt.Fprintln(out, t(notice))
	}
	views := state.Visible()
	services.MarkForReview(views, time.Now())
	for _, v := range views {
		distance := ""
		if v.Distance != nil {
			distance = fmt.Sprintf("%.1f km", *v.Distance)
		}
		var active []string
		for _, key := range models.FilterKeys {
			if v.Tags.Has(key) {
				active = append(active, t("tag_"+string(key)))
			}
		}
		review := ""
		if v.NeedsReview {
			review = "  (" + t("needsReview") + ")"
		}
		fmt.Fprintf(out, "%s  %s  %s  %s%s\n",
			runewidth.FillRight(runewidth.Truncate(v.Name, 32, "…"), 32),
			runewidth.FillRight(runewidth.Truncate(v.Neighborhood, 20, "…"), 20),
			runewidth.FillLeft(distance, 10),
			strings.Join(active, ", "),
			review,
		)
	}
	return nil
}
