package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"talentgate.org/internal/audit"
	"talentgate.org/internal/auth"
	"talentgate.org/internal/config"
	"talentgate.org/internal/httpapi"
	"talentgate.org/internal/obs"
	"talentgate.org/internal/sso"
	"talentgate.org/internal/store/pg"
	"talentgate.org/internal/stream"
)

var (
	version = "0.3.0"
	commit  = "dev"
)

func main() {
	// Local development convenience; missing .env is not an error.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	obs.Init()
	obs.InitBuildInfo(version, commit)

	store, err := pg.Open(cfg.DB.DSN)
	if err != nil {
		log.Fatalf("open db: %v", err)
	}

	ctx := context.Background()
	if err := store.EnsureSchema(ctx); err != nil {
		log.Fatalf("ensure schema: %v", err)
	}
	if cfg.SeedBuiltins {
		if err := auth.Seed(ctx, store); err != nil {
			log.Fatalf("seed builtins: %v", err)
		}
	}

	codec, err := auth.NewTokenCodec(cfg.Token.Secret, cfg.Token.Issuer, cfg.Token.TTL)
	if err != nil {
		log.Fatalf("token codec: %v", err)
	}

	events := stream.New()
	recorder := audit.NewRecorder(store, events)

	var (
		verifier   sso.Verifier
		reconciler *sso.Reconciler
	)
	if cfg.SSO.Enabled() {
		provider, err := sso.NewProvider(ctx, sso.ProviderConfig{
			ClientID:     cfg.SSO.ClientID,
			ClientSecret: cfg.SSO.ClientSecret,
			RedirectURL:  cfg.SSO.RedirectURL,
			Scopes:       cfg.SSO.Scopes,
			IssuerURL:    cfg.SSO.IssuerURL,
		})
		if err != nil {
			log.Fatalf("sso provider: %v", err)
		}
		mapping, err := cfg.SSO.RoleMap()
		if err != nil {
			log.Fatalf("sso role mapping: %v", err)
		}
		reconciler, err = sso.NewReconciler(store, mapping, cfg.SSO.DefaultRole)
		if err != nil {
			log.Fatalf("sso reconciler: %v", err)
		}
		verifier = provider
	}

	api := httpapi.New(httpapi.Options{
		Store:          store,
		Codec:          codec,
		Authenticator:  auth.NewAuthenticator(store),
		Evaluator:      auth.NewEvaluator(store),
		Verifier:       verifier,
		Reconciler:     reconciler,
		Recorder:       recorder,
		Stream:         events,
		ReadyProbe:     httpapi.ReadyProbe{DB: store.DB()},
		Version:        version,
		BcryptCost:     cfg.BcryptCost,
		RateLimitRPS:   cfg.HTTP.RateLimitRPS,
		RateLimitBurst: cfg.HTTP.RateLimitBurst,
		MaxBodyBytes:   cfg.HTTP.MaxBodyBytes,
	})

	srv := &http.Server{
		Addr:              cfg.HTTP.Addr,
		Handler:           api.Handler(),
		ReadTimeout:       cfg.HTTP.ReadTimeout,
		ReadHeaderTimeout: cfg.HTTP.ReadTimeout,
		WriteTimeout:      cfg.HTTP.WriteTimeout,
		IdleTimeout:       cfg.HTTP.IdleTimeout,
	}

	log.Printf("Starting talentgate-api %s on %s", version, srv.Addr)

	// graceful shutdown
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	<-stop
	log.Println("Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()

	_ = srv.Shutdown(shutdownCtx)
	_ = store.Close()
	log.Println("Stopped")
}
