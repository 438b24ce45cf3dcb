package main

import (
	"context"
	"embed"
	"errors"
	"flag"
	"fmt"
	"html/template"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/klabast/wb-services/partyplaner/internal/app"
	"github.com/klabast/wb-services/partyplaner/internal/commands"
)

//go:embed static/*
var staticFiles embed.FS

func main() {
	// Check for subcommands
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "hash-password":
			commands.HashPassword(os.Args[2:])
			return
		case "list":
			commands.List(os.Args[2:])
			return
		}
	}

	configPath := flag.String("config", os.Getenv("PARTYPLANER_CONFIG"), "Path to YAML config file")
	port := flag.Int("port", 0, "Port to listen on (overrides config)")
	flag.Parse()

	cfg, err := app.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if *port != 0 {
		cfg.Server.Port = *port
	}

	page, err := template.ParseFS(staticFiles, "static/index.html")
	if err != nil {
		log.Fatalf("Failed to parse page template: %v", err)
	}

	authFile, err := app.AuthFilePath(cfg.Server.AuthFile)
	if err != nil {
		log.Fatalf("Failed to resolve auth file: %v", err)
	}
	auth, err := app.LoadAuth(authFile)
	if err != nil {
		log.Fatalf("Failed to load auth credentials: %v", err)
	}

	store, closeStore, err := app.OpenStore(cfg)
	if err != nil {
		log.Fatalf("Failed to open party store: %v", err)
	}
	defer closeStore()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store.Init(ctx)

	watchPath := ""
	if cfg.Remote.Watch {
		watchPath = cfg.Remote.Location
	}
	refresher, err := app.NewRefresher(store, cfg.Remote.RefreshSchedule, watchPath, cfg.Location())
	if err != nil {
		log.Fatalf("Failed to set up remote refresh: %v", err)
	}
	if err := refresher.Start(ctx); err != nil {
		log.Fatalf("Failed to start remote refresh: %v", err)
	}
	defer refresher.Stop()

	mux := http.NewServeMux()
	app.NewServer(store, auth, page, cfg.Location()).Routes(mux)
	mux.Handle("/static/", http.FileServer(http.FS(staticFiles)))

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Printf("Error shutting down server: %v", err)
		}
	}()

	log.Printf("Starting Partyplaner on http://localhost:%d", cfg.Server.Port)
	log.Printf("Data directory: %s", cfg.Storage.DataDir)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal(err)
	}

	// Let outstanding acknowledgements finish
	store.Wait()
	log.Println("Partyplaner stopped")
}
