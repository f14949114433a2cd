package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ydssx/ai-video-maker/internal/api"
	"github.com/ydssx/ai-video-maker/internal/config"
	"github.com/ydssx/ai-video-maker/internal/db"
	"github.com/ydssx/ai-video-maker/internal/media"
	"github.com/ydssx/ai-video-maker/internal/progress"
	"github.com/ydssx/ai-video-maker/internal/queue"
	"github.com/ydssx/ai-video-maker/internal/render"
	"github.com/ydssx/ai-video-maker/internal/services"
	"github.com/ydssx/ai-video-maker/internal/worker"
)

func main() {
	log.Println("Starting AI Video Maker API...")

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	if err := os.MkdirAll(cfg.OutputDir, 0o755); err != nil {
		log.Fatalf("Failed to create output dir: %v", err)
	}
	if err := os.MkdirAll(cfg.TempDir, 0o755); err != nil {
		log.Fatalf("Failed to create temp dir: %v", err)
	}

	// Connect to database (optional — empty URL disables persistence)
	var store render.Store
	if cfg.DatabaseURL != "" {
		database, err := db.New(cfg.DatabaseURL)
		if err != nil {
			log.Fatalf("Failed to connect to database: %v", err)
		}
		defer database.Close()
		store = database
		log.Println("Connected to database")
	} else {
		log.Println("DATABASE_URL not set — persistence disabled")
	}

	// Media engine
	engine := media.NewFFmpegEngine()

	// Image provider
	var images services.ImageProvider
	switch cfg.ImageProvider {
	case "gemini":
		images = services.NewGeminiImageProvider(cfg.GeminiKey, "")
		log.Println("Image provider: Gemini")
	default:
		images = services.NewPicsumProvider()
		log.Println("Image provider: Picsum")
	}

	// TTS providers
	tts := services.NewTTSDispatcher()
	tts.Register("gtts", services.NewGoogleTTSService())
	if cfg.OpenAIKey != "" {
		tts.Register("openai", services.NewOpenAITTSService(cfg.OpenAIKey))
		log.Println("TTS providers: gtts, openai")
	} else {
		log.Println("TTS providers: gtts")
	}

	// Script generation
	scripts := services.NewScriptGenService(cfg.OpenAIKey)

	// Progress broadcaster
	broadcaster := progress.NewBroadcaster()

	// Render pipeline
	controller := render.NewJobController(
		render.NewSceneComposer(engine, images, cfg.FontFile),
		render.NewTransitionStitcher(engine),
		render.NewNarrator(engine, tts),
		render.NewExporter(engine, cfg.OutputDir),
		render.ControllerOptions{
			TempDir:          cfg.TempDir,
			SceneParallelism: cfg.SceneParallelism,
			Progress:         broadcaster,
			Store:            store,
		},
	)

	// Workers
	workerCtx, workerCancel := context.WithCancel(context.Background())
	defer workerCancel()

	var dispatcher worker.Dispatcher
	switch cfg.QueueMode {
	case "redis":
		q, err := queue.New(cfg.RedisURL)
		if err != nil {
			log.Fatalf("Failed to connect to queue: %v", err)
		}
		defer q.Close()
		log.Println("Connected to Redis queue")

		rw := worker.NewRedisWorker(controller, q, cfg.MaxConcurrentJobs)
		rw.Start(workerCtx)
		dispatcher = rw
	default:
		pool := worker.NewInProcessPool(controller, cfg.MaxConcurrentJobs, cfg.MaxQueueDepth)
		pool.Start(workerCtx)
		dispatcher = pool
	}

	// HTTP surface
	handler := api.NewHandler(controller, dispatcher, scripts)
	ws := api.NewProgressSocket(broadcaster)
	router := api.NewRouter(handler, ws, api.RouterConfig{
		BackendAPIKey:      cfg.BackendAPIKey,
		CorsAllowedOrigins: cfg.CorsAllowedOrigins,
	})

	if cfg.BackendAPIKey != "" {
		log.Println("API key authentication enabled")
	} else {
		log.Println("WARNING: No BACKEND_API_KEY set — API is unprotected (dev mode)")
	}

	server := &http.Server{
		Addr:    ":" + cfg.APIPort,
		Handler: router,
	}

	go func() {
		log.Printf("API server listening on :%s", cfg.APIPort)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")
	workerCancel()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Server stopped")
}
