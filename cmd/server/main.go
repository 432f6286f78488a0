package main

import (
	"alcyxob/coach-engine/internal/api"
	"alcyxob/coach-engine/internal/config"
	"alcyxob/coach-engine/internal/repository/mongo"
	"alcyxob/coach-engine/internal/service"
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
)

func main() {
	log.Println("Starting Coach Engine Server...")

	// --- Configuration ---
	cfg, err := config.LoadConfig(".")
	if err != nil {
		log.Fatalf("FATAL: Could not load config: %v", err)
	}
	log.Println("Configuration loaded.")

	// --- Database Connection ---
	dbClient, err := mongo.ConnectDB(cfg.Database.URI)
	if err != nil {
		log.Fatalf("FATAL: Could not connect to MongoDB: %v", err)
	}
	defer func() {
		log.Println("Disconnecting MongoDB...")
		if err := mongo.DisconnectDB(dbClient); err != nil {
			log.Printf("ERROR: Failed to disconnect MongoDB: %v", err)
		}
	}()
	appDB := dbClient.Database(cfg.Database.Name)
	log.Println("Database connection established.")

	// --- Ensure Indexes ---
	// The unique index on plan_versions backs the version-numbering retry;
	// creation runs in the background so startup is not blocked.
	log.Println("Ensuring database indexes...")
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 1*time.Minute)
		defer cancel()
		mongo.EnsurePlanVersionIndexes(ctx, appDB.Collection("plan_versions"))
		mongo.EnsurePointerIndexes(ctx, appDB.Collection("pointers"))
		mongo.EnsureSnapshotIndexes(ctx, appDB.Collection("snapshots"))
		mongo.EnsureChangeEventIndexes(ctx, appDB.Collection("change_events"))
		mongo.EnsureWeightEntryIndexes(ctx, appDB.Collection("weight_entries"))
		mongo.EnsureWorkoutLogIndexes(ctx, appDB.Collection("workout_logs"))
		log.Println("Index creation process completed.")
	}()

	// --- Initialize Repositories ---
	log.Println("Initializing repositories...")
	versionRepo := mongo.NewMongoPlanVersionRepository(appDB)
	pointerRepo := mongo.NewMongoPointerRepository(appDB)
	snapshotRepo := mongo.NewMongoSnapshotRepository(appDB)
	changeRepo := mongo.NewMongoChangeEventRepository(appDB)
	weightRepo := mongo.NewMongoWeightEntryRepository(appDB)
	workoutRepo := mongo.NewMongoWorkoutLogRepository(appDB)

	// --- Initialize Engine ---
	log.Println("Initializing services...")
	updater := service.NewUpdater(snapshotRepo, pointerRepo, versionRepo, workoutRepo)
	dispatcher := service.NewDispatcher(pointerRepo, updater)
	materializer := service.NewMaterializer(versionRepo, pointerRepo, changeRepo, dispatcher, cfg.Engine.VersionRetries)
	coachService := service.NewCoachService(versionRepo, pointerRepo, weightRepo, workoutRepo, materializer, dispatcher)
	readService := service.NewReadService(snapshotRepo, changeRepo, versionRepo)

	reconciler := service.NewReconciler(pointerRepo, versionRepo, snapshotRepo, weightRepo, workoutRepo, service.ReconcilerConfig{
		Window:      cfg.Reconciler.Window,
		UserTimeout: cfg.Reconciler.UserTimeout,
		MaxParallel: cfg.Reconciler.MaxParallel,
	})

	// --- Start Reconciler Loop ---
	reconcilerCtx, stopReconciler := context.WithCancel(context.Background())
	defer stopReconciler()
	go reconciler.RunEvery(reconcilerCtx, cfg.Reconciler.Interval)
	log.Printf("Reconciler scheduled every %s (window %s).", cfg.Reconciler.Interval, cfg.Reconciler.Window)

	// --- Initialize Gin Engine ---
	// gin.SetMode(gin.ReleaseMode) // Uncomment for production
	router := gin.Default() // Includes Logger and Recovery middleware

	// --- Setup Routes ---
	log.Println("Setting up API routes...")
	api.SetupRoutes(router, coachService, readService)

	// --- Start HTTP Server ---
	server := &http.Server{
		Addr:         cfg.Server.Address,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	log.Printf("Server starting on %s", cfg.Server.Address)

	// --- Graceful Shutdown ---
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("FATAL: ListenAndServe Error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")
	stopReconciler()

	ctxShutdown, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()

	if err := server.Shutdown(ctxShutdown); err != nil {
		log.Fatalf("FATAL: Server forced to shutdown: %v", err)
	}

	log.Println("Server exiting.")
}
