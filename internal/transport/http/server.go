package http

import (
	"context"
	"fmt"
	"log"
	stdhttp "net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"pixelgram/internal/cache"
	"pixelgram/internal/config"
	"pixelgram/internal/database"
	"pixelgram/internal/handler"
	"pixelgram/internal/maintenance"
	"pixelgram/internal/queue"
	appredis "pixelgram/internal/redis"
	"pixelgram/internal/repository"
	"pixelgram/internal/service"
	"pixelgram/internal/worker"
)

// Run wires the whole application together and blocks until shutdown.
func Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 1. Load Configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// 2. Connect to Database
	db, err := database.Connect(cfg)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	// 3. Connect to Redis
	redisClient, err := appredis.NewClient(cfg.RedisURL)
	if err != nil {
		return fmt.Errorf("failed to create redis client: %w", err)
	}
	defer redisClient.Close()
	if err := redisClient.Ping(ctx); err != nil {
		return fmt.Errorf("failed to connect to redis: %w", err)
	}
	log.Println("Connected to Redis successfully")

	// 4. Repositories
	userRepo := repository.NewUserRepository(db)
	postRepo := repository.NewPostRepository(db)
	likeRepo := repository.NewLikeRepository(db)
	bookmarkRepo := repository.NewBookmarkRepository(db)
	storyRepo := repository.NewStoryRepository(db)
	commentRepo := repository.NewCommentRepository(db)

	// 5. Cache and queue
	feedCache := cache.NewFeedCache(redisClient.Client)
	publisher := queue.NewPublisher(redisClient.Client)
	consumer := queue.NewConsumer(redisClient.Client)

	// 6. Services
	identityService := service.NewIdentityService(userRepo)
	userService := service.NewUserService(userRepo, identityService)
	postService := service.NewPostService(postRepo, userRepo, likeRepo, bookmarkRepo, identityService, publisher)
	interactionService := service.NewInteractionService(likeRepo, bookmarkRepo, identityService)
	storyService := service.NewStoryService(storyRepo, identityService)
	commentService := service.NewCommentService(commentRepo, postRepo, identityService)
	feedService := service.NewFeedService(postRepo, userRepo, likeRepo, bookmarkRepo, feedCache, identityService)

	mediaService, err := service.NewMediaService(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to create media service: %w", err)
	}

	// 7. Timeline workers
	workerHandler := worker.NewHandler(feedCache)
	workerManager := worker.NewManager(consumer, workerHandler, worker.ManagerConfig{
		WorkerCount: cfg.WorkerCount,
	})
	if err := workerManager.Start(ctx); err != nil {
		return fmt.Errorf("failed to start workers: %w", err)
	}
	defer workerManager.Stop()

	// 8. Maintenance jobs (story purge, counter reconciliation)
	scheduler := maintenance.NewScheduler(storyService, postRepo)
	if err := scheduler.Start(ctx, cfg.StoryPurgeSpec, cfg.CounterReconcileSpec); err != nil {
		return fmt.Errorf("failed to start maintenance scheduler: %w", err)
	}
	defer scheduler.Stop()

	// 9. HTTP server
	router := NewRouter(RouterConfig{
		UserHandler:    handler.NewUserHandler(userService),
		FeedHandler:    handler.NewFeedHandler(feedService),
		PostHandler:    handler.NewPostHandler(postService, interactionService),
		StoryHandler:   handler.NewStoryHandler(storyService),
		CommentHandler: handler.NewCommentHandler(commentService),
		MediaHandler:   handler.NewMediaHandler(mediaService),
		WebhookHandler: handler.NewWebhookHandler(identityService, cfg.WebhookSecret),
		JWTSecret:      cfg.AuthJWTSecret,
	})

	server := &stdhttp.Server{
		Addr:    ":" + cfg.ServerPort,
		Handler: router,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("Starting server on :%s", cfg.ServerPort)
		if err := server.ListenAndServe(); err != nil && err != stdhttp.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	log.Println("Shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	return nil
}
