package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"google.golang.org/api/option"

	"github.com/yoockh/hireview/config"
	"github.com/yoockh/hireview/internal/api/handlers"
	"github.com/yoockh/hireview/internal/api/routes"
	"github.com/yoockh/hireview/internal/cache"
	"github.com/yoockh/hireview/internal/locks"
	"github.com/yoockh/hireview/internal/logger"
	"github.com/yoockh/hireview/internal/notify"
	"github.com/yoockh/hireview/internal/providers/ai"
	"github.com/yoockh/hireview/internal/providers/stt"
	mongorepo "github.com/yoockh/hireview/internal/repositories/mongo"
	pgrepo "github.com/yoockh/hireview/internal/repositories/postgres"
	"github.com/yoockh/hireview/internal/services"
	"github.com/yoockh/hireview/internal/storage"
	"github.com/yoockh/hireview/internal/workers"
)

func main() {
	_ = godotenv.Load()

	lg := logger.New()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Init PostgreSQL
	if err := config.InitPostgres(); err != nil {
		log.Fatalf("PostgreSQL init error: %v", err)
	}
	lg.Info("PostgreSQL connected")

	// Init MongoDB
	if err := config.InitMongo(); err != nil {
		log.Fatalf("MongoDB init error: %v", err)
	}
	if err := config.EnsureMongoIndexes(); err != nil {
		log.Fatalf("MongoDB index error: %v", err)
	}
	lg.Info("MongoDB connected")

	// Init Redis
	if err := config.InitRedis(); err != nil {
		log.Fatalf("Redis init error: %v", err)
	}
	lg.Info("Redis connected")

	// AI gateway (Vertex Gemini)
	var aiOpts []option.ClientOption
	if cred := os.Getenv("GOOGLE_APPLICATION_CREDENTIALS_JSON_PATH"); cred != "" {
		aiOpts = append(aiOpts, option.WithCredentialsFile(cred))
	}
	gw, err := ai.NewVertexGemini(ctx,
		os.Getenv("VERTEX_PROJECT_ID"),
		os.Getenv("VERTEX_LOCATION"),
		os.Getenv("VERTEX_MODEL"),
		aiOpts...,
	)
	if err != nil {
		log.Fatalf("Vertex AI init error: %v", err)
	}
	defer gw.Close()

	// Speech-to-text + recording storage, only when voice mode is enabled
	var speech stt.Provider
	var uploader storage.Uploader
	if os.Getenv("VOICE_MODE_ENABLED") == "true" {
		sp, err := stt.NewGoogleSpeech(ctx)
		if err != nil {
			log.Fatalf("Speech init error: %v", err)
		}
		defer sp.Close()
		speech = sp

		bucket := os.Getenv("GCS_BUCKET")
		up, err := storage.NewGCSUploader(ctx, bucket)
		if err != nil {
			log.Fatalf("GCS init error: %v", err)
		}
		uploader = up
	}

	// Repositories
	sessionRepo := pgrepo.NewSessionRepo(config.PostgresDB)
	messageRepo := pgrepo.NewMessageRepo(config.PostgresDB)
	evalRepo := pgrepo.NewEvaluationRepo(config.PostgresDB)
	profileRepo := pgrepo.NewProfileRepo(config.PostgresDB)
	jobRepo := pgrepo.NewJobPostingRepo(config.PostgresDB)

	mongoDBName := os.Getenv("MONGO_DB")
	if mongoDBName == "" {
		mongoDBName = "hireview"
	}
	eventRepo := mongorepo.NewEventRepo(config.MongoClient.Database(mongoDBName))

	// Infrastructure
	redisCache := cache.NewRedisCache(config.RedisClient)
	locker := locks.NewRedisLocker(config.RedisClient)
	notifier := notify.NewRedisNotifier(config.RedisClient)

	// Services
	contexts := services.NewContextProvider(profileRepo, jobRepo, redisCache, lg)
	builder := services.NewPlanBuilder(gw, lg)
	evaluator := services.NewEvaluationService(sessionRepo, messageRepo, evalRepo, contexts, gw, notifier, lg)

	queue := &workers.EvaluationQueue{
		Redis:     config.RedisClient,
		Evaluator: evaluator,
		Logger:    lg,
	}
	if err := queue.Start(ctx); err != nil {
		log.Fatalf("Evaluation queue init error: %v", err)
	}

	sessionSvc := services.NewSessionService(sessionRepo, messageRepo, builder, contexts, queue, lg)
	engine := services.NewInterviewService(sessionRepo, messageRepo, gw, locker, lg)

	reaper := &workers.SessionReaper{
		Sessions: sessionRepo,
		Queue:    queue,
		Logger:   lg,
	}
	if err := reaper.Start(ctx); err != nil {
		log.Fatalf("Session reaper init error: %v", err)
	}

	// HTTP + WebSocket
	r := gin.Default()
	routes.RegisterRoutes(r, routes.Deps{
		Session:    handlers.NewSessionHandler(sessionSvc),
		Evaluation: handlers.NewEvaluationHandler(evaluator, sessionSvc),
		WS:         handlers.NewWSHandler(sessionSvc, engine, eventRepo, speech, uploader, lg),
		Logger:     lg,
	})

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	if err := r.Run(":" + port); err != nil {
		log.Fatalf("server error: %v", err)
	}
}
