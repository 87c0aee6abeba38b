// Command conversation-service is the composition root for the turn
// pipeline: it wires every port to its concrete adapter and exposes one
// HTTP endpoint over the Turn Orchestrator (config load -> logger -> service
// -> routes -> graceful shutdown), fronted with gin.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"

	"github.com/drivethru-ai/conversation-core/internal/aggregator"
	"github.com/drivethru-ai/conversation-core/internal/audio"
	"github.com/drivethru-ai/conversation-core/internal/command"
	"github.com/drivethru-ai/conversation-core/internal/config"
	"github.com/drivethru-ai/conversation-core/internal/events"
	"github.com/drivethru-ai/conversation-core/internal/fsm"
	"github.com/drivethru-ai/conversation-core/internal/intent"
	"github.com/drivethru-ai/conversation-core/internal/llm"
	"github.com/drivethru-ai/conversation-core/internal/menu"
	"github.com/drivethru-ai/conversation-core/internal/metrics"
	"github.com/drivethru-ai/conversation-core/internal/objectstore"
	"github.com/drivethru-ai/conversation-core/internal/orchestrator"
	"github.com/drivethru-ai/conversation-core/internal/orderstore"
	"github.com/drivethru-ai/conversation-core/internal/parser"
	"github.com/drivethru-ai/conversation-core/internal/sessionstore"
	"github.com/drivethru-ai/conversation-core/pkg/cache"
	"github.com/drivethru-ai/conversation-core/pkg/logger"
)

func main() {
	appLog := logger.New("conversation-service")

	cfg, err := config.Load(config.DefaultOptions())
	if err != nil {
		appLog.Fatal("failed to load configuration: %v", err)
	}
	snap := cfg.Snapshot()

	redisClient := redis.NewClient(&redis.Options{
		Addr:     snap.RedisAddr,
		Password: snap.RedisPassword,
		DB:       snap.RedisDB,
	})
	{
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := redisClient.Ping(ctx).Err(); err != nil {
			appLog.Fatal("failed to connect to redis: %v", err)
		}
		cancel()
	}
	menuCache := cache.NewRedisCacheFromClient(redisClient, "drivethru:menu")
	appMetrics := metrics.New()

	menuRepo, err := menu.NewPostgresRepository(context.Background(), snap.PostgresDSN)
	if err != nil {
		appLog.Fatal("failed to connect to postgres: %v", err)
	}
	menuModel := menu.NewReadModel(menuRepo, menuCache, appMetrics, appLog)

	orders := orderstore.NewRedisStore(redisClient, snap.SessionTTL, appLog)
	sessions := sessionstore.NewRedisStore(redisClient)
	audioStore := objectstore.NewRedisStore(redisClient, snap.ObjectStoreBaseURL, appLog)

	var publisher events.Publisher
	saramaPublisher, err := events.NewSaramaPublisher(events.ProducerConfig{
		Brokers:      snap.KafkaBrokers,
		Topic:        snap.KafkaTopic,
		RequiredAcks: snap.KafkaRequiredAcks,
	}, appLog)
	if err != nil {
		appLog.Warn("failed to connect to kafka, falling back to a no-op publisher: %v", err)
		publisher = events.NoopPublisher{}
	} else {
		publisher = saramaPublisher
	}

	llmClient := llm.NewOpenAIClient(snap.OpenAIAPIKey, appLog)
	ttsKey := snap.TTSAPIKey
	if ttsKey == "" {
		ttsKey = snap.OpenAIAPIKey
	}
	synthesizer := metrics.WrapSynthesizer(audio.NewOpenAISynthesizer(ttsKey, snap.TTSModel, appLog), appMetrics)

	classifier := intent.NewClassifier(metrics.WrapLLMClient(llmClient, appMetrics, "intent_classifier"), snap.LLMModel, snap.LLMTimeout, snap.LLMRatePerSecond, snap.LLMRateBurst, appLog)
	machine := fsm.New()

	addItemParser := parser.NewAddItemParser(metrics.WrapLLMClient(llmClient, appMetrics, "add_item_parser"), snap.LLMModel, snap.LLMTimeout, menuModel, appLog)
	removeItemParser := parser.NewRemoveItemParser(metrics.WrapLLMClient(llmClient, appMetrics, "remove_item_parser"), snap.LLMModel, snap.LLMTimeout, menuModel, appLog)
	modifyItemParser := parser.NewModifyItemParser(metrics.WrapLLMClient(llmClient, appMetrics, "modify_item_parser"), snap.LLMModel, snap.LLMTimeout, menuModel, appLog)
	router := parser.NewRouter(addItemParser, removeItemParser, modifyItemParser, appLog)

	bus := command.New(orders, menuModel, publisher, command.SystemClock{}, snap, appLog)
	agg := aggregator.New()
	dispatcher := audio.New(audioStore, synthesizer, appLog)

	orch := orchestrator.New(sessions, orders, classifier, machine, router, bus, agg, dispatcher, command.SystemClock{}, snap, appMetrics, appLog)

	engine := gin.New()
	engine.Use(gin.Recovery())
	registerRoutes(engine, orch, appMetrics, snap.JWTSigningSecret, appLog)

	srv := &http.Server{
		Addr:    ":" + strconv.Itoa(snap.ServerPort),
		Handler: engine,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			appLog.Fatal("failed to start server: %v", err)
		}
	}()

	appLog.Info("conversation service started on port %d", snap.ServerPort)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	appLog.Info("shutting down conversation service...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		appLog.Error("server forced to shutdown: %v", err)
	}
	if err := publisher.Close(); err != nil {
		appLog.Warn("failed to close event publisher: %v", err)
	}
	if err := menuRepo.Close(); err != nil {
		appLog.Warn("failed to close postgres connection: %v", err)
	}
	if err := redisClient.Close(); err != nil {
		appLog.Warn("failed to close redis connection: %v", err)
	}

	appLog.Info("conversation service stopped")
}
