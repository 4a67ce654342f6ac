package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/IANDYI/eldercare-service/internal/adapters/assistant"
	"github.com/IANDYI/eldercare-service/internal/adapters/handler"
	"github.com/IANDYI/eldercare-service/internal/adapters/middleware"
	"github.com/IANDYI/eldercare-service/internal/adapters/repository"
	"github.com/IANDYI/eldercare-service/internal/adapters/websocket"
	"github.com/IANDYI/eldercare-service/internal/config"
	"github.com/IANDYI/eldercare-service/internal/core/ports"
	"github.com/IANDYI/eldercare-service/internal/core/services"
	"github.com/IANDYI/eldercare-service/internal/logger"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func main() {
	// Load configuration
	cfg := config.Load()

	log, err := logger.New(cfg.LogLevel, cfg.LogFormat, "eldercare-service")
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	// Connect to database with retry logic
	db, err := config.ConnectDatabase(cfg.DatabaseURL, 5, 2*time.Second, log)
	if err != nil {
		log.Fatal("failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	if cfg.InitSchema {
		initCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		err := config.InitDatabase(initCtx, db, log)
		cancel()
		if err != nil {
			log.Fatal("failed to initialize database schema", zap.Error(err))
		}
	}

	websocket.RegisterMetrics()
	repository.RegisterBrokerMetrics()

	rootCtx, rootCancel := context.WithCancel(context.Background())
	defer rootCancel()

	// Realtime hub, local to this replica
	hub := websocket.NewHub(log)
	go hub.Run(rootCtx)

	// With a broker every replica publishes to the fanout exchange and
	// delivers what it consumes to its own hub
	var emitter ports.EventEmitter = hub
	var publisher *repository.RabbitMQPublisher
	var consumer *repository.EventConsumer
	if cfg.Broker.Enabled() {
		publisher, err = repository.NewRabbitMQPublisher(cfg.Broker, cfg.BreakerSettings("rabbitmq"), log)
		if err != nil {
			log.Fatal("failed to initialize RabbitMQ publisher", zap.Error(err))
		}
		consumer, err = repository.NewEventConsumer(cfg.Broker, hub, log)
		if err != nil {
			log.Fatal("failed to initialize RabbitMQ event consumer", zap.Error(err))
		}
		go func() {
			if err := consumer.StartConsuming(rootCtx); err != nil && !errors.Is(err, context.Canceled) {
				log.Error("event consumer stopped", zap.Error(err))
			}
		}()
		emitter = publisher
		log.Info("event relay enabled", zap.String("exchange", cfg.Broker.Exchange))
	} else {
		log.Info("RABBITMQ_URL not set, events are delivered by the local hub only")
	}

	// Initialize repositories
	sqlRepo := repository.NewSQLRepository(db, cfg.BreakerSettings("postgres"),
		repository.WithRetry(3, 200*time.Millisecond))

	var store ports.ConversationStore
	var rdb *redis.Client
	if cfg.RedisAddr != "" {
		rdb = redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		pingCtx, cancel := context.WithTimeout(rootCtx, 5*time.Second)
		err := rdb.Ping(pingCtx).Err()
		cancel()
		if err != nil {
			log.Fatal("failed to connect to redis", zap.String("addr", cfg.RedisAddr), zap.Error(err))
		}
		store = repository.NewRedisConversationStore(rdb, cfg.AssistantMaxTurns)
	} else {
		store = repository.NewMemoryConversationStore(cfg.AssistantMaxTurns)
	}

	// Assistant backends are optional; missing ones answer 500 when used
	var generator ports.TextGenerator
	if cfg.GeminiAPIKey != "" {
		generator = assistant.NewGeminiClient(cfg.GeminiBaseURL, cfg.GeminiAPIKey, cfg.GeminiModel,
			cfg.BreakerSettings("gemini"), log)
	} else {
		log.Warn("GEMINI_API_KEY not set, chat is disabled")
	}

	var recognizer ports.SpeechRecognizer
	var synthesizer ports.SpeechSynthesizer
	stt, err := assistant.NewGoogleSpeechRecognizer(rootCtx, cfg.GoogleCredentials, cfg.STTSampleRate, cfg.STTLanguage)
	if err != nil {
		log.Warn("speech-to-text client unavailable", zap.Error(err))
	} else {
		recognizer = stt
		defer stt.Close()
	}
	tts, err := assistant.NewGoogleSpeechSynthesizer(rootCtx, cfg.GoogleCredentials)
	if err != nil {
		log.Warn("text-to-speech client unavailable", zap.Error(err))
	} else {
		synthesizer = tts
		defer tts.Close()
	}

	// Auth middleware doubles as the token issuer
	resolver := services.NewScopeResolver(sqlRepo)
	authMiddleware := middleware.NewAuthMiddleware(cfg.JWTSecret, cfg.TokenTTL, resolver, log)
	defer authMiddleware.Stop()

	// Initialize services
	notifier := services.NewNotifier(sqlRepo, emitter, log)
	authService := services.NewAuthService(sqlRepo, authMiddleware, notifier, log)
	medicationService := services.NewMedicationService(sqlRepo, notifier, log)
	healthRecordService := services.NewHealthRecordService(sqlRepo, notifier)
	mealService := services.NewMealService(sqlRepo, notifier)
	appointmentService := services.NewAppointmentService(sqlRepo, notifier)
	contactService := services.NewEmergencyContactService(sqlRepo)
	notificationService := services.NewNotificationService(sqlRepo)
	locationService := services.NewLocationService(sqlRepo, notifier)
	assistantService := services.NewAssistantService(store, generator, recognizer, synthesizer, log)

	// Initialize handlers
	authHandler := handler.NewAuthHandler(authService, log)
	medicationHandler := handler.NewMedicationHandler(medicationService, log)
	recordHandler := handler.NewRecordHandler(healthRecordService, mealService, appointmentService, contactService, log)
	notificationHandler := handler.NewNotificationHandler(notificationService, locationService, log)
	assistantHandler := handler.NewAssistantHandler(assistantService, log)
	wsHandler := handler.NewWebSocketHandler(hub, authMiddleware, log)
	healthHandler := handler.NewHealthHandler(db, hub)

	// Setup HTTP router
	mux := http.NewServeMux()

	// Health endpoints (OpenShift compatible, no auth required)
	mux.Handle("GET /metrics", promhttp.Handler())
	mux.HandleFunc("GET /health", healthHandler.Health)
	mux.HandleFunc("GET /health/ready", healthHandler.Ready)
	mux.HandleFunc("GET /health/live", healthHandler.Live)

	// Account endpoints
	mux.HandleFunc("POST /auth/signup", authHandler.Signup)
	mux.HandleFunc("POST /auth/login", authHandler.Login)
	mux.HandleFunc("POST /auth/link-caretaker", authMiddleware.RequireCaller(authHandler.LinkCaretaker))

	// Medications - elder: own profile, caretaker: linked elders
	mux.HandleFunc("GET /medications", authMiddleware.RequireCaller(medicationHandler.ListMedications))
	mux.HandleFunc("POST /medications", authMiddleware.RequireCaller(medicationHandler.CreateMedication))
	mux.HandleFunc("PUT /medications/{medication_id}", authMiddleware.RequireCaller(medicationHandler.UpdateMedication))
	mux.HandleFunc("DELETE /medications/{medication_id}", authMiddleware.RequireCaller(medicationHandler.DeleteMedication))
	mux.HandleFunc("POST /medications/{medication_id}/log", authMiddleware.RequireCaller(medicationHandler.LogMedication))
	mux.HandleFunc("GET /medications/{medication_id}/logs", authMiddleware.RequireCaller(medicationHandler.ListMedicationLogs))

	mux.HandleFunc("GET /health-records", authMiddleware.RequireCaller(recordHandler.ListHealthRecords))
	mux.HandleFunc("POST /health-records", authMiddleware.RequireCaller(recordHandler.CreateHealthRecord))

	mux.HandleFunc("GET /meals", authMiddleware.RequireCaller(recordHandler.ListMeals))
	mux.HandleFunc("POST /meals", authMiddleware.RequireCaller(recordHandler.CreateMeal))
	mux.HandleFunc("POST /meals/{meal_id}/consume", authMiddleware.RequireCaller(recordHandler.ConsumeMeal))

	mux.HandleFunc("GET /appointments", authMiddleware.RequireCaller(recordHandler.ListAppointments))
	mux.HandleFunc("POST /appointments", authMiddleware.RequireCaller(recordHandler.CreateAppointment))
	mux.HandleFunc("PUT /appointments/{appointment_id}/status", authMiddleware.RequireCaller(recordHandler.UpdateAppointmentStatus))

	mux.HandleFunc("GET /emergency-contacts", authMiddleware.RequireCaller(recordHandler.ListEmergencyContacts))
	mux.HandleFunc("POST /emergency-contacts", authMiddleware.RequireCaller(recordHandler.CreateEmergencyContact))

	mux.HandleFunc("GET /notifications", authMiddleware.RequireCaller(notificationHandler.ListNotifications))
	mux.HandleFunc("POST /notifications/{notification_id}/read", authMiddleware.RequireCaller(notificationHandler.MarkRead))

	// POST /location - elder only
	mux.HandleFunc("POST /location", authMiddleware.RequireCaller(notificationHandler.UpdateLocation))
	mux.HandleFunc("GET /location/{elder_id}", authMiddleware.RequireCaller(notificationHandler.GetLocation))

	// Assistant endpoints are not scoped to a caller
	mux.HandleFunc("POST /chat", assistantHandler.Chat)
	mux.HandleFunc("POST /transcribe", assistantHandler.Transcribe)
	mux.HandleFunc("POST /speak", assistantHandler.Speak)

	// Realtime channel, authenticates on upgrade
	mux.HandleFunc("GET /ws", wsHandler.HandleWebSocket)

	// Metrics must wrap the mux directly so r.Pattern is visible
	router := middleware.CORS(cfg.CORSAllowedOrigins,
		middleware.RequestLogger(log, middleware.MetricsMiddleware(mux)))

	// Create HTTP server
	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Info("starting Eldercare Service", zap.String("port", cfg.Port))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("server failed to start", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server")

	// Shutdown HTTP server with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("server forced to shutdown", zap.Error(err))
	}

	// Stop consuming and the hub loop, then release the broker and caches
	rootCancel()
	if consumer != nil {
		if err := consumer.Close(); err != nil {
			log.Warn("failed to close event consumer", zap.Error(err))
		}
	}
	if publisher != nil {
		if err := publisher.Close(); err != nil {
			log.Warn("failed to close RabbitMQ publisher", zap.Error(err))
		}
	}
	if rdb != nil {
		if err := rdb.Close(); err != nil {
			log.Warn("failed to close redis client", zap.Error(err))
		}
	}

	log.Info("server exited")
}
