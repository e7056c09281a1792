package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	log "github.com/sirupsen/logrus"

	"patient-monitor/internal/agent"
	"patient-monitor/internal/assistant"
	"patient-monitor/internal/config"
	"patient-monitor/internal/education"
	"patient-monitor/internal/notify"
	"patient-monitor/internal/platform/httpx"
	"patient-monitor/internal/platform/mqtt"
	"patient-monitor/internal/platform/storage"
	"patient-monitor/internal/platform/telegram"
	"patient-monitor/internal/report"
	"patient-monitor/internal/tracker"
)

func main() {
	cfg, err := config.NewConfig()
	if err != nil {
		log.WithError(err).Fatal("failed to load config")
	}
	if err := config.SetupLogging(cfg.Log); err != nil {
		log.WithError(err).Warn("invalid log settings, keeping defaults")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// 1. Clients
	chatClient := agent.NewChatClient(agent.ChatConfig{
		BaseURL:     cfg.Assistant.BaseURL,
		APIKey:      cfg.Assistant.APIKey,
		Model:       cfg.Assistant.Model,
		Temperature: cfg.Assistant.Temperature,
		Timeout:     cfg.Assistant.Timeout,
	})
	if cfg.Assistant.APIKey == "" {
		log.Warn("ASSISTANT_API_KEY is not set, assistant and symptom insight will fail")
	}
	ttsClient := agent.NewElevenLabsClient(agent.TTSConfig{
		BaseURL: cfg.TTS.BaseURL,
		APIKey:  cfg.TTS.APIKey,
		VoiceID: cfg.TTS.VoiceID,
		ModelID: cfg.TTS.ModelID,
		Timeout: cfg.TTS.Timeout,
	})
	sttClient := agent.NewWhisperClient(cfg.STT.URL, cfg.STT.Timeout)

	tgClient := telegram.NewClient(cfg.Telegram.Token, cfg.Telegram.BaseURL)
	if tgClient.Enabled() && cfg.Telegram.CareTeamChatID == 0 {
		log.Warn("TELEGRAM_CARE_TEAM_CHAT_ID is not set, care team messages are disabled")
	}

	// 2. Services
	store := tracker.NewStore(tracker.WithLanguage(cfg.Tracker.Language))
	trackerSvc := tracker.NewService(store, chatClient)

	assistantSvc := assistant.NewService(assistant.NewRepository(), chatClient, ttsClient, sttClient, trackerSvc, cfg.Assistant.MaxTurns)

	var sender report.Sender
	var messenger notify.Messenger
	if tgClient.Enabled() {
		sender = tgClient
		messenger = tgClient
	}
	var archive report.Archiver
	if cfg.Storage.Endpoint != "" {
		m, err := storage.NewMinIO(ctx, storage.Config{
			Endpoint:   cfg.Storage.Endpoint,
			AccessKey:  cfg.Storage.AccessKey,
			SecretKey:  cfg.Storage.SecretKey,
			Bucket:     cfg.Storage.Bucket,
			UseSSL:     cfg.Storage.UseSSL,
			PublicBase: cfg.Storage.PublicBase,
			LinkTTL:    cfg.Storage.LinkTTL,
		})
		if err != nil {
			log.WithError(err).Warn("report archive unavailable")
		} else {
			archive = m
		}
	}
	reportSvc := report.NewService(trackerSvc, report.Config{
		FontPaths:      cfg.Report.FontPaths,
		CareTeamChatID: cfg.Telegram.CareTeamChatID,
		PatientName:    cfg.Report.PatientName,
	}, sender, archive)

	// 3. Notifications
	var publisher notify.Publisher
	if cfg.MQTT.Broker != "" {
		p, err := mqtt.Connect(mqtt.Config{
			Broker:      cfg.MQTT.Broker,
			ClientID:    cfg.MQTT.ClientID,
			Username:    cfg.MQTT.Username,
			Password:    cfg.MQTT.Password,
			TopicPrefix: cfg.MQTT.TopicPrefix,
			QoS:         byte(cfg.MQTT.QoS),
			Timeout:     cfg.MQTT.Timeout,
		})
		if err != nil {
			log.WithError(err).Warn("mqtt unavailable, device fan-out disabled")
		} else {
			defer p.Close()
			publisher = p
		}
	}
	notifier := notify.New(publisher, messenger, notify.Config{
		CareTeamChatID: cfg.Telegram.CareTeamChatID,
		Buffer:         cfg.Tracker.NotifyBuffer,
	})
	detach := notifier.Attach(trackerSvc)
	defer detach()
	go notifier.Run(ctx)

	// 4. Router
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(timeoutUnlessStreaming(cfg.Server.RequestTimeout))
	r.Use(cors(cfg.Server.CORSOrigin))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		httpx.JSON(w, r, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Route("/api", func(r chi.Router) {
		tracker.RegisterRoutes(r, tracker.NewHandler(trackerSvc))
		education.RegisterRoutes(r, education.NewHandler(education.DefaultCatalog()))
		assistant.RegisterRoutes(r, assistant.NewHandler(assistantSvc))
		report.RegisterRoutes(r, report.NewHandler(reportSvc))
	})

	srv := &http.Server{
		Addr:              cfg.Server.Addr(),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		// No WriteTimeout: event and chat streams stay open.
	}

	go func() {
		log.WithField("addr", srv.Addr).Info("server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Fatal("server failed")
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("graceful shutdown failed")
		os.Exit(1)
	}
	log.Info("server stopped")
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		log.WithFields(log.Fields{
			"request_id": middleware.GetReqID(r.Context()),
			"method":     r.Method,
			"path":       r.URL.Path,
			"status":     ww.Status(),
			"bytes":      ww.BytesWritten(),
			"duration":   time.Since(start).String(),
		}).Info("request")
	})
}

func isStream(r *http.Request) bool {
	return strings.HasSuffix(r.URL.Path, "/events") ||
		strings.HasSuffix(r.URL.Path, "/stream") ||
		strings.Contains(r.Header.Get("Accept"), "text/event-stream")
}

func timeoutUnlessStreaming(d time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		limited := middleware.Timeout(d)(next)
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if isStream(r) {
				next.ServeHTTP(w, r)
				return
			}
			limited.ServeHTTP(w, r)
		})
	}
}

// cors is the permissive policy the web front-end needs.
func cors(origin string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Methods", "POST, GET, OPTIONS, PUT, PATCH, DELETE")
			w.Header().Set("Access-Control-Allow-Headers", "Accept, Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization")
			w.Header().Set("Access-Control-Expose-Headers", "X-Report-URL, X-Report-Delivered")
			if r.Method == http.MethodOptions {
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
