package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/room4-2/voicedesk/call"
	"github.com/room4-2/voicedesk/config"
	"github.com/room4-2/voicedesk/controller"
	"github.com/room4-2/voicedesk/gemini"
	"github.com/room4-2/voicedesk/monitor"
	"github.com/room4-2/voicedesk/server"
	"github.com/room4-2/voicedesk/sms"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Call state lives in Redis so any worker can serve any turn. Fall
	// back to in-process memory when Redis is unreachable.
	var store call.Store
	closeStore := func() {}
	redisStore, err := call.NewRedisStore(ctx, cfg.RedisURL, cfg.RedisPassword, cfg.CallTTL)
	if err != nil {
		log.Printf("⚠️  Redis unavailable (%v), using in-memory call store", err)
		memStore := call.NewMemoryStore(cfg.CallTTL, cfg.MaxCalls)
		go memStore.StartCleanupRoutine(ctx)
		store = memStore
	} else {
		store = redisStore
		closeStore = func() {
			if err := redisStore.Close(); err != nil {
				log.Printf("Redis close error: %v", err)
			}
		}
	}
	defer closeStore()

	// Collaborators are constructed once here and injected; the
	// controller holds no global client state.
	model, err := gemini.NewClient(ctx, cfg.GeminiAPIKey, cfg.GeminiModel)
	if err != nil {
		log.Fatalf("Failed to create Gemini client: %v", err)
	}

	messenger := sms.NewClient(cfg.TwilioAccountSID, cfg.TwilioAuthToken, cfg.TwilioFromNumber, cfg.SMSTimeout)

	hub := monitor.NewHub(cfg.KeepAlivePeriod)

	ctrl := controller.New(store, model, messenger, hub, cfg.PaymentLinkURL, cfg.ModelTimeout)
	srv := server.New(cfg, ctrl, hub)

	// Handle graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigChan
		log.Println("\nReceived shutdown signal...")
		cancel()
		hub.Shutdown()
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Printf("Server shutdown error: %v", err)
		}
	}()

	if err := srv.Start(); err != nil && err.Error() != "http: Server closed" {
		log.Fatalf("Server error: %v", err)
	}

	log.Println("Server stopped")
}
