package server

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/room4-2/voicedesk/config"
	"github.com/room4-2/voicedesk/controller"
	"github.com/room4-2/voicedesk/monitor"
	"github.com/room4-2/voicedesk/twiml"
)

// Server exposes the Twilio voice webhooks and the ops monitor feed.
type Server struct {
	httpServer *http.Server
	upgrader   websocket.Upgrader
	controller *controller.Controller
	hub        *monitor.Hub
}

// New builds the HTTP surface around the controller.
func New(cfg *config.Config, ctrl *controller.Controller, hub *monitor.Hub) *Server {
	s := &Server{
		controller: ctrl,
		hub:        hub,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				for _, allowed := range cfg.AllowedOrigins {
					if allowed == "*" || allowed == origin {
						return true
					}
				}
				return false
			},
		},
	}

	mux := http.NewServeMux()
	mux.HandleFunc(controller.VoicePath, s.handleVoice)
	mux.HandleFunc(controller.RespondPath, s.handleRespond)
	mux.HandleFunc("/live", s.handleLive)
	mux.HandleFunc("/health", s.handleHealth)

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      mux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	return s
}

// Start begins listening for webhooks.
func (s *Server) Start() error {
	log.Printf("📞 Voice webhook server starting on %s", s.httpServer.Addr)
	log.Printf("📡 Call start endpoint: http://localhost%s%s", s.httpServer.Addr, controller.VoicePath)
	log.Printf("📡 Turn endpoint: http://localhost%s%s", s.httpServer.Addr, controller.RespondPath)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	log.Println("🛑 Shutting down server...")
	return s.httpServer.Shutdown(ctx)
}

// callerID keys per-call state: the caller's number when the carrier sends
// one, the call SID otherwise. Anonymous calls with neither still get a
// stable-enough key for the duration of the request.
func callerID(r *http.Request) string {
	if from := r.FormValue("From"); from != "" {
		return from
	}
	if sid := r.FormValue("CallSid"); sid != "" {
		return sid
	}
	return "anonymous-" + uuid.New().String()
}

func (s *Server) handleVoice(w http.ResponseWriter, r *http.Request) {
	resp := s.controller.HandleIncomingCall(r.Context(), callerID(r))
	s.writeTwiML(w, resp)
}

func (s *Server) handleRespond(w http.ResponseWriter, r *http.Request) {
	resp := s.controller.HandleUtterance(r.Context(), callerID(r), r.FormValue("SpeechResult"))
	s.writeTwiML(w, resp)
}

// writeTwiML renders the instruction set. The gateway cannot do anything
// useful with an HTTP error mid-call, so even a render failure answers
// with a minimal spoken goodbye.
func (s *Server) writeTwiML(w http.ResponseWriter, resp *twiml.Response) {
	body, err := resp.Render()
	if err != nil {
		log.Printf("❌ Failed to render TwiML: %v", err)
		body, _ = twiml.New().Say("Sorry, something went wrong. Please call back.").Hangup().Render()
	}
	w.Header().Set("Content-Type", "text/xml")
	_, _ = w.Write(body)
}

func (s *Server) handleLive(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("📡 Monitor upgrade failed: %v", err)
		return
	}
	log.Printf("📡 Monitor subscriber connected: %s", conn.RemoteAddr())
	s.hub.Subscribe(conn)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	fmt.Fprintf(w, `{"status":"ok","monitors":%d}`, s.hub.SubscriberCount())
}
