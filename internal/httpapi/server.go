package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/wen-han-chang/RAG-agent/internal/config"
	"github.com/wen-han-chang/RAG-agent/internal/llm"
	"github.com/wen-han-chang/RAG-agent/internal/memory"
	"github.com/wen-han-chang/RAG-agent/internal/observability"
)

// Responder runs one conversation turn.
type Responder interface {
	Respond(ctx context.Context, userID, text string, history []llm.Message) (string, error)
}

type Server struct {
	cfg      config.Config
	agent    Responder
	memories *memory.Store
	metrics  *observability.Metrics
	logger   *log.Logger
	upgrader websocket.Upgrader
}

func New(cfg config.Config, agent Responder, memories *memory.Store, metrics *observability.Metrics, logger *log.Logger) *Server {
	return &Server{
		cfg:      cfg,
		agent:    agent,
		memories: memories,
		metrics:  metrics,
		logger:   logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin: func(r *http.Request) bool {
				// Only same-origin browser connections unless explicitly opened
				// up; non-browser clients without an Origin header are allowed.
				if cfg.AllowAnyOrigin {
					return true
				}
				origin := strings.TrimSpace(r.Header.Get("Origin"))
				if origin == "" {
					return true
				}
				u, err := url.Parse(origin)
				if err != nil {
					return false
				}
				if u.Scheme != "http" && u.Scheme != "https" {
					return false
				}
				return strings.EqualFold(u.Host, r.Host)
			},
		},
	}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Get("/", s.handleBanner)
	r.Get("/healthz", s.handleHealth)
	r.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
		observability.MetricsHandler().ServeHTTP(w, r)
	})

	r.Post("/chat", s.handleChat)
	r.Get("/chat", func(w http.ResponseWriter, _ *http.Request) {
		respondJSON(w, http.StatusMethodNotAllowed, map[string]any{
			"ok":   false,
			"hint": "Use POST /chat with JSON: {user_id, text}",
		})
	})
	r.Get("/chat/ws", s.handleChatWS)
	r.Get("/memory/stats", s.handleMemoryStats)

	return r
}

func (s *Server) handleBanner(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{
		"ok":      true,
		"service": "rag-agent",
		"routes":  []string{"POST /chat", "GET /chat/ws", "GET /healthz", "GET /metrics"},
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	storeMode := "in-memory"
	if strings.TrimSpace(s.cfg.DatabaseURL) != "" {
		storeMode = "postgres"
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"status":          "ok",
		"provider":        s.cfg.Provider,
		"med_state_store": storeMode,
	})
}

type chatRequest struct {
	UserID string `json:"user_id"`
	Text   string `json:"text"`
}

type chatResponse struct {
	OK     bool   `json:"ok"`
	UserID string `json:"user_id"`
	Reply  string `json:"reply"`
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	if strings.TrimSpace(req.UserID) == "" {
		req.UserID = "anonymous"
	}
	req.Text = strings.TrimSpace(req.Text)
	if req.Text == "" {
		respondError(w, http.StatusBadRequest, "invalid_request", "text is required")
		return
	}

	// Server-side turns carry no short-term history; persisted long-term
	// memory does the remembering across stateless HTTP calls.
	reply, err := s.agent.Respond(r.Context(), req.UserID, req.Text, nil)
	if err != nil {
		s.logger.Error("chat turn failed", "user_id", req.UserID, "error", err)
		respondError(w, http.StatusBadGateway, "provider_error", "reply generation failed")
		return
	}

	respondJSON(w, http.StatusOK, chatResponse{OK: true, UserID: req.UserID, Reply: reply})
}

func (s *Server) handleMemoryStats(w http.ResponseWriter, r *http.Request) {
	userID := strings.TrimSpace(r.URL.Query().Get("user_id"))
	if userID == "" {
		respondError(w, http.StatusBadRequest, "invalid_request", "user_id is required")
		return
	}
	namespace, count, err := s.memories.Stats(r.Context(), userID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "stats_error", err.Error())
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"namespace": namespace,
		"count":     count,
	})
}

type wsInbound struct {
	UserID string `json:"user_id,omitempty"`
	Text   string `json:"text"`
}

type wsOutbound struct {
	OK    bool   `json:"ok"`
	Reply string `json:"reply,omitempty"`
	Error string `json:"error,omitempty"`
}

// handleChatWS runs a chat session over one websocket connection. Unlike the
// stateless POST endpoint it accumulates conversation history per connection,
// the same way the REPL does per process.
func (s *Server) handleChatWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	userID := strings.TrimSpace(r.URL.Query().Get("user_id"))
	if userID == "" {
		userID = "anonymous"
	}

	var history []llm.Message
	historyCap := 2 * s.cfg.HistoryMaxTurns

	for {
		var in wsInbound
		if err := conn.ReadJSON(&in); err != nil {
			return
		}
		if strings.TrimSpace(in.UserID) != "" {
			userID = strings.TrimSpace(in.UserID)
		}
		text := strings.TrimSpace(in.Text)
		if text == "" {
			if err := conn.WriteJSON(wsOutbound{OK: false, Error: "text is required"}); err != nil {
				return
			}
			continue
		}

		reply, err := s.agent.Respond(r.Context(), userID, text, history)
		if err != nil {
			s.logger.Error("ws chat turn failed", "user_id", userID, "error", err)
			if err := conn.WriteJSON(wsOutbound{OK: false, Error: "reply generation failed"}); err != nil {
				return
			}
			continue
		}

		history = append(history,
			llm.Message{Role: llm.RoleUser, Content: text},
			llm.Message{Role: llm.RoleAssistant, Content: reply},
		)
		if len(history) > historyCap {
			history = history[len(history)-historyCap:]
		}

		if err := conn.WriteJSON(wsOutbound{OK: true, Reply: reply}); err != nil {
			return
		}
	}
}

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

var errEmptyBody = errors.New("empty body")

func decodeJSON(r *http.Request, out any) error {
	if r.Body == nil {
		return errEmptyBody
	}
	defer r.Body.Close()
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(out); err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "eof") {
			return errEmptyBody
		}
		return err
	}
	return nil
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, errorResponse{Error: message, Code: code})
}
