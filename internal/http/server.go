// Package http serves the chat webhook in front of the bot router.
package http

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"time"
)

// Dispatcher handles one inbound chat message and returns the reply text.
type Dispatcher interface {
	Dispatch(ctx context.Context, userID int64, text string) string
}

// Replier delivers the reply back to the chat.
type Replier interface {
	SendMessage(ctx context.Context, chatID int64, text string) error
}

// Update is the inbound webhook payload. Only the fields the bot reads
// are declared; edited messages, callbacks and the rest are ignored.
type Update struct {
	UpdateID int64 `json:"update_id"`
	Message  *struct {
		MessageID int64 `json:"message_id"`
		Chat      struct {
			ID int64 `json:"id"`
		} `json:"chat"`
		Text string `json:"text"`
	} `json:"message"`
}

type Server struct {
	dispatcher Dispatcher
	replier    Replier
	secret     string
}

// NewServer wires the webhook endpoints onto an http.Server. A non-empty
// secret must match the X-Telegram-Bot-Api-Secret-Token header, which is
// how the Bot API authenticates webhook calls.
func NewServer(addr string, dispatcher Dispatcher, replier Replier, secret string) *http.Server {
	s := &Server{dispatcher: dispatcher, replier: replier, secret: secret}

	mux := http.NewServeMux()
	mux.HandleFunc("/webhook", s.handleWebhook)
	mux.HandleFunc("/healthz", s.handleHealth)

	return &http.Server{Addr: addr, Handler: mux}
}

func (s *Server) handleWebhook(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", "POST")
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if s.secret != "" && r.Header.Get("X-Telegram-Bot-Api-Secret-Token") != s.secret {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	var update Update
	if err := json.Unmarshal(body, &update); err != nil {
		slog.ErrorContext(r.Context(), "Failed to decode update", "error", err)
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	// Always 200 so the Bot API does not redeliver; non-message updates
	// are simply dropped.
	w.WriteHeader(http.StatusOK)
	if update.Message == nil || update.Message.Text == "" {
		return
	}

	chatID := update.Message.Chat.ID
	start := time.Now()
	reply := s.dispatcher.Dispatch(r.Context(), chatID, update.Message.Text)

	slog.InfoContext(r.Context(), "Update handled",
		"update_id", update.UpdateID,
		"chat_id", chatID,
		"duration_ms", time.Since(start).Milliseconds())

	if reply == "" {
		return
	}
	if err := s.replier.SendMessage(r.Context(), chatID, reply); err != nil {
		slog.ErrorContext(r.Context(), "Failed to send reply",
			"error", err, "chat_id", chatID)
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}
