package handlers

import (
	"context"
	"log"
	"strings"

	"github.com/gofiber/websocket/v2"

	"github.com/codebuildervaibhav/lecture-assistant/internal/lecture"
	"github.com/codebuildervaibhav/lecture-assistant/internal/ollama"
	"github.com/codebuildervaibhav/lecture-assistant/internal/storage"
	"github.com/codebuildervaibhav/lecture-assistant/internal/workspace"
)

// StreamHandler answers chat questions over WebSocket, pushing response
// fragments as the model produces them
type StreamHandler struct {
	ws    *workspace.Workspace
	store *storage.SessionStore
	llm   *ollama.Client
}

// NewStreamHandler creates a new stream handler
func NewStreamHandler(ws *workspace.Workspace, store *storage.SessionStore, llm *ollama.Client) *StreamHandler {
	return &StreamHandler{
		ws:    ws,
		store: store,
		llm:   llm,
	}
}

type streamRequest struct {
	Question  string `json:"question"`
	SessionID string `json:"sessionId"`
}

// Handle serves one WebSocket connection. The client sends a question, the
// server streams chunk messages and closes the exchange with a done message
// carrying the session id. Multiple questions may be asked per connection.
func (h *StreamHandler) Handle(c *websocket.Conn) {
	defer c.Close()

	log.Println("WebSocket chat connection established")

	for {
		var req streamRequest
		if err := c.ReadJSON(&req); err != nil {
			log.Printf("WebSocket read error: %v", err)
			return
		}

		h.answer(c, req)
	}
}

func (h *StreamHandler) answer(c *websocket.Conn, req streamRequest) {
	question := strings.TrimSpace(req.Question)
	if question == "" {
		c.WriteJSON(map[string]any{"error": "Question is required"})
		return
	}

	segments, err := lecture.Load(h.ws.CombinedPath())
	if err != nil {
		c.WriteJSON(map[string]any{"error": "Lecture data not found. Please process a video first."})
		return
	}

	prompt := lecture.BuildPrompt(question, lecture.BuildContext(segments))

	answer, err := h.llm.Stream(context.Background(), prompt, func(chunk string) {
		c.WriteJSON(map[string]any{"chunk": chunk})
	})
	if err != nil {
		log.Printf("Streaming inference failed: %v", err)
		c.WriteJSON(map[string]any{"error": "Failed to get answer"})
		return
	}

	session, err := h.store.Append(req.SessionID, "", question, answer)
	if err != nil {
		log.Printf("Failed to persist chat turn: %v", err)
	}

	c.WriteJSON(map[string]any{
		"done":      true,
		"sessionId": session.ID,
		"answer":    answer,
	})
}
