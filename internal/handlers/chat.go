package handlers

import (
	"context"
	"errors"
	"log"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/codebuildervaibhav/lecture-assistant/internal/lecture"
	"github.com/codebuildervaibhav/lecture-assistant/internal/ollama"
	"github.com/codebuildervaibhav/lecture-assistant/internal/storage"
	"github.com/codebuildervaibhav/lecture-assistant/internal/workspace"
)

// ChatHandler answers questions about the processed lecture and manages the
// persisted chat history
type ChatHandler struct {
	ws    *workspace.Workspace
	store *storage.SessionStore
	llm   *ollama.Client
}

// NewChatHandler creates a new chat handler
func NewChatHandler(ws *workspace.Workspace, store *storage.SessionStore, llm *ollama.Client) *ChatHandler {
	return &ChatHandler{
		ws:    ws,
		store: store,
		llm:   llm,
	}
}

type chatRequest struct {
	Question  string `json:"question"`
	SessionID string `json:"sessionId"`
}

// loadContext renders the combined transcript, or reports that there is
// nothing to answer from yet
func (h *ChatHandler) loadContext() (string, error) {
	segments, err := lecture.Load(h.ws.CombinedPath())
	if err != nil {
		return "", err
	}
	return lecture.BuildContext(segments), nil
}

// Chat answers one question from the lecture content and records the exchange
func (h *ChatHandler) Chat(c *fiber.Ctx) error {
	var req chatRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{
			"error": "Invalid request body",
			"code":  "ERR_BAD_REQUEST",
		})
	}

	question := strings.TrimSpace(req.Question)
	if question == "" {
		return c.Status(400).JSON(fiber.Map{
			"error": "Question is required",
			"code":  "ERR_EMPTY_QUESTION",
		})
	}

	lectureContext, err := h.loadContext()
	if err != nil {
		return c.Status(404).JSON(fiber.Map{
			"error": "Lecture data not found. Please process a video first.",
			"code":  "ERR_NO_DATA",
		})
	}

	answer, err := h.llm.Generate(context.Background(), lecture.BuildPrompt(question, lectureContext))
	if err != nil {
		return h.llmError(c, err)
	}

	session, err := h.store.Append(req.SessionID, "", question, answer)
	if err != nil {
		// The answer was produced; losing the history entry is not worth
		// failing the request over
		log.Printf("Failed to persist chat turn: %v", err)
	}

	timestamp := time.Now()
	if len(session.Chats) > 0 {
		timestamp = session.Chats[len(session.Chats)-1].Timestamp
	}

	return c.JSON(fiber.Map{
		"success":   true,
		"question":  question,
		"answer":    answer,
		"sessionId": session.ID,
		"timestamp": timestamp,
	})
}

// Summary asks the model for a fixed lecture summary; not recorded in history
func (h *ChatHandler) Summary(c *fiber.Ctx) error {
	lectureContext, err := h.loadContext()
	if err != nil {
		return c.Status(404).JSON(fiber.Map{
			"error": "Lecture data not found",
			"code":  "ERR_NO_DATA",
		})
	}

	summary, err := h.llm.Generate(context.Background(), lecture.BuildPrompt(lecture.SummaryQuestion, lectureContext))
	if err != nil {
		return h.llmError(c, err)
	}

	return c.JSON(fiber.Map{
		"success": true,
		"summary": summary,
	})
}

// History lists all sessions, most recently created first
func (h *ChatHandler) History(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"success":  true,
		"sessions": h.store.List(),
	})
}

// HistoryGet returns one session by id
func (h *ChatHandler) HistoryGet(c *fiber.Ctx) error {
	session, ok := h.store.Get(c.Params("id"))
	if !ok {
		return c.Status(404).JSON(fiber.Map{
			"error": "Session not found",
			"code":  "ERR_NO_SESSION",
		})
	}
	return c.JSON(fiber.Map{
		"success": true,
		"session": session,
	})
}

// HistoryDelete removes one session by id
func (h *ChatHandler) HistoryDelete(c *fiber.Ctx) error {
	found, err := h.store.Delete(c.Params("id"))
	if err != nil {
		log.Printf("Failed to delete session: %v", err)
		return c.Status(500).JSON(fiber.Map{
			"error": "Failed to delete session",
			"code":  "ERR_DELETE_FAILED",
		})
	}
	if !found {
		return c.Status(404).JSON(fiber.Map{
			"error": "Session not found",
			"code":  "ERR_NO_SESSION",
		})
	}
	return c.JSON(fiber.Map{
		"success": true,
		"message": "Session deleted",
	})
}

// HistoryClear wipes the entire chat history
func (h *ChatHandler) HistoryClear(c *fiber.Ctx) error {
	if err := h.store.Clear(); err != nil {
		log.Printf("Failed to clear history: %v", err)
		return c.Status(500).JSON(fiber.Map{
			"error": "Failed to clear history",
			"code":  "ERR_CLEAR_FAILED",
		})
	}
	return c.JSON(fiber.Map{
		"success": true,
		"message": "Chat history cleared",
	})
}

// Status reports Ollama connectivity and available models
func (h *ChatHandler) Status(c *fiber.Ctx) error {
	return c.JSON(h.llm.Check(context.Background()))
}

func (h *ChatHandler) llmError(c *fiber.Ctx, err error) error {
	log.Printf("Inference failed: %v", err)
	if errors.Is(err, ollama.ErrUnavailable) {
		return c.Status(503).JSON(fiber.Map{
			"error": "Cannot connect to Ollama. Make sure Ollama is running.",
			"code":  "ERR_OLLAMA_DOWN",
		})
	}
	return c.Status(500).JSON(fiber.Map{
		"error": "Failed to get answer",
		"code":  "ERR_INFERENCE",
	})
}
