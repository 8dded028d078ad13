package handlers

import (
	"errors"
	"log"

	"github.com/gofiber/fiber/v2"

	"github.com/codebuildervaibhav/lecture-assistant/internal/lecture"
	"github.com/codebuildervaibhav/lecture-assistant/internal/pipeline"
	"github.com/codebuildervaibhav/lecture-assistant/internal/storage"
	"github.com/codebuildervaibhav/lecture-assistant/internal/types"
	"github.com/codebuildervaibhav/lecture-assistant/internal/workspace"
)

// ProcessHandler starts pipeline runs and answers status queries
type ProcessHandler struct {
	ws     *workspace.Workspace
	runner *pipeline.Runner
	runLog *storage.RunLog
}

// NewProcessHandler creates a new process handler. runLog may be nil.
func NewProcessHandler(ws *workspace.Workspace, runner *pipeline.Runner, runLog *storage.RunLog) *ProcessHandler {
	return &ProcessHandler{
		ws:     ws,
		runner: runner,
		runLog: runLog,
	}
}

// Start kicks off a background pipeline run. The response only confirms the
// run started; completion is observed through subsequent status polls.
func (h *ProcessHandler) Start(c *fiber.Ctx) error {
	if !h.ws.Video().Exists {
		return c.Status(400).JSON(fiber.Map{
			"error": "No video found. Please upload a video first.",
			"code":  "ERR_NO_VIDEO",
		})
	}

	if err := h.runner.Start(workspace.CanonicalVideoName); err != nil {
		if errors.Is(err, pipeline.ErrAlreadyRunning) {
			return c.Status(409).JSON(fiber.Map{
				"error": "Processing is already running",
				"code":  "ERR_ALREADY_RUNNING",
			})
		}
		log.Printf("Failed to start pipeline: %v", err)
		return c.Status(500).JSON(fiber.Map{
			"error": "Failed to start processing",
			"code":  "ERR_START_FAILED",
		})
	}

	return c.JSON(fiber.Map{
		"success": true,
		"message": "Processing started",
		"status":  "running",
	})
}

// Status derives progress from artifact existence on every call
func (h *ProcessHandler) Status(c *fiber.Ctx) error {
	return c.JSON(pipeline.Probe(h.ws))
}

// Data returns the full parsed combined transcript
func (h *ProcessHandler) Data(c *fiber.Ctx) error {
	segments, err := lecture.Load(h.ws.CombinedPath())
	if err != nil {
		return c.Status(404).JSON(fiber.Map{
			"error": "Data not found. Please process a video first.",
			"code":  "ERR_NO_DATA",
		})
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    segments,
		"count":   len(segments),
	})
}

// Runs lists the pipeline run journal, newest first
func (h *ProcessHandler) Runs(c *fiber.Ctx) error {
	runs := []types.RunRecord{}
	if h.runLog != nil {
		list, err := h.runLog.ListRuns(50)
		if err != nil {
			log.Printf("Run journal query failed: %v", err)
			return c.Status(500).JSON(fiber.Map{
				"error": "Failed to read run journal",
				"code":  "ERR_RUNLOG",
			})
		}
		if list != nil {
			runs = list
		}
	}

	return c.JSON(fiber.Map{
		"success": true,
		"runs":    runs,
	})
}
