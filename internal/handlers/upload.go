package handlers

import (
	"fmt"
	"log"
	"path/filepath"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/codebuildervaibhav/lecture-assistant/internal/workspace"
)

// allowedVideoExtensions accepted regardless of declared content type
var allowedVideoExtensions = []string{".mp4", ".avi", ".mov", ".mkv", ".webm", ".flv", ".wmv"}

// UploadHandler accepts the single current video. A new upload invalidates
// every artifact of the previous run before a byte lands on disk.
type UploadHandler struct {
	ws        *workspace.Workspace
	maxSizeMB int
}

// NewUploadHandler creates a new upload handler
func NewUploadHandler(ws *workspace.Workspace, maxSizeMB int) *UploadHandler {
	return &UploadHandler{
		ws:        ws,
		maxSizeMB: maxSizeMB,
	}
}

// Handle processes the upload request
func (h *UploadHandler) Handle(c *fiber.Ctx) error {
	file, err := c.FormFile("video")
	if err != nil {
		return c.Status(400).JSON(fiber.Map{
			"error": "No video file uploaded",
			"code":  "ERR_NO_FILE",
		})
	}

	maxSize := int64(h.maxSizeMB) * 1024 * 1024
	if file.Size > maxSize {
		return c.Status(400).JSON(fiber.Map{
			"error": fmt.Sprintf("File too large (max %dMB)", h.maxSizeMB),
			"code":  "ERR_FILE_TOO_LARGE",
		})
	}

	if !ValidateVideoFormat(file.Filename, file.Header.Get("Content-Type")) {
		return c.Status(400).JSON(fiber.Map{
			"error": "Only video files are allowed",
			"code":  "ERR_INVALID_FORMAT",
		})
	}

	// Wipe the previous run before writing: stale artifacts must never leak
	// into the new video's status or context
	if err := h.ws.Reset(); err != nil {
		log.Printf("Workspace reset failed: %v", err)
		return c.Status(500).JSON(fiber.Map{
			"error": "Failed to prepare workspace",
			"code":  "ERR_RESET_FAILED",
		})
	}

	if err := c.SaveFile(file, h.ws.VideoPath()); err != nil {
		log.Printf("Failed to save uploaded video: %v", err)
		return c.Status(500).JSON(fiber.Map{
			"error": "Failed to save file",
			"code":  "ERR_SAVE_FAILED",
		})
	}

	log.Printf("Video uploaded: %s (%d bytes, original name %s)",
		h.ws.VideoPath(), file.Size, file.Filename)

	return c.JSON(fiber.Map{
		"success":  true,
		"message":  "Video uploaded successfully",
		"filename": workspace.CanonicalVideoName,
		"size":     file.Size,
		"path":     h.ws.VideoPath(),
	})
}

// Check reports whether a video is currently stored, independent of pipeline state
func (h *UploadHandler) Check(c *fiber.Ctx) error {
	info := h.ws.Video()

	var path any
	if info.Exists {
		path = info.Path
	}
	return c.JSON(fiber.Map{
		"exists": info.Exists,
		"path":   path,
		"size":   info.Size,
	})
}

// DeleteCurrent wipes the input and output trees and recreates them empty
func (h *UploadHandler) DeleteCurrent(c *fiber.Ctx) error {
	if err := h.ws.Reset(); err != nil {
		log.Printf("Workspace reset failed: %v", err)
		return c.Status(500).JSON(fiber.Map{
			"error": "Failed to reset workspace",
			"code":  "ERR_RESET_FAILED",
		})
	}
	return c.JSON(fiber.Map{
		"success": true,
		"message": "Current video and all artifacts removed",
	})
}

// ValidateVideoFormat accepts a known video extension or a declared video/*
// content type
func ValidateVideoFormat(filename, contentType string) bool {
	ext := strings.ToLower(filepath.Ext(filename))
	for _, allowed := range allowedVideoExtensions {
		if ext == allowed {
			return true
		}
	}
	return strings.HasPrefix(contentType, "video/")
}
