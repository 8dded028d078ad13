package workspace

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/codebuildervaibhav/lecture-assistant/internal/types"
)

// CanonicalVideoName is the fixed filename the current video always lives
// under; a new upload overwrites it
const CanonicalVideoName = "lecture.mp4"

// Artifact filenames produced by the pipeline steps
const (
	AudioFile      = "audio.wav"
	FramesFile     = "frames_timestamps.json"
	TranscriptFile = "transcript_segments.json"
	OCRFile        = "ocr_with_timestamps.json"
	CombinedFile   = "final_combined.json"
	FramesDir      = "frames"
)

const historyFileName = "chat_sessions.json"
const runLogFileName = "runs.db"

// Workspace bundles the base data directory and every derived path so that
// handlers, the pipeline and the stores never touch process-wide fixed paths.
// Tests point it at a temp directory.
type Workspace struct {
	baseDir string
}

// New creates a workspace rooted at baseDir
func New(baseDir string) *Workspace {
	return &Workspace{baseDir: baseDir}
}

// VideoInfo describes the currently stored video, independent of pipeline state
type VideoInfo struct {
	Exists bool
	Path   string
	Size   int64
}

func (w *Workspace) BaseDir() string    { return w.baseDir }
func (w *Workspace) InputDir() string   { return filepath.Join(w.baseDir, "input") }
func (w *Workspace) OutputDir() string  { return filepath.Join(w.baseDir, "output") }
func (w *Workspace) HistoryDir() string { return filepath.Join(w.baseDir, "history") }

// VideoPath is the canonical path of the current video
func (w *Workspace) VideoPath() string {
	return filepath.Join(w.InputDir(), CanonicalVideoName)
}

func (w *Workspace) FramesPath() string {
	return filepath.Join(w.OutputDir(), FramesDir)
}

func (w *Workspace) HistoryFile() string {
	return filepath.Join(w.HistoryDir(), historyFileName)
}

func (w *Workspace) RunLogDB() string {
	return filepath.Join(w.HistoryDir(), runLogFileName)
}

// ArtifactPath maps an artifact key to its file (or directory) under output
func (w *Workspace) ArtifactPath(key string) string {
	switch key {
	case types.ArtifactAudio:
		return filepath.Join(w.OutputDir(), AudioFile)
	case types.ArtifactFrames:
		return filepath.Join(w.OutputDir(), FramesFile)
	case types.ArtifactTranscript:
		return filepath.Join(w.OutputDir(), TranscriptFile)
	case types.ArtifactOCR:
		return filepath.Join(w.OutputDir(), OCRFile)
	case types.ArtifactCombined:
		return filepath.Join(w.OutputDir(), CombinedFile)
	}
	return ""
}

// CombinedPath is the final combined transcript artifact
func (w *Workspace) CombinedPath() string {
	return w.ArtifactPath(types.ArtifactCombined)
}

// EnsureDirs creates the input, output, frames and history directories
func (w *Workspace) EnsureDirs() error {
	for _, dir := range []string{w.InputDir(), w.OutputDir(), w.FramesPath(), w.HistoryDir()} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %v", dir, err)
		}
	}
	return nil
}

// Reset wipes the input and output trees and recreates them empty, including
// the frames subdirectory. Deletion and recreation are one logical step: any
// failure aborts with an error so a mixed state never survives silently.
// Chat history is untouched.
func (w *Workspace) Reset() error {
	for _, dir := range []string{w.InputDir(), w.OutputDir()} {
		if err := os.RemoveAll(dir); err != nil {
			return fmt.Errorf("failed to remove %s: %v", dir, err)
		}
	}
	for _, dir := range []string{w.InputDir(), w.OutputDir(), w.FramesPath()} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to recreate %s: %v", dir, err)
		}
	}
	return nil
}

// Video reports whether the canonical video exists and how large it is
func (w *Workspace) Video() VideoInfo {
	info, err := os.Stat(w.VideoPath())
	if err != nil {
		return VideoInfo{}
	}
	return VideoInfo{
		Exists: true,
		Path:   w.VideoPath(),
		Size:   info.Size(),
	}
}
