package types

import "time"

// Pipeline run status constants
const (
	RunStatusRunning   = "RUNNING"
	RunStatusCompleted = "COMPLETED"
	RunStatusFailed    = "FAILED"
)

// Artifact keys, in step order
const (
	ArtifactAudio      = "audio"
	ArtifactFrames     = "frames"
	ArtifactTranscript = "transcript"
	ArtifactOCR        = "ocr"
	ArtifactCombined   = "combined"
)

// ChatTurn is one question/answer exchange within a session
type ChatTurn struct {
	Timestamp time.Time `json:"timestamp"`
	Question  string    `json:"question"`
	Answer    string    `json:"answer"`
}

// ChatSession is one persisted conversation thread
type ChatSession struct {
	ID        string     `json:"id"`
	VideoName string     `json:"videoName"`
	CreatedAt time.Time  `json:"createdAt"`
	Chats     []ChatTurn `json:"chats"`
}

// HistoryFile is the complete persisted chat history document
type HistoryFile struct {
	Sessions []ChatSession `json:"sessions"`
}

// PipelineStatus is derived from artifact existence on every query;
// the file system is the only source of truth
type PipelineStatus struct {
	Progress       int             `json:"progress"`
	CompletedSteps int             `json:"completedSteps"`
	TotalSteps     int             `json:"totalSteps"`
	Files          map[string]bool `json:"files"`
	IsComplete     bool            `json:"isComplete"`
}

// RunRecord is one entry in the pipeline run journal
type RunRecord struct {
	RunID      string     `json:"run_id"`
	VideoName  string     `json:"video_name"`
	Status     string     `json:"status"`
	FailedStep string     `json:"failed_step,omitempty"`
	Error      string     `json:"error,omitempty"`
	StartedAt  time.Time  `json:"started_at"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
}
