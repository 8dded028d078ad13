package pipeline

import (
	"errors"
	"fmt"
	"log"
	"os/exec"
	"path/filepath"
	"runtime/debug"
	"sync"

	"github.com/google/uuid"

	"github.com/codebuildervaibhav/lecture-assistant/internal/storage"
	"github.com/codebuildervaibhav/lecture-assistant/internal/workspace"
)

// ErrAlreadyRunning is returned when a run is requested while one is in flight
var ErrAlreadyRunning = errors.New("pipeline is already running")

// Step is one external processing stage. Steps communicate through files in
// the output directory; the runner only sees exit codes and captured output.
type Step struct {
	Name   string
	Script string
}

// Steps in strict execution order. Each writes the artifact the next consumes.
var Steps = []Step{
	{Name: "extract-audio", Script: "extract_audio.py"},
	{Name: "extract-frames", Script: "extract_frames.py"},
	{Name: "transcribe-audio", Script: "transcribe_audio.py"},
	{Name: "ocr-frames", Script: "ocr_frames.py"},
	{Name: "combine-data", Script: "combine_data.py"},
}

// Runner executes the external processing steps serially. The system is
// single-tenant: one canonical video, so at most one run at a time.
type Runner struct {
	ws          *workspace.Workspace
	interpreter string
	scriptsDir  string
	runLog      *storage.RunLog

	mu      sync.Mutex
	running bool
}

// NewRunner creates a pipeline runner. runLog may be nil; journal failures
// never fail a run.
func NewRunner(ws *workspace.Workspace, interpreter, scriptsDir string, runLog *storage.RunLog) *Runner {
	if interpreter == "" {
		interpreter = "python"
	}
	return &Runner{
		ws:          ws,
		interpreter: interpreter,
		scriptsDir:  scriptsDir,
		runLog:      runLog,
	}
}

// Running reports whether a run is currently in flight
func (r *Runner) Running() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.running
}

// Start launches a pipeline run in the background and returns immediately.
// Completion is observed through status polls, not through this call.
// A second Start while a run is in flight returns ErrAlreadyRunning.
func (r *Runner) Start(videoName string) error {
	r.mu.Lock()
	if r.running {
		r.mu.Unlock()
		return ErrAlreadyRunning
	}
	r.running = true
	r.mu.Unlock()

	runID := uuid.New().String()
	if r.runLog != nil {
		if err := r.runLog.StartRun(runID, videoName); err != nil {
			log.Printf("Run journal: failed to record start of run %s: %v", runID, err)
		}
	}

	go func() {
		defer func() {
			if rec := recover(); rec != nil {
				log.Printf("PANIC in pipeline run %s: %v\n%s", runID, rec, string(debug.Stack()))
				r.finish(runID, "", fmt.Errorf("pipeline panic: %v", rec))
			}
			r.mu.Lock()
			r.running = false
			r.mu.Unlock()
		}()

		r.run(runID)
	}()

	return nil
}

// run executes every step in order, aborting on the first failure. Artifacts
// from earlier steps stay on disk so status polls reflect partial progress.
func (r *Runner) run(runID string) {
	log.Printf("Starting video processing pipeline (run %s)", runID)

	for i, step := range Steps {
		log.Printf("Step %d/%d: %s", i+1, len(Steps), step.Name)

		if err := r.runStep(step); err != nil {
			log.Printf("Pipeline run %s aborted at %s: %v", runID, step.Name, err)
			r.finish(runID, step.Name, err)
			return
		}
	}

	log.Printf("Processing pipeline completed successfully (run %s)", runID)
	r.finish(runID, "", nil)
}

// runStep spawns one external script and waits for it. Output is captured for
// diagnostics only; the step's artifact is its real result.
func (r *Runner) runStep(step Step) error {
	scriptPath := filepath.Join(r.scriptsDir, step.Script)

	cmd := exec.Command(r.interpreter, scriptPath)
	cmd.Dir = r.ws.BaseDir()

	output, err := cmd.CombinedOutput()
	if len(output) > 0 {
		log.Printf("[%s] %s", step.Name, string(output))
	}
	if err != nil {
		return fmt.Errorf("step %s failed: %v\nOutput: %s", step.Name, err, string(output))
	}
	return nil
}

func (r *Runner) finish(runID, failedStep string, runErr error) {
	if r.runLog == nil {
		return
	}
	var err error
	if runErr != nil {
		err = r.runLog.FinishRun(runID, failedStep, runErr.Error())
	} else {
		err = r.runLog.FinishRun(runID, "", "")
	}
	if err != nil {
		log.Printf("Run journal: failed to record finish of run %s: %v", runID, err)
	}
}
