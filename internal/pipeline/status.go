package pipeline

import (
	"math"
	"os"

	"github.com/codebuildervaibhav/lecture-assistant/internal/types"
	"github.com/codebuildervaibhav/lecture-assistant/internal/workspace"
)

// artifactKeys in pipeline step order
var artifactKeys = []string{
	types.ArtifactAudio,
	types.ArtifactFrames,
	types.ArtifactTranscript,
	types.ArtifactOCR,
	types.ArtifactCombined,
}

// Probe derives the pipeline status from artifact existence. It is stateless:
// nothing is cached, the file system is the state. Completion is tied to the
// final combined artifact only - the combine step is the authoritative signal
// even if intermediate detection is imperfect.
func Probe(ws *workspace.Workspace) types.PipelineStatus {
	files := make(map[string]bool, len(artifactKeys))
	completed := 0
	for _, key := range artifactKeys {
		exists := fileExists(ws.ArtifactPath(key))
		files[key] = exists
		if exists {
			completed++
		}
	}

	total := len(artifactKeys)
	return types.PipelineStatus{
		Progress:       int(math.Round(float64(completed) / float64(total) * 100)),
		CompletedSteps: completed,
		TotalSteps:     total,
		Files:          files,
		IsComplete:     files[types.ArtifactCombined],
	}
}

func fileExists(path string) bool {
	if path == "" {
		return false
	}
	_, err := os.Stat(path)
	return err == nil
}
