// Package lecture loads the combined transcript artifact and renders it into
// the text block supplied to the language model alongside a question.
package lecture

import (
	"encoding/json"
	"fmt"
	"os"
)

// Segment is one entry of the combined transcript: the slide visible at a
// timestamp and the speech aligned with it. Both text fields are optional in
// the artifact; the pipeline produces them, this code only reads them.
type Segment struct {
	Timestamp  float64 `json:"timestamp"`
	SlideText  string  `json:"slide_text,omitempty"`
	SpeechText string  `json:"speech_text,omitempty"`
	Frame      string  `json:"frame,omitempty"`
}

// Load parses the combined transcript artifact. Order is preserved as written
// by the combine step - presentation order, not re-sorted here.
func Load(path string) ([]Segment, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read lecture data: %v", err)
	}

	var segments []Segment
	if err := json.Unmarshal(data, &segments); err != nil {
		return nil, fmt.Errorf("failed to parse lecture data: %v", err)
	}
	return segments, nil
}
