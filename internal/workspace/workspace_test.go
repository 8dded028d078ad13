package workspace

import (
	"os"
	"path/filepath"
	"testing"
)

func TestEnsureDirs(t *testing.T) {
	ws := New(t.TempDir())

	if err := ws.EnsureDirs(); err != nil {
		t.Fatalf("EnsureDirs() error: %v", err)
	}

	for _, dir := range []string{ws.InputDir(), ws.OutputDir(), ws.FramesPath(), ws.HistoryDir()} {
		info, err := os.Stat(dir)
		if err != nil {
			t.Errorf("expected directory %s to exist: %v", dir, err)
			continue
		}
		if !info.IsDir() {
			t.Errorf("%s is not a directory", dir)
		}
	}
}

func TestResetWipesArtifacts(t *testing.T) {
	ws := New(t.TempDir())
	if err := ws.EnsureDirs(); err != nil {
		t.Fatal(err)
	}

	// Simulate a previous run: video A plus a full artifact set
	if err := os.WriteFile(ws.VideoPath(), []byte("video A"), 0644); err != nil {
		t.Fatal(err)
	}
	for _, name := range []string{AudioFile, FramesFile, TranscriptFile, OCRFile, CombinedFile} {
		if err := os.WriteFile(filepath.Join(ws.OutputDir(), name), []byte("{}"), 0644); err != nil {
			t.Fatal(err)
		}
	}
	if err := os.WriteFile(filepath.Join(ws.FramesPath(), "frame_0001.jpg"), []byte("jpg"), 0644); err != nil {
		t.Fatal(err)
	}

	if err := ws.Reset(); err != nil {
		t.Fatalf("Reset() error: %v", err)
	}

	// New upload: video B
	if err := os.WriteFile(ws.VideoPath(), []byte("video B"), 0644); err != nil {
		t.Fatal(err)
	}

	entries, err := os.ReadDir(ws.InputDir())
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 || entries[0].Name() != CanonicalVideoName {
		t.Errorf("input dir should hold exactly the canonical video, got %v", entries)
	}

	content, err := os.ReadFile(ws.VideoPath())
	if err != nil {
		t.Fatal(err)
	}
	if string(content) != "video B" {
		t.Errorf("canonical video content = %q, want %q", content, "video B")
	}

	outEntries, err := os.ReadDir(ws.OutputDir())
	if err != nil {
		t.Fatal(err)
	}
	for _, e := range outEntries {
		if e.Name() != FramesDir {
			t.Errorf("output dir should contain only the empty frames dir, found %s", e.Name())
		}
	}
	frameEntries, err := os.ReadDir(ws.FramesPath())
	if err != nil {
		t.Fatal(err)
	}
	if len(frameEntries) != 0 {
		t.Errorf("frames dir should be empty after reset, found %d entries", len(frameEntries))
	}
}

func TestVideoInfo(t *testing.T) {
	ws := New(t.TempDir())
	if err := ws.EnsureDirs(); err != nil {
		t.Fatal(err)
	}

	if info := ws.Video(); info.Exists {
		t.Errorf("Video().Exists = true with no video stored")
	}

	if err := os.WriteFile(ws.VideoPath(), []byte("12345"), 0644); err != nil {
		t.Fatal(err)
	}

	info := ws.Video()
	if !info.Exists {
		t.Fatalf("Video().Exists = false after write")
	}
	if info.Size != 5 {
		t.Errorf("Video().Size = %d, want 5", info.Size)
	}
	if info.Path != ws.VideoPath() {
		t.Errorf("Video().Path = %s, want %s", info.Path, ws.VideoPath())
	}
}

func TestArtifactPaths(t *testing.T) {
	ws := New("/data")

	tests := []struct {
		key  string
		file string
	}{
		{"audio", AudioFile},
		{"frames", FramesFile},
		{"transcript", TranscriptFile},
		{"ocr", OCRFile},
		{"combined", CombinedFile},
	}
	for _, tt := range tests {
		want := filepath.Join("/data", "output", tt.file)
		if got := ws.ArtifactPath(tt.key); got != want {
			t.Errorf("ArtifactPath(%q) = %s, want %s", tt.key, got, want)
		}
	}

	if got := ws.ArtifactPath("bogus"); got != "" {
		t.Errorf("ArtifactPath(bogus) = %q, want empty", got)
	}
}
