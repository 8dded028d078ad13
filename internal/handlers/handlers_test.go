package handlers

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"os"
	"path/filepath"
	"testing"

	"github.com/gofiber/fiber/v2"

	"github.com/codebuildervaibhav/lecture-assistant/internal/ollama"
	"github.com/codebuildervaibhav/lecture-assistant/internal/pipeline"
	"github.com/codebuildervaibhav/lecture-assistant/internal/storage"
	"github.com/codebuildervaibhav/lecture-assistant/internal/workspace"
)

func newTestApp(t *testing.T) (*fiber.App, *workspace.Workspace) {
	t.Helper()

	ws := workspace.New(t.TempDir())
	if err := ws.EnsureDirs(); err != nil {
		t.Fatal(err)
	}

	store := storage.NewSessionStore(ws.HistoryFile())
	llm := ollama.New("http://127.0.0.1:1", "llama2", ollama.Options{})
	runner := pipeline.NewRunner(ws, "sh", t.TempDir(), nil)

	uploadHandler := NewUploadHandler(ws, 500)
	processHandler := NewProcessHandler(ws, runner, nil)
	chatHandler := NewChatHandler(ws, store, llm)

	app := fiber.New()
	app.Post("/upload", uploadHandler.Handle)
	app.Get("/upload/check", uploadHandler.Check)
	app.Delete("/upload/current", uploadHandler.DeleteCurrent)
	app.Post("/process/start", processHandler.Start)
	app.Get("/process/status", processHandler.Status)
	app.Get("/process/data", processHandler.Data)
	app.Get("/process/runs", processHandler.Runs)
	app.Post("/chat", chatHandler.Chat)
	app.Get("/chat/history", chatHandler.History)

	return app, ws
}

func multipartVideo(t *testing.T, filename, contentType string, content []byte) (*bytes.Buffer, string) {
	t.Helper()

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	header := textproto.MIMEHeader{}
	header.Set("Content-Disposition", `form-data; name="video"; filename="`+filename+`"`)
	header.Set("Content-Type", contentType)
	part, err := w.CreatePart(header)
	if err != nil {
		t.Fatal(err)
	}
	part.Write(content)
	w.Close()

	return &buf, w.FormDataContentType()
}

func decodeBody(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatal(err)
	}
	var body map[string]any
	if err := json.Unmarshal(data, &body); err != nil {
		t.Fatalf("invalid JSON body %q: %v", data, err)
	}
	return body
}

func TestUploadRejectsNonVideo(t *testing.T) {
	app, ws := newTestApp(t)

	buf, contentType := multipartVideo(t, "notes.txt", "text/plain", []byte("not a video"))
	req := httptest.NewRequest("POST", "/upload", buf)
	req.Header.Set("Content-Type", contentType)

	resp, err := app.Test(req)
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != 400 {
		t.Errorf("status = %d, want 400", resp.StatusCode)
	}
	if ws.Video().Exists {
		t.Error("rejected upload left a file at the canonical path")
	}
}

func TestUploadAcceptsVideoAndResets(t *testing.T) {
	app, ws := newTestApp(t)

	// A leftover artifact from a previous run
	stale := filepath.Join(ws.OutputDir(), workspace.CombinedFile)
	if err := os.WriteFile(stale, []byte("[]"), 0644); err != nil {
		t.Fatal(err)
	}

	buf, contentType := multipartVideo(t, "lecture-week3.mp4", "video/mp4", []byte("video bytes"))
	req := httptest.NewRequest("POST", "/upload", buf)
	req.Header.Set("Content-Type", contentType)

	resp, err := app.Test(req)
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != 200 {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}

	body := decodeBody(t, resp)
	if body["success"] != true {
		t.Errorf("success = %v", body["success"])
	}
	if body["filename"] != workspace.CanonicalVideoName {
		t.Errorf("filename = %v, want %s", body["filename"], workspace.CanonicalVideoName)
	}

	if !ws.Video().Exists {
		t.Fatal("video missing after accepted upload")
	}
	if _, err := os.Stat(stale); !os.IsNotExist(err) {
		t.Error("stale artifact survived the upload reset")
	}
}

func TestUploadAcceptsByContentType(t *testing.T) {
	app, _ := newTestApp(t)

	buf, contentType := multipartVideo(t, "capture.bin", "video/x-matroska", []byte("video bytes"))
	req := httptest.NewRequest("POST", "/upload", buf)
	req.Header.Set("Content-Type", contentType)

	resp, err := app.Test(req)
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != 200 {
		t.Errorf("status = %d, want 200 for declared video content type", resp.StatusCode)
	}
}

func TestUploadCheck(t *testing.T) {
	app, ws := newTestApp(t)

	resp, err := app.Test(httptest.NewRequest("GET", "/upload/check", nil))
	if err != nil {
		t.Fatal(err)
	}
	body := decodeBody(t, resp)
	if body["exists"] != false || body["path"] != nil {
		t.Errorf("check with no video = %v", body)
	}

	if err := os.WriteFile(ws.VideoPath(), []byte("12345"), 0644); err != nil {
		t.Fatal(err)
	}

	resp, err = app.Test(httptest.NewRequest("GET", "/upload/check", nil))
	if err != nil {
		t.Fatal(err)
	}
	body = decodeBody(t, resp)
	if body["exists"] != true {
		t.Errorf("exists = %v, want true", body["exists"])
	}
	if body["size"].(float64) != 5 {
		t.Errorf("size = %v, want 5", body["size"])
	}
}

func TestProcessStartWithoutVideo(t *testing.T) {
	app, _ := newTestApp(t)

	resp, err := app.Test(httptest.NewRequest("POST", "/process/start", nil))
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != 400 {
		t.Errorf("status = %d, want 400", resp.StatusCode)
	}
}

func TestProcessStatusRoute(t *testing.T) {
	app, ws := newTestApp(t)

	if err := os.WriteFile(filepath.Join(ws.OutputDir(), workspace.CombinedFile), []byte("[]"), 0644); err != nil {
		t.Fatal(err)
	}

	resp, err := app.Test(httptest.NewRequest("GET", "/process/status", nil))
	if err != nil {
		t.Fatal(err)
	}
	body := decodeBody(t, resp)
	if body["isComplete"] != true {
		t.Errorf("isComplete = %v, want true with combined artifact", body["isComplete"])
	}
	if body["completedSteps"].(float64) != 1 {
		t.Errorf("completedSteps = %v, want 1", body["completedSteps"])
	}
}

func TestProcessDataNotFound(t *testing.T) {
	app, _ := newTestApp(t)

	resp, err := app.Test(httptest.NewRequest("GET", "/process/data", nil))
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != 404 {
		t.Errorf("status = %d, want 404", resp.StatusCode)
	}
}

func TestProcessRunsEmptyWithoutJournal(t *testing.T) {
	app, _ := newTestApp(t)

	resp, err := app.Test(httptest.NewRequest("GET", "/process/runs", nil))
	if err != nil {
		t.Fatal(err)
	}
	body := decodeBody(t, resp)
	if body["success"] != true {
		t.Errorf("success = %v", body["success"])
	}
	if runs, ok := body["runs"].([]any); !ok || len(runs) != 0 {
		t.Errorf("runs = %v, want empty array", body["runs"])
	}
}

func TestChatRejectsEmptyQuestion(t *testing.T) {
	app, _ := newTestApp(t)

	payload := bytes.NewBufferString(`{"question": "   "}`)
	req := httptest.NewRequest("POST", "/chat", payload)
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != 400 {
		t.Errorf("status = %d, want 400", resp.StatusCode)
	}
}

func TestChatWithoutTranscript(t *testing.T) {
	app, _ := newTestApp(t)

	payload := bytes.NewBufferString(`{"question": "What is BFS?"}`)
	req := httptest.NewRequest("POST", "/chat", payload)
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != 404 {
		t.Errorf("status = %d, want 404 before processing", resp.StatusCode)
	}
}

func TestChatHistoryEmpty(t *testing.T) {
	app, _ := newTestApp(t)

	resp, err := app.Test(httptest.NewRequest("GET", "/chat/history", nil))
	if err != nil {
		t.Fatal(err)
	}
	body := decodeBody(t, resp)
	if body["success"] != true {
		t.Errorf("success = %v", body["success"])
	}
	if sessions, ok := body["sessions"].([]any); !ok || len(sessions) != 0 {
		t.Errorf("sessions = %v, want empty array", body["sessions"])
	}
}

func TestValidateVideoFormat(t *testing.T) {
	tests := []struct {
		filename    string
		contentType string
		want        bool
	}{
		{"lecture.mp4", "video/mp4", true},
		{"lecture.MP4", "application/octet-stream", true},
		{"lecture.mkv", "", true},
		{"lecture.webm", "", true},
		{"lecture.wmv", "", true},
		{"capture.bin", "video/x-matroska", true},
		{"notes.txt", "text/plain", false},
		{"archive.zip", "application/zip", false},
		{"song.mp3", "audio/mpeg", false},
	}

	for _, tt := range tests {
		if got := ValidateVideoFormat(tt.filename, tt.contentType); got != tt.want {
			t.Errorf("ValidateVideoFormat(%q, %q) = %v, want %v", tt.filename, tt.contentType, got, tt.want)
		}
	}
}
