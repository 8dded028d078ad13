package main

import (
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/websocket/v2"
	"gopkg.in/yaml.v3"

	"github.com/codebuildervaibhav/lecture-assistant/internal/handlers"
	"github.com/codebuildervaibhav/lecture-assistant/internal/ollama"
	"github.com/codebuildervaibhav/lecture-assistant/internal/pipeline"
	"github.com/codebuildervaibhav/lecture-assistant/internal/storage"
	"github.com/codebuildervaibhav/lecture-assistant/internal/workspace"
)

// Config represents the application configuration
type Config struct {
	Server struct {
		Port int    `yaml:"port"`
		Host string `yaml:"host"`
	} `yaml:"server"`

	Ollama struct {
		URL     string         `yaml:"url"`
		Model   string         `yaml:"model"`
		Options ollama.Options `yaml:"options"`
	} `yaml:"ollama"`

	Pipeline struct {
		Interpreter string `yaml:"interpreter"`
		ScriptsDir  string `yaml:"scripts_dir"`
	} `yaml:"pipeline"`

	Storage struct {
		DataDir string `yaml:"data_dir"`
	} `yaml:"storage"`

	Limits struct {
		MaxUploadSizeMB int `yaml:"max_upload_size_mb"`
	} `yaml:"limits"`
}

func main() {
	// Load configuration
	config, err := loadConfig("config/config.yaml")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Custom logger setup
	logBuffer := &LogBuffer{
		lines: make([]string, 0, 1000),
	}
	multiWriter := io.MultiWriter(os.Stdout, logBuffer)
	log.SetOutput(multiWriter)

	// Initialize components
	log.Println("Initializing components...")

	// Workspace: all input/output/history paths hang off the data directory
	ws := workspace.New(config.Storage.DataDir)
	if err := ws.EnsureDirs(); err != nil {
		log.Fatalf("Failed to prepare data directories: %v", err)
	}

	// Pipeline run journal (optional - the service works without it)
	runLog, err := storage.NewRunLog(ws.RunLogDB())
	if err != nil {
		log.Printf("WARNING: Run journal not available: %v", err)
		runLog = nil
	} else {
		defer runLog.Close()
	}

	// Chat history store
	sessions := storage.NewSessionStore(ws.HistoryFile())

	// Ollama client
	llm := ollama.New(config.Ollama.URL, config.Ollama.Model, config.Ollama.Options)

	// Pipeline runner
	runner := pipeline.NewRunner(ws, config.Pipeline.Interpreter, config.Pipeline.ScriptsDir, runLog)

	// Create Fiber app
	app := fiber.New(fiber.Config{
		BodyLimit: config.Limits.MaxUploadSizeMB * 1024 * 1024,
	})

	// Middleware
	app.Use(recover.New())
	app.Use(logger.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowHeaders: "Origin, Content-Type, Accept",
	}))

	// Initialize handlers
	uploadHandler := handlers.NewUploadHandler(ws, config.Limits.MaxUploadSizeMB)
	processHandler := handlers.NewProcessHandler(ws, runner, runLog)
	chatHandler := handlers.NewChatHandler(ws, sessions, llm)
	streamHandler := handlers.NewStreamHandler(ws, sessions, llm)

	// Routes
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "healthy",
			"version": "1.0.0",
		})
	})

	app.Post("/upload", uploadHandler.Handle)
	app.Get("/upload/check", uploadHandler.Check)
	app.Delete("/upload/current", uploadHandler.DeleteCurrent)

	app.Post("/process/start", processHandler.Start)
	app.Get("/process/status", processHandler.Status)
	app.Get("/process/data", processHandler.Data)
	app.Get("/process/runs", processHandler.Runs)

	app.Post("/chat", chatHandler.Chat)
	app.Get("/chat/history", chatHandler.History)
	app.Get("/chat/history/:id", chatHandler.HistoryGet)
	app.Delete("/chat/history/:id", chatHandler.HistoryDelete)
	app.Delete("/chat/history", chatHandler.HistoryClear)
	app.Get("/chat/summary", chatHandler.Summary)
	app.Get("/chat/status", chatHandler.Status)

	// WebSocket route
	app.Get("/ws/chat", websocket.New(streamHandler.Handle))

	// Pipeline artifacts (frames, combined data) for the browser UI
	app.Static("/output", ws.OutputDir())

	// Get server logs
	app.Get("/logs", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"logs": logBuffer.GetLogs(),
		})
	})

	// Start server
	addr := fmt.Sprintf("%s:%d", config.Server.Host, config.Server.Port)
	log.Printf("🚀 Server starting on %s", addr)
	log.Println("📝 Endpoints:")
	log.Println("   POST   /upload          - Upload lecture video")
	log.Println("   GET    /upload/check    - Check current video")
	log.Println("   DELETE /upload/current  - Remove video and artifacts")
	log.Println("   POST   /process/start   - Start processing pipeline")
	log.Println("   GET    /process/status  - Pipeline progress")
	log.Println("   GET    /process/data    - Combined transcript")
	log.Println("   GET    /process/runs    - Pipeline run journal")
	log.Println("   POST   /chat            - Ask about the lecture")
	log.Println("   GET    /chat/history    - Chat sessions")
	log.Println("   GET    /chat/summary    - Lecture summary")
	log.Println("   GET    /ws/chat         - Streaming chat (WebSocket)")
	log.Println("   GET    /health          - Health check")

	// Graceful shutdown
	go func() {
		sigint := make(chan os.Signal, 1)
		signal.Notify(sigint, os.Interrupt, syscall.SIGTERM)
		<-sigint

		log.Println("Shutting down gracefully...")
		app.Shutdown()
	}()

	if err := app.Listen(addr); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}

// LogBuffer captures logs in memory
type LogBuffer struct {
	lines []string
	mu    sync.Mutex
}

func (lb *LogBuffer) Write(p []byte) (n int, err error) {
	lb.mu.Lock()
	defer lb.mu.Unlock()

	lb.lines = append(lb.lines, string(p))

	// Keep last 1000 lines
	if len(lb.lines) > 1000 {
		lb.lines = lb.lines[len(lb.lines)-1000:]
	}

	return len(p), nil
}

func (lb *LogBuffer) GetLogs() []string {
	lb.mu.Lock()
	defer lb.mu.Unlock()

	logs := make([]string, len(lb.lines))
	copy(logs, lb.lines)
	return logs
}

// loadConfig loads configuration from YAML file
func loadConfig(path string) (*Config, error) {
	file, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var config Config
	if err := yaml.Unmarshal(file, &config); err != nil {
		return nil, err
	}

	if config.Limits.MaxUploadSizeMB <= 0 {
		config.Limits.MaxUploadSizeMB = 500
	}

	return &config, nil
}
