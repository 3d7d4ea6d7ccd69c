package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/gorilla/websocket"
	"github.com/joho/godotenv"

	"github.com/acheong08/aiactscan/internal/server"
)

// Config holds all environment configuration
type Config struct {
	// Server
	Port string

	// Requirement table override
	RequirementsPath string

	// Report registry (optional)
	RegistryURL   string
	RegistryToken string

	// Scan history database (optional)
	HistoryPath string

	// OpenAI API key for remediation advice (optional)
	OpenAIAPIKey string
}

func loadConfig() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	config := &Config{
		Port:             getEnv("PORT", "8080"),
		RequirementsPath: getEnv("REQUIREMENTS_PATH", ""),
		RegistryURL:      getEnv("REGISTRY_URL", ""),
		RegistryToken:    getEnv("REGISTRY_TOKEN", ""),
		HistoryPath:      getEnv("HISTORY_PATH", "aiactscan-history.db"),
		OpenAIAPIKey:     getEnv("OPENAI_API_KEY", ""),
	}

	if config.RegistryToken != "" && config.RegistryURL == "" {
		return nil, fmt.Errorf("REGISTRY_URL is required when REGISTRY_TOKEN is set")
	}

	return config, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// WebSocket upgrader
var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		// Allow all origins for demo
		return true
	},
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

// Client represents a connected WebSocket client
type Client struct {
	conn   *websocket.Conn
	config *Config
	send   chan server.Message
	// Track if a scan is running (one at a time)
	scanCtx    context.Context
	scanCancel context.CancelFunc
}

func newClient(conn *websocket.Conn, config *Config) *Client {
	return &Client{
		conn:   conn,
		config: config,
		send:   make(chan server.Message, 256),
	}
}

func (c *Client) SendMessage(msg server.Message) {
	select {
	case c.send <- msg:
	default:
		// Channel full, drop message
		log.Println("Warning: message channel full, dropping message")
	}
}

func (c *Client) SendLog(message, level string) {
	c.SendMessage(server.NewLogMessage(message, level))
}

func (c *Client) SendProgress(stage, message string) {
	c.SendMessage(server.NewProgressMessage(stage, message))
}

func (c *Client) SendError(message string, err error) {
	c.SendMessage(server.NewErrorMessage(message, err))
}

func (c *Client) writePump() {
	ticker := time.NewTicker(30 * time.Second)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.conn.WriteJSON(msg); err != nil {
				log.Printf("Error writing message: %v", err)
				return
			}

		case <-ticker.C:
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (c *Client) readPump() {
	defer func() {
		// Cancel any running scan
		if c.scanCancel != nil {
			c.scanCancel()
		}
		c.conn.Close()
	}()

	for {
		var msg server.Message
		if err := c.conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("WebSocket error: %v", err)
			}
			return
		}

		switch msg.Type {
		case server.TypeScan:
			c.handleScan(msg)
		case server.TypePing:
			// Respond with pong
			c.SendMessage(server.Message{Type: "pong"})
		default:
			c.SendError(fmt.Sprintf("Unknown message type: %s", msg.Type), nil)
		}
	}
}

func (c *Client) handleScan(msg server.Message) {
	// Check if already scanning
	if c.scanCtx != nil && c.scanCtx.Err() == nil {
		c.SendError("Scan already in progress", nil)
		return
	}

	// Parse payload
	payload, err := server.ParseScanPayload(msg)
	if err != nil {
		c.SendError("Failed to parse scan request", err)
		return
	}

	// Create cancellable context for this scan
	c.scanCtx, c.scanCancel = context.WithCancel(context.Background())
	defer func() {
		c.scanCtx = nil
		c.scanCancel = nil
	}()

	// Run scan pipeline
	pipeline := server.NewPipeline(c.config.RequirementsPath,
		c.config.RegistryURL, c.config.RegistryToken,
		c.config.HistoryPath, c.config.OpenAIAPIKey, c)

	if err := pipeline.Run(c.scanCtx, payload); err != nil {
		if c.scanCtx.Err() == context.Canceled {
			c.SendLog("Scan cancelled", "warning")
		} else {
			c.SendError("Scan failed", err)
		}
		return
	}

	c.SendMessage(server.NewCompleteMessage(true, "Scan complete"))
}

func serveWs(config *Config, w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("Failed to upgrade connection: %v", err)
		return
	}

	client := newClient(conn, config)

	// Start goroutines for reading and writing
	go client.writePump()
	go client.readPump()
}

func main() {
	config, err := loadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Health check endpoint
	http.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
	})

	// WebSocket endpoint
	http.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		serveWs(config, w, r)
	})

	port := config.Port
	if port == "" {
		port = "8080"
	}

	log.Printf("Server starting on port %s", port)
	if err := http.ListenAndServe(":"+port, nil); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}
