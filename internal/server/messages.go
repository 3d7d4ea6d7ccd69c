package server

import (
	"encoding/json"
	"fmt"

	"github.com/acheong08/aiactscan/internal/advisor"
	"github.com/acheong08/aiactscan/pkg/models"
)

// MessageType represents the type of WebSocket message
type MessageType string

const (
	// Client -> Server
	TypeScan MessageType = "scan" // Client requests a compliance scan
	TypePing MessageType = "ping" // Keep-alive

	// Server -> Client
	TypeProgress   MessageType = "progress"   // Pipeline stage updates
	TypeLog        MessageType = "log"        // Log messages for terminal
	TypeComponents MessageType = "components" // Detected component set
	TypeReport     MessageType = "report"     // Final compliance report
	TypeAdvice     MessageType = "advice"     // AI remediation advice
	TypeComplete   MessageType = "complete"   // Scan complete
	TypeError      MessageType = "error"      // Error message
)

// Message is the base WebSocket message structure
type Message struct {
	Type    MessageType     `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// ScanPayload sent by client to start a scan
type ScanPayload struct {
	RepoPath            string   `json:"repo_path"`
	DeclaredIntendedUse string   `json:"declared_intended_use,omitempty"`
	ExcludePatterns     []string `json:"exclude_patterns,omitempty"`
	ConfidenceFloor     float64  `json:"confidence_floor,omitempty"`
	ComplianceThreshold float64  `json:"compliance_threshold,omitempty"`
	Advise              bool     `json:"advise,omitempty"` // Request AI remediation advice
}

// ProgressPayload for stage updates
type ProgressPayload struct {
	Stage   string `json:"stage"`   // "collect", "classify", "categorize", "evaluate", "score"
	Message string `json:"message"` // Human-readable status
}

// LogPayload for terminal output
type LogPayload struct {
	Message string `json:"message"`
	Level   string `json:"level,omitempty"` // "info", "success", "warning", "error"
}

// ComponentsPayload carries the detected component set for visualization
type ComponentsPayload struct {
	Components []models.DetectedComponent `json:"components"`
}

// ReportPayload carries the final compliance report
type ReportPayload struct {
	Report *models.ComplianceReport `json:"report"`
}

// AdvicePayload carries AI remediation advice for the report's gaps
type AdvicePayload struct {
	Advice *advisor.Advice `json:"advice"`
}

// CompletePayload sent when the scan is done
type CompletePayload struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// ErrorPayload for error messages
type ErrorPayload struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

// Helper functions to create messages

func NewProgressMessage(stage, message string) Message {
	payload := ProgressPayload{
		Stage:   stage,
		Message: message,
	}
	payloadBytes, _ := json.Marshal(payload)
	return Message{Type: TypeProgress, Payload: payloadBytes}
}

func NewLogMessage(message, level string) Message {
	payload := LogPayload{
		Message: message,
		Level:   level,
	}
	payloadBytes, _ := json.Marshal(payload)
	return Message{Type: TypeLog, Payload: payloadBytes}
}

func NewComponentsMessage(components []models.DetectedComponent) Message {
	payload := ComponentsPayload{Components: components}
	payloadBytes, _ := json.Marshal(payload)
	return Message{Type: TypeComponents, Payload: payloadBytes}
}

func NewReportMessage(report *models.ComplianceReport) Message {
	payload := ReportPayload{Report: report}
	payloadBytes, _ := json.Marshal(payload)
	return Message{Type: TypeReport, Payload: payloadBytes}
}

func NewAdviceMessage(advice *advisor.Advice) Message {
	payload := AdvicePayload{Advice: advice}
	payloadBytes, _ := json.Marshal(payload)
	return Message{Type: TypeAdvice, Payload: payloadBytes}
}

func NewCompleteMessage(success bool, message string) Message {
	payload := CompletePayload{
		Success: success,
		Message: message,
	}
	payloadBytes, _ := json.Marshal(payload)
	return Message{Type: TypeComplete, Payload: payloadBytes}
}

func NewErrorMessage(message string, err error) Message {
	errMsg := message
	if err != nil {
		errMsg = fmt.Sprintf("%s: %v", message, err)
	}
	payload := ErrorPayload{Message: errMsg}
	payloadBytes, _ := json.Marshal(payload)
	return Message{Type: TypeError, Payload: payloadBytes}
}

// ParseScanPayload extracts the scan payload from a message
func ParseScanPayload(msg Message) (*ScanPayload, error) {
	var payload ScanPayload
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		return nil, fmt.Errorf("failed to parse scan payload: %w", err)
	}
	return &payload, nil
}
