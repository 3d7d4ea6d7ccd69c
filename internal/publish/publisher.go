// Package publish uploads finished compliance reports to a report registry
// so scans from many repositories can be tracked centrally.
package publish

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/acheong08/aiactscan/internal/report"
	"github.com/acheong08/aiactscan/pkg/models"
)

// LogCallback is an optional function for forwarding log messages (e.g. to WebSocket).
type LogCallback func(message, level string)

// Publisher handles uploading reports to the report registry
type Publisher struct {
	BaseURL    string
	Token      string
	Retries    int
	HTTPClient *http.Client
	logCb      LogCallback
}

// NewPublisher creates a new report publisher
func NewPublisher(baseURL, token string) *Publisher {
	return &Publisher{
		BaseURL: strings.TrimSuffix(baseURL, "/"),
		Token:   token,
		Retries: 3,
		HTTPClient: &http.Client{
			Timeout: 60 * time.Second,
		},
	}
}

// SetLogCallback sets an optional callback for forwarding log messages.
func (p *Publisher) SetLogCallback(cb LogCallback) {
	p.logCb = cb
}

// logMsg prints to console and optionally forwards via the log callback.
func (p *Publisher) logMsg(message, level string) {
	log.Printf("%s", message)
	if p.logCb != nil {
		p.logCb(message, level)
	}
}

// ReportExists checks whether a report with this scan ID is already in the
// registry. Scan IDs are deterministic, so a hit means the same evidence set
// was already published.
func (p *Publisher) ReportExists(ctx context.Context, scanID string) (bool, error) {
	url := fmt.Sprintf("%s/api/reports/%s", p.BaseURL, scanID)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return false, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+p.Token)

	resp, err := p.HTTPClient.Do(req)
	if err != nil {
		return false, fmt.Errorf("failed to check report existence: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		return true, nil
	case http.StatusNotFound:
		return false, nil
	}
	return false, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
}

// Publish uploads a report, skipping the upload when the registry already has
// it. Transient failures are retried with backoff.
func (p *Publisher) Publish(ctx context.Context, r *models.ComplianceReport) error {
	exists, err := p.ReportExists(ctx, r.ScanID)
	if err != nil {
		return fmt.Errorf("failed to check existence: %w", err)
	}
	if exists {
		p.logMsg(fmt.Sprintf("Report %s already published, skipping", r.ScanID), "info")
		return nil
	}

	data, err := report.MarshalJSON(r)
	if err != nil {
		return err
	}

	var lastErr error
	for attempt := 0; attempt <= p.Retries; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(attempt) * time.Second
			p.logMsg(fmt.Sprintf("Retrying publish in %s (attempt %d/%d)", backoff, attempt, p.Retries), "warning")
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return ctx.Err()
			}
		}

		lastErr = p.upload(ctx, r.ScanID, data)
		if lastErr == nil {
			p.logMsg(fmt.Sprintf("Published report %s", r.ScanID), "success")
			return nil
		}
		if !retryable(lastErr) {
			return lastErr
		}
	}
	return fmt.Errorf("failed to publish after %d retries: %w", p.Retries, lastErr)
}

// statusError marks upload failures that carry an HTTP status
type statusError struct {
	code int
	body string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("status %d: %s", e.code, e.body)
}

func retryable(err error) bool {
	if se, ok := err.(*statusError); ok {
		return se.code >= 500 || se.code == http.StatusTooManyRequests
	}
	// Network errors are worth retrying
	return true
}

func (p *Publisher) upload(ctx context.Context, scanID string, data []byte) error {
	url := fmt.Sprintf("%s/api/reports/%s", p.BaseURL, scanID)

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, url, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+p.Token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to upload report: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusOK || resp.StatusCode == http.StatusCreated {
		return nil
	}
	// Already published concurrently - not an error
	if resp.StatusCode == http.StatusConflict {
		return nil
	}

	body, _ := io.ReadAll(resp.Body)
	return &statusError{code: resp.StatusCode, body: string(body)}
}
