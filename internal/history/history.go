// Package history persists scan reports in a local SQLite database so
// consecutive scans of the same repository can be compared.
package history

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/acheong08/aiactscan/pkg/models"
)

// ScanRecord is a stored scan. The full report is kept as a JSON blob; the
// indexed columns exist only for listing and diffing.
type ScanRecord struct {
	ID                uint      `gorm:"primaryKey"`
	ScanID            string    `gorm:"uniqueIndex;size:36"`
	RepositoryPath    string    `gorm:"index"`
	ScanTimestamp     time.Time `gorm:"index"`
	ComplianceScore   float64
	Compliant         bool
	RiskLevel         string
	CriticalGapsCount int
	ReportJSON        []byte
	CreatedAt         time.Time
}

// Store is a scan history backed by SQLite
type Store struct {
	db *gorm.DB
}

// Open opens (creating if needed) the history database at path
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create history dir: %w", err)
		}
	}

	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open history database: %w", err)
	}

	if err := db.AutoMigrate(&ScanRecord{}); err != nil {
		return nil, fmt.Errorf("failed to migrate history schema: %w", err)
	}

	return &Store{db: db}, nil
}

// Close releases the underlying database connection
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return fmt.Errorf("failed to get sql.DB: %w", err)
	}
	return sqlDB.Close()
}

// Save stores a report. Saving the same scan ID twice is a no-op because scan
// IDs are deterministic over the evidence set.
func (s *Store) Save(r *models.ComplianceReport) error {
	data, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("failed to marshal report: %w", err)
	}

	record := ScanRecord{
		ScanID:            r.ScanID,
		RepositoryPath:    r.RepositoryPath,
		ScanTimestamp:     r.ScanTimestamp,
		ComplianceScore:   r.ComplianceScore,
		Compliant:         r.Compliant,
		RiskLevel:         string(r.RiskLevel),
		CriticalGapsCount: r.CriticalGapsCount,
		ReportJSON:        data,
	}

	result := s.db.Where("scan_id = ?", r.ScanID).FirstOrCreate(&record)
	if result.Error != nil {
		return fmt.Errorf("failed to save scan: %w", result.Error)
	}
	return nil
}

// List returns stored scans for a repository, newest first
func (s *Store) List(repoPath string, limit int) ([]ScanRecord, error) {
	var records []ScanRecord
	q := s.db.Where("repository_path = ?", repoPath).Order("scan_timestamp DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&records).Error; err != nil {
		return nil, fmt.Errorf("failed to list scans: %w", err)
	}
	return records, nil
}

// Latest returns the most recent stored report for a repository, or nil when
// the repository has no history yet
func (s *Store) Latest(repoPath string) (*models.ComplianceReport, error) {
	var record ScanRecord
	err := s.db.Where("repository_path = ?", repoPath).
		Order("scan_timestamp DESC").First(&record).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load latest scan: %w", err)
	}
	return record.Report()
}

// Report unmarshals the stored report blob
func (r *ScanRecord) Report() (*models.ComplianceReport, error) {
	var report models.ComplianceReport
	if err := json.Unmarshal(r.ReportJSON, &report); err != nil {
		return nil, fmt.Errorf("failed to unmarshal stored report: %w", err)
	}
	return &report, nil
}

// Diff describes how compliance changed between two scans
type Diff struct {
	ScoreDelta     float64  `json:"score_delta"`
	ResolvedGaps   []string `json:"resolved_gaps"`   // Article IDs no longer gaps
	IntroducedGaps []string `json:"introduced_gaps"` // Article IDs newly gaps
}

// Improved reports whether the diff represents progress
func (d *Diff) Improved() bool {
	return d.ScoreDelta > 0 || (len(d.IntroducedGaps) == 0 && len(d.ResolvedGaps) > 0)
}

// Compare computes the gap diff between a previous and a current report
func Compare(previous, current *models.ComplianceReport) *Diff {
	prevGaps := gapSet(previous)
	currGaps := gapSet(current)

	diff := &Diff{ScoreDelta: current.ComplianceScore - previous.ComplianceScore}
	for _, v := range previous.Verdicts {
		if prevGaps[v.ArticleID] && !currGaps[v.ArticleID] {
			diff.ResolvedGaps = append(diff.ResolvedGaps, v.ArticleID)
		}
	}
	for _, v := range current.Verdicts {
		if currGaps[v.ArticleID] && !prevGaps[v.ArticleID] {
			diff.IntroducedGaps = append(diff.IntroducedGaps, v.ArticleID)
		}
	}
	return diff
}

func gapSet(r *models.ComplianceReport) map[string]bool {
	set := make(map[string]bool)
	for _, v := range r.Gaps() {
		set[v.ArticleID] = true
	}
	return set
}
