// Package classifier maps evidence items to detected components using a
// closed set of signature-based recognizers. Items are classified
// independently, so evaluation runs across a bounded worker pool; the merge
// step (max confidence per component) is associative and commutative, which
// makes the result independent of completion order.
package classifier

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/acheong08/aiactscan/internal/collector"
	"github.com/acheong08/aiactscan/pkg/models"
)

// DefaultConfidenceFloor discards weak detections to bound false-positive gap
// reporting. Tunable via scan configuration.
const DefaultConfidenceFloor = 0.2

// DefaultConcurrency bounds the classification worker pool
const DefaultConcurrency = 8

// Result is the classifier's output for one scan
type Result struct {
	Components []models.DetectedComponent
	Signals    []models.DomainSignal
	Notes      []models.ClassificationNote
	// Incomplete is set when classification was cancelled before every item
	// was evaluated. The partial component set is still valid evidence.
	Incomplete bool
}

// Classifier applies the recognizer set to collected evidence
type Classifier struct {
	recognizers []Recognizer
	vocabulary  []string // Domain keywords scanned for on behalf of the risk stage
	floor       float64
	concurrency int
}

// New creates a classifier with the default recognizer set. The vocabulary is
// the risk categorizer's keyword list; hits are surfaced as domain signals
// without any tier judgment here.
func New(floor float64, concurrency int, vocabulary []string) *Classifier {
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}
	return &Classifier{
		recognizers: DefaultRecognizers(),
		vocabulary:  vocabulary,
		floor:       floor,
		concurrency: concurrency,
	}
}

// Classify evaluates every evidence item and merges detections into the
// deduplicated component set. Cancellation is cooperative per item: work
// already done is kept and Incomplete is set.
func (c *Classifier) Classify(ctx context.Context, files []collector.File) *Result {
	type itemResult struct {
		detections []Detection
		signals    []string
		path       string
	}

	resultChan := make(chan itemResult, len(files))
	semaphore := make(chan struct{}, c.concurrency)
	var wg sync.WaitGroup
	var cancelled bool
	var cancelledMu sync.Mutex

	for _, f := range files {
		wg.Add(1)
		go func(f collector.File) {
			defer wg.Done()

			select {
			case semaphore <- struct{}{}:
			case <-ctx.Done():
				cancelledMu.Lock()
				cancelled = true
				cancelledMu.Unlock()
				return
			}
			defer func() { <-semaphore }()

			var detections []Detection
			for _, rec := range c.recognizers {
				detections = append(detections, rec.Evaluate(f)...)
			}
			resultChan <- itemResult{
				detections: detections,
				signals:    c.scanVocabulary(f),
				path:       f.Path,
			}
		}(f)
	}

	wg.Wait()
	close(resultChan)

	// Merge: one component per (kind, name), max confidence wins, lowest path
	// breaks ties. Repeated weak signals never sum and ties never depend on
	// completion order, so classifying twice yields the same value.
	merged := make(map[string]*models.DetectedComponent)
	recognizerPaths := make(map[string]map[string]string) // component ID -> recognizer -> first path
	signalPaths := make(map[string]string)                // keyword -> first evidence path

	for item := range resultChan {
		for _, kw := range item.signals {
			if prev, ok := signalPaths[kw]; !ok || item.path < prev {
				signalPaths[kw] = item.path
			}
		}
		for _, d := range item.detections {
			if d.Confidence < c.floor {
				continue
			}
			id := models.ComponentID(d.Kind, d.Name)

			if paths, ok := recognizerPaths[id]; !ok {
				recognizerPaths[id] = map[string]string{d.Recognizer: item.path}
			} else if prev, seen := paths[d.Recognizer]; !seen || item.path < prev {
				paths[d.Recognizer] = item.path
			}

			existing, ok := merged[id]
			if !ok {
				merged[id] = &models.DetectedComponent{
					ID:           id,
					Kind:         d.Kind,
					Name:         d.Name,
					EvidencePath: item.path,
					Confidence:   d.Confidence,
					GPAI:         d.GPAI,
					Ecosystem:    d.Ecosystem,
				}
				continue
			}

			switch {
			case d.Confidence > existing.Confidence:
				existing.Confidence = d.Confidence
				existing.EvidencePath = item.path
			case d.Confidence == existing.Confidence && item.path < existing.EvidencePath:
				existing.EvidencePath = item.path
			}
			if d.GPAI {
				existing.GPAI = true
			}
		}
	}

	// Notes for components matched by more than one recognizer, built from the
	// merged state so their content is order-independent too
	var notes []models.ClassificationNote
	for id, paths := range recognizerPaths {
		if len(paths) < 2 {
			continue
		}
		names := make([]string, 0, len(paths))
		for name := range paths {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names[1:] {
			notes = append(notes, models.ClassificationNote{
				EvidencePath: paths[name],
				Kind:         merged[id].Kind,
				Detail: fmt.Sprintf("%s also matched by %s, resolved by max confidence",
					id, name),
			})
		}
	}

	components := make([]models.DetectedComponent, 0, len(merged))
	for _, comp := range merged {
		components = append(components, *comp)
	}
	// Stable output order for deterministic reports
	sort.Slice(components, func(i, j int) bool { return components[i].ID < components[j].ID })
	sort.Slice(notes, func(i, j int) bool {
		if notes[i].EvidencePath != notes[j].EvidencePath {
			return notes[i].EvidencePath < notes[j].EvidencePath
		}
		return notes[i].Detail < notes[j].Detail
	})

	signals := make([]models.DomainSignal, 0, len(signalPaths))
	for kw, p := range signalPaths {
		signals = append(signals, models.DomainSignal{Keyword: kw, EvidencePath: p})
	}
	sort.Slice(signals, func(i, j int) bool { return signals[i].Keyword < signals[j].Keyword })

	cancelledMu.Lock()
	incomplete := cancelled
	cancelledMu.Unlock()

	return &Result{
		Components: components,
		Signals:    signals,
		Notes:      notes,
		Incomplete: incomplete,
	}
}

// scanVocabulary finds domain vocabulary keywords in text and manifest
// evidence. Matching is plain lowercase substring search, the same rule the
// risk categorizer applies to declared intended use.
func (c *Classifier) scanVocabulary(f collector.File) []string {
	if f.Kind == models.EvidenceRaw || len(c.vocabulary) == 0 {
		return nil
	}
	text := strings.ToLower(string(f.Content))
	var hits []string
	for _, kw := range c.vocabulary {
		if strings.Contains(text, kw) {
			hits = append(hits, kw)
		}
	}
	return hits
}
