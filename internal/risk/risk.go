// Package risk maps the classified component set to an EU AI Act risk tier.
// Matchers run in regulation precedence: Article 5 prohibited practices, then
// Annex III high-risk domains, then Article 50 transparency triggers. The
// highest-severity tier with any match wins; within the winning tier every
// matched category is recorded. No match at any tier means Minimal.
package risk

import (
	"errors"
	"sort"
	"strings"

	"github.com/acheong08/aiactscan/pkg/models"
)

// ErrIndeterminate signals that categorization could not reach a decision,
// typically contradictory self-declarations in the intended-use text. The
// rule engine turns this into Unknown verdicts rather than defaulting to a
// tier that would under- or overstate risk.
var ErrIndeterminate = errors.New("risk tier indeterminate")

// CategoryMatcher binds one category to its keyword vocabulary
type CategoryMatcher struct {
	Category models.AnnexIIICategory
	Keywords []string
}

// Article 5 prohibited practices
var prohibitedMatchers = []CategoryMatcher{
	{
		Category: models.CategoryProhibitedPractice,
		Keywords: []string{
			"social scoring", "social credit",
			"subliminal technique", "subliminal manipulation",
			"behavioral manipulation", "manipulative technique",
			"exploit vulnerabilities of",
			"real-time remote biometric", "realtime remote biometric",
			"untargeted scraping of facial images", "facial image scraping",
			"predictive policing",
			"emotion recognition in the workplace",
		},
	},
}

// Annex III high-risk domains, keyword lists per category. Short generic
// words are avoided so "opencv" or "cron job" never trip a domain match.
var highRiskMatchers = []CategoryMatcher{
	{
		Category: models.CategoryBiometric,
		Keywords: []string{
			"biometric", "face recognition", "facial recognition", "fingerprint",
			"iris recognition", "voice recognition", "gait recognition",
		},
	},
	{
		Category: models.CategoryCriticalInfrastructure,
		Keywords: []string{
			"critical infrastructure", "water supply", "gas supply", "power grid",
			"electricity grid", "utility management",
		},
	},
	{
		Category: models.CategoryEducation,
		Keywords: []string{
			"exam scoring", "student assessment", "grading system", "admission decision",
			"educational assessment", "proctoring",
		},
	},
	{
		Category: models.CategoryEmployment,
		Keywords: []string{
			"recruitment", "hiring decision", "resume screening", "cv screening",
			"candidate ranking", "performance evaluation", "workforce management",
			"talent acquisition",
		},
	},
	{
		Category: models.CategoryEssentialServices,
		Keywords: []string{
			"credit scoring", "creditworthiness", "loan approval", "insurance pricing",
			"medical diagnosis", "triage", "emergency dispatch", "social security benefit",
			"welfare eligibility",
		},
	},
	{
		Category: models.CategoryLawEnforcement,
		Keywords: []string{
			"law enforcement", "crime prediction", "criminal investigation",
			"surveillance", "suspect identification", "forensic analysis",
		},
	},
	{
		Category: models.CategoryMigrationAsylum,
		Keywords: []string{
			"asylum application", "border control", "visa application", "immigration decision",
			"refugee status", "travel document verification",
		},
	},
	{
		Category: models.CategoryJusticeDemocracy,
		Keywords: []string{
			"judicial decision", "court ruling", "sentencing recommendation",
			"election influence", "voting behavior", "legal decision support",
		},
	},
}

// Article 50 transparency triggers
var limitedMatchers = []CategoryMatcher{
	{
		Category: models.CategoryLimitedTransparency,
		Keywords: []string{
			"chatbot", "conversational agent", "virtual assistant",
			"deepfake", "synthetic media", "ai-generated content",
			"emotion recognition", "content generation", "image generation",
			"text generation",
		},
	},
}

// tierMatchers in severity order; index 0 is checked first and outranks the rest
var tierMatchers = []struct {
	tier     models.RiskTier
	matchers []CategoryMatcher
}{
	{models.TierProhibited, prohibitedMatchers},
	{models.TierHigh, highRiskMatchers},
	{models.TierLimited, limitedMatchers},
}

// Vocabulary returns every keyword across all tiers, for the classifier's
// domain-signal scan
func Vocabulary() []string {
	seen := make(map[string]bool)
	var vocab []string
	for _, tm := range tierMatchers {
		for _, m := range tm.matchers {
			for _, kw := range m.Keywords {
				if !seen[kw] {
					seen[kw] = true
					vocab = append(vocab, kw)
				}
			}
		}
	}
	sort.Strings(vocab)
	return vocab
}

// Categorize produces exactly one risk classification for the scan. It is a
// pure function of the component set, domain signals and declared intended
// use; identical inputs always yield the identical tier.
//
// When the declared use self-assigns a tier that conflicts with detected
// evidence, the higher-risk signal wins: the regulation assumes
// self-declaration but penalizes mischaracterization. Two contradictory
// self-declarations make the input indeterminate.
func Categorize(components []models.DetectedComponent, signals []models.DomainSignal, declaredUse string) (models.RiskClassification, error) {
	declared := strings.ToLower(declaredUse)

	declaredTiers := declaredTierMentions(declared)
	if len(declaredTiers) > 1 {
		return models.RiskClassification{}, ErrIndeterminate
	}

	signalPaths := make(map[string]string, len(signals))
	for _, s := range signals {
		signalPaths[s.Keyword] = s.EvidencePath
	}

	componentText := make(map[string][]string) // lowercased name -> component IDs
	for _, c := range components {
		key := strings.ToLower(c.Name)
		componentText[key] = append(componentText[key], c.ID)
	}

	detected := models.RiskClassification{Tier: models.TierMinimal}

	for _, tm := range tierMatchers {
		var matched []models.AnnexIIICategory
		var rationale []models.RationaleEntry

		for _, m := range tm.matchers {
			entry := matchCategory(m, declared, signalPaths, componentText)
			if entry == nil {
				continue
			}
			matched = append(matched, m.Category)
			rationale = append(rationale, *entry)
		}

		if len(matched) > 0 {
			detected = models.RiskClassification{
				Tier:              tm.tier,
				MatchedCategories: matched,
				Rationale:         rationale,
			}
			break
		}
	}

	// A declared tier above the detected one is accepted; below, the
	// detected evidence wins.
	if len(declaredTiers) == 1 && declaredTiers[0].MoreSevere(detected.Tier) {
		detected.Tier = declaredTiers[0]
	}

	return detected, nil
}

// matchCategory checks one category's keywords against every text surface:
// domain signals from evidence, the declared use, and component names.
// Within a tier the match order is irrelevant; all hits are recorded.
func matchCategory(m CategoryMatcher, declared string, signalPaths map[string]string, componentText map[string][]string) *models.RationaleEntry {
	var keywords []string
	var componentIDs []string
	seen := make(map[string]bool)

	for _, kw := range m.Keywords {
		hit := false
		if _, ok := signalPaths[kw]; ok {
			hit = true
		}
		if declared != "" && strings.Contains(declared, kw) {
			hit = true
		}
		for name, ids := range componentText {
			if strings.Contains(name, kw) {
				hit = true
				for _, id := range ids {
					if !seen[id] {
						seen[id] = true
						componentIDs = append(componentIDs, id)
					}
				}
			}
		}
		if hit {
			keywords = append(keywords, kw)
		}
	}

	if len(keywords) == 0 {
		return nil
	}
	sort.Strings(componentIDs)
	return &models.RationaleEntry{
		Category:    m.Category,
		Keywords:    keywords,
		ComponentID: componentIDs,
	}
}

// declaredTierMentions extracts explicit tier self-declarations from the
// intended-use text
func declaredTierMentions(declared string) []models.RiskTier {
	if declared == "" {
		return nil
	}
	phrases := []struct {
		tier    models.RiskTier
		phrases []string
	}{
		{models.TierProhibited, []string{"prohibited use", "prohibited practice"}},
		{models.TierHigh, []string{"high-risk", "high risk"}},
		{models.TierLimited, []string{"limited-risk", "limited risk"}},
		{models.TierMinimal, []string{"minimal-risk", "minimal risk", "no significant risk"}},
	}

	var tiers []models.RiskTier
	for _, p := range phrases {
		for _, phrase := range p.phrases {
			if strings.Contains(declared, phrase) {
				tiers = append(tiers, p.tier)
				break
			}
		}
	}
	return tiers
}
