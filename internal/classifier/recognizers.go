package classifier

import (
	"path"
	"strings"

	"github.com/h2non/filetype"

	"github.com/acheong08/aiactscan/internal/collector"
	"github.com/acheong08/aiactscan/internal/manifest"
	"github.com/acheong08/aiactscan/pkg/models"
)

// Detection is a single recognizer hit before merging
type Detection struct {
	Kind       models.ArtifactKind
	Name       string
	Confidence float64
	GPAI       bool
	Ecosystem  string
	Recognizer string
}

// Recognizer evaluates one evidence item and yields zero or more detections.
// Implementations must be stateless: the same input always yields the same
// detections, which makes the merge step idempotent.
type Recognizer interface {
	Name() string
	Evaluate(f collector.File) []Detection
}

// DefaultRecognizers returns the closed recognizer set used for scans
func DefaultRecognizers() []Recognizer {
	return []Recognizer{
		&dependencyRecognizer{},
		&modelFileRecognizer{},
		&datasetFileRecognizer{},
		&gpaiReferenceRecognizer{},
		&documentationRecognizer{},
		&loggingRecognizer{},
		&oversightRecognizer{},
		&securityRecognizer{},
	}
}

// Known ML/AI package names per ecosystem. Matching is exact on the
// normalized package name, not substring, to keep false positives down.
var mlPackages = map[string]map[string]bool{
	"pip": {
		"torch": true, "pytorch": true, "tensorflow": true, "keras": true,
		"scikit-learn": true, "sklearn": true, "transformers": true,
		"huggingface_hub": true, "huggingface-hub": true,
		"sentence-transformers": true, "sentence_transformers": true,
		"xgboost": true, "lightgbm": true, "catboost": true,
		"jax": true, "flax": true, "onnx": true, "onnxruntime": true,
		"openai": true, "anthropic": true, "cohere": true, "mistralai": true,
		"langchain": true, "langchain-core": true, "llama-index": true,
		"vllm": true, "ollama": true, "accelerate": true, "datasets": true,
		"diffusers": true, "mlflow": true, "wandb": true, "spacy": true,
		"fasttext": true, "gensim": true, "statsmodels": true,
	},
	"npm": {
		"@tensorflow/tfjs": true, "@tensorflow/tfjs-node": true,
		"onnxruntime-node": true, "onnxruntime-web": true,
		"openai": true, "@anthropic-ai/sdk": true, "@google/generative-ai": true,
		"langchain": true, "@langchain/core": true, "llamaindex": true,
		"@huggingface/inference": true, "ml5": true, "brain.js": true,
		"cohere-ai": true, "@mistralai/mistralai": true, "natural": true,
	},
	"go": {
		"github.com/sashabaranov/go-openai": true,
		"github.com/anthropics/anthropic-sdk-go": true,
		"github.com/tmc/langchaingo": true,
		"gorgonia.org/gorgonia": true,
		"github.com/sjwhitworth/golearn": true,
		"charm.land/fantasy": true,
	},
}

// dependencyRecognizer matches ML framework entries in dependency manifests
type dependencyRecognizer struct{}

func (r *dependencyRecognizer) Name() string { return "ml-dependency" }

func (r *dependencyRecognizer) Evaluate(f collector.File) []Detection {
	if f.Kind != models.EvidenceManifest {
		return nil
	}

	deps, err := manifest.Parse(f.Path, f.Content)
	if err != nil {
		// A broken manifest is repository content, not a scan failure
		return nil
	}

	var detections []Detection
	for _, dep := range deps {
		known, ok := mlPackages[dep.Ecosystem]
		if !ok || !known[strings.ToLower(dep.Name)] {
			continue
		}
		detections = append(detections, Detection{
			Kind:       models.ArtifactDependency,
			Name:       dep.Name,
			Confidence: 0.95,
			Ecosystem:  dep.Ecosystem,
			Recognizer: r.Name(),
		})
	}
	return detections
}

// Model weight formats. Strong extensions are unambiguous serialization
// formats; weak ones (pickle, generic binary) need a negative magic-byte
// check before they count.
var strongModelExts = map[string]float64{
	".safetensors": 0.95,
	".gguf":        0.95,
	".ggml":        0.9,
	".onnx":        0.9,
	".pt":          0.85,
	".pth":         0.85,
	".tflite":      0.9,
	".ckpt":        0.8,
}

var weakModelExts = map[string]float64{
	".h5":     0.5,
	".pb":     0.45,
	".pkl":    0.4,
	".joblib": 0.5,
	".bin":    0.3,
}

// modelFileRecognizer matches model weight files by extension, with a
// magic-byte sniff to reject binaries that are really images or archives
type modelFileRecognizer struct{}

func (r *modelFileRecognizer) Name() string { return "model-weights" }

func (r *modelFileRecognizer) Evaluate(f collector.File) []Detection {
	ext := strings.ToLower(path.Ext(f.Path))
	name := path.Base(f.Path)

	if conf, ok := strongModelExts[ext]; ok {
		return []Detection{{
			Kind:       models.ArtifactModel,
			Name:       name,
			Confidence: conf,
			Recognizer: r.Name(),
		}}
	}

	conf, ok := weakModelExts[ext]
	if !ok {
		return nil
	}
	// Reject files whose magic bytes identify a known non-model format
	if kind, err := filetype.Match(f.Content); err == nil && kind != filetype.Unknown {
		return nil
	}
	return []Detection{{
		Kind:       models.ArtifactModel,
		Name:       name,
		Confidence: conf,
		Recognizer: r.Name(),
	}}
}

var datasetExts = map[string]float64{
	".csv":     0.5,
	".tsv":     0.5,
	".parquet": 0.8,
	".jsonl":   0.6,
	".arrow":   0.8,
	".feather": 0.8,
	".npy":     0.6,
	".npz":     0.6,
}

var datasetDirs = map[string]bool{
	"data": true, "datasets": true, "dataset": true, "corpus": true, "training_data": true,
}

// datasetFileRecognizer matches dataset formats, with a confidence bump when
// the file sits under a conventional data directory
type datasetFileRecognizer struct{}

func (r *datasetFileRecognizer) Name() string { return "dataset-format" }

func (r *datasetFileRecognizer) Evaluate(f collector.File) []Detection {
	conf, ok := datasetExts[strings.ToLower(path.Ext(f.Path))]
	if !ok {
		return nil
	}
	for _, segment := range strings.Split(path.Dir(f.Path), "/") {
		if datasetDirs[strings.ToLower(segment)] {
			conf += 0.2
			if conf > 1 {
				conf = 1
			}
			break
		}
	}
	return []Detection{{
		Kind:       models.ArtifactDataset,
		Name:       path.Base(f.Path),
		Confidence: conf,
		Recognizer: r.Name(),
	}}
}

// Known general-purpose AI model identifiers. A reference in source or config
// indicates use of a GPAI model subject to additional obligations.
var gpaiModelNames = []string{
	"gpt-3.5", "gpt-4", "gpt-4o", "gpt-5",
	"claude-2", "claude-3", "claude-sonnet", "claude-opus", "claude-haiku",
	"gemini-pro", "gemini-1.5", "gemini-2",
	"llama-2", "llama-3", "llama2", "llama3",
	"mistral-large", "mistral-7b", "mixtral",
	"text-embedding-ada", "text-embedding-3", "dall-e",
}

// gpaiReferenceRecognizer finds references to known GPAI models in text
type gpaiReferenceRecognizer struct{}

func (r *gpaiReferenceRecognizer) Name() string { return "gpai-reference" }

func (r *gpaiReferenceRecognizer) Evaluate(f collector.File) []Detection {
	if f.Kind == models.EvidenceRaw {
		return nil
	}
	text := strings.ToLower(string(f.Content))

	var detections []Detection
	for _, model := range gpaiModelNames {
		if strings.Contains(text, model) {
			detections = append(detections, Detection{
				Kind:       models.ArtifactModel,
				Name:       model,
				Confidence: 0.7,
				GPAI:       true,
				Recognizer: r.Name(),
			})
		}
	}
	return detections
}

// Documentation artifacts: canonical compliance file names score high,
// keyword sections in prose files score lower.
var docFileNames = map[string]bool{
	"model_card.md": true, "modelcard.md": true, "datasheet.md": true,
	"risk_assessment.md": true, "risk_management.md": true,
	"impact_assessment.md": true, "technical_documentation.md": true,
}

var docKeywords = []string{
	"model card", "risk management", "intended use", "intended purpose",
	"data governance", "impact assessment", "technical documentation",
	"known limitations", "training data",
}

type documentationRecognizer struct{}

func (r *documentationRecognizer) Name() string { return "documentation" }

func (r *documentationRecognizer) Evaluate(f collector.File) []Detection {
	name := strings.ToLower(path.Base(f.Path))
	if docFileNames[name] {
		return []Detection{{
			Kind:       models.ArtifactDocumentation,
			Name:       path.Base(f.Path),
			Confidence: 0.9,
			Recognizer: r.Name(),
		}}
	}

	ext := strings.ToLower(path.Ext(f.Path))
	if ext != ".md" && ext != ".rst" && ext != ".txt" {
		return nil
	}
	text := strings.ToLower(string(f.Content))
	matches := 0
	for _, kw := range docKeywords {
		if strings.Contains(text, kw) {
			matches++
		}
	}
	if matches == 0 {
		return nil
	}
	conf := 0.3 + 0.15*float64(matches)
	if conf > 0.85 {
		conf = 0.85
	}
	return []Detection{{
		Kind:       models.ArtifactDocumentation,
		Name:       path.Base(f.Path),
		Confidence: conf,
		Recognizer: r.Name(),
	}}
}

// Logging libraries whose presence indicates record-keeping capability
var loggingPackages = map[string]bool{
	"structlog": true, "loguru": true, "logbook": true, "eliot": true,
	"winston": true, "bunyan": true, "pino": true, "log4js": true, "morgan": true,
	"go.uber.org/zap": true, "github.com/sirupsen/logrus": true,
	"github.com/rs/zerolog": true, "log/slog": true,
}

// Structured-log call patterns in source text
var loggingCallPatterns = []string{
	"logging.getlogger", "logger.info(", "logger.warning(", "logger.error(",
	"structlog.get_logger", "winston.createlogger", "pino(",
	"slog.info(", "zap.newproduction", "logrus.new",
	"audit_log", "audit log", "auditlog",
}

type loggingRecognizer struct{}

func (r *loggingRecognizer) Name() string { return "record-keeping" }

func (r *loggingRecognizer) Evaluate(f collector.File) []Detection {
	if f.Kind == models.EvidenceManifest {
		deps, err := manifest.Parse(f.Path, f.Content)
		if err != nil {
			return nil
		}
		var detections []Detection
		for _, dep := range deps {
			if loggingPackages[strings.ToLower(dep.Name)] {
				detections = append(detections, Detection{
					Kind:       models.ArtifactLogging,
					Name:       dep.Name,
					Confidence: 0.85,
					Ecosystem:  dep.Ecosystem,
					Recognizer: r.Name(),
				})
			}
		}
		return detections
	}

	if f.Kind != models.EvidenceText {
		return nil
	}
	text := strings.ToLower(string(f.Content))
	for _, pattern := range loggingCallPatterns {
		if strings.Contains(text, pattern) {
			return []Detection{{
				Kind:       models.ArtifactLogging,
				Name:       "structured logging",
				Confidence: 0.6,
				Recognizer: r.Name(),
			}}
		}
	}
	return nil
}

var oversightKeywords = []string{
	"human oversight", "human review", "human-in-the-loop", "human in the loop",
	"manual approval", "manual review", "reviewer approval", "escalation to a human",
	"four-eyes", "stop button", "kill switch", "override mechanism",
}

type oversightRecognizer struct{}

func (r *oversightRecognizer) Name() string { return "human-oversight" }

func (r *oversightRecognizer) Evaluate(f collector.File) []Detection {
	if f.Kind == models.EvidenceRaw {
		return nil
	}
	text := strings.ToLower(string(f.Content))
	for _, kw := range oversightKeywords {
		if strings.Contains(text, kw) {
			return []Detection{{
				Kind:       models.ArtifactOversight,
				Name:       kw,
				Confidence: 0.65,
				Recognizer: r.Name(),
			}}
		}
	}
	return nil
}

var securityKeywords = []string{
	"access control", "access-control", "rbac", "role-based access",
	"authentication", "authorization", "oauth", "jwt",
	"encryption at rest", "tls", "penetration test", "threat model",
	"vulnerability scan", "security audit",
}

type securityRecognizer struct{}

func (r *securityRecognizer) Name() string { return "security-control" }

func (r *securityRecognizer) Evaluate(f collector.File) []Detection {
	if f.Kind == models.EvidenceRaw {
		return nil
	}
	text := strings.ToLower(string(f.Content))
	matches := 0
	first := ""
	for _, kw := range securityKeywords {
		if strings.Contains(text, kw) {
			if first == "" {
				first = kw
			}
			matches++
		}
	}
	if matches == 0 {
		return nil
	}
	// A single keyword is weak signal; multiple independent ones are not
	conf := 0.35 + 0.15*float64(matches-1)
	if conf > 0.8 {
		conf = 0.8
	}
	return []Detection{{
		Kind:       models.ArtifactSecurity,
		Name:       first,
		Confidence: conf,
		Recognizer: r.Name(),
	}}
}
