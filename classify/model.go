package classify

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"os"

	"github.com/skillsenselab/voiceid/logger"
)

// Model is a multinomial logistic classifier over feature vectors,
// loaded from a JSON training artifact.
type Model struct {
	Labels  []string    `json:"labels"`
	Weights [][]float64 `json:"weights"`
	Bias    []float64   `json:"bias"`
}

// LoadModel reads and validates a model artifact.
func LoadModel(path string) (*Model, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("classify: read model: %w", err)
	}
	var m Model
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, fmt.Errorf("classify: decode model: %w", err)
	}
	if err := m.validate(); err != nil {
		return nil, err
	}
	return &m, nil
}

func (m *Model) validate() error {
	if len(m.Labels) < 2 {
		return fmt.Errorf("classify: model needs at least 2 labels, got %d", len(m.Labels))
	}
	if len(m.Weights) != len(m.Labels) || len(m.Bias) != len(m.Labels) {
		return fmt.Errorf("classify: model shape mismatch: %d labels, %d weight rows, %d biases",
			len(m.Labels), len(m.Weights), len(m.Bias))
	}
	dim := len(m.Weights[0])
	for i, row := range m.Weights {
		if len(row) != dim {
			return fmt.Errorf("classify: weight row %d has %d values, want %d", i, len(row), dim)
		}
	}
	return nil
}

// Predict returns the most likely label and its softmax probability.
// Vectors of the wrong dimensionality yield zero confidence.
func (m *Model) Predict(vec []float64) (string, float64) {
	if len(vec) != len(m.Weights[0]) {
		return "", 0
	}

	scores := make([]float64, len(m.Labels))
	for i, row := range m.Weights {
		s := m.Bias[i]
		for j, w := range row {
			s += w * vec[j]
		}
		scores[i] = s
	}

	// Softmax with the max subtracted for numeric stability.
	maxScore := scores[0]
	for _, s := range scores[1:] {
		if s > maxScore {
			maxScore = s
		}
	}
	var sum float64
	for i, s := range scores {
		scores[i] = math.Exp(s - maxScore)
		sum += scores[i]
	}

	bestIdx := 0
	for i := 1; i < len(scores); i++ {
		if scores[i] > scores[bestIdx] {
			bestIdx = i
		}
	}
	return m.Labels[bestIdx], scores[bestIdx] / sum
}

// ModelStage runs the trained classifier first. It accepts only when
// the top probability clears the threshold; otherwise the request
// falls through to the similarity stage.
type ModelStage struct {
	model     *Model
	threshold float64
	log       *logger.Logger
}

// NewModelStage creates the stage. A nil model makes it always pass.
func NewModelStage(model *Model, threshold float64, log *logger.Logger) *ModelStage {
	if threshold <= 0 {
		threshold = 0.8
	}
	return &ModelStage{
		model:     model,
		threshold: threshold,
		log:       log.WithComponent("model-stage"),
	}
}

// Name implements Stage.
func (s *ModelStage) Name() string { return "model" }

// Evaluate implements Stage.
func (s *ModelStage) Evaluate(_ context.Context, req *Request) Outcome {
	if s.model == nil || req.vector == nil {
		return Pass()
	}

	label, conf := s.model.Predict(req.vector)
	if label == "" {
		s.log.Warn("model dimensionality mismatch, passing", map[string]interface{}{
			logger.FieldRequestID: req.requestID,
			"vector_dim":          req.vector.Dim(),
		})
		return Pass()
	}
	if conf < s.threshold {
		s.log.Debug("model below threshold, passing", map[string]interface{}{
			logger.FieldRequestID: req.requestID,
			"label":               label,
			"confidence":          conf,
		})
		return Pass()
	}

	role := RoleCustomer
	if label != string(RoleCustomer) {
		role = RoleEmployee
	}
	return Accept(&Result{
		SpeakerID:      "speaker_" + label,
		SpeakerName:    role,
		Confidence:     conf,
		Similarity:     conf,
		DecisionReason: ReasonModelClassifier,
	})
}
