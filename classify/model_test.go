package classify

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/skillsenselab/voiceid/feature"
	"github.com/skillsenselab/voiceid/logger"
)

func writeModel(t *testing.T, m Model) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "classifier.json")
	data, err := json.Marshal(m)
	if err != nil {
		t.Fatalf("marshal model: %v", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write model: %v", err)
	}
	return path
}

func TestLoadModel_ValidatesShape(t *testing.T) {
	path := writeModel(t, Model{
		Labels:  []string{"employee", "customer"},
		Weights: [][]float64{{1, 2}, {3}},
		Bias:    []float64{0, 0},
	})
	if _, err := LoadModel(path); err == nil {
		t.Fatal("expected shape error for ragged weights")
	}

	if _, err := LoadModel(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestModel_Predict(t *testing.T) {
	m := Model{
		Labels:  []string{"employee", "customer"},
		Weights: [][]float64{{10, 0}, {0, 10}},
		Bias:    []float64{0, 0},
	}

	label, conf := m.Predict([]float64{1, 0})
	if label != "employee" || conf < 0.99 {
		t.Fatalf("got %s/%v, want employee with near-certain confidence", label, conf)
	}

	label, conf = m.Predict([]float64{0, 1})
	if label != "customer" || conf < 0.99 {
		t.Fatalf("got %s/%v, want customer with near-certain confidence", label, conf)
	}

	if label, conf := m.Predict([]float64{1, 2, 3}); label != "" || conf != 0 {
		t.Fatalf("dimension mismatch must yield empty prediction, got %s/%v", label, conf)
	}
}

func TestModelStage_AcceptsAboveThreshold(t *testing.T) {
	m := &Model{
		Labels:  []string{"employee", "customer"},
		Weights: [][]float64{{10, 0}, {0, 10}},
		Bias:    []float64{0, 0},
	}
	stage := NewModelStage(m, 0.8, logger.Nop())

	out := stage.Evaluate(context.Background(), &Request{vector: feature.Vector{1, 0}})
	if !out.Accepted {
		t.Fatal("expected accept")
	}
	r := out.Result
	if r.DecisionReason != ReasonModelClassifier || r.SpeakerName != RoleEmployee {
		t.Fatalf("got %s/%s", r.DecisionReason, r.SpeakerName)
	}
	if r.SpeakerID != "speaker_employee" {
		t.Fatalf("speaker_id = %q", r.SpeakerID)
	}
	if r.Similarity != r.Confidence {
		t.Fatal("similarity must mirror model confidence")
	}
}

func TestModelStage_PassesBelowThreshold(t *testing.T) {
	m := &Model{
		Labels:  []string{"employee", "customer"},
		Weights: [][]float64{{0.5, 0}, {0, 0.5}},
		Bias:    []float64{0, 0},
	}
	stage := NewModelStage(m, 0.8, logger.Nop())

	// Scores 0.5 vs 0 soften to roughly 0.62 after softmax.
	if out := stage.Evaluate(context.Background(), &Request{vector: feature.Vector{1, 0}}); out.Accepted {
		t.Fatal("expected pass for low-confidence prediction")
	}
}

func TestModelStage_PassesWithoutModelOrVector(t *testing.T) {
	stage := NewModelStage(nil, 0.8, logger.Nop())
	if out := stage.Evaluate(context.Background(), &Request{vector: feature.Vector{1, 0}}); out.Accepted {
		t.Fatal("nil model must pass")
	}

	m := &Model{Labels: []string{"employee", "customer"}, Weights: [][]float64{{1}, {1}}, Bias: []float64{0, 0}}
	stage = NewModelStage(m, 0.8, logger.Nop())
	if out := stage.Evaluate(context.Background(), &Request{}); out.Accepted {
		t.Fatal("missing vector must pass")
	}
}
