package classify

import (
	"context"
	"testing"

	"github.com/skillsenselab/voiceid/cache"
	"github.com/skillsenselab/voiceid/feature"
	"github.com/skillsenselab/voiceid/logger"
	"github.com/skillsenselab/voiceid/profile"
)

func newVoiceStage(t *testing.T, profiles []profile.VoiceProfile) (*VoiceStage, *cache.SimilarityCache) {
	t.Helper()
	store := profile.NewStore(&profile.StaticSource{Profiles: profiles}, logger.Nop())
	if len(profiles) > 0 {
		if _, err := store.Reload(context.Background()); err != nil {
			t.Fatalf("Reload: %v", err)
		}
	}
	simCache := cache.NewSimilarityCache(0)
	return NewVoiceStage(store, simCache, VoiceThresholds{}, logger.Nop()), simCache
}

func voiceRequest(vec feature.Vector) *Request {
	return &Request{vector: vec, audioHash: vec.Hash()}
}

func TestVoiceStage_MatchAboveThreshold(t *testing.T) {
	emp := profile.VoiceProfile{EmployeeID: "emp-1", EmployeeName: "김민수", Feature: feature.Vector{1, 0, 0}}
	stage, _ := newVoiceStage(t, []profile.VoiceProfile{emp})

	out := stage.Evaluate(context.Background(), voiceRequest(feature.Vector{1, 0, 0}))
	if !out.Accepted {
		t.Fatal("expected accept")
	}
	r := out.Result
	if r.SpeakerName != RoleEmployee || r.DecisionReason != ReasonVoice {
		t.Fatalf("got %s/%s, want employee/voice", r.SpeakerName, r.DecisionReason)
	}
	if r.EmployeeID != "emp-1" || r.EmployeeName != "김민수" {
		t.Fatalf("employee fields: %+v", r)
	}
	if r.Similarity < 0.999 || r.Confidence != r.Similarity {
		t.Fatalf("similarity=%v confidence=%v", r.Similarity, r.Confidence)
	}
	if r.Overlap || r.SecondarySpeaker != "" {
		t.Fatal("exact match far above the band must not flag overlap")
	}
	if r.SpeakerID != "speaker_emp-1" {
		t.Fatalf("speaker_id = %q", r.SpeakerID)
	}
}

func TestVoiceStage_OverlapBandStillMatches(t *testing.T) {
	emp := profile.VoiceProfile{EmployeeID: "emp-1", EmployeeName: "김민수", Feature: feature.Vector{1, 0, 0}}
	stage, simCache := newVoiceStage(t, []profile.VoiceProfile{emp})

	// Pin the pairwise score inside the band, above the accept bar.
	req := voiceRequest(feature.Vector{0, 1, 0})
	simCache.Put(req.audioHash, emp.Feature.Hash(), 0.72)

	out := stage.Evaluate(context.Background(), req)
	r := out.Result
	if r.DecisionReason != ReasonVoiceOverlap || !r.Overlap {
		t.Fatalf("got %s overlap=%v, want voice_overlap_threshold/true", r.DecisionReason, r.Overlap)
	}
	if r.SpeakerName != RoleEmployee || r.SecondarySpeaker != "customer" {
		t.Fatalf("overlap match must stay employee with customer secondary: %+v", r)
	}
	if r.Confidence != 0.72 {
		t.Fatalf("confidence = %v, want 0.72", r.Confidence)
	}
}

func TestVoiceStage_NoMatchBecomesCustomer(t *testing.T) {
	emp := profile.VoiceProfile{EmployeeID: "emp-1", Feature: feature.Vector{1, 0, 0}}
	stage, _ := newVoiceStage(t, []profile.VoiceProfile{emp})

	// Orthogonal vectors score 0.
	out := stage.Evaluate(context.Background(), voiceRequest(feature.Vector{0, 1, 0}))
	r := out.Result
	if r.SpeakerName != RoleCustomer || r.DecisionReason != ReasonVoiceNoMatch {
		t.Fatalf("got %s/%s, want customer/voice_no_match", r.SpeakerName, r.DecisionReason)
	}
	if r.Confidence != 1.0 {
		t.Fatalf("confidence = %v, want 1.0 (1 - best similarity)", r.Confidence)
	}
	if r.Overlap {
		t.Fatal("similarity 0 is outside the band")
	}
}

func TestVoiceStage_RejectInsideBandFlagsOverlap(t *testing.T) {
	emp := profile.VoiceProfile{EmployeeID: "emp-1", Feature: feature.Vector{1, 0, 0}}
	stage, simCache := newVoiceStage(t, []profile.VoiceProfile{emp})

	// Inside the band but under the accept bar: customer, flagged.
	req := voiceRequest(feature.Vector{0, 1, 0})
	simCache.Put(req.audioHash, emp.Feature.Hash(), 0.66)

	out := stage.Evaluate(context.Background(), req)
	r := out.Result
	if r.DecisionReason != ReasonVoiceNoMatch || !r.Overlap {
		t.Fatalf("got %s overlap=%v, want voice_no_match/true", r.DecisionReason, r.Overlap)
	}
	if r.Confidence != 0.7 {
		t.Fatalf("confidence = %v, want 0.7 floor", r.Confidence)
	}
}

func TestVoiceStage_PicksBestProfile(t *testing.T) {
	profiles := []profile.VoiceProfile{
		{EmployeeID: "emp-1", Feature: feature.Vector{1, 0, 0}},
		{EmployeeID: "emp-2", Feature: feature.Vector{1, 0.2, 0}},
	}
	stage, _ := newVoiceStage(t, profiles)

	out := stage.Evaluate(context.Background(), voiceRequest(feature.Vector{1, 0.2, 0}))
	if out.Result.EmployeeID != "emp-2" {
		t.Fatalf("matched %s, want emp-2", out.Result.EmployeeID)
	}
}

func TestVoiceStage_TracksSecondBest(t *testing.T) {
	profiles := []profile.VoiceProfile{
		{EmployeeID: "emp-1", Feature: feature.Vector{1, 0, 0}},
		{EmployeeID: "emp-2", Feature: feature.Vector{1, 0.2, 0}},
		{EmployeeID: "emp-3", Feature: feature.Vector{0, 0, 1}},
	}
	stage, _ := newVoiceStage(t, profiles)

	req := voiceRequest(feature.Vector{1, 0.2, 0})
	best, second, bestSim, secondSim := stage.rank(req, profiles)
	if best == nil || best.EmployeeID != "emp-2" {
		t.Fatalf("best = %+v, want emp-2", best)
	}
	if second == nil || second.EmployeeID != "emp-1" {
		t.Fatalf("second = %+v, want emp-1", second)
	}
	if secondSim >= bestSim {
		t.Fatalf("second similarity %v must trail best %v", secondSim, bestSim)
	}
}

func TestVoiceStage_NegativeSimilarityReportsZero(t *testing.T) {
	emp := profile.VoiceProfile{EmployeeID: "emp-1", Feature: feature.Vector{1, 0, 0}}
	stage, _ := newVoiceStage(t, []profile.VoiceProfile{emp})

	// Opposed vectors have cosine -1; reporting clamps to [0, 1].
	out := stage.Evaluate(context.Background(), voiceRequest(feature.Vector{-1, 0, 0}))
	r := out.Result
	if r.Similarity != 0 {
		t.Fatalf("similarity = %v, want 0 after clamping", r.Similarity)
	}
	if r.SpeakerName != RoleCustomer || r.Confidence != 1.0 {
		t.Fatalf("got %s/%v, want customer with confidence 1.0", r.SpeakerName, r.Confidence)
	}
}

func TestVoiceStage_NoProfilesPasses(t *testing.T) {
	stage, _ := newVoiceStage(t, nil)

	req := voiceRequest(feature.Vector{1, 0, 0})
	if out := stage.Evaluate(context.Background(), req); out.Accepted {
		t.Fatal("expected pass without profiles")
	}
	if req.fallbackReason != ReasonTextNoProfiles {
		t.Fatalf("marker = %s, want text_no_profiles", req.fallbackReason)
	}
}

func TestVoiceStage_ProfileHintJoinsCandidates(t *testing.T) {
	stage, _ := newVoiceStage(t, nil)

	hint := &profile.VoiceProfile{EmployeeID: "emp-9", EmployeeName: "박지훈", Feature: feature.Vector{1, 0, 0}}
	req := voiceRequest(feature.Vector{1, 0, 0})
	req.ProfileHint = hint

	out := stage.Evaluate(context.Background(), req)
	if !out.Accepted || out.Result.EmployeeID != "emp-9" {
		t.Fatalf("hint candidate must be usable: %+v", out.Result)
	}
}

func TestVoiceStage_MemoizesSimilarity(t *testing.T) {
	emp := profile.VoiceProfile{EmployeeID: "emp-1", Feature: feature.Vector{1, 0, 0}}
	stage, simCache := newVoiceStage(t, []profile.VoiceProfile{emp})

	req := voiceRequest(feature.Vector{1, 0, 0})
	stage.Evaluate(context.Background(), req)

	if _, ok := simCache.Get(req.audioHash, emp.Feature.Hash()); !ok {
		t.Fatal("score must be memoized after evaluation")
	}
}

func TestVoiceStage_NoVectorPasses(t *testing.T) {
	emp := profile.VoiceProfile{EmployeeID: "emp-1", Feature: feature.Vector{1, 0, 0}}
	stage, _ := newVoiceStage(t, []profile.VoiceProfile{emp})

	if out := stage.Evaluate(context.Background(), &Request{}); out.Accepted {
		t.Fatal("missing vector must pass")
	}
}
