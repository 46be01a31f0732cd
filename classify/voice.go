package classify

import (
	"context"

	"github.com/skillsenselab/voiceid/cache"
	"github.com/skillsenselab/voiceid/feature"
	"github.com/skillsenselab/voiceid/logger"
	"github.com/skillsenselab/voiceid/profile"
)

// VoiceThresholds tunes the similarity stage.
type VoiceThresholds struct {
	// Accept is the similarity a profile must exceed to match.
	Accept float64 `mapstructure:"accept"`

	// OverlapLow and OverlapHigh bound the band where the snippet may
	// contain two voices. The band straddles the accept threshold on
	// purpose: a match inside it is still a match, flagged as overlap.
	OverlapLow  float64 `mapstructure:"overlap_low"`
	OverlapHigh float64 `mapstructure:"overlap_high"`
}

// ApplyDefaults sets sensible defaults for zero-valued fields.
func (t *VoiceThresholds) ApplyDefaults() {
	if t.Accept == 0 {
		t.Accept = 0.7
	}
	if t.OverlapLow == 0 {
		t.OverlapLow = 0.65
	}
	if t.OverlapHigh == 0 {
		t.OverlapHigh = 0.80
	}
}

// VoiceStage matches the snippet vector against enrolled profiles by
// cosine similarity. With profiles and a vector present it is terminal:
// either an employee matched or the speaker is a customer.
type VoiceStage struct {
	profiles   *profile.Store
	similarity *cache.SimilarityCache
	thresholds VoiceThresholds
	log        *logger.Logger
}

// NewVoiceStage creates the stage.
func NewVoiceStage(profiles *profile.Store, similarity *cache.SimilarityCache, thresholds VoiceThresholds, log *logger.Logger) *VoiceStage {
	thresholds.ApplyDefaults()
	return &VoiceStage{
		profiles:   profiles,
		similarity: similarity,
		thresholds: thresholds,
		log:        log.WithComponent("voice-stage"),
	}
}

// Name implements Stage.
func (s *VoiceStage) Name() string { return "voice" }

// Evaluate implements Stage.
func (s *VoiceStage) Evaluate(_ context.Context, req *Request) Outcome {
	if req.vector == nil {
		return Pass()
	}

	candidates := s.profiles.All()
	if req.ProfileHint != nil {
		if _, enrolled := s.profiles.Get(req.ProfileHint.EmployeeID); !enrolled {
			candidates = append(candidates, *req.ProfileHint)
		}
	}
	if len(candidates) == 0 {
		req.fallbackReason = ReasonTextNoProfiles
		return Pass()
	}

	best, second, bestSim, secondSim := s.rank(req, candidates)

	overlap := bestSim >= s.thresholds.OverlapLow && bestSim < s.thresholds.OverlapHigh

	if best != nil && bestSim > s.thresholds.Accept {
		reason := ReasonVoice
		secondary := ""
		if overlap {
			reason = ReasonVoiceOverlap
			secondary = string(RoleCustomer)
			if second != nil {
				s.log.Debug("overlap runner-up", map[string]interface{}{
					logger.FieldRequestID:  req.requestID,
					logger.FieldEmployeeID: second.EmployeeID,
					logger.FieldSimilarity: secondSim,
				})
			}
		}
		return Accept(&Result{
			SpeakerID:        "speaker_" + best.EmployeeID,
			SpeakerName:      RoleEmployee,
			Confidence:       bestSim,
			Similarity:       bestSim,
			DecisionReason:   reason,
			Overlap:          overlap,
			EmployeeID:       best.EmployeeID,
			EmployeeName:     best.EmployeeName,
			SecondarySpeaker: secondary,
		})
	}

	conf := 1.0 - bestSim
	if conf < 0.7 {
		conf = 0.7
	}
	return Accept(&Result{
		SpeakerID:      "speaker_customer",
		SpeakerName:    RoleCustomer,
		Confidence:     conf,
		Similarity:     bestSim,
		DecisionReason: ReasonVoiceNoMatch,
		Overlap:        overlap,
	})
}

// rank scores every candidate and returns the best and second-best
// matches with their similarities, clamped to [0, 1] for reporting.
func (s *VoiceStage) rank(req *Request, candidates []profile.VoiceProfile) (best, second *profile.VoiceProfile, bestSim, secondSim float64) {
	for i := range candidates {
		p := &candidates[i]
		sim := feature.ClampUnit(s.score(req, p))
		s.log.Debug("profile compared", map[string]interface{}{
			logger.FieldRequestID:  req.requestID,
			logger.FieldEmployeeID: p.EmployeeID,
			logger.FieldSimilarity: sim,
		})
		switch {
		case sim > bestSim:
			second, secondSim = best, bestSim
			best, bestSim = p, sim
		case sim > secondSim:
			second, secondSim = p, sim
		}
	}
	return best, second, bestSim, secondSim
}

// score returns the cached or freshly computed similarity between the
// request vector and a profile.
func (s *VoiceStage) score(req *Request, p *profile.VoiceProfile) float64 {
	profileHash := p.Feature.Hash()
	if s.similarity != nil {
		if sim, ok := s.similarity.Get(req.audioHash, profileHash); ok {
			return sim
		}
	}
	sim := feature.Cosine(req.vector, p.Feature)
	if s.similarity != nil {
		s.similarity.Put(req.audioHash, profileHash, sim)
	}
	return sim
}
