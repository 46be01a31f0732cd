package classify

import (
	"context"

	"github.com/skillsenselab/voiceid/feature"
	"github.com/skillsenselab/voiceid/profile"
)

// Role is the classified speaker role.
type Role string

const (
	RoleEmployee Role = "employee"
	RoleCustomer Role = "customer"
	RoleUnknown  Role = "unknown"
)

// DecisionReason records which rule produced a result.
type DecisionReason string

const (
	// ReasonModelClassifier: the trained classifier was confident.
	ReasonModelClassifier DecisionReason = "model_classifier"

	// ReasonVoice: profile similarity above the accept threshold.
	ReasonVoice DecisionReason = "voice"

	// ReasonVoiceOverlap: accepted on similarity inside the band where
	// two speakers may be talking over each other.
	ReasonVoiceOverlap DecisionReason = "voice_overlap_threshold"

	// ReasonVoiceNoMatch: no profile was similar enough.
	ReasonVoiceNoMatch DecisionReason = "voice_no_match"

	ReasonTextEmployee DecisionReason = "text_employee"
	ReasonTextCustomer DecisionReason = "text_customer"
	ReasonTextDefault  DecisionReason = "text_default"

	// Markers explaining why the text stage had to decide alone.
	ReasonTextNoProfiles DecisionReason = "text_no_profiles"
	ReasonTextNoFeatures DecisionReason = "text_no_features"
	ReasonTextOnly       DecisionReason = "text_only"
)

// Request is one snippet to classify. Audio and Transcript are each
// optional, but at least one must be present.
type Request struct {
	// Transcript is the recognized text, if already available.
	Transcript string

	// Audio is the raw snippet bytes.
	Audio []byte

	// MIMEHint names the audio container when known (e.g. audio/webm).
	MIMEHint string

	// ProfileHint is an extra candidate profile compared alongside the
	// enrolled set, for callers that already suspect a speaker.
	ProfileHint *profile.VoiceProfile

	// Populated by the cascade before the stages run.
	requestID      string
	vector         feature.Vector
	audioHash      string
	fallbackReason DecisionReason
}

// Result is the classification outcome.
type Result struct {
	SpeakerID         string         `json:"speaker_id"`
	SpeakerName       Role           `json:"speaker_name"`
	Confidence        float64        `json:"confidence"`
	Similarity        float64        `json:"similarity"`
	DecisionReason    DecisionReason `json:"decision_reason"`
	Overlap           bool           `json:"overlap"`
	EmployeeID        string         `json:"employee_id,omitempty"`
	EmployeeName      string         `json:"employee_name,omitempty"`
	SecondarySpeaker  string         `json:"secondary_speaker,omitempty"`
	OverlapTranscript string         `json:"overlap_transcript,omitempty"`
}

// Outcome is a stage verdict: either a final result or a pass to the
// next stage.
type Outcome struct {
	Accepted bool
	Result   *Result
}

// Pass hands the request to the next stage.
func Pass() Outcome { return Outcome{} }

// Accept finalizes the cascade with the given result.
func Accept(r *Result) Outcome { return Outcome{Accepted: true, Result: r} }

// Stage is one step of the cascade. Stages never fail the request;
// internal problems log and pass.
type Stage interface {
	Name() string
	Evaluate(ctx context.Context, req *Request) Outcome
}
