package classify

import (
	"context"
	"math"
	"testing"

	"github.com/skillsenselab/voiceid/logger"
)

func newTextStage(t *testing.T) *TextStage {
	t.Helper()
	s, err := NewTextStage(TextConfig{}, logger.Nop())
	if err != nil {
		t.Fatalf("NewTextStage: %v", err)
	}
	return s
}

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestTextStage_EmployeeUtterance(t *testing.T) {
	s := newTextStage(t)
	req := &Request{Transcript: "고객님, 예금 상품 금리 안내해드리고 적금 추천 설명 도와드릴까요? 궁금한 점 있으시면 문의해주세요"}

	out := s.Evaluate(context.Background(), req)
	if !out.Accepted {
		t.Fatal("text stage must always accept")
	}
	r := out.Result
	if r.SpeakerName != RoleEmployee || r.DecisionReason != ReasonTextEmployee {
		t.Fatalf("got %s/%s, want employee/text_employee", r.SpeakerName, r.DecisionReason)
	}
	// 3 of 4 phrase patterns match and the keyword score saturates:
	// 0.7*0.6 + 0.3*1.0.
	if !almostEqual(r.Confidence, 0.72) {
		t.Fatalf("confidence = %v, want 0.72", r.Confidence)
	}
	if r.SpeakerID != "speaker_employee" {
		t.Fatalf("speaker_id = %q", r.SpeakerID)
	}
}

func TestTextStage_CustomerQuestion(t *testing.T) {
	s := newTextStage(t)
	out := s.Evaluate(context.Background(), &Request{Transcript: "금리가 얼마나 되나요?"})

	r := out.Result
	if r.SpeakerName != RoleCustomer || r.DecisionReason != ReasonTextCustomer {
		t.Fatalf("got %s/%s, want customer/text_customer", r.SpeakerName, r.DecisionReason)
	}
	// Customer: one pattern, one keyword: 0.7*0.2 + 0.3*0.1 + 0.1 bump.
	if !almostEqual(r.Confidence, 0.27) {
		t.Fatalf("confidence = %v, want 0.27", r.Confidence)
	}
}

func TestTextStage_WeakEmployeeSignalStaysCustomer(t *testing.T) {
	s := newTextStage(t)
	// Employee vocabulary but the score stays at the 0.3 bar, which is
	// not enough: strictly greater is required.
	out := s.Evaluate(context.Background(), &Request{Transcript: "예금 상품을 추천해주세요"})

	r := out.Result
	if r.SpeakerName != RoleCustomer || r.DecisionReason != ReasonTextCustomer {
		t.Fatalf("got %s/%s, want customer/text_customer", r.SpeakerName, r.DecisionReason)
	}
}

func TestTextStage_EmptyTranscriptDefaultsToCustomer(t *testing.T) {
	s := newTextStage(t)
	for _, transcript := range []string{"", "   ", "\n\t"} {
		out := s.Evaluate(context.Background(), &Request{Transcript: transcript})
		r := out.Result
		if r.SpeakerName != RoleCustomer || r.DecisionReason != ReasonTextDefault {
			t.Fatalf("transcript %q: got %s/%s, want customer/text_default", transcript, r.SpeakerName, r.DecisionReason)
		}
		if r.Confidence != 0.7 {
			t.Fatalf("confidence = %v, want 0.7", r.Confidence)
		}
	}
}

func TestTextStage_ConfidenceCapped(t *testing.T) {
	s := newTextStage(t)
	// Every customer pattern and many keywords: raw score exceeds the
	// cap and must come back as 0.9.
	out := s.Evaluate(context.Background(), &Request{
		Transcript: "궁금해요 알고 싶어요 도와주세요 추천해주세요 가입하고 싶어요 얼마나 언제 어디서 왜 어떤 무엇",
	})
	if got := out.Result.Confidence; got != 0.9 {
		t.Fatalf("confidence = %v, want 0.9 cap", got)
	}
}

func TestTextStage_CustomConfig(t *testing.T) {
	s, err := NewTextStage(TextConfig{
		EmployeePatterns: []string{`how can i help`, `your account`},
		EmployeeKeywords: []string{"account", "rate", "deposit"},
		CustomerPatterns: []string{`please help`},
		CustomerKeywords: []string{"why"},
	}, logger.Nop())
	if err != nil {
		t.Fatalf("NewTextStage: %v", err)
	}

	out := s.Evaluate(context.Background(), &Request{Transcript: "Hello, how can I help with your account deposit rate today?"})
	if out.Result.SpeakerName != RoleEmployee {
		t.Fatalf("got %s, want employee", out.Result.SpeakerName)
	}
}

func TestTextStage_InvalidPattern(t *testing.T) {
	if _, err := NewTextStage(TextConfig{EmployeePatterns: []string{`([`}}, logger.Nop()); err == nil {
		t.Fatal("expected error for invalid pattern")
	}
}
