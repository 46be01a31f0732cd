package classify

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/skillsenselab/voiceid/logger"
)

// Default keyword and pattern lists for Korean banking consultations.
// Employees talk products and procedures; customers ask questions.
var (
	defaultEmployeeKeywords = []string{
		"상품", "금리", "예금", "적금", "대출", "보험", "펀드", "투자",
		"계좌", "카드", "신용", "대출", "이자", "수수료", "혜택",
		"가입", "해지", "변경", "조회", "출금", "입금", "이체",
		"고객님", "어떻게", "도와드릴까요", "궁금한", "문의",
		"안내", "설명", "추천", "비교", "분석", "계산", "시뮬레이션",
	}

	defaultCustomerKeywords = []string{
		"궁금해요", "알고 싶어요", "어떻게 해야", "도와주세요",
		"추천해주세요", "비교해주세요", "계산해주세요", "설명해주세요",
		"가입하고 싶어요", "해지하고 싶어요", "변경하고 싶어요",
		"얼마나", "언제", "어디서", "왜", "어떤", "무엇",
	}

	defaultEmployeePatterns = []string{
		`고객님.*(?:어떻게|무엇을|도와드릴까요)`,
		`(?:상품|금리|예금|적금).*(?:안내|설명|추천)`,
		`(?:계산|분석|비교).*해드릴까요`,
		`궁금한.*(?:점|사항).*있으시면`,
	}

	defaultCustomerPatterns = []string{
		`(?:궁금해요|알고 싶어요|도와주세요)`,
		`(?:추천|비교|계산|설명).*해주세요`,
		`(?:가입|해지|변경).*하고 싶어요`,
		`(?:얼마나|언제|어디서|왜|어떤|무엇)`,
	}
)

// TextConfig overrides the built-in keyword and pattern lists, for
// deployments outside retail banking.
type TextConfig struct {
	EmployeeKeywords []string `mapstructure:"employee_keywords"`
	CustomerKeywords []string `mapstructure:"customer_keywords"`
	EmployeePatterns []string `mapstructure:"employee_patterns"`
	CustomerPatterns []string `mapstructure:"customer_patterns"`
}

// ApplyDefaults fills empty lists with the built-in Korean defaults.
func (c *TextConfig) ApplyDefaults() {
	if len(c.EmployeeKeywords) == 0 {
		c.EmployeeKeywords = defaultEmployeeKeywords
	}
	if len(c.CustomerKeywords) == 0 {
		c.CustomerKeywords = defaultCustomerKeywords
	}
	if len(c.EmployeePatterns) == 0 {
		c.EmployeePatterns = defaultEmployeePatterns
	}
	if len(c.CustomerPatterns) == 0 {
		c.CustomerPatterns = defaultCustomerPatterns
	}
}

// TextStage scores the transcript against role-specific phrase
// patterns and keywords. It is the terminal stage: it always answers,
// defaulting to customer when there is nothing to score.
type TextStage struct {
	empKeywords  []string
	custKeywords []string
	empPatterns  []*regexp.Regexp
	custPatterns []*regexp.Regexp
	log          *logger.Logger
}

// NewTextStage compiles the configured pattern lists.
func NewTextStage(cfg TextConfig, log *logger.Logger) (*TextStage, error) {
	cfg.ApplyDefaults()

	empPatterns, err := compileAll(cfg.EmployeePatterns)
	if err != nil {
		return nil, fmt.Errorf("classify: employee patterns: %w", err)
	}
	custPatterns, err := compileAll(cfg.CustomerPatterns)
	if err != nil {
		return nil, fmt.Errorf("classify: customer patterns: %w", err)
	}
	return &TextStage{
		empKeywords:  cfg.EmployeeKeywords,
		custKeywords: cfg.CustomerKeywords,
		empPatterns:  empPatterns,
		custPatterns: custPatterns,
		log:          log.WithComponent("text-stage"),
	}, nil
}

func compileAll(patterns []string) ([]*regexp.Regexp, error) {
	out := make([]*regexp.Regexp, 0, len(patterns))
	for _, p := range patterns {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("compile %q: %w", p, err)
		}
		out = append(out, re)
	}
	return out, nil
}

// Name implements Stage.
func (s *TextStage) Name() string { return "text" }

// Evaluate implements Stage. It always accepts.
func (s *TextStage) Evaluate(_ context.Context, req *Request) Outcome {
	text := strings.ToLower(strings.TrimSpace(req.Transcript))
	if text == "" {
		return Accept(&Result{
			SpeakerID:      "speaker_customer",
			SpeakerName:    RoleCustomer,
			Confidence:     0.7,
			DecisionReason: ReasonTextDefault,
		})
	}

	empScore := 0.7*patternScore(text, s.empPatterns) + 0.3*keywordScore(text, s.empKeywords)
	custScore := 0.7*patternScore(text, s.custPatterns) + 0.3*keywordScore(text, s.custKeywords)

	s.log.Debug("text scores", map[string]interface{}{
		logger.FieldRequestID: req.requestID,
		"employee_score":      empScore,
		"customer_score":      custScore,
	})

	if empScore > custScore && empScore > 0.3 {
		return Accept(&Result{
			SpeakerID:      "speaker_employee",
			SpeakerName:    RoleEmployee,
			Confidence:     clampConfidence(empScore),
			DecisionReason: ReasonTextEmployee,
		})
	}
	return Accept(&Result{
		SpeakerID:      "speaker_customer",
		SpeakerName:    RoleCustomer,
		Confidence:     clampConfidence(custScore + 0.1),
		DecisionReason: ReasonTextCustomer,
	})
}

// patternScore counts matching phrase patterns at 0.2 each.
func patternScore(text string, patterns []*regexp.Regexp) float64 {
	score := 0.0
	for _, re := range patterns {
		if re.MatchString(text) {
			score += 0.2
		}
	}
	return min(score, 1.0)
}

// keywordScore counts contained keywords at 0.1 each, with a bonus
// when several match: multiple role keywords in one short snippet are
// a stronger signal than their plain sum.
func keywordScore(text string, keywords []string) float64 {
	score := 0.0
	matched := 0
	for _, kw := range keywords {
		if strings.Contains(text, kw) {
			matched++
			score += 0.1
		}
	}
	switch {
	case matched >= 3:
		score += 0.2
	case matched >= 2:
		score += 0.1
	}
	return min(score, 1.0)
}

func clampConfidence(score float64) float64 {
	return min(score, 0.9)
}
