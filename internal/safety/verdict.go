package safety

import "time"

type RiskLevel string

const (
	RiskNone     RiskLevel = "none"
	RiskLow      RiskLevel = "low"
	RiskMedium   RiskLevel = "medium"
	RiskHigh     RiskLevel = "high"
	RiskCritical RiskLevel = "critical"
	// RiskUnknown marks verdicts produced by an internal-error fallback path,
	// never an actual model judgment.
	RiskUnknown RiskLevel = "unknown"
)

type Recommendation string

const (
	RecommendApprove    Recommendation = "approve"
	RecommendReview     Recommendation = "review"
	RecommendBlock      Recommendation = "block"
	RecommendRegenerate Recommendation = "regenerate"
)

type Severity string

const (
	SeverityLow    Severity = "low"
	SeverityMedium Severity = "medium"
	SeverityHigh   Severity = "high"
)

type Issue struct {
	Category    string   `json:"category"`
	Severity    Severity `json:"severity"`
	Description string   `json:"description"`
	Location    string   `json:"location,omitempty"`
}

// Verdict is the result of one safety evaluation. AlertMessage is set only
// when IsSafe is false. Verdicts are built fresh per call and never mutated.
type Verdict struct {
	IsSafe            bool           `json:"isSafe"`
	RiskLevel         RiskLevel      `json:"riskLevel"`
	Issues            []Issue        `json:"issues"`
	Recommendation    Recommendation `json:"recommendation"`
	Reasoning         string         `json:"reasoning"`
	VisualDescription string         `json:"visualDescription,omitempty"`
	AlertMessage      *string        `json:"alertMessage"`
	AgeGroup          string         `json:"ageGroup,omitempty"`
	ImageURL          string         `json:"imageUrl,omitempty"`
	Timestamp         time.Time      `json:"timestamp"`
}

// BatchResult aggregates per-image verdicts; Results preserves input order.
type BatchResult struct {
	AllSafe       bool      `json:"allSafe"`
	TotalImages   int       `json:"totalImages"`
	FlaggedImages int       `json:"flaggedImages"`
	TotalIssues   int       `json:"totalIssues"`
	Results       []Verdict `json:"results"`
	Timestamp     time.Time `json:"timestamp"`
}

func strPtr(s string) *string { return &s }

// verdictPayload is the wire shape the model is asked to return. Pointer and
// zero-value fields let absence fall back to defaults: a missing field is
// never interpreted as failure.
type verdictPayload struct {
	IsSafe            *bool          `json:"isSafe"`
	RiskLevel         string         `json:"riskLevel"`
	Issues            []issuePayload `json:"issues"`
	Recommendation    string         `json:"recommendation"`
	Reasoning         string         `json:"reasoning"`
	AlertMessage      string         `json:"alertMessage"`
	VisualDescription string         `json:"visualDescription"`
}

type issuePayload struct {
	Category    string `json:"category"`
	Severity    string `json:"severity"`
	Description string `json:"description"`
	Location    string `json:"location"`
}

func (p verdictPayload) toVerdict(defaultReasoning string) Verdict {
	v := Verdict{
		IsSafe:            true,
		RiskLevel:         RiskNone,
		Issues:            []Issue{},
		Recommendation:    RecommendApprove,
		Reasoning:         defaultReasoning,
		VisualDescription: p.VisualDescription,
		Timestamp:         time.Now().UTC(),
	}
	if p.IsSafe != nil {
		v.IsSafe = *p.IsSafe
	}
	if p.RiskLevel != "" {
		v.RiskLevel = RiskLevel(p.RiskLevel)
	}
	if p.Recommendation != "" {
		v.Recommendation = Recommendation(p.Recommendation)
	}
	if p.Reasoning != "" {
		v.Reasoning = p.Reasoning
	}
	for _, iss := range p.Issues {
		v.Issues = append(v.Issues, Issue{
			Category:    iss.Category,
			Severity:    Severity(iss.Severity),
			Description: iss.Description,
			Location:    iss.Location,
		})
	}
	return v
}
