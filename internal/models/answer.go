package models

import "time"

// CitationType classifies what an answer citation points back to.
type CitationType string

const (
	CitationPackage  CitationType = "package"
	CitationVuln     CitationType = "vuln"
	CitationAdvisory CitationType = "advisory"
)

// Citation is a typed reference from an answer back to an inventory entity.
type Citation struct {
	Type CitationType `json:"type"`
	ID   string       `json:"id"`
}

// Finding is one key finding of an answer: an entity reference plus the
// reason it matters.
type Finding struct {
	Entity string `json:"entity"`
	Reason string `json:"reason"`
}

// Impact classifies the impact or breakage risk of a remediation step.
type Impact string

const (
	ImpactHigh   Impact = "HIGH"
	ImpactMedium Impact = "MEDIUM"
	ImpactLow    Impact = "LOW"
)

// RemediationStep is one actionable step of a remediation plan.
type RemediationStep struct {
	Title        string   `json:"title"`
	Impact       Impact   `json:"impact"`
	BreakageRisk Impact   `json:"breakage_risk"`
	Actions      []string `json:"actions"`
	Packages     []string `json:"packages"`
}

// Answer is the result of one ask call. Produced fresh per call, never persisted.
type Answer struct {
	ID          string            `json:"id"`
	ProjectID   string            `json:"project_id"`
	Question    string            `json:"question"`
	Markdown    string            `json:"answer_markdown"`
	KeyFindings []Finding         `json:"key_findings"`
	Remediation []RemediationStep `json:"remediation_plan"`
	Citations   []Citation        `json:"citations"`
	GeneratedAt time.Time         `json:"generated_at"`
}
