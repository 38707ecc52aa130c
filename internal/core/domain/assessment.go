package domain

// SecurityAssessment is the outcome of the policy check (rate limits,
// anomaly patterns). Produced fresh per request, never persisted here.
type SecurityAssessment struct {
	IsSecure  bool
	RiskLevel RiskLevel
	Warnings  []string
	Blockers  []string
}

// FraudAssessment is the outcome of fraud scoring, independent of the
// security check above.
type FraudAssessment struct {
	IsFraudulent         bool     `json:"is_fraudulent"`
	RiskScore            int      `json:"risk_score"` // 0-100
	Reasons              []string `json:"reasons"`
	RequiresManualReview bool     `json:"requires_manual_review"`
}
