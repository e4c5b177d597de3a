package model

// Ingestion progress states for a document. Transitions move strictly
// pending -> extracting -> analyzing -> completed, or to failed from any
// intermediate state.
const (
	ProgressPending    = "pending"
	ProgressExtracting = "extracting"
	ProgressAnalyzing  = "analyzing"
	ProgressCompleted  = "completed"
	ProgressFailed     = "failed"
)

type Document struct {
	ID             string `json:"id"`
	UserID         string `json:"user_id"`
	DocumentTypeID string `json:"document_type_id,omitempty"`
	Filename       string `json:"filename"`
	FilePath       string `json:"-"`
	AIProgress     string `json:"ai_progress"`
	Summary        string `json:"summary,omitempty"`
	RiskLevel      string `json:"risk_level,omitempty"`
	RiskReasoning  string `json:"risk_reasoning,omitempty"`
	Ctime          int64  `json:"ctime"`
	Mtime          int64  `json:"mtime"`
}
