package model

// DocumentType with UserID == "" is a built-in type visible to every user.
type DocumentType struct {
	ID          string     `json:"id"`
	UserID      string     `json:"user_id,omitempty"`
	Name        string     `json:"name"`
	Description string     `json:"description,omitempty"`
	RiskRules   []RiskRule `json:"risk_rules,omitempty"`
	Ctime       int64      `json:"ctime"`
	Mtime       int64      `json:"mtime"`
}

type RiskRule struct {
	Title       string `json:"title"`
	Severity    string `json:"severity"`
	Description string `json:"description"`
}
