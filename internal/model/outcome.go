package model

// ResearchOutcome is the structured specification draft produced by research.
type ResearchOutcome struct {
	Specifications map[string]string
	Manufacturer   string
	Model          string
	ProductType    string
	Sources        []string
	Confidence     float64
}

// Candidate is a possible OKPD2 code discovered for a product.
type Candidate struct {
	Code  string
	Name  string
	Level int // 0 means unknown; inferred from the code.
}

// AlternativeCode is a runner-up classification with its score.
type AlternativeCode struct {
	Code  string
	Name  string
	Score float64
}

// ClassificationOutcome is the selected OKPD2 code for a product.
type ClassificationOutcome struct {
	Code         string
	Name         string
	ParentCode   string
	Alternatives []AlternativeCode
	Level        int
	Confidence   float64
}

// ValidationOutcome is the accept/reject decision for a product.
type ValidationOutcome struct {
	RejectionReason string
	Issues          []string
	Suggestions     []string
	Valid           bool
}
