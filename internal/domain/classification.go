package domain

// ClassificationMethod indicates how a document type was determined.
type ClassificationMethod string

const (
	ClassificationPatternMatch ClassificationMethod = "PATTERN_MATCH"
	ClassificationLLM          ClassificationMethod = "LLM"
)

// AlternativeType is a lower-ranked classification candidate.
type AlternativeType struct {
	DocumentType DocumentType `json:"document_type"`
	Confidence   float64      `json:"confidence"`
}

// ClassificationResult is the outcome of the document type classifier.
type ClassificationResult struct {
	DocumentType     DocumentType         `json:"document_type"`
	Confidence       float64              `json:"confidence"`
	Method           ClassificationMethod `json:"method"`
	AlternativeTypes []AlternativeType    `json:"alternative_types,omitempty"`
	MatchedPatterns  []string             `json:"matched_patterns,omitempty"`
	Reasoning        string               `json:"reasoning,omitempty"`
}
