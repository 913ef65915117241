package domain

import "time"

// DocumentStatus represents the processing status of a document.
// Values follow the pipeline state machine: pending -> preprocessing ->
// ocr_in_progress -> extraction_in_progress -> completed | failed.
type DocumentStatus string

const (
	DocumentStatusPending    DocumentStatus = "pending"
	DocumentStatusPreprocess DocumentStatus = "preprocessing"
	DocumentStatusOCR        DocumentStatus = "ocr_in_progress"
	DocumentStatusExtraction DocumentStatus = "extraction_in_progress"
	DocumentStatusCompleted  DocumentStatus = "completed"
	DocumentStatusFailed     DocumentStatus = "failed"
)

// IsTerminal reports whether the status is a terminal pipeline state.
func (s DocumentStatus) IsTerminal() bool {
	return s == DocumentStatusCompleted || s == DocumentStatusFailed
}

// DocumentType is the closed set of supported medical document types.
type DocumentType string

const (
	DocTypeLabResult          DocumentType = "LAB_RESULT"
	DocTypePrescription       DocumentType = "PRESCRIPTION"
	DocTypeRadiologyReport    DocumentType = "RADIOLOGY_REPORT"
	DocTypeDischargeSummary   DocumentType = "DISCHARGE_SUMMARY"
	DocTypeOperativeReport    DocumentType = "OPERATIVE_REPORT"
	DocTypeConsultationNote   DocumentType = "CONSULTATION_NOTE"
	DocTypeProgressNote       DocumentType = "PROGRESS_NOTE"
	DocTypePathologyReport    DocumentType = "PATHOLOGY_REPORT"
	DocTypeHistoryAndPhysical DocumentType = "HISTORY_AND_PHYSICAL"
	DocTypeImmunizationRecord DocumentType = "IMMUNIZATION_RECORD"
	DocTypeInsuranceCard      DocumentType = "INSURANCE_CARD"
	DocTypeReferralLetter     DocumentType = "REFERRAL_LETTER"
	DocTypeMedicalBill        DocumentType = "MEDICAL_BILL"
	DocTypeUnknown            DocumentType = "UNKNOWN"
)

// AllDocumentTypes lists every supported type in stable enumeration order.
// Classification ties are broken by this order.
var AllDocumentTypes = []DocumentType{
	DocTypeLabResult,
	DocTypePrescription,
	DocTypeRadiologyReport,
	DocTypeDischargeSummary,
	DocTypeOperativeReport,
	DocTypeConsultationNote,
	DocTypeProgressNote,
	DocTypePathologyReport,
	DocTypeHistoryAndPhysical,
	DocTypeImmunizationRecord,
	DocTypeInsuranceCard,
	DocTypeReferralLetter,
	DocTypeMedicalBill,
	DocTypeUnknown,
}

// IsValidDocumentType reports whether dt is one of the supported types.
func IsValidDocumentType(dt DocumentType) bool {
	for _, t := range AllDocumentTypes {
		if t == dt {
			return true
		}
	}
	return false
}

// Document represents an uploaded medical document and its pipeline state.
type Document struct {
	ID               string         `gorm:"type:text;primaryKey" json:"id"`
	FileName         string         `gorm:"type:text;not null" json:"file_name"`
	MimeType         string         `gorm:"type:text;not null" json:"mime_type"`
	StorageKey       string         `gorm:"type:text;not null" json:"storage_key"`
	FileSize         int64          `gorm:"default:0" json:"file_size"`
	UserProvidedType DocumentType   `gorm:"type:text" json:"user_provided_type,omitempty"`
	DocumentType     DocumentType   `gorm:"type:text" json:"document_type,omitempty"`
	Status           DocumentStatus `gorm:"default:pending;index" json:"status"`
	Progress         int            `gorm:"default:0" json:"progress"`
	RetryCount       int            `gorm:"default:0" json:"retry_count"`
	ErrorMessage     string         `gorm:"type:text" json:"error_message,omitempty"`
	RequiresReview   bool           `gorm:"default:false" json:"requires_review"`
	CreatedAt        time.Time      `json:"created_at"`
	UpdatedAt        time.Time      `json:"updated_at"`
}

// TableName returns the database table name for Document.
func (Document) TableName() string {
	return "documents"
}
