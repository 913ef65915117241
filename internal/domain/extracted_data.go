package domain

import (
	"encoding/json"
	"fmt"
)

// ExtractedData is the tagged union of per-type extraction payloads.
// Each variant embeds ExtractionMetadata and knows its own document type.
type ExtractedData interface {
	DocType() DocumentType
	Meta() *ExtractionMetadata
}

// Shared sub-objects. The LLM is prompted to emit these shapes with camelCase
// keys, so the json tags here are the canonical field paths used for required
// field checks and confidence maps (e.g. "patient.name").

// PatientInfo identifies the patient a document refers to.
type PatientInfo struct {
	Name        string `json:"name"`
	DateOfBirth string `json:"dateOfBirth,omitempty"`
	Gender      string `json:"gender,omitempty"`
	MRN         string `json:"mrn,omitempty"`
}

// ProviderInfo identifies a clinician.
type ProviderInfo struct {
	Name      string `json:"name"`
	NPI       string `json:"npi,omitempty"`
	Specialty string `json:"specialty,omitempty"`
}

// FacilityInfo identifies a clinical facility.
type FacilityInfo struct {
	Name    string `json:"name"`
	Address string `json:"address,omitempty"`
	Phone   string `json:"phone,omitempty"`
}

// LabObservation is a single test result row.
type LabObservation struct {
	TestName       string `json:"testName"`
	Value          string `json:"value"`
	Unit           string `json:"unit,omitempty"`
	ReferenceRange string `json:"referenceRange,omitempty"`
	Flag           string `json:"flag,omitempty"`
}

// LabPanel groups observations under a panel name (CBC, BMP, ...).
type LabPanel struct {
	Name    string           `json:"name"`
	Results []LabObservation `json:"results"`
}

// Medication is a prescribed or administered drug.
type Medication struct {
	Name         string `json:"name"`
	Strength     string `json:"strength,omitempty"`
	Dosage       string `json:"dosage,omitempty"`
	Route        string `json:"route,omitempty"`
	Frequency    string `json:"frequency,omitempty"`
	Quantity     string `json:"quantity,omitempty"`
	Refills      string `json:"refills,omitempty"`
	Instructions string `json:"instructions,omitempty"`
}

// Immunization is a single administered vaccine entry.
type Immunization struct {
	Vaccine       string `json:"vaccine"`
	Date          string `json:"date,omitempty"`
	LotNumber     string `json:"lotNumber,omitempty"`
	Site          string `json:"site,omitempty"`
	Route         string `json:"route,omitempty"`
	Administrator string `json:"administrator,omitempty"`
}

// BillLineItem is one charge row on a medical bill.
type BillLineItem struct {
	Date        string `json:"date,omitempty"`
	Description string `json:"description"`
	Code        string `json:"code,omitempty"`
	Charge      string `json:"charge,omitempty"`
}

// LabResultData is the payload for LAB_RESULT documents.
type LabResultData struct {
	Patient        PatientInfo        `json:"patient"`
	Provider       ProviderInfo       `json:"provider"`
	Facility       FacilityInfo       `json:"facility"`
	CollectionDate string             `json:"collectionDate,omitempty"`
	ReportDate     string             `json:"reportDate,omitempty"`
	Panels         []LabPanel         `json:"panels"`
	Metadata       ExtractionMetadata `json:"metadata"`
}

func (d *LabResultData) DocType() DocumentType     { return DocTypeLabResult }
func (d *LabResultData) Meta() *ExtractionMetadata { return &d.Metadata }

// PrescriptionData is the payload for PRESCRIPTION documents.
type PrescriptionData struct {
	Patient     PatientInfo        `json:"patient"`
	Prescriber  ProviderInfo       `json:"prescriber"`
	Pharmacy    FacilityInfo       `json:"pharmacy"`
	DateWritten string             `json:"dateWritten,omitempty"`
	Medications []Medication       `json:"medications"`
	Metadata    ExtractionMetadata `json:"metadata"`
}

func (d *PrescriptionData) DocType() DocumentType     { return DocTypePrescription }
func (d *PrescriptionData) Meta() *ExtractionMetadata { return &d.Metadata }

// RadiologyReportData is the payload for RADIOLOGY_REPORT documents.
type RadiologyReportData struct {
	Patient     PatientInfo        `json:"patient"`
	Radiologist ProviderInfo       `json:"radiologist"`
	Facility    FacilityInfo       `json:"facility"`
	StudyDate   string             `json:"studyDate,omitempty"`
	StudyType   string             `json:"studyType"`
	Laterality  string             `json:"laterality,omitempty"`
	Indication  string             `json:"indication,omitempty"`
	Technique   string             `json:"technique,omitempty"`
	Findings    string             `json:"findings,omitempty"`
	Impression  string             `json:"impression"`
	Metadata    ExtractionMetadata `json:"metadata"`
}

func (d *RadiologyReportData) DocType() DocumentType     { return DocTypeRadiologyReport }
func (d *RadiologyReportData) Meta() *ExtractionMetadata { return &d.Metadata }

// DischargeSummaryData is the payload for DISCHARGE_SUMMARY documents.
type DischargeSummaryData struct {
	Patient               PatientInfo        `json:"patient"`
	AttendingProvider     ProviderInfo       `json:"attendingProvider"`
	Facility              FacilityInfo       `json:"facility"`
	AdmissionDate         string             `json:"admissionDate"`
	DischargeDate         string             `json:"dischargeDate"`
	AdmissionSource       string             `json:"admissionSource,omitempty"`
	DischargeDisposition  string             `json:"dischargeDisposition,omitempty"`
	DischargeCondition    string             `json:"dischargeCondition,omitempty"`
	AdmittingDiagnosis    string             `json:"admittingDiagnosis,omitempty"`
	DischargeDiagnoses    []string           `json:"dischargeDiagnoses,omitempty"`
	HospitalCourse        string             `json:"hospitalCourse,omitempty"`
	DischargeMedications  []Medication       `json:"dischargeMedications,omitempty"`
	FollowUpInstructions  string             `json:"followUpInstructions,omitempty"`
	Metadata              ExtractionMetadata `json:"metadata"`
}

func (d *DischargeSummaryData) DocType() DocumentType     { return DocTypeDischargeSummary }
func (d *DischargeSummaryData) Meta() *ExtractionMetadata { return &d.Metadata }

// OperativeReportData is the payload for OPERATIVE_REPORT documents.
type OperativeReportData struct {
	Patient                PatientInfo        `json:"patient"`
	Surgeon                ProviderInfo       `json:"surgeon"`
	Facility               FacilityInfo       `json:"facility"`
	ProcedureDate          string             `json:"procedureDate,omitempty"`
	PreoperativeDiagnosis  string             `json:"preoperativeDiagnosis,omitempty"`
	PostoperativeDiagnosis string             `json:"postoperativeDiagnosis,omitempty"`
	ProcedurePerformed     string             `json:"procedurePerformed"`
	Anesthesia             string             `json:"anesthesia,omitempty"`
	Findings               string             `json:"findings,omitempty"`
	Complications          string             `json:"complications,omitempty"`
	EstimatedBloodLoss     string             `json:"estimatedBloodLoss,omitempty"`
	Metadata               ExtractionMetadata `json:"metadata"`
}

func (d *OperativeReportData) DocType() DocumentType     { return DocTypeOperativeReport }
func (d *OperativeReportData) Meta() *ExtractionMetadata { return &d.Metadata }

// ConsultationNoteData is the payload for CONSULTATION_NOTE documents.
type ConsultationNoteData struct {
	Patient                 PatientInfo        `json:"patient"`
	ConsultingProvider      ProviderInfo       `json:"consultingProvider"`
	ReferringProvider       ProviderInfo       `json:"referringProvider"`
	Facility                FacilityInfo       `json:"facility"`
	ConsultDate             string             `json:"consultDate,omitempty"`
	ReasonForConsult        string             `json:"reasonForConsult"`
	HistoryOfPresentIllness string             `json:"historyOfPresentIllness,omitempty"`
	Assessment              string             `json:"assessment,omitempty"`
	Recommendations         string             `json:"recommendations,omitempty"`
	Metadata                ExtractionMetadata `json:"metadata"`
}

func (d *ConsultationNoteData) DocType() DocumentType     { return DocTypeConsultationNote }
func (d *ConsultationNoteData) Meta() *ExtractionMetadata { return &d.Metadata }

// ProgressNoteData is the payload for PROGRESS_NOTE documents (SOAP shape).
type ProgressNoteData struct {
	Patient    PatientInfo        `json:"patient"`
	Provider   ProviderInfo       `json:"provider"`
	NoteDate   string             `json:"noteDate,omitempty"`
	Subjective string             `json:"subjective,omitempty"`
	Objective  string             `json:"objective,omitempty"`
	Assessment string             `json:"assessment"`
	Plan       string             `json:"plan,omitempty"`
	Metadata   ExtractionMetadata `json:"metadata"`
}

func (d *ProgressNoteData) DocType() DocumentType     { return DocTypeProgressNote }
func (d *ProgressNoteData) Meta() *ExtractionMetadata { return &d.Metadata }

// PathologyReportData is the payload for PATHOLOGY_REPORT documents.
type PathologyReportData struct {
	Patient                PatientInfo        `json:"patient"`
	Pathologist            ProviderInfo       `json:"pathologist"`
	Facility               FacilityInfo       `json:"facility"`
	CollectionDate         string             `json:"collectionDate,omitempty"`
	ReportDate             string             `json:"reportDate,omitempty"`
	SpecimenSource         string             `json:"specimenSource,omitempty"`
	GrossDescription       string             `json:"grossDescription,omitempty"`
	MicroscopicDescription string             `json:"microscopicDescription,omitempty"`
	Diagnosis              string             `json:"diagnosis"`
	Metadata               ExtractionMetadata `json:"metadata"`
}

func (d *PathologyReportData) DocType() DocumentType     { return DocTypePathologyReport }
func (d *PathologyReportData) Meta() *ExtractionMetadata { return &d.Metadata }

// HistoryAndPhysicalData is the payload for HISTORY_AND_PHYSICAL documents.
type HistoryAndPhysicalData struct {
	Patient                 PatientInfo        `json:"patient"`
	Provider                ProviderInfo       `json:"provider"`
	Facility                FacilityInfo       `json:"facility"`
	VisitDate               string             `json:"visitDate,omitempty"`
	ChiefComplaint          string             `json:"chiefComplaint"`
	HistoryOfPresentIllness string             `json:"historyOfPresentIllness,omitempty"`
	PastMedicalHistory      []string           `json:"pastMedicalHistory,omitempty"`
	Medications             []Medication       `json:"medications,omitempty"`
	Allergies               []string           `json:"allergies,omitempty"`
	PhysicalExam            string             `json:"physicalExam,omitempty"`
	Assessment              string             `json:"assessment,omitempty"`
	Plan                    string             `json:"plan,omitempty"`
	Metadata                ExtractionMetadata `json:"metadata"`
}

func (d *HistoryAndPhysicalData) DocType() DocumentType     { return DocTypeHistoryAndPhysical }
func (d *HistoryAndPhysicalData) Meta() *ExtractionMetadata { return &d.Metadata }

// ImmunizationRecordData is the payload for IMMUNIZATION_RECORD documents.
type ImmunizationRecordData struct {
	Patient       PatientInfo        `json:"patient"`
	Provider      ProviderInfo       `json:"provider"`
	Facility      FacilityInfo       `json:"facility"`
	Immunizations []Immunization     `json:"immunizations"`
	Metadata      ExtractionMetadata `json:"metadata"`
}

func (d *ImmunizationRecordData) DocType() DocumentType     { return DocTypeImmunizationRecord }
func (d *ImmunizationRecordData) Meta() *ExtractionMetadata { return &d.Metadata }

// InsuranceCardData is the payload for INSURANCE_CARD documents.
type InsuranceCardData struct {
	Patient              PatientInfo        `json:"patient"`
	Insurer              string             `json:"insurer"`
	PlanName             string             `json:"planName,omitempty"`
	MemberID             string             `json:"memberId"`
	GroupNumber          string             `json:"groupNumber,omitempty"`
	EffectiveDate        string             `json:"effectiveDate,omitempty"`
	CopayInfo            string             `json:"copayInfo,omitempty"`
	RxBin                string             `json:"rxBin,omitempty"`
	RxPCN                string             `json:"rxPcn,omitempty"`
	CustomerServicePhone string             `json:"customerServicePhone,omitempty"`
	Metadata             ExtractionMetadata `json:"metadata"`
}

func (d *InsuranceCardData) DocType() DocumentType     { return DocTypeInsuranceCard }
func (d *InsuranceCardData) Meta() *ExtractionMetadata { return &d.Metadata }

// ReferralLetterData is the payload for REFERRAL_LETTER documents.
type ReferralLetterData struct {
	Patient           PatientInfo        `json:"patient"`
	ReferringProvider ProviderInfo       `json:"referringProvider"`
	ReceivingProvider ProviderInfo       `json:"receivingProvider"`
	ReferralDate      string             `json:"referralDate,omitempty"`
	Reason            string             `json:"reason"`
	ClinicalSummary   string             `json:"clinicalSummary,omitempty"`
	Urgency           string             `json:"urgency,omitempty"`
	Metadata          ExtractionMetadata `json:"metadata"`
}

func (d *ReferralLetterData) DocType() DocumentType     { return DocTypeReferralLetter }
func (d *ReferralLetterData) Meta() *ExtractionMetadata { return &d.Metadata }

// MedicalBillData is the payload for MEDICAL_BILL documents.
type MedicalBillData struct {
	Patient       PatientInfo        `json:"patient"`
	Facility      FacilityInfo       `json:"facility"`
	StatementDate string             `json:"statementDate,omitempty"`
	AccountNumber string             `json:"accountNumber,omitempty"`
	ServiceDates  []string           `json:"serviceDates,omitempty"`
	LineItems     []BillLineItem     `json:"lineItems,omitempty"`
	TotalCharges  string             `json:"totalCharges"`
	InsurancePaid string             `json:"insurancePaid,omitempty"`
	AmountDue     string             `json:"amountDue,omitempty"`
	Metadata      ExtractionMetadata `json:"metadata"`
}

func (d *MedicalBillData) DocType() DocumentType     { return DocTypeMedicalBill }
func (d *MedicalBillData) Meta() *ExtractionMetadata { return &d.Metadata }

// UnknownDocumentData is the payload for documents that match no known type.
type UnknownDocumentData struct {
	Summary     string             `json:"summary,omitempty"`
	KeyFindings []string           `json:"keyFindings,omitempty"`
	Dates       []string           `json:"dates,omitempty"`
	Metadata    ExtractionMetadata `json:"metadata"`
}

func (d *UnknownDocumentData) DocType() DocumentType     { return DocTypeUnknown }
func (d *UnknownDocumentData) Meta() *ExtractionMetadata { return &d.Metadata }

// NewExtractedData returns a zero-value payload of the right variant for dt.
// All sub-objects are present but empty, so consumers always see a well-typed
// shape even when extraction produced nothing.
func NewExtractedData(dt DocumentType) ExtractedData {
	switch dt {
	case DocTypeLabResult:
		return &LabResultData{Panels: []LabPanel{}}
	case DocTypePrescription:
		return &PrescriptionData{Medications: []Medication{}}
	case DocTypeRadiologyReport:
		return &RadiologyReportData{}
	case DocTypeDischargeSummary:
		return &DischargeSummaryData{}
	case DocTypeOperativeReport:
		return &OperativeReportData{}
	case DocTypeConsultationNote:
		return &ConsultationNoteData{}
	case DocTypeProgressNote:
		return &ProgressNoteData{}
	case DocTypePathologyReport:
		return &PathologyReportData{}
	case DocTypeHistoryAndPhysical:
		return &HistoryAndPhysicalData{}
	case DocTypeImmunizationRecord:
		return &ImmunizationRecordData{Immunizations: []Immunization{}}
	case DocTypeInsuranceCard:
		return &InsuranceCardData{}
	case DocTypeReferralLetter:
		return &ReferralLetterData{}
	case DocTypeMedicalBill:
		return &MedicalBillData{LineItems: []BillLineItem{}}
	default:
		return &UnknownDocumentData{}
	}
}

// DecodeExtractedData unmarshals raw JSON into the variant matching dt.
func DecodeExtractedData(dt DocumentType, raw []byte) (ExtractedData, error) {
	data := NewExtractedData(dt)
	if err := json.Unmarshal(raw, data); err != nil {
		return nil, fmt.Errorf("failed to decode %s payload: %w", dt, err)
	}
	return data, nil
}
