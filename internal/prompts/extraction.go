package prompts

import "fmt"

// ============================================================================
// Extraction Prompts (LLM structured extraction)
// ============================================================================

// ExtractionSystemPrompt defines the role and rules for structured field
// extraction. The per-type target schema is injected into the user message.
//
// Output format: a single JSON object, no markdown code block.
//
// JSON Schema:
//
//	{
//	  "extracted_data": { ...matches the target schema... },
//	  "field_confidences": {"patient.name": 0.95, ...},
//	  "extraction_notes": "optional free-text caveats"
//	}
const ExtractionSystemPrompt = `You are a medical document extraction assistant. You receive OCR output from a scanned medical document and a target JSON schema, and you fill in the schema from the document text.

[Rules]
1. Copy values as they literally appear in the document. Do not paraphrase, infer, or compute values that are not printed.
2. If a field is not present in the document, use an empty string "" (or empty array [] for lists). Never invent data.
3. OCR text may contain recognition errors. When a value is garbled but recoverable from context (e.g. "O" vs "0" in a date), use the corrected value and lower its confidence.
4. Tables in the input are rendered as markdown. Treat the first row as the header row.
5. Key-value pairs detected by OCR are listed as "key: value" lines after the main text. Prefer them for form fields.
6. field_confidences maps dotted field paths (e.g. "patient.name", "patient.dateOfBirth") to your confidence 0.0-1.0 that the value is correct. Include an entry for every non-empty leaf field you extracted.
7. Dates may be copied in the format they appear; they are normalized downstream.
8. Output a single JSON object with keys "extracted_data", "field_confidences", and optionally "extraction_notes". No markdown code block, no commentary.`

// extractionUserTemplate renders the per-document extraction request.
const extractionUserTemplate = `[Document Type]
%s

[Target Schema]
extracted_data must match this shape exactly (keys are camelCase):
%s

[Document Content]
%s

Respond with the JSON object only.`

// extractionSchemas holds the per-type target schema shown to the model. Keys
// are document type names; the UNKNOWN entry is the free-form fallback shape.
var extractionSchemas = map[string]string{
	"LAB_RESULT": `{
  "patient": {"name": "", "dateOfBirth": "", "gender": "", "mrn": ""},
  "provider": {"name": "", "npi": "", "specialty": ""},
  "facility": {"name": "", "address": "", "phone": ""},
  "collectionDate": "",
  "reportDate": "",
  "panels": [
    {"name": "panel name e.g. CBC",
     "results": [{"testName": "", "value": "", "unit": "", "referenceRange": "", "flag": "H|L|A|normal flag as printed"}]}
  ]
}`,
	"PRESCRIPTION": `{
  "patient": {"name": "", "dateOfBirth": "", "gender": "", "mrn": ""},
  "prescriber": {"name": "", "npi": "", "specialty": ""},
  "pharmacy": {"name": "", "address": "", "phone": ""},
  "dateWritten": "",
  "medications": [
    {"name": "", "strength": "", "dosage": "", "route": "", "frequency": "", "quantity": "", "refills": "", "instructions": ""}
  ]
}`,
	"RADIOLOGY_REPORT": `{
  "patient": {"name": "", "dateOfBirth": "", "gender": "", "mrn": ""},
  "radiologist": {"name": "", "npi": "", "specialty": ""},
  "facility": {"name": "", "address": "", "phone": ""},
  "studyDate": "",
  "studyType": "e.g. CHEST X-RAY, CT ABDOMEN",
  "laterality": "LEFT|RIGHT|BILATERAL if stated",
  "indication": "",
  "technique": "",
  "findings": "",
  "impression": ""
}`,
	"DISCHARGE_SUMMARY": `{
  "patient": {"name": "", "dateOfBirth": "", "gender": "", "mrn": ""},
  "attendingProvider": {"name": "", "npi": "", "specialty": ""},
  "facility": {"name": "", "address": "", "phone": ""},
  "admissionDate": "",
  "dischargeDate": "",
  "admissionSource": "e.g. emergency department, transfer",
  "dischargeDisposition": "",
  "dischargeCondition": "e.g. stable, improved",
  "admittingDiagnosis": "",
  "dischargeDiagnoses": [""],
  "hospitalCourse": "",
  "dischargeMedications": [
    {"name": "", "strength": "", "dosage": "", "route": "", "frequency": "", "quantity": "", "refills": "", "instructions": ""}
  ],
  "followUpInstructions": ""
}`,
	"OPERATIVE_REPORT": `{
  "patient": {"name": "", "dateOfBirth": "", "gender": "", "mrn": ""},
  "surgeon": {"name": "", "npi": "", "specialty": ""},
  "facility": {"name": "", "address": "", "phone": ""},
  "procedureDate": "",
  "preoperativeDiagnosis": "",
  "postoperativeDiagnosis": "",
  "procedurePerformed": "",
  "anesthesia": "",
  "findings": "",
  "complications": "",
  "estimatedBloodLoss": ""
}`,
	"CONSULTATION_NOTE": `{
  "patient": {"name": "", "dateOfBirth": "", "gender": "", "mrn": ""},
  "consultingProvider": {"name": "", "npi": "", "specialty": ""},
  "referringProvider": {"name": "", "npi": "", "specialty": ""},
  "facility": {"name": "", "address": "", "phone": ""},
  "consultDate": "",
  "reasonForConsult": "",
  "historyOfPresentIllness": "",
  "assessment": "",
  "recommendations": ""
}`,
	"PROGRESS_NOTE": `{
  "patient": {"name": "", "dateOfBirth": "", "gender": "", "mrn": ""},
  "provider": {"name": "", "npi": "", "specialty": ""},
  "noteDate": "",
  "subjective": "",
  "objective": "",
  "assessment": "",
  "plan": ""
}`,
	"PATHOLOGY_REPORT": `{
  "patient": {"name": "", "dateOfBirth": "", "gender": "", "mrn": ""},
  "pathologist": {"name": "", "npi": "", "specialty": ""},
  "facility": {"name": "", "address": "", "phone": ""},
  "collectionDate": "",
  "reportDate": "",
  "specimenSource": "",
  "grossDescription": "",
  "microscopicDescription": "",
  "diagnosis": ""
}`,
	"HISTORY_AND_PHYSICAL": `{
  "patient": {"name": "", "dateOfBirth": "", "gender": "", "mrn": ""},
  "provider": {"name": "", "npi": "", "specialty": ""},
  "facility": {"name": "", "address": "", "phone": ""},
  "visitDate": "",
  "chiefComplaint": "",
  "historyOfPresentIllness": "",
  "pastMedicalHistory": [""],
  "medications": [
    {"name": "", "strength": "", "dosage": "", "route": "", "frequency": "", "quantity": "", "refills": "", "instructions": ""}
  ],
  "allergies": [""],
  "physicalExam": "",
  "assessment": "",
  "plan": ""
}`,
	"IMMUNIZATION_RECORD": `{
  "patient": {"name": "", "dateOfBirth": "", "gender": "", "mrn": ""},
  "provider": {"name": "", "npi": "", "specialty": ""},
  "facility": {"name": "", "address": "", "phone": ""},
  "immunizations": [
    {"vaccine": "", "date": "", "lotNumber": "", "site": "", "route": "", "administrator": ""}
  ]
}`,
	"INSURANCE_CARD": `{
  "patient": {"name": "", "dateOfBirth": "", "gender": "", "mrn": ""},
  "insurer": "",
  "planName": "",
  "memberId": "",
  "groupNumber": "",
  "effectiveDate": "",
  "copayInfo": "",
  "rxBin": "",
  "rxPcn": "",
  "customerServicePhone": ""
}`,
	"REFERRAL_LETTER": `{
  "patient": {"name": "", "dateOfBirth": "", "gender": "", "mrn": ""},
  "referringProvider": {"name": "", "npi": "", "specialty": ""},
  "receivingProvider": {"name": "", "npi": "", "specialty": ""},
  "referralDate": "",
  "reason": "",
  "clinicalSummary": "",
  "urgency": "e.g. routine, urgent, stat"
}`,
	"MEDICAL_BILL": `{
  "patient": {"name": "", "dateOfBirth": "", "gender": "", "mrn": ""},
  "facility": {"name": "", "address": "", "phone": ""},
  "statementDate": "",
  "accountNumber": "",
  "serviceDates": [""],
  "lineItems": [
    {"date": "", "description": "", "code": "CPT/HCPCS code if printed", "charge": ""}
  ],
  "totalCharges": "",
  "insurancePaid": "",
  "amountDue": ""
}`,
	"UNKNOWN": `{
  "summary": "2-3 sentence summary of the document",
  "keyFindings": [""],
  "dates": ["any dates found, as printed"]
}`,
}

// BuildExtractionUserPrompt renders the user message for structured
// extraction. Unrecognized types fall back to the UNKNOWN free-form schema.
//
// Parameters:
//   - docType: the classified document type name
//   - content: OCR text plus rendered tables and key-value lines
func BuildExtractionUserPrompt(docType, content string) string {
	schema, ok := extractionSchemas[docType]
	if !ok {
		schema = extractionSchemas["UNKNOWN"]
	}
	return fmt.Sprintf(extractionUserTemplate, docType, schema, content)
}
