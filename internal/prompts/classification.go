package prompts

import (
	"fmt"
	"strings"
)

// ============================================================================
// Shared Lexicons
// ============================================================================

// DocumentTypeNames is the closed set of document types the classifier may
// return. The order here matches the tie-break order used by pattern scoring.
var DocumentTypeNames = []string{
	"LAB_RESULT", "PRESCRIPTION", "RADIOLOGY_REPORT", "DISCHARGE_SUMMARY",
	"OPERATIVE_REPORT", "CONSULTATION_NOTE", "PROGRESS_NOTE", "PATHOLOGY_REPORT",
	"HISTORY_AND_PHYSICAL", "IMMUNIZATION_RECORD", "INSURANCE_CARD",
	"REFERRAL_LETTER", "MEDICAL_BILL", "UNKNOWN",
}

// ============================================================================
// Classification Prompts (LLM fallback)
// ============================================================================

// ClassificationSystemPrompt defines the role and rules for LLM-based document
// type classification. Used only when pattern matching is not confident.
//
// Output format: a single JSON object, no markdown code block.
//
// JSON Schema:
//
//	{
//	  "document_type": "one of the known type names",
//	  "confidence": 0.0-1.0,
//	  "reasoning": "1-2 sentences",
//	  "alternative_types": [
//	    {"document_type": "...", "confidence": 0.0-1.0}
//	  ]
//	}
const ClassificationSystemPrompt = `You are a medical document classification assistant. Your task is to classify the text of a scanned medical document into exactly one document type.

[Allowed Types]
- LAB_RESULT: laboratory test results (CBC, metabolic panels, urinalysis, cultures)
- PRESCRIPTION: medication orders written by a prescriber for a pharmacy
- RADIOLOGY_REPORT: imaging study reports (X-ray, CT, MRI, ultrasound, mammogram)
- DISCHARGE_SUMMARY: hospital discharge summaries covering an inpatient stay
- OPERATIVE_REPORT: surgical procedure reports dictated by the surgeon
- CONSULTATION_NOTE: specialist consultation notes answering a referral question
- PROGRESS_NOTE: routine clinical progress notes, often in SOAP format
- PATHOLOGY_REPORT: tissue/specimen pathology reports with a diagnosis
- HISTORY_AND_PHYSICAL: admission or intake H&P documents
- IMMUNIZATION_RECORD: vaccine administration records
- INSURANCE_CARD: health insurance member ID cards
- REFERRAL_LETTER: letters referring a patient to another provider
- MEDICAL_BILL: billing statements, itemized charges, EOB-style statements
- UNKNOWN: none of the above fits

[Rules]
1. Pick exactly one type from the list. Never invent a new type name.
2. If the document mixes types (e.g. labs quoted inside a discharge summary), classify by the document's overall purpose, not by quoted fragments.
3. Confidence reflects how certain you are: 0.9+ only when the type is unambiguous.
4. List up to 3 alternative_types when other types are plausible, ordered by confidence.
5. Output a single JSON object and nothing else. No markdown code block.

[JSON Schema]
{
  "document_type": "LAB_RESULT",
  "confidence": 0.92,
  "reasoning": "1-2 sentences explaining the decision",
  "alternative_types": [
    {"document_type": "PATHOLOGY_REPORT", "confidence": 0.05}
  ]
}

[Examples]

Input: "SPECIMEN: Whole blood ... WBC 7.2 x10^3/uL (4.0-11.0) ... HGB 13.1 g/dL LOW ... Reference ranges apply to adults."
Output: {"document_type":"LAB_RESULT","confidence":0.95,"reasoning":"Tabular test results with values, units, and reference ranges are characteristic of a laboratory report.","alternative_types":[]}

Input: "Rx: Lisinopril 10mg, Sig: one tablet PO daily, Disp: #30, Refills: 3, DEA# ..."
Output: {"document_type":"PRESCRIPTION","confidence":0.97,"reasoning":"Sig, dispense quantity, refills, and a DEA number identify a prescription.","alternative_types":[]}

Input: "CHIEF COMPLAINT: chest pain. HPI: 58yo male ... PAST MEDICAL HISTORY ... PHYSICAL EXAM ... ASSESSMENT AND PLAN ..."
Output: {"document_type":"HISTORY_AND_PHYSICAL","confidence":0.85,"reasoning":"Chief complaint, HPI, PMH, and exam sections follow the standard H&P structure.","alternative_types":[{"document_type":"CONSULTATION_NOTE","confidence":0.10},{"document_type":"PROGRESS_NOTE","confidence":0.05}]}

Now classify the following document text:`

// classificationUserTemplate wraps the OCR text. Long documents are truncated
// upstream before being embedded here.
const classificationUserTemplate = `[Document Text]
%s

Respond with the JSON object only.`

// BuildClassificationUserPrompt renders the user message for classification.
//
// Parameters:
//   - text: the OCR'd document text (caller truncates to a safe length)
//   - userHint: the uploader's claimed type, or "" when none was given
func BuildClassificationUserPrompt(text, userHint string) string {
	var b strings.Builder
	if userHint != "" {
		fmt.Fprintf(&b, "[Uploader Hint]\nThe uploader labeled this document as %s. Treat this as a hint, not ground truth.\n\n", userHint)
	}
	fmt.Fprintf(&b, classificationUserTemplate, text)
	return b.String()
}
