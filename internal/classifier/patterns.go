package classifier

import "github.com/caredocs/docintel/internal/domain"

// pattern is a case-insensitive keyword with a specificity weight. Weights
// above 2.0 mark phrases that essentially never appear outside their document
// type (e.g. "discharge disposition"); weights near 1.0 mark supporting
// vocabulary that co-occurs with the type but also shows up elsewhere.
type pattern struct {
	keyword string
	weight  float64
}

// typePatterns holds the per-type pattern tables. Keywords are stored
// lowercase; matching lowercases the document text once up front.
var typePatterns = map[domain.DocumentType][]pattern{
	domain.DocTypeLabResult: {
		{"reference range", 3.0},
		{"specimen", 2.0},
		{"laboratory report", 3.0},
		{"test name", 2.0},
		{"collected:", 2.0},
		{"wbc", 1.5},
		{"hemoglobin", 1.5},
		{"hematocrit", 1.5},
		{"platelet", 1.5},
		{"glucose", 1.0},
		{"creatinine", 1.5},
		{"mg/dl", 1.5},
		{"mmol/l", 1.5},
		{"abnormal", 1.0},
		{"result", 0.5},
	},
	domain.DocTypePrescription: {
		{"rx", 2.0},
		{"sig:", 3.0},
		{"dispense", 2.5},
		{"refills", 2.5},
		{"dea#", 3.0},
		{"dea number", 3.0},
		{"take one tablet", 2.0},
		{"pharmacy", 1.5},
		{"prescriber", 2.0},
		{"substitution permitted", 2.5},
		{"daw", 2.0},
		{"quantity", 1.0},
		{"tablet", 0.5},
		{"capsule", 0.5},
	},
	domain.DocTypeRadiologyReport: {
		{"impression:", 2.5},
		{"findings:", 2.0},
		{"technique:", 2.0},
		{"indication:", 1.5},
		{"comparison:", 2.0},
		{"x-ray", 2.0},
		{"ct scan", 2.0},
		{"mri", 2.0},
		{"ultrasound", 2.0},
		{"mammogram", 2.5},
		{"radiologist", 2.5},
		{"contrast", 1.5},
		{"no acute", 1.5},
	},
	domain.DocTypeDischargeSummary: {
		{"discharge summary", 3.0},
		{"discharge date", 2.5},
		{"admission date", 2.0},
		{"hospital course", 3.0},
		{"discharge disposition", 3.0},
		{"discharge diagnosis", 3.0},
		{"discharge medications", 2.5},
		{"discharge condition", 2.5},
		{"follow up", 1.0},
		{"admitting diagnosis", 2.5},
		{"attending physician", 1.5},
	},
	domain.DocTypeOperativeReport: {
		{"operative report", 3.0},
		{"preoperative diagnosis", 3.0},
		{"postoperative diagnosis", 3.0},
		{"procedure performed", 2.5},
		{"anesthesia", 2.0},
		{"estimated blood loss", 3.0},
		{"surgeon", 2.0},
		{"incision", 2.0},
		{"sutures", 1.5},
		{"specimen removed", 2.0},
		{"complications: none", 2.0},
	},
	domain.DocTypeConsultationNote: {
		{"consultation", 2.5},
		{"reason for consult", 3.0},
		{"referring physician", 2.0},
		{"consulting physician", 2.5},
		{"thank you for referring", 3.0},
		{"recommendations:", 2.0},
		{"impression and plan", 1.5},
		{"assessment", 1.0},
	},
	domain.DocTypeProgressNote: {
		{"progress note", 3.0},
		{"subjective:", 2.5},
		{"objective:", 2.5},
		{"assessment:", 1.5},
		{"plan:", 1.5},
		{"soap", 2.5},
		{"interval history", 2.0},
		{"follow-up visit", 1.5},
		{"vital signs", 1.0},
	},
	domain.DocTypePathologyReport: {
		{"pathology report", 3.0},
		{"surgical pathology", 3.0},
		{"gross description", 3.0},
		{"microscopic description", 3.0},
		{"specimen source", 2.5},
		{"biopsy", 2.0},
		{"histologic", 2.5},
		{"margins", 2.0},
		{"carcinoma", 2.0},
		{"pathologist", 2.5},
		{"diagnosis:", 1.5},
	},
	domain.DocTypeHistoryAndPhysical: {
		{"history and physical", 3.0},
		{"chief complaint", 2.5},
		{"history of present illness", 2.5},
		{"past medical history", 2.0},
		{"review of systems", 2.5},
		{"family history", 1.5},
		{"social history", 1.5},
		{"physical exam", 2.0},
		{"allergies", 1.0},
		{"assessment and plan", 1.5},
	},
	domain.DocTypeImmunizationRecord: {
		{"immunization record", 3.0},
		{"vaccine", 2.5},
		{"vaccination", 2.5},
		{"lot number", 2.0},
		{"dose", 1.0},
		{"administered", 1.5},
		{"tdap", 2.5},
		{"mmr", 2.5},
		{"influenza", 2.0},
		{"hepatitis b", 2.0},
		{"vis date", 3.0},
	},
	domain.DocTypeInsuranceCard: {
		{"member id", 3.0},
		{"group number", 2.5},
		{"group #", 2.5},
		{"rxbin", 3.0},
		{"rx bin", 3.0},
		{"rxpcn", 3.0},
		{"copay", 2.5},
		{"effective date", 1.5},
		{"subscriber", 2.0},
		{"plan type", 2.0},
		{"customer service", 1.5},
		{"ppo", 2.0},
		{"hmo", 2.0},
	},
	domain.DocTypeReferralLetter: {
		{"referral", 2.5},
		{"i am referring", 3.0},
		{"please evaluate", 2.5},
		{"dear dr", 2.5},
		{"your evaluation", 2.0},
		{"clinical summary", 1.5},
		{"urgency", 1.5},
		{"appreciate your", 2.0},
	},
	domain.DocTypeMedicalBill: {
		{"statement", 1.5},
		{"amount due", 3.0},
		{"total charges", 3.0},
		{"account number", 2.0},
		{"balance", 2.0},
		{"insurance paid", 2.5},
		{"payment due", 2.5},
		{"cpt", 2.5},
		{"billing", 2.0},
		{"itemized", 2.0},
		{"date of service", 1.5},
		{"remit to", 2.5},
	},
}
