package catalog

// Canonical document type codes stored on document records.
const (
	CodeIDDocument  = "id_document"
	CodeSelfie      = "selfie"
	CodeMedicalCert = "medical_certificate"
	CodeDriversLic  = "drivers_license"
	CodePDPPermit   = "pdp_permit"
	CodeFirstAid    = "first_aid_certificate"
	CodePoliceClear = "police_clearance"
	CodeQualCert    = "qualification_certificate"
	CodeRefLetter   = "reference_letter"
	CodeOther       = "other"
)

var docTypeCodes = map[string]string{
	DocIDDocument:  CodeIDDocument,
	DocSelfie:      CodeSelfie,
	DocMedicalCert: CodeMedicalCert,
	DocDriversLic:  CodeDriversLic,
	DocPDPPermit:   CodePDPPermit,
	DocFirstAid:    CodeFirstAid,
	DocPoliceClear: CodePoliceClear,
	DocQualCert:    CodeQualCert,
	DocRefLetter:   CodeRefLetter,
}

// DocumentTypeCode maps a semantic document label to its canonical code.
// Unknown labels map to the generic "other" code, never an error.
func DocumentTypeCode(label string) string {
	if code, ok := docTypeCodes[label]; ok {
		return code
	}
	return CodeOther
}
