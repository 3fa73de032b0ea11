// Package catalog holds the static job-category and job-title catalog the
// registration flow selects from, including each title's ordered
// required-document checklist and the mapping from document labels to the
// canonical codes stored on document records.
package catalog

// Category groups job titles presented as a WhatsApp list section.
type Category struct {
	ID     string
	Name   string
	Titles []Title
}

// Title is a selectable job title. RequiredDocuments is ordered; the upload
// queue and the stored records preserve this order.
type Title struct {
	ID                string
	Name              string
	RequiredDocuments []string
}

const (
	DocIDDocument  = "ID Document"
	DocSelfie      = "Selfie"
	DocMedicalCert = "Medical Certificate"
	DocDriversLic  = "Driver's License"
	DocPDPPermit   = "PDP Permit"
	DocFirstAid    = "First Aid Certificate"
	DocPoliceClear = "Police Clearance"
	DocQualCert    = "Qualification Certificate"
	DocRefLetter   = "Reference Letter"
)

var categories = []Category{
	{
		ID:   "cat_domestic",
		Name: "Domestic & Cleaning",
		Titles: []Title{
			{ID: "title_domestic_worker", Name: "Domestic Worker", RequiredDocuments: []string{DocRefLetter}},
			{ID: "title_cleaner", Name: "Cleaner", RequiredDocuments: nil},
			{ID: "title_gardener", Name: "Gardener", RequiredDocuments: nil},
		},
	},
	{
		ID:   "cat_care",
		Name: "Care & Health",
		Titles: []Title{
			{ID: "title_caregiver", Name: "Caregiver", RequiredDocuments: []string{DocFirstAid, DocPoliceClear}},
			{ID: "title_nanny", Name: "Nanny / Au Pair", RequiredDocuments: []string{DocFirstAid, DocPoliceClear, DocRefLetter}},
			{ID: "title_nurse_aide", Name: "Nursing Assistant", RequiredDocuments: []string{DocQualCert, DocMedicalCert}},
		},
	},
	{
		ID:   "cat_driving",
		Name: "Driving & Delivery",
		Titles: []Title{
			{ID: "title_driver", Name: "Driver", RequiredDocuments: []string{DocDriversLic}},
			{ID: "title_pdp_driver", Name: "Professional Driver (PDP)", RequiredDocuments: []string{DocDriversLic, DocPDPPermit}},
			{ID: "title_courier", Name: "Courier", RequiredDocuments: []string{DocDriversLic}},
		},
	},
	{
		ID:   "cat_security",
		Name: "Security",
		Titles: []Title{
			{ID: "title_security_guard", Name: "Security Guard", RequiredDocuments: []string{DocQualCert, DocPoliceClear}},
		},
	},
	{
		ID:   "cat_construction",
		Name: "Construction & Trades",
		Titles: []Title{
			{ID: "title_general_worker", Name: "General Worker", RequiredDocuments: nil},
			{ID: "title_electrician", Name: "Electrician", RequiredDocuments: []string{DocQualCert}},
			{ID: "title_plumber", Name: "Plumber", RequiredDocuments: []string{DocQualCert}},
		},
	},
}

// Categories returns the full catalog in declaration order.
func Categories() []Category {
	return categories
}

// CategoryByID looks a category up by its list-row ID.
func CategoryByID(id string) (Category, bool) {
	for _, c := range categories {
		if c.ID == id {
			return c, true
		}
	}
	return Category{}, false
}

// TitleByID looks a title up across all categories.
func TitleByID(id string) (Title, bool) {
	for _, c := range categories {
		for _, t := range c.Titles {
			if t.ID == id {
				return t, true
			}
		}
	}
	return Title{}, false
}
