package catalog

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCategoryAndTitleLookup(t *testing.T) {
	c, ok := CategoryByID("cat_driving")
	require.True(t, ok)
	require.Equal(t, "Driving & Delivery", c.Name)

	tt, ok := TitleByID("title_pdp_driver")
	require.True(t, ok)
	// checklist order is declaration order
	require.Equal(t, []string{DocDriversLic, DocPDPPermit}, tt.RequiredDocuments)

	_, ok = CategoryByID("cat_nope")
	require.False(t, ok)
	_, ok = TitleByID("title_nope")
	require.False(t, ok)
}

func TestTitlesWithoutRequiredDocuments(t *testing.T) {
	tt, ok := TitleByID("title_cleaner")
	require.True(t, ok)
	require.Empty(t, tt.RequiredDocuments)
}

func TestDocumentTypeCode(t *testing.T) {
	require.Equal(t, CodeDriversLic, DocumentTypeCode(DocDriversLic))
	require.Equal(t, CodeSelfie, DocumentTypeCode(DocSelfie))
	// unknown labels fall back to the generic code
	require.Equal(t, CodeOther, DocumentTypeCode("Scuba License"))
	require.Equal(t, CodeOther, DocumentTypeCode(""))
}

func TestCatalogRowLimits(t *testing.T) {
	// every category must fit in one WhatsApp list message (10 rows max)
	for _, c := range Categories() {
		require.LessOrEqual(t, len(c.Titles), 10, "category %s", c.ID)
	}
	require.LessOrEqual(t, len(Categories()), 10)
}
