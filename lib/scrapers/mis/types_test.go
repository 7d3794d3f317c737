package mis

import (
	"testing"

	"misattend/lib/browser"

	"github.com/stretchr/testify/require"
)

func TestPortalValidateWaitPolicy(t *testing.T) {
	portal := testPortal()
	require.NoError(t, portal.Validate())

	portal.Wait = browser.WaitNetworkIdle
	require.NoError(t, portal.Validate())

	portal.Wait = "networkidle"
	require.ErrorContains(t, portal.Validate(), `unknown wait policy "networkidle"`)
}

func TestLayoutValidate(t *testing.T) {
	require.ErrorIs(t, Layout{}.WithDefaults().Validate(), ErrEmptyCatalog)
	require.NoError(t, Layout{Subjects: []string{"DSS"}}.WithDefaults().Validate())

	layout := Layout{Subjects: []string{"DSS"}}.WithDefaults()
	layout.Percentage.Section = "footer"
	require.ErrorIs(t, layout.Validate(), ErrInvalidLayout)
}
