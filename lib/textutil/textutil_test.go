package textutil

import (
	"testing"

	"github.com/stretchr/testify/require"
)

var catalog = []string{"DSS", "DS-A", "DS-A Lab", "MAD", "MAD Lab", "TSW", "SPM"}

func TestNormalizeName(t *testing.T) {
	require.Equal(t, "ds-alab", NormalizeName("  DS-A\tLab\n"))
	require.Equal(t, "", NormalizeName(" \n"))
}

func TestMatchSubject(t *testing.T) {
	cases := []struct {
		query    string
		expected string
		ok       bool
	}{
		{query: "mad", expected: "MAD", ok: true},
		{query: "mad lab", expected: "MAD Lab", ok: true},
		{query: " ds-a  LAB ", expected: "DS-A Lab", ok: true},
		{query: "DS-A Lb", expected: "DS-A Lab", ok: true},
		{query: "xyz", ok: false},
		{query: "", ok: false},
	}

	for _, test := range cases {
		t.Run(test.query, func(t *testing.T) {
			subject, _, ok := MatchSubject(test.query, catalog, DefaultSubjectThreshold)
			require.Equal(t, test.ok, ok)
			require.Equal(t, test.expected, subject)
		})
	}
}

func TestMatchSubjectExactScore(t *testing.T) {
	_, score, ok := MatchSubject("TSW", catalog, DefaultSubjectThreshold)
	require.True(t, ok)
	require.Equal(t, float64(1), score)
}
