package classify

import (
	"testing"

	"github.com/Allen20077/8berries/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassifyChart(t *testing.T) {
	raw := `{"chartType":"bar","title":"X","labels":["a","b"],"data":[1,2]}`

	reply := Classify(raw)
	require.Equal(t, domain.KindChart, reply.Kind)
	require.NotNil(t, reply.Chart)
	assert.Equal(t, domain.ChartBar, reply.Chart.ChartType)
	assert.Equal(t, "X", reply.Chart.Title)
	assert.Equal(t, []string{"a", "b"}, reply.Chart.Labels)
	assert.Equal(t, []float64{1, 2}, reply.Chart.Data)
}

func TestClassifyPlainText(t *testing.T) {
	reply := Classify("Hello there")
	assert.Equal(t, domain.KindText, reply.Kind)
	assert.Equal(t, "Hello there", reply.Text)
	assert.Nil(t, reply.Chart)
}

func TestClassifyWhitespacePadding(t *testing.T) {
	raw := "\n  {\"chartType\":\"pie\",\"title\":\"P\",\"labels\":[],\"data\":[]}  \n"

	reply := Classify(raw)
	require.Equal(t, domain.KindChart, reply.Kind)
	assert.Empty(t, reply.Chart.Labels)
	assert.Empty(t, reply.Chart.Data)
}

func TestClassifyFallsBackToText(t *testing.T) {
	cases := []struct {
		name string
		raw  string
	}{
		{"mismatched lengths", `{"chartType":"bar","title":"X","labels":["a"],"data":[1,2]}`},
		{"unknown chart kind", `{"chartType":"scatter","title":"X","labels":["a"],"data":[1]}`},
		{"missing labels", `{"chartType":"bar","title":"X","data":[1]}`},
		{"null labels", `{"chartType":"bar","title":"X","labels":null,"data":[1]}`},
		{"labels not an array", `{"chartType":"bar","title":"X","labels":"a,b","data":[1,2]}`},
		{"data not numeric", `{"chartType":"bar","title":"X","labels":["a"],"data":["one"]}`},
		{"truncated json", `{"chartType":"bar","title":"X"`},
		{"trailing prose", `{"chartType":"bar","title":"X","labels":[],"data":[]} as requested`},
		{"json array", `[1,2,3]`},
		{"empty string", ""},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			reply := Classify(tc.raw)
			assert.Equal(t, domain.KindText, reply.Kind)
			assert.Equal(t, tc.raw, reply.Text, "fallback must preserve the raw input verbatim")
		})
	}
}
