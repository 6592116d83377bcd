package distribution

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/volforecast/go-volatility/errkind"
)

func TestParseKind(t *testing.T) {
	testData := map[string]struct {
		name     string
		expected Kind
		err      error
	}{
		"empty defaults to normal": {name: "", expected: Normal},
		"normal":                   {name: "Normal", expected: Normal},
		"students t":               {name: "t", expected: StudentsT},
		"skew t":                   {name: "skewt", expected: SkewStudent},
		"ged":                      {name: " GED ", expected: GED},
		"unknown":                  {name: "cauchy", err: errkind.ErrInput},
	}

	for name, td := range testData {
		t.Run(name, func(t *testing.T) {
			k, err := ParseKind(td.name)
			if td.err != nil {
				assert.ErrorIs(t, err, td.err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, td.expected, k)
		})
	}
}

func TestNew(t *testing.T) {
	d, err := New(Normal)
	require.NoError(t, err)
	assert.Equal(t, Normal, d.Kind())

	for _, k := range []Kind{StudentsT, SkewStudent, GED} {
		_, err := New(k)
		assert.ErrorIs(t, err, errkind.ErrUnsupportedDistribution, string(k))
	}

	_, err = New(Kind("laplace"))
	assert.ErrorIs(t, err, errkind.ErrInput)
}

func TestNormalDist(t *testing.T) {
	d := NormalDist{}

	// standard normal density at zero
	assert.InDelta(t, -0.5*math.Log(2*math.Pi), d.LogPDF(0, 1), 1e-12)
	assert.InDelta(t, -0.5*math.Log(2*math.Pi)-0.5*math.Log(4)-0.5*9.0/4.0, d.LogPDF(3, 4), 1e-12)

	assert.InDelta(t, -1.6448536269514722, d.Quantile(0.05), 1e-9)
	assert.InDelta(t, -2.3263478740408408, d.Quantile(0.01), 1e-9)

	// E[z | z <= q_0.05] for the standard normal
	assert.InDelta(t, -2.0627128075074257, d.TailMean(0.05), 1e-9)
}
