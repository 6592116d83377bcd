package volatility

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/volforecast/go-volatility/params"
	"github.com/volforecast/go-volatility/timedataset"
)

func TestFitMany(t *testing.T) {
	series := make(map[string]*timedataset.TimeDataset)
	for i := range 4 {
		series[fmt.Sprintf("series-%d", i)] = simulatedDataset(t, 600, uint64(100+i))
	}

	testData := map[string]struct {
		parallelization int
	}{
		"unbounded": {
			parallelization: 0,
		},
		"sequential": {
			parallelization: 1,
		},
		"two at a time": {
			parallelization: 2,
		},
		"more than series": {
			parallelization: 10,
		},
	}

	for name, td := range testData {
		t.Run(name, func(t *testing.T) {
			models, err := FitMany(context.Background(), series, params.NewDefaultModelSpec(), &Options{Parallelization: td.parallelization})
			require.NoError(t, err)
			require.Len(t, models, len(series))

			for name, data := range series {
				m, ok := models[name]
				require.True(t, ok, name)

				single, err := Fit(data, params.NewDefaultModelSpec(), nil)
				require.NoError(t, err)

				expected, err := single.Params()
				require.NoError(t, err)
				actual, err := m.Params()
				require.NoError(t, err)
				assert.Equal(t, expected, actual, name)
			}
		})
	}
}

func TestFitManyErrors(t *testing.T) {
	t.Run("empty", func(t *testing.T) {
		models, err := FitMany(context.Background(), nil, params.NewDefaultModelSpec(), nil)
		require.NoError(t, err)
		assert.Empty(t, models)
	})

	t.Run("one series too short", func(t *testing.T) {
		series := map[string]*timedataset.TimeDataset{
			"long":  simulatedDataset(t, 500, 1),
			"short": simulatedDataset(t, 2, 2),
		}
		_, err := FitMany(context.Background(), series, params.NewDefaultModelSpec(), &Options{Parallelization: 1})
		assert.ErrorIs(t, err, ErrInput)
		assert.ErrorContains(t, err, `"short"`)
	})

	t.Run("invalid spec", func(t *testing.T) {
		series := map[string]*timedataset.TimeDataset{
			"a": simulatedDataset(t, 500, 1),
		}
		_, err := FitMany(context.Background(), series, params.ModelSpec{P: -1, Q: 1}, nil)
		assert.ErrorIs(t, err, ErrInput)
	})

	t.Run("canceled context", func(t *testing.T) {
		series := map[string]*timedataset.TimeDataset{
			"a": simulatedDataset(t, 500, 1),
			"b": simulatedDataset(t, 500, 2),
		}
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := FitMany(ctx, series, params.NewDefaultModelSpec(), nil)
		assert.ErrorIs(t, err, context.Canceled)
	})
}
