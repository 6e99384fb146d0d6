package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"locator-go/locate"
	"locator-go/trilat"
)

const validYAML = `
dataset: ./dataset
distance_algorithm: Accuracy
least_squares_algorithm: NonLinear
location:
  retention_time: 60000
  publication_rate: 1000
  delay: 0
  scanning_window: 5000
  attenuation: 1.5
  cutoff_rate: 2
log:
  pretty: true
`

func TestLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(validYAML), 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "./dataset", cfg.Dataset)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.True(t, cfg.Log.Pretty)
	assert.Equal(t, 8080, cfg.Live.HTTPPort)
	assert.Equal(t, "TEST", cfg.Live.Beacon)

	p, err := cfg.Params()
	require.NoError(t, err)
	assert.Equal(t, locate.Params{
		RetentionTime:   60000,
		PublicationRate: 1000,
		Delay:           0,
		ScanningWindow:  5000,
		Attenuation:     1.5,
		CutoffRate:      2,
	}, p)

	m, err := cfg.DistanceModel()
	require.NoError(t, err)
	assert.Equal(t, trilat.Accuracy{}, m)
	s, err := cfg.Solver()
	require.NoError(t, err)
	assert.Equal(t, "NonLinear", s.Name())
}

func TestPathLossExponent(t *testing.T) {
	doc := `
distance_algorithm: PathLoss
path_loss_exponent: 2.7
least_squares_algorithm: Linear
location: {retention_time: 10000, publication_rate: 1000, delay: 0, scanning_window: 5000, attenuation: 1, cutoff_rate: 2}
`
	cfg, err := Parse([]byte(doc))
	require.NoError(t, err)
	m, err := cfg.DistanceModel()
	require.NoError(t, err)
	assert.Equal(t, trilat.PathLoss{Exponent: 2.7}, m)
}

func TestMissingParameterIsNamed(t *testing.T) {
	doc := `
distance_algorithm: Linear
least_squares_algorithm: Linear
location:
  retention_time: 60000
  publication_rate: 1000
  scanning_window: 5000
  attenuation: 1
  cutoff_rate: 2
`
	_, err := Parse([]byte(doc))
	var cfgErr *ConfigurationError
	require.True(t, errors.As(err, &cfgErr), "got %v", err)
	assert.Equal(t, locate.ParamDelay, cfgErr.Param)
	assert.Contains(t, err.Error(), "location.delay")
}

func TestInvalidValues(t *testing.T) {
	cases := map[string]struct {
		doc   string
		param string
	}{
		"unknown distance": {
			doc:   "distance_algorithm: Cubic\nleast_squares_algorithm: Linear\n",
			param: ParamDistanceAlgorithm,
		},
		"unknown solver": {
			doc:   "distance_algorithm: Linear\nleast_squares_algorithm: Simplex\n",
			param: ParamLeastSquaresAlgorithm,
		},
		"zero publication rate": {
			doc: `distance_algorithm: Linear
least_squares_algorithm: Linear
location: {retention_time: 1, publication_rate: 0, delay: 0, scanning_window: 10, attenuation: 1, cutoff_rate: 2}
`,
			param: locate.ParamPublicationRate,
		},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Parse([]byte(tc.doc))
			var cfgErr *ConfigurationError
			require.True(t, errors.As(err, &cfgErr), "got %v", err)
			assert.Equal(t, tc.param, cfgErr.Param)
		})
	}

	_, err := Parse([]byte("location: [1, 2"))
	assert.Error(t, err)

	_, err = LoadConfig(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}
