package rules

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault_Validates(t *testing.T) {
	require.NoError(t, Default().Validate())
}

func TestParse_EmptyKeepsDefaults(t *testing.T) {
	r, err := Parse(nil)
	require.NoError(t, err)
	assert.Equal(t, Default(), r)
}

func TestParse_OverlaysDefaults(t *testing.T) {
	r, err := Parse([]byte(`
conflict:
  log_max: 7
  p_max: 0.5
classifier:
  need:
    democratic: 4
`))
	require.NoError(t, err)
	assert.Equal(t, 7, r.Conflict.LogMax)
	assert.InDelta(t, 0.5, r.Conflict.PMax, 1e-12)
	assert.Equal(t, 4, r.Classifier.Need.Democratic)
	// Untouched siblings keep their defaults.
	assert.Equal(t, Default().Classifier.Need.Tribal, r.Classifier.Need.Tribal)
	assert.Equal(t, Default().Trade, r.Trade)
}

func TestParse_SchemaAcceptsIntegersAndFloats(t *testing.T) {
	r, err := Parse([]byte(`
globals_init:
  turn_years: 3
  vol_mul: 1.4
  substeps: 6
generator:
  risk:
    min: 0
    max: 0.1
`))
	require.NoError(t, err)
	assert.Equal(t, 3.0, r.GlobalsInit.TurnYears)
	assert.Equal(t, 6, r.GlobalsInit.Substeps)
	assert.Equal(t, Range{Min: 0, Max: 0.1}, r.Generator.Risk)

	_, err = Parse([]byte("globals_init:\n  substeps: 1.5\n"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalid))
}

func TestParse_RejectsRiskAboveBound(t *testing.T) {
	_, err := Parse([]byte("generator:\n  risk:\n    max: 0.9\n"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalid))

	r := Default()
	r.Generator.Risk = Range{Min: 0.3, Max: 0.1}
	assert.ErrorContains(t, r.Validate(), "generator.risk")
}

func TestValidate_MemoryCapCeiling(t *testing.T) {
	r := Default()
	r.Classifier.MemoryCap = MaxMemoryCap + 1
	assert.ErrorContains(t, r.Validate(), "classifier.memory_cap")
}

func TestDefault_Calibration(t *testing.T) {
	d := Default()
	assert.Less(t, d.Filters.MinWealth, 0.05)
	assert.LessOrEqual(t, d.Generator.Risk.Max, 0.05)
}

func TestParse_RejectsUnknownKey(t *testing.T) {
	_, err := Parse([]byte("trade:\n  gap_treshold: 0.1\n"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalid))
}

func TestParse_RejectsWrongType(t *testing.T) {
	_, err := Parse([]byte("conflict:\n  log_max: lots\n"))
	require.Error(t, err)
}

func TestValidate_CrossField(t *testing.T) {
	r := Default()
	r.Migration.SrcPS = 0.7
	r.Classifier.Need.Anarchic = 9
	err := r.Validate()
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalid))
	assert.Contains(t, err.Error(), "migration.src_ps")
	assert.Contains(t, err.Error(), "classifier.need[3]")
}

func TestLoad_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rules.yaml")
	require.NoError(t, os.WriteFile(path, []byte("regimes:\n  min: 3\n  max: 6\n"), 0o644))

	r, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, RegimeBounds{Min: 3, Max: 6}, r.Regimes)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}

func TestMemoryNeed(t *testing.T) {
	m := Memory{Democratic: 1, Authoritarian: 2, Tribal: 3, Anarchic: 4}
	for i, want := range []int{1, 2, 3, 4} {
		assert.Equal(t, want, m.Need(i))
	}
}

func TestLookupDifficulty(t *testing.T) {
	d, err := LookupDifficulty("")
	require.NoError(t, err)
	assert.Equal(t, DifficultyMin, d)

	d, err = LookupDifficulty(" max ")
	require.NoError(t, err)
	assert.Equal(t, "MAX", d.Name)
	assert.Equal(t, 6, d.Substeps)
	assert.Equal(t, 3.0, d.TurnYears)
	assert.Equal(t, 1.4, d.VolMul)
	assert.Equal(t, 1.6, d.ShockMul)

	_, err = LookupDifficulty("nightmare")
	assert.Error(t, err)
}
