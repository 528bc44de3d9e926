package rules

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"gopkg.in/yaml.v3"
)

// ErrInvalid wraps every semantic validation failure.
var ErrInvalid = errors.New("invalid rules")

//go:embed rules.schema.json
var schemaJSON string

var (
	schemaOnce sync.Once
	schema     *jsonschema.Schema
	schemaErr  error
)

func compiledSchema() (*jsonschema.Schema, error) {
	schemaOnce.Do(func() {
		schema, schemaErr = jsonschema.CompileString("rules.schema.json", schemaJSON)
	})
	return schema, schemaErr
}

// Load reads a YAML rules file. Keys absent from the file keep their Default() value.
func Load(path string) (Rules, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Rules{}, err
	}
	r, err := Parse(raw)
	if err != nil {
		return Rules{}, fmt.Errorf("%s: %w", path, err)
	}
	return r, nil
}

// Parse decodes YAML rules over the defaults, checking the document shape
// against the embedded schema before decoding.
func Parse(raw []byte) (Rules, error) {
	r := Default()
	if len(bytes.TrimSpace(raw)) == 0 {
		return r, nil
	}

	var doc any
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return Rules{}, fmt.Errorf("rules yaml: %w", err)
	}
	if err := validateShape(doc); err != nil {
		return Rules{}, err
	}

	if err := yaml.Unmarshal(raw, &r); err != nil {
		return Rules{}, fmt.Errorf("rules yaml: %w", err)
	}
	if err := r.Validate(); err != nil {
		return Rules{}, err
	}
	return r, nil
}

func validateShape(doc any) error {
	s, err := compiledSchema()
	if err != nil {
		return fmt.Errorf("rules schema: %w", err)
	}
	// Round-trip through JSON so the validator sees JSON-native types.
	b, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("rules yaml: %w", err)
	}
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return fmt.Errorf("rules yaml: %w", err)
	}
	if err := s.Validate(v); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	return nil
}

// Validate checks cross-field constraints the schema cannot express.
func (r Rules) Validate() error {
	var errs []error
	check := func(ok bool, format string, args ...any) {
		if !ok {
			errs = append(errs, fmt.Errorf(format, args...))
		}
	}

	check(r.Regimes.Min >= 2, "regimes.min must be >= 2, got %d", r.Regimes.Min)
	check(r.Regimes.Max >= r.Regimes.Min, "regimes.max (%d) < regimes.min (%d)", r.Regimes.Max, r.Regimes.Min)
	check(r.GlobalsInit.Substeps >= 1, "globals_init.substeps must be >= 1")

	for name, sig := range map[string]Signal{
		"gg": r.Oscillator.GG, "ir": r.Oscillator.IR, "ra": r.Oscillator.RA,
		"es": r.Oscillator.ES, "ts": r.Oscillator.TS, "cs": r.Oscillator.CS,
	} {
		check(sig.Min <= sig.Max, "oscillator.%s: min > max", name)
		check(sig.Rho >= 0 && sig.Rho <= 1, "oscillator.%s: rho outside [0,1]", name)
	}

	rk := r.Generator.Risk
	check(rk.Min >= 0 && rk.Min <= rk.Max && rk.Max <= 0.8, "generator.risk must satisfy 0 <= min <= max <= 0.8")

	tb := r.Generator.TypeBands
	check(tb.Anarchic <= tb.Democratic && tb.Democratic <= tb.Authoritarian, "generator.type_bands must ascend")

	check(r.Conflict.PMax >= 0 && r.Conflict.PMax <= 1, "conflict.p_max outside [0,1]")
	check(r.Conflict.LogMax >= 1, "conflict.log_max must be >= 1")
	check(r.Trade.Guard >= 1, "trade.guard must be >= 1")
	check(r.Trade.RecentMax >= 1, "trade.recent_max must be >= 1")
	check(r.Trade.VolFrac > 0 && r.Trade.VolFrac <= 1, "trade.vol_frac outside (0,1]")
	check(r.Migration.SrcPS < r.Migration.DstPS, "migration.src_ps must be below dst_ps")

	c := r.Classifier
	check(c.MemoryCap >= 1 && c.MemoryCap <= MaxMemoryCap, "classifier.memory_cap must be in [1,%d]", MaxMemoryCap)
	for i, need := range []int{c.Need.Democratic, c.Need.Authoritarian, c.Need.Tribal, c.Need.Anarchic} {
		check(need >= 0 && need <= c.MemoryCap, "classifier.need[%d]=%d outside [0,%d]", i, need, c.MemoryCap)
	}
	check(c.Order.VolStd >= 0, "classifier.order.vol_std must be >= 0")
	check(c.Inclusion.WPCMax > 0, "classifier.inclusion.wpc_max must be > 0")
	check(c.VolWindow >= 2, "classifier.vol_window must be >= 2")

	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrInvalid, errors.Join(errs...))
}
