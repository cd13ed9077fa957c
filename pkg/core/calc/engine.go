package calc

// Engine derives ratios from a MetricStore. It holds no state between calls,
// so every operation is a pure function of the store.
type Engine struct {
	store *MetricStore
	defs  []Definition
}

// NewEngine binds the built-in ratio catalog to a store.
func NewEngine(store *MetricStore) *Engine {
	return &Engine{store: store, defs: definitions}
}

// WithDefinitions returns an engine evaluating a custom catalog against the
// same store.
func (e *Engine) WithDefinitions(defs []Definition) *Engine {
	return &Engine{store: e.store, defs: defs}
}

func (e *Engine) Profitability() Ratios       { return e.family(Profitability) }
func (e *Engine) FinancialStructure() Ratios  { return e.family(FinancialStructure) }
func (e *Engine) OperatingEfficiency() Ratios { return e.family(OperatingEfficiency) }
func (e *Engine) Growth() Ratios              { return e.family(Growth) }
func (e *Engine) CashFlow() Ratios            { return e.family(CashFlow) }
func (e *Engine) Leverage() Ratios            { return e.family(Leverage) }
func (e *Engine) PerShare() Ratios            { return e.family(PerShare) }

// ExtractAll computes every ratio whose inputs are available. Missing inputs
// and zero denominators silently drop the ratio.
func (e *Engine) ExtractAll() Ratios {
	out := make(Ratios)
	for _, fam := range Families {
		for k, v := range e.family(fam) {
			out[k] = v
		}
	}
	return out
}

// Compute is ExtractAll for callers that need a bulk failure signal. A store
// without any canonical field yields *InsufficientDataError; a formula that
// panics yields *ComputationError. In both cases the ratios computed so far
// are returned.
func (e *Engine) Compute() (Ratios, error) {
	out := make(Ratios)
	if e.store.CanonicalCount() == 0 {
		return out, &InsufficientDataError{Keys: e.store.Len()}
	}
	for _, fam := range Families {
		partial := make(Ratios)
		err := e.collect(fam, partial)
		for k, v := range partial {
			out[k] = v
		}
		if err != nil {
			return out, err
		}
	}
	return out, nil
}

func (e *Engine) family(fam Family) Ratios {
	out := make(Ratios)
	// Formulas in the built-in catalog cannot panic; custom ones are
	// contained by Compute.
	_ = e.collect(fam, out)
	return out
}

func (e *Engine) collect(fam Family, out Ratios) (err error) {
	var current Ratio
	defer func() {
		if r := recover(); r != nil {
			err = &ComputationError{Ratio: current, Cause: r}
		}
	}()

	for _, d := range e.defs {
		if d.Family != fam {
			continue
		}
		current = d.Name
		if v, ok := e.evaluate(d, out); ok {
			out[d.Name] = v
		}
	}
	return nil
}

// evaluate gathers inputs from ratios computed earlier in this pass, then
// from the store.
func (e *Engine) evaluate(d Definition, computed Ratios) (float64, bool) {
	in, missing := e.gather(d, computed)
	if len(missing) > 0 {
		return 0, false
	}
	for _, den := range d.Denominators {
		if in[den] == 0 {
			return 0, false
		}
	}
	v := d.Formula(in)
	if !finite(v) {
		return 0, false
	}
	return v, true
}

func (e *Engine) gather(d Definition, computed Ratios) (Inputs, []string) {
	in := make(Inputs, len(d.Inputs))
	var missing []string
	for _, name := range d.Inputs {
		if v, ok := computed[Ratio(name)]; ok {
			in[name] = v
			continue
		}
		if v, ok := e.store.Get(name); ok {
			in[name] = v
			continue
		}
		missing = append(missing, name)
	}
	return in, missing
}

// MissingInputs lists the inputs of a ratio that are neither in the store nor
// derivable from it.
func (e *Engine) MissingInputs(name Ratio) []string {
	d, ok := e.definition(name)
	if !ok {
		return nil
	}
	_, missing := e.gather(d, e.ExtractAll())
	return missing
}

// Explain reports why a ratio is absent from ExtractAll: a *MissingInputError,
// a *DivisionGuardError, or nil when the ratio is computable.
func (e *Engine) Explain(name Ratio) error {
	d, ok := e.definition(name)
	if !ok {
		return &MissingInputError{Ratio: name, Missing: []string{string(name)}}
	}
	in, missing := e.gather(d, e.ExtractAll())
	if len(missing) > 0 {
		return &MissingInputError{Ratio: name, Missing: missing}
	}
	for _, den := range d.Denominators {
		if in[den] == 0 {
			return &DivisionGuardError{Ratio: name, Denominator: den}
		}
	}
	return nil
}

func (e *Engine) definition(name Ratio) (Definition, bool) {
	for _, d := range e.defs {
		if d.Name == name {
			return d, true
		}
	}
	return Definition{}, false
}
