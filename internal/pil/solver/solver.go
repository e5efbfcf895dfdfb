package solver

import (
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/vybium/pil-witgen/internal/pil/affine"
	"github.com/vybium/pil-witgen/internal/pil/expr"
	"github.com/vybium/pil-witgen/internal/pil/field"
	"github.com/vybium/pil-witgen/internal/pil/machine"
	"github.com/vybium/pil-witgen/internal/pil/model"
	"github.com/vybium/pil-witgen/internal/pil/query"
)

// QueryCallback answers an interpolated witness query with a concrete
// field element, or ok=false if it has no answer (SPEC_FULL.md §4.6).
type QueryCallback func(q string) (field.Element, bool)

// Option configures a Solver.
type Option func(*Solver)

// WithLogger overrides the default (disabled) logger.
func WithLogger(log zerolog.Logger) Option {
	return func(s *Solver) { s.log = log }
}

// WithQueryCallback registers the callback used to answer witness
// queries. Without one, rows whose witness columns carry a query
// expression can never be resolved via that channel.
func WithQueryCallback(cb QueryCallback) Option {
	return func(s *Solver) { s.queryCallback = cb }
}

// WithMaxIterationsPerRow overrides the fixed-point loop's iteration
// safety cap (see config.Config.MaxIterationsPerRow). Not expected to
// bind in practice: every pass either assigns a fresh value or the
// loop exits on its own.
func WithMaxIterationsPerRow(n int) Option {
	return func(s *Solver) { s.maxIterations = n }
}

type cell struct {
	known bool
	value field.Element
}

// Solver implements the per-row fixed-point witness deduction loop of
// SPEC_FULL.md §4.5: ComputeNextRow repeatedly evaluates every identity
// against the current/next row window, solving any that reduce to a
// single unknown, until no further progress is made.
type Solver struct {
	log zerolog.Logger

	fixedData         *FixedData
	polynomialIdentities []model.Identity
	plookupIdentities    []model.Identity
	machines             []machine.Machine
	queryCallback        QueryCallback

	current []cell
	next    []cell

	nextRow        uint64
	failureReasons []string
	maxIterations  int
}

// New builds a Solver. fixedData, identities and machines together form
// the complete, immutable solving context; the only mutable state is
// the current/next row window ComputeNextRow advances.
func New(fixedData *FixedData, polynomialIdentities, plookupIdentities []model.Identity, machines []machine.Machine, opts ...Option) *Solver {
	s := &Solver{
		log:                  zerolog.Nop(),
		fixedData:            fixedData,
		polynomialIdentities: polynomialIdentities,
		plookupIdentities:    plookupIdentities,
		machines:             machines,
		current:              make([]cell, len(fixedData.Witnesses)),
		next:                 make([]cell, len(fixedData.Witnesses)),
		maxIterations:        1000,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ComputeNextRow solves row r, seeding the first row (r == 0) from
// whatever the previous call left unset (all-unknown, on the very
// first call). It returns the concrete field-element row, substituting
// zero for any witness column the fixed point left unresolved
// (SPEC_FULL.md §4.5 step 4; such unresolved columns are only
// tolerated at row 0, per step 3).
func (s *Solver) ComputeNextRow(r uint64) ([]field.Element, error) {
	s.nextRow = r
	for i := range s.next {
		s.next[i] = cell{}
	}

	identityFailed := false
	for iteration := 0; ; iteration++ {
		if iteration >= s.maxIterations {
			return nil, fmt.Errorf("row %d: exceeded %d solving iterations without converging", r, s.maxIterations)
		}
		progress := false
		identityFailed = false
		s.failureReasons = s.failureReasons[:0]

		for _, id := range s.polynomialIdentities {
			assignments, err := s.processPolynomialIdentity(id)
			if err != nil {
				identityFailed = true
				s.failureReasons = append(s.failureReasons, err.Error())
				continue
			}
			for _, a := range assignments {
				if s.assign(a.ID, a.Value) {
					progress = true
				}
			}
		}

		for _, id := range s.plookupIdentities {
			assignments, err := s.processPlookup(id)
			if err != nil {
				identityFailed = true
				s.failureReasons = append(s.failureReasons, err.Error())
				continue
			}
			for _, a := range assignments {
				if s.assign(a.ID, a.Value) {
					progress = true
				}
			}
		}

		if s.queryCallback != nil {
			for i, w := range s.fixedData.Witnesses {
				if w.Query == nil || s.next[i].known {
					continue
				}
				value, err := s.processWitnessQuery(i, w)
				if err != nil {
					identityFailed = true
					s.failureReasons = append(s.failureReasons, err.Error())
					continue
				}
				if s.assign(i, value) {
					progress = true
				}
			}
		}

		if !progress || s.allKnown() {
			break
		}
	}

	if identityFailed && r != 0 {
		return nil, s.fatalError()
	}
	if identityFailed {
		s.log.Debug().Uint64("row", r).Msg("identity failures tolerated at row 0")
		// Row 0's unresolved cells are settled as zero, so the next row's
		// unshifted references read them as known values.
		for i, c := range s.next {
			if !c.known {
				s.next[i] = cell{known: true, value: field.Zero()}
			}
		}
	}

	if s.fixedData.Verbose {
		s.log.Debug().Uint64("row", r).Int("unknown", s.countUnknown()).Msg("row committed")
	}

	result := make([]field.Element, len(s.next))
	for i, c := range s.next {
		if c.known {
			result[i] = c.value
		} else {
			result[i] = field.Zero()
		}
	}

	// s.next holds row r, just solved; it becomes s.current so the next
	// call's unshifted references read an already-known previous row.
	s.current, s.next = s.next, s.current
	for i := range s.next {
		s.next[i] = cell{}
	}

	return result, nil
}

func (s *Solver) assign(id int, v field.Element) bool {
	if s.next[id].known {
		return false
	}
	s.next[id] = cell{known: true, value: v}
	return true
}

func (s *Solver) allKnown() bool {
	for _, c := range s.next {
		if !c.known {
			return false
		}
	}
	return true
}

func (s *Solver) countUnknown() int {
	n := 0
	for _, c := range s.next {
		if !c.known {
			n++
		}
	}
	return n
}

func (s *Solver) processPolynomialIdentity(id model.Identity) ([]machine.Assignment, error) {
	e := id.Left.Selector
	row := Next
	if expr.ContainsNextRef(e) {
		row = Current
	}

	ev, err := s.evaluate(e, row)
	if err != nil {
		return nil, err
	}

	if v, ok := ev.ConstantValue(); ok {
		if v.IsZero() {
			return nil, nil
		}
		return nil, newErr(ErrInvalidConstraint, "constraint is invalid (%s != 0)", ev.Format(s.witnessName))
	}

	if wid, value, ok := ev.Solve(); ok {
		return []machine.Assignment{{ID: wid, Value: value}}, nil
	}

	return nil, newErr(ErrCouldNotSolve, "could not solve expression %s = 0", ev.Format(s.witnessName))
}

func (s *Solver) processPlookup(id model.Identity) ([]machine.Assignment, error) {
	if id.Left.Selector != nil {
		sel, err := s.evaluate(id.Left.Selector, Next)
		if err != nil {
			return nil, err
		}
		cv, ok := sel.ConstantValue()
		if !ok {
			return nil, newErr(ErrSelectorNotBoolean, "lookup selector did not evaluate to a constant")
		}
		if cv.IsZero() {
			return nil, nil
		}
		if !cv.Equal(field.One()) {
			return nil, newErr(ErrSelectorNotBoolean, "lookup selector %s is neither 0 nor 1", cv.String())
		}
	}

	leftValues := make([]affine.Expression, len(id.Left.Expressions))
	for i, e := range id.Left.Expressions {
		v, err := s.evaluate(e, Next)
		if err != nil {
			return nil, err
		}
		leftValues[i] = v
	}

	var failedIdx []int
	for i, m := range s.machines {
		ret, err := m.ProcessPlookup(s.fixedData, id.Kind, leftValues, id.Right)
		if err != nil {
			return nil, err
		}
		if ret.Kind == machine.Assigned {
			out := make([]machine.Assignment, len(ret.Assignments))
			copy(out, ret.Assignments)
			s.bookkeepPlookup(id, leftValues, i, failedIdx)
			return out, nil
		}
		failedIdx = append(failedIdx, i)
	}

	return nil, newErr(ErrNoMatchingMachine, "no registered machine claimed this lookup")
}

// bookkeepPlookup re-dispatches an already-bound lookup to every machine
// that reported NotApplicable before the winner at winnerIdx was found,
// purely for diagnostic logging when verbose (SPEC_FULL.md §9 "Machine
// plurality"). It never changes which assignment binds: its return
// value, if any, and any error it reports are discarded.
func (s *Solver) bookkeepPlookup(id model.Identity, leftValues []affine.Expression, winnerIdx int, failedIdx []int) {
	if !s.fixedData.Verbose || len(failedIdx) == 0 {
		return
	}
	for _, i := range failedIdx {
		ret, err := s.machines[i].ProcessPlookup(s.fixedData, id.Kind, leftValues, id.Right)
		if err != nil {
			s.log.Debug().Int("machine", i).Int("winner", winnerIdx).Err(err).
				Msg("lookup bookkeeping: earlier-failing machine errored on re-dispatch")
			continue
		}
		s.log.Debug().Int("machine", i).Int("winner", winnerIdx).Str("kind", ret.Kind.String()).
			Msg("lookup bookkeeping: re-dispatched to earlier-failing machine")
	}
}

func (s *Solver) processWitnessQuery(id int, w WitnessColumn) (field.Element, error) {
	qstr, err := query.Interpolate(*w.Query, s.nextRow, func(e expr.Expression) (string, bool, error) {
		v, evalErr := s.evaluate(e, Next)
		if evalErr != nil {
			return "", false, nil
		}
		cv, ok := v.ConstantValue()
		if !ok {
			return "", false, nil
		}
		return cv.String(), true, nil
	})
	if err != nil {
		return field.Zero(), err
	}

	if s.queryCallback == nil {
		return field.Zero(), newErr(ErrNoQueryAnswer, "no query callback registered for %s query %q", w.Name, qstr)
	}
	value, ok := s.queryCallback(qstr)
	if !ok {
		return field.Zero(), newErr(ErrNoQueryAnswer, "no query answer for %s query %q", w.Name, qstr)
	}
	return value, nil
}

func (s *Solver) fatalError() error {
	var unknown []string
	dump := make([]string, 0, len(s.next))
	for i, c := range s.next {
		name := s.witnessName(i)
		if c.known {
			dump = append(dump, fmt.Sprintf("%s = %s", name, c.value.String()))
		} else {
			unknown = append(unknown, name)
			dump = append(dump, fmt.Sprintf("%s = <unknown>", name))
		}
	}
	return &Error{
		Code:    ErrRowFailed,
		Message: fmt.Sprintf("row %d: could not derive values for: %s", s.nextRow, strings.Join(unknown, ", ")),
		Reasons: append([]string{}, s.failureReasons...),
		Dump:    dump,
	}
}

// MachineWitnessColValues collects the witness columns any registered
// machine maintains internally, called once after the last row is
// solved (SPEC_FULL.md §4.4).
func (s *Solver) MachineWitnessColValues() map[string][]field.Element {
	out := map[string][]field.Element{}
	for _, m := range s.machines {
		for name, values := range m.WitnessColValues(s.fixedData) {
			out[name] = values
		}
	}
	return out
}
