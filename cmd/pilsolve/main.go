// Command pilsolve analyzes an already-parsed PIL program and solves
// its witness trace row by row. Since lexing and parsing PIL source
// text is out of scope for this module (SPEC_FULL.md §1 Non-goals),
// both the program and its fixed-column input are read as CBOR: the
// serialized shape an upstream parser and fixed-column generator would
// emit.
package main

import (
	"flag"
	"fmt"
	"math/big"
	"os"

	"github.com/fxamacker/cbor/v2"
	"github.com/rs/zerolog"

	"github.com/vybium/pil-witgen/internal/pil/field"
	"github.com/vybium/pil-witgen/pkg/pil"
)

// FixedInput is the CBOR-encoded counterpart to a fixed-column
// generator's output: the witness column list, precomputed fixed
// columns, and scalar constants the solver needs (SPEC_FULL.md §6).
type FixedInput struct {
	Witnesses    []string            `cbor:"witnesses"`
	FixedColumns map[string][]string `cbor:"fixed_columns"`
	Scalars      map[string]string   `cbor:"scalars"`
	Namespace    string              `cbor:"namespace"`
	Verbose      bool                `cbor:"verbose"`
}

func main() {
	defaultCfg := pil.DefaultConfig()

	programPath := flag.String("program", "", "path to a CBOR-encoded Program")
	fixedPath := flag.String("fixed", "", "path to a CBOR-encoded FixedInput")
	verbose := flag.Bool("verbose", defaultCfg.Verbose, "enable debug logging")
	maxIterations := flag.Int("max-iterations-per-row", defaultCfg.MaxIterationsPerRow, "fixed-point loop iteration safety cap per row")
	flag.Parse()

	cfg := pil.DefaultConfig().WithVerbose(*verbose).WithMaxIterationsPerRow(*maxIterations)
	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()
	if cfg.Verbose {
		log = log.Level(zerolog.DebugLevel)
	} else {
		log = log.Level(zerolog.InfoLevel)
	}

	if err := cfg.Validate(); err != nil {
		fatal(log, fmt.Sprintf("invalid configuration: %v", err))
	}

	if *programPath == "" || *fixedPath == "" {
		fatal(log, "both -program and -fixed are required")
	}

	program, err := loadProgram(*programPath)
	if err != nil {
		fatal(log, fmt.Sprintf("failed to load program: %v", err))
	}

	fixedInput, err := loadFixedInput(*fixedPath)
	if err != nil {
		fatal(log, fmt.Sprintf("failed to load fixed input: %v", err))
	}

	log.Info().Str("root", program.RootPath).Msg("analyzing program")
	analyzed, err := pil.Analyze(program.RootPath, newFileLoader(program), pil.WithAnalyzerLogger(log))
	if err != nil {
		fatal(log, fmt.Sprintf("analysis failed: %v", err))
	}
	log.Info().
		Int("committed", analyzed.CommitmentCount()).
		Int("constant", analyzed.ConstantCount()).
		Int("intermediate", analyzed.IntermediateCount()).
		Int("polynomial_identities", len(analyzed.PolynomialIdentities)).
		Int("plookup_identities", len(analyzed.PlookupIdentities)).
		Msg("analysis complete")

	degree, ok := analyzed.Degrees[fixedInput.Namespace]
	if !ok {
		fatal(log, fmt.Sprintf("no degree recorded for namespace %q", fixedInput.Namespace))
	}
	if pil.IsPowerOfTwo(degree) {
		log.Debug().Int("log2_degree", pil.Log2(degree)).Msg("namespace degree is a power of two")
	} else {
		log.Warn().Uint64("degree", degree).Uint64("next_power_of_two", pil.NextPowerOfTwo(degree)).
			Msg("namespace degree is not a power of two; a fixed-column generator expecting an FFT-friendly domain would round up")
	}

	witnesses, err := buildWitnessColumns(fixedInput.Witnesses)
	if err != nil {
		fatal(log, err.Error())
	}
	fixedColumns, err := decodeFieldColumns(fixedInput.FixedColumns)
	if err != nil {
		fatal(log, err.Error())
	}
	scalars, err := decodeFieldScalars(fixedInput.Scalars)
	if err != nil {
		fatal(log, err.Error())
	}

	fixedData := pil.NewFixedData(witnesses, fixedColumns, scalars, fixedInput.Verbose || cfg.Verbose)

	// No machines are registered here, so a lookup/permutation identity
	// whose selector is active on a row finds no machine to answer it and
	// fails that row (tolerated only at row 0). Embedders needing Machine
	// support should use pkg/pil directly.
	solverOpts := append([]pil.SolverOption{pil.WithSolverLogger(log)}, pil.SolverOptionsFromConfig(cfg)...)
	solver := pil.NewSolver(fixedData, analyzed, nil, solverOpts...)

	encoder := cbor.NewEncoder(os.Stdout)
	for r := pil.DegreeType(0); r < degree; r++ {
		row, err := pil.ComputeRow(solver, r)
		if err != nil {
			fatal(log, fmt.Sprintf("row %d: %v", r, err))
		}
		if err := encoder.Encode(rowToDecimal(row)); err != nil {
			fatal(log, fmt.Sprintf("failed to encode row %d: %v", r, err))
		}
	}

	log.Info().Uint64("rows", uint64(degree)).Msg("solve complete")
}

func buildWitnessColumns(names []string) ([]pil.WitnessColumn, error) {
	cols := make([]pil.WitnessColumn, len(names))
	for i, name := range names {
		cols[i] = pil.WitnessColumn{Name: name, ID: i}
	}
	return cols, nil
}

func decodeFieldColumns(in map[string][]string) (map[string][]pil.FieldElement, error) {
	out := make(map[string][]pil.FieldElement, len(in))
	for name, values := range in {
		col := make([]pil.FieldElement, len(values))
		for i, v := range values {
			e, err := parseFieldDecimal(v)
			if err != nil {
				return nil, fmt.Errorf("fixed column %s[%d]: %w", name, i, err)
			}
			col[i] = e
		}
		out[name] = col
	}
	return out, nil
}

func decodeFieldScalars(in map[string]string) (map[string]pil.FieldElement, error) {
	out := make(map[string]pil.FieldElement, len(in))
	for name, v := range in {
		e, err := parseFieldDecimal(v)
		if err != nil {
			return nil, fmt.Errorf("scalar %s: %w", name, err)
		}
		out[name] = e
	}
	return out, nil
}

func parseFieldDecimal(s string) (pil.FieldElement, error) {
	v, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return field.Zero(), fmt.Errorf("not a decimal integer: %q", s)
	}
	return field.FromBigInt(v), nil
}

func rowToDecimal(row []pil.FieldElement) []string {
	out := make([]string, len(row))
	for i, v := range row {
		out[i] = v.String()
	}
	return out
}

func loadProgram(path string) (*Program, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var p Program
	if err := cbor.Unmarshal(data, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func loadFixedInput(path string) (*FixedInput, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var f FixedInput
	if err := cbor.Unmarshal(data, &f); err != nil {
		return nil, err
	}
	return &f, nil
}

func fatal(log zerolog.Logger, msg string) {
	log.Error().Msg(msg)
	os.Exit(1)
}
