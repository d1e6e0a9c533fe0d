// Package taskio decodes the finite-domain task wire format of spec.md 6
// into an immutable task.Task. Grounded on the teacher-pack's graph.Parse
// decode idiom (json.Decoder with DisallowUnknownFields, staged
// parse/schema/semantic error taxonomy), adapted from a node/edge graph
// document to a variables/operators planning document.
package taskio

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"fondsynth.dev/planner/internal/task"
)

// SupportedSchemaVersion is the only schema version this package reads.
const SupportedSchemaVersion = "1.0.0"

// detdupMarker is the magic token spec.md 6 recognises: everything before
// it in an operator's name is the shared non-deterministic action name.
const detdupMarker = "_DETDUP"

// variableDoc is one declared state variable.
type variableDoc struct {
	Name       string   `json:"name"`
	DomainSize int      `json:"domain_size"`
	Facts      []string `json:"facts,omitempty"`
}

// assignmentDoc is a var=val pair, addressed by variable name.
type assignmentDoc struct {
	Var string `json:"var"`
	Val string `json:"val"`
}

// effectDoc is one effect, with an optional conjunctive condition.
type effectDoc struct {
	Var  string          `json:"var"`
	Val  string          `json:"val"`
	Cond []assignmentDoc `json:"cond,omitempty"`
}

// operatorDoc is one operator. NondetName/NondetIndex/NondetOutcome may be
// omitted, in which case they're derived from Name via the _DETDUP
// convention (or the operator stands alone as its own one-outcome action).
type operatorDoc struct {
	Name          string          `json:"name"`
	Pre           []assignmentDoc `json:"pre"`
	Effects       []effectDoc     `json:"effects"`
	Cost          int             `json:"cost"`
	NondetName    string          `json:"nondet_name,omitempty"`
	NondetIndex   *int            `json:"nondet_index,omitempty"`
	NondetOutcome *int            `json:"nondet_outcome,omitempty"`
	Axiom         bool            `json:"axiom,omitempty"`
}

// document is the root wire shape: variables, fact names (folded into
// variableDoc.Facts), an initial complete state keyed by variable name, a
// partial goal, and the operator list.
type document struct {
	SchemaVersion string          `json:"schema_version"`
	Variables     []variableDoc   `json:"variables"`
	Init          []assignmentDoc `json:"init"`
	Goal          []assignmentDoc `json:"goal"`
	Operators     []operatorDoc   `json:"operators"`
}

// Load decodes a task document from r into an immutable task.Task.
func Load(r io.Reader) (*task.Task, error) {
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()

	var doc document
	if err := dec.Decode(&doc); err != nil {
		if _, ok := err.(*json.UnmarshalTypeError); ok {
			return nil, &SchemaError{Msg: fmt.Sprintf("invalid field type: %v", err)}
		}
		if syntaxErr, ok := err.(*json.SyntaxError); ok {
			return nil, &ParseError{Msg: fmt.Sprintf("malformed JSON at offset %d", syntaxErr.Offset), Err: err}
		}
		return nil, &ParseError{Msg: err.Error(), Err: err}
	}

	if err := validateRequired(&doc); err != nil {
		return nil, err
	}
	if doc.SchemaVersion != SupportedSchemaVersion {
		return nil, &SemanticError{Msg: fmt.Sprintf("unsupported schema_version %q, expected %q", doc.SchemaVersion, SupportedSchemaVersion)}
	}

	return build(&doc)
}

func validateRequired(doc *document) error {
	if doc.SchemaVersion == "" {
		return &SchemaError{Field: "schema_version", Msg: "required field is missing"}
	}
	if len(doc.Variables) == 0 {
		return &SchemaError{Field: "variables", Msg: "a task needs at least one variable"}
	}
	for i, v := range doc.Variables {
		if v.Name == "" {
			return &SchemaError{Field: fmt.Sprintf("variables[%d].name", i), Msg: "required field is missing"}
		}
		if v.DomainSize <= 0 {
			return &SchemaError{Field: fmt.Sprintf("variables[%d].domain_size", i), Msg: "must be positive"}
		}
	}
	if doc.Init == nil {
		return &SchemaError{Field: "init", Msg: "required field is missing"}
	}
	for i, op := range doc.Operators {
		if op.Name == "" {
			return &SchemaError{Field: fmt.Sprintf("operators[%d].name", i), Msg: "required field is missing"}
		}
	}
	return nil
}

// varIndex resolves variable names and fact-style "name=value" tokens to
// (variable index, value index) pairs.
type varIndex struct {
	names    []string
	byName   map[string]int
	domains  []int
	facts    [][]string
	factIdx  []map[string]int
}

func newVarIndex(vars []variableDoc) *varIndex {
	vi := &varIndex{byName: map[string]int{}}
	for i, v := range vars {
		vi.names = append(vi.names, v.Name)
		vi.byName[v.Name] = i
		vi.domains = append(vi.domains, v.DomainSize)
		facts := v.Facts
		if len(facts) == 0 {
			facts = make([]string, v.DomainSize)
			for k := range facts {
				facts[k] = fmt.Sprintf("%s=%d", v.Name, k)
			}
		}
		vi.facts = append(vi.facts, facts)
		fi := map[string]int{}
		for k, name := range facts {
			fi[name] = k
		}
		vi.factIdx = append(vi.factIdx, fi)
	}
	return vi
}

// resolve turns an assignmentDoc into a numeric (var, val) pair. Val may
// be a decimal integer literal or a fact name declared for that variable.
func (vi *varIndex) resolve(a assignmentDoc) (int, int, error) {
	v, ok := vi.byName[a.Var]
	if !ok {
		return 0, 0, &SemanticError{Msg: fmt.Sprintf("unknown variable %q", a.Var)}
	}
	if val, err := strconv.Atoi(a.Val); err == nil {
		if val < 0 || val >= vi.domains[v] {
			return 0, 0, &SemanticError{Msg: fmt.Sprintf("value %d out of domain [0,%d) for variable %q", val, vi.domains[v], a.Var)}
		}
		return v, val, nil
	}
	val, ok := vi.factIdx[v][a.Val]
	if !ok {
		return 0, 0, &SemanticError{Msg: fmt.Sprintf("unknown value %q for variable %q", a.Val, a.Var)}
	}
	return v, val, nil
}

func build(doc *document) (*task.Task, error) {
	vi := newVarIndex(doc.Variables)
	numVars := len(vi.names)

	init := task.New(numVars)
	for _, a := range doc.Init {
		v, val, err := vi.resolve(a)
		if err != nil {
			return nil, err
		}
		init[v] = val
	}
	if init.Size() != numVars {
		return nil, &SemanticError{Msg: "initial state must assign every variable"}
	}

	goal := task.New(numVars)
	for _, a := range doc.Goal {
		v, val, err := vi.resolve(a)
		if err != nil {
			return nil, err
		}
		goal[v] = val
	}

	ops, err := buildOperators(vi, doc.Operators)
	if err != nil {
		return nil, err
	}

	t, err := task.Build(numVars, vi.domains, init, goal, ops)
	if err != nil {
		return nil, &SemanticError{Msg: err.Error()}
	}
	t.VarNames = vi.names
	t.FactNames = vi.facts
	return t, nil
}

func buildOperators(vi *varIndex, docs []operatorDoc) ([]*task.Operator, error) {
	nextNondetIndex := 0
	nondetIndexByName := map[string]int{}
	outcomeCounter := map[int]int{}

	var ops []*task.Operator
	for i, od := range docs {
		pre := make([]task.Assignment, 0, len(od.Pre))
		for _, a := range od.Pre {
			v, val, err := vi.resolve(a)
			if err != nil {
				return nil, fmt.Errorf("operators[%d].pre: %w", i, err)
			}
			pre = append(pre, task.Assignment{Var: v, Val: val})
		}

		effects := make([]task.Effect, 0, len(od.Effects))
		for _, ed := range od.Effects {
			v, val, err := vi.resolve(assignmentDoc{Var: ed.Var, Val: ed.Val})
			if err != nil {
				return nil, fmt.Errorf("operators[%d].effects: %w", i, err)
			}
			cond := make([]task.Assignment, 0, len(ed.Cond))
			for _, c := range ed.Cond {
				cv, cval, err := vi.resolve(c)
				if err != nil {
					return nil, fmt.Errorf("operators[%d].effects.cond: %w", i, err)
				}
				cond = append(cond, task.Assignment{Var: cv, Val: cval})
			}
			effects = append(effects, task.Effect{Var: v, Val: val, Cond: cond})
		}

		nondetName, detdupOutcome, standalone := splitDetdup(od.Name)

		nondetIndex := 0
		switch {
		case od.NondetIndex != nil:
			nondetIndex = *od.NondetIndex
		case standalone:
			nondetIndex = nextNondetIndex
			nextNondetIndex++
		default:
			idx, ok := nondetIndexByName[nondetName]
			if !ok {
				idx = nextNondetIndex
				nondetIndexByName[nondetName] = idx
				nextNondetIndex++
			}
			nondetIndex = idx
		}

		outcomeIndex := 0
		switch {
		case od.NondetOutcome != nil:
			outcomeIndex = *od.NondetOutcome
		case detdupOutcome != nil:
			outcomeIndex = *detdupOutcome
		default:
			outcomeIndex = outcomeCounter[nondetIndex]
		}
		outcomeCounter[nondetIndex] = outcomeIndex + 1

		if od.NondetName != "" {
			nondetName = od.NondetName
		}

		ops = append(ops, &task.Operator{
			Name:         od.Name,
			Pre:          pre,
			Effects:      effects,
			Cost:         od.Cost,
			NondetIndex:  nondetIndex,
			NondetName:   nondetName,
			OutcomeIndex: outcomeIndex,
			Axiom:        od.Axiom,
		})
	}
	return ops, nil
}

// splitDetdup recognises the "<base>_DETDUP<k>..." convention: returns
// the shared base name, the outcome index embedded after the marker (if
// any digits immediately follow it), and whether name carries no marker
// at all (a standalone deterministic operator, its own one-outcome
// action).
func splitDetdup(name string) (base string, outcome *int, standalone bool) {
	idx := strings.Index(name, detdupMarker)
	if idx < 0 {
		return name, nil, true
	}
	base = name[:idx]
	rest := name[idx+len(detdupMarker):]
	end := 0
	for end < len(rest) && rest[end] >= '0' && rest[end] <= '9' {
		end++
	}
	if end == 0 {
		return base, nil, false
	}
	n, err := strconv.Atoi(rest[:end])
	if err != nil {
		return base, nil, false
	}
	return base, &n, false
}
