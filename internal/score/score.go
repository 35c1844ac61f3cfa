// Package score measures how much of a record was captured. Scores are presence based:
// a field counts when it holds any non-blank value, whatever that value is.
package score

import (
	"fmt"
	"strings"

	"github.com/joseph-ayodele/cv-parser/internal/common"
	"github.com/joseph-ayodele/cv-parser/internal/schema"
)

// DefaultCoreFields are the curated high-signal checks. A check lists JSON paths joined
// by "|" and passes when any of them is present.
var DefaultCoreFields = []string{
	"anagrafica.nome",
	"anagrafica.cognome",
	"contatti.email|contatti.telefono|contatti.cellulare",
	"contatti.indirizzo.citta",
	"contatti.indirizzo.paese",
	"esperienze_lavorative",
	"istruzione",
	"competenze_tecniche",
}

// Report carries the two completeness percentages.
type Report struct {
	CorePercentage   int `json:"completezza_core_pct"`
	GlobalPercentage int `json:"completezza_globale_pct"`
}

type check struct {
	name  string
	paths [][]string
}

type Scorer struct {
	core []check
}

// NewScorer compiles the core checks; an empty list selects DefaultCoreFields. Every
// path must name a field of the record.
func NewScorer(coreFields []string) (*Scorer, error) {
	if len(coreFields) == 0 {
		coreFields = DefaultCoreFields
	}
	shape, err := schema.New().ToMap()
	if err != nil {
		return nil, common.NewAppError("SCORE_CONFIG", "record shape", err)
	}
	s := &Scorer{}
	for _, field := range coreFields {
		var alts [][]string
		for _, p := range strings.Split(field, "|") {
			p = strings.TrimSpace(p)
			if p == "" {
				continue
			}
			path := strings.Split(p, ".")
			if _, ok := lookup(shape, path); !ok {
				return nil, common.NewAppError("SCORE_CONFIG", fmt.Sprintf("unknown field %q", p), common.ErrInvalidInput)
			}
			alts = append(alts, path)
		}
		if len(alts) > 0 {
			s.core = append(s.core, check{name: strings.TrimSpace(field), paths: alts})
		}
	}
	return s, nil
}

// Default returns a scorer over DefaultCoreFields.
func Default() *Scorer {
	s, err := NewScorer(nil)
	if err != nil {
		panic(err)
	}
	return s
}

// Score never modifies r.
func (s *Scorer) Score(r schema.Record) Report {
	doc, err := r.ToMap()
	if err != nil {
		return Report{}
	}

	corePresent := 0
	for _, c := range s.core {
		if c.passes(doc) {
			corePresent++
		}
	}

	var leaves, filled int
	walk(doc, func(v any) {
		leaves++
		if present(v) {
			filled++
		}
	})

	return Report{
		CorePercentage:   percent(corePresent, len(s.core)),
		GlobalPercentage: percent(filled, leaves),
	}
}

// Missing lists the core checks r fails, in configuration order.
func (s *Scorer) Missing(r schema.Record) []string {
	doc, err := r.ToMap()
	if err != nil {
		return nil
	}
	var out []string
	for _, c := range s.core {
		if !c.passes(doc) {
			out = append(out, c.name)
		}
	}
	return out
}

func (c check) passes(doc map[string]any) bool {
	for _, path := range c.paths {
		if v, ok := lookup(doc, path); ok && present(v) {
			return true
		}
	}
	return false
}

// Leaves counts the scored leaves of the record shape.
func Leaves() int {
	doc, _ := schema.New().ToMap()
	n := 0
	walk(doc, func(any) { n++ })
	return n
}

func lookup(doc map[string]any, path []string) (any, bool) {
	var cur any = doc
	for _, key := range path {
		m, ok := cur.(map[string]any)
		if !ok {
			return nil, false
		}
		if cur, ok = m[key]; !ok {
			return nil, false
		}
	}
	return cur, true
}

// walk visits every leaf: strings and lists. A list is one leaf whatever it contains.
func walk(v any, visit func(any)) {
	if m, ok := v.(map[string]any); ok {
		for _, child := range m {
			walk(child, visit)
		}
		return
	}
	visit(v)
}

func present(v any) bool {
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t) != ""
	case []any:
		return len(t) > 0
	case map[string]any:
		for _, child := range t {
			if present(child) {
				return true
			}
		}
	}
	return false
}

// percent rounds half up and clamps to [0, 100].
func percent(n, total int) int {
	if total <= 0 || n <= 0 {
		return 0
	}
	p := (200*n + total) / (2 * total)
	return min(p, 100)
}
