package core

// matcher.go decides which rows satisfy a SearchRequest.
//
// Matching rules:
//   - each term is tested against its own column only
//   - a term matches when it is a case-insensitive substring of the value
//   - on gene fields a term also matches as a whole-word prefix followed by
//     isoform digits and slashes ("NTRK" matches "NTRK1/2/3")
//   - a row must satisfy every supplied term (AND across fields)
//   - rows missing a base column never match
//   - optional columns are checked only when the row carries them

import (
	"regexp"
	"strings"

	"github.com/JonMunkholm/therafind/internal/dataset"
	"github.com/samber/lo"
)

// predicate is one compiled search term.
type predicate struct {
	field Field
	lower string
	gene  *regexp.Regexp
}

func newPredicate(f Field, term string) predicate {
	p := predicate{field: f, lower: strings.ToLower(term)}
	if f.GenePrefix {
		p.gene = regexp.MustCompile(`(?i)\b` + regexp.QuoteMeta(term) + `[\d/]*\b`)
	}
	return p
}

// matches reports whether row satisfies the predicate.
func (p predicate) matches(row dataset.Row) bool {
	value, ok := row.Get(p.field.Column)
	if !ok {
		return p.field.Optional
	}
	return p.matchValue(value)
}

func (p predicate) matchValue(value string) bool {
	if strings.Contains(strings.ToLower(value), p.lower) {
		return true
	}
	return p.gene != nil && p.gene.MatchString(value)
}

// compilePredicates returns one predicate per field with a non-empty term,
// in canonical field order.
func compilePredicates(req SearchRequest) []predicate {
	var preds []predicate
	for _, f := range fields {
		if term := req.Term(f.Key); term != "" {
			preds = append(preds, newPredicate(f, term))
		}
	}
	return preds
}

// Filter returns the rows of table that satisfy req, in source order.
// Identical rows are all kept. It never fails: rows it cannot evaluate are
// left out.
func Filter(table *dataset.Table, req SearchRequest) *SearchResult {
	preds := compilePredicates(req)
	required := BaseColumns()

	var source []dataset.Row
	if table != nil {
		source = table.Rows
	}

	rows := lo.Filter(source, func(row dataset.Row, _ int) bool {
		if len(row.Missing(required)) > 0 {
			return false
		}
		for _, p := range preds {
			if !p.matches(row) {
				return false
			}
		}
		return true
	})

	return &SearchResult{
		Columns:     resultColumns(rows),
		Rows:        rows,
		MatchedRows: len(rows),
		TotalRows:   table.Len(),
	}
}

// resultColumns extends the base columns with the optional columns carried by
// at least one row.
func resultColumns(rows []dataset.Row) []string {
	cols := BaseColumns()
	present := lo.Filter(OptionalColumns(), func(col string, _ int) bool {
		for _, row := range rows {
			if row.Has(col) {
				return true
			}
		}
		return false
	})
	return append(cols, present...)
}
