// Package repair turns a noisy batch classification response into structured records.
//
// Repair is lossy and deterministic. It runs, in order: fence stripping, an explicit
// substitution table for enumerated literals the generator sometimes leaves undecided,
// a strict JSON parse, then an aggressive character filter followed by one more strict
// parse. Anything still unparseable is unrecoverable and the caller discards the batch.
package repair

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/Ishaangg/conference-agent/internal/classify"
	"github.com/Ishaangg/conference-agent/pkg/pipeline/core"
)

// Stage names the step at which a response was successfully parsed.
type Stage string

const (
	StageStrict   Stage = "strict"
	StageFiltered Stage = "filtered"
	StageFailed   Stage = "failed"
)

// Substitution collapses one ambiguous pattern into a canonical literal.
type Substitution struct {
	Pattern   *regexp.Regexp
	Canonical string
}

// Alternation matches the JSON-quoted phrase `"a" or "b" or ...` and canonicalizes it
// to the first listed value.
func Alternation(values ...string) Substitution {
	if len(values) == 0 {
		panic("repair: Alternation needs at least one value")
	}
	quoted := make([]string, 0, len(values))
	for _, v := range values {
		quoted = append(quoted, `"`+regexp.QuoteMeta(v)+`"`)
	}
	return Substitution{
		Pattern:   regexp.MustCompile(strings.Join(quoted, `\s+or\s+`)),
		Canonical: `"` + values[0] + `"`,
	}
}

// DefaultTable covers the category and sub-category enumerations of the classifier
// prompt. Longer alternations come first so a partial list never pre-empts a full one.
func DefaultTable() []Substitution {
	return []Substitution{
		Alternation(classify.Categories...),
		Alternation(classify.SubCategories...),
	}
}

var (
	fenceOpen  = regexp.MustCompile("```(?:json)?\\s*")
	fenceClose = regexp.MustCompile("\\s*```")
	disallowed = regexp.MustCompile(`[^\[\]\{\}",:\p{L}\p{N}_\-\s]`)
)

// Report describes what the repairer did to one response.
type Report struct {
	Stage Stage
	// Substitutions lists the canonical values applied from the table, one entry per
	// replaced occurrence.
	Substitutions []string
}

// Repairer is safe for concurrent use once constructed.
type Repairer struct {
	table []Substitution
}

// New builds a Repairer with the given table. A nil table uses DefaultTable.
func New(table []Substitution) *Repairer {
	if table == nil {
		table = DefaultTable()
	}
	return &Repairer{table: table}
}

// Records repairs raw into classification records.
func (r *Repairer) Records(raw string) ([]classify.Record, Report, error) {
	var out []classify.Record
	report, err := r.Decode(raw, &out)
	if err != nil {
		return nil, report, err
	}
	return out, report, nil
}

// Decode repairs raw and unmarshals it into v, which must be a pointer to a slice.
// The returned error is a core.KindBatchUnrecoverable error when both parse attempts
// fail.
func (r *Repairer) Decode(raw string, v any) (Report, error) {
	report := Report{Stage: StageFailed}

	text := Clean(raw)
	text, report.Substitutions = r.substitute(text)

	strictErr := json.Unmarshal([]byte(text), v)
	if strictErr == nil {
		report.Stage = StageStrict
		return report, nil
	}

	filtered := disallowed.ReplaceAllString(text, "")
	filteredErr := json.Unmarshal([]byte(filtered), v)
	if filteredErr == nil {
		report.Stage = StageFiltered
		return report, nil
	}

	return report, core.E(core.KindBatchUnrecoverable, "repair",
		errors.Join(
			core.E(core.KindResponseParse, "strict parse", strictErr),
			core.E(core.KindResponseParse, "filtered parse", filteredErr),
		))
}

// Clean strips code fence markers and surrounding whitespace.
func Clean(raw string) string {
	text := fenceOpen.ReplaceAllString(raw, "")
	text = fenceClose.ReplaceAllString(text, "")
	return strings.TrimSpace(text)
}

func (r *Repairer) substitute(text string) (string, []string) {
	var applied []string
	for _, sub := range r.table {
		if sub.Pattern == nil {
			continue
		}
		n := len(sub.Pattern.FindAllStringIndex(text, -1))
		if n == 0 {
			continue
		}
		text = sub.Pattern.ReplaceAllLiteralString(text, sub.Canonical)
		for i := 0; i < n; i++ {
			applied = append(applied, strings.Trim(sub.Canonical, `"`))
		}
	}
	return text, applied
}

func (r Report) String() string {
	if len(r.Substitutions) == 0 {
		return string(r.Stage)
	}
	return fmt.Sprintf("%s (substituted %s)", r.Stage, strings.Join(r.Substitutions, ", "))
}
