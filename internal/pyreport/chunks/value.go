package chunks

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"

	"git.home.luguber.info/inful/pyreport/internal/report/models"
)

// valueKind classifies a raw coverage value before normalization.
type valueKind string

const (
	valueHits     valueKind = "hits"
	valueFraction valueKind = "fraction"
	valuePartial  valueKind = "partial"
)

// coverageValue is the decoded shape of a ReportLine/LineSession "coverage"
// field: an integer hit-count, an "N/M" branches-taken fraction, or the
// boolean true meaning partial, per §4.2.
type coverageValue struct {
	kind          valueKind
	hits          int64
	hitBranches   int64
	totalBranches int64
}

func parseCoverageValue(raw json.RawMessage) (coverageValue, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || string(trimmed) == "null" {
		return coverageValue{kind: valueHits, hits: 0}, nil
	}

	switch trimmed[0] {
	case '"':
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return coverageValue{}, err
		}
		hb, tb, err := parseFraction(s)
		if err != nil {
			return coverageValue{}, err
		}
		return coverageValue{kind: valueFraction, hitBranches: hb, totalBranches: tb}, nil
	case 't', 'f':
		var b bool
		if err := json.Unmarshal(trimmed, &b); err != nil {
			return coverageValue{}, err
		}
		if b {
			return coverageValue{kind: valuePartial}, nil
		}
		return coverageValue{kind: valueHits, hits: 0}, nil
	default:
		var n int64
		if err := json.Unmarshal(trimmed, &n); err != nil {
			return coverageValue{}, err
		}
		return coverageValue{kind: valueHits, hits: n}, nil
	}
}

func parseFraction(s string) (hit, total int64, err error) {
	parts := strings.SplitN(s, "/", 2)
	hit, err = strconv.ParseInt(parts[0], 10, 64)
	if err != nil {
		return 0, 0, err
	}
	if len(parts) < 2 {
		return hit, 0, nil
	}
	total, err = strconv.ParseInt(parts[1], 10, 64)
	if err != nil {
		return 0, 0, err
	}
	return hit, total, nil
}

func parseCoverageType(raw json.RawMessage) (models.CoverageType, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || string(trimmed) == "null" {
		return models.CoverageLine, nil
	}
	var s string
	if err := json.Unmarshal(trimmed, &s); err != nil {
		return "", err
	}
	switch s {
	case "line":
		return models.CoverageLine, nil
	case "b", "branch":
		return models.CoverageBranch, nil
	case "m", "method":
		return models.CoverageMethod, nil
	default:
		return models.CoverageLine, nil
	}
}

// normalize applies the §4.2 normalization table to a fixpoint. The table
// is small and each rule strictly reduces the set of rules that can still
// apply, so a handful of passes always converges; this also makes repeated
// application trivially idempotent (Property 4).
func normalize(value coverageValue, typ models.CoverageType) (coverageValue, models.CoverageType) {
	for pass := 0; pass < 4; pass++ {
		changed := false

		if value.kind == valuePartial {
			value = coverageValue{kind: valueFraction, hitBranches: 1, totalBranches: 2}
			changed = true
		}
		if value.kind == valueFraction && typ == models.CoverageMethod {
			value = coverageValue{kind: valueHits, hits: value.hitBranches}
			changed = true
		}
		if value.kind == valueFraction && typ == models.CoverageLine {
			typ = models.CoverageBranch
			changed = true
		}
		if value.kind == valueHits && typ == models.CoverageBranch && value.hits >= 0 && value.hits <= 2 {
			value = coverageValue{kind: valueFraction, hitBranches: value.hits, totalBranches: 2}
			changed = true
		}

		if !changed {
			break
		}
	}
	return value, typ
}

// parseBranchDescriptor classifies a branches[] entry. A bare integer is a
// source line reference; a "BLOCK:..." string is block-and-branch; every
// other string (including "CONDITION" and "CONDITION:jump") is stored as
// Condition with the raw string retained verbatim.
func parseBranchDescriptor(raw json.RawMessage) (models.BranchFormat, string, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return "", "", errEmptyDescriptor
	}
	if trimmed[0] != '"' {
		var n json.Number
		if err := json.Unmarshal(trimmed, &n); err != nil {
			return "", "", err
		}
		return models.BranchLine, n.String(), nil
	}

	var s string
	if err := json.Unmarshal(trimmed, &s); err != nil {
		return "", "", err
	}
	if strings.HasPrefix(s, "BLOCK:") {
		return models.BranchBlockAndBranch, s, nil
	}
	return models.BranchCondition, s, nil
}

type descriptorError string

func (e descriptorError) Error() string { return string(e) }

const errEmptyDescriptor = descriptorError("empty branch descriptor")
