package incident

// FieldResult is the outcome of comparing one field across two records.
type FieldResult int

const (
	// Missing means at least one side lacks usable data.
	Missing FieldResult = iota
	Mismatch
	Fuzzy
	Exact
)

// Agrees reports whether the result counts as agreement.
func (r FieldResult) Agrees() bool {
	return r == Exact || r == Fuzzy
}

// Weight scores the result for ranking candidates.
func (r FieldResult) Weight() int {
	switch r {
	case Exact:
		return 2
	case Fuzzy:
		return 1
	default:
		return 0
	}
}

func (r FieldResult) String() string {
	switch r {
	case Exact:
		return "exact"
	case Fuzzy:
		return "fuzzy"
	case Mismatch:
		return "mismatch"
	default:
		return "missing"
	}
}

// Agreement holds the per-field comparison results for one pair.
type Agreement struct {
	Date     FieldResult
	Location FieldResult
	Name     FieldResult
	Race     FieldResult
	Gender   FieldResult
	Age      FieldResult
}

// Score sums the field weights.
func (a Agreement) Score() int {
	return a.Date.Weight() + a.Location.Weight() + a.Name.Weight() +
		a.Race.Weight() + a.Gender.Weight() + a.Age.Weight()
}

// Verdict is the aggregate decision for an incident.
type Verdict string

const (
	VerdictMatch   Verdict = "MATCH"
	VerdictNoMatch Verdict = "NO_MATCH"
)

// MatchCandidate pairs an incident with one reference record and the result of
// comparing them. It lives only for the duration of a run.
type MatchCandidate struct {
	Incident  IncidentRecord
	Reference ReferenceRecord
	Agreement Agreement
	Verdict   Verdict
}
