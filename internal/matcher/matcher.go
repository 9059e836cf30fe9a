package matcher

import (
	"crosscheck/internal/candidates"
	"crosscheck/internal/incident"
)

// Matcher compares normalized keys under a fixed policy. It holds no mutable
// state and is safe for concurrent use.
type Matcher struct {
	policy Policy
}

// New constructs a Matcher, repairing out-of-range policy values.
func New(policy Policy) *Matcher {
	return &Matcher{policy: policy.normalized()}
}

// Policy returns the effective policy after normalization.
func (m *Matcher) Policy() Policy {
	return m.policy
}

// Evaluation is the outcome of matching one incident against its pool.
type Evaluation struct {
	Incident incident.IncidentRecord
	Key      incident.NormalizedKey
	Verdict  incident.Verdict
	// Best is the chosen reference record when Verdict is MATCH.
	Best *incident.MatchCandidate
	// NearMisses lists pool members sharing year and day of month with the
	// incident when Verdict is NO_MATCH, in pool order.
	NearMisses []incident.MatchCandidate
	// PoolSize is the number of candidates considered.
	PoolSize int
}

// Compare builds the per-field agreement vector for two keys.
func (m *Matcher) Compare(a, b incident.NormalizedKey) incident.Agreement {
	p := m.policy
	return incident.Agreement{
		Date:     compareDate(a.Date, b.Date, p),
		Location: compareLocation(a.Location, b.Location, p),
		Name:     compareName(a.NameTokens, b.NameTokens, p),
		Race:     compareRace(a.Race, b.Race, p),
		Gender:   compareGender(a.Gender, b.Gender),
		Age:      compareAge(a.Age, b.Age, p),
	}
}

// DemographicsAgree reports whether race, gender, and age jointly stand in for
// a name: none of them conflicts and enough of them agree.
func (m *Matcher) DemographicsAgree(ag incident.Agreement) bool {
	agreeing := 0
	for _, r := range []incident.FieldResult{ag.Race, ag.Gender, ag.Age} {
		if r == incident.Mismatch {
			return false
		}
		if r.Agrees() {
			agreeing++
		}
	}
	return agreeing >= m.policy.MinDemographicAgreement
}

// Qualifies applies the aggregation rule to one agreement vector.
func (m *Matcher) Qualifies(ag incident.Agreement) bool {
	identity := ag.Name.Agrees() || m.DemographicsAgree(ag)
	if ag.Date.Agrees() && ag.Location.Agrees() && identity {
		return true
	}
	if m.policy.AllowMissingLocation && ag.Location == incident.Missing &&
		ag.Date == incident.Exact && ag.Name.Agrees() && m.DemographicsAgree(ag) {
		return true
	}
	return false
}

// Evaluate matches an incident against its candidate pool. The verdict and the
// chosen reference depend only on the pool's contents, never on its order.
func (m *Matcher) Evaluate(rec incident.IncidentRecord, key incident.NormalizedKey, pool []candidates.Candidate) Evaluation {
	eval := Evaluation{
		Incident: rec,
		Key:      key,
		Verdict:  incident.VerdictNoMatch,
		PoolSize: len(pool),
	}

	agreements := make([]incident.Agreement, len(pool))
	best := -1
	for i, c := range pool {
		agreements[i] = m.Compare(key, c.Key)
		if !m.Qualifies(agreements[i]) {
			continue
		}
		if best < 0 || better(agreements[i], c.Reference, agreements[best], pool[best].Reference) {
			best = i
		}
	}

	if best >= 0 {
		eval.Verdict = incident.VerdictMatch
		eval.Best = &incident.MatchCandidate{
			Incident:  rec,
			Reference: pool[best].Reference,
			Agreement: agreements[best],
			Verdict:   incident.VerdictMatch,
		}
		return eval
	}

	if !key.Date.Complete() {
		return eval
	}
	for i, c := range pool {
		d := c.Key.Date
		if !d.Complete() || d.Year != key.Date.Year || d.Day != key.Date.Day {
			continue
		}
		eval.NearMisses = append(eval.NearMisses, incident.MatchCandidate{
			Incident:  rec,
			Reference: c.Reference,
			Agreement: agreements[i],
			Verdict:   incident.VerdictNoMatch,
		})
	}
	return eval
}

// better orders qualifying candidates by agreement score, then by a stable
// reference ordering so ties never depend on pool order.
func better(ag incident.Agreement, ref incident.ReferenceRecord, bestAg incident.Agreement, bestRef incident.ReferenceRecord) bool {
	if s, bs := ag.Score(), bestAg.Score(); s != bs {
		return s > bs
	}
	return referenceOrder(ref) < referenceOrder(bestRef)
}

func referenceOrder(ref incident.ReferenceRecord) string {
	return ref.ID + "\x00" + ref.Date + "\x00" + ref.Name + "\x00" + ref.Address + "\x00" + ref.Zip
}
