package normalize

import "crosscheck/internal/incident"

// Input carries the raw identifying fields shared by both record shapes.
type Input struct {
	State   string
	Date    string
	Address string
	Zip     string
	Name    string
	Race    string
	Gender  string
	Age     string
}

// Key normalizes raw fields into a comparable key.
func Key(in Input) incident.NormalizedKey {
	return incident.NormalizedKey{
		Date:       Date(in.Date),
		Location:   Location(in.State, in.Address, in.Zip),
		NameTokens: Name(in.Name),
		Race:       Race(in.Race),
		Gender:     Gender(in.Gender),
		Age:        Age(in.Age),
	}
}

// Incident normalizes a primary record. A record without its own state falls
// back to the state configured for its dataset, which callers copy into
// r.State when loading.
func Incident(r incident.IncidentRecord) incident.NormalizedKey {
	return Key(Input{
		State:   r.State,
		Date:    r.Date,
		Address: r.Address,
		Zip:     r.Zip,
		Name:    r.Name,
		Race:    r.Race,
		Gender:  r.Gender,
		Age:     r.Age,
	})
}

// Reference normalizes a reference record.
func Reference(r incident.ReferenceRecord) incident.NormalizedKey {
	return Key(Input{
		State:   r.State,
		Date:    r.Date,
		Address: r.Address,
		Zip:     r.Zip,
		Name:    r.Name,
		Race:    r.Race,
		Gender:  r.Gender,
		Age:     r.Age,
	})
}
