package incident

import "strings"

// Field is one original column carried verbatim from a source row.
type Field struct {
	Name  string
	Value string
}

// Fields is the ordered, opaque bag of source columns attached to a record.
type Fields []Field

// Get returns the value stored under name, compared case-insensitively.
func (f Fields) Get(name string) (string, bool) {
	for _, field := range f {
		if strings.EqualFold(field.Name, name) {
			return field.Value, true
		}
	}
	return "", false
}

// Names returns the column names in source order.
func (f Fields) Names() []string {
	out := make([]string, len(f))
	for i, field := range f {
		out[i] = field.Name
	}
	return out
}

// IncidentID identifies a primary record across runs.
type IncidentID struct {
	Dataset string
	CaseID  string
}

// String renders the ledger key form dataset/case.
func (id IncidentID) String() string {
	return id.Dataset + "/" + id.CaseID
}

// IncidentRecord is a row from a primary dataset.
type IncidentRecord struct {
	Dataset string
	CaseID  string
	Agency  string
	State   string
	Date    string
	Address string
	Zip     string
	Name    string
	Race    string
	Gender  string
	Age     string
	Fields  Fields
}

// ID returns the stable identifier used by the ledger.
func (r IncidentRecord) ID() IncidentID {
	return IncidentID{Dataset: r.Dataset, CaseID: r.CaseID}
}

// ReferenceRecord is a row from the canonical reference database.
type ReferenceRecord struct {
	ID      string
	Agency  string
	State   string
	Date    string
	Address string
	Zip     string
	City    string
	Name    string
	Race    string
	Gender  string
	Age     string
	Fields  Fields
}

// Dataset is one primary source: a jurisdiction's table with its defaults.
type Dataset struct {
	ID      string
	Agency  string
	State   string
	Source  string
	Records []IncidentRecord
}
