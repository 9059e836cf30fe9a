package incident

// Race is a normalized race/ethnicity category.
type Race string

const (
	RaceUnknown         Race = "UNKNOWN"
	RaceWhite           Race = "WHITE"
	RaceBlack           Race = "BLACK"
	RaceHispanic        Race = "HISPANIC"
	RaceAsian           Race = "ASIAN"
	RacePacificIslander Race = "PACIFIC_ISLANDER"
	RaceAAPI            Race = "AAPI"
	RaceNativeAmerican  Race = "NATIVE_AMERICAN"
	RaceMultiple        Race = "MULTIPLE"
	RaceOther           Race = "OTHER"
)

// Known reports whether the category carries comparable information.
// OTHER is too coarse to contradict anything.
func (r Race) Known() bool {
	return r != "" && r != RaceUnknown && r != RaceOther
}

// Gender is a normalized gender category.
type Gender string

const (
	GenderUnknown   Gender = "UNKNOWN"
	GenderMale      Gender = "MALE"
	GenderFemale    Gender = "FEMALE"
	GenderNonbinary Gender = "NONBINARY"
	GenderOther     Gender = "OTHER"
)

// Known reports whether the category carries comparable information.
func (g Gender) Known() bool {
	return g != "" && g != GenderUnknown && g != GenderOther
}
