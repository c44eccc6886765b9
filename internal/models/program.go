package models

import (
	"sort"
	"strings"
)

// Program codes of the insurance product lines.
const (
	ProgramRAP = "RAP"
	ProgramRAS = "RAS"
	ProgramACS = "ACS"
)

var programNames = map[string]string{
	ProgramRAS: "Real Estate Express Agent & Broker Express Application",
	ProgramRAP: "Individual Real Estate Appraiser Application",
	ProgramACS: "Accountants Express Application",
}

// ProgramName returns the display name of a program code.
func ProgramName(code string) (string, bool) {
	name, ok := programNames[strings.ToUpper(code)]
	return name, ok
}

// IsKnownProgram reports whether code names a supported program.
func IsKnownProgram(code string) bool {
	_, ok := ProgramName(code)
	return ok
}

// LineOfBusiness maps a policy number to its program name using the
// three-letter program prefix.
func LineOfBusiness(policyNumber string) string {
	if len(policyNumber) < 3 {
		return "Unknown Program"
	}
	if name, ok := ProgramName(policyNumber[:3]); ok {
		return name
	}
	return "Unknown Program"
}

// SupportedState is one (program, state) pair the backend currently writes.
type SupportedState struct {
	Program   string `json:"program"`
	StateCode string `json:"stateCode"`
	State     string `json:"state"`
}

// FlattenSupportedStates turns {program: {stateCode: stateName}} into a list
// sorted by program then state name.
func FlattenSupportedStates(byProgram map[string]map[string]string) []SupportedState {
	out := make([]SupportedState, 0)
	for program, states := range byProgram {
		for code, name := range states {
			out = append(out, SupportedState{Program: program, StateCode: code, State: name})
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Program != out[j].Program {
			return out[i].Program < out[j].Program
		}
		if out[i].State != out[j].State {
			return out[i].State < out[j].State
		}
		return out[i].StateCode < out[j].StateCode
	})
	return out
}

// USStates lists the state codes accepted on addresses.
var USStates = map[string]string{
	"AL": "Alabama", "AK": "Alaska", "AZ": "Arizona", "AR": "Arkansas", "CA": "California",
	"CO": "Colorado", "CT": "Connecticut", "DE": "Delaware", "DC": "District Of Columbia",
	"FL": "Florida", "GA": "Georgia", "HI": "Hawaii", "ID": "Idaho", "IL": "Illinois",
	"IN": "Indiana", "IA": "Iowa", "KS": "Kansas", "KY": "Kentucky", "LA": "Louisiana",
	"ME": "Maine", "MD": "Maryland", "MA": "Massachusetts", "MI": "Michigan", "MN": "Minnesota",
	"MS": "Mississippi", "MO": "Missouri", "MT": "Montana", "NE": "Nebraska", "NV": "Nevada",
	"NH": "New Hampshire", "NJ": "New Jersey", "NM": "New Mexico", "NY": "New York",
	"NC": "North Carolina", "ND": "North Dakota", "OH": "Ohio", "OK": "Oklahoma", "OR": "Oregon",
	"PA": "Pennsylvania", "RI": "Rhode Island", "SC": "South Carolina", "SD": "South Dakota",
	"TN": "Tennessee", "TX": "Texas", "UT": "Utah", "VT": "Vermont", "VA": "Virginia",
	"WA": "Washington", "WV": "West Virginia", "WI": "Wisconsin", "WY": "Wyoming",
}
