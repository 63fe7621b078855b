// Package region maps Brazilian states to macro-regions and carries the
// region context used for price suggestions.
package region

import "strings"

const (
	// Country is the only supported country.
	Country = "BR"
	// NationalCode is the region code used by national seed prices.
	NationalCode = "BR"
)

// Macro-region codes.
const (
	North      = "N"
	Northeast  = "NE"
	CenterWest = "CO"
	Southeast  = "SE"
	South      = "S"
)

var stateToMacroRegion = map[string]string{
	"AC": North,
	"AL": Northeast,
	"AP": North,
	"AM": North,
	"BA": Northeast,
	"CE": Northeast,
	"DF": CenterWest,
	"ES": Southeast,
	"GO": CenterWest,
	"MA": Northeast,
	"MT": CenterWest,
	"MS": CenterWest,
	"MG": Southeast,
	"PA": North,
	"PB": Northeast,
	"PR": South,
	"PE": Northeast,
	"PI": Northeast,
	"RJ": Southeast,
	"RN": Northeast,
	"RS": South,
	"RO": North,
	"RR": North,
	"SC": South,
	"SP": Southeast,
	"SE": Northeast,
	"TO": North,
}

// MapStateToMacroRegion returns the macro-region for a state code. Lookup is
// case-insensitive; blank or unknown codes report false.
func MapStateToMacroRegion(uf string) (string, bool) {
	key := strings.ToUpper(strings.TrimSpace(uf))
	if key == "" {
		return "", false
	}
	macro, ok := stateToMacroRegion[key]
	return macro, ok
}

// IsKnownState reports whether uf is one of the 27 federative units.
func IsKnownState(uf string) bool {
	_, ok := MapStateToMacroRegion(uf)
	return ok
}

// Context identifies where the caller shops. Empty fields are absent.
type Context struct {
	Country     string
	UF          string
	MacroRegion string
}

// NewContext builds a Context from the user's preferred state.
func NewContext(preferredUF string) Context {
	uf := strings.ToUpper(strings.TrimSpace(preferredUF))
	macro, _ := MapStateToMacroRegion(uf)
	return Context{Country: Country, UF: uf, MacroRegion: macro}
}

// Codes returns the region codes relevant to c: the national code, then the
// state and macro-region when present.
func (c Context) Codes() []string {
	codes := []string{NationalCode}
	if uf := strings.ToUpper(strings.TrimSpace(c.UF)); uf != "" {
		codes = append(codes, uf)
	}
	if macro := strings.ToUpper(strings.TrimSpace(c.MacroRegion)); macro != "" {
		codes = append(codes, macro)
	}
	return codes
}
