package record

import (
	"sort"
	"strings"
	"unicode"
)

// JurisdictionInfo describes a supported patent jurisdiction.
type JurisdictionInfo struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

// JurisdictionRegistry resolves codes and aliases to canonical two-letter codes.
type JurisdictionRegistry struct {
	jurisdictions map[string]JurisdictionInfo
	aliases       map[string]string
}

// DefaultJurisdictions is the registry of jurisdictions the source
// collaborators are known to produce.
var DefaultJurisdictions = NewJurisdictionRegistry()

// NewJurisdictionRegistry builds the default registry.
func NewJurisdictionRegistry() *JurisdictionRegistry {
	r := &JurisdictionRegistry{
		jurisdictions: make(map[string]JurisdictionInfo),
		aliases:       make(map[string]string),
	}
	r.add("WO", "International (PCT)")
	r.addAlias("PCT", "WO")
	r.addAlias("WIPO", "WO")

	r.add("BR", "Brazil")
	r.addAlias("BRA", "BR")
	r.addAlias("BRAZIL", "BR")
	r.addAlias("BRASIL", "BR")

	r.add("US", "United States")
	r.addAlias("USA", "US")

	r.add("EP", "European Patent")
	r.addAlias("EPO", "EP")

	r.add("CN", "China")
	r.add("JP", "Japan")
	r.add("KR", "South Korea")
	r.add("IN", "India")
	r.add("MX", "Mexico")
	r.add("AR", "Argentina")
	r.add("CL", "Chile")
	r.add("CO", "Colombia")
	r.add("PE", "Peru")
	r.add("CA", "Canada")
	r.add("AU", "Australia")
	r.add("RU", "Russia")
	r.add("ZA", "South Africa")
	return r
}

func (r *JurisdictionRegistry) add(code, name string) {
	r.jurisdictions[code] = JurisdictionInfo{Code: code, Name: name}
}

func (r *JurisdictionRegistry) addAlias(alias, target string) {
	r.aliases[strings.ToUpper(alias)] = target
}

// Normalize maps a code or alias to its canonical code.  Unknown two-letter
// codes are returned upper-cased; anything else yields ok=false.
func (r *JurisdictionRegistry) Normalize(code string) (string, bool) {
	upper := strings.ToUpper(strings.TrimSpace(code))
	if _, ok := r.jurisdictions[upper]; ok {
		return upper, true
	}
	if target, ok := r.aliases[upper]; ok {
		return target, true
	}
	if len(upper) == 2 && isLetters(upper) {
		return upper, true
	}
	return "", false
}

// Supported reports whether code is a registered jurisdiction.
func (r *JurisdictionRegistry) Supported(code string) bool {
	_, ok := r.jurisdictions[strings.ToUpper(code)]
	return ok
}

// Name returns the display name for code, or code itself when unknown.
func (r *JurisdictionRegistry) Name(code string) string {
	if info, ok := r.jurisdictions[strings.ToUpper(code)]; ok {
		return info.Name
	}
	return code
}

// List returns the registered jurisdictions sorted by code.
func (r *JurisdictionRegistry) List() []JurisdictionInfo {
	list := make([]JurisdictionInfo, 0, len(r.jurisdictions))
	for _, info := range r.jurisdictions {
		list = append(list, info)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].Code < list[j].Code })
	return list
}

// InferJurisdiction returns the two leading letters of a publication number,
// or "" when the number does not start with a country prefix.
func InferJurisdiction(number string) string {
	n := CanonicalNumber(number)
	if len(n) < 2 || !isLetters(n[:2]) {
		return ""
	}
	return n[:2]
}

// CanonicalNumber upper-cases a publication or WO number and strips spaces,
// slashes and hyphens, so "WO 2013/084138" becomes "WO2013084138".
func CanonicalNumber(s string) string {
	var sb strings.Builder
	sb.Grow(len(s))
	for _, c := range strings.ToUpper(s) {
		switch {
		case unicode.IsSpace(c), c == '/', c == '-':
			continue
		default:
			sb.WriteRune(c)
		}
	}
	return sb.String()
}

func isLetters(s string) bool {
	for _, c := range s {
		if c < 'A' || c > 'Z' {
			return false
		}
	}
	return s != ""
}

//Personal.AI order the ending
