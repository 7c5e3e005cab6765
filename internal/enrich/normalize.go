package enrich

import "strings"

// positionSynonyms maps abbreviations and spelling variants to the labels
// stored on athlete records. Keys are lowercase.
var positionSynonyms = map[string]string{
	"gk":                   "Goalkeeper",
	"goalie":               "Goalkeeper",
	"keeper":               "Goalkeeper",
	"goalkeeper":           "Goalkeeper",
	"cb":                   "Centre-back",
	"center back":          "Centre-back",
	"centre back":          "Centre-back",
	"center-back":          "Centre-back",
	"centre-back":          "Centre-back",
	"central defender":     "Centre-back",
	"lb":                   "Left-back",
	"left back":            "Left-back",
	"left-back":            "Left-back",
	"rb":                   "Right-back",
	"right back":           "Right-back",
	"right-back":           "Right-back",
	"full back":            "Full-back",
	"full-back":            "Full-back",
	"fullback":             "Full-back",
	"lwb":                  "Left wing-back",
	"rwb":                  "Right wing-back",
	"wing back":            "Wing-back",
	"wing-back":            "Wing-back",
	"defender":             "Defender",
	"cdm":                  "Defensive midfielder",
	"dm":                   "Defensive midfielder",
	"defensive midfielder": "Defensive midfielder",
	"cm":                   "Central midfielder",
	"central midfielder":   "Central midfielder",
	"cam":                  "Attacking midfielder",
	"am":                   "Attacking midfielder",
	"attacking midfielder": "Attacking midfielder",
	"midfielder":           "Midfielder",
	"lm":                   "Left midfielder",
	"rm":                   "Right midfielder",
	"lw":                   "Left winger",
	"left winger":          "Left winger",
	"rw":                   "Right winger",
	"right winger":         "Right winger",
	"winger":               "Winger",
	"st":                   "Striker",
	"striker":              "Striker",
	"cf":                   "Centre-forward",
	"center forward":       "Centre-forward",
	"centre forward":       "Centre-forward",
	"center-forward":       "Centre-forward",
	"centre-forward":       "Centre-forward",
	"forward":              "Forward",
	"ss":                   "Second striker",
	"second striker":       "Second striker",
}

// StandardizePosition maps a validated position label to its canonical
// spelling. Unmapped labels are returned unchanged.
func StandardizePosition(value string) string {
	if canonical, ok := positionSynonyms[strings.ToLower(strings.TrimSpace(value))]; ok {
		return canonical
	}
	return value
}
