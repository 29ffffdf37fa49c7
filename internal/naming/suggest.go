package naming

import "strings"

// Suggestion is a best-effort standard-name candidate for a non-standard
// feature name. When Confident is false the Candidate is the input name
// unchanged: an honest "no idea" beats a plausible-but-wrong rename.
type Suggestion struct {
	Candidate string
	Confident bool
}

// maxTokenDistance is the largest edit distance still considered a match
// when repairing a single taxonomy token.
const maxTokenDistance = 2

// SuggestStandardName attempts to repair a non-standard feature name by
// matching each token against its catalog position, tolerating small typos
// and a few common aliases. Names that are already conformant come back
// unchanged and confident.
func (v *Validator) SuggestStandardName(name string) Suggestion {
	parts, err := Split(name)
	if err != nil {
		return Suggestion{Candidate: name, Confident: false}
	}

	repaired := Parts{
		Joint:       repairToken(parts.Joint, v.catalog.Joints, jointAliases),
		Motion:      repairToken(parts.Motion, v.catalog.Motions, motionAliases),
		Measurement: repairToken(parts.Measurement, v.catalog.Measurements, nil),
		Side:        repairToken(parts.Side, v.catalog.Sides, sideAliases),
		Unit:        repairToken(parts.Unit, v.catalog.Units, nil),
	}

	if !v.catalog.Conformant(repaired) {
		return Suggestion{Candidate: name, Confident: false}
	}
	return Suggestion{Candidate: repaired.String(), Confident: true}
}

var jointAliases = map[string]string{
	"hips":  "hip",
	"knees": "knee",
}

var motionAliases = map[string]string{
	"flex":      "flexion",
	"ext":       "extension",
	"add":       "adduction",
	"abd":       "abduction",
	"rot":       "rotation",
	"dorsiflex": "dorsiflexion",
}

var sideAliases = map[string]string{
	"ipsilateral":   "ipsi",
	"contralateral": "contra",
	"l":             "ipsi",
	"r":             "contra",
}

// repairToken resolves a token against a catalog list: exact match first,
// then alias, then nearest catalog entry within maxTokenDistance.
func repairToken(token string, catalog []string, aliases map[string]string) string {
	lowered := strings.ToLower(token)
	for _, v := range catalog {
		if v == token || strings.ToLower(v) == lowered {
			return v
		}
	}
	if alias, ok := aliases[lowered]; ok {
		return alias
	}

	best := token
	bestDist := maxTokenDistance + 1
	for _, v := range catalog {
		if d := editDistance(lowered, strings.ToLower(v)); d < bestDist {
			best = v
			bestDist = d
		}
	}
	return best
}

// editDistance is the Levenshtein distance between two strings.
func editDistance(a, b string) int {
	if a == b {
		return 0
	}
	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)
	for j := range prev {
		prev[j] = j
	}
	for i := 1; i <= len(a); i++ {
		curr[0] = i
		for j := 1; j <= len(b); j++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			curr[j] = min3(prev[j]+1, curr[j-1]+1, prev[j-1]+cost)
		}
		prev, curr = curr, prev
	}
	return prev[len(b)]
}

func min3(a, b, c int) int {
	if b < a {
		a = b
	}
	if c < a {
		a = c
	}
	return a
}
