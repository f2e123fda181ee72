package services

import (
	"sort"
	"strings"
	"unicode"

	"github.com/dmitrijs2005/xconnect/internal/server/models"
)

// Similarity scores of the suggestion heuristic.
const (
	ScoreExact      = 1.0
	ScoreNormalized = 0.8
	ScoreSubstring  = 0.5

	// SuggestThreshold is the lowest score that is still suggested.
	SuggestThreshold = 0.5

	minSubstringLen = 3
)

var abbreviations = map[string]string{
	"repo": "repository",
	"desc": "description",
	"cnt":  "count",
	"qty":  "quantity",
	"addr": "address",
	"org":  "organization",
	"msg":  "message",
	"num":  "number",
	"no":   "number",
}

// Compatible reports whether a source value of type src may be written to
// a target field of type dst.
func Compatible(src, dst models.FieldType) bool {
	switch {
	case src == models.TypeReference || dst == models.TypeReference:
		return src == dst
	case dst == models.TypeString:
		return true
	case src == models.TypeUnknown || dst == models.TypeUnknown:
		return false
	default:
		return src == dst
	}
}

// normalizeName splits a field name on separators and camelCase, lowercases
// and expands common abbreviations, drops a plural "s" and joins the words.
func normalizeName(name string) string {
	var words []string
	var cur []rune
	flush := func() {
		if len(cur) > 0 {
			words = append(words, string(cur))
			cur = cur[:0]
		}
	}
	runes := []rune(name)
	for i, r := range runes {
		switch {
		case !unicode.IsLetter(r) && !unicode.IsDigit(r):
			flush()
			continue
		case unicode.IsUpper(r) && i > 0 && len(cur) > 0:
			prev := runes[i-1]
			nextLower := i+1 < len(runes) && unicode.IsLower(runes[i+1])
			if unicode.IsLower(prev) || unicode.IsDigit(prev) || (unicode.IsUpper(prev) && nextLower) {
				flush()
			}
		}
		cur = append(cur, unicode.ToLower(r))
	}
	flush()

	var b strings.Builder
	for _, w := range words {
		if full, ok := abbreviations[w]; ok {
			w = full
		}
		if len(w) > 3 && strings.HasSuffix(w, "s") && !strings.HasSuffix(w, "ss") {
			w = strings.TrimSuffix(w, "s")
		}
		b.WriteString(w)
	}
	return b.String()
}

// nameScore rates how alike two field names are, ignoring types.
func nameScore(a, b string) float64 {
	if strings.EqualFold(a, b) {
		return ScoreExact
	}
	na, nb := normalizeName(a), normalizeName(b)
	if na == "" || nb == "" {
		return 0
	}
	if na == nb {
		return ScoreNormalized
	}
	short, long := na, nb
	if len(short) > len(long) {
		short, long = long, short
	}
	if len(short) >= minSubstringLen && strings.Contains(long, short) {
		return ScoreSubstring
	}
	return 0
}

// Score rates a source field against a target field. Incompatible types
// score 0.
func Score(src, dst models.FieldDescriptor) float64 {
	if !Compatible(src.DeclaredType, dst.DeclaredType) {
		return 0
	}
	return nameScore(src.Name, dst.Name)
}

// SuggestCorrespondences pairs source fields with target fields greedily.
// Sources with the strongest best match claim targets first, ties keep the
// declared order of sources, and each target is used at most once. Pairs
// scoring below SuggestThreshold are left out.
func SuggestCorrespondences(source, target []models.FieldDescriptor) []models.Correspondence {
	scores := make([][]float64, len(source))
	best := make([]float64, len(source))
	for i, s := range source {
		scores[i] = make([]float64, len(target))
		for j, t := range target {
			sc := Score(s, t)
			scores[i][j] = sc
			if sc > best[i] {
				best[i] = sc
			}
		}
	}

	order := make([]int, len(source))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return best[order[a]] > best[order[b]]
	})

	claimed := make([]bool, len(target))
	var out []models.Correspondence
	for _, i := range order {
		pick, pickScore := -1, 0.0
		for j := range target {
			if claimed[j] {
				continue
			}
			if sc := scores[i][j]; sc >= SuggestThreshold && sc > pickScore {
				pick, pickScore = j, sc
			}
		}
		if pick < 0 {
			continue
		}
		claimed[pick] = true
		out = append(out, models.Correspondence{
			SourceField: source[i].Name,
			TargetField: target[pick].Name,
			Confidence:  pickScore,
		})
	}
	return out
}
