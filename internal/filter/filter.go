// Decide which postings never get contacted: blacklists, salary band,
// and the AI-keyword false-positive suppression.

package filter

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"

	mapset "github.com/deckarep/golang-set/v2"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"go-jobpilot-automation/internal/salary"
	"go-jobpilot-automation/internal/site"
)

// SalaryBand is the operator's acceptance band in monthly K. Absent
// bounds mean "accept any salary".
type SalaryBand struct {
	MinK   float64
	MaxK   float64
	HasMin bool
	HasMax bool
}

// BandFromSlice builds a band from the config's expected_salary list:
// empty means no preference, one entry is a floor, two are a floor and
// a ceiling.
func BandFromSlice(vals []int) SalaryBand {
	var b SalaryBand
	if len(vals) >= 1 {
		b.MinK = float64(vals[0])
		b.HasMin = true
	}
	if len(vals) >= 2 {
		b.MaxK = float64(vals[1])
		b.HasMax = true
	}
	return b
}

// Active reports whether any salary preference is set.
func (b SalaryBand) Active() bool {
	return b.HasMin || b.HasMax
}

// Engine is a pure decision function over postings. Safe for
// concurrent use after construction.
type Engine struct {
	companies  mapset.Set[string]
	recruiters mapset.Set[string]
	jobs       mapset.Set[string]
	band       SalaryBand
}

func NewEngine(companies, recruiters, jobs []string, band SalaryBand) *Engine {
	return &Engine{
		companies:  mapset.NewSet(companies...),
		recruiters: mapset.NewSet(recruiters...),
		jobs:       mapset.NewSet(jobs...),
		band:       band,
	}
}

// ShouldExclude reports whether the posting must be skipped, with a
// loggable reason. Blacklist matching is substring-contains and
// case-sensitive against the raw scraped field.
func (e *Engine) ShouldExclude(p site.Posting, keyword string) (bool, string) {
	if hit, ok := matchAny(p.CompanyName, e.companies); ok {
		return true, fmt.Sprintf("blacklisted company %q", hit)
	}
	if hit, ok := matchAny(p.RecruiterName, e.recruiters); ok {
		return true, fmt.Sprintf("blacklisted recruiter %q", hit)
	}
	if hit, ok := matchAny(p.Title, e.jobs); ok {
		return true, fmt.Sprintf("blacklisted job %q", hit)
	}

	if e.band.Active() {
		r, ok := salary.Parse(p.SalaryText)
		if !ok {
			// Conservative: with a preference set, an unreadable
			// salary counts as a mismatch.
			return true, fmt.Sprintf("unparsable salary %q with expectation set", p.SalaryText)
		}
		if e.band.HasMin && r.MaxK < e.band.MinK {
			return true, fmt.Sprintf("salary %q below expected minimum %.0fK", p.SalaryText, e.band.MinK)
		}
		if e.band.HasMax && r.MinK > e.band.MaxK {
			return true, fmt.Sprintf("salary %q above expected maximum %.0fK", p.SalaryText, e.band.MaxK)
		}
	}

	if keywordMismatch(keyword, p.Title) {
		return true, fmt.Sprintf("title %q does not match AI keyword %q", p.Title, keyword)
	}
	return false, ""
}

// matchAny returns the first blacklist value contained in field.
func matchAny(field string, set mapset.Set[string]) (string, bool) {
	var hit string
	set.Each(func(v string) bool {
		if v != "" && strings.Contains(field, v) {
			hit = v
			return true
		}
		return false
	})
	return hit, hit != ""
}

// Vocabulary for the AI-keyword suppression: searching for large-model
// roles surfaces design/product/operations listings whose titles merely
// sit near AI companies. Those are excluded unless the title itself is
// an AI title. Short ASCII terms match on word boundaries so keywords
// like "blockchain" never trip the "ai" substring; CJK terms have no
// word boundaries and stay substring-matched.
var (
	aiASCIIRe    = regexp.MustCompile(`\b(?:ai|llm|gpt|agent|nlp)\b`)
	aiCJKVocab   = []string{"人工智能", "大模型", "算法", "机器学习", "深度学习"}
	nonTechVocab = []string{"设计", "产品", "运营", "美术", "视觉", "交互", "市场", "销售", "客服"}
)

func isAITerm(text string) bool {
	return aiASCIIRe.MatchString(text) || containsAnyTerm(text, aiCJKVocab)
}

func keywordMismatch(keyword, title string) bool {
	if !isAITerm(normalizeText(keyword)) {
		return false
	}
	t := normalizeText(title)
	return containsAnyTerm(t, nonTechVocab) && !isAITerm(t)
}

func containsAnyTerm(text string, terms []string) bool {
	for _, term := range terms {
		if strings.Contains(text, term) {
			return true
		}
	}
	return false
}

func normalizeText(str string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	result, _, _ := transform.String(t, str)
	return strings.ToLower(result)
}
