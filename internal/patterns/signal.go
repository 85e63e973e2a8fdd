package patterns

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/rohankatakam/gitintel/internal/temporal"
)

// Kind identifies which commit type triggered a signal. The two kinds have
// different precision and are never merged.
type Kind string

const (
	KindFixAfterFeat     Kind = "fix_after_feat"
	KindFixAfterRefactor Kind = "fix_after_refactor"
)

// maxSharedFiles caps the overlap term of the severity score
const maxSharedFiles = 5

// Signal is a fix-after pair that survived the precision filters
type Signal struct {
	Kind     Kind     `json:"kind" yaml:"kind"`
	Severity float64  `json:"severity" yaml:"severity"`
	Message  string   `json:"message" yaml:"message"`
	Commits  []string `json:"commits" yaml:"commits"` // trigger then fix
	Files    []string `json:"files" yaml:"files"`

	fixPos int
	trgPos int
}

// Severity scores a pair: closer in sequence and wider overlap rank higher
func Severity(gapCommits, sharedFiles int) float64 {
	if sharedFiles <= 0 {
		return 0
	}
	if gapCommits < 0 {
		gapCommits = 0
	}
	overlap := min(sharedFiles, maxSharedFiles)
	return (1.0 / float64(gapCommits+1)) * (float64(overlap) / maxSharedFiles)
}

const cosmeticWord = `(?:style|typo|spacing|whitespace|formatting|format|lint|indent|indentation|cosmetic|prettier|gofmt)s?`

var (
	// fix, fixed, fix(scope)!: and friends, with the scope captured
	cosmeticLead = regexp.MustCompile(`^(?:fix(?:es|ed|ing)?|correct(?:s|ed|ing)?)(?:\(([^)]*)\))?!?:?(?:\s+|$)`)
	// the cosmetic word must be the object of the fix, not a modifier of
	// something else: "typo in README" but not "format string vulnerability"
	cosmeticObject = regexp.MustCompile(`^(?:(?:a|an|the|some|minor|small|more)\s+)*` +
		cosmeticWord + `(?:(?:\s*[,/]\s*|\s+and\s+)` + cosmeticWord + `)*` +
		`(?:$|[\s.,;:!]+(?:$|(?:in|on|of|for|to|at|across|after|issues?|errors?|warnings?|nits?|problems?|violations?|changes?)\b))`)
	cosmeticScope = regexp.MustCompile(`^` + cosmeticWord + `$`)
)

// IsCosmetic reports whether a commit message describes a purely stylistic
// change: the fix's scope or object is style vocabulary. Only the first line
// is considered.
func IsCosmetic(message string) bool {
	subject := strings.TrimSpace(strings.ToLower(temporal.FirstLine(message)))
	if m := cosmeticLead.FindStringSubmatch(subject); m != nil {
		if cosmeticScope.MatchString(strings.TrimSpace(m[1])) {
			return true
		}
		subject = subject[len(m[0]):]
	}
	return cosmeticObject.MatchString(subject)
}

// buildSignals applies the cosmetic and gravity filters to raw candidates,
// scores the survivors and orders them.
func buildSignals(candidates []candidate, gravity GravitySet, opts Options) []Signal {
	signals := []Signal{}
	for _, cand := range candidates {
		if IsCosmetic(cand.fix.Message) {
			continue
		}
		shared := gravity.Filter(cand.shared)
		if len(shared) == 0 {
			continue
		}

		tuning := opts.tuning(cand.kind)
		weight := min(max(tuning.Weight, 0), 1)
		severity := Severity(cand.gap, len(shared)) * weight
		if severity <= 0 || severity < tuning.MinSeverity {
			continue
		}

		signals = append(signals, Signal{
			Kind:     cand.kind,
			Severity: severity,
			Message:  signalMessage(cand, len(shared)),
			Commits:  []string{cand.trigger.ShortID(), cand.fix.ShortID()},
			Files:    shared,
			fixPos:   cand.fixPos,
			trgPos:   cand.trgPos,
		})
	}

	sort.SliceStable(signals, func(i, j int) bool {
		a, b := signals[i], signals[j]
		if a.Severity != b.Severity {
			return a.Severity > b.Severity
		}
		if a.fixPos != b.fixPos {
			return a.fixPos > b.fixPos
		}
		if a.Kind != b.Kind {
			return a.Kind < b.Kind
		}
		return a.trgPos > b.trgPos
	})
	return signals
}

func signalMessage(cand candidate, shared int) string {
	noun := "files"
	if shared == 1 {
		noun = "file"
	}
	return fmt.Sprintf("%s %s %q followed %s %s %q after %d intervening commits, sharing %d %s",
		temporal.TypeFix, cand.fix.ShortID(), cand.fix.Subject(),
		cand.trigger.Type, cand.trigger.ShortID(), cand.trigger.Subject(),
		cand.gap, shared, noun)
}
