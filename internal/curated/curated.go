// Package curated holds the offline first-aid table used for emergency
// advisories. Entries are authored per language and never change at runtime.
package curated

import (
	"strings"

	"github.com/mediguide-lk/mediguide/internal/advisory"
)

// Situation is the canonical, language-independent key of a curated entry.
type Situation string

const (
	SnakeBite      Situation = "snake_bite"
	DogBite        Situation = "dog_bite"
	Choking        Situation = "choking"
	SevereBleeding Situation = "severe_bleeding"
	Poisoning      Situation = "poisoning"
	HeartAttack    Situation = "heart_attack"
)

var order = []Situation{SnakeBite, DogBite, Choking, SevereBleeding, Poisoning, HeartAttack}

// Entry is the first-aid guidance for one situation in one language.
type Entry struct {
	Actions  []string `json:"actions"`
	Avoid    []string `json:"avoid"`
	Tip      string   `json:"tip"`
	ImageRef string   `json:"imageRef"`
}

type record struct {
	image   string
	labels  map[advisory.Language]string
	content map[advisory.Language]Entry
}

// All returns the situations in display order.
func All() []Situation {
	out := make([]Situation, len(order))
	copy(out, order)
	return out
}

// Lookup returns the entry for s in lang. The returned slices are copies.
func Lookup(s Situation, lang advisory.Language) (Entry, bool) {
	rec, ok := table[s]
	if !ok {
		return Entry{}, false
	}
	e, ok := rec.content[lang]
	if !ok {
		return Entry{}, false
	}
	return Entry{
		Actions:  append([]string(nil), e.Actions...),
		Avoid:    append([]string(nil), e.Avoid...),
		Tip:      e.Tip,
		ImageRef: imageBase + rec.image,
	}, true
}

// Label returns the display label of s in lang, falling back to English.
func Label(s Situation, lang advisory.Language) string {
	rec, ok := table[s]
	if !ok {
		return string(s)
	}
	if l, ok := rec.labels[lang]; ok {
		return l
	}
	return rec.labels[advisory.English]
}

// ParseSituation resolves a display label in any supported language, or the
// canonical key itself, to a Situation.
func ParseSituation(label string) (Situation, bool) {
	label = strings.TrimSpace(label)
	if label == "" {
		return "", false
	}
	for _, s := range order {
		if strings.EqualFold(label, string(s)) {
			return s, true
		}
		for _, l := range table[s].labels {
			if strings.EqualFold(label, l) {
				return s, true
			}
		}
	}
	return "", false
}
