// Package region reshapes flat region lists into alphabetic index buckets
// for letter-indexed pickers.
package region

import (
	"slices"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Record is a region as returned by the region API.
type Record struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	FirstLetter string `json:"firstLetter"`
	ParentID    int64  `json:"pid"`
}

// Item is a Record tagged with the singular name of its level.
type Item struct {
	Record
	Key string
}

// Bucket groups the records sharing an index letter.
type Bucket struct {
	Title string
	Key   string
	Items []Item
}

// Level identifies a tier of the region tree.
type Level int

const (
	Province Level = iota
	City
	District
)

// Plural is the state key the level's buckets are stored under.
func (l Level) Plural() string {
	switch l {
	case Province:
		return "provinces"
	case City:
		return "cities"
	case District:
		return "districts"
	default:
		return "regions"
	}
}

// Singular is the key attached to every item of the level.
func (l Level) Singular() string {
	switch l {
	case Province:
		return "province"
	case City:
		return "city"
	case District:
		return "district"
	default:
		return "region"
	}
}

// Next returns the level below l; District has none.
func (l Level) Next() (Level, bool) {
	if l >= District {
		return l, false
	}
	return l + 1, true
}

func (l Level) String() string {
	return l.Singular()
}

// DefaultExclusions are the regions the storefront does not ship to.
var DefaultExclusions = []string{"澳门特别行政区", "台湾省", "香港特别行政区"}

// unknownLetter buckets records without a usable first letter.
const unknownLetter = "#"

// Options control Build.
type Options struct {
	// Exclude lists region names dropped before bucketing.
	Exclude []string
	// ItemKey tags every emitted item, normally Level.Singular().
	ItemKey string
}

// Build filters, groups and sorts records. Items keep their input order
// within a bucket; buckets are ordered by title using byte-wise comparison.
func Build(records []Record, opts Options) []Bucket {
	if len(records) == 0 {
		return nil
	}
	excluded := make(map[string]struct{}, len(opts.Exclude))
	for _, name := range opts.Exclude {
		excluded[name] = struct{}{}
	}

	index := make(map[string]int)
	var buckets []Bucket
	for _, rec := range records {
		if _, skip := excluded[rec.Name]; skip {
			continue
		}
		letter := indexLetter(rec.FirstLetter)
		pos, ok := index[letter]
		if !ok {
			pos = len(buckets)
			index[letter] = pos
			buckets = append(buckets, Bucket{Title: letter, Key: letter})
		}
		buckets[pos].Items = append(buckets[pos].Items, Item{Record: rec, Key: opts.ItemKey})
	}

	slices.SortStableFunc(buckets, func(a, b Bucket) int {
		return strings.Compare(a.Title, b.Title)
	})
	return buckets
}

// BuildLevel is Build with the level's singular key.
func BuildLevel(records []Record, level Level, exclude []string) []Bucket {
	return Build(records, Options{Exclude: exclude, ItemKey: level.Singular()})
}

// Titles lists bucket titles in order, the letters shown on the index bar.
func Titles(buckets []Bucket) []string {
	titles := make([]string, 0, len(buckets))
	for _, b := range buckets {
		titles = append(titles, b.Title)
	}
	return titles
}

func indexLetter(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return unknownLetter
	}
	// Casers carry state, so each call gets its own.
	return cases.Upper(language.Und).String(trimmed)
}
