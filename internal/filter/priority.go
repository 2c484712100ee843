package filter

import (
	"errors"
	"regexp"
	"strconv"
	"strings"
)

const (
	DefaultPriority = 50
	MinPriority     = 1
	MaxPriority     = 99
)

var numericPriorityPattern = regexp.MustCompile(`(?i)^(?:priority|prio)[:\-_](\d+)$`)

var keywordPriorities = map[string]int{
	"urgent":    90,
	"critical":  90,
	"asap":      90,
	"high":      75,
	"important": 75,
	"normal":    50,
	"standard":  50,
	"low":       25,
}

// ParsePriority derives an order priority in [MinPriority, MaxPriority] from its tags.
// A numeric tag (priority:80, prio-5, ...) anywhere in the list beats any keyword tag.
func ParsePriority(tags []string) int {
	if p, ok := numericPriority(tags); ok {
		return p
	}

	if p, ok := keywordPriority(tags); ok {
		return p
	}

	return DefaultPriority
}

func numericPriority(tags []string) (int, bool) {
	for _, tag := range tags {
		m := numericPriorityPattern.FindStringSubmatch(strings.TrimSpace(tag))
		if m == nil {
			continue
		}

		value, err := strconv.Atoi(m[1])
		if err != nil {
			// only digits can reach here, so the value overflowed int
			if errors.Is(err, strconv.ErrRange) {
				return MaxPriority, true
			}
			continue
		}

		return clampPriority(value), true
	}

	return 0, false
}

func keywordPriority(tags []string) (int, bool) {
	for _, tag := range tags {
		if p, ok := keywordPriorities[strings.ToLower(strings.TrimSpace(tag))]; ok {
			return p, true
		}
	}

	return 0, false
}

func clampPriority(value int) int {
	if value < MinPriority {
		return MinPriority
	}
	if value > MaxPriority {
		return MaxPriority
	}
	return value
}

// IsPriorityTag reports whether the tag is understood by ParsePriority.
func IsPriorityTag(tag string) bool {
	tag = strings.TrimSpace(tag)
	if numericPriorityPattern.MatchString(tag) {
		return true
	}

	_, ok := keywordPriorities[strings.ToLower(tag)]
	return ok
}

// KeywordPriorities returns a copy of the keyword table.
func KeywordPriorities() map[string]int {
	out := make(map[string]int, len(keywordPriorities))
	for k, v := range keywordPriorities {
		out[k] = v
	}
	return out
}

func PriorityRange() (int, int) {
	return MinPriority, MaxPriority
}
