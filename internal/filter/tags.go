package filter

import (
	"fmt"
	"regexp"
	"strings"
)

type MatchMode string

const (
	MatchExact    MatchMode = "exact"
	MatchContains MatchMode = "contains"
	MatchRegex    MatchMode = "regex"
)

const (
	reasonBlacklist        = "Matched blacklist tag: %s"
	reasonWhitelist        = "Matched whitelist tag: %s"
	reasonNoWhitelistMatch = "No whitelist tag matched"
	reasonNoWhitelist      = "No whitelist configured, included by default"
)

func ParseMatchMode(s string) (MatchMode, error) {
	switch m := MatchMode(strings.ToLower(strings.TrimSpace(s))); m {
	case MatchExact, MatchContains, MatchRegex:
		return m, nil
	case "":
		return MatchExact, nil
	default:
		return "", fmt.Errorf("unknown tag match mode %q (want exact, contains or regex)", s)
	}
}

// TagFilter decides order inclusion from its tags. The blacklist is checked first
// and always wins over the whitelist.
type TagFilter struct {
	whitelist []string
	blacklist []string
	mode      MatchMode

	whitelistPatterns []*regexp.Regexp
	blacklistPatterns []*regexp.Regexp
}

func NewTagFilter(whitelist, blacklist []string, mode MatchMode) (*TagFilter, error) {
	if mode == "" {
		mode = MatchExact
	}

	f := &TagFilter{
		whitelist: lowerAll(whitelist),
		blacklist: lowerAll(blacklist),
		mode:      mode,
	}

	switch mode {
	case MatchExact, MatchContains:
	case MatchRegex:
		var err error
		if f.whitelistPatterns, err = compileAll(f.whitelist); err != nil {
			return nil, fmt.Errorf("whitelist: %w", err)
		}
		if f.blacklistPatterns, err = compileAll(f.blacklist); err != nil {
			return nil, fmt.Errorf("blacklist: %w", err)
		}
	default:
		return nil, fmt.Errorf("unknown tag match mode %q", mode)
	}

	return f, nil
}

// ShouldInclude returns the decision and a human readable reason.
func (f *TagFilter) ShouldInclude(tags []string) (bool, string) {
	normalized := lowerAll(tags)

	if len(f.blacklist) > 0 {
		if tag, ok := f.firstMatch(normalized, f.blacklist, f.blacklistPatterns); ok {
			return false, fmt.Sprintf(reasonBlacklist, tag)
		}
	}

	if len(f.whitelist) > 0 {
		if tag, ok := f.firstMatch(normalized, f.whitelist, f.whitelistPatterns); ok {
			return true, fmt.Sprintf(reasonWhitelist, tag)
		}
		return false, reasonNoWhitelistMatch
	}

	return true, reasonNoWhitelist
}

func (f *TagFilter) Mode() MatchMode { return f.mode }

func (f *TagFilter) String() string {
	return fmt.Sprintf("TagFilter(whitelist=%v, blacklist=%v, match_mode=%s)", f.whitelist, f.blacklist, f.mode)
}

// firstMatch walks order tags in their original order and returns the first one
// matching any entry of the list.
func (f *TagFilter) firstMatch(tags, list []string, patterns []*regexp.Regexp) (string, bool) {
	for _, tag := range tags {
		if tag == "" {
			continue
		}

		switch f.mode {
		case MatchExact:
			for _, entry := range list {
				if tag == entry {
					return tag, true
				}
			}
		case MatchContains:
			for _, entry := range list {
				if strings.Contains(tag, entry) || strings.Contains(entry, tag) {
					return tag, true
				}
			}
		case MatchRegex:
			for _, p := range patterns {
				if p.MatchString(tag) {
					return tag, true
				}
			}
		}
	}

	return "", false
}

func lowerAll(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		out = append(out, strings.ToLower(s))
	}
	return out
}

func compileAll(patterns []string) ([]*regexp.Regexp, error) {
	out := make([]*regexp.Regexp, 0, len(patterns))
	for _, p := range patterns {
		re, err := regexp.Compile("(?i)" + p)
		if err != nil {
			return nil, err
		}
		out = append(out, re)
	}
	return out, nil
}
