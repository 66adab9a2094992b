// Package classify recognizes single roster lines. Each institution supplies
// its own rule table; the timesheet parser only sees the Classifier interface.
package classify

import (
	"fmt"
	"regexp"
)

// Category is what a line was recognized as.
type Category int

const (
	None Category = iota
	Header
	Separator
	Work
	Vacation
	Sickness
	Holiday
	OnCall
)

var categoryNames = map[Category]string{
	None:      "none",
	Header:    "header",
	Separator: "separator",
	Work:      "work",
	Vacation:  "vacation",
	Sickness:  "sickness",
	Holiday:   "holiday",
	OnCall:    "on-call",
}

func (c Category) String() string {
	if name, ok := categoryNames[c]; ok {
		return name
	}
	return fmt.Sprintf("category(%d)", int(c))
}

// Phase is the document section a line is read in.
type Phase int

const (
	// MainLog is the day-by-day section before the on-call listing.
	MainLog Phase = iota
	// OnCallSection follows the phase separator until the end of the document.
	OnCallSection
)

// Capture group names understood in rule patterns.
const (
	GroupDay   = "day"
	GroupMonth = "month"
	GroupYear  = "year"
	GroupDate  = "date"
	GroupStart = "start"
	GroupEnd   = "end"
)

// Match is a recognized line with its named captures.
type Match struct {
	Category Category
	Groups   map[string]string
}

// Group returns the capture named name, or "".
func (m Match) Group(name string) string {
	return m.Groups[name]
}

// Classifier recognizes roster lines for one institution.
type Classifier interface {
	// Header returns the month and year if line is the month/year header.
	Header(line string) (month, year string, ok bool)
	// IsSeparator reports whether line starts the on-call section.
	IsSeparator(line string) bool
	// Classify returns the first matching content category for the phase.
	Classify(line string, phase Phase) (Match, bool)
}

// Patterns are the regular expressions of one institution. Sickness is
// optional; every other pattern is required.
type Patterns struct {
	Header    string `yaml:"header"`
	Separator string `yaml:"separator"`
	Work      string `yaml:"work"`
	Vacation  string `yaml:"vacation"`
	Sickness  string `yaml:"sickness"`
	Holiday   string `yaml:"holiday"`
	OnCall    string `yaml:"on_call"`
}

type rule struct {
	category Category
	re       *regexp.Regexp
}

// RuleSet is a Classifier driven by a table of compiled patterns.
// It holds no mutable state and is safe for concurrent use.
type RuleSet struct {
	header    *regexp.Regexp
	separator *regexp.Regexp
	mainLog   []rule
	onCall    []rule
}

// Compile builds a RuleSet from p.
func Compile(p Patterns) (*RuleSet, error) {
	rs := &RuleSet{}
	var err error

	if rs.header, err = compileRequired("header", p.Header, GroupMonth, GroupYear); err != nil {
		return nil, err
	}
	if rs.separator, err = compileRequired("separator", p.Separator); err != nil {
		return nil, err
	}

	// Main-log priority: work, vacation, sickness, holiday.
	mainLog := []struct {
		category Category
		pattern  string
		optional bool
		groups   []string
	}{
		{Work, p.Work, false, []string{GroupDay, GroupStart, GroupEnd}},
		{Vacation, p.Vacation, false, []string{GroupDay}},
		{Sickness, p.Sickness, true, []string{GroupDay}},
		{Holiday, p.Holiday, false, []string{GroupDay}},
	}
	for _, m := range mainLog {
		if m.optional && m.pattern == "" {
			continue
		}
		re, err := compileRequired(m.category.String(), m.pattern, m.groups...)
		if err != nil {
			return nil, err
		}
		rs.mainLog = append(rs.mainLog, rule{category: m.category, re: re})
	}

	re, err := compileRequired(OnCall.String(), p.OnCall, GroupStart, GroupEnd)
	if err != nil {
		return nil, err
	}
	if !hasGroups(re, GroupDate) && !hasGroups(re, GroupDay, GroupMonth, GroupYear) {
		return nil, fmt.Errorf("on-call pattern needs a %q group or %q, %q and %q groups",
			GroupDate, GroupDay, GroupMonth, GroupYear)
	}
	rs.onCall = []rule{{category: OnCall, re: re}}

	return rs, nil
}

func compileRequired(name, pattern string, groups ...string) (*regexp.Regexp, error) {
	if pattern == "" {
		return nil, fmt.Errorf("missing %s pattern", name)
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("compiling %s pattern: %w", name, err)
	}
	for _, g := range groups {
		if re.SubexpIndex(g) < 0 {
			return nil, fmt.Errorf("%s pattern lacks named group %q", name, g)
		}
	}
	return re, nil
}

func hasGroups(re *regexp.Regexp, groups ...string) bool {
	for _, g := range groups {
		if re.SubexpIndex(g) < 0 {
			return false
		}
	}
	return true
}

// Header implements Classifier.
func (rs *RuleSet) Header(line string) (string, string, bool) {
	groups, ok := matchGroups(rs.header, line)
	if !ok {
		return "", "", false
	}
	return groups[GroupMonth], groups[GroupYear], true
}

// IsSeparator implements Classifier.
func (rs *RuleSet) IsSeparator(line string) bool {
	return rs.separator.MatchString(line)
}

// Classify implements Classifier. The first matching rule wins.
func (rs *RuleSet) Classify(line string, phase Phase) (Match, bool) {
	rules := rs.mainLog
	if phase == OnCallSection {
		rules = rs.onCall
	}
	for _, r := range rules {
		if groups, ok := matchGroups(r.re, line); ok {
			return Match{Category: r.category, Groups: groups}, true
		}
	}
	return Match{}, false
}

// Has reports whether the rule set can ever emit category c.
func (rs *RuleSet) Has(c Category) bool {
	switch c {
	case Header, Separator, OnCall:
		return true
	}
	for _, r := range rs.mainLog {
		if r.category == c {
			return true
		}
	}
	return false
}

func matchGroups(re *regexp.Regexp, line string) (map[string]string, bool) {
	sub := re.FindStringSubmatch(line)
	if sub == nil {
		return nil, false
	}
	groups := make(map[string]string, len(sub))
	for i, name := range re.SubexpNames() {
		if name != "" && i < len(sub) {
			groups[name] = sub[i]
		}
	}
	return groups, true
}
