package classify_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Tiliavir/shiftplan/internal/classify"
)

var testPatterns = classify.Patterns{
	Header:    `Abrechnungsmonat\s+(?P<month>\d{2})/(?P<year>\d{4})`,
	Separator: `Bereitschaftsdienste`,
	Work:      `^\s*(?P<day>\d{2})\s+\w+\s+KO\*\s+(?P<start>\d{2}:\d{2})\s+GE\*\s+(?P<end>\d{2}:\d{2})`,
	Vacation:  `(?i)^\s*(?P<day>\d{2})\s+\w+\s+(URLTV|URLAUB|U)\b`,
	Sickness:  `(?i)^\s*(?P<day>\d{2})\s+\w+\s+(KRANK|K|KR)\b`,
	Holiday:   `(?i)^\s*(?P<day>\d{2})\s+\w+\*?\s+FEIER`,
	OnCall:    `^\s*(?P<date>\d{2}\.\d{2}\.\d{4})\s+.*?(?P<start>\d{2}:\d{2})\s+(?P<end>\d{2}:\d{2})`,
}

func mustCompile(t *testing.T, p classify.Patterns) *classify.RuleSet {
	t.Helper()
	rs, err := classify.Compile(p)
	require.NoError(t, err)
	return rs
}

func TestHeader(t *testing.T) {
	rs := mustCompile(t, testPatterns)

	month, year, ok := rs.Header("  Abrechnungsmonat   03/2024   Seite 1")
	require.True(t, ok)
	assert.Equal(t, "03", month)
	assert.Equal(t, "2024", year)

	_, _, ok = rs.Header("Abrechnung 03/2024")
	assert.False(t, ok)
}

func TestIsSeparator(t *testing.T) {
	rs := mustCompile(t, testPatterns)
	assert.True(t, rs.IsSeparator("   Bereitschaftsdienste im Monat"))
	assert.False(t, rs.IsSeparator("Bereitschaft"))
}

func TestClassifyMainLog(t *testing.T) {
	rs := mustCompile(t, testPatterns)

	tests := []struct {
		name     string
		line     string
		want     classify.Category
		wantDay  string
		wantSpan [2]string
	}{
		{"work", "05 Di KO* 07:35 GE* 15:50 8,25", classify.Work, "05", [2]string{"07:35", "15:50"}},
		{"work with wide spacing", "  05   Di    KO*   07:35    GE*  15:50", classify.Work, "05", [2]string{"07:35", "15:50"}},
		{"vacation URLTV", "12 Di URLTV", classify.Vacation, "12", [2]string{}},
		{"vacation lowercase", "13 Mi urlaub", classify.Vacation, "13", [2]string{}},
		{"sickness", "14 Do KRANK", classify.Sickness, "14", [2]string{}},
		{"sickness short", "15 Fr KR", classify.Sickness, "15", [2]string{}},
		{"holiday", "29 Fr* FEIERTAG", classify.Holiday, "29", [2]string{}},
		{"noise", "Personalnummer 12345", classify.None, "", [2]string{}},
		{"code prefix is not vacation", "16 Sa UEBERSTD", classify.None, "", [2]string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, ok := rs.Classify(tt.line, classify.MainLog)
			if tt.want == classify.None {
				assert.False(t, ok, "unexpected match %v", m.Category)
				return
			}
			require.True(t, ok)
			assert.Equal(t, tt.want, m.Category)
			assert.Equal(t, tt.wantDay, m.Group(classify.GroupDay))
			assert.Equal(t, tt.wantSpan[0], m.Group(classify.GroupStart))
			assert.Equal(t, tt.wantSpan[1], m.Group(classify.GroupEnd))
		})
	}
}

func TestClassifyPriority(t *testing.T) {
	// Matches both the work and the sickness rule; work comes first.
	p := testPatterns
	p.Sickness = `(?i)^\s*(?P<day>\d{2})\s+\w+\s+K`
	rs := mustCompile(t, p)

	m, ok := rs.Classify("05 Di KO* 07:35 GE* 15:50", classify.MainLog)
	require.True(t, ok)
	assert.Equal(t, classify.Work, m.Category)
}

func TestClassifyOnCall(t *testing.T) {
	rs := mustCompile(t, testPatterns)

	m, ok := rs.Classify("10.03.2024 So BD 19:50 00:00 4,17", classify.OnCallSection)
	require.True(t, ok)
	assert.Equal(t, classify.OnCall, m.Category)
	assert.Equal(t, "10.03.2024", m.Group(classify.GroupDate))
	assert.Equal(t, "19:50", m.Group(classify.GroupStart))
	assert.Equal(t, "00:00", m.Group(classify.GroupEnd))

	_, ok = rs.Classify("05 Di KO* 07:35 GE* 15:50", classify.OnCallSection)
	assert.False(t, ok, "main-log rules do not apply in the on-call section")

	_, ok = rs.Classify("10.03.2024 So BD 19:50 00:00", classify.MainLog)
	assert.False(t, ok, "on-call rule does not apply in the main log")
}

func TestOptionalSickness(t *testing.T) {
	p := testPatterns
	p.Sickness = ""
	rs := mustCompile(t, p)

	assert.False(t, rs.Has(classify.Sickness))
	assert.True(t, rs.Has(classify.Vacation))
	_, ok := rs.Classify("14 Do KRANK", classify.MainLog)
	assert.False(t, ok)
}

func TestCompileErrors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(p *classify.Patterns)
	}{
		{"missing header", func(p *classify.Patterns) { p.Header = "" }},
		{"missing holiday", func(p *classify.Patterns) { p.Holiday = "" }},
		{"invalid regexp", func(p *classify.Patterns) { p.Work = `(?P<day>\d{2}` }},
		{"work without start group", func(p *classify.Patterns) { p.Work = `(?P<day>\d{2}) (?P<end>\d{2}:\d{2})` }},
		{"header without year group", func(p *classify.Patterns) { p.Header = `Abrechnungsmonat (?P<month>\d{2})` }},
		{"on-call without date", func(p *classify.Patterns) { p.OnCall = `(?P<start>\d{2}:\d{2}) (?P<end>\d{2}:\d{2})` }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := testPatterns
			tt.mutate(&p)
			_, err := classify.Compile(p)
			assert.Error(t, err)
		})
	}
}

func TestOnCallWithSplitDate(t *testing.T) {
	p := testPatterns
	p.OnCall = `^\s*(?P<day>\d{2})\.(?P<month>\d{2})\.(?P<year>\d{4})\s+.*?(?P<start>\d{2}:\d{2})\s+(?P<end>\d{2}:\d{2})`
	rs := mustCompile(t, p)

	m, ok := rs.Classify("11.03.2024 Mo 00:00 07:35", classify.OnCallSection)
	require.True(t, ok)
	assert.Equal(t, "11", m.Group(classify.GroupDay))
	assert.Equal(t, "03", m.Group(classify.GroupMonth))
	assert.Equal(t, "2024", m.Group(classify.GroupYear))
}

func TestCategoryString(t *testing.T) {
	assert.Equal(t, "on-call", classify.OnCall.String())
	assert.Equal(t, "category(42)", classify.Category(42).String())
}
