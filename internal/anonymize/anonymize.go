// Package anonymize redacts personal data from extracted roster text so the
// document structure can be shared when asking for a new institution layout.
package anonymize

import "regexp"

type rule struct {
	re          *regexp.Regexp
	replacement string
}

// Rules run in order; later rules see the output of earlier ones.
var rules = []rule{
	{regexp.MustCompile(`(Herrn|Frau)[\s\S]{1,100}?\d{5}\s+[A-ZÄÖÜ][a-zäöüß]+`), "[ADRESSE ANONYMISIERT]"},
	{regexp.MustCompile(`Personalschlüssel\s+\S+`), "Personalschlüssel [ANONYMISIERT]"},
	{regexp.MustCompile(`Kostenstelle\s+\d+`), "Kostenstelle [ANONYMISIERT]"},
	{regexp.MustCompile(`(?m)^[A-ZÄÖÜ][a-zäöüß]+(\s+[A-ZÄÖÜ][a-zäöüß]+){1,2}$`), "[NAME ANONYMISIERT]"},
	{regexp.MustCompile(`(?i)[A-ZÄÖÜ][a-zäöüß]+-?\s*str\.\s*\d+`), "[STRASSE ANONYMISIERT]"},
	{regexp.MustCompile(`(?i)[A-ZÄÖÜ][a-zäöüß]+\s*Straße\s*\d+`), "[STRASSE ANONYMISIERT]"},
	{regexp.MustCompile(`\d{5,}`), "[ZAHL ANONYMISIERT]"},
}

// Text returns text with addresses, staff numbers, cost centres, name-only
// lines, street addresses and long digit runs replaced by placeholders.
func Text(text string) string {
	for _, r := range rules {
		text = r.re.ReplaceAllLiteralString(text, r.replacement)
	}
	return text
}
