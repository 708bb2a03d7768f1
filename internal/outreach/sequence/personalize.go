package sequence

import (
	"strings"

	"outreach_backend/internal/leads"
)

// Body length limits imposed by the provider.
const (
	MaxNoteLength    = 300
	MaxMessageLength = 1000
)

// Personalize fills template placeholders from the lead. Missing first
// names degrade to "there" so greetings still read naturally; a missing
// company falls back to a phrase mined from the headline, then to a generic
// one.
func Personalize(template string, lead leads.Lead) string {
	first := strings.TrimSpace(lead.FirstName)
	if first == "" {
		first = "there"
	}
	last := strings.TrimSpace(lead.LastName)

	full := lead.FullName()
	if full == "" {
		full = "there"
	}

	replacer := strings.NewReplacer(
		"{{first_name}}", first,
		"{{last_name}}", last,
		"{{full_name}}", full,
		"{{company}}", companyFor(lead),
		"{{company_name}}", companyFor(lead),
	)
	return replacer.Replace(template)
}

// companyFor resolves the company placeholder: the explicit field first,
// then a name mined from the headline ("CTO at Acme | hiring" yields
// "Acme"), then a generic fallback.
func companyFor(lead leads.Lead) string {
	if company := strings.TrimSpace(lead.CompanyName); company != "" {
		return company
	}
	if mined := mineCompany(lead.Headline()); mined != "" {
		return mined
	}
	return "your company"
}

func mineCompany(headline string) string {
	_, after, found := strings.Cut(headline, " at ")
	if !found {
		return ""
	}
	company := after
	if before, _, ok := strings.Cut(company, " | "); ok {
		company = before
	}
	company = strings.TrimSpace(company)
	if company == "" || len(company) > 80 {
		return ""
	}
	return company
}

// Truncate enforces a hard length limit, ending with an ellipsis when the
// text was cut.
func Truncate(text string, max int) string {
	if len(text) <= max {
		return text
	}
	if max <= 3 {
		return text[:max]
	}
	return text[:max-3] + "..."
}
