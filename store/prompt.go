package store

import (
	"strings"
	"text/template"
)

// The chat backend is sensitive to this text: field order and punctuation are fixed.
var promptTemplates = template.Must(template.New("catalog").Parse(`{{define "bankAccounts"}}Bank Accounts:
{{range .}}- {{.Bank}} - {{.AccountName}} ({{.AccountType}}): Monthly Fee: {{.MonthlyFee}}, Minimum Balance: {{.MinimumBalance}}, Perks: {{.Perks}}
{{end}}{{end}}{{define "creditCards"}}Credit Cards:
{{range .}}- {{.Bank}} - {{.CardName}}: APR: {{.APRRange}}, Annual Fee: {{.AnnualFee}}, Rewards: {{.Rewards}}, Perks: {{.Perks}}
{{end}}{{end}}{{define "loans"}}Loans:
{{range .}}- {{.Bank}} - {{.LoanType}}: APR: {{.APRRange}}, Max Amount: {{.MaxAmount}}, Term Options: {{.TermOptions}}, Perks: {{.Perks}}
{{end}}{{end}}{{template "bankAccounts" .BankAccounts}}
{{template "creditCards" .CreditCards}}
{{template "loans" .Loans}}`))

// RenderPromptBlock renders the catalog as the text block injected into the chat
// system prompt. It is rebuilt on every call.
func (c *Catalog) RenderPromptBlock() string {
	var b strings.Builder
	if err := promptTemplates.Execute(&b, c.Records()); err != nil {
		// Only a broken template can fail here; the data is plain values.
		panic(err)
	}
	return strings.TrimRight(b.String(), "\n")
}
