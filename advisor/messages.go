package advisor

import (
	"strings"
	"text/template"

	"github.com/Kamiltczarnik/Lira/models"
)

const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Instruction opens every system prompt; the catalog block follows it after a blank line.
const Instruction = `You are Lira, a friendly AI banking advisor. Help the customer understand their accounts and spending, and recommend products only from the catalog below. Quote fees, APRs and perks exactly as listed. Keep answers short and conversational because they may be read aloud. If nothing in the catalog fits, say so instead of inventing a product.`

// Message is one role-tagged conversation turn. Clients may only send user and assistant
// turns; system turns are built server side.
type Message struct {
	Role    string `json:"role" validate:"required,oneof=user assistant"`
	Content string `json:"content"`
}

// PromptSource renders the product catalog as prompt text.
type PromptSource interface {
	RenderPromptBlock() string
}

// SystemPrompt joins the instruction and the catalog block.
func SystemPrompt(catalog PromptSource) string {
	return Instruction + "\n\n" + catalog.RenderPromptBlock()
}

var customerSummary = template.Must(template.New("customer").Parse(
	`Customer: {{.FirstName}} {{.LastName}} (id {{.CustomerID}})
Accounts:
{{- range .Accounts}}
- {{.Nickname}} ({{.Type}}): balance ${{printf "%.2f" .Balance}}{{if .Rewards}}, rewards {{.Rewards}}{{end}}
{{- end}}
Recent transactions:
{{- range .Transactions}}
- {{.Date}} {{.Type}} ${{printf "%.2f" .Amount}}{{if .MerchantName}} at {{.MerchantName}}{{end}}{{if .Description}} ({{.Description}}){{end}}
{{- end}}`))

// CustomerSummary renders profile as the context message that follows the system prompt.
func CustomerSummary(profile *models.CustomerProfile) string {
	var b strings.Builder
	if err := customerSummary.Execute(&b, profile); err != nil {
		panic("advisor: customer summary: " + err.Error())
	}
	return b.String()
}

// BuildMessages orders the conversation as: system prompt, optional customer summary,
// prior turns, latest user turn. Prior turns with no content are left out.
func BuildMessages(systemPrompt string, profile *models.CustomerProfile, history []Message, latest string) []Message {
	messages := make([]Message, 0, len(history)+3)
	messages = append(messages, Message{Role: RoleSystem, Content: systemPrompt})
	if profile != nil {
		messages = append(messages, Message{Role: RoleSystem, Content: CustomerSummary(profile)})
	}
	for _, m := range history {
		if strings.TrimSpace(m.Content) == "" {
			continue
		}
		messages = append(messages, m)
	}
	messages = append(messages, Message{Role: RoleUser, Content: latest})
	return messages
}
