package nessie

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/Kamiltczarnik/Lira/apperror"
	"github.com/Kamiltczarnik/Lira/models"
)

type identity struct {
	firstName string
	lastName  string
}

// Demo customers known to the mock. Ids look like Nessie object ids.
var identities = map[string]identity{
	"67c1f1e49683f20dd518c2a1": {firstName: "Joe", lastName: "Smith"},
	"67c1f2219683f20dd518c2a2": {firstName: "Jane", lastName: "Doe"},
	"67c1f2a89683f20dd518c2a3": {firstName: "Alex", lastName: "Johnson"},
}

var defaultIdentity = identity{firstName: "Joe", lastName: "Smith"}

// Usernames accepted by the mock login, lower case.
var logins = map[string]string{
	"joe":  "67c1f1e49683f20dd518c2a1",
	"jane": "67c1f2219683f20dd518c2a2",
	"alex": "67c1f2a89683f20dd518c2a3",
}

type accountTemplate struct {
	kind          string
	accountType   string
	nickname      string
	balance       float64
	rewards       int
	accountNumber string
}

// Every profile gets checking, savings and credit, in that order.
var accountTemplates = []accountTemplate{
	{kind: "checking", accountType: "Checking", nickname: "Everyday Checking", balance: 2543.67, rewards: 0, accountNumber: "****4821"},
	{kind: "savings", accountType: "Savings", nickname: "High-Yield Savings", balance: 12850.00, rewards: 0, accountNumber: "****7390"},
	{kind: "credit", accountType: "Credit Card", nickname: "Cash Rewards Card", balance: 842.15, rewards: 3250, accountNumber: "****1156"},
}

var transactionTemplates = []models.Transaction{
	{Type: "withdrawal", MerchantName: "Whole Foods Market", Amount: 87.42, Date: "2025-03-01T14:32:00Z", Description: "Groceries"},
	{Type: "deposit", MerchantName: "Acme Corp Payroll", Amount: 3200.00, Date: "2025-03-01T09:00:00Z", Description: "Direct deposit - salary"},
	{Type: "withdrawal", MerchantName: "Shell", Amount: 45.10, Date: "2025-02-28T18:05:00Z", Description: "Fuel"},
	{Type: "withdrawal", MerchantName: "Netflix", Amount: 15.49, Date: "2025-02-27T00:00:00Z", Description: "Streaming subscription"},
	{Type: "withdrawal", MerchantName: "Starbucks", Amount: 6.75, Date: "2025-02-26T08:15:00Z", Description: "Coffee"},
}

// ResolveIdentity looks customerID up in the demo table; unknown ids get Joe Smith.
func ResolveIdentity(customerID string) (string, string) {
	id, ok := identities[customerID]
	if !ok {
		id = defaultIdentity
	}
	return id.firstName, id.lastName
}

// SynthesizeAccounts returns one account per kind. Only the ids depend on customerID.
func SynthesizeAccounts(customerID string) []models.Account {
	accounts := make([]models.Account, len(accountTemplates))
	for i, tmpl := range accountTemplates {
		accounts[i] = models.Account{
			ID:            fmt.Sprintf("%s-%s", customerID, tmpl.kind),
			Type:          tmpl.accountType,
			Nickname:      tmpl.nickname,
			Balance:       tmpl.balance,
			Rewards:       tmpl.rewards,
			AccountNumber: tmpl.accountNumber,
		}
	}
	return accounts
}

// SynthesizeTransactions returns the five fixed transactions with ids {customerID}-tx1..5.
func SynthesizeTransactions(customerID string) []models.Transaction {
	transactions := make([]models.Transaction, len(transactionTemplates))
	for i, tmpl := range transactionTemplates {
		tmpl.ID = fmt.Sprintf("%s-tx%d", customerID, i+1)
		transactions[i] = tmpl
	}
	return transactions
}

// BuildProfile never fails, whatever the input, including the empty string.
func BuildProfile(customerID string) models.CustomerProfile {
	firstName, lastName := ResolveIdentity(customerID)
	return models.CustomerProfile{
		CustomerID:   customerID,
		FirstName:    firstName,
		LastName:     lastName,
		Accounts:     SynthesizeAccounts(customerID),
		Transactions: SynthesizeTransactions(customerID),
	}
}

// MockClient stands in for the Nessie API when no key is configured
type MockClient struct{}

// NewMockClient returns the deterministic, storage-free customer-record service
func NewMockClient() *MockClient {
	return &MockClient{}
}

// Login matches usernames case-insensitively; passwords are not checked.
func (m *MockClient) Login(_ context.Context, username string) (string, error) {
	customerID, ok := logins[strings.ToLower(strings.TrimSpace(username))]
	if !ok {
		return "", apperror.ErrInvalidCredentials
	}
	return customerID, nil
}

// Profile returns the synthesized profile for any id.
func (m *MockClient) Profile(_ context.Context, customerID string) (*models.CustomerProfile, error) {
	profile := BuildProfile(customerID)
	return &profile, nil
}

// Signup hands out a fresh id and the default checking account. Nothing is stored, so
// the new id only ever resolves to the default identity.
func (m *MockClient) Signup(_ context.Context, _ models.Signup) (*models.SignupResult, error) {
	customerID := strings.ReplaceAll(uuid.New().String(), "-", "")[:24]
	return &models.SignupResult{
		Message:     signupMessage,
		CustomerID:  customerID,
		AccountID:   fmt.Sprintf("%s-%s", customerID, defaultAccountKind),
		AccountType: defaultAccountType,
		Balance:     0,
	}, nil
}
