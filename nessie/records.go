package nessie

import (
	"context"

	"github.com/Kamiltczarnik/Lira/models"
)

// Records is the customer-record service contract. Client talks to the real Nessie API;
// MockClient satisfies the same contract without any network calls.
type Records interface {
	// Login maps a username to a customer id, or apperror.ErrInvalidCredentials.
	Login(ctx context.Context, username string) (string, error)
	// Profile returns identity, accounts and transactions for a customer id.
	Profile(ctx context.Context, customerID string) (*models.CustomerProfile, error)
	// Signup creates a customer with a default checking account.
	Signup(ctx context.Context, signup models.Signup) (*models.SignupResult, error)
}

// Every new customer starts with one empty checking account.
const (
	signupMessage          = "User created successfully"
	defaultAccountKind     = "checking"
	defaultAccountType     = "Checking"
	defaultAccountNickname = "Primary Checking"
)
