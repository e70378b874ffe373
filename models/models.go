package models

// CustomerProfile is the shape returned for GET /api/user/:customerId
type CustomerProfile struct {
	CustomerID   string        `json:"customer_id"`
	FirstName    string        `json:"first_name"`
	LastName     string        `json:"last_name"`
	Accounts     []Account     `json:"accounts"`
	Transactions []Transaction `json:"transactions"`
}

// Account represents a customer account (checking, savings or credit)
type Account struct {
	ID            string  `json:"id"`
	Type          string  `json:"type"`
	Nickname      string  `json:"nickname"`
	Balance       float64 `json:"balance"`
	Rewards       int     `json:"rewards"`
	AccountNumber string  `json:"account_number"`
}

// Transaction represents a single ledger entry
type Transaction struct {
	ID           string  `json:"transaction_id"`
	Type         string  `json:"type"` // "withdrawal" or "deposit"
	MerchantName string  `json:"merchant_name"`
	Amount       float64 `json:"amount"`
	Date         string  `json:"date"`
	Description  string  `json:"description"`
}

// Address is the postal address sent to the customer-record service on signup
type Address struct {
	StreetNumber string `json:"street_number"`
	StreetName   string `json:"street_name"`
	City         string `json:"city"`
	State        string `json:"state"`
	Zip          string `json:"zip"`
}

// Signup is a new customer registration after the street line has been split
type Signup struct {
	FirstName string
	LastName  string
	Address   Address
}

// SignupResult is returned once the customer and its default account exist
type SignupResult struct {
	Message     string  `json:"message"`
	CustomerID  string  `json:"customer_id"`
	AccountID   string  `json:"account_id"`
	AccountType string  `json:"account_type"`
	Balance     float64 `json:"balance"`
}
