package nessie

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/Kamiltczarnik/Lira/apperror"
	"github.com/Kamiltczarnik/Lira/models"
)

const (
	DefaultBaseURL = "http://api.nessieisreal.com"
	serviceName    = "nessie"
)

// Client calls the Nessie customer-record API. Every call gets its own timeout.
type Client struct {
	baseURL    string
	apiKey     string
	timeout    time.Duration
	httpClient *http.Client
	log        logrus.FieldLogger
}

type customer struct {
	ID        string          `json:"_id,omitempty"`
	FirstName string          `json:"first_name"`
	LastName  string          `json:"last_name"`
	Address   *models.Address `json:"address,omitempty"`
}

type account struct {
	ID            string  `json:"_id,omitempty"`
	Type          string  `json:"type"`
	Nickname      string  `json:"nickname"`
	Rewards       int     `json:"rewards"`
	Balance       float64 `json:"balance"`
	AccountNumber string  `json:"account_number,omitempty"`
}

type purchase struct {
	ID           string  `json:"_id"`
	MerchantID   string  `json:"merchant_id"`
	PurchaseDate string  `json:"purchase_date"`
	Amount       float64 `json:"amount"`
	Description  string  `json:"description"`
}

type deposit struct {
	ID              string  `json:"_id"`
	TransactionDate string  `json:"transaction_date"`
	Amount          float64 `json:"amount"`
	Description     string  `json:"description"`
}

type merchant struct {
	ID   string `json:"_id"`
	Name string `json:"name"`
}

type createdResponse[T any] struct {
	Code          int    `json:"code"`
	Message       string `json:"message"`
	ObjectCreated *T     `json:"objectCreated"`
}

// NewClient creates a Nessie client. An empty baseURL means DefaultBaseURL.
func NewClient(baseURL, apiKey string, timeout time.Duration, log logrus.FieldLogger) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		apiKey:     apiKey,
		timeout:    timeout,
		httpClient: &http.Client{},
		log:        log,
	}
}

// Login finds the customer whose first name matches username, ignoring case.
func (c *Client) Login(ctx context.Context, username string) (string, error) {
	var customers []customer
	if err := c.do(ctx, http.MethodGet, "/customers", nil, &customers, http.StatusOK); err != nil {
		return "", fmt.Errorf("login: %w", err)
	}

	username = strings.TrimSpace(username)
	for _, cust := range customers {
		if strings.EqualFold(cust.FirstName, username) {
			return cust.ID, nil
		}
	}
	return "", apperror.ErrInvalidCredentials
}

// Profile assembles the customer, its accounts and each account's purchases and deposits.
func (c *Client) Profile(ctx context.Context, customerID string) (*models.CustomerProfile, error) {
	var cust customer
	err := c.do(ctx, http.MethodGet, "/customers/"+url.PathEscape(customerID), nil, &cust, http.StatusOK)
	if err != nil {
		var upstreamErr *apperror.UpstreamError
		if errors.As(err, &upstreamErr) && upstreamErr.Status == http.StatusNotFound {
			return nil, apperror.ErrCustomerNotFound
		}
		return nil, fmt.Errorf("profile: customer: %w", err)
	}

	var accounts []account
	if err := c.do(ctx, http.MethodGet, "/customers/"+url.PathEscape(customerID)+"/accounts", nil, &accounts, http.StatusOK); err != nil {
		return nil, fmt.Errorf("profile: accounts: %w", err)
	}

	profile := &models.CustomerProfile{
		CustomerID:   customerID,
		FirstName:    cust.FirstName,
		LastName:     cust.LastName,
		Accounts:     make([]models.Account, 0, len(accounts)),
		Transactions: []models.Transaction{},
	}

	merchantNames := make(map[string]string)
	for _, acc := range accounts {
		profile.Accounts = append(profile.Accounts, models.Account{
			ID:            acc.ID,
			Type:          acc.Type,
			Nickname:      acc.Nickname,
			Balance:       acc.Balance,
			Rewards:       acc.Rewards,
			AccountNumber: acc.AccountNumber,
		})

		transactions, err := c.accountTransactions(ctx, acc.ID, merchantNames)
		if err != nil {
			return nil, fmt.Errorf("profile: account %s: %w", acc.ID, err)
		}
		profile.Transactions = append(profile.Transactions, transactions...)
	}

	return profile, nil
}

func (c *Client) accountTransactions(ctx context.Context, accountID string, merchantNames map[string]string) ([]models.Transaction, error) {
	var purchases []purchase
	if err := c.do(ctx, http.MethodGet, "/accounts/"+url.PathEscape(accountID)+"/purchases", nil, &purchases, http.StatusOK); err != nil {
		return nil, fmt.Errorf("purchases: %w", err)
	}
	var deposits []deposit
	if err := c.do(ctx, http.MethodGet, "/accounts/"+url.PathEscape(accountID)+"/deposits", nil, &deposits, http.StatusOK); err != nil {
		return nil, fmt.Errorf("deposits: %w", err)
	}

	transactions := make([]models.Transaction, 0, len(purchases)+len(deposits))
	for _, p := range purchases {
		name, err := c.merchantName(ctx, p.MerchantID, merchantNames)
		if err != nil {
			return nil, err
		}
		transactions = append(transactions, models.Transaction{
			ID:           p.ID,
			Type:         "withdrawal",
			MerchantName: name,
			Amount:       p.Amount,
			Date:         p.PurchaseDate,
			Description:  p.Description,
		})
	}
	for _, d := range deposits {
		transactions = append(transactions, models.Transaction{
			ID:          d.ID,
			Type:        "deposit",
			Amount:      d.Amount,
			Date:        d.TransactionDate,
			Description: d.Description,
		})
	}
	return transactions, nil
}

func (c *Client) merchantName(ctx context.Context, merchantID string, cache map[string]string) (string, error) {
	if merchantID == "" {
		return "", nil
	}
	if name, ok := cache[merchantID]; ok {
		return name, nil
	}

	var m merchant
	if err := c.do(ctx, http.MethodGet, "/merchants/"+url.PathEscape(merchantID), nil, &m, http.StatusOK); err != nil {
		return "", fmt.Errorf("merchant %s: %w", merchantID, err)
	}
	cache[merchantID] = m.Name
	return m.Name, nil
}

// Signup creates the customer, then its default checking account.
func (c *Client) Signup(ctx context.Context, signup models.Signup) (*models.SignupResult, error) {
	payload := customer{
		FirstName: signup.FirstName,
		LastName:  signup.LastName,
		Address:   &signup.Address,
	}
	var created createdResponse[customer]
	if err := c.do(ctx, http.MethodPost, "/customers", payload, &created, http.StatusCreated); err != nil {
		return nil, fmt.Errorf("signup: create customer: %w", err)
	}
	if created.ObjectCreated == nil || created.ObjectCreated.ID == "" {
		return nil, apperror.Upstream(serviceName, errors.New("customer creation response does not have expected structure"))
	}
	customerID := created.ObjectCreated.ID
	c.log.WithField("customerId", customerID).Info("Nessie.Signup.CustomerCreated")

	accountPayload := account{
		Type:     defaultAccountType,
		Nickname: defaultAccountNickname,
		Rewards:  0,
		Balance:  0,
	}
	var createdAccount createdResponse[account]
	path := "/customers/" + url.PathEscape(customerID) + "/accounts"
	if err := c.do(ctx, http.MethodPost, path, accountPayload, &createdAccount, http.StatusCreated); err != nil {
		return nil, fmt.Errorf("signup: create account: %w", err)
	}
	if createdAccount.ObjectCreated == nil || createdAccount.ObjectCreated.ID == "" {
		return nil, apperror.Upstream(serviceName, errors.New("account creation response does not have expected structure"))
	}

	return &models.SignupResult{
		Message:     signupMessage,
		CustomerID:  customerID,
		AccountID:   createdAccount.ObjectCreated.ID,
		AccountType: createdAccount.ObjectCreated.Type,
		Balance:     createdAccount.ObjectCreated.Balance,
	}, nil
}

func (c *Client) do(ctx context.Context, method, path string, body, out interface{}, wantStatus int) error {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	target := c.baseURL + path + "?key=" + url.QueryEscape(c.apiKey)
	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		// url.Error carries the full target, api key included.
		var urlErr *url.Error
		if errors.As(err, &urlErr) {
			err = fmt.Errorf("%s %s: %w", method, path, urlErr.Err)
		}
		return apperror.Upstream(serviceName, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return apperror.Upstream(serviceName, fmt.Errorf("read response: %w", err))
	}

	c.log.WithFields(logrus.Fields{
		"method":     method,
		"path":       path,
		"status":     resp.StatusCode,
		"durationMs": time.Since(start).Milliseconds(),
	}).Debug("Nessie.Request")

	if resp.StatusCode != wantStatus {
		return apperror.UpstreamStatus(serviceName, resp.StatusCode, string(respBody))
	}

	if out != nil {
		if err := json.Unmarshal(respBody, out); err != nil {
			return apperror.Upstream(serviceName, fmt.Errorf("decode response: %w", err))
		}
	}
	return nil
}
