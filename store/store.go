package store

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/Kamiltczarnik/Lira/models"
)

// Table names expected in every catalog source
const (
	BankAccountsTable = "BankAccounts"
	CreditCardsTable  = "CreditCards"
	LoansTable        = "Loans"
)

var (
	bankAccountColumns = []string{"Bank", "Account Name", "Account Type", "Monthly Fee", "Minimum Balance", "Perks"}
	creditCardColumns  = []string{"Bank", "Card Name", "APR Range", "Annual Fee", "Rewards", "Perks"}
	loanColumns        = []string{"Bank", "Loan Type", "APR Range", "Max Amount", "Term Options", "Perks"}
)

// LoadErrorKind classifies a LoadError.
type LoadErrorKind string

const (
	MissingTable LoadErrorKind = "missing_table"
	Malformed    LoadErrorKind = "malformed"
)

// Sentinels for errors.Is against a *LoadError
var (
	ErrMissingTable = errors.New("catalog: missing table")
	ErrMalformed    = errors.New("catalog: malformed source")
)

// LoadError reports why a catalog could not be loaded.
type LoadError struct {
	Kind  LoadErrorKind
	Table string
	Err   error
}

func (e *LoadError) Error() string {
	if e.Table == "" {
		return fmt.Sprintf("catalog %s: %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("catalog %s: table %s: %v", e.Kind, e.Table, e.Err)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

func (e *LoadError) Is(target error) bool {
	switch target {
	case ErrMissingTable:
		return e.Kind == MissingTable
	case ErrMalformed:
		return e.Kind == Malformed
	}
	return false
}

// Catalog is the immutable product table. It is built once by Load and shared by
// pointer; nothing mutates it afterwards, so readers need no locking.
type Catalog struct {
	bankAccounts []models.BankAccount
	creditCards  []models.CreditCard
	loans        []models.Loan
}

// Records is the catalog in source row order, one sequence per category
type Records struct {
	BankAccounts []models.BankAccount `json:"bank_accounts"`
	CreditCards  []models.CreditCard  `json:"credit_cards"`
	Loans        []models.Loan        `json:"loans"`
}

// LoadFile opens the source at path and loads the catalog from it.
func LoadFile(path string) (*Catalog, error) {
	src, err := Open(path)
	if err != nil {
		return nil, err
	}
	return Load(src)
}

// Load reads the three product tables from src. It returns no catalog at all if any
// table is missing or malformed.
func Load(src Source) (*Catalog, error) {
	accountRows, err := readTable(src, BankAccountsTable, bankAccountColumns)
	if err != nil {
		return nil, err
	}
	cardRows, err := readTable(src, CreditCardsTable, creditCardColumns)
	if err != nil {
		return nil, err
	}
	loanRows, err := readTable(src, LoansTable, loanColumns)
	if err != nil {
		return nil, err
	}

	c := &Catalog{
		bankAccounts: make([]models.BankAccount, len(accountRows)),
		creditCards:  make([]models.CreditCard, len(cardRows)),
		loans:        make([]models.Loan, len(loanRows)),
	}
	for i, r := range accountRows {
		c.bankAccounts[i] = models.BankAccount{
			Bank:           r[0],
			AccountName:    r[1],
			AccountType:    r[2],
			MonthlyFee:     r[3],
			MinimumBalance: r[4],
			Perks:          r[5],
		}
	}
	for i, r := range cardRows {
		c.creditCards[i] = models.CreditCard{
			Bank:      r[0],
			CardName:  r[1],
			APRRange:  r[2],
			AnnualFee: r[3],
			Rewards:   r[4],
			Perks:     r[5],
		}
	}
	for i, r := range loanRows {
		c.loans[i] = models.Loan{
			Bank:        r[0],
			LoanType:    r[1],
			APRRange:    r[2],
			MaxAmount:   r[3],
			TermOptions: r[4],
			Perks:       r[5],
		}
	}
	return c, nil
}

// Records returns copies of the three sequences so callers cannot mutate the catalog.
func (c *Catalog) Records() Records {
	return Records{
		BankAccounts: append(make([]models.BankAccount, 0, len(c.bankAccounts)), c.bankAccounts...),
		CreditCards:  append(make([]models.CreditCard, 0, len(c.creditCards)), c.creditCards...),
		Loans:        append(make([]models.Loan, 0, len(c.loans)), c.loans...),
	}
}

// Counts returns the number of rows per table, for startup logging.
func (c *Catalog) Counts() map[string]int {
	return map[string]int{
		BankAccountsTable: len(c.bankAccounts),
		CreditCardsTable:  len(c.creditCards),
		LoansTable:        len(c.loans),
	}
}

func readTable(src Source, name string, columns []string) ([][]models.Value, error) {
	raw, err := src.Table(name)
	if err != nil {
		if errors.Is(err, ErrTableNotFound) {
			return nil, &LoadError{Kind: MissingTable, Table: name, Err: err}
		}
		return nil, &LoadError{Kind: Malformed, Table: name, Err: err}
	}

	rows, err := parseTable(raw, columns)
	if err != nil {
		return nil, &LoadError{Kind: Malformed, Table: name, Err: err}
	}
	return rows, nil
}

// parseTable maps raw rows onto columns by header name. Every data row is kept, blank ones
// included. A column is numeric when every one of its cells parses as a number; otherwise
// its cells stay text.
func parseTable(raw [][]string, columns []string) ([][]models.Value, error) {
	if len(raw) == 0 {
		return nil, errors.New("missing header row")
	}

	index := make(map[string]int)
	for i, h := range raw[0] {
		h = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
		if _, dup := index[h]; !dup {
			index[h] = i
		}
	}
	positions := make([]int, len(columns))
	for j, col := range columns {
		i, ok := index[col]
		if !ok {
			return nil, fmt.Errorf("missing column %q", col)
		}
		positions[j] = i
	}

	var rows [][]string
	for n, r := range raw[1:] {
		for _, cell := range r {
			if !utf8.ValidString(cell) {
				return nil, fmt.Errorf("row %d: invalid UTF-8", n+2)
			}
		}
		rows = append(rows, r)
	}

	numeric := make([]bool, len(columns))
	for j, pos := range positions {
		numeric[j] = len(rows) > 0
		for _, r := range rows {
			if _, ok := models.ParseNumber(cellAt(r, pos)); !ok {
				numeric[j] = false
				break
			}
		}
	}

	out := make([][]models.Value, len(rows))
	for i, r := range rows {
		values := make([]models.Value, len(columns))
		for j, pos := range positions {
			cell := cellAt(r, pos)
			if numeric[j] {
				f, _ := models.ParseNumber(cell)
				values[j] = models.Number(f)
			} else {
				values[j] = models.Text(cell)
			}
		}
		out[i] = values
	}
	return out, nil
}

func cellAt(row []string, i int) string {
	if i < len(row) {
		return row[i]
	}
	return ""
}
