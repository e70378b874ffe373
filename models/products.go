package models

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// Value is a single catalog cell. Cells from numeric columns keep their number,
// everything else stays text exactly as read.
type Value struct {
	text    string
	number  float64
	numeric bool
}

// Text returns a textual cell value.
func Text(s string) Value {
	return Value{text: s}
}

// Number returns a numeric cell value.
func Number(f float64) Value {
	return Value{number: f, numeric: true}
}

// ParseNumber reports whether s is a finite number and returns it.
func ParseNumber(s string) (float64, bool) {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// IsNumeric reports whether the cell came from a numeric column.
func (v Value) IsNumeric() bool {
	return v.numeric
}

// Float returns the numeric value and whether the cell is numeric.
func (v Value) Float() (float64, bool) {
	return v.number, v.numeric
}

// String renders numbers in their shortest form (0, 25, 12.5).
func (v Value) String() string {
	if v.numeric {
		return strconv.FormatFloat(v.number, 'f', -1, 64)
	}
	return v.text
}

func (v Value) MarshalJSON() ([]byte, error) {
	if v.numeric {
		return []byte(v.String()), nil
	}
	return json.Marshal(v.text)
}

func (v *Value) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var raw interface{}
	if err := dec.Decode(&raw); err != nil {
		return err
	}
	switch t := raw.(type) {
	case json.Number:
		f, err := t.Float64()
		if err != nil {
			return err
		}
		*v = Number(f)
	case string:
		*v = Text(t)
	default:
		*v = Text("")
	}
	return nil
}

// BankAccount is one row of the BankAccounts table
type BankAccount struct {
	Bank           Value `json:"Bank"`
	AccountName    Value `json:"Account Name"`
	AccountType    Value `json:"Account Type"`
	MonthlyFee     Value `json:"Monthly Fee"`
	MinimumBalance Value `json:"Minimum Balance"`
	Perks          Value `json:"Perks"`
}

// CreditCard is one row of the CreditCards table
type CreditCard struct {
	Bank      Value `json:"Bank"`
	CardName  Value `json:"Card Name"`
	APRRange  Value `json:"APR Range"`
	AnnualFee Value `json:"Annual Fee"`
	Rewards   Value `json:"Rewards"`
	Perks     Value `json:"Perks"`
}

// Loan is one row of the Loans table
type Loan struct {
	Bank        Value `json:"Bank"`
	LoanType    Value `json:"Loan Type"`
	APRRange    Value `json:"APR Range"`
	MaxAmount   Value `json:"Max Amount"`
	TermOptions Value `json:"Term Options"`
	Perks       Value `json:"Perks"`
}
