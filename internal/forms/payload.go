package forms

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// Amount is a dollar value that tolerates numbers, numeric strings such as
// "$10,000", null and garbage. Anything unparsable becomes 0.
type Amount float64

// UnmarshalJSON implements json.Unmarshaler.
func (a *Amount) UnmarshalJSON(b []byte) error {
	*a = 0
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return nil
		}
		*a = ParseAmount(s)
		return nil
	}
	var f float64
	if err := json.Unmarshal(b, &f); err != nil {
		return nil
	}
	*a = finite(f)
	return nil
}

// ParseAmount parses a human-entered dollar string.
func ParseAmount(s string) Amount {
	s = strings.NewReplacer("$", "", ",", "", " ", "").Replace(strings.TrimSpace(s))
	if s == "" {
		return 0
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return finite(f)
}

func finite(f float64) Amount {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return Amount(f)
}

// Address is a postal address as entered on the intake form.
type Address struct {
	Street string `json:"street"`
	City   string `json:"city"`
	State  string `json:"state"`
	Zip    string `json:"zip"`
}

// Person is the decedent or petitioner.
type Person struct {
	FirstName    string  `json:"firstName"`
	MiddleName   string  `json:"middleName"`
	LastName     string  `json:"lastName"`
	DateOfBirth  string  `json:"dateOfBirth"`
	DateOfDeath  string  `json:"dateOfDeath"`
	PlaceOfDeath string  `json:"placeOfDeath"`
	Relationship string  `json:"relationship"`
	Email        string  `json:"email"`
	Phone        string  `json:"phone"`
	Address      Address `json:"address"`
}

// Heir is a person entitled to notice.
type Heir struct {
	Name         string  `json:"name"`
	Relationship string  `json:"relationship"`
	Age          Amount  `json:"age"`
	Address      Address `json:"address"`
}

// Court identifies where the matter is filed.
type Court struct {
	County     string `json:"county"`
	CaseNumber string `json:"caseNumber"`
	Branch     string `json:"branch"`
}

// Item is one asset or liability line.
type Item struct {
	Description string `json:"description"`
	Value       Amount `json:"value"`
	Amount      Amount `json:"amount"`
}

// amount prefers Value and falls back to Amount, since liability lines use
// the latter.
func (i Item) amount() float64 {
	if i.Value != 0 {
		return float64(i.Value)
	}
	return float64(i.Amount)
}

// Assets groups the four asset categories.
type Assets struct {
	RealProperty      []Item `json:"realProperty"`
	FinancialAccounts []Item `json:"financialAccounts"`
	Vehicles          []Item `json:"vehicles"`
	PersonalProperty  []Item `json:"personalProperty"`
}

// Payload is the nested case intake submitted by the client.
type Payload struct {
	CaseID      string   `json:"caseId"`
	Decedent    Person   `json:"decedent"`
	Petitioner  Person   `json:"petitioner"`
	Heirs       []Heir   `json:"heirs"`
	Court       Court    `json:"court"`
	HasWill     bool     `json:"hasWill"`
	Assets      Assets   `json:"assets"`
	Liabilities []Item   `json:"liabilities"`
	Forms       []string `json:"forms"`
}
