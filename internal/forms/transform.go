package forms

import (
	"strings"
)

// DefaultState is used when an address has no state.
const DefaultState = "CA"

// FlatAddress is an address with every field defaulted.
type FlatAddress struct {
	Street string `json:"street"`
	City   string `json:"city"`
	State  string `json:"state"`
	Zip    string `json:"zip"`
}

// FlatHeir is an heir with every field defaulted.
type FlatHeir struct {
	Name         string      `json:"name"`
	Relationship string      `json:"relationship"`
	Age          float64     `json:"age"`
	Address      FlatAddress `json:"address"`
}

// FlatItem is an asset or liability line with a numeric value.
type FlatItem struct {
	Description string  `json:"description"`
	Value       float64 `json:"value"`
}

// FlatForm is the flat document consumed by the form generation service.
type FlatForm struct {
	CaseID string `json:"caseId"`

	DecedentFirstName    string      `json:"decedentFirstName"`
	DecedentMiddleName   string      `json:"decedentMiddleName"`
	DecedentLastName     string      `json:"decedentLastName"`
	DecedentFullName     string      `json:"decedentFullName"`
	DecedentDateOfBirth  string      `json:"decedentDateOfBirth"`
	DecedentDateOfDeath  string      `json:"decedentDateOfDeath"`
	DecedentPlaceOfDeath string      `json:"decedentPlaceOfDeath"`
	DecedentAddress      FlatAddress `json:"decedentAddress"`
	HasWill              bool        `json:"hasWill"`

	PetitionerFirstName    string      `json:"petitionerFirstName"`
	PetitionerLastName     string      `json:"petitionerLastName"`
	PetitionerFullName     string      `json:"petitionerFullName"`
	PetitionerRelationship string      `json:"petitionerRelationship"`
	PetitionerEmail        string      `json:"petitionerEmail"`
	PetitionerPhone        string      `json:"petitionerPhone"`
	PetitionerAddress      FlatAddress `json:"petitionerAddress"`

	CourtCounty     string `json:"courtCounty"`
	CourtCaseNumber string `json:"courtCaseNumber"`
	CourtBranch     string `json:"courtBranch"`

	Heirs     []FlatHeir `json:"heirs"`
	HeirCount int        `json:"heirCount"`

	RealProperty      []FlatItem `json:"realProperty"`
	FinancialAccounts []FlatItem `json:"financialAccounts"`
	Vehicles          []FlatItem `json:"vehicles"`
	PersonalProperty  []FlatItem `json:"personalProperty"`
	Liabilities       []FlatItem `json:"liabilities"`

	RealPropertyTotal      float64 `json:"realPropertyTotal"`
	FinancialAccountsTotal float64 `json:"financialAccountsTotal"`
	VehiclesTotal          float64 `json:"vehiclesTotal"`
	PersonalPropertyTotal  float64 `json:"personalPropertyTotal"`
	TotalAssets            float64 `json:"totalAssets"`
	TotalLiabilities       float64 `json:"totalLiabilities"`
	NetEstateValue         float64 `json:"netEstateValue"`

	Forms []string `json:"forms"`
}

// Transform flattens the intake payload. Missing strings become "", missing
// numbers become 0 and a missing state becomes CA. Slices are never nil so
// the upstream always sees arrays.
func Transform(p Payload) FlatForm {
	f := FlatForm{
		CaseID: clean(p.CaseID),

		DecedentFirstName:    clean(p.Decedent.FirstName),
		DecedentMiddleName:   clean(p.Decedent.MiddleName),
		DecedentLastName:     clean(p.Decedent.LastName),
		DecedentFullName:     fullName(p.Decedent.FirstName, p.Decedent.MiddleName, p.Decedent.LastName),
		DecedentDateOfBirth:  clean(p.Decedent.DateOfBirth),
		DecedentDateOfDeath:  clean(p.Decedent.DateOfDeath),
		DecedentPlaceOfDeath: clean(p.Decedent.PlaceOfDeath),
		DecedentAddress:      flatAddress(p.Decedent.Address),
		HasWill:              p.HasWill,

		PetitionerFirstName:    clean(p.Petitioner.FirstName),
		PetitionerLastName:     clean(p.Petitioner.LastName),
		PetitionerFullName:     fullName(p.Petitioner.FirstName, p.Petitioner.MiddleName, p.Petitioner.LastName),
		PetitionerRelationship: clean(p.Petitioner.Relationship),
		PetitionerEmail:        clean(p.Petitioner.Email),
		PetitionerPhone:        clean(p.Petitioner.Phone),
		PetitionerAddress:      flatAddress(p.Petitioner.Address),

		CourtCounty:     clean(p.Court.County),
		CourtCaseNumber: clean(p.Court.CaseNumber),
		CourtBranch:     clean(p.Court.Branch),

		Heirs: make([]FlatHeir, 0, len(p.Heirs)),
		Forms: make([]string, 0, len(p.Forms)),
	}

	for _, h := range p.Heirs {
		f.Heirs = append(f.Heirs, FlatHeir{
			Name:         clean(h.Name),
			Relationship: clean(h.Relationship),
			Age:          float64(h.Age),
			Address:      flatAddress(h.Address),
		})
	}
	f.HeirCount = len(f.Heirs)

	f.RealProperty, f.RealPropertyTotal = flatItems(p.Assets.RealProperty)
	f.FinancialAccounts, f.FinancialAccountsTotal = flatItems(p.Assets.FinancialAccounts)
	f.Vehicles, f.VehiclesTotal = flatItems(p.Assets.Vehicles)
	f.PersonalProperty, f.PersonalPropertyTotal = flatItems(p.Assets.PersonalProperty)
	f.Liabilities, f.TotalLiabilities = flatItems(p.Liabilities)

	f.TotalAssets = f.RealPropertyTotal + f.FinancialAccountsTotal + f.VehiclesTotal + f.PersonalPropertyTotal
	f.NetEstateValue = f.TotalAssets - f.TotalLiabilities

	for _, name := range p.Forms {
		if name = clean(name); name != "" {
			f.Forms = append(f.Forms, name)
		}
	}
	return f
}

func flatItems(items []Item) ([]FlatItem, float64) {
	out := make([]FlatItem, 0, len(items))
	total := 0.0
	for _, it := range items {
		v := it.amount()
		out = append(out, FlatItem{Description: clean(it.Description), Value: v})
		total += v
	}
	return out, total
}

func flatAddress(a Address) FlatAddress {
	state := strings.ToUpper(clean(a.State))
	if state == "" {
		state = DefaultState
	}
	return FlatAddress{
		Street: clean(a.Street),
		City:   clean(a.City),
		State:  state,
		Zip:    clean(a.Zip),
	}
}

func fullName(parts ...string) string {
	var kept []string
	for _, p := range parts {
		if p = clean(p); p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, " ")
}

func clean(s string) string {
	return strings.TrimSpace(s)
}
