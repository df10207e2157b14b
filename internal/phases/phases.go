// Package phases holds the fixed probate phase table and resolves per-phase
// status for a case.
package phases

// Phase is a 1-based index into the phase table.
type Phase int

const (
	Intake Phase = iota + 1
	Filing
	Publication
	Bond
	Hearing
	Supplements
	Letters
	Inventory
	Creditors
	FinalPetition
	Closing
)

// First and Last bound the valid phase range.
const (
	First = Intake
	Last  = Closing
)

// Info describes one phase.
type Info struct {
	Number Phase  `json:"number"`
	Key    string `json:"key"`
	Short  string `json:"short"`
	Long   string `json:"long"`
	Route  string `json:"route"`
}

var table = [...]Info{
	{Intake, "intake", "Intake", "Case Intake & Review", "/phase/1"},
	{Filing, "filing", "Petition", "Petition Filing", "/phase/2"},
	{Publication, "publication", "Publication", "Notice Publication", "/phase/3"},
	{Bond, "bond", "Bond", "Probate Bond", "/phase/4"},
	{Hearing, "hearing", "Hearing", "Court Hearing", "/phase/5"},
	{Supplements, "supplements", "Supplements", "Examiner Notes & Supplements", "/phase/6"},
	{Letters, "letters", "Letters", "Letters Issued", "/phase/7"},
	{Inventory, "inventory", "Inventory", "Inventory & Appraisal", "/phase/8"},
	{Creditors, "creditors", "Creditors", "Creditor Claims Period", "/phase/9"},
	{FinalPetition, "final_petition", "Final Petition", "Petition for Final Distribution", "/phase/10"},
	{Closing, "closing", "Closing", "Estate Closing", "/phase/11"},
}

var byKey = func() map[string]Info {
	m := make(map[string]Info, len(table))
	for _, info := range table {
		m[info.Key] = info
	}
	return m
}()

// All returns the phase table in order.
func All() []Info {
	out := make([]Info, len(table))
	copy(out, table[:])
	return out
}

// Valid reports whether n names a phase.
func Valid(n Phase) bool {
	return n >= First && n <= Last
}

// Lookup returns the phase numbered n.
func Lookup(n Phase) (Info, bool) {
	if !Valid(n) {
		return Info{}, false
	}
	return table[n-1], true
}

// ByKey returns the phase whose sub-record key is key.
func ByKey(key string) (Info, bool) {
	info, ok := byKey[key]
	return info, ok
}

// Clamp forces n into [First, Last].
func Clamp(n Phase) Phase {
	if n < First {
		return First
	}
	if n > Last {
		return Last
	}
	return n
}

// Key returns the sub-record key for n, or "" when n is out of range.
func (n Phase) Key() string {
	info, ok := Lookup(n)
	if !ok {
		return ""
	}
	return info.Key
}
