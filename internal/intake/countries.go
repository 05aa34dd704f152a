package intake

import (
	"strings"

	"golang.org/x/text/cases"
)

// DefaultCountryCode is selected for every new session.
const DefaultCountryCode = "NP"

var defaultCountries = []Country{
	{Code: "NP", Name: "Nepal", CallingCode: "+977", ExampleFormat: "98XXXXXXXX"},
	{Code: "AU", Name: "Australia", CallingCode: "+61", ExampleFormat: "4XX XXX XXX"},
	{Code: "IN", Name: "India", CallingCode: "+91", ExampleFormat: "98XXX XXXXX"},
	{Code: "PK", Name: "Pakistan", CallingCode: "+92", ExampleFormat: "3XX XXXXXXX"},
	{Code: "BD", Name: "Bangladesh", CallingCode: "+880", ExampleFormat: "1XXX XXXXXX"},
	{Code: "LK", Name: "Sri Lanka", CallingCode: "+94", ExampleFormat: "7X XXX XXXX"},
	{Code: "PH", Name: "Philippines", CallingCode: "+63", ExampleFormat: "9XX XXX XXXX"},
	{Code: "NZ", Name: "New Zealand", CallingCode: "+64", ExampleFormat: "2X XXX XXXX"},
	{Code: "AE", Name: "United Arab Emirates", CallingCode: "+971", ExampleFormat: "5X XXX XXXX"},
	{Code: "SA", Name: "Saudi Arabia", CallingCode: "+966", ExampleFormat: "5X XXX XXXX"},
	{Code: "QA", Name: "Qatar", CallingCode: "+974", ExampleFormat: "XXXX XXXX"},
	{Code: "MY", Name: "Malaysia", CallingCode: "+60", ExampleFormat: "1X XXX XXXX"},
	{Code: "SG", Name: "Singapore", CallingCode: "+65", ExampleFormat: "XXXX XXXX"},
	{Code: "NG", Name: "Nigeria", CallingCode: "+234", ExampleFormat: "80X XXX XXXX"},
	{Code: "KE", Name: "Kenya", CallingCode: "+254", ExampleFormat: "7XX XXXXXX"},
	{Code: "GB", Name: "United Kingdom", CallingCode: "+44", ExampleFormat: "7XXX XXXXXX"},
	{Code: "US", Name: "United States", CallingCode: "+1", ExampleFormat: "XXX XXX XXXX"},
}

// Directory is an immutable country table. It is safe to share between sessions.
type Directory struct {
	countries []Country
	byCode    map[string]int
	def       int
}

var defaultDirectory = NewDirectory(defaultCountries, DefaultCountryCode)

func DefaultDirectory() *Directory { return defaultDirectory }

// NewDirectory copies countries in declaration order. An unknown defaultCode falls
// back to the first entry.
func NewDirectory(countries []Country, defaultCode string) *Directory {
	d := &Directory{
		countries: make([]Country, len(countries)),
		byCode:    make(map[string]int, len(countries)),
	}
	copy(d.countries, countries)
	for i, c := range d.countries {
		d.byCode[strings.ToUpper(c.Code)] = i
	}
	if i, ok := d.byCode[strings.ToUpper(defaultCode)]; ok {
		d.def = i
	}
	return d
}

func (d *Directory) All() []Country {
	out := make([]Country, len(d.countries))
	copy(out, d.countries)
	return out
}

func (d *Directory) Default() Country {
	if len(d.countries) == 0 {
		return Country{}
	}
	return d.countries[d.def]
}

func (d *Directory) Lookup(code string) (Country, bool) {
	i, ok := d.byCode[strings.ToUpper(strings.TrimSpace(code))]
	if !ok {
		return Country{}, false
	}
	return d.countries[i], true
}

// MatchCallingCode finds the country whose calling code prefixes a committed phone
// value such as "+61 412345678". The longest prefix wins.
func (d *Directory) MatchCallingCode(value string) (Country, bool) {
	best, found := Country{}, false
	for _, c := range d.countries {
		if value != c.CallingCode && !strings.HasPrefix(value, c.CallingCode+" ") {
			continue
		}
		if !found || len(c.CallingCode) > len(best.CallingCode) {
			best, found = c, true
		}
	}
	return best, found
}

// Filter returns the countries whose name, code or calling code contains query,
// ignoring case. Directory order is kept.
func (d *Directory) Filter(query string) []Country {
	q := strings.TrimSpace(query)
	if q == "" {
		return d.All()
	}
	fold := cases.Fold()
	q = fold.String(q)
	out := []Country{}
	for _, c := range d.countries {
		if strings.Contains(fold.String(c.Name), q) ||
			strings.Contains(fold.String(c.Code), q) ||
			strings.Contains(c.CallingCode, q) {
			out = append(out, c)
		}
	}
	return out
}
