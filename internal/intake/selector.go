package intake

// CountrySelector is the picker state for the phone step. The query is
// re-evaluated in full on every change.
type CountrySelector struct {
	dir   *Directory
	open  bool
	query string
}

func NewCountrySelector(dir *Directory) *CountrySelector {
	return &CountrySelector{dir: dir}
}

func (cs *CountrySelector) Open() { cs.open = true }

func (cs *CountrySelector) Close() {
	cs.open = false
	cs.query = ""
}

func (cs *CountrySelector) IsOpen() bool  { return cs.open }
func (cs *CountrySelector) Query() string { return cs.query }

func (cs *CountrySelector) SetQuery(q string) { cs.query = q }

func (cs *CountrySelector) Matches() []Country {
	return cs.dir.Filter(cs.query)
}

func (cs *CountrySelector) View() SelectorView {
	v := SelectorView{Open: cs.open, Query: cs.query}
	if cs.open {
		v.Matches = cs.Matches()
	}
	return v
}
