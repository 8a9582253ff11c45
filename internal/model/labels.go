package model

// Field vocabularies for briefing entries. These mirror the form options and
// feed both the auto-fill prompt and the custom-country filter.

var Categories = []string{
	"Political Affairs",
	"Peace and Security",
	"Humanitarian Affairs",
	"Human Rights",
	"Development",
	"Climate and Environment",
	"Health",
	"Internal / Administrative",
}

var Priorities = []string{
	PrioritySGAttention,
	PrioritySituationalAwareness,
}

var Regions = []string{
	"Africa",
	"Americas",
	"Asia and the Pacific",
	"Europe and Central Asia",
	"Middle East",
	"Global",
}

var Countries = []string{
	"Afghanistan", "Argentina", "Australia", "Bangladesh", "Brazil",
	"Burkina Faso", "Cameroon", "Canada", "Central African Republic", "Chad",
	"Chile", "China", "Colombia", "Cuba", "Democratic Republic of the Congo",
	"Egypt", "Ethiopia", "France", "Germany", "Haiti", "India", "Indonesia",
	"Iran", "Iraq", "Israel", "Italy", "Japan", "Jordan", "Kenya", "Lebanon",
	"Libya", "Mali", "Mexico", "Morocco", "Mozambique", "Myanmar", "Niger",
	"Nigeria", "Pakistan", "Philippines", "Poland", "Russian Federation",
	"Saudi Arabia", "Somalia", "South Africa", "South Sudan", "Spain",
	"Sri Lanka", "Sudan", "Syria", "Tunisia", "Turkiye", "Uganda", "Ukraine",
	"United Kingdom", "United States", "Venezuela", "Yemen", "Zimbabwe",
}

var predefinedCountries = func() map[string]struct{} {
	m := make(map[string]struct{}, len(Countries))
	for _, c := range Countries {
		m[c] = struct{}{}
	}
	return m
}()

// IsPredefinedCountry reports whether the value is part of the standard
// country vocabulary, as opposed to a free-text custom entry.
func IsPredefinedCountry(name string) bool {
	_, ok := predefinedCountries[name]
	return ok
}
