// Package labels translates backend category tags into display labels.
package labels

// Func maps a category tag to its display label.
type Func func(category string) string

// Known category tags returned by the backend.
const (
	Phishing         = "phishing"
	Passwords        = "passwords"
	Malware          = "malware"
	Networks         = "networks"
	IncidentResponse = "incident_response"
	General          = "general"
)

var arabic = map[string]string{
	Phishing:         "التصيد",
	Passwords:        "كلمات المرور",
	Malware:          "برمجيات خبيثة",
	Networks:         "أمن الشبكات",
	IncidentResponse: "الاستجابة للحوادث",
	General:          "عام",
}

var english = map[string]string{
	Phishing:         "Phishing",
	Passwords:        "Passwords",
	Malware:          "Malware",
	Networks:         "Network security",
	IncidentResponse: "Incident response",
	General:          "General",
}

// Arabic returns the Arabic label for a category. Unknown tags are returned as-is.
func Arabic(category string) string {
	if l, ok := arabic[category]; ok {
		return l
	}
	return category
}

// English returns the English label for a category. Unknown tags are returned as-is.
func English(category string) string {
	if l, ok := english[category]; ok {
		return l
	}
	return category
}

// Identity returns the raw tag.
func Identity(category string) string { return category }

// ByName resolves a label set by its config name ("ar", "en" or "raw").
func ByName(name string) Func {
	switch name {
	case "raw":
		return Identity
	case "en":
		return English
	default:
		return Arabic
	}
}
