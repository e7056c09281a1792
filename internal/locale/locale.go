// Package locale lists the languages the assistant can answer in.
package locale

const Default = "en-US"

type Language struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

var Languages = []Language{
	{Code: "en-US", Name: "English (US)"},
	{Code: "en-CA", Name: "English (Canada)"},
	{Code: "fr-FR", Name: "Français (France)"},
	{Code: "fr-CA", Name: "Français (Canada)"},
	{Code: "es-ES", Name: "Español (España)"},
	{Code: "nl-NL", Name: "Nederlands"},
}

func Supported(code string) bool {
	for _, l := range Languages {
		if l.Code == code {
			return true
		}
	}
	return false
}

// Name returns the display name of code, or code itself when it is unknown.
func Name(code string) string {
	for _, l := range Languages {
		if l.Code == code {
			return l.Name
		}
	}
	return code
}
