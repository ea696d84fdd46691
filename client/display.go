package client

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// DisplayName turns a feature name like "skin_rash" into "Skin Rash".
func DisplayName(feature string) string {
	words := strings.Fields(strings.ReplaceAll(feature, "_", " "))
	return cases.Title(language.English).String(strings.Join(words, " "))
}
