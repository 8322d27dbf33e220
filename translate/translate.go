// Copyright 2026, Jason S. McMullan <jason.mcmullan@gmail.com>

// Package translate maps en-US message keys to the user's locale.
package translate

import (
	"log"

	"github.com/jeandeaual/go-locale"

	"golang.org/x/text/message"
)

var printer *message.Printer

func init() {
	locales, err := locale.GetLocales()
	if err != nil {
		log.Printf("sampo: locale: %v", err)
	}

	if len(locales) == 0 {
		locales = []string{"en-US"}
	}

	printer = message.NewPrinter(message.MatchLanguage(locales...))
}

// From an en-US Sprintf() format, translate to string.
func From(key message.Reference, args ...any) string {
	return printer.Sprintf(key, args...)
}
