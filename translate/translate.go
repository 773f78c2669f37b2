// Package translate formats user-facing text for the host locale.
package translate

import (
	"sync"

	"github.com/jeandeaual/go-locale"
	"github.com/sirupsen/logrus"
	"golang.org/x/text/message"
)

var (
	once    sync.Once
	printer *message.Printer
)

// NewPrinter returns a printer for the best match among locales, or en-US
// when none is given.
func NewPrinter(locales ...string) *message.Printer {
	if len(locales) == 0 {
		locales = []string{"en-US"}
	}

	return message.NewPrinter(message.MatchLanguage(locales...))
}

// Printer returns the printer for the host locale.
func Printer() *message.Printer {
	once.Do(func() {
		locales, err := locale.GetLocales()
		if err != nil {
			logrus.WithField("class", "locale").Warnf("locale: %v", err)
		}

		printer = NewPrinter(locales...)
	})

	return printer
}

// From an en-US Sprintf() format, translate to string.
func From(key message.Reference, args ...any) string {
	return Printer().Sprintf(key, args...)
}
