// Package i18n translates adocguard's console messages. Catalogs are
// gettext .po files embedded under locales/<lang>/LC_MESSAGES/adocguard.po.
// Messages without a catalog entry are printed in English.
package i18n

import (
	"embed"
	"os"
	"strings"

	"github.com/leonelquinteros/gotext"
)

//go:embed all:locales
var locales embed.FS

const domain = "adocguard"

// localeVars are read in gettext order.
var localeVars = []string{"LANGUAGE", "LC_ALL", "LC_MESSAGES", "LANG"}

var po *gotext.Locale

// Init loads the catalog for lang, or for the language named by the
// environment when lang is empty. Call it once before T or N.
func Init(lang string) {
	if lang == "" {
		lang = envLanguage()
	}
	po = gotext.NewLocaleFSWithPath(lang, locales, "locales")
	po.AddDomain(domain)
	po.SetDomain(domain)
}

// T returns the translation of msgid, or msgid itself.
func T(msgid string) string {
	if po == nil {
		return msgid
	}
	return po.Get(msgid)
}

// N picks the plural form for n in the active language.
func N(singular, plural string, n int) string {
	if po != nil {
		return po.GetN(singular, plural, n)
	}
	if n == 1 {
		return singular
	}
	return plural
}

// envLanguage returns the first usable locale from the environment, with
// any codeset dropped, or "en".
func envLanguage() string {
	for _, name := range localeVars {
		val := os.Getenv(name)
		if val == "" {
			continue
		}
		// LANGUAGE holds a priority list.
		val, _, _ = strings.Cut(val, ":")
		val, _, _ = strings.Cut(val, ".")
		if val == "" || val == "C" || val == "POSIX" {
			continue
		}
		return val
	}
	return "en"
}
