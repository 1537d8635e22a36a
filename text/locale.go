package text

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ncruces/go-strftime"
	"golang.org/x/text/language"
)

// ErrLocale is returned for locales that cannot be parsed.
var ErrLocale = errors.New("text: invalid locale")

// DefaultLocale is used when no locale is configured.
const DefaultLocale = "en_US.UTF-8"

// names holds the day and month names substituted for %a, %A, %b and %B.
type names struct {
	days, shortDays     [7]string
	months, shortMonths [12]string
}

var (
	german = &names{
		days:        [7]string{"Sonntag", "Montag", "Dienstag", "Mittwoch", "Donnerstag", "Freitag", "Samstag"},
		shortDays:   [7]string{"So", "Mo", "Di", "Mi", "Do", "Fr", "Sa"},
		months:      [12]string{"Januar", "Februar", "März", "April", "Mai", "Juni", "Juli", "August", "September", "Oktober", "November", "Dezember"},
		shortMonths: [12]string{"Jan", "Feb", "Mär", "Apr", "Mai", "Jun", "Jul", "Aug", "Sep", "Okt", "Nov", "Dez"},
	}
	french = &names{
		days:        [7]string{"dimanche", "lundi", "mardi", "mercredi", "jeudi", "vendredi", "samedi"},
		shortDays:   [7]string{"dim.", "lun.", "mar.", "mer.", "jeu.", "ven.", "sam."},
		months:      [12]string{"janvier", "février", "mars", "avril", "mai", "juin", "juillet", "août", "septembre", "octobre", "novembre", "décembre"},
		shortMonths: [12]string{"janv.", "févr.", "mars", "avril", "mai", "juin", "juil.", "août", "sept.", "oct.", "nov.", "déc."},
	}
)

// English is first and wins when nothing matches.
var (
	supported = []language.Tag{language.English, language.German, language.French}
	localized = []*names{nil, german, french}
	matcher   = language.NewMatcher(supported)
)

// ParseLocale parses POSIX ("de_DE.UTF-8") and BCP 47 ("de-DE") locale names.
func ParseLocale(locale string) (language.Tag, error) {
	s := strings.TrimSpace(locale)
	if i := strings.IndexAny(s, ".@"); i >= 0 {
		s = s[:i]
	}
	switch s {
	case "C", "POSIX":
		return language.AmericanEnglish, nil
	case "":
		return language.Und, fmt.Errorf("%w: %q", ErrLocale, locale)
	}
	tag, err := language.Parse(strings.ReplaceAll(s, "_", "-"))
	if err != nil {
		return language.Und, fmt.Errorf("%w: %q: %v", ErrLocale, locale, err)
	}
	return tag, nil
}

func namesFor(tag language.Tag) *names {
	_, index, confidence := matcher.Match(tag)
	if confidence == language.No {
		return nil
	}
	return localized[index]
}

// expand is Expand with localized day and month names.
func expand(template string, t time.Time, n *names) string {
	if n == nil || !strings.ContainsRune(template, '%') {
		return Expand(template, t)
	}

	var b strings.Builder
	for i := 0; i < len(template); i++ {
		c := template[i]
		if c != '%' || i+1 == len(template) {
			b.WriteByte(c)
			continue
		}
		i++
		switch template[i] {
		case 'a':
			b.WriteString(n.shortDays[t.Weekday()])
		case 'A':
			b.WriteString(n.days[t.Weekday()])
		case 'b', 'h':
			b.WriteString(n.shortMonths[t.Month()-1])
		case 'B':
			b.WriteString(n.months[t.Month()-1])
		default:
			b.WriteByte('%')
			b.WriteByte(template[i])
		}
	}
	return truncate(strftime.Format(b.String(), t), MaxLen)
}
