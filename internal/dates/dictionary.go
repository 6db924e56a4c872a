// Package dates turns user-typed date expressions into canonical calendar
// dates anchored to a fixed reference timezone.
package dates

import "strings"

// Lexical substitution tables mapping Russian and Ukrainian date words to
// their canonical English equivalents. Substitution happens token by token
// after lowercasing and punctuation stripping; the result feeds the relative
// keyword check and the natural-language fallback parser.

var monthsMap = map[string]string{
	// RU
	"января": "january", "январь": "january",
	"февраля": "february", "февраль": "february",
	"марта": "march", "март": "march",
	"апреля": "april", "апрель": "april",
	"мая": "may", "май": "may",
	"июня": "june", "июнь": "june",
	"июля": "july", "июль": "july",
	"августа": "august", "август": "august",
	"сентября": "september", "сентябрь": "september",
	"октября": "october", "октябрь": "october",
	"ноября": "november", "ноябрь": "november",
	"декабря": "december", "декабрь": "december",

	// UA
	"січня": "january", "січень": "january",
	"лютого": "february", "лютий": "february",
	"березня": "march", "березень": "march",
	"квітня": "april", "квітень": "april",
	"травня": "may", "травень": "may",
	"червня": "june", "червень": "june",
	"липня": "july", "липень": "july",
	"серпня": "august", "серпень": "august",
	"вересня": "september", "вересень": "september",
	"жовтня": "october", "жовтень": "october",
	"листопада": "november", "листопад": "november",
	"грудня": "december", "грудень": "december",
}

var weekdaysMap = map[string]string{
	// RU
	"понедельник": "monday",
	"вторник":     "tuesday",
	"среда":       "wednesday",
	"четверг":     "thursday",
	"пятница":     "friday",
	"суббота":     "saturday",
	"воскресенье": "sunday",

	// short RU
	"пн": "monday",
	"вт": "tuesday",
	"ср": "wednesday",
	"чт": "thursday",
	"пт": "friday",
	"сб": "saturday",
	"вс": "sunday",

	// UA
	"понеділок": "monday",
	"вівторок":  "tuesday",
	"середа":    "wednesday",
	"четвер":    "thursday",
	"пʼятниця":  "friday",
	"п'ятниця":  "friday",
	"пятниця":   "friday", // without the apostrophe
	"субота":    "saturday",
	"неділя":    "sunday",

	// accusative forms ("в пятницу", "у суботу")
	"среду":     "wednesday",
	"пятницу":   "friday",
	"субботу":   "saturday",
	"середу":    "wednesday",
	"пʼятницю":  "friday",
	"п'ятницю":  "friday",
	"пятницю":   "friday",
	"суботу":    "saturday",
	"неділю":    "sunday",

	// qualifiers
	"следующий": "next", "следующая": "next", "следующую": "next",
	"наступний": "next", "наступна": "next", "наступну": "next",
}

var relativeMap = map[string]string{
	// basics
	"сегодня":     "today",
	"завтра":      "tomorrow",
	"послезавтра": "in 2 days",
	"вчера":       "yesterday",

	"сьогодні":    "today",
	"післязавтра": "in 2 days",
	"вчора":       "yesterday",

	// "in N ..."
	"через": "in",
	"за":    "in", // UA: "за 2 дні"

	// weeks
	"неделю": "week", "недели": "weeks", "недель": "weeks",
	"тиждень": "week", "тижні": "weeks", "тижнів": "weeks",

	// days
	"день": "day", "дня": "days", "дней": "days",
	"дні": "days", "днів": "days",

	// hours
	"час": "hour", "часа": "hours", "часов": "hours",
	"годину": "hour", "години": "hours", "годин": "hours",
}

// Units that may follow "in" with no count at all: "через неделю" carries
// the single week in its grammar, not in a number word.
var bareUnits = map[string]bool{
	"day":  true,
	"week": true,
	"hour": true,
}

var punctReplacer = strings.NewReplacer(
	".", " ", ",", " ", "!", " ", "?", " ", ";", " ", ":", " ", "(", " ", ")", " ",
)

var apostropheReplacer = strings.NewReplacer("’", "'", "`", "'")

// Normalize lowercases the input, strips punctuation, and substitutes every
// token through the month, weekday, and relative-word dictionaries. Tokens
// with no dictionary entry pass through unchanged.
func Normalize(input string) string {
	lowered := strings.ToLower(input)
	lowered = apostropheReplacer.Replace(lowered)
	lowered = punctReplacer.Replace(lowered)
	tokens := strings.Fields(lowered)
	if len(tokens) == 0 {
		return ""
	}
	normalized := make([]string, 0, len(tokens))
	for _, token := range tokens {
		if month, ok := monthsMap[token]; ok {
			normalized = append(normalized, month)
			continue
		}
		if weekday, ok := weekdaysMap[token]; ok {
			normalized = append(normalized, weekday)
			continue
		}
		if relative, ok := relativeMap[token]; ok {
			normalized = append(normalized, strings.Fields(relative)...)
			continue
		}
		normalized = append(normalized, token)
	}

	// The fallback parser needs an explicit count, so "in week" becomes
	// "in 1 week". Counted forms ("in 2 weeks", "in 21 week") pass through.
	out := make([]string, 0, len(normalized)+1)
	for i, token := range normalized {
		out = append(out, token)
		if token == "in" && i+1 < len(normalized) && bareUnits[normalized[i+1]] {
			out = append(out, "1")
		}
	}
	return strings.Join(out, " ")
}
