package normalize

import (
	"net/mail"
	"net/url"
	"sort"
	"strings"
	"sync"
	"unicode"

	"golang.org/x/net/publicsuffix"
	"golang.org/x/text/language"
	"golang.org/x/text/language/display"

	"github.com/joseph-ayodele/cv-parser/internal/vocab"
)

// countryIndex resolves country codes and names in English, Italian, French, Spanish and
// German to ISO 3166-1 alpha-2 codes. Display names are English.
type countryIndex struct {
	keys    map[string]string // folded name or code -> alpha-2
	names   map[string]string // alpha-2 -> English name
	byText  []countryName     // names for free-text search, longest first
	english display.Namer
}

type countryName struct {
	folded string
	code   string
}

var (
	countriesOnce sync.Once
	countries     *countryIndex
)

// aliases the CLDR display names do not cover
var countryAliases = map[string]string{
	"uk": "GB", "u.k.": "GB", "england": "GB", "inghilterra": "GB", "scotland": "GB",
	"usa": "US", "u.s.a.": "US", "u.s.": "US", "america": "US", "stati uniti d'america": "US",
	"holland": "NL", "olanda": "NL", "deutschland": "DE", "italia": "IT", "espana": "ES",
	"schweiz": "CH", "svizzera": "CH", "suisse": "CH", "osterreich": "AT",
}

func countryIdx() *countryIndex {
	countriesOnce.Do(func() { countries = newCountryIndex() })
	return countries
}

func newCountryIndex() *countryIndex {
	idx := &countryIndex{
		keys:    map[string]string{},
		names:   map[string]string{},
		english: display.English.Regions(),
	}
	namers := []display.Namer{
		idx.english,
		display.Regions(language.Italian),
		display.Regions(language.French),
		display.Regions(language.Spanish),
		display.Regions(language.German),
	}
	seenText := map[string]bool{}
	for a := 'A'; a <= 'Z'; a++ {
		for b := 'A'; b <= 'Z'; b++ {
			code := string([]rune{a, b})
			r, err := language.ParseRegion(code)
			if err != nil || !r.IsCountry() || r.String() != code {
				continue
			}
			en := idx.english.Name(r)
			if en == "" {
				continue
			}
			idx.names[code] = en
			idx.add(code, code)
			idx.add(r.ISO3(), code)
			for _, n := range namers {
				name := n.Name(r)
				if name == "" {
					continue
				}
				f := key(name)
				idx.add(f, code)
				if len(f) >= 4 && !seenText[f] {
					seenText[f] = true
					idx.byText = append(idx.byText, countryName{folded: f, code: code})
				}
			}
		}
	}
	for alias, code := range countryAliases {
		idx.keys[key(alias)] = code
		if f := key(alias); len(f) >= 4 && !seenText[f] {
			seenText[f] = true
			idx.byText = append(idx.byText, countryName{folded: f, code: code})
		}
	}
	sort.SliceStable(idx.byText, func(i, j int) bool {
		if len(idx.byText[i].folded) != len(idx.byText[j].folded) {
			return len(idx.byText[i].folded) > len(idx.byText[j].folded)
		}
		return idx.byText[i].folded < idx.byText[j].folded
	})
	return idx
}

func (c *countryIndex) add(k, code string) {
	k = key(k)
	if _, dup := c.keys[k]; k != "" && !dup {
		c.keys[k] = code
	}
}

func key(s string) string {
	return strings.Join(strings.Fields(vocab.Fold(strings.TrimSpace(s))), " ")
}

// lookup resolves a code or a name ("IT", "ITA", "Italia", "Germany").
func (c *countryIndex) lookup(s string) (string, bool) {
	k := key(strings.Trim(s, " .,;()"))
	if code, ok := c.keys[k]; ok {
		return code, true
	}
	code, ok := c.keys[strings.ReplaceAll(k, ".", "")]
	return code, ok
}

func (c *countryIndex) name(code string) string {
	return c.names[strings.ToUpper(code)]
}

// find returns the first country name spelled out in free text.
func (c *countryIndex) find(text string) (string, bool) {
	f := key(text)
	if f == "" {
		return "", false
	}
	for _, n := range c.byText {
		if vocab.ContainsWord(f, n.folded) {
			return n.code, true
		}
	}
	return "", false
}

// fromDomain reads the country-code TLD of a host or e-mail address ("example.co.uk").
func (c *countryIndex) fromDomain(s string) (string, bool) {
	host := s
	if addr, err := mail.ParseAddress(s); err == nil {
		host = addr.Address
	}
	if i := strings.LastIndexByte(host, '@'); i >= 0 {
		host = host[i+1:]
	} else if u, err := url.Parse(withScheme(host)); err == nil {
		host = u.Hostname()
	}
	host = strings.ToLower(strings.TrimSuffix(host, "."))
	if host == "" {
		return "", false
	}
	suffix, _ := publicsuffix.PublicSuffix(host)
	tld := suffix[strings.LastIndexByte(suffix, '.')+1:]
	if len(tld) != 2 || !isASCIIAlpha(tld) {
		return "", false
	}
	if code, ok := c.keys[tld]; ok && len(code) == 2 {
		return code, true
	}
	return "", false
}

func isASCIIAlpha(s string) bool {
	for _, r := range s {
		if r > unicode.MaxASCII || !unicode.IsLetter(r) {
			return false
		}
	}
	return true
}
