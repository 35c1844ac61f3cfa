package normalize

import (
	"net/mail"
	"net/url"
	"strings"

	"github.com/nyaruka/phonenumbers"
)

func withScheme(s string) string {
	if s == "" || strings.Contains(s, "://") {
		return s
	}
	return "https://" + s
}

// email lower-cases a well-formed address. Text that does not parse is kept: the record
// reports what the document says.
func email(s string) string {
	s = short(s, 254)
	if s == "" {
		return ""
	}
	if a, err := mail.ParseAddress(s); err == nil {
		return strings.ToLower(a.Address)
	}
	return s
}

// link gives a bare host a scheme and drops a trailing slash.
func link(s string) string {
	s = strings.TrimRight(short(s, 300), "/.,;")
	if s == "" {
		return ""
	}
	u, err := url.Parse(withScheme(s))
	if err != nil || u.Host == "" {
		return s
	}
	u.Scheme = strings.ToLower(u.Scheme)
	u.Host = strings.ToLower(u.Host)
	return strings.TrimRight(u.String(), "/")
}

// profile rewrites LinkedIn and GitHub URLs onto their canonical host
// ("it.linkedin.com/in/x/" → "https://www.linkedin.com/in/x").
func profile(s, host string) string {
	l := link(s)
	u, err := url.Parse(l)
	if err != nil || u.Host == "" || !strings.HasSuffix(u.Host, strings.TrimPrefix(host, "www.")) {
		return l
	}
	u.Scheme, u.Host, u.RawQuery, u.Fragment = "https", host, "", ""
	return strings.TrimRight(u.String(), "/")
}

// phone formats a number as E.164 when it is valid for its own prefix or for region.
// Anything else is returned cleaned.
func phone(s, region string) string {
	s = short(s, 40)
	if s == "" {
		return ""
	}
	num, err := phonenumbers.Parse(s, region)
	if err == nil && phonenumbers.IsValidNumber(num) {
		return phonenumbers.Format(num, phonenumbers.E164)
	}
	return s
}

// phoneRegion is the ISO region of an internationally written number ("+39 …").
func phoneRegion(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "00") {
		s = "+" + s[2:]
	}
	if !strings.HasPrefix(s, "+") {
		return ""
	}
	num, err := phonenumbers.Parse(s, "")
	if err != nil || !phonenumbers.IsValidNumber(num) {
		return ""
	}
	return phonenumbers.GetRegionCodeForNumber(num)
}
