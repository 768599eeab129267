package normalize

import (
	"net/url"
	"strings"
)

// hostDenylist lists social networks, search engines and generic directories.
// A link to any of these is never a business's own site.
var hostDenylist = []string{
	"facebook.com",
	"instagram.com",
	"linkedin.com",
	"twitter.com",
	"x.com",
	"youtube.com",
	"tiktok.com",
	"pinterest.com",
	"google.com",
	"google.fr",
	"bing.com",
	"yahoo.com",
	"qwant.com",
	"pagesjaunes.fr",
	"pagespro.com",
	"yelp.com",
	"yelp.fr",
	"tripadvisor.com",
	"tripadvisor.fr",
	"societe.com",
	"infogreffe.fr",
	"pappers.fr",
	"kompass.com",
	"mappy.com",
	"leboncoin.fr",
	"houzz.fr",
	"travaux.com",
	"wikipedia.org",
}

// Website coerces a raw link to a canonical absolute URL. The host is
// lowercased and stripped of a leading "www."; denylisted hosts are rejected.
func Website(raw string) (string, bool) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return "", false
	}
	if !strings.HasPrefix(s, "http://") && !strings.HasPrefix(s, "https://") {
		s = "https://" + s
	}

	u, err := url.Parse(s)
	if err != nil || u.Host == "" {
		return "", false
	}

	host := strings.ToLower(u.Hostname())
	host = strings.TrimPrefix(host, "www.")
	if !strings.Contains(host, ".") {
		return "", false
	}
	if DeniedHost(host) {
		return "", false
	}

	u.Host = host
	return u.String(), true
}

// DeniedHost reports whether host (already lowercased, no www prefix) matches
// the directory/social denylist, including subdomains.
func DeniedHost(host string) bool {
	for _, d := range hostDenylist {
		if host == d || strings.HasSuffix(host, "."+d) {
			return true
		}
	}
	return false
}

// Domain returns the bare host of a normalized website URL, or "".
func Domain(website string) string {
	u, err := url.Parse(website)
	if err != nil {
		return ""
	}
	return u.Hostname()
}
