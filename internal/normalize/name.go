package normalize

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// legalForms are company legal-form tokens stripped from business names.
// They carry no identity signal and pollute similarity scores.
var legalForms = map[string]bool{
	"sarl": true, "sas": true, "sasu": true, "eurl": true, "sa": true,
	"sci": true, "snc": true, "scop": true, "scp": true, "sel": true,
	"selarl": true, "ei": true, "eirl": true, "earl": true, "gaec": true,
	"ets": true, "etablissements": true, "entreprise": true, "societe": true,
	"ste": true, "cie": true, "compagnie": true,
}

// honorifics are courtesy titles occasionally embedded in registered names.
var honorifics = map[string]bool{
	"m": true, "mr": true, "mme": true, "mlle": true,
	"monsieur": true, "madame": true, "mademoiselle": true,
}

// stopTokens are trade words, generic business vocabulary and common first
// names. They appear in thousands of unrelated names, so they are excluded
// from distinctive-token comparison to avoid false positives.
var stopTokens = map[string]bool{
	// trades
	"plomberie": true, "plombier": true, "electricite": true,
	"electricien": true, "menuiserie": true, "menuisier": true,
	"maconnerie": true, "macon": true, "chauffage": true,
	"chauffagiste": true, "couverture": true, "couvreur": true,
	"peinture": true, "peintre": true, "carrelage": true, "carreleur": true,
	"serrurerie": true, "serrurier": true, "charpente": true,
	"charpentier": true, "platrerie": true, "platrier": true,
	"isolation": true, "climatisation": true, "sanitaire": true,
	"zinguerie": true, "ravalement": true,
	// generic business words
	"renovation": true, "batiment": true, "travaux": true, "services": true,
	"service": true, "atelier": true, "garage": true, "artisan": true,
	"artisanale": true, "generale": true, "general": true, "multiservices": true,
	"depannage": true, "installation": true, "amenagement": true,
	"construction": true, "habitat": true, "maison": true, "fils": true,
	"freres": true, "pere": true, "france": true, "azur": true,
	"sud": true, "nord": true, "est": true, "ouest": true,
	// common first names
	"jean": true, "pierre": true, "michel": true, "philippe": true,
	"alain": true, "bernard": true, "christophe": true, "nicolas": true,
	"laurent": true, "patrick": true, "marie": true, "paul": true,
	"jacques": true, "andre": true, "rene": true, "louis": true,
	"claude": true, "daniel": true, "marc": true, "thierry": true,
	"pascal": true, "eric": true, "bruno": true, "serge": true,
	"christian": true, "francois": true, "olivier": true, "david": true,
	"stephane": true, "frederic": true, "sebastien": true, "julien": true,
	"vincent": true, "gerard": true, "didier": true, "dominique": true,
	"antoine": true, "romain": true, "thomas": true, "maxime": true,
}

var deaccent = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// stripDiacritics decomposes accented characters and drops combining marks.
func stripDiacritics(s string) string {
	out, _, err := transform.String(deaccent, s)
	if err != nil {
		return s
	}
	return out
}

// Fold lowercases and strips diacritics. Used for accent-insensitive key
// lookups where full name canonicalization would be too aggressive.
func Fold(s string) string {
	return strings.ToLower(stripDiacritics(s))
}

// Name canonicalizes a business name for comparison: lowercase, diacritics
// stripped, legal forms and honorifics removed, punctuation dropped,
// whitespace collapsed.
func Name(raw string) string {
	s := strings.ToLower(stripDiacritics(raw))
	// Collapse dotted abbreviations ("S.A.R.L.") into single tokens before
	// punctuation is turned into spaces.
	s = strings.ReplaceAll(s, ".", "")

	var b strings.Builder
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		} else {
			b.WriteRune(' ')
		}
	}

	var kept []string
	for _, tok := range strings.Fields(b.String()) {
		if legalForms[tok] || honorifics[tok] {
			continue
		}
		kept = append(kept, tok)
	}
	return strings.Join(kept, " ")
}

// CommercialName returns the last parenthesized segment of a raw name. Trade
// names frequently differ from the registered legal name and are recorded in
// parentheses.
func CommercialName(raw string) (string, bool) {
	end := strings.LastIndexByte(raw, ')')
	if end < 0 {
		return "", false
	}
	start := strings.LastIndexByte(raw[:end], '(')
	if start < 0 {
		return "", false
	}
	inner := strings.TrimSpace(raw[start+1 : end])
	if inner == "" {
		return "", false
	}
	return inner, true
}

// StripLegalForms removes legal-form tokens from a raw name while preserving
// the casing of the remaining words. Used by the query builder, which wants a
// human-readable name rather than a fully normalized one.
func StripLegalForms(raw string) string {
	var kept []string
	for _, tok := range strings.Fields(raw) {
		key := strings.ToLower(stripDiacritics(strings.Trim(tok, ",;:")))
		key = strings.ReplaceAll(key, ".", "")
		if legalForms[key] {
			continue
		}
		kept = append(kept, tok)
	}
	return strings.Join(kept, " ")
}

// DistinctiveTokens tokenizes a normalized name and keeps only tokens that
// carry identity signal: at least 3 characters and not in the stop set.
func DistinctiveTokens(normalized string) []string {
	var out []string
	for _, tok := range strings.Fields(normalized) {
		if len(tok) < 3 || stopTokens[tok] {
			continue
		}
		out = append(out, tok)
	}
	return out
}
