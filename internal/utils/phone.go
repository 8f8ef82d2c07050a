package utils // package utils provides helper functions shared across the service

import (
    "regexp"
    "strings"
)

// phonePattern matches a cleaned Uzbek phone number: an optional +998 or
// 998 prefix followed by exactly nine digits.
var phonePattern = regexp.MustCompile(`^(\+?998)?[0-9]{9}$`)

// NormalizePhone converts any accepted spelling of a phone number into
// the canonical +998XXXXXXXXX form used for storage and lookup.  It
// strips spaces, hyphens and parentheses, then prepends the country
// prefix when it is missing.  The function is idempotent: normalizing
// an already-normalized number returns it unchanged.
func NormalizePhone(raw string) string {
    cleaned := cleanPhone(raw)
    if strings.HasPrefix(cleaned, "+") {
        return cleaned
    }
    if strings.HasPrefix(cleaned, "998") {
        return "+" + cleaned
    }
    return "+998" + cleaned
}

// ValidPhone reports whether raw is a well-formed Uzbek phone number
// after cleaning (e.g. "+998901234567", "998 90 123-45-67", "901234567").
func ValidPhone(raw string) bool {
    return phonePattern.MatchString(cleanPhone(raw))
}

// cleanPhone removes formatting characters commonly typed into phone
// fields: spaces, hyphens and parentheses.
func cleanPhone(raw string) string {
    r := strings.NewReplacer(" ", "", "-", "", "(", "", ")", "")
    return r.Replace(raw)
}
