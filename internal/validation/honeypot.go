package validation

// HoneypotField is the hidden form field that only bots fill in.
const HoneypotField = "website"

// ValidateHoneypot returns true for a human submission, i.e. when the
// honeypot field is absent, null or an empty string.
func ValidateHoneypot(body map[string]any) bool {
	v, ok := body[HoneypotField]
	if !ok || v == nil {
		return true
	}
	s, isString := v.(string)
	return isString && s == ""
}
