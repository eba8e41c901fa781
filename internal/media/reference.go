package media

import "regexp"

// Hosted URLs look like .../image/upload/v1700000000/<reference>.<ext>.
var referencePattern = regexp.MustCompile(`/v\d+/(.+?)\.`)

// ExtractReferenceID returns the media host reference id embedded in url.
// URLs of any other shape yield "", false.
func ExtractReferenceID(url string) (string, bool) {
	m := referencePattern.FindStringSubmatch(url)
	if m == nil || m[1] == "" {
		return "", false
	}
	return m[1], true
}
