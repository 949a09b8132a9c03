package main

import (
	"fmt"
	"regexp"
)

// YouTube video IDs are 11 characters of [A-Za-z0-9_-].
var videoIDRe = regexp.MustCompile(`^[a-zA-Z0-9_-]{11}$`)

// urlPatterns cover the URL forms a video ID can be extracted from.
var urlPatterns = []*regexp.Regexp{
	// Standard watch URL (including mobile)
	regexp.MustCompile(`(?:m\.)?youtube\.com/watch\?(?:[^#\s]*&)?v=([a-zA-Z0-9_-]{11})`),
	// Short URL
	regexp.MustCompile(`youtu\.be/([a-zA-Z0-9_-]{11})`),
	// Embed and legacy URLs
	regexp.MustCompile(`youtube\.com/(?:embed|v)/([a-zA-Z0-9_-]{11})`),
	// Shorts
	regexp.MustCompile(`youtube\.com/shorts/([a-zA-Z0-9_-]{11})`),
	// Live streams
	regexp.MustCompile(`youtube\.com/live/([a-zA-Z0-9_-]{11})`),
}

// extractVideoID normalizes a user-supplied string into a canonical video ID.
// It accepts bare IDs unchanged and pulls the ID out of watch, youtu.be,
// embed, legacy /v/, shorts and live URL forms.
func extractVideoID(input string) (string, error) {
	if videoIDRe.MatchString(input) {
		return input, nil
	}

	for _, re := range urlPatterns {
		if m := re.FindStringSubmatch(input); len(m) > 1 {
			return m[1], nil
		}
	}

	return "", fmt.Errorf("%w: could not extract video ID from %q", ErrInvalidVideoID, input)
}
