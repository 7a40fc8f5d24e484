package ytvideo

import (
	"errors"
	"regexp"
)

const IDLength = 11

var ErrInvalidURL = errors.New("invalid youtube video url")

var idRegexp = regexp.MustCompile(`^.*(youtu.be/|v/|u/\w/|embed/|watch\?v=|&v=)([^#&?]*).*`)

// ExtractID returns the video id following the last known marker in url.
func ExtractID(url string) (string, error) {
	match := idRegexp.FindStringSubmatch(url)
	if match == nil || len(match[2]) != IDLength {
		return "", ErrInvalidURL
	}

	return match[2], nil
}
