package content

import (
	"regexp"
	"strings"
)

var youtubeID = regexp.MustCompile(`(?:youtu\.be/|youtube\.com/(?:watch\?v=|embed/|v/|shorts/))([\w-]+)`)

// YouTubeEmbed converts a YouTube watch, short or share link into an
// embeddable player URL. ok is false for any other link.
func YouTubeEmbed(link string) (embed string, ok bool) {
	m := youtubeID.FindStringSubmatch(strings.TrimSpace(link))
	if m == nil {
		return "", false
	}
	return "https://www.youtube.com/embed/" + m[1] + "?autoplay=0&controls=1", true
}
