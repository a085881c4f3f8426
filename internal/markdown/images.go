// Package markdown rewrites markdown fragments embedded in webhook
// payloads into the inline HTML the chat renderer understands.
package markdown

import (
	"net/url"
	"regexp"
	"strings"
)

var imagePattern = regexp.MustCompile(`!\[(.*?)\]\((.*?)\)`)

// ConvertImages rewrites every markdown image reference in body to an
// inline image tag. A source without a scheme is resolved against the
// scheme and host of resourceURL.
func ConvertImages(body, resourceURL string) string {
	return imagePattern.ReplaceAllStringFunc(body, func(match string) string {
		groups := imagePattern.FindStringSubmatch(match)
		src := groups[2]
		if u, err := url.Parse(src); err == nil && !u.IsAbs() {
			if base, err := url.Parse(resourceURL); err == nil && base.Scheme != "" && base.Host != "" {
				src = base.Scheme + "://" + base.Host + "/" + strings.TrimPrefix(src, "/")
			}
		}
		return `<img src="` + src + `"/>`
	})
}
