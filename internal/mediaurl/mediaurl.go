// Package mediaurl rewrites backend filesystem paths to public media URLs.
// The knowledge-base API returns server-local paths; every place a path is
// used as a playable or displayable source must go through these helpers.
package mediaurl

import (
	"regexp"
	"strings"
)

const imagePathPrefix = "/home/azureuser/recallstore/recall-api/../recallhq"

// Everything up to and including "/recallhq/temp/" is server-local.
var videoPathPrefix = regexp.MustCompile(`^.*?/recallhq/temp/`)

// PublicImageURL strips the server-side prefix from an image path and joins
// the remainder onto the public base URL.
func PublicImageURL(baseURL, imagePath string) string {
	rel := strings.TrimPrefix(imagePath, imagePathPrefix)
	return join(baseURL, rel)
}

// PublicVideoURL does the same for video paths. An empty path yields the
// bare base URL, matching how a missing source is handled upstream.
func PublicVideoURL(baseURL, videoPath string) string {
	if videoPath == "" {
		return strings.TrimSuffix(baseURL, "/")
	}
	rel := videoPathPrefix.ReplaceAllString(videoPath, "")
	return join(baseURL, rel)
}

func join(baseURL, rel string) string {
	return strings.TrimSuffix(baseURL, "/") + "/" + strings.TrimPrefix(rel, "/")
}
