package submit

import (
	"mime"
	"net/url"
	"path"
	"regexp"
	"strings"
)

const fallbackFilename = "download"

// Unquoted filename= parameters are technically invalid but common; accept
// them when mime.ParseMediaType gives up on the header.
var dispositionFilenamePattern = regexp.MustCompile(`(?i)filename=([^;]+)`)

// deriveFilename picks a filename for a fetched metadata file: the
// Content-Disposition filename parameter, else the URL's last path segment,
// else a literal fallback; the type's canonical extension is appended when
// missing.
func deriveFilename(disposition string, parsed *url.URL, canonicalExt string) string {
	name := filenameFromDisposition(disposition)
	if name == "" {
		name = lastPathSegment(parsed)
	}
	if name == "" {
		name = fallbackFilename
	}
	if !strings.HasSuffix(strings.ToLower(name), canonicalExt) {
		name += canonicalExt
	}
	return name
}

func filenameFromDisposition(disposition string) string {
	if disposition == "" {
		return ""
	}
	if _, params, err := mime.ParseMediaType(disposition); err == nil {
		if name := params["filename"]; name != "" {
			return name
		}
	}
	if m := dispositionFilenamePattern.FindStringSubmatch(disposition); m != nil {
		return strings.Trim(strings.TrimSpace(m[1]), `"`)
	}
	return ""
}

func lastPathSegment(parsed *url.URL) string {
	segment := path.Base(parsed.Path)
	if segment == "." || segment == "/" {
		return ""
	}
	return segment
}
