package submit

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/dswatch/dswatch/internal/dsclient"
	"github.com/dswatch/dswatch/internal/logutils"
	"github.com/jackpal/bencode-go"
)

const (
	probeTimeout       = 10 * time.Second
	metadataSizeCutoff = 5 * 1024 * 1024 // files above this are left to the server to fetch
)

// Schemes probed for fetchable metadata files.
var autoFetchSchemes = map[string]bool{
	"http":  true,
	"https": true,
}

// Protocols Download Station accepts as bare URIs.
var downloadableSchemes = map[string]bool{
	"http":     true,
	"https":    true,
	"ftp":      true,
	"ftps":     true,
	"magnet":   true,
	"thunder":  true,
	"flashget": true,
	"qqdl":     true,
}

type metadataFileType struct {
	mediaType string
	extension string
}

var metadataFileTypes = []metadataFileType{
	{mediaType: "application/x-bittorrent", extension: ".torrent"},
	{mediaType: "application/x-nzb", extension: ".nzb"},
}

// Exact topics accepted in a magnet xt parameter: v1 btih (40 hex or 32
// base32 chars) and v2 btmh (sha-256 multihash).
var magnetTopicPattern = regexp.MustCompile(`(?i)^urn:bt(ih:([a-f0-9]{40}|[a-z2-7]{32})|mh:1220[a-f0-9]{64})$`)

// resolveOne classifies a single URL. http/https URLs are probed for a
// fetchable metadata file and fall back to the bare URL; every other scheme
// must be on the downloadable allow-list.
func (s *Submitter) resolveOne(ctx context.Context, raw string) (resolvedItem, error) {
	raw = strings.TrimSpace(raw)
	parsed, err := url.Parse(raw)
	if err != nil {
		return resolvedItem{}, fmt.Errorf("unparseable URL %q: %w", raw, err)
	}
	scheme := strings.ToLower(parsed.Scheme)

	if autoFetchSchemes[scheme] {
		if item, ok := s.fetchMetadataFile(ctx, raw, parsed); ok {
			return item, nil
		}
		return resolvedItem{uri: raw}, nil
	}

	if !downloadableSchemes[scheme] {
		return resolvedItem{}, fmt.Errorf("scheme %q is not a downloadable protocol: %s", scheme, raw)
	}
	if scheme == "magnet" && !hasValidMagnetTopic(parsed) {
		return resolvedItem{}, fmt.Errorf("invalid magnet link: no btih or btmh topic found: %s", raw)
	}
	return resolvedItem{uri: raw}, nil
}

// hasValidMagnetTopic reports whether any xt parameter carries a well-formed
// info-hash topic. The xt parameter can appear anywhere in the query and more
// than once (hybrid v1+v2 magnets carry both).
func hasValidMagnetTopic(parsed *url.URL) bool {
	for _, topic := range parsed.Query()["xt"] {
		if magnetTopicPattern.MatchString(topic) {
			return true
		}
	}
	return false
}

// fetchMetadataFile issues a header-only probe and, when it identifies a
// known metadata file of known size under the cutoff, fetches the body.
// Anything inconclusive keeps the URL a bare URI; the server can still
// fetch it itself.
func (s *Submitter) fetchMetadataFile(ctx context.Context, raw string, parsed *url.URL) (resolvedItem, bool) {
	head, err := s.probe(ctx, raw)
	if err != nil {
		logutils.Log.WithError(err).WithField("url", raw).Debug("Metadata probe failed")
		return resolvedItem{}, false
	}

	match := matchMetadataType(head.mediaType, parsed.Path)
	if match == nil {
		return resolvedItem{}, false
	}
	if head.contentLength <= 0 || head.contentLength > metadataSizeCutoff {
		return resolvedItem{}, false
	}

	content, disposition, err := s.fetchBody(ctx, raw)
	if err != nil {
		logutils.Log.WithError(err).WithField("url", raw).Debug("Metadata fetch failed")
		return resolvedItem{}, false
	}
	if match.extension == ".torrent" && !isTorrentPayload(content) {
		logutils.Log.WithField("url", raw).Debug("Fetched body is not a bencoded torrent")
		return resolvedItem{}, false
	}

	name := deriveFilename(disposition, parsed, match.extension)
	return resolvedItem{file: &dsclient.FileUpload{Filename: name, Content: content}}, true
}

type probeResult struct {
	mediaType     string
	contentLength int64
}

func (s *Submitter) probe(ctx context.Context, raw string) (probeResult, error) {
	ctx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodHead, raw, http.NoBody)
	if err != nil {
		return probeResult{}, err
	}
	resp, err := s.http.Do(req)
	if err != nil {
		return probeResult{}, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return probeResult{}, fmt.Errorf("probe returned status %d", resp.StatusCode)
	}

	mediaType, _, _ := mime.ParseMediaType(resp.Header.Get("Content-Type"))
	return probeResult{
		mediaType:     mediaType,
		contentLength: resp.ContentLength,
	}, nil
}

func (s *Submitter) fetchBody(ctx context.Context, raw string) (content []byte, disposition string, err error) {
	ctx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, raw, http.NoBody)
	if err != nil {
		return nil, "", err
	}
	resp, err := s.http.Do(req)
	if err != nil {
		return nil, "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, "", fmt.Errorf("fetch returned status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, metadataSizeCutoff+1))
	if err != nil {
		return nil, "", err
	}
	if int64(len(data)) > metadataSizeCutoff {
		return nil, "", fmt.Errorf("response larger than %d bytes", metadataSizeCutoff)
	}
	return data, resp.Header.Get("Content-Disposition"), nil
}

// matchMetadataType matches by media type or by URL suffix.
func matchMetadataType(mediaType, urlPath string) *metadataFileType {
	lowerPath := strings.ToLower(urlPath)
	for i := range metadataFileTypes {
		t := &metadataFileTypes[i]
		if mediaType == t.mediaType || strings.HasSuffix(lowerPath, t.extension) {
			return t
		}
	}
	return nil
}

// isTorrentPayload checks the body is a bencoded dict before uploading it as
// a torrent file; trackers sometimes answer probes with HTML error pages.
func isTorrentPayload(data []byte) bool {
	if len(data) == 0 || data[0] != 'd' {
		return false
	}
	decoded, err := bencode.Decode(bytes.NewReader(data))
	if err != nil {
		return false
	}
	_, ok := decoded.(map[string]interface{})
	return ok
}
