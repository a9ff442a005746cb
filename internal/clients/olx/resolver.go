package olx

import (
	"regexp"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// ErrBuildIDNotFound is returned when the search page could not be fetched
// or no identifier pattern matched its markup.
var ErrBuildIDNotFound = errors.New("build id not found on search page")

const buildIDCacheTTL = time.Hour

var (
	buildIDMarkerPattern = regexp.MustCompile(`"buildId":"([^"]+)"`)
	buildManifestPattern = regexp.MustCompile(`/_next/static/([^/"]+)/_buildManifest\.js`)
)

// BuildResolver obtains the opaque deployment identifier the data endpoint
// is addressed under. Resolved identifiers are cached per site origin for
// one TTL window; the cache is left untouched on failure.
type BuildResolver struct {
	client *Client
	cache  *gocache.Cache
}

func NewBuildResolver(client *Client) *BuildResolver {
	return &BuildResolver{
		client: client,
		cache:  gocache.New(buildIDCacheTTL, 2*buildIDCacheTTL),
	}
}

// Resolve returns the build id for the origin of searchURL. A fresh cache
// entry short-circuits the network fetch unless force is set; force is the
// self-healing path taken after a stale-identifier 404.
func (r *BuildResolver) Resolve(searchURL string, force bool) (string, error) {

	origin, err := Origin(searchURL)
	if err != nil {
		return "", err
	}

	if !force {
		if cached, found := r.cache.Get(origin); found {
			return cached.(string), nil
		}
	}

	html, err := r.client.FetchSearchPage(searchURL)
	if err != nil {
		log.Debugf("search page fetch failed for %s: %v", origin, err)
		return "", ErrBuildIDNotFound
	}

	buildID := extractBuildID(html)
	if buildID == "" {
		return "", ErrBuildIDNotFound
	}

	r.cache.Set(origin, buildID, gocache.DefaultExpiration)
	return buildID, nil
}

func extractBuildID(html string) string {
	if match := buildIDMarkerPattern.FindStringSubmatch(html); match != nil {
		return match[1]
	}
	if match := buildManifestPattern.FindStringSubmatch(html); match != nil {
		return match[1]
	}
	return ""
}
