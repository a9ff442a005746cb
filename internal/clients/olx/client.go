package olx

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"

	"github.com/pkg/errors"
	"github.com/samber/lo"
	"golang.org/x/time/rate"
)

// ErrStaleBuildID signals an HTTP 404 on a data page, which almost always
// means the cached build id no longer matches the deployed site.
var ErrStaleBuildID = errors.New("data page not found, build id is likely stale")

// StatusError is any other non-2xx data-endpoint response. Transport
// failures are reported with code 500.
type StatusError struct {
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("request failed with status %d", e.Code)
}

const userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36"

type searchPageResponse struct {
	PageProps struct {
		Ads []Ad `json:"ads"`
	} `json:"pageProps"`
}

type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client talks to the classifieds site with a browser-like request
// signature. No authentication is required toward the source.
type Client struct {
	httpClient  HTTPClient
	rateLimiter *rate.Limiter
}

func NewClient() *Client {
	return &Client{httpClient: &http.Client{}}
}

func (c *Client) SetHTTPClient(client HTTPClient) {
	c.httpClient = client
}

func (c *Client) SetRateLimit(maxRequestsPerSecond float32) {
	c.rateLimiter = rate.NewLimiter(rate.Limit(maxRequestsPerSecond), 1)
}

// FetchPage fetches one page of raw results from the data endpoint mapped
// to searchURL under the given build id. Items missing a listing id or URL
// are discarded. An absent result array yields an empty slice.
func (c *Client) FetchPage(searchURL, buildID string, page int) ([]Ad, error) {

	dataURL, err := DataURL(searchURL, buildID, page)
	if err != nil {
		return nil, err
	}

	resp, err := c.get(dataURL)
	if err != nil {
		return nil, &StatusError{Code: http.StatusInternalServerError}
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, ErrStaleBuildID
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &StatusError{Code: resp.StatusCode}
	}

	var parsed searchPageResponse
	if err = json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("error decoding JSON response: %v", err)
	}

	ads := lo.Filter(parsed.PageProps.Ads, func(ad Ad, _ int) bool {
		return ad.IsValid()
	})
	return ads, nil
}

// FetchSearchPage fetches the human-facing HTML page, used by the build
// resolver to extract the deployment identifier.
func (c *Client) FetchSearchPage(searchURL string) (string, error) {

	resp, err := c.get(searchURL)
	if err != nil {
		return "", errors.Wrap(err, "error fetching search page")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", errors.Wrap(err, "error reading search page body")
	}

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("search page request failed with status %d", resp.StatusCode)
	}
	return string(body), nil
}

func (c *Client) get(rawURL string) (*http.Response, error) {

	if c.rateLimiter != nil {
		if err := c.rateLimiter.Wait(context.Background()); err != nil {
			return nil, err
		}
	}

	req, err := http.NewRequest(http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("error creating request: %v", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json, text/html;q=0.9, */*;q=0.8")

	return c.httpClient.Do(req)
}

// DataURL maps a human search URL to the templated data-endpoint path under
// the resolved build id, carrying over all query parameters. The page-number
// parameter is only added past the first page.
func DataURL(searchURL, buildID string, page int) (string, error) {

	u, err := url.Parse(searchURL)
	if err != nil {
		return "", fmt.Errorf("invalid search url %q: %v", searchURL, err)
	}

	query := u.Query()
	if page > 1 {
		query.Set("o", strconv.Itoa(page))
	}

	u.Path = "/_next/data/" + buildID + u.Path + ".json"
	u.RawQuery = query.Encode()
	return u.String(), nil
}

// Origin returns the scheme://host part of a URL, used both as the
// resolver cache key and to absolutize relative ad URLs.
func Origin(rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("invalid url %q: %v", rawURL, err)
	}
	return u.Scheme + "://" + u.Host, nil
}
