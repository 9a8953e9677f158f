// Package hub is a minimal client for the Hugging Face Hub API, covering
// the calls the sync engine needs: token identity lookup, Space
// enumeration, file tree listing, and file content download.
package hub

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/gifttotost1449/huggingface-sync/pkg/errors"
)

// DefaultBaseURL is the production Hub endpoint.
const DefaultBaseURL = "https://huggingface.co"

// Client is the interface for talking to the Hub. All calls authenticate
// with the supplied token; visibility of private Spaces is determined
// entirely by the token's own permissions.
type Client interface {
	// WhoAmI resolves the account name that owns the token.
	WhoAmI(ctx context.Context, token string) (string, error)

	// ListSpaces lists every Space of the given author visible to the
	// token, ordered case-insensitively by full id.
	ListSpaces(ctx context.Context, token, author string) ([]Space, error)

	// ListTree lists the Space's current files recursively.
	ListTree(ctx context.Context, token string, space Space) ([]TreeEntry, error)

	// Download streams the current contents of one file in the Space.
	Download(ctx context.Context, token string, space Space, path string) (io.ReadCloser, error)
}

type client struct {
	baseURL    string
	httpClient *http.Client
}

// New returns a Client for the Hub at baseURL. An empty baseURL selects the
// production endpoint.
func New(baseURL string) Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	return &client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 5 * time.Minute,
			Transport: &http.Transport{
				DialContext: (&net.Dialer{
					Timeout:   10 * time.Second,
					KeepAlive: 30 * time.Second,
				}).DialContext,
				MaxIdleConns:        16,
				IdleConnTimeout:     90 * time.Second,
				TLSHandshakeTimeout: 10 * time.Second,
			},
		},
	}
}

// whoAmIResponse is the subset of /api/whoami-v2 the engine cares about.
// Older tokens report the account under "user" rather than "name".
type whoAmIResponse struct {
	Name string `json:"name"`
	User string `json:"user"`
}

func (c *client) WhoAmI(ctx context.Context, token string) (string, error) {
	body, _, err := c.get(ctx, token, c.baseURL+"/api/whoami-v2")
	if err != nil {
		return "", err
	}
	defer body.Close()

	parsed := whoAmIResponse{}
	if err := json.NewDecoder(body).Decode(&parsed); err != nil {
		return "", errors.WithContext(err, "decode whoami response")
	}

	name := parsed.Name
	if name == "" {
		name = parsed.User
	}
	if name == "" {
		return "", errors.New("unable to determine account name from token")
	}
	return name, nil
}

// spaceInfo is one entry of the /api/spaces listing.
type spaceInfo struct {
	ID string `json:"id"`
}

func (c *client) ListSpaces(ctx context.Context, token, author string) ([]Space, error) {
	listURL := fmt.Sprintf("%s/api/spaces?author=%s&limit=100",
		c.baseURL, url.QueryEscape(author))

	var infos []spaceInfo
	for page := listURL; page != ""; {
		body, header, err := c.get(ctx, token, page)
		if err != nil {
			return nil, err
		}

		var pageInfos []spaceInfo
		err = json.NewDecoder(body).Decode(&pageInfos)
		body.Close()
		if err != nil {
			return nil, errors.WithContext(err, "decode space listing")
		}

		infos = append(infos, pageInfos...)
		page = nextPage(header)
	}

	// Sort by id so that enumeration order, and therefore report order, is
	// stable between runs.
	sort.SliceStable(infos, func(i, j int) bool {
		return strings.ToLower(infos[i].ID) < strings.ToLower(infos[j].ID)
	})

	var spaces []Space
	for _, info := range infos {
		if info.ID == "" {
			continue
		}
		spaces = append(spaces, ParseSpaceID(info.ID))
	}
	return spaces, nil
}

func (c *client) ListTree(ctx context.Context, token string, space Space) ([]TreeEntry, error) {
	treeURL := fmt.Sprintf("%s/api/spaces/%s/tree/main?recursive=true&limit=1000",
		c.baseURL, escapePath(space.ID()))

	var entries []TreeEntry
	for page := treeURL; page != ""; {
		body, header, err := c.get(ctx, token, page)
		if err != nil {
			return nil, err
		}

		var pageEntries []TreeEntry
		err = json.NewDecoder(body).Decode(&pageEntries)
		body.Close()
		if err != nil {
			return nil, errors.WithContext(err, "decode tree listing")
		}

		entries = append(entries, pageEntries...)
		page = nextPage(header)
	}
	return entries, nil
}

func (c *client) Download(ctx context.Context, token string, space Space, path string) (
	io.ReadCloser, error) {

	fileURL := fmt.Sprintf("%s/spaces/%s/resolve/main/%s",
		c.baseURL, escapePath(space.ID()), escapePath(path))
	body, _, err := c.get(ctx, token, fileURL)
	return body, err
}

// escapePath escapes each segment of a slash-separated path. File names can
// contain URL metacharacters like # and ?, which would otherwise be parsed
// as a fragment or query and request the wrong remote path.
func escapePath(path string) string {
	segments := strings.Split(path, "/")
	for i, segment := range segments {
		segments[i] = url.PathEscape(segment)
	}
	return strings.Join(segments, "/")
}

// get performs an authenticated GET, returning the body and headers on any
// 2xx response and a StatusError otherwise.
func (c *client) get(ctx context.Context, token, rawURL string) (
	io.ReadCloser, http.Header, error) {

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, nil, errors.WithContext(err, "build request")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, nil, errors.WithContext(err, "get "+rawURL)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		resp.Body.Close()
		return nil, nil, errors.StatusError{Code: resp.StatusCode, URL: rawURL}
	}
	return resp.Body, resp.Header, nil
}

// nextPage extracts the rel="next" target from an RFC 5988 Link header, or
// returns "" when there are no more pages.
func nextPage(header http.Header) string {
	for _, link := range header.Values("Link") {
		for _, part := range strings.Split(link, ",") {
			section := strings.Split(part, ";")
			if len(section) < 2 {
				continue
			}

			target := strings.Trim(strings.TrimSpace(section[0]), "<>")
			for _, param := range section[1:] {
				if strings.TrimSpace(param) == `rel="next"` {
					return target
				}
			}
		}
	}
	return ""
}
