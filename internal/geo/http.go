package geo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/John-Robertt/nodeselector-go/internal/model"
)

// HTTPResolver looks locations up over HTTP: first the caller's own public
// IP when no host is given, then the ip-api.com JSON endpoint for the
// actual location.
type HTTPResolver struct {
	Client *http.Client

	// IPURL returns the caller's egress IP as {"origin": "a.b.c.d"}.
	IPURL string
	// GeoBaseURL is queried as <base>/<host> and answers the ip-api JSON
	// schema. http (not https) matches the free tier of the service.
	GeoBaseURL string

	Timeout time.Duration // per request; default 5s
}

func NewHTTPResolver(client *http.Client) *HTTPResolver {
	return &HTTPResolver{Client: client}
}

type geoAPIResponse struct {
	Status  string `json:"status"`
	Country string `json:"country"`
	City    string `json:"city"`
	ISP     string `json:"isp"`
	Query   string `json:"query"`
}

type ipAPIResponse struct {
	Origin string `json:"origin"`
}

func (r *HTTPResolver) Resolve(ctx context.Context, host string) (model.GeoInfo, error) {
	if host == "" {
		ip, err := r.ownIP(ctx)
		if err != nil {
			return model.GeoInfo{}, err
		}
		host = ip
	}

	base := r.GeoBaseURL
	if base == "" {
		base = "http://ip-api.com/json"
	}

	var out geoAPIResponse
	if err := r.getJSON(ctx, fmt.Sprintf("%s/%s", strings.TrimSuffix(base, "/"), host), &out); err != nil {
		return model.GeoInfo{}, err
	}
	if out.Status != "success" {
		return model.GeoInfo{}, fmt.Errorf("geo api status=%q", out.Status)
	}

	g := model.GeoInfo{Country: out.Country, City: out.City, ISP: out.ISP, IP: out.Query}
	if g.Country == "" {
		g.Country = "Unknown"
	}
	if g.City == "" {
		g.City = "Unknown"
	}
	if g.ISP == "" {
		g.ISP = "Unknown"
	}
	if g.IP == "" {
		g.IP = host
	}
	return g, nil
}

func (r *HTTPResolver) ownIP(ctx context.Context) (string, error) {
	url := r.IPURL
	if url == "" {
		url = "https://httpbin.org/ip"
	}
	var out ipAPIResponse
	if err := r.getJSON(ctx, url, &out); err != nil {
		return "", err
	}
	// The origin field may hold "client, proxy"; the first entry is ours.
	ip, _, _ := strings.Cut(out.Origin, ",")
	ip = strings.TrimSpace(ip)
	if ip == "" {
		return "", errors.New("empty origin ip")
	}
	return ip, nil
}

func (r *HTTPResolver) getJSON(ctx context.Context, url string, out any) error {
	timeout := r.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	reqCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	client := r.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("geo lookup status %d", resp.StatusCode)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return err
	}
	return json.Unmarshal(body, out)
}
