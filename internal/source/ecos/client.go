package ecos

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"MacroSync/internal/domain/models"
	"MacroSync/internal/series"
	apphttp "MacroSync/pkg/http"
	applogger "MacroSync/pkg/logger"
)

type row struct {
	Time  string `json:"TIME"`
	Value string `json:"DATA_VALUE"`
}

type statisticSearch struct {
	TotalCount int   `json:"list_total_count"`
	Rows       []row `json:"row"`
}

type response struct {
	StatisticSearch *statisticSearch `json:"StatisticSearch"`
	Result          *struct {
		Code    string `json:"CODE"`
		Message string `json:"MESSAGE"`
	} `json:"RESULT"`
}

// Client fetches statistics from the Bank of Korea ECOS API.
type Client struct {
	name    string
	baseURL string
	apiKey  string
	freq    models.Frequency
	http    *apphttp.Client
	log     *applogger.Logger
}

// New creates an ECOS adapter.
func New(name, baseURL, apiKey string, freq models.Frequency, hc *apphttp.Client, log *applogger.Logger) *Client {
	return &Client{
		name:    name,
		baseURL: baseURL,
		apiKey:  apiKey,
		freq:    freq,
		http:    hc,
		log:     log,
	}
}

// Provider returns the configured provider name.
func (c *Client) Provider() string { return c.name }

// Frequency returns the native observation frequency.
func (c *Client) Frequency() models.Frequency { return c.freq }

// Fetch retrieves one statistic. The code is "STAT_CODE/ITEM_CODE..."
// with unused item slots written as "?", which must survive as literal
// path segments. ECOS cannot be queried without a key.
func (c *Client) Fetch(ctx context.Context, code string, start, end time.Time) (models.Series, error) {
	var out models.Series
	if c.apiKey == "" {
		return out, fmt.Errorf("ecos %s: api key not configured", code)
	}

	cycle, err := cycleFor(c.freq)
	if err != nil {
		return out, fmt.Errorf("ecos %s: %w", code, err)
	}

	parts := strings.Split(code, "/")
	segs := []string{
		c.baseURL,
		"StatisticSearch",
		url.PathEscape(c.apiKey),
		"json", "en", "1", "100000",
		parts[0],
		cycle,
		periodParam(start, cycle),
		periodParam(end, cycle),
	}
	for _, item := range parts[1:] {
		segs = append(segs, url.PathEscape(item))
	}

	var resp response
	if err := c.http.SendAndParse(ctx, &apphttp.RequestOptions{URL: strings.Join(segs, "/")}, &resp); err != nil {
		return out, fmt.Errorf("ecos %s: %w", code, err)
	}
	if resp.StatisticSearch == nil {
		if resp.Result != nil {
			return out, fmt.Errorf("ecos %s: %s: %s", code, resp.Result.Code, resp.Result.Message)
		}
		return out, fmt.Errorf("ecos %s: empty response", code)
	}

	for _, r := range resp.StatisticSearch.Rows {
		if r.Value == "" {
			continue
		}
		v, err := strconv.ParseFloat(r.Value, 64)
		if err != nil {
			c.log.Warn("ecos: unparseable observation",
				applogger.String("code", code),
				applogger.String("time", r.Time),
				applogger.String("value", r.Value),
			)
			continue
		}
		d, err := series.Normalize(r.Time, c.freq)
		if err != nil {
			c.log.Warn("ecos: malformed period label",
				applogger.String("code", code),
				applogger.String("time", r.Time),
			)
			continue
		}
		out.Set(d, v)
	}
	return out, nil
}

func cycleFor(freq models.Frequency) (string, error) {
	switch freq {
	case models.Daily:
		return "D", nil
	case models.Monthly:
		return "M", nil
	case models.Quarterly:
		return "Q", nil
	default:
		return "", fmt.Errorf("unsupported cycle for frequency %q", freq)
	}
}

func periodParam(t time.Time, cycle string) string {
	switch cycle {
	case "M":
		return t.Format("200601")
	case "Q":
		return fmt.Sprintf("%dQ%d", t.Year(), (int(t.Month())-1)/3+1)
	default:
		return t.Format("20060102")
	}
}
