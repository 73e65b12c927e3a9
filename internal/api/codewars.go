package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"time"

	"github.com/valyala/fasthttp"

	"codewars-tracker/internal/config"
	"codewars-tracker/internal/constants"
	"codewars-tracker/internal/domain"
)

type CodewarsClient struct {
	baseURL string
	client  *fasthttp.Client
}

func NewCodewarsClient(cfg *config.Config) *CodewarsClient {
	return &CodewarsClient{
		baseURL: cfg.CodewarsAPIBase,
		client: &fasthttp.Client{
			MaxConnsPerHost:     100,
			ReadTimeout:         10 * time.Second,
			WriteTimeout:        10 * time.Second,
			MaxIdleConnDuration: 1 * time.Minute,
		},
	}
}

// GetProfile fetches a user's public profile.
func (c *CodewarsClient) GetProfile(ctx context.Context, username string) (domain.Profile, error) {
	reqURL := fmt.Sprintf("%s/users/%s", c.baseURL, url.PathEscape(username))
	resp, err := doRequest[userResponse](ctx, c, reqURL)
	if err != nil {
		return domain.Profile{}, fmt.Errorf("%w: %v", domain.ErrUpstreamUnavailable, err)
	}

	return domain.Profile{
		Username:       resp.Username,
		Honor:          resp.Honor,
		RankName:       resp.Ranks.Overall.Name,
		TotalCompleted: resp.CodeChallenges.TotalCompleted,
	}, nil
}

// GetCompletedChallenges walks the completed-challenges pages newest first and
// returns at most EventWindowCap events. Events are returned as the platform
// sends them, not sorted.
func (c *CodewarsClient) GetCompletedChallenges(ctx context.Context, username string) ([]domain.CompletionEvent, error) {
	var events []domain.CompletionEvent

	for page := 0; ; page++ {
		reqURL := fmt.Sprintf("%s/users/%s/code-challenges/completed?page=%d", c.baseURL, url.PathEscape(username), page)
		resp, err := doRequest[completedResponse](ctx, c, reqURL)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrUpstreamUnavailable, err)
		}
		if len(resp.Data) == 0 {
			break
		}

		for _, item := range resp.Data {
			events = append(events, domain.CompletionEvent{
				Name:        item.Name,
				CompletedAt: item.CompletedAt,
				Honor:       item.Honor,
			})
		}

		if len(events) >= constants.EventWindowCap {
			events = events[:constants.EventWindowCap]
			break
		}
		if page >= resp.TotalPages-1 {
			break
		}
	}

	return events, nil
}

func doRequest[T any](ctx context.Context, client *CodewarsClient, url string) (*T, error) {
	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(url)
	req.Header.SetMethod(fasthttp.MethodGet)

	deadline, ok := ctx.Deadline()
	if ok {
		if err := client.client.DoDeadline(req, resp, deadline); err != nil {
			return nil, err
		}
	} else {
		if err := client.client.Do(req, resp); err != nil {
			return nil, err
		}
	}

	if resp.StatusCode() != fasthttp.StatusOK {
		return nil, fmt.Errorf("API error: %d", resp.StatusCode())
	}

	var result T
	if err := json.Unmarshal(resp.Body(), &result); err != nil {
		return nil, err
	}
	return &result, nil
}

type userResponse struct {
	Username            string `json:"username"`
	Name                string `json:"name"`
	Honor               int    `json:"honor"`
	Clan                string `json:"clan"`
	LeaderboardPosition int    `json:"leaderboardPosition"`
	Ranks               struct {
		Overall struct {
			Rank  int    `json:"rank"`
			Name  string `json:"name"`
			Color string `json:"color"`
			Score int    `json:"score"`
		} `json:"overall"`
	} `json:"ranks"`
	CodeChallenges struct {
		TotalAuthored  int `json:"totalAuthored"`
		TotalCompleted int `json:"totalCompleted"`
	} `json:"codeChallenges"`
}

type completedResponse struct {
	TotalPages int              `json:"totalPages"`
	TotalItems int              `json:"totalItems"`
	Data       []completedKata `json:"data"`
}

type completedKata struct {
	ID                 string    `json:"id"`
	Name               string    `json:"name"`
	Slug               string    `json:"slug"`
	CompletedAt        time.Time `json:"completedAt"`
	CompletedLanguages []string  `json:"completedLanguages"`
	Honor              int       `json:"honor"`
}
