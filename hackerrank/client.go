package hackerrank

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"github.com/pkg/errors"
	"vasiluta.ro/plism/scraper"
)

const DefaultBaseURL = "https://www.hackerrank.com"

// Entry is a single leaderboard record.
type Entry struct {
	Hacker   string  `json:"hacker"`
	Score    float64 `json:"score"`
	Language string  `json:"language"`
}

type leaderboardResponse struct {
	Models []*Entry `json:"models"`
}

type challenge struct {
	Slug string `json:"slug"`
}

type challengesResponse struct {
	Models []challenge `json:"models"`
}

type Client struct {
	BaseURL string
	Contest string

	// PageSize is the limit sent with every challenge leaderboard page.
	PageSize int

	HTTP *scraper.Client
}

func (c *Client) endpoint(path string, query url.Values) string {
	base := strings.TrimRight(c.BaseURL, "/")
	if base == "" {
		base = DefaultBaseURL
	}
	u := base + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	return u
}

func (c *Client) getJSON(ctx context.Context, u string, target any) error {
	resp, err := c.HTTP.Get(ctx, u)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if err := json.NewDecoder(resp.Body).Decode(target); err != nil {
		return errors.Wrapf(err, "decode %s", u)
	}
	return nil
}

// ContestLeaderboard returns the first limit entries of the contest
// leaderboard in a single request.
func (c *Client) ContestLeaderboard(ctx context.Context, limit int) ([]*Entry, error) {
	u := c.endpoint(fmt.Sprintf("/rest/contests/%s/leaderboard", url.PathEscape(c.Contest)), url.Values{
		"limit": {fmt.Sprint(limit)},
	})
	var data leaderboardResponse
	if err := c.getJSON(ctx, u, &data); err != nil {
		return nil, errors.Wrap(err, "contest leaderboard")
	}
	if len(data.Models) > limit {
		data.Models = data.Models[:limit]
	}
	return data.Models, nil
}

// TopHackers returns the handles of the first limit contestants.
func (c *Client) TopHackers(ctx context.Context, limit int) ([]string, error) {
	entries, err := c.ContestLeaderboard(ctx, limit)
	if err != nil {
		return nil, err
	}
	hackers := make([]string, 0, len(entries))
	for _, e := range entries {
		hackers = append(hackers, e.Hacker)
	}
	return hackers, nil
}

// ListChallenges returns the slugs of every challenge in the contest.
func (c *Client) ListChallenges(ctx context.Context) ([]string, error) {
	u := c.endpoint(fmt.Sprintf("/rest/contests/%s/challenges", url.PathEscape(c.Contest)), nil)
	var data challengesResponse
	if err := c.getJSON(ctx, u, &data); err != nil {
		return nil, errors.Wrap(err, "list challenges")
	}
	slugs := make([]string, 0, len(data.Models))
	for _, ch := range data.Models {
		slugs = append(slugs, ch.Slug)
	}
	return slugs, nil
}

// WalkChallenge calls fn for every entry of the challenge leaderboard that
// has a non-zero score. Entries are assumed to be sorted by descending
// score, so paging stops at the first zero.
func (c *Client) WalkChallenge(ctx context.Context, challenge string, fn func(*Entry) error) error {
	p := &challengePager{client: c, challenge: challenge}
	stop := func(e *Entry) bool { return e.Score == 0 }
	if err := scraper.Walk[int, *Entry](ctx, p, stop, fn); err != nil {
		return errors.Wrapf(err, "challenge %s leaderboard", challenge)
	}
	return nil
}

// SubmissionURL is where the solution of hacker for challenge is served.
func (c *Client) SubmissionURL(challenge, hacker string) string {
	return c.endpoint(fmt.Sprintf("/rest/contests/%s/challenges/%s/hackers/%s/download_solution",
		url.PathEscape(c.Contest), url.PathEscape(challenge), url.PathEscape(hacker)), nil)
}

var _ scraper.Pager[int, *Entry] = &challengePager{}

type challengePager struct {
	client    *Client
	challenge string
}

func (p *challengePager) PageZeroOffset() int {
	return 0
}

func (p *challengePager) NextPageOffset(t int, page []*Entry) int {
	return t + len(page)
}

func (p *challengePager) GetPage(ctx context.Context, offset int) ([]*Entry, error) {
	c := p.client
	pageSize := c.PageSize
	if pageSize <= 0 {
		pageSize = 1000
	}
	u := c.endpoint(fmt.Sprintf("/rest/contests/%s/challenges/%s/leaderboard", url.PathEscape(c.Contest), url.PathEscape(p.challenge)), url.Values{
		"limit":  {fmt.Sprint(pageSize)},
		"offset": {fmt.Sprint(offset)},
	})
	var data leaderboardResponse
	if err := c.getJSON(ctx, u, &data); err != nil {
		return nil, err
	}
	return data.Models, nil
}
