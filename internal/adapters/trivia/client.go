// Package trivia is the question source backed by a Trivia-API-compatible
// HTTP service.
package trivia

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/dkeye/Trivia/internal/domain"
	"github.com/rs/zerolog/log"
	"github.com/valyala/fasthttp"
)

const defaultTimeout = 5 * time.Second

type Client struct {
	baseURL string
	timeout time.Duration
	http    *fasthttp.Client
}

type Option func(*Client)

// WithDial replaces the transport dialer, e.g. with an in-memory listener.
func WithDial(dial fasthttp.DialFunc) Option {
	return func(c *Client) { c.http.Dial = dial }
}

func NewClient(baseURL string, timeout time.Duration, opts ...Option) *Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		timeout: timeout,
		http: &fasthttp.Client{
			Name:                "trivia-engine",
			ReadTimeout:         timeout,
			WriteTimeout:        timeout,
			MaxIdleConnDuration: time.Minute,
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// questionText accepts both the flat v1 form and the v2 {"text": ...} form.
type questionText string

func (q *questionText) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*q = questionText(s)
		return nil
	}
	var obj struct {
		Text string `json:"text"`
	}
	if err := json.Unmarshal(b, &obj); err != nil {
		return err
	}
	*q = questionText(obj.Text)
	return nil
}

type apiQuestion struct {
	ID               string       `json:"id"`
	Question         questionText `json:"question"`
	CorrectAnswer    string       `json:"correctAnswer"`
	IncorrectAnswers []string     `json:"incorrectAnswers"`
}

// Fetch implements core.QuestionSource. Any non-200 answer is an error.
func (c *Client) Fetch(ctx context.Context, crit domain.Criteria) ([]domain.SourceQuestion, error) {
	req := fasthttp.AcquireRequest()
	defer fasthttp.ReleaseRequest(req)
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(c.baseURL + "/questions")
	req.Header.SetMethod(fasthttp.MethodGet)
	req.Header.Set(fasthttp.HeaderAccept, "application/json")
	args := req.URI().QueryArgs()
	args.Add("amount", strconv.Itoa(crit.Amount))
	if crit.Region != "" {
		args.Add("region", crit.Region)
	}
	if crit.Category != "" {
		args.Add("category", crit.Category)
	}
	if crit.Difficulty != "" {
		args.Add("difficulty", crit.Difficulty)
	}
	if crit.Tag != "" {
		args.Add("tag", crit.Tag)
	}

	logger := log.With().Str("module", "trivia").Str("uri", req.URI().String()).Logger()
	start := time.Now()
	if err := c.do(ctx, req, resp); err != nil {
		logger.Error().Err(err).Msg("question request failed")
		return nil, err
	}
	if status := resp.StatusCode(); status != fasthttp.StatusOK {
		logger.Error().Int("status", status).Msg("question request rejected")
		return nil, fmt.Errorf("trivia api: status %d", status)
	}

	var raw []apiQuestion
	if err := json.Unmarshal(resp.Body(), &raw); err != nil {
		return nil, fmt.Errorf("trivia api: decode: %w", err)
	}
	out := make([]domain.SourceQuestion, 0, len(raw))
	for _, q := range raw {
		if q.ID == "" || q.CorrectAnswer == "" {
			logger.Warn().Str("question", q.ID).Msg("skipping malformed question")
			continue
		}
		out = append(out, domain.SourceQuestion{
			ID:               q.ID,
			Text:             string(q.Question),
			IncorrectAnswers: q.IncorrectAnswers,
			CorrectAnswer:    q.CorrectAnswer,
		})
	}
	logger.Debug().Int("questions", len(out)).Dur("took", time.Since(start)).Msg("questions fetched")
	return out, nil
}

// Healthy probes questions?limit=0.
func (c *Client) Healthy(ctx context.Context) bool {
	req := fasthttp.AcquireRequest()
	defer fasthttp.ReleaseRequest(req)
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(c.baseURL + "/questions?limit=0")
	req.Header.SetMethod(fasthttp.MethodGet)
	if err := c.do(ctx, req, resp); err != nil {
		log.Warn().Str("module", "trivia").Err(err).Msg("health probe failed")
		return false
	}
	return resp.StatusCode() == fasthttp.StatusOK
}

// do honours the earlier of ctx's deadline and the client timeout.
func (c *Client) do(ctx context.Context, req *fasthttp.Request, resp *fasthttp.Response) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	deadline := time.Now().Add(c.timeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	return c.http.DoDeadline(req, resp, deadline)
}
