package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"

	"github.com/go-resty/resty/v2"

	"self-screening-bot/internal/config"
	"self-screening-bot/internal/platform/log"
	"self-screening-bot/internal/screening"
)

// termsPassphrase must be echoed back verbatim for the session to be usable.
const termsPassphrase = "I have read, understood and I accept and agree to comply with the Terms of Use of " +
	"EndlessMedicalAPI and Endless Medical services. The Terms of Use are available on endlessmedical.com"

const statusOK = "ok"

var ErrUnexpectedStatus = errors.New("unexpected status")

// EndlessMedicalClient talks to the Endless Medical diagnostic API. Every call
// after InitSession is addressed by the session id it returned.
type EndlessMedicalClient struct {
	client          *resty.Client
	numberOfResults int
}

func NewEndlessMedicalClient(cfg config.EndlessMedicalConfig) *EndlessMedicalClient {
	client := resty.New()
	client.SetBaseURL(cfg.BaseURL)
	client.SetTimeout(cfg.Timeout)
	client.SetHeader("Accept", "application/json")

	n := cfg.NumberOfResults
	if n <= 0 {
		n = 10
	}

	return &EndlessMedicalClient{
		client:          client,
		numberOfResults: n,
	}
}

type statusResponse struct {
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

type initSessionResponse struct {
	statusResponse
	SessionID string `json:"SessionID"`
}

type analyzeResponse struct {
	statusResponse
	Diseases []map[string]any `json:"Diseases"`
}

func (c *EndlessMedicalClient) NewSession(ctx context.Context) (string, error) {
	resp, err := c.client.R().
		SetContext(ctx).
		Get("/InitSession")
	if err := checkResponse("init session", resp, err); err != nil {
		return "", err
	}

	var out initSessionResponse
	if err := json.Unmarshal(resp.Body(), &out); err != nil {
		return "", fmt.Errorf("failed to parse init session response: %w", err)
	}
	if out.Status != statusOK || out.SessionID == "" {
		return "", fmt.Errorf("init session: %w: %q %s", ErrUnexpectedStatus, out.Status, out.Error)
	}
	return out.SessionID, nil
}

func (c *EndlessMedicalClient) AcceptTerms(ctx context.Context, token string) (bool, error) {
	resp, err := c.client.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"SessionID":  token,
			"passphrase": termsPassphrase,
		}).
		Post("/AcceptTermsOfUse")
	if err := checkResponse("accept terms", resp, err); err != nil {
		return false, err
	}
	return parseStatus(resp.Body())
}

func (c *EndlessMedicalClient) AddFeature(ctx context.Context, token, feature, value string) (bool, error) {
	resp, err := c.client.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"SessionID": token,
			"name":      feature,
			"value":     value,
		}).
		Post("/UpdateFeature")
	if err := checkResponse("update feature", resp, err); err != nil {
		return false, err
	}

	ok, err := parseStatus(resp.Body())
	log.FromCtx(ctx).Debug().
		Str("feature", feature).
		Str("value", value).
		Bool("accepted", ok).
		Msg("endless medical feature submitted")
	return ok, err
}

// Analyze returns the outcomes in the order the provider ranked them.
func (c *EndlessMedicalClient) Analyze(ctx context.Context, token string) ([]screening.Outcome, error) {
	resp, err := c.client.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"SessionID":       token,
			"NumberOfResults": strconv.Itoa(c.numberOfResults),
		}).
		Get("/Analyze")
	if err := checkResponse("analyze", resp, err); err != nil {
		return nil, err
	}

	var out analyzeResponse
	dec := json.NewDecoder(bytes.NewReader(resp.Body()))
	dec.UseNumber()
	if err := dec.Decode(&out); err != nil {
		return nil, fmt.Errorf("failed to parse analyze response: %w", err)
	}
	if out.Status != statusOK {
		return nil, fmt.Errorf("analyze: %w: %q %s", ErrUnexpectedStatus, out.Status, out.Error)
	}

	outcomes := make([]screening.Outcome, 0, len(out.Diseases))
	for _, entry := range out.Diseases {
		// Entries hold a single {"<disease>": "<confidence>"} pair; sort keys to stay
		// deterministic if the provider ever sends more.
		names := make([]string, 0, len(entry))
		for name := range entry {
			names = append(names, name)
		}
		sort.Strings(names)

		for _, name := range names {
			outcomes = append(outcomes, screening.Outcome{
				Disease:    name,
				Confidence: confidenceString(entry[name]),
			})
		}
	}

	log.FromCtx(ctx).Debug().Int("count", len(outcomes)).Msg("endless medical analysis received")
	return outcomes, nil
}

func confidenceString(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case json.Number:
		return val.String()
	case nil:
		return ""
	default:
		return fmt.Sprint(val)
	}
}

func parseStatus(body []byte) (bool, error) {
	var out statusResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return false, fmt.Errorf("failed to parse status response: %w", err)
	}
	return out.Status == statusOK, nil
}

func checkResponse(op string, resp *resty.Response, err error) error {
	if err != nil {
		return fmt.Errorf("%s request failed: %w", op, err)
	}
	if resp.IsError() {
		return fmt.Errorf("%s: %w: %s - %s", op, ErrUnexpectedStatus, resp.Status(), resp.String())
	}
	return nil
}
