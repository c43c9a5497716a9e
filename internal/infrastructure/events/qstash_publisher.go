// Package events delivers domain events to external collaborators.
package events

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	crerr "github.com/cockroachdb/errors"
	jsoniter "github.com/json-iterator/go"
	"github.com/riskibarqy/gym-league/internal/domain/event"
	"github.com/riskibarqy/gym-league/internal/platform/logging"
	"github.com/riskibarqy/gym-league/internal/platform/metrics"
	"github.com/riskibarqy/gym-league/internal/platform/resilience"
	"github.com/valyala/bytebufferpool"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

var errQStashTransient = crerr.New("qstash transient failure")

type QStashPublisherConfig struct {
	BaseURL       string
	Token         string
	TargetBaseURL string
	Retries       int
	// ForwardToken is forwarded to the target as X-Internal-Job-Token.
	ForwardToken   string
	Timeout        time.Duration
	CircuitBreaker resilience.CircuitBreakerConfig
}

// QStashPublisher publishes every event to <target>/v1/hooks/events/<type> through the QStash API.
type QStashPublisher struct {
	client        *http.Client
	baseURL       string
	token         string
	targetBaseURL string
	retries       int
	forwardToken  string
	logger        *logging.Logger
	breaker       *resilience.CircuitBreaker
}

func NewQStashPublisher(cfg QStashPublisherConfig, logger *logging.Logger) (*QStashPublisher, error) {
	baseURL, err := validateHTTPBaseURL(cfg.BaseURL)
	if err != nil {
		return nil, crerr.Wrap(err, "invalid QSTASH_BASE_URL")
	}
	targetBaseURL, err := validateHTTPBaseURL(cfg.TargetBaseURL)
	if err != nil {
		return nil, crerr.Wrap(err, "invalid QSTASH_TARGET_BASE_URL")
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if logger == nil {
		logger = logging.Default()
	}

	breaker := resilience.NewCircuitBreaker("qstash", cfg.CircuitBreaker)
	metrics.CircuitState.WithLabelValues(breaker.Name()).Set(0)
	breaker.OnStateChange(func(name string, _, to resilience.CircuitState) {
		metrics.CircuitState.WithLabelValues(name).Set(circuitGauge(to))
		logger.Warn("circuit breaker state changed", "name", name, "state", string(to))
	})

	return &QStashPublisher{
		client:        &http.Client{Timeout: timeout},
		baseURL:       baseURL,
		token:         strings.TrimSpace(cfg.Token),
		targetBaseURL: targetBaseURL,
		retries:       cfg.Retries,
		forwardToken:  strings.TrimSpace(cfg.ForwardToken),
		logger:        logger,
		breaker:       breaker,
	}, nil
}

func (p *QStashPublisher) Publish(ctx context.Context, e event.Event) error {
	var rejected error
	err := p.breaker.Execute(ctx, func(ctx context.Context) error {
		callErr := p.publish(ctx, e)
		var permanent permanentError
		if stderrors.As(callErr, &permanent) {
			rejected = permanent.err
			return nil
		}
		return callErr
	})
	if err == nil {
		err = rejected
	}
	outcome := metrics.OutcomeOK
	if err != nil {
		outcome = metrics.OutcomeError
		if stderrors.Is(err, resilience.ErrCircuitOpen) {
			p.logger.WarnContext(ctx, "qstash circuit breaker rejected event", "event_type", string(e.Type), "state", string(p.breaker.State()))
			err = fmt.Errorf("qstash is temporarily unavailable: %w", err)
		}
	}
	metrics.EventsPublished.WithLabelValues(string(e.Type), outcome).Inc()
	return err
}

func (p *QStashPublisher) publish(ctx context.Context, e event.Event) error {
	path := "/v1/hooks/events/" + url.PathEscape(string(e.Type))
	targetURL := p.targetBaseURL + path
	publishURL := p.baseURL + "/v2/publish/" + targetURL

	body, err := jsoniter.Marshal(e)
	if err != nil {
		return crerr.Wrap(err, "marshal event payload")
	}

	span := trace.SpanFromContext(ctx)
	if span.IsRecording() {
		span.SetAttributes(
			attribute.String("qstash.publish_url", publishURL),
			attribute.String("qstash.target_url", targetURL),
			attribute.String("event.type", string(e.Type)),
			attribute.String("event.id", e.ID),
		)
	}
	p.logger.DebugContext(ctx, "qstash publish request",
		"event_type", string(e.Type),
		"publish_url", publishURL,
		"curl_preview", buildCurlPreview(publishURL, p.retries, e.ID, truncateForLog(string(body), 2048), p.forwardToken != ""),
	)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, publishURL, strings.NewReader(string(body)))
	if err != nil {
		return crerr.Wrap(err, "create qstash request")
	}
	req.Header.Set("Authorization", "Bearer "+p.token)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Upstash-Method", http.MethodPost)
	if p.retries > 0 {
		req.Header.Set("Upstash-Retries", strconv.Itoa(p.retries))
	}
	if e.ID != "" {
		req.Header.Set("Upstash-Deduplication-Id", e.ID)
	}
	if p.forwardToken != "" {
		req.Header.Set("Upstash-Forward-X-Internal-Job-Token", p.forwardToken)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: publish event type=%s: %v", errQStashTransient, e.Type, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode/100 != 2 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		callErr := fmt.Errorf("publish event type=%s status=%d body=%s", e.Type, resp.StatusCode, strings.TrimSpace(string(raw)))
		if isRetryableStatus(resp.StatusCode) {
			return fmt.Errorf("%w: %w", errQStashTransient, callErr)
		}
		// A rejected payload says nothing about QStash health.
		return permanentError{err: callErr}
	}

	p.logger.InfoContext(ctx, "domain event published", "event_type", string(e.Type), "event_id", e.ID)
	return nil
}

// permanentError is reported to the caller but recorded as a breaker success.
type permanentError struct {
	err error
}

func (e permanentError) Error() string { return e.err.Error() }

func isRetryableStatus(statusCode int) bool {
	return statusCode == http.StatusRequestTimeout ||
		statusCode == http.StatusTooManyRequests ||
		statusCode >= http.StatusInternalServerError
}

func circuitGauge(state resilience.CircuitState) float64 {
	switch state {
	case resilience.CircuitStateHalfOpen:
		return 1
	case resilience.CircuitStateOpen:
		return 2
	default:
		return 0
	}
}

func validateHTTPBaseURL(raw string) (string, error) {
	candidate := strings.TrimSpace(raw)
	if candidate == "" {
		return "", crerr.New("value is empty")
	}

	parsed, err := url.Parse(candidate)
	if err != nil {
		return "", crerr.Wrapf(err, "parse %q", candidate)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return "", crerr.Newf("%q uses unsupported scheme=%q; expected http or https", candidate, parsed.Scheme)
	}
	if strings.TrimSpace(parsed.Host) == "" {
		return "", crerr.Newf("%q has empty host", candidate)
	}
	return strings.TrimRight(candidate, "/"), nil
}

func buildCurlPreview(publishURL string, retries int, deduplicationID, body string, withForwardToken bool) string {
	buf := bytebufferpool.Get()
	defer bytebufferpool.Put(buf)

	appendPart := func(part string) {
		if buf.Len() > 0 {
			_ = buf.WriteByte(' ')
		}
		_, _ = buf.WriteString(part)
	}
	appendHeader := func(value string) {
		appendPart("-H")
		appendPart(shellQuote(value))
	}

	appendPart("curl -X POST")
	appendPart(shellQuote(publishURL))
	appendHeader("Authorization: Bearer ***")
	appendHeader("Content-Type: application/json")
	appendHeader("Upstash-Method: POST")
	if retries > 0 {
		appendHeader("Upstash-Retries: " + strconv.Itoa(retries))
	}
	if deduplicationID != "" {
		appendHeader("Upstash-Deduplication-Id: " + deduplicationID)
	}
	if withForwardToken {
		appendHeader("Upstash-Forward-X-Internal-Job-Token: ***")
	}
	appendPart("-d")
	appendPart(shellQuote(body))
	return buf.String()
}

func shellQuote(value string) string {
	return "'" + strings.ReplaceAll(value, "'", "'\"'\"'") + "'"
}

func truncateForLog(value string, max int) string {
	if max <= 0 || len(value) <= max {
		return value
	}
	return value[:max] + "...(truncated)"
}
