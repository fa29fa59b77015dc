package emailservice

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// Client клиент сервиса отправки писем
type Client struct {
	baseURL    string
	from       string
	httpClient *http.Client
	log        Logger
}

// NewClient создает новый экземпляр клиента сервиса писем
func NewClient(baseURL, from string, timeout time.Duration, log Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		from:    from,
		httpClient: &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		log: log,
	}
}

// Send отправляет письмо по шаблону
func (c *Client) Send(ctx context.Context, msg Message) error {
	if err := msg.validate(); err != nil {
		return err
	}
	if msg.From == "" {
		msg.From = c.from
	}

	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("%w: failed to marshal message: %v", ErrInternal, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/internal/emails", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("%w: failed to create request: %v", ErrInternal, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: failed to execute request: %v", ErrInternal, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusAccepted {
		respBody, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("%w: status %d: %s", ErrDeliveryFailed, resp.StatusCode, string(respBody))
	}

	c.log.Info("EmailService: sent %s to %s", msg.Type, msg.To)
	return nil
}

// LogSender пишет письма в лог вместо отправки
type LogSender struct {
	log Logger
}

// NewLogSender создает отправитель, который только логирует письма
func NewLogSender(log Logger) *LogSender {
	return &LogSender{log: log}
}

// Send логирует письмо
func (s *LogSender) Send(_ context.Context, msg Message) error {
	if err := msg.validate(); err != nil {
		return err
	}
	s.log.Info("EmailService (log mode): %s to %s data=%v", msg.Type, msg.To, msg.TemplateData)
	return nil
}
