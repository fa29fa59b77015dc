package distanceservice

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// Client клиент сервиса расстояний (почтовый индекс клиента -> мили до базы)
type Client struct {
	baseURL    string
	httpClient *http.Client
	log        Logger
}

// NewClient создает новый экземпляр клиента сервиса расстояний
// Пустой baseURL означает, что сервис не настроен: все запросы деградируют
func NewClient(baseURL string, timeout time.Duration, log Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		log: log,
	}
}

// GetDistance возвращает расстояние до почтового индекса
func (c *Client) GetDistance(ctx context.Context, postcode string) (*Distance, error) {
	if c.baseURL == "" {
		return nil, fmt.Errorf("%w: distance service is not configured", ErrInternal)
	}

	endpoint := fmt.Sprintf("%s/internal/distance?postcode=%s", c.baseURL, url.QueryEscape(NormalizePostcode(postcode)))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create request: %v", ErrInternal, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to execute request: %v", ErrInternal, err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusBadRequest, http.StatusNotFound:
		return nil, ErrPostcodeNotFound
	default:
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("%w: unexpected status code %d: %s", ErrInvalidResponse, resp.StatusCode, string(body))
	}

	var distance Distance
	if err := json.NewDecoder(resp.Body).Decode(&distance); err != nil {
		return nil, fmt.Errorf("%w: failed to decode response: %v", ErrInvalidResponse, err)
	}
	if distance.Miles < 0 {
		return nil, fmt.Errorf("%w: negative distance %.2f", ErrInvalidResponse, distance.Miles)
	}

	return &distance, nil
}

// GetDistanceWithGracefulDegradation возвращает расстояние с graceful degradation
// Неизвестный индекс пробрасывается как есть, любые другие ошибки превращаются в ErrServiceDegraded,
// и расчет цены продолжается без доплаты за выезд
func (c *Client) GetDistanceWithGracefulDegradation(ctx context.Context, postcode string) (*Distance, error) {
	distance, err := c.GetDistance(ctx, postcode)
	if err != nil {
		if errors.Is(err, ErrPostcodeNotFound) {
			c.log.Info("DistanceService: postcode %q not found", postcode)
			return nil, err
		}

		c.log.Error("DistanceService unavailable, applying graceful degradation for postcode=%q: %v", postcode, err)
		return nil, fmt.Errorf("%w: postcode=%q, error=%v", ErrServiceDegraded, postcode, err)
	}

	return distance, nil
}

// NormalizePostcode приводит индекс к виду "SW1A 1AA"
func NormalizePostcode(postcode string) string {
	compact := strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(postcode), " ", ""))
	if len(compact) > 3 {
		return compact[:len(compact)-3] + " " + compact[len(compact)-3:]
	}
	return compact
}
