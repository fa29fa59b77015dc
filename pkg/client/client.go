package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const (
	defaultTimeout = 10 * time.Second
	apiPrefix      = "/api/v1"

	headerUserID   = "X-User-ID"
	headerUserRole = "X-User-Role"
)

// Logger интерфейс для логирования
type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}

type nopLogger struct{}

func (nopLogger) Info(string, ...interface{})  {}
func (nopLogger) Warn(string, ...interface{})  {}
func (nopLogger) Error(string, ...interface{}) {}

// Client клиент API сервиса бронирования детейлинга
// Все ответы разворачиваются из конверта {success, data, error, code}.
// Чтения повторяются один раз при сетевой ошибке, записи не повторяются никогда
type Client struct {
	baseURL    string
	httpClient *http.Client
	userID     int64
	role       string
	log        Logger
}

// Option настройка клиента
type Option func(*Client)

// WithHTTPClient подменяет http.Client (тесты, свой транспорт)
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithIdentity задает пользователя, от имени которого идут запросы
func WithIdentity(userID int64, role string) Option {
	return func(c *Client) {
		c.userID = userID
		c.role = role
	}
}

func WithLogger(log Logger) Option {
	return func(c *Client) { c.log = log }
}

// New создает клиента для baseURL вида http://host:port
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout:   defaultTimeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		log: nopLogger{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// UserID пользователь клиента, 0 для анонима
func (c *Client) UserID() int64 {
	return c.userID
}

func (c *Client) Role() string {
	return c.role
}

// ===== Расписание =====

// GetSchedule расписание с доступностью слотов, end включительно
func (c *Client) GetSchedule(ctx context.Context, start, end string) (*Schedule, error) {
	q := url.Values{}
	q.Set("start", start)
	if end != "" {
		q.Set("end", end)
	}

	var schedule Schedule
	if err := c.get(ctx, "/schedule", q, &schedule); err != nil {
		return nil, err
	}
	return &schedule, nil
}

// GetOverview сводка загрузки по дням
func (c *Client) GetOverview(ctx context.Context, start, end string) (*Overview, error) {
	q := url.Values{}
	q.Set("start", start)
	q.Set("end", end)

	var overview Overview
	if err := c.get(ctx, "/schedule/overview", q, &overview); err != nil {
		return nil, err
	}
	return &overview, nil
}

type scheduleAction struct {
	Action string  `json:"action"`
	SlotID int64   `json:"slot_id"`
	Reason *string `json:"reason,omitempty"`
}

// BlockSlot закрывает слот для бронирования (администратор)
func (c *Client) BlockSlot(ctx context.Context, slotID int64, reason *string) (*Slot, error) {
	var slot Slot
	body := scheduleAction{Action: "block_slot", SlotID: slotID, Reason: reason}
	if err := c.send(ctx, http.MethodPost, "/schedule", nil, body, &slot); err != nil {
		return nil, err
	}
	return &slot, nil
}

// UnblockSlot открывает слот (администратор)
func (c *Client) UnblockSlot(ctx context.Context, slotID int64) (*Slot, error) {
	var slot Slot
	body := scheduleAction{Action: "unblock_slot", SlotID: slotID}
	if err := c.send(ctx, http.MethodPost, "/schedule", nil, body, &slot); err != nil {
		return nil, err
	}
	return &slot, nil
}

// ===== Блокировки =====

// AcquireLock держит слот на время оформления
func (c *Client) AcquireLock(ctx context.Context, slotKey string) (*Lock, error) {
	var lock Lock
	body := map[string]string{"slot_key": slotKey}
	if err := c.send(ctx, http.MethodPost, "/locks", nil, body, &lock); err != nil {
		return nil, err
	}
	return &lock, nil
}

// ReleaseLock снимает блокировку, повторный вызов не ошибка
func (c *Client) ReleaseLock(ctx context.Context, slotKey string) error {
	return c.send(ctx, http.MethodDelete, "/locks/"+url.PathEscape(slotKey), nil, nil, nil)
}

// SlotAvailable true, если слот можно бронировать прямо сейчас
func (c *Client) SlotAvailable(ctx context.Context, slotKey string) (bool, error) {
	var availability Availability
	if err := c.get(ctx, "/locks/"+url.PathEscape(slotKey)+"/availability", nil, &availability); err != nil {
		return false, err
	}
	return availability.Available, nil
}

// ===== Цены =====

func (c *Client) Quote(ctx context.Context, in QuoteInput) (*Quote, error) {
	q := url.Values{}
	q.Set("service_id", strconv.FormatInt(in.ServiceID, 10))
	if in.VehicleSize != "" {
		q.Set("vehicle_size", in.VehicleSize)
	}
	if in.Postcode != "" {
		q.Set("postcode", in.Postcode)
	}
	if in.DistanceMiles != nil {
		q.Set("distance_miles", strconv.FormatFloat(*in.DistanceMiles, 'f', -1, 64))
	}
	if in.UserID != nil {
		q.Set("user_id", strconv.FormatInt(*in.UserID, 10))
	}

	var quote Quote
	if err := c.get(ctx, "/pricing/quote", q, &quote); err != nil {
		return nil, err
	}
	return &quote, nil
}

// ===== Бронирования =====

// CreateBooking оформляет бронирование по ранее полученной блокировке
func (c *Client) CreateBooking(ctx context.Context, in *CreateBookingInput) (*CreateBookingResult, error) {
	var result CreateBookingResult
	if err := c.send(ctx, http.MethodPost, "/bookings", nil, in, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *Client) GetBooking(ctx context.Context, id int64) (*Booking, error) {
	var booking Booking
	if err := c.get(ctx, "/bookings/"+strconv.FormatInt(id, 10), nil, &booking); err != nil {
		return nil, err
	}
	return &booking, nil
}

// CancelBooking отменяет бронирование, повторная отмена возвращает AlreadyCancelled
func (c *Client) CancelBooking(ctx context.Context, id int64, reason *string) (*CancelResult, error) {
	var result CancelResult
	body := map[string]*string{"cancellation_reason": reason}
	path := "/bookings/" + strconv.FormatInt(id, 10) + "/cancel"
	if err := c.send(ctx, http.MethodPost, path, nil, body, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// UpdateBookingStatus переводит бронирование в новый статус (администратор)
func (c *Client) UpdateBookingStatus(ctx context.Context, id int64, status string, reason *string) (*Booking, error) {
	var booking Booking
	body := map[string]interface{}{"status": status}
	if reason != nil {
		body["reason"] = *reason
	}
	path := "/bookings/" + strconv.FormatInt(id, 10) + "/status"
	if err := c.send(ctx, http.MethodPatch, path, nil, body, &booking); err != nil {
		return nil, err
	}
	return &booking, nil
}

// ListBookings все бронирования по фильтру (администратор)
func (c *Client) ListBookings(ctx context.Context, f ListFilter) ([]*Booking, error) {
	q := url.Values{}
	if f.StartDate != "" {
		q.Set("start_date", f.StartDate)
	}
	if f.EndDate != "" {
		q.Set("end_date", f.EndDate)
	}
	if f.Status != "" {
		q.Set("status", f.Status)
	}
	if f.UserID != nil {
		q.Set("user_id", strconv.FormatInt(*f.UserID, 10))
	}
	if f.Limit > 0 {
		q.Set("limit", strconv.Itoa(f.Limit))
	}
	if f.Offset > 0 {
		q.Set("offset", strconv.Itoa(f.Offset))
	}

	var list BookingList
	if err := c.get(ctx, "/bookings", q, &list); err != nil {
		return nil, err
	}
	return list.Bookings, nil
}

// UserBookings бронирования пользователя, status пустой для всех
func (c *Client) UserBookings(ctx context.Context, userID int64, status string) ([]*Booking, error) {
	q := url.Values{}
	if status != "" {
		q.Set("status", status)
	}

	var list BookingList
	if err := c.get(ctx, "/users/"+strconv.FormatInt(userID, 10)+"/bookings", q, &list); err != nil {
		return nil, err
	}
	return list.Bookings, nil
}

// ===== Аккаунт =====

func (c *Client) Rewards(ctx context.Context, userID int64) (*RewardsAccount, error) {
	var account RewardsAccount
	if err := c.get(ctx, "/users/"+strconv.FormatInt(userID, 10)+"/rewards", nil, &account); err != nil {
		return nil, err
	}
	return &account, nil
}

// SetupPassword задает пароль аккаунту, созданному при бронировании
func (c *Client) SetupPassword(ctx context.Context, email, token, password string) error {
	body := map[string]string{"email": email, "token": token, "password": password}
	return c.send(ctx, http.MethodPost, "/accounts/password-setup", nil, body, nil)
}

// ===== Транспорт =====

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
	Code    string          `json:"code"`
}

// get чтение с одним повтором при сетевой ошибке или ответе 5xx
func (c *Client) get(ctx context.Context, path string, query url.Values, out interface{}) error {
	err := c.do(ctx, http.MethodGet, path, query, nil, out)
	if err == nil || !retryable(err) || ctx.Err() != nil {
		return err
	}

	c.log.Warn("GET %s - retrying: %v", path, err)
	return c.do(ctx, http.MethodGet, path, query, nil, out)
}

func retryable(err error) bool {
	if errors.Is(err, ErrTransport) {
		return true
	}
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status >= http.StatusInternalServerError
}

// send запись, без повторов
func (c *Client) send(ctx context.Context, method, path string, query url.Values, body, out interface{}) error {
	return c.do(ctx, method, path, query, body, out)
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out interface{}) error {
	endpoint := c.baseURL + apiPrefix + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.userID > 0 {
		req.Header.Set(headerUserID, strconv.FormatInt(c.userID, 10))
		if c.role != "" {
			req.Header.Set(headerUserRole, c.role)
		}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %s %s: %v", ErrTransport, method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNoContent {
		return nil
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%w: failed to read response: %v", ErrTransport, err)
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		if resp.StatusCode >= http.StatusBadRequest {
			return &APIError{Status: resp.StatusCode, Message: strings.TrimSpace(string(raw))}
		}
		return fmt.Errorf("%w: invalid response body: %v", ErrServer, err)
	}

	if !env.Success || resp.StatusCode >= http.StatusBadRequest {
		apiErr := &APIError{Status: resp.StatusCode, Code: env.Code, Message: env.Error}
		c.log.Warn("%s %s - %v", method, path, apiErr)
		return apiErr
	}

	if out == nil || len(env.Data) == 0 {
		return nil
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return fmt.Errorf("%w: failed to decode data: %v", ErrServer, err)
	}
	return nil
}
