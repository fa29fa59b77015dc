package models

import (
	"time"

	"github.com/m04kA/SMC-DetailingService/internal/domain"
)

// AddPointsRequest запрос на запись в журнал бонусов
type AddPointsRequest struct {
	UserID    int64
	BookingID *int64
	Type      domain.RewardTransactionType
	Points    int64 // Для redeemed и expired - положительное число, знак ставит сервис
	Reason    string
}

// AddPointsResult результат начисления
type AddPointsResult struct {
	Account     *domain.RewardsAccount
	Transaction *domain.RewardTransaction // nil, если запись уже была
	Duplicate   bool
	Upgraded    bool
	FromTier    domain.Tier
}

// TransactionResponse запись журнала
type TransactionResponse struct {
	ID        int64     `json:"id"`
	BookingID *int64    `json:"booking_id,omitempty"`
	Type      string    `json:"type"`
	Points    int64     `json:"points"`
	Reason    string    `json:"reason"`
	CreatedAt time.Time `json:"created_at"`
}

// AccountResponse бонусный счет с историей
type AccountResponse struct {
	UserID           int64                  `json:"user_id"`
	PointsBalance    int64                  `json:"points_balance"`
	LifetimePoints   int64                  `json:"lifetime_points"`
	Tier             string                 `json:"tier"`
	DiscountPercent  int                    `json:"discount_percent"`
	NextTier         *string                `json:"next_tier,omitempty"`
	PointsToNextTier *int64                 `json:"points_to_next_tier,omitempty"`
	History          []*TransactionResponse `json:"history"`
}

// FromDomainAccount конвертирует счет и журнал в ответ
func FromDomainAccount(a *domain.RewardsAccount, history []*domain.RewardTransaction) *AccountResponse {
	tier := domain.TierFor(a.LifetimePoints)

	resp := &AccountResponse{
		UserID:          a.UserID,
		PointsBalance:   a.PointsBalance,
		LifetimePoints:  a.LifetimePoints,
		Tier:            string(tier),
		DiscountPercent: tier.DiscountPercent(),
		History:         make([]*TransactionResponse, 0, len(history)),
	}

	if next, ok := tier.Next(); ok {
		name := string(next.Tier)
		left := next.MinPoints - a.LifetimePoints
		resp.NextTier = &name
		resp.PointsToNextTier = &left
	}

	for _, t := range history {
		resp.History = append(resp.History, &TransactionResponse{
			ID:        t.ID,
			BookingID: t.BookingID,
			Type:      string(t.Type),
			Points:    t.Points,
			Reason:    t.Reason,
			CreatedAt: t.CreatedAt,
		})
	}

	return resp
}
