package service

import (
	"sort"
	"time"

	"satisfaction/pipeline-service/internal/app/pipeline/entity"
)

// AggregationService сворачивает отношения один-ко-многим
// (платежи, отзывы) в одну строку на order_id перед join'ами
type AggregationService struct{}

// NewAggregationService создает сервис агрегации
func NewAggregationService() *AggregationService {
	return &AggregationService{}
}

// AggregatePayments сводит платежи к одной строке на order_id:
// количество платежей, среднее число рассрочек, сумма платежей,
// количество различных типов оплаты.
// Выход отсортирован по order_id для детерминированности.
func (s *AggregationService) AggregatePayments(payments []entity.Payment) []entity.PaymentSummary {
	type acc struct {
		count            float64
		installmentsSum  float64
		installmentsSeen float64
		valueSum         float64
		types            map[string]struct{}
	}

	groups := make(map[string]*acc)
	for _, p := range payments {
		g, ok := groups[p.OrderID]
		if !ok {
			g = &acc{types: make(map[string]struct{})}
			groups[p.OrderID] = g
		}
		g.count++
		if p.Installments != nil {
			g.installmentsSum += *p.Installments
			g.installmentsSeen++
		}
		if p.Value != nil {
			g.valueSum += *p.Value
		}
		g.types[p.Type] = struct{}{}
	}

	summaries := make([]entity.PaymentSummary, 0, len(groups))
	for orderID, g := range groups {
		summary := entity.PaymentSummary{
			OrderID:      orderID,
			PaymentCount: g.count,
			ValueSum:     g.valueSum,
			TypeCount:    float64(len(g.types)),
		}
		// Среднее по присутствующим значениям; null, если все отсутствуют
		if g.installmentsSeen > 0 {
			mean := g.installmentsSum / g.installmentsSeen
			summary.InstallmentsMean = &mean
		}
		summaries = append(summaries, summary)
	}

	sort.Slice(summaries, func(i, j int) bool {
		return summaries[i].OrderID < summaries[j].OrderID
	})

	return summaries
}

// LatestReviews оставляет ровно один отзыв на order_id: с максимальной
// review_creation_date. Тай-брейк детерминированный: более поздний
// review_answer_timestamp, затем лексикографически больший review_id.
// Отзывы с отсутствующей датой создания проигрывают отзывам с датой.
func (s *AggregationService) LatestReviews(reviews []entity.Review) []entity.Review {
	selected := make(map[string]entity.Review)
	for _, rv := range reviews {
		current, ok := selected[rv.OrderID]
		if !ok || reviewWins(rv, current) {
			selected[rv.OrderID] = rv
		}
	}

	out := make([]entity.Review, 0, len(selected))
	for _, rv := range selected {
		out = append(out, rv)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].OrderID < out[j].OrderID
	})

	return out
}

// reviewWins сообщает, должен ли кандидат a вытеснить текущий выбор b
func reviewWins(a, b entity.Review) bool {
	if c := compareTimes(a.CreationDate, b.CreationDate); c != 0 {
		return c > 0
	}
	if c := compareTimes(a.AnswerTimestamp, b.AnswerTimestamp); c != 0 {
		return c > 0
	}
	return a.ReviewID > b.ReviewID
}

// compareTimes сравнивает nullable временные метки; nil считается самым ранним
func compareTimes(a, b *time.Time) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return -1
	case b == nil:
		return 1
	case a.After(*b):
		return 1
	case a.Before(*b):
		return -1
	default:
		return 0
	}
}
