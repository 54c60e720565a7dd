package service

import (
	"testing"
	"time"

	"satisfaction/pipeline-service/internal/app/pipeline/entity"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fptr(v float64) *float64 { return &v }

func tptr(t time.Time) *time.Time { return &t }

// ===================== AggregatePayments Tests =====================

func TestAggregationService_AggregatePayments_MultiplePaymentsPerOrder(t *testing.T) {
	// Arrange - три платежа одного заказа разными типами
	svc := NewAggregationService()
	payments := []entity.Payment{
		{OrderID: "o1", Sequential: fptr(1), Type: "credit_card", Installments: fptr(4), Value: fptr(100)},
		{OrderID: "o1", Sequential: fptr(2), Type: "voucher", Installments: fptr(1), Value: fptr(30)},
		{OrderID: "o1", Sequential: fptr(3), Type: "voucher", Installments: fptr(1), Value: fptr(20)},
	}

	// Act
	summaries := svc.AggregatePayments(payments)

	// Assert - одна строка: count=3, mean=2, sum=150, nunique=2
	require.Len(t, summaries, 1)
	s := summaries[0]
	assert.Equal(t, "o1", s.OrderID)
	assert.Equal(t, float64(3), s.PaymentCount)
	require.NotNil(t, s.InstallmentsMean)
	assert.Equal(t, float64(2), *s.InstallmentsMean)
	assert.Equal(t, float64(150), s.ValueSum)
	assert.Equal(t, float64(2), s.TypeCount)
}

func TestAggregationService_AggregatePayments_SortedByOrderID(t *testing.T) {
	// Arrange
	svc := NewAggregationService()
	payments := []entity.Payment{
		{OrderID: "o2", Type: "credit_card", Value: fptr(10)},
		{OrderID: "o1", Type: "boleto", Value: fptr(20)},
	}

	// Act
	summaries := svc.AggregatePayments(payments)

	// Assert
	require.Len(t, summaries, 2)
	assert.Equal(t, "o1", summaries[0].OrderID)
	assert.Equal(t, "o2", summaries[1].OrderID)
}

func TestAggregationService_AggregatePayments_AllInstallmentsMissing(t *testing.T) {
	// Arrange - рассрочка не распарсилась ни в одном платеже
	svc := NewAggregationService()
	payments := []entity.Payment{
		{OrderID: "o1", Type: "credit_card", Value: fptr(50)},
	}

	// Act
	summaries := svc.AggregatePayments(payments)

	// Assert - среднее null, а не ноль
	require.Len(t, summaries, 1)
	assert.Nil(t, summaries[0].InstallmentsMean)
}

func TestAggregationService_AggregatePayments_PartialInstallments(t *testing.T) {
	// Arrange - среднее считается только по присутствующим значениям
	svc := NewAggregationService()
	payments := []entity.Payment{
		{OrderID: "o1", Type: "credit_card", Installments: fptr(6), Value: fptr(50)},
		{OrderID: "o1", Type: "credit_card", Value: fptr(50)},
	}

	// Act
	summaries := svc.AggregatePayments(payments)

	// Assert
	require.Len(t, summaries, 1)
	require.NotNil(t, summaries[0].InstallmentsMean)
	assert.Equal(t, float64(6), *summaries[0].InstallmentsMean)
}

func TestAggregationService_AggregatePayments_Empty(t *testing.T) {
	// Arrange
	svc := NewAggregationService()

	// Act
	summaries := svc.AggregatePayments(nil)

	// Assert
	assert.Empty(t, summaries)
}

// ===================== LatestReviews Tests =====================

func TestAggregationService_LatestReviews_KeepsLatestCreationDate(t *testing.T) {
	// Arrange
	svc := NewAggregationService()
	older := time.Date(2018, 1, 10, 0, 0, 0, 0, time.UTC)
	newer := time.Date(2018, 2, 10, 0, 0, 0, 0, time.UTC)
	reviews := []entity.Review{
		{ReviewID: "r1", OrderID: "o1", Score: fptr(2), CreationDate: tptr(older)},
		{ReviewID: "r2", OrderID: "o1", Score: fptr(5), CreationDate: tptr(newer)},
	}

	// Act
	out := svc.LatestReviews(reviews)

	// Assert
	require.Len(t, out, 1)
	assert.Equal(t, "r2", out[0].ReviewID)
}

func TestAggregationService_LatestReviews_TieBreakByAnswerTimestamp(t *testing.T) {
	// Arrange - одинаковая дата создания, решает ответ
	svc := NewAggregationService()
	created := time.Date(2018, 1, 10, 0, 0, 0, 0, time.UTC)
	reviews := []entity.Review{
		{ReviewID: "r1", OrderID: "o1", CreationDate: tptr(created), AnswerTimestamp: tptr(created.Add(48 * time.Hour))},
		{ReviewID: "r2", OrderID: "o1", CreationDate: tptr(created), AnswerTimestamp: tptr(created.Add(24 * time.Hour))},
	}

	// Act
	out := svc.LatestReviews(reviews)

	// Assert
	require.Len(t, out, 1)
	assert.Equal(t, "r1", out[0].ReviewID)
}

func TestAggregationService_LatestReviews_TieBreakByReviewID(t *testing.T) {
	// Arrange - полностью совпадающие метки: выигрывает больший review_id
	svc := NewAggregationService()
	created := time.Date(2018, 1, 10, 0, 0, 0, 0, time.UTC)
	reviews := []entity.Review{
		{ReviewID: "rb", OrderID: "o1", CreationDate: tptr(created)},
		{ReviewID: "ra", OrderID: "o1", CreationDate: tptr(created)},
	}

	// Act
	out := svc.LatestReviews(reviews)

	// Assert
	require.Len(t, out, 1)
	assert.Equal(t, "rb", out[0].ReviewID)
}

func TestAggregationService_LatestReviews_NilDateLoses(t *testing.T) {
	// Arrange - отзыв без даты создания проигрывает отзыву с датой
	svc := NewAggregationService()
	created := time.Date(2018, 1, 10, 0, 0, 0, 0, time.UTC)
	reviews := []entity.Review{
		{ReviewID: "r1", OrderID: "o1"},
		{ReviewID: "r2", OrderID: "o1", CreationDate: tptr(created)},
	}

	// Act
	out := svc.LatestReviews(reviews)

	// Assert
	require.Len(t, out, 1)
	assert.Equal(t, "r2", out[0].ReviewID)
}

func TestAggregationService_LatestReviews_OneRowPerOrder(t *testing.T) {
	// Arrange
	svc := NewAggregationService()
	created := time.Date(2018, 1, 10, 0, 0, 0, 0, time.UTC)
	reviews := []entity.Review{
		{ReviewID: "r1", OrderID: "o1", CreationDate: tptr(created)},
		{ReviewID: "r2", OrderID: "o2", CreationDate: tptr(created)},
		{ReviewID: "r3", OrderID: "o2", CreationDate: tptr(created.Add(time.Hour))},
	}

	// Act
	out := svc.LatestReviews(reviews)

	// Assert - ровно одна строка на order_id, отсортировано по order_id
	require.Len(t, out, 2)
	assert.Equal(t, "o1", out[0].OrderID)
	assert.Equal(t, "o2", out[1].OrderID)
	assert.Equal(t, "r3", out[1].ReviewID)
}
