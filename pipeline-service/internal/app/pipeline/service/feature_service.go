package service

import (
	"time"

	"satisfaction/pipeline-service/internal/app/pipeline/entity"
	"satisfaction/pkg/logger"
)

// FeatureService вычисляет производные признаки консолидированной строки:
// суммы и отношения стоимостей, календарные и рабочие дельты в днях,
// количество покупок клиента и составной ключ строки
type FeatureService struct{}

// NewFeatureService создает сервис признаков
func NewFeatureService() *FeatureService {
	return &FeatureService{}
}

// Derive возвращает новый слайс строк с заполненными Features.
// Входной слайс не мутируется.
func (s *FeatureService) Derive(rows []entity.ConsolidatedRow) []entity.ConsolidatedRow {
	log := logger.Component("feature_service")

	// Количество покупок на клиента: группировка по customer_unique_id
	// с раздачей счётчика группы каждой строке. Строки без соответствия
	// в customers попадают в общую группу пустого идентификатора.
	purchaseCounts := make(map[string]float64)
	for i := range rows {
		purchaseCounts[uniqueCustomerID(&rows[i])]++
	}

	out := make([]entity.ConsolidatedRow, len(rows))
	copy(out, rows)

	for i := range out {
		row := &out[i]
		f := entity.DerivedFeatures{}

		f.TotalPurchaseCount = purchaseCounts[uniqueCustomerID(row)]
		f.OrderIDProductID = row.Item.OrderID + "-" + row.Item.ProductID

		// Стоимость позиции с доставкой и отношение доставки к цене.
		// Нулевая цена даёт +Inf по правилам IEEE деления - сохраняем
		// как сентинел, а не как ошибку.
		if row.Item.Price != nil && row.Item.FreightValue != nil {
			v := *row.Item.Price + *row.Item.FreightValue
			f.ProductPaymentValue = &v

			ratio := *row.Item.FreightValue / *row.Item.Price
			f.FreightToPriceRatio = &ratio
		}

		if row.Review != nil {
			f.DiffReviewCreationAnswerDays = calendarDays(row.Review.CreationDate, row.Review.AnswerTimestamp)
		}

		if row.Order != nil {
			o := row.Order
			f.DiffApprovedPurchased = calendarDays(o.PurchaseTimestamp, o.ApprovedAt)
			f.DiffCustomerDeliveredEstimated = calendarDays(o.EstimatedDeliveryDate, o.DeliveredCustomerDate)
			f.DiffCustomerDeliveredDeliveredCarrier = calendarDays(o.DeliveredCarrierDate, o.DeliveredCustomerDate)
			f.DiffCustomerDeliveredPurchase = calendarDays(o.PurchaseTimestamp, o.DeliveredCustomerDate)
			f.DiffDeliveredCarrierPurchase = calendarDays(o.PurchaseTimestamp, o.DeliveredCarrierDate)

			f.DiffApprovedPurchasedWD = businessDays(o.PurchaseTimestamp, o.ApprovedAt)
			f.DiffCustomerDeliveredDeliveredCarrierWD = businessDays(o.DeliveredCarrierDate, o.DeliveredCustomerDate)
			f.DiffCustomerDeliveredPurchaseWD = businessDays(o.PurchaseTimestamp, o.DeliveredCustomerDate)
			f.DiffDeliveredCarrierPurchaseWD = businessDays(o.PurchaseTimestamp, o.DeliveredCarrierDate)
		}

		row.Features = f
	}

	log.Info().Int("rows", len(out)).Msg("features derived")

	return out
}

func uniqueCustomerID(row *entity.ConsolidatedRow) string {
	if row.Customer != nil {
		return row.Customer.CustomerUniqueID
	}
	return ""
}

// calendarDays возвращает целые календарные дни между двумя метками
// (усечение к нулю), null если любая из меток отсутствует
func calendarDays(start, end *time.Time) *float64 {
	if start == nil || end == nil {
		return nil
	}
	days := float64(int(end.Sub(*start).Hours() / 24))
	return &days
}

// businessDays возвращает количество рабочих дней (пн-пт, без праздников)
// в полуинтервале [start, end) по календарным датам, игнорируя время суток.
// Отрицательно, если end раньше start. Null, если любая метка отсутствует.
func businessDays(start, end *time.Time) *float64 {
	if start == nil || end == nil {
		return nil
	}
	days := float64(busdayCount(truncateToDate(*start), truncateToDate(*end)))
	return &days
}

func truncateToDate(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// busdayCount считает будние дни в [start, end)
func busdayCount(start, end time.Time) int {
	if end.Before(start) {
		return -busdayCount(end, start)
	}

	totalDays := int(end.Sub(start).Hours() / 24)
	fullWeeks := totalDays / 7
	count := fullWeeks * 5

	// Остаток меньше недели перебираем по дням
	for d := start.AddDate(0, 0, fullWeeks*7); d.Before(end); d = d.AddDate(0, 0, 1) {
		wd := d.Weekday()
		if wd != time.Saturday && wd != time.Sunday {
			count++
		}
	}

	return count
}
