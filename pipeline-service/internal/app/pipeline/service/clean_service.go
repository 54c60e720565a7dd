package service

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"satisfaction/pipeline-service/internal/app/pipeline/entity"
	"satisfaction/pkg/frame"
	"satisfaction/pkg/logger"
)

// ErrResidualNulls - после полной очистки в таблице остались null значения.
// Это дефект конфигурации drop-листа, фатальная ошибка: Encoder рассчитывает
// на complete-case таблицу.
var ErrResidualNulls = errors.New("residual nulls after cleaning")

// DroppedColumns - фиксированный список колонок, удаляемых после
// вычисления признаков: идентификаторы, сырые временные метки,
// свободный текст отзывов и поля, полностью поглощённые производными
// признаками. Имена, отсутствующие в таблице, игнорируются.
var DroppedColumns = []string{
	"order_status",
	"review_id",
	"order_purchase_timestamp",
	"order_approved_at",
	"order_delivered_carrier_date",
	"order_delivered_customer_date",
	"payment_installments",
	"order_item_id",
	"shipping_limit_date",
	"product_weight_g",
	"product_length_cm",
	"product_height_cm",
	"product_width_cm",
	"review_comment_title",
	"review_comment_message",
	"payment_value",
	"order_id",
	"product_id",
	"seller_id",
	"seller_zip_code_prefix",
	"seller_city",
	"customer_id",
	"review_creation_date",
	"review_answer_timestamp",
	"customer_unique_id",
	"customer_zip_code_prefix",
	"customer_city",
	"payment_sequential",
	"order_estimated_delivery_date",
	"product_category_name_english",
	"product_category_name",
}

// CleanService превращает консолидированные строки в колоночную таблицу
// и выполняет очистку: фильтр по статусу заказа, удаление колонок,
// удаление неполных строк. Порядок шагов фиксирован.
type CleanService struct{}

// NewCleanService создает сервис очистки
func NewCleanService() *CleanService {
	return &CleanService{}
}

// BuildFrame материализует консолидированные строки в колоночную таблицу.
// Порядок колонок повторяет порядок join'ов и вычисления признаков.
func (s *CleanService) BuildFrame(rows []entity.ConsolidatedRow) (*frame.Frame, error) {
	n := len(rows)
	f := frame.New()

	add := func(c *frame.Column) error {
		if err := f.AddColumn(c); err != nil {
			return fmt.Errorf("failed to build frame: %w", err)
		}
		return nil
	}

	// Колонки order items
	if err := add(stringCol("order_id", n, rows, func(r *entity.ConsolidatedRow) (string, bool) {
		return r.Item.OrderID, true
	})); err != nil {
		return nil, err
	}
	if err := add(floatCol("order_item_id", n, rows, func(r *entity.ConsolidatedRow) *float64 {
		return r.Item.OrderItemID
	})); err != nil {
		return nil, err
	}
	if err := add(stringCol("product_id", n, rows, func(r *entity.ConsolidatedRow) (string, bool) {
		return r.Item.ProductID, true
	})); err != nil {
		return nil, err
	}
	if err := add(stringCol("seller_id", n, rows, func(r *entity.ConsolidatedRow) (string, bool) {
		return r.Item.SellerID, true
	})); err != nil {
		return nil, err
	}
	if err := add(timeCol("shipping_limit_date", n, rows, func(r *entity.ConsolidatedRow) *time.Time {
		return r.Item.ShippingLimitDate
	})); err != nil {
		return nil, err
	}
	if err := add(floatCol("price", n, rows, func(r *entity.ConsolidatedRow) *float64 {
		return r.Item.Price
	})); err != nil {
		return nil, err
	}
	if err := add(floatCol("freight_value", n, rows, func(r *entity.ConsolidatedRow) *float64 {
		return r.Item.FreightValue
	})); err != nil {
		return nil, err
	}

	// Колонки products
	if err := add(stringCol("product_category_name", n, rows, func(r *entity.ConsolidatedRow) (string, bool) {
		if r.Product == nil || r.Product.CategoryName == nil {
			return "", false
		}
		return *r.Product.CategoryName, true
	})); err != nil {
		return nil, err
	}
	productFloats := []struct {
		name string
		get  func(p *entity.Product) *float64
	}{
		{"product_name_lenght", func(p *entity.Product) *float64 { return p.NameLength }},
		{"product_description_lenght", func(p *entity.Product) *float64 { return p.DescriptionLength }},
		{"product_photos_qty", func(p *entity.Product) *float64 { return p.PhotosQty }},
		{"product_weight_g", func(p *entity.Product) *float64 { return p.WeightG }},
		{"product_length_cm", func(p *entity.Product) *float64 { return p.LengthCm }},
		{"product_height_cm", func(p *entity.Product) *float64 { return p.HeightCm }},
		{"product_width_cm", func(p *entity.Product) *float64 { return p.WidthCm }},
	}
	for _, pc := range productFloats {
		get := pc.get
		if err := add(floatCol(pc.name, n, rows, func(r *entity.ConsolidatedRow) *float64 {
			if r.Product == nil {
				return nil
			}
			return get(r.Product)
		})); err != nil {
			return nil, err
		}
	}

	// Колонки sellers
	if err := add(stringCol("seller_zip_code_prefix", n, rows, func(r *entity.ConsolidatedRow) (string, bool) {
		if r.Seller == nil {
			return "", false
		}
		return r.Seller.ZipCodePrefix, true
	})); err != nil {
		return nil, err
	}
	if err := add(stringCol("seller_city", n, rows, func(r *entity.ConsolidatedRow) (string, bool) {
		if r.Seller == nil {
			return "", false
		}
		return r.Seller.City, true
	})); err != nil {
		return nil, err
	}
	if err := add(stringCol("seller_state", n, rows, func(r *entity.ConsolidatedRow) (string, bool) {
		if r.Seller == nil {
			return "", false
		}
		return r.Seller.State, true
	})); err != nil {
		return nil, err
	}

	// Колонки orders
	if err := add(stringCol("customer_id", n, rows, func(r *entity.ConsolidatedRow) (string, bool) {
		if r.Order == nil {
			return "", false
		}
		return r.Order.CustomerID, true
	})); err != nil {
		return nil, err
	}
	if err := add(stringCol("order_status", n, rows, func(r *entity.ConsolidatedRow) (string, bool) {
		if r.Order == nil {
			return "", false
		}
		return r.Order.Status, true
	})); err != nil {
		return nil, err
	}
	orderTimes := []struct {
		name string
		get  func(o *entity.Order) *time.Time
	}{
		{"order_purchase_timestamp", func(o *entity.Order) *time.Time { return o.PurchaseTimestamp }},
		{"order_approved_at", func(o *entity.Order) *time.Time { return o.ApprovedAt }},
		{"order_delivered_carrier_date", func(o *entity.Order) *time.Time { return o.DeliveredCarrierDate }},
		{"order_delivered_customer_date", func(o *entity.Order) *time.Time { return o.DeliveredCustomerDate }},
		{"order_estimated_delivery_date", func(o *entity.Order) *time.Time { return o.EstimatedDeliveryDate }},
	}
	for _, oc := range orderTimes {
		get := oc.get
		if err := add(timeCol(oc.name, n, rows, func(r *entity.ConsolidatedRow) *time.Time {
			if r.Order == nil {
				return nil
			}
			return get(r.Order)
		})); err != nil {
			return nil, err
		}
	}

	// Агрегированные платежи (имена колонок исходные)
	if err := add(floatCol("payment_sequential", n, rows, func(r *entity.ConsolidatedRow) *float64 {
		if r.Payment == nil {
			return nil
		}
		return &r.Payment.PaymentCount
	})); err != nil {
		return nil, err
	}
	if err := add(floatCol("payment_installments", n, rows, func(r *entity.ConsolidatedRow) *float64 {
		if r.Payment == nil {
			return nil
		}
		return r.Payment.InstallmentsMean
	})); err != nil {
		return nil, err
	}
	if err := add(floatCol("payment_value", n, rows, func(r *entity.ConsolidatedRow) *float64 {
		if r.Payment == nil {
			return nil
		}
		return &r.Payment.ValueSum
	})); err != nil {
		return nil, err
	}
	if err := add(floatCol("payment_type_count", n, rows, func(r *entity.ConsolidatedRow) *float64 {
		if r.Payment == nil {
			return nil
		}
		return &r.Payment.TypeCount
	})); err != nil {
		return nil, err
	}

	// Дедуплицированные отзывы
	if err := add(stringCol("review_id", n, rows, func(r *entity.ConsolidatedRow) (string, bool) {
		if r.Review == nil {
			return "", false
		}
		return r.Review.ReviewID, true
	})); err != nil {
		return nil, err
	}
	if err := add(floatCol("review_score", n, rows, func(r *entity.ConsolidatedRow) *float64 {
		if r.Review == nil {
			return nil
		}
		return r.Review.Score
	})); err != nil {
		return nil, err
	}
	if err := add(stringCol("review_comment_title", n, rows, func(r *entity.ConsolidatedRow) (string, bool) {
		if r.Review == nil || r.Review.CommentTitle == nil {
			return "", false
		}
		return *r.Review.CommentTitle, true
	})); err != nil {
		return nil, err
	}
	if err := add(stringCol("review_comment_message", n, rows, func(r *entity.ConsolidatedRow) (string, bool) {
		if r.Review == nil || r.Review.CommentMessage == nil {
			return "", false
		}
		return *r.Review.CommentMessage, true
	})); err != nil {
		return nil, err
	}
	if err := add(timeCol("review_creation_date", n, rows, func(r *entity.ConsolidatedRow) *time.Time {
		if r.Review == nil {
			return nil
		}
		return r.Review.CreationDate
	})); err != nil {
		return nil, err
	}
	if err := add(timeCol("review_answer_timestamp", n, rows, func(r *entity.ConsolidatedRow) *time.Time {
		if r.Review == nil {
			return nil
		}
		return r.Review.AnswerTimestamp
	})); err != nil {
		return nil, err
	}

	// Колонки customers
	customerStrings := []struct {
		name string
		get  func(c *entity.Customer) string
	}{
		{"customer_unique_id", func(c *entity.Customer) string { return c.CustomerUniqueID }},
		{"customer_zip_code_prefix", func(c *entity.Customer) string { return c.ZipCodePrefix }},
		{"customer_city", func(c *entity.Customer) string { return c.City }},
		{"customer_state", func(c *entity.Customer) string { return c.State }},
	}
	for _, cc := range customerStrings {
		get := cc.get
		if err := add(stringCol(cc.name, n, rows, func(r *entity.ConsolidatedRow) (string, bool) {
			if r.Customer == nil {
				return "", false
			}
			return get(r.Customer), true
		})); err != nil {
			return nil, err
		}
	}

	// Укрупнённые категории
	if err := add(stringCol("product_category_name_english", n, rows, func(r *entity.ConsolidatedRow) (string, bool) {
		if r.Refinement == nil || r.Refinement.English == nil {
			return "", false
		}
		return *r.Refinement.English, true
	})); err != nil {
		return nil, err
	}
	if err := add(stringCol("Category", n, rows, func(r *entity.ConsolidatedRow) (string, bool) {
		if r.Refinement == nil || r.Refinement.Category == nil {
			return "", false
		}
		return *r.Refinement.Category, true
	})); err != nil {
		return nil, err
	}

	// Производные признаки
	if err := add(floatCol("total_purchase_count", n, rows, func(r *entity.ConsolidatedRow) *float64 {
		return &r.Features.TotalPurchaseCount
	})); err != nil {
		return nil, err
	}
	derivedFloats := []struct {
		name string
		get  func(f *entity.DerivedFeatures) *float64
	}{
		{"product_payment_value", func(f *entity.DerivedFeatures) *float64 { return f.ProductPaymentValue }},
		{"freight_to_price_ratio", func(f *entity.DerivedFeatures) *float64 { return f.FreightToPriceRatio }},
		{"diff_review_creation_answer_days", func(f *entity.DerivedFeatures) *float64 { return f.DiffReviewCreationAnswerDays }},
		{"diff_approved_purchased", func(f *entity.DerivedFeatures) *float64 { return f.DiffApprovedPurchased }},
		{"diff_customerdelivered_estimated", func(f *entity.DerivedFeatures) *float64 { return f.DiffCustomerDeliveredEstimated }},
		{"diff_customerdelivered_deliveredcarrier", func(f *entity.DerivedFeatures) *float64 { return f.DiffCustomerDeliveredDeliveredCarrier }},
		{"diff_customerdelivered_purchase", func(f *entity.DerivedFeatures) *float64 { return f.DiffCustomerDeliveredPurchase }},
		{"diff_deliveredcarrier_purchase", func(f *entity.DerivedFeatures) *float64 { return f.DiffDeliveredCarrierPurchase }},
		{"diff_approved_purchased_wd", func(f *entity.DerivedFeatures) *float64 { return f.DiffApprovedPurchasedWD }},
		{"diff_customerdelivered_deliveredcarrier_wd", func(f *entity.DerivedFeatures) *float64 { return f.DiffCustomerDeliveredDeliveredCarrierWD }},
		{"diff_customerdelivered_purchase_wd", func(f *entity.DerivedFeatures) *float64 { return f.DiffCustomerDeliveredPurchaseWD }},
		{"diff_deliveredcarrier_purchase_wd", func(f *entity.DerivedFeatures) *float64 { return f.DiffDeliveredCarrierPurchaseWD }},
	}
	for _, dc := range derivedFloats {
		get := dc.get
		if err := add(floatCol(dc.name, n, rows, func(r *entity.ConsolidatedRow) *float64 {
			return get(&r.Features)
		})); err != nil {
			return nil, err
		}
	}
	if err := add(stringCol("order_id_product_id", n, rows, func(r *entity.ConsolidatedRow) (string, bool) {
		return r.Features.OrderIDProductID, true
	})); err != nil {
		return nil, err
	}

	return f, nil
}

// Clean выполняет три шага очистки в строгом порядке:
// 1) фильтр по order_status == delivered;
// 2) удаление колонок drop-листа;
// 3) удаление строк с любым null (complete-case).
// Гарантия на выходе: ноль null значений в оставшихся колонках.
func (s *CleanService) Clean(f *frame.Frame) (*frame.Frame, error) {
	log := logger.Component("clean_service")

	statusCol, ok := f.Col("order_status")
	if !ok {
		return nil, fmt.Errorf("clean: required column order_status is missing")
	}

	// Шаг 1: только доставленные заказы - целевая метка осмысленна
	// только для завершённых доставок
	delivered := f.Filter(func(i int) bool {
		return !statusCol.IsNull(i) && statusCol.Strings[i] == entity.OrderStatusDelivered
	})

	// Шаг 2: удаление колонок строго после фильтра, чтобы статус
	// успел отработать, и строго до удаления строк, чтобы null'ы
	// в удаляемых колонках не выбрасывали строки
	dropped := delivered.Drop(DroppedColumns...)

	// Шаг 3: complete-case
	complete := dropped.DropNullRows()

	// Контроль инварианта очистки
	if total := complete.TotalNulls(); total > 0 {
		return nil, fmt.Errorf("%w: %d nulls in columns %s", ErrResidualNulls, total, nullColumns(complete))
	}

	log.Info().
		Int("input_rows", f.NumRows()).
		Int("delivered_rows", delivered.NumRows()).
		Int("complete_rows", complete.NumRows()).
		Int("columns", complete.NumCols()).
		Msg("table cleaned")

	return complete, nil
}

func nullColumns(f *frame.Frame) string {
	var names []string
	for name, count := range f.NullCounts() {
		if count > 0 {
			names = append(names, name)
		}
	}
	return strings.Join(names, ",")
}

// =============================================================================
// Конструкторы колонок из консолидированных строк
// =============================================================================

func floatCol(name string, n int, rows []entity.ConsolidatedRow, get func(r *entity.ConsolidatedRow) *float64) *frame.Column {
	values := make([]float64, n)
	valid := make([]bool, n)
	for i := range rows {
		if v := get(&rows[i]); v != nil {
			values[i] = *v
			valid[i] = true
		}
	}
	return frame.NewFloatColumn(name, values, valid)
}

func stringCol(name string, n int, rows []entity.ConsolidatedRow, get func(r *entity.ConsolidatedRow) (string, bool)) *frame.Column {
	values := make([]string, n)
	valid := make([]bool, n)
	for i := range rows {
		if v, ok := get(&rows[i]); ok {
			values[i] = v
			valid[i] = true
		}
	}
	return frame.NewStringColumn(name, values, valid)
}

func timeCol(name string, n int, rows []entity.ConsolidatedRow, get func(r *entity.ConsolidatedRow) *time.Time) *frame.Column {
	values := make([]time.Time, n)
	valid := make([]bool, n)
	for i := range rows {
		if v := get(&rows[i]); v != nil {
			values[i] = *v
			valid[i] = true
		}
	}
	return frame.NewTimeColumn(name, values, valid)
}
