package entity

import (
	"time"

	"github.com/google/uuid"
)

// =============================================================================
// Сырые таблицы датасета (одна структура = одна строка CSV)
// Nullable поля представлены указателями: nil означает отсутствующее или
// нераспарсенное значение.
// =============================================================================

// Customer - покупатель. customer_id уникален в рамках одного заказа,
// customer_unique_id - стабильный идентификатор человека.
type Customer struct {
	CustomerID       string
	CustomerUniqueID string
	ZipCodePrefix    string
	City             string
	State            string
}

// Geolocation - координаты по префиксу почтового индекса.
// Загружается и проверяется по схеме, но в консолидированную таблицу не входит.
type Geolocation struct {
	ZipCodePrefix string
	Lat           *float64
	Lng           *float64
	City          string
	State         string
}

// OrderItem - товарная позиция заказа, зерно консолидированной таблицы.
// Составной ключ (order_id, order_item_id).
type OrderItem struct {
	OrderID           string
	OrderItemID       *float64
	ProductID         string
	SellerID          string
	ShippingLimitDate *time.Time
	Price             *float64
	FreightValue      *float64
}

// Payment - одна платежная запись; на заказ их может быть несколько
type Payment struct {
	OrderID      string
	Sequential   *float64
	Type         string
	Installments *float64
	Value        *float64
}

// PaymentSummary - агрегат платежей: ровно одна строка на order_id.
// Имена колонок на выходе сохраняют исходные: payment_sequential (count),
// payment_installments (mean), payment_value (sum), payment_type_count (nunique).
type PaymentSummary struct {
	OrderID          string
	PaymentCount     float64
	InstallmentsMean *float64
	ValueSum         float64
	TypeCount        float64
}

// Review - отзыв о заказе; на заказ их может быть ноль или несколько
type Review struct {
	ReviewID        string
	OrderID         string
	Score           *float64
	CommentTitle    *string
	CommentMessage  *string
	CreationDate    *time.Time
	AnswerTimestamp *time.Time
}

// Order - заказ с жизненным циклом из пяти nullable временных меток
type Order struct {
	OrderID               string
	CustomerID            string
	Status                string
	PurchaseTimestamp     *time.Time
	ApprovedAt            *time.Time
	DeliveredCarrierDate  *time.Time
	DeliveredCustomerDate *time.Time
	EstimatedDeliveryDate *time.Time
}

// OrderStatusDelivered - единственный статус, попадающий в модельную выборку
const OrderStatusDelivered = "delivered"

// Product - товар. Имена числовых колонок сохраняют орфографию датасета
// (product_name_lenght и т.д.).
type Product struct {
	ProductID         string
	CategoryName      *string
	NameLength        *float64
	DescriptionLength *float64
	PhotosQty         *float64
	WeightG           *float64
	LengthCm          *float64
	HeightCm          *float64
	WidthCm           *float64
}

// Seller - продавец
type Seller struct {
	SellerID      string
	ZipCodePrefix string
	City          string
	State         string
}

// CategoryTranslation - перевод названия категории на английский.
// Загружается как отдельная таблица, но в консолидацию не входит:
// refined-справочник уже содержит английское название.
type CategoryTranslation struct {
	CategoryName string
	English      string
}

// CategoryRefinement - справочник укрупнённых категорий:
// сырое имя категории -> английское название + каноническая категория
type CategoryRefinement struct {
	CategoryName string
	English      *string
	Category     *string
}

// Dataset - все загруженные сырые таблицы одного прогона
type Dataset struct {
	Customers    []Customer
	Geolocations []Geolocation
	OrderItems   []OrderItem
	Payments     []Payment
	Reviews      []Review
	Orders       []Order
	Products     []Product
	Sellers      []Seller
	Translations []CategoryTranslation
	Categories   []CategoryRefinement
}

// =============================================================================
// Консолидированная строка (одна на order-item) и производные признаки
// =============================================================================

// ConsolidatedRow - результат последовательности left-join'ов.
// Указатели на присоединённые сущности: nil означает отсутствие соответствия
// справа (все колонки этой сущности становятся null).
type ConsolidatedRow struct {
	Item       OrderItem
	Product    *Product
	Seller     *Seller
	Order      *Order
	Payment    *PaymentSummary
	Review     *Review
	Customer   *Customer
	Refinement *CategoryRefinement
	Features   DerivedFeatures
}

// DerivedFeatures - вычисленные признаки строки.
// Дельты в днях nullable: null, если хотя бы одна из временных меток отсутствует.
type DerivedFeatures struct {
	TotalPurchaseCount float64

	ProductPaymentValue *float64
	FreightToPriceRatio *float64

	DiffReviewCreationAnswerDays          *float64
	DiffApprovedPurchased                 *float64
	DiffCustomerDeliveredEstimated        *float64
	DiffCustomerDeliveredDeliveredCarrier *float64
	DiffCustomerDeliveredPurchase         *float64
	DiffDeliveredCarrierPurchase          *float64

	DiffApprovedPurchasedWD                 *float64
	DiffCustomerDeliveredDeliveredCarrierWD *float64
	DiffCustomerDeliveredPurchaseWD         *float64
	DiffDeliveredCarrierPurchaseWD          *float64

	OrderIDProductID string
}

// =============================================================================
// Персистентные сущности прогона (PostgreSQL)
// =============================================================================

// RunStatus - состояние прогона конвейера
type RunStatus string

const (
	RunStatusRunning   RunStatus = "running"
	RunStatusCompleted RunStatus = "completed"
	RunStatusFailed    RunStatus = "failed"
)

// PipelineRun - запись об одном прогоне конвейера
type PipelineRun struct {
	ID               uuid.UUID  `json:"id" gorm:"type:uuid;primaryKey"`
	Status           RunStatus  `json:"status" gorm:"type:varchar(20);not null"`
	OrderItemRows    int        `json:"order_item_rows" gorm:"not null;default:0"`
	ConsolidatedRows int        `json:"consolidated_rows" gorm:"not null;default:0"`
	CleanedRows      int        `json:"cleaned_rows" gorm:"not null;default:0"`
	EncodedRows      int        `json:"encoded_rows" gorm:"not null;default:0"`
	EncodedColumns   int        `json:"encoded_columns" gorm:"not null;default:0"`
	Error            string     `json:"error,omitempty" gorm:"type:text"`
	StartedAt        time.Time  `json:"started_at" gorm:"not null"`
	FinishedAt       *time.Time `json:"finished_at"`
}

func (PipelineRun) TableName() string {
	return "pipeline_runs"
}

// CleanedOrderItem - строка очищенной таблицы (вход Encoder'а).
// Колоночные имена соответствуют итоговой таблице после drop-листа.
type CleanedOrderItem struct {
	ID               uint      `json:"-" gorm:"primaryKey;autoIncrement"`
	RunID            uuid.UUID `json:"run_id" gorm:"type:uuid;not null;index"`
	OrderIDProductID string    `json:"order_id_product_id" gorm:"column:order_id_product_id;type:varchar(70);not null"`

	Price               float64 `json:"price" gorm:"not null"`
	FreightValue        float64 `json:"freight_value" gorm:"not null"`
	ProductPaymentValue float64 `json:"product_payment_value" gorm:"not null"`
	FreightToPriceRatio float64 `json:"freight_to_price_ratio" gorm:"not null"`

	ProductNameLength        float64 `json:"product_name_lenght" gorm:"column:product_name_lenght;not null"`
	ProductDescriptionLength float64 `json:"product_description_lenght" gorm:"column:product_description_lenght;not null"`
	ProductPhotosQty         float64 `json:"product_photos_qty" gorm:"not null"`

	SellerState   string `json:"seller_state" gorm:"type:varchar(10);not null"`
	CustomerState string `json:"customer_state" gorm:"type:varchar(10);not null"`
	Category      string `json:"category" gorm:"column:category;type:varchar(50);not null"`

	DiffApprovedPurchased                 float64 `json:"diff_approved_purchased" gorm:"not null"`
	DiffCustomerDeliveredEstimated        float64 `json:"diff_customerdelivered_estimated" gorm:"column:diff_customerdelivered_estimated;not null"`
	DiffCustomerDeliveredDeliveredCarrier float64 `json:"diff_customerdelivered_deliveredcarrier" gorm:"column:diff_customerdelivered_deliveredcarrier;not null"`
	DiffCustomerDeliveredPurchase         float64 `json:"diff_customerdelivered_purchase" gorm:"column:diff_customerdelivered_purchase;not null"`
	DiffDeliveredCarrierPurchase          float64 `json:"diff_deliveredcarrier_purchase" gorm:"column:diff_deliveredcarrier_purchase;not null"`

	DiffApprovedPurchasedWD                 float64 `json:"diff_approved_purchased_wd" gorm:"column:diff_approved_purchased_wd;not null"`
	DiffCustomerDeliveredDeliveredCarrierWD float64 `json:"diff_customerdelivered_deliveredcarrier_wd" gorm:"column:diff_customerdelivered_deliveredcarrier_wd;not null"`
	DiffCustomerDeliveredPurchaseWD         float64 `json:"diff_customerdelivered_purchase_wd" gorm:"column:diff_customerdelivered_purchase_wd;not null"`
	DiffDeliveredCarrierPurchaseWD          float64 `json:"diff_deliveredcarrier_purchase_wd" gorm:"column:diff_deliveredcarrier_purchase_wd;not null"`

	PaymentTypeCount             float64 `json:"payment_type_count" gorm:"not null"`
	ReviewScore                  float64 `json:"review_score" gorm:"not null"`
	DiffReviewCreationAnswerDays float64 `json:"diff_review_creation_answer_days" gorm:"not null"`
	TotalPurchaseCount           float64 `json:"total_purchase_count" gorm:"not null"`
}

func (CleanedOrderItem) TableName() string {
	return "cleaned_order_items"
}

// =============================================================================
// События и статусы
// =============================================================================

// PipelineEvent - событие в Kafka о завершении прогона
type PipelineEvent struct {
	EventType   string     `json:"event_type"` // PIPELINE_COMPLETED, PIPELINE_FAILED
	RunID       uuid.UUID  `json:"run_id"`
	Status      RunStatus  `json:"status"`
	CleanedRows int        `json:"cleaned_rows"`
	EncodedRows int        `json:"encoded_rows"`
	Error       string     `json:"error,omitempty"`
	Timestamp   time.Time  `json:"timestamp"`
}

const (
	EventTypePipelineCompleted = "PIPELINE_COMPLETED"
	EventTypePipelineFailed    = "PIPELINE_FAILED"
)

// RunSummary - краткая сводка последнего прогона для кеша в Redis
type RunSummary struct {
	RunID          uuid.UUID  `json:"run_id"`
	Status         RunStatus  `json:"status"`
	OrderItemRows  int        `json:"order_item_rows"`
	CleanedRows    int        `json:"cleaned_rows"`
	EncodedRows    int        `json:"encoded_rows"`
	EncodedColumns int        `json:"encoded_columns"`
	Error          string     `json:"error,omitempty"`
	StartedAt      time.Time  `json:"started_at"`
	FinishedAt     *time.Time `json:"finished_at"`
}

// RedisKeyLastRun - ключ сводки последнего прогона
const RedisKeyLastRun = "pipeline:last_run"
