package repository

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"satisfaction/pipeline-service/internal/app/pipeline/config"
	"satisfaction/pipeline-service/internal/app/pipeline/entity"

	"satisfaction/pkg/logger"
)

// ErrSchemaFault - в загруженной таблице отсутствует обязательная колонка.
// Фатальная ошибка: конвейер не стартует.
var ErrSchemaFault = errors.New("dataset schema fault")

// Формат временных меток датасета
const timestampLayout = "2006-01-02 15:04:05"

// datasetRepository читает CSV файлы датасета.
// Ошибки схемы фатальны, ошибки парсинга значений деградируют до null.
type datasetRepository struct {
	cfg config.DatasetConfig
}

// NewDatasetRepository создает репозиторий датасета
func NewDatasetRepository(cfg config.DatasetConfig) DatasetRepository {
	return &datasetRepository{cfg: cfg}
}

// Load читает все таблицы датасета
func (r *datasetRepository) Load(ctx context.Context) (*entity.Dataset, error) {
	log := logger.Component("dataset_repository")

	ds := &entity.Dataset{}

	type table struct {
		file   string
		schema []string
		parse  func(rec *record)
	}

	tables := []table{
		{r.cfg.CustomersFile, entity.CustomersSchema, func(rec *record) {
			ds.Customers = append(ds.Customers, entity.Customer{
				CustomerID:       rec.str("customer_id"),
				CustomerUniqueID: rec.str("customer_unique_id"),
				ZipCodePrefix:    rec.str("customer_zip_code_prefix"),
				City:             rec.str("customer_city"),
				State:            rec.str("customer_state"),
			})
		}},
		{r.cfg.GeolocationFile, entity.GeolocationSchema, func(rec *record) {
			ds.Geolocations = append(ds.Geolocations, entity.Geolocation{
				ZipCodePrefix: rec.str("geolocation_zip_code_prefix"),
				Lat:           rec.float("geolocation_lat"),
				Lng:           rec.float("geolocation_lng"),
				City:          rec.str("geolocation_city"),
				State:         rec.str("geolocation_state"),
			})
		}},
		{r.cfg.OrderItemsFile, entity.OrderItemsSchema, func(rec *record) {
			ds.OrderItems = append(ds.OrderItems, entity.OrderItem{
				OrderID:           rec.str("order_id"),
				OrderItemID:       rec.float("order_item_id"),
				ProductID:         rec.str("product_id"),
				SellerID:          rec.str("seller_id"),
				ShippingLimitDate: rec.timestamp("shipping_limit_date"),
				Price:             rec.float("price"),
				FreightValue:      rec.float("freight_value"),
			})
		}},
		{r.cfg.PaymentsFile, entity.PaymentsSchema, func(rec *record) {
			ds.Payments = append(ds.Payments, entity.Payment{
				OrderID:      rec.str("order_id"),
				Sequential:   rec.float("payment_sequential"),
				Type:         rec.str("payment_type"),
				Installments: rec.float("payment_installments"),
				Value:        rec.float("payment_value"),
			})
		}},
		{r.cfg.ReviewsFile, entity.ReviewsSchema, func(rec *record) {
			ds.Reviews = append(ds.Reviews, entity.Review{
				ReviewID:        rec.str("review_id"),
				OrderID:         rec.str("order_id"),
				Score:           rec.float("review_score"),
				CommentTitle:    rec.strPtr("review_comment_title"),
				CommentMessage:  rec.strPtr("review_comment_message"),
				CreationDate:    rec.timestamp("review_creation_date"),
				AnswerTimestamp: rec.timestamp("review_answer_timestamp"),
			})
		}},
		{r.cfg.OrdersFile, entity.OrdersSchema, func(rec *record) {
			ds.Orders = append(ds.Orders, entity.Order{
				OrderID:               rec.str("order_id"),
				CustomerID:            rec.str("customer_id"),
				Status:                rec.str("order_status"),
				PurchaseTimestamp:     rec.timestamp("order_purchase_timestamp"),
				ApprovedAt:            rec.timestamp("order_approved_at"),
				DeliveredCarrierDate:  rec.timestamp("order_delivered_carrier_date"),
				DeliveredCustomerDate: rec.timestamp("order_delivered_customer_date"),
				EstimatedDeliveryDate: rec.timestamp("order_estimated_delivery_date"),
			})
		}},
		{r.cfg.ProductsFile, entity.ProductsSchema, func(rec *record) {
			ds.Products = append(ds.Products, entity.Product{
				ProductID:         rec.str("product_id"),
				CategoryName:      rec.strPtr("product_category_name"),
				NameLength:        rec.float("product_name_lenght"),
				DescriptionLength: rec.float("product_description_lenght"),
				PhotosQty:         rec.float("product_photos_qty"),
				WeightG:           rec.float("product_weight_g"),
				LengthCm:          rec.float("product_length_cm"),
				HeightCm:          rec.float("product_height_cm"),
				WidthCm:           rec.float("product_width_cm"),
			})
		}},
		{r.cfg.SellersFile, entity.SellersSchema, func(rec *record) {
			ds.Sellers = append(ds.Sellers, entity.Seller{
				SellerID:      rec.str("seller_id"),
				ZipCodePrefix: rec.str("seller_zip_code_prefix"),
				City:          rec.str("seller_city"),
				State:         rec.str("seller_state"),
			})
		}},
		{r.cfg.TranslationsFile, entity.TranslationsSchema, func(rec *record) {
			ds.Translations = append(ds.Translations, entity.CategoryTranslation{
				CategoryName: rec.str("product_category_name"),
				English:      rec.str("product_category_name_english"),
			})
		}},
		{r.cfg.CategoriesFile, entity.CategoriesSchema, func(rec *record) {
			ds.Categories = append(ds.Categories, entity.CategoryRefinement{
				CategoryName: rec.str("product_category_name"),
				English:      rec.strPtr("product_category_name_english"),
				Category:     rec.strPtr("Category"),
			})
		}},
	}

	for _, t := range tables {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		path := filepath.Join(r.cfg.Dir, t.file)
		rows, err := readTable(path, t.schema, t.parse)
		if err != nil {
			return nil, err
		}
		log.Debug().Str("file", t.file).Int("rows", rows).Msg("table loaded")
	}

	log.Info().
		Int("customers", len(ds.Customers)).
		Int("order_items", len(ds.OrderItems)).
		Int("payments", len(ds.Payments)).
		Int("reviews", len(ds.Reviews)).
		Int("orders", len(ds.Orders)).
		Int("products", len(ds.Products)).
		Int("sellers", len(ds.Sellers)).
		Int("categories", len(ds.Categories)).
		Msg("dataset loaded")

	return ds, nil
}

// readTable читает один CSV файл, проверяет схему и парсит строки
func readTable(path string, schema []string, parse func(rec *record)) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1 // длину проверяем сами по заголовку

	header, err := reader.Read()
	if err != nil {
		return 0, fmt.Errorf("failed to read header of %s: %w", path, err)
	}

	idx := make(map[string]int, len(header))
	for i, name := range header {
		idx[strings.TrimSpace(name)] = i
	}

	// Проверка схемы: все обязательные колонки должны присутствовать
	for _, col := range schema {
		if _, ok := idx[col]; !ok {
			return 0, fmt.Errorf("%w: table %s missing column %q", ErrSchemaFault, filepath.Base(path), col)
		}
	}

	rec := &record{idx: idx}
	rows := 0
	for {
		fields, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return rows, fmt.Errorf("failed to read %s: %w", path, err)
		}
		rec.fields = fields
		parse(rec)
		rows++
	}

	return rows, nil
}

// record - одна CSV строка с доступом к полям по имени колонки.
// Нераспарсиваемые значения становятся nil, не ошибками.
type record struct {
	idx    map[string]int
	fields []string
}

func (r *record) raw(col string) (string, bool) {
	i, ok := r.idx[col]
	if !ok || i >= len(r.fields) {
		return "", false
	}
	return r.fields[i], true
}

// str возвращает строковое значение колонки ("" если отсутствует)
func (r *record) str(col string) string {
	v, _ := r.raw(col)
	return v
}

// strPtr возвращает nil для пустых значений
func (r *record) strPtr(col string) *string {
	v, ok := r.raw(col)
	if !ok || v == "" {
		return nil
	}
	return &v
}

// float парсит число; пустые и нераспарсиваемые значения -> nil
func (r *record) float(col string) *float64 {
	v, ok := r.raw(col)
	if !ok || v == "" {
		return nil
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
	if err != nil {
		return nil
	}
	return &f
}

// timestamp парсит временную метку; нераспарсиваемые значения -> nil
func (r *record) timestamp(col string) *time.Time {
	v, ok := r.raw(col)
	if !ok || v == "" {
		return nil
	}
	t, err := time.Parse(timestampLayout, strings.TrimSpace(v))
	if err != nil {
		return nil
	}
	return &t
}
