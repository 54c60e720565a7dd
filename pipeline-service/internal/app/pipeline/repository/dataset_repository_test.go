package repository

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"satisfaction/pipeline-service/internal/app/pipeline/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeCSV(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0644))
}

// writeDataset пишет все десять таблиц минимального датасета во временный каталог
func writeDataset(t *testing.T) config.DatasetConfig {
	t.Helper()
	dir := t.TempDir()

	writeCSV(t, dir, "customers.csv",
		"customer_id,customer_unique_id,customer_zip_code_prefix,customer_city,customer_state\n"+
			"c1,u1,01000,sao paulo,SP\n")
	writeCSV(t, dir, "geolocation.csv",
		"geolocation_zip_code_prefix,geolocation_lat,geolocation_lng,geolocation_city,geolocation_state\n"+
			"01000,-23.55,-46.63,sao paulo,SP\n")
	writeCSV(t, dir, "order_items.csv",
		"order_id,order_item_id,product_id,seller_id,shipping_limit_date,price,freight_value\n"+
			"o1,1,p1,s1,2018-03-05 12:00:00,100.50,15.10\n")
	writeCSV(t, dir, "payments.csv",
		"order_id,payment_sequential,payment_type,payment_installments,payment_value\n"+
			"o1,1,credit_card,3,115.60\n")
	writeCSV(t, dir, "reviews.csv",
		"review_id,order_id,review_score,review_comment_title,review_comment_message,review_creation_date,review_answer_timestamp\n"+
			"r1,o1,5,,,2018-03-10 00:00:00,2018-03-12 08:30:00\n")
	writeCSV(t, dir, "orders.csv",
		"order_id,customer_id,order_status,order_purchase_timestamp,order_approved_at,order_delivered_carrier_date,order_delivered_customer_date,order_estimated_delivery_date\n"+
			"o1,c1,delivered,2018-03-01 10:00:00,2018-03-01 12:00:00,2018-03-03 09:00:00,2018-03-08 14:00:00,2018-03-15 00:00:00\n")
	writeCSV(t, dir, "products.csv",
		"product_id,product_category_name,product_name_lenght,product_description_lenght,product_photos_qty,product_weight_g,product_length_cm,product_height_cm,product_width_cm\n"+
			"p1,informatica_acessorios,42,300,3,500,20,10,15\n")
	writeCSV(t, dir, "sellers.csv",
		"seller_id,seller_zip_code_prefix,seller_city,seller_state\n"+
			"s1,02000,campinas,SP\n")
	writeCSV(t, dir, "translations.csv",
		"product_category_name,product_category_name_english\n"+
			"informatica_acessorios,computers_accessories\n")
	writeCSV(t, dir, "categories.csv",
		"product_category_name,product_category_name_english,Category\n"+
			"informatica_acessorios,computers_accessories,Electronics\n")

	return config.DatasetConfig{
		Dir:              dir,
		CustomersFile:    "customers.csv",
		GeolocationFile:  "geolocation.csv",
		OrderItemsFile:   "order_items.csv",
		PaymentsFile:     "payments.csv",
		ReviewsFile:      "reviews.csv",
		OrdersFile:       "orders.csv",
		ProductsFile:     "products.csv",
		SellersFile:      "sellers.csv",
		TranslationsFile: "translations.csv",
		CategoriesFile:   "categories.csv",
	}
}

// ===================== Load Tests =====================

func TestDatasetRepository_Load_Success(t *testing.T) {
	// Arrange
	repo := NewDatasetRepository(writeDataset(t))

	// Act
	ds, err := repo.Load(context.Background())

	// Assert
	require.NoError(t, err)
	require.Len(t, ds.Customers, 1)
	require.Len(t, ds.OrderItems, 1)
	require.Len(t, ds.Payments, 1)
	require.Len(t, ds.Reviews, 1)
	require.Len(t, ds.Orders, 1)
	require.Len(t, ds.Products, 1)
	require.Len(t, ds.Sellers, 1)
	require.Len(t, ds.Translations, 1)
	require.Len(t, ds.Categories, 1)

	item := ds.OrderItems[0]
	assert.Equal(t, "o1", item.OrderID)
	require.NotNil(t, item.Price)
	assert.Equal(t, 100.50, *item.Price)
	require.NotNil(t, item.ShippingLimitDate)

	order := ds.Orders[0]
	assert.Equal(t, "delivered", order.Status)
	require.NotNil(t, order.PurchaseTimestamp)
	require.NotNil(t, order.EstimatedDeliveryDate)

	cat := ds.Categories[0]
	require.NotNil(t, cat.Category)
	assert.Equal(t, "Electronics", *cat.Category)
}

func TestDatasetRepository_Load_MissingFile(t *testing.T) {
	// Arrange
	cfg := writeDataset(t)
	cfg.OrdersFile = "no_such_file.csv"
	repo := NewDatasetRepository(cfg)

	// Act
	_, err := repo.Load(context.Background())

	// Assert
	assert.Error(t, err)
}

func TestDatasetRepository_Load_MissingColumnIsSchemaFault(t *testing.T) {
	// Arrange - в orders нет order_status
	cfg := writeDataset(t)
	writeCSV(t, cfg.Dir, cfg.OrdersFile,
		"order_id,customer_id,order_purchase_timestamp,order_approved_at,order_delivered_carrier_date,order_delivered_customer_date,order_estimated_delivery_date\n"+
			"o1,c1,2018-03-01 10:00:00,,,,\n")
	repo := NewDatasetRepository(cfg)

	// Act
	_, err := repo.Load(context.Background())

	// Assert - ошибка схемы фатальна
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrSchemaFault)
}

func TestDatasetRepository_Load_UnparsableValuesBecomeNull(t *testing.T) {
	// Arrange - мусор в числе и в дате
	cfg := writeDataset(t)
	writeCSV(t, cfg.Dir, cfg.OrderItemsFile,
		"order_id,order_item_id,product_id,seller_id,shipping_limit_date,price,freight_value\n"+
			"o1,1,p1,s1,not-a-date,not-a-number,15.10\n")
	repo := NewDatasetRepository(cfg)

	// Act
	ds, err := repo.Load(context.Background())

	// Assert - строка загружена, битые значения null
	require.NoError(t, err)
	require.Len(t, ds.OrderItems, 1)
	assert.Nil(t, ds.OrderItems[0].Price)
	assert.Nil(t, ds.OrderItems[0].ShippingLimitDate)
	require.NotNil(t, ds.OrderItems[0].FreightValue)
}

func TestDatasetRepository_Load_EmptyValuesBecomeNull(t *testing.T) {
	// Arrange - пустые временные метки заказа
	cfg := writeDataset(t)
	writeCSV(t, cfg.Dir, cfg.OrdersFile,
		"order_id,customer_id,order_status,order_purchase_timestamp,order_approved_at,order_delivered_carrier_date,order_delivered_customer_date,order_estimated_delivery_date\n"+
			"o1,c1,shipped,2018-03-01 10:00:00,,,,\n")
	repo := NewDatasetRepository(cfg)

	// Act
	ds, err := repo.Load(context.Background())

	// Assert
	require.NoError(t, err)
	order := ds.Orders[0]
	require.NotNil(t, order.PurchaseTimestamp)
	assert.Nil(t, order.ApprovedAt)
	assert.Nil(t, order.DeliveredCustomerDate)
}

func TestDatasetRepository_Load_EmptyCommentsAreNull(t *testing.T) {
	// Arrange
	repo := NewDatasetRepository(writeDataset(t))

	// Act
	ds, err := repo.Load(context.Background())

	// Assert
	require.NoError(t, err)
	assert.Nil(t, ds.Reviews[0].CommentTitle)
	assert.Nil(t, ds.Reviews[0].CommentMessage)
}

func TestDatasetRepository_Load_ExtraColumnsIgnored(t *testing.T) {
	// Arrange - лишняя колонка не мешает загрузке
	cfg := writeDataset(t)
	writeCSV(t, cfg.Dir, cfg.SellersFile,
		"seller_id,seller_zip_code_prefix,seller_city,seller_state,extra_column\n"+
			"s1,02000,campinas,SP,whatever\n")
	repo := NewDatasetRepository(cfg)

	// Act
	ds, err := repo.Load(context.Background())

	// Assert
	require.NoError(t, err)
	require.Len(t, ds.Sellers, 1)
	assert.Equal(t, "SP", ds.Sellers[0].State)
}

func TestDatasetRepository_Load_CancelledContext(t *testing.T) {
	// Arrange
	repo := NewDatasetRepository(writeDataset(t))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	// Act
	_, err := repo.Load(ctx)

	// Assert
	assert.ErrorIs(t, err, context.Canceled)
}
