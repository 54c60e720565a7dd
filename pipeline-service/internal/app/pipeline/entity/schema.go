package entity

// Схемы сырых таблиц: обязательные колонки каждого CSV файла.
// Отсутствие любой из них - фатальная ошибка схемы до запуска стадий.

var CustomersSchema = []string{
	"customer_id", "customer_unique_id", "customer_zip_code_prefix",
	"customer_city", "customer_state",
}

var GeolocationSchema = []string{
	"geolocation_zip_code_prefix", "geolocation_lat", "geolocation_lng",
	"geolocation_city", "geolocation_state",
}

var OrderItemsSchema = []string{
	"order_id", "order_item_id", "product_id", "seller_id",
	"shipping_limit_date", "price", "freight_value",
}

var PaymentsSchema = []string{
	"order_id", "payment_sequential", "payment_type",
	"payment_installments", "payment_value",
}

var ReviewsSchema = []string{
	"review_id", "order_id", "review_score", "review_comment_title",
	"review_comment_message", "review_creation_date", "review_answer_timestamp",
}

var OrdersSchema = []string{
	"order_id", "customer_id", "order_status", "order_purchase_timestamp",
	"order_approved_at", "order_delivered_carrier_date",
	"order_delivered_customer_date", "order_estimated_delivery_date",
}

var ProductsSchema = []string{
	"product_id", "product_category_name", "product_name_lenght",
	"product_description_lenght", "product_photos_qty", "product_weight_g",
	"product_length_cm", "product_height_cm", "product_width_cm",
}

var SellersSchema = []string{
	"seller_id", "seller_zip_code_prefix", "seller_city", "seller_state",
}

var TranslationsSchema = []string{
	"product_category_name", "product_category_name_english",
}

var CategoriesSchema = []string{
	"product_category_name", "product_category_name_english", "Category",
}
