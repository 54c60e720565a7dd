package service

import (
	"errors"
	"fmt"

	"satisfaction/pipeline-service/internal/app/pipeline/entity"
	"satisfaction/pkg/logger"
)

// ErrDuplicateJoinKey - ключ правой таблицы задублирован там, где
// предполагалась уникальность. Такой join размножил бы строки и нарушил
// инвариант |result| == |order items|, поэтому ошибка фатальна.
var ErrDuplicateJoinKey = errors.New("duplicate join key")

// JoinService строит консолидированную таблицу: одна строка на order-item
// c атрибутами товара, продавца, заказа, агрегированных платежей,
// отзыва, покупателя и укрупнённой категории
type JoinService struct{}

// NewJoinService создает сервис join'ов
func NewJoinService() *JoinService {
	return &JoinService{}
}

// Consolidate выполняет фиксированную последовательность left-join'ов.
// Отсутствие соответствия справа даёт nil (все колонки сущности - null).
// Гарантия: len(result) == len(ds.OrderItems).
func (s *JoinService) Consolidate(
	ds *entity.Dataset,
	payments []entity.PaymentSummary,
	reviews []entity.Review,
) ([]entity.ConsolidatedRow, error) {
	log := logger.Component("join_service")

	productIdx, err := indexProducts(ds.Products)
	if err != nil {
		return nil, err
	}
	sellerIdx, err := indexSellers(ds.Sellers)
	if err != nil {
		return nil, err
	}
	orderIdx, err := indexOrders(ds.Orders)
	if err != nil {
		return nil, err
	}
	customerIdx, err := indexCustomers(ds.Customers)
	if err != nil {
		return nil, err
	}
	paymentIdx, err := indexPayments(payments)
	if err != nil {
		return nil, err
	}
	reviewIdx, err := indexReviews(reviews)
	if err != nil {
		return nil, err
	}
	categoryIdx, err := indexCategories(ds.Categories)
	if err != nil {
		return nil, err
	}

	rows := make([]entity.ConsolidatedRow, 0, len(ds.OrderItems))
	for _, item := range ds.OrderItems {
		row := entity.ConsolidatedRow{Item: item}

		// 1. order items x products
		row.Product = productIdx[item.ProductID]
		// 2. x sellers
		row.Seller = sellerIdx[item.SellerID]
		// 3. x orders
		row.Order = orderIdx[item.OrderID]
		// 4. x агрегированные платежи
		row.Payment = paymentIdx[item.OrderID]
		// 5. x дедуплицированные отзывы
		row.Review = reviewIdx[item.OrderID]
		// 6. x customers (по customer_id заказа)
		if row.Order != nil {
			row.Customer = customerIdx[row.Order.CustomerID]
		}
		// 7. x укрупнённые категории (null имя категории -> null категория)
		if row.Product != nil && row.Product.CategoryName != nil {
			row.Refinement = categoryIdx[*row.Product.CategoryName]
		}

		rows = append(rows, row)
	}

	// Инвариант Join Engine: left-join не теряет и не размножает строки
	if len(rows) != len(ds.OrderItems) {
		return nil, fmt.Errorf("join invariant violated: %d rows from %d order items", len(rows), len(ds.OrderItems))
	}

	log.Info().
		Int("order_items", len(ds.OrderItems)).
		Int("consolidated_rows", len(rows)).
		Msg("tables consolidated")

	return rows, nil
}

func indexProducts(products []entity.Product) (map[string]*entity.Product, error) {
	idx := make(map[string]*entity.Product, len(products))
	for i := range products {
		if _, ok := idx[products[i].ProductID]; ok {
			return nil, fmt.Errorf("%w: products.product_id=%q", ErrDuplicateJoinKey, products[i].ProductID)
		}
		idx[products[i].ProductID] = &products[i]
	}
	return idx, nil
}

func indexSellers(sellers []entity.Seller) (map[string]*entity.Seller, error) {
	idx := make(map[string]*entity.Seller, len(sellers))
	for i := range sellers {
		if _, ok := idx[sellers[i].SellerID]; ok {
			return nil, fmt.Errorf("%w: sellers.seller_id=%q", ErrDuplicateJoinKey, sellers[i].SellerID)
		}
		idx[sellers[i].SellerID] = &sellers[i]
	}
	return idx, nil
}

func indexOrders(orders []entity.Order) (map[string]*entity.Order, error) {
	idx := make(map[string]*entity.Order, len(orders))
	for i := range orders {
		if _, ok := idx[orders[i].OrderID]; ok {
			return nil, fmt.Errorf("%w: orders.order_id=%q", ErrDuplicateJoinKey, orders[i].OrderID)
		}
		idx[orders[i].OrderID] = &orders[i]
	}
	return idx, nil
}

func indexCustomers(customers []entity.Customer) (map[string]*entity.Customer, error) {
	idx := make(map[string]*entity.Customer, len(customers))
	for i := range customers {
		if _, ok := idx[customers[i].CustomerID]; ok {
			return nil, fmt.Errorf("%w: customers.customer_id=%q", ErrDuplicateJoinKey, customers[i].CustomerID)
		}
		idx[customers[i].CustomerID] = &customers[i]
	}
	return idx, nil
}

func indexPayments(payments []entity.PaymentSummary) (map[string]*entity.PaymentSummary, error) {
	idx := make(map[string]*entity.PaymentSummary, len(payments))
	for i := range payments {
		if _, ok := idx[payments[i].OrderID]; ok {
			return nil, fmt.Errorf("%w: aggregated payments.order_id=%q", ErrDuplicateJoinKey, payments[i].OrderID)
		}
		idx[payments[i].OrderID] = &payments[i]
	}
	return idx, nil
}

func indexReviews(reviews []entity.Review) (map[string]*entity.Review, error) {
	idx := make(map[string]*entity.Review, len(reviews))
	for i := range reviews {
		if _, ok := idx[reviews[i].OrderID]; ok {
			return nil, fmt.Errorf("%w: deduplicated reviews.order_id=%q", ErrDuplicateJoinKey, reviews[i].OrderID)
		}
		idx[reviews[i].OrderID] = &reviews[i]
	}
	return idx, nil
}

func indexCategories(categories []entity.CategoryRefinement) (map[string]*entity.CategoryRefinement, error) {
	idx := make(map[string]*entity.CategoryRefinement, len(categories))
	for i := range categories {
		if _, ok := idx[categories[i].CategoryName]; ok {
			return nil, fmt.Errorf("%w: refined categories.product_category_name=%q", ErrDuplicateJoinKey, categories[i].CategoryName)
		}
		idx[categories[i].CategoryName] = &categories[i]
	}
	return idx, nil
}
