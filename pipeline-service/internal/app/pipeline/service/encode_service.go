package service

import (
	"fmt"
	"math"

	"satisfaction/pkg/frame"
	"satisfaction/pkg/logger"
)

// StandardizedColumns - числовые признаки, приводимые к нулевому среднему
// и единичной дисперсии
var StandardizedColumns = []string{
	"price",
	"freight_value",
	"product_description_lenght",
	"product_photos_qty",
	"diff_approved_purchased",
	"diff_customerdelivered_estimated",
	"diff_customerdelivered_deliveredcarrier",
	"diff_customerdelivered_purchase",
	"diff_deliveredcarrier_purchase",
	"diff_approved_purchased_wd",
	"diff_customerdelivered_deliveredcarrier_wd",
	"diff_customerdelivered_purchase_wd",
	"diff_deliveredcarrier_purchase_wd",
	"payment_type_count",
	"product_payment_value",
	"diff_review_creation_answer_days",
	"product_name_lenght",
	"total_purchase_count",
}

// Категориальные колонки one-hot кодирования и их префиксы
var oneHotColumns = []struct {
	column string
	prefix string
}{
	{"Category", "type"},
	{"customer_state", "cs_type"},
	{"seller_state", "ss_type"},
}

// Колонка целевой метки и порог бинаризации: оценка выше 3 - "доволен"
const (
	labelColumn    = "review_score"
	labelThreshold = 3
	indexColumn    = "order_id_product_id"
)

// EncodeService превращает очищенную таблицу в полностью числовую:
// стандартизация числовых признаков, one-hot категориальных,
// бинаризация метки и установка индекса строк
type EncodeService struct{}

// NewEncodeService создает сервис кодирования
func NewEncodeService() *EncodeService {
	return &EncodeService{}
}

// Encode выполняет четыре шага кодирования по порядку.
// Вход должен быть complete-case: любой null - фатальная ошибка
// конфигурации очистки.
func (s *EncodeService) Encode(f *frame.Frame) (*frame.Frame, error) {
	log := logger.Component("encode_service")

	if total := f.TotalNulls(); total > 0 {
		return nil, fmt.Errorf("%w: %d nulls reached the encoder", ErrResidualNulls, total)
	}

	// 1. Стандартизация: среднее и дисперсия считаются по всей таблице
	out, err := standardize(f, StandardizedColumns)
	if err != nil {
		return nil, err
	}

	// 2. One-hot: по одной индикаторной колонке на наблюдаемое значение
	for _, oh := range oneHotColumns {
		out, err = oneHot(out, oh.column, oh.prefix)
		if err != nil {
			return nil, err
		}
	}

	// 3. Бинаризация метки
	out, err = binarizeLabel(out)
	if err != nil {
		return nil, err
	}

	// 4. Составной ключ становится индексом строк и перестаёт быть признаком
	out, err = out.SetIndex(indexColumn)
	if err != nil {
		return nil, fmt.Errorf("encode: %w", err)
	}

	log.Info().
		Int("rows", out.NumRows()).
		Int("columns", out.NumCols()).
		Msg("table encoded")

	return out, nil
}

// standardize приводит перечисленные колонки к нулевому среднему и
// единичной дисперсии (дисперсия по всей выборке). Колонка с нулевой
// дисперсией остаётся центрированной без масштабирования.
func standardize(f *frame.Frame, columns []string) (*frame.Frame, error) {
	out := f.Clone()
	for _, name := range columns {
		col, ok := out.Col(name)
		if !ok {
			return nil, fmt.Errorf("standardize: column %q not found", name)
		}
		if col.Kind != frame.KindFloat {
			return nil, fmt.Errorf("standardize: column %q is not numeric", name)
		}

		n := float64(col.Len())
		if n == 0 {
			continue
		}

		var sum float64
		for _, v := range col.Floats {
			sum += v
		}
		mean := sum / n

		var variance float64
		for _, v := range col.Floats {
			d := v - mean
			variance += d * d
		}
		variance /= n

		std := math.Sqrt(variance)
		if std == 0 {
			std = 1
		}

		for i, v := range col.Floats {
			col.Floats[i] = (v - mean) / std
		}
	}
	return out, nil
}

// oneHot заменяет строковую колонку набором индикаторных колонок
// prefix_value по отсортированным наблюдаемым значениям
func oneHot(f *frame.Frame, column, prefix string) (*frame.Frame, error) {
	col, ok := f.Col(column)
	if !ok {
		return nil, fmt.Errorf("one-hot: column %q not found", column)
	}
	if col.Kind != frame.KindString {
		return nil, fmt.Errorf("one-hot: column %q is not categorical", column)
	}

	values, err := f.DistinctStrings(column)
	if err != nil {
		return nil, err
	}

	out := f.Drop(column)
	for _, value := range values {
		indicators := make([]float64, col.Len())
		for i := 0; i < col.Len(); i++ {
			if !col.IsNull(i) && col.Strings[i] == value {
				indicators[i] = 1
			}
		}
		if err := out.AddColumn(frame.NewFloatColumn(prefix+"_"+value, indicators, nil)); err != nil {
			return nil, fmt.Errorf("one-hot: %w", err)
		}
	}

	return out, nil
}

// binarizeLabel переводит review_score в бинарную метку satisfied (> 3 -> 1)
func binarizeLabel(f *frame.Frame) (*frame.Frame, error) {
	col, ok := f.Col(labelColumn)
	if !ok {
		return nil, fmt.Errorf("binarize: column %q not found", labelColumn)
	}
	if col.Kind != frame.KindFloat {
		return nil, fmt.Errorf("binarize: column %q is not numeric", labelColumn)
	}

	out := f.Clone()
	labels, _ := out.Col(labelColumn)
	for i, v := range labels.Floats {
		if v > labelThreshold {
			labels.Floats[i] = 1
		} else {
			labels.Floats[i] = 0
		}
	}

	return out, nil
}
