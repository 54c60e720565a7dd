package repository

import (
	"fmt"

	"satisfaction/pkg/frame"
	"satisfaction/pkg/logger"

	"github.com/xuri/excelize/v2"
)

// Формат временных меток в экспортируемом файле
const exportTimeLayout = "2006-01-02 15:04:05"

// xlsxExporter записывает очищенную таблицу в XLSX файл
type xlsxExporter struct{}

// NewXLSXExporter создает экспортер XLSX артефактов
func NewXLSXExporter() ArtifactExporter {
	return &xlsxExporter{}
}

// ExportCleaned записывает таблицу в XLSX: первая строка - заголовки,
// дальше значения колонок в порядке таблицы. null ячейки остаются пустыми.
func (e *xlsxExporter) ExportCleaned(f *frame.Frame, path string) error {
	log := logger.Component("xlsx_exporter")

	file := excelize.NewFile()
	defer file.Close()

	const sheet = "Sheet1"

	names := f.ColumnNames()

	// Заголовки
	for colIdx, name := range names {
		cell, err := excelize.CoordinatesToCellName(colIdx+1, 1)
		if err != nil {
			return fmt.Errorf("failed to build header cell: %w", err)
		}
		if err := file.SetCellValue(sheet, cell, name); err != nil {
			return fmt.Errorf("failed to set header %q: %w", name, err)
		}
	}

	// Данные
	for colIdx, name := range names {
		col, _ := f.Col(name)
		for row := 0; row < f.NumRows(); row++ {
			if col.IsNull(row) {
				continue
			}
			cell, err := excelize.CoordinatesToCellName(colIdx+1, row+2)
			if err != nil {
				return fmt.Errorf("failed to build cell: %w", err)
			}

			var value interface{}
			switch col.Kind {
			case frame.KindFloat:
				value = col.Floats[row]
			case frame.KindString:
				value = col.Strings[row]
			case frame.KindTime:
				value = col.Times[row].Format(exportTimeLayout)
			}

			if err := file.SetCellValue(sheet, cell, value); err != nil {
				return fmt.Errorf("failed to set cell %s: %w", cell, err)
			}
		}
	}

	if err := file.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save xlsx to %s: %w", path, err)
	}

	log.Info().
		Str("path", path).
		Int("rows", f.NumRows()).
		Int("columns", f.NumCols()).
		Msg("cleaned table exported")

	return nil
}
