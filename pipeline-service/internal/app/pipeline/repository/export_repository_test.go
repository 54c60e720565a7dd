package repository

import (
	"path/filepath"
	"testing"

	"satisfaction/pkg/frame"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

// ===================== ExportCleaned Tests =====================

func TestXLSXExporter_ExportCleaned_WritesHeadersAndValues(t *testing.T) {
	// Arrange
	f := frame.New()
	require.NoError(t, f.AddColumn(frame.NewStringColumn("order_id_product_id", []string{"o1-p1", "o2-p2"}, nil)))
	require.NoError(t, f.AddColumn(frame.NewFloatColumn("price", []float64{100.5, 50}, nil)))

	path := filepath.Join(t.TempDir(), "Final_database.xlsx")
	exporter := NewXLSXExporter()

	// Act
	err := exporter.ExportCleaned(f, path)

	// Assert - файл открывается и содержит заголовки и данные
	require.NoError(t, err)

	file, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer file.Close()

	header1, err := file.GetCellValue("Sheet1", "A1")
	require.NoError(t, err)
	assert.Equal(t, "order_id_product_id", header1)

	header2, err := file.GetCellValue("Sheet1", "B1")
	require.NoError(t, err)
	assert.Equal(t, "price", header2)

	key, err := file.GetCellValue("Sheet1", "A2")
	require.NoError(t, err)
	assert.Equal(t, "o1-p1", key)

	price, err := file.GetCellValue("Sheet1", "B2")
	require.NoError(t, err)
	assert.Equal(t, "100.5", price)
}

func TestXLSXExporter_ExportCleaned_NullCellsStayEmpty(t *testing.T) {
	// Arrange
	f := frame.New()
	require.NoError(t, f.AddColumn(frame.NewFloatColumn("price", []float64{10, 0}, []bool{true, false})))

	path := filepath.Join(t.TempDir(), "out.xlsx")
	exporter := NewXLSXExporter()

	// Act
	err := exporter.ExportCleaned(f, path)

	// Assert
	require.NoError(t, err)

	file, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer file.Close()

	empty, err := file.GetCellValue("Sheet1", "A3")
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestXLSXExporter_ExportCleaned_BadPath(t *testing.T) {
	// Arrange
	f := frame.New()
	require.NoError(t, f.AddColumn(frame.NewFloatColumn("price", []float64{10}, nil)))
	exporter := NewXLSXExporter()

	// Act - каталога не существует
	err := exporter.ExportCleaned(f, "/no/such/dir/out.xlsx")

	// Assert
	assert.Error(t, err)
}
