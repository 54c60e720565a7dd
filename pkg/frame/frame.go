package frame

import (
	"fmt"
	"math"
	"sort"
	"time"
)

// Kind определяет семантический тип колонки
type Kind int

const (
	KindFloat Kind = iota // числовая колонка (float64)
	KindString
	KindTime
)

func (k Kind) String() string {
	switch k {
	case KindFloat:
		return "float"
	case KindString:
		return "string"
	case KindTime:
		return "time"
	default:
		return "unknown"
	}
}

// Column - одна именованная колонка таблицы.
// Значения хранятся в слайсе соответствующего типа, Valid отмечает не-null ячейки.
type Column struct {
	Name    string
	Kind    Kind
	Floats  []float64
	Strings []string
	Times   []time.Time
	Valid   []bool
}

// NewFloatColumn создает числовую колонку.
// valid == nil означает, что все значения присутствуют.
func NewFloatColumn(name string, values []float64, valid []bool) *Column {
	if valid == nil {
		valid = allValid(len(values))
	}
	return &Column{Name: name, Kind: KindFloat, Floats: values, Valid: valid}
}

// NewStringColumn создает строковую колонку
func NewStringColumn(name string, values []string, valid []bool) *Column {
	if valid == nil {
		valid = allValid(len(values))
	}
	return &Column{Name: name, Kind: KindString, Strings: values, Valid: valid}
}

// NewTimeColumn создает колонку временных меток
func NewTimeColumn(name string, values []time.Time, valid []bool) *Column {
	if valid == nil {
		valid = allValid(len(values))
	}
	return &Column{Name: name, Kind: KindTime, Times: values, Valid: valid}
}

func allValid(n int) []bool {
	v := make([]bool, n)
	for i := range v {
		v[i] = true
	}
	return v
}

// Len возвращает количество значений в колонке
func (c *Column) Len() int {
	return len(c.Valid)
}

// IsNull проверяет отсутствует ли значение в строке i.
// NaN в числовой колонке считается отсутствующим значением;
// +Inf и -Inf остаются обычными числами.
func (c *Column) IsNull(i int) bool {
	if !c.Valid[i] {
		return true
	}
	return c.Kind == KindFloat && math.IsNaN(c.Floats[i])
}

// NullCount возвращает количество null значений в колонке
func (c *Column) NullCount() int {
	n := 0
	for i := range c.Valid {
		if c.IsNull(i) {
			n++
		}
	}
	return n
}

// take строит новую колонку из подмножества строк
func (c *Column) take(rows []int) *Column {
	out := &Column{Name: c.Name, Kind: c.Kind, Valid: make([]bool, len(rows))}
	switch c.Kind {
	case KindFloat:
		out.Floats = make([]float64, len(rows))
		for j, i := range rows {
			out.Floats[j] = c.Floats[i]
			out.Valid[j] = c.Valid[i]
		}
	case KindString:
		out.Strings = make([]string, len(rows))
		for j, i := range rows {
			out.Strings[j] = c.Strings[i]
			out.Valid[j] = c.Valid[i]
		}
	case KindTime:
		out.Times = make([]time.Time, len(rows))
		for j, i := range rows {
			out.Times[j] = c.Times[i]
			out.Valid[j] = c.Valid[i]
		}
	}
	return out
}

// clone делает глубокую копию колонки
func (c *Column) clone() *Column {
	out := &Column{Name: c.Name, Kind: c.Kind, Valid: append([]bool(nil), c.Valid...)}
	out.Floats = append([]float64(nil), c.Floats...)
	out.Strings = append([]string(nil), c.Strings...)
	out.Times = append([]time.Time(nil), c.Times...)
	return out
}

// Frame - колоночная таблица с упорядоченным набором именованных колонок.
// Стадии конвейера не мутируют входной Frame: все операции возвращают новый.
type Frame struct {
	cols   []*Column
	byName map[string]*Column
	index  []string // метки строк после SetIndex, nil если индекс не задан
}

// New создает пустой Frame
func New() *Frame {
	return &Frame{byName: make(map[string]*Column)}
}

// AddColumn добавляет колонку в конец таблицы.
// Длина колонки должна совпадать с уже добавленными, имя должно быть уникальным.
func (f *Frame) AddColumn(c *Column) error {
	if _, ok := f.byName[c.Name]; ok {
		return fmt.Errorf("frame: duplicate column %q", c.Name)
	}
	if len(f.cols) > 0 && c.Len() != f.NumRows() {
		return fmt.Errorf("frame: column %q has %d rows, frame has %d", c.Name, c.Len(), f.NumRows())
	}
	f.cols = append(f.cols, c)
	f.byName[c.Name] = c
	return nil
}

// NumRows возвращает количество строк
func (f *Frame) NumRows() int {
	if len(f.cols) == 0 {
		return 0
	}
	return f.cols[0].Len()
}

// NumCols возвращает количество колонок
func (f *Frame) NumCols() int {
	return len(f.cols)
}

// ColumnNames возвращает имена колонок в порядке добавления
func (f *Frame) ColumnNames() []string {
	names := make([]string, len(f.cols))
	for i, c := range f.cols {
		names[i] = c.Name
	}
	return names
}

// Col возвращает колонку по имени
func (f *Frame) Col(name string) (*Column, bool) {
	c, ok := f.byName[name]
	return c, ok
}

// Has проверяет наличие колонки
func (f *Frame) Has(name string) bool {
	_, ok := f.byName[name]
	return ok
}

// Index возвращает метки строк (nil, если SetIndex не вызывался)
func (f *Frame) Index() []string {
	return f.index
}

// Filter возвращает новый Frame только со строками, для которых keep(i) == true
func (f *Frame) Filter(keep func(row int) bool) *Frame {
	var rows []int
	for i := 0; i < f.NumRows(); i++ {
		if keep(i) {
			rows = append(rows, i)
		}
	}
	return f.takeRows(rows)
}

func (f *Frame) takeRows(rows []int) *Frame {
	out := New()
	for _, c := range f.cols {
		// ошибки невозможны: имена уникальны, длины согласованы
		_ = out.AddColumn(c.take(rows))
	}
	if f.index != nil {
		out.index = make([]string, len(rows))
		for j, i := range rows {
			out.index[j] = f.index[i]
		}
	}
	return out
}

// Drop возвращает новый Frame без перечисленных колонок.
// Имена, которых нет в таблице, игнорируются.
func (f *Frame) Drop(names ...string) *Frame {
	dropped := make(map[string]struct{}, len(names))
	for _, n := range names {
		dropped[n] = struct{}{}
	}
	out := New()
	for _, c := range f.cols {
		if _, ok := dropped[c.Name]; ok {
			continue
		}
		_ = out.AddColumn(c)
	}
	out.index = f.index
	return out
}

// DropNullRows возвращает новый Frame без строк, содержащих хотя бы один null
func (f *Frame) DropNullRows() *Frame {
	return f.Filter(func(i int) bool {
		for _, c := range f.cols {
			if c.IsNull(i) {
				return false
			}
		}
		return true
	})
}

// NullCounts возвращает количество null значений по каждой колонке
func (f *Frame) NullCounts() map[string]int {
	counts := make(map[string]int, len(f.cols))
	for _, c := range f.cols {
		counts[c.Name] = c.NullCount()
	}
	return counts
}

// TotalNulls возвращает суммарное количество null значений в таблице
func (f *Frame) TotalNulls() int {
	total := 0
	for _, c := range f.cols {
		total += c.NullCount()
	}
	return total
}

// SetIndex переносит строковую колонку в индекс строк.
// Колонка перестает быть признаком и исключается из набора колонок.
func (f *Frame) SetIndex(name string) (*Frame, error) {
	c, ok := f.byName[name]
	if !ok {
		return nil, fmt.Errorf("frame: index column %q not found", name)
	}
	if c.Kind != KindString {
		return nil, fmt.Errorf("frame: index column %q must be string, got %s", name, c.Kind)
	}
	for i := 0; i < c.Len(); i++ {
		if c.IsNull(i) {
			return nil, fmt.Errorf("frame: index column %q contains null at row %d", name, i)
		}
	}
	out := f.Drop(name)
	out.index = append([]string(nil), c.Strings...)
	return out, nil
}

// Clone делает глубокую копию таблицы
func (f *Frame) Clone() *Frame {
	out := New()
	for _, c := range f.cols {
		_ = out.AddColumn(c.clone())
	}
	out.index = append([]string(nil), f.index...)
	if f.index == nil {
		out.index = nil
	}
	return out
}

// DistinctStrings возвращает отсортированный список различных не-null значений
// строковой колонки. Используется при one-hot кодировании.
func (f *Frame) DistinctStrings(name string) ([]string, error) {
	c, ok := f.byName[name]
	if !ok {
		return nil, fmt.Errorf("frame: column %q not found", name)
	}
	if c.Kind != KindString {
		return nil, fmt.Errorf("frame: column %q is not string", name)
	}
	seen := make(map[string]struct{})
	var values []string
	for i := 0; i < c.Len(); i++ {
		if c.IsNull(i) {
			continue
		}
		if _, ok := seen[c.Strings[i]]; !ok {
			seen[c.Strings[i]] = struct{}{}
			values = append(values, c.Strings[i])
		}
	}
	sort.Strings(values)
	return values, nil
}
