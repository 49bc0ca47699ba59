// Package common — helpers.go: форматирование дат по-русски.
package common

import (
	"fmt"
	"time"
)

// monthsGenitive — названия месяцев в родительном падеже
// для формата «1 января», «29 декабря».
var monthsGenitive = [...]string{
	"января", "февраля", "марта", "апреля", "мая", "июня",
	"июля", "августа", "сентября", "октября", "ноября", "декабря",
}

// FormatDayMonth форматирует дату как «1 января», «29 декабря».
// Используется при выводе списка пропущенных дней.
func FormatDayMonth(t time.Time) string {
	return fmt.Sprintf("%d %s", t.Day(), monthsGenitive[t.Month()-1])
}

// FormatDateTime форматирует время как «29.12.2025 14:05».
// Используется в статусе финального голосования.
func FormatDateTime(t time.Time) string {
	return t.Format("02.01.2006 15:04")
}
