// Package game — gap.go: анализ календарных пропусков.
// Все функции чистые: работают с днями года (1-366) и не читают часы.
// Анализ всегда ограничен одним годом — пропуски прошлого года
// не переносятся в новый.
package game

import "time"

// Severity — тяжесть пропуска, шесть уровней по длине разрыва в днях.
type Severity int

const (
	// SeverityNone — пропуска нет, сообщение не нужно
	SeverityNone Severity = iota
	// SeverityMild — 1 день
	SeverityMild
	// SeverityNotable — 2-3 дня
	SeverityNotable
	// SeveritySerious — 4-7 дней
	SeveritySerious
	// SeverityAlarming — 8-14 дней
	SeverityAlarming
	// SeverityEpic — 15-30 дней
	SeverityEpic
	// SeverityCatastrophic — 31 день и больше
	SeverityCatastrophic
)

// ClassifyGap относит длину пропуска к уровню тяжести.
// Тотальная функция над неотрицательными числами; 0 → SeverityNone.
// Границы уровней: {1; 2-3; 4-7; 8-14; 15-30; 31+}.
func ClassifyGap(days int) Severity {
	switch {
	case days <= 0:
		return SeverityNone
	case days == 1:
		return SeverityMild
	case days <= 3:
		return SeverityNotable
	case days <= 7:
		return SeveritySerious
	case days <= 14:
		return SeverityAlarming
	case days <= 30:
		return SeverityEpic
	default:
		return SeverityCatastrophic
	}
}

// DayOfYear возвращает порядковый день года (1-366) для даты.
func DayOfYear(t time.Time) int {
	return t.YearDay()
}

// DayToDate превращает (год, день года) в дату в заданном поясе.
func DayToDate(year, day int, loc *time.Location) time.Time {
	return time.Date(year, time.January, 1, 0, 0, 0, 0, loc).AddDate(0, 0, day-1)
}

// GapSinceLastDraw считает, сколько дней пропущено между последним
// розыгрышем и сегодняшним днём (сегодня не считается пропущенным —
// день ещё не прошёл). lastDrawDay == 0 означает, что розыгрышей
// в году не было — тогда пропущены все дни с 1 января.
//
//	GapSinceLastDraw(0, 1)  → 0  (1 января, пропусков ещё нет)
//	GapSinceLastDraw(0, 5)  → 4  (пропущены дни 1-4)
//	GapSinceLastDraw(3, 4)  → 0  (вчера играли)
//	GapSinceLastDraw(3, 7)  → 3  (пропущены дни 4-6)
//	GapSinceLastDraw(7, 7)  → 0  (сегодня уже играли)
func GapSinceLastDraw(lastDrawDay, today int) int {
	gap := today - lastDrawDay - 1
	if gap < 0 {
		return 0
	}
	return gap
}

// MissedDays возвращает все нерешённые пропущенные дни года по
// возрастанию: дни из [1, today) без розыгрыша и позже отметки
// resolvedThrough (дни до неё включительно розданы финальным
// голосованием). Объединяет ВСЕ разрывы года, не только последний.
func MissedDays(drawnDays []int, today, resolvedThrough int) []int {
	drawn := make(map[int]bool, len(drawnDays))
	for _, d := range drawnDays {
		drawn[d] = true
	}

	var missed []int
	for d := resolvedThrough + 1; d < today; d++ {
		if d >= 1 && !drawn[d] {
			missed = append(missed, d)
		}
	}
	return missed
}

// lastDay возвращает максимальный день из списка, 0 для пустого.
func lastDay(days []int) int {
	max := 0
	for _, d := range days {
		if d > max {
			max = d
		}
	}
	return max
}

// inVoteWindow проверяет, попадает ли дата в окно финального
// голосования — 29 и 30 декабря. Дата уже приведена к часовому
// поясу бота вызывающей стороной.
func inVoteWindow(t time.Time) bool {
	return t.Month() == time.December && (t.Day() == 29 || t.Day() == 30)
}
