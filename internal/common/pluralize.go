// Package common содержит общие утилиты: русская плюрализация,
// форматирование дат и экранирование для Telegram.
package common

import "fmt"

// plural выбирает форму слова по правилам русского языка:
//   - n%10==1 и n%100!=11 → единственное число (1, 21, 31, ...)
//   - n%10 в [2,4] и n%100 не в [12,14] → малое множественное (2, 3, 4, 22, ...)
//   - остальные → большое множественное (0, 5-20, 25-30, ...)
func plural(n int64, one, few, many string) string {
	if n < 0 {
		n = -n
	}
	lastDigit := n % 10
	lastTwo := n % 100

	if lastDigit == 1 && lastTwo != 11 {
		return one
	}
	if lastDigit >= 2 && lastDigit <= 4 && (lastTwo < 12 || lastTwo > 14) {
		return few
	}
	return many
}

// PluralizeDays возвращает правильную форму слова «день».
// Примеры: 1 → "день", 3 → "дня", 11 → "дней", 21 → "день".
func PluralizeDays(n int) string {
	return plural(int64(n), "день", "дня", "дней")
}

// PluralizeCoins возвращает правильную форму слова «пидоркойн».
func PluralizeCoins(n int64) string {
	return plural(n, "пидоркойн", "пидоркойна", "пидоркойнов")
}

// PluralizeVotes возвращает правильную форму слова «голос».
func PluralizeVotes(n int) string {
	return plural(int64(n), "голос", "голоса", "голосов")
}

// PluralizeWins возвращает правильную форму слова «победа».
func PluralizeWins(n int) string {
	return plural(int64(n), "победа", "победы", "побед")
}

// FormatCoins форматирует сумму койнов в читабельную строку.
// Пример: FormatCoins(4) → "4 пидоркойна"
func FormatCoins(n int64) string {
	return fmt.Sprintf("%d %s", n, PluralizeCoins(n))
}
