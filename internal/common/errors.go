// Package common — errors.go определяет доменные ошибки,
// которые используются во всех модулях бота.
// Эти ошибки позволяют обработчикам различать типы проблем
// и отправлять пользователю понятные сообщения.
package common

import "errors"

// Ошибки розыгрыша и регистрации
var (
	// ErrNotEnoughPlayers — в чате зарегистрировано меньше двух игроков
	ErrNotEnoughPlayers = errors.New("недостаточно игроков, нужно минимум два")
	// ErrAlreadyRegistered — игрок уже зарегистрирован в этом чате
	ErrAlreadyRegistered = errors.New("игрок уже зарегистрирован")
	// ErrUnknownPlayer — игрок не зарегистрирован в этом чате
	ErrUnknownPlayer = errors.New("игрок не зарегистрирован в игре")
)

// Ошибки финального голосования
var (
	// ErrVoteNotOpen — голосование не открыто (не начато или уже подсчитано)
	ErrVoteNotOpen = errors.New("финальное голосование не открыто")
	// ErrVoteFinished — голосование этого года уже завершено, повторный
	// запуск и повторный подсчёт невозможны
	ErrVoteFinished = errors.New("финальное голосование в этом году уже завершено")
	// ErrNoBallots — попытка подсчёта при нуле голосов; сессия остаётся открытой
	ErrNoBallots = errors.New("никто не проголосовал, подсчёт невозможен")
	// ErrNotAdmin — завершить голосование может только администратор чата
	ErrNotAdmin = errors.New("нужны права администратора чата")
)

// Ошибки пидоркойнов
var (
	// ErrInsufficientBalance — недостаточно койнов на счёте
	ErrInsufficientBalance = errors.New("недостаточно пидоркойнов на счёте")
	// ErrSelfTransfer — попытка перевести койны самому себе
	ErrSelfTransfer = errors.New("нельзя переводить койны самому себе")
	// ErrInvalidAmount — некорректная сумма перевода
	ErrInvalidAmount = errors.New("некорректная сумма перевода")
)
