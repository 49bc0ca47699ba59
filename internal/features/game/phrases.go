// Package game — phrases.go: тексты розыгрыша.
// Драматические сообщения о пропущенных днях (по уровню тяжести)
// и четырёхэтапная интрига перед объявлением победителя.
package game

import (
	"fmt"
	"math/rand"

	"github.com/vodka-429/pidor-bot-2/internal/common"
)

// DramaticMessage возвращает сообщение о пропуске для уровня тяжести.
// Чистая функция: один текст на уровень, накал строго растёт от уровня
// к уровню. SeverityNone → пустая строка (сообщение не отправляется).
func DramaticMessage(sev Severity, days int) string {
	d := fmt.Sprintf("%d %s", days, common.PluralizeDays(days))

	switch sev {
	case SeverityMild:
		return "Тэк-с, тэк-с... Вчера пидор дня остался неназванным! Непорядок. Исправляемся!"
	case SeverityNotable:
		return fmt.Sprintf("⚠️ Внимание! Целых %s никто не запускал розыгрыш. Пидорское кресло пустовало!", d)
	case SeveritySerious:
		return fmt.Sprintf("😱 Вы что, забыли про игру?! %s без пидора дня! Чат жил без своего героя!", d)
	case SeverityAlarming:
		return fmt.Sprintf("🚨 ТРЕВОГА! %s тишины! Пидорометр зашкаливает от накопившегося напряжения!", d)
	case SeverityEpic:
		return fmt.Sprintf("💀 Это уже не шутки. %s без розыгрыша. Древние пидор-традиции почти забыты. Совет старейшин недоволен!", d)
	case SeverityCatastrophic:
		return fmt.Sprintf("☄️ КАТАСТРОФА ВСЕЛЕНСКОГО МАСШТАБА!!! %s — ЦЕЛАЯ ЭПОХА — без пидора дня! Летописцы в ужасе, предки в гробах вертятся как турбины!", d)
	default:
		return ""
	}
}

// Этапы интриги перед объявлением победителя.
// Последний этап содержит %s — место для имени победителя.
var (
	stage1 = []string{
		"Инициализирую поиск пидора дня...",
		"Так-так-так, что тут у нас?",
		"Скрытые камеры активированы. Сканирую чат...",
		"Спутники выведены на орбиту. Начинаю поиск...",
	}
	stage2 = []string{
		"Анализирую биометрические данные участников...",
		"Сверяюсь с базой данных Интерпола...",
		"Замеряю уровень пидорских вибраций...",
		"Опрашиваю информаторов...",
	}
	stage3 = []string{
		"Ага! След найден. Сужаю круг подозреваемых...",
		"Осталось совсем чуть-чуть...",
		"Вычисляю по IP...",
		"Барабанная дробь... 🥁",
	}
	stage4 = []string{
		"И пидор дня — %s! Поздравляем! 🎉",
		"Сегодня пидором дня становится... %s! Аплодисменты! 👏",
		"Обнаружен! Пидор дня — %s 🏆",
		"Невероятно, но факт: пидор дня — %s! 🎊",
	}
)

// DrawStages возвращает случайную реплику каждого этапа интриги.
// Последняя строка — шаблон с %s для имени победителя.
// Случайность влияет только на выбор реплики внутри этапа.
func DrawStages(rng *rand.Rand) [4]string {
	return [4]string{
		stage1[rng.Intn(len(stage1))],
		stage2[rng.Intn(len(stage2))],
		stage3[rng.Intn(len(stage3))],
		stage4[rng.Intn(len(stage4))],
	}
}
