package domain

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"time"
)

// Ошибки разбора времени и смещений.
var (
	// ErrInvalidOffset — смещение не соответствует форме ±HH:MM
	// или выходит за диапазон ±14:00.
	ErrInvalidOffset = errors.New("invalid utc offset")

	// ErrInvalidTime — строка времени не соответствует форме
	// HH:MM или DD.MM.YYYY HH:MM.
	ErrInvalidTime = errors.New("invalid time format")
)

// maxOffsetMin — максимальное смещение от UTC: 14 часов (UTC+14 существует).
const maxOffsetMin = 14 * 60

var offsetRe = regexp.MustCompile(`^([+-])(\d{2}):(\d{2})$`)

// ParseOffset парсит смещение вида "+03:00" / "-05:30" в минуты со знаком.
// Допустимый диапазон — от -14:00 до +14:00 включительно.
func ParseOffset(s string) (int, error) {
	m := offsetRe.FindStringSubmatch(s)
	if m == nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidOffset, s)
	}
	hours, _ := strconv.Atoi(m[2])
	mins, _ := strconv.Atoi(m[3])
	if mins > 59 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidOffset, s)
	}
	total := hours*60 + mins
	if total > maxOffsetMin {
		return 0, fmt.Errorf("%w: %q out of range", ErrInvalidOffset, s)
	}
	if m[1] == "-" {
		total = -total
	}
	return total, nil
}

// FormatOffset форматирует смещение в минутах обратно в "±HH:MM".
func FormatOffset(offsetMin int) string {
	sign := "+"
	if offsetMin < 0 {
		sign = "-"
		offsetMin = -offsetMin
	}
	return fmt.Sprintf("%s%02d:%02d", sign, offsetMin/60, offsetMin%60)
}

// LocalTime — введённое пользователем локальное время публикации.
//
// Три формы: "сейчас" (Now), только время суток (Year == 0) и полная дата.
type LocalTime struct {
	// Now — немедленная публикация.
	Now bool

	// Hour, Minute — время суток.
	Hour   int
	Minute int

	// Year, Month, Day — дата. Year == 0 означает, что пользователь указал
	// только время суток и имеется в виду его ближайшее наступление.
	Year  int
	Month time.Month
	Day   int
}

// NowLocalTime возвращает LocalTime немедленной публикации.
func NowLocalTime() LocalTime {
	return LocalTime{Now: true}
}

// ParseLocalTime парсит "HH:MM" или "DD.MM.YYYY HH:MM".
func ParseLocalTime(s string) (LocalTime, error) {
	if t, err := time.Parse("15:04", s); err == nil {
		return LocalTime{Hour: t.Hour(), Minute: t.Minute()}, nil
	}
	if t, err := time.Parse("02.01.2006 15:04", s); err == nil {
		return LocalTime{
			Hour:   t.Hour(),
			Minute: t.Minute(),
			Year:   t.Year(),
			Month:  t.Month(),
			Day:    t.Day(),
		}, nil
	}
	return LocalTime{}, fmt.Errorf("%w: %q", ErrInvalidTime, s)
}

// ResolveDispatchInstant преобразует локальное время пользователя в
// абсолютный момент публикации в UTC.
//
// Правила:
//   - Now → nowUTC (немедленная публикация).
//   - Полная дата → ровно этот момент в зоне пользователя.
//   - Только время суток → ближайшее наступление этого локального времени,
//     не раньше nowUTC: сегодня, если момент ещё не прошёл, иначе завтра.
//
// Функция чистая: смещение фиксируется в момент вызова, последующие смены
// смещения пользователем уже вычисленные моменты не затрагивают.
func ResolveDispatchInstant(lt LocalTime, offsetMin int, nowUTC time.Time) time.Time {
	nowUTC = nowUTC.UTC().Truncate(time.Minute)
	if lt.Now {
		return nowUTC
	}

	loc := time.FixedZone("", offsetMin*60)

	if lt.Year != 0 {
		return time.Date(lt.Year, lt.Month, lt.Day, lt.Hour, lt.Minute, 0, 0, loc).UTC()
	}

	localNow := nowUTC.In(loc)
	candidate := time.Date(
		localNow.Year(), localNow.Month(), localNow.Day(),
		lt.Hour, lt.Minute, 0, 0, loc,
	).UTC()
	if candidate.Before(nowUTC) {
		candidate = candidate.Add(24 * time.Hour)
	}
	return candidate
}

// FormatInstant форматирует момент UTC в локальное представление пользователя
// вида "15:04 02.01.2006" (формат списка /scheduled).
func FormatInstant(t time.Time, offsetMin int) string {
	loc := time.FixedZone("", offsetMin*60)
	return t.In(loc).Format("15:04 02.01.2006")
}
