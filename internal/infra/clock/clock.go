// Package clock абстрагирует время, чтобы таймеры рулетки можно было
// тестировать без реального ожидания.
//
// Продакшен-код получает Real(), тесты — Fake() и двигают время через Advance.
package clock

import "time"

// Clock — минимальный набор операций со временем, нужный сервисам.
type Clock interface {
	// Now возвращает текущее время.
	Now() time.Time
	// AfterFunc вызывает f через d. Возвращённый Timer позволяет отменить вызов.
	AfterFunc(d time.Duration, f func()) *Timer
}

// Timer — отменяемое отложенное событие.
type Timer struct {
	stopFunc func() bool
}

// Stop отменяет таймер. Возвращает false, если таймер уже сработал или был остановлен.
func (t *Timer) Stop() bool {
	if t == nil || t.stopFunc == nil {
		return false
	}
	return t.stopFunc()
}

// Real возвращает Clock на основе пакета time.
func Real() Clock { return realClock{} }

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

func (realClock) AfterFunc(d time.Duration, f func()) *Timer {
	timer := time.AfterFunc(d, f)
	return &Timer{stopFunc: timer.Stop}
}
