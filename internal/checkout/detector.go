// Package checkout абстрагирует распознавание исхода платёжной страницы.
//
// Хостед-чекаут не присылает структурированный колбэк: единственный сигнал —
// URL, на который ушла навигация внутри встроенной веб-страницы. Матчинг
// подстрок спрятан за интерфейсом OutcomeDetector, чтобы позже заменить его
// на вебхук, не трогая машину состояний.
package checkout

import "strings"

// OutcomeDetector распознаёт завершение чекаута по навигационному событию.
type OutcomeDetector interface {
	// Completed возвращает true, если URL указывает на завершение оплаты.
	Completed(url string) bool
}

// URLPatternDetector — детектор по подстрокам URL.
type URLPatternDetector struct {
	patterns []string
}

// DefaultPatterns — подстроки, которыми шлюз помечает возврат с чекаута.
func DefaultPatterns() []string {
	return []string{"/success", "/completed", "/callback", "/return"}
}

// NewURLPatternDetector создает детектор. Без аргументов используются
// DefaultPatterns.
func NewURLPatternDetector(patterns ...string) *URLPatternDetector {
	if len(patterns) == 0 {
		patterns = DefaultPatterns()
	}
	return &URLPatternDetector{patterns: patterns}
}

// Completed проверяет URL на совпадение с любым из паттернов.
func (d *URLPatternDetector) Completed(url string) bool {
	for _, p := range d.patterns {
		if strings.Contains(url, p) {
			return true
		}
	}
	return false
}
