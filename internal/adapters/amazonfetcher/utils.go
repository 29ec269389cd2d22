package amazonfetcher

import (
	"bytes"
	"context"
	"math/rand"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
)

// visibleText возвращает текст страницы без разметки, со схлопнутыми
// пробелами. Используется для человекочитаемых ошибок и выдержек в логах.
func visibleText(body []byte) string {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return ""
	}
	return strings.Join(strings.Fields(doc.Text()), " ")
}

// truncate обрезает строку примерно до limit байт для логов. Граница
// отступает назад до начала руны, чтобы не разрезать многобайтовый символ.
func truncate(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	for limit > 0 && !utf8.RuneStart(s[limit]) {
		limit--
	}
	return s[:limit] + "..."
}

// randomBackoff возвращает случайную паузу в интервале [min, max].
func randomBackoff(min, max time.Duration) time.Duration {
	if max <= min {
		return min
	}
	return min + time.Duration(rand.Int63n(int64(max-min)))
}

// sleepBackoff выдерживает паузу перед повтором, не переживая отмену контекста.
func (a *AmazonFetcherAdapter) sleepBackoff(ctx context.Context) {
	delay := randomBackoff(a.cfg.BackoffMin, a.cfg.BackoffMax)
	select {
	case <-time.After(delay):
	case <-ctx.Done():
	}
}
