package constants

// Параметры сайта-источника.
const (
	DefaultSite = "amazon.it"

	// Шаблоны URL относительно базового адреса (схема + хост): выдача и карточка товара
	SearchURLTemplate = "%s/s?k=%s"
	DetailURLTemplate = "%s/dp/%s"

	SearchPageParam = "page"
)

// Заголовки, с которыми ходит браузер на этот сайт. User-Agent не фиксируем —
// он ротируется на каждый запрос.
const (
	HeaderAccept         = "text/html,application/xhtml+xml,application/xml;q=0.9,image/avif,image/webp,*/*;q=0.8"
	HeaderAcceptLanguage = "it-IT,it;q=0.8,en-US;q=0.5,en;q=0.3"
)

// Структурные маркеры разметки выдачи. Вынесены сюда, а не зашиты в парсер:
// при смене локали или верстки меняется только этот файл.
const (
	SelectorResultContainer = `div[data-component-type='s-search-result']`
	SelectorPaginationItem  = "span.s-pagination-item"
	SelectorImage           = "img.s-image"
	SelectorHeading         = "h2"
	SelectorPriceOffscreen  = "span.a-price span.a-offscreen"
	SelectorReviewsAnchor   = `a[href$='#customerReviews']`

	AttrASIN     = "data-asin"
	AttrImageSrc = "src"
)

// Локаль-специфичные правила разбора (итальянская выдача).
const (
	// Полное совпадение aria-label вида "4,3 su 5 stelle"
	RatingLabelPattern = `.* su .* stelle`

	CurrencySymbol = "€"
	ThousandsSep   = "."
	DecimalSep     = ","
	TitleJoinSep   = ": "
)

// Значения по умолчанию для конфигурации поиска.
const (
	DefaultMaxPages      = 50
	DefaultSearchWorkers = 8

	DefaultFetchMaxAttempts  = 3
	DefaultFetchBackoffMinMS = 1000
	DefaultFetchBackoffMaxMS = 3000

	DefaultFetchParallelism   = 4
	DefaultFetchRandomDelayMS = 1500
	DefaultFetchRateLimitRPS  = 2.0
)
