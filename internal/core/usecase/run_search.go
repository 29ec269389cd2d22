package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"amazon-search-service/internal/contextkeys"
	"amazon-search-service/internal/core/domain"
	"amazon-search-service/internal/core/port"
)

// RunSearchUseCase - полный цикл поиска: определение глубины выдачи,
// параллельное скачивание страниц пулом воркеров и склейка результатов.
type RunSearchUseCase struct {
	fetcherRepo port.AmazonFetcherPort
	cacheRepo   port.SearchCachePort
	reporter    port.SearchReporterPort // может быть nil - сводки опциональны
	workers     int
	strict      bool
}

// NewRunSearchUseCase создает новый экземпляр RunSearchUseCase
func NewRunSearchUseCase(
	fetcherRepo port.AmazonFetcherPort,
	cacheRepo port.SearchCachePort,
	reporter port.SearchReporterPort,
	workers int,
	strict bool,
) *RunSearchUseCase {
	if workers < 1 {
		workers = 1
	}
	return &RunSearchUseCase{
		fetcherRepo: fetcherRepo,
		cacheRepo:   cacheRepo,
		reporter:    reporter,
		workers:     workers,
		strict:      strict,
	}
}

// pageResult - результат одной страницы; слот в срезе закреплен за номером
// страницы, поэтому склейка сохраняет порядок выдачи при любом числе воркеров.
type pageResult struct {
	page    int
	records []domain.ListingRecord
	err     error
}

func (uc *RunSearchUseCase) Execute(ctx context.Context, query string) (*domain.SearchResult, error) {

	baseLogger := contextkeys.LoggerFromContext(ctx)
	ucLogger := baseLogger.WithFields(port.Fields{
		"use_case": "RunSearch",
		"query":    query,
	})

	if strings.TrimSpace(query) == "" {
		return nil, fmt.Errorf("use case: query must not be empty")
	}

	// Повторный идентичный запрос отдаем из кэша, не делая ни одного
	// обращения к сети.
	if cached, found := uc.cacheRepo.Get(query); found {
		ucLogger.Info("Serving search result from cache", port.Fields{"records": len(cached.Records)})
		result := *cached
		result.FromCache = true
		return &result, nil
	}

	startedAt := time.Now()

	pages, err := uc.fetcherRepo.DiscoverPageCount(ctx, query)
	if err != nil {
		ucLogger.Error("Failed to discover page count", err, nil)
		return nil, fmt.Errorf("use case: error discovering pages for query '%s': %w", query, err)
	}

	workers := uc.workers
	if workers > pages {
		workers = pages
	}

	ucLogger.Info("Starting page fan-out", port.Fields{"pages": pages, "workers": workers})

	// 1. Раздаем номера страниц пулу воркеров
	jobs := make(chan int, pages)
	results := make([]pageResult, pages)

	runCtx, cancelRun := context.WithCancel(ctx)
	defer cancelRun()

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()

			for page := range jobs {
				taskLogger := ucLogger.WithFields(port.Fields{"page": page})
				taskCtx := contextkeys.ContextWithLogger(runCtx, taskLogger)

				select {
				case <-runCtx.Done():
					results[page-1] = pageResult{page: page, err: runCtx.Err()}
					continue
				default:
				}

				records, fetchErr := uc.fetcherRepo.FetchSearchPage(taskCtx, query, page)
				if fetchErr != nil {
					taskLogger.Error("Page task failed", fetchErr, nil)
					if uc.strict {
						// Строгий режим: первая же невосстановимая страница
						// гасит оставшиеся задачи
						cancelRun()
					}
				}
				results[page-1] = pageResult{page: page, records: records, err: fetchErr}
			}
		}()
	}

	for page := 1; page <= pages; page++ {
		jobs <- page
	}
	close(jobs)

	// Блокируемся, пока ВСЕ горутины не вызовут wg.Done()
	wg.Wait()

	// 2. Агрегируем: успешные страницы склеиваются по порядку, сбойные
	// попадают в список пропусков
	result := &domain.SearchResult{
		Query: query,
		Pages: pages,
	}
	var firstPageErr error
	for _, pr := range results {
		if pr.err != nil {
			result.FailedPages = append(result.FailedPages, pr.page)
			// Первопричина важнее вторичных отмен, наведенных строгим режимом
			if firstPageErr == nil || (errors.Is(firstPageErr, context.Canceled) && !errors.Is(pr.err, context.Canceled)) {
				firstPageErr = pr.err
			}
			continue
		}
		result.Records = append(result.Records, pr.records...)
	}
	result.Duration = time.Since(startedAt)

	if uc.strict && len(result.FailedPages) > 0 {
		strictErr := fmt.Errorf("use case: %d of %d pages failed for query '%s': %w", len(result.FailedPages), pages, query, firstPageErr)
		ucLogger.Error("Search aborted in strict mode", strictErr, port.Fields{"failed_pages": result.FailedPages})
		return nil, strictErr
	}

	if len(result.FailedPages) > 0 {
		ucLogger.Warn("Search finished with partial results", port.Fields{
			"records":      len(result.Records),
			"failed_pages": result.FailedPages,
		})
	} else {
		ucLogger.Info("Search finished", port.Fields{
			"records":     len(result.Records),
			"duration_ms": result.Duration.Milliseconds(),
		})
	}

	// 3. Мемоизация: первый писатель побеждает, параллельный запрос того же
	// текста не перетирает уже сохраненный результат. Прогон, оборванный
	// отменой вызывающего контекста, не запоминаем: его пропуски - страницы
	// без единой попытки, а не исчерпанные повторы
	if ctx.Err() != nil {
		ucLogger.Debug("Search result not memoized, run was interrupted", nil)
	} else if uc.cacheRepo.SetIfAbsent(query, result) {
		ucLogger.Debug("Search result memoized", nil)
	}

	uc.reportCompleted(ctx, result)

	return result, nil
}

// reportCompleted отправляет сводку завершенного поиска, если репортер
// сконфигурирован. Сбой отправки не валит сам поиск.
func (uc *RunSearchUseCase) reportCompleted(ctx context.Context, result *domain.SearchResult) {
	if uc.reporter == nil {
		return
	}

	logger := contextkeys.LoggerFromContext(ctx)

	stats := &domain.SearchRunStats{
		Query:        result.Query,
		Pages:        result.Pages,
		PagesFailed:  len(result.FailedPages),
		RecordsFound: len(result.Records),
		FromCache:    false,
		DurationMS:   result.Duration.Milliseconds(),
	}

	if err := uc.reporter.ReportCompleted(ctx, stats); err != nil {
		logger.Error("Failed to send search completion summary", err, nil)
	}
}
