package amazonfetcher

import (
	"bytes"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"amazon-search-service/internal/constants"
	"amazon-search-service/internal/core/domain"
	"amazon-search-service/internal/core/port"

	"github.com/PuerkitoBio/goquery"
)

var (
	// Полное совпадение, как у re.fullmatch: якоря по краям обязательны
	ratingLabelRe = regexp.MustCompile("^(?:" + constants.RatingLabelPattern + ")$")
	nonDigitRe    = regexp.MustCompile(`[^0-9]`)
)

// extractListings разбирает HTML страницы выдачи в доменные записи.
// Отсутствие контейнеров результатов - структурная ошибка страницы;
// битый отдельный контейнер пропускается, не задевая соседей.
func extractListings(body []byte, baseURL string, page int, logger port.LoggerPort) ([]domain.ListingRecord, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, &domain.StructuralParseError{Page: page, Reason: fmt.Sprintf("unparsable HTML: %v", err)}
	}

	containers := doc.Find(constants.SelectorResultContainer)
	if containers.Length() == 0 {
		return nil, &domain.StructuralParseError{Page: page, Reason: "no result containers"}
	}

	records := make([]domain.ListingRecord, 0, containers.Length())
	containers.Each(func(_ int, container *goquery.Selection) {
		record, recordErr := toListingRecord(container, baseURL)
		if recordErr != nil {
			// Содержимое контейнера сохраняем для диагностики
			containerHTML, _ := goquery.OuterHtml(container)
			parseErr := &domain.RecordParseError{
				Reason:    recordErr.Error(),
				Container: containerHTML,
			}
			logger.Error("Failed to process result container, skipping record", parseErr, port.Fields{
				"page":      page,
				"container": truncate(containerHTML, 500),
			})
			return
		}
		records = append(records, record)
	})

	return records, nil
}

// toListingRecord превращает один контейнер выдачи в запись. Каждое
// опциональное поле разбирается независимо: сбой поля оставляет его пустым,
// но не портит запись целиком.
func toListingRecord(container *goquery.Selection, baseURL string) (domain.ListingRecord, error) {
	record := domain.ListingRecord{}

	if asin := strings.TrimSpace(container.AttrOr(constants.AttrASIN, "")); asin != "" {
		record.ASIN = asin
		record.Link = fmt.Sprintf(constants.DetailURLTemplate, baseURL, asin)
	}

	record.Title = joinHeadings(container)

	// Узел картинки без src - единственный фатальный для записи случай:
	// такой контейнер сломан целиком, а не в одном поле.
	imageNode := container.Find(constants.SelectorImage)
	if imageNode.Length() > 0 {
		src := strings.TrimSpace(imageNode.First().AttrOr(constants.AttrImageSrc, ""))
		if src == "" {
			return domain.ListingRecord{}, fmt.Errorf("image node has no '%s' attribute", constants.AttrImageSrc)
		}
		record.ImageURL = &src
	}

	if priceText := strings.TrimSpace(container.Find(constants.SelectorPriceOffscreen).First().Text()); priceText != "" {
		if price, err := parseEuroPrice(priceText); err == nil {
			record.Price = &price
		}
	}

	if label, found := findRatingLabel(container); found {
		if rating, err := parseRating(label); err == nil {
			record.Rating = &rating
		}
	}

	reviewsNode := container.Find(constants.SelectorReviewsAnchor).First()
	if reviewsNode.Length() > 0 {
		if count, found := parseReviewCount(reviewsNode.Text()); found {
			record.ReviewCount = &count
		}
	}

	return record, nil
}

// joinHeadings собирает заголовок из всех h2 контейнера через разделитель.
func joinHeadings(container *goquery.Selection) string {
	parts := []string{}
	container.Find(constants.SelectorHeading).Each(func(_ int, heading *goquery.Selection) {
		parts = append(parts, strings.TrimSpace(heading.Text()))
	})
	return strings.Join(parts, constants.TitleJoinSep)
}

// findRatingLabel ищет первый span, чей aria-label целиком совпадает с
// шаблоном рейтинга ("4,3 su 5 stelle").
func findRatingLabel(container *goquery.Selection) (string, bool) {
	label := ""
	container.Find("span[aria-label]").EachWithBreak(func(_ int, node *goquery.Selection) bool {
		value, _ := node.Attr("aria-label")
		if ratingLabelRe.MatchString(value) {
			label = value
			return false
		}
		return true
	})
	return label, label != ""
}

// parseEuroPrice превращает "€1.234,56" в 1234.56: валюта, пробелы и
// разделители тысяч убираются, десятичная запятая становится точкой.
func parseEuroPrice(text string) (float64, error) {
	cleaned := strings.TrimSpace(text)
	cleaned = strings.ReplaceAll(cleaned, constants.CurrencySymbol, "")
	cleaned = strings.ReplaceAll(cleaned, "\u00a0", "")
	cleaned = strings.ReplaceAll(cleaned, " ", "")
	cleaned = strings.ReplaceAll(cleaned, constants.ThousandsSep, "")
	cleaned = strings.ReplaceAll(cleaned, constants.DecimalSep, ".")
	if cleaned == "" {
		return 0, fmt.Errorf("no numeric content in '%s'", text)
	}
	return strconv.ParseFloat(cleaned, 64)
}

// parseRating берет первый токен метки ("4,3 su 5 stelle" -> "4,3") и
// читает его как число с итальянской десятичной запятой.
func parseRating(label string) (float64, error) {
	first := strings.SplitN(label, " ", 2)[0]
	return strconv.ParseFloat(strings.ReplaceAll(first, constants.DecimalSep, "."), 64)
}

// parseReviewCount отбрасывает все нецифровые символы ("(1.234)" -> 1234).
// Текст без цифр (например, "Recensioni") оставляет поле пустым.
func parseReviewCount(text string) (int, bool) {
	digits := nonDigitRe.ReplaceAllString(text, "")
	if digits == "" {
		return 0, false
	}
	count, err := strconv.Atoi(digits)
	if err != nil {
		return 0, false
	}
	return count, true
}
