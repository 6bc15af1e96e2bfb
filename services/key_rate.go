package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"creditdesk/utils"

	"github.com/beevik/etree"
	"github.com/shopspring/decimal"
)

// KeyRate - значение ключевой ставки ЦБ на дату
type KeyRate struct {
	Date time.Time
	Rate decimal.Decimal
}

// KeyRateSource возвращает последнюю опубликованную ключевую ставку
type KeyRateSource interface {
	LatestKeyRate(ctx context.Context) (*KeyRate, error)
}

// KeyRateClient - клиент веб-сервиса ЦБ РФ (метод KeyRate)
type KeyRateClient struct {
	httpClient *http.Client
	url        string
	now        func() time.Time
}

// NewKeyRateClient создает клиента для указанного адреса веб-сервиса
func NewKeyRateClient(url string, timeout time.Duration) *KeyRateClient {
	return &KeyRateClient{
		httpClient: &http.Client{Timeout: timeout},
		url:        url,
		now:        time.Now,
	}
}

// buildKeyRateRequest формирует SOAP-запрос ключевой ставки за последние 30 дней
func buildKeyRateRequest(now time.Time) string {
	fromDate := now.AddDate(0, 0, -30).Format(dateLayout)
	toDate := now.Format(dateLayout)
	return fmt.Sprintf(`<?xml version="1.0" encoding="utf-8"?>
<soap12:Envelope xmlns:soap12="http://www.w3.org/2003/05/soap-envelope">
  <soap12:Body>
    <KeyRate xmlns="http://web.cbr.ru/">
      <fromDate>%s</fromDate>
      <ToDate>%s</ToDate>
    </KeyRate>
  </soap12:Body>
</soap12:Envelope>`, fromDate, toDate)
}

// LatestKeyRate запрашивает ставки за последний месяц и возвращает самую свежую
func (c *KeyRateClient) LatestKeyRate(ctx context.Context) (*KeyRate, error) {
	body := buildKeyRateRequest(c.now())

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewBufferString(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/soap+xml; charset=utf-8")
	req.Header.Set("SOAPAction", "http://web.cbr.ru/KeyRate")

	utils.LogDebug("запрос ключевой ставки ЦБ: %s", c.url)
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("ошибка при выполнении HTTP-запроса: %w", err)
	}
	defer resp.Body.Close()

	rawBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("ошибка при чтении ответа: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("веб-сервис ЦБ ответил статусом %d", resp.StatusCode)
	}

	return parseKeyRateResponse(rawBody)
}

// parseKeyRateResponse извлекает из ответа запись KR с наибольшей датой
func parseKeyRateResponse(rawBody []byte) (*KeyRate, error) {
	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(rawBody); err != nil {
		return nil, fmt.Errorf("ошибка при разборе XML: %w", err)
	}

	elements := doc.FindElements("//KR")
	if len(elements) == 0 {
		return nil, errors.New("данные по ключевой ставке не найдены")
	}

	var latest *KeyRate
	for _, kr := range elements {
		dateElement := kr.FindElement("./DT")
		rateElement := kr.FindElement("./Rate")
		if dateElement == nil || rateElement == nil {
			return nil, errors.New("элемент KR без DT или Rate")
		}

		date, err := parseCBRDate(strings.TrimSpace(dateElement.Text()))
		if err != nil {
			return nil, err
		}
		rate, err := decimal.NewFromString(strings.TrimSpace(rateElement.Text()))
		if err != nil {
			return nil, fmt.Errorf("ошибка при преобразовании ставки: %w", err)
		}

		if latest == nil || date.After(latest.Date) {
			latest = &KeyRate{Date: date, Rate: rate}
		}
	}
	return latest, nil
}

// parseCBRDate разбирает дату вида 2024-10-28T00:00:00+03:00
func parseCBRDate(value string) (time.Time, error) {
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05", dateLayout} {
		if t, err := time.Parse(layout, value); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("неверный формат даты ставки: %q", value)
}
