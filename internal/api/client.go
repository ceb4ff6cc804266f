package api

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"megasena-service/internal/config"
	"megasena-service/internal/database"
	"megasena-service/internal/logger"
)

// CaixaResult Caixa彩票接口返回的开奖数据
type CaixaResult struct {
	Numero       int64    `json:"numero"`
	DataApuracao string   `json:"dataApuracao"` // dd/mm/yyyy
	ListaDezenas []string `json:"listaDezenas"`
}

// Client 官方开奖结果API客户端
type Client struct {
	httpClient *http.Client
	baseURL    string
	retryCount int
	retryDelay time.Duration
}

// NewClient 创建新的API客户端
func NewClient(cfg *config.Caixa) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		baseURL:    cfg.URL,
		retryCount: cfg.RetryCount,
		retryDelay: cfg.RetryDelay,
	}
}

// FetchLatestDraw 获取最新一期开奖结果
func (c *Client) FetchLatestDraw() (*database.OfficialDraw, error) {
	return c.fetchDraw(c.baseURL)
}

// FetchDrawByContest 按concurso号获取开奖结果
func (c *Client) FetchDrawByContest(contestNumber int64) (*database.OfficialDraw, error) {
	return c.fetchDraw(fmt.Sprintf("%s/%d", c.baseURL, contestNumber))
}

// fetchDraw 带重试地请求并转换开奖数据
func (c *Client) fetchDraw(url string) (*database.OfficialDraw, error) {
	var lastErr error
	for attempt := 0; attempt <= c.retryCount; attempt++ {
		if attempt > 0 {
			logger.Warnf("Caixa API retry attempt %d/%d", attempt, c.retryCount)
			time.Sleep(c.retryDelay * time.Duration(attempt)) // 线性退避
		}

		result, err := c.makeRequest(url)
		if err != nil {
			lastErr = err
			continue
		}

		return ConvertCaixaResult(result)
	}

	return nil, fmt.Errorf("failed to fetch draw after %d attempts: %v", c.retryCount+1, lastErr)
}

// makeRequest 执行HTTP请求
func (c *Client) makeRequest(url string) (*CaixaResult, error) {
	logger.Debugf("Making Caixa API request to: %s", url)

	resp, err := c.httpClient.Get(url)
	if err != nil {
		return nil, fmt.Errorf("HTTP request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP request failed with status: %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %v", err)
	}

	var result CaixaResult
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %v", err)
	}

	return &result, nil
}

// ConvertCaixaResult 转换API数据为内部数据模型
func ConvertCaixaResult(result *CaixaResult) (*database.OfficialDraw, error) {
	if result.Numero < 1 {
		return nil, fmt.Errorf("invalid contest number: %d", result.Numero)
	}

	date, err := time.Parse("02/01/2006", result.DataApuracao)
	if err != nil {
		return nil, fmt.Errorf("failed to parse draw date: %v", err)
	}

	if len(result.ListaDezenas) != database.TicketSize {
		return nil, fmt.Errorf("draw should have %d numbers, got %d", database.TicketSize, len(result.ListaDezenas))
	}

	numbers := make([]int, 0, database.TicketSize)
	for _, dezena := range result.ListaDezenas {
		n, err := strconv.Atoi(dezena)
		if err != nil {
			return nil, fmt.Errorf("invalid number in draw: %s", dezena)
		}
		numbers = append(numbers, n)
	}

	if err := database.ValidateTicket(numbers, database.TicketSize, database.TicketSize); err != nil {
		return nil, fmt.Errorf("invalid draw numbers: %v", err)
	}

	return &database.OfficialDraw{
		ContestNumber: result.Numero,
		Date:          date.Format("2006-01-02"),
		Numbers:       database.FormatNumbers(numbers),
	}, nil
}

// HealthCheck 检查API健康状态
func (c *Client) HealthCheck() error {
	if _, err := c.FetchLatestDraw(); err != nil {
		return fmt.Errorf("Caixa API health check failed: %v", err)
	}
	return nil
}
