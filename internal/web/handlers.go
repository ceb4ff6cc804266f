package web

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"

	"megasena-service/internal/database"
	"megasena-service/internal/importer"
	"megasena-service/internal/logger"
	"megasena-service/internal/lottery"
)

// 单次提议批量的上限
const maxProposeCount = 50

// DrawView 开奖结果的API视图
type DrawView struct {
	ContestNumber int64  `json:"contest_number"`
	Date          string `json:"date"`
	Numbers       []int  `json:"numbers"`
	Virada        bool   `json:"virada"`
}

// GameView 已保存组合的API视图
type GameView struct {
	ID      int64  `json:"id"`
	Date    string `json:"date"`
	Numbers []int  `json:"numbers"`
	IsBet   bool   `json:"is_bet"`
}

// writeJSON 输出JSON响应
func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		logger.Errorf("Failed to encode response: %v", err)
	}
}

// writeError 输出错误响应
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

// drawView 转换为API视图（解析号码串并标记跨年特别场次）
func drawView(draw database.OfficialDraw) (DrawView, error) {
	numbers, err := database.ParseNumbers(draw.Numbers)
	if err != nil {
		return DrawView{}, err
	}
	return DrawView{
		ContestNumber: draw.ContestNumber,
		Date:          draw.Date,
		Numbers:       numbers,
		Virada:        lottery.IsMegaDaVirada(draw.Date),
	}, nil
}

// parseNumbersParam 解析逗号分隔的号码参数
func parseNumbersParam(raw string) ([]int, error) {
	return database.ParseNumbers(strings.TrimSpace(raw))
}

// handleHealth 健康检查
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status": "ok",
		"cache":  s.cache.GetStats(),
	})
}

// handleProposeGames 提议新组合（不写库，由客户端确认后提交）
func (s *Server) handleProposeGames(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Count int   `json:"count"`
		Fixed []int `json:"fixed"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.Count < 1 || req.Count > maxProposeCount {
		writeError(w, http.StatusBadRequest, "count must be between 1 and 50")
		return
	}

	games, err := s.generator.ProposeBatch(req.Count, req.Fixed)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"games": games})
}

// handleCommitGames 提交确认后的组合批次入库
func (s *Server) handleCommitGames(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Games []struct {
			Numbers []int `json:"numbers"`
			IsBet   bool  `json:"is_bet"`
		} `json:"games"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if len(req.Games) == 0 {
		writeError(w, http.StatusBadRequest, "games list is empty")
		return
	}

	inputs := make([]database.GameInput, 0, len(req.Games))
	bets := 0
	for _, g := range req.Games {
		if err := database.ValidateTicket(g.Numbers, database.TicketSize, database.TicketSize); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		inputs = append(inputs, database.GameInput{Numbers: g.Numbers, IsBet: g.IsBet})
		if g.IsBet {
			bets++
		}
	}

	saved, err := s.store.SaveGeneratedGames(inputs)
	if err != nil {
		logger.Errorf("Failed to save games: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to save games")
		return
	}

	s.cache.OnGamesSaved()
	s.hub.Broadcast(EventGamesSaved, map[string]interface{}{
		"saved": saved,
		"bets":  bets,
	})

	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"saved": saved,
		"bets":  bets,
	})
}

// handleListGames 查询所有已保存的组合
func (s *Server) handleListGames(w http.ResponseWriter, r *http.Request) {
	games, err := s.cache.GetGeneratedGames()
	if err != nil {
		logger.Errorf("Failed to get games: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to load games")
		return
	}

	views := make([]GameView, 0, len(games))
	for _, g := range games {
		numbers, err := database.ParseNumbers(g.Numbers)
		if err != nil {
			logger.Warnf("Skipping malformed game %d: %v", g.ID, err)
			continue
		}
		views = append(views, GameView{ID: g.ID, Date: g.Date, Numbers: numbers, IsBet: g.IsBet})
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"games": views})
}

// handleAddDraw 手动录入开奖结果
func (s *Server) handleAddDraw(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ContestNumber int64  `json:"contest_number"`
		Date          string `json:"date"`
		Numbers       []int  `json:"numbers"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.ContestNumber < 1 {
		writeError(w, http.StatusBadRequest, "contest_number must be positive")
		return
	}
	if _, err := database.ParseDrawDate(req.Date); err != nil {
		writeError(w, http.StatusBadRequest, "date must be in YYYY-MM-DD format")
		return
	}
	if err := database.ValidateTicket(req.Numbers, database.TicketSize, database.TicketSize); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	draw := &database.OfficialDraw{
		ContestNumber: req.ContestNumber,
		Date:          req.Date,
		Numbers:       database.FormatNumbers(req.Numbers),
	}

	added, err := s.store.SaveOfficialDraw(draw)
	if err != nil {
		logger.Errorf("Failed to save draw %d: %v", req.ContestNumber, err)
		writeError(w, http.StatusInternalServerError, "failed to save draw")
		return
	}
	if !added {
		writeError(w, http.StatusConflict, "contest already exists, not added")
		return
	}

	s.cache.OnDrawAdded()
	view, _ := drawView(*draw)
	s.hub.Broadcast(EventDrawAdded, view)

	writeJSON(w, http.StatusCreated, map[string]interface{}{"added": true, "draw": view})
}

// handleListDraws 查询所有开奖结果
func (s *Server) handleListDraws(w http.ResponseWriter, r *http.Request) {
	draws, err := s.cache.GetOfficialDraws()
	if err != nil {
		logger.Errorf("Failed to get draws: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to load draws")
		return
	}

	views := make([]DrawView, 0, len(draws))
	for _, d := range draws {
		view, err := drawView(d)
		if err != nil {
			logger.Warnf("Skipping malformed draw %d: %v", d.ContestNumber, err)
			continue
		}
		views = append(views, view)
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"draws": views})
}

// handleImportDraws CSV批量导入开奖结果
func (s *Server) handleImportDraws(w http.ResponseWriter, r *http.Request) {
	file, _, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "missing file field")
		return
	}
	defer file.Close()

	result, err := importer.ImportCSV(file, s.store)
	if err != nil {
		if result != nil && result.Added > 0 {
			s.cache.OnDrawAdded()
		}
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if result.Added > 0 {
		s.cache.OnDrawAdded()
		s.hub.Broadcast(EventDrawAdded, map[string]interface{}{
			"imported": result.Added,
		})
	}

	logger.Infof("CSV import finished: %d added, %d skipped", result.Added, result.Skipped)
	writeJSON(w, http.StatusOK, result)
}

// handleSyncDraw 从官方接口同步最新开奖结果
func (s *Server) handleSyncDraw(w http.ResponseWriter, r *http.Request) {
	if s.caixa == nil {
		writeError(w, http.StatusServiceUnavailable, "results sync is not configured")
		return
	}

	draw, err := s.caixa.FetchLatestDraw()
	if err != nil {
		logger.Errorf("Failed to fetch latest draw: %v", err)
		writeError(w, http.StatusBadGateway, "failed to fetch latest draw")
		return
	}

	added, err := s.store.SaveOfficialDraw(draw)
	if err != nil {
		logger.Errorf("Failed to save synced draw %d: %v", draw.ContestNumber, err)
		writeError(w, http.StatusInternalServerError, "failed to save draw")
		return
	}

	view, _ := drawView(*draw)
	if added {
		s.cache.OnDrawAdded()
		s.hub.Broadcast(EventDrawAdded, view)
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"added": added, "draw": view})
}

// handleSearchDraws 按号码搜索历史开奖结果
func (s *Server) handleSearchDraws(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query().Get("numbers")
	if raw == "" {
		writeError(w, http.StatusBadRequest, "numbers parameter is required")
		return
	}
	numbers, err := parseNumbersParam(raw)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid numbers parameter")
		return
	}
	if err := database.ValidateTicket(numbers, 1, database.TicketSize); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	mode := r.URL.Query().Get("mode")
	if mode == "" {
		mode = "all"
	}
	if mode != "all" && mode != "any" {
		writeError(w, http.StatusBadRequest, "mode must be all or any")
		return
	}

	draws, err := s.cache.GetOfficialDraws()
	if err != nil {
		logger.Errorf("Failed to get draws: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to load draws")
		return
	}

	type searchHit struct {
		DrawView
		Matches []int `json:"matches"`
	}

	hits := make([]searchHit, 0)
	for _, d := range draws {
		view, err := drawView(d)
		if err != nil {
			continue
		}
		result := lottery.Score(numbers, view.Numbers)
		if mode == "all" && result.HitCount != len(numbers) {
			continue
		}
		if mode == "any" && result.HitCount == 0 {
			continue
		}
		hits = append(hits, searchHit{DrawView: view, Matches: result.Hits})
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"results": hits, "total": len(hits)})
}

// handleSimulate 模拟投注：对照全部历史开奖，返回至少三个命中的场次
func (s *Server) handleSimulate(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query().Get("numbers")
	if raw == "" {
		writeError(w, http.StatusBadRequest, "numbers parameter is required")
		return
	}
	numbers, err := parseNumbersParam(raw)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid numbers parameter")
		return
	}
	if err := database.ValidateTicket(numbers, database.TicketSize, lottery.MaxSimulationSize); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	draws, err := s.cache.GetOfficialDraws()
	if err != nil {
		logger.Errorf("Failed to get draws: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to load draws")
		return
	}

	results := lottery.RankDraws(draws, numbers, lottery.MinSimulationHits)
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"numbers": numbers,
		"results": results,
		"total":   len(results),
	})
}

// handleConference 核对某场开奖与所有已保存组合的命中情况
func (s *Server) handleConference(w http.ResponseWriter, r *http.Request) {
	contest, err := strconv.ParseInt(mux.Vars(r)["contest"], 10, 64)
	if err != nil || contest < 1 {
		writeError(w, http.StatusBadRequest, "invalid contest number")
		return
	}

	minHits := 1
	if raw := r.URL.Query().Get("min_hits"); raw != "" {
		minHits, err = strconv.Atoi(raw)
		if err != nil || minHits < 1 || minHits > database.TicketSize {
			writeError(w, http.StatusBadRequest, "min_hits must be between 1 and 6")
			return
		}
	}

	draws, err := s.cache.GetOfficialDraws()
	if err != nil {
		logger.Errorf("Failed to get draws: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to load draws")
		return
	}

	var draw *database.OfficialDraw
	for i := range draws {
		if draws[i].ContestNumber == contest {
			draw = &draws[i]
			break
		}
	}
	if draw == nil {
		writeError(w, http.StatusNotFound, "contest not found")
		return
	}

	drawNumbers, err := database.ParseNumbers(draw.Numbers)
	if err != nil {
		logger.Errorf("Malformed draw %d: %v", contest, err)
		writeError(w, http.StatusInternalServerError, "malformed draw record")
		return
	}

	games, err := s.cache.GetGeneratedGames()
	if err != nil {
		logger.Errorf("Failed to get games: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to load games")
		return
	}

	view, _ := drawView(*draw)
	results := lottery.RankGames(games, drawNumbers, minHits)
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"draw":    view,
		"results": results,
		"total":   len(results),
	})
}

// handleStats 统计总览：保存量、投注量、热门号码
func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	viradaOnly := r.URL.Query().Get("virada") == "true"

	stats, err := s.cache.GetStoreStats()
	if err != nil {
		logger.Errorf("Failed to get store stats: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to load stats")
		return
	}

	games, err := s.cache.GetGeneratedGames()
	if err != nil {
		logger.Errorf("Failed to get games: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to load games")
		return
	}

	draws, err := s.cache.GetOfficialDraws()
	if err != nil {
		logger.Errorf("Failed to get draws: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to load draws")
		return
	}

	var betTickets, suggestionTickets, drawTickets [][]int
	for _, g := range games {
		numbers, err := database.ParseNumbers(g.Numbers)
		if err != nil {
			continue
		}
		if g.IsBet {
			betTickets = append(betTickets, numbers)
		} else {
			suggestionTickets = append(suggestionTickets, numbers)
		}
	}

	viradaCount := 0
	for _, d := range draws {
		numbers, err := database.ParseNumbers(d.Numbers)
		if err != nil {
			continue
		}
		virada := lottery.IsMegaDaVirada(d.Date)
		if virada {
			viradaCount++
		}
		if viradaOnly && !virada {
			continue
		}
		drawTickets = append(drawTickets, numbers)
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"store":        stats,
		"virada_draws": viradaCount,
		"hot_numbers": map[string]interface{}{
			"bets":        lottery.NumberFrequencies(betTickets, 10),
			"suggestions": lottery.NumberFrequencies(suggestionTickets, 10),
			"draws":       lottery.NumberFrequencies(drawTickets, 10),
		},
	})
}

// handleCombinations 统计历史开奖中出现最多的k元组合
func (s *Server) handleCombinations(w http.ResponseWriter, r *http.Request) {
	k := 2
	if raw := r.URL.Query().Get("k"); raw != "" {
		var err error
		k, err = strconv.Atoi(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid k parameter")
			return
		}
	}
	viradaOnly := r.URL.Query().Get("virada") == "true"

	draws, err := s.cache.GetOfficialDraws()
	if err != nil {
		logger.Errorf("Failed to get draws: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to load draws")
		return
	}

	tickets := make([][]int, 0, len(draws))
	for _, d := range draws {
		if viradaOnly && !lottery.IsMegaDaVirada(d.Date) {
			continue
		}
		numbers, err := database.ParseNumbers(d.Numbers)
		if err != nil {
			continue
		}
		tickets = append(tickets, numbers)
	}

	entries, err := lottery.Frequencies(tickets, k)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"k":            k,
		"combinations": entries,
		"total_draws":  len(tickets),
	})
}
