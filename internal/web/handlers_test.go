package web

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math/rand"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"megasena-service/internal/cache"
	"megasena-service/internal/config"
	"megasena-service/internal/database"
	"megasena-service/internal/lottery"
)

// fakeStore 内存版Store实现，供handler测试使用
type fakeStore struct {
	draws  []database.OfficialDraw
	games  []database.GeneratedGame
	nextID int64
}

func newFakeStore() *fakeStore {
	return &fakeStore{nextID: 1}
}

func (f *fakeStore) GetOfficialDraws() ([]database.OfficialDraw, error) {
	out := make([]database.OfficialDraw, len(f.draws))
	copy(out, f.draws)
	return out, nil
}

func (f *fakeStore) GetGeneratedGames() ([]database.GeneratedGame, error) {
	out := make([]database.GeneratedGame, len(f.games))
	copy(out, f.games)
	return out, nil
}

func (f *fakeStore) SaveGeneratedGames(games []database.GameInput) (int, error) {
	for _, g := range games {
		f.games = append(f.games, database.GeneratedGame{
			ID:      f.nextID,
			Date:    time.Now().Format("2006-01-02 15:04:05"),
			Numbers: database.FormatNumbers(g.Numbers),
			IsBet:   g.IsBet,
		})
		f.nextID++
	}
	return len(games), nil
}

func (f *fakeStore) SaveOfficialDraw(draw *database.OfficialDraw) (bool, error) {
	for _, d := range f.draws {
		if d.ContestNumber == draw.ContestNumber {
			return false, nil
		}
	}
	f.draws = append(f.draws, *draw)
	return true, nil
}

func (f *fakeStore) ContestExists(contestNumber int64) (bool, error) {
	for _, d := range f.draws {
		if d.ContestNumber == contestNumber {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeStore) GetStoreStats() (*database.StoreStats, error) {
	stats := &database.StoreStats{
		TotalGames: len(f.games),
		TotalDraws: len(f.draws),
	}
	for _, g := range f.games {
		if g.IsBet {
			stats.TotalBets++
		}
	}
	return stats, nil
}

func newTestServer(store *fakeStore) *Server {
	cfg := &config.Config{
		Server: config.Server{Port: "0", StaticDir: "."},
	}
	hub := NewHub()
	go hub.Run()

	generator := lottery.NewGenerator(rand.New(rand.NewSource(42)))
	manager := cache.NewManager(store, time.Minute)
	return NewServer(cfg, store, manager, generator, nil, hub)
}

func doJSON(t *testing.T, handler http.Handler, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, out interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), out))
}

func TestHealthEndpoint(t *testing.T) {
	server := newTestServer(newFakeStore())
	rec := doJSON(t, server.Handler(), "GET", "/api/health", nil)

	assert.Equal(t, http.StatusOK, rec.Code)

	var resp map[string]interface{}
	decodeBody(t, rec, &resp)
	assert.Equal(t, "ok", resp["status"])
}

func TestProposeGames(t *testing.T) {
	server := newTestServer(newFakeStore())
	handler := server.Handler()

	rec := doJSON(t, handler, "POST", "/api/games/propose", map[string]interface{}{
		"count": 3,
		"fixed": []int{7, 23},
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Games [][]int `json:"games"`
	}
	decodeBody(t, rec, &resp)
	require.Len(t, resp.Games, 3)

	for _, game := range resp.Games {
		assert.Len(t, game, database.TicketSize)
		assert.Contains(t, game, 7)
		assert.Contains(t, game, 23)
		assert.NoError(t, database.ValidateTicket(game, database.TicketSize, database.TicketSize))
	}
}

func TestProposeGamesRejectsInvalidInput(t *testing.T) {
	server := newTestServer(newFakeStore())
	handler := server.Handler()

	rec := doJSON(t, handler, "POST", "/api/games/propose", map[string]interface{}{"count": 0})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(t, handler, "POST", "/api/games/propose", map[string]interface{}{"count": 51})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(t, handler, "POST", "/api/games/propose", map[string]interface{}{
		"count": 1,
		"fixed": []int{61},
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCommitAndListGames(t *testing.T) {
	store := newFakeStore()
	server := newTestServer(store)
	handler := server.Handler()

	rec := doJSON(t, handler, "POST", "/api/games", map[string]interface{}{
		"games": []map[string]interface{}{
			{"numbers": []int{1, 2, 3, 4, 5, 6}, "is_bet": true},
			{"numbers": []int{10, 20, 30, 40, 50, 60}, "is_bet": false},
		},
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	var commitResp map[string]interface{}
	decodeBody(t, rec, &commitResp)
	assert.Equal(t, float64(2), commitResp["saved"])
	assert.Equal(t, float64(1), commitResp["bets"])

	rec = doJSON(t, handler, "GET", "/api/games", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var listResp struct {
		Games []GameView `json:"games"`
	}
	decodeBody(t, rec, &listResp)
	require.Len(t, listResp.Games, 2)
	assert.Equal(t, []int{1, 2, 3, 4, 5, 6}, listResp.Games[0].Numbers)
	assert.True(t, listResp.Games[0].IsBet)
}

func TestCommitGamesRejectsInvalidTicket(t *testing.T) {
	store := newFakeStore()
	server := newTestServer(store)
	handler := server.Handler()

	rec := doJSON(t, handler, "POST", "/api/games", map[string]interface{}{
		"games": []map[string]interface{}{
			{"numbers": []int{1, 2, 3, 4, 5}, "is_bet": false},
		},
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, store.games)

	rec = doJSON(t, handler, "POST", "/api/games", map[string]interface{}{"games": []interface{}{}})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAddDrawAndDuplicate(t *testing.T) {
	server := newTestServer(newFakeStore())
	handler := server.Handler()

	body := map[string]interface{}{
		"contest_number": 2680,
		"date":           "2023-12-31",
		"numbers":        []int{21, 24, 33, 41, 48, 56},
	}

	rec := doJSON(t, handler, "POST", "/api/draws", body)
	require.Equal(t, http.StatusCreated, rec.Code)

	// 同一concurso号重复录入不覆盖
	rec = doJSON(t, handler, "POST", "/api/draws", body)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = doJSON(t, handler, "GET", "/api/draws", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var listResp struct {
		Draws []DrawView `json:"draws"`
	}
	decodeBody(t, rec, &listResp)
	require.Len(t, listResp.Draws, 1)
	assert.Equal(t, int64(2680), listResp.Draws[0].ContestNumber)
	assert.True(t, listResp.Draws[0].Virada)
}

func TestAddDrawRejectsInvalidInput(t *testing.T) {
	server := newTestServer(newFakeStore())
	handler := server.Handler()

	rec := doJSON(t, handler, "POST", "/api/draws", map[string]interface{}{
		"contest_number": 0,
		"date":           "2023-11-01",
		"numbers":        []int{1, 2, 3, 4, 5, 6},
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(t, handler, "POST", "/api/draws", map[string]interface{}{
		"contest_number": 100,
		"date":           "01/11/2023",
		"numbers":        []int{1, 2, 3, 4, 5, 6},
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(t, handler, "POST", "/api/draws", map[string]interface{}{
		"contest_number": 100,
		"date":           "2023-11-01",
		"numbers":        []int{1, 2, 3, 4, 5, 61},
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func seedDraws(t *testing.T, store *fakeStore) {
	t.Helper()
	draws := []database.OfficialDraw{
		{ContestNumber: 100, Date: "2023-11-01", Numbers: "1,2,3,4,5,6"},
		{ContestNumber: 101, Date: "2023-11-04", Numbers: "1,2,3,10,20,30"},
		{ContestNumber: 102, Date: "2023-12-31", Numbers: "5,15,25,35,45,55"},
	}
	for i := range draws {
		added, err := store.SaveOfficialDraw(&draws[i])
		require.NoError(t, err)
		require.True(t, added)
	}
}

func TestSearchDraws(t *testing.T) {
	store := newFakeStore()
	seedDraws(t, store)
	server := newTestServer(store)
	handler := server.Handler()

	// all模式：所有给定号码都要出现
	rec := doJSON(t, handler, "GET", "/api/draws/search?numbers=1,2,3&mode=all", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Results []struct {
			ContestNumber int64 `json:"contest_number"`
			Matches       []int `json:"matches"`
		} `json:"results"`
		Total int `json:"total"`
	}
	decodeBody(t, rec, &resp)
	assert.Equal(t, 2, resp.Total)

	// any模式：任一号码出现即命中
	rec = doJSON(t, handler, "GET", "/api/draws/search?numbers=5,30&mode=any", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	decodeBody(t, rec, &resp)
	assert.Equal(t, 3, resp.Total)

	rec = doJSON(t, handler, "GET", "/api/draws/search?numbers=abc", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(t, handler, "GET", "/api/draws/search", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSimulate(t *testing.T) {
	store := newFakeStore()
	seedDraws(t, store)
	server := newTestServer(store)
	handler := server.Handler()

	rec := doJSON(t, handler, "GET", "/api/simulate?numbers=1,2,3,10,20,30", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Results []lottery.MatchResult `json:"results"`
		Total   int                   `json:"total"`
	}
	decodeBody(t, rec, &resp)

	// concurso 101 命中6个，concurso 100 命中3个，concurso 102 命中0个被过滤
	require.Equal(t, 2, resp.Total)
	assert.Equal(t, int64(101), resp.Results[0].ContestNumber)
	assert.Equal(t, 6, resp.Results[0].HitCount)
	assert.Equal(t, int64(100), resp.Results[1].ContestNumber)
	assert.Equal(t, 3, resp.Results[1].HitCount)
}

func TestSimulateRejectsInvalidSize(t *testing.T) {
	server := newTestServer(newFakeStore())
	handler := server.Handler()

	rec := doJSON(t, handler, "GET", "/api/simulate?numbers=1,2,3,4,5", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// 16个号码超出投注上限
	nums := make([]string, 16)
	for i := range nums {
		nums[i] = fmt.Sprintf("%d", i+1)
	}
	rec = doJSON(t, handler, "GET", "/api/simulate?numbers="+strings.Join(nums, ","), nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestConference(t *testing.T) {
	store := newFakeStore()
	seedDraws(t, store)
	store.games = []database.GeneratedGame{
		{ID: 1, Date: "2023-11-01 10:00:00", Numbers: "1,2,3,4,5,6", IsBet: true},
		{ID: 2, Date: "2023-11-01 10:00:00", Numbers: "1,2,3,40,50,60", IsBet: false},
		{ID: 3, Date: "2023-11-01 10:00:00", Numbers: "7,8,9,10,11,12", IsBet: false},
	}
	server := newTestServer(store)
	handler := server.Handler()

	rec := doJSON(t, handler, "GET", "/api/draws/100/conference?min_hits=3", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Draw    DrawView              `json:"draw"`
		Results []lottery.MatchResult `json:"results"`
	}
	decodeBody(t, rec, &resp)

	assert.Equal(t, int64(100), resp.Draw.ContestNumber)
	require.Len(t, resp.Results, 2)
	assert.Equal(t, int64(1), resp.Results[0].GameID)
	assert.Equal(t, 6, resp.Results[0].HitCount)
	assert.Equal(t, "sena", resp.Results[0].Tier)
	assert.Equal(t, int64(2), resp.Results[1].GameID)

	rec = doJSON(t, handler, "GET", "/api/draws/999/conference", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = doJSON(t, handler, "GET", "/api/draws/100/conference?min_hits=7", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestStats(t *testing.T) {
	store := newFakeStore()
	seedDraws(t, store)
	store.games = []database.GeneratedGame{
		{ID: 1, Date: "2023-11-01 10:00:00", Numbers: "1,2,3,4,5,6", IsBet: true},
		{ID: 2, Date: "2023-11-01 10:00:00", Numbers: "1,12,13,14,15,16", IsBet: false},
	}
	server := newTestServer(store)
	handler := server.Handler()

	rec := doJSON(t, handler, "GET", "/api/stats", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Store       database.StoreStats `json:"store"`
		ViradaDraws int                 `json:"virada_draws"`
	}
	decodeBody(t, rec, &resp)

	assert.Equal(t, 2, resp.Store.TotalGames)
	assert.Equal(t, 1, resp.Store.TotalBets)
	assert.Equal(t, 3, resp.Store.TotalDraws)
	assert.Equal(t, 1, resp.ViradaDraws)
}

func TestCombinations(t *testing.T) {
	store := newFakeStore()
	seedDraws(t, store)
	server := newTestServer(store)
	handler := server.Handler()

	rec := doJSON(t, handler, "GET", "/api/stats/combinations?k=3", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		K            int                      `json:"k"`
		Combinations []lottery.FrequencyEntry `json:"combinations"`
		TotalDraws   int                      `json:"total_draws"`
	}
	decodeBody(t, rec, &resp)

	assert.Equal(t, 3, resp.K)
	assert.Equal(t, 3, resp.TotalDraws)
	require.NotEmpty(t, resp.Combinations)
	// (1,2,3) 在两期中出现，排首位
	assert.Equal(t, []int{1, 2, 3}, resp.Combinations[0].Combination)
	assert.Equal(t, 2, resp.Combinations[0].Count)

	rec = doJSON(t, handler, "GET", "/api/stats/combinations?k=6", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestImportDraws(t *testing.T) {
	store := newFakeStore()
	server := newTestServer(store)
	handler := server.Handler()

	csvContent := "Concurso,Data,bola 1,bola 2,bola 3,bola 4,bola 5,bola 6\n" +
		"2001,01/11/2023,4,18,29,37,46,52\n" +
		"2002,04/11/2023,4,18,bad,37,46,52\n" +
		"2001,01/11/2023,4,18,29,37,46,52\n"

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile("file", "draws.csv")
	require.NoError(t, err)
	_, err = part.Write([]byte(csvContent))
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	req := httptest.NewRequest("POST", "/api/draws/import", &buf)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Added   int `json:"added"`
		Skipped int `json:"skipped"`
	}
	decodeBody(t, rec, &resp)
	assert.Equal(t, 1, resp.Added)
	assert.Equal(t, 2, resp.Skipped)
	require.Len(t, store.draws, 1)
	assert.Equal(t, "2023-11-01", store.draws[0].Date)
}

func TestSyncWithoutClient(t *testing.T) {
	server := newTestServer(newFakeStore())
	rec := doJSON(t, server.Handler(), "POST", "/api/draws/sync", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
