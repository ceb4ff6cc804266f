package importer

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"megasena-service/internal/database"
	"megasena-service/internal/logger"
)

// DrawSaver 导入所需的最小存储接口
type DrawSaver interface {
	SaveOfficialDraw(draw *database.OfficialDraw) (bool, error)
}

// Result 一次批量导入的结果
type Result struct {
	Added   int `json:"added"`
	Skipped int `json:"skipped"`
}

// 必需的表头列
var requiredColumns = []string{
	"Concurso", "Data",
	"bola 1", "bola 2", "bola 3", "bola 4", "bola 5", "bola 6",
}

// ImportCSV 从CSV数据源批量导入官方开奖记录。
// 单行解析失败或concurso号重复只计入skipped，不中断批次；
// 数据源本身不可读才返回错误。
func ImportCSV(r io.Reader, store DrawSaver) (*Result, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read header: %v", err)
	}

	columns, err := mapColumns(header)
	if err != nil {
		return nil, err
	}

	result := &Result{}
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			// 行级CSV错误（列数不符等）按坏行跳过
			result.Skipped++
			continue
		}

		draw, ok := parseRow(record, columns)
		if !ok {
			result.Skipped++
			continue
		}

		added, err := store.SaveOfficialDraw(draw)
		if err != nil {
			return result, fmt.Errorf("failed to save contest %d: %v", draw.ContestNumber, err)
		}
		if added {
			result.Added++
		} else {
			result.Skipped++
		}
	}

	logger.Infof("Import completed: %d added, %d skipped", result.Added, result.Skipped)
	return result, nil
}

// mapColumns 校验表头并建立列名到下标的映射
func mapColumns(header []string) (map[string]int, error) {
	columns := make(map[string]int, len(header))
	for i, name := range header {
		columns[strings.TrimSpace(name)] = i
	}

	for _, required := range requiredColumns {
		if _, ok := columns[required]; !ok {
			return nil, fmt.Errorf("missing required column: %s", required)
		}
	}
	return columns, nil
}

// parseRow 解析单行，任何字段不合法即整行作废
func parseRow(record []string, columns map[string]int) (*database.OfficialDraw, bool) {
	contest, err := strconv.ParseInt(strings.TrimSpace(record[columns["Concurso"]]), 10, 64)
	if err != nil || contest < 1 {
		return nil, false
	}

	// 日期为 dd/mm/yyyy 文本格式
	date, err := time.Parse("02/01/2006", strings.TrimSpace(record[columns["Data"]]))
	if err != nil {
		return nil, false
	}

	numbers := make([]int, 0, database.TicketSize)
	for i := 1; i <= database.TicketSize; i++ {
		col := fmt.Sprintf("bola %d", i)
		n, err := strconv.Atoi(strings.TrimSpace(record[columns[col]]))
		if err != nil {
			return nil, false
		}
		numbers = append(numbers, n)
	}

	if err := database.ValidateTicket(numbers, database.TicketSize, database.TicketSize); err != nil {
		return nil, false
	}

	return &database.OfficialDraw{
		ContestNumber: contest,
		Date:          date.Format("2006-01-02"),
		Numbers:       database.FormatNumbers(numbers),
	}, true
}
