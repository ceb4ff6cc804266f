package lottery

import "time"

// ViradaStartYear Mega da Virada自2009年起于每年12月31日举行
const ViradaStartYear = 2009

// IsMegaDaVirada 判断日期字符串（YYYY-MM-DD）是否为Mega da Virada特别开奖。
// 无法解析的日期视为普通开奖，不作为错误处理。
func IsMegaDaVirada(dateStr string) bool {
	date, err := time.Parse("2006-01-02", dateStr)
	if err != nil {
		return false
	}
	return IsMegaDaViradaDate(date)
}

// IsMegaDaViradaDate 判断日期是否为Mega da Virada特别开奖
func IsMegaDaViradaDate(date time.Time) bool {
	return date.Month() == time.December && date.Day() == 31 && date.Year() >= ViradaStartYear
}
