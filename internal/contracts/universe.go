package contracts

import "time"

// Universe is the ordered, de-duplicated ticker list for one scan
// ⭐ SSOT: S1 → 스캔 대상 종목 전달
type Universe struct {
	Date    time.Time      `json:"date"`
	Tickers []string       `json:"tickers"`
	Sources map[string]int `json:"sources"` // source name: tickers contributed
}

// Contains checks if a ticker is in the universe
func (u *Universe) Contains(ticker string) bool {
	for _, t := range u.Tickers {
		if t == ticker {
			return true
		}
	}
	return false
}

// Count returns the number of tickers
func (u *Universe) Count() int {
	return len(u.Tickers)
}
