package models

type EventStats struct {
	ParticipantsTotal int `json:"participants_total"`
	CheckedInTotal    int `json:"checked_in_total"`
	WinnersTotal      int `json:"winners_total"`
	PrizesTotal       int `json:"prizes_total"`
	PrizeStockLeft    int `json:"prize_stock_left"`
}
