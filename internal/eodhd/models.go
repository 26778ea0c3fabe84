package eodhd

import (
	"time"
)

// EODData is one daily bar from /eod. Only the fields the history
// endpoint consumes are decoded.
type EODData struct {
	Date          time.Time `json:"-"`
	DateStr       string    `json:"date"`
	Close         float64   `json:"close"`
	AdjustedClose float64   `json:"adjusted_close"`
	Volume        int64     `json:"volume"`
}

// EODResponse is the /eod payload, oldest bar first unless ordered otherwise
type EODResponse []EODData

// NewsItem is one article from /news. Date is parsed from DateStr when
// the provider sends a recognisable timestamp.
type NewsItem struct {
	Date    time.Time `json:"-"`
	DateStr string    `json:"date"`
	Title   string    `json:"title"`
	Content string    `json:"content"`
	Link    string    `json:"link"`
	Symbols []string  `json:"symbols"`
}

// NewsResponse is the /news payload
type NewsResponse []NewsItem
