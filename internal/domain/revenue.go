package domain

import "time"

type RevenueBucket struct {
	Key          string `json:"key"`
	Count        int64  `json:"count"`
	Gross        int64  `json:"gross"`
	PlatformFees int64  `json:"platformFees"`
}

type DailyRevenue struct {
	Day   time.Time `json:"day"`
	Count int64     `json:"count"`
	Gross int64     `json:"gross"`
}

type RevenueReport struct {
	Currency     string          `json:"currency"`
	From         time.Time       `json:"from"`
	To           time.Time       `json:"to"`
	GrossRevenue int64           `json:"grossRevenue"`
	PlatformFees int64           `json:"platformFees"`
	ServiceFees  int64           `json:"serviceFees"`
	Taxes        int64           `json:"taxes"`
	ByType       []RevenueBucket `json:"byType"`
	ByStatus     []RevenueBucket `json:"byStatus"`
	Daily        []DailyRevenue  `json:"daily"`
}
