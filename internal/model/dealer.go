package model

type Dealer struct {
	DealerID   string `json:"dealerId"`
	DealerName string `json:"dealerName"`
	Address    string `json:"address"`
	City       string `json:"city"`
}
