package model

import "time"

type HubStats struct {
	TotalCells       int           `json:"total_cells"`
	TotalSubscribers int           `json:"total_subscribers"`
	Delivered        uint64        `json:"delivered"`
	Dropped          uint64        `json:"dropped"`
	Unrouted         uint64        `json:"unrouted"`
	Uptime           time.Duration `json:"uptime"`
	Cells            []CellStats   `json:"cells,omitempty"`
}

type CellStats struct {
	Identity    OperationIdentity `json:"identity"`
	Subscribers int               `json:"subscribers"`
	Pending     int               `json:"pending"`
}
