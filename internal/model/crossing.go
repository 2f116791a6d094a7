package model

// Crossing records one vehicle counted by a counter run.
type Crossing struct {
	ID     int64  `json:"id"`
	RunID  string `json:"run_id"`
	Frame  int    `json:"frame"`
	X      int    `json:"x"`
	Y      int    `json:"y"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
	Total  int    `json:"total"`
}
