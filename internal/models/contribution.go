package models

// ContributionDay is one cell of the yearly heat map
type ContributionDay struct {
	Date  string `json:"date"`
	Count int    `json:"count"`
	Level int    `json:"level"` // 0-4
}

// ContributionYear is the heat map for a calendar year in chronological order
type ContributionYear struct {
	Year               int               `json:"year"`
	TotalContributions int               `json:"total_contributions"`
	Data               []ContributionDay `json:"data"`
}
