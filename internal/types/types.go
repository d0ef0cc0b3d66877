package types

// SectorChange is one row of the sector gainers/losers tables.
type SectorChange struct {
	Name          string  `json:"name"`
	PercentChange float64 `json:"percentChange"`
}

type SectorPerformance struct {
	TopGainers []SectorChange `json:"topGainers"`
	TopLosers  []SectorChange `json:"topLosers"`
}

// SectorVolume is a sector's traded volume ratio over a date range.
type SectorVolume struct {
	Sector      string  `json:"sector"`
	VolumeRatio float64 `json:"volumeRatio"`
}

type SectorVolumeRatio struct {
	TopSectors    []SectorVolume `json:"topSectors"`
	BottomSectors []SectorVolume `json:"bottomSectors"`
}

// StockChange mirrors the NSE Nifty 50 movers payload, field names included.
type StockChange struct {
	Symbol        string  `json:"Symbol"`
	PercentChange float64 `json:"%Chng"`
}

type StockPerformance struct {
	TopGainers []StockChange `json:"topGainers"`
	TopLosers  []StockChange `json:"topLosers"`
}

type StockVolume struct {
	Symbol           string  `json:"symbol"`
	VolumeDifference float64 `json:"volumeDifference"`
}

// BhavcopyRow is one security's end-of-day record.
type BhavcopyRow struct {
	Symbol    string  `json:"SYMBOL"`
	Series    string  `json:"SERIES"`
	Open      float64 `json:"OPEN"`
	High      float64 `json:"HIGH"`
	Low       float64 `json:"LOW"`
	Close     float64 `json:"CLOSE"`
	Last      float64 `json:"LAST"`
	PrevClose float64 `json:"PREVCLOSE"`
	Timestamp string  `json:"TIMESTAMP"`
}

type BhavcopyPage struct {
	Data       []BhavcopyRow `json:"data"`
	TotalPages int           `json:"totalPages"`
}

// BhavcopyQuery selects one page of the bhavcopy table. Date is "latest"
// or a DDMMYYYY string; an empty Symbol lists everything.
type BhavcopyQuery struct {
	Symbol string
	Date   string
	Page   int
	Limit  int
}

// DatesRequest is the body of the batch endpoints.
type DatesRequest struct {
	Dates []string `json:"dates"`
}
