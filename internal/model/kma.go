package model

// Result codes of the data.go.kr envelope.
const (
	ResultCodeOK     = "00"
	ResultCodeNoData = "03"
)

// Observation category codes used by the widget.
const (
	CategoryTemperature   = "T1H" // °C
	CategoryHumidity      = "REH" // %
	CategoryWindSpeed     = "WSD" // m/s
	CategorySky           = "SKY"
	CategoryPrecipitation = "PTY"
)

// NcstResponse is the getUltraSrtNcst JSON envelope.
type NcstResponse struct {
	Response *struct {
		Header *struct {
			ResultCode string `json:"resultCode"`
			ResultMsg  string `json:"resultMsg"`
		} `json:"header"`
		Body struct {
			DataType string `json:"dataType"`
			Items    struct {
				Item []NcstItem `json:"item"`
			} `json:"items"`
			PageNo     int `json:"pageNo"`
			NumOfRows  int `json:"numOfRows"`
			TotalCount int `json:"totalCount"`
		} `json:"body"`
	} `json:"response"`
}

// NcstItem is one observed category.
type NcstItem struct {
	BaseDate  string `json:"baseDate"`
	BaseTime  string `json:"baseTime"`
	Category  string `json:"category"`
	NX        int    `json:"nx"`
	NY        int    `json:"ny"`
	ObsrValue string `json:"obsrValue"`
}
