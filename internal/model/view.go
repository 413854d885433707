package model

// ViewModel is the display surface the presenter and the view state
// controller write into.
type ViewModel struct {
	CityName    string `json:"cityName"`
	UpdateTime  string `json:"updateTime"`
	Temperature string `json:"temperature"`
	Humidity    string `json:"humidity"`
	WindSpeed   string `json:"windSpeed"`
	Condition   string `json:"condition"`
	Icon        string `json:"icon"`
	FeelsLike   string `json:"feelsLike"`
	RainProb    string `json:"rainProb"`

	LoadingVisible bool `json:"loadingVisible"`
	ResultVisible  bool `json:"resultVisible"`
	ErrorVisible   bool `json:"errorVisible"`
	FetchEnabled   bool `json:"fetchEnabled"`
}
