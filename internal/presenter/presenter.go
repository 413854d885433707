// Package presenter turns an observation snapshot into display text.
package presenter

import (
	"fmt"
	"time"

	"github.com/fakhrymubarak/gyeonggi-weather/internal/model"
)

const (
	// Placeholder stands in for any missing numeric value.
	Placeholder = "--"
	// NoData is shown for conditions we cannot map and for the rain probability,
	// which the nowcast endpoint does not carry.
	NoData = "정보없음"
)

// Condition is the label and icon class shown for a condition code.
type Condition struct {
	Label string
	Icon  string
}

// SKY codes and PTY codes share this table.
var conditions = map[string]Condition{
	"1": {Label: "맑음", Icon: "fas fa-sun"},
	"3": {Label: "구름많음", Icon: "fas fa-cloud-sun"},
	"4": {Label: "흐림", Icon: "fas fa-cloud"},
	"5": {Label: "비", Icon: "fas fa-cloud-rain"},
	"6": {Label: "눈비", Icon: "fas fa-cloud-rain"},
	"7": {Label: "눈", Icon: "fas fa-snowflake"},
}

var unknownCondition = Condition{Label: NoData, Icon: "fas fa-question"}

// LookupCondition maps a code to its condition; unknown codes map to NoData.
func LookupCondition(code string) Condition {
	if c, ok := conditions[code]; ok {
		return c
	}
	return unknownCondition
}

// ConditionCode picks PTY when it is present and not "0", SKY otherwise.
func ConditionCode(obs model.Observation) string {
	if pty, ok := obs.Value(model.CategoryPrecipitation); ok && pty != "0" {
		return pty
	}
	sky, _ := obs.Value(model.CategorySky)
	return sky
}

// Render writes the snapshot for city into vm and switches vm to the result view.
func Render(vm *model.ViewModel, obs model.Observation, city string, now time.Time) {
	temperature := valueOr(obs, model.CategoryTemperature)
	condition := LookupCondition(ConditionCode(obs))

	vm.CityName = city
	vm.UpdateTime = FormatUpdateTime(now)
	vm.Temperature = temperature
	vm.Humidity = valueOr(obs, model.CategoryHumidity) + "%"
	vm.WindSpeed = valueOr(obs, model.CategoryWindSpeed) + " m/s"
	vm.Condition = condition.Label
	vm.Icon = condition.Icon
	// Feels-like is the air temperature; no wind chill or heat index is applied.
	vm.FeelsLike = temperature + "°C"
	vm.RainProb = NoData

	vm.LoadingVisible = false
	vm.ErrorVisible = false
	vm.ResultVisible = true
}

// FormatUpdateTime renders "2026년 10월 19일 14:05 기준".
func FormatUpdateTime(now time.Time) string {
	return fmt.Sprintf("%d년 %d월 %d일 %02d:%02d 기준",
		now.Year(), int(now.Month()), now.Day(), now.Hour(), now.Minute())
}

func valueOr(obs model.Observation, category string) string {
	if v, ok := obs.Value(category); ok && v != "" {
		return v
	}
	return Placeholder
}
