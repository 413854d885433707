// Package grid holds the KMA forecast-grid coordinates of the supported
// Gyeonggi-do cities.
package grid

import "fmt"

// Coord is a cell of the KMA Lambert conformal grid.
type Coord struct {
	NX int `json:"nx"`
	NY int `json:"ny"`
}

// City pairs a display name with its grid cell.
type City struct {
	Name  string `json:"name"`
	Coord Coord  `json:"coord"`
}

// UnknownCityError is returned when a name is not in the table.
type UnknownCityError struct {
	Name string
}

func (e *UnknownCityError) Error() string {
	return fmt.Sprintf("unknown city: %q", e.Name)
}

// cities keeps selector order; coords is the lookup index built from it.
var cities = []City{
	{Name: "수원시", Coord: Coord{NX: 60, NY: 121}},
	{Name: "고양시", Coord: Coord{NX: 57, NY: 128}},
	{Name: "용인시", Coord: Coord{NX: 64, NY: 119}},
	{Name: "성남시", Coord: Coord{NX: 63, NY: 124}},
	{Name: "부천시", Coord: Coord{NX: 56, NY: 125}},
	{Name: "화성시", Coord: Coord{NX: 57, NY: 119}},
	{Name: "안산시", Coord: Coord{NX: 58, NY: 121}},
	{Name: "안양시", Coord: Coord{NX: 59, NY: 123}},
	{Name: "평택시", Coord: Coord{NX: 62, NY: 114}},
	{Name: "시흥시", Coord: Coord{NX: 57, NY: 123}},
}

var coords = func() map[string]Coord {
	m := make(map[string]Coord, len(cities))
	for _, c := range cities {
		m[c.Name] = c.Coord
	}
	return m
}()

// Lookup returns the grid cell for name.
func Lookup(name string) (Coord, error) {
	c, ok := coords[name]
	if !ok {
		return Coord{}, &UnknownCityError{Name: name}
	}
	return c, nil
}

// Cities returns a copy of the table in selector order.
func Cities() []City {
	out := make([]City, len(cities))
	copy(out, cities)
	return out
}

// Names returns the city names in selector order.
func Names() []string {
	names := make([]string, 0, len(cities))
	for _, c := range cities {
		names = append(names, c.Name)
	}
	return names
}
