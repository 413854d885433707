package model

// Observation is the category -> value snapshot of one successful fetch.
type Observation map[string]string

// NewObservation indexes items by category. A repeated category keeps the last value.
func NewObservation(items []NcstItem) Observation {
	obs := make(Observation, len(items))
	for _, item := range items {
		obs[item.Category] = item.ObsrValue
	}
	return obs
}

// Value returns the observed value and whether the category was present.
func (o Observation) Value(category string) (string, bool) {
	v, ok := o[category]
	return v, ok
}
