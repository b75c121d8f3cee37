package graph

// BaseConsumption is the per-kilometre fuel draw of an unloaded reference
// vehicle on a free-flowing road. Congestion and vehicle mass scale it up.
const BaseConsumption = 0.1

// ReferenceVehicleWeightKg is the vehicle mass at which the weight factor
// of the fuel formula is neutral.
const ReferenceVehicleWeightKg = 1500.0

// Edge is a directed road segment. Weight is the current travel time;
// InitialWeight is the baseline fixed at graph build and never mutated.
// Edges are created in both directions during construction but the two
// directions evolve independently under traffic.
type Edge struct {
	From          int
	To            int
	Weight        float64
	InitialWeight float64
	Distance      float64
}

// FuelConsumption derives the fuel needed to traverse the edge for a
// vehicle of the given mass. Congestion (current weight above baseline)
// and mass above the reference both increase consumption.
func (e *Edge) FuelConsumption(vehicleWeightKg float64) float64 {
	return FuelConsumption(e.Distance, e.Weight, e.InitialWeight, vehicleWeightKg)
}

// FuelConsumption is the pure fuel formula:
//
//	distance × base × (1 + max(0, (w − w0)/10)) × (1 + 0.01 × (mass − 1500)/100)
func FuelConsumption(distanceKm, weight, initialWeight, vehicleWeightKg float64) float64 {
	congestion := (weight - initialWeight) / 10
	if congestion < 0 {
		congestion = 0
	}
	massFactor := 1 + 0.01*(vehicleWeightKg-ReferenceVehicleWeightKg)/100
	return distanceKm * BaseConsumption * (1 + congestion) * massFactor
}
