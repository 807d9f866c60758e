package seller

import "time"

// Telemetry is the latest IoT quality reading reported by a farm's cooler.
type Telemetry struct {
	TempCelsius float64   `json:"temp_celsius"`
	Quality     string    `json:"quality"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Seller is one farm listing on the storefront.
type Seller struct {
	ID          int       `json:"id"`
	Name        string    `json:"name"`
	DistanceKm  float64   `json:"distance_km"`
	MilkType    string    `json:"milk_type"`
	Description string    `json:"description"`
	Price       float64   `json:"price"`
	Rating      float64   `json:"rating"`
	Tags        []string  `json:"tags"`
	Verified    bool      `json:"verified"`
	Telemetry   Telemetry `json:"iot"`
}
