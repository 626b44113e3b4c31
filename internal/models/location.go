package models

// LocationResult is returned by the location check backend.
type LocationResult struct {
	IsRestricted bool   `json:"is_restricted"`
	Country      string `json:"country,omitempty"`
	RegionName   string `json:"region_name,omitempty"`
	Message      string `json:"message,omitempty"`
}
