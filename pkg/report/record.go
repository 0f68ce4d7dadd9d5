package report

import "encoding/json"

// Record is one agency as returned by the listings API. Only the fields the
// classifier reads are modelled.
type Record struct {
	Locations      []Location      `json:"locations"`
	AgencyServices []AgencyService `json:"agencyService"`
}

// Location is an agency office location.
type Location struct {
	Country *Country `json:"country,omitempty"`
}

// Country identifies a location's country.
type Country struct {
	Code string `json:"code"`
}

// AgencyService links an agency to a service.
type AgencyService struct {
	Service *Service `json:"service,omitempty"`
}

// Service is a single offered service.
type Service struct {
	ServiceGroup *ServiceGroup `json:"serviceGroup,omitempty"`
}

// ServiceGroup is the category a service belongs to.
type ServiceGroup struct {
	Name string `json:"name"`
}

// CountryCode returns the location's country code, or "" when absent.
func (l Location) CountryCode() string {
	if l.Country == nil {
		return ""
	}
	return l.Country.Code
}

// GroupName returns the service's group name, or "" when absent.
func (s AgencyService) GroupName() string {
	if s.Service == nil || s.Service.ServiceGroup == nil {
		return ""
	}
	return s.Service.ServiceGroup.Name
}

// UnmarshalJSON decodes a record field by field. A field that is missing or
// has an unexpected shape decodes as an empty list instead of failing the
// whole page; a record that is not an object decodes as an empty record.
func (r *Record) UnmarshalJSON(data []byte) error {
	*r = Record{}

	var raw struct {
		Locations      json.RawMessage `json:"locations"`
		AgencyServices json.RawMessage `json:"agencyService"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil
	}

	if len(raw.Locations) > 0 {
		var locations []Location
		if err := json.Unmarshal(raw.Locations, &locations); err == nil {
			r.Locations = locations
		}
	}
	if len(raw.AgencyServices) > 0 {
		var services []AgencyService
		if err := json.Unmarshal(raw.AgencyServices, &services); err == nil {
			r.AgencyServices = services
		}
	}
	return nil
}
