package reso

import "encoding/json"

// envelope is the OData page wrapper. Records stay raw so one bad record
// cannot fail the batch.
type envelope struct {
	Value []json.RawMessage `json:"value"`
}

type rawMedia struct {
	MediaKey      stringNumber `json:"MediaKey"`
	MediaURL      string       `json:"MediaURL"`
	MediaCategory string       `json:"MediaCategory"`
}

// Field names as delivered by the property resource.
const (
	fieldKey         = "ListingKey"
	fieldPrice       = "ListPrice"
	fieldStatus      = "MlsStatus"
	fieldBeds        = "BedroomsTotal"
	fieldBaths       = "BathroomsTotalInteger"
	fieldArea        = "BuildingAreaTotal"
	fieldAgent       = "ListAgentFullName"
	fieldRemarks     = "PublicRemarks"
	fieldModel       = "Model"
	fieldAddress     = "UnparsedAddress"
	fieldCity        = "City"
	fieldState       = "StateOrProvince"
	fieldPostal      = "PostalCode"
	fieldLat         = "Latitude"
	fieldLon         = "Longitude"
	fieldMedia       = "Media"
	fieldAmenities   = "AssociationAmenities"
	fieldCommunity   = "CommunityFeatures"
	fieldLotFeatures = "LotFeatures"
	fieldDisclosures = "Disclosures"
)
