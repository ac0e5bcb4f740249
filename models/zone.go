package models

import "fmt"

// ZoneID is a global zone id. Ids are stable for as long as the zone space
// owning them stays registered.
type ZoneID uint32

const (
	// RootZoneID is the id of the always present outdoor zone.
	RootZoneID ZoneID = 0

	// InvalidZoneID is returned by lookups that did not resolve to a zone.
	InvalidZoneID ZoneID = 0xFFFFFFFF

	// MaxObjectZones is the maximum number of zones an object is tracked in.
	MaxObjectZones = 8
)

func (id ZoneID) IsValid() bool {
	return id != InvalidZoneID
}

func (id ZoneID) String() string {
	switch id {
	case RootZoneID:
		return "root"
	case InvalidZoneID:
		return "invalid"
	default:
		return fmt.Sprintf("zone-%d", uint32(id))
	}
}
