package featureflag

type Flag string

const (
	// FlagStrictPortalTraversal makes interiors only visit the zones seen
	// through their portals instead of flooding all their zones.
	FlagStrictPortalTraversal Flag = "STRICT_PORTAL_TRAVERSAL"

	FlagDisableOccluders    Flag = "DISABLE_OCCLUDERS"
	FlagCullEditorOverrides Flag = "CULL_EDITOR_OVERRIDES"
	FlagDisableStereo       Flag = "DISABLE_STEREO"
	FlagDisableZoneAmbient  Flag = "DISABLE_ZONE_AMBIENT"
)
