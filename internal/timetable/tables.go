package timetable

// Fixed record layouts, matching the on-disk format byte for byte. All
// fields are big-endian.
var (
	stationStructure  = newStructure(fieldU16, fieldS32, fieldS32)
	aliasStructure    = newStructure(fieldU16, fieldU16)
	platformStructure = newStructure(fieldU16, fieldU16)
	routeStructure    = newStructure(fieldU16, fieldU8)
	tripStructure     = newStructure(fieldU16, fieldU16)
)

// Field indexes per table.
const (
	stationName = iota
	stationLon
	stationLat
)

const (
	aliasName = iota
	aliasStationName
)

const (
	platformName = iota
	platformStationID
)

const (
	routeName = iota
	routeKind
)

const (
	tripRouteID = iota
	tripDestination
)

// Coordinates are stored as signed 32-bit fractions of a full turn.
const degreesPerUnit = 360.0 / (1 << 32)

// Stations is the view over stations.bin.
type Stations struct {
	v       view
	strings *StringTable
}

// NewStations wraps a stations.bin buffer.
func NewStations(data []byte, strings *StringTable) (Stations, error) {
	v, err := newView(stationStructure, data, "stations")
	if err != nil {
		return Stations{}, err
	}
	return Stations{v: v, strings: strings}, nil
}

// Size returns the number of stations.
func (s Stations) Size() int { return s.v.count() }

// Name returns the station's name.
func (s Stations) Name(id int) string { return s.strings.Get(s.v.u16(stationName, id)) }

// Longitude returns the station's longitude in degrees.
func (s Stations) Longitude(id int) float64 {
	return float64(s.v.s32(stationLon, id)) * degreesPerUnit
}

// Latitude returns the station's latitude in degrees.
func (s Stations) Latitude(id int) float64 {
	return float64(s.v.s32(stationLat, id)) * degreesPerUnit
}

// StationAliases is the view over station-aliases.bin. The journey core
// itself never consults it; it is carried for name-search front ends.
type StationAliases struct {
	v       view
	strings *StringTable
}

// NewStationAliases wraps a station-aliases.bin buffer.
func NewStationAliases(data []byte, strings *StringTable) (StationAliases, error) {
	v, err := newView(aliasStructure, data, "station aliases")
	if err != nil {
		return StationAliases{}, err
	}
	return StationAliases{v: v, strings: strings}, nil
}

// Size returns the number of aliases.
func (a StationAliases) Size() int { return a.v.count() }

// Alias returns the alternative name.
func (a StationAliases) Alias(i int) string { return a.strings.Get(a.v.u16(aliasName, i)) }

// StationName returns the canonical station name the alias maps to.
func (a StationAliases) StationName(i int) string {
	return a.strings.Get(a.v.u16(aliasStationName, i))
}

// Platforms is the view over platforms.bin.
type Platforms struct {
	v       view
	strings *StringTable
}

// NewPlatforms wraps a platforms.bin buffer.
func NewPlatforms(data []byte, strings *StringTable) (Platforms, error) {
	v, err := newView(platformStructure, data, "platforms")
	if err != nil {
		return Platforms{}, err
	}
	return Platforms{v: v, strings: strings}, nil
}

// Size returns the number of platforms.
func (p Platforms) Size() int { return p.v.count() }

// Name returns the platform's own name, often a bare track number.
func (p Platforms) Name(id int) string { return p.strings.Get(p.v.u16(platformName, id)) }

// StationID returns the station the platform belongs to.
func (p Platforms) StationID(id int) int { return p.v.u16(platformStationID, id) }

// Routes is the view over routes.bin.
type Routes struct {
	v       view
	strings *StringTable
}

// NewRoutes wraps a routes.bin buffer.
func NewRoutes(data []byte, strings *StringTable) (Routes, error) {
	v, err := newView(routeStructure, data, "routes")
	if err != nil {
		return Routes{}, err
	}
	return Routes{v: v, strings: strings}, nil
}

// Size returns the number of routes.
func (r Routes) Size() int { return r.v.count() }

// Name returns the route's public name.
func (r Routes) Name(id int) string { return r.strings.Get(r.v.u16(routeName, id)) }

// Kind returns the vehicle kind serving the route.
func (r Routes) Kind(id int) Vehicle { return Vehicle(r.v.u8(routeKind, id)) }

// Trips is the view over one day's trips.bin.
type Trips struct {
	v       view
	strings *StringTable
}

// NewTrips wraps a trips.bin buffer.
func NewTrips(data []byte, strings *StringTable) (Trips, error) {
	v, err := newView(tripStructure, data, "trips")
	if err != nil {
		return Trips{}, err
	}
	return Trips{v: v, strings: strings}, nil
}

// Size returns the number of trips.
func (t Trips) Size() int { return t.v.count() }

// RouteID returns the route the trip runs on.
func (t Trips) RouteID(id int) int { return t.v.u16(tripRouteID, id) }

// Destination returns the headsign shown for the trip.
func (t Trips) Destination(id int) string { return t.strings.Get(t.v.u16(tripDestination, id)) }
