package core

import "fmt"

// CellType is the terrain of a cell. It never changes after map generation.
type CellType uint8

const (
	Water CellType = iota
	Land
)

func (t CellType) String() string {
	if t == Land {
		return "land"
	}
	return "water"
}

// MarshalText encodes the terrain as "land" or "water".
func (t CellType) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// BuildingType identifies the structure standing on a cell.
type BuildingType uint8

const (
	BuildingNone BuildingType = iota
	BuildingCity
	BuildingPort
	BuildingOutpost
	BuildingBarracks
)

// AllBuildings lists every constructible building type.
var AllBuildings = []BuildingType{BuildingCity, BuildingPort, BuildingOutpost, BuildingBarracks}

func (b BuildingType) String() string {
	switch b {
	case BuildingCity:
		return "city"
	case BuildingPort:
		return "port"
	case BuildingOutpost:
		return "outpost"
	case BuildingBarracks:
		return "barracks"
	default:
		return ""
	}
}

// ParseBuilding converts a wire name to a BuildingType.
func ParseBuilding(s string) (BuildingType, error) {
	switch s {
	case "city":
		return BuildingCity, nil
	case "port":
		return BuildingPort, nil
	case "outpost":
		return BuildingOutpost, nil
	case "barracks":
		return BuildingBarracks, nil
	default:
		return BuildingNone, fmt.Errorf("%q: %w", s, ErrUnknownBuilding)
	}
}

// MarshalText encodes the building by name; BuildingNone encodes as "".
func (b BuildingType) MarshalText() ([]byte, error) {
	return []byte(b.String()), nil
}

// UnmarshalText accepts the names produced by MarshalText.
func (b *BuildingType) UnmarshalText(text []byte) error {
	if len(text) == 0 {
		*b = BuildingNone
		return nil
	}
	parsed, err := ParseBuilding(string(text))
	if err != nil {
		return err
	}
	*b = parsed
	return nil
}

// NoOwner marks an unowned cell.
const NoOwner = ""

// Cell is one grid unit.
// Owner is an actor id or NoOwner; only land cells may be owned, and a
// building requires an owner.
type Cell struct {
	X, Y     int
	Type     CellType
	Owner    string
	Troops   float64
	Building BuildingType
}

func (c *Cell) IsLand() bool      { return c.Type == Land }
func (c *Cell) IsOwned() bool     { return c.Owner != NoOwner }
func (c *Cell) HasBuilding() bool { return c.Building != BuildingNone }

// OwnedBy reports whether actorID owns the cell. NoOwner never owns anything.
func (c *Cell) OwnedBy(actorID string) bool {
	return actorID != NoOwner && c.Owner == actorID
}

// Coord returns the cell position.
func (c *Cell) Coord() Coordinate { return Coordinate{X: c.X, Y: c.Y} }

// Release returns the cell to the unowned state.
func (c *Cell) Release() {
	c.Owner = NoOwner
	c.Troops = 0
	c.Building = BuildingNone
}
