package grid

import (
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// ErrInvalidSnapshot is wrapped by every DecodeSnapshot failure.
var ErrInvalidSnapshot = errors.New("invalid snapshot")

//go:embed snapshot.schema.json
var snapshotSchemaJSON string

var (
	snapshotSchema     *jsonschema.Schema
	snapshotSchemaErr  error
	snapshotSchemaOnce sync.Once
)

func compiledSnapshotSchema() (*jsonschema.Schema, error) {
	snapshotSchemaOnce.Do(func() {
		snapshotSchema, snapshotSchemaErr = jsonschema.CompileString("snapshot.schema.json", snapshotSchemaJSON)
	})
	return snapshotSchema, snapshotSchemaErr
}

// Snapshot is everything the hosting engine hands the agent for one turn.
type Snapshot struct {
	Turn  int
	Team  Team
	Money float64
	Grid  *Grid
}

type wireStructure struct {
	Team string `json:"team"`
	Type string `json:"type"`
}

type wireCell struct {
	Passability float64        `json:"passability"`
	Population  int            `json:"population,omitempty"`
	Structure   *wireStructure `json:"structure,omitempty"`
}

type wireGrid struct {
	Width  int        `json:"width"`
	Height int        `json:"height"`
	Cells  []wireCell `json:"cells"`
}

type wireSnapshot struct {
	Turn  int      `json:"turn"`
	Team  string   `json:"team"`
	Money float64  `json:"money"`
	Grid  wireGrid `json:"grid"`
}

// DecodeSnapshot validates raw snapshot JSON against the embedded schema and
// builds the grid. Cells are row-major: index y*width+x.
func DecodeSnapshot(data []byte) (*Snapshot, error) {
	schema, err := compiledSnapshotSchema()
	if err != nil {
		return nil, fmt.Errorf("compile snapshot schema: %w", err)
	}

	var doc any
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSnapshot, err)
	}
	if err := schema.Validate(doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSnapshot, err)
	}

	var w wireSnapshot
	if err := json.Unmarshal(data, &w); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSnapshot, err)
	}
	if len(w.Grid.Cells) != w.Grid.Width*w.Grid.Height {
		return nil, fmt.Errorf("%w: %d cells for a %dx%d grid", ErrInvalidSnapshot, len(w.Grid.Cells), w.Grid.Width, w.Grid.Height)
	}

	g := New(w.Grid.Width, w.Grid.Height)
	for i, wc := range w.Grid.Cells {
		c := &g.cells[i]
		c.Passability = wc.Passability
		c.Population = wc.Population
		if wc.Structure != nil {
			t, err := ParseStructureType(wc.Structure.Type)
			if err != nil {
				return nil, fmt.Errorf("%w: cell %s: %v", ErrInvalidSnapshot, g.PointAt(i), err)
			}
			c.Structure = &Structure{Team: Team(wc.Structure.Team), Type: t}
		}
	}

	return &Snapshot{
		Turn:  w.Turn,
		Team:  Team(w.Team),
		Money: w.Money,
		Grid:  g,
	}, nil
}

// EncodeSnapshot serializes a snapshot to the same JSON DecodeSnapshot reads.
func EncodeSnapshot(s *Snapshot) ([]byte, error) {
	w := wireSnapshot{
		Turn:  s.Turn,
		Team:  string(s.Team),
		Money: s.Money,
		Grid: wireGrid{
			Width:  s.Grid.Width,
			Height: s.Grid.Height,
			Cells:  make([]wireCell, len(s.Grid.cells)),
		},
	}
	for i, c := range s.Grid.cells {
		wc := wireCell{Passability: c.Passability, Population: c.Population}
		if c.Structure != nil {
			wc.Structure = &wireStructure{Team: string(c.Structure.Team), Type: c.Structure.Type.String()}
		}
		w.Grid.Cells[i] = wc
	}
	return json.Marshal(w)
}
