package importer

import "github.com/roguemon/server/internal/game/dex"

// AreaData is the YAML shape of one world content file. Each file declares
// one area plus its trainers; connections reference other areas by slug so
// files stay stable when the database assigns fresh IDs.
type AreaData struct {
	Area AreaSpec `yaml:"area"`
}

// AreaSpec holds one area's data.
type AreaSpec struct {
	// Slug is the stable identifier other files use in connections.
	Slug        string               `yaml:"slug"`
	Name        string               `yaml:"name"`
	Description string               `yaml:"description"`
	Connections []string             `yaml:"connections,omitempty"`
	Encounters  []dex.EncounterEntry `yaml:"encounters,omitempty"`
	Trainers    []TrainerSpec        `yaml:"trainers,omitempty"`
}

// TrainerSpec holds one trainer's data.
type TrainerSpec struct {
	Name  string            `yaml:"name"`
	Party []PartyMemberSpec `yaml:"party"`
}

// PartyMemberSpec is one member of a trainer's party.
type PartyMemberSpec struct {
	SpeciesID int `yaml:"species_id"`
	Level     int `yaml:"level"`
}
