// Package config loads the engine's YAML configuration: the synonym table
// and seed catalog data for bootstrap.
package config

import (
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/findfood/engine/pkg/findfood/catalog"
	"github.com/findfood/engine/pkg/findfood/terms"
)

// SynonymEntry is one synonym-table row.
type SynonymEntry struct {
	Key        string   `yaml:"key"`
	Alternates []string `yaml:"alternates"`
}

// LoadSynonyms loads a synonym table from a YAML file.
//
// Expected format:
//
//	synonyms:
//	  - key: чизкейк
//	    alternates: [десерт, сладкое, торт]
func LoadSynonyms(path string) (*terms.Synonyms, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg struct {
		Synonyms []SynonymEntry `yaml:"synonyms"`
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	syn := terms.NewSynonyms()
	for _, e := range cfg.Synonyms {
		syn.Add(e.Key, e.Alternates...)
	}
	return syn, nil
}

// SeedItem is one catalog entry in a seed file. Tags and keywords are
// lists in YAML and joined to the catalog's comma-separated text form.
type SeedItem struct {
	Kind        string   `yaml:"kind"`
	Title       string   `yaml:"title"`
	Description string   `yaml:"description"`
	Ingredients string   `yaml:"ingredients"`
	Steps       string   `yaml:"steps"`
	City        string   `yaml:"city"`
	Address     string   `yaml:"address"`
	Cuisine     string   `yaml:"cuisine"`
	Category    string   `yaml:"category"`
	Tags        []string `yaml:"tags"`
	Keywords    []string `yaml:"keywords"`
	Popularity  int64    `yaml:"popularity"`
}

// Seed is the seed-file root.
type Seed struct {
	Items []SeedItem `yaml:"items"`
}

// LoadSeed loads seed catalog data from a YAML file.
func LoadSeed(path string) (*Seed, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var seed Seed
	if err := yaml.Unmarshal(data, &seed); err != nil {
		return nil, err
	}
	return &seed, nil
}

// Item converts a seed entry to a catalog item.
func (si SeedItem) Item() catalog.Item {
	kind := catalog.Kind(strings.TrimSpace(strings.ToLower(si.Kind)))
	if kind != catalog.KindVenue {
		kind = catalog.KindRecipe
	}
	return catalog.Item{
		Kind:        kind,
		Title:       si.Title,
		Description: si.Description,
		Ingredients: si.Ingredients,
		Steps:       si.Steps,
		City:        si.City,
		Address:     si.Address,
		Cuisine:     si.Cuisine,
		Category:    strings.ToLower(strings.TrimSpace(si.Category)),
		Tags:        strings.Join(si.Tags, ", "),
		Keywords:    strings.Join(si.Keywords, ", "),
		Popularity:  si.Popularity,
	}
}
