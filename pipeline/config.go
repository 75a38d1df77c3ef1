package pipeline

import (
	"github.com/royalcat/pointpattern/loader"
	"github.com/royalcat/pointpattern/patterns"
	"github.com/royalcat/pointpattern/projection"
	"github.com/royalcat/pointpattern/ripley"
)

type Config struct {
	OutputDir string
	// Formats lists the figure file extensions written for every figure.
	Formats []string

	Loader loader.Config
	// PrjWKT is written next to the exported shapefile.
	PrjWKT string
	// CountAttribute adds per-category counts when set, e.g. "Crime type".
	CountAttribute string

	Synthetic SyntheticConfig

	// Bandwidth of the density kernel in CRS units. Zero selects Scott's rule.
	Bandwidth float64
	GridCols  int
	GridRows  int

	Correction  ripley.Correction
	RipleySteps int
	// Simulations of CSR for the K envelope. Zero disables the envelope.
	Simulations int

	Seed     uint64
	Progress bool
}

type SyntheticConfig struct {
	Count   int
	Cluster patterns.ClusterOptions
	// HardCoreDistance adds an inhibition pattern when positive.
	HardCoreDistance float64
}

func ConfigDefault() Config {
	return Config{
		OutputDir: "output",
		Formats:   []string{"png", "pdf"},
		Loader: loader.Config{
			CSV:          loader.CSVOptionsDefault(),
			Fine:         loader.BoundaryOptions{IDField: "LSOA21CD", Attributes: []string{"LSOA21NM"}},
			Coarse:       loader.BoundaryOptions{IDField: "LAD22CD", Attributes: []string{"LAD22NM"}},
			TargetCRS:    projection.BritishNationalGrid(),
			SnapshotPath: "output/snapshot.bin.zst",
		},
		PrjWKT:         projection.BritishNationalGridWKT,
		CountAttribute: "Crime type",
		Synthetic: SyntheticConfig{
			Count: 100,
			Cluster: patterns.ClusterOptions{
				Clusters: 10,
				Radius:   0.05,
				Buffer:   1,
			},
			HardCoreDistance: 0.05,
		},
		GridCols:    200,
		GridRows:    200,
		Correction:  ripley.Border,
		RipleySteps: 50,
		Simulations: 19,
		Seed:        1,
	}
}
