// Package trout generates procedural fish from a Mendelian genetic model
// and keeps a ledger of breeding requests in sync with the generated
// artifacts.
//
// # Packages
//
//   - [github.com/trouthatch/trout/noise]: seeded generator and Perlin noise
//   - [github.com/trouthatch/trout/geom]: polyline kernel (clip, union,
//     resample, simplify, Poisson sampling, textures)
//   - [github.com/trouthatch/trout/genetics]: trait catalog, breeding,
//     spawning and phenotype resolution
//   - [github.com/trouthatch/trout/render]: phenotype to vector drawing,
//     SVG and PNG output
//   - [github.com/trouthatch/trout/cipher]: sealed trait payloads and key
//     derivation
//   - [github.com/trouthatch/trout/artifact]: stored artifact format
//   - [github.com/trouthatch/trout/ledger], [github.com/trouthatch/trout/storage]:
//     the external collaborators and local implementations of them
//   - [github.com/trouthatch/trout/spawner]: the task orchestrator
//   - [github.com/trouthatch/trout/index]: artifact index and lineage queries
//
// # Quick Start
//
//	org, err := genetics.Spawn(42)
//	if err != nil {
//		return err
//	}
//	d, err := render.Draw(&org.Phenotype, render.Options{Seed: 42})
//	if err != nil {
//		return err
//	}
//	svg := d.SVG()
//
// # Logging
//
// Nothing is logged by default. Install a [log/slog] logger with
// [SetLogger]; every package shares it.
package trout

// Version is the library version.
const Version = "0.4.0"
