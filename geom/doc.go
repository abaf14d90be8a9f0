// Package geom is the polyline geometry kernel used to draw organisms.
//
// Everything is expressed as polylines ([Polyline]) and polygons (a
// Polyline read as closed). The kernel provides:
//
//   - segment intersection and half-plane tests
//   - clipping of polylines against polygons ([Clip]) or against an
//     arbitrary per-point predicate ([BinClip])
//   - polygon union by boundary tracing ([Union]), with [Bridge] as the
//     fallback for polygons that never cross
//   - chord-length resampling ([Resample]) and Douglas-Peucker
//     simplification ([Simplify])
//   - Poisson-disk sampling and the hatch, shade, vein, dot and scale
//     textures built on top of them
//   - affine transforms ([Matrix]) and Bezier flattening for decorative
//     outlines
//
// Operations never return errors: degenerate input yields empty or
// pass-through output. Functions that draw randomness take a
// *noise.Rand so callers control reproducibility.
//
// # Coordinate System
//
// Coordinates follow the SVG convention: origin at top-left, X increases
// right, Y increases down.
package geom
