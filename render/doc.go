// Package render draws trout phenotypes as pen plotter style line art.
//
// A drawing is built from a phenotype and a seed. The body outline, its
// scales or markings, five fin groups, optional finlets and the head are
// generated as polylines in a model space, clipped so nearer parts hide
// farther ones, then simplified and fitted into a 520 by 320 canvas with a
// 10 unit border.
//
//	d, err := render.Draw(&org.Phenotype, render.Options{Seed: 42})
//	if err != nil {
//		return err
//	}
//	svg := d.SVG()
//
// A Drawing writes itself as SVG with [Drawing.WriteSVG] or rasterizes to
// PNG with [Drawing.WritePNG]. Seasonal drawings add a hat and snowfall
// from embedded artwork; captions are shaped and outlined from an embedded
// font so both outputs need no system fonts.
package render
