package geom

import (
	"github.com/go-clipper/clipper2/clipper"

	"github.com/kschaper/goslicer/internal/config"
)

// toClipper / fromClipper translate between our Path/Paths and the
// kernel's Path64/Paths64, which share the same {X,Y int64} shape but
// are distinct named types.
func toClipperPaths(paths Paths) clipper.Paths64 {
	out := make(clipper.Paths64, len(paths))
	for i, p := range paths {
		cp := make(clipper.Path64, len(p))
		for j, v := range p {
			cp[j] = clipper.Point64{X: v.X, Y: v.Y}
		}
		out[i] = cp
	}
	return out
}

func fromClipperPaths(paths clipper.Paths64) Paths {
	out := make(Paths, len(paths))
	for i, p := range paths {
		op := make(Path, len(p))
		for j, v := range p {
			op[j] = Point{X: v.X, Y: v.Y}
		}
		out[i] = op
	}
	return out
}

func fillRule(r FillRule) clipper.FillRule {
	if r == EvenOdd {
		return clipper.EvenOdd
	}
	return clipper.NonZero
}

// Union merges subject and clip path sets into one, using the given
// fill rule. A nil clip set is a plain self-union of subject (used by
// stage 2/3 to fold raw stitched polygons into a clean forest).
func Union(subject, clip Paths, rule FillRule) Paths {
	c := clipper.NewClipper64()
	c.AddSubject(toClipperPaths(subject))
	if len(clip) > 0 {
		c.AddClip(toClipperPaths(clip))
	}
	solution, _ := c.Execute(clipper.Union, fillRule(rule))
	return fromClipperPaths(solution)
}

// Intersect returns the overlap of subject and clip.
func Intersect(subject, clip Paths, rule FillRule) Paths {
	if len(subject) == 0 || len(clip) == 0 {
		return nil
	}
	c := clipper.NewClipper64()
	c.AddSubject(toClipperPaths(subject))
	c.AddClip(toClipperPaths(clip))
	solution, _ := c.Execute(clipper.Intersection, fillRule(rule))
	return fromClipperPaths(solution)
}

// Difference returns subject minus clip.
func Difference(subject, clip Paths, rule FillRule) Paths {
	if len(subject) == 0 {
		return nil
	}
	if len(clip) == 0 {
		return subject
	}
	c := clipper.NewClipper64()
	c.AddSubject(toClipperPaths(subject))
	c.AddClip(toClipperPaths(clip))
	solution, _ := c.Execute(clipper.Difference, fillRule(rule))
	return fromClipperPaths(solution)
}

// ClipOpenLines intersects a set of open two-point (or polyline) paths
// against a closed clip region, returning only the portions that lie
// inside it. Used by infill clipping (§4.5) to cut infill lines down to
// the solid/sparse regions.
func ClipOpenLines(lines Paths, region Paths, rule FillRule) Paths {
	if len(lines) == 0 || len(region) == 0 {
		return nil
	}
	c := clipper.NewClipper64()
	c.AddOpenSubject(toClipperPaths(lines))
	c.AddClip(toClipperPaths(region))
	_, open := c.ExecuteOpen(clipper.Intersection, fillRule(rule))
	return fromClipperPaths(open)
}

func joinType(j config.JoinType) clipper.JoinType {
	switch j {
	case config.JoinSquare:
		return clipper.JoinSquare
	case config.JoinRound:
		return clipper.JoinRound
	default:
		return clipper.JoinMiter
	}
}

// OffsetParams bundles the join/miter/arc-tolerance knobs §4.3 says are
// configurable, so every offset call site doesn't need to thread four
// separate settings fields.
type OffsetParams struct {
	Join         config.JoinType
	MiterLimit   float64
	ArcTolerance float64
}

// OffsetClosed inflates (delta > 0) or deflates (delta < 0) a set of
// closed polygons by delta fixed-point units, returning the resulting
// closed paths. This is the single primitive behind shell generation,
// the overlap-removal pass, and shell-gap computation (§4.3).
func OffsetClosed(paths Paths, delta float64, p OffsetParams) Paths {
	if len(paths) == 0 {
		return nil
	}
	off := clipper.NewClipperOffset(p.MiterLimit, p.ArcTolerance)
	off.AddPaths(toClipperPaths(paths), joinType(p.Join), clipper.EndPolygon)
	solution := off.Execute(delta)
	return fromClipperPaths(solution)
}

// ForestNode is one node of the hierarchical polygon forest produced by
// unioning a layer's stitched polygons (§4.2): an outer contour (for the
// root pseudo-node, an unused placeholder) together with the holes
// immediately inside it and the further outer contours nested inside
// those holes.
type ForestNode struct {
	Polygon  Path
	IsHole   bool
	Children []*ForestNode
}

// BuildForest unions paths with the non-zero winding rule and returns
// the resulting polygon tree's top-level children. Each returned node
// with IsHole==false is a top-level outer contour; its Children are the
// holes immediately inside it (Children of those holes are nested outer
// contours starting new islands), matching §4.2's "each top-level outer
// and its immediate hole children become one island; nested outers start
// new islands."
func BuildForest(paths Paths) []*ForestNode {
	c := clipper.NewClipper64()
	c.AddSubject(toClipperPaths(paths))
	tree, _ := c.ExecuteTree(clipper.Union, clipper.NonZero)
	if tree == nil {
		return nil
	}
	return convertForest(tree.Childs)
}

func convertForest(nodes []*clipper.PolyPath64) []*ForestNode {
	out := make([]*ForestNode, 0, len(nodes))
	for _, n := range nodes {
		out = append(out, &ForestNode{
			Polygon:  fromClipperPath(n.Polygon),
			IsHole:   n.IsHole,
			Children: convertForest(n.Childs),
		})
	}
	return out
}

func fromClipperPath(p clipper.Path64) Path {
	out := make(Path, len(p))
	for i, v := range p {
		out[i] = Point{X: v.X, Y: v.Y}
	}
	return out
}
