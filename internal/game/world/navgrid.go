package world

import (
	"container/heap"
	"math"

	"github.com/cory-johannsen/duelpanto/internal/game/geom"
)

// cell is a walkable grid coordinate.
type cell struct{ col, row int }

// navGrid marks which arena cells a body can stand in.
type navGrid struct {
	arena      *Arena
	cols, rows int
	open       []bool
}

func newNavGrid(a *Arena) *navGrid {
	cols, rows := a.gridSize()
	g := &navGrid{arena: a, cols: cols, rows: rows, open: make([]bool, cols*rows)}
	for row := 0; row < rows; row++ {
		for col := 0; col < cols; col++ {
			g.open[row*cols+col] = a.Clear(a.cellCentre(col, row))
		}
	}
	return g
}

func (g *navGrid) walkable(c cell) bool {
	if c.col < 0 || c.row < 0 || c.col >= g.cols || c.row >= g.rows {
		return false
	}
	return g.open[c.row*g.cols+c.col]
}

func (g *navGrid) centre(c cell) geom.Vec3 { return g.arena.cellCentre(c.col, c.row) }

func (g *navGrid) cellOf(p geom.Vec3) cell {
	col, row := g.arena.cellOf(p)
	return cell{col, row}
}

// nearest returns the walkable cell centre closest to p within radius.
func (g *navGrid) nearest(p geom.Vec3, radius float64) (geom.Vec3, bool) {
	if radius < 0 {
		return geom.Vec3{}, false
	}
	lo := g.cellOf(p.Sub(geom.V(radius, 0, radius)))
	hi := g.cellOf(p.Add(geom.V(radius, 0, radius)))
	best, bestDist, found := geom.Vec3{}, math.Inf(1), false
	for row := lo.row; row <= hi.row; row++ {
		for col := lo.col; col <= hi.col; col++ {
			c := cell{col, row}
			if !g.walkable(c) {
				continue
			}
			centre := g.centre(c)
			d := centre.Dist(p.Flat())
			if d <= radius && d < bestDist {
				best, bestDist, found = centre, d, true
			}
		}
	}
	return best, found
}

var neighbours = [8][2]int{
	{1, 0}, {-1, 0}, {0, 1}, {0, -1},
	{1, 1}, {1, -1}, {-1, 1}, {-1, -1},
}

// findPath returns the cells from start to goal inclusive using A*, or nil
// when goal is unreachable. Diagonal steps may not cut wall corners.
func (g *navGrid) findPath(start, goal cell) []cell {
	if !g.walkable(goal) {
		return nil
	}

	open := &nodeHeap{}
	heap.Init(open)
	heap.Push(open, &node{c: start, f: octile(start, goal)})

	came := make(map[cell]cell)
	gScore := map[cell]float64{start: 0}

	for open.Len() > 0 {
		cur := heap.Pop(open).(*node)
		if cur.c == goal {
			return reconstruct(came, goal)
		}
		for _, d := range neighbours {
			next := cell{cur.c.col + d[0], cur.c.row + d[1]}
			if !g.walkable(next) {
				continue
			}
			cost := 1.0
			if d[0] != 0 && d[1] != 0 {
				if !g.walkable(cell{cur.c.col + d[0], cur.c.row}) || !g.walkable(cell{cur.c.col, cur.c.row + d[1]}) {
					continue
				}
				cost = math.Sqrt2
			}
			tentative := gScore[cur.c] + cost
			if old, ok := gScore[next]; ok && tentative >= old {
				continue
			}
			gScore[next] = tentative
			came[next] = cur.c
			heap.Push(open, &node{c: next, f: tentative + octile(next, goal)})
		}
	}
	return nil
}

func octile(a, b cell) float64 {
	dx := math.Abs(float64(a.col - b.col))
	dz := math.Abs(float64(a.row - b.row))
	return dx + dz + (math.Sqrt2-2)*math.Min(dx, dz)
}

func reconstruct(came map[cell]cell, goal cell) []cell {
	path := []cell{goal}
	for cur := goal; ; {
		prev, ok := came[cur]
		if !ok {
			break
		}
		path = append(path, prev)
		cur = prev
	}
	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}
	return path
}

type node struct {
	c cell
	f float64
}

type nodeHeap []*node

func (h nodeHeap) Len() int           { return len(h) }
func (h nodeHeap) Less(i, j int) bool { return h[i].f < h[j].f }
func (h nodeHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }
func (h *nodeHeap) Push(x any)        { *h = append(*h, x.(*node)) }
func (h *nodeHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}
