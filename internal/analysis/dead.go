package analysis

import "github.com/dmmcquay/goban/internal/board"

// eyesForLife is the number of independent eyes a group needs to be alive.
const eyesForLife = 2

// DeadGroups returns every group that fails the two-eye test. Stones of dead
// groups are credited to the opponent when scoring.
func DeadGroups(p Position) []board.Group {
	var dead []board.Group
	for _, g := range groups(p) {
		if countEyes(p, g) < eyesForLife {
			dead = append(dead, g)
		}
	}
	return dead
}

// IsAlive reports whether g has at least two eyes.
func IsAlive(p Position, g board.Group) bool {
	return countEyes(p, g) >= eyesForLife
}

// countEyes flood-fills the empty regions touching g. A region counts as an
// eye when none of its points borders an opposing stone. Regions reached from
// several stones of the group are counted once.
func countEyes(p Position, g board.Group) int {
	size := p.Size()
	seen := make([]bool, size*size)
	opp := g.Color.Opponent()

	eyes := 0
	for _, s := range g.Stones {
		for _, start := range p.Neighbors(s.X, s.Y) {
			if p.At(start.X, start.Y) != board.Empty || seen[start.Y*size+start.X] {
				continue
			}
			if !touchesColor(p, fillEmpty(p, start, seen), opp) {
				eyes++
			}
		}
	}
	return eyes
}

// fillEmpty returns the connected empty region containing start, marking its
// points in seen.
func fillEmpty(p Position, start board.Point, seen []bool) []board.Point {
	size := p.Size()
	var region []board.Point
	stack := []board.Point{start}
	seen[start.Y*size+start.X] = true
	for len(stack) > 0 {
		pt := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		region = append(region, pt)

		for _, nb := range p.Neighbors(pt.X, pt.Y) {
			i := nb.Y*size + nb.X
			if seen[i] || p.At(nb.X, nb.Y) != board.Empty {
				continue
			}
			seen[i] = true
			stack = append(stack, nb)
		}
	}
	return region
}

func touchesColor(p Position, region []board.Point, color board.Color) bool {
	for _, pt := range region {
		for _, nb := range p.Neighbors(pt.X, pt.Y) {
			if p.At(nb.X, nb.Y) == color {
				return true
			}
		}
	}
	return false
}

// DeadMask marks every stone belonging to a dead group, indexed as mask[y][x].
func DeadMask(p Position) [][]bool {
	return maskFrom(p.Size(), DeadGroups(p))
}

func maskFrom(size int, dead []board.Group) [][]bool {
	mask := make([][]bool, size)
	for y := range mask {
		mask[y] = make([]bool, size)
	}
	for _, g := range dead {
		for _, s := range g.Stones {
			mask[s.Y][s.X] = true
		}
	}
	return mask
}
