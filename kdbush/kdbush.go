// Package kdbush is a static 2D index over points, sorted once into a flat KD layout.
package kdbush

import (
	"math"
)

// Point is an indexed location with an arbitrary payload.
type Point[T any] struct {
	X, Y float64
	Data T
}

type KDBush[T any] struct {
	NodeSize int
	Points   []Point[T]

	idxs   []int     // point indexes in KD order
	coords []float64 // interleaved x,y in KD order
}

const DefaultNodeSize = 64

func NewBush[T any](points []Point[T], nodeSize int) *KDBush[T] {
	if nodeSize <= 0 {
		nodeSize = DefaultNodeSize
	}
	b := KDBush[T]{}
	b.buildIndex(points, nodeSize)
	return &b
}

func (bush *KDBush[T]) Len() int {
	return len(bush.Points)
}

// Range returns the indexes of all points inside the box, edges included.
func (bush *KDBush[T]) Range(minX, minY, maxX, maxY float64) []int {
	if len(bush.idxs) == 0 {
		return nil
	}
	stack := []int{0, len(bush.idxs) - 1, 0}
	result := []int{}
	var x, y float64

	for len(stack) > 0 {
		axis := stack[len(stack)-1]
		right := stack[len(stack)-2]
		left := stack[len(stack)-3]
		stack = stack[:len(stack)-3]

		if right-left <= bush.NodeSize {
			for i := left; i <= right; i++ {
				x = bush.coords[2*i]
				y = bush.coords[2*i+1]
				if x >= minX && x <= maxX && y >= minY && y <= maxY {
					result = append(result, bush.idxs[i])
				}
			}
			continue
		}

		m := (left + right) / 2

		x = bush.coords[2*m]
		y = bush.coords[2*m+1]

		if x >= minX && x <= maxX && y >= minY && y <= maxY {
			result = append(result, bush.idxs[m])
		}

		nextAxis := (axis + 1) % 2

		if (axis == 0 && minX <= x) || (axis != 0 && minY <= y) {
			stack = append(stack, left, m-1, nextAxis)
		}
		if (axis == 0 && maxX >= x) || (axis != 0 && maxY >= y) {
			stack = append(stack, m+1, right, nextAxis)
		}
	}
	return result
}

// Within calls handler with the index and squared distance of every point closer
// than or at radius from (qx, qy). Returning false from handler stops the search.
func (bush *KDBush[T]) Within(qx, qy float64, radius float64, handler func(i int, dist2 float64) bool) {
	if len(bush.idxs) == 0 {
		return
	}
	stack := []int{0, len(bush.idxs) - 1, 0}
	r2 := radius * radius

	for len(stack) > 0 {
		axis := stack[len(stack)-1]
		right := stack[len(stack)-2]
		left := stack[len(stack)-3]
		stack = stack[:len(stack)-3]

		if right-left <= bush.NodeSize {
			for i := left; i <= right; i++ {
				dst := sqDist(bush.coords[2*i], bush.coords[2*i+1], qx, qy)
				if dst <= r2 {
					if !handler(bush.idxs[i], dst) {
						return
					}
				}
			}
			continue
		}

		m := (left + right) / 2
		x := bush.coords[2*m]
		y := bush.coords[2*m+1]

		if dst := sqDist(x, y, qx, qy); dst <= r2 {
			if !handler(bush.idxs[m], dst) {
				return
			}
		}

		nextAxis := (axis + 1) % 2

		if (axis == 0 && (qx-radius <= x)) || (axis != 0 && (qy-radius <= y)) {
			stack = append(stack, left, m-1, nextAxis)
		}
		if (axis == 0 && (qx+radius >= x)) || (axis != 0 && (qy+radius >= y)) {
			stack = append(stack, m+1, right, nextAxis)
		}
	}
}

// Count returns the number of points within radius of (qx, qy).
func (bush *KDBush[T]) Count(qx, qy float64, radius float64) int {
	n := 0
	bush.Within(qx, qy, radius, func(int, float64) bool {
		n++
		return true
	})
	return n
}

func (bush *KDBush[T]) buildIndex(points []Point[T], nodeSize int) {
	bush.NodeSize = nodeSize
	bush.Points = points

	bush.idxs = make([]int, len(points))
	bush.coords = make([]float64, 2*len(points))

	for i, v := range points {
		bush.idxs[i] = i
		bush.coords[i*2] = v.X
		bush.coords[i*2+1] = v.Y
	}

	sortKD(bush.idxs, bush.coords, bush.NodeSize, 0, len(bush.idxs)-1, 0)
}

func sortKD(idxs []int, coords []float64, nodeSize int, left, right, depth int) {
	if (right - left) <= nodeSize {
		return
	}

	m := (left + right) / 2

	sselect(idxs, coords, m, left, right, depth%2)

	sortKD(idxs, coords, nodeSize, left, m-1, depth+1)
	sortKD(idxs, coords, nodeSize, m+1, right, depth+1)
}

// sselect is Floyd-Rivest selection: puts the k-th smallest coordinate on axis inc at k.
func sselect(idxs []int, coords []float64, k, left, right, inc int) {
	for right > left {
		if (right - left) > 600 {
			n := right - left + 1
			m := k - left + 1
			z := math.Log(float64(n))
			s := 0.5 * math.Exp(2.0*z/3.0)
			sds := 1.0
			if float64(m)-float64(n)/2.0 < 0 {
				sds = -1.0
			}
			sd := 0.5 * math.Sqrt(z*s*(float64(n)-s)/float64(n)) * sds
			newLeft := max(left, int(math.Floor(float64(k)-float64(m)*s/float64(n)+sd)))
			newRight := min(right, int(math.Floor(float64(k)+float64(n-m)*s/float64(n)+sd)))
			sselect(idxs, coords, k, newLeft, newRight, inc)
		}

		t := coords[2*k+inc]
		i := left
		j := right

		swapItem(idxs, coords, left, k)
		if coords[2*right+inc] > t {
			swapItem(idxs, coords, left, right)
		}

		for i < j {
			swapItem(idxs, coords, i, j)
			i++
			j--
			for coords[2*i+inc] < t {
				i++
			}
			for coords[2*j+inc] > t {
				j--
			}
		}

		if coords[2*left+inc] == t {
			swapItem(idxs, coords, left, j)
		} else {
			j++
			swapItem(idxs, coords, j, right)
		}

		if j <= k {
			left = j + 1
		}
		if k <= j {
			right = j - 1
		}
	}
}

func swapItem(idxs []int, coords []float64, i, j int) {
	idxs[i], idxs[j] = idxs[j], idxs[i]
	coords[2*i], coords[2*j] = coords[2*j], coords[2*i]
	coords[2*i+1], coords[2*j+1] = coords[2*j+1], coords[2*i+1]
}

func sqDist(ax, ay, bx, by float64) float64 {
	dx := ax - bx
	dy := ay - by
	return dx*dx + dy*dy
}
