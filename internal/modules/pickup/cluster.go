// Package pickup groups unmatched passengers into shared pickup points on
// their assigned driver's route.
package pickup

import "carpool/internal/types"

// degreesPerKm approximates one kilometre in decimal degrees at mid
// latitudes; the clustering radius is small enough for this to hold.
const degreesPerKm = 1.0 / 111.0

// clusterIndexes runs density-based clustering over the points with a
// minimum cluster size of one, so isolated points form singleton clusters
// and no point is ever discarded as noise. With minPts=1 this reduces to
// connected components under the eps neighbourhood. Clusters are emitted in
// order of their lowest member index, members in index order, which keeps
// downstream assignment deterministic.
func clusterIndexes(points []types.Point, epsKm float64) [][]int {
	eps := epsKm * degreesPerKm
	visited := make([]bool, len(points))
	var clusters [][]int

	for i := range points {
		if visited[i] {
			continue
		}
		visited[i] = true
		cluster := []int{i}

		// Breadth-first expansion over the eps neighbourhood.
		for head := 0; head < len(cluster); head++ {
			p := points[cluster[head]]
			for j := range points {
				if visited[j] {
					continue
				}
				if withinEps(p, points[j], eps) {
					visited[j] = true
					cluster = append(cluster, j)
				}
			}
		}
		clusters = append(clusters, cluster)
	}
	return clusters
}

// withinEps uses euclidean distance in degree space, matching the eps
// conversion above.
func withinEps(a, b types.Point, eps float64) bool {
	dLat := a.Lat - b.Lat
	dLng := a.Lng - b.Lng
	return dLat*dLat+dLng*dLng <= eps*eps
}

func centroid(points []types.Point, indexes []int) types.Point {
	var lat, lng float64
	for _, i := range indexes {
		lat += points[i].Lat
		lng += points[i].Lng
	}
	n := float64(len(indexes))
	return types.Point{Lat: lat / n, Lng: lng / n}
}
