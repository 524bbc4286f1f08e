package cluster

// agglomerate runs hierarchical agglomerative clustering with average
// linkage over a precomputed distance matrix. Every item starts as its
// own cluster; the closest pair is merged until exactly nClusters remain,
// so the output never exceeds the requested count. Clusters partition the
// input: every index appears in exactly one returned group, and member
// indices stay in ascending (original) order.
func agglomerate(dist [][]float64, nClusters int) [][]int {
	n := len(dist)
	if n == 0 {
		return nil
	}
	if nClusters < 1 {
		nClusters = 1
	}

	clusters := make([][]int, n)
	for i := range clusters {
		clusters[i] = []int{i}
	}

	for len(clusters) > nClusters {
		bi, bj, _ := closestPair(clusters, dist)
		if bi < 0 {
			break
		}
		clusters[bi] = mergeSorted(clusters[bi], clusters[bj])
		clusters = append(clusters[:bj], clusters[bj+1:]...)
	}

	return clusters
}

// closestPair finds the cluster pair with the smallest average linkage.
// Returns (-1, -1, 0) when fewer than two clusters remain.
func closestPair(clusters [][]int, dist [][]float64) (int, int, float64) {
	bi, bj := -1, -1
	best := 0.0
	for i := 0; i < len(clusters); i++ {
		for j := i + 1; j < len(clusters); j++ {
			d := averageLinkage(clusters[i], clusters[j], dist)
			if bi < 0 || d < best {
				bi, bj, best = i, j, d
			}
		}
	}
	return bi, bj, best
}

// averageLinkage is the mean pairwise distance between two clusters.
func averageLinkage(a, b []int, dist [][]float64) float64 {
	var sum float64
	for _, i := range a {
		for _, j := range b {
			sum += dist[i][j]
		}
	}
	return sum / float64(len(a)*len(b))
}

// mergeSorted merges two ascending index slices, preserving order.
func mergeSorted(a, b []int) []int {
	out := make([]int, 0, len(a)+len(b))
	i, j := 0, 0
	for i < len(a) && j < len(b) {
		if a[i] < b[j] {
			out = append(out, a[i])
			i++
		} else {
			out = append(out, b[j])
			j++
		}
	}
	out = append(out, a[i:]...)
	out = append(out, b[j:]...)
	return out
}
