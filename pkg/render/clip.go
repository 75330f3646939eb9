package render

// clipNearFar clips a view-space polygon to the slab between the near
// plane (z = -near) and the far plane (z = -far) with Sutherland–Hodgman.
// Vertices created on a plane interpolate every attribute. The result is
// appended to dst and may have fewer than 3 vertices when nothing remains.
func clipNearFar(dst, poly []pipelineVertex, near, far float64) []pipelineVertex {
	var tmp [9]pipelineVertex
	nearSide := clipPolygon(tmp[:0], poly, func(v *pipelineVertex) float64 {
		return -v.view.Z - near
	})
	return clipPolygon(dst, nearSide, func(v *pipelineVertex) float64 {
		return v.view.Z + far
	})
}

// clipPolygon keeps the part of poly where dist >= 0.
func clipPolygon(dst, poly []pipelineVertex, dist func(v *pipelineVertex) float64) []pipelineVertex {
	for i := range poly {
		a, b := &poly[i], &poly[(i+1)%len(poly)]
		da, db := dist(a), dist(b)
		if da >= 0 {
			dst = append(dst, *a)
		}
		if (da >= 0) != (db >= 0) {
			dst = append(dst, a.lerp(b, da/(da-db)))
		}
	}
	return dst
}

// needsClip reports whether any corner lies outside the near/far slab.
func needsClip(tri *[3]pipelineVertex, near, far float64) bool {
	for i := range tri {
		z := tri[i].view.Z
		if z > -near || z < -far {
			return true
		}
	}
	return false
}
