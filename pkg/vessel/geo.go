package vessel

import "math"

const earthRadiusKm = 6371.0

// greatCircle computes the distance (km) and bearing (degrees, 0..360)
// from (lat1,lon1) to (lat2,lon2), grounded on original_source's
// PlaneDB::getDistanceAndBearing haversine formula.
func greatCircle(lat1, lon1, lat2, lon2 float64) (distanceKm float64, bearingDeg float64) {
	rlat1 := deg2rad(lat1)
	rlon1 := deg2rad(lon1)
	rlat2 := deg2rad(lat2)
	rlon2 := deg2rad(lon2)

	dlat := rlat2 - rlat1
	dlon := rlon2 - rlon1
	a := math.Sin(dlat/2)*math.Sin(dlat/2) + math.Cos(rlat1)*math.Cos(rlat2)*math.Sin(dlon/2)*math.Sin(dlon/2)
	distanceKm = 2 * earthRadiusKm * math.Asin(math.Sqrt(a))

	y := math.Sin(dlon) * math.Cos(rlat2)
	x := math.Cos(rlat1)*math.Sin(rlat2) - math.Sin(rlat1)*math.Cos(rlat2)*math.Cos(dlon)
	bearingDeg = rad2degNormalized(math.Atan2(y, x))
	return distanceKm, bearingDeg
}

func deg2rad(d float64) float64 { return d * math.Pi / 180.0 }

func rad2degNormalized(r float64) float64 {
	deg := math.Mod(360+r*180/math.Pi, 360)
	return deg
}
