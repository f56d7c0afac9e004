// Package point holds the typed spatial record produced from engine rows.
package point

// DefaultCategory is used when a row carries no category.
const DefaultCategory = "Other"

// Attribute is one extra positional value of a row.
type Attribute struct {
	Key   string
	Value string
}

// Point is a spatial record. Lat/Lng are always finite and in range.
type Point struct {
	ID         string
	Name       string
	Lat        float64
	Lng        float64
	Category   string
	Attributes []Attribute
}

// Attribute returns the value stored under key.
func (p *Point) Attribute(key string) (string, bool) {
	for _, a := range p.Attributes {
		if a.Key == key {
			return a.Value, true
		}
	}
	return "", false
}

// Seed returns the demo points of central Lima shown before the first search.
func Seed() []Point {
	return []Point{
		{ID: "1", Name: "Universidad Tecnológica del Perú", Lat: -12.0464, Lng: -77.0428, Category: "Universidad",
			Attributes: []Attribute{{Key: "estudiantes", Value: "15000"}, {Key: "fundacion", Value: "1997"}}},
		{ID: "2", Name: "Plaza de Armas", Lat: -12.0431, Lng: -77.0282, Category: "Sitio Histórico",
			Attributes: []Attribute{{Key: "año", Value: "1535"}, {Key: "area", Value: "133.8 m²"}}},
		{ID: "3", Name: "Miraflores", Lat: -12.1196, Lng: -77.0278, Category: "Distrito",
			Attributes: []Attribute{{Key: "poblacion", Value: "81932"}, {Key: "area", Value: "9.62 km²"}}},
		{ID: "4", Name: "Callao", Lat: -12.0566, Lng: -77.1181, Category: "Puerto",
			Attributes: []Attribute{{Key: "puerto", Value: "Principal"}, {Key: "año", Value: "1537"}}},
		{ID: "5", Name: "San Isidro", Lat: -12.1028, Lng: -77.0347, Category: "Distrito",
			Attributes: []Attribute{{Key: "poblacion", Value: "54206"}, {Key: "area", Value: "11.1 km²"}}},
		{ID: "6", Name: "Barranco", Lat: -12.1461, Lng: -77.0208, Category: "Distrito",
			Attributes: []Attribute{{Key: "poblacion", Value: "29984"}, {Key: "area", Value: "3.33 km²"}}},
	}
}
