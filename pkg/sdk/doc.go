// Package dbconsole embeds the database console in a Go program: query
// execution with history, spatial search over a map area, index exploration,
// and CSV upload against a remote multimodal database engine.
//
// The client wires the same use cases the HTTP console serves, in process.
//
//	client, _ := dbconsole.New(ctx, dbconsole.WithEngine("http://localhost:8000"))
//	defer client.Close()
//
//	res, _ := client.Query(ctx, "SELECT * FROM usuarios LIMIT 5")
//	fmt.Println(res.Table.Headers, len(res.Table.Rows))
//
//	hits, _ := client.Spatial().Search(ctx, dbconsole.SearchArea{
//	    Lat: -12.0464, Lng: -77.0428, RadiusKm: 10,
//	})
//	for _, p := range hits.Points {
//	    fmt.Printf("%s %.2f km\n", p.Name, p.DistanceKm)
//	}
//
// Result rows decode into structs by column name:
//
//	type usuario struct {
//	    ID     int    `dbconsole:"id,required"`
//	    Nombre string `dbconsole:"nombre"`
//	}
//	users, err := dbconsole.ScanRows[usuario](res.Table)
//
// The saved query lives in memory unless WithRedis is given.
package dbconsole
