package bench

import (
	"strconv"

	"github.com/romshark/json5bind"
)

type Vector3D struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

var vector3DFields = json5bind.MustFieldSet(
	json5bind.Field("x", func(v *Vector3D) *float64 { return &v.X }),
	json5bind.Field("y", func(v *Vector3D) *float64 { return &v.Y }),
	json5bind.Field("z", func(v *Vector3D) *float64 { return &v.Z }),
)

func (*Vector3D) JSONFields() *json5bind.FieldSet[Vector3D] { return vector3DFields }

type Record struct {
	Name   string   `json:"name"`
	Number int      `json:"number"`
	Tags   []string `json:"tags"`
}

var recordFields = json5bind.MustFieldSet(
	json5bind.Field("name", func(r *Record) *string { return &r.Name }),
	json5bind.Field("number", func(r *Record) *int { return &r.Number }),
	json5bind.Field("tags", func(r *Record) *[]string { return &r.Tags }),
)

func (*Record) JSONFields() *json5bind.FieldSet[Record] { return recordFields }

type IntArray struct {
	Data []int `json:"data"`
}

var intArrayFields = json5bind.MustFieldSet(
	json5bind.Field("data", func(a *IntArray) *[]int { return &a.Data }),
)

func (*IntArray) JSONFields() *json5bind.FieldSet[IntArray] { return intArrayFields }

type Catalog struct {
	Origin  Vector3D `json:"origin"`
	Records []Record `json:"records"`
}

var catalogFields = json5bind.MustFieldSet(
	json5bind.Field("origin", func(c *Catalog) *Vector3D { return &c.Origin }),
	json5bind.Field("records", func(c *Catalog) *[]Record { return &c.Records }),
)

func (*Catalog) JSONFields() *json5bind.FieldSet[Catalog] { return catalogFields }

// MakeCatalog returns a catalog of n records.
func MakeCatalog(n int) Catalog {
	c := Catalog{
		Origin:  Vector3D{X: 0.0052265971, Y: 12.6644301, Z: 10},
		Records: make([]Record, n),
	}
	for i := range c.Records {
		c.Records[i] = Record{
			Name:   "record " + strconv.Itoa(i),
			Number: i * 7,
			Tags:   []string{"even", "tag " + strconv.Itoa(i%16)}[i%2:],
		}
	}
	return c
}
