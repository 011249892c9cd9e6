package ffjsongen

//go:generate ffjson $GOFILE

type Vector3D struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

type Record struct {
	Name   string   `json:"name"`
	Number int      `json:"number"`
	Tags   []string `json:"tags"`
}

type IntArray struct {
	Data []int `json:"data"`
}
