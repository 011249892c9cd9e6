package easyjsongen

import (
	"github.com/mailru/easyjson/jlexer"
	"github.com/mailru/easyjson/jwriter"
)

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

// object reads the members of an object calling member for every key.
func object(in *jlexer.Lexer, member func(key string)) {
	if in.IsNull() {
		in.Skip()
		return
	}
	in.Delim('{')
	for !in.IsDelim('}') {
		key := in.UnsafeFieldName(false)
		in.WantColon()
		if in.IsNull() {
			in.Skip()
			in.WantComma()
			continue
		}
		member(key)
		in.WantComma()
	}
	in.Delim('}')
}

func (v *Vector3D) UnmarshalEasyJSON(in *jlexer.Lexer) {
	object(in, func(key string) {
		switch key {
		case "x":
			v.X = in.Float64()
		case "y":
			v.Y = in.Float64()
		case "z":
			v.Z = in.Float64()
		default:
			in.SkipRecursive()
		}
	})
}

func (v Vector3D) MarshalEasyJSON(out *jwriter.Writer) {
	out.RawString(`{"x":`)
	out.Float64(v.X)
	out.RawString(`,"y":`)
	out.Float64(v.Y)
	out.RawString(`,"z":`)
	out.Float64(v.Z)
	out.RawByte('}')
}

func (v *Record) UnmarshalEasyJSON(in *jlexer.Lexer) {
	object(in, func(key string) {
		switch key {
		case "name":
			v.Name = in.String()
		case "number":
			v.Number = in.Int()
		case "tags":
			in.Delim('[')
			v.Tags = make([]string, 0, 4)
			for !in.IsDelim(']') {
				v.Tags = append(v.Tags, in.String())
				in.WantComma()
			}
			in.Delim(']')
		default:
			in.SkipRecursive()
		}
	})
}

func (v Record) MarshalEasyJSON(out *jwriter.Writer) {
	out.RawString(`{"name":`)
	out.String(v.Name)
	out.RawString(`,"number":`)
	out.Int(v.Number)
	out.RawString(`,"tags":[`)
	for i, t := range v.Tags {
		if i > 0 {
			out.RawByte(',')
		}
		out.String(t)
	}
	out.RawString(`]}`)
}

func (v *IntArray) UnmarshalEasyJSON(in *jlexer.Lexer) {
	object(in, func(key string) {
		if key != "data" {
			in.SkipRecursive()
			return
		}
		in.Delim('[')
		v.Data = make([]int, 0, 8)
		for !in.IsDelim(']') {
			v.Data = append(v.Data, in.Int())
			in.WantComma()
		}
		in.Delim(']')
	})
}

func (v IntArray) MarshalEasyJSON(out *jwriter.Writer) {
	out.RawString(`{"data":[`)
	for i, x := range v.Data {
		if i > 0 {
			out.RawByte(',')
		}
		out.Int(x)
	}
	out.RawString(`]}`)
}
