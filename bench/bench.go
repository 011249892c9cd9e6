// Package bench compares json5bind against other JSON decoders
// reading the strict JSON subset written with QuoteKeys.
package bench

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/romshark/jscan/v2"
	"github.com/tidwall/gjson"
	"github.com/valyala/fastjson"
)

var ErrInvalid = errors.New("invalid")

func errUnexpected[S []byte | string](tok jscan.Token[S], expected string) error {
	return fmt.Errorf(
		"at index %d: expected %s, received: %s",
		tok.Index, expected, tok.Type.String(),
	)
}

// jscanResult maps callback errors to err and other errors to errk.
func jscanResult[S []byte | string](errk jscan.Error[S], err error) error {
	if errk.IsErr() {
		if errk.Code == jscan.ErrorCodeCallback {
			if err == nil {
				err = ErrInvalid
			}
			return err
		}
		return errk
	}
	return nil
}

func jscanFloat[S []byte | string](src S, tok jscan.Token[S]) (float64, error) {
	if tok.Type != jscan.TokenTypeNumber && tok.Type != jscan.TokenTypeInteger {
		return 0, errUnexpected(tok, "number")
	}
	return strconv.ParseFloat(string(src[tok.Index:tok.End]), 64)
}

func JscanVector3D[S []byte | string](
	t *jscan.Tokenizer[S], src S,
) (v Vector3D, err error) {
	errk := t.Tokenize(src, func(tokens []jscan.Token[S]) bool {
		if tokens[0].Type != jscan.TokenTypeObject {
			err = errUnexpected(tokens[0], "object")
			return true
		}
		for ti := 1; tokens[ti].Type != jscan.TokenTypeObjectEnd; ti += 2 {
			var dst *float64
			switch string(src[tokens[ti].Index+1 : tokens[ti].End-1]) {
			case "x":
				dst = &v.X
			case "y":
				dst = &v.Y
			case "z":
				dst = &v.Z
			default:
				err = ErrInvalid
				return true
			}
			if *dst, err = jscanFloat(src, tokens[ti+1]); err != nil {
				return true
			}
		}
		return false
	})
	return v, jscanResult(errk, err)
}

func JscanRecord[S []byte | string](
	t *jscan.Tokenizer[S], src S,
) (r Record, err error) {
	errk := t.Tokenize(src, func(tokens []jscan.Token[S]) bool {
		if tokens[0].Type != jscan.TokenTypeObject {
			err = errUnexpected(tokens[0], "object")
			return true
		}
		for ti := 1; tokens[ti].Type != jscan.TokenTypeObjectEnd; {
			key := src[tokens[ti].Index+1 : tokens[ti].End-1]
			ti++
			switch string(key) {
			case "name":
				if r.Name, err = tokens[ti].String(src); err != nil {
					return true
				}
				ti++
			case "number":
				if r.Number, err = tokens[ti].Int(src); err != nil {
					return true
				}
				ti++
			case "tags":
				if tokens[ti].Type != jscan.TokenTypeArray {
					err = errUnexpected(tokens[ti], "array")
					return true
				}
				r.Tags = make([]string, 0, tokens[ti].Elements)
				for ti++; tokens[ti].Type != jscan.TokenTypeArrayEnd; ti++ {
					var s string
					if s, err = tokens[ti].String(src); err != nil {
						return true
					}
					r.Tags = append(r.Tags, s)
				}
				ti++
			default:
				err = ErrInvalid
				return true
			}
		}
		return false
	})
	return r, jscanResult(errk, err)
}

func JscanIntArray[S []byte | string](
	t *jscan.Tokenizer[S], src S,
) (a IntArray, err error) {
	errk := t.Tokenize(src, func(tokens []jscan.Token[S]) bool {
		if tokens[0].Type != jscan.TokenTypeObject || tokens[0].Elements != 1 ||
			string(src[tokens[1].Index+1:tokens[1].End-1]) != "data" {
			err = ErrInvalid
			return true
		}
		if tokens[2].Type != jscan.TokenTypeArray {
			err = errUnexpected(tokens[2], "array")
			return true
		}
		a.Data = make([]int, tokens[2].Elements)
		for i, ti := 0, 3; tokens[ti].Type != jscan.TokenTypeArrayEnd; i, ti = i+1, ti+1 {
			if tokens[ti].Type != jscan.TokenTypeInteger {
				err = errUnexpected(tokens[ti], "int")
				return true
			}
			if a.Data[i], err = tokens[ti].Int(src); err != nil {
				return true
			}
		}
		return false
	})
	return a, jscanResult(errk, err)
}

func GJSONVector3D(j []byte) (v Vector3D, err error) {
	if !gjson.ValidBytes(j) {
		return v, ErrInvalid
	}
	o := gjson.ParseBytes(j)
	if !o.IsObject() {
		return v, ErrInvalid
	}
	o.ForEach(func(key, value gjson.Result) bool {
		if value.Type != gjson.Number {
			err = ErrInvalid
			return false
		}
		switch key.Str {
		case "x":
			v.X = value.Num
		case "y":
			v.Y = value.Num
		case "z":
			v.Z = value.Num
		default:
			err = ErrInvalid
			return false
		}
		return true
	})
	return v, err
}

func GJSONRecord(j []byte) (r Record, err error) {
	if !gjson.ValidBytes(j) {
		return r, ErrInvalid
	}
	v := gjson.ParseBytes(j)
	if !v.IsObject() {
		return r, ErrInvalid
	}
	v.ForEach(func(key, value gjson.Result) bool {
		switch key.Str {
		case "name":
			if value.Type != gjson.String {
				err = ErrInvalid
				return false
			}
			r.Name = value.String()
		case "number":
			if value.Type != gjson.Number {
				err = ErrInvalid
				return false
			}
			var n int64
			if n, err = strconv.ParseInt(value.Raw, 10, 64); err != nil {
				return false
			}
			r.Number = int(n)
		case "tags":
			if !value.IsArray() {
				err = ErrInvalid
				return false
			}
			a := value.Array()
			r.Tags = make([]string, len(a))
			for i := range a {
				if a[i].Type != gjson.String {
					err = ErrInvalid
					return false
				}
				r.Tags[i] = a[i].String()
			}
		default:
			err = ErrInvalid
			return false
		}
		return true
	})
	return r, err
}

func GJSONIntArray(j []byte) (a IntArray, err error) {
	if !gjson.ValidBytes(j) {
		return a, ErrInvalid
	}
	data := gjson.GetBytes(j, "data")
	if !data.IsArray() {
		return a, ErrInvalid
	}
	l := data.Array()
	a.Data = make([]int, len(l))
	for i, item := range l {
		if item.Type != gjson.Number {
			return a, ErrInvalid
		}
		a.Data[i] = int(item.Int())
	}
	return a, nil
}

func FastjsonVector3D(j []byte) (v Vector3D, err error) {
	p, err := fastjson.ParseBytes(j)
	if err != nil {
		return v, err
	}
	o, err := p.Object()
	if err != nil {
		return v, err
	}
	o.Visit(func(key []byte, fv *fastjson.Value) {
		if err != nil {
			return
		}
		var f float64
		if f, err = fv.Float64(); err != nil {
			return
		}
		switch string(key) {
		case "x":
			v.X = f
		case "y":
			v.Y = f
		case "z":
			v.Z = f
		default:
			err = ErrInvalid
		}
	})
	return v, err
}

func FastjsonRecord(j []byte) (r Record, err error) {
	v, err := fastjson.ParseBytes(j)
	if err != nil {
		return r, err
	}
	o, err := v.Object()
	if err != nil {
		return r, err
	}
	o.Visit(func(key []byte, v *fastjson.Value) {
		if err != nil {
			return
		}
		switch string(key) {
		case "name":
			var b []byte
			if b, err = v.StringBytes(); err != nil {
				return
			}
			r.Name = string(b)
		case "number":
			r.Number, err = v.Int()
		case "tags":
			var a []*fastjson.Value
			if a, err = v.Array(); err != nil {
				return
			}
			r.Tags = make([]string, len(a))
			for i := range a {
				var b []byte
				if b, err = a[i].StringBytes(); err != nil {
					return
				}
				r.Tags[i] = string(b)
			}
		default:
			err = ErrInvalid
		}
	})
	return r, err
}

func FastjsonIntArray(j []byte) (a IntArray, err error) {
	v, err := fastjson.ParseBytes(j)
	if err != nil {
		return a, err
	}
	data := v.Get("data")
	if data == nil {
		return a, ErrInvalid
	}
	va, err := data.Array()
	if err != nil {
		return a, err
	}
	a.Data = make([]int, len(va))
	for i := range va {
		if a.Data[i], err = va[i].Int(); err != nil {
			return a, err
		}
	}
	return a, nil
}
