package bench_test

import (
	"bytes"
	json "encoding/json"
	"runtime"
	"testing"

	"github.com/romshark/json5bind"
	"github.com/romshark/json5bind/bench"
	"github.com/romshark/json5bind/bench/easyjsongen"
	"github.com/romshark/json5bind/bench/ffjsongen"
	segmentio "github.com/segmentio/encoding/json"

	jsonv2 "github.com/go-json-experiment/json"
	goccy "github.com/goccy/go-json"
	jsoniter "github.com/json-iterator/go"
	easyjson "github.com/mailru/easyjson"
	ffjson "github.com/pquerna/ffjson/ffjson"
	jscan "github.com/romshark/jscan/v2"
	"github.com/stretchr/testify/require"
)

func TestImplementationsRecord(t *testing.T) {
	expect := bench.Record{
		Name:   "Jacob Smith",
		Number: -41,
		Tags:   []string{"", "first", "second"},
	}
	in := marshalJSON(t, expect)

	t.Run("std", func(t *testing.T) {
		var v bench.Record
		require.NoError(t, json.Unmarshal(in, &v))
		require.Equal(t, expect, v)
	})

	t.Run("jsoniter", func(t *testing.T) {
		var v bench.Record
		require.NoError(t, jsoniter.Unmarshal(in, &v))
		require.Equal(t, expect, v)
	})

	t.Run("goccy", func(t *testing.T) {
		var v bench.Record
		require.NoError(t, goccy.Unmarshal(in, &v))
		require.Equal(t, expect, v)
	})

	t.Run("easyjson", func(t *testing.T) {
		var v easyjsongen.Record
		require.NoError(t, easyjson.Unmarshal(in, &v))
		require.Equal(t, expect, bench.Record(v))

		out, err := easyjson.Marshal(v)
		require.NoError(t, err)
		var back bench.Record
		require.NoError(t, json5bind.ReadBytes(out, &back, nil))
		require.Equal(t, expect, back)
	})

	t.Run("ffjson", func(t *testing.T) {
		var v ffjsongen.Record
		require.NoError(t, ffjson.Unmarshal(in, &v))
		require.Equal(t, expect, bench.Record(v))
	})

	t.Run("gjson", func(t *testing.T) {
		v, err := bench.GJSONRecord(in)
		require.NoError(t, err)
		require.Equal(t, expect, v)
	})

	t.Run("fastjson", func(t *testing.T) {
		v, err := bench.FastjsonRecord(in)
		require.NoError(t, err)
		require.Equal(t, expect, v)
	})

	t.Run("jsonv2", func(t *testing.T) {
		var v bench.Record
		require.NoError(t, jsonv2.Unmarshal(in, &v))
		require.Equal(t, expect, v)
	})

	t.Run("segmentio", func(t *testing.T) {
		var v bench.Record
		require.NoError(t, segmentio.Unmarshal(in, &v))
		require.Equal(t, expect, v)
	})

	t.Run("jscan", func(t *testing.T) {
		tokenizer := jscan.NewTokenizer[[]byte](8, len(in)/2)
		v, err := bench.JscanRecord(tokenizer, in)
		require.NoError(t, err)
		require.Equal(t, expect, v)
	})

	t.Run("json5bind/sequential", func(t *testing.T) {
		var v bench.Record
		require.NoError(t, json5bind.ReadBytes(in, &v, nil))
		require.Equal(t, expect, v)
	})

	t.Run("json5bind/parallel", func(t *testing.T) {
		var v bench.Record
		require.NoError(t, json5bind.ReadFrom(bytes.NewReader(in), &v, nil))
		require.Equal(t, expect, v)
	})

	t.Run("json5bind/escapes", func(t *testing.T) {
		expect := bench.Record{
			Name: "Jacob \"Jake\" Smith\n\xc3\xa9\xe2\x80\xa8",
			Tags: []string{"tab\there", "\\", "\x00\x1f\x7f"},
		}
		in := marshalJSON(t, expect)
		for _, unmarshal := range []func([]byte, any) error{
			json.Unmarshal, jsoniter.Unmarshal, goccy.Unmarshal, segmentio.Unmarshal,
			func(b []byte, v any) error { return jsonv2.Unmarshal(b, v) },
		} {
			var v bench.Record
			require.NoError(t, unmarshal(in, &v), string(in))
			require.Equal(t, expect, v)
		}
	})

	t.Run("json5bind/std_output", func(t *testing.T) {
		for _, marshal := range []func(any) ([]byte, error){
			json.Marshal, jsoniter.Marshal, goccy.Marshal, segmentio.Marshal,
			func(v any) ([]byte, error) { return jsonv2.Marshal(v) },
		} {
			out, err := marshal(expect)
			require.NoError(t, err)
			var v bench.Record
			require.NoError(t, json5bind.ReadBytes(out, &v, nil), string(out))
			require.Equal(t, expect, v)
		}
	})
}

func BenchmarkDecodeRecord(b *testing.B) {
	in := marshalJSON(b, bench.Record{
		Name:   "Jacob",
		Number: 42,
		Tags:   []string{"first", "second", "third"},
	})

	b.Run("std", func(b *testing.B) {
		for n := 0; n < b.N; n++ {
			var v bench.Record
			if err := json.Unmarshal(in, &v); err != nil {
				b.Fatal(err)
			}
		}
	})

	b.Run("jsoniter", func(b *testing.B) {
		for n := 0; n < b.N; n++ {
			var v bench.Record
			if err := jsoniter.Unmarshal(in, &v); err != nil {
				b.Fatal(err)
			}
		}
	})

	b.Run("goccy", func(b *testing.B) {
		for n := 0; n < b.N; n++ {
			var v bench.Record
			if err := goccy.Unmarshal(in, &v); err != nil {
				b.Fatal(err)
			}
		}
	})

	b.Run("easyjson", func(b *testing.B) {
		for n := 0; n < b.N; n++ {
			var v easyjsongen.Record
			if err := easyjson.Unmarshal(in, &v); err != nil {
				b.Fatal(err)
			}
		}
	})

	b.Run("ffjson", func(b *testing.B) {
		for n := 0; n < b.N; n++ {
			var v ffjsongen.Record
			if err := ffjson.Unmarshal(in, &v); err != nil {
				b.Fatal(err)
			}
		}
	})

	b.Run("gjson", func(b *testing.B) {
		var v bench.Record
		var err error
		for n := 0; n < b.N; n++ {
			if v, err = bench.GJSONRecord(in); err != nil {
				b.Fatal(err)
			}
		}
		runtime.KeepAlive(v)
	})

	b.Run("fastjson", func(b *testing.B) {
		var v bench.Record
		var err error
		for n := 0; n < b.N; n++ {
			if v, err = bench.FastjsonRecord(in); err != nil {
				b.Fatal(err)
			}
		}
		runtime.KeepAlive(v)
	})

	b.Run("jsonv2", func(b *testing.B) {
		for n := 0; n < b.N; n++ {
			var v bench.Record
			if err := jsonv2.Unmarshal(in, &v); err != nil {
				b.Fatal(err)
			}
		}
	})

	b.Run("segmentio", func(b *testing.B) {
		for n := 0; n < b.N; n++ {
			var v bench.Record
			if err := segmentio.Unmarshal(in, &v); err != nil {
				b.Fatal(err)
			}
		}
	})

	b.Run("jscan", func(b *testing.B) {
		tokenizer := jscan.NewTokenizer[[]byte](8, len(in)/2)
		var v bench.Record
		var err error
		b.ResetTimer()
		for n := 0; n < b.N; n++ {
			if v, err = bench.JscanRecord(tokenizer, in); err != nil {
				b.Fatal(err)
			}
		}
		runtime.KeepAlive(v)
	})

	b.Run("json5bind", func(b *testing.B) {
		for n := 0; n < b.N; n++ {
			var v bench.Record
			if err := json5bind.ReadBytes(in, &v, nil); err != nil {
				b.Fatal(err)
			}
		}
	})
}
