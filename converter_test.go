package json5bind_test

import (
	"fmt"
	"reflect"
	"testing"

	"github.com/romshark/json5bind"

	"github.com/stretchr/testify/require"
)

func ptr[T any](v T) *T { return &v }

type Holder struct {
	Ptr  *int
	Null *int
	List []*string
}

var holderFields = json5bind.MustFieldSet(
	json5bind.Field("ptr", func(h *Holder) **int { return &h.Ptr }),
	json5bind.Field("null", func(h *Holder) **int { return &h.Null }),
	json5bind.Field("list", func(h *Holder) *[]*string { return &h.List }),
)

func (*Holder) JSONFields() *json5bind.FieldSet[Holder] { return holderFields }

func TestConvertPointers(t *testing.T) {
	const input = `{ptr:999,null:null,list:["first",null,"third"]}`
	expect := Holder{
		Ptr:  ptr(999),
		List: []*string{ptr("first"), nil, ptr("third")},
	}

	out, err := json5bind.MarshalString(expect, nil)
	require.NoError(t, err)
	require.Equal(t, input, out)

	s := newTestSetup[Holder](t)
	s.testOK(t, "read", input, expect)
	s.testOK(t, "all_null", `{ptr:null,null:null,list:[null]}`, Holder{List: []*string{nil}})

	explicit := newTestSetupWith[*int](json5bind.PointerOf[int](json5bind.ValueConverter[int]{}))
	explicit.testOK(t, "explicit_value", `7`, ptr(7))
	explicit.testOK(t, "explicit_null", `null`, nil)
	explicit.testErr(t, "explicit_wrong_type", `"7"`, json5bind.ErrorDecode{
		Err: json5bind.ErrUnexpectedToken, Index: 0,
	})

	out, err = json5bind.MarshalStringWith[*int](nil,
		json5bind.PointerOf[int](json5bind.ValueConverter[int]{}), nil)
	require.NoError(t, err)
	require.Equal(t, `null`, out)
}

func TestConvertSlices(t *testing.T) {
	s := newTestSetup[[]int](t)
	s.testStd(t, "empty", `[]`, []int{})
	s.testStd(t, "ints", `[1,2,3]`, []int{1, 2, 3})
	s.testOK(t, "trailing_comma", `[1,2,3,]`, []int{1, 2, 3})
	s.testErr(t, "element_type", `[1,"2"]`, json5bind.ErrorDecode{
		Err: json5bind.ErrUnexpectedToken, Index: 3,
	})
	s.testErr(t, "not_array", `{}`, json5bind.ErrorDecode{
		Err: json5bind.ErrUnexpectedToken, Index: 0,
	})

	matrix := newTestSetupWith[[][]int](json5bind.SliceOf[[]int](
		json5bind.SliceOf[int](json5bind.ValueConverter[int]{}),
	))
	matrix.testOK(t, "matrix", `[[1,2],[],[3]]`, [][]int{{1, 2}, {}, {3}})
	matrix.testErr(t, "matrix_element", `[[1],[true]]`, json5bind.ErrorDecode{
		Err: json5bind.ErrUnexpectedToken, Index: 6,
	})

	out, err := json5bind.MarshalString[[]string](nil, nil)
	require.NoError(t, err)
	require.Equal(t, `[]`, out)

	out, err = json5bind.MarshalStringWith([][]int{{1}, nil}, matrix.conv, nil)
	require.NoError(t, err)
	require.Equal(t, `[[1],[]]`, out)
}

func TestConvertArrays(t *testing.T) {
	s := newTestSetup[[3]int](t)
	s.testStd(t, "full", `[1,2,3]`, [3]int{1, 2, 3})
	s.testOK(t, "short", `[1,2]`, [3]int{1, 2, 0})
	s.testErr(t, "too_long", `[1,2,3,4]`, json5bind.ErrorDecode{
		Err: json5bind.ErrUnexpectedToken, Index: 7,
	})

	out, err := json5bind.MarshalString([2]bool{true, false}, nil)
	require.NoError(t, err)
	require.Equal(t, `[true,false]`, out)
}

func TestConvertSets(t *testing.T) {
	s := newTestSetup[map[string]struct{}](t)
	s.testOK(t, "collapse", `["b","a","b"]`, map[string]struct{}{"a": {}, "b": {}})
	s.testOK(t, "empty", `[]`, map[string]struct{}{})

	out, err := json5bind.MarshalString(map[string]struct{}{"c": {}, "a": {}, "b": {}}, nil)
	require.NoError(t, err)
	require.Equal(t, `["a","b","c"]`, out)

	conv := json5bind.SetOf[int](json5bind.ValueConverter[int]{})
	out, err = json5bind.MarshalStringWith(map[int]struct{}{3: {}, -1: {}, 2: {}}, conv, nil)
	require.NoError(t, err)
	require.Equal(t, `[-1,2,3]`, out)

	explicit := newTestSetupWith[map[int]struct{}](conv)
	explicit.testOK(t, "explicit", `[2,2,1]`, map[int]struct{}{1: {}, 2: {}})
	explicit.testErr(t, "explicit_element", `[1,1.5]`, json5bind.ErrorDecode{
		Err: json5bind.ErrUnexpectedToken, Index: 3,
	})
}

func TestConverterForUnsupported(t *testing.T) {
	for name, fn := range map[string]func() error{
		"map": func() error {
			_, err := json5bind.ConverterFor[map[string]int]()
			return err
		},
		"interface": func() error {
			_, err := json5bind.ConverterFor[fmt.Stringer]()
			return err
		},
		"struct": func() error {
			_, err := json5bind.ConverterFor[struct{ X int }]()
			return err
		},
		"chan": func() error {
			_, err := json5bind.ConverterFor[[]chan int]()
			return err
		},
	} {
		t.Run(name, func(t *testing.T) {
			require.ErrorIs(t, fn(), json5bind.ErrNoConverter)
		})
	}
	require.Panics(t, func() { json5bind.MustConverterFor[map[int]int]() })

	var m map[string]int
	require.ErrorIs(t, json5bind.ReadString(`{}`, &m, nil), json5bind.ErrNoConverter)
}

type Color int

const (
	Red Color = iota
	Green
	Blue
)

var colorConv = json5bind.MustEnumConverter(
	json5bind.EnumEntry[Color]{Value: Red, Name: "red"},
	json5bind.EnumEntry[Color]{Value: Green, Name: "green"},
	json5bind.EnumEntry[Color]{Value: Blue, Name: "blue"},
)

type Palette struct{ Color Color }

var paletteFields = json5bind.MustFieldSet(
	json5bind.FieldWith("color", func(p *Palette) *Color { return &p.Color },
		json5bind.Converter[Color](colorConv)),
)

func (*Palette) JSONFields() *json5bind.FieldSet[Palette] { return paletteFields }

func TestConvertEnum(t *testing.T) {
	s := newTestSetup[Palette](t)
	s.testOK(t, "green", `{color:"green"}`, Palette{Color: Green})
	s.testOK(t, "single_quotes", `{color:'blue'}`, Palette{Color: Blue})
	s.testErr(t, "unknown_name", `{color:"purple"}`, json5bind.ErrorDecode{
		Err: json5bind.ErrUnknownEnumName, Index: 7,
	})
	s.testErr(t, "number", `{color:1}`, json5bind.ErrorDecode{
		Err: json5bind.ErrUnexpectedToken, Index: 7,
	})

	out, err := json5bind.MarshalString(Palette{Color: Green}, nil)
	require.NoError(t, err)
	require.Equal(t, `{color:"green"}`, out)

	_, err = json5bind.MarshalString(Palette{Color: 7}, nil)
	require.ErrorIs(t, err, json5bind.ErrUnknownEnumValue)

	name, ok := colorConv.Name(Blue)
	require.True(t, ok)
	require.Equal(t, "blue", name)
	v, ok := colorConv.Value("red")
	require.True(t, ok)
	require.Equal(t, Red, v)
	_, ok = colorConv.Value("purple")
	require.False(t, ok)
}

func TestNewEnumConverterErrors(t *testing.T) {
	_, err := json5bind.NewEnumConverter(
		json5bind.EnumEntry[Color]{Value: Red, Name: "red"},
		json5bind.EnumEntry[Color]{Value: Green, Name: "red"},
	)
	require.ErrorContains(t, err, `duplicate name "red"`)

	_, err = json5bind.NewEnumConverter(
		json5bind.EnumEntry[Color]{Value: Red, Name: "red"},
		json5bind.EnumEntry[Color]{Value: Red, Name: "crimson"},
	)
	require.ErrorContains(t, err, `duplicate value 0`)
}

func TestConvertVariant(t *testing.T) {
	conv := json5bind.MustVariantConverter(
		json5bind.AltOf[any, float64](),
		json5bind.AltOf[any, int64](),
		json5bind.AltOf[any, string](),
	)
	require.Len(t, conv.Alternatives(), 3)
	require.Equal(t, reflect.TypeFor[float64](), conv.Alternatives()[0].Type())

	s := newTestSetupWith[any](conv)
	s.testOK(t, "integral_preference", `1`, int64(1))
	s.testOK(t, "number", `1.5`, 1.5)
	s.testOK(t, "string", `"x"`, "x")
	s.testErr(t, "no_alternative", `true`, json5bind.ErrorDecode{
		Err: json5bind.ErrNoVariantAlternative, Index: 0,
	})
	s.testErr(t, "null", `null`, json5bind.ErrorDecode{
		Err: json5bind.ErrNoVariantAlternative, Index: 0,
	})

	list := newTestSetupWith[[]any](json5bind.SliceOf[any](conv))
	list.testOK(t, "list", `[1, 2.5, "s", -3]`, []any{int64(1), 2.5, "s", int64(-3)})

	out, err := json5bind.MarshalStringWith[[]any](
		[]any{int64(5), 0.5, "s"}, json5bind.SliceOf[any](conv), nil)
	require.NoError(t, err)
	require.Equal(t, `[5,0.5,"s"]`, out)

	_, err = json5bind.MarshalStringWith[any](true, conv, nil)
	require.ErrorIs(t, err, json5bind.ErrNoVariantAlternative)
	_, err = json5bind.MarshalStringWith[any](nil, conv, nil)
	require.ErrorIs(t, err, json5bind.ErrNoVariantAlternative)
}

func TestConvertVariantDeclarationOrder(t *testing.T) {
	conv := json5bind.MustVariantConverter(
		json5bind.AltOf[any, int32](),
		json5bind.AltOf[any, int64](),
		json5bind.AltOf[any, *string](),
	)
	s := newTestSetupWith[any](conv)
	s.testOK(t, "first_integral", `7`, int32(7))
	s.testErr(t, "out_of_range", `3000000000`, json5bind.ErrorDecode{
		Err: json5bind.ErrIntegerOverflow, Index: 0,
	})
	s.testOK(t, "nullable", `"s"`, ptr("s"))

	out, err := json5bind.MarshalStringWith[any](nil, conv, nil)
	require.NoError(t, err)
	require.Equal(t, `null`, out)
	out, err = json5bind.MarshalStringWith[any](int64(9), conv, nil)
	require.NoError(t, err)
	require.Equal(t, `9`, out)
}

func TestNewVariantConverterErrors(t *testing.T) {
	_, err := json5bind.NewVariantConverter[any]()
	require.ErrorContains(t, err, "no alternatives")

	_, err = json5bind.NewVariantConverter(json5bind.Alt[int, int](json5bind.ValueConverter[int]{}))
	require.ErrorContains(t, err, "is not an interface")

	_, err = json5bind.NewVariantConverter(json5bind.AltOf[fmt.Stringer, int]())
	require.ErrorContains(t, err, "doesn't implement")

	_, err = json5bind.NewVariantConverter(json5bind.Alt[any, int](nil))
	require.ErrorIs(t, err, json5bind.ErrNoConverter)

	_, err = json5bind.NewVariantConverter(json5bind.AltOf[any, map[int]int]())
	require.ErrorIs(t, err, json5bind.ErrNoConverter)

	require.Panics(t, func() { json5bind.MustVariantConverter[any]() })
}

type Item interface{ isItem() }

type One struct{ X int }

type Two struct{ S string }

type Unregistered struct{}

func (*One) isItem()          {}
func (*Two) isItem()          {}
func (*Unregistered) isItem() {}

var oneFields = json5bind.MustFieldSet(
	json5bind.Field("x", func(o *One) *int { return &o.X }),
)

var twoFields = json5bind.MustFieldSet(
	json5bind.Field("s", func(o *Two) *string { return &o.S }),
)

func (*One) JSONFields() *json5bind.FieldSet[One] { return oneFields }
func (*Two) JSONFields() *json5bind.FieldSet[Two] { return twoFields }

var itemRegistry = json5bind.MustTypeRegistry(
	json5bind.PolymorphicType[Item, One]("One"),
	json5bind.PolymorphicType[Item, Two]("Two"),
)

type Box struct {
	Item  Item
	Items []Item
}

var boxFields = json5bind.MustFieldSet(
	json5bind.PolymorphicField("item", func(b *Box) *Item { return &b.Item },
		itemRegistry, "kind"),
	json5bind.PolymorphicSliceField("items", func(b *Box) *[]Item { return &b.Items },
		itemRegistry, "kind"),
)

func (*Box) JSONFields() *json5bind.FieldSet[Box] { return boxFields }

func TestConvertPolymorphic(t *testing.T) {
	box := Box{
		Item:  &One{X: 42},
		Items: []Item{&One{X: 1}, &Two{S: "abc"}, nil},
	}

	out, err := json5bind.MarshalString(box, &json5bind.WriteOptions{QuoteKeys: true})
	require.NoError(t, err)
	require.Equal(t, `{"item":{"kind":"One","x":42},`+
		`"items":[{"kind":"One","x":1},{"kind":"Two","s":"abc"},null]}`, out)

	s := newTestSetup[Box](t)
	s.testOK(t, "quoted", out, box)
	s.testOK(t, "json5", `{items:[], item:{kind:'Two', s:'x'}}`, Box{
		Item: &Two{S: "x"}, Items: []Item{},
	})
	s.testOK(t, "null", `{item:null,items:[null]}`, Box{Items: []Item{nil}})
	s.testErr(t, "discriminator_not_first", `{item:{x:42,kind:"One"},items:[]}`,
		json5bind.ErrorDecode{Err: json5bind.ErrMissingDiscriminator, Index: 7})
	s.testErr(t, "empty_object", `{item:{},items:[]}`,
		json5bind.ErrorDecode{Err: json5bind.ErrMissingDiscriminator, Index: 7})
	s.testErr(t, "unknown_tag", `{item:{kind:"Three"},items:[]}`,
		json5bind.ErrorDecode{Err: json5bind.ErrUnknownDiscriminator, Index: 12})
	s.testErr(t, "tag_not_string", `{item:{kind:1},items:[]}`,
		json5bind.ErrorDecode{Err: json5bind.ErrUnexpectedToken, Index: 12})
	s.testErr(t, "member_error", `{item:{kind:"One",x:"1"},items:[]}`,
		json5bind.ErrorDecode{Err: json5bind.ErrUnexpectedToken, Index: 20})
	s.testErr(t, "not_object", `{item:[],items:[]}`,
		json5bind.ErrorDecode{Err: json5bind.ErrUnexpectedToken, Index: 6})

	_, err = json5bind.MarshalString(Box{Item: &Unregistered{}}, nil)
	require.ErrorIs(t, err, json5bind.ErrUnregisteredType)

	out, err = json5bind.MarshalStringWith[Item](&Two{S: "t"},
		json5bind.Polymorphic(itemRegistry, ""), nil)
	require.NoError(t, err)
	require.Equal(t, `{type:"Two",s:"t"}`, out)
}

func TestTypeRegistry(t *testing.T) {
	e, ok := itemRegistry.Lookup("Two")
	require.True(t, ok)
	require.Equal(t, "Two", e.Tag())
	require.Equal(t, reflect.TypeFor[*Two](), e.Type())
	_, ok = itemRegistry.Lookup("Three")
	require.False(t, ok)

	_, err := json5bind.NewTypeRegistry(
		json5bind.PolymorphicType[Item, One]("One"),
		json5bind.PolymorphicType[Item, Two]("One"),
	)
	require.ErrorContains(t, err, `duplicate tag "One"`)

	_, err = json5bind.NewTypeRegistry(json5bind.PolymorphicType[Item, One](""))
	require.ErrorContains(t, err, "empty tag")

	_, err = json5bind.NewTypeRegistry(json5bind.PolymorphicType[Item, A]("A"))
	require.ErrorContains(t, err, "doesn't implement")

	require.Panics(t, func() {
		json5bind.MustTypeRegistry(json5bind.PolymorphicType[Item, One](""))
	})
}

type Tagged struct {
	N   int
	tag string
}

func (*Tagged) isItem() {}

func (t *Tagged) JSONTypeTag() string {
	if t.tag != "" {
		return t.tag
	}
	return "tagged"
}

var taggedFields = json5bind.MustFieldSet(
	json5bind.Field("n", func(t *Tagged) *int { return &t.N }),
)

func (*Tagged) JSONFields() *json5bind.FieldSet[Tagged] { return taggedFields }

func TestConvertPolymorphicTypeTagger(t *testing.T) {
	conv := json5bind.Polymorphic(json5bind.MustTypeRegistry(
		json5bind.PolymorphicType[Item, One]("One"),
		json5bind.PolymorphicType[Item, Tagged]("tagged"),
	), "")

	out, err := json5bind.MarshalStringWith[Item](&Tagged{N: 3}, conv, nil)
	require.NoError(t, err)
	require.Equal(t, `{type:"tagged",n:3}`, out)

	_, err = json5bind.MarshalStringWith[Item](&Tagged{tag: "bogus"}, conv, nil)
	require.ErrorIs(t, err, json5bind.ErrUnknownDiscriminator)

	_, err = json5bind.MarshalStringWith[Item](&Tagged{tag: "One"}, conv, nil)
	require.ErrorIs(t, err, json5bind.ErrUnregisteredType)

	s := newTestSetupWith[Item](conv)
	s.testOK(t, "read", `{type:"tagged",n:3}`, &Tagged{N: 3})
}

func TestConvertPolymorphicTagOfOtherType(t *testing.T) {
	// Tagged reports "tagged" but only One is registered under it.
	conv := json5bind.Polymorphic(json5bind.MustTypeRegistry(
		json5bind.PolymorphicType[Item, One]("tagged"),
	), "")

	var err error
	require.NotPanics(t, func() {
		_, err = json5bind.MarshalStringWith[Item](&Tagged{N: 1}, conv, nil)
	})
	require.ErrorIs(t, err, json5bind.ErrUnregisteredType)

	out, err := json5bind.MarshalStringWith[Item](&One{X: 1}, conv, nil)
	require.NoError(t, err)
	require.Equal(t, `{type:"tagged",x:1}`, out)
}

// Amount is read from either an integer amount of cents or a
// free-form string.
type Amount struct {
	Cents int64
	Text  string
}

func TestConvertTokenDispatch(t *testing.T) {
	conv := &json5bind.TokenDispatchConverter[Amount]{
		OnInteger: func(p *json5bind.Parser) (Amount, error) {
			c, err := p.ReadInt64()
			return Amount{Cents: c}, err
		},
		OnString: func(p *json5bind.Parser) (Amount, error) {
			s, err := p.ReadString()
			return Amount{Text: s}, err
		},
		OnNull: func(p *json5bind.Parser) (Amount, error) {
			return Amount{}, p.ReadNull()
		},
	}
	require.True(t, conv.AcceptsToken(json5bind.TokenInteger))
	require.False(t, conv.AcceptsToken(json5bind.TokenNumber))

	s := newTestSetupWith[[]Amount](json5bind.SliceOf[Amount](conv))
	s.testOK(t, "mixed", `[150, "free", null]`, []Amount{{Cents: 150}, {Text: "free"}, {}})
	s.testErr(t, "no_handler", `[1, 2.5]`, json5bind.ErrorDecode{
		Err: json5bind.ErrUnexpectedToken, Index: 4,
	})

	_, err := json5bind.MarshalStringWith(Amount{}, json5bind.Converter[Amount](conv), nil)
	require.ErrorIs(t, err, json5bind.ErrNoConverter)

	conv.WriteFunc = func(w *json5bind.Writer, a Amount) error {
		if a.Text != "" {
			w.String(a.Text)
		} else {
			w.Int64(a.Cents)
		}
		return w.Err()
	}
	out, err := json5bind.MarshalStringWith(Amount{Cents: 5}, json5bind.Converter[Amount](conv), nil)
	require.NoError(t, err)
	require.Equal(t, `5`, out)
}

// Point is written as a two element array.
type Point struct{ X, Y int }

func (p *Point) ReadJSON(r *json5bind.Parser) (err error) {
	if err = r.StartArray(); err != nil {
		return err
	}
	if err = json5bind.ReadTo(r, &p.X); err != nil {
		return err
	}
	if err = json5bind.ReadTo(r, &p.Y); err != nil {
		return err
	}
	return r.EndArray()
}

func (p Point) WriteJSON(w *json5bind.Writer) error {
	w.StartArray()
	w.Int64(int64(p.X))
	w.Int64(int64(p.Y))
	w.EndArray()
	return w.Err()
}

func (Point) AcceptsToken(k json5bind.TokenKind) bool { return k == json5bind.TokenStartArray }

func TestConvertCustom(t *testing.T) {
	s := newTestSetup[Point](t)
	s.testOK(t, "point", `[1,-2]`, Point{X: 1, Y: -2})
	s.testErr(t, "too_long", `[1,2,3]`, json5bind.ErrorDecode{
		Err: json5bind.ErrUnexpectedToken, Index: 5,
	})

	list := newTestSetup[[]Point](t)
	list.testOK(t, "list", `[[1,2],[3,4]]`, []Point{{1, 2}, {3, 4}})

	out, err := json5bind.MarshalString([]Point{{1, 2}, {3, 4}}, nil)
	require.NoError(t, err)
	require.Equal(t, `[[1,2],[3,4]]`, out)

	conv := json5bind.MustVariantConverter(
		json5bind.AltOf[any, Point](),
		json5bind.AltOf[any, string](),
	)
	variant := newTestSetupWith[any](conv)
	variant.testOK(t, "variant", `[5,6]`, Point{X: 5, Y: 6})
}

type Rec []Rec

func TestConvertRecursive(t *testing.T) {
	s := newTestSetup[Rec](t)
	s.testOK(t, "nested", `[[],[[]]]`, Rec{Rec{}, Rec{Rec{}}})

	out, err := json5bind.MarshalString(Rec{Rec{}, Rec{Rec{}}}, nil)
	require.NoError(t, err)
	require.Equal(t, `[[],[[]]]`, out)
}

type Tree struct {
	Value    int
	Children []*Tree
}

var treeFields = json5bind.MustFieldSet(
	json5bind.Field("value", func(t *Tree) *int { return &t.Value }),
	json5bind.Field("children", func(t *Tree) *[]*Tree { return &t.Children },
		json5bind.SkipIf(func(c []*Tree) bool { return len(c) == 0 })),
)

func (*Tree) JSONFields() *json5bind.FieldSet[Tree] { return treeFields }

func TestConvertTree(t *testing.T) {
	tree := Tree{Value: 1, Children: []*Tree{
		{Value: 2, Children: []*Tree{{Value: 3}}},
		nil,
		{Value: 4},
	}}
	const input = `{value:1,children:[{value:2,children:[{value:3}]},null,{value:4}]}`

	out, err := json5bind.MarshalString(tree, nil)
	require.NoError(t, err)
	require.Equal(t, input, out)

	s := newTestSetup[Tree](t)
	s.testOK(t, "tree", input, tree)
}
