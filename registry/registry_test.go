package registry

import (
	"errors"
	"testing"

	"github.com/matryer/is"
)

type widget struct {
	Name  string `spec:"name"`
	Count int    `spec:"count"`
	Shiny bool   `spec:"shiny"`
}

func widgetCtor(reg *Registry, spec Spec) (any, error) {
	w := &widget{}
	if err := Decode(spec, w); err != nil {
		return nil, err
	}
	return w, nil
}

func TestCreate(t *testing.T) {
	is := is.New(t)
	reg := New()
	reg.Register("Widget", widgetCtor)
	is.True(reg.Has("Widget"))

	w, err := CreateAs[*widget](reg, "Widget", Spec{"name": "cog", "count": float64(3), "shiny": true})
	is.NoErr(err)
	is.Equal(w, &widget{Name: "cog", Count: 3, Shiny: true})

	_, err = reg.Create("Gadget", nil)
	is.True(errors.Is(err, ErrUnknownKind))
}

func TestCreateAsWrongType(t *testing.T) {
	is := is.New(t)
	reg := New()
	reg.Register("Widget", widgetCtor)
	_, err := CreateAs[string](reg, "Widget", Spec{})
	is.True(err != nil)
}

func TestRestoreUsesClass(t *testing.T) {
	is := is.New(t)
	reg := New()
	reg.Register("Widget", widgetCtor)
	reg.Register("ShinyWidget", func(reg *Registry, spec Spec) (any, error) {
		obj, err := widgetCtor(reg, spec)
		if err != nil {
			return nil, err
		}
		obj.(*widget).Shiny = true
		return obj, nil
	})
	w, err := Restore[*widget](reg, Spec{ClassKey: "ShinyWidget", "name": "a"}, "Widget")
	is.NoErr(err)
	is.True(w.Shiny)

	w, err = Restore[*widget](reg, Spec{"name": "b"}, "Widget")
	is.NoErr(err)
	is.True(!w.Shiny)
}

func TestAsList(t *testing.T) {
	is := is.New(t)
	l, err := AsList([]any{map[string]any{"a": 1}, map[any]any{"b": 2}})
	is.NoErr(err)
	is.Equal(len(l), 2)
	is.Equal(l[1]["b"], 2)

	_, err = AsList([]any{1})
	is.True(err != nil)

	l, err = AsList(nil)
	is.NoErr(err)
	is.Equal(len(l), 0)
}
