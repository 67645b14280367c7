package form

import "net/url"

// Input is a field together with its current value, ready to render.
type Input struct {
	Field
	Value   string
	Checked bool
	Error   string
}

// Selected reports whether the option value is the current input value.
func (i Input) Selected(v string) bool {
	return i.Value == v
}

type Section struct {
	Name   string
	Inputs []Input
}

// Inputs groups the fields into sections in catalogue order. Values come
// from the submitted form when present, otherwise from field defaults.
// Pass nil values for a pristine form.
func Inputs(fields []Field, values url.Values, errs map[string]string) []Section {
	var sections []Section
	index := make(map[string]int)

	for _, f := range fields {
		in := Input{Field: f, Value: f.Default, Error: errs[f.Key]}
		if values != nil {
			in.Value = values.Get(f.Key)
		}
		if f.Kind == KindCheckbox {
			in.Checked = isChecked(in.Value)
		}

		i, ok := index[f.Section]
		if !ok {
			i = len(sections)
			index[f.Section] = i
			sections = append(sections, Section{Name: f.Section})
		}
		sections[i].Inputs = append(sections[i].Inputs, in)
	}
	return sections
}
