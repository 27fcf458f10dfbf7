package dispatch

// Form is an interactive form on the page. Async marks the form as opted into
// intercepted submission; Redirect is the page to open after success.
type Form struct {
	ID       string
	Action   string
	Method   string
	Async    bool
	Redirect string

	values   map[string]string
	defaults map[string]string
}

// NewForm creates a form whose reset state is initial.
func NewForm(id string, initial map[string]string) *Form {
	f := &Form{
		ID:       id,
		Method:   "POST",
		values:   make(map[string]string, len(initial)),
		defaults: make(map[string]string, len(initial)),
	}
	for k, v := range initial {
		f.values[k] = v
		f.defaults[k] = v
	}
	return f
}

// Set assigns a field value.
func (f *Form) Set(name, value string) {
	if f.values == nil {
		f.values = make(map[string]string)
	}
	f.values[name] = value
}

// Value returns a field value.
func (f *Form) Value(name string) string {
	return f.values[name]
}

// Values returns a copy of the current field values.
func (f *Form) Values() map[string]string {
	out := make(map[string]string, len(f.values))
	for k, v := range f.values {
		out[k] = v
	}
	return out
}

// Reset restores every field to its initial value and drops fields added
// since.
func (f *Form) Reset() {
	f.values = make(map[string]string, len(f.defaults))
	for k, v := range f.defaults {
		f.values[k] = v
	}
}

func (f *Form) submission() Submission {
	method := f.Method
	if method == "" {
		method = "POST"
	}
	return Submission{FormID: f.ID, Action: f.Action, Method: method, Values: f.Values()}
}
