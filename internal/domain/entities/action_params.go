package entities

// Param is one named string parameter of an action.
type Param struct {
	Key   string
	Value string
}

// ActionParams is an ordered parameter bag. Order is preserved so logs read
// in the same order the parameters were declared.
type ActionParams []Param

// Get returns the value of key and whether it is present.
func (p ActionParams) Get(key string) (string, bool) {
	for _, param := range p {
		if param.Key == key {
			return param.Value, true
		}
	}
	return "", false
}

// Value returns the value of key, empty when absent.
func (p ActionParams) Value(key string) string {
	value, _ := p.Get(key)
	return value
}

// Set replaces the value of key or appends it.
func (p *ActionParams) Set(key, value string) {
	for i := range *p {
		if (*p)[i].Key == key {
			(*p)[i].Value = value
			return
		}
	}
	*p = append(*p, Param{Key: key, Value: value})
}

// Clone returns an independent copy.
func (p ActionParams) Clone() ActionParams {
	return append(ActionParams(nil), p...)
}
