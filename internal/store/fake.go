package store

// Fake is an in-memory Slot for tests.
type Fake struct {
	// Value is the current slot content.
	Value uint16

	// Saves records every value written, in order.
	Saves []uint16

	// LoadError, if set, will be returned by Load.
	LoadError error

	// SaveError, if set, will be returned by Save.
	SaveError error
}

// NewFake creates a slot holding v.
func NewFake(v uint16) *Fake {
	return &Fake{Value: v}
}

// Load returns the current value.
func (f *Fake) Load() (uint16, error) {
	if f.LoadError != nil {
		return 0, f.LoadError
	}
	return f.Value, nil
}

// Save records and stores v.
func (f *Fake) Save(v uint16) error {
	if f.SaveError != nil {
		return f.SaveError
	}
	f.Value = v
	f.Saves = append(f.Saves, v)
	return nil
}
