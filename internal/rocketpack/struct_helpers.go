package rocketpack

// ReadTaggedMap reads a map header, then for each pair reads the u64 tag and
// invokes field, which must consume the value itself (calling SkipField for
// a tag it doesn't recognize). This matches the wire convention used
// throughout §6: a struct is a map whose keys are u64 field tags, decoded by
// dispatching on tag and skipping the rest.
func (d *Decoder) ReadTaggedMap(field func(tag uint64) error) error {
	count, err := d.ReadMap()
	if err != nil {
		return err
	}
	for i := uint64(0); i < count; i++ {
		tag, err := d.ReadU64()
		if err != nil {
			return err
		}
		if err := field(tag); err != nil {
			return err
		}
	}
	return nil
}

// WriteTaggedField writes a u64 tag followed by the caller's value-writing
// callback, the encoder half of the map-of-tags convention.
func (e *Encoder) WriteTaggedField(tag uint64, write func(e *Encoder) error) error {
	if err := e.WriteU64(tag); err != nil {
		return err
	}
	return write(e)
}

// MissingField builds the "missing field" diagnostic named in §4.2's error
// taxonomy, for use when a tagged struct's Unpack finds a required tag absent
// after the map has been fully consumed.
func MissingField(name string) error {
	return &ErrOther{Message: "missing field: " + name}
}
