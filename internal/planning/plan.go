package planning

// PlannedField is the external shape of one collected field: the scope it
// was collected under, its coordinate and the graph that resolves it.
type PlannedField struct {
	Scope      string `json:"scope"`
	Coordinate string `json:"coordinate"`
	Service    string `json:"service,omitempty"`
}

// RootFieldSet collects the operation's top-level selection set against
// the schema root and maps each field to its owning service.
func (c *Context) RootFieldSet() ([]PlannedField, error) {
	root, err := c.RootType()
	if err != nil {
		return nil, err
	}
	scope := NewScope(c, root)
	fields, err := c.CollectFields(scope, c.Operation.SelectionSet)
	if err != nil {
		return nil, err
	}
	out := make([]PlannedField, len(fields))
	for i, f := range fields {
		service := ""
		if f.Def.Parent() != nil {
			service = c.OwningService(f.Scope.Parent(), f.Def)
		} else {
			// Meta fields resolve wherever their parent type lives.
			service = c.BaseService(f.Scope.Parent())
		}
		out[i] = PlannedField{
			Scope:      f.Scope.IdentityKey(),
			Coordinate: f.Coordinate(),
			Service:    service,
		}
	}
	return out, nil
}
