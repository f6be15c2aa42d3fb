package colormodel

// EntityID/EntityName let internal/registry intern these types without
// depending on colormodel's concrete structs (the Registry is
// class-generic).

func (t *NumericType) EntityID() uint32   { return t.ID }
func (t *NumericType) EntityName() string { return t.Name }
func (t *NumericType) SetEntityID(id uint32) { t.ID = id }

func (c *Component) EntityID() uint32      { return c.ID }
func (c *Component) EntityName() string    { return c.Name }
func (c *Component) SetEntityID(id uint32) { c.ID = id }

func (m *Model) EntityID() uint32      { return m.ID }
func (m *Model) EntityName() string    { return m.Name }
func (m *Model) SetEntityID(id uint32) { m.ID = id }

func (s *Space) EntityID() uint32      { return s.ID }
func (s *Space) EntityName() string    { return s.Name }
func (s *Space) SetEntityID(id uint32) { s.ID = id }

func (f *PixelFormat) EntityID() uint32      { return f.ID }
func (f *PixelFormat) EntityName() string    { return f.Name }
func (f *PixelFormat) SetEntityID(id uint32) { f.ID = id }

func (t *TRC) EntityID() uint32      { return t.ID }
func (t *TRC) EntityName() string    { return t.Name }
func (t *TRC) SetEntityID(id uint32) { t.ID = id }
