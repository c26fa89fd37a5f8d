package model

// Grid is a parsed CSV file. The first row is the header.
type Grid struct {
	Rows [][]string `json:"rows"`
}

func (g Grid) Empty() bool {
	return len(g.Rows) == 0
}

func (g Grid) Header() []string {
	if g.Empty() {
		return nil
	}
	return g.Rows[0]
}

// Body returns every row after the header.
func (g Grid) Body() [][]string {
	if len(g.Rows) < 2 {
		return nil
	}
	return g.Rows[1:]
}
