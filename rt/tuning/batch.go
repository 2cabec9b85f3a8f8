package tuning

// Registrar is implemented by every declaration (Bounded, Bool).
type Registrar interface {
	Register()
}

// Batch is a list of declarations registered together.
//
//	var (
//		speed = tuning.NewFloat32(reg, "player", "speed", 4, tuning.WithMin[float32](0))
//		jump  = tuning.NewBool(reg, "player", "double_jump", false)
//	)
//	var playerVars = tuning.Declare(speed, jump)
//
//	playerVars.Register()
type Batch []Registrar

// Declare groups declarations into a Batch. Nil entries are dropped.
func Declare(defs ...Registrar) Batch {
	out := make(Batch, 0, len(defs))
	for _, d := range defs {
		if d != nil {
			out = append(out, d)
		}
	}
	return out
}

// Register registers every declaration of the batch, in order.
func (b Batch) Register() {
	for _, d := range b {
		d.Register()
	}
}
