package services

// Toolchain names the external programs a strategy shells out to.
type Toolchain struct {
	// Elevation prefixes service-control commands; empty runs them directly.
	Elevation  string
	ServiceCtl string
	Compose    string
}

// DefaultToolchain returns the tools used on a stock Linux host.
func DefaultToolchain() Toolchain {
	return Toolchain{
		Elevation:  "sudo",
		ServiceCtl: "systemctl",
		Compose:    "docker",
	}
}

func (t Toolchain) withDefaults() Toolchain {
	def := DefaultToolchain()
	if t.ServiceCtl == "" {
		t.ServiceCtl = def.ServiceCtl
	}
	if t.Compose == "" {
		t.Compose = def.Compose
	}
	return t
}
