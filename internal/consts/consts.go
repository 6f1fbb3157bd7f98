package consts

const (
	LaplaceVariable = "s" // Laplace variable (complex frequency)
	Ground          = "0" // Ground node name
)

// Output tree of a project.
const (
	HTMLDir = "html"
	ImgDir  = "img"
	CirDir  = "cir"
)

// Prefixes of dependent variables.
const (
	VoltagePrefix = "V_"
	CurrentPrefix = "I_"
)

// IsGround reports whether a node name denotes the reference node.
func IsGround(node string) bool {
	return node == Ground || node == "gnd" || node == "GND"
}
