package shader

// ShaderBuilderOption is a functional option used to configure a Shader during construction.
type ShaderBuilderOption func(*shader)

// WithEntryPoint requires the stage entry point to have the given name.
// Without it the first entry point declared for the stage is used.
//
// Parameters:
//   - name: the required entry point function name
//
// Returns:
//   - ShaderBuilderOption: option function to apply
func WithEntryPoint(name string) ShaderBuilderOption {
	return func(s *shader) {
		s.requiredEntryPoint = name
	}
}
