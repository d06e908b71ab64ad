package layer

// Priority levels for the configuration sources.
// Higher values override lower values during merging.
const (
	PriorityDefaults          = 0
	PriorityGlobalRC          = 100
	PriorityGlobalStructured  = 200
	PriorityProjectRC         = 300
	PriorityProjectStructured = 400
	PriorityEnv               = 500
)

// DefaultPriority returns the priority used for a given source.
func DefaultPriority(source Source) int {
	switch source {
	case SourceDefaults:
		return PriorityDefaults
	case SourceGlobalRC:
		return PriorityGlobalRC
	case SourceGlobalStructured:
		return PriorityGlobalStructured
	case SourceProjectRC:
		return PriorityProjectRC
	case SourceProjectStructured:
		return PriorityProjectStructured
	case SourceEnv:
		return PriorityEnv
	default:
		return PriorityDefaults
	}
}
